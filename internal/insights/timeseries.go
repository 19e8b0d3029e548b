package insights

import "time"

const dayFormat = "2006-01-02"

// TimeSeriesPoint is one daily bucket of the dashboard chart.
type TimeSeriesPoint struct {
	Data    string  `json:"data"`
	Gasto   float64 `json:"gasto"`
	Leads   int64   `json:"leads"`
	Vendas  int64   `json:"vendas"`
	Cliques int64   `json:"cliques"`
	Alcance int64   `json:"alcance"`
}

// DayTotals carries the per-day sums produced by the store for
// daily-granularity snapshots.
type DayTotals struct {
	Gasto   float64
	Leads   int64
	Vendas  int64
	Cliques int64
	Alcance int64
}

// DayRange enumerates every calendar day from start to end, inclusive on
// both sides. An end before start yields an empty slice.
func DayRange(start, end time.Time) []time.Time {
	start = truncateDay(start)
	end = truncateDay(end)

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// BuildSeries produces one point per day in the inclusive range, filling
// days without stored totals with zeros. Totals are keyed by ISO date.
func BuildSeries(start, end time.Time, totals map[string]DayTotals) []TimeSeriesPoint {
	days := DayRange(start, end)
	points := make([]TimeSeriesPoint, 0, len(days))
	for _, d := range days {
		key := d.Format(dayFormat)
		t := totals[key]
		points = append(points, TimeSeriesPoint{
			Data:    key,
			Gasto:   t.Gasto,
			Leads:   t.Leads,
			Vendas:  t.Vendas,
			Cliques: t.Cliques,
			Alcance: t.Alcance,
		})
	}
	return points
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
