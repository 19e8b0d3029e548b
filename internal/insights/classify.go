package insights

// Performance is the categorical rating of a node's headline ratios.
type Performance string

const (
	PerformanceExcellent Performance = "excellent"
	PerformanceGood      Performance = "good"
	PerformanceMedium    Performance = "medium"
	PerformancePoor      Performance = "poor"
)

// Classify maps ROAS and CTR into a four-level rating. Thresholds are
// inclusive and evaluated top-down, first match wins.
func Classify(roas, ctr float64) Performance {
	switch {
	case roas >= 3 && ctr >= 2:
		return PerformanceExcellent
	case roas >= 2 && ctr >= 1.5:
		return PerformanceGood
	case roas >= 1.5 && ctr >= 1:
		return PerformanceMedium
	default:
		return PerformancePoor
	}
}
