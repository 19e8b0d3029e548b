package insights

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vendaflow/funildash/internal/models"
)

// CreativeComparison pairs a creative with its aggregated metrics for the
// side-by-side dashboard view.
type CreativeComparison struct {
	Criativo    models.Criativo   `json:"criativo"`
	Metricas    AggregatedMetrics `json:"metricas"`
	Performance Performance       `json:"performance"`
}

// CompareCreatives aggregates each creative's snapshots for the period and
// sorts the result by ROAS descending. Equal ROAS falls back to id
// ascending so the order is deterministic. Fetch failures default the
// affected creative to zero metrics, same as hierarchy nodes.
func (a *Assembler) CompareCreatives(ctx context.Context, criativos []models.Criativo, inicio, fim time.Time) []CreativeComparison {
	out := make([]CreativeComparison, len(criativos))
	for i, cr := range criativos {
		out[i].Criativo = cr
	}

	annotateComparisons(ctx, a, out, inicio, fim)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Metricas.ROAS != out[j].Metricas.ROAS {
			return out[i].Metricas.ROAS > out[j].Metricas.ROAS
		}
		return out[i].Criativo.ID.String() < out[j].Criativo.ID.String()
	})
	return out
}

func annotateComparisons(ctx context.Context, a *Assembler, comparisons []CreativeComparison, inicio, fim time.Time) {
	var wg sync.WaitGroup
	for i := range comparisons {
		wg.Add(1)
		go func(c *CreativeComparison) {
			defer wg.Done()
			c.Metricas, c.Performance = a.metricsFor(ctx, models.EntityCriativo, c.Criativo.ID, inicio, fim)
		}(&comparisons[i])
	}
	wg.Wait()
}
