package insights

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vendaflow/funildash/internal/models"
)

// MetricSource fetches the stored snapshots for one entity and period.
type MetricSource interface {
	SnapshotsFor(ctx context.Context, tipo models.EntityType, referenciaID uuid.UUID, inicio, fim time.Time) ([]models.MetricSnapshot, error)
}

// FunnelTree is the containment structure loaded in one pass from the
// store: funnel with its campaigns, ad sets and creatives.
type FunnelTree struct {
	Funil     models.Funil
	Campanhas []CampaignTree
}

type CampaignTree struct {
	Campanha  models.Campanha
	Conjuntos []AdSetTree
}

type AdSetTree struct {
	Conjunto  models.ConjuntoAnuncio
	Criativos []models.Criativo
}

// Node wraps one entity of the containment tree with its aggregated
// metrics and performance rating. Nivel is 0 for funnels and grows with
// containment depth down to 3 for creatives.
type Node struct {
	ID          uuid.UUID         `json:"id"`
	Nome        string            `json:"nome"`
	Tipo        models.EntityType `json:"tipo"`
	Nivel       int               `json:"nivel"`
	ParentID    *uuid.UUID        `json:"parent_id,omitempty"`
	Metricas    AggregatedMetrics `json:"metricas"`
	Performance Performance       `json:"performance"`
	Filhos      []*Node           `json:"filhos"`
}

// Assembler annotates containment trees with per-node aggregated metrics.
type Assembler struct {
	Source MetricSource
	Logger *slog.Logger
}

// Build turns the containment trees into annotated hierarchy nodes. Metric
// fetches fan out with one goroutine per node and are joined before the
// result is returned; a failed fetch leaves that node with zero metrics
// instead of failing its siblings. Input order is preserved.
func (a *Assembler) Build(ctx context.Context, funis []FunnelTree, inicio, fim time.Time) []*Node {
	roots := make([]*Node, 0, len(funis))
	var all []*Node

	for _, ft := range funis {
		root := &Node{
			ID:     ft.Funil.ID,
			Nome:   ft.Funil.Nome,
			Tipo:   models.EntityFunil,
			Nivel:  0,
			Filhos: []*Node{},
		}
		all = append(all, root)

		for _, ct := range ft.Campanhas {
			campanha := &Node{
				ID:       ct.Campanha.ID,
				Nome:     ct.Campanha.Nome,
				Tipo:     models.EntityCampanha,
				Nivel:    1,
				ParentID: ptr(root.ID),
				Filhos:   []*Node{},
			}
			all = append(all, campanha)

			for _, at := range ct.Conjuntos {
				conjunto := &Node{
					ID:       at.Conjunto.ID,
					Nome:     at.Conjunto.Nome,
					Tipo:     models.EntityConjunto,
					Nivel:    2,
					ParentID: ptr(campanha.ID),
					Filhos:   []*Node{},
				}
				all = append(all, conjunto)

				for _, cr := range at.Criativos {
					criativo := &Node{
						ID:       cr.ID,
						Nome:     cr.Nome,
						Tipo:     models.EntityCriativo,
						Nivel:    3,
						ParentID: ptr(conjunto.ID),
						Filhos:   []*Node{},
					}
					all = append(all, criativo)
					conjunto.Filhos = append(conjunto.Filhos, criativo)
				}
				campanha.Filhos = append(campanha.Filhos, conjunto)
			}
			root.Filhos = append(root.Filhos, campanha)
		}
		roots = append(roots, root)
	}

	a.annotate(ctx, all, inicio, fim)
	return roots
}

// annotate fills metrics and performance for every node concurrently. Each
// goroutine owns exactly one node, so no locking is needed on the writes.
func (a *Assembler) annotate(ctx context.Context, nodes []*Node, inicio, fim time.Time) {
	var wg sync.WaitGroup
	for _, node := range nodes {
		wg.Add(1)
		go func(n *Node) {
			defer wg.Done()
			n.Metricas, n.Performance = a.metricsFor(ctx, n.Tipo, n.ID, inicio, fim)
		}(node)
	}
	wg.Wait()
}

// metricsFor fetches, aggregates and classifies one entity's snapshots. On
// store failure it logs and returns zero metrics so the caller's tree stays
// intact.
func (a *Assembler) metricsFor(ctx context.Context, tipo models.EntityType, id uuid.UUID, inicio, fim time.Time) (AggregatedMetrics, Performance) {
	snapshots, err := a.Source.SnapshotsFor(ctx, tipo, id, inicio, fim)
	if err != nil {
		a.logger().Warn("metric fetch failed, defaulting node to zero",
			"tipo", string(tipo), "referencia_id", id.String(), "error", err)
		snapshots = nil
	}
	m := Aggregate(snapshots)
	return m, Classify(m.ROAS, m.CTR)
}

func (a *Assembler) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

func ptr(id uuid.UUID) *uuid.UUID { return &id }
