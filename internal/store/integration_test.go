package store_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendaflow/funildash/internal/models"
	"github.com/vendaflow/funildash/internal/store"
	"github.com/vendaflow/funildash/internal/test"
)

// newStoreDB clones a migrated database for one test. Integration tests
// need a reachable Postgres and are skipped without one.
func newStoreDB(t *testing.T) *test.TestDB {
	t.Helper()
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	return test.NewTestDB(t)
}

type seededHierarchy struct {
	EmpresaID  uuid.UUID
	FunilID    uuid.UUID
	CampanhaID uuid.UUID
	ConjuntoID uuid.UUID
	CriativoID uuid.UUID
}

func seedHierarchy(t *testing.T, tdb *test.TestDB) seededHierarchy {
	t.Helper()
	ctx := context.Background()

	var s seededHierarchy
	require.NoError(t, tdb.QueryRow(ctx,
		`INSERT INTO empresas (nome) VALUES ('Agência Alfa') RETURNING id`).Scan(&s.EmpresaID))
	require.NoError(t, tdb.QueryRow(ctx,
		`INSERT INTO funis (empresa_id, nome) VALUES ($1, 'Funil Lançamento') RETURNING id`,
		s.EmpresaID).Scan(&s.FunilID))
	require.NoError(t, tdb.QueryRow(ctx,
		`INSERT INTO campanhas (funil_id, nome) VALUES ($1, 'Campanha Topo') RETURNING id`,
		s.FunilID).Scan(&s.CampanhaID))
	require.NoError(t, tdb.QueryRow(ctx,
		`INSERT INTO conjuntos_anuncio (campanha_id, nome) VALUES ($1, 'Lookalike 1%') RETURNING id`,
		s.CampanhaID).Scan(&s.ConjuntoID))
	require.NoError(t, tdb.QueryRow(ctx,
		`INSERT INTO criativos (conjunto_id, nome, tipo) VALUES ($1, 'Vídeo Depoimento', 'video') RETURNING id`,
		s.ConjuntoID).Scan(&s.CriativoID))
	return s
}

func TestMetricsUpsertReplacesOnSameKey(t *testing.T) {
	tdb := newStoreDB(t)
	seed := seedHierarchy(t, tdb)
	metrics := store.NewMetrics(tdb.DB)
	ctx := context.Background()

	dia := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	snap := models.MetricSnapshot{
		Tipo:          models.EntityCampanha,
		ReferenciaID:  seed.CampanhaID,
		PeriodoInicio: dia,
		PeriodoFim:    dia,
		Cliques:       100,
		Gasto:         150,
	}
	require.NoError(t, metrics.Upsert(ctx, &snap))
	firstID := snap.ID

	snap.Cliques = 250
	snap.Gasto = 300
	require.NoError(t, metrics.Upsert(ctx, &snap))
	assert.Equal(t, firstID, snap.ID)

	got, err := metrics.List(ctx, store.SnapshotFilter{
		Tipo:         models.EntityCampanha,
		ReferenciaID: &seed.CampanhaID,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(250), got[0].Cliques)
	assert.Equal(t, 300.0, got[0].Gasto)
}

func TestMetricsListPageAndCount(t *testing.T) {
	tdb := newStoreDB(t)
	seed := seedHierarchy(t, tdb)
	metrics := store.NewMetrics(tdb.DB)
	ctx := context.Background()

	var batch []models.MetricSnapshot
	for i := 0; i < 5; i++ {
		dia := time.Date(2026, 8, 1+i, 0, 0, 0, 0, time.UTC)
		batch = append(batch, models.MetricSnapshot{
			Tipo:          models.EntityFunil,
			ReferenciaID:  seed.FunilID,
			PeriodoInicio: dia,
			PeriodoFim:    dia,
			Leads:         int64(i),
		})
	}
	n, err := metrics.UpsertBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	filter := store.SnapshotFilter{Tipo: models.EntityFunil}
	total, err := metrics.Count(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)

	page, err := metrics.ListPage(ctx, filter, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	// Newest period first, so page two starts at the third newest day.
	assert.Equal(t, time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC), page[0].PeriodoInicio)
}

func TestMetricsDailyTotals(t *testing.T) {
	tdb := newStoreDB(t)
	seed := seedHierarchy(t, tdb)
	metrics := store.NewMetrics(tdb.DB)
	ctx := context.Background()

	dia1 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	dia2 := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)
	_, err := metrics.UpsertBatch(ctx, []models.MetricSnapshot{
		{Tipo: models.EntityConjunto, ReferenciaID: seed.ConjuntoID, PeriodoInicio: dia1, PeriodoFim: dia1, Gasto: 50, Leads: 3},
		{Tipo: models.EntityConjunto, ReferenciaID: seed.ConjuntoID, PeriodoInicio: dia2, PeriodoFim: dia2, Gasto: 70, Leads: 4},
		// Weekly rollups stay out of the daily series.
		{Tipo: models.EntityConjunto, ReferenciaID: seed.ConjuntoID, PeriodoInicio: dia1, PeriodoFim: dia2, Gasto: 999},
	})
	require.NoError(t, err)

	totals, err := metrics.DailyTotals(ctx, models.EntityConjunto,
		[]uuid.UUID{seed.ConjuntoID}, dia1, dia2)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, 50.0, totals["2026-08-01"].Gasto)
	assert.Equal(t, int64(4), totals["2026-08-02"].Leads)
}

func TestHierarchyLoadFunnelTree(t *testing.T) {
	tdb := newStoreDB(t)
	seed := seedHierarchy(t, tdb)
	hierarchy := store.NewHierarchy(tdb.DB)
	ctx := context.Background()

	tree, err := hierarchy.LoadFunnelTree(ctx, seed.FunilID)
	require.NoError(t, err)
	assert.Equal(t, "Funil Lançamento", tree.Funil.Nome)
	require.Len(t, tree.Campanhas, 1)
	require.Len(t, tree.Campanhas[0].Conjuntos, 1)
	require.Len(t, tree.Campanhas[0].Conjuntos[0].Criativos, 1)
	assert.Equal(t, seed.CriativoID, tree.Campanhas[0].Conjuntos[0].Criativos[0].ID)
}

func TestHierarchyLoadFunnelTreeSkipsInactive(t *testing.T) {
	tdb := newStoreDB(t)
	seed := seedHierarchy(t, tdb)
	hierarchy := store.NewHierarchy(tdb.DB)
	ctx := context.Background()

	require.NoError(t, tdb.Exec(ctx,
		`UPDATE conjuntos_anuncio SET ativo = false WHERE id = $1`, seed.ConjuntoID))

	tree, err := hierarchy.LoadFunnelTree(ctx, seed.FunilID)
	require.NoError(t, err)
	require.Len(t, tree.Campanhas, 1)
	assert.Empty(t, tree.Campanhas[0].Conjuntos)
}

func TestHierarchyResolveLineage(t *testing.T) {
	tdb := newStoreDB(t)
	seed := seedHierarchy(t, tdb)
	hierarchy := store.NewHierarchy(tdb.DB)
	ctx := context.Background()

	lineage, err := hierarchy.ResolveLineage(ctx, models.EntityCriativo, seed.CriativoID)
	require.NoError(t, err)
	assert.Equal(t, seed.ConjuntoID, lineage.ConjuntoID)
	assert.Equal(t, seed.CampanhaID, lineage.CampanhaID)
	assert.Equal(t, seed.FunilID, lineage.FunilID)
	assert.Equal(t, seed.EmpresaID, lineage.EmpresaID)
}
