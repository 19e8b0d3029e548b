package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendaflow/funildash/internal/models"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func snapshotRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "tipo", "referencia_id", "periodo_inicio", "periodo_fim",
		"alcance", "impressoes", "cliques", "visualizacoes_pagina",
		"leads", "checkouts", "vendas", "gasto", "receita",
	})
}

func TestMetricsList_NoFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	id := uuid.New()
	ref := uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM metricas ORDER BY periodo_inicio DESC").
		WillReturnRows(snapshotRows().AddRow(
			id, "campanha", ref, day("2025-01-01"), day("2025-01-07"),
			1000, 5000, 120, 300, 40, 12, 8, 250.5, 900.0,
		))

	m := NewMetrics(db)
	snapshots, err := m.List(context.Background(), SnapshotFilter{})

	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, models.EntityCampanha, snapshots[0].Tipo)
	assert.Equal(t, ref, snapshots[0].ReferenciaID)
	assert.Equal(t, int64(120), snapshots[0].Cliques)
	assert.InDelta(t, 250.5, snapshots[0].Gasto, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricsList_AllFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	ref := uuid.New()
	inicio := day("2025-01-01")
	fim := day("2025-01-31")

	mock.ExpectQuery(`WHERE tipo = \$1 AND referencia_id = \$2 AND periodo_inicio >= \$3 AND periodo_fim <= \$4`).
		WithArgs("criativo", ref, inicio, fim).
		WillReturnRows(snapshotRows())

	m := NewMetrics(db)
	snapshots, err := m.List(context.Background(), SnapshotFilter{
		Tipo:          models.EntityCriativo,
		ReferenciaID:  &ref,
		PeriodoInicio: &inicio,
		PeriodoFim:    &fim,
	})

	require.NoError(t, err)
	assert.Empty(t, snapshots)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricsUpsert_ReplacesOnConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	ref := uuid.New()
	rowID := uuid.New()
	s := models.MetricSnapshot{
		Tipo:          models.EntityFunil,
		ReferenciaID:  ref,
		PeriodoInicio: day("2025-02-01"),
		PeriodoFim:    day("2025-02-28"),
		Cliques:       50,
		Gasto:         99.9,
	}

	mock.ExpectQuery(`INSERT INTO metricas (.+) ON CONFLICT \(tipo, referencia_id, periodo_inicio, periodo_fim\) DO UPDATE SET`).
		WithArgs("funil", ref, s.PeriodoInicio, s.PeriodoFim,
			int64(0), int64(0), int64(50), int64(0),
			int64(0), int64(0), int64(0), 99.9, 0.0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(rowID))

	m := NewMetrics(db)
	require.NoError(t, m.Upsert(context.Background(), &s))
	assert.Equal(t, rowID, s.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricsUpsertBatch_AllOrNothing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	snapshots := []models.MetricSnapshot{
		{Tipo: models.EntityFunil, ReferenciaID: uuid.New(), PeriodoInicio: day("2025-03-01"), PeriodoFim: day("2025-03-01")},
		{Tipo: models.EntityFunil, ReferenciaID: uuid.New(), PeriodoInicio: day("2025-03-02"), PeriodoFim: day("2025-03-02")},
	}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO metricas").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectQuery("INSERT INTO metricas").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectCommit()

	m := NewMetrics(db)
	saved, err := m.UpsertBatch(context.Background(), snapshots)

	require.NoError(t, err)
	assert.Equal(t, 2, saved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricsUpsertBatch_RollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	snapshots := []models.MetricSnapshot{
		{Tipo: models.EntityFunil, ReferenciaID: uuid.New(), PeriodoInicio: day("2025-03-01"), PeriodoFim: day("2025-03-01")},
		{Tipo: models.EntityFunil, ReferenciaID: uuid.New(), PeriodoInicio: day("2025-03-02"), PeriodoFim: day("2025-03-02")},
	}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO metricas").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectQuery("INSERT INTO metricas").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	m := NewMetrics(db)
	saved, err := m.UpsertBatch(context.Background(), snapshots)

	require.Error(t, err)
	assert.Zero(t, saved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricsDailyTotals(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	ref := uuid.New()
	mock.ExpectQuery(`periodo_inicio = periodo_fim`).
		WithArgs("funil", day("2025-01-01"), day("2025-01-03"), ref).
		WillReturnRows(sqlmock.NewRows([]string{"periodo_inicio", "gasto", "leads", "vendas", "cliques", "alcance"}).
			AddRow(day("2025-01-02"), 12.5, int64(4), int64(1), int64(30), int64(800)))

	m := NewMetrics(db)
	totals, err := m.DailyTotals(context.Background(), models.EntityFunil, []uuid.UUID{ref}, day("2025-01-01"), day("2025-01-03"))

	require.NoError(t, err)
	require.Len(t, totals, 1)
	got := totals["2025-01-02"]
	assert.InDelta(t, 12.5, got.Gasto, 1e-9)
	assert.Equal(t, int64(4), got.Leads)
	assert.Equal(t, int64(800), got.Alcance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricsDailyTotals_NoEntities(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	m := NewMetrics(db)
	totals, err := m.DailyTotals(context.Background(), models.EntityFunil, nil, day("2025-01-01"), day("2025-01-03"))

	require.NoError(t, err)
	assert.Empty(t, totals)
}
