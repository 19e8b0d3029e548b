// Package store implements the PostgreSQL repositories behind the metric
// snapshot table and the funnel containment hierarchy.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vendaflow/funildash/internal/insights"
	"github.com/vendaflow/funildash/internal/models"
)

const snapshotColumns = `id, tipo, referencia_id, periodo_inicio, periodo_fim,
	alcance, impressoes, cliques, visualizacoes_pagina, leads, checkouts, vendas, gasto, receita`

// Metrics is the repository for metric snapshots.
type Metrics struct {
	db *sql.DB
}

// NewMetrics creates a snapshot repository over the given pool.
func NewMetrics(db *sql.DB) *Metrics {
	return &Metrics{db: db}
}

// SnapshotFilter narrows a snapshot listing. Zero-valued fields are
// ignored.
type SnapshotFilter struct {
	Tipo          models.EntityType
	ReferenciaID  *uuid.UUID
	PeriodoInicio *time.Time // lower bound on periodo_inicio
	PeriodoFim    *time.Time // upper bound on periodo_fim
}

func (f SnapshotFilter) whereClause() (string, []interface{}) {
	var conditions []string
	var args []interface{}

	addCondition := func(expr string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(expr, len(args)))
	}

	if f.Tipo != "" {
		addCondition("tipo = $%d", string(f.Tipo))
	}
	if f.ReferenciaID != nil {
		addCondition("referencia_id = $%d", *f.ReferenciaID)
	}
	if f.PeriodoInicio != nil {
		addCondition("periodo_inicio >= $%d", *f.PeriodoInicio)
	}
	if f.PeriodoFim != nil {
		addCondition("periodo_fim <= $%d", *f.PeriodoFim)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// List returns snapshots matching the filter, newest period first.
func (m *Metrics) List(ctx context.Context, f SnapshotFilter) ([]models.MetricSnapshot, error) {
	where, args := f.whereClause()
	query := `SELECT ` + snapshotColumns + ` FROM metricas` + where +
		" ORDER BY periodo_inicio DESC, periodo_fim DESC"

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanSnapshots(rows)
}

// ListPage is List with LIMIT/OFFSET applied for paginated endpoints.
func (m *Metrics) ListPage(ctx context.Context, f SnapshotFilter, limit, offset int) ([]models.MetricSnapshot, error) {
	where, args := f.whereClause()
	query := fmt.Sprintf(`SELECT `+snapshotColumns+` FROM metricas`+where+
		" ORDER BY periodo_inicio DESC, periodo_fim DESC LIMIT $%d OFFSET $%d",
		len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanSnapshots(rows)
}

// Count returns how many snapshots match the filter.
func (m *Metrics) Count(ctx context.Context, f SnapshotFilter) (int64, error) {
	where, args := f.whereClause()

	var total int64
	err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM metricas`+where, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return total, nil
}

// SnapshotsFor returns the snapshots of one entity whose period falls
// inside [inicio, fim]. It satisfies the aggregation pipeline's metric
// source interface.
func (m *Metrics) SnapshotsFor(ctx context.Context, tipo models.EntityType, referenciaID uuid.UUID, inicio, fim time.Time) ([]models.MetricSnapshot, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM metricas
		WHERE tipo = $1
		  AND referencia_id = $2
		  AND periodo_inicio >= $3
		  AND periodo_fim <= $4
		ORDER BY periodo_inicio ASC`,
		string(tipo), referenciaID, inicio, fim)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanSnapshots(rows)
}

// Upsert writes one snapshot. An existing row with the same
// (tipo, referencia_id, periodo_inicio, periodo_fim) key has its full
// counter set replaced.
func (m *Metrics) Upsert(ctx context.Context, s *models.MetricSnapshot) error {
	return upsertSnapshot(ctx, m.db, s)
}

// UpsertBatch writes all snapshots inside one transaction and returns how
// many were saved. Any failure rolls back the whole batch.
func (m *Metrics) UpsertBatch(ctx context.Context, snapshots []models.MetricSnapshot) (int, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := range snapshots {
		if err := upsertSnapshot(ctx, tx, &snapshots[i]); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit batch: %w", err)
	}
	return len(snapshots), nil
}

type execer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func upsertSnapshot(ctx context.Context, db execer, s *models.MetricSnapshot) error {
	err := db.QueryRowContext(ctx, `
		INSERT INTO metricas (
			tipo, referencia_id, periodo_inicio, periodo_fim,
			alcance, impressoes, cliques, visualizacoes_pagina,
			leads, checkouts, vendas, gasto, receita
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (tipo, referencia_id, periodo_inicio, periodo_fim) DO UPDATE SET
			alcance = EXCLUDED.alcance,
			impressoes = EXCLUDED.impressoes,
			cliques = EXCLUDED.cliques,
			visualizacoes_pagina = EXCLUDED.visualizacoes_pagina,
			leads = EXCLUDED.leads,
			checkouts = EXCLUDED.checkouts,
			vendas = EXCLUDED.vendas,
			gasto = EXCLUDED.gasto,
			receita = EXCLUDED.receita,
			updated_at = now()
		RETURNING id`,
		string(s.Tipo), s.ReferenciaID, s.PeriodoInicio, s.PeriodoFim,
		s.Alcance, s.Impressoes, s.Cliques, s.VisualizacoesPagina,
		s.Leads, s.Checkouts, s.Vendas, s.Gasto, s.Receita,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}
	return nil
}

// DailyTotals sums daily-granularity snapshots (periodo_inicio equal to
// periodo_fim) per day for the given entities, keyed by ISO date.
func (m *Metrics) DailyTotals(ctx context.Context, tipo models.EntityType, referenciaIDs []uuid.UUID, inicio, fim time.Time) (map[string]insights.DayTotals, error) {
	if len(referenciaIDs) == 0 {
		return map[string]insights.DayTotals{}, nil
	}

	args := []interface{}{string(tipo), inicio, fim}
	placeholders := make([]string, len(referenciaIDs))
	for i, id := range referenciaIDs {
		args = append(args, id)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}

	query := `
		SELECT periodo_inicio,
		       COALESCE(SUM(gasto), 0),
		       COALESCE(SUM(leads), 0),
		       COALESCE(SUM(vendas), 0),
		       COALESCE(SUM(cliques), 0),
		       COALESCE(SUM(alcance), 0)
		FROM metricas
		WHERE tipo = $1
		  AND periodo_inicio = periodo_fim
		  AND periodo_inicio >= $2
		  AND periodo_fim <= $3
		  AND referencia_id IN (` + strings.Join(placeholders, ", ") + `)
		GROUP BY periodo_inicio
		ORDER BY periodo_inicio ASC`

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily totals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	totals := make(map[string]insights.DayTotals)
	for rows.Next() {
		var day time.Time
		var t insights.DayTotals
		if err := rows.Scan(&day, &t.Gasto, &t.Leads, &t.Vendas, &t.Cliques, &t.Alcance); err != nil {
			return nil, fmt.Errorf("failed to scan daily totals: %w", err)
		}
		totals[day.Format("2006-01-02")] = t
	}
	return totals, rows.Err()
}

func scanSnapshots(rows *sql.Rows) ([]models.MetricSnapshot, error) {
	var snapshots []models.MetricSnapshot
	for rows.Next() {
		var s models.MetricSnapshot
		var tipo string
		if err := rows.Scan(
			&s.ID, &tipo, &s.ReferenciaID, &s.PeriodoInicio, &s.PeriodoFim,
			&s.Alcance, &s.Impressoes, &s.Cliques, &s.VisualizacoesPagina,
			&s.Leads, &s.Checkouts, &s.Vendas, &s.Gasto, &s.Receita,
		); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		s.Tipo = models.EntityType(tipo)
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}
