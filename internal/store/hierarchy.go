package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vendaflow/funildash/internal/insights"
	"github.com/vendaflow/funildash/internal/models"
)

// Hierarchy loads the funnel containment structure for a company.
type Hierarchy struct {
	db *sql.DB
}

// NewHierarchy creates a hierarchy repository over the given pool.
func NewHierarchy(db *sql.DB) *Hierarchy {
	return &Hierarchy{db: db}
}

// LoadFunnelTrees returns the active containment trees of a company,
// funnels newest first, each level loaded in a single query rather than
// per parent.
func (h *Hierarchy) LoadFunnelTrees(ctx context.Context, empresaID uuid.UUID) ([]insights.FunnelTree, error) {
	funis, err := h.activeFunis(ctx, empresaID)
	if err != nil {
		return nil, err
	}
	return h.loadTrees(ctx, funis)
}

// LoadFunnelTree returns the containment tree of one active funnel, or
// sql.ErrNoRows if it does not exist or is inactive.
func (h *Hierarchy) LoadFunnelTree(ctx context.Context, funilID uuid.UUID) (*insights.FunnelTree, error) {
	var f models.Funil
	err := h.db.QueryRowContext(ctx, `
		SELECT id, empresa_id, nome, descricao, ativo, created_at, updated_at
		FROM funis
		WHERE id = $1 AND ativo = true`, funilID).
		Scan(&f.ID, &f.EmpresaID, &f.Nome, &f.Descricao, &f.Ativo, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}

	trees, err := h.loadTrees(ctx, []models.Funil{f})
	if err != nil {
		return nil, err
	}
	return &trees[0], nil
}

func (h *Hierarchy) activeFunis(ctx context.Context, empresaID uuid.UUID) ([]models.Funil, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, empresa_id, nome, descricao, ativo, created_at, updated_at
		FROM funis
		WHERE empresa_id = $1 AND ativo = true
		ORDER BY created_at DESC`, empresaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list funnels: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var funis []models.Funil
	for rows.Next() {
		var f models.Funil
		if err := rows.Scan(&f.ID, &f.EmpresaID, &f.Nome, &f.Descricao, &f.Ativo, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan funnel: %w", err)
		}
		funis = append(funis, f)
	}
	return funis, rows.Err()
}

func (h *Hierarchy) loadTrees(ctx context.Context, funis []models.Funil) ([]insights.FunnelTree, error) {
	trees := make([]insights.FunnelTree, len(funis))
	byFunil := make(map[uuid.UUID]*insights.FunnelTree, len(funis))
	funilIDs := make([]uuid.UUID, len(funis))
	for i, f := range funis {
		trees[i] = insights.FunnelTree{Funil: f}
		byFunil[f.ID] = &trees[i]
		funilIDs[i] = f.ID
	}
	if len(funis) == 0 {
		return trees, nil
	}

	campanhas, err := h.activeCampanhas(ctx, funilIDs)
	if err != nil {
		return nil, err
	}
	byCampanha := make(map[uuid.UUID]*insights.CampaignTree, len(campanhas))
	campanhaIDs := make([]uuid.UUID, 0, len(campanhas))
	for _, c := range campanhas {
		ft := byFunil[c.FunilID]
		ft.Campanhas = append(ft.Campanhas, insights.CampaignTree{Campanha: c})
		byCampanha[c.ID] = &ft.Campanhas[len(ft.Campanhas)-1]
		campanhaIDs = append(campanhaIDs, c.ID)
	}
	if len(campanhaIDs) == 0 {
		return trees, nil
	}

	conjuntos, err := h.activeConjuntos(ctx, campanhaIDs)
	if err != nil {
		return nil, err
	}
	byConjunto := make(map[uuid.UUID]*insights.AdSetTree, len(conjuntos))
	conjuntoIDs := make([]uuid.UUID, 0, len(conjuntos))
	for _, c := range conjuntos {
		ct := byCampanha[c.CampanhaID]
		ct.Conjuntos = append(ct.Conjuntos, insights.AdSetTree{Conjunto: c})
		byConjunto[c.ID] = &ct.Conjuntos[len(ct.Conjuntos)-1]
		conjuntoIDs = append(conjuntoIDs, c.ID)
	}
	if len(conjuntoIDs) == 0 {
		return trees, nil
	}

	criativos, err := h.activeCriativosIn(ctx, conjuntoIDs)
	if err != nil {
		return nil, err
	}
	for _, cr := range criativos {
		at := byConjunto[cr.ConjuntoID]
		at.Criativos = append(at.Criativos, cr)
	}

	return trees, nil
}

func (h *Hierarchy) activeCampanhas(ctx context.Context, funilIDs []uuid.UUID) ([]models.Campanha, error) {
	query := `
		SELECT id, funil_id, nome, tipo, plataforma, ativo, created_at, updated_at
		FROM campanhas
		WHERE ativo = true AND funil_id IN (` + placeholders(1, len(funilIDs)) + `)
		ORDER BY created_at DESC`

	rows, err := h.db.QueryContext(ctx, query, idArgs(funilIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var campanhas []models.Campanha
	for rows.Next() {
		var c models.Campanha
		if err := rows.Scan(&c.ID, &c.FunilID, &c.Nome, &c.Tipo, &c.Plataforma, &c.Ativo, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campanhas = append(campanhas, c)
	}
	return campanhas, rows.Err()
}

func (h *Hierarchy) activeConjuntos(ctx context.Context, campanhaIDs []uuid.UUID) ([]models.ConjuntoAnuncio, error) {
	query := `
		SELECT id, campanha_id, nome, publico, ativo, created_at, updated_at
		FROM conjuntos_anuncio
		WHERE ativo = true AND campanha_id IN (` + placeholders(1, len(campanhaIDs)) + `)
		ORDER BY created_at DESC`

	rows, err := h.db.QueryContext(ctx, query, idArgs(campanhaIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ad sets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var conjuntos []models.ConjuntoAnuncio
	for rows.Next() {
		var c models.ConjuntoAnuncio
		if err := rows.Scan(&c.ID, &c.CampanhaID, &c.Nome, &c.Publico, &c.Ativo, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ad set: %w", err)
		}
		conjuntos = append(conjuntos, c)
	}
	return conjuntos, rows.Err()
}

func (h *Hierarchy) activeCriativosIn(ctx context.Context, conjuntoIDs []uuid.UUID) ([]models.Criativo, error) {
	query := `
		SELECT id, conjunto_id, nome, tipo, descricao, ativo, created_at, updated_at
		FROM criativos
		WHERE ativo = true AND conjunto_id IN (` + placeholders(1, len(conjuntoIDs)) + `)
		ORDER BY created_at DESC`

	rows, err := h.db.QueryContext(ctx, query, idArgs(conjuntoIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list creatives: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanCriativos(rows)
}

// ActiveCriativos returns the active creatives of one ad set, newest
// first.
func (h *Hierarchy) ActiveCriativos(ctx context.Context, conjuntoID uuid.UUID) ([]models.Criativo, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, conjunto_id, nome, tipo, descricao, ativo, created_at, updated_at
		FROM criativos
		WHERE conjunto_id = $1 AND ativo = true
		ORDER BY created_at DESC`, conjuntoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list creatives: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanCriativos(rows)
}

// Lineage resolves an entity to its owning funnel and company. The tag to
// containment-level mapping lives here, not in the schema, because the
// snapshot reference is a plain (tipo, referencia_id) pair.
type Lineage struct {
	EmpresaID  uuid.UUID
	FunilID    uuid.UUID
	CampanhaID uuid.UUID // zero unless tipo is conjunto/criativo-level or deeper
	ConjuntoID uuid.UUID // zero unless tipo is criativo or conjunto
}

// ResolveLineage walks the containment chain upward from the given entity.
// It returns sql.ErrNoRows when the entity does not exist.
func (h *Hierarchy) ResolveLineage(ctx context.Context, tipo models.EntityType, id uuid.UUID) (*Lineage, error) {
	l := &Lineage{}
	var err error
	switch tipo {
	case models.EntityFunil:
		l.FunilID = id
		err = h.db.QueryRowContext(ctx,
			`SELECT empresa_id FROM funis WHERE id = $1`, id).
			Scan(&l.EmpresaID)
	case models.EntityCampanha:
		l.CampanhaID = id
		err = h.db.QueryRowContext(ctx, `
			SELECT f.id, f.empresa_id
			FROM campanhas c
			JOIN funis f ON f.id = c.funil_id
			WHERE c.id = $1`, id).
			Scan(&l.FunilID, &l.EmpresaID)
	case models.EntityConjunto:
		l.ConjuntoID = id
		err = h.db.QueryRowContext(ctx, `
			SELECT c.id, f.id, f.empresa_id
			FROM conjuntos_anuncio ca
			JOIN campanhas c ON c.id = ca.campanha_id
			JOIN funis f ON f.id = c.funil_id
			WHERE ca.id = $1`, id).
			Scan(&l.CampanhaID, &l.FunilID, &l.EmpresaID)
	case models.EntityCriativo:
		err = h.db.QueryRowContext(ctx, `
			SELECT ca.id, c.id, f.id, f.empresa_id
			FROM criativos cr
			JOIN conjuntos_anuncio ca ON ca.id = cr.conjunto_id
			JOIN campanhas c ON c.id = ca.campanha_id
			JOIN funis f ON f.id = c.funil_id
			WHERE cr.id = $1`, id).
			Scan(&l.ConjuntoID, &l.CampanhaID, &l.FunilID, &l.EmpresaID)
	default:
		return nil, fmt.Errorf("unknown entity type %q", tipo)
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

func scanCriativos(rows *sql.Rows) ([]models.Criativo, error) {
	var criativos []models.Criativo
	for rows.Next() {
		var c models.Criativo
		if err := rows.Scan(&c.ID, &c.ConjuntoID, &c.Nome, &c.Tipo, &c.Descricao, &c.Ativo, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan creative: %w", err)
		}
		criativos = append(criativos, c)
	}
	return criativos, rows.Err()
}

func placeholders(start, count int) string {
	parts := make([]string, count)
	for i := 0; i < count; i++ {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}

func idArgs(ids []uuid.UUID) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
