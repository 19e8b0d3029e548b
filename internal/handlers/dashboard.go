package handlers

import (
	"database/sql"
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/vendaflow/funildash/internal/database"
	"github.com/vendaflow/funildash/internal/insights"
	"github.com/vendaflow/funildash/internal/logging"
	"github.com/vendaflow/funildash/internal/middleware"
	"github.com/vendaflow/funildash/internal/models"
	"github.com/vendaflow/funildash/internal/store"
)

// dashboardScope is the entity the dashboard is focused on. When the
// request names several levels, the most specific one wins.
type dashboardScope struct {
	Tipo models.EntityType
	ID   uuid.UUID
}

func scopeFromQuery(c fiber.Ctx) (*dashboardScope, error) {
	params := []struct {
		name string
		tipo models.EntityType
	}{
		{"criativo_id", models.EntityCriativo},
		{"conjunto_id", models.EntityConjunto},
		{"campanha_id", models.EntityCampanha},
		{"funil_id", models.EntityFunil},
	}

	for _, p := range params {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, p.name+" inválido")
		}
		return &dashboardScope{Tipo: p.tipo, ID: id}, nil
	}
	return nil, nil
}

// HandleDashboard assembles the full dashboard payload: aggregated
// metrics and classification for the scoped entity, the daily time
// series, the annotated funnel hierarchy and, when an ad set or creative
// is in focus, the creative comparison.
func HandleDashboard(c fiber.Ctx) error {
	user := middleware.GetUser(c)

	inicio, fim, err := parsePeriod(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "período inválido, use AAAA-MM-DD",
		})
	}

	scope, err := scopeFromQuery(c)
	if err != nil {
		fe := err.(*fiber.Error)
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}

	metrics := store.NewMetrics(database.DB)
	hierarchy := store.NewHierarchy(database.DB)
	assembler := &insights.Assembler{Source: metrics, Logger: logging.L()}

	if scope == nil {
		return companyDashboard(c, user.EmpresaID, metrics, hierarchy, assembler, inicio, fim)
	}
	return scopedDashboard(c, scope, user.EmpresaID, metrics, hierarchy, assembler, inicio, fim)
}

func scopedDashboard(c fiber.Ctx, scope *dashboardScope, empresaID uuid.UUID, metrics *store.Metrics, hierarchy *store.Hierarchy, assembler *insights.Assembler, inicio, fim time.Time) error {
	lineage, err := hierarchy.ResolveLineage(c.Context(), scope.Tipo, scope.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "entidade não encontrada",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao carregar dashboard",
		})
	}
	// Hide foreign entities instead of acknowledging them.
	if lineage.EmpresaID != empresaID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "entidade não encontrada",
		})
	}

	var resp DashboardResponse

	snapshots, err := metrics.SnapshotsFor(c.Context(), scope.Tipo, scope.ID, inicio, fim)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao carregar métricas",
		})
	}
	resp.Metricas = insights.Aggregate(snapshots)
	resp.Performance = insights.Classify(resp.Metricas.ROAS, resp.Metricas.CTR)

	totals, err := metrics.DailyTotals(c.Context(), scope.Tipo, []uuid.UUID{scope.ID}, inicio, fim)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao montar série temporal",
		})
	}
	resp.SeriesTempo = insights.BuildSeries(inicio, fim, totals)

	tree, err := hierarchy.LoadFunnelTree(c.Context(), lineage.FunilID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao montar hierarquia",
		})
	}
	resp.Hierarquia = assembler.Build(c.Context(), []insights.FunnelTree{*tree}, inicio, fim)

	// An ad-set scope compares its creatives; a creative scope compares
	// the creative against its siblings.
	comparisonConjunto := uuid.Nil
	switch scope.Tipo {
	case models.EntityConjunto:
		comparisonConjunto = scope.ID
	case models.EntityCriativo:
		comparisonConjunto = lineage.ConjuntoID
	}
	if comparisonConjunto != uuid.Nil {
		criativos, err := hierarchy.ActiveCriativos(c.Context(), comparisonConjunto)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "erro ao comparar criativos",
			})
		}
		resp.ComparativoCriativos = assembler.CompareCreatives(c.Context(), criativos, inicio, fim)
	}

	return c.JSON(resp)
}

func companyDashboard(c fiber.Ctx, empresaID uuid.UUID, metrics *store.Metrics, hierarchy *store.Hierarchy, assembler *insights.Assembler, inicio, fim time.Time) error {
	trees, err := hierarchy.LoadFunnelTrees(c.Context(), empresaID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao carregar dashboard",
		})
	}

	var resp DashboardResponse

	funilIDs := make([]uuid.UUID, 0, len(trees))
	var all []models.MetricSnapshot
	for _, tree := range trees {
		funilIDs = append(funilIDs, tree.Funil.ID)
		snapshots, err := metrics.SnapshotsFor(c.Context(), models.EntityFunil, tree.Funil.ID, inicio, fim)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "erro ao carregar métricas",
			})
		}
		all = append(all, snapshots...)
	}
	resp.Metricas = insights.Aggregate(all)
	resp.Performance = insights.Classify(resp.Metricas.ROAS, resp.Metricas.CTR)

	totals := map[string]insights.DayTotals{}
	if len(funilIDs) > 0 {
		totals, err = metrics.DailyTotals(c.Context(), models.EntityFunil, funilIDs, inicio, fim)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "erro ao montar série temporal",
			})
		}
	}
	resp.SeriesTempo = insights.BuildSeries(inicio, fim, totals)
	resp.Hierarquia = assembler.Build(c.Context(), trees, inicio, fim)

	return c.JSON(resp)
}
