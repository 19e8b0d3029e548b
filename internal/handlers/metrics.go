package handlers

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/vendaflow/funildash/internal/database"
	"github.com/vendaflow/funildash/internal/models"
	"github.com/vendaflow/funildash/internal/store"
)

// snapshotFilterFromQuery builds the listing filter from tipo,
// referencia_id, periodo_inicio and periodo_fim query parameters. All are
// optional; malformed values are reported, not ignored.
func snapshotFilterFromQuery(c fiber.Ctx) (store.SnapshotFilter, error) {
	var f store.SnapshotFilter

	if raw := c.Query("tipo"); raw != "" {
		tipo := models.EntityType(raw)
		if !tipo.Valid() {
			return f, fiber.NewError(fiber.StatusBadRequest, "tipo inválido")
		}
		f.Tipo = tipo
	}
	if raw := c.Query("referencia_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, fiber.NewError(fiber.StatusBadRequest, "referencia_id inválido")
		}
		f.ReferenciaID = &id
	}
	if raw := c.Query("periodo_inicio"); raw != "" {
		t, err := time.Parse(periodoFormat, raw)
		if err != nil {
			return f, fiber.NewError(fiber.StatusBadRequest, "periodo_inicio inválido")
		}
		f.PeriodoInicio = &t
	}
	if raw := c.Query("periodo_fim"); raw != "" {
		t, err := time.Parse(periodoFormat, raw)
		if err != nil {
			return f, fiber.NewError(fiber.StatusBadRequest, "periodo_fim inválido")
		}
		f.PeriodoFim = &t
	}
	return f, nil
}

// HandleListMetrics returns a paginated snapshot listing, newest period
// first.
func HandleListMetrics(c fiber.Ctx) error {
	filter, err := snapshotFilterFromQuery(c)
	if err != nil {
		fe := err.(*fiber.Error)
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}

	page, per, offset := parsePagination(c)
	metrics := store.NewMetrics(database.DB)

	total, err := metrics.Count(c.Context(), filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao listar métricas",
		})
	}

	snapshots, err := metrics.ListPage(c.Context(), filter, per, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao listar métricas",
		})
	}

	return c.JSON(PaginatedSnapshots{
		Data:       snapshots,
		Pagination: buildPaginationMeta(page, per, total),
	})
}

func validateSnapshot(s *models.MetricSnapshot) string {
	switch {
	case !s.Tipo.Valid():
		return "tipo é obrigatório e deve ser funil, campanha, conjunto ou criativo"
	case s.ReferenciaID == uuid.Nil:
		return "referencia_id é obrigatório"
	case s.PeriodoInicio.IsZero():
		return "periodo_inicio é obrigatório"
	case s.PeriodoFim.IsZero():
		return "periodo_fim é obrigatório"
	case s.PeriodoFim.Before(s.PeriodoInicio):
		return "periodo_fim não pode ser anterior a periodo_inicio"
	}
	return ""
}

// HandleUpsertMetric writes one snapshot. A row with the same
// (tipo, referencia_id, periodo_inicio, periodo_fim) key is replaced.
func HandleUpsertMetric(c fiber.Ctx) error {
	var s models.MetricSnapshot
	if err := c.Bind().Body(&s); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "corpo da requisição inválido",
		})
	}
	if msg := validateSnapshot(&s); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	if err := store.NewMetrics(database.DB).Upsert(c.Context(), &s); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao gravar métrica",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(s)
}

// HandleUpsertMetricsBatch writes a batch of snapshots in one transaction.
// Any invalid entry rejects the whole batch before anything is written.
func HandleUpsertMetricsBatch(c fiber.Ctx) error {
	var req UpsertBatchRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "corpo da requisição inválido",
		})
	}
	if len(req.Metricas) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "metricas não pode ser vazio",
		})
	}
	for i := range req.Metricas {
		if msg := validateSnapshot(&req.Metricas[i]); msg != "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
		}
	}

	count, err := store.NewMetrics(database.DB).UpsertBatch(c.Context(), req.Metricas)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao gravar métricas",
		})
	}
	return c.JSON(UpsertBatchResponse{Processadas: count})
}
