package handlers

import (
	"database/sql"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/vendaflow/funildash/internal/database"
	"github.com/vendaflow/funildash/internal/middleware"
	"github.com/vendaflow/funildash/internal/models"
)

type FunnelRequest struct {
	Nome      string `json:"nome"`
	Descricao string `json:"descricao"`
}

// FunnelWithCampaigns is one listing entry: the funnel with its active
// campaigns nested, newest first at both levels.
type FunnelWithCampaigns struct {
	models.Funil
	Campanhas []models.Campanha `json:"campanhas"`
}

// HandleListFunnels returns the active funnels of the caller's company
// with their campaigns, newest first.
func HandleListFunnels(c fiber.Ctx) error {
	user := middleware.GetUser(c)

	rows, err := database.DB.QueryContext(c.Context(), `
		SELECT id, empresa_id, nome, descricao, ativo, created_at, updated_at
		FROM funis
		WHERE empresa_id = $1 AND ativo = true
		ORDER BY created_at DESC`, user.EmpresaID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao listar funis",
		})
	}
	defer func() { _ = rows.Close() }()

	out := make([]FunnelWithCampaigns, 0)
	for rows.Next() {
		var f models.Funil
		if err := rows.Scan(&f.ID, &f.EmpresaID, &f.Nome, &f.Descricao, &f.Ativo, &f.CreatedAt, &f.UpdatedAt); err != nil {
			continue
		}
		out = append(out, FunnelWithCampaigns{Funil: f, Campanhas: make([]models.Campanha, 0)})
	}
	if len(out) == 0 {
		return c.JSON(out)
	}

	byFunil := make(map[uuid.UUID]*FunnelWithCampaigns, len(out))
	ids := make([]uuid.UUID, len(out))
	for i := range out {
		byFunil[out[i].ID] = &out[i]
		ids[i] = out[i].ID
	}

	placeholders, args := inClause(1, ids)
	campanhaRows, err := database.DB.QueryContext(c.Context(), `
		SELECT id, funil_id, nome, tipo, plataforma, ativo, created_at, updated_at
		FROM campanhas
		WHERE ativo = true AND funil_id IN (`+placeholders+`)
		ORDER BY created_at DESC`, args...)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao listar funis",
		})
	}
	defer func() { _ = campanhaRows.Close() }()

	for _, cp := range scanCampaigns(campanhaRows) {
		if f := byFunil[cp.FunilID]; f != nil {
			f.Campanhas = append(f.Campanhas, cp)
		}
	}
	return c.JSON(out)
}

// HandleCreateFunnel creates a funnel under the caller's company.
func HandleCreateFunnel(c fiber.Ctx) error {
	user := middleware.GetUser(c)

	var req FunnelRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "corpo da requisição inválido",
		})
	}
	if req.Nome == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "nome é obrigatório",
		})
	}

	var f models.Funil
	err := database.DB.QueryRowContext(c.Context(), `
		INSERT INTO funis (empresa_id, nome, descricao)
		VALUES ($1, $2, $3)
		RETURNING id, empresa_id, nome, descricao, ativo, created_at, updated_at`,
		user.EmpresaID, req.Nome, req.Descricao).
		Scan(&f.ID, &f.EmpresaID, &f.Nome, &f.Descricao, &f.Ativo, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao criar funil",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(f)
}

// HandleUpdateFunnel renames a funnel. The update is scoped to the
// caller's company, so foreign IDs come back as 404.
func HandleUpdateFunnel(c fiber.Ctx) error {
	user := middleware.GetUser(c)

	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "id inválido",
		})
	}

	var req FunnelRequest
	if err := c.Bind().Body(&req); err != nil || req.Nome == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "nome é obrigatório",
		})
	}

	var f models.Funil
	err := database.DB.QueryRowContext(c.Context(), `
		UPDATE funis
		SET nome = $1, descricao = $2, updated_at = now()
		WHERE id = $3 AND empresa_id = $4 AND ativo = true
		RETURNING id, empresa_id, nome, descricao, ativo, created_at, updated_at`,
		req.Nome, req.Descricao, id, user.EmpresaID).
		Scan(&f.ID, &f.EmpresaID, &f.Nome, &f.Descricao, &f.Ativo, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "funil não encontrado",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao atualizar funil",
		})
	}
	return c.JSON(f)
}

// HandleDeleteFunnel soft-deletes a funnel. Children stay in place but
// drop out of every listing because tree loads follow active parents only.
func HandleDeleteFunnel(c fiber.Ctx) error {
	user := middleware.GetUser(c)

	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "id inválido",
		})
	}

	result, err := database.DB.ExecContext(c.Context(), `
		UPDATE funis
		SET ativo = false, updated_at = now()
		WHERE id = $1 AND empresa_id = $2 AND ativo = true`,
		id, user.EmpresaID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao remover funil",
		})
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "funil não encontrado",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
