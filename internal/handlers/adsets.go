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

type AdSetRequest struct {
	Nome       string    `json:"nome"`
	CampanhaID uuid.UUID `json:"campanha_id"`
	Publico    string    `json:"publico"`
}

// HandleListAdSets lists active ad sets of the caller's company, optionally
// narrowed by campanha_id.
func HandleListAdSets(c fiber.Ctx) error {
	user := middleware.GetUser(c)

	query := `
		SELECT a.id, a.campanha_id, a.nome, a.publico, a.ativo, a.created_at, a.updated_at
		FROM conjuntos_anuncio a
		JOIN campanhas cp ON cp.id = a.campanha_id
		JOIN funis f ON f.id = cp.funil_id
		WHERE f.empresa_id = $1 AND a.ativo = true AND cp.ativo = true AND f.ativo = true`
	args := []interface{}{user.EmpresaID}

	if raw := c.Query("campanha_id"); raw != "" {
		campanhaID, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "campanha_id inválido",
			})
		}
		query += ` AND a.campanha_id = $2`
		args = append(args, campanhaID)
	}
	query += ` ORDER BY a.created_at DESC`

	rows, err := database.DB.QueryContext(c.Context(), query, args...)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao listar conjuntos",
		})
	}
	defer func() { _ = rows.Close() }()

	conjuntos := make([]models.ConjuntoAnuncio, 0)
	for rows.Next() {
		var a models.ConjuntoAnuncio
		if err := rows.Scan(&a.ID, &a.CampanhaID, &a.Nome, &a.Publico, &a.Ativo, &a.CreatedAt, &a.UpdatedAt); err != nil {
			continue
		}
		conjuntos = append(conjuntos, a)
	}
	return c.JSON(conjuntos)
}

// HandleCreateAdSet creates an ad set inside a campaign the caller owns.
func HandleCreateAdSet(c fiber.Ctx) error {
	user := middleware.GetUser(c)

	var req AdSetRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "corpo da requisição inválido",
		})
	}
	if req.Nome == "" || req.CampanhaID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "nome e campanha_id são obrigatórios",
		})
	}

	var empresaID uuid.UUID
	err := database.DB.QueryRowContext(c.Context(), `
		SELECT f.empresa_id
		FROM campanhas cp
		JOIN funis f ON f.id = cp.funil_id
		WHERE cp.id = $1 AND cp.ativo = true`, req.CampanhaID).
		Scan(&empresaID)
	if errors.Is(err, sql.ErrNoRows) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "campanha não encontrada",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao criar conjunto",
		})
	}
	if empresaID != user.EmpresaID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "campanha pertence a outra empresa",
		})
	}

	var a models.ConjuntoAnuncio
	err = database.DB.QueryRowContext(c.Context(), `
		INSERT INTO conjuntos_anuncio (campanha_id, nome, publico)
		VALUES ($1, $2, $3)
		RETURNING id, campanha_id, nome, publico, ativo, created_at, updated_at`,
		req.CampanhaID, req.Nome, req.Publico).
		Scan(&a.ID, &a.CampanhaID, &a.Nome, &a.Publico, &a.Ativo, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao criar conjunto",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(a)
}

// HandleUpdateAdSet updates name and audience of an ad set the caller owns.
func HandleUpdateAdSet(c fiber.Ctx) error {
	user := middleware.GetUser(c)

	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "id inválido",
		})
	}

	var req AdSetRequest
	if err := c.Bind().Body(&req); err != nil || req.Nome == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "nome é obrigatório",
		})
	}

	var a models.ConjuntoAnuncio
	err := database.DB.QueryRowContext(c.Context(), `
		UPDATE conjuntos_anuncio a
		SET nome = $1, publico = $2, updated_at = now()
		FROM campanhas cp, funis f
		WHERE a.id = $3 AND a.campanha_id = cp.id AND cp.funil_id = f.id
		  AND f.empresa_id = $4 AND a.ativo = true
		RETURNING a.id, a.campanha_id, a.nome, a.publico, a.ativo, a.created_at, a.updated_at`,
		req.Nome, req.Publico, id, user.EmpresaID).
		Scan(&a.ID, &a.CampanhaID, &a.Nome, &a.Publico, &a.Ativo, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "conjunto não encontrado",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao atualizar conjunto",
		})
	}
	return c.JSON(a)
}

// HandleDeleteAdSet soft-deletes an ad set the caller owns.
func HandleDeleteAdSet(c fiber.Ctx) error {
	user := middleware.GetUser(c)

	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "id inválido",
		})
	}

	result, err := database.DB.ExecContext(c.Context(), `
		UPDATE conjuntos_anuncio a
		SET ativo = false, updated_at = now()
		FROM campanhas cp, funis f
		WHERE a.id = $1 AND a.campanha_id = cp.id AND cp.funil_id = f.id
		  AND f.empresa_id = $2 AND a.ativo = true`,
		id, user.EmpresaID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao remover conjunto",
		})
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "conjunto não encontrado",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
