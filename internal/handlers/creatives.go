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

type CreativeRequest struct {
	Nome       string    `json:"nome"`
	ConjuntoID uuid.UUID `json:"conjunto_id"`
	Tipo       string    `json:"tipo"`
	Descricao  string    `json:"descricao"`
}

// HandleListCreatives lists active creatives of the caller's company,
// optionally narrowed by conjunto_id.
func HandleListCreatives(c fiber.Ctx) error {
	user := middleware.GetUser(c)

	query := `
		SELECT cr.id, cr.conjunto_id, cr.nome, cr.tipo, cr.descricao, cr.ativo, cr.created_at, cr.updated_at
		FROM criativos cr
		JOIN conjuntos_anuncio a ON a.id = cr.conjunto_id
		JOIN campanhas cp ON cp.id = a.campanha_id
		JOIN funis f ON f.id = cp.funil_id
		WHERE f.empresa_id = $1 AND cr.ativo = true AND a.ativo = true AND cp.ativo = true AND f.ativo = true`
	args := []interface{}{user.EmpresaID}

	if raw := c.Query("conjunto_id"); raw != "" {
		conjuntoID, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "conjunto_id inválido",
			})
		}
		query += ` AND cr.conjunto_id = $2`
		args = append(args, conjuntoID)
	}
	query += ` ORDER BY cr.created_at DESC`

	rows, err := database.DB.QueryContext(c.Context(), query, args...)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao listar criativos",
		})
	}
	defer func() { _ = rows.Close() }()

	criativos := make([]models.Criativo, 0)
	for rows.Next() {
		var cr models.Criativo
		if err := rows.Scan(&cr.ID, &cr.ConjuntoID, &cr.Nome, &cr.Tipo, &cr.Descricao, &cr.Ativo, &cr.CreatedAt, &cr.UpdatedAt); err != nil {
			continue
		}
		criativos = append(criativos, cr)
	}
	return c.JSON(criativos)
}

// HandleCreateCreative creates a creative inside an ad set the caller owns.
func HandleCreateCreative(c fiber.Ctx) error {
	user := middleware.GetUser(c)

	var req CreativeRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "corpo da requisição inválido",
		})
	}
	if req.Nome == "" || req.ConjuntoID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "nome e conjunto_id são obrigatórios",
		})
	}

	var empresaID uuid.UUID
	err := database.DB.QueryRowContext(c.Context(), `
		SELECT f.empresa_id
		FROM conjuntos_anuncio a
		JOIN campanhas cp ON cp.id = a.campanha_id
		JOIN funis f ON f.id = cp.funil_id
		WHERE a.id = $1 AND a.ativo = true`, req.ConjuntoID).
		Scan(&empresaID)
	if errors.Is(err, sql.ErrNoRows) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "conjunto não encontrado",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao criar criativo",
		})
	}
	if empresaID != user.EmpresaID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "conjunto pertence a outra empresa",
		})
	}

	var cr models.Criativo
	err = database.DB.QueryRowContext(c.Context(), `
		INSERT INTO criativos (conjunto_id, nome, tipo, descricao)
		VALUES ($1, $2, $3, $4)
		RETURNING id, conjunto_id, nome, tipo, descricao, ativo, created_at, updated_at`,
		req.ConjuntoID, req.Nome, req.Tipo, req.Descricao).
		Scan(&cr.ID, &cr.ConjuntoID, &cr.Nome, &cr.Tipo, &cr.Descricao, &cr.Ativo, &cr.CreatedAt, &cr.UpdatedAt)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao criar criativo",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(cr)
}

// HandleUpdateCreative updates a creative the caller owns.
func HandleUpdateCreative(c fiber.Ctx) error {
	user := middleware.GetUser(c)

	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "id inválido",
		})
	}

	var req CreativeRequest
	if err := c.Bind().Body(&req); err != nil || req.Nome == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "nome é obrigatório",
		})
	}

	var cr models.Criativo
	err := database.DB.QueryRowContext(c.Context(), `
		UPDATE criativos cr
		SET nome = $1, tipo = $2, descricao = $3, updated_at = now()
		FROM conjuntos_anuncio a, campanhas cp, funis f
		WHERE cr.id = $4 AND cr.conjunto_id = a.id AND a.campanha_id = cp.id
		  AND cp.funil_id = f.id AND f.empresa_id = $5 AND cr.ativo = true
		RETURNING cr.id, cr.conjunto_id, cr.nome, cr.tipo, cr.descricao, cr.ativo, cr.created_at, cr.updated_at`,
		req.Nome, req.Tipo, req.Descricao, id, user.EmpresaID).
		Scan(&cr.ID, &cr.ConjuntoID, &cr.Nome, &cr.Tipo, &cr.Descricao, &cr.Ativo, &cr.CreatedAt, &cr.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "criativo não encontrado",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao atualizar criativo",
		})
	}
	return c.JSON(cr)
}

// HandleDeleteCreative soft-deletes a creative the caller owns.
func HandleDeleteCreative(c fiber.Ctx) error {
	user := middleware.GetUser(c)

	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "id inválido",
		})
	}

	result, err := database.DB.ExecContext(c.Context(), `
		UPDATE criativos cr
		SET ativo = false, updated_at = now()
		FROM conjuntos_anuncio a, campanhas cp, funis f
		WHERE cr.id = $1 AND cr.conjunto_id = a.id AND a.campanha_id = cp.id
		  AND cp.funil_id = f.id AND f.empresa_id = $2 AND cr.ativo = true`,
		id, user.EmpresaID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao remover criativo",
		})
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "criativo não encontrado",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
