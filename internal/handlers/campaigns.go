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

type CampaignRequest struct {
	Nome       string    `json:"nome"`
	FunilID    uuid.UUID `json:"funil_id"`
	Tipo       string    `json:"tipo"`
	Plataforma string    `json:"plataforma"`
}

const campaignColumns = `c.id, c.funil_id, c.nome, c.tipo, c.plataforma, c.ativo, c.created_at, c.updated_at`

func scanCampaigns(rows *sql.Rows) []models.Campanha {
	campanhas := make([]models.Campanha, 0)
	for rows.Next() {
		var cp models.Campanha
		if err := rows.Scan(&cp.ID, &cp.FunilID, &cp.Nome, &cp.Tipo, &cp.Plataforma, &cp.Ativo, &cp.CreatedAt, &cp.UpdatedAt); err != nil {
			continue
		}
		campanhas = append(campanhas, cp)
	}
	return campanhas
}

// CampaignWithRelations is one listing entry: the campaign with its
// parent funnel and its active ad sets.
type CampaignWithRelations struct {
	models.Campanha
	Funil     models.Funil             `json:"funil"`
	Conjuntos []models.ConjuntoAnuncio `json:"conjuntos"`
}

// HandleListCampaigns lists active campaigns of the caller's company,
// each carrying its parent funnel and child ad sets. An optional funil_id
// query parameter narrows the listing to one funnel; the company scope
// stays in force either way.
func HandleListCampaigns(c fiber.Ctx) error {
	user := middleware.GetUser(c)

	query := `
		SELECT ` + campaignColumns + `,
		       f.id, f.empresa_id, f.nome, f.descricao, f.ativo, f.created_at, f.updated_at
		FROM campanhas c
		JOIN funis f ON f.id = c.funil_id
		WHERE f.empresa_id = $1 AND c.ativo = true AND f.ativo = true`
	args := []interface{}{user.EmpresaID}

	if raw := c.Query("funil_id"); raw != "" {
		funilID, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "funil_id inválido",
			})
		}
		query += ` AND c.funil_id = $2`
		args = append(args, funilID)
	}
	query += ` ORDER BY c.created_at DESC`

	rows, err := database.DB.QueryContext(c.Context(), query, args...)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao listar campanhas",
		})
	}
	defer func() { _ = rows.Close() }()

	out := make([]CampaignWithRelations, 0)
	for rows.Next() {
		var entry CampaignWithRelations
		if err := rows.Scan(
			&entry.ID, &entry.FunilID, &entry.Nome, &entry.Tipo, &entry.Plataforma,
			&entry.Ativo, &entry.CreatedAt, &entry.UpdatedAt,
			&entry.Funil.ID, &entry.Funil.EmpresaID, &entry.Funil.Nome, &entry.Funil.Descricao,
			&entry.Funil.Ativo, &entry.Funil.CreatedAt, &entry.Funil.UpdatedAt,
		); err != nil {
			continue
		}
		entry.Conjuntos = make([]models.ConjuntoAnuncio, 0)
		out = append(out, entry)
	}
	if len(out) == 0 {
		return c.JSON(out)
	}

	byCampanha := make(map[uuid.UUID]*CampaignWithRelations, len(out))
	ids := make([]uuid.UUID, len(out))
	for i := range out {
		byCampanha[out[i].ID] = &out[i]
		ids[i] = out[i].ID
	}

	placeholders, conjuntoArgs := inClause(1, ids)
	conjuntoRows, err := database.DB.QueryContext(c.Context(), `
		SELECT id, campanha_id, nome, publico, ativo, created_at, updated_at
		FROM conjuntos_anuncio
		WHERE ativo = true AND campanha_id IN (`+placeholders+`)
		ORDER BY created_at DESC`, conjuntoArgs...)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao listar campanhas",
		})
	}
	defer func() { _ = conjuntoRows.Close() }()

	for conjuntoRows.Next() {
		var cj models.ConjuntoAnuncio
		if err := conjuntoRows.Scan(&cj.ID, &cj.CampanhaID, &cj.Nome, &cj.Publico, &cj.Ativo, &cj.CreatedAt, &cj.UpdatedAt); err != nil {
			continue
		}
		if cp := byCampanha[cj.CampanhaID]; cp != nil {
			cp.Conjuntos = append(cp.Conjuntos, cj)
		}
	}
	return c.JSON(out)
}

// HandleCreateCampaign creates a campaign inside one of the caller's
// funnels. Campaign type defaults to "leads" and platform to "Meta Ads".
func HandleCreateCampaign(c fiber.Ctx) error {
	user := middleware.GetUser(c)

	var req CampaignRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "corpo da requisição inválido",
		})
	}
	if req.Nome == "" || req.FunilID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "nome e funil_id são obrigatórios",
		})
	}
	if req.Tipo == "" {
		req.Tipo = "leads"
	}
	if req.Plataforma == "" {
		req.Plataforma = "Meta Ads"
	}

	var empresaID uuid.UUID
	err := database.DB.QueryRowContext(c.Context(),
		`SELECT empresa_id FROM funis WHERE id = $1 AND ativo = true`, req.FunilID).
		Scan(&empresaID)
	if errors.Is(err, sql.ErrNoRows) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "funil não encontrado",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao criar campanha",
		})
	}
	if empresaID != user.EmpresaID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "funil pertence a outra empresa",
		})
	}

	var cp models.Campanha
	err = database.DB.QueryRowContext(c.Context(), `
		INSERT INTO campanhas (funil_id, nome, tipo, plataforma)
		VALUES ($1, $2, $3, $4)
		RETURNING id, funil_id, nome, tipo, plataforma, ativo, created_at, updated_at`,
		req.FunilID, req.Nome, req.Tipo, req.Plataforma).
		Scan(&cp.ID, &cp.FunilID, &cp.Nome, &cp.Tipo, &cp.Plataforma, &cp.Ativo, &cp.CreatedAt, &cp.UpdatedAt)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao criar campanha",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(cp)
}

// HandleUpdateCampaign updates name, type and platform of a campaign the
// caller owns.
func HandleUpdateCampaign(c fiber.Ctx) error {
	user := middleware.GetUser(c)

	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "id inválido",
		})
	}

	var req CampaignRequest
	if err := c.Bind().Body(&req); err != nil || req.Nome == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "nome é obrigatório",
		})
	}
	if req.Tipo == "" {
		req.Tipo = "leads"
	}
	if req.Plataforma == "" {
		req.Plataforma = "Meta Ads"
	}

	var cp models.Campanha
	err := database.DB.QueryRowContext(c.Context(), `
		UPDATE campanhas c
		SET nome = $1, tipo = $2, plataforma = $3, updated_at = now()
		FROM funis f
		WHERE c.id = $4 AND c.funil_id = f.id AND f.empresa_id = $5 AND c.ativo = true
		RETURNING c.id, c.funil_id, c.nome, c.tipo, c.plataforma, c.ativo, c.created_at, c.updated_at`,
		req.Nome, req.Tipo, req.Plataforma, id, user.EmpresaID).
		Scan(&cp.ID, &cp.FunilID, &cp.Nome, &cp.Tipo, &cp.Plataforma, &cp.Ativo, &cp.CreatedAt, &cp.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "campanha não encontrada",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao atualizar campanha",
		})
	}
	return c.JSON(cp)
}

// HandleDeleteCampaign soft-deletes a campaign the caller owns.
func HandleDeleteCampaign(c fiber.Ctx) error {
	user := middleware.GetUser(c)

	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "id inválido",
		})
	}

	result, err := database.DB.ExecContext(c.Context(), `
		UPDATE campanhas c
		SET ativo = false, updated_at = now()
		FROM funis f
		WHERE c.id = $1 AND c.funil_id = f.id AND f.empresa_id = $2 AND c.ativo = true`,
		id, user.EmpresaID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao remover campanha",
		})
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "campanha não encontrada",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
