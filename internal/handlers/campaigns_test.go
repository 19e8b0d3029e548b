package handlers

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendaflow/funildash/internal/models"
)

var campaignColumnsOut = []string{"id", "funil_id", "nome", "tipo", "plataforma", "ativo", "created_at", "updated_at"}

var campaignListColumnsOut = []string{
	"id", "funil_id", "nome", "tipo", "plataforma", "ativo", "created_at", "updated_at",
	"id", "empresa_id", "nome", "descricao", "ativo", "created_at", "updated_at",
}

func TestHandleListCampaignsFiltersByFunnel(t *testing.T) {
	now := time.Now()
	funilID := uuid.New()
	campanhaID := uuid.New()
	conjuntoID := uuid.New()

	app, queue := setupFiberTest(t, "GET", "/api/campanhas", HandleListCampaigns, []mockResponse{
		{
			match:   "AND c.funil_id = $2",
			args:    []interface{}{testUser.EmpresaID, funilID},
			columns: campaignListColumnsOut,
			rows: [][]interface{}{
				{
					campanhaID, funilID, "Campanha Verão", "leads", "Meta Ads", true, now, now,
					funilID, testUser.EmpresaID, "Lançamento Q3", "", true, now, now,
				},
			},
		},
		{
			match:   "FROM conjuntos_anuncio WHERE ativo = true AND campanha_id IN ($1)",
			args:    []interface{}{campanhaID},
			columns: []string{"id", "campanha_id", "nome", "publico", "ativo", "created_at", "updated_at"},
			rows: [][]interface{}{
				{conjuntoID, campanhaID, "Lookalike 1%", "", true, now, now},
			},
		},
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/campanhas?funil_id="+funilID.String(), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var campanhas []CampaignWithRelations
	decodeBody(t, resp, &campanhas)
	require.Len(t, campanhas, 1)
	assert.Equal(t, "Campanha Verão", campanhas[0].Nome)
	assert.Equal(t, funilID, campanhas[0].Funil.ID)
	assert.Equal(t, "Lançamento Q3", campanhas[0].Funil.Nome)
	require.Len(t, campanhas[0].Conjuntos, 1)
	assert.Equal(t, conjuntoID, campanhas[0].Conjuntos[0].ID)
	require.NoError(t, queue.expectationsMet())
}

func TestHandleListCampaignsBadFunnelID(t *testing.T) {
	app, _ := setupFiberTest(t, "GET", "/api/campanhas", HandleListCampaigns, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/campanhas?funil_id=abc", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleCreateCampaignAppliesDefaults(t *testing.T) {
	now := time.Now()
	funilID := uuid.New()
	campanhaID := uuid.New()

	app, queue := setupFiberTest(t, "POST", "/api/campanhas", HandleCreateCampaign, []mockResponse{
		{
			match:   "SELECT empresa_id FROM funis",
			args:    []interface{}{funilID},
			columns: []string{"empresa_id"},
			rows:    [][]interface{}{{testUser.EmpresaID}},
		},
		{
			match:   "INSERT INTO campanhas",
			args:    []interface{}{funilID, "Campanha Nova", "leads", "Meta Ads"},
			columns: campaignColumnsOut,
			rows: [][]interface{}{
				{campanhaID, funilID, "Campanha Nova", "leads", "Meta Ads", true, now, now},
			},
		},
	})

	body := fmt.Sprintf(`{"nome":"Campanha Nova","funil_id":%q}`, funilID)
	req := httptest.NewRequest("POST", "/api/campanhas", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var campanha models.Campanha
	decodeBody(t, resp, &campanha)
	assert.Equal(t, "leads", campanha.Tipo)
	assert.Equal(t, "Meta Ads", campanha.Plataforma)
	require.NoError(t, queue.expectationsMet())
}

func TestHandleCreateCampaignForeignFunnel(t *testing.T) {
	funilID := uuid.New()

	app, _ := setupFiberTest(t, "POST", "/api/campanhas", HandleCreateCampaign, []mockResponse{
		{
			match:   "SELECT empresa_id FROM funis",
			columns: []string{"empresa_id"},
			rows:    [][]interface{}{{uuid.New()}}, // someone else's company
		},
	})

	body := fmt.Sprintf(`{"nome":"Campanha","funil_id":%q}`, funilID)
	req := httptest.NewRequest("POST", "/api/campanhas", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestHandleCreateCampaignUnknownFunnel(t *testing.T) {
	app, _ := setupFiberTest(t, "POST", "/api/campanhas", HandleCreateCampaign, []mockResponse{
		{match: "SELECT empresa_id FROM funis", columns: []string{"empresa_id"}},
	})

	body := fmt.Sprintf(`{"nome":"Campanha","funil_id":%q}`, uuid.New())
	req := httptest.NewRequest("POST", "/api/campanhas", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHandleCreateCampaignMissingFields(t *testing.T) {
	app, _ := setupFiberTest(t, "POST", "/api/campanhas", HandleCreateCampaign, nil)

	req := httptest.NewRequest("POST", "/api/campanhas", strings.NewReader(`{"nome":"Sem funil"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleDeleteCampaignScopedToCompany(t *testing.T) {
	campanhaID := uuid.New()

	app, queue := setupFiberTest(t, "DELETE", "/api/campanhas/:id", HandleDeleteCampaign, []mockResponse{
		{
			match:        "UPDATE campanhas c SET ativo = false",
			args:         []interface{}{campanhaID, testUser.EmpresaID},
			rowsAffected: 1,
		},
	})

	resp, err := app.Test(httptest.NewRequest("DELETE", "/api/campanhas/"+campanhaID.String(), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	require.NoError(t, queue.expectationsMet())
}
