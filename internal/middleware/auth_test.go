package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendaflow/funildash/internal/database"
)

func newAuthApp(t *testing.T) (*fiber.App, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	original := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = original
		db.Close()
	})

	app := fiber.New()
	app.Get("/protegido", Auth, func(c fiber.Ctx) error {
		user := GetUser(c)
		require.NotNil(t, user)
		return c.JSON(fiber.Map{"empresa_id": user.EmpresaID})
	})
	return app, mock
}

func TestAuthWithoutCredentials(t *testing.T) {
	app, _ := newAuthApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/protegido", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthWithValidBearerToken(t *testing.T) {
	app, mock := newAuthApp(t)

	sessionID := uuid.New()
	userID := uuid.New()
	empresaID := uuid.New()
	mock.ExpectQuery(`SELECT s\.id, u\.id, u\.email, u\.empresa_id`).
		WithArgs(HashToken("token-valido")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "id", "email", "empresa_id"}).
			AddRow(sessionID, userID, "ana@agencia.com", empresaID))

	req := httptest.NewRequest("GET", "/protegido", nil)
	req.Header.Set("Authorization", "Bearer token-valido")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthWithExpiredSession(t *testing.T) {
	app, mock := newAuthApp(t)

	mock.ExpectQuery(`SELECT s\.id, u\.id, u\.email, u\.empresa_id`).
		WithArgs(HashToken("token-expirado")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "id", "email", "empresa_id"}))

	req := httptest.NewRequest("GET", "/protegido", nil)
	req.Header.Set("Authorization", "Bearer token-expirado")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthWithSessionCookie(t *testing.T) {
	app, mock := newAuthApp(t)

	mock.ExpectQuery(`SELECT s\.id, u\.id, u\.email, u\.empresa_id`).
		WithArgs(HashToken("cookie-token")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "id", "email", "empresa_id"}).
			AddRow(uuid.New(), uuid.New(), "ana@agencia.com", uuid.New()))

	req := httptest.NewRequest("GET", "/protegido", nil)
	req.AddCookie(&http.Cookie{Name: "funildash_session", Value: "cookie-token"})
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthWithAPIKey(t *testing.T) {
	app, mock := newAuthApp(t)

	empresaID := uuid.New()
	mock.ExpectQuery(`SELECT empresa_id FROM chaves_api`).
		WithArgs(HashToken("chave-integracao")).
		WillReturnRows(sqlmock.NewRows([]string{"empresa_id"}).AddRow(empresaID))

	req := httptest.NewRequest("GET", "/protegido", nil)
	req.Header.Set("X-API-Key", "chave-integracao")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthWithUnknownAPIKey(t *testing.T) {
	app, mock := newAuthApp(t)

	mock.ExpectQuery(`SELECT empresa_id FROM chaves_api`).
		WithArgs(HashToken("chave-errada")).
		WillReturnRows(sqlmock.NewRows([]string{"empresa_id"}))

	req := httptest.NewRequest("GET", "/protegido", nil)
	req.Header.Set("X-API-Key", "chave-errada")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestHashTokenIsDeterministic(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.Len(t, HashToken("abc"), 64)
}

func TestGetUserWithoutAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/aberto", func(c fiber.Ctx) error {
		assert.Nil(t, GetUser(c))
		return c.SendStatus(fiber.StatusOK)
	})
	resp, err := app.Test(httptest.NewRequest("GET", "/aberto", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
