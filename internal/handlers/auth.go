package handlers

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vendaflow/funildash/internal/database"
	"github.com/vendaflow/funildash/internal/middleware"
)

const sessionCookieName = "funildash_session"

type LoginRequest struct {
	Email string `json:"email"`
	Senha string `json:"senha"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  LoggedInUser `json:"usuario"`
}

type LoggedInUser struct {
	ID        uuid.UUID `json:"id"`
	Nome      string    `json:"nome"`
	Email     string    `json:"email"`
	EmpresaID uuid.UUID `json:"empresa_id"`
}

// secureCookiesEnabled reads the flag the CLI exports from config. Defaults
// to secure, which is what production wants.
func secureCookiesEnabled() bool {
	env := os.Getenv("SECURE_COOKIES")
	if env == "" {
		return true
	}
	return env == "true"
}

func sessionTTL() time.Duration {
	if raw := os.Getenv("SESSION_TTL_HOURS"); raw != "" {
		if d, err := time.ParseDuration(raw + "h"); err == nil && d > 0 {
			return d
		}
	}
	return 7 * 24 * time.Hour
}

func generateSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HandleLogin authenticates a user by email and password and opens a
// session. The token is returned in the body and also set as a cookie so
// both SPA and API clients can use it.
func HandleLogin(c fiber.Ctx) error {
	var req LoginRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "corpo da requisição inválido",
		})
	}
	if req.Email == "" || req.Senha == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "email e senha são obrigatórios",
		})
	}

	var user LoggedInUser
	var senhaHash string
	err := database.DB.QueryRowContext(c.Context(), `
		SELECT id, nome, email, empresa_id, senha_hash
		FROM usuarios WHERE email = $1`, req.Email).
		Scan(&user.ID, &user.Nome, &user.Email, &user.EmpresaID, &senhaHash)
	if errors.Is(err, sql.ErrNoRows) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "email ou senha inválidos",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao autenticar",
		})
	}

	if bcrypt.CompareHashAndPassword([]byte(senhaHash), []byte(req.Senha)) != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "email ou senha inválidos",
		})
	}

	token, err := generateSessionToken()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao criar sessão",
		})
	}

	expiraEm := time.Now().Add(sessionTTL())
	_, err = database.DB.ExecContext(c.Context(), `
		INSERT INTO sessoes (usuario_id, token_hash, expira_em)
		VALUES ($1, $2, $3)`,
		user.ID, middleware.HashToken(token), expiraEm)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao criar sessão",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Expires:  expiraEm,
		HTTPOnly: true,
		Secure:   secureCookiesEnabled(),
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})

	return c.JSON(LoginResponse{Token: token, User: user})
}

// HandleLogout removes the current session and clears the cookie.
func HandleLogout(c fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user != nil && user.SessionID != uuid.Nil {
		_, err := database.DB.ExecContext(c.Context(),
			`DELETE FROM sessoes WHERE id = $1`, user.SessionID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "erro ao encerrar sessão",
			})
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   secureCookiesEnabled(),
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})

	return c.JSON(fiber.Map{"ok": true})
}

// HandleMe returns the profile of the authenticated user.
func HandleMe(c fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "não autenticado",
		})
	}

	var out LoggedInUser
	err := database.DB.QueryRowContext(c.Context(), `
		SELECT id, nome, email, empresa_id
		FROM usuarios WHERE id = $1`, user.UserID).
		Scan(&out.ID, &out.Nome, &out.Email, &out.EmpresaID)
	if errors.Is(err, sql.ErrNoRows) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "usuário não encontrado",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro ao carregar usuário",
		})
	}
	return c.JSON(out)
}
