// Package middleware holds the request-scoped auth resolution shared by
// all API handlers.
package middleware

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/vendaflow/funildash/internal/database"
)

// UserContext carries the authenticated identity for one request. API-key
// requests resolve to a company without a user.
type UserContext struct {
	UserID    uuid.UUID
	Email     string
	EmpresaID uuid.UUID
	SessionID uuid.UUID
}

// Auth validates the session cookie or bearer token and loads the acting
// user and company into the request context. An X-API-Key header is
// accepted as an alternative for integration clients pushing metrics.
func Auth(c fiber.Ctx) error {
	token := c.Cookies("funildash_session")
	if token == "" {
		authHeader := c.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	if token == "" {
		if apiKey := c.Get("X-API-Key"); apiKey != "" {
			return authViaAPIKey(c, apiKey)
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "não autenticado",
		})
	}

	var userCtx UserContext
	err := database.DB.QueryRowContext(c.Context(), `
		SELECT s.id, u.id, u.email, u.empresa_id
		FROM sessoes s
		JOIN usuarios u ON u.id = s.usuario_id
		WHERE s.token_hash = $1 AND s.expira_em > now()`,
		HashToken(token)).
		Scan(&userCtx.SessionID, &userCtx.UserID, &userCtx.Email, &userCtx.EmpresaID)

	if errors.Is(err, sql.ErrNoRows) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "sessão inválida ou expirada",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro de autenticação",
		})
	}

	c.Locals("user", &userCtx)
	return c.Next()
}

func authViaAPIKey(c fiber.Ctx, apiKey string) error {
	var userCtx UserContext
	err := database.DB.QueryRowContext(c.Context(), `
		SELECT empresa_id FROM chaves_api WHERE chave_hash = $1`,
		HashToken(apiKey)).
		Scan(&userCtx.EmpresaID)

	if errors.Is(err, sql.ErrNoRows) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "chave de API inválida",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "erro de autenticação",
		})
	}

	c.Locals("user", &userCtx)
	return c.Next()
}

// GetUser retrieves the authenticated user from the request context.
func GetUser(c fiber.Ctx) *UserContext {
	if user, ok := c.Locals("user").(*UserContext); ok {
		return user
	}
	return nil
}

// HashToken hashes a session token or API key for storage and lookup.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
