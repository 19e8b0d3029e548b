package cli

import (
	"github.com/gofiber/fiber/v3"

	"github.com/vendaflow/funildash/internal/database"
)

func handleHealth(c fiber.Ctx) error {
	status := "healthy"
	code := fiber.StatusOK
	if err := database.DB.Ping(); err != nil {
		status = "degraded"
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status":  status,
		"service": "funildash",
		"version": Version,
	})
}

func handleUp(c fiber.Ctx) error {
	// Docker health check: 200 only when the database answers.
	if err := database.DB.Ping(); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString("database unavailable")
	}
	return c.SendStatus(fiber.StatusOK)
}

func handleVersion(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"version": Version,
	})
}
