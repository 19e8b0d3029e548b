//go:build docker

package cli

import "github.com/gofiber/fiber/v3"

// createFiberConfig returns Fiber configuration for Docker deployments,
// which sit behind a reverse proxy that sets X-Forwarded-For.
func createFiberConfig(appName string) fiber.Config {
	return fiber.Config{
		AppName:     appName,
		ProxyHeader: fiber.HeaderXForwardedFor,
	}
}
