// Package middleware holds fiber middleware shared by the API routes.
package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/seuros/funnelscope/internal/httpx"
)

// RequireToken guards a route with a static bearer token. An empty token
// disables the check.
func RequireToken(token string) fiber.Handler {
	return func(c fiber.Ctx) error {
		if token == "" {
			return c.Next()
		}

		presented := extractToken(c)
		if presented == "" {
			return httpx.Error(c, fiber.StatusUnauthorized, "Missing API token")
		}
		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			return httpx.Error(c, fiber.StatusUnauthorized, "Invalid API token")
		}
		return c.Next()
	}
}

// extractToken reads Authorization: Bearer <token> or X-API-Key: <token>.
func extractToken(c fiber.Ctx) string {
	if auth := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return strings.TrimSpace(c.Get("X-API-Key"))
}
