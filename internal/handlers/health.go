package handlers

import (
	"github.com/gofiber/fiber/v3"
)

// Health reports readiness along with basic dataset figures.
func (h *Handlers) Health(c fiber.Ctx) error {
	months := h.snapshot().Months()
	status := fiber.StatusOK
	state := "ok"
	if len(months) == 0 {
		status = fiber.StatusServiceUnavailable
		state = "empty"
	}
	return c.Status(status).JSON(fiber.Map{
		"status":   state,
		"months":   len(months),
		"sessions": h.deps.Store.Len(),
	})
}

// Up is the liveness probe used by the healthcheck command.
func (h *Handlers) Up(c fiber.Ctx) error {
	return c.SendString("OK")
}

func (h *Handlers) Version(c fiber.Ctx) error {
	return c.JSON(VersionResponse{Version: h.deps.Version, Source: h.deps.Source})
}
