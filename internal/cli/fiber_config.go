package cli

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/seuros/funnelscope/internal/httpx"
)

// createFiberConfig returns Fiber configuration. Sessions live in process
// memory, so the server never runs in prefork mode, and request values stay
// immutable because sessions keep them after the handler returns.
func createFiberConfig(appName string) fiber.Config {
	return fiber.Config{
		AppName:      appName,
		Immutable:    true,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: errorHandler,
	}
}

// errorHandler renders unhandled errors with the API's error envelope.
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	msg := err.Error()
	if code == fiber.StatusInternalServerError {
		msg = "internal server error"
	}
	return httpx.Error(c, code, msg)
}
