package cli

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFiberConfig(t *testing.T) {
	appName := "Test App"
	config := createFiberConfig(appName)

	// AppName should always be set correctly
	assert.Equal(t, appName, config.AppName, "AppName should match input")
	assert.NotNil(t, config.ErrorHandler)
	assert.True(t, config.Immutable)
}

func TestCreateFiberConfigAppNameFormat(t *testing.T) {
	tests := []struct {
		name     string
		appName  string
		expected string
	}{
		{
			name:     "simple name",
			appName:  "Funnelscope",
			expected: "Funnelscope",
		},
		{
			name:     "name with version",
			appName:  "Funnelscope v1.0.0",
			expected: "Funnelscope v1.0.0",
		},
		{
			name:     "empty name",
			appName:  "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := createFiberConfig(tt.appName)
			assert.Equal(t, tt.expected, config.AppName)
		})
	}
}

func TestErrorHandlerEnvelope(t *testing.T) {
	app := fiber.New(createFiberConfig("test"))
	app.Get("/boom", func(c fiber.Ctx) error {
		return errors.New("database exploded")
	})
	app.Get("/teapot", func(c fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/missing", fiber.StatusNotFound, `"error"`},
		{"/boom", fiber.StatusInternalServerError, `{"error":"internal server error"}`},
		{"/teapot", fiber.StatusTeapot, `{"error":"short and stout"}`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.status, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, string(body), tt.body)
		})
	}
}
