package cli

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seuros/funnelscope/internal/config"
	"github.com/seuros/funnelscope/internal/dataset"
	"github.com/seuros/funnelscope/internal/metrics"
	"github.com/seuros/funnelscope/internal/realtime"
	"github.com/seuros/funnelscope/internal/sessions"
)

func newTestServer(t *testing.T) *server {
	t.Helper()
	m := metrics.New()
	return &server{
		cfg: &config.Config{
			Source:         config.SourceFile,
			DefaultCountry: dataset.CountryGlobal,
			TopN:           10,
			SessionIdle:    time.Minute,
		},
		store: sessions.NewStore(defaultSnapshot(t), sessions.Options{
			TopN:    10,
			Hooks:   m.Hooks(),
			OnCount: m.SetActiveSessions,
		}),
		hub:     realtime.NewHub(),
		metrics: m,
	}
}

func get(t *testing.T, app *fiber.App, method, path string) (int, string, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, path, nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body), resp.Header.Get("X-Funnelscope-Version")
}

func TestServerRoutes(t *testing.T) {
	origVersion := Version
	Version = "1.2.3"
	t.Cleanup(func() { Version = origVersion })

	app := newTestServer(t).newApp()

	status, body, version := get(t, app, "GET", "/up")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "OK", body)
	assert.Equal(t, "1.2.3", version)

	status, body, _ = get(t, app, "GET", "/api/version")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, `"version":"1.2.3"`)

	status, _, _ = get(t, app, "GET", "/api/funnel?month=2025-11")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestServerMetricsTrackSessions(t *testing.T) {
	app := newTestServer(t).newApp()

	status, _, _ := get(t, app, "POST", "/api/sessions")
	require.Equal(t, fiber.StatusCreated, status)

	status, body, _ := get(t, app, "GET", "/metrics")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "funnelscope_active_sessions 1")
}

func TestServerMetricsToken(t *testing.T) {
	srv := newTestServer(t)
	srv.cfg.MetricsToken = "scrape-secret"
	app := srv.newApp()

	status, _, _ := get(t, app, "GET", "/metrics")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	req := httptest.NewRequest("GET", "/metrics", nil)
	req.Header.Set("Authorization", "Bearer scrape-secret")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestServerCORSPreflight(t *testing.T) {
	srv := newTestServer(t)
	srv.cfg.AllowedOrigins = []string{"https://dash.example.com"}
	app := srv.newApp()

	req := httptest.NewRequest("OPTIONS", "/api/sessions", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, "https://dash.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestJanitorInterval(t *testing.T) {
	assert.Equal(t, time.Minute, janitorInterval(0))
	assert.Equal(t, time.Minute, janitorInterval(30*time.Minute))
	assert.Equal(t, 15*time.Second, janitorInterval(time.Minute))
	assert.Equal(t, time.Second, janitorInterval(time.Second))
}
