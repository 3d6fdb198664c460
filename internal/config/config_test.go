package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seuros/funnelscope/internal/dataset"
)

var configEnv = []string{
	"PORT", "DATA_FILE", "DATABASE_URL", "DATA_SOURCE", "GEOIP_DB", "DEFAULT_MONTH",
	"DEFAULT_COUNTRY", "TOP_N", "SESSION_IDLE_MINUTES", "PROXY_MODE", "ALLOWED_ORIGINS", "METRICS_TOKEN",
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	original, existed := os.LookupEnv(key)
	if existed {
		t.Cleanup(func() {
			_ = os.Setenv(key, original)
		})
	} else {
		t.Cleanup(func() {
			_ = os.Unsetenv(key)
		})
	}
	_ = os.Unsetenv(key)
}

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Chdir(home)
	for _, key := range configEnv {
		unsetEnv(t, key)
	}
	return home
}

func writeTestConfig(t *testing.T, home string, contents string) {
	t.Helper()
	configDir := filepath.Join(home, ".config", "funnelscope")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "funnelscope.toml"), []byte(contents), 0o644))
}

func TestLoadDefaultsWhenNoConfigSources(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "", cfg.DataFile)
	assert.Equal(t, SourceFile, cfg.Source)
	assert.Equal(t, dataset.CountryGlobal, cfg.DefaultCountry)
	assert.Equal(t, 10, cfg.TopN)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdle)
	assert.Equal(t, "none", cfg.ProxyMode)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoadUsesEnvironmentVariables(t *testing.T) {
	isolate(t)
	t.Setenv("PORT", "4321")
	t.Setenv("DATA_FILE", "/tmp/snapshot.yaml")
	t.Setenv("DEFAULT_COUNTRY", "US")
	t.Setenv("DEFAULT_MONTH", "2025-10")
	t.Setenv("TOP_N", "5")
	t.Setenv("SESSION_IDLE_MINUTES", "3")
	t.Setenv("ALLOWED_ORIGINS", "dash.example.com, http://localhost:5173,bad/path")
	t.Setenv("METRICS_TOKEN", "scrape-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "4321", cfg.Port)
	assert.Equal(t, "/tmp/snapshot.yaml", cfg.DataFile)
	assert.Equal(t, dataset.CountryUS, cfg.DefaultCountry)
	assert.Equal(t, "2025-10", cfg.DefaultMonth)
	assert.Equal(t, 5, cfg.TopN)
	assert.Equal(t, 3*time.Minute, cfg.SessionIdle)
	assert.Equal(t, []string{"https://dash.example.com", "http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Equal(t, "scrape-secret", cfg.MetricsToken)
}

func TestLoadWithOverridesPriority(t *testing.T) {
	home := isolate(t)
	writeTestConfig(t, home, `
port = "4000"
data_file = "./config-snapshot.yaml"
top_n = 7
`)
	t.Setenv("PORT", "5000")
	t.Setenv("TOP_N", "3")

	cfg, err := LoadWithOverrides(Overrides{DataFile: "/flag/snapshot.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, "/flag/snapshot.yaml", cfg.DataFile)
	assert.Equal(t, 7, cfg.TopN)

	cfg, err = LoadWithOverrides(Overrides{Port: "6000"})
	require.NoError(t, err)
	assert.Equal(t, "6000", cfg.Port)
	assert.Equal(t, "./config-snapshot.yaml", cfg.DataFile)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	isolate(t)

	t.Setenv("DEFAULT_COUNTRY", "fr")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default_country")

	t.Setenv("DEFAULT_COUNTRY", "global")
	t.Setenv("DATA_SOURCE", "postgres")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database_url")

	t.Setenv("DATABASE_URL", "postgres://localhost/funnels")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, SourcePostgres, cfg.Source)

	t.Setenv("PROXY_MODE", "haproxy")
	_, err = Load()
	assert.Error(t, err)
}

func TestSanitizeOrigin(t *testing.T) {
	tests := []struct {
		input       string
		expected    string
		shouldError bool
	}{
		{"example.com", "https://example.com", false},
		{"EXAMPLE.com", "https://example.com", false},
		{"http://example.com", "http://example.com", false},
		{"https://example.com:3000/", "https://example.com:3000", false},
		{"example.com/path", "", true},
		{"https://example.com/path", "", true},
		{"http://example.com?foo=1", "", true},
		{"http://example.com#frag", "", true},
		{"", "", true},
		{"https://*.example.com", "", true},
	}

	for _, tt := range tests {
		got, err := SanitizeOrigin(tt.input)
		if tt.shouldError {
			assert.Error(t, err, tt.input)
			continue
		}
		assert.NoError(t, err, tt.input)
		assert.Equal(t, tt.expected, got)
	}
}
