package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"github.com/seuros/funnelscope/internal/dataset"
)

const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// Config holds application configuration
type Config struct {
	Port           string
	DataFile       string // empty means the snapshot bundled with the binary
	DatabaseURL    string
	Source         string
	GeoIPDB        string
	DefaultMonth   string // empty means the newest month of the snapshot
	DefaultCountry dataset.Country
	TopN           int
	SessionIdle    time.Duration
	ProxyMode      string
	AllowedOrigins []string
	MetricsToken   string // empty leaves /metrics open
}

// Overrides carries command flag values; empty fields are ignored.
type Overrides struct {
	Port        string
	DataFile    string
	DatabaseURL string
	Source      string
}

// Load loads configuration from multiple sources with priority:
// 1. Command flags (see LoadWithOverrides)
// 2. Config file (./funnelscope.toml or $XDG_CONFIG_HOME/funnelscope/funnelscope.toml)
// 3. Environment variables
func Load() (*Config, error) {
	return LoadWithOverrides(Overrides{})
}

// LoadWithOverrides loads config and applies flag overrides
func LoadWithOverrides(o Overrides) (*Config, error) {
	v := newBaseViper()
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	cfg := buildConfig(v, o)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newBaseViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("funnelscope")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	// XDG lookup done by hand so tests can point XDG_CONFIG_HOME elsewhere.
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			configHome = filepath.Join(home, ".config")
		}
	}
	if configHome != "" {
		v.AddConfigPath(filepath.Join(configHome, "funnelscope"))
	}

	return v
}

func buildConfig(v *viper.Viper, o Overrides) *Config {
	cfg := &Config{
		Port:           "3000",
		Source:         SourceFile,
		DefaultCountry: dataset.CountryGlobal,
		TopN:           10,
		SessionIdle:    30 * time.Minute,
		ProxyMode:      "none",
		AllowedOrigins: []string{},
	}

	str := func(key, env string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
			return
		}
		if value := os.Getenv(env); value != "" {
			*dst = value
		}
	}

	str("port", "PORT", &cfg.Port)
	str("data_file", "DATA_FILE", &cfg.DataFile)
	str("database_url", "DATABASE_URL", &cfg.DatabaseURL)
	str("source", "DATA_SOURCE", &cfg.Source)
	str("geoip_db", "GEOIP_DB", &cfg.GeoIPDB)
	str("default_month", "DEFAULT_MONTH", &cfg.DefaultMonth)
	str("proxy_mode", "PROXY_MODE", &cfg.ProxyMode)
	str("metrics_token", "METRICS_TOKEN", &cfg.MetricsToken)

	var country string
	str("default_country", "DEFAULT_COUNTRY", &country)
	if country != "" {
		cfg.DefaultCountry = dataset.Country(country)
	}

	var origins string
	str("allowed_origins", "ALLOWED_ORIGINS", &origins)
	if origins != "" {
		cfg.AllowedOrigins = parseOrigins(origins)
	}

	if v.IsSet("top_n") {
		cfg.TopN = v.GetInt("top_n")
	} else if n, err := strconv.Atoi(os.Getenv("TOP_N")); err == nil {
		cfg.TopN = n
	}

	if v.IsSet("session_idle_minutes") {
		cfg.SessionIdle = time.Duration(v.GetInt("session_idle_minutes")) * time.Minute
	} else if n, err := strconv.Atoi(os.Getenv("SESSION_IDLE_MINUTES")); err == nil {
		cfg.SessionIdle = time.Duration(n) * time.Minute
	}

	// Apply overrides (flags) last
	if o.Port != "" {
		cfg.Port = o.Port
	}
	if o.DataFile != "" {
		cfg.DataFile = o.DataFile
	}
	if o.DatabaseURL != "" {
		cfg.DatabaseURL = o.DatabaseURL
	}
	if o.Source != "" {
		cfg.Source = o.Source
	}

	return cfg
}

func (c *Config) validate() error {
	country, err := dataset.ParseCountry(string(c.DefaultCountry))
	if err != nil {
		return fmt.Errorf("invalid default_country: %w", err)
	}
	c.DefaultCountry = country

	switch c.Source {
	case SourceFile:
	case SourcePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("source %q requires database_url", c.Source)
		}
	default:
		return fmt.Errorf("unsupported source %q", c.Source)
	}

	switch c.ProxyMode {
	case "none", "cloudflare", "xforwarded":
	default:
		return fmt.Errorf("unsupported proxy_mode %q", c.ProxyMode)
	}

	if c.TopN <= 0 {
		return fmt.Errorf("top_n must be positive, got %d", c.TopN)
	}
	if c.SessionIdle <= 0 {
		return fmt.Errorf("session_idle_minutes must be positive")
	}
	return nil
}
