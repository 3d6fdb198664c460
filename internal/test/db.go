// Package test provides Postgres fixtures for integration tests.
package test

import (
	"context"
	"database/sql"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/peterldowns/pgtestdb"
	"github.com/peterldowns/pgtestdb/migrators/golangmigrator"
)

// DatabaseURLEnv names the server integration tests run against. Tests are
// skipped when it is unset.
const DatabaseURLEnv = "FUNNELSCOPE_TEST_DATABASE_URL"

// TestDB is an isolated, migrated database cloned from a template.
type TestDB struct {
	DB *sql.DB
}

// NewTestDB creates a fresh database with the snapshot schema applied.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	databaseURL := os.Getenv(DatabaseURLEnv)
	if databaseURL == "" {
		t.Skipf("%s not set", DatabaseURLEnv)
	}

	parsedURL, err := url.Parse(databaseURL)
	if err != nil {
		t.Fatalf("failed to parse %s: %v", DatabaseURLEnv, err)
	}

	port := parsedURL.Port()
	if port == "" {
		port = "5432"
	}
	password, _ := parsedURL.User.Password()
	database := strings.TrimPrefix(parsedURL.Path, "/")
	if database == "" {
		database = "postgres"
	}

	conf := pgtestdb.Config{
		DriverName: "pgx",
		Host:       parsedURL.Hostname(),
		Port:       port,
		User:       parsedURL.User.Username(),
		Password:   password,
		Database:   database,
		Options:    parsedURL.RawQuery,
	}
	db := pgtestdb.New(t, conf, golangmigrator.New(migrationsPath(t)))

	return &TestDB{DB: db}
}

// migrationsPath walks up from the working directory to the embedded schema.
func migrationsPath(t *testing.T) string {
	t.Helper()

	current, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	for {
		candidate := filepath.Join(current, "internal", "database", "migrations")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(current)
		if parent == current {
			t.Fatalf("could not find migrations directory")
		}
		current = parent
	}
}

// Exec runs a statement for test setup.
func (tdb *TestDB) Exec(ctx context.Context, query string, args ...any) error {
	_, err := tdb.DB.ExecContext(ctx, query, args...)
	return err
}

// Count returns the number of rows in table.
func (tdb *TestDB) Count(ctx context.Context, table string) (int, error) {
	var n int
	err := tdb.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n)
	return n, err
}
