package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seuros/funnelscope/internal/config"
	"github.com/seuros/funnelscope/internal/database"
	"github.com/seuros/funnelscope/internal/dataset"
)

func TestMigrationResult(t *testing.T) {
	ok := migrationResult(database.MigrationStatus{Version: expectedMigrationVersion})
	assert.True(t, ok.Pass)
	assert.Equal(t, "v1", ok.Details)

	behind := migrationResult(database.MigrationStatus{Version: 0})
	assert.False(t, behind.Pass)
	assert.Equal(t, "Migration version 0, expected 1", behind.Error)

	dirty := migrationResult(database.MigrationStatus{Version: expectedMigrationVersion, Dirty: true})
	assert.False(t, dirty.Pass)
	assert.Equal(t, "Migration state is dirty", dirty.Error)
}

func TestCheckSnapshot(t *testing.T) {
	snapshot, result := checkSnapshot(context.Background(), &config.Config{Source: config.SourceFile})
	require.NotNil(t, snapshot)
	assert.True(t, result.Pass)
	assert.Equal(t, "file, 2 months, newest 2025-11", result.Details)

	missing := filepath.Join(t.TempDir(), "missing.yaml")
	snapshot, result = checkSnapshot(context.Background(), &config.Config{Source: config.SourceFile, DataFile: missing})
	assert.Nil(t, snapshot)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Suggestion, "DATA_FILE")
}

func TestCheckGeoIP(t *testing.T) {
	disabled := checkGeoIP(&config.Config{})
	assert.True(t, disabled.Pass)
	assert.Equal(t, "disabled", disabled.Details)

	missing := checkGeoIP(&config.Config{GeoIPDB: filepath.Join(t.TempDir(), "nope.mmdb")})
	assert.False(t, missing.Pass)
	assert.NotEmpty(t, missing.Error)
}

func TestDoctorReportPassed(t *testing.T) {
	report := DoctorReport{
		Checks:   []CheckResult{{Name: "Snapshot", Pass: true}},
		Warnings: []dataset.Finding{{Check: "duplicate_code", Message: "GENERIC_DECLINE appears twice"}},
	}
	assert.True(t, report.passed(), "warnings never fail the doctor")

	report.Checks = append(report.Checks, CheckResult{Name: "GeoIP Database", Pass: false})
	assert.False(t, report.passed())
}

func TestOutputDoctorHuman(t *testing.T) {
	report := DoctorReport{
		Checks: []CheckResult{
			{Name: "Snapshot", Pass: true, Details: "file, 2 months, newest 2025-11"},
			{Name: "Database Connection", Pass: false, Error: "refused", Suggestion: "Start PostgreSQL"},
		},
		Warnings: []dataset.Finding{
			{Check: "duplicate_code", Month: "2025-11", Country: "global", Message: "code GENERIC_DECLINE appears 2 times"},
		},
	}

	var out bytes.Buffer
	outputDoctorHuman(&out, report)
	text := out.String()

	assert.Contains(t, text, "✓ Snapshot (file, 2 months, newest 2025-11)")
	assert.Contains(t, text, "✗ Database Connection")
	assert.Contains(t, text, "  Error: refused")
	assert.Contains(t, text, "  Hint: Start PostgreSQL")
	assert.Contains(t, text, "Dataset warnings (1):")
	assert.Contains(t, text, "! [duplicate_code] 2025-11/global: code GENERIC_DECLINE appears 2 times")
	assert.Contains(t, text, "1/2 checks passed")
}
