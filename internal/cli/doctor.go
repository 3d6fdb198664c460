package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/seuros/funnelscope/internal/config"
	"github.com/seuros/funnelscope/internal/database"
	"github.com/seuros/funnelscope/internal/dataset"
	"github.com/seuros/funnelscope/internal/geoip"
)

// expectedMigrationVersion is the newest embedded schema migration.
const expectedMigrationVersion = uint(1)

var errChecksFailed = errors.New("doctor checks failed")

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks on the snapshot and installation",
	Long: `Run health checks on the Funnelscope installation and its snapshot.

Checks performed:
  - Snapshot loads from the configured source
  - GeoIP database opens (when configured)
  - Database connection and migrations (postgres source)

Dataset consistency is reported as warnings:
  - every funnel month has error code, failure reason and login URL data
  - each funnel starts with signups at 100%
  - no stage carries both sub_category and breakdown
  - flagged entries resolve to non-empty lookup slices
  - duplicate error codes within a slice

Example:
  funnelscope doctor
  funnelscope doctor --json`,
	RunE: runDoctor,
}

type CheckResult struct {
	Name       string `json:"name"`
	Pass       bool   `json:"pass"`
	Error      string `json:"error,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	Details    string `json:"details,omitempty"`
}

// DoctorReport is the --json output.
type DoctorReport struct {
	Checks   []CheckResult     `json:"checks"`
	Warnings []dataset.Finding `json:"warnings"`
}

func (r DoctorReport) passed() bool {
	for _, c := range r.Checks {
		if !c.Pass {
			return false
		}
	}
	return true
}

func checkSnapshot(ctx context.Context, cfg *config.Config) (*dataset.Snapshot, CheckResult) {
	snapshot, err := loadSnapshot(ctx, cfg)
	if err != nil {
		suggestion := "Check DATA_FILE points at a readable YAML or JSON snapshot"
		if cfg.Source == config.SourcePostgres {
			suggestion = "Import a snapshot with: funnelscope db import --file snapshot.yaml"
		}
		return nil, CheckResult{Name: "Snapshot", Pass: false, Error: err.Error(), Suggestion: suggestion}
	}

	months := snapshot.Months()
	if len(months) == 0 {
		return snapshot, CheckResult{
			Name:       "Snapshot",
			Pass:       false,
			Error:      "snapshot has no funnel months",
			Suggestion: "Load a snapshot with at least one month of funnels",
		}
	}
	return snapshot, CheckResult{
		Name:    "Snapshot",
		Pass:    true,
		Details: fmt.Sprintf("%s, %d months, newest %s", cfg.Source, len(months), months[0]),
	}
}

func checkGeoIP(cfg *config.Config) CheckResult {
	if cfg.GeoIPDB == "" {
		return CheckResult{Name: "GeoIP Database", Pass: true, Details: "disabled"}
	}
	locator, err := geoip.Open(cfg.GeoIPDB)
	if err != nil {
		return CheckResult{
			Name:       "GeoIP Database",
			Pass:       false,
			Error:      err.Error(),
			Suggestion: "Point GEOIP_DB at a GeoLite2-Country.mmdb file or unset it",
		}
	}
	_ = locator.Close()
	return CheckResult{Name: "GeoIP Database", Pass: true, Details: cfg.GeoIPDB}
}

func checkDatabaseConnection(cfg *config.Config) CheckResult {
	if database.DB == nil {
		if err := database.Connect(cfg.DatabaseURL); err != nil {
			return CheckResult{
				Name:       "Database Connection",
				Pass:       false,
				Error:      err.Error(),
				Suggestion: "Verify DATABASE_URL and ensure PostgreSQL is running",
			}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := database.DB.PingContext(ctx); err != nil {
		return CheckResult{
			Name:       "Database Connection",
			Pass:       false,
			Error:      err.Error(),
			Suggestion: "Verify DATABASE_URL and ensure PostgreSQL is running",
		}
	}
	return CheckResult{Name: "Database Connection", Pass: true}
}

func checkMigrations(cfg *config.Config) CheckResult {
	status, err := database.GetMigrationStatus(cfg.DatabaseURL)
	if err != nil {
		return CheckResult{
			Name:       "Database Migrations",
			Pass:       false,
			Error:      err.Error(),
			Suggestion: "Run migrations with: funnelscope db migrate",
		}
	}
	return migrationResult(status)
}

func migrationResult(status database.MigrationStatus) CheckResult {
	if status.Dirty {
		return CheckResult{
			Name:       "Database Migrations",
			Pass:       false,
			Error:      "Migration state is dirty",
			Suggestion: "Fix dirty migration state, may need manual intervention",
		}
	}
	if status.Version != expectedMigrationVersion {
		return CheckResult{
			Name:       "Database Migrations",
			Pass:       false,
			Error:      fmt.Sprintf("Migration version %d, expected %d", status.Version, expectedMigrationVersion),
			Suggestion: "Run migrations with: funnelscope db migrate",
		}
	}
	return CheckResult{Name: "Database Migrations", Pass: true, Details: fmt.Sprintf("v%d", status.Version)}
}

func runDoctor(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "✗ Configuration Error: %v\n", err)
		return err
	}

	report := DoctorReport{Warnings: []dataset.Finding{}}

	// The connection comes first so the snapshot check reuses it.
	if cfg.Source == config.SourcePostgres {
		report.Checks = append(report.Checks, checkDatabaseConnection(cfg))
		report.Checks = append(report.Checks, checkMigrations(cfg))
		defer func() { _ = database.Close() }()
	}

	snapshot, result := checkSnapshot(cmd.Context(), cfg)
	report.Checks = append(report.Checks, result)
	report.Checks = append(report.Checks, checkGeoIP(cfg))
	if snapshot != nil {
		report.Warnings = append(report.Warnings, dataset.Inspect(snapshot)...)
	}

	if jsonOutput {
		if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
	} else {
		outputDoctorHuman(cmd.OutOrStdout(), report)
	}

	if !report.passed() {
		return errChecksFailed
	}
	return nil
}

func outputDoctorHuman(w io.Writer, report DoctorReport) {
	fmt.Fprintln(w, "\nFunnelscope Health Check")

	passed := 0
	for _, r := range report.Checks {
		icon := "✓"
		if r.Pass {
			passed++
		} else {
			icon = "✗"
		}

		fmt.Fprintf(w, "%s %s", icon, r.Name)
		if r.Details != "" {
			fmt.Fprintf(w, " (%s)", r.Details)
		}
		fmt.Fprintln(w)

		if !r.Pass {
			if r.Error != "" {
				fmt.Fprintf(w, "  Error: %s\n", r.Error)
			}
			if r.Suggestion != "" {
				fmt.Fprintf(w, "  Hint: %s\n", r.Suggestion)
			}
		}
	}

	if len(report.Warnings) > 0 {
		fmt.Fprintf(w, "\nDataset warnings (%d):\n", len(report.Warnings))
		for _, f := range report.Warnings {
			scope := f.Month
			if f.Country != "" {
				scope += "/" + f.Country
			}
			if scope != "" {
				fmt.Fprintf(w, "  ! [%s] %s: %s\n", f.Check, scope, f.Message)
			} else {
				fmt.Fprintf(w, "  ! [%s] %s\n", f.Check, f.Message)
			}
		}
	}

	fmt.Fprintf(w, "\n%d/%d checks passed\n\n", passed, len(report.Checks))
}

func init() {
	doctorCmd.Flags().Bool("json", false, "Output results as JSON")
}
