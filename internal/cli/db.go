package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/seuros/funnelscope/internal/config"
	"github.com/seuros/funnelscope/internal/database"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the PostgreSQL snapshot store",
	Long: `Manage the PostgreSQL snapshot store.

Every subcommand needs DATABASE_URL (or --database-url).`,
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations, or roll back with --down",
	Long: `Apply all pending schema migrations.

Example:
  funnelscope db migrate
  funnelscope db migrate --down 1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		down, _ := cmd.Flags().GetInt("down")
		if down > 0 {
			if err := database.RollbackMigrations(cfg.DatabaseURL, down); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Rolled back %d migration(s)\n", down)
			return nil
		}
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Migrations completed")
		return nil
	},
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the applied schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		status, err := database.GetMigrationStatus(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		writeMigrationStatus(cmd.OutOrStdout(), status)
		return nil
	},
}

var dbImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a snapshot file into PostgreSQL",
	Long: `Load a YAML or JSON snapshot into PostgreSQL.

The months of the file replace the stored rows of the same months. Running
servers in postgres mode reload the snapshot when the import commits.
Without --file the DATA_FILE snapshot is used, then the bundled one.

Example:
  funnelscope db import --file ./snapshot-2025-11.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		file, _ := cmd.Flags().GetString("file")
		return runImport(cmd.Context(), cmd.OutOrStdout(), cfg, file)
	},
}

func runImport(ctx context.Context, out io.Writer, cfg *config.Config, file string) error {
	source := *cfg
	source.Source = config.SourceFile
	if file != "" {
		source.DataFile = file
	}
	snapshot, err := loadSnapshot(ctx, &source)
	if err != nil {
		return err
	}

	if err := database.Connect(cfg.DatabaseURL); err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()
	event, err := database.ImportSnapshot(ctx, snapshot)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "✓ Imported %d month(s): %s\n", len(event.Months), strings.Join(event.Months, ", "))
	return nil
}

func writeMigrationStatus(w io.Writer, status database.MigrationStatus) {
	state := "clean"
	if status.Dirty {
		state = "dirty"
	}
	fmt.Fprintf(w, "Schema version: %d (%s)\n", status.Version, state)
	if status.Version < expectedMigrationVersion {
		fmt.Fprintf(w, "Pending: run funnelscope db migrate to reach v%d\n", expectedMigrationVersion)
	}
}

func init() {
	dbMigrateCmd.Flags().Int("down", 0, "Roll back this many migrations instead of applying")
	dbImportCmd.Flags().String("file", "", "Snapshot file in YAML or JSON")

	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbImportCmd)
}
