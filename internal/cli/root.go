package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/seuros/funnelscope/internal/config"
	"github.com/seuros/funnelscope/internal/database"
	"github.com/seuros/funnelscope/internal/dataset"
)

var Version string

var (
	flagPort        string
	flagDataFile    string
	flagDatabaseURL string
	flagSource      string
)

// RootCmd represents the root command
var RootCmd = &cobra.Command{
	Use:   "funnelscope",
	Short: "Drill-down navigator for funnel analytics",
	Long: `Funnelscope - a drill-down navigator for monthly funnel analytics.

Funnelscope serves a funnel model per month and country and lets you drill
from the funnel into stage breakdowns, error codes, failure reasons and
login page URLs. Snapshots come from a YAML/JSON file or from PostgreSQL.`,
	Version:      Version,
	SilenceUsage: true,
	// Default to serve command if no subcommand provided
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return runServe(cmd.Context())
		}
		return cmd.Help()
	},
}

// Execute is called by main
func Execute(version string) error {
	Version = version
	RootCmd.Version = version
	return RootCmd.Execute()
}

// loadConfig resolves configuration with the persistent flags applied last.
func loadConfig() (*config.Config, error) {
	return config.LoadWithOverrides(config.Overrides{
		Port:        flagPort,
		DataFile:    flagDataFile,
		DatabaseURL: flagDatabaseURL,
		Source:      flagSource,
	})
}

// loadSnapshot reads the snapshot from the configured source. In postgres
// mode the database connection stays open for the caller.
func loadSnapshot(ctx context.Context, cfg *config.Config) (*dataset.Snapshot, error) {
	switch cfg.Source {
	case config.SourcePostgres:
		if database.DB == nil {
			if err := database.Connect(cfg.DatabaseURL); err != nil {
				return nil, err
			}
		}
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		return database.LoadSnapshot(ctx, nil)
	default:
		if cfg.DataFile == "" {
			return dataset.Default()
		}
		snapshot, err := dataset.LoadFile(cfg.DataFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", cfg.DataFile, err)
		}
		return snapshot, nil
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&flagPort, "port", "", "HTTP port (overrides PORT)")
	RootCmd.PersistentFlags().StringVar(&flagDataFile, "data-file", "", "Snapshot file in YAML or JSON (overrides DATA_FILE)")
	RootCmd.PersistentFlags().StringVar(&flagDatabaseURL, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	RootCmd.PersistentFlags().StringVar(&flagSource, "source", "", "Snapshot source: file or postgres (overrides DATA_SOURCE)")

	RootCmd.AddCommand(serveCmd)
	RootCmd.AddCommand(funnelCmd)
	RootCmd.AddCommand(drillCmd)
	RootCmd.AddCommand(monthsCmd)
	RootCmd.AddCommand(doctorCmd)
	RootCmd.AddCommand(dbCmd)
	RootCmd.AddCommand(healthcheckCmd)

	setupSelfUpgrade()

	RootCmd.Version = Version
}
