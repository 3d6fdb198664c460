package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/seuros/funnelscope/internal/config"
	"github.com/seuros/funnelscope/internal/dataset"
	"github.com/seuros/funnelscope/internal/navigator"
)

var funnelCmd = &cobra.Command{
	Use:   "funnel",
	Short: "Print the funnel of a month and country",
	Long: `Print the funnel stages of one month and country.

Example:
  funnelscope funnel --month 2025-11 --country us
  funnelscope funnel --format csv > funnel.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newCommandEnv(cmd)
		if err != nil {
			return err
		}
		frame := navigator.Build(env.snapshot, env.key, navigator.Root{}, env.cfg.TopN)
		return writeFrame(cmd.OutOrStdout(), frame, env.format)
	},
}

var drillCmd = &cobra.Command{
	Use:   "drill",
	Short: "Drill into a stage, entry and error code",
	Long: `Drive a navigator session through clicks and print the final view.

Clicks are applied in order: --trend, or --stage then --entry then --code.
--back steps back up the path afterwards.

Example:
  funnelscope drill --stage receive_txn_30d
  funnelscope drill --stage receive_txn_30d --entry invoice_txn_attempted_30d --code CANNOT_PAY_SELF
  funnelscope drill --country us --stage login_30d --entry 2_login --format json
  funnelscope drill --trend signups --country us`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newCommandEnv(cmd)
		if err != nil {
			return err
		}
		return runDrill(cmd.OutOrStdout(), env, drillFlagsFrom(cmd))
	},
}

var monthsCmd = &cobra.Command{
	Use:   "months",
	Short: "List the months of the snapshot, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newCommandEnv(cmd)
		if err != nil {
			return err
		}
		return writeMonths(cmd.OutOrStdout(), env.snapshot, env.format)
	},
}

// commandEnv is the resolved input shared by the read-only commands.
type commandEnv struct {
	cfg      *config.Config
	snapshot *dataset.Snapshot
	key      dataset.Key
	format   string
}

func newCommandEnv(cmd *cobra.Command) (*commandEnv, error) {
	format, err := resolveFormat(flagString(cmd, "format"))
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	snapshot, err := loadSnapshot(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	key, err := resolveKey(snapshot, cfg, flagString(cmd, "month"), flagString(cmd, "country"))
	if err != nil {
		return nil, err
	}
	return &commandEnv{cfg: cfg, snapshot: snapshot, key: key, format: format}, nil
}

// resolveKey applies the configured defaults to absent flags. A configured
// month the snapshot lacks falls back to the newest month.
func resolveKey(snapshot *dataset.Snapshot, cfg *config.Config, month, country string) (dataset.Key, error) {
	key := dataset.Key{Month: month, Country: cfg.DefaultCountry}
	if key.Month == "" {
		key.Month = cfg.DefaultMonth
		if key.Month == "" || !snapshot.HasMonth(key.Month) {
			key.Month = snapshot.LatestMonth()
		}
	}
	if country != "" {
		c, err := dataset.ParseCountry(country)
		if err != nil {
			return dataset.Key{}, err
		}
		key.Country = c
	}
	if key.Country == "" {
		key.Country = dataset.CountryGlobal
	}
	return key, nil
}

type drillFlags struct {
	trend string
	stage string
	entry string
	code  string
	back  int
}

func drillFlagsFrom(cmd *cobra.Command) drillFlags {
	back, _ := cmd.Flags().GetInt("back")
	return drillFlags{
		trend: flagString(cmd, "trend"),
		stage: flagString(cmd, "stage"),
		entry: flagString(cmd, "entry"),
		code:  flagString(cmd, "code"),
		back:  back,
	}
}

func runDrill(out io.Writer, env *commandEnv, f drillFlags) error {
	session := navigator.New(env.snapshot, env.key, navigator.WithTopN(env.cfg.TopN))

	if f.trend != "" {
		if f.stage != "" || f.entry != "" || f.code != "" {
			return errors.New("--trend cannot be combined with --stage, --entry or --code")
		}
		if !session.ShowTrend(f.trend) {
			return fmt.Errorf("no trend for stage %q", f.trend)
		}
	}
	if f.entry != "" && f.stage == "" {
		return errors.New("--entry requires --stage")
	}
	if f.code != "" && f.entry == "" {
		return errors.New("--code requires --entry")
	}
	if f.stage != "" && !session.ClickStage(f.stage) {
		return fmt.Errorf("stage %q has no breakdown for %s", f.stage, env.key)
	}
	if f.entry != "" && !session.ClickEntry(f.entry) {
		return fmt.Errorf("entry %q of stage %q has no drill-down", f.entry, f.stage)
	}
	if f.code != "" && !session.ClickCode(f.code) {
		return fmt.Errorf("code %q cannot be opened from this view", f.code)
	}
	for range f.back {
		session.Back()
	}

	return writeFrame(out, session.Render(), env.format)
}

func writeMonths(out io.Writer, snapshot *dataset.Snapshot, format string) error {
	months := snapshot.Months()
	switch format {
	case formatJSON:
		return writeJSON(out, months)
	default:
		rows := make([][]string, 0, len(months))
		for _, m := range months {
			row := []string{m}
			for _, c := range dataset.Countries {
				row = append(row, count(stageCount(snapshot.Funnel(m, c))))
			}
			rows = append(rows, row)
		}
		header := []string{"MONTH"}
		for _, c := range dataset.Countries {
			header = append(header, "SIGNUPS_"+string(c))
		}
		if format == formatCSV {
			return writeCSV(out, header, rows)
		}
		return writeTable(out, header, rows)
	}
}

// stageCount is the count of the funnel's first stage.
func stageCount(stages []dataset.FunnelStage) int64 {
	if len(stages) == 0 {
		return 0
	}
	return stages[0].Count
}

func flagString(cmd *cobra.Command, name string) string {
	value, _ := cmd.Flags().GetString(name)
	return value
}

func init() {
	for _, cmd := range []*cobra.Command{funnelCmd, drillCmd, monthsCmd} {
		cmd.Flags().String("format", "", "Output format: table, json, or csv (default table on a terminal, json otherwise)")
	}
	for _, cmd := range []*cobra.Command{funnelCmd, drillCmd} {
		cmd.Flags().String("month", "", "Month as YYYY-MM (default: configured or newest month)")
		cmd.Flags().String("country", "", "Country: global or us (default: configured country)")
	}

	drillCmd.Flags().String("trend", "", "Show the per-month trend of a stage")
	drillCmd.Flags().String("stage", "", "Stage to expand")
	drillCmd.Flags().String("entry", "", "Breakdown entry to open")
	drillCmd.Flags().String("code", "", "Error code to open")
	drillCmd.Flags().Int("back", 0, "Steps to go back after the clicks")
}
