package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/horasecreta/advisor/ai/tracker"
	"github.com/horasecreta/advisor/am"
	"github.com/horasecreta/advisor/display"
	"github.com/horasecreta/advisor/errors"
)

// UsageCmd summarizes the usage ledger
var UsageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Summarize upstream attempts from the usage ledger",
	Long: `Show attempt counts, success and timeout rates, tokens and estimated cost
per model. The ledger records one row per chain attempt and never stores
messages or answers.

Examples:
  advisor usage                 # Last 24 hours
  advisor usage --since 168h    # Last week
  advisor usage --json          # Machine-readable output`,
	RunE: runUsage,
}

var (
	usageSince  time.Duration
	usageDBPath string
)

func init() {
	UsageCmd.Flags().DurationVar(&usageSince, "since", 24*time.Hour, "Look-back window")
	UsageCmd.Flags().StringVar(&usageDBPath, "db-path", "", "Usage ledger path (overrides database.path)")
	UsageCmd.Flags().BoolP("json", "j", false, "Output as JSON")
}

// usageReport is the JSON shape of 'advisor usage'
type usageReport struct {
	Since  time.Time                `json:"since"`
	Stats  *tracker.UsageStats      `json:"stats"`
	Models []tracker.ModelBreakdown `json:"models"`
}

func runUsage(cmd *cobra.Command, args []string) error {
	path := usageDBPath
	if path == "" {
		cfg, err := am.Load()
		if err != nil {
			return errors.Wrap(err, "failed to load config")
		}
		path = cfg.Database.Path
	}

	database, err := openDatabase(path)
	if err != nil {
		return err
	}
	defer database.Close()

	ut := tracker.NewUsageTracker(database)
	since := time.Now().Add(-usageSince)
	ctx := cmd.Context()

	stats, err := ut.GetUsageStats(ctx, since)
	if err != nil {
		return err
	}
	models, err := ut.GetModelBreakdown(ctx, since)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(out, usageReport{Since: since.UTC(), Stats: stats, Models: models})
	}

	fmt.Fprintf(out, "Since %s: %d requests, %d attempts, %.0f%% successful, %d timed out, $%.4f\n",
		since.Format(time.RFC3339), stats.Requests, stats.TotalAttempts, stats.SuccessRate*100,
		stats.TimedOutAttempts, stats.TotalCost)

	if len(models) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(models))
	for _, m := range models {
		rows = append(rows, []string{
			m.Provider,
			m.ModelName,
			strconv.Itoa(m.Attempts),
			strconv.Itoa(m.Successes),
			strconv.Itoa(m.Timeouts),
			fmt.Sprintf("%.0f", m.AvgDurationMS),
			strconv.Itoa(m.TotalTokens),
			fmt.Sprintf("%.4f", m.TotalCost),
		})
	}
	return display.Table(out, []string{"Provider", "Model", "Attempts", "OK", "Timeouts", "Avg ms", "Tokens", "Cost $"}, rows)
}
