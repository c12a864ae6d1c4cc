package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/horasecreta/advisor/am"
	"github.com/horasecreta/advisor/cmd/advisor/commands"
	"github.com/horasecreta/advisor/logger"
)

var rootCmd = &cobra.Command{
	Use:   "advisor",
	Short: "horasecreta-ai - pastoral advice gateway",
	Long: `horasecreta-ai - pastoral advice gateway.

Accepts a short message over HTTP, checks the shared service token and
answers with six-section pastoral advice produced by a chain of LLM models.

Available commands:
  serve   - Start the HTTP gateway
  am      - Show and validate configuration
  usage   - Summarize upstream attempts from the usage ledger
  version - Show build information

Examples:
  advisor serve                  # Start on $PORT (default 3000)
  advisor am show --format json  # Show effective configuration
  advisor usage --since 24h      # Attempts of the last day`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFiles, _ := cmd.Flags().GetStringSlice("env-file")
		if err := am.LoadDotEnv(envFiles...); err != nil {
			return err
		}

		// 'am show' prints machine-readable config; keep stdout clean
		if cmd.Name() == "show" {
			return nil
		}

		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("log-json")
		level := logger.VerbosityToLevel(verbosity, am.GetString("log.level"))
		if err := logger.Initialize(jsonLogs || am.GetViper().GetBool("log.json"), level); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Emit JSON logs instead of the console format")
	rootCmd.PersistentFlags().Bool("json", false, "Output command results as JSON")
	rootCmd.PersistentFlags().StringSlice("env-file", []string{".env"}, "dotenv files to load before reading configuration")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.UsageCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
