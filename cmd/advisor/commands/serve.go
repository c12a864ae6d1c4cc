package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/horasecreta/advisor/advisor"
	"github.com/horasecreta/advisor/ai/provider"
	"github.com/horasecreta/advisor/ai/tracker"
	"github.com/horasecreta/advisor/am"
	"github.com/horasecreta/advisor/errors"
	"github.com/horasecreta/advisor/logger"
	"github.com/horasecreta/advisor/server"
)

const ledgerDrainTimeout = 5 * time.Second

// ServeCmd starts the HTTP gateway
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the advisor HTTP gateway",
	Long: `Start the HTTP gateway on the configured port.

Routes:
  GET  /health      - liveness and credential presence
  POST /advisor     - pastoral advice (requires the service token)
  GET  /debug-auth  - credential diagnostics (only with server.debug_auth)

SIGINT or SIGTERM drains in-flight requests before exiting.`,
	RunE: runServe,
}

var (
	servePort     int
	serveDBPath   string
	serveNoLedger bool
	serveNoBanner bool
)

func init() {
	ServeCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (overrides server.port and PORT)")
	ServeCmd.Flags().StringVar(&serveDBPath, "db-path", "", "Usage ledger path (overrides database.path)")
	ServeCmd.Flags().BoolVar(&serveNoLedger, "no-ledger", false, "Do not record upstream attempts")
	ServeCmd.Flags().BoolVar(&serveNoBanner, "no-banner", false, "Skip the startup banner")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	registry, err := provider.NewRegistryFromConfig(cfg, logger.ComponentLogger("provider"))
	if err != nil {
		return errors.Wrap(err, "failed to build provider registry")
	}

	opts := []advisor.InvokerOption{advisor.WithLogger(logger.ComponentLogger("invoker"))}

	dbPath := ledgerPath(cfg)
	if dbPath != "" {
		database, err := openDatabase(dbPath)
		if err != nil {
			return err
		}
		defer database.Close()
		recorder := advisor.NewLedgerRecorder(tracker.NewUsageTracker(database), logger.ComponentLogger("ledger"))
		defer drainLedger(recorder)
		opts = append(opts, advisor.WithRecorder(recorder))
	}

	pipeline := advisor.NewPipelineFromConfig(cfg, advisor.NewInvoker(registry, opts...), logger.ComponentLogger("pipeline"))
	srv := server.NewServer(cfg, pipeline, logger.ComponentLogger("server"))

	if !serveNoBanner && !cfg.Log.JSON {
		printStartupBanner(cmd.OutOrStdout(), cfg, dbPath)
	}
	if !registry.Configured(am.ProviderOpenAI) && !registry.Configured(am.ProviderAnthropic) {
		logger.Warnw("No upstream credentials configured; every chain attempt will fail",
			"providers", registry.Names())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}

// drainLedger flushes queued attempt rows before the database closes
func drainLedger(recorder *advisor.LedgerRecorder) {
	ctx, cancel := context.WithTimeout(context.Background(), ledgerDrainTimeout)
	defer cancel()
	if err := recorder.Close(ctx); err != nil {
		logger.Warnw("Usage ledger not fully flushed", logger.FieldError, err.Error())
	}
}

// ledgerPath resolves the usage ledger path from flags and config.
// An empty result disables the ledger.
func ledgerPath(cfg *am.Config) string {
	switch {
	case serveNoLedger:
		return ""
	case serveDBPath != "":
		return serveDBPath
	default:
		return cfg.Database.Path
	}
}
