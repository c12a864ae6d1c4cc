package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"github.com/horasecreta/advisor/am"
	"github.com/horasecreta/advisor/version"
)

// printStartupBanner prints the operator-facing startup summary. It shows
// whether credentials are present, never their values.
func printStartupBanner(w io.Writer, cfg *am.Config, dbPath string) {
	info := version.Get()

	fmt.Fprintln(w, pterm.DefaultHeader.WithFullWidth().Sprint(version.ServiceName))

	ledger := dbPath
	if ledger == "" {
		ledger = "disabled"
	}

	rows := [][]string{
		{"Version", fmt.Sprintf("%s (commit %s)", info.Version, info.Short())},
		{"Listen", cfg.Address()},
		{"Chain", strings.Join(cfg.Advisor.ChainModels(), " → ")},
		{"Budget", fmt.Sprintf("%d ms", cfg.Advisor.ChainBudgetMS())},
		{"Service token", presence(cfg.Server.ServiceToken)},
		{"OpenAI key", presence(cfg.OpenAI.APIKey)},
		{"Anthropic key", presence(cfg.Anthropic.APIKey)},
		{"Usage ledger", ledger},
	}
	if table, err := pterm.DefaultTable.WithData(rows).Srender(); err == nil {
		fmt.Fprintln(w, table)
	}

	if cfg.Server.ServiceToken == "" {
		fmt.Fprint(w, pterm.Warning.Sprintln("SERVICE_TOKEN is not set: every /advisor call will answer 500"))
	}
	if cfg.Server.DebugAuth {
		fmt.Fprint(w, pterm.Warning.Sprintln("/debug-auth is enabled"))
	}
	fmt.Fprint(w, pterm.Info.Sprintln("Press Ctrl+C to stop"))
}

func presence(secret string) string {
	if secret == "" {
		return "missing"
	}
	return "set"
}
