package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/horasecreta/advisor/am"
	"github.com/horasecreta/advisor/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Show and validate configuration",
	Long: `Display and validate the advisor configuration.

Configuration sources (later overrides earlier):
1. Default values
2. System config (/etc/horasecreta/am.toml)
3. User config (~/.horasecreta/am.toml)
4. Project config (./am.toml, searched upwards)
5. Environment variables (ADVISOR_* prefix, plus SERVICE_TOKEN,
   HS_AI_TOKEN, API_TOKEN, OPENAI_API_KEY, ANTHROPIC_API_KEY, PORT)

Examples:
  advisor am show                    # Show current configuration
  advisor am show --format json      # Show configuration in JSON format
  advisor am get server.port         # Get specific config value
  advisor am validate                # Validate current configuration`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration (secrets masked)",
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., server.port, database.path)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runAmValidate,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show which configuration files are merged",
	RunE:  runAmWhere,
}

var configFormat string

// secretKeys are never printed by 'am get'
var secretKeys = map[string]bool{
	"server.service_token": true,
	"openai.api_key":       true,
	"anthropic.api_key":    true,
}

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	redacted := cfg.Redacted()
	out := cmd.OutOrStdout()

	switch configFormat {
	case "json":
		data, err := json.MarshalIndent(redacted, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to JSON")
		}
		fmt.Fprintln(out, string(data))

	case "yaml":
		data, err := yaml.Marshal(redacted)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		fmt.Fprintf(out, "# advisor configuration\n%s", string(data))

	case "toml":
		data, err := toml.Marshal(redacted)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to TOML")
		}
		fmt.Fprintf(out, "# advisor configuration\n%s", string(data))

	default:
		return errors.Newf("unsupported format: %s (supported: toml, json, yaml)", configFormat)
	}

	return nil
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	v := am.GetViper()
	if !v.IsSet(key) {
		return errors.Newf("configuration key %q not found", key)
	}

	if secretKeys[key] {
		if v.GetString(key) == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), am.RedactedValue)
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), am.Get(key))
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	if err := cfg.Validate(); err != nil {
		if hints := errors.FlattenHints(err); hints != "" {
			return errors.Newf("configuration validation failed: %v\nhint: %s", err, hints)
		}
		return errors.Wrap(err, "configuration validation failed")
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration is valid")
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configuration cascade (later overrides earlier):")
	fmt.Fprintln(out, "  [DEFAULT]  Built-in defaults")
	for _, path := range am.ConfigPaths() {
		status := "missing"
		if _, err := os.Stat(path); err == nil {
			status = "loaded"
		}
		fmt.Fprintf(out, "  [FILE]     %s (%s)\n", path, status)
	}
	fmt.Fprintln(out, "  [ENV]      ADVISOR_* and legacy variables")
	return nil
}
