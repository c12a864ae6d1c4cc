package am

import (
	"fmt"

	"github.com/spf13/viper"
)

// DefaultChain is the fallback chain used when advisor.chain is not configured
func DefaultChain() []ModelAttemptConfig {
	return []ModelAttemptConfig{
		{Provider: ProviderOpenAI, Model: "gpt-4o-mini", TimeoutMS: 12000, MaxTokens: 900},
		{Provider: ProviderOpenAI, Model: "gpt-4.1-mini", TimeoutMS: 12000, MaxTokens: 900},
		{Provider: ProviderOpenAI, Model: "gpt-3.5-turbo", TimeoutMS: 8000, MaxTokens: 700},
	}
}

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.token_compare", TokenCompareExact)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.debug_auth", false)
	v.SetDefault("server.max_body_bytes", DefaultMaxBodyBytes)
	v.SetDefault("server.read_timeout_seconds", 10)
	v.SetDefault("server.write_timeout_seconds", 45) // default chain budget is 32s
	v.SetDefault("server.shutdown_timeout_seconds", 10)

	// Advisor defaults
	v.SetDefault("advisor.min_message_chars", 5)
	v.SetDefault("advisor.max_message_chars", 2000)
	v.SetDefault("advisor.chain", chainAsMaps(DefaultChain()))

	// Provider defaults
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("anthropic.base_url", "")

	// Usage ledger
	v.SetDefault("database.path", "advisor.db")

	// Logging
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}

// BindSensitiveEnvVars explicitly binds sensitive configuration to environment variables.
// For keys bound to several names, the first non-empty variable wins.
func BindSensitiveEnvVars(v *viper.Viper) {
	v.BindEnv("server.service_token", "ADVISOR_SERVER_SERVICE_TOKEN", "SERVICE_TOKEN", "HS_AI_TOKEN", "API_TOKEN")
	v.BindEnv("server.port", "ADVISOR_SERVER_PORT", "PORT")

	v.BindEnv("openai.api_key", "ADVISOR_OPENAI_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("anthropic.api_key", "ADVISOR_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")

	v.BindEnv("database.path", "ADVISOR_DATABASE_PATH")
}

func chainAsMaps(chain []ModelAttemptConfig) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(chain))
	for _, entry := range chain {
		out = append(out, map[string]interface{}{
			"provider":   entry.Provider,
			"model":      entry.Model,
			"timeout_ms": entry.TimeoutMS,
			"max_tokens": entry.MaxTokens,
		})
	}
	return out
}

// Address returns the listen address for the HTTP server
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetServerAllowedOrigins returns the allowed CORS origins (default: any)
func (c *Config) GetServerAllowedOrigins() []string {
	if len(c.Server.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	return c.Server.AllowedOrigins
}

// GetMaxBodyBytes returns the request body limit, falling back to 1 MiB
func (c *Config) GetMaxBodyBytes() int64 {
	if c.Server.MaxBodyBytes <= 0 {
		return DefaultMaxBodyBytes
	}
	return c.Server.MaxBodyBytes
}

// String returns a string representation of the config without secrets
func (c *Config) String() string {
	return fmt.Sprintf("Config{Server: {Port: %d, ServiceToken: %t}, Chain: %v, Database: %s}",
		c.Server.Port, c.Server.ServiceToken != "", c.Advisor.ChainModels(), c.Database.Path)
}
