package am

// Config represents the advisor gateway configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server" json:"server" yaml:"server" toml:"server"`
	Advisor   AdvisorConfig   `mapstructure:"advisor" json:"advisor" yaml:"advisor" toml:"advisor"`
	OpenAI    OpenAIConfig    `mapstructure:"openai" json:"openai" yaml:"openai" toml:"openai"`
	Anthropic AnthropicConfig `mapstructure:"anthropic" json:"anthropic" yaml:"anthropic" toml:"anthropic"`
	Database  DatabaseConfig  `mapstructure:"database" json:"database" yaml:"database" toml:"database"`
	Log       LogConfig       `mapstructure:"log" json:"log" yaml:"log" toml:"log"`
}

// ServerConfig configures the HTTP surface and caller authentication
type ServerConfig struct {
	Host                   string   `mapstructure:"host" json:"host" yaml:"host" toml:"host"`
	Port                   int      `mapstructure:"port" json:"port" yaml:"port" toml:"port"`
	ServiceToken           string   `mapstructure:"service_token" json:"service_token" yaml:"service_token" toml:"service_token"` // shared secret; empty = every /advisor call is 500
	TokenCompare           string   `mapstructure:"token_compare" json:"token_compare" yaml:"token_compare" toml:"token_compare"` // exact, constant_time
	AllowedOrigins         []string `mapstructure:"allowed_origins" json:"allowed_origins" yaml:"allowed_origins" toml:"allowed_origins"`
	DebugAuth              bool     `mapstructure:"debug_auth" json:"debug_auth" yaml:"debug_auth" toml:"debug_auth"` // expose /debug-auth (lengths only)
	MaxBodyBytes           int64    `mapstructure:"max_body_bytes" json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	ReadTimeoutSeconds     int      `mapstructure:"read_timeout_seconds" json:"read_timeout_seconds" yaml:"read_timeout_seconds" toml:"read_timeout_seconds"`
	WriteTimeoutSeconds    int      `mapstructure:"write_timeout_seconds" json:"write_timeout_seconds" yaml:"write_timeout_seconds" toml:"write_timeout_seconds"` // must cover the whole chain
	ShutdownTimeoutSeconds int      `mapstructure:"shutdown_timeout_seconds" json:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds" toml:"shutdown_timeout_seconds"`
}

// AdvisorConfig configures validation bounds and the fallback chain
type AdvisorConfig struct {
	MinMessageChars int                  `mapstructure:"min_message_chars" json:"min_message_chars" yaml:"min_message_chars" toml:"min_message_chars"`
	MaxMessageChars int                  `mapstructure:"max_message_chars" json:"max_message_chars" yaml:"max_message_chars" toml:"max_message_chars"`
	Chain           []ModelAttemptConfig `mapstructure:"chain" json:"chain" yaml:"chain" toml:"chain"` // tried in order, first non-empty answer wins
}

// ModelAttemptConfig is one entry of the fallback chain
type ModelAttemptConfig struct {
	Provider  string `mapstructure:"provider" json:"provider" yaml:"provider" toml:"provider"`
	Model     string `mapstructure:"model" json:"model" yaml:"model" toml:"model"`
	TimeoutMS int    `mapstructure:"timeout_ms" json:"timeout_ms" yaml:"timeout_ms" toml:"timeout_ms"`
	MaxTokens int    `mapstructure:"max_tokens" json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
}

// OpenAIConfig configures OpenAI chat-completions access
type OpenAIConfig struct {
	APIKey      string   `mapstructure:"api_key" json:"api_key" yaml:"api_key" toml:"api_key"`
	BaseURL     string   `mapstructure:"base_url" json:"base_url" yaml:"base_url" toml:"base_url"`
	Temperature *float64 `mapstructure:"temperature" json:"temperature,omitempty" yaml:"temperature,omitempty" toml:"temperature,omitempty"` // nil = provider default
}

// AnthropicConfig configures Anthropic Messages API access
type AnthropicConfig struct {
	APIKey  string `mapstructure:"api_key" json:"api_key" yaml:"api_key" toml:"api_key"`
	BaseURL string `mapstructure:"base_url" json:"base_url" yaml:"base_url" toml:"base_url"` // empty = SDK default
}

// DatabaseConfig configures the SQLite usage ledger
type DatabaseConfig struct {
	Path string `mapstructure:"path" json:"path" yaml:"path" toml:"path"` // empty disables the ledger
}

// LogConfig configures the process logger
type LogConfig struct {
	Level string `mapstructure:"level" json:"level" yaml:"level" toml:"level"` // debug, info, warn, error
	JSON  bool   `mapstructure:"json" json:"json" yaml:"json" toml:"json"`
}

// Provider names accepted in advisor.chain
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Token comparison strategies
const (
	TokenCompareExact        = "exact"
	TokenCompareConstantTime = "constant_time"
)

// Server defaults
const (
	DefaultServerPort   = 3000
	DefaultMaxBodyBytes = 1 << 20 // 1 MiB
)

// File system constants
const (
	DefaultDirPermissions = 0755 // Standard directory permissions (rwxr-xr-x)
)

// ChainBudgetMS is the worst-case wall time of the chain: the sum of its timeouts.
func (a AdvisorConfig) ChainBudgetMS() int {
	total := 0
	for _, entry := range a.Chain {
		total += entry.TimeoutMS
	}
	return total
}

// ChainModels lists the model ids of the chain in order.
func (a AdvisorConfig) ChainModels() []string {
	models := make([]string, 0, len(a.Chain))
	for _, entry := range a.Chain {
		models = append(models, entry.Model)
	}
	return models
}

// RedactedValue replaces secrets in Redacted output
const RedactedValue = "********"

// Redacted returns a copy of the config with every credential masked.
// Unset credentials stay empty so operators can tell them apart.
func (c *Config) Redacted() Config {
	out := *c
	out.Server.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	out.Advisor.Chain = append([]ModelAttemptConfig(nil), c.Advisor.Chain...)
	for _, secret := range []*string{&out.Server.ServiceToken, &out.OpenAI.APIKey, &out.Anthropic.APIKey} {
		if *secret != "" {
			*secret = RedactedValue
		}
	}
	return out
}
