package am

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolatedViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadWithViper(isolatedViper(t))
	require.NoError(t, err)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, TokenCompareExact, cfg.Server.TokenCompare)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.Server.DebugAuth)
	assert.Equal(t, int64(DefaultMaxBodyBytes), cfg.Server.MaxBodyBytes)
	assert.Equal(t, 5, cfg.Advisor.MinMessageChars)
	assert.Equal(t, 2000, cfg.Advisor.MaxMessageChars)
	assert.Equal(t, "advisor.db", cfg.Database.Path)
	assert.Equal(t, DefaultChain(), cfg.Advisor.Chain)
	assert.Equal(t, []string{"gpt-4o-mini", "gpt-4.1-mini", "gpt-3.5-turbo"}, cfg.Advisor.ChainModels())
	assert.Equal(t, 32000, cfg.Advisor.ChainBudgetMS())

	require.NoError(t, cfg.Validate())
}

func TestBindSensitiveEnvVars_ServiceTokenFallback(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"primary name", map[string]string{"SERVICE_TOKEN": "a", "HS_AI_TOKEN": "b", "API_TOKEN": "c"}, "a"},
		{"second name", map[string]string{"HS_AI_TOKEN": "b", "API_TOKEN": "c"}, "b"},
		{"empty primary skipped", map[string]string{"SERVICE_TOKEN": "", "API_TOKEN": "c"}, "c"},
		{"trimmed", map[string]string{"SERVICE_TOKEN": "  tok  "}, "tok"},
		{"none", map[string]string{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, name := range []string{"ADVISOR_SERVER_SERVICE_TOKEN", "SERVICE_TOKEN", "HS_AI_TOKEN", "API_TOKEN"} {
				t.Setenv(name, "")
			}
			for k, val := range tt.env {
				t.Setenv(k, val)
			}

			v := isolatedViper(t)
			BindSensitiveEnvVars(v)
			cfg, err := LoadWithViper(v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Server.ServiceToken)
		})
	}
}

func TestBindSensitiveEnvVars_PortAndKeys(t *testing.T) {
	t.Setenv("ADVISOR_SERVER_PORT", "")
	t.Setenv("PORT", "8080")
	t.Setenv("OPENAI_API_KEY", " sk-test ")
	t.Setenv("ANTHROPIC_API_KEY", "ak-test")

	v := isolatedViper(t)
	BindSensitiveEnvVars(v)
	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "ak-test", cfg.Anthropic.APIKey)
}

func TestLoadFromFile_Chain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "am.toml")
	content := `
[server]
port = 8181
debug_auth = true

[advisor]
min_message_chars = 3

[[advisor.chain]]
provider = "anthropic"
model = "claude-3-5-haiku-latest"
timeout_ms = 9000
max_tokens = 800

[[advisor.chain]]
model = "gpt-4o-mini"
timeout_ms = 5000
max_tokens = 600
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 8181, cfg.Server.Port)
	assert.True(t, cfg.Server.DebugAuth)
	assert.Equal(t, 3, cfg.Advisor.MinMessageChars)
	assert.Equal(t, 2000, cfg.Advisor.MaxMessageChars)
	require.Len(t, cfg.Advisor.Chain, 2)
	assert.Equal(t, ModelAttemptConfig{Provider: ProviderAnthropic, Model: "claude-3-5-haiku-latest", TimeoutMS: 9000, MaxTokens: 800}, cfg.Advisor.Chain[0])
	assert.Equal(t, ProviderOpenAI, cfg.Advisor.Chain[1].Provider, "missing provider defaults to openai")
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestMergeConfigFiles_Precedence(t *testing.T) {
	dir := t.TempDir()
	system := filepath.Join(dir, "system.toml")
	project := filepath.Join(dir, "project.toml")
	require.NoError(t, os.WriteFile(system, []byte("[server]\nport = 4000\ndebug_auth = true\n"), 0600))
	require.NoError(t, os.WriteFile(project, []byte("[server]\nport = 5000\n"), 0600))

	v := isolatedViper(t)
	mergeConfigFiles(v, []string{system, filepath.Join(dir, "missing.toml"), project})

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.True(t, cfg.Server.DebugAuth)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("ADVISOR_TEST_DOTENV=from-file\n"), 0600))
	t.Setenv("ADVISOR_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("ADVISOR_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv("ADVISOR_TEST_DOTENV"))
}

func TestConfig_StringHidesSecrets(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Port: 3000, ServiceToken: "super-secret"}}
	assert.NotContains(t, cfg.String(), "super-secret")
	assert.Contains(t, cfg.String(), "ServiceToken: true")
}

func TestConfig_Redacted(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{ServiceToken: "super-secret", AllowedOrigins: []string{"*"}},
		OpenAI:  OpenAIConfig{APIKey: "sk-live"},
		Advisor: AdvisorConfig{Chain: DefaultChain()},
	}

	r := cfg.Redacted()
	assert.Equal(t, RedactedValue, r.Server.ServiceToken)
	assert.Equal(t, RedactedValue, r.OpenAI.APIKey)
	assert.Empty(t, r.Anthropic.APIKey)

	r.Advisor.Chain[0].Model = "changed"
	assert.Equal(t, "gpt-4o-mini", cfg.Advisor.Chain[0].Model)
	assert.Equal(t, "super-secret", cfg.Server.ServiceToken)
}
