package am

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/horasecreta/advisor/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var globalConfig *Config
var viperInstance *viper.Viper

// Load reads the advisor configuration using Viper.
// The result is cached; call Reset to force a reload.
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	v := initViper()

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, err
	}

	globalConfig = config
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() *viper.Viper {
	return initViper()
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	normalize(&config)
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	// Set defaults but don't bind environment variables for this specific load
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load config from %s", configPath)
	}
	return config, nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set.
// Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return errors.Wrapf(err, "failed to load %s", path)
		}
	}
	return nil
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viperInstance = nil
}

// normalize trims values that commonly arrive with stray whitespace from env files.
func normalize(c *Config) {
	c.Server.ServiceToken = strings.TrimSpace(c.Server.ServiceToken)
	c.Server.TokenCompare = strings.ToLower(strings.TrimSpace(c.Server.TokenCompare))
	c.OpenAI.APIKey = strings.TrimSpace(c.OpenAI.APIKey)
	c.Anthropic.APIKey = strings.TrimSpace(c.Anthropic.APIKey)
	for i := range c.Advisor.Chain {
		entry := &c.Advisor.Chain[i]
		entry.Provider = strings.ToLower(strings.TrimSpace(entry.Provider))
		if entry.Provider == "" {
			entry.Provider = ProviderOpenAI
		}
		entry.Model = strings.TrimSpace(entry.Model)
	}
}

// initViper initializes Viper with configuration sources and defaults
func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()

	// Set up environment variable binding
	v.SetEnvPrefix("ADVISOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind specific sensitive configuration values to environment variables
	BindSensitiveEnvVars(v)

	// Set defaults first
	SetDefaults(v)

	// Merge configs in precedence order: system -> user -> project, env vars above all
	mergeConfigFiles(v, configPaths())

	viperInstance = v
	return v
}

// findProjectConfig searches for am.toml by walking up the directory tree.
// Returns the path to the first config file found, or empty string if none found
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		amPath := filepath.Join(dir, "am.toml")
		if _, err := os.Stat(amPath); err == nil {
			return amPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// ConfigPaths lists the config files that are merged, from lowest to
// highest precedence. Files that do not exist are skipped at load time.
func ConfigPaths() []string {
	return configPaths()
}

func configPaths() []string {
	paths := []string{"/etc/horasecreta/am.toml"}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".horasecreta", "am.toml"))
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		paths = append(paths, projectConfig)
	}
	return paths
}

// mergeConfigFiles merges configuration files in order.
// MergeConfigMap keeps file values below environment variables.
func mergeConfigFiles(v *viper.Viper, paths []string) {
	for _, configPath := range paths {
		if _, err := os.Stat(configPath); err != nil {
			continue
		}

		tempViper := viper.New()
		tempViper.SetConfigFile(configPath)
		tempViper.SetConfigType("toml")

		if err := tempViper.ReadInConfig(); err == nil {
			_ = v.MergeConfigMap(tempViper.AllSettings())
		}
	}
}

// Get returns a configuration value using dot notation
func Get(key string) interface{} {
	return initViper().Get(key)
}

// GetString returns a configuration value as string using dot notation
func GetString(key string) string {
	return initViper().GetString(key)
}
