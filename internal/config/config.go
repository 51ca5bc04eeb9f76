// Package config handles configuration loading and management for Foreman.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for Foreman.
type Config struct {
	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	Models     ModelsConfig     `mapstructure:"models"`
	Generation GenerationConfig `mapstructure:"generation"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Prompts    PromptsConfig    `mapstructure:"prompts"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	// UseBedrock routes calls through AWS Bedrock instead of the direct API.
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// ModelsConfig selects the models used by each agent role.
type ModelsConfig struct {
	// Manager is the model for analysis, team formation, decomposition,
	// and review calls.
	Manager string `mapstructure:"manager"`
	// Worker is the model for task execution calls.
	Worker string `mapstructure:"worker"`
}

// GenerationConfig holds sampling parameters per agent role.
type GenerationConfig struct {
	ManagerMaxTokens   int64   `mapstructure:"manager_max_tokens"`
	WorkerMaxTokens    int64   `mapstructure:"worker_max_tokens"`
	ManagerTemperature float64 `mapstructure:"manager_temperature"`
	WorkerTemperature  float64 `mapstructure:"worker_temperature"`
}

// DatabaseConfig holds state storage settings.
type DatabaseConfig struct {
	// Path is the SQLite database file. Empty means the XDG default
	// under ~/.local/share/foreman.
	Path string `mapstructure:"path"`
}

// PromptsConfig holds prompt template settings.
type PromptsConfig struct {
	// OverridesPath is a YAML file whose templates replace built-in
	// prompt bodies. Empty means built-ins only.
	OverridesPath string `mapstructure:"overrides_path"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY)
// 2. Project config (.foreman.yaml in current directory or parent)
// 3. User config (~/.config/foreman/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Project config takes precedence over the user config.
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("")
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("models.manager", "FOREMAN_MANAGER_MODEL", "FOREMAN_MODEL")
	v.BindEnv("models.worker", "FOREMAN_WORKER_MODEL", "FOREMAN_MODEL")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.use_bedrock", cfg.Anthropic.UseBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("models.manager", cfg.Models.Manager)
	v.Set("models.worker", cfg.Models.Worker)
	v.Set("generation.manager_max_tokens", cfg.Generation.ManagerMaxTokens)
	v.Set("generation.worker_max_tokens", cfg.Generation.WorkerMaxTokens)
	v.Set("generation.manager_temperature", cfg.Generation.ManagerTemperature)
	v.Set("generation.worker_temperature", cfg.Generation.WorkerTemperature)
	v.Set("database.path", cfg.Database.Path)
	v.Set("prompts.overrides_path", cfg.Prompts.OverridesPath)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.use_bedrock", false)
	v.SetDefault("anthropic.aws_region", "")
	v.SetDefault("anthropic.aws_profile", "")

	v.SetDefault("models.manager", "claude-sonnet-4-20250514")
	v.SetDefault("models.worker", "claude-sonnet-4-20250514")

	v.SetDefault("generation.manager_max_tokens", 4096)
	v.SetDefault("generation.worker_max_tokens", 8192)
	v.SetDefault("generation.manager_temperature", 0.3)
	v.SetDefault("generation.worker_temperature", 0.7)

	v.SetDefault("database.path", "")
	v.SetDefault("prompts.overrides_path", "")
}

// getUserConfigDir returns the XDG config directory for Foreman.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "foreman")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "foreman")
	}
	return filepath.Join(home, ".config", "foreman")
}

// findProjectConfig searches for .foreman.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".foreman.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			APIKey: "",
		},
		Models: ModelsConfig{
			Manager: "claude-sonnet-4-20250514",
			Worker:  "claude-sonnet-4-20250514",
		},
		Generation: GenerationConfig{
			ManagerMaxTokens:   4096,
			WorkerMaxTokens:    8192,
			ManagerTemperature: 0.3,
			WorkerTemperature:  0.7,
		},
	}
}

// Validate checks that the loaded configuration is usable.
func (c *Config) Validate() error {
	if c.Models.Manager == "" {
		return fmt.Errorf("models.manager must not be empty")
	}
	if c.Models.Worker == "" {
		return fmt.Errorf("models.worker must not be empty")
	}
	if c.Generation.ManagerMaxTokens <= 0 {
		return fmt.Errorf("generation.manager_max_tokens must be positive, got %d", c.Generation.ManagerMaxTokens)
	}
	if c.Generation.WorkerMaxTokens <= 0 {
		return fmt.Errorf("generation.worker_max_tokens must be positive, got %d", c.Generation.WorkerMaxTokens)
	}
	if c.Generation.ManagerTemperature < 0 || c.Generation.ManagerTemperature > 1 {
		return fmt.Errorf("generation.manager_temperature must be in [0, 1], got %v", c.Generation.ManagerTemperature)
	}
	if c.Generation.WorkerTemperature < 0 || c.Generation.WorkerTemperature > 1 {
		return fmt.Errorf("generation.worker_temperature must be in [0, 1], got %v", c.Generation.WorkerTemperature)
	}
	if c.Anthropic.UseBedrock && c.Anthropic.AWSRegion == "" {
		return fmt.Errorf("anthropic.aws_region is required when anthropic.use_bedrock is set")
	}
	return nil
}
