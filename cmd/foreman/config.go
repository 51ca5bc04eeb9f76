package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/strataga/foreman/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify Foreman configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/foreman/config.yaml
Project-specific overrides can be placed in .foreman.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("anthropic.api_key: %s (%s)\n", config.MaskAPIKey(cfg.Anthropic.APIKey), config.GetAPIKeySource(cfg))
	fmt.Printf("anthropic.use_bedrock: %t\n", cfg.Anthropic.UseBedrock)
	fmt.Printf("anthropic.aws_region: %s\n", cfg.Anthropic.AWSRegion)
	fmt.Printf("anthropic.aws_profile: %s\n", cfg.Anthropic.AWSProfile)
	fmt.Printf("models.manager: %s\n", cfg.Models.Manager)
	fmt.Printf("models.worker: %s\n", cfg.Models.Worker)
	fmt.Printf("generation.manager_max_tokens: %d\n", cfg.Generation.ManagerMaxTokens)
	fmt.Printf("generation.worker_max_tokens: %d\n", cfg.Generation.WorkerMaxTokens)
	fmt.Printf("generation.manager_temperature: %g\n", cfg.Generation.ManagerTemperature)
	fmt.Printf("generation.worker_temperature: %g\n", cfg.Generation.WorkerTemperature)
	fmt.Printf("database.path: %s\n", cfg.Database.Path)
	fmt.Printf("prompts.overrides_path: %s\n", cfg.Prompts.OverridesPath)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "anthropic.use_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseBedrock), nil
	case "anthropic.aws_region":
		return cfg.Anthropic.AWSRegion, nil
	case "anthropic.aws_profile":
		return cfg.Anthropic.AWSProfile, nil
	case "models.manager":
		return cfg.Models.Manager, nil
	case "models.worker":
		return cfg.Models.Worker, nil
	case "generation.manager_max_tokens":
		return strconv.FormatInt(cfg.Generation.ManagerMaxTokens, 10), nil
	case "generation.worker_max_tokens":
		return strconv.FormatInt(cfg.Generation.WorkerMaxTokens, 10), nil
	case "generation.manager_temperature":
		return strconv.FormatFloat(cfg.Generation.ManagerTemperature, 'g', -1, 64), nil
	case "generation.worker_temperature":
		return strconv.FormatFloat(cfg.Generation.WorkerTemperature, 'g', -1, 64), nil
	case "database.path":
		return cfg.Database.Path, nil
	case "prompts.overrides_path":
		return cfg.Prompts.OverridesPath, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		if err := config.ValidateAPIKey(value); err != nil {
			return err
		}
		cfg.Anthropic.APIKey = value
	case "anthropic.use_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for use_bedrock: %w", err)
		}
		cfg.Anthropic.UseBedrock = b
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "anthropic.aws_profile":
		cfg.Anthropic.AWSProfile = value
	case "models.manager":
		cfg.Models.Manager = value
	case "models.worker":
		cfg.Models.Worker = value
	case "generation.manager_max_tokens":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid value for manager_max_tokens: %w", err)
		}
		cfg.Generation.ManagerMaxTokens = n
	case "generation.worker_max_tokens":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid value for worker_max_tokens: %w", err)
		}
		cfg.Generation.WorkerMaxTokens = n
	case "generation.manager_temperature":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid value for manager_temperature: %w", err)
		}
		cfg.Generation.ManagerTemperature = f
	case "generation.worker_temperature":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid value for worker_temperature: %w", err)
		}
		cfg.Generation.WorkerTemperature = f
	case "database.path":
		cfg.Database.Path = value
	case "prompts.overrides_path":
		cfg.Prompts.OverridesPath = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return cfg.Validate()
}
