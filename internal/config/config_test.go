package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Models.Manager != "claude-sonnet-4-20250514" {
		t.Errorf("expected default manager model 'claude-sonnet-4-20250514', got %q", cfg.Models.Manager)
	}

	if cfg.Models.Worker != "claude-sonnet-4-20250514" {
		t.Errorf("expected default worker model 'claude-sonnet-4-20250514', got %q", cfg.Models.Worker)
	}

	if cfg.Generation.ManagerMaxTokens != 4096 {
		t.Errorf("expected manager max tokens 4096, got %d", cfg.Generation.ManagerMaxTokens)
	}

	if cfg.Generation.WorkerMaxTokens != 8192 {
		t.Errorf("expected worker max tokens 8192, got %d", cfg.Generation.WorkerMaxTokens)
	}

	if cfg.Generation.ManagerTemperature != 0.3 {
		t.Errorf("expected manager temperature 0.3, got %v", cfg.Generation.ManagerTemperature)
	}

	if cfg.Generation.WorkerTemperature != 0.7 {
		t.Errorf("expected worker temperature 0.7, got %v", cfg.Generation.WorkerTemperature)
	}

	if cfg.Anthropic.UseBedrock {
		t.Error("expected use_bedrock to default to false")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default() config failed validation: %v", err)
	}
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
anthropic:
  api_key: test-key
models:
  manager: claude-opus-4-5-20251101
  worker: claude-3-5-haiku-20241022
generation:
  manager_max_tokens: 2048
  worker_max_tokens: 16384
  manager_temperature: 0.1
  worker_temperature: 0.9
database:
  path: /tmp/foreman-test.db
prompts:
  overrides_path: /tmp/prompts
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Anthropic.APIKey != "test-key" {
		t.Errorf("expected api_key 'test-key', got %q", cfg.Anthropic.APIKey)
	}

	if cfg.Models.Manager != "claude-opus-4-5-20251101" {
		t.Errorf("expected manager model 'claude-opus-4-5-20251101', got %q", cfg.Models.Manager)
	}

	if cfg.Models.Worker != "claude-3-5-haiku-20241022" {
		t.Errorf("expected worker model 'claude-3-5-haiku-20241022', got %q", cfg.Models.Worker)
	}

	if cfg.Generation.ManagerMaxTokens != 2048 {
		t.Errorf("expected manager max tokens 2048, got %d", cfg.Generation.ManagerMaxTokens)
	}

	if cfg.Generation.WorkerMaxTokens != 16384 {
		t.Errorf("expected worker max tokens 16384, got %d", cfg.Generation.WorkerMaxTokens)
	}

	if cfg.Generation.WorkerTemperature != 0.9 {
		t.Errorf("expected worker temperature 0.9, got %v", cfg.Generation.WorkerTemperature)
	}

	if cfg.Database.Path != "/tmp/foreman-test.db" {
		t.Errorf("expected database path '/tmp/foreman-test.db', got %q", cfg.Database.Path)
	}

	if cfg.Prompts.OverridesPath != "/tmp/prompts" {
		t.Errorf("expected overrides path '/tmp/prompts', got %q", cfg.Prompts.OverridesPath)
	}
}

func TestLoadFromPathKeepsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Partial config: unset keys fall back to defaults.
	configContent := `
anthropic:
  api_key: partial-key
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Anthropic.APIKey != "partial-key" {
		t.Errorf("expected api_key 'partial-key', got %q", cfg.Anthropic.APIKey)
	}
	if cfg.Models.Manager != "claude-sonnet-4-20250514" {
		t.Errorf("expected default manager model, got %q", cfg.Models.Manager)
	}
	if cfg.Generation.WorkerMaxTokens != 8192 {
		t.Errorf("expected default worker max tokens 8192, got %d", cfg.Generation.WorkerMaxTokens)
	}
}

func TestExpandEnv(t *testing.T) {
	os.Setenv("TEST_VAR", "expanded-value")
	defer os.Unsetenv("TEST_VAR")

	result := expandEnv("${TEST_VAR}")
	if result != "expanded-value" {
		t.Errorf("expected 'expanded-value', got %q", result)
	}

	result = expandEnv("prefix-${TEST_VAR}-suffix")
	if result != "prefix-expanded-value-suffix" {
		t.Errorf("expected 'prefix-expanded-value-suffix', got %q", result)
	}
}

func TestLoadFromPathExpandsAPIKey(t *testing.T) {
	os.Setenv("FOREMAN_TEST_KEY", "sk-from-env")
	defer os.Unsetenv("FOREMAN_TEST_KEY")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	configContent := `
anthropic:
  api_key: ${FOREMAN_TEST_KEY}
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Anthropic.APIKey != "sk-from-env" {
		t.Errorf("expected api_key 'sk-from-env', got %q", cfg.Anthropic.APIKey)
	}
}

func TestGetUserConfigDir(t *testing.T) {
	os.Setenv("XDG_CONFIG_HOME", "/custom/config")
	defer os.Unsetenv("XDG_CONFIG_HOME")

	dir := getUserConfigDir()
	expected := "/custom/config/foreman"
	if dir != expected {
		t.Errorf("expected %q, got %q", expected, dir)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"empty manager model", func(c *Config) { c.Models.Manager = "" }, true},
		{"empty worker model", func(c *Config) { c.Models.Worker = "" }, true},
		{"zero manager max tokens", func(c *Config) { c.Generation.ManagerMaxTokens = 0 }, true},
		{"negative worker max tokens", func(c *Config) { c.Generation.WorkerMaxTokens = -1 }, true},
		{"manager temperature above one", func(c *Config) { c.Generation.ManagerTemperature = 1.5 }, true},
		{"negative worker temperature", func(c *Config) { c.Generation.WorkerTemperature = -0.1 }, true},
		{"bedrock without region", func(c *Config) { c.Anthropic.UseBedrock = true }, true},
		{"bedrock with region", func(c *Config) {
			c.Anthropic.UseBedrock = true
			c.Anthropic.AWSRegion = "us-west-2"
		}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Error("Validate() = nil, want error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}
