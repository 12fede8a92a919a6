package config

import (
	"fmt"
	"strings"
)

const (
	defaultModel         = "claude-sonnet-4-5"
	defaultFallbackModel = "claude-haiku-4-5"
)

// Default configuration values exported for documentation and validation
const (
	DefaultModel      = defaultModel
	DefaultAuthMethod = "oauth"
	DefaultLogLevel   = "info"
	DefaultUpgradeURL = "https://quill.dev/upgrade"
)

// FallbackAction controls how a fallback away from a model is surfaced.
const (
	ActionSilent = "silent"
	ActionPrompt = "prompt"
)

// Config represents the complete Quill configuration
type Config struct {
	Models   ModelConfig    `yaml:"models"`
	Fallback FallbackConfig `yaml:"fallback"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ModelConfig defines model preferences
type ModelConfig struct {
	Default string   `yaml:"default"`
	Curated []string `yaml:"curated"`
}

// FallbackPolicyConfig is one entry of the ordered fallback chain.
type FallbackPolicyConfig struct {
	Model  string `yaml:"model"`
	Action string `yaml:"action"` // "silent" or "prompt"
}

// FallbackConfig defines the ordered fallback policy chain and related knobs.
type FallbackConfig struct {
	Chain      []FallbackPolicyConfig `yaml:"chain"`
	UpgradeURL string                 `yaml:"upgrade_url"`
}

// AuthConfig selects the authentication method for the hosted API.
type AuthConfig struct {
	Method string `yaml:"method"` // "oauth", "api-key", or "gateway"
}

// StorageConfig locates the on-disk settings database.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Models: ModelConfig{
			Default: defaultModel,
			Curated: []string{
				defaultModel,
				defaultFallbackModel,
				"claude-opus-4-1",
			},
		},
		Fallback: FallbackConfig{
			Chain: []FallbackPolicyConfig{
				{Model: defaultModel, Action: ActionPrompt},
				{Model: defaultFallbackModel, Action: ActionSilent},
			},
			UpgradeURL: DefaultUpgradeURL,
		},
		Auth: AuthConfig{
			Method: DefaultAuthMethod,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Models.Default) == "" {
		return fmt.Errorf("models.default must be set")
	}

	seen := make(map[string]bool, len(c.Fallback.Chain))
	for i, entry := range c.Fallback.Chain {
		model := strings.TrimSpace(entry.Model)
		if model == "" {
			return fmt.Errorf("fallback.chain[%d].model must be set", i)
		}
		if seen[model] {
			return fmt.Errorf("fallback.chain contains duplicate model %q", model)
		}
		seen[model] = true

		switch entry.Action {
		case ActionSilent, ActionPrompt:
		default:
			return fmt.Errorf("fallback.chain[%d].action must be %q or %q, got %q",
				i, ActionSilent, ActionPrompt, entry.Action)
		}
	}

	switch c.Auth.Method {
	case "oauth", "api-key", "gateway":
	default:
		return fmt.Errorf("auth.method must be oauth, api-key, or gateway, got %q", c.Auth.Method)
	}

	return nil
}
