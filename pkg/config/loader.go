package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	quillerrors "github.com/odvcencio/quill/pkg/errors"
)

// Environment variables honored by the loader.
const (
	EnvConfigPath   = "QUILL_CONFIG"
	EnvDefaultModel = "QUILL_DEFAULT_MODEL"
	EnvAuthMethod   = "QUILL_AUTH_METHOD"
	EnvLogLevel     = "QUILL_LOG_LEVEL"
)

// Load builds the configuration: defaults, then the user config file, then the
// workspace config file, then environment overrides. Missing files are fine.
func Load(workspaceDir string) (*Config, error) {
	cfg := DefaultConfig()

	paths := candidatePaths(workspaceDir)
	for _, path := range paths {
		if err := loadAndMerge(cfg, path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, quillerrors.Wrap(err, quillerrors.ErrCodeConfigLoad,
				fmt.Sprintf("loading %s", path))
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, quillerrors.Wrap(err, quillerrors.ErrCodeConfigInvalid, "invalid configuration")
	}
	return cfg, nil
}

// candidatePaths returns config file paths in merge order (lowest precedence
// first). An explicit QUILL_CONFIG path replaces the whole list.
func candidatePaths(workspaceDir string) []string {
	if explicit := os.Getenv(EnvConfigPath); explicit != "" {
		return []string{explicit}
	}

	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".quill", "config.yaml"))
	}
	if workspaceDir != "" {
		paths = append(paths, filepath.Join(workspaceDir, ".quill.yaml"))
	}
	return paths
}

// loadAndMerge loads a YAML file and merges it into the config.
func loadAndMerge(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var override Config
	if err := yaml.Unmarshal(data, &override); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}

	mergeConfigs(cfg, &override)
	return nil
}

// mergeConfigs merges override into base. Scalar fields replace when set;
// the fallback chain replaces wholesale because its order is load-bearing.
func mergeConfigs(base, override *Config) {
	if override == nil {
		return
	}

	if override.Models.Default != "" {
		base.Models.Default = override.Models.Default
	}
	if len(override.Models.Curated) > 0 {
		base.Models.Curated = override.Models.Curated
	}
	if len(override.Fallback.Chain) > 0 {
		base.Fallback.Chain = override.Fallback.Chain
	}
	if override.Fallback.UpgradeURL != "" {
		base.Fallback.UpgradeURL = override.Fallback.UpgradeURL
	}
	if override.Auth.Method != "" {
		base.Auth.Method = override.Auth.Method
	}
	if override.Storage.Path != "" {
		base.Storage.Path = override.Storage.Path
	}
	if override.Logging.Dir != "" {
		base.Logging.Dir = override.Logging.Dir
	}
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
}

func applyEnvOverrides(cfg *Config) {
	if model := os.Getenv(EnvDefaultModel); model != "" {
		cfg.Models.Default = model
	}
	if method := os.Getenv(EnvAuthMethod); method != "" {
		cfg.Auth.Method = method
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.Logging.Level = level
	}
}
