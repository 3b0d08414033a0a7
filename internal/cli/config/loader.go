package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".zkmesh", "cli.yaml")
	}
	return filepath.Join(homeDir, ".zkmesh", "cli.yaml")
}

// DefaultHistoryPath returns the default shell history file path.
func DefaultHistoryPath() string {
	return filepath.Join(filepath.Dir(DefaultConfigPath()), "history")
}

// Load loads CLI configuration from path. A missing file yields defaults.
func Load(path string) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]Profile)
	}
	if cfg.DefaultTimeout < 0 {
		return nil, fmt.Errorf("parse %s: negative default_timeout", path)
	}
	if cfg.CurrentProfile != "" {
		if _, ok := cfg.Profiles[cfg.CurrentProfile]; !ok {
			return nil, fmt.Errorf("parse %s: current_profile %q is not defined", path, cfg.CurrentProfile)
		}
	}
	return cfg, nil
}

// Save writes cfg to path with owner-only permissions, since profiles may
// carry credentials.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
