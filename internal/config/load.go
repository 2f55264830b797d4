package config

import (
	"errors"
	"fmt"
	"os"
)

// Load loads the configuration from path, or from DefaultPath when path is
// empty. A missing file yields Default(). A file that exists but cannot be
// read, parsed or validated is an error. Unset scalar settings are filled
// from the defaults and paths containing ~ are expanded.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			expandPaths(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	applyDefaults(cfg)
	expandPaths(cfg)
	return cfg, nil
}

// expandPaths expands ~ in every path field.
func expandPaths(cfg *Config) {
	cfg.Log.File = ExpandHome(cfg.Log.File)
	cfg.Log.Audit = ExpandHome(cfg.Log.Audit)
	cfg.Backend.Workdir = ExpandHome(cfg.Backend.Workdir)
	cfg.Backend.Container.Kubeconfig = ExpandHome(cfg.Backend.Container.Kubeconfig)
}
