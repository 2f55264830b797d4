package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// WriteDefault writes the commented default configuration to path, or to
// DefaultPath when path is empty. An existing file is never overwritten:
// it returns nil without writing. Parent directories are created with 0700
// and the file is written with 0600.
func WriteDefault(path string) error {
	if path == "" {
		path = DefaultPath()
	}

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0o600); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}
