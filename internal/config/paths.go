package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Dir returns the termrelay configuration directory.
// This is $XDG_CONFIG_HOME/termrelay, or ~/.config/termrelay when unset.
func Dir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = "~/.config"
	}
	return filepath.Join(ExpandHome(base), "termrelay")
}

// DefaultPath returns the default configuration file path.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// StateDir returns the directory for logs and other runtime state.
// This is $XDG_STATE_HOME/termrelay, or ~/.local/state/termrelay when unset.
func StateDir() string {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		base = "~/.local/state"
	}
	return filepath.Join(ExpandHome(base), "termrelay")
}

// ExpandHome replaces a leading ~ with the user's home directory.
// The path is returned unchanged if the home directory is unknown.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
}
