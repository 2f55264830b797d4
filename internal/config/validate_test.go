package config

import (
	"strings"
	"testing"
)

func TestValidate_Default(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Errorf("Validate(Default()) error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"listen missing colon", func(c *Config) { c.Server.Listen = "8000" }, "server.listen"},
		{"listen port out of range", func(c *Config) { c.Server.Listen = ":70000" }, "must be 1-65535"},
		{"listen host and port", func(c *Config) { c.Server.Listen = "127.0.0.1:8000" }, ""},
		{"relative path", func(c *Config) { c.Server.Path = "api" }, "server.path"},
		{"bad shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = "soon" }, "server.shutdown_timeout"},
		{"negative grace", func(c *Config) { c.Backend.GracePeriod = "-1s" }, "must be positive"},
		{"command without name", func(c *Config) {
			c.Commands = append(c.Commands, CommandEntry{Run: "true"})
		}, "commands[2].name: required"},
		{"command name padded", func(c *Config) {
			c.Commands = append(c.Commands, CommandEntry{Name: " ping2", Run: "true"})
		}, "whitespace"},
		{"duplicate command", func(c *Config) {
			c.Commands = append(c.Commands, CommandEntry{Name: "ping", Run: "true"})
		}, "duplicate command"},
		{"run and args", func(c *Config) {
			c.Commands = []CommandEntry{{Name: "x", Run: "true", Args: []string{"true"}}}
		}, "not both"},
		{"neither run nor args", func(c *Config) {
			c.Commands = []CommandEntry{{Name: "x"}}
		}, "one of run or args"},
		{"empty program", func(c *Config) {
			c.Commands = []CommandEntry{{Name: "x", Args: []string{"", "a"}}}
		}, "args[0]"},
		{"blank deny token", func(c *Config) { c.Deny = []string{"rm", " "} }, "deny[1]"},
		{"unknown stderr", func(c *Config) { c.Backend.Stderr = "file" }, "backend.stderr"},
		{"unknown runtime", func(c *Config) { c.Backend.Container.Runtime = "podman" }, "backend.container.runtime"},
		{"container without name", func(c *Config) {
			c.Backend.Kind = BackendContainer
			c.Backend.Container.Name = ""
		}, "backend.container.name"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"empty allow-list", func(c *Config) { c.Commands = nil }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
