package cmd

import (
	"context"
	"strings"
	"testing"

	"github.com/xdg/termrelay/internal/clog"
	"github.com/xdg/termrelay/internal/config"
)

func TestBuildBackend(t *testing.T) {
	clog.Discard()
	t.Cleanup(clog.Reset)

	tests := []struct {
		name     string
		cfg      config.BackendConfig
		wantName string
		wantErr  string
	}{
		{"default is local", config.BackendConfig{}, "local", ""},
		{"local", config.BackendConfig{Kind: config.BackendLocal}, "local", ""},
		{"unknown kind", config.BackendConfig{Kind: "vm"}, "", "backend.kind"},
		{
			"unknown runtime",
			config.BackendConfig{Kind: config.BackendContainer, Container: config.ContainerConfig{Runtime: "podman", Name: "x"}},
			"", "backend.container.runtime",
		},
		{
			"docker without name",
			config.BackendConfig{Kind: config.BackendContainer, Container: config.ContainerConfig{Runtime: config.RuntimeDocker}},
			"", "container name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := buildBackend(context.Background(), tt.cfg)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want it to contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("buildBackend() error = %v", err)
			}
			if b.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", b.Name(), tt.wantName)
			}
		})
	}
}
