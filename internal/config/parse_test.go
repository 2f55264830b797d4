package config

import (
	"strings"
	"testing"
)

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) error = %v", err)
	}
	if cfg.Server.Listen != "" || cfg.Commands != nil {
		t.Errorf("Parse(nil) = %+v, want zero value", cfg)
	}
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("server:\n  lisen: \":8000\"\n"))
	if err == nil {
		t.Fatal("Parse() error = nil, want unknown field error")
	}
	if !strings.Contains(err.Error(), "lisen") {
		t.Errorf("Parse() error = %v, want it to name the field", err)
	}
}

func TestParse_TypeMismatch(t *testing.T) {
	if _, err := Parse([]byte("commands: ping\n")); err == nil {
		t.Error("Parse() error = nil, want type mismatch error")
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	data, err := Marshal(Default())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(Marshal()) error = %v", err)
	}
	if cfg.Backend.Container.Name != "tty-user-container" {
		t.Errorf("round trip lost container name: %+v", cfg.Backend.Container)
	}
	if len(cfg.Commands) != 2 {
		t.Errorf("round trip lost commands: %+v", cfg.Commands)
	}
}
