package config

import (
	"reflect"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Listen != ":8000" {
		t.Errorf("Server.Listen = %q, want %q", cfg.Server.Listen, ":8000")
	}
	if !reflect.DeepEqual(cfg.Server.AllowedOrigins, []string{"*"}) {
		t.Errorf("Server.AllowedOrigins = %v, want [*]", cfg.Server.AllowedOrigins)
	}

	names := make(map[string]CommandEntry)
	for _, c := range cfg.Commands {
		names[c.Name] = c
	}
	if names["ping"].Run != "ping -c 5 8.8.8.8" {
		t.Errorf("ping = %+v, want run %q", names["ping"], "ping -c 5 8.8.8.8")
	}
	if want := []string{"python3", "visualiser.py", "1"}; !reflect.DeepEqual(names["visualise"].Args, want) {
		t.Errorf("visualise.Args = %v, want %v", names["visualise"].Args, want)
	}

	if !cfg.Backend.MergeStderr() {
		t.Error("MergeStderr() = false, want true by default")
	}
	if cfg.Backend.Container.Name != "tty-user-container" {
		t.Errorf("Container.Name = %q, want %q", cfg.Backend.Container.Name, "tty-user-container")
	}
}

func TestDefault_FreshCopies(t *testing.T) {
	a := Default()
	a.Deny[0] = "mutated"
	a.Commands[0].Name = "mutated"

	b := Default()
	if b.Deny[0] == "mutated" || b.Commands[0].Name == "mutated" {
		t.Error("Default() returned shared slices")
	}
}

func TestDefaultTemplate_MatchesDefault(t *testing.T) {
	parsed, err := Parse([]byte(defaultConfigTemplate))
	if err != nil {
		t.Fatalf("Parse(template) error = %v", err)
	}
	if err := Validate(parsed); err != nil {
		t.Fatalf("Validate(template) error = %v", err)
	}
	if !reflect.DeepEqual(parsed, Default()) {
		t.Errorf("template parses to %+v\nwant %+v", parsed, Default())
	}
}
