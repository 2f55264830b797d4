package cmd

import (
	"strings"
	"testing"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		wantCode int
		want     []string
	}{
		{"simple command", "args", 0, []string{"args: allowed", `argv:  ["echo" "two words"]`}},
		{"shell line", "shout", 0, []string{"shout: allowed", "shell: /bin/sh -c", "echo hi | tr a-z A-Z"}},
		{"unknown", "nope", ExitRejected, []string{"nope: rejected (unknown command)"}},
		{"deny-listed", "wipe", ExitRejected, []string{"wipe: rejected (deny-listed token rm)"}},
		{"empty", " ", 0, []string{"nothing would run"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, testConfig)
			out, err := execute(t, "--config", path, "check", tt.id)
			if code := exitCode(err); code != tt.wantCode {
				t.Fatalf("exit code = %d (%v), want %d", code, err, tt.wantCode)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestCommands(t *testing.T) {
	path := writeConfig(t, testConfig)

	out, err := execute(t, "--config", path, "commands")
	if err != nil {
		t.Fatalf("commands: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want header + 4:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "NAME") {
		t.Errorf("header = %q", lines[0])
	}
	// sorted by name
	for i, name := range []string{"args", "hello", "shout", "wipe"} {
		if !strings.HasPrefix(lines[i+1], name) {
			t.Errorf("line %d = %q, want %s first", i+1, lines[i+1], name)
		}
	}
	if !strings.Contains(lines[4], "rejected: deny-listed token rm") {
		t.Errorf("wipe line = %q, want rejected status", lines[4])
	}
}

func TestCommands_Empty(t *testing.T) {
	path := writeConfig(t, "deny: [rm]\n")

	out, err := execute(t, "--config", path, "commands")
	if err != nil {
		t.Fatalf("commands: %v", err)
	}
	if !strings.Contains(out, "No commands configured") {
		t.Errorf("output = %q", out)
	}
}
