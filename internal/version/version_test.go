package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestString_Release(t *testing.T) {
	original := Version
	defer func() { Version = original }()

	Version = "v1.2.3"
	if got := String(); got != "v1.2.3" {
		t.Errorf("String() = %q, want %q", got, "v1.2.3")
	}
}

func TestString_Dev(t *testing.T) {
	original := Version
	defer func() { Version = original }()

	Version = "dev"
	if got := String(); !strings.HasPrefix(got, "dev") {
		t.Errorf("String() = %q, want dev prefix", got)
	}
}

func TestRevision(t *testing.T) {
	tests := []struct {
		name     string
		settings []debug.BuildSetting
		want     string
	}{
		{"none", nil, ""},
		{"clean", []debug.BuildSetting{{Key: "vcs.revision", Value: "3f2a9c1d8e7b"}}, " (3f2a9c1)"},
		{"modified", []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc"},
			{Key: "vcs.modified", Value: "true"},
		}, " (abc, modified)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := revision(tt.settings); got != tt.want {
				t.Errorf("revision() = %q, want %q", got, tt.want)
			}
		})
	}
}
