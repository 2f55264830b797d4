// Package version reports the termrelay build version.
package version

import (
	"runtime/debug"
	"strings"
)

// Version is set at build time via:
//
//	-ldflags "-X github.com/xdg/termrelay/internal/version.Version=v1.0.0"
var Version = "dev"

// String returns Version, followed by the short VCS revision for dev builds
// when the binary carries build info, e.g. "dev (3f2a9c1, modified)".
func String() string {
	if !strings.Contains(Version, "dev") {
		return Version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Version
	}
	return Version + revision(info.Settings)
}

func revision(settings []debug.BuildSetting) string {
	var rev string
	var modified bool
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	if rev == "" {
		return ""
	}
	if len(rev) > 7 {
		rev = rev[:7]
	}
	if modified {
		return " (" + rev + ", modified)"
	}
	return " (" + rev + ")"
}
