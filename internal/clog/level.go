// Package clog provides leveled operational logging for termrelay.
// This is distinct from user-facing output (see internal/term) and from the
// command audit trail (see internal/audit).
//
// Log levels:
//   - Debug: Verbose diagnostic information, only with --debug or level: debug
//   - Info: Normal operational events
//   - Warn: Unexpected conditions that don't prevent operation
//   - Error: Failures that affect functionality
//
// Output destinations:
//   - File: All enabled levels
//   - Stderr: Warn and Error only, or every enabled level in foreground mode
package clog

import (
	"fmt"
	"strings"
)

// Level represents the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the uppercase name of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a level name (case-insensitive). An empty name is Info.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error", "err":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
