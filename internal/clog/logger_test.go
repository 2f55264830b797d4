package clog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger()
	l.SetFileOutput(&buf)
	l.SetErrOutput(nil)
	l.SetLevel(LevelWarn)

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	output := buf.String()
	if strings.Contains(output, "debug message") || strings.Contains(output, "info message") {
		t.Errorf("messages below warn should be filtered, got: %s", output)
	}
	if !strings.Contains(output, "[WARN] warn message") {
		t.Errorf("expected warn message in output, got: %s", output)
	}
	if !strings.Contains(output, "[ERROR] error message") {
		t.Errorf("expected error message in output, got: %s", output)
	}
}

func TestLogger_StderrRouting(t *testing.T) {
	tests := []struct {
		name       string
		foreground bool
		wantInfo   bool
	}{
		{"background", false, false},
		{"foreground", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var errBuf bytes.Buffer
			l := NewLogger()
			l.SetErrOutput(&errBuf)
			l.SetForeground(tt.foreground)

			l.Info("started")
			l.Warn("careful")

			out := errBuf.String()
			if got := strings.Contains(out, "[INFO] started"); got != tt.wantInfo {
				t.Errorf("info on stderr = %v, want %v (output %q)", got, tt.wantInfo, out)
			}
			if !strings.Contains(out, "[WARN] careful") {
				t.Errorf("warn missing from stderr: %q", out)
			}
		})
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	l := TestLogger(&buf)

	req := l.With("req=42")
	req.Info("spawned")
	req.With("pid=7").Debug("exited")

	output := buf.String()
	if !strings.Contains(output, "[INFO] req=42: spawned") {
		t.Errorf("missing prefixed message, got: %s", output)
	}
	if !strings.Contains(output, "[DEBUG] req=42 pid=7: exited") {
		t.Errorf("missing nested prefix, got: %s", output)
	}

	// Scopes share the parent's level.
	l.SetLevel(LevelError)
	if req.Enabled(LevelInfo) {
		t.Error("scoped logger ignored parent level change")
	}
}

func TestOpenLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "test.log")

	f, err := OpenLogFile(path)
	if err != nil {
		t.Fatalf("OpenLogFile() error = %v", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString("line\n"); err != nil {
		t.Fatalf("WriteString() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o640 {
		t.Errorf("mode = %o, want 640", perm)
	}
}
