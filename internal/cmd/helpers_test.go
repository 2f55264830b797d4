package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/xdg/termrelay/internal/clog"
	"github.com/xdg/termrelay/internal/term"
)

const testConfig = `commands:
  - name: hello
    run: printf 'a\nb\n'
  - name: shout
    run: echo hi | tr a-z A-Z
  - name: args
    args: [echo, "two words"]
  - name: wipe
    run: rm -rf /tmp/termrelay-never
deny: [rm]
`

// writeConfig writes content to a config file in a temp dir and returns
// its path. HOME and the XDG dirs point into the temp dir too.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))

	path := filepath.Join(dir, "termrelay.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// execute runs the root command with args and returns everything written
// to stdout and stderr.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	term.SetOutput(&out)
	term.SetErrOutput(&out)
	clog.Discard()
	t.Cleanup(func() {
		term.Reset()
		clog.Reset()
		configPath = ""
		debugLog = false
	})

	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if e, ok := err.(*ExitCodeError); ok {
		return e.Code
	}
	return -1
}
