// Package term provides user-facing terminal output for the termrelay CLI.
// This is distinct from operational logging (see internal/clog).
//
// Output functions:
//   - Printf/Println: normal output to stdout
//   - Chunk: relayed command output, written as-is to stdout
//   - Table: aligned columns to stdout
//   - Warn/Error: prefixed messages to stderr
package term

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/tabwriter"

	xterm "golang.org/x/term"
)

var (
	mu     sync.Mutex
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// SetOutput sets the writer for stdout output.
// Pass nil to use os.Stdout.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	stdout = w
}

// SetErrOutput sets the writer for stderr output.
// Pass nil to use os.Stderr.
func SetErrOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	stderr = w
}

// Printf formats according to a format specifier and writes to stdout.
func Printf(format string, a ...any) {
	mu.Lock()
	defer mu.Unlock()
	_, _ = fmt.Fprintf(stdout, format, a...)
}

// Println writes its operands and a newline to stdout.
func Println(a ...any) {
	mu.Lock()
	defer mu.Unlock()
	_, _ = fmt.Fprintln(stdout, a...)
}

// Chunk writes one relayed output chunk to stdout unmodified. It returns the
// write error so callers can stop relaying when stdout goes away.
func Chunk(s string) error {
	mu.Lock()
	defer mu.Unlock()
	_, err := io.WriteString(stdout, s)
	return err
}

// Table writes rows under header as tab-aligned columns.
func Table(header []string, rows [][]string) {
	mu.Lock()
	defer mu.Unlock()

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

// Warn writes a message to stderr with a "Warning: " prefix.
func Warn(format string, a ...any) {
	mu.Lock()
	defer mu.Unlock()
	_, _ = fmt.Fprintf(stderr, "Warning: %s\n", fmt.Sprintf(format, a...))
}

// Error writes a message to stderr with an "Error: " prefix.
func Error(format string, a ...any) {
	mu.Lock()
	defer mu.Unlock()
	_, _ = fmt.Fprintf(stderr, "Error: %s\n", fmt.Sprintf(format, a...))
}

// IsTerminal reports whether stdout is an interactive terminal.
func IsTerminal() bool {
	mu.Lock()
	defer mu.Unlock()
	f, ok := stdout.(*os.File)
	return ok && xterm.IsTerminal(int(f.Fd()))
}

// Stdout returns the current stdout writer.
func Stdout() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return stdout
}

// Stderr returns the current stderr writer.
func Stderr() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return stderr
}

// Reset restores os.Stdout and os.Stderr.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	stdout = os.Stdout
	stderr = os.Stderr
}

// Discard drops all output. Useful in tests.
func Discard() {
	mu.Lock()
	defer mu.Unlock()
	stdout = io.Discard
	stderr = io.Discard
}
