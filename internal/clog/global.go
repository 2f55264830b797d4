package clog

import (
	"bytes"
	"io"
	"log"
	"os"
	"sync"
)

var (
	stdMu sync.RWMutex
	std   = NewLogger()
)

func global() *Logger {
	stdMu.RLock()
	defer stdMu.RUnlock()
	return std
}

// Options configures the global logger.
type Options struct {
	// File is the log file path. Empty disables file logging.
	File string
	// Level is the minimum level to log.
	Level Level
	// Foreground sends every enabled level to stderr as well.
	Foreground bool
}

// Configure sets up the global logger. Any previously opened log file is
// closed.
func Configure(opts Options) error {
	l := global()
	if err := l.close(); err != nil {
		return err
	}
	l.SetLevel(opts.Level)
	l.SetForeground(opts.Foreground)

	if opts.File != "" {
		f, err := OpenLogFile(opts.File)
		if err != nil {
			return err
		}
		l.SetFileOutput(f)
	}
	return nil
}

// With returns a scoped child of the global logger.
func With(prefix string) *Logger { return global().With(prefix) }

// SetLevel sets the minimum level of the global logger.
func SetLevel(level Level) {
	global().SetLevel(level)
}

// SetFileOutput sets the file writer of the global logger.
func SetFileOutput(w io.Writer) {
	global().SetFileOutput(w)
}

// SetErrOutput sets the stderr writer of the global logger.
func SetErrOutput(w io.Writer) {
	global().SetErrOutput(w)
}

// Enabled reports whether the global logger writes messages at level.
func Enabled(level Level) bool {
	return global().Enabled(level)
}

// Debug logs a debug message using the global logger.
func Debug(format string, args ...any) {
	global().Debug(format, args...)
}

// Info logs an informational message using the global logger.
func Info(format string, args ...any) {
	global().Info(format, args...)
}

// Warn logs a warning using the global logger.
func Warn(format string, args ...any) {
	global().Warn(format, args...)
}

// Error logs an error using the global logger.
func Error(format string, args ...any) {
	global().Error(format, args...)
}

// Close closes the global log file, if any.
func Close() error {
	return global().close()
}

// Reset replaces the global logger with a fresh default one.
func Reset() {
	ReplaceGlobal(NewLogger())
}

// Discard silences the global logger.
func Discard() {
	l := global()
	l.SetFileOutput(io.Discard)
	l.SetErrOutput(io.Discard)
}

// TestLogger returns a debug-level logger that writes everything to w.
func TestLogger(w io.Writer) *Logger {
	l := NewLogger()
	l.SetFileOutput(w)
	l.SetErrOutput(nil)
	l.SetLevel(LevelDebug)
	return l
}

// ReplaceGlobal replaces the global logger and returns the previous one.
func ReplaceGlobal(l *Logger) *Logger {
	stdMu.Lock()
	defer stdMu.Unlock()
	old := std
	std = l
	return old
}

// RedirectStdLog sends the standard library's log package to clog at Info
// level. net/http reports connection errors there.
func RedirectStdLog() {
	log.SetFlags(0)
	log.SetPrefix("")
	log.SetOutput(Writer(LevelInfo))
}

// Writer returns an io.Writer that logs each line written to it at level.
// It is used to hand clog to libraries that only accept a writer.
func Writer(level Level) io.Writer {
	return levelWriter(level)
}

type levelWriter Level

func (w levelWriter) Write(p []byte) (int, error) {
	l := global()
	for _, line := range bytes.Split(bytes.TrimRight(p, "\n"), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		l.log(Level(w), "%s", line)
	}
	return len(p), nil
}

func init() {
	std.SetErrOutput(os.Stderr)
}
