package clog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// sink holds the outputs shared by a logger and every scope derived from it.
type sink struct {
	mu         sync.Mutex
	level      Level
	fileWriter io.Writer
	errWriter  io.Writer
	foreground bool // every enabled level also goes to errWriter
}

// Logger handles leveled logging to a file and stderr. Loggers returned by
// With share outputs and level with their parent.
type Logger struct {
	sink   *sink
	prefix string
}

// NewLogger creates a logger at Info level writing warnings to stderr.
func NewLogger() *Logger {
	return &Logger{sink: &sink{level: LevelInfo, errWriter: os.Stderr}}
}

// With returns a logger that prefixes each message with prefix.
// Prefixes nest: l.With("a").With("b") logs "a b: msg".
func (l *Logger) With(prefix string) *Logger {
	if l.prefix != "" {
		prefix = l.prefix + " " + prefix
	}
	return &Logger{sink: l.sink, prefix: prefix}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

// Enabled reports whether messages at level are written.
func (l *Logger) Enabled(level Level) bool {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return level >= l.sink.level
}

// SetFileOutput sets the file writer. Pass nil to disable file logging.
func (l *Logger) SetFileOutput(w io.Writer) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.fileWriter = w
}

// SetErrOutput sets the stderr writer. Pass nil to disable it.
func (l *Logger) SetErrOutput(w io.Writer) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.errWriter = w
}

// SetForeground makes every enabled level go to stderr, not just warnings.
// Used by "termrelay serve" when no log file is configured.
func (l *Logger) SetForeground(fg bool) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.foreground = fg
}

func (l *Logger) Debug(format string, args ...any) { l.log(LevelDebug, format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.log(LevelInfo, format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.log(LevelWarn, format, args...) }
func (l *Logger) Error(format string, args ...any) { l.log(LevelError, format, args...) }

func (l *Logger) log(level Level, format string, args ...any) {
	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()

	if level < s.level {
		return
	}

	msg := fmt.Sprintf(format, args...)
	if l.prefix != "" {
		msg = l.prefix + ": " + msg
	}

	if s.fileWriter != nil {
		ts := time.Now().UTC().Format(time.RFC3339)
		_, _ = fmt.Fprintf(s.fileWriter, "%s [%s] %s\n", ts, level, msg)
	}
	if s.errWriter != nil && (s.foreground || level >= LevelWarn) {
		_, _ = fmt.Fprintf(s.errWriter, "[%s] %s\n", level, msg)
	}
}

// close closes the file writer if it implements io.Closer.
func (l *Logger) close() error {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	closer, ok := l.sink.fileWriter.(io.Closer)
	l.sink.fileWriter = nil
	if ok {
		return closer.Close()
	}
	return nil
}

// OpenLogFile opens a log file for appending, creating parent directories
// if needed.
func OpenLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
