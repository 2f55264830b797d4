// Package audit records one key=value line per command lifecycle event.
// Lines are meant for grep and log shippers, not for humans reading a
// terminal, and are written separately from the operational log.
package audit

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// EventType is the lifecycle stage an audit line records.
type EventType string

const (
	EventRequest  EventType = "REQUEST"
	EventReject   EventType = "REJECT"
	EventSpawn    EventType = "SPAWN"
	EventComplete EventType = "COMPLETE"
	EventCancel   EventType = "CANCEL"
	EventError    EventType = "ERROR"
)

// Event is a single audit log entry.
type Event struct {
	Timestamp time.Time
	Type      EventType

	// ID correlates all events of one request.
	ID     string
	Remote string
	// Cmd is the identifier the caller sent, not the resolved invocation.
	Cmd string

	Backend  string // SPAWN
	Reason   string // REJECT
	Err      string // ERROR
	ExitCode int    // COMPLETE
	Chunks   int    // COMPLETE, CANCEL, ERROR
	Duration time.Duration
}

// Format returns the event as a single line without trailing newline:
//
//	2024-01-15T14:32:05Z TERMINAL COMPLETE id=8c0f... remote=10.0.0.2:51234 cmd="ping" exit=0 chunks=5 duration=4.0s
func (e *Event) Format() string {
	var b strings.Builder

	b.WriteString(e.Timestamp.UTC().Format(time.RFC3339))
	b.WriteString(" TERMINAL ")
	b.WriteString(string(e.Type))
	b.WriteString(" id=")
	b.WriteString(e.ID)
	b.WriteString(" remote=")
	b.WriteString(e.Remote)
	b.WriteString(" cmd=")
	b.WriteString(strconv.Quote(e.Cmd))

	switch e.Type {
	case EventReject:
		writeOptionalField(&b, "reason", e.Reason)
	case EventSpawn:
		writeOptionalField(&b, "backend", e.Backend)
	case EventComplete:
		b.WriteString(" exit=")
		b.WriteString(strconv.Itoa(e.ExitCode))
		writeCounters(&b, e)
	case EventCancel:
		writeCounters(&b, e)
	case EventError:
		writeOptionalField(&b, "error", e.Err)
		writeCounters(&b, e)
	}
	return b.String()
}

func writeCounters(b *strings.Builder, e *Event) {
	b.WriteString(" chunks=")
	b.WriteString(strconv.Itoa(e.Chunks))
	b.WriteString(" duration=")
	b.WriteString(formatDuration(e.Duration))
}

// writeOptionalField appends " key=quoted_value" if value is non-empty.
func writeOptionalField(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	b.WriteString(" ")
	b.WriteString(key)
	b.WriteString("=")
	b.WriteString(strconv.Quote(value))
}

// formatDuration formats a duration as e.g. "850.0ms", "2.3s" or "1m30s".
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}

// Logger writes audit events to an io.Writer. A nil *Logger discards.
type Logger struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewLogger creates an audit logger that writes to w.
func NewLogger(w io.Writer) *Logger {
	return &Logger{w: w, now: time.Now}
}

// OpenFile opens (appending) an audit log file at path, creating parent
// directories as needed. The caller closes the returned file.
func OpenFile(path string) (*Logger, *os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, nil, fmt.Errorf("create audit directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit log: %w", err)
	}
	return NewLogger(f), f, nil
}

// Log writes an event. A zero Timestamp is set to the current time.
func (l *Logger) Log(e *Event) error {
	if l == nil || l.w == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if e.Timestamp.IsZero() {
		e.Timestamp = l.now()
	}
	if _, err := io.WriteString(l.w, e.Format()+"\n"); err != nil {
		return fmt.Errorf("write audit event: %w", err)
	}
	return nil
}

// Begin logs a REQUEST event and returns a Trail for the rest of the
// request's events. Durations in later events are measured from Begin.
func (l *Logger) Begin(id, remote, cmd string) *Trail {
	t := &Trail{log: l, id: id, remote: remote, cmd: cmd}
	if l != nil {
		t.start = l.now()
	}
	t.emit(&Event{Type: EventRequest})
	return t
}

// Trail records the events of a single request. Write failures are dropped.
// A nil *Trail records nothing.
type Trail struct {
	log    *Logger
	id     string
	remote string
	cmd    string
	start  time.Time
}

// ID returns the request id the trail was started with.
func (t *Trail) ID() string {
	if t == nil {
		return ""
	}
	return t.id
}

func (t *Trail) Reject(reason string) {
	t.emit(&Event{Type: EventReject, Reason: reason})
}

func (t *Trail) Spawn(backend string) {
	t.emit(&Event{Type: EventSpawn, Backend: backend})
}

func (t *Trail) Complete(exitCode, chunks int) {
	t.emit(&Event{Type: EventComplete, ExitCode: exitCode, Chunks: chunks, Duration: t.elapsed()})
}

func (t *Trail) Cancel(chunks int) {
	t.emit(&Event{Type: EventCancel, Chunks: chunks, Duration: t.elapsed()})
}

func (t *Trail) Error(err error, chunks int) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	t.emit(&Event{Type: EventError, Err: msg, Chunks: chunks, Duration: t.elapsed()})
}

func (t *Trail) elapsed() time.Duration {
	if t == nil || t.log == nil {
		return 0
	}
	return t.log.now().Sub(t.start)
}

func (t *Trail) emit(e *Event) {
	if t == nil || t.log == nil {
		return
	}
	e.ID = t.id
	e.Remote = t.remote
	e.Cmd = t.cmd
	_ = t.log.Log(e)
}
