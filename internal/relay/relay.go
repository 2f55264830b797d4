// Package relay turns a validation decision into a live stream of output
// chunks, and guarantees the execution behind the stream is terminated and
// reaped however the stream ends.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/xdg/termrelay/internal/audit"
	"github.com/xdg/termrelay/internal/backend"
	"github.com/xdg/termrelay/internal/clog"
	"github.com/xdg/termrelay/internal/policy"
)

// RejectionText is the single chunk sent for a rejected command.
const RejectionText = "Method not allowed"

// Relay streams executions started through one backend.
type Relay struct {
	backend backend.Backend
}

// New returns a Relay that spawns through b.
func New(b backend.Backend) *Relay {
	return &Relay{backend: b}
}

// Backend returns the backend executions are spawned through.
func (r *Relay) Backend() backend.Backend {
	return r.backend
}

// Option configures a single Stream call.
type Option func(*stream)

// WithTrail records the stream's lifecycle in an audit trail.
func WithTrail(t *audit.Trail) Option {
	return func(s *stream) { s.trail = t }
}

// WithLogger logs through l instead of the global logger.
func WithLogger(l *clog.Logger) Option {
	return func(s *stream) { s.log = l }
}

// Stream returns the output of the execution d resolves to, one chunk per
// element, in production order. The sequence is lazy: nothing is spawned
// until it is ranged over, and it can be ranged over once.
//
//   - Empty yields nothing.
//   - Rejected yields RejectionText and spawns nothing.
//   - Resolved spawns the invocation and yields its output until it ends.
//
// A spawn or read failure ends the sequence with one chunk starting with
// "error: ". When ctx is done or the consumer stops ranging, the execution
// is terminated. In every case the execution is reaped before the range
// loop returns.
func (r *Relay) Stream(ctx context.Context, d policy.Decision, opts ...Option) iter.Seq[string] {
	s := &stream{relay: r, ctx: ctx, decision: d}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = clog.With("relay")
	}

	return func(yield func(string) bool) {
		if s.started {
			s.log.Warn("stream for %q ranged over twice", d.Name)
			return
		}
		s.started = true
		s.run(yield)
	}
}

type stream struct {
	relay    *Relay
	ctx      context.Context
	decision policy.Decision
	trail    *audit.Trail
	log      *clog.Logger
	started  bool

	handle   backend.Handle
	chunks   int
	eof      bool
	canceled bool
	readErr  error
}

func (s *stream) run(yield func(string) bool) {
	d := s.decision
	switch d.Outcome {
	case policy.Empty:
		return
	case policy.Resolved:
	default:
		s.trail.Reject(d.Reason)
		yield(RejectionText)
		return
	}

	if s.ctx.Err() != nil {
		s.trail.Cancel(0)
		return
	}

	h, err := s.relay.backend.Spawn(s.ctx, d.Invocation)
	if err != nil {
		s.log.Error("spawn %q: %v", d.Name, err)
		s.trail.Error(err, 0)
		yield(terminalChunk(err))
		return
	}
	s.handle = h
	s.trail.Spawn(s.relay.backend.Name())
	defer s.finish()

	for {
		if s.ctx.Err() != nil {
			s.canceled = true
			return
		}

		c, err := h.Next(s.ctx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			s.eof = true
			return
		case s.ctx.Err() != nil:
			s.canceled = true
			return
		default:
			s.readErr = err
			yield(terminalChunk(err))
			return
		}

		s.chunks++
		if !yield(decode(c.Data)) {
			s.canceled = true
			return
		}
	}
}

// finish terminates the execution unless its output ended normally, then
// reaps it and records the outcome.
func (s *stream) finish() {
	if !s.eof {
		s.handle.Terminate()
	}
	status, reapErr := s.handle.Reap()

	name := s.decision.Name
	switch {
	case s.canceled:
		s.log.Info("%q cancelled after %d chunks (%s)", name, s.chunks, status)
		s.trail.Cancel(s.chunks)
	case s.readErr != nil:
		s.log.Error("%q: %v", name, s.readErr)
		s.trail.Error(s.readErr, s.chunks)
	case reapErr != nil:
		s.log.Error("%q: reap: %v", name, reapErr)
		s.trail.Error(reapErr, s.chunks)
	default:
		s.log.Debug("%q finished: %s, %d chunks", name, status, s.chunks)
		s.trail.Complete(status.Code, s.chunks)
	}
}

func terminalChunk(err error) string {
	return fmt.Sprintf("error: %v\n", err)
}

// decode converts chunk bytes to text, replacing invalid UTF-8.
func decode(data []byte) string {
	return strings.ToValidUTF8(string(data), "�")
}
