// Package backend launches resolved invocations and exposes their output as
// an ordered sequence of chunks.
//
// Two backends exist: Local runs the invocation as a child process of the
// server, Container runs it as an exec session inside an already-running
// container through a Runtime (docker CLI or Kubernetes API). Both hand out a
// Handle that is owned by exactly one relay.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/xdg/termrelay/internal/command"
	"github.com/xdg/termrelay/internal/config"
)

// ErrNotRunning is returned by Handle.Next after Terminate or Reap.
var ErrNotRunning = errors.New("execution is not running")

// ErrReapTimeout is returned by Handle.Reap when the execution does not end
// within the grace period after termination.
var ErrReapTimeout = errors.New("execution did not exit within the grace period")

// Backend starts executions.
type Backend interface {
	// Name identifies the backend in logs and health output.
	Name() string
	// Spawn starts inv. A failure to start returns a *SpawnError and no
	// handle. The returned handle's lifetime is controlled by its owner
	// through Terminate and Reap, not by ctx.
	Spawn(ctx context.Context, inv command.Invocation) (Handle, error)
}

// Handle is one running execution. It is not safe for concurrent Next
// calls; Terminate may be called from any goroutine.
type Handle interface {
	// Next blocks until the next chunk is available. It returns io.EOF once
	// all captured output has been read, ctx.Err() if ctx ends first, and
	// any other error if reading the output failed.
	Next(ctx context.Context) (Chunk, error)
	// Terminate stops the execution and stops delivering output. It is
	// idempotent and a no-op on an execution that already exited.
	Terminate()
	// Reap waits for the execution to end and returns its exit status.
	// Repeated calls return the same result.
	Reap() (ExitStatus, error)
}

// Origin tags the stream a chunk was read from.
type Origin int

const (
	Stdout Origin = iota
	Stderr
)

func (o Origin) String() string {
	switch o {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return "origin(" + strconv.Itoa(int(o)) + ")"
	}
}

// Chunk is one piece of output, in production order.
type Chunk struct {
	Data   []byte
	Origin Origin
}

// ExitStatus describes how an execution ended. Code is -1 when the
// execution was killed by a signal or its status is unknown.
type ExitStatus struct {
	Code   int
	Signal string
}

// Success reports whether the execution exited with status zero.
func (s ExitStatus) Success() bool {
	return s.Code == 0 && s.Signal == ""
}

func (s ExitStatus) String() string {
	if s.Signal != "" {
		return "signal: " + s.Signal
	}
	return "exit status " + strconv.Itoa(s.Code)
}

// SpawnError reports that an execution could not be started.
type SpawnError struct {
	Backend string
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("%s: start %q: %v", e.Backend, e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// Options tunes a backend.
type Options struct {
	// MergeStderr relays standard error alongside standard output.
	MergeStderr bool
	// GracePeriod is how long a terminated execution gets before it is
	// killed, and bounds Reap after termination.
	GracePeriod time.Duration
	// Shell runs invocations that need one, as Shell -c line.
	Shell string
	// Workdir is the working directory of the execution, if set.
	Workdir string
}

// OptionsFromConfig returns the Options described by cfg.
func OptionsFromConfig(cfg config.BackendConfig) Options {
	return Options{
		MergeStderr: cfg.MergeStderr(),
		GracePeriod: cfg.GraceDuration(),
		Shell:       cfg.Shell,
		Workdir:     cfg.Workdir,
	}
}

func (o Options) withDefaults() Options {
	if o.GracePeriod <= 0 {
		o.GracePeriod = config.DefaultGracePeriod
	}
	if o.Shell == "" {
		o.Shell = "/bin/sh"
	}
	return o
}

// argv returns the argument vector that runs inv: the literal Argv for a
// simple command, or a shell invocation of the line otherwise.
func (o Options) argv(inv command.Invocation) ([]string, error) {
	if inv.Shell {
		if inv.Line == "" {
			return nil, command.ErrEmpty
		}
		return []string{o.Shell, "-c", inv.Line}, nil
	}
	if len(inv.Argv) == 0 || inv.Argv[0] == "" {
		return nil, command.ErrEmpty
	}
	return inv.Argv, nil
}
