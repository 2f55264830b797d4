package backend

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/xdg/termrelay/internal/clog"
	"github.com/xdg/termrelay/internal/command"
)

// Runtime starts exec sessions inside one already-running container. A
// Runtime is resolved once at startup and shared by all requests.
type Runtime interface {
	// Name identifies the runtime ("docker", "kubernetes").
	Name() string
	// Target describes the container sessions run in.
	Target() string
	// Start begins running argv in the container. Each Write to stdout or
	// stderr carries one frame of the session's output. A nil stderr means
	// standard error is not captured. The session ends when ctx is done.
	Start(ctx context.Context, argv []string, stdout, stderr io.Writer) (Session, error)
}

// Session is one exec session started by a Runtime.
type Session interface {
	// Wait blocks until the session ends and all output has been written.
	// A non-zero exit is reported through the code, not the error; the
	// error is reserved for transport failures.
	Wait() (code int, err error)
}

// Container runs invocations as exec sessions in a running container.
type Container struct {
	rt   Runtime
	opts Options
}

// NewContainer returns a container exec backend using rt.
func NewContainer(rt Runtime, opts Options) *Container {
	return &Container{rt: rt, opts: opts.withDefaults()}
}

// Name returns "container".
func (c *Container) Name() string { return "container" }

// Runtime returns the runtime sessions are started through.
func (c *Container) Runtime() Runtime { return c.rt }

// Spawn starts an exec session for inv.
func (c *Container) Spawn(ctx context.Context, inv command.Invocation) (Handle, error) {
	argv, err := c.opts.argv(inv)
	if err != nil {
		return nil, &SpawnError{Backend: c.rt.Name(), Command: inv.Line, Err: err}
	}

	// Values flow through, cancellation does not: the handle owner ends the
	// session with Terminate.
	sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	h := &containerHandle{
		cancel: cancel,
		grace:  c.opts.GracePeriod,
		log:    clog.With(c.rt.Name() + ":" + c.rt.Target()),
		chunks: make(chan Chunk),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	var stderr io.Writer
	if c.opts.MergeStderr {
		stderr = &frameWriter{h: h, origin: Stderr}
	}
	sess, err := c.rt.Start(sctx, argv, &frameWriter{h: h, origin: Stdout}, stderr)
	if err != nil {
		cancel()
		return nil, &SpawnError{Backend: c.rt.Name(), Command: inv.Line, Err: err}
	}

	h.log.Debug("exec %q", inv.Line)
	go h.wait(sess)
	return h, nil
}

type containerHandle struct {
	cancel context.CancelFunc
	grace  time.Duration
	log    *clog.Logger

	chunks chan Chunk    // closed when the session has ended
	stop   chan struct{} // closed by Terminate or Reap
	done   chan struct{} // closed after status and err are set

	stopOnce sync.Once

	status ExitStatus
	err    error
}

func (h *containerHandle) wait(sess Session) {
	code, err := sess.Wait()
	select {
	case <-h.stop:
		// Errors caused by our own cancellation are not failures.
		err = nil
	default:
	}
	h.status = ExitStatus{Code: code}
	h.err = err
	close(h.chunks)
	close(h.done)
	h.cancel()
	h.log.Debug("session ended: %s", h.status)
}

func (h *containerHandle) Next(ctx context.Context) (Chunk, error) {
	select {
	case <-h.stop:
		return Chunk{}, ErrNotRunning
	default:
	}

	select {
	case c, ok := <-h.chunks:
		if !ok {
			if h.err != nil {
				return Chunk{}, h.err
			}
			return Chunk{}, io.EOF
		}
		return c, nil
	case <-ctx.Done():
		return Chunk{}, ctx.Err()
	}
}

// Terminate cancels the session and stops relaying. It does not wait for
// the remote side: whether the process inside the container is stopped
// depends on the runtime.
func (h *containerHandle) Terminate() {
	h.stopOnce.Do(func() {
		close(h.stop)
		h.cancel()
	})
}

// Reap waits for the session to end. A session still running is
// terminated first, so output not yet read is discarded, and the wait is
// bounded by the grace period.
func (h *containerHandle) Reap() (ExitStatus, error) {
	select {
	case <-h.done:
		return h.status, h.err
	default:
	}

	h.Terminate()
	timer := time.NewTimer(h.grace)
	defer timer.Stop()
	select {
	case <-h.done:
		return h.status, h.err
	case <-timer.C:
		h.log.Warn("session did not end within %s of termination", h.grace)
		return ExitStatus{Code: -1}, ErrReapTimeout
	}
}

// frameWriter turns each Write from a runtime into one chunk. Invalid UTF-8
// in a frame is replaced.
type frameWriter struct {
	h      *containerHandle
	origin Origin
}

func (w *frameWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	data := bytes.ToValidUTF8(p, []byte("�"))
	select {
	case w.h.chunks <- Chunk{Data: data, Origin: w.origin}:
		return len(p), nil
	case <-w.h.stop:
		return 0, ErrNotRunning
	}
}
