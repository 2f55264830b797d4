package backend

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xdg/termrelay/internal/clog"
	"github.com/xdg/termrelay/internal/command"
)

// maxChunk caps a chunk when a line is longer than the read buffer.
const maxChunk = 32 * 1024

// Local runs invocations as child processes of the server. Each child gets
// its own process group so termination reaches everything it started.
type Local struct {
	opts Options
}

// NewLocal returns a local process backend.
func NewLocal(opts Options) *Local {
	return &Local{opts: opts.withDefaults()}
}

// Name returns "local".
func (l *Local) Name() string { return "local" }

// Spawn starts inv as a child process. Standard input is /dev/null.
// Standard error is captured only when MergeStderr is set.
func (l *Local) Spawn(_ context.Context, inv command.Invocation) (Handle, error) {
	argv, err := l.opts.argv(inv)
	if err != nil {
		return nil, &SpawnError{Backend: l.Name(), Command: inv.Line, Err: err}
	}

	// exec.Command, not CommandContext: the handle owner decides when the
	// child dies, with the grace period applied.
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = l.opts.Workdir
	setProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &SpawnError{Backend: l.Name(), Command: inv.Line, Err: err}
	}
	var stderr io.ReadCloser
	if l.opts.MergeStderr {
		stderr, err = cmd.StderrPipe()
		if err != nil {
			_ = stdout.Close()
			return nil, &SpawnError{Backend: l.Name(), Command: inv.Line, Err: err}
		}
	}

	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Backend: l.Name(), Command: inv.Line, Err: err}
	}

	h := &localHandle{
		cmd:    cmd,
		grace:  l.opts.GracePeriod,
		log:    clog.With(fmt.Sprintf("pid=%d", cmd.Process.Pid)),
		chunks: make(chan Chunk),
		failed: make(chan struct{}),
		stop:   make(chan struct{}),
		exited: make(chan struct{}),
		pipes:  []io.Closer{stdout},
	}
	if stderr != nil {
		h.pipes = append(h.pipes, stderr)
	}
	h.log.Debug("started %q", inv.Line)
	h.start(stdout, stderr)
	return h, nil
}

type localHandle struct {
	cmd   *exec.Cmd
	grace time.Duration
	log   *clog.Logger
	pipes []io.Closer

	chunks chan Chunk    // closed when both pumps are done
	failed chan struct{} // closed on the first read error
	stop   chan struct{} // closed by Terminate or Reap
	exited chan struct{} // closed after cmd.Wait returns

	failOnce sync.Once
	failErr  error
	stopOnce sync.Once
	termOnce sync.Once

	status  ExitStatus
	waitErr error
}

func (h *localHandle) start(stdout, stderr io.Reader) {
	var g errgroup.Group
	g.Go(func() error { return h.pump(stdout, Stdout) })
	if stderr != nil {
		g.Go(func() error { return h.pump(stderr, Stderr) })
	}

	go func() {
		// Wait must not run before the pipes are drained.
		_ = g.Wait()
		close(h.chunks)

		err := h.cmd.Wait()
		h.status, h.waitErr = exitStatus(h.cmd, err)
		h.log.Debug("reaped: %s", h.status)
		close(h.exited)
	}()
}

// pump splits r into lines and sends each as a chunk. Lines longer than
// maxChunk are sent in maxChunk pieces.
func (h *localHandle) pump(r io.Reader, origin Origin) error {
	br := bufio.NewReaderSize(r, maxChunk)
	for {
		line, err := br.ReadSlice('\n')
		if len(line) > 0 {
			data := make([]byte, len(line))
			copy(data, line)
			select {
			case h.chunks <- Chunk{Data: data, Origin: origin}:
			case <-h.stop:
				return nil
			}
		}
		switch {
		case err == nil, errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			return nil
		default:
			select {
			case <-h.stop:
				// Pipes are closed by Terminate; not a read failure.
				return nil
			default:
			}
			err = fmt.Errorf("read %s: %w", origin, err)
			h.fail(err)
			return err
		}
	}
}

func (h *localHandle) fail(err error) {
	h.failOnce.Do(func() {
		h.failErr = err
		close(h.failed)
	})
}

func (h *localHandle) Next(ctx context.Context) (Chunk, error) {
	select {
	case <-h.stop:
		return Chunk{}, ErrNotRunning
	default:
	}

	// Output already produced is delivered before a read failure.
	select {
	case c, ok := <-h.chunks:
		return h.received(c, ok)
	default:
	}

	select {
	case c, ok := <-h.chunks:
		return h.received(c, ok)
	case <-h.failed:
		return Chunk{}, h.failErr
	case <-ctx.Done():
		return Chunk{}, ctx.Err()
	}
}

func (h *localHandle) received(c Chunk, ok bool) (Chunk, error) {
	if ok {
		return c, nil
	}
	select {
	case <-h.failed:
		return Chunk{}, h.failErr
	default:
		return Chunk{}, io.EOF
	}
}

// Terminate sends SIGTERM to the child's process group and SIGKILL after
// the grace period. It returns once the child has exited, or after a
// further grace period if even SIGKILL could not end it.
func (h *localHandle) Terminate() {
	h.termOnce.Do(func() {
		h.halt()

		select {
		case <-h.exited:
			return
		default:
		}

		h.log.Debug("terminating")
		if err := terminateGroup(h.cmd.Process); err != nil {
			h.log.Debug("SIGTERM: %v", err)
		}

		timer := time.NewTimer(h.grace)
		defer timer.Stop()
		select {
		case <-h.exited:
			return
		case <-timer.C:
		}

		h.log.Warn("did not exit within %s, killing", h.grace)
		if err := killGroup(h.cmd.Process); err != nil {
			h.log.Debug("SIGKILL: %v", err)
		}

		timer.Reset(h.grace)
		select {
		case <-h.exited:
		case <-timer.C:
			// Something outside the process group holds the pipes open.
			h.log.Warn("output pipes still open after kill, closing")
			for _, p := range h.pipes {
				_ = p.Close()
			}
		}
	})
}

// halt stops output delivery.
func (h *localHandle) halt() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// Reap waits for the child to exit. Output not yet read is discarded.
func (h *localHandle) Reap() (ExitStatus, error) {
	h.halt()
	<-h.exited
	return h.status, h.waitErr
}

// exitStatus converts the result of cmd.Wait into an ExitStatus. Only
// errors other than a non-zero exit are returned.
func exitStatus(cmd *exec.Cmd, err error) (ExitStatus, error) {
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return ExitStatus{Code: -1}, fmt.Errorf("wait: %w", err)
	}
	state := cmd.ProcessState
	if state == nil {
		return ExitStatus{Code: -1}, nil
	}
	return ExitStatus{Code: state.ExitCode(), Signal: signalName(state)}, nil
}
