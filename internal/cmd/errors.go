package cmd

import (
	"errors"
	"fmt"

	"github.com/xdg/termrelay/internal/backend"
	"github.com/xdg/termrelay/internal/docker"
)

// ExitRejected is the exit code for a command the validator rejected.
const ExitRejected = 2

// ExitInterrupted is the exit code when a relayed command is cancelled with
// Ctrl-C.
const ExitInterrupted = 130

// ExitCodeError carries a process exit code out of a command.
type ExitCodeError struct {
	Code int
}

// NewExitCodeError returns an ExitCodeError with the given code.
func NewExitCodeError(code int) *ExitCodeError {
	return &ExitCodeError{Code: code}
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// dockerNotRunningError returns a user-friendly error when Docker is not running.
func dockerNotRunningError() error {
	return fmt.Errorf("docker is not running; please start Docker and try again")
}

// backendError turns a backend startup failure into a user-facing message.
func backendError(err error) error {
	switch {
	case errors.Is(err, docker.ErrDockerNotRunning):
		return dockerNotRunningError()
	case errors.Is(err, docker.ErrContainerNotFound), errors.Is(err, docker.ErrContainerNotRunning),
		errors.Is(err, backend.ErrPodNotRunning):
		return fmt.Errorf("%w; start it or change backend.container in the config", err)
	default:
		return fmt.Errorf("failed to start backend: %w", err)
	}
}
