package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/xdg/termrelay/internal/clog"
	"github.com/xdg/termrelay/internal/config"
	"github.com/xdg/termrelay/internal/docker"
)

// DockerRuntime runs exec sessions with the docker CLI.
type DockerRuntime struct {
	exec  docker.ExecOptions
	id    string
	grace time.Duration
}

// NewDockerRuntime checks that the Docker daemon is reachable and that the
// configured container exists and is running.
func NewDockerRuntime(ctx context.Context, cfg config.ContainerConfig, workdir string, grace time.Duration) (*DockerRuntime, error) {
	if cfg.Name == "" {
		return nil, errors.New("docker runtime: container name is required")
	}
	if err := docker.CheckDaemon(ctx); err != nil {
		return nil, err
	}
	info, err := docker.RequireRunning(ctx, cfg.Name)
	if err != nil {
		return nil, fmt.Errorf("docker runtime: %w", err)
	}
	if grace <= 0 {
		grace = config.DefaultGracePeriod
	}

	clog.Info("docker runtime: using container %s (%s, image %s)", info.Name(), shortID(info.ID), info.Image)
	return &DockerRuntime{
		exec: docker.ExecOptions{
			Container: info.Name(),
			User:      cfg.User,
			Workdir:   workdir,
		},
		id:    info.ID,
		grace: grace,
	}, nil
}

// Name returns "docker".
func (r *DockerRuntime) Name() string { return "docker" }

// Target returns the container name.
func (r *DockerRuntime) Target() string { return r.exec.Container }

// Start runs `docker exec` without a TTY. Cancelling ctx kills the docker
// CLI; the daemon does not forward that to the process in the container.
func (r *DockerRuntime) Start(ctx context.Context, argv []string, stdout, stderr io.Writer) (Session, error) {
	cmd := docker.Command(ctx, docker.ExecArgs(r.exec, argv)...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = r.grace
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &dockerSession{cmd: cmd}, nil
}

type dockerSession struct {
	cmd *exec.Cmd
}

func (s *dockerSession) Wait() (int, error) {
	err := s.cmd.Wait()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return 0, nil
	case errors.As(err, &exitErr):
		return exitErr.ExitCode(), nil
	case errors.Is(err, exec.ErrWaitDelay) && s.cmd.ProcessState != nil:
		return s.cmd.ProcessState.ExitCode(), nil
	default:
		return -1, err
	}
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
