// Package docker wraps the docker CLI for the container backend.
//
// It relies solely on the `docker` binary in PATH, so it works with any
// Docker-compatible CLI (Docker Desktop, OrbStack, Colima, Podman with the
// docker shim). Runtime-specific configuration (DOCKER_HOST, contexts,
// ~/.docker/config.json) is left to the CLI.
package docker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Sentinel errors for docker operations.
var (
	// ErrDockerNotRunning indicates the Docker daemon is not running or accessible.
	ErrDockerNotRunning = errors.New("docker daemon is not running")

	// ErrNoResults indicates the docker command returned no output.
	ErrNoResults = errors.New("no results from docker command")
)

// CommandError represents a failed Docker command with stderr output.
type CommandError struct {
	Command string
	Args    []string
	Stderr  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("docker %s failed: %v\nstderr: %s", e.Command, e.Err, e.Stderr)
	}
	return fmt.Sprintf("docker %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Command returns an unstarted docker CLI command bound to ctx.
func Command(ctx context.Context, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, "docker", args...)
}

// Run executes a docker CLI command and returns stdout.
// On error, returns a CommandError containing stderr for debugging.
func Run(ctx context.Context, args ...string) (string, error) {
	cmd := Command(ctx, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var name string
		if len(args) > 0 {
			name = args[0]
		}
		return "", &CommandError{
			Command: name,
			Args:    args,
			Stderr:  strings.TrimSpace(stderr.String()),
			Err:     err,
		}
	}
	return stdout.String(), nil
}

// RunJSONLines runs a docker command with --format '{{json .}}' and decodes
// one JSON object per output line into result. Empty output leaves result
// unchanged, or returns ErrNoResults when strict is set.
func RunJSONLines[T any](ctx context.Context, result *[]T, strict bool, args ...string) error {
	args = append(args, "--format", "{{json .}}")
	out, err := Run(ctx, args...)
	if err != nil {
		return err
	}

	out = strings.TrimSpace(out)
	if out == "" {
		if strict {
			return ErrNoResults
		}
		return nil
	}

	lines := strings.Split(out, "\n")
	items := make([]T, 0, len(lines))
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var item T
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			return fmt.Errorf("docker %s: parse JSON on line %d: %w", args[0], i+1, err)
		}
		items = append(items, item)
	}
	*result = items
	return nil
}

// RunJSON runs a docker command with --format '{{json .}}' and decodes the
// single JSON value it prints (docker info, docker inspect) into result.
// Empty output is handled as for RunJSONLines.
func RunJSON(ctx context.Context, result any, strict bool, args ...string) error {
	args = append(args, "--format", "{{json .}}")
	out, err := Run(ctx, args...)
	if err != nil {
		return err
	}

	out = strings.TrimSpace(out)
	if out == "" {
		if strict {
			return ErrNoResults
		}
		return nil
	}
	if err := json.Unmarshal([]byte(out), result); err != nil {
		return fmt.Errorf("docker %s: parse JSON output: %w", args[0], err)
	}
	return nil
}

// CheckDaemon verifies the Docker daemon is running and accessible.
// Returns ErrDockerNotRunning if the daemon cannot be reached.
func CheckDaemon(ctx context.Context) error {
	_, err := Run(ctx, "info", "--format", "{{.ServerVersion}}")
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return fmt.Errorf("docker CLI not found: %w", err)
		}
		return fmt.Errorf("%w: %v", ErrDockerNotRunning, err)
	}
	return nil
}
