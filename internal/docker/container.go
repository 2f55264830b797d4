package docker

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrContainerNotFound indicates no container has the requested name.
	ErrContainerNotFound = errors.New("container not found")

	// ErrContainerNotRunning indicates the container exists but is stopped.
	ErrContainerNotRunning = errors.New("container is not running")
)

// ContainerInfo holds the fields of `docker ps` output termrelay uses.
type ContainerInfo struct {
	ID    string `json:"ID"`
	Names string `json:"Names"`
	State string `json:"State"`
	Image string `json:"Image"`
}

// Name returns the container name with any leading slash removed.
func (c *ContainerInfo) Name() string {
	return strings.TrimPrefix(c.Names, "/")
}

// Running reports whether the container is in the running state.
func (c *ContainerInfo) Running() bool {
	return c.State == "running"
}

// FindContainerByExactName finds a container with exactly the given name.
// Returns nil, nil if there is none.
func FindContainerByExactName(ctx context.Context, name string) (*ContainerInfo, error) {
	var containers []ContainerInfo

	// The name filter is a regex, and still matches substrings in some
	// docker versions, so results are compared exactly below.
	err := RunJSONLines(ctx, &containers, false, "ps", "-a", "--filter", "name=^"+name+"$")
	if err != nil {
		return nil, err
	}
	for i := range containers {
		if containers[i].Name() == name {
			return &containers[i], nil
		}
	}
	return nil, nil
}

// RequireRunning returns the named container if it exists and is running.
func RequireRunning(ctx context.Context, name string) (*ContainerInfo, error) {
	info, err := FindContainerByExactName(ctx, name)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, fmt.Errorf("%w: %s", ErrContainerNotFound, name)
	}
	if !info.Running() {
		return nil, fmt.Errorf("%w: %s is %s", ErrContainerNotRunning, name, info.State)
	}
	return info, nil
}

// ExecOptions configures a `docker exec` invocation.
type ExecOptions struct {
	Container string
	User      string
	Workdir   string
}

// ExecArgs returns the docker CLI arguments that run argv inside a
// container. No TTY is allocated, so stdout and stderr stay separate.
func ExecArgs(opts ExecOptions, argv []string) []string {
	args := []string{"exec"}
	if opts.User != "" {
		args = append(args, "--user", opts.User)
	}
	if opts.Workdir != "" {
		args = append(args, "--workdir", opts.Workdir)
	}
	args = append(args, opts.Container)
	return append(args, argv...)
}
