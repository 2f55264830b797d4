// Package testutil provides shared test helpers for termrelay tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/xdg/termrelay/internal/docker"
)

// TestImage is a small image with a POSIX shell and ping.
const TestImage = "alpine:3.20"

// RequireDocker skips the test if Docker is not available.
func RequireDocker(t *testing.T) {
	t.Helper()
	if err := docker.CheckDaemon(context.Background()); err != nil {
		t.Skipf("Docker not available: %v", err)
	}
}

// UniqueContainerName generates a unique container name with the given prefix.
func UniqueContainerName(prefix string) string {
	return fmt.Sprintf("termrelay-%s-%d", prefix, time.Now().UnixNano())
}

// StartContainer starts a long-running TestImage container for exec tests
// and removes it when the test ends. It skips the test if Docker is
// unavailable or the image cannot be run.
func StartContainer(t *testing.T, prefix string) string {
	t.Helper()
	RequireDocker(t)

	name := UniqueContainerName(prefix)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if _, err := docker.Run(ctx, "run", "-d", "--rm", "--name", name, TestImage, "sleep", "600"); err != nil {
		t.Skipf("cannot start test container: %v", err)
	}
	t.Cleanup(func() {
		_, _ = docker.Run(context.Background(), "rm", "-f", name)
	})
	return name
}
