package docker

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"reflect"
	"strings"
	"testing"
	"time"
)

func requireDaemon(t *testing.T) {
	t.Helper()
	if err := CheckDaemon(context.Background()); err != nil {
		t.Skipf("Docker not available: %v", err)
	}
}

func TestRun_Success(t *testing.T) {
	out, err := Run(context.Background(), "version", "--format", "{{.Client.Version}}")
	if err != nil {
		t.Skipf("Docker not available: %v", err)
	}
	if out == "" {
		t.Error("expected non-empty output from docker version")
	}
}

func TestRun_InvalidCommand(t *testing.T) {
	_, err := Run(context.Background(), "notarealcommand")
	if err == nil {
		t.Fatal("expected error for invalid docker command")
	}

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected CommandError, got %T", err)
	}
	if cmdErr.Command != "notarealcommand" {
		t.Errorf("expected command 'notarealcommand', got %q", cmdErr.Command)
	}
}

func TestRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Run(ctx, "version"); err == nil {
		t.Error("Run() with canceled context: error = nil, want error")
	}
}

func TestCommandError_Error(t *testing.T) {
	tests := []struct {
		name     string
		cmdErr   CommandError
		contains []string
	}{
		{
			name: "with stderr",
			cmdErr: CommandError{
				Command: "exec",
				Args:    []string{"exec", "missing", "true"},
				Stderr:  "Error response from daemon: No such container: missing",
				Err:     errors.New("exit status 1"),
			},
			contains: []string{"docker exec failed", "exit status 1", "stderr:", "No such container"},
		},
		{
			name: "without stderr",
			cmdErr: CommandError{
				Command: "ps",
				Err:     errors.New("exit status 1"),
			},
			contains: []string{"docker ps failed", "exit status 1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.cmdErr.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q should contain %q", msg, s)
				}
			}
			if tt.cmdErr.Stderr == "" && strings.Contains(msg, "stderr:") {
				t.Errorf("error message %q should not mention stderr", msg)
			}
		})
	}
}

func TestCommandError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	cmdErr := &CommandError{Command: "test", Err: underlying}

	if !errors.Is(cmdErr, underlying) {
		t.Error("CommandError should unwrap to underlying error")
	}
}

func TestCheckDaemon_Classification(t *testing.T) {
	err := CheckDaemon(context.Background())
	if err == nil {
		return
	}

	var execErr *exec.Error
	switch {
	case errors.As(err, &execErr):
		if !strings.Contains(err.Error(), "docker CLI not found") {
			t.Errorf("missing CLI error = %v, want 'docker CLI not found'", err)
		}
	case !errors.Is(err, ErrDockerNotRunning):
		t.Errorf("CheckDaemon() error = %v, want ErrDockerNotRunning", err)
	}
}

func TestErrDockerNotRunning_Wrapping(t *testing.T) {
	wrapped := fmt.Errorf("%w: %v", ErrDockerNotRunning, errors.New("connection refused"))
	if !errors.Is(wrapped, ErrDockerNotRunning) {
		t.Error("ErrDockerNotRunning should be checkable with errors.Is")
	}
	if !strings.Contains(wrapped.Error(), "connection refused") {
		t.Error("wrapped error should contain the underlying error")
	}
}

func TestRunJSONLines_EmptyResult(t *testing.T) {
	requireDaemon(t)
	ctx := context.Background()
	filter := fmt.Sprintf("name=^termrelay-absent-%d$", time.Now().UnixNano())

	containers := []ContainerInfo{{ID: "sentinel"}}
	if err := RunJSONLines(ctx, &containers, false, "ps", "-a", "--filter", filter); err != nil {
		t.Fatalf("RunJSONLines() error = %v", err)
	}
	if len(containers) != 1 || containers[0].ID != "sentinel" {
		t.Errorf("non-strict empty result modified slice: %+v", containers)
	}

	err := RunJSONLines(ctx, &containers, true, "ps", "-a", "--filter", filter)
	if !errors.Is(err, ErrNoResults) {
		t.Errorf("strict RunJSONLines() error = %v, want ErrNoResults", err)
	}
}

func TestRunJSON_Info(t *testing.T) {
	requireDaemon(t)

	var info struct {
		ServerVersion string `json:"ServerVersion"`
	}
	if err := RunJSON(context.Background(), &info, true, "info"); err != nil {
		t.Fatalf("RunJSON() error = %v", err)
	}
	if info.ServerVersion == "" {
		t.Error("ServerVersion is empty")
	}
}

func TestExecArgs(t *testing.T) {
	tests := []struct {
		name string
		opts ExecOptions
		argv []string
		want []string
	}{
		{
			name: "plain",
			opts: ExecOptions{Container: "tty-user-container"},
			argv: []string{"ping", "-c", "5", "8.8.8.8"},
			want: []string{"exec", "tty-user-container", "ping", "-c", "5", "8.8.8.8"},
		},
		{
			name: "user and workdir",
			opts: ExecOptions{Container: "c", User: "guest", Workdir: "/srv"},
			argv: []string{"/bin/sh", "-c", "ls | wc -l"},
			want: []string{"exec", "--user", "guest", "--workdir", "/srv", "c", "/bin/sh", "-c", "ls | wc -l"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExecArgs(tt.opts, tt.argv); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExecArgs() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContainerInfo(t *testing.T) {
	c := &ContainerInfo{Names: "/tty-user-container", State: "running"}
	if c.Name() != "tty-user-container" {
		t.Errorf("Name() = %q", c.Name())
	}
	if !c.Running() {
		t.Error("Running() = false for state running")
	}
	c.State = "exited"
	if c.Running() {
		t.Error("Running() = true for state exited")
	}
}

func TestRequireRunning_NotFound(t *testing.T) {
	requireDaemon(t)

	name := fmt.Sprintf("termrelay-absent-%d", time.Now().UnixNano())
	_, err := RequireRunning(context.Background(), name)
	if !errors.Is(err, ErrContainerNotFound) {
		t.Errorf("RequireRunning() error = %v, want ErrContainerNotFound", err)
	}
}
