//go:build unix

package backend

import (
	"errors"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func terminateGroup(p *os.Process) error {
	return signalGroup(p, unix.SIGTERM)
}

func killGroup(p *os.Process) error {
	return signalGroup(p, unix.SIGKILL)
}

// signalGroup signals the process group led by p, falling back to p alone
// if the group cannot be signalled.
func signalGroup(p *os.Process, sig unix.Signal) error {
	err := unix.Kill(-p.Pid, sig)
	if err == nil || errors.Is(err, unix.ESRCH) {
		return nil
	}
	if err := p.Signal(sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

func signalName(state *os.ProcessState) string {
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return ""
	}
	return ws.Signal().String()
}
