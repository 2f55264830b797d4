//go:build !unix

package backend

import (
	"errors"
	"os"
	"os/exec"
)

func setProcessGroup(*exec.Cmd) {}

// terminateGroup kills p; there is no portable polite signal here.
func terminateGroup(p *os.Process) error {
	return killGroup(p)
}

func killGroup(p *os.Process) error {
	if err := p.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

func signalName(*os.ProcessState) string { return "" }
