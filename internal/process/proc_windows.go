//go:build windows
// +build windows

package process

import (
	"errors"
	"os/exec"
)

func configureProcAttr(*exec.Cmd) {}

// Windows has no graceful signal for console children; terminate kills.
func terminate(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}

func kill(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}

func startPTY(*exec.Cmd) (Streams, error) {
	return Streams{}, errors.New("pty mode is not supported on windows")
}
