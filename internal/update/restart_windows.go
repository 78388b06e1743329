//go:build windows

package update

import (
	"os"
	"os/exec"
)

type execRestarter struct{}

// Restart starts exe with the current arguments and exits.
func (execRestarter) Restart(exe string) error {
	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()
	if err := cmd.Start(); err != nil {
		return err
	}
	os.Exit(0)
	return nil
}
