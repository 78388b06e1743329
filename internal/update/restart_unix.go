//go:build !windows

package update

import (
	"os"
	"syscall"
)

type execRestarter struct{}

// Restart replaces the current process image with exe.
func (execRestarter) Restart(exe string) error {
	return syscall.Exec(exe, os.Args, os.Environ())
}
