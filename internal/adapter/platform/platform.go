// Package platform contains OS integration: clipboard access and opening
// folders in the system file manager.
package platform

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/atotto/clipboard"

	"github.com/cwygoda/yaydl/internal/domain"
)

// Operating system constants
const (
	OSDarwin  = "darwin"
	OSWindows = "windows"
	OSLinux   = "linux"
	OSFreeBSD = "freebsd"
)

// openCommand returns the command that opens dir in the file manager.
func openCommand(goos, dir string) ([]string, error) {
	switch goos {
	case OSDarwin:
		return []string{"open", dir}, nil
	case OSWindows:
		return []string{"explorer", dir}, nil
	case OSLinux, OSFreeBSD:
		return []string{"xdg-open", dir}, nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedOS, goos)
	}
}

// Clipboard reads text from the system clipboard. It implements
// domain.LinkSource.
type Clipboard struct {
	read func() (string, error)
}

// NewClipboard returns a reader for the system clipboard.
func NewClipboard() *Clipboard {
	return &Clipboard{read: clipboard.ReadAll}
}

// ReadText returns the clipboard contents.
func (c *Clipboard) ReadText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if clipboard.Unsupported {
		return "", fmt.Errorf("%w: no clipboard utility on %s", domain.ErrUnsupportedOS, runtime.GOOS)
	}
	text, err := c.read()
	if err != nil {
		return "", fmt.Errorf("read clipboard: %w", err)
	}
	return text, nil
}

// OpenFolder opens dir in the system file manager. The command is started
// and not waited for.
func OpenFolder(ctx context.Context, dir string) error {
	return openFolder(ctx, runtime.GOOS, dir)
}

func openFolder(ctx context.Context, goos, dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	argv, err := openCommand(goos, dir)
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(context.WithoutCancel(ctx), argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrProcessSpawnFailed, argv[0], err)
	}
	go cmd.Wait()
	return nil
}
