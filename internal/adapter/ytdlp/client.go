package ytdlp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/cwygoda/yaydl/internal/domain"
)

// DefaultBinary is the yt-dlp executable looked up on PATH.
const DefaultBinary = "yt-dlp"

// Client drives the yt-dlp command line tool.
type Client struct {
	bin    string
	logger *slog.Logger
}

// New creates a new yt-dlp client. An empty bin means DefaultBinary.
func New(bin string, logger *slog.Logger) *Client {
	if bin == "" {
		bin = DefaultBinary
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{bin: bin, logger: logger}
}

// Binary returns the executable the client runs.
func (c *Client) Binary() string {
	return c.bin
}

// Version returns the tool's version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	out, err := c.output(ctx, "--version")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// output runs the tool to completion and returns its stdout. A non-zero exit
// is returned as *exec.ExitError wrapped with the last line of stderr.
func (c *Client) output(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.Bytes(), fmt.Errorf("%s exited with status %d: %w: %s", c.bin, exitErr.ExitCode(), err, lastLine(stderr.String()))
		}
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrProcessSpawnFailed, c.bin, err)
	}
	return stdout.Bytes(), nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
