package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"unicode/utf8"

	"github.com/cwygoda/yaydl/internal/domain"
)

const maxLineSize = 1 << 20

// ExtractArgs returns the arguments for an audio-only extraction with one
// progress line per update.
func ExtractArgs(req domain.ExtractRequest) []string {
	return []string{
		"--newline",
		"-x",
		"--audio-format", req.OutputFormat,
		"-o", filepath.Join(req.OutputDir, "%(title)s.%(ext)s"),
		req.URL,
	}
}

// Extract downloads req.URL as audio into req.OutputDir, calling onProgress
// for every progress line. Malformed progress lines are skipped. The run ends
// when stdout closes; the exit status is logged but does not fail the run
// unless ctx was cancelled, in which case the process was killed mid-run.
func (c *Client) Extract(ctx context.Context, req domain.ExtractRequest, onProgress func(percent uint8)) error {
	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrOutputDir, err)
	}

	cmd := exec.CommandContext(ctx, c.bin, ExtractArgs(req)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrProcessSpawnFailed, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrProcessSpawnFailed, c.bin, err)
	}
	c.logger.Debug("yt-dlp started", "job", req.JobID, "pid", cmd.Process.Pid)

	readErr := consume(stdout, onProgress)
	if readErr != nil {
		// Keep draining so the process is not blocked on a full pipe.
		_, _ = io.Copy(io.Discard, stdout)
	}

	if err := cmd.Wait(); err != nil {
		c.logger.Warn("yt-dlp exited with error", "job", req.JobID, "error", err, "stderr", lastLine(stderr.String()))
	}
	if readErr != nil {
		return fmt.Errorf("job %s: %w", req.JobID, readErr)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("job %s: %w", req.JobID, err)
	}
	return nil
}

func consume(r io.Reader, onProgress func(uint8)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		line := sc.Bytes()
		if !utf8.Valid(line) {
			return domain.ErrUTF8Conversion
		}
		if p, ok := ParseProgress(string(line)); ok {
			onProgress(p)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read yt-dlp output: %w", err)
	}
	return nil
}
