package update

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
)

const chunkSize = 32 * 1024

// Percent converts byte counts into a 0-100 percentage. An unknown or zero
// total yields 0.
func Percent(downloaded, total int64) uint8 {
	if total <= 0 || downloaded <= 0 {
		return 0
	}
	if downloaded >= total {
		return 100
	}
	return uint8(downloaded * 100 / total)
}

// download streams url into dest in fixed-size chunks, calling onChunk with
// the running byte count and the best known total.
func (s *Supervisor) download(ctx context.Context, url, dest string, size int64, onChunk func(downloaded, total int64)) (int64, error) {
	out, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("failed to create destination file %s: %w", dest, err)
	}
	defer out.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request for download: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download request failed: status %s", resp.Status)
	}

	total := resp.ContentLength
	if total <= 0 && size > 0 {
		total = size
	}

	var downloaded int64
	buf := make([]byte, chunkSize)
	for {
		nr, er := resp.Body.Read(buf)
		if nr > 0 {
			nw, ew := out.Write(buf[:nr])
			if ew != nil {
				return downloaded, ew
			}
			if nw != nr {
				return downloaded, io.ErrShortWrite
			}
			downloaded += int64(nw)
			onChunk(downloaded, total)
		}
		if er == io.EOF {
			break
		}
		if er != nil {
			return downloaded, fmt.Errorf("error during download stream: %w", er)
		}
	}

	if total > 0 && downloaded != total {
		return downloaded, fmt.Errorf("downloaded %d of %d bytes", downloaded, total)
	}
	return downloaded, out.Close()
}

// install swaps newPath into exe, keeping the previous binary at exe+".old".
// The old binary is restored if the swap fails.
func install(exe, newPath string) error {
	if err := os.Chmod(newPath, 0755); err != nil && runtime.GOOS != "windows" {
		return fmt.Errorf("failed to make update executable: %w", err)
	}

	oldPath := exe + ".old"
	os.Remove(oldPath)

	if err := os.Rename(exe, oldPath); err != nil {
		return fmt.Errorf("failed to back up current executable: %w", err)
	}
	if err := os.Rename(newPath, exe); err != nil {
		if errRestore := os.Rename(oldPath, exe); errRestore != nil {
			return fmt.Errorf("failed to apply update: %w (restore failed: %v)", err, errRestore)
		}
		return fmt.Errorf("failed to apply update: %w", err)
	}
	return nil
}
