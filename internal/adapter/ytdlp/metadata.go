package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"unicode/utf8"

	"github.com/cwygoda/yaydl/internal/domain"
)

// metadataFields is the number of blocks yt-dlp prints for MetadataArgs.
const metadataFields = 4

// MetadataArgs returns the arguments requesting id, title, duration and
// thumbnail. yt-dlp prints them as title, id, thumbnail, duration.
func MetadataArgs(url string) []string {
	return []string{
		"--verbose",
		"--get-id",
		"--get-title",
		"--get-duration",
		"--get-thumbnail",
		url,
	}
}

// FetchMetadata retrieves title, id, duration and thumbnail for url.
func (c *Client) FetchMetadata(ctx context.Context, url string) (domain.Metadata, error) {
	out, err := c.output(ctx, MetadataArgs(url)...)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return domain.Metadata{}, fmt.Errorf("%w: %w", domain.ErrRetrievalFailed, err)
		}
		return domain.Metadata{}, err
	}

	md, err := ParseMetadata(url, out)
	if err != nil {
		c.logger.Debug("unparseable metadata output", "url", url, "output", string(out))
		return domain.Metadata{}, err
	}
	return md, nil
}

// ParseMetadata decodes the output of a metadata run. Every non-empty line is
// one block; at least four are required.
func ParseMetadata(url string, out []byte) (domain.Metadata, error) {
	if !utf8.Valid(out) {
		return domain.Metadata{}, fmt.Errorf("%w: metadata output", domain.ErrUTF8Conversion)
	}

	blocks := splitBlocks(string(out))
	if len(blocks) < metadataFields {
		return domain.Metadata{}, fmt.Errorf("%w: got %d of %d", domain.ErrMissingFields, len(blocks), metadataFields)
	}

	id := blocks[1]
	if strings.ContainsAny(id, " \t") {
		return domain.Metadata{}, fmt.Errorf("%w: invalid id %q", domain.ErrParsingFailed, id)
	}

	return domain.Metadata{
		ID:        id,
		URL:       url,
		Title:     blocks[0],
		Thumbnail: blocks[2],
		Duration:  blocks[3],
	}, nil
}

func splitBlocks(s string) []string {
	var blocks []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			blocks = append(blocks, line)
		}
	}
	return blocks
}
