package ytdlp

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwygoda/yaydl/internal/domain"
)

const testURL = "https://www.youtube.com/watch?v=X"

func TestParseMetadata(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    domain.Metadata
		wantErr error
	}{
		{
			name: "four blocks",
			out:  "Song\nX\nhttps://i.ytimg.com/x.jpg\n3:45\n",
			want: domain.Metadata{ID: "X", URL: testURL, Title: "Song", Thumbnail: "https://i.ytimg.com/x.jpg", Duration: "3:45"},
		},
		{
			name: "blank lines and carriage returns",
			out:  "\r\nSong Title\r\n\r\nX\r\nhttps://i.ytimg.com/x.jpg\r\n3:45\r\n\r\n",
			want: domain.Metadata{ID: "X", URL: testURL, Title: "Song Title", Thumbnail: "https://i.ytimg.com/x.jpg", Duration: "3:45"},
		},
		{
			name: "extra blocks ignored",
			out:  "Song\nX\nthumb\n1:00\nsurplus\n",
			want: domain.Metadata{ID: "X", URL: testURL, Title: "Song", Thumbnail: "thumb", Duration: "1:00"},
		},
		{
			name:    "too few blocks",
			out:     "Song\nX\n",
			wantErr: domain.ErrMissingFields,
		},
		{
			name:    "empty output",
			out:     "",
			wantErr: domain.ErrMissingFields,
		},
		{
			name:    "id with whitespace",
			out:     "Song\nnot an id\nthumb\n1:00\n",
			wantErr: domain.ErrParsingFailed,
		},
		{
			name:    "invalid utf-8",
			out:     "Song\xff\nX\nthumb\n1:00\n",
			wantErr: domain.ErrUTF8Conversion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMetadata(testURL, []byte(tt.out))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_FetchMetadata(t *testing.T) {
	bin, argsFile := fakeTool(t, `printf 'Song\nX\nhttps://i.ytimg.com/x.jpg\n3:45\n'`)

	md, err := New(bin, nil).FetchMetadata(context.Background(), testURL)
	require.NoError(t, err)
	assert.Equal(t, "X", md.ID)
	assert.Equal(t, "Song", md.Title)
	assert.Equal(t, "3:45", md.Duration)
	assert.Equal(t, testURL, md.URL)

	args := strings.TrimSpace(readArgs(t, argsFile))
	assert.Equal(t, strings.Join(MetadataArgs(testURL), " "), args)
}

func TestClient_FetchMetadata_NonZeroExit(t *testing.T) {
	// Valid output is ignored when the tool fails.
	bin, _ := fakeTool(t, `printf 'Song\nX\nthumb\n3:45\n'; echo 'ERROR: video unavailable' >&2; exit 1`)

	_, err := New(bin, nil).FetchMetadata(context.Background(), testURL)
	require.ErrorIs(t, err, domain.ErrRetrievalFailed)
	assert.Contains(t, err.Error(), "video unavailable")
}

func TestClient_FetchMetadata_MissingBinary(t *testing.T) {
	_, err := New("/nonexistent/yt-dlp", nil).FetchMetadata(context.Background(), testURL)
	assert.ErrorIs(t, err, domain.ErrProcessSpawnFailed)
}

func TestClient_Version(t *testing.T) {
	bin, _ := fakeTool(t, `echo 2025.10.22`)

	v, err := New(bin, nil).Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025.10.22", v)
}

func TestNew_DefaultBinary(t *testing.T) {
	assert.Equal(t, DefaultBinary, New("", nil).Binary())
}
