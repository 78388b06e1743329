package platform

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/atotto/clipboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwygoda/yaydl/internal/domain"
)

func TestOpenCommand(t *testing.T) {
	tests := []struct {
		goos string
		want []string
	}{
		{OSDarwin, []string{"open", "/music"}},
		{OSWindows, []string{"explorer", "/music"}},
		{OSLinux, []string{"xdg-open", "/music"}},
	}
	for _, tt := range tests {
		got, err := openCommand(tt.goos, "/music")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := openCommand("js", "/music")
	assert.ErrorIs(t, err, domain.ErrUnsupportedOS)
	assert.Equal(t, "UnsupportedOs", domain.Kind(err))
}

func TestOpenFolder_Errors(t *testing.T) {
	ctx := context.Background()

	err := openFolder(ctx, OSLinux, filepath.Join(t.TempDir(), "missing"))
	assert.True(t, errors.Is(err, os.ErrNotExist), "error = %v", err)

	file := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.Error(t, openFolder(ctx, OSLinux, file))

	assert.ErrorIs(t, openFolder(ctx, "plan9", t.TempDir()), domain.ErrUnsupportedOS)
}

func TestClipboard_ReadText(t *testing.T) {
	c := &Clipboard{read: func() (string, error) { return "https://www.youtube.com/watch?v=X", nil }}

	text, err := c.ReadText(context.Background())
	if clipboard.Unsupported {
		assert.ErrorIs(t, err, domain.ErrUnsupportedOS)
		return
	}
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/watch?v=X", text)
}

func TestClipboard_ReadError(t *testing.T) {
	if clipboard.Unsupported {
		t.Skip("no clipboard utility available")
	}
	c := &Clipboard{read: func() (string, error) { return "", errors.New("exit status 1") }}

	_, err := c.ReadText(context.Background())
	assert.ErrorContains(t, err, "exit status 1")
}

func TestClipboard_Cancelled(t *testing.T) {
	called := false
	c := &Clipboard{read: func() (string, error) { called = true; return "", nil }}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ReadText(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestClipboard_ImplementsLinkSource(t *testing.T) {
	var _ domain.LinkSource = (*Clipboard)(nil)
}
