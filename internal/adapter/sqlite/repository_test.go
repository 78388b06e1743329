package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwygoda/yaydl/internal/domain"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newRun(id string, started time.Time) *domain.Run {
	return &domain.Run{
		ID:        id,
		JobKey:    "X",
		URL:       "https://www.youtube.com/watch?v=X",
		Title:     "Song",
		Format:    "mp3",
		StartedAt: started,
	}
}

func TestRepository_Begin(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	run := newRun("r1", time.Time{})

	require.NoError(t, repo.Begin(ctx, run))
	assert.False(t, run.StartedAt.IsZero(), "Begin() should set StartedAt")

	got, err := repo.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.RunRunning, got.Status)
	assert.Equal(t, "Song", got.Title)
	assert.Equal(t, "mp3", got.Format)
	assert.Equal(t, "X", got.JobKey)
	assert.Nil(t, got.FinishedAt)

	assert.Error(t, repo.Begin(ctx, newRun("r1", time.Now())), "duplicate id")
}

func TestRepository_Get_NotFound(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestRepository_Finish(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Begin(ctx, newRun("ok", time.Now())))
	require.NoError(t, repo.Begin(ctx, newRun("bad", time.Now())))

	require.NoError(t, repo.Finish(ctx, "ok", domain.RunFinished, ""))
	require.NoError(t, repo.Finish(ctx, "bad", domain.RunFailed, "spawn failed"))

	ok, err := repo.Get(ctx, "ok")
	require.NoError(t, err)
	assert.Equal(t, domain.RunFinished, ok.Status)
	assert.Empty(t, ok.Error)
	assert.NotNil(t, ok.FinishedAt)

	bad, err := repo.Get(ctx, "bad")
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, bad.Status)
	assert.Equal(t, "spawn failed", bad.Error)

	assert.ErrorIs(t, repo.Finish(ctx, "missing", domain.RunFinished, ""), domain.ErrRunNotFound)
}

func TestRepository_Recent(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Begin(ctx, newRun(id, base.Add(time.Duration(i)*time.Minute))))
	}

	runs, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
}

func TestRepository_Recent_Empty(t *testing.T) {
	repo := setupTestRepo(t)

	runs, err := repo.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestNew_CreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")

	repo, err := New(dbPath)
	require.NoError(t, err)
	defer repo.Close()

	assert.DirExists(t, filepath.Dir(dbPath))
	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestRepository_RecoverStale(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	for _, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, repo.Begin(ctx, newRun(id, time.Now())))
	}
	require.NoError(t, repo.Finish(ctx, "r3", domain.RunFinished, ""))

	count, err := repo.RecoverStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	for _, id := range []string{"r1", "r2"} {
		run, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.RunFailed, run.Status, id)
		assert.Equal(t, interruptedReason, run.Error, id)
	}
	done, err := repo.Get(ctx, "r3")
	require.NoError(t, err)
	assert.Equal(t, domain.RunFinished, done.Status)
}

func TestRepository_ImplementsPort(t *testing.T) {
	var _ domain.RunRepository = (*Repository)(nil)
}
