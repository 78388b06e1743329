package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwygoda/yaydl/internal/domain"
)

// mockService implements Service for testing.
type mockService struct {
	mu        sync.Mutex
	jobs      []domain.Job
	metadata  []string
	downloads []string
	err       error

	block   chan struct{}
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (m *mockService) enter() {
	n := m.active.Add(1)
	for {
		seen := m.maxSeen.Load()
		if n <= seen || m.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if m.block != nil {
		<-m.block
	}
	m.active.Add(-1)
}

func (m *mockService) FetchMetadata(ctx context.Context, url string) (domain.Metadata, error) {
	m.enter()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metadata = append(m.metadata, url)
	return domain.Metadata{URL: url}, m.err
}

func (m *mockService) Download(ctx context.Context, key string) error {
	m.enter()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloads = append(m.downloads, key)
	return m.err
}

func (m *mockService) List() []domain.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Job(nil), m.jobs...)
}

func (m *mockService) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.metadata), len(m.downloads)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}

func TestDispatcher_RunsRequests(t *testing.T) {
	svc := &mockService{}
	d := New(svc, 2, 8, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	require.NoError(t, d.EnqueueMetadata("https://www.youtube.com/watch?v=A"))
	require.NoError(t, d.EnqueueDownload("A"))

	waitFor(t, func() bool {
		m, dl := svc.counts()
		return m == 1 && dl == 1
	})

	cancel()
	<-done
}

func TestDispatcher_FailuresDoNotStopLoop(t *testing.T) {
	svc := &mockService{err: domain.ErrProcessSpawnFailed}
	d := New(svc, 1, 8, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.EnqueueDownload("A")
	d.EnqueueDownload("B")

	waitFor(t, func() bool {
		_, dl := svc.counts()
		return dl == 2
	})
}

func TestDispatcher_QueueFull(t *testing.T) {
	d := New(&mockService{}, 1, 1, nil)

	require.NoError(t, d.EnqueueDownload("A"))
	assert.ErrorIs(t, d.EnqueueDownload("B"), domain.ErrQueueFull)
	assert.Equal(t, 1, d.Pending())
}

func TestDispatcher_EnqueueAll(t *testing.T) {
	svc := &mockService{jobs: []domain.Job{
		{ID: "A", URL: "https://www.youtube.com/watch?v=A", State: domain.Finished()},
		{URL: "https://www.youtube.com/watch?v=B", State: domain.Idle()},
		{ID: "C", URL: "https://www.youtube.com/watch?v=C", State: domain.Loading(40)},
		{ID: "D", URL: "https://www.youtube.com/watch?v=D", State: domain.Failure()},
	}}
	d := New(svc, 1, 8, nil)

	n, err := d.EnqueueAll()
	require.NoError(t, err)
	require.Equal(t, 3, n)

	var keys []string
	for i := 0; i < n; i++ {
		req := <-d.queue
		assert.Equal(t, KindDownload, req.Kind)
		keys = append(keys, req.Key)
	}
	assert.Equal(t, []string{"A", "https://www.youtube.com/watch?v=B", "D"}, keys)
}

func TestDispatcher_EnqueueAll_QueueFull(t *testing.T) {
	svc := &mockService{jobs: []domain.Job{
		{ID: "A", State: domain.Idle()},
		{ID: "B", State: domain.Idle()},
	}}
	d := New(svc, 1, 1, nil)

	n, err := d.EnqueueAll()
	assert.ErrorIs(t, err, domain.ErrQueueFull)
	assert.Equal(t, 1, n)
}

func TestDispatcher_RespectsLimit(t *testing.T) {
	svc := &mockService{block: make(chan struct{})}
	d := New(svc, 2, 8, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	for _, k := range []string{"A", "B", "C", "D"} {
		d.EnqueueDownload(k)
	}

	waitFor(t, func() bool { return svc.active.Load() == 2 })
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(2), svc.maxSeen.Load(), "max concurrent")

	close(svc.block)
	waitFor(t, func() bool {
		_, dl := svc.counts()
		return dl == 4
	})
	cancel()
	<-done
}

func TestDispatcher_ShutdownWaitsForInFlight(t *testing.T) {
	svc := &mockService{block: make(chan struct{})}
	d := New(svc, 1, 8, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	d.EnqueueDownload("A")
	waitFor(t, func() bool { return svc.active.Load() == 1 })

	cancel()
	select {
	case <-done:
		t.Fatal("Run returned before in-flight request finished")
	case <-time.After(30 * time.Millisecond):
	}

	close(svc.block)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after in-flight request finished")
	}
}
