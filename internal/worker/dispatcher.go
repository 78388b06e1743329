package worker

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/cwygoda/yaydl/internal/domain"
)

// Service is the part of domain.JobService the dispatcher drives.
type Service interface {
	FetchMetadata(ctx context.Context, url string) (domain.Metadata, error)
	Download(ctx context.Context, key string) error
	List() []domain.Job
}

// RequestKind selects the operation a Request runs.
type RequestKind string

const (
	KindMetadata RequestKind = "metadata"
	KindDownload RequestKind = "download"
)

// Request is one queued unit of work. Key is a URL for metadata and a job
// id or URL for downloads.
type Request struct {
	Kind RequestKind
	Key  string
}

// Dispatcher runs queued metadata fetches and extractions with bounded
// concurrency.
type Dispatcher struct {
	svc         Service
	queue       chan Request
	maxParallel int
	logger      *slog.Logger
}

// New creates a new dispatcher.
func New(svc Service, maxParallel, queueSize int, logger *slog.Logger) *Dispatcher {
	if maxParallel <= 0 {
		maxParallel = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{
		svc:         svc,
		queue:       make(chan Request, queueSize),
		maxParallel: maxParallel,
		logger:      logger,
	}
}

// EnqueueMetadata queues a metadata fetch for url.
func (d *Dispatcher) EnqueueMetadata(url string) error {
	return d.enqueue(Request{Kind: KindMetadata, Key: url})
}

// EnqueueDownload queues an extraction for the job matching key.
func (d *Dispatcher) EnqueueDownload(key string) error {
	return d.enqueue(Request{Kind: KindDownload, Key: key})
}

// EnqueueAll queues an extraction for every job not already extracting and
// returns how many were queued.
func (d *Dispatcher) EnqueueAll() (int, error) {
	n := 0
	for _, job := range d.svc.List() {
		if job.State.Kind == domain.StateLoading {
			continue
		}
		if err := d.EnqueueDownload(job.Key()); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Pending returns the number of queued requests not yet started.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

func (d *Dispatcher) enqueue(req Request) error {
	select {
	case d.queue <- req:
		return nil
	default:
		return fmt.Errorf("%w: %s %s", domain.ErrQueueFull, req.Kind, req.Key)
	}
}

// Run executes queued requests until ctx is cancelled, then waits for the
// requests already started.
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info("dispatcher started", "max_parallel", d.maxParallel)

	var g errgroup.Group
	g.SetLimit(d.maxParallel)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher shutting down", "pending", len(d.queue))
			g.Wait()
			return
		case req := <-d.queue:
			g.Go(func() error {
				d.process(ctx, req)
				return nil
			})
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, req Request) {
	switch req.Kind {
	case KindMetadata:
		if _, err := d.svc.FetchMetadata(ctx, req.Key); err != nil {
			d.logger.Warn("metadata request failed", "url", req.Key, "kind", domain.Kind(err), "error", err)
		}
	case KindDownload:
		if err := d.svc.Download(ctx, req.Key); err != nil {
			d.logger.Warn("download request failed", "job", req.Key, "kind", domain.Kind(err), "error", err)
		}
	default:
		d.logger.Error("unknown request kind", "kind", req.Kind, "key", req.Key)
	}
}
