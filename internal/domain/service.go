package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cwygoda/yaydl/internal/metrics"
)

var errNoLinkSource = errors.New("no link source configured")

// Ports bundles the collaborators of a JobService. Sink, Runs, Links and
// Logger are optional.
type Ports struct {
	Fetcher    MetadataFetcher
	Extractor  Extractor
	Settings   SettingsReader
	Sink       EventSink
	Runs       RunRepository
	Links      LinkSource
	LinkPrefix string
	Logger     *slog.Logger
}

// JobService is the application context: it owns the job store and drives
// metadata retrieval and extraction against it. Subprocess calls never run
// under the store lock.
//
// Metadata retrieval and extraction for the same job are not serialized
// against each other; only concurrent extractions of one job are rejected.
type JobService struct {
	store     *JobStore
	intake    *LinkIntake
	fetcher   MetadataFetcher
	extractor Extractor
	settings  SettingsReader
	sink      EventSink
	runs      RunRepository
	links     LinkSource
	logger    *slog.Logger
}

// NewJobService creates a new JobService with an empty store.
func NewJobService(p Ports) *JobService {
	store := NewJobStore()
	s := &JobService{
		store:     store,
		intake:    NewLinkIntake(store, p.LinkPrefix),
		fetcher:   p.Fetcher,
		extractor: p.Extractor,
		settings:  p.Settings,
		sink:      p.Sink,
		runs:      p.Runs,
		links:     p.Links,
		logger:    p.Logger,
	}
	if s.sink == nil {
		s.sink = discardSink{}
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

type discardSink struct{}

func (discardSink) Emit(Event) {}

// Store exposes the underlying job store.
func (s *JobService) Store() *JobStore {
	return s.store
}

// AddLink reads a candidate from the link source and adds it.
func (s *JobService) AddLink(ctx context.Context) (string, []Job, error) {
	if s.links == nil {
		return s.recordAdd(s.intake.TryAdd("", errNoLinkSource))
	}
	return s.recordAdd(s.intake.AddFrom(ctx, s.links))
}

// Submit adds an explicitly provided candidate link.
func (s *JobService) Submit(candidate string) (string, []Job, error) {
	return s.recordAdd(s.intake.TryAdd(candidate, nil))
}

func (s *JobService) recordAdd(url string, jobs []Job, err error) (string, []Job, error) {
	if err != nil {
		metrics.LinksRejected.WithLabelValues(Kind(err)).Inc()
		s.logger.Debug("link rejected", "error", err)
		return "", nil, err
	}
	metrics.LinksAdded.Inc()
	s.logger.Info("link added", "url", url, "jobs", len(jobs))
	return url, jobs, nil
}

// FetchMetadata retrieves metadata for url and attaches it to the matching
// job. A failed retrieval leaves the job in Failure.
func (s *JobService) FetchMetadata(ctx context.Context, url string) (Metadata, error) {
	s.store.SetMetadataLoading(url, true)

	md, err := s.fetcher.FetchMetadata(ctx, url)
	if err != nil {
		s.store.SetMetadataLoading(url, false)
		s.store.UpdateState(url, Failure())
		metrics.MetadataFetches.WithLabelValues(Kind(err)).Inc()
		s.logger.Error("metadata retrieval failed", "url", url, "error", err)
		return Metadata{}, fmt.Errorf("fetch metadata for %s: %w", url, err)
	}

	md.URL = url
	md.Loading = false
	if !s.store.UpdateMetadata(url, md) {
		s.logger.Debug("job gone before metadata arrived", "url", url)
	}
	metrics.MetadataFetches.WithLabelValues("ok").Inc()
	s.logger.Info("metadata retrieved", "url", url, "id", md.ID, "title", md.Title)
	return md, nil
}

// Download runs an extraction for the job matching key, driving its state
// from Loading(0) through progress to Finished or Failure.
func (s *JobService) Download(ctx context.Context, key string) error {
	job, ok := s.store.Find(key)
	if !ok {
		return ErrJobNotFound
	}
	id := job.Key()
	if !s.store.BeginRun(job.URL) {
		return ErrAlreadyRunning
	}
	defer s.store.EndRun(job.URL)

	settings := s.settings.Get()
	s.sink.Emit(DownloadProgress(id, 0))

	run := &Run{
		ID:        uuid.NewString(),
		JobKey:    id,
		URL:       job.URL,
		Title:     job.Metadata.Title,
		Format:    settings.OutputFormat,
		Status:    RunRunning,
		StartedAt: time.Now(),
	}
	s.beginRun(ctx, run)
	metrics.DownloadsStarted.Inc()
	s.logger.Info("extraction started", "job", id, "run", run.ID, "format", settings.OutputFormat)

	start := time.Now()
	err := s.extractor.Extract(ctx, ExtractRequest{
		JobID:        id,
		URL:          job.URL,
		OutputDir:    settings.OutputDir,
		OutputFormat: settings.OutputFormat,
	}, func(percent uint8) {
		s.store.UpdateState(id, Loading(percent))
		s.sink.Emit(DownloadProgress(id, percent))
	})
	metrics.DownloadDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		s.store.UpdateState(id, Failure())
		s.finishRun(ctx, run.ID, RunFailed, err.Error())
		metrics.DownloadsFailed.Inc()
		s.logger.Error("extraction failed", "job", id, "run", run.ID, "error", err)
		return fmt.Errorf("extract %s: %w", job.URL, err)
	}

	s.store.UpdateState(id, Finished())
	s.finishRun(ctx, run.ID, RunFinished, "")
	metrics.DownloadsFinished.Inc()
	s.logger.Info("extraction finished", "job", id, "run", run.ID, "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

func (s *JobService) beginRun(ctx context.Context, run *Run) {
	if s.runs == nil {
		return
	}
	if err := s.runs.Begin(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Warn("failed to record run start", "run", run.ID, "error", err)
	}
}

func (s *JobService) finishRun(ctx context.Context, id string, status RunStatus, reason string) {
	if s.runs == nil {
		return
	}
	if err := s.runs.Finish(context.WithoutCancel(ctx), id, status, reason); err != nil {
		s.logger.Warn("failed to record run end", "run", id, "error", err)
	}
}

// UpdateState applies a state reported by the UI. MetadataLoading toggles the
// job's metadata loading flag instead of replacing its state.
func (s *JobService) UpdateState(key string, state State) {
	if state.Kind == StateMetadataLoading {
		if job, ok := s.store.Find(key); ok {
			s.store.SetMetadataLoading(key, !job.Metadata.Loading)
		}
		return
	}
	s.store.UpdateState(key, state)
}

// Find returns the job matching key by id or URL.
func (s *JobService) Find(key string) (Job, bool) {
	return s.store.Find(key)
}

// List returns a snapshot of all jobs, newest first.
func (s *JobService) List() []Job {
	return s.store.List()
}

// Clear removes every job.
func (s *JobService) Clear() {
	n := s.store.Len()
	s.store.Clear()
	s.logger.Info("jobs cleared", "count", n)
}

// Settings returns the current settings.
func (s *JobService) Settings() Settings {
	return s.settings.Get()
}

// History returns the most recent runs.
func (s *JobService) History(ctx context.Context, limit int) ([]Run, error) {
	if s.runs == nil {
		return nil, nil
	}
	return s.runs.Recent(ctx, limit)
}

// Run returns the run with id.
func (s *JobService) Run(ctx context.Context, id string) (*Run, error) {
	if s.runs == nil {
		return nil, ErrRunNotFound
	}
	return s.runs.Get(ctx, id)
}

// RecoverStale marks runs left running by a previous process as failed.
func (s *JobService) RecoverStale(ctx context.Context) (int64, error) {
	if s.runs == nil {
		return 0, nil
	}
	return s.runs.RecoverStale(ctx)
}
