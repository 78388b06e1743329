// Package update checks for, downloads and applies application updates.
package update

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/cwygoda/yaydl/internal/domain"
	"github.com/cwygoda/yaydl/internal/metrics"
)

const (
	// DefaultAPIBase is the GitHub REST API root.
	DefaultAPIBase = "https://api.github.com"
	// DefaultSimulationDelay separates simulated progress steps.
	DefaultSimulationDelay = 150 * time.Millisecond

	userAgent = "yaydl-updater/1.0"
)

// Restarter replaces the running process with the binary at exe.
type Restarter interface {
	Restart(exe string) error
}

// State is the progress of the current update cycle.
type State struct {
	Available       bool  `json:"available"`
	DownloadedBytes int64 `json:"downloaded_bytes"`
	TotalBytes      int64 `json:"total_bytes"`
}

// Options configures a Supervisor. Zero values select defaults.
type Options struct {
	Repo            string
	APIBase         string
	Version         string
	Simulate        bool
	SimulationDelay time.Duration
	GOOS            string
	GOARCH          string
	Client          *http.Client
	Executable      func() (string, error)
	Restarter       Restarter
	Sink            domain.EventSink
	Logger          *slog.Logger
}

// Supervisor runs update cycles. Cycles are not serialized against each other.
type Supervisor struct {
	repo       string
	apiBase    string
	version    string
	simulate   bool
	delay      time.Duration
	goos       string
	goarch     string
	client     *http.Client
	executable func() (string, error)
	restarter  Restarter
	sink       domain.EventSink
	logger     *slog.Logger

	mu    sync.Mutex
	state State
}

// NewSupervisor creates a Supervisor from opts.
func NewSupervisor(opts Options) *Supervisor {
	s := &Supervisor{
		repo:       opts.Repo,
		apiBase:    opts.APIBase,
		version:    opts.Version,
		simulate:   opts.Simulate,
		delay:      opts.SimulationDelay,
		goos:       opts.GOOS,
		goarch:     opts.GOARCH,
		client:     opts.Client,
		executable: opts.Executable,
		restarter:  opts.Restarter,
		sink:       opts.Sink,
		logger:     opts.Logger,
	}
	if s.apiBase == "" {
		s.apiBase = DefaultAPIBase
	}
	if s.version == "" {
		s.version = DevVersion
	}
	if s.delay <= 0 {
		s.delay = DefaultSimulationDelay
	}
	if s.goos == "" {
		s.goos = runtime.GOOS
	}
	if s.goarch == "" {
		s.goarch = runtime.GOARCH
	}
	if s.client == nil {
		s.client = &http.Client{Timeout: 30 * time.Minute}
	}
	if s.executable == nil {
		s.executable = os.Executable
	}
	if s.restarter == nil {
		s.restarter = execRestarter{}
	}
	if s.sink == nil {
		s.sink = nopSink{}
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

type nopSink struct{}

func (nopSink) Emit(domain.Event) {}

// Simulated reports whether the supervisor runs the synthetic ramp.
func (s *Supervisor) Simulated() bool {
	return s.simulate
}

// State returns a copy of the current cycle's progress.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Check reports whether a newer release exists.
func (s *Supervisor) Check(ctx context.Context) (bool, error) {
	if s.simulate {
		s.setAvailable(true)
		return true, nil
	}

	release, err := s.latest(ctx)
	if err != nil {
		metrics.UpdateCycles.WithLabelValues("check_failed").Inc()
		return false, fmt.Errorf("%w: %w", domain.ErrCheckFailed, err)
	}
	newer, err := IsNewer(s.version, release.TagName)
	if err != nil {
		metrics.UpdateCycles.WithLabelValues("check_failed").Inc()
		return false, fmt.Errorf("%w: %w", domain.ErrCheckFailed, err)
	}

	s.setAvailable(newer)
	s.logger.Info("update check", "current", s.version, "latest", release.TagName, "available", newer)
	return newer, nil
}

// Start runs one update cycle: re-check, download with progress events,
// install, signal completion and restart. It returns nil without changes when
// no newer release exists.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	s.state = State{}
	s.mu.Unlock()

	if s.simulate {
		return s.runSimulation(ctx)
	}

	exe, err := s.executable()
	if err != nil {
		metrics.UpdateCycles.WithLabelValues("build_failed").Inc()
		return fmt.Errorf("%w: executable path: %w", domain.ErrBuildFailed, err)
	}
	assetName, err := AssetName(s.goos, s.goarch)
	if err != nil {
		metrics.UpdateCycles.WithLabelValues("build_failed").Inc()
		return fmt.Errorf("%w: %w: %w", domain.ErrBuildFailed, domain.ErrUnsupportedOS, err)
	}

	release, err := s.latest(ctx)
	if err != nil {
		metrics.UpdateCycles.WithLabelValues("check_failed").Inc()
		return fmt.Errorf("%w: %w", domain.ErrCheckFailed, err)
	}
	newer, err := IsNewer(s.version, release.TagName)
	if err != nil {
		metrics.UpdateCycles.WithLabelValues("check_failed").Inc()
		return fmt.Errorf("%w: %w", domain.ErrCheckFailed, err)
	}
	s.setAvailable(newer)
	if !newer {
		s.logger.Info("already up to date", "current", s.version, "latest", release.TagName)
		metrics.UpdateCycles.WithLabelValues("up_to_date").Inc()
		return nil
	}

	asset := release.Find(assetName)
	if asset == nil {
		metrics.UpdateCycles.WithLabelValues("build_failed").Inc()
		return fmt.Errorf("%w: release %s has no asset %s", domain.ErrBuildFailed, release.TagName, assetName)
	}
	s.logger.Info("downloading update", "version", release.TagName, "asset", asset.Name, "size", humanize.Bytes(uint64(asset.Size)))

	newPath := exe + ".new"
	os.Remove(newPath)

	start := time.Now()
	var last uint8
	s.sink.Emit(domain.UpdateProgress(0))
	n, err := s.download(ctx, asset.BrowserDownloadURL, newPath, asset.Size, func(downloaded, total int64) {
		s.mu.Lock()
		s.state.DownloadedBytes = downloaded
		s.state.TotalBytes = total
		s.mu.Unlock()
		if p := Percent(downloaded, total); p != last {
			last = p
			s.sink.Emit(domain.UpdateProgress(p))
		}
	})
	if err != nil {
		os.Remove(newPath)
		metrics.UpdateCycles.WithLabelValues("failed").Inc()
		return fmt.Errorf("%w: %w", domain.ErrDownloadAndInstallFailed, err)
	}
	s.logger.Info("update downloaded", "bytes", humanize.Bytes(uint64(n)), "elapsed", time.Since(start))

	if err := install(exe, newPath); err != nil {
		os.Remove(newPath)
		metrics.UpdateCycles.WithLabelValues("failed").Inc()
		return fmt.Errorf("%w: %w", domain.ErrDownloadAndInstallFailed, err)
	}
	s.logger.Info("update installed", "path", exe, "version", release.TagName)
	s.sink.Emit(domain.UpdateFinished())
	metrics.UpdateCycles.WithLabelValues("installed").Inc()

	if err := s.restarter.Restart(exe); err != nil {
		return fmt.Errorf("%w: restart: %w", domain.ErrDownloadAndInstallFailed, err)
	}
	return nil
}

// runSimulation emits 0, 10, ..., 100 and a completion signal without
// touching the network or restarting.
func (s *Supervisor) runSimulation(ctx context.Context) error {
	s.logger.Info("simulating update cycle")
	s.setAvailable(true)
	for p := 0; p <= 100; p += 10 {
		s.sink.Emit(domain.UpdateProgress(uint8(p)))
		s.mu.Lock()
		s.state.DownloadedBytes = int64(p)
		s.state.TotalBytes = 100
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.delay):
		}
	}
	s.sink.Emit(domain.UpdateFinished())
	metrics.UpdateCycles.WithLabelValues("simulated").Inc()
	return nil
}

func (s *Supervisor) setAvailable(v bool) {
	s.mu.Lock()
	s.state.Available = v
	s.mu.Unlock()
}
