package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/cwygoda/yaydl/internal/adapter/http"
	"github.com/cwygoda/yaydl/internal/adapter/platform"
	"github.com/cwygoda/yaydl/internal/adapter/sqlite"
	"github.com/cwygoda/yaydl/internal/adapter/ytdlp"
	"github.com/cwygoda/yaydl/internal/config"
	"github.com/cwygoda/yaydl/internal/domain"
	"github.com/cwygoda/yaydl/internal/event"
	"github.com/cwygoda/yaydl/internal/update"
	"github.com/cwygoda/yaydl/internal/worker"
)

// version is set at build time with -ldflags "-X main.version=v1.2.3".
var version = update.DevVersion

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("yaydl failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.SetupLogger(cfg, os.Stdout)
	logger.Info("starting yaydl", "version", version, "addr", cfg.Addr, "db", cfg.DBPath, "config_dir", cfg.ConfigDir)

	settings, err := config.OpenSettings(cfg.ConfigDir)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	logger.Info("settings loaded", "path", settings.Path(), "output_dir", settings.Get().OutputDir, "format", settings.Get().OutputFormat)

	repo, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tool := ytdlp.New(cfg.YtDlp, logger.With("component", "yt-dlp"))
	if v, err := tool.Version(ctx); err != nil {
		logger.Warn("yt-dlp not usable, extractions will fail", "binary", tool.Binary(), "error", err)
	} else {
		logger.Info("yt-dlp found", "binary", tool.Binary(), "version", v)
	}

	bus := event.NewBus(event.DefaultBuffer, logger.With("component", "events"))

	svc := domain.NewJobService(domain.Ports{
		Fetcher:    tool,
		Extractor:  tool,
		Settings:   settings,
		Sink:       bus,
		Runs:       repo,
		Links:      platform.NewClipboard(),
		LinkPrefix: cfg.LinkPrefix,
		Logger:     logger.With("component", "jobs"),
	})

	// Runs left running by a previous process
	if recovered, err := svc.RecoverStale(ctx); err != nil {
		logger.Warn("failed to recover stale runs", "error", err)
	} else if recovered > 0 {
		logger.Info("marked interrupted runs as failed", "count", recovered)
	}

	dispatcher := worker.New(svc, cfg.MaxParallel, cfg.QueueSize, logger.With("component", "dispatcher"))

	updater := update.NewSupervisor(update.Options{
		Repo:     cfg.UpdateRepo,
		Version:  version,
		Simulate: cfg.Simulated(),
		Sink:     bus,
		Logger:   logger.With("component", "updater"),
	})

	srv := httpAdapter.NewServer(httpAdapter.Deps{
		Jobs:         svc,
		Dispatcher:   dispatcher,
		Settings:     settings,
		Updater:      updater,
		Events:       bus,
		OpenFolder:   platform.OpenFolder,
		AutoMetadata: cfg.AutoMetadata,
		Logger:       logger.With("component", "http"),
	}, cfg.Addr)

	dispatchDone := make(chan struct{})
	go func() {
		dispatcher.Run(ctx)
		close(dispatchDone)
	}()

	go checkForUpdate(ctx, updater, logger)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serveErr:
		stop()
		<-dispatchDone
		return fmt.Errorf("HTTP server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	<-dispatchDone

	logger.Info("shutdown complete")
	return nil
}

// checkForUpdate runs the startup update check. Failures are only logged.
func checkForUpdate(ctx context.Context, updater *update.Supervisor, logger *slog.Logger) {
	available, err := updater.Check(ctx)
	if err != nil {
		logger.Warn("startup update check failed", "kind", domain.Kind(err), "error", err)
		return
	}
	if available {
		logger.Info("an update is available", "simulated", updater.Simulated())
	}
}
