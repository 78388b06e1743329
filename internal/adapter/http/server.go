package http

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cwygoda/yaydl/internal/config"
	"github.com/cwygoda/yaydl/internal/domain"
	"github.com/cwygoda/yaydl/internal/update"
)

// JobService is the core the control API drives.
type JobService interface {
	AddLink(ctx context.Context) (string, []domain.Job, error)
	Submit(candidate string) (string, []domain.Job, error)
	FetchMetadata(ctx context.Context, url string) (domain.Metadata, error)
	Find(key string) (domain.Job, bool)
	List() []domain.Job
	Clear()
	UpdateState(key string, state domain.State)
	History(ctx context.Context, limit int) ([]domain.Run, error)
	Run(ctx context.Context, id string) (*domain.Run, error)
}

// Dispatcher queues background work.
type Dispatcher interface {
	EnqueueMetadata(url string) error
	EnqueueDownload(key string) error
	EnqueueAll() (int, error)
}

// SettingsStore reads and updates user settings.
type SettingsStore interface {
	Get() domain.Settings
	Apply(p config.SettingsPatch) (domain.Settings, error)
}

// Updater runs update cycles.
type Updater interface {
	Check(ctx context.Context) (bool, error)
	Start(ctx context.Context) error
	State() update.State
}

// EventSource hands out event subscriptions.
type EventSource interface {
	Subscribe() (string, <-chan domain.Event, func())
}

// Deps bundles the collaborators of a Server.
type Deps struct {
	Jobs         JobService
	Dispatcher   Dispatcher
	Settings     SettingsStore
	Updater      Updater
	Events       EventSource
	OpenFolder   func(ctx context.Context, dir string) error
	AutoMetadata bool
	Logger       *slog.Logger
}

// Server is the HTTP adapter for the control API.
type Server struct {
	deps     Deps
	router   chi.Router
	server   *http.Server
	validate *validator.Validate
	logger   *slog.Logger
}

// NewServer creates a new HTTP server.
func NewServer(deps Deps, addr string) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		deps:     deps,
		router:   chi.NewRouter(),
		validate: validator.New(),
		logger:   logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Post("/links", s.handleAddLink)
	r.Post("/metadata", s.handleMetadata)

	r.Route("/jobs", func(r chi.Router) {
		r.Get("/", s.handleListJobs)
		r.Delete("/", s.handleClearJobs)
		r.Put("/{key}/state", s.handleUpdateState)
		r.Post("/{key}/download", s.handleDownload)
	})
	r.Post("/downloads", s.handleDownloadAll)

	r.Get("/settings", s.handleGetSettings)
	r.Put("/settings", s.handlePutSettings)
	r.Post("/open-folder", s.handleOpenFolder)

	r.Get("/update", s.handleCheckUpdate)
	r.Post("/update", s.handleStartUpdate)

	r.Get("/history", s.handleHistory)
	r.Get("/history/{id}", s.handleRun)
	r.Get("/events", s.handleEvents)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// ServeHTTP implements http.Handler for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Addr returns the server address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Port extracts the port from the address.
func (s *Server) Port() int {
	_, port, err := net.SplitHostPort(s.server.Addr)
	if err != nil {
		return 0
	}
	p, _ := strconv.Atoi(port)
	return p
}
