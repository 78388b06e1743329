package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/cwygoda/yaydl/internal/config"
	"github.com/cwygoda/yaydl/internal/domain"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
	maxBodySize         = 1 << 20
)

// linkRequest is the request body for POST /links. An empty URL reads the
// clipboard.
type linkRequest struct {
	URL string `json:"url" validate:"max=4096"`
}

// linkResponse is the response for POST /links.
type linkResponse struct {
	URL  string       `json:"url"`
	Jobs []domain.Job `json:"jobs"`
}

// metadataRequest is the request body for POST /metadata.
type metadataRequest struct {
	URL string `json:"url" validate:"required,max=4096"`
}

// stateRequest is the request body for PUT /jobs/{key}/state.
type stateRequest struct {
	State   domain.StateKind `json:"state" validate:"required,oneof=idle metadata_loading loading finished failure"`
	Percent uint8            `json:"percent" validate:"max=100"`
}

// updateResponse is the response for GET /update.
type updateResponse struct {
	Available bool  `json:"available"`
	Simulated bool  `json:"simulated,omitempty"`
	Downloads int64 `json:"downloaded_bytes"`
	Total     int64 `json:"total_bytes"`
}

// decode reads an optional JSON body into v and validates it.
func (s *Server) decode(r *http.Request, v any, optional bool) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(v)
	if errors.Is(err, io.EOF) && optional {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err)
	}
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func pathKey(r *http.Request) (string, error) {
	key, err := url.PathUnescape(chi.URLParam(r, "key"))
	if err != nil || key == "" {
		return "", fmt.Errorf("%w: invalid job key", errBadRequest)
	}
	return key, nil
}

func (s *Server) handleAddLink(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := s.decode(r, &req, true); err != nil {
		s.writeError(w, err)
		return
	}

	var (
		link string
		jobs []domain.Job
		err  error
	)
	if req.URL == "" {
		link, jobs, err = s.deps.Jobs.AddLink(r.Context())
	} else {
		link, jobs, err = s.deps.Jobs.Submit(req.URL)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	if s.deps.AutoMetadata && s.deps.Dispatcher != nil {
		if err := s.deps.Dispatcher.EnqueueMetadata(link); err != nil {
			s.logger.Warn("could not queue metadata fetch", "url", link, "error", err)
		}
	}
	s.writeJSON(w, http.StatusCreated, linkResponse{URL: link, Jobs: jobs})
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	var req metadataRequest
	if err := s.decode(r, &req, false); err != nil {
		s.writeError(w, err)
		return
	}

	md, err := s.deps.Jobs.FetchMetadata(r.Context(), req.URL)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, md)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.deps.Jobs.List()
	if jobs == nil {
		jobs = []domain.Job{}
	}
	s.writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleClearJobs(w http.ResponseWriter, r *http.Request) {
	s.deps.Jobs.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateState(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req stateRequest
	if err := s.decode(r, &req, false); err != nil {
		s.writeError(w, err)
		return
	}

	// Unknown keys are ignored.
	s.deps.Jobs.UpdateState(key, domain.State{Kind: req.State, Percent: req.Percent})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if _, ok := s.deps.Jobs.Find(key); !ok {
		s.writeError(w, fmt.Errorf("%w: %s", domain.ErrJobNotFound, key))
		return
	}
	if err := s.deps.Dispatcher.EnqueueDownload(key); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]any{"queued": key})
}

func (s *Server) handleDownloadAll(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Dispatcher.EnqueueAll()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]any{"queued": n})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.deps.Settings.Get())
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var patch config.SettingsPatch
	if err := s.decode(r, &patch, false); err != nil {
		s.writeError(w, err)
		return
	}

	settings, err := s.deps.Settings.Apply(patch)
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			s.writeErrorStatus(w, http.StatusUnprocessableEntity, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleOpenFolder(w http.ResponseWriter, r *http.Request) {
	dir := s.deps.Settings.Get().OutputDir
	if err := s.deps.OpenFolder(r.Context(), dir); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type simulator interface {
	Simulated() bool
}

func (s *Server) handleCheckUpdate(w http.ResponseWriter, r *http.Request) {
	available, err := s.deps.Updater.Check(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	state := s.deps.Updater.State()
	resp := updateResponse{
		Available: available,
		Downloads: state.DownloadedBytes,
		Total:     state.TotalBytes,
	}
	if sim, ok := s.deps.Updater.(simulator); ok {
		resp.Simulated = sim.Simulated()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStartUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	go func() {
		if err := s.deps.Updater.Start(ctx); err != nil {
			s.logger.Error("update failed", "kind", domain.Kind(err), "error", err)
		}
	}()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, fmt.Errorf("%w: invalid limit %q", errBadRequest, v))
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	runs, err := s.deps.Jobs.History(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if runs == nil {
		runs = []domain.Run{}
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.deps.Jobs.Run(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
