package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cwygoda/yaydl/internal/domain"
)

var errBadRequest = errors.New("bad request")

// errorResponse is the JSON error response.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

var statuses = []struct {
	err    error
	status int
}{
	{errBadRequest, http.StatusBadRequest},
	{domain.ErrAlreadyAdded, http.StatusConflict},
	{domain.ErrNoValidLink, http.StatusUnprocessableEntity},
	{domain.ErrClipboardRead, http.StatusServiceUnavailable},
	{domain.ErrJobNotFound, http.StatusNotFound},
	{domain.ErrRunNotFound, http.StatusNotFound},
	{domain.ErrAlreadyRunning, http.StatusConflict},
	{domain.ErrQueueFull, http.StatusServiceUnavailable},
	{domain.ErrBuildFailed, http.StatusInternalServerError},
	{domain.ErrUnsupportedOS, http.StatusNotImplemented},
	{domain.ErrRetrievalFailed, http.StatusBadGateway},
	{domain.ErrParsingFailed, http.StatusBadGateway},
	{domain.ErrMissingFields, http.StatusBadGateway},
	{domain.ErrUTF8Conversion, http.StatusBadGateway},
	{domain.ErrProcessSpawnFailed, http.StatusBadGateway},
	{domain.ErrCheckFailed, http.StatusBadGateway},
}

func statusFor(err error) int {
	for _, s := range statuses {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

func kindOf(err error) string {
	if errors.Is(err, errBadRequest) {
		return "BadRequest"
	}
	return domain.Kind(err)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps err to a status code and writes it with its kind.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeErrorStatus(w, statusFor(err), err)
}

func (s *Server) writeErrorStatus(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kindOf(err)})
}
