package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kburke8/poe-watcher/internal/poeapi"
)

// errorBody is the JSON envelope for every error response.
type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// writeError maps domain errors onto HTTP status codes and writes the
// JSON error envelope.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	var statusErr *poeapi.StatusError
	switch {
	case errors.Is(err, poeapi.ErrProfilePrivate):
		status = http.StatusForbidden
	case errors.Is(err, poeapi.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.As(err, &statusErr):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}

	writeJSON(w, status, errorBody{Error: err.Error(), RequestID: GetRequestID(r.Context())})
}

// writeBadRequest reports invalid client input.
func (s *Server) writeBadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg, RequestID: GetRequestID(r.Context())})
}

// writeNotFound reports a missing resource.
func (s *Server) writeNotFound(w http.ResponseWriter, r *http.Request, msg string) {
	writeJSON(w, http.StatusNotFound, errorBody{Error: msg, RequestID: GetRequestID(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
