package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kburke8/poe-watcher/internal/core"
	"github.com/kburke8/poe-watcher/internal/output"
	"github.com/kburke8/poe-watcher/internal/version"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, version.Get())
}

// accountFrom resolves the account for character endpoints: the query
// parameter wins, the configured default fills in.
func (s *Server) accountFrom(r *http.Request) string {
	if account := r.URL.Query().Get("account"); account != "" {
		return account
	}
	return s.account
}

func (s *Server) handleCharacters(w http.ResponseWriter, r *http.Request) {
	account := s.accountFrom(r)
	if account == "" {
		s.writeBadRequest(w, r, "account is required")
		return
	}

	characters, err := s.api.Characters(r.Context(), account)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, characters)
}

func (s *Server) handleCharacterItems(w http.ResponseWriter, r *http.Request) {
	account := s.accountFrom(r)
	if account == "" {
		s.writeBadRequest(w, r, "account is required")
		return
	}

	items, err := s.api.Items(r.Context(), account, chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCharacterPassives(w http.ResponseWriter, r *http.Request) {
	account := s.accountFrom(r)
	if account == "" {
		s.writeBadRequest(w, r, "account is required")
		return
	}

	passives, err := s.api.PassiveSkills(r.Context(), account, chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, passives)
}

// runFiltersFrom builds run filters from query parameters. Unset
// parameters leave the filter field nil.
func runFiltersFrom(r *http.Request) (core.RunFilters, error) {
	var filters core.RunFilters
	q := r.URL.Query()

	optional := func(key string) *string {
		if v := q.Get(key); v != "" {
			return &v
		}
		return nil
	}
	filters.Class = optional("class")
	filters.Ascendancy = optional("ascendancy")
	filters.Category = optional("category")
	filters.League = optional("league")
	filters.BreakpointPreset = optional("preset")

	for key, dst := range map[string]**bool{
		"completed":         &filters.IsCompleted,
		"include_reference": &filters.IncludeReference,
	} {
		if v := q.Get(key); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return filters, fmt.Errorf("invalid %s value %q", key, v)
			}
			*dst = &parsed
		}
	}
	return filters, nil
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	filters, err := runFiltersFrom(r)
	if err != nil {
		s.writeBadRequest(w, r, err.Error())
		return
	}

	runs, err := s.store.ListRuns(r.Context(), filters)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRunStats(w http.ResponseWriter, r *http.Request) {
	filters, err := runFiltersFrom(r)
	if err != nil {
		s.writeBadRequest(w, r, err.Error())
		return
	}

	stats, err := s.store.RunStats(r.Context(), filters)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSplitStats(w http.ResponseWriter, r *http.Request) {
	filters, err := runFiltersFrom(r)
	if err != nil {
		s.writeBadRequest(w, r, err.Error())
		return
	}

	stats, err := s.store.SplitStats(r.Context(), filters)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) runIDFrom(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeBadRequest(w, r, "invalid run id")
		return 0, false
	}
	return id, true
}

// runDetail is the /api/runs/{id} response body.
type runDetail struct {
	Run    core.Run     `json:"run"`
	Splits []core.Split `json:"splits"`
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, ok := s.runIDFrom(w, r)
	if !ok {
		return
	}

	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if run == nil {
		s.writeNotFound(w, r, "run not found")
		return
	}

	splits, err := s.store.SplitsByRun(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, runDetail{Run: *run, Splits: splits})
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id, ok := s.runIDFrom(w, r)
	if !ok {
		return
	}

	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if run == nil {
		s.writeNotFound(w, r, "run not found")
		return
	}

	if err := s.store.DeleteRun(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportRun(w http.ResponseWriter, r *http.Request) {
	id, ok := s.runIDFrom(w, r)
	if !ok {
		return
	}

	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if run == nil {
		s.writeNotFound(w, r, "run not found")
		return
	}

	splits, err := s.store.SplitsByRun(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	snapshots, err := s.store.SnapshotsByRun(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, output.ExportRun(*run, splits, snapshots, time.Now()))
}

// bestsResponse is the /api/bests response body.
type bestsResponse struct {
	PersonalBests []core.PersonalBest `json:"personalBests"`
	GoldSplits    []core.GoldSplit    `json:"goldSplits"`
}

func (s *Server) handleBests(w http.ResponseWriter, r *http.Request) {
	bests, err := s.store.ListPersonalBests(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	golds, err := s.store.ListGoldSplits(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bestsResponse{PersonalBests: bests, GoldSplits: golds})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.LoadSettings(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var settings core.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		s.writeBadRequest(w, r, "invalid request body")
		return
	}
	if settings.OverlayOpacity < 0 || settings.OverlayOpacity > 1 {
		s.writeBadRequest(w, r, "overlayOpacity must be between 0 and 1")
		return
	}

	if err := s.store.SaveSettings(r.Context(), settings); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// handleEvents streams tracker events as server-sent events until the
// client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, r, fmt.Errorf("response writer does not support streaming"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, cancel := s.hub.Subscribe()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(ev.Payload)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, payload)
			flusher.Flush()
		}
	}
}

func (s *Server) handleImageProxy(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		s.writeBadRequest(w, r, "url is required")
		return
	}

	maxDim := 0
	if v := r.URL.Query().Get("max"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			s.writeBadRequest(w, r, "invalid max value")
			return
		}
		maxDim = parsed
	}

	dataURL, err := s.api.ProxyImage(r.Context(), rawURL, maxDim)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"dataUrl": dataURL})
}

// pobUploadRequest is the POST /api/pob/upload request body.
type pobUploadRequest struct {
	Code string `json:"code"`
}

func (s *Server) handlePoBUpload(w http.ResponseWriter, r *http.Request) {
	var req pobUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadRequest(w, r, "invalid request body")
		return
	}
	if req.Code == "" {
		s.writeBadRequest(w, r, "code is required")
		return
	}

	url, err := s.api.UploadPoB(r.Context(), req.Code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
