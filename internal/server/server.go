// Package server exposes the recorded runs, live tracker events and the
// character-window API over HTTP for overlays and other local clients.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kburke8/poe-watcher/internal/config"
	"github.com/kburke8/poe-watcher/internal/core"
	"github.com/kburke8/poe-watcher/internal/poeapi"
)

// RunStore is the slice of the persistence layer the server reads from.
type RunStore interface {
	ListRuns(ctx context.Context, filters core.RunFilters) ([]core.Run, error)
	GetRun(ctx context.Context, id int64) (*core.Run, error)
	DeleteRun(ctx context.Context, id int64) error
	RunStats(ctx context.Context, filters core.RunFilters) (core.RunStats, error)
	SplitsByRun(ctx context.Context, runID int64) ([]core.Split, error)
	SplitStats(ctx context.Context, filters core.RunFilters) ([]core.SplitStat, error)
	SnapshotsByRun(ctx context.Context, runID int64) ([]core.Snapshot, error)
	ListPersonalBests(ctx context.Context) ([]core.PersonalBest, error)
	ListGoldSplits(ctx context.Context) ([]core.GoldSplit, error)
	LoadSettings(ctx context.Context) (core.Settings, error)
	SaveSettings(ctx context.Context, settings core.Settings) error
}

// CharacterAPI is the slice of the pathofexile.com client the server
// proxies to local clients.
type CharacterAPI interface {
	Characters(ctx context.Context, accountName string) ([]poeapi.Character, error)
	Items(ctx context.Context, accountName, characterName string) (*poeapi.CharacterItems, error)
	PassiveSkills(ctx context.Context, accountName, characterName string) (*poeapi.PassiveSkills, error)
	ProxyImage(ctx context.Context, rawURL string, maxDim int) (string, error)
	UploadPoB(ctx context.Context, pobCode string) (string, error)
}

// Server is the local HTTP server.
type Server struct {
	router *chi.Mux
	server *http.Server
	cfg    config.ServerConfig
	log    *zap.Logger

	store   RunStore
	api     CharacterAPI
	hub     *Hub
	account string
}

// New builds a server around the given store, API client and event hub.
// account is the default account name for character endpoints.
func New(cfg config.ServerConfig, store RunStore, api CharacterAPI, hub *Hub, account string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if hub == nil {
		hub = NewHub()
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(RequestID)
	r.Use(RequestLogger(log))
	r.Use(Recovery(log))

	s := &Server{
		router:  r,
		cfg:     cfg,
		log:     log,
		store:   store,
		api:     api,
		hub:     hub,
		account: account,
	}
	s.registerRoutes()
	return s
}

// registerRoutes wires all HTTP routes.
func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/version", s.handleVersion)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/characters", s.handleCharacters)
		r.Get("/characters/{name}/items", s.handleCharacterItems)
		r.Get("/characters/{name}/passives", s.handleCharacterPassives)

		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/stats", s.handleRunStats)
		r.Get("/runs/splits/stats", s.handleSplitStats)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Delete("/runs/{id}", s.handleDeleteRun)
		r.Get("/runs/{id}/export", s.handleExportRun)

		r.Get("/bests", s.handleBests)
		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handleSaveSettings)
		r.Get("/events", s.handleEvents)

		r.Get("/image", s.handleImageProxy)
		r.Post("/pob/upload", s.handlePoBUpload)
	})
}

// Start runs the server until it fails or Shutdown is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: s.cfg.ReadTimeout,
		// WriteTimeout stays at the configured value; the default config
		// leaves it at zero so /api/events streams are not cut off.
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	s.log.Info("starting HTTP server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.log.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
