// Package server provides the HTTP API for the overlap finder.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/dannythedev/file-archive-overlap-finder/internal/config"
	"github.com/dannythedev/file-archive-overlap-finder/internal/history"
	"github.com/dannythedev/file-archive-overlap-finder/internal/loader"
	"github.com/dannythedev/file-archive-overlap-finder/internal/scan"
	"github.com/dannythedev/file-archive-overlap-finder/internal/structural"
)

// Server is the HTTP server for the overlap finder API.
type Server struct {
	loader  *loader.Loader
	aligner *structural.Aligner
	manager *scan.Manager
	history history.Store // optional; nil disables history endpoints
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies. store may be nil.
func NewServer(
	l *loader.Loader,
	aligner *structural.Aligner,
	manager *scan.Manager,
	store history.Store,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		loader:  l,
		aligner: aligner,
		manager: manager,
		history: store,
		config:  cfg,
		logger:  logger,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/scans", s.handleStartScan)
	r.Get("/api/v1/scans/{id}", s.handleScanStatus)
	r.Get("/api/v1/scans/{id}/results", s.handleScanResults)
	r.Delete("/api/v1/scans/{id}", s.handleCancelScan)
	r.Post("/api/v1/compare", s.handleCompare)
	r.Get("/api/v1/history", s.handleHistoryList)
	r.Get("/api/v1/history/{id}", s.handleHistoryGet)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
