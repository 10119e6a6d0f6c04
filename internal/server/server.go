// Package server provides the HTTP API for ontosift.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/phenolab/ontosift/internal/config"
	"github.com/phenolab/ontosift/internal/funnel"
	"github.com/phenolab/ontosift/internal/history"
	"github.com/phenolab/ontosift/internal/index"
	"github.com/phenolab/ontosift/internal/vocab"
)

// Server is the HTTP server for the resolution API.
type Server struct {
	funnel  *funnel.Funnel
	store   *vocab.Store
	history *history.Store
	indexer *index.Client
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies. history and
// indexer may be nil; the corresponding endpoints then degrade gracefully.
func NewServer(
	f *funnel.Funnel,
	store *vocab.Store,
	hist *history.Store,
	indexer *index.Client,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		funnel:  f,
		store:   store,
		history: hist,
		indexer: indexer,
		config:  cfg,
		logger:  logger,
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/resolve", s.handleResolve)
	r.Post("/api/v1/chat", s.handleChat)
	r.Get("/api/v1/terms/{id}", s.handleGetTerm)
	r.Post("/api/v1/vocabulary/reload", s.handleReload)
	r.Get("/api/v1/history", s.handleHistory)
	r.Get("/api/v1/status", s.handleStatus)
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
