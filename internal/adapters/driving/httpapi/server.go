// Package httpapi exposes the sync and answer services over HTTP for
// the embeddable widget and operator tooling.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/knowsync/internal/core/ports/driven"
	"github.com/custodia-labs/knowsync/internal/core/ports/driving"
	"github.com/custodia-labs/knowsync/internal/logger"
)

// Server wires the driving services into an HTTP API.
type Server struct {
	sync     driving.SyncService
	answer   driving.AnswerService
	source   driven.TaskSource
	store    driven.KnowledgeStore
	embedder driven.EmbeddingService
	queue    driven.JobQueue

	allowedOrigins []string
}

// Config holds the server's dependencies.
type Config struct {
	Sync     driving.SyncService
	Answer   driving.AnswerService
	Source   driven.TaskSource
	Store    driven.KnowledgeStore
	Embedder driven.EmbeddingService
	Queue    driven.JobQueue

	// AllowedOrigins is the CORS allow-list for the ask endpoint's
	// browser callers. "*" allows any origin.
	AllowedOrigins []string
}

// NewServer creates an HTTP API server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Sync == nil || cfg.Answer == nil {
		return nil, fmt.Errorf("httpapi: sync and answer services are required")
	}
	return &Server{
		sync:           cfg.Sync,
		answer:         cfg.Answer,
		source:         cfg.Source,
		store:          cfg.Store,
		embedder:       cfg.Embedder,
		queue:          cfg.Queue,
		allowedOrigins: cfg.AllowedOrigins,
	}, nil
}

// Router builds the chi router with all routes registered.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(s.corsMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/sync", s.handleSync)
		r.Post("/ask", s.handleAsk)
		r.Get("/projects", s.handleProjects)
		r.Get("/source", s.handleSource)
		r.Get("/documents", s.handleListDocuments)
		r.Post("/documents", s.handleCreateDocument)
	})

	return r
}

// Run serves the API on addr until the context is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("http: listening on %s", addr)
	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// writeJSON writes a JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("http: encoding response: %v", err)
	}
}

// writeError writes a JSON error body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
