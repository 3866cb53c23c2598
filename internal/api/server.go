// Package api exposes the schema registry over HTTP for editors and
// rendering clients.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/formweave/formweave/internal/engine"
	"github.com/formweave/formweave/internal/ws"
)

// Server is the REST API server for schema management and submission.
type Server struct {
	engine  *engine.Engine
	hub     *ws.Hub
	logger  *slog.Logger
	port    int
	server  *http.Server
	devMode bool
}

// Option configures the API server.
type Option func(*Server)

// WithDevMode enables CORS for development.
func WithDevMode(dev bool) Option {
	return func(s *Server) {
		s.devMode = dev
	}
}

// WithHub sets the WebSocket hub for lifecycle event broadcasts.
func WithHub(hub *ws.Hub) Option {
	return func(s *Server) {
		s.hub = hub
	}
}

// New creates a new API server.
func New(eng *engine.Engine, logger *slog.Logger, port int, opts ...Option) *Server {
	s := &Server{
		engine: eng,
		logger: logger,
		port:   port,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Handler(),
	}

	s.logger.Info("starting api server", "port", s.port, "dev_mode", s.devMode)
	return s.server.ListenAndServe()
}

// Handler builds the route table. Exposed separately so tests can drive
// the server through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	var handler http.Handler = requestLogger(s.logger, mux)
	if s.devMode {
		handler = corsMiddleware(handler)
	}
	return handler
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", s.handleHealth)

	// Registry lifecycle
	mux.HandleFunc("GET /api/schemas", s.handleListSchemas)
	mux.HandleFunc("POST /api/schemas", s.handleCreateSchema)
	mux.HandleFunc("GET /api/schemas/active", s.handleActiveSchema)
	mux.HandleFunc("POST /api/schemas/import", s.handleImportSchema)
	mux.HandleFunc("GET /api/schemas/{id}", s.handleGetSchema)
	mux.HandleFunc("PUT /api/schemas/{id}", s.handleUpdateSchema)
	mux.HandleFunc("DELETE /api/schemas/{id}", s.handleDeleteSchema)
	mux.HandleFunc("POST /api/schemas/{id}/activate", s.handleActivateSchema)
	mux.HandleFunc("GET /api/schemas/{id}/export", s.handleExportSchema)
	mux.HandleFunc("GET /api/schemas/{id}/preview", s.handlePreviewSchema)

	// Runtime
	mux.HandleFunc("POST /api/entities/{entity}/submit", s.handleSubmit)

	// WebSocket
	if s.hub != nil {
		mux.HandleFunc("/api/ws", s.hub.HandleWebSocket)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
