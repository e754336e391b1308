package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/psaab/cmdgraph/pkg/cmdtree"
	"github.com/psaab/cmdgraph/pkg/graph"
	"github.com/psaab/cmdgraph/pkg/logging"
)

// Config configures the API server.
type Config struct {
	Addr     string
	Auth     *AuthConfig // nil = no authentication
	Registry *cmdtree.Registry
	Events   *logging.EventBuffer // nil = no event history or stream
}

// Server is the HTTP API server.
type Server struct {
	httpServer *http.Server
	registry   *cmdtree.Registry
	events     *logging.EventBuffer
	startTime  time.Time

	// streams is cancelled on shutdown; http.Server.Shutdown does not
	// cancel the contexts of requests already in flight.
	streams     context.Context
	stopStreams context.CancelFunc
}

// NewServer creates a new API server.
func NewServer(cfg Config) *Server {
	s := &Server{
		registry:  cfg.Registry,
		events:    cfg.Events,
		startTime: time.Now(),
	}
	s.streams, s.stopStreams = context.WithCancel(context.Background())

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.handler(cfg.Auth),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer.RegisterOnShutdown(s.stopStreams)
	return s
}

func (s *Server) handler(auth *AuthConfig) http.Handler {
	mux := http.NewServeMux()

	// Health + metrics
	mux.HandleFunc("GET /health", s.healthHandler)

	// Prometheus metrics with isolated registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(newCollector(s))
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// REST API v1
	mux.HandleFunc("GET /api/v1/status", s.statusHandler)
	mux.HandleFunc("GET /api/v1/graph", s.graphHandler)
	mux.HandleFunc("GET /api/v1/graph/dot", s.graphDOTHandler)
	mux.HandleFunc("GET /api/v1/graph/stats", s.graphStatsHandler)
	mux.HandleFunc("GET /api/v1/commands", s.commandsHandler)
	mux.HandleFunc("GET /api/v1/commands/{name}", s.commandHandler)
	mux.HandleFunc("GET /api/v1/events", s.eventsHandler)

	// Mutations
	mux.HandleFunc("POST /api/v1/compile", s.compileHandler)
	mux.HandleFunc("POST /api/v1/load", s.loadHandler)
	mux.HandleFunc("POST /api/v1/reset", s.resetHandler)

	// SSE streaming
	mux.HandleFunc("GET /api/v1/events/stream", s.eventStreamHandler)

	var handler http.Handler = mux
	if auth != nil {
		handler = authMiddleware(*auth, mux)
	}
	return handler
}

func (s *Server) store() *graph.Store {
	return s.registry.Compiler().Store()
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP API server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
