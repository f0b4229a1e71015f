// Package server exposes the question answering service over HTTP:
// POST /ask, GET /healthz, POST /refresh, and GET /metrics.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aurorahq/aurora/internal/answer"
	"github.com/aurorahq/aurora/internal/index"
	"github.com/aurorahq/aurora/internal/lexical"
	"github.com/aurorahq/aurora/internal/metrics"
	"github.com/aurorahq/aurora/internal/search"
	"github.com/aurorahq/aurora/internal/store"
)

// Config configures the HTTP listener.
type Config struct {
	Host string
	Port int
}

// Server wires the retrieval engine, synthesizer, and index builder
// behind the HTTP API.
type Server struct {
	engine      *search.Engine
	synthesizer *answer.Synthesizer
	builder     *index.Builder
	dense       *store.DenseIndex
	lex         *lexical.Index
	metrics     *metrics.Metrics
	registry    *prometheus.Registry

	httpServer *http.Server
}

// New constructs the server and its routes.
func New(cfg Config, engine *search.Engine, synthesizer *answer.Synthesizer,
	builder *index.Builder, dense *store.DenseIndex, lex *lexical.Index,
	m *metrics.Metrics, registry *prometheus.Registry) *Server {

	s := &Server{
		engine:      engine,
		synthesizer: synthesizer,
		builder:     builder,
		dense:       dense,
		lex:         lex,
		metrics:     m,
		registry:    registry,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /ask", s.handleAsk)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /refresh", s.handleRefresh)
	mux.Handle("GET /metrics", metrics.Handler(registry))

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           withMiddleware(mux, m),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// ListenAndServe blocks serving requests until Shutdown or a listener
// error.
func (s *Server) ListenAndServe() error {
	slog.Info("http server listening", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
