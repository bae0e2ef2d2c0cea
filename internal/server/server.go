// Package server hosts the public HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fd1az/triarb/internal/logger"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port         int
	CORSOrigins  []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the HTTP API server. Routes are registered by business modules
// before Start.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	log        logger.LoggerInterface
}

// New creates a Server with the middleware chain wrapped around an empty mux.
func New(cfg Config, log logger.LoggerInterface) *Server {
	mux := http.NewServeMux()

	var h http.Handler = mux
	h = Logging(log)(h)
	h = CORS(cfg.CORSOrigins)(h)

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           h,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       60 * time.Second,
		},
		mux: mux,
		log: log,
	}
}

// Handle registers a handler for pattern, e.g. "GET /api/arbitrage".
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start blocks serving requests until the server is shut down.
func (s *Server) Start() error {
	s.log.Info(context.Background(), "server: starting", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown waits for in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info(ctx, "server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
