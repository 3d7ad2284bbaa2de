package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// DefaultWriteTimeout covers the slowest export the server is expected to
// stream back, renderer time included.
const DefaultWriteTimeout = 6 * time.Minute

// Server represents the HTTP API server.
type Server struct {
	router       chi.Router
	httpServer   *http.Server
	logger       *slog.Logger
	addr         string
	writeTimeout time.Duration
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithWriteTimeout sets the HTTP write timeout.
func WithWriteTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// NewServer creates a new API Server.
func NewServer(addr string, logger *slog.Logger, opts ...ServerOption) Server {
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()

	// Timeout is applied per route group in mountRoutes, not here, because
	// the MCP endpoint streams.
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)

	s := Server{
		router:       router,
		addr:         addr,
		logger:       logger,
		writeTimeout: DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Router returns the chi router for registering routes.
func (s Server) Router() chi.Router {
	return s.router
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      s.writeTimeout,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("starting HTTP server", slog.String("addr", s.addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the server address.
func (s Server) Addr() string {
	return s.addr
}

// WriteTimeout returns the configured HTTP write timeout.
func (s Server) WriteTimeout() time.Duration {
	return s.writeTimeout
}
