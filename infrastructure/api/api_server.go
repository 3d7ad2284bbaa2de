package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bibliotheca/gateway"
	apimiddleware "github.com/bibliotheca/gateway/infrastructure/api/middleware"
	v1 "github.com/bibliotheca/gateway/infrastructure/api/v1"
	mcpinternal "github.com/bibliotheca/gateway/internal/mcp"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mark3labs/mcp-go/server"
)

// DefaultRequestTimeout bounds /api/v1 requests. Exports of large trees can
// take a while, so this is wider than a typical JSON API.
const DefaultRequestTimeout = 5 * time.Minute

// APIServer provides an HTTP API backed by a gateway Client.
type APIServer struct {
	client         *gateway.Client
	version        string
	corsOrigins    []string
	requestTimeout time.Duration
	server         *Server
	router         chi.Router
	routerCalled   bool
	logger         *slog.Logger
}

// APIServerOption configures an APIServer.
type APIServerOption func(*APIServer)

// WithVersion sets the version reported by / and the MCP server.
func WithVersion(version string) APIServerOption {
	return func(a *APIServer) { a.version = version }
}

// WithCORSAllowedOrigins enables CORS for the given origins.
func WithCORSAllowedOrigins(origins []string) APIServerOption {
	return func(a *APIServer) { a.corsOrigins = origins }
}

// WithRequestTimeout overrides DefaultRequestTimeout.
func WithRequestTimeout(d time.Duration) APIServerOption {
	return func(a *APIServer) {
		if d > 0 {
			a.requestTimeout = d
		}
	}
}

// NewAPIServer creates a new APIServer wired to the given gateway Client.
// Mutating endpoints under /api/v1/projects require one of the client's API
// keys when any are configured. Reads, MCP, health and metrics stay open.
func NewAPIServer(client *gateway.Client, opts ...APIServerOption) *APIServer {
	a := &APIServer{
		client:         client,
		version:        "dev",
		requestTimeout: DefaultRequestTimeout,
		logger:         client.Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Router returns the chi router for customization before starting.
// Call this first, add custom middleware with router.Use(), then call MountRoutes().
// If not called, ListenAndServe creates a default router with all standard routes.
func (a *APIServer) Router() chi.Router {
	if a.router != nil {
		return a.router
	}

	a.router = chi.NewRouter()
	a.routerCalled = true
	return a.router
}

// MountRoutes wires up all routes on the router.
// Call this after adding any custom middleware via Router().Use().
func (a *APIServer) MountRoutes() {
	if a.router == nil {
		a.Router()
	}
	a.mountRoutes(a.router)
}

func (a *APIServer) mountRoutes(router chi.Router) {
	c := a.client

	if len(a.corsOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   a.corsOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-KEY", "X-Correlation-ID"},
			ExposedHeaders:   []string{"Content-Disposition", "X-Correlation-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	router.Use(apimiddleware.ForwardAuthorization)

	projectsRouter := v1.NewProjectsRouter(c)
	uploadsRouter := v1.NewUploadsRouter(c)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(a.requestTimeout))

		r.Mount("/uploads", uploadsRouter.Routes())

		r.Group(func(r chi.Router) {
			r.Use(apimiddleware.WriteProtectAuth(c.APIKeys()))
			r.Mount("/projects", projectsRouter.Routes())
		})
	})

	router.Get("/health", healthHandler)
	router.Get("/healthz", healthHandler)
	router.Get("/", a.rootHandler)

	if h, ok := c.Recorder().(interface{ Handler() http.Handler }); ok {
		router.Handle("/metrics", h.Handler())
	}

	// No timeout here: MCP streams responses and keeps session state in
	// response headers, which chi's Timeout wrapper breaks.
	mcpSrv := mcpinternal.NewServer(c.Catalog, a.version, a.logger)
	router.Mount("/mcp", server.NewStreamableHTTPServer(mcpSrv.MCPServer()))
}

func (a *APIServer) rootHandler(w http.ResponseWriter, _ *http.Request) {
	apimiddleware.WriteJSON(w, http.StatusOK, map[string]any{
		"name":    "bibliotheca-gateway",
		"version": a.version,
		"uploads": a.client.UploadsEnabled(),
	})
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// ListenAndServe starts the HTTP server on the given address.
func (a *APIServer) ListenAndServe(addr string) error {
	srv := NewServer(addr, a.logger)
	a.server = &srv

	if a.routerCalled && a.router != nil {
		srv.Router().Mount("/", a.router)
	} else {
		srv.Router().Use(apimiddleware.Logging(a.logger))
		srv.Router().Use(apimiddleware.CorrelationID)
		a.mountRoutes(srv.Router())
	}

	if err := srv.Start(); err != nil {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// Handler returns the router as an http.Handler for use with custom servers.
func (a *APIServer) Handler() http.Handler {
	if a.router == nil {
		a.Router()
		a.MountRoutes()
	}
	return a.router
}
