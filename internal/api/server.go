// Package api serves the dashboard over a JSON HTTP API.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/opensource-finance/kestrel/internal/domain"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, deps Deps) *Server {
	handler := NewHandler(deps)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)    // CORS for browser clients
	router.Use(RecoverMiddleware) // Recover from panics
	router.Use(TracingMiddleware) // OpenTelemetry tracing
	router.Use(LoggingMiddleware) // Request logging
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware) // Prometheus request metrics
	}
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression

	// Health endpoints
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)
	if deps.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	// Dataset facets and stateless views
	router.Get("/facets", handler.Facets)
	router.Get("/observations", handler.Observations)
	router.Get("/dashboard", handler.Dashboard)
	router.Get("/dashboard/charts", handler.DashboardCharts)
	router.Get("/top-risk", handler.TopRisk)
	router.Get("/datasets", handler.ListDatasets)

	// Screen management
	router.Route("/screens", func(r chi.Router) {
		r.Get("/", handler.ListScreens)
		r.Post("/", handler.CreateScreen)
		r.Post("/reload", handler.ReloadScreens)
		r.Get("/{id}", handler.GetScreen)
		r.Put("/{id}", handler.UpdateScreen)
		r.Delete("/{id}", handler.DeleteScreen)
	})

	// Per-client selections
	router.Route("/sessions", func(r chi.Router) {
		r.Post("/", handler.CreateSession)
		r.Get("/{id}", handler.GetSession)
		r.Put("/{id}/selection", handler.UpdateSelection)
		r.Get("/{id}/dashboard", handler.SessionDashboard)
		r.Get("/{id}/dashboard/charts", handler.SessionCharts)
		r.Delete("/{id}", handler.DeleteSession)
	})

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}
