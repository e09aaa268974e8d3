// Package server wires the router, middleware chain and routes of the
// reference API and manages the HTTP server lifecycle.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/giygas/vetref-api/config"
	"github.com/giygas/vetref-api/handlers"
	"github.com/giygas/vetref-api/interfaces"
	"github.com/giygas/vetref-api/logging"
	"github.com/giygas/vetref-api/metrics"
	"github.com/giygas/vetref-api/validation"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server represents the HTTP server
type Server struct {
	server  *http.Server
	router  chi.Router
	store   interfaces.RegistryStore
	handler interfaces.HTTPHandler
	limiter *RateLimiter
	config  *config.Config
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, store interfaces.RegistryStore, healthChecker interfaces.HealthChecker) *Server {
	router := chi.NewRouter()

	s := &Server{
		server: &http.Server{
			Handler:      router,
			Addr:         cfg.Address + ":" + cfg.Port,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router: router,
		store:  store,
		handler: handlers.NewHTTPHandler(store, validation.NewDataValidator(), healthChecker, handlers.Defaults{
			Policy:       cfg.DefaultPolicy,
			Fluid:        cfg.DefaultFluid,
			MaxBodyBytes: cfg.MaxRequestBody,
		}),
		limiter: NewRateLimiter(),
		config:  cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	logger := slog.Default()
	if svc := logging.DefaultLoggingService; svc != nil && svc.Logger != nil {
		logger = svc.Logger
	}

	s.router.Use(middleware.RequestID)
	if s.config.Env == config.EnvProduction {
		// Before RealIPMiddleware so the original RemoteAddr is checked
		s.router.Use(BlockDirectAccessMiddleware)
	}
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.LoggingMiddleware(logger))
	s.router.Use(metrics.Metrics)
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(s.limiter.Handler)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handler.ServeDashboard)
	s.router.Get("/health", s.handler.HealthCheck)
	s.router.Method(http.MethodGet, "/metrics", metrics.Handler())

	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/drugs", s.handler.ServeDrugsV1)
		r.Get("/drugs/{name}", s.handler.ServeDrugV1)
		r.Get("/compatibility/rules", s.handler.ServeRulesV1)
		r.Post("/compatibility/check", s.handler.CheckCompatibilityV1)
		r.Post("/calculators/transfusion", s.handler.TransfusionV1)
		r.Post("/calculators/cri", s.handler.CRIV1)
		r.Post("/rounding/summary", s.handler.RoundingSummaryV1)
	})
}

// Router exposes the configured router, mainly for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// RateLimiter returns the limiter so its idle buckets can be swept
func (s *Server) RateLimiter() *RateLimiter {
	return s.limiter
}

// Start serves until Shutdown is called. It returns nil after a graceful
// shutdown.
func (s *Server) Start() error {
	if s.config.Env == config.EnvDevelopment {
		s.startProfilingServer()
	}

	logging.Info("Starting server", "address", s.server.Addr, "env", s.config.Env.String())
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}

// startProfilingServer starts the pprof server in development mode
func (s *Server) startProfilingServer() {
	go func() {
		logging.Info("Profiling server started", "url", "http://localhost:6060/debug/pprof/")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			logging.Warn("Profiling server failed", "error", err)
		}
	}()
}
