// Package server provides the JSON API HTTP server
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/internal/infrastructure/config"
	"github.com/alchemorsel/nutrition/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/nutrition/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/nutrition/pkg/healthcheck"
)

// Server represents the HTTP server
type Server struct {
	config   *config.Config
	logger   *zap.Logger
	router   *chi.Mux
	server   *http.Server
	handlers *handlers.NutritionHandlers
	docs     *handlers.OpenAPIHandler
	mw       *middleware.Middleware
	health   *healthcheck.HealthCheck
	metrics  http.Handler
}

// NewServer creates a new HTTP server instance. A nil docs or metrics
// handler leaves that route unregistered.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	h *handlers.NutritionHandlers,
	docs *handlers.OpenAPIHandler,
	mw *middleware.Middleware,
	health *healthcheck.HealthCheck,
	metrics http.Handler,
) *Server {
	s := &Server{
		config:   cfg,
		logger:   logger.Named("http-server"),
		handlers: h,
		docs:     docs,
		mw:       mw,
		health:   health,
		metrics:  metrics,
	}

	s.router = s.setupRouter()
	s.server = &http.Server{
		Addr:              cfg.Address(),
		Handler:           s.router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
		ErrorLog:          zap.NewStdLog(s.logger),
	}

	return s
}

func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(s.mw.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.mw.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.mw.Security)

	r.Get(s.healthPath(), s.health.Handler())
	r.Get("/health/live", s.health.LivenessHandler())
	if s.metrics != nil {
		r.Method(http.MethodGet, s.config.Monitoring.MetricsPath, s.metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.mw.Tracing)
		r.Use(s.mw.RateLimit)
		r.Use(s.mw.JSONOnly)
		if s.config.Server.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(s.config.Server.RequestTimeout))
		}

		r.Post("/targets", s.handlers.CalculateTargets)
		r.Post("/meals/score", s.handlers.ScoreMeal)
		r.Post("/advice", s.handlers.GetAdvice)
		r.Post("/advice/verify", s.handlers.VerifyAdvice)

		if s.docs != nil {
			r.Get("/", s.docs.ServeIndex)
			r.Get("/openapi.yaml", s.docs.ServeSpec)
		}
	})

	return r
}

func (s *Server) healthPath() string {
	if p := s.config.Monitoring.HealthCheckPath; p != "" {
		return p
	}
	return "/health"
}

// Handler returns the root handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("address", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
