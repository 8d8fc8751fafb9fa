// Package http serves the entity API over an in-memory store.
//
// Routes:
//
//	GET   /health
//	GET   /metrics
//	GET   /projects
//	POST  /projects
//	GET   /projects/:id
//	GET   /tasks/:id
//	PATCH /tasks/:id
//	POST  /tasks
//
// Everything except /health and /metrics requires a bearer token when a
// verifier is configured.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/streamline/internal/auth"
	"github.com/fyrsmithlabs/streamline/internal/config"
	"github.com/fyrsmithlabs/streamline/internal/logging"
	"github.com/fyrsmithlabs/streamline/internal/project"
	"github.com/fyrsmithlabs/streamline/internal/store"
)

// Server provides the entity HTTP endpoints.
type Server struct {
	echo     *echo.Echo
	store    *store.Store
	verifier auth.Verifier
	logger   *logging.Logger
	config   *Config
	metrics  *HTTPMetrics
	gatherer prometheus.Gatherer
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// ConfigFrom converts the application server config.
func ConfigFrom(cfg config.ServerConfig) *Config {
	return &Config{Host: cfg.Host, Port: cfg.Port}
}

// Option configures a Server.
type Option func(*Server)

// WithVerifier requires a valid bearer token on entity routes.
func WithVerifier(v auth.Verifier) Option {
	return func(s *Server) {
		s.verifier = v
	}
}

// WithMeter records request metrics with m.
func WithMeter(m metric.Meter) Option {
	return func(s *Server) {
		s.metrics = NewHTTPMetrics(m, s.logger)
	}
}

// WithGatherer serves g on /metrics instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		if g != nil {
			s.gatherer = g
		}
	}
}

// NewServer creates a new HTTP server backed by st.
func NewServer(st *store.Store, logger *logging.Logger, cfg *Config, opts ...Option) (*Server, error) {
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 8080,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		store:    st,
		logger:   logger,
		config:   cfg,
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewHTTPMetrics(nil, logger)
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.requestContext)
	e.Use(s.metrics.MetricsMiddleware())

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	// Route-level rather than group middleware so unknown paths stay 404.
	authed := s.bearerAuth
	s.echo.GET("/projects", s.handleListProjects, authed)
	s.echo.POST("/projects", s.handleCreateProject, authed)
	s.echo.GET("/projects/:id", s.handleGetProject, authed)
	s.echo.GET("/tasks/:id", s.handleGetTask, authed)
	s.echo.PATCH("/tasks/:id", s.handlePatchTask, authed)
	s.echo.POST("/tasks", s.handleCreateTask, authed)
}

// Echo returns the underlying router.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Start starts the HTTP server. It blocks until the server stops; a clean
// Shutdown returns nil.
func (s *Server) Start() error {
	addr := s.Addr()
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}

// Run starts the server and shuts it down when ctx is cancelled.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// toHTTPError maps store and domain errors onto response codes.
func toHTTPError(err error) error {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he
	case errors.Is(err, project.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrProjectExists):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, project.ErrInvalidStatus),
		errors.Is(err, project.ErrInvalidTask),
		errors.Is(err, project.ErrMalformed),
		errors.Is(err, store.ErrInvalidName),
		errors.Is(err, store.ErrEmptyPatch):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
