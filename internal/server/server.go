package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/vzahanych/weather-lookup/internal/config"
	"github.com/vzahanych/weather-lookup/internal/intermediary"
	"github.com/vzahanych/weather-lookup/internal/resolver"
	"github.com/vzahanych/weather-lookup/internal/server/handlers"
	"github.com/vzahanych/weather-lookup/internal/server/middlewares"
	"github.com/vzahanych/weather-lookup/pkg/telemetry"
	"go.uber.org/zap"
)

// Options wires a Server. The app and the intermediary backend differ only
// in the resolver they hand in and the address they listen on.
type Options struct {
	Name        string
	Server      config.ServerConfig
	Resolver    *resolver.Resolver
	DefaultCity string
	Logger      *zap.Logger
	Telemetry   *telemetry.Telemetry
}

type Server struct {
	name     string
	engine   *gin.Engine
	server   *http.Server
	logger   *zap.Logger
	tele     *telemetry.Telemetry
	registry *prometheus.Registry
}

func NewServer(opts Options) (*Server, error) {
	if opts.Resolver == nil {
		return nil, errors.New("server: resolver is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	httpMetrics, err := middlewares.NewMetricsMiddleware(opts.Logger, registry)
	if err != nil {
		return nil, fmt.Errorf("register http metrics: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middlewares.RequestIDMiddleware(opts.Logger))
	engine.Use(middlewares.LoggingMiddleware(opts.Logger))
	engine.Use(middlewares.RecoveryMiddleware(opts.Logger, true))
	engine.Use(middlewares.TelemetryMiddleware(opts.Logger, opts.Telemetry))
	engine.Use(httpMetrics.Handler())

	s := &Server{
		name:     opts.Name,
		engine:   engine,
		logger:   opts.Logger,
		tele:     opts.Telemetry,
		registry: registry,
	}

	metrics := handlers.NewMetricsHandler(opts.Logger, registry)
	opts.Resolver.SetMetricsRecorder(metrics)

	s.setupRoutes(opts, metrics)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", opts.Server.Host, opts.Server.Port),
		Handler:      engine,
		ReadTimeout:  opts.Server.ReadTimeoutDuration(),
		WriteTimeout: opts.Server.WriteTimeoutDuration(),
		IdleTimeout:  opts.Server.IdleTimeoutDuration(),
	}

	return s, nil
}

func (s *Server) setupRoutes(opts Options, metrics *handlers.MetricsHandler) {
	weatherHandler := handlers.NewWeatherHandler(opts.Resolver, opts.DefaultCity, s.logger)

	// Business endpoints
	s.engine.GET(intermediary.Path, weatherHandler.GetWeather)
	s.engine.GET("/weather", weatherHandler.GetWeather)

	// Health endpoints (Kubernetes friendly)
	health := handlers.NewHealthHandler(s.logger, opts.Resolver.Store())
	s.engine.GET("/health", health.Health)
	s.engine.GET("/health/live", health.Liveness)
	s.engine.GET("/health/ready", health.Readiness)

	// Monitoring endpoints
	s.engine.GET("/metrics", metrics.ServeMetrics)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Addr() string {
	return s.server.Addr
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("Starting server",
		zap.String("name", s.name),
		zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server", zap.String("name", s.name))
	return s.server.Shutdown(ctx)
}
