package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vzahanych/weather-lookup/internal/weather"
	"go.uber.org/zap"
)

// MetricsHandler holds resolution metrics and serves the registry.
// It satisfies resolver.MetricsRecorder.
type MetricsHandler struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	resolutions    *prometheus.CounterVec
	fallbacks      prometheus.Counter
	upstreamErrors prometheus.Counter
}

func NewMetricsHandler(logger *zap.Logger, registry *prometheus.Registry) *MetricsHandler {
	h := &MetricsHandler{
		logger:   logger,
		registry: registry,
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "weather_cache_hits_total",
			Help: "Total request cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "weather_cache_misses_total",
			Help: "Total request cache misses, including expired entries.",
		}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weather_resolutions_total",
			Help: "Fresh resolutions by data source.",
		}, []string{"source"}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "weather_intermediary_fallbacks_total",
			Help: "Intermediary attempts that fell back to the provider.",
		}),
		upstreamErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "weather_upstream_errors_total",
			Help: "Resolutions that failed on the direct provider path.",
		}),
	}

	registry.MustRegister(h.cacheHits, h.cacheMisses, h.resolutions, h.fallbacks, h.upstreamErrors)
	return h
}

func (h *MetricsHandler) RecordCacheHit(ctx context.Context) {
	h.cacheHits.Inc()
}

func (h *MetricsHandler) RecordCacheMiss(ctx context.Context) {
	h.cacheMisses.Inc()
}

func (h *MetricsHandler) RecordResolution(ctx context.Context, source weather.Source) {
	h.resolutions.WithLabelValues(string(source)).Inc()
}

func (h *MetricsHandler) RecordIntermediaryFallback(ctx context.Context) {
	h.fallbacks.Inc()
}

func (h *MetricsHandler) RecordUpstreamError(ctx context.Context) {
	h.upstreamErrors.Inc()
}

// ServeMetrics exposes the registry in Prometheus text format.
func (h *MetricsHandler) ServeMetrics(c *gin.Context) {
	promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(h.logger),
	}).ServeHTTP(c.Writer, c.Request)
}
