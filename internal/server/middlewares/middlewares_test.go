package middlewares

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/weather-lookup/internal/server/utils"
	"github.com/vzahanych/weather-lookup/pkg/telemetry"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestRequestIDMiddleware(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestIDMiddleware(zaptest.NewLogger(t)))

	var seen string
	engine.GET("/", func(c *gin.Context) {
		seen = utils.GetRequestIDFromGinContext(c)
		c.Status(http.StatusNoContent)
	})

	t.Run("generates when missing", func(t *testing.T) {
		rec := serve(engine, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	})

	t.Run("keeps caller value", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "trace-me")
		rec := serve(engine, req)
		assert.Equal(t, "trace-me", seen)
		assert.Equal(t, "trace-me", rec.Header().Get(RequestIDHeader))
	})

	t.Run("replaces oversized value", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("a", maxRequestIDLength+1))
		serve(engine, req)
		assert.Len(t, seen, 36)
	})
}

func TestLoggingMiddleware_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	engine := gin.New()
	engine.Use(RequestIDMiddleware(logger), LoggingMiddleware(logger))
	engine.GET("/api/weather", func(c *gin.Context) { c.Status(http.StatusBadGateway) })
	engine.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(engine, httptest.NewRequest(http.MethodGet, "/api/weather?city=Paris", nil))
	serve(engine, httptest.NewRequest(http.MethodGet, "/health", nil))

	entries := logs.FilterMessage("HTTP request").All()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "/api/weather?city=Paris", entries[0].ContextMap()["path"])
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])

	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
}

func TestRecoveryMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)

	engine := gin.New()
	engine.Use(RecoveryMiddleware(zap.New(core), false))
	engine.GET("/panic", func(c *gin.Context) { panic("boom") })

	rec := serve(engine, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
	assert.Equal(t, 1, logs.FilterMessage("HTTP panic recovered").Len())
}

func TestMetricsMiddleware(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := NewMetricsMiddleware(zaptest.NewLogger(t), registry)
	require.NoError(t, err)

	engine := gin.New()
	engine.Use(m.Handler())
	engine.GET("/api/weather", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(engine, httptest.NewRequest(http.MethodGet, "/api/weather", nil))
	serve(engine, httptest.NewRequest(http.MethodGet, "/api/weather", nil))
	serve(engine, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/api/weather", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))

	_, err = NewMetricsMiddleware(zaptest.NewLogger(t), registry)
	assert.Error(t, err, "registering twice on one registry must fail")
}

func TestTelemetryMiddleware_SetsSpanContext(t *testing.T) {
	engine := gin.New()
	engine.Use(TelemetryMiddleware(zaptest.NewLogger(t), &telemetry.Telemetry{}))

	var hasCtx bool
	engine.GET("/", func(c *gin.Context) {
		_, hasCtx = c.Get(utils.SpanContextKey)
		c.Status(http.StatusOK)
	})

	rec := serve(engine, httptest.NewRequest(http.MethodGet, "/?city=Paris", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, hasCtx)
}
