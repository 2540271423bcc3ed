package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-lookup/internal/cache"
	"go.uber.org/zap"
)

// Pinger is implemented by cache stores backed by an external service.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	logger    *zap.Logger
	startTime time.Time
	store     cache.Store
}

// NewHealthHandler takes the request cache store; readiness pings it when it
// implements Pinger.
func NewHealthHandler(logger *zap.Logger, store cache.Store) *HealthHandler {
	return &HealthHandler{
		logger:    logger,
		startTime: time.Now(),
		store:     store,
	}
}

func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "alive",
		Uptime: time.Since(h.startTime).String(),
	})
}

func (h *HealthHandler) Readiness(c *gin.Context) {
	checks := map[string]string{"cache": "ok"}

	if p, ok := h.store.(Pinger); ok {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.String("check", "cache"), zap.Error(err))
			checks["cache"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, HealthResponse{
				Status: "unavailable",
				Uptime: time.Since(h.startTime).String(),
				Checks: checks,
			})
			return
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status: "ready",
		Uptime: time.Since(h.startTime).String(),
		Checks: checks,
	})
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
