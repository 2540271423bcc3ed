package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-lookup/internal/provider"
	"github.com/vzahanych/weather-lookup/internal/resolver"
	"github.com/vzahanych/weather-lookup/internal/server/utils"
	"github.com/vzahanych/weather-lookup/internal/weather"
	"go.uber.org/zap"
)

// Resolver resolves a city to a canonical response.
type Resolver interface {
	Resolve(ctx context.Context, city string, bypassCache bool) (*weather.Response, error)
}

type WeatherHandler struct {
	resolver    Resolver
	defaultCity string
	logger      *zap.Logger
}

func NewWeatherHandler(r Resolver, defaultCity string, logger *zap.Logger) *WeatherHandler {
	if defaultCity == "" {
		defaultCity = "London"
	}
	return &WeatherHandler{
		resolver:    r,
		defaultCity: defaultCity,
		logger:      logger,
	}
}

func (h *WeatherHandler) GetWeather(c *gin.Context) {
	ctx := utils.GetContextFromGinContext(c)
	requestID := utils.GetRequestIDFromGinContext(c)

	reqLogger := h.logger.With(zap.String("request_id", requestID))

	var req WeatherRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		reqLogger.Warn("Invalid request parameters", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request parameters",
			Message: err.Error(),
			Code:    "INVALID_PARAMS",
		})
		return
	}

	if verrs := utils.ValidateStruct(req); len(verrs) > 0 {
		reqLogger.Warn("Request validation failed", zap.Any("errors", verrs))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request parameters",
			Message: verrs[0].Message,
			Code:    "INVALID_PARAMS",
			Details: verrs,
		})
		return
	}

	city := strings.TrimSpace(req.City)
	if city == "" {
		city = h.defaultCity
	}

	reqLogger.Info("Processing weather request",
		zap.String("city", city),
		zap.Bool("skip_cache", req.SkipCache))

	data, err := h.resolver.Resolve(utils.WithRequestID(ctx, requestID), city, req.SkipCache)
	if err != nil {
		status, code := classifyError(err)
		reqLogger.Error("Failed to get weather data",
			zap.String("city", city),
			zap.Int("status", status),
			zap.Error(err))
		c.JSON(status, ErrorResponse{
			Error:   "Failed to fetch weather data",
			Message: err.Error(),
			Code:    code,
		})
		return
	}

	reqLogger.Info("Weather request completed successfully",
		zap.String("city", data.City),
		zap.String("source", string(data.Source)),
		zap.Bool("cached", data.Cache != nil && data.Cache.Cached))

	c.JSON(http.StatusOK, data)
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, resolver.ErrEmptyCity):
		return http.StatusBadRequest, "INVALID_PARAMS"
	case provider.StatusCode(err) == http.StatusNotFound:
		return http.StatusNotFound, "CITY_NOT_FOUND"
	case errors.Is(err, weather.ErrConfiguration):
		return http.StatusInternalServerError, "CONFIGURATION_ERROR"
	case errors.Is(err, weather.ErrMalformedUpstreamData):
		return http.StatusBadGateway, "MALFORMED_UPSTREAM_DATA"
	default:
		return http.StatusBadGateway, "UPSTREAM_UNAVAILABLE"
	}
}
