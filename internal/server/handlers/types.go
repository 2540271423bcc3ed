package handlers

import "github.com/vzahanych/weather-lookup/internal/server/utils"

// WeatherRequest is the inbound weather query. An empty city falls back to
// the configured default.
type WeatherRequest struct {
	City      string `form:"city" json:"city" validate:"omitempty,max=100,cityname"`
	SkipCache bool   `form:"skipCache" json:"skipCache"`
}

// ErrorResponse is returned on any failed request. A caller never receives a
// partial weather payload alongside it.
type ErrorResponse struct {
	Error   string                  `json:"error"`
	Message string                  `json:"message,omitempty"`
	Code    string                  `json:"code,omitempty"`
	Details []utils.ValidationError `json:"details,omitempty"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Uptime    string            `json:"uptime"`
	Timestamp string            `json:"timestamp,omitempty"`
	Checks    map[string]string `json:"checks,omitempty"`
}
