package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/vzahanych/weather-lookup/internal/config"
	"github.com/vzahanych/weather-lookup/internal/weather"
	"github.com/vzahanych/weather-lookup/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxErrorBody caps how much of a failed response body is kept in errors.
const maxErrorBody = 4 << 10

// ErrMissingAPIKey is returned before any request is made when no key is set.
var ErrMissingAPIKey = fmt.Errorf("%w: weather provider API key is not configured", weather.ErrConfiguration)

// HTTPError is a non-2xx answer from the provider, including rejected keys.
type HTTPError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("weather provider %s returned status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("weather provider %s returned status %d: %s", e.Endpoint, e.Status, e.Body)
}

// NetworkError is a transport failure talking to the provider.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("weather provider %s unreachable: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Client talks to the OpenWeatherMap-compatible current and forecast endpoints.
type Client struct {
	apiKey      string
	currentURL  string
	forecastURL string
	client      *http.Client
	logger      *zap.Logger
	tele        *telemetry.Telemetry
}

func NewClient(cfg config.ProviderConfig, logger *zap.Logger, tele *telemetry.Telemetry) *Client {
	timeout := cfg.TimeoutDuration()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		apiKey:      cfg.APIKey,
		currentURL:  cfg.CurrentURL,
		forecastURL: cfg.ForecastURL,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
		tele:   tele,
	}
}

func (c *Client) Name() string {
	return "openweathermap"
}

func (c *Client) FetchCurrent(ctx context.Context, city string) (*weather.RawCurrent, error) {
	var raw weather.RawCurrent
	if err := c.fetch(ctx, "current", c.currentURL, city, &raw); err != nil {
		return nil, err
	}
	return &raw, nil
}

func (c *Client) FetchForecast(ctx context.Context, city string) (*weather.RawForecast, error) {
	var raw weather.RawForecast
	if err := c.fetch(ctx, "forecast", c.forecastURL, city, &raw); err != nil {
		return nil, err
	}
	return &raw, nil
}

// FetchAll issues the current and forecast requests concurrently. Both must
// succeed; the first failure cancels the other request.
func (c *Client) FetchAll(ctx context.Context, city string) (*weather.RawCurrent, *weather.RawForecast, error) {
	if c.apiKey == "" {
		return nil, nil, ErrMissingAPIKey
	}

	var (
		current  *weather.RawCurrent
		forecast *weather.RawForecast
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = c.FetchCurrent(gctx, city)
		return err
	})
	g.Go(func() error {
		var err error
		forecast, err = c.FetchForecast(gctx, city)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return current, forecast, nil
}

func (c *Client) fetch(ctx context.Context, endpoint, baseURL, city string, out interface{}) error {
	tracer := c.tele.GetTracer()
	ctx, span := tracer.Start(ctx, "provider.fetch."+endpoint)
	defer span.End()

	span.SetAttributes(
		attribute.String("city", city),
		attribute.String("service", c.Name()),
	)

	if c.apiKey == "" {
		c.logger.Warn("Weather provider called without API key", zap.String("city", city))
		span.SetAttributes(attribute.Bool("success", false))
		return ErrMissingAPIKey
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("%w: invalid provider %s url: %v", weather.ErrConfiguration, endpoint, err)
	}

	q := u.Query()
	q.Set("q", city)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}

	c.logger.Debug("Fetching from weather provider",
		zap.String("endpoint", endpoint),
		zap.String("city", city))

	resp, err := c.client.Do(req)
	if err != nil {
		span.SetAttributes(attribute.Bool("success", false))
		return &NetworkError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		span.SetAttributes(attribute.Bool("success", false))
		return &HTTPError{Endpoint: endpoint, Status: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		span.SetAttributes(attribute.Bool("success", false))
		if ctx.Err() != nil {
			return &NetworkError{Endpoint: endpoint, Err: err}
		}
		return fmt.Errorf("%w: decode %s response: %v", weather.ErrMalformedUpstreamData, endpoint, err)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return nil
}

// StatusCode returns the provider HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}
