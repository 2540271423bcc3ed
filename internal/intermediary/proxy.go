package intermediary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"github.com/vzahanych/weather-lookup/internal/config"
	"github.com/vzahanych/weather-lookup/internal/weather"
	"github.com/vzahanych/weather-lookup/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Path is the intermediary backend weather endpoint.
const Path = "/api/weather"

// maxBody caps how much of a backend response is read.
const maxBody = 1 << 20

// Proxy asks the intermediary backend for an already normalized response.
// Every failure is logged and reported as "absent"; callers fall back.
type Proxy struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
	tele    *telemetry.Telemetry
}

// NewProxy returns nil when no base URL is configured, which disables the
// intermediary attempt.
func NewProxy(cfg config.IntermediaryConfig, logger *zap.Logger, tele *telemetry.Telemetry) *Proxy {
	if !cfg.Enabled() {
		return nil
	}

	p := &Proxy{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.TimeoutDuration(),
		client:  &http.Client{},
		logger:  logger.With(zap.String("component", "intermediary")),
		tele:    tele,
	}

	if cfg.BreakerFailures > 0 {
		threshold := uint32(cfg.BreakerFailures)
		p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "intermediary",
			MaxRequests: 1,
			Timeout:     cfg.BreakerOpenDuration(),
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				p.logger.Info("Intermediary circuit breaker state changed",
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		})
	}

	return p
}

// TryFetch makes a single attempt bounded by the configured timeout. Once the
// deadline passes any late body is discarded.
func (p *Proxy) TryFetch(ctx context.Context, city string) (*weather.Response, bool) {
	if p == nil {
		return nil, false
	}

	tracer := p.tele.GetTracer()
	ctx, span := tracer.Start(ctx, "intermediary.TryFetch")
	defer span.End()

	span.SetAttributes(attribute.String("city", city))

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.execute(ctx, city)
	if err == nil && ctx.Err() != nil {
		err = fmt.Errorf("%w: response arrived after deadline", weather.ErrIntermediaryUnavailable)
	}

	if err != nil {
		span.SetAttributes(
			attribute.Bool("success", false),
			attribute.String("error", err.Error()),
		)
		p.logger.Warn("Intermediary unavailable, falling back to provider",
			zap.String("city", city),
			zap.Error(err))
		return nil, false
	}

	span.SetAttributes(attribute.Bool("success", true))
	return resp, true
}

func (p *Proxy) execute(ctx context.Context, city string) (*weather.Response, error) {
	if p.breaker == nil {
		return p.fetch(ctx, city)
	}

	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.fetch(ctx, city)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: circuit breaker %v", weather.ErrIntermediaryUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	return result.(*weather.Response), nil
}

func (p *Proxy) fetch(ctx context.Context, city string) (*weather.Response, error) {
	u := p.baseURL + Path + "?" + url.Values{"city": {city}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", weather.ErrIntermediaryUnavailable, err)
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", weather.ErrIntermediaryUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("%w: status %d", weather.ErrIntermediaryUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", weather.ErrIntermediaryUnavailable, err)
	}

	out, err := weather.DecodeResponse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", weather.ErrIntermediaryUnavailable, err)
	}

	out.Source = weather.SourceIntermediary
	// cache metadata only describes this process's cache
	out.Cache = nil

	return out, nil
}

// State reports the breaker state, "disabled" when no breaker is configured.
func (p *Proxy) State() string {
	if p == nil || p.breaker == nil {
		return "disabled"
	}
	return p.breaker.State().String()
}
