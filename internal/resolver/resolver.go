package resolver

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/vzahanych/weather-lookup/internal/cache"
	"github.com/vzahanych/weather-lookup/internal/weather"
	"github.com/vzahanych/weather-lookup/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrEmptyCity is returned when the query has no city after trimming.
var ErrEmptyCity = errors.New("city must not be empty")

// Intermediary is the best-effort backend attempt. ok=false means "absent".
type Intermediary interface {
	TryFetch(ctx context.Context, city string) (*weather.Response, bool)
}

// Provider is the direct upstream path. Both payloads are required.
type Provider interface {
	FetchAll(ctx context.Context, city string) (*weather.RawCurrent, *weather.RawForecast, error)
}

// MetricsRecorder receives resolution events.
type MetricsRecorder interface {
	RecordCacheHit(ctx context.Context)
	RecordCacheMiss(ctx context.Context)
	RecordResolution(ctx context.Context, source weather.Source)
	RecordIntermediaryFallback(ctx context.Context)
	RecordUpstreamError(ctx context.Context)
}

type Options struct {
	Store        cache.Store
	Intermediary Intermediary
	Provider     Provider
	Reducer      weather.Reducer
	Namespace    string
	Logger       *zap.Logger
	Telemetry    *telemetry.Telemetry
	Metrics      MetricsRecorder
	// Coalesce collapses concurrent resolutions of the same key into one.
	Coalesce bool
	Now      func() time.Time
}

// Resolver decides where weather for a city comes from: the request cache,
// then the intermediary, then the provider directly.
type Resolver struct {
	store        cache.Store
	intermediary Intermediary
	provider     Provider
	reducer      weather.Reducer
	namespace    string
	logger       *zap.Logger
	tele         *telemetry.Telemetry
	metrics      MetricsRecorder
	group        *singleflight.Group
	now          func() time.Time
}

func New(opts Options) *Resolver {
	r := &Resolver{
		store:        opts.Store,
		intermediary: opts.Intermediary,
		provider:     opts.Provider,
		reducer:      opts.Reducer,
		namespace:    opts.Namespace,
		logger:       opts.Logger,
		tele:         opts.Telemetry,
		metrics:      opts.Metrics,
		now:          opts.Now,
	}

	if r.store == nil {
		r.store = cache.NewMemoryStore(cache.DefaultTTL)
	}
	if r.reducer == nil {
		r.reducer = weather.StrideReducer{}
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.now == nil {
		r.now = time.Now
	}
	if opts.Coalesce {
		r.group = &singleflight.Group{}
	}

	return r
}

// SetMetricsRecorder sets the metrics recorder for the resolver
func (r *Resolver) SetMetricsRecorder(metrics MetricsRecorder) {
	r.metrics = metrics
}

func (r *Resolver) Store() cache.Store {
	return r.store
}

// Resolve returns weather for city. With bypassCache the cache is not read
// but a successful result still overwrites the entry. Failures never touch
// the cache.
func (r *Resolver) Resolve(ctx context.Context, city string, bypassCache bool) (*weather.Response, error) {
	tracer := r.tele.GetTracer()
	ctx, span := tracer.Start(ctx, "resolver.Resolve")
	defer span.End()

	city = strings.TrimSpace(city)
	if city == "" {
		return nil, ErrEmptyCity
	}

	reqLogger := r.logger
	if requestID, ok := ctx.Value(RequestIDKey{}).(string); ok && requestID != "" {
		reqLogger = r.logger.With(zap.String("request_id", requestID))
	}

	key := cache.CityKey(r.namespace, city)

	span.SetAttributes(
		attribute.String("city", city),
		attribute.String("cache_key", key),
		attribute.Bool("bypass_cache", bypassCache),
	)

	if !bypassCache {
		if resp, ok := r.lookup(ctx, key, reqLogger); ok {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return resp, nil
		}
		span.SetAttributes(attribute.Bool("cache_hit", false))
	}

	if r.group == nil {
		return r.resolveFresh(ctx, city, key, reqLogger)
	}

	// the flight is shared, so one caller going away must not cancel it;
	// the proxy and provider timeouts still bound it
	flightCtx := context.WithoutCancel(ctx)
	v, err, shared := r.group.Do(key, func() (interface{}, error) {
		return r.resolveFresh(flightCtx, city, key, reqLogger)
	})
	if err != nil {
		return nil, err
	}
	resp := v.(*weather.Response)
	if shared {
		resp = resp.Clone()
	}
	return resp, nil
}

func (r *Resolver) lookup(ctx context.Context, key string, logger *zap.Logger) (*weather.Response, bool) {
	entry, ok, err := r.store.Get(ctx, key)
	if err != nil {
		// an unreachable store degrades to a miss
		logger.Warn("Cache lookup failed", zap.String("cache_key", key), zap.Error(err))
	}

	if err != nil || !ok {
		if r.metrics != nil {
			r.metrics.RecordCacheMiss(ctx)
		}
		return nil, false
	}

	logger.Debug("Cache hit", zap.String("cache_key", key), zap.Time("cached_at", entry.WrittenAt))
	if r.metrics != nil {
		r.metrics.RecordCacheHit(ctx)
	}

	resp := entry.Payload.Clone()
	resp.Cache = &weather.CacheMetadata{
		Cached:   true,
		CachedAt: entry.WrittenAt,
	}
	return resp, true
}

func (r *Resolver) resolveFresh(ctx context.Context, city, key string, logger *zap.Logger) (*weather.Response, error) {
	var (
		resp *weather.Response
		ok   bool
	)
	if r.intermediary != nil {
		resp, ok = r.intermediary.TryFetch(ctx, city)
	}

	if ok {
		logger.Info("Weather resolved via intermediary", zap.String("city", city))
	} else {
		if r.intermediary != nil && r.metrics != nil {
			r.metrics.RecordIntermediaryFallback(ctx)
		}

		var err error
		resp, err = r.fetchDirect(ctx, city)
		if err != nil {
			logger.Error("Failed to fetch weather data", zap.String("city", city), zap.Error(err))
			r.tele.RecordError(ctx, err, map[string]interface{}{"city": city})
			if r.metrics != nil {
				r.metrics.RecordUpstreamError(ctx)
			}
			return nil, &weather.UpstreamError{City: city, Err: err}
		}
		logger.Info("Weather resolved via provider", zap.String("city", city))
	}

	writtenAt := r.now()
	if err := r.store.Put(ctx, key, resp, writtenAt); err != nil {
		logger.Warn("Cache write failed", zap.String("cache_key", key), zap.Error(err))
	}

	if r.metrics != nil {
		r.metrics.RecordResolution(ctx, resp.Source)
	}

	return resp, nil
}

func (r *Resolver) fetchDirect(ctx context.Context, city string) (*weather.Response, error) {
	tracer := r.tele.GetTracer()
	ctx, span := tracer.Start(ctx, "resolver.fetchDirect")
	defer span.End()

	current, forecast, err := r.provider.FetchAll(ctx, city)
	if err != nil {
		span.SetAttributes(attribute.Bool("success", false))
		return nil, err
	}

	now := r.now()
	days := r.reducer.Reduce(forecast.List, now)

	span.SetAttributes(
		attribute.String("forecast_policy", string(r.reducer.Policy())),
		attribute.Int("forecast_points", len(forecast.List)),
		attribute.Int("forecast_days", len(days)),
	)

	resp, err := weather.Normalize(current, days, weather.SourceDirectProvider, now)
	if err != nil {
		span.SetAttributes(attribute.Bool("success", false))
		return nil, err
	}

	span.SetAttributes(attribute.Bool("success", true))
	return resp, nil
}

// RequestIDKey is the context key under which handlers store the request ID.
type RequestIDKey struct{}
