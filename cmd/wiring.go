package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/vzahanych/weather-lookup/internal/cache"
	"github.com/vzahanych/weather-lookup/internal/config"
	"github.com/vzahanych/weather-lookup/internal/intermediary"
	"github.com/vzahanych/weather-lookup/internal/provider"
	"github.com/vzahanych/weather-lookup/internal/resolver"
	"github.com/vzahanych/weather-lookup/internal/server"
	"github.com/vzahanych/weather-lookup/internal/weather"
	"go.uber.org/zap"
)

func newStore(ctx context.Context, cfg config.CacheConfig, ttl time.Duration) (cache.Store, func() error, error) {
	switch cfg.Backend {
	case "redis":
		store, err := cache.NewRedisStore(ctx, cache.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, ttl)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Using redis request cache", zap.String("addr", cfg.Redis.Addr), zap.Duration("ttl", ttl))
		return store, store.Close, nil
	default:
		log.Info("Using in-memory request cache", zap.Duration("ttl", ttl))
		return cache.NewMemoryStore(ttl), func() error { return nil }, nil
	}
}

// newAppResolver wires the app-side pipeline: request cache, optional
// intermediary, direct provider.
func newAppResolver(ctx context.Context, cfg *config.Config) (*resolver.Resolver, func() error, error) {
	store, closeStore, err := newStore(ctx, cfg.Cache, cfg.Cache.TTLDuration())
	if err != nil {
		return nil, nil, err
	}

	reducer, err := weather.NewReducer(weather.ForecastPolicy(cfg.Resolver.ForecastPolicy), cfg.Resolver.Location())
	if err != nil {
		_ = closeStore()
		return nil, nil, err
	}

	opts := resolver.Options{
		Store:     store,
		Provider:  provider.NewClient(cfg.Provider, log.Logger, tele),
		Reducer:   reducer,
		Namespace: cfg.Cache.Namespace,
		Logger:    log.Logger,
		Telemetry: tele,
		Coalesce:  cfg.Resolver.Coalesce,
	}
	if proxy := intermediary.NewProxy(cfg.Intermediary, log.Logger, tele); proxy != nil {
		opts.Intermediary = proxy
	}

	log.Info("Resolver configured",
		zap.String("forecast_policy", string(reducer.Policy())),
		zap.Bool("intermediary", cfg.Intermediary.Enabled()),
		zap.Bool("coalesce", cfg.Resolver.Coalesce))

	return resolver.New(opts), closeStore, nil
}

// newBackendResolver wires the intermediary backend's own pipeline. It has
// its own cache namespace and TTL and never calls another intermediary.
func newBackendResolver(ctx context.Context, cfg *config.Config) (*resolver.Resolver, func() error, error) {
	cacheCfg := cfg.Cache
	cacheCfg.Namespace = cfg.Backend.Namespace

	store, closeStore, err := newStore(ctx, cacheCfg, cfg.Backend.CacheTTLDuration())
	if err != nil {
		return nil, nil, err
	}

	reducer, err := weather.NewReducer(weather.ForecastPolicy(cfg.Backend.ForecastPolicy), cfg.Resolver.Location())
	if err != nil {
		_ = closeStore()
		return nil, nil, err
	}

	return resolver.New(resolver.Options{
		Store:     store,
		Provider:  provider.NewClient(cfg.Provider, log.Logger, tele),
		Reducer:   reducer,
		Namespace: cfg.Backend.Namespace,
		Logger:    log.Logger,
		Telemetry: tele,
		Coalesce:  cfg.Resolver.Coalesce,
	}), closeStore, nil
}

// serve runs srv until ctx is cancelled, then drains it.
func serve(ctx context.Context, srv *server.Server) error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			log.Error("Server error", zap.Error(err))
			return fmt.Errorf("server %s: %w", srv.Addr(), err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Error during server shutdown", zap.Error(err))
			return err
		}

		log.Info("Server shutdown complete")
		return nil
	}
}
