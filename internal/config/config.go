package config

import (
	"sync/atomic"
	"time"
)

var configValue atomic.Value

func GetConfig() *Config {
	cfg, _ := configValue.Load().(*Config)
	if cfg == nil {
		return NewDefaultConfig()
	}
	return cfg
}

func SetConfig(cfg *Config) {
	configValue.Store(cfg)
}

type Config struct {
	Version      string             `mapstructure:"version"`
	Environment  string             `mapstructure:"environment"`
	Server       ServerConfig       `mapstructure:"server"`
	Provider     ProviderConfig     `mapstructure:"provider"`
	Intermediary IntermediaryConfig `mapstructure:"intermediary"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Resolver     ResolverConfig     `mapstructure:"resolver"`
	Backend      BackendConfig      `mapstructure:"backend"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Telemetry    TelemetryConfig    `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	Host         string `mapstructure:"host"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
}

// ProviderConfig describes the upstream weather provider. An empty APIKey
// makes the direct path fail with a configuration error.
type ProviderConfig struct {
	APIKey      string `mapstructure:"api_key"`
	CurrentURL  string `mapstructure:"current_url"`
	ForecastURL string `mapstructure:"forecast_url"`
	Timeout     int    `mapstructure:"timeout"`
}

// IntermediaryConfig describes the optional intermediary backend. An empty
// BaseURL disables the intermediary attempt entirely.
type IntermediaryConfig struct {
	BaseURL            string `mapstructure:"base_url"`
	TimeoutMs          int    `mapstructure:"timeout_ms"`
	BreakerFailures    int    `mapstructure:"breaker_failures"`
	BreakerOpenSeconds int    `mapstructure:"breaker_open_seconds"`
}

type CacheConfig struct {
	Backend   string      `mapstructure:"backend"`
	TTL       int         `mapstructure:"ttl"`
	Namespace string      `mapstructure:"namespace"`
	Redis     RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ResolverConfig struct {
	ForecastPolicy string `mapstructure:"forecast_policy"`
	Timezone       string `mapstructure:"timezone"`
	DefaultCity    string `mapstructure:"default_city"`
	Coalesce       bool   `mapstructure:"coalesce"`
}

// BackendConfig configures the intermediary backend service run by the
// "backend" command. It shares the provider settings with the app.
type BackendConfig struct {
	Port           int    `mapstructure:"port"`
	Host           string `mapstructure:"host"`
	ForecastPolicy string `mapstructure:"forecast_policy"`
	CacheTTL       int    `mapstructure:"cache_ttl"`
	Namespace      string `mapstructure:"namespace"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Version:     "1.0.0",
		Environment: "development",
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  60,
		},
		Provider: ProviderConfig{
			APIKey:      "",
			CurrentURL:  "https://api.openweathermap.org/data/2.5/weather",
			ForecastURL: "https://api.openweathermap.org/data/2.5/forecast",
			Timeout:     10,
		},
		Intermediary: IntermediaryConfig{
			BaseURL:            "",
			TimeoutMs:          1000,
			BreakerFailures:    5,
			BreakerOpenSeconds: 30,
		},
		Cache: CacheConfig{
			Backend:   "memory",
			TTL:       1800,
			Namespace: "weather:",
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Resolver: ResolverConfig{
			ForecastPolicy: "stride",
			Timezone:       "UTC",
			DefaultCity:    "London",
			Coalesce:       false,
		},
		Backend: BackendConfig{
			Port:           8000,
			Host:           "0.0.0.0",
			ForecastPolicy: "skip-today",
			CacheTTL:       1800,
			Namespace:      "backend:weather:",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "",
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			Endpoint:    "tempo:4317",
			ServiceName: "weather-lookup",
		},
	}
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func (c ServerConfig) ReadTimeoutDuration() time.Duration  { return seconds(c.ReadTimeout) }
func (c ServerConfig) WriteTimeoutDuration() time.Duration { return seconds(c.WriteTimeout) }
func (c ServerConfig) IdleTimeoutDuration() time.Duration  { return seconds(c.IdleTimeout) }

func (c ProviderConfig) TimeoutDuration() time.Duration { return seconds(c.Timeout) }

func (c IntermediaryConfig) Enabled() bool { return c.BaseURL != "" }

func (c IntermediaryConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

func (c IntermediaryConfig) BreakerOpenDuration() time.Duration {
	return seconds(c.BreakerOpenSeconds)
}

func (c CacheConfig) TTLDuration() time.Duration { return seconds(c.TTL) }

func (c BackendConfig) CacheTTLDuration() time.Duration { return seconds(c.CacheTTL) }

// Location resolves the configured timezone, falling back to UTC.
func (c ResolverConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
