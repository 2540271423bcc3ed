package intermediary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/weather-lookup/internal/config"
	"github.com/vzahanych/weather-lookup/internal/weather"
	"github.com/vzahanych/weather-lookup/pkg/telemetry"
	"go.uber.org/zap/zaptest"
)

const tokyoBody = `{
	"city": "Tokyo",
	"country": "JP",
	"date": "2026-10-19T03:00:00Z",
	"temp": 21.3,
	"feels_like": 21.0,
	"description": "few clouds",
	"icon": "02d",
	"windSpeed": 4.1,
	"humidity": 58,
	"pressure": 1018,
	"visibility": 10000,
	"forecast": [
		{"date": "2026-10-20T00:00:00Z", "temp": 22, "icon": "01d", "description": "clear sky"},
		{"date": "2026-10-21T00:00:00Z", "temp": 19, "icon": "10d", "description": "light rain"},
		{"date": "2026-10-22T00:00:00Z", "temp": 18, "icon": "04d", "description": "overcast clouds"}
	],
	"source": "direct-provider",
	"cache": {"cached": true, "cachedAt": "2026-10-19T02:50:00Z"}
}`

func newBackend(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestProxy(t *testing.T, baseURL string, timeout time.Duration, breakerFailures int) *Proxy {
	return NewProxy(config.IntermediaryConfig{
		BaseURL:            baseURL,
		TimeoutMs:          int(timeout / time.Millisecond),
		BreakerFailures:    breakerFailures,
		BreakerOpenSeconds: 60,
	}, zaptest.NewLogger(t), &telemetry.Telemetry{})
}

func TestNewProxy_DisabledWithoutBaseURL(t *testing.T) {
	p := NewProxy(config.IntermediaryConfig{}, zaptest.NewLogger(t), nil)
	assert.Nil(t, p)

	resp, ok := p.TryFetch(context.Background(), "Tokyo")
	assert.False(t, ok)
	assert.Nil(t, resp)
	assert.Equal(t, "disabled", p.State())
}

func TestProxy_Success(t *testing.T) {
	var gotCity, gotPath, gotCacheControl string
	srv, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCity = r.URL.Query().Get("city")
		gotCacheControl = r.Header.Get("Cache-Control")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(tokyoBody))
	})

	p := newTestProxy(t, srv.URL+"/", time.Second, 5)
	resp, ok := p.TryFetch(context.Background(), "Tokyo")
	require.True(t, ok)

	assert.Equal(t, Path, gotPath)
	assert.Equal(t, "Tokyo", gotCity)
	assert.Equal(t, "no-cache", gotCacheControl)

	assert.Equal(t, "Tokyo", resp.City)
	assert.Equal(t, "JP", resp.Country)
	assert.Equal(t, 21.3, resp.Temperature)
	assert.Len(t, resp.Forecast, 3)
	assert.Equal(t, weather.SourceIntermediary, resp.Source)
	assert.Nil(t, resp.Cache)
}

func TestProxy_NonSuccessStatus(t *testing.T) {
	srv, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	resp, ok := newTestProxy(t, srv.URL, time.Second, 5).TryFetch(context.Background(), "Paris")
	assert.False(t, ok)
	assert.Nil(t, resp)
}

func TestProxy_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		_, _ = w.Write([]byte(tokyoBody))
	})
	defer close(release)

	start := time.Now()
	resp, ok := newTestProxy(t, srv.URL, 50*time.Millisecond, 5).TryFetch(context.Background(), "Tokyo")

	assert.False(t, ok)
	assert.Nil(t, resp)
	assert.Less(t, time.Since(start), time.Second)
}

func TestProxy_MalformedBody(t *testing.T) {
	bodies := []string{
		`not json`,
		`{"country": "JP", "forecast": []}`,
		`{"city": "Tokyo"}`,
		`{"city": "Tokyo", "forecast": []}`,
		`{"city": "Tokyo", "country": "JP", "description": "few clouds", "icon": "02d", "forecast": []}`,
		`{"city": "Tokyo", "country": "JP", "temp": 21.3, "forecast": []}`,
	}

	for _, body := range bodies {
		body := body
		srv, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})

		_, ok := newTestProxy(t, srv.URL, time.Second, 0).TryFetch(context.Background(), "Tokyo")
		assert.False(t, ok, body)
	}
}

func TestProxy_Unreachable(t *testing.T) {
	srv, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {})
	url := srv.URL
	srv.Close()

	_, ok := newTestProxy(t, url, time.Second, 5).TryFetch(context.Background(), "Tokyo")
	assert.False(t, ok)
}

func TestProxy_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv, calls := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	p := newTestProxy(t, srv.URL, time.Second, 2)

	for i := 0; i < 2; i++ {
		_, ok := p.TryFetch(context.Background(), "Paris")
		assert.False(t, ok)
	}
	assert.Equal(t, "open", p.State())

	_, ok := p.TryFetch(context.Background(), "Paris")
	assert.False(t, ok)
	assert.EqualValues(t, 2, calls.Load(), "open breaker short-circuits the request")
}
