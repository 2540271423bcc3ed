package cache

import (
	"context"
	"strings"
	"time"

	"github.com/vzahanych/weather-lookup/internal/weather"
)

// DefaultTTL is how long a resolved response stays valid for reads.
const DefaultTTL = 30 * time.Minute

// Entry is a cached canonical response and the time it was written.
type Entry struct {
	Key       string           `json:"key"`
	Payload   weather.Response `json:"payload"`
	WrittenAt time.Time        `json:"writtenAt"`
}

// Store is a key-value store with TTL semantics. Get treats expired entries
// as absent and evicts them; Put overwrites unconditionally.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, bool, error)
	Put(ctx context.Context, key string, payload *weather.Response, writtenAt time.Time) error
}

// CityKey builds the cache key for a city: namespace + lowercase(trim(city)).
func CityKey(namespace, city string) string {
	return namespace + strings.ToLower(strings.TrimSpace(city))
}

func expired(writtenAt, now time.Time, ttl time.Duration) bool {
	return now.Sub(writtenAt) > ttl
}
