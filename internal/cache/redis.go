package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vzahanych/weather-lookup/internal/weather"
)

// RedisStore keeps entries in Redis so several app instances share one cache.
// Redis expiry bounds storage; reads still check WrittenAt against the TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

var compareAndDelete = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStore connects and pings the server before returning.
func NewRedisStore(ctx context.Context, opts RedisOptions, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}

	return NewRedisStoreFromClient(client, ttl), nil
}

func NewRedisStoreFromClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, now: time.Now}
}

// WithClock replaces the time source used for expiry checks.
func (s *RedisStore) WithClock(now func() time.Time) *RedisStore {
	s.now = now
	return s
}

func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, bool, error) {
	b, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var entry Entry
	if err := json.Unmarshal(b, &entry); err != nil {
		return nil, false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}

	if expired(entry.WrittenAt, s.now(), s.ttl) {
		if err := s.evictIfUnchanged(ctx, key, b); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}

	return &entry, true, nil
}

// evictIfUnchanged deletes key only while it still holds seen, so a Put
// that lands between the read and the eviction survives.
func (s *RedisStore) evictIfUnchanged(ctx context.Context, key string, seen []byte) error {
	if err := compareAndDelete.Run(ctx, s.client, []string{key}, seen).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis evict %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Put(ctx context.Context, key string, payload *weather.Response, writtenAt time.Time) error {
	b, err := json.Marshal(Entry{Key: key, Payload: *payload, WrittenAt: writtenAt})
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}

	// keep a little headroom so the read-side check decides expiry
	if err := s.client.Set(ctx, key, b, s.ttl+time.Minute).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
