package cache

import (
	"context"
	"sync"
	"time"

	"github.com/vzahanych/weather-lookup/internal/weather"
)

// MemoryStore is the process-local store. Entries live until they are read
// after expiry or the process exits; there is no background sweep.
type MemoryStore struct {
	mutex sync.RWMutex
	items map[string]*Entry
	ttl   time.Duration
	now   func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		items: make(map[string]*Entry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// WithClock replaces the time source used for expiry checks.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, bool, error) {
	s.mutex.RLock()
	entry, exists := s.items[key]
	s.mutex.RUnlock()

	if !exists {
		return nil, false, nil
	}

	if expired(entry.WrittenAt, s.now(), s.ttl) {
		s.mutex.Lock()
		// a concurrent Put may have refreshed the key in the meantime
		if current, ok := s.items[key]; ok && current == entry {
			delete(s.items, key)
		}
		s.mutex.Unlock()
		return nil, false, nil
	}

	out := *entry
	out.Payload = *entry.Payload.Clone()
	return &out, true, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, payload *weather.Response, writtenAt time.Time) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.items[key] = &Entry{
		Key:       key,
		Payload:   *payload.Clone(),
		WrittenAt: writtenAt,
	}
	return nil
}

func (s *MemoryStore) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.items = make(map[string]*Entry)
}

func (s *MemoryStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.items)
}

func (s *MemoryStore) TTL() time.Duration {
	return s.ttl
}
