package kv

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore is an in-process Store for local development and tests. It
// mirrors the TTL semantics of the Redis backend but offers no durability.
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates an in-memory store. Expired entries are purged in
// the background once a minute.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cache: gocache.New(gocache.NoExpiration, time.Minute)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	s.cache.Set(key, value, ttl)
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

// Exists implements Store.
func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	_, ok, err := s.Get(ctx, key)
	return ok, err
}
