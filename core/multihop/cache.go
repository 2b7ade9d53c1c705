package multihop

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/siherrmann/graphreason/model"
)

// Cache stores multi-hop results by key. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (*model.MultiHopResult, bool, error)
	Set(ctx context.Context, key string, result *model.MultiHopResult, ttl time.Duration) error
	Clear(ctx context.Context) error
}

// MemoryCache is an in-process Cache. Expired entries are dropped when they
// are read, there is no background janitor.
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a MemoryCache whose entries expire after defaultTTL
// unless Set is given another ttl.
func NewMemoryCache(defaultTTL time.Duration) *MemoryCache {
	if defaultTTL <= 0 {
		defaultTTL = gocache.NoExpiration
	}
	return &MemoryCache{cache: gocache.New(defaultTTL, 0)}
}

// Get returns a deep copy of the cached result.
func (m *MemoryCache) Get(ctx context.Context, key string) (*model.MultiHopResult, bool, error) {
	value, ok := m.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	return value.(*model.MultiHopResult).Clone(), true, nil
}

// Set stores a deep copy of result. A ttl of 0 uses the default ttl.
func (m *MemoryCache) Set(ctx context.Context, key string, result *model.MultiHopResult, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	m.cache.Set(key, result.Clone(), ttl)
	return nil
}

// Clear removes all entries.
func (m *MemoryCache) Clear(ctx context.Context) error {
	m.cache.Flush()
	return nil
}

// Len returns the number of stored entries, including expired ones that were
// not read yet.
func (m *MemoryCache) Len() int {
	return m.cache.ItemCount()
}
