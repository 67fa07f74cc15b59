package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mosesmbadi/easymed-sub000/internal/domain/shared"
)

// cacheEntry holds an encoded value so reads never alias a caller's data
type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// InMemoryCache is a process-local TTL cache with the same JSON semantics as RedisCache.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	janitor *janitor
	nowFunc func() time.Time

	hits, misses int64
}

// NewInMemoryCache starts a cache that sweeps expired entries every sweep.
func NewInMemoryCache(sweep time.Duration) *InMemoryCache {
	c := &InMemoryCache{
		entries: make(map[string]cacheEntry),
		nowFunc: time.Now,
	}
	c.janitor = startJanitor(sweep, c.cleanup)
	return c
}

// Get decodes the value under key into dest.
func (c *InMemoryCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || !c.nowFunc().Before(e.expiresAt) {
		c.misses++
		c.mu.Unlock()
		return false, nil
	}
	c.hits++
	c.mu.Unlock()

	if err := json.Unmarshal(e.data, dest); err != nil {
		return false, fmt.Errorf("failed to decode cache value for %s: %w", key, err)
	}
	return true, nil
}

// Set encodes value and stores it for ttl.
func (c *InMemoryCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value for %s: %w", key, err)
	}
	c.mu.Lock()
	c.entries[key] = cacheEntry{data: data, expiresAt: c.nowFunc().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// Delete removes keys.
func (c *InMemoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	c.mu.Unlock()
	return nil
}

// Close stops the sweeper.
func (c *InMemoryCache) Close() error {
	c.janitor.stop()
	return nil
}

// Stats returns hit and miss counts
func (c *InMemoryCache) Stats() (hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

func (c *InMemoryCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFunc()
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

var _ shared.Cache = (*InMemoryCache)(nil)
