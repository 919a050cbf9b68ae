package linkcheck

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCacheMiss is returned when no entry exists for a URL.
var ErrCacheMiss = errors.New("cache miss")

// CacheEntry is a cached probe result. Entries are shared by every link
// pointing at the same URL.
type CacheEntry struct {
	URL           string    `json:"url"`
	Status        int       `json:"status"`
	Healthy       bool      `json:"healthy"`
	Title         string    `json:"title,omitempty"`
	Error         string    `json:"error,omitempty"`
	CheckedAt     time.Time `json:"checked_at"`
	FailureCount  int       `json:"failure_count"`
	FirstFailedAt time.Time `json:"first_failed_at,omitzero"`
}

// Cache stores probe results between runs.
type Cache interface {
	Get(ctx context.Context, url string) (*CacheEntry, error)
	Set(ctx context.Context, entry *CacheEntry) error
	Close() error
}

// Fresh reports whether e is younger than the TTL for its outcome.
func (e *CacheEntry) Fresh(now time.Time, ttl, failureTTL time.Duration) bool {
	if e == nil {
		return false
	}
	limit := ttl
	if !e.Healthy {
		limit = failureTTL
	}
	return now.Sub(e.CheckedAt) < limit
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]CacheEntry
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]CacheEntry)}
}

func (c *MemoryCache) Get(_ context.Context, url string) (*CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[url]
	if !ok {
		return nil, ErrCacheMiss
	}
	return &e, nil
}

func (c *MemoryCache) Set(_ context.Context, entry *CacheEntry) error {
	if entry == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.URL] = *entry
	return nil
}

func (c *MemoryCache) Close() error { return nil }
