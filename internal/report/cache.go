package report

import (
	"fmt"
	"sync"
	"time"
)

// Cache is the process-lifetime read cache for reconciled stores,
// keyed by the exact (month, year, municipality) triple. It exists to
// short-circuit remote reads when the selection has not changed; it is
// invalidated explicitly after acknowledged writes, never before.
//
// Key equality is exact: callers are responsible for consistent
// municipality casing.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Store
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*Store)}
}

// CacheKey builds the canonical triple key.
func CacheKey(month time.Month, year int, municipality string) string {
	return fmt.Sprintf("%s|%d|%s", month.String(), year, municipality)
}

// Get returns the cached store for the triple, or (nil, false) on miss.
func (c *Cache) Get(month time.Month, year int, municipality string) (*Store, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.entries[CacheKey(month, year, municipality)]
	return s, ok
}

// Put unconditionally overwrites the cached store for the triple.
func (c *Cache) Put(month time.Month, year int, municipality string, s *Store) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[CacheKey(month, year, municipality)] = s
}

// Invalidate removes the cached store for the triple.
func (c *Cache) Invalidate(month time.Month, year int, municipality string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, CacheKey(month, year, municipality))
}
