// Package idempotency provides a time-bounded store of submit results,
// keyed by client order id, so a repeated submission returns the first
// result instead of creating a duplicate venue order.
package idempotency

import (
	"sync"
	"time"

	"venue_go/internal/domain"
)

// Cache is a TTL-bounded idempotency store. Safe for concurrent use.
type Cache struct {
	mu    sync.Mutex
	items map[string]entry
	ttl   time.Duration
}

type entry struct {
	result    domain.OrderResult
	expiresAt time.Time
}

// New returns a cache with the provided ttl.
func New(ttl time.Duration) *Cache {
	return &Cache{
		items: make(map[string]entry),
		ttl:   ttl,
	}
}

// Get returns the stored result if present and not expired.
func (c *Cache) Get(key string) (domain.OrderResult, bool) {
	if c == nil {
		return domain.OrderResult{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if item, ok := c.items[key]; ok {
		if time.Now().Before(item.expiresAt) {
			return item.result, true
		}
		delete(c.items, key)
	}
	return domain.OrderResult{}, false
}

// Set stores a result until ttl expiry.
func (c *Cache) Set(key string, result domain.OrderResult) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry{
		result:    result,
		expiresAt: time.Now().Add(c.ttl),
	}
}
