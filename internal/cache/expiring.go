package cache

import (
	"sync"
	"time"
)

// ExpiringCache drops entries only once their deadline has passed. It has no
// size bound, so a live entry is never pushed out by later writes; the Janitor
// keeps it from growing with dead entries.
type ExpiringCache[T any] struct {
	mu    sync.Mutex
	items map[string]entry[T]
	now   func() time.Time
}

type entry[T any] struct {
	data      T
	expiresAt time.Time
}

func NewExpiringCache[T any]() *ExpiringCache[T] {
	return &ExpiringCache[T]{
		items: make(map[string]entry[T]),
		now:   time.Now,
	}
}

func (c *ExpiringCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	e, ok := c.items[key]
	if !ok {
		return zero, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.items, key)
		return zero, false
	}
	return e.data, true
}

// SetFor replaces any earlier entry for key, deadline included.
func (c *ExpiringCache[T]) SetFor(key string, data T, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry[T]{data: data, expiresAt: c.now().Add(ttl)}
}

func (c *ExpiringCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// CleanExpired removes all expired entries and returns how many went.
func (c *ExpiringCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.items {
		if !now.Before(e.expiresAt) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

func (c *ExpiringCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
