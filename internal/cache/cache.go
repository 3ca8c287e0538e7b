// Package cache provides the time-boxed revalidation store used to bound
// how often external collaborators are queried. Entries are reused until
// their window elapses; expiry is checked lazily on read.
package cache

import (
	"sync"
	"time"
)

// Cache is a generic key-value store with expiry.
type Cache[T any] interface {
	// Get retrieves a value, reporting false when absent or expired.
	Get(key string) (T, bool)

	// Set stores a value with a fresh expiry window.
	Set(key string, data T)

	// Delete removes a key.
	Delete(key string)

	// Size returns the current number of entries, expired included.
	Size() int
}

// TTLCache is a mutex-guarded in-memory Cache with a fixed revalidation
// window and a size bound. When over capacity the entry closest to expiry
// is evicted. Keys here are per-credential, so the population stays tiny;
// the bound is protection against unbounded credential churn.
type TTLCache[T any] struct {
	mu      sync.Mutex
	window  time.Duration
	maxSize int
	items   map[string]entry[T]
}

type entry[T any] struct {
	data      T
	expiresAt time.Time
}

// NewTTLCache creates a cache whose entries live for one revalidation window.
func NewTTLCache[T any](maxSize int, window time.Duration) *TTLCache[T] {
	return &TTLCache[T]{
		window:  window,
		maxSize: maxSize,
		items:   make(map[string]entry[T]),
	}
}

func (c *TTLCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	e, ok := c.items[key]
	if !ok {
		return zero, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.items, key)
		return zero, false
	}
	return e.data, true
}

func (c *TTLCache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry[T]{data: data, expiresAt: time.Now().Add(c.window)}

	if len(c.items) <= c.maxSize {
		return
	}
	// Evict the entry expiring soonest.
	var victim string
	var soonest time.Time
	for k, e := range c.items {
		if victim == "" || e.expiresAt.Before(soonest) {
			victim = k
			soonest = e.expiresAt
		}
	}
	delete(c.items, victim)
}

func (c *TTLCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *TTLCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// CleanExpired removes expired entries and returns how many were dropped.
func (c *TTLCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for k, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, k)
			removed++
		}
	}
	return removed
}
