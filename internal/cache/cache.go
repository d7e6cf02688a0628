// Package cache provides the process-wide memoization layer for remote
// reads: a keyed TTL store with namespace invalidation and in-flight
// request coalescing. One Cache is constructed in main and passed by
// reference to every consumer — there is no package-level singleton.
package cache

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a TTL-bounded key/value store. Keys are unbounded in count for
// this system's scale; expiry is the only eviction policy. Safe for
// concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	group   singleflight.Group
	now     func() time.Time
}

// New returns an empty Cache using the wall clock.
func New() *Cache {
	return NewWithClock(time.Now)
}

// NewWithClock returns a Cache whose TTL checks use the given clock.
// Tests inject a fake clock to exercise expiry without sleeping.
func NewWithClock(now func() time.Time) *Cache {
	return &Cache{entries: make(map[string]entry), now: now}
}

// Get returns the value stored under key, or ok=false when the key is
// absent or its TTL has elapsed. Expired entries are dropped on access.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for the given TTL, replacing any previous
// entry and restarting its clock.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
}

// IsValid reports whether key holds an unexpired entry.
func (c *Cache) IsValid(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Clear removes every entry whose key starts with prefix. Write paths call
// this with their namespace prefix (e.g. "trips:") so no stale read can be
// served after a mutation. An empty prefix clears the whole cache.
func (c *Cache) Clear(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
}

// Do executes fn, coalescing concurrent calls for the same key: while one
// call is in flight, later callers wait for and share its result instead
// of issuing redundant requests. The in-flight slot is released when fn
// settles, success or failure, so a failed fetch never wedges the key.
func (c *Cache) Do(key string, fn func() (any, error)) (any, error) {
	v, err, _ := c.group.Do(key, fn)
	return v, err
}
