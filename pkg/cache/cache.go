// Package cache is a small TTL memo for marketplace query results.
package cache

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	// NoExpiration keeps an entry until it is deleted.
	NoExpiration = gocache.NoExpiration
	// DefaultExpiration uses the TTL the cache was created with.
	DefaultExpiration = gocache.DefaultExpiration
)

type Cache struct {
	inner *gocache.Cache
	locks sync.Map
}

// New creates a cache with the given default TTL and cleanup interval.
func New(defaultTTL, cleanupInterval time.Duration) *Cache {
	return &Cache{inner: gocache.New(defaultTTL, cleanupInterval)}
}

func (c *Cache) Get(key string) (any, bool) {
	return c.inner.Get(key)
}

func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.inner.Set(key, value, ttl)
}

func (c *Cache) Delete(key string) {
	c.inner.Delete(key)
}

func (c *Cache) Flush() {
	c.inner.Flush()
}

// Remember returns the cached value for key, or runs fn once and caches
// its result for ttl. Concurrent callers for the same key wait on a
// per-key lock so fn does not run twice.
func (c *Cache) Remember(key string, ttl time.Duration, fn func() (any, error)) (any, error) {
	l, _ := c.locks.LoadOrStore(key, &sync.Mutex{})
	mu := l.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()
	defer c.locks.Delete(key)

	if v, ok := c.inner.Get(key); ok {
		return v, nil
	}
	v, err := fn()
	if err != nil {
		return nil, err
	}
	if v != nil {
		c.inner.Set(key, v, ttl)
	}
	return v, nil
}
