// Package cache provides a small in-memory TTL cache used by the store layer.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Config holds the cache configuration.
type Config struct {
	// DefaultTTL is the time-to-live applied by Set.
	DefaultTTL time.Duration
	// CleanupInterval is how often expired entries are swept. Zero disables
	// the background sweeper; expired entries are then dropped lazily on Get.
	CleanupInterval time.Duration
	// MaxItems bounds the number of entries. Zero means unbounded.
	MaxItems int
	// OnEviction, when set, is invoked for entries removed by expiry or
	// capacity pressure.
	OnEviction func(key string, value any)
}

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a concurrency-safe in-memory cache with per-entry TTL.
type Cache struct {
	config Config

	data  sync.Map
	count atomic.Int64

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a cache and starts its cleanup goroutine when configured.
func New(config Config) *Cache {
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 10 * time.Minute
	}

	c := &Cache{
		config: config,
		done:   make(chan struct{}),
	}

	if config.CleanupInterval > 0 {
		go c.cleanupLoop()
	}

	return c
}

// Get returns the value for key if present and not expired.
func (c *Cache) Get(_ context.Context, key string) (any, bool) {
	raw, ok := c.data.Load(key)
	if !ok {
		return nil, false
	}
	e := raw.(*entry)
	if time.Now().After(e.expiresAt) {
		c.remove(key, e)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	c.SetWithTTL(ctx, key, value, c.config.DefaultTTL)
}

// SetWithTTL stores value under key with an explicit TTL.
func (c *Cache) SetWithTTL(_ context.Context, key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.config.DefaultTTL
	}
	e := &entry{value: value, expiresAt: time.Now().Add(ttl)}
	if _, loaded := c.data.Swap(key, e); !loaded {
		c.count.Add(1)
	}
	if c.config.MaxItems > 0 && c.count.Load() > int64(c.config.MaxItems) {
		c.evictOldest()
	}
}

// Delete removes key from the cache.
func (c *Cache) Delete(_ context.Context, key string) {
	if _, loaded := c.data.LoadAndDelete(key); loaded {
		c.count.Add(-1)
	}
}

// Clear removes every entry.
func (c *Cache) Clear(_ context.Context) {
	c.data.Range(func(key, _ any) bool {
		if _, loaded := c.data.LoadAndDelete(key); loaded {
			c.count.Add(-1)
		}
		return true
	})
}

// Size returns the current number of entries.
func (c *Cache) Size() int64 {
	return c.count.Load()
}

// Close stops the cleanup goroutine. The cache stays usable afterwards but
// expired entries are only dropped lazily.
func (c *Cache) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	return nil
}

func (c *Cache) remove(key string, e *entry) {
	if _, loaded := c.data.LoadAndDelete(key); loaded {
		c.count.Add(-1)
		if c.config.OnEviction != nil {
			c.config.OnEviction(key, e.value)
		}
	}
}

// evictOldest drops the entry closest to expiry to get back under MaxItems.
func (c *Cache) evictOldest() {
	var oldestKey string
	var oldest *entry
	c.data.Range(func(key, raw any) bool {
		e := raw.(*entry)
		if oldest == nil || e.expiresAt.Before(oldest.expiresAt) {
			oldestKey = key.(string)
			oldest = e
		}
		return true
	})
	if oldest != nil {
		c.remove(oldestKey, oldest)
	}
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.data.Range(func(key, raw any) bool {
				e := raw.(*entry)
				if now.After(e.expiresAt) {
					c.remove(key.(string), e)
				}
				return true
			})
		case <-c.done:
			return
		}
	}
}
