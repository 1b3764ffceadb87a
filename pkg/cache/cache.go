package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/taaft-ai/toolsearch/pkg/models"
)

// Cache is an in-process response cache with a per-entry TTL. Entries are
// evicted lazily on Get, eagerly by Sweep, and by recency once the store
// reaches its capacity. All methods are safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries *simplelru.LRU[string, models.CacheEntry]

	enabled   atomic.Bool
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64

	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates an enabled Cache holding at most maxEntries responses.
func New(maxEntries int, opts ...Option) (*Cache, error) {
	entries, err := simplelru.NewLRU[string, models.CacheEntry](maxEntries, nil)
	if err != nil {
		return nil, fmt.Errorf("create cache store: %w", err)
	}
	c := &Cache{
		entries: entries,
		now:     time.Now,
		logger:  slog.Default().With("component", "cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.enabled.Store(true)
	return c, nil
}

// Get returns the payload stored under key. An entry whose age has reached
// its TTL is removed and reported as a miss. A disabled cache always misses.
func (c *Cache) Get(key string) ([]byte, bool) {
	if !c.enabled.Load() {
		return nil, false
	}

	c.mu.Lock()
	entry, ok := c.entries.Get(key)
	if ok && c.expired(entry) {
		c.entries.Remove(key)
		c.evictions.Add(1)
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return entry.Payload, true
}

// Put stores payload under key for ttl, overwriting any previous entry.
// It is a no-op while the cache is disabled.
func (c *Cache) Put(key string, payload []byte, ttl time.Duration) {
	if !c.enabled.Load() || ttl <= 0 {
		return
	}
	entry := models.CacheEntry{
		Payload:   append([]byte(nil), payload...),
		CreatedAt: c.now(),
		TTL:       ttl,
	}

	c.mu.Lock()
	evicted := c.entries.Add(key, entry)
	c.mu.Unlock()

	if evicted {
		c.evictions.Add(1)
	}
}

// Sweep removes every expired entry and returns how many were removed.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, key := range c.entries.Keys() {
		entry, ok := c.entries.Peek(key)
		if ok && c.expired(entry) {
			c.entries.Remove(key)
			removed++
		}
	}
	c.evictions.Add(int64(removed))
	return removed
}

// Run sweeps the cache every interval until ctx is cancelled.
func (c *Cache) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := c.Sweep(); n > 0 {
				c.logger.Info("evicted expired entries", "count", n)
			}
		}
	}
}

// Enable turns the read and write paths back on.
func (c *Cache) Enable() {
	c.enabled.Store(true)
}

// Disable stops both reads and writes immediately. Stored entries are kept.
func (c *Cache) Disable() {
	c.enabled.Store(false)
}

// Enabled reports whether the cache is serving reads and writes.
func (c *Cache) Enabled() bool {
	return c.enabled.Load()
}

// Clear empties the store without changing the enabled flag.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.entries.Len()
	c.entries.Purge()
	return n
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Stats returns cache performance metrics.
func (c *Cache) Stats() models.CacheStats {
	return models.CacheStats{
		Enabled:   c.enabled.Load(),
		Entries:   int64(c.Len()),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

func (c *Cache) expired(e models.CacheEntry) bool {
	return c.now().Sub(e.CreatedAt) >= e.TTL
}
