package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dpup/prefab/errors"
	"github.com/dpup/prefab/logging"

	"github.com/dpup/fieldgeo/server/internal/lib/events"
)

// staleSweepDelay is how long after a read hits an expired entry the cache
// sweeps, so bursts of stale reads share one sweep.
const staleSweepDelay = time.Second

// Cache provides thread-safe in-memory caching with TTL. Directions
// responses are stored here so repeated optimizations of the same stop list
// do not hit the routing provider again.
type Cache struct {
	entries map[string]*cacheEntry
	mutex   sync.RWMutex

	sweep *events.Debouncer[struct{}]
}

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
	source    string
}

// NewCache creates a new in-memory cache
func NewCache() *Cache {
	c := &Cache{
		entries: make(map[string]*cacheEntry),
	}
	c.sweep = events.NewDebouncer(staleSweepDelay, func(struct{}) { c.CleanupStale() })
	return c
}

// ContentKey derives a stable key from the JSON form of v, so equal requests
// share an entry regardless of how the caller assembled them.
func ContentKey(prefix string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cache key content: %w", err)
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", prefix, hash), nil
}

// Set stores data in cache for ttl. source names the upstream that produced
// the data and is reported when entries are swept.
func (c *Cache) Set(key string, data any, ttl time.Duration, source string) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data for cache: %w", err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = &cacheEntry{
		data:      jsonData,
		expiresAt: time.Now().Add(ttl),
		source:    source,
	}
	return nil
}

// Get retrieves data from cache if not stale. Reading an expired entry
// schedules a sweep.
func (c *Cache) Get(key string, result any) (bool, error) {
	c.mutex.RLock()
	entry, exists := c.entries[key]
	c.mutex.RUnlock()

	if !exists {
		return false, nil
	}
	if time.Now().After(entry.expiresAt) {
		c.sweep.Call(struct{}{})
		return false, nil
	}

	if err := json.Unmarshal(entry.data, result); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached data: %w", err)
	}

	return true, nil
}

// Len returns the number of entries held, stale ones included
func (c *Cache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}

// CleanupStale removes all stale entries and returns how many were removed
// per source.
func (c *Cache) CleanupStale() map[string]int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	removed := make(map[string]int)

	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			removed[entry.source]++
		}
	}

	return removed
}

// StartPeriodicCleanup starts a goroutine that removes stale entries every
// interval until ctx is done. ctx must carry a logger.
func (c *Cache) StartPeriodicCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		defer func() {
			// Recover from any panics in the cache cleanup goroutine
			if r := recover(); r != nil {
				err, _ := errors.ParseStack(debug.Stack())
				skipFrames := 3
				numFrames := 5
				logging.Errorw(ctx, "Cache cleanup: recovered from panic",
					"error", r, "error.stack_trace", err.MinimalStack(skipFrames, numFrames))
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				c.sweep.Cancel()
				return
			case <-ticker.C:
				for source, removed := range c.CleanupStale() {
					logging.Infow(ctx, "Cache cleanup: removed stale entries",
						"source", source, "removed", removed, "remaining", c.Len())
				}
			}
		}
	}()
}
