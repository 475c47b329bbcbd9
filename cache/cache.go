// Package cache holds recent scrape results so repeat requests within a
// caller-chosen window can skip the fetch pipeline entirely.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/models"
)

// entry holds a cached result with its creation timestamp.
type entry struct {
	result    *models.ScrapeResult
	createdAt time.Time
}

// Cache is a simple in-memory cache for scrape results.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
}

// New creates a Cache with the given maximum number of entries.
// A background goroutine runs every 5 minutes to evict entries older
// than 1 hour regardless of per-request acceptance windows.
func New(maxEntries int) *Cache {
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
	}

	go c.cleanupLoop()
	return c
}

// Key derives the cache key from everything that changes a result's
// payload: the URL, the requested fact types (order-insensitive), the
// forced backend and the content/proxy flags.
func Key(req *models.ScrapeRequest) string {
	names := make([]string, len(req.FactTypes))
	for i, ft := range req.FactTypes {
		names[i] = string(ft)
	}
	sort.Strings(names)

	h := sha256.New()
	h.Write([]byte(req.URL))
	for _, n := range names {
		h.Write([]byte("|"))
		h.Write([]byte(n))
	}
	if req.ForcedBackend != "" {
		h.Write([]byte("|backend=" + req.ForcedBackend))
	}
	if req.IncludeContent {
		h.Write([]byte("|content"))
	}
	if req.UseProxy {
		h.Write([]byte("|proxy"))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves a cached result if it exists and is younger than maxAge
// milliseconds. If maxAge <= 0, no cache lookup is performed.
// Returns the result and whether it was a cache hit.
func (c *Cache) Get(key string, maxAgeMs int64) (*models.ScrapeResult, bool) {
	if maxAgeMs <= 0 {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	maxAge := time.Duration(maxAgeMs) * time.Millisecond
	if time.Since(e.createdAt) > maxAge {
		return nil, false
	}

	return e.result, true
}

// Set stores a result in the cache. If the cache is at capacity,
// a random entry is evicted to make room.
func (c *Cache) Set(key string, result *models.ScrapeResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Evict one random entry if at capacity (map iteration is random in Go).
	if len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{
		result:    result,
		createdAt: time.Now(),
	}
}

// cleanupLoop evicts entries older than 1 hour every 5 minutes.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-1 * time.Hour)
		c.mu.Lock()
		for k, e := range c.store {
			if e.createdAt.Before(cutoff) {
				delete(c.store, k)
			}
		}
		c.mu.Unlock()
	}
}
