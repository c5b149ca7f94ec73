// Package cache keeps recent exploration outcomes in memory so repeated
// requests for the same seed and topic skip the network.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/use-agent/scout/explore"
	"github.com/use-agent/scout/models"
)

// entry holds a cached outcome with its creation timestamp.
type entry struct {
	outcome   explore.Outcome
	createdAt time.Time
}

// Cache is an in-memory outcome cache. It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	ttl        time.Duration
	now        func() time.Time

	hits   atomic.Uint64
	misses atomic.Uint64

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a Cache holding at most maxEntries outcomes. A background
// goroutine evicts entries older than ttl; call Close to stop it.
func New(maxEntries int, ttl time.Duration) *Cache {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Key identifies one exploration: seed URL, topic (case-insensitive) and
// action budget.
func Key(seedURL, topic string, callsLimit int) string {
	h := sha256.New()
	h.Write([]byte(seedURL))
	h.Write([]byte("|"))
	h.Write([]byte(strings.ToLower(strings.TrimSpace(topic))))
	h.Write([]byte("|"))
	h.Write([]byte(strconv.Itoa(callsLimit)))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a cached outcome younger than maxAge. maxAge <= 0 skips the
// lookup and does not count as a miss.
func (c *Cache) Get(key string, maxAge time.Duration) (explore.Outcome, bool) {
	if maxAge <= 0 {
		return explore.Outcome{}, false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok || c.now().Sub(e.createdAt) > min(maxAge, c.ttl) {
		c.misses.Add(1)
		return explore.Outcome{}, false
	}
	c.hits.Add(1)
	return e.outcome, true
}

// Set stores an outcome. At capacity a random entry is evicted first.
func (c *Cache) Set(key string, out explore.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		// Map iteration order is random.
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{outcome: out, createdAt: c.now()}
}

// Stats reports size and hit counters.
func (c *Cache) Stats() models.CacheStats {
	c.mu.RLock()
	n := len(c.store)
	c.mu.RUnlock()
	return models.CacheStats{
		Entries:    n,
		MaxEntries: c.maxEntries,
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
	}
}

// Close stops the cleanup goroutine.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(max(c.ttl/3, time.Minute))
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *Cache) evictExpired() {
	cutoff := c.now().Add(-c.ttl)
	c.mu.Lock()
	for k, e := range c.store {
		if e.createdAt.Before(cutoff) {
			delete(c.store, k)
		}
	}
	c.mu.Unlock()
}

// cacheable reports whether an outcome says something lasting about the
// seed. Canceled runs and unreachable seeds are retried next time.
func cacheable(out explore.Outcome) bool {
	return out.StopReason != explore.StopCanceled && out.StopReason != explore.StopSeedUnreachable
}

// Explorer serves explorations from the cache before running next.
type Explorer struct {
	next   explore.Explorer
	cache  *Cache
	maxAge time.Duration
}

// NewExplorer wraps next. maxAge bounds entry age for Explore calls.
func NewExplorer(next explore.Explorer, c *Cache, maxAge time.Duration) *Explorer {
	return &Explorer{next: next, cache: c, maxAge: maxAge}
}

// Explore implements explore.Explorer.
func (e *Explorer) Explore(ctx context.Context, seedURL, topic string, callsLimit int) explore.Outcome {
	out, _ := e.ExploreMaxAge(ctx, seedURL, topic, callsLimit, e.maxAge)
	return out
}

// ExploreMaxAge is Explore with a per-call maxAge. It also reports whether
// the outcome came from the cache.
func (e *Explorer) ExploreMaxAge(ctx context.Context, seedURL, topic string, callsLimit int, maxAge time.Duration) (explore.Outcome, bool) {
	if e.cache == nil {
		return e.next.Explore(ctx, seedURL, topic, callsLimit), false
	}

	key := Key(seedURL, topic, callsLimit)
	if out, ok := e.cache.Get(key, maxAge); ok {
		return out, true
	}

	out := e.next.Explore(ctx, seedURL, topic, callsLimit)
	if cacheable(out) {
		e.cache.Set(key, out)
	}
	return out, false
}
