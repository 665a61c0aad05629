package api

import (
	"strings"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/yesmonga/karting-sub000/internal/metrics"
)

// ResponseCache keeps encoded responses of read-only endpoints for a short
// time. A cache with a non-positive TTL is disabled.
type ResponseCache struct {
	cache     *cache.Cache
	ttl       time.Duration
	mu        sync.Mutex
	hitCount  uint64
	missCount uint64
}

// NewResponseCache creates a new response cache
func NewResponseCache(ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		return &ResponseCache{}
	}
	return &ResponseCache{
		cache: cache.New(ttl, ttl*2),
		ttl:   ttl,
	}
}

// Enabled reports whether responses are cached
func (rc *ResponseCache) Enabled() bool {
	return rc.cache != nil
}

// Get retrieves a cached response body
func (rc *ResponseCache) Get(key string) ([]byte, bool) {
	if !rc.Enabled() {
		return nil, false
	}

	body, found := rc.cache.Get(key)
	rc.mu.Lock()
	if found {
		rc.hitCount++
	} else {
		rc.missCount++
	}
	rc.mu.Unlock()
	rc.updateMetrics()

	if !found {
		return nil, false
	}
	b, ok := body.([]byte)
	return b, ok
}

// Set stores a response body
func (rc *ResponseCache) Set(key string, body []byte) {
	if !rc.Enabled() {
		return
	}
	rc.cache.Set(key, body, rc.ttl)
}

// InvalidatePrefix removes every entry whose key starts with prefix
func (rc *ResponseCache) InvalidatePrefix(prefix string) {
	if !rc.Enabled() {
		return
	}
	for k := range rc.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			rc.cache.Delete(k)
		}
	}
}

// Clear flushes the entire cache
func (rc *ResponseCache) Clear() {
	rc.mu.Lock()
	rc.hitCount = 0
	rc.missCount = 0
	rc.mu.Unlock()
	if rc.Enabled() {
		rc.cache.Flush()
	}
}

// Stats returns cache statistics
func (rc *ResponseCache) Stats() (hits, misses uint64, ratio float64) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	hits = rc.hitCount
	misses = rc.missCount
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

// ItemCount returns the number of items in cache
func (rc *ResponseCache) ItemCount() int {
	if !rc.Enabled() {
		return 0
	}
	return rc.cache.ItemCount()
}

func (rc *ResponseCache) updateMetrics() {
	_, _, ratio := rc.Stats()
	metrics.SetAPICacheHitRatio(ratio)
}
