package pipeline

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/seo-compare/engine/analyzer"
	"github.com/seo-compare/engine/crawler"
)

const (
	maxCacheEntries = 100
	cleanupInterval = 5 * time.Minute
)

type cacheEntry struct {
	result    *analyzer.SiteResult
	timestamp time.Time
}

// resultCache keeps recent competitor analyses so repeat comparisons of
// the same URL within the TTL skip the crawl. A zero TTL disables it.
type resultCache struct {
	mutex   sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

func newResultCache(ttl time.Duration) *resultCache {
	c := &resultCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
	if ttl > 0 {
		go c.periodicCleanup()
	}
	return c
}

// cacheKey hashes the crawl-normalized URL so trivially different
// spellings of one page share an entry.
func cacheKey(rawURL string) string {
	key := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		key = crawler.Normalize(u)
	}
	hash := md5.Sum([]byte(key))
	return hex.EncodeToString(hash[:])
}

func (c *resultCache) get(rawURL string) (*analyzer.SiteResult, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, found := c.entries[cacheKey(rawURL)]
	if !found || time.Since(entry.timestamp) > c.ttl {
		return nil, false
	}
	return entry.result, true
}

func (c *resultCache) put(rawURL string, res *analyzer.SiteResult) {
	if c.ttl <= 0 || res == nil {
		return
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[cacheKey(rawURL)] = cacheEntry{result: res, timestamp: time.Now()}
	if len(c.entries) > maxCacheEntries {
		c.evictOldest(len(c.entries) - maxCacheEntries)
	}
}

// evictOldest drops the n stalest entries. Caller holds the write lock.
func (c *resultCache) evictOldest(n int) {
	type aged struct {
		key       string
		timestamp time.Time
	}
	all := make([]aged, 0, len(c.entries))
	for key, entry := range c.entries {
		all = append(all, aged{key, entry.timestamp})
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].timestamp.Before(all[j].timestamp)
	})
	for i := 0; i < n && i < len(all); i++ {
		delete(c.entries, all[i].key)
	}
}

func (c *resultCache) periodicCleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.cleanup()
	}
}

func (c *resultCache) cleanup() {
	now := time.Now()
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for key, entry := range c.entries {
		if now.Sub(entry.timestamp) > c.ttl {
			delete(c.entries, key)
		}
	}
}

func (c *resultCache) size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}
