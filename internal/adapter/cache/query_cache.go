package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"sync"
	"time"

	"reviewrag/internal/domain"
	"reviewrag/internal/metrics"
	"reviewrag/internal/port"
)

// QueryCache is an LRU cache of retrieval results with a TTL.
// Entries are tagged with the index generation they were computed against
// and are discarded once the index changes.
type QueryCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	order   []string
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	results   []domain.SearchResult
	timestamp time.Time
	indexGen  uint64
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(query string, topK int, filter domain.Filter) string {
	h := sha256.New()
	h.Write([]byte(query))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(topK)))

	fields := make([]string, 0, len(filter))
	for f := range filter {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		h.Write([]byte{0})
		h.Write([]byte(f))
		h.Write([]byte{'='})
		h.Write([]byte(filter[f]))
	}

	return hex.EncodeToString(h.Sum(nil)[:16])
}

func (c *QueryCache) Get(query string, topK int, filter domain.Filter, indexGen uint64) ([]domain.SearchResult, bool) {
	key := cacheKey(query, topK, filter)

	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if c.now().Sub(entry.timestamp) > c.ttl || entry.indexGen != indexGen {
		c.mu.Lock()
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	c.moveToEnd(key)
	c.mu.Unlock()

	return entry.results, true
}

func (c *QueryCache) Put(query string, topK int, filter domain.Filter, indexGen uint64, results []domain.SearchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, topK, filter)
	entry := &cacheEntry{
		results:   results,
		timestamp: c.now(),
		indexGen:  indexGen,
	}

	if _, exists := c.entries[key]; exists {
		c.entries[key] = entry
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = entry
	c.order = append(c.order, key)
}

func (c *QueryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
}

func (c *QueryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *QueryCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *QueryCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *QueryCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// Generationer reports the current index generation.
type Generationer interface {
	Generation() uint64
}

// CachedRetriever memoizes a Retriever against an index generation.
type CachedRetriever struct {
	retriever port.Retriever
	index     Generationer
	cache     *QueryCache
}

var _ port.Retriever = (*CachedRetriever)(nil)

func NewCachedRetriever(retriever port.Retriever, index Generationer, cache *QueryCache) *CachedRetriever {
	return &CachedRetriever{
		retriever: retriever,
		index:     index,
		cache:     cache,
	}
}

func (r *CachedRetriever) Retrieve(ctx context.Context, query string, k int, filter domain.Filter) ([]domain.SearchResult, error) {
	gen := r.index.Generation()
	if results, hit := r.cache.Get(query, k, filter, gen); hit {
		metrics.RetrievalCacheTotal.WithLabelValues("hit").Inc()
		return results, nil
	}
	metrics.RetrievalCacheTotal.WithLabelValues("miss").Inc()

	results, err := r.retriever.Retrieve(ctx, query, k, filter)
	if err != nil {
		return nil, err
	}

	r.cache.Put(query, k, filter, gen, results)
	return results, nil
}
