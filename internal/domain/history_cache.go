package domain

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/davidbz/repeatguard/internal/observability"
)

const (
	// DefaultCacheTTL is how long fetched history is reused before the store is asked again.
	DefaultCacheTTL = 5 * time.Minute

	// DefaultHistoryLimit caps the number of messages fetched per identity.
	DefaultHistoryLimit = 50

	// DefaultFetchTimeout bounds a single store fetch, independently of the caller's deadline.
	DefaultFetchTimeout = 5 * time.Second

	noExclusionScope = "*"
)

type cacheEntry struct {
	identityKey string
	messages    []StoredMessage
	fetchedAt   time.Time
}

// HistoryCache keeps fetched history per identity and exclusion scope for a fixed TTL.
type HistoryCache struct {
	store        HistoryStore
	ttl          time.Duration
	limit        int
	fetchTimeout time.Duration
	now          func() time.Time

	group singleflight.Group

	mu         sync.Mutex
	entries    map[string]*cacheEntry
	generation uint64
}

// CacheOption customizes a HistoryCache.
type CacheOption func(*HistoryCache)

// WithCacheTTL overrides DefaultCacheTTL.
func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(c *HistoryCache) { c.ttl = ttl }
}

// WithHistoryLimit overrides DefaultHistoryLimit.
func WithHistoryLimit(limit int) CacheOption {
	return func(c *HistoryCache) { c.limit = limit }
}

// WithFetchTimeout overrides DefaultFetchTimeout.
func WithFetchTimeout(timeout time.Duration) CacheOption {
	return func(c *HistoryCache) { c.fetchTimeout = timeout }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *HistoryCache) { c.now = now }
}

// NewHistoryCache creates a history cache in front of store.
func NewHistoryCache(store HistoryStore, opts ...CacheOption) *HistoryCache {
	c := &HistoryCache{
		store:        store,
		ttl:          DefaultCacheTTL,
		limit:        DefaultHistoryLimit,
		fetchTimeout: DefaultFetchTimeout,
		now:          time.Now,
		group:        singleflight.Group{},
		mu:           sync.Mutex{},
		entries:      make(map[string]*cacheEntry),
		generation:   0,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetHistory returns the identity's recent messages, from cache when fresh.
// Store failures are logged and yield an empty history.
//
// The store call is detached from ctx cancellation so that a fetch abandoned by a
// timed-out caller still completes and warms the cache for the next request.
// Concurrent misses for the same key share a single store call.
func (c *HistoryCache) GetHistory(
	ctx context.Context,
	identity string,
	excludeJobID string,
	daysBack int,
) []StoredMessage {
	logger := observability.FromContext(ctx)
	key := cacheKey(identity, excludeJobID)

	messages, generation, ok := c.lookup(key)
	if ok {
		logger.Debug("history cache hit",
			observability.String("cache_key", key),
			observability.Int("messages", len(messages)))
		return messages
	}

	// The generation keeps callers arriving after Clear from joining an older fetch.
	flightKey := key + "@" + strconv.FormatUint(generation, 10)
	result, err, shared := c.group.Do(flightKey, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()

		start := c.now()
		fetched, fetchErr := c.store.FetchMessagesForSimilarity(fetchCtx, identity, HistoryQuery{
			DaysBack:     daysBack,
			Limit:        c.limit,
			ExcludeJobID: excludeJobID,
		})
		if fetchErr != nil {
			return nil, fetchErr
		}

		logger.Debug("history fetched from store",
			observability.String("cache_key", key),
			observability.Int("messages", len(fetched)),
			observability.Duration("elapsed", c.now().Sub(start)))

		c.put(key, generation, fetched)
		return fetched, nil
	})
	if err != nil {
		logger.Warn("failed to fetch history, continuing with empty history",
			observability.Error(err),
			observability.Bool("shared", shared),
			observability.Stage(StageFetchingHistory.String()))
		return []StoredMessage{}
	}

	fetched, _ := result.([]StoredMessage)
	return slices.Clone(fetched)
}

// Clear drops every cached entry. Fetches already in flight do not repopulate the cache.
func (c *HistoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.entries)
	c.generation++
}

// Len returns the number of cached entries, stale ones included.
func (c *HistoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

func (c *HistoryCache) lookup(key string) ([]StoredMessage, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || c.now().Sub(entry.fetchedAt) >= c.ttl {
		return nil, c.generation, false
	}

	return slices.Clone(entry.messages), c.generation, true
}

func (c *HistoryCache) put(key string, generation uint64, messages []StoredMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		return
	}

	now := c.now()
	for k, entry := range c.entries {
		if now.Sub(entry.fetchedAt) >= c.ttl {
			delete(c.entries, k)
		}
	}

	c.entries[key] = &cacheEntry{
		identityKey: key,
		messages:    slices.Clone(messages),
		fetchedAt:   now,
	}
}

func cacheKey(identity, excludeJobID string) string {
	scope := excludeJobID
	if scope == "" {
		scope = noExclusionScope
	}
	return identity + ":" + scope
}
