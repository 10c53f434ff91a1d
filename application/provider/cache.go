package provider

import (
	"container/list"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"ontoview/application/ports"
	"ontoview/domain/core/entities"
	"ontoview/domain/core/valueobjects"
	"ontoview/pkg/observability"
)

// entry is one cache slot: pending (fetch in flight, waiters attached via
// the done channel) or resolved (data + fetch timestamp).
type entry struct {
	done chan struct{}

	pending     bool
	invalidated bool // invalidated while pending: deliver, do not memoize

	data      entities.ElementData
	found     bool
	err       error
	fetchedAt time.Time

	lruNode *list.Element
}

type linkCall struct {
	done  chan struct{}
	links []ports.LinkDescriptor
	err   error
}

// Cache is a request-deduplicating memoization layer over a DataProvider.
// It is the only permitted access path to remote data: at most one fetch is
// in flight per identity at any time, and concurrent callers requesting an
// identity during its pending window share the single result.
//
// A failed fetch rejects every attached caller and clears the affected
// entries, so the next Get retries. Entries may be bounded by an LRU count
// and may go stale after a configured age; both are off by default.
type Cache struct {
	provider ports.DataProvider

	mu         sync.Mutex
	entries    map[valueobjects.ElementID]*entry
	lru        *list.List // resolved ids, most recent at front
	maxEntries int
	staleAfter time.Duration

	linkCalls map[string]*linkCall

	metrics *observability.Metrics
	logger  *zap.Logger
}

// Option configures a Cache
type Option func(*Cache)

// WithMaxEntries bounds the cache to n resolved entries, evicting the least
// recently used beyond the bound. n <= 0 leaves the cache unbounded.
func WithMaxEntries(n int) Option {
	return func(c *Cache) { c.maxEntries = n }
}

// WithStaleAfter makes resolved entries expire after d. Zero keeps entries
// fresh forever.
func WithStaleAfter(d time.Duration) Option {
	return func(c *Cache) { c.staleAfter = d }
}

// WithMetrics attaches Prometheus counters
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// NewCache wraps a data provider
func NewCache(provider ports.DataProvider, logger *zap.Logger, opts ...Option) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cache{
		provider:  provider,
		entries:   make(map[valueobjects.ElementID]*entry),
		lru:       list.New(),
		linkCalls: make(map[string]*linkCall),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get resolves element data for the given identities. Fresh entries are
// served from memory, pending ones are joined, and the remainder is fetched
// from the provider in a single union call. Identities unknown to the
// provider are omitted from the result.
func (c *Cache) Get(ctx context.Context, ids []valueobjects.ElementID) (map[valueobjects.ElementID]entities.ElementData, error) {
	result := make(map[valueobjects.ElementID]entities.ElementData)
	var wait []*entry
	var waitIDs []valueobjects.ElementID
	var fetch []valueobjects.ElementID

	c.mu.Lock()
	seen := make(map[valueobjects.ElementID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		e, ok := c.entries[id]
		switch {
		case ok && e.pending:
			c.metrics.IncCacheJoin()
			wait = append(wait, e)
			waitIDs = append(waitIDs, id)
		case ok && c.fresh(e):
			c.metrics.IncCacheHit()
			c.touchLocked(e)
			if e.found {
				result[id] = e.data.Clone()
			}
		default:
			c.metrics.IncCacheMiss()
			if ok {
				c.dropLocked(id, e)
			}
			pendingEntry := &entry{done: make(chan struct{}), pending: true}
			c.entries[id] = pendingEntry
			wait = append(wait, pendingEntry)
			waitIDs = append(waitIDs, id)
			fetch = append(fetch, id)
		}
	}
	c.mu.Unlock()

	if len(fetch) > 0 {
		c.fetch(ctx, fetch)
	}

	for i, e := range wait {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-e.done:
		}
		if e.err != nil {
			return nil, e.err
		}
		if e.found {
			result[waitIDs[i]] = e.data.Clone()
		}
	}
	return result, nil
}

// Invalidate removes cache entries so the next Get re-fetches them. An
// invalidation racing an in-flight fetch lets the result reach the callers
// already attached to it but prevents it from being memoized.
func (c *Cache) Invalidate(ids []valueobjects.ElementID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		e, ok := c.entries[id]
		if !ok {
			continue
		}
		if e.pending {
			e.invalidated = true
			continue
		}
		c.dropLocked(id, e)
	}
}

// Len returns the number of resolved entries
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if !e.pending {
			n++
		}
	}
	return n
}

// Links fetches the links touching the given identity set. Results are not
// memoized (topology changes server-side) but identical concurrent requests
// share one provider call.
func (c *Cache) Links(ctx context.Context, ids []valueobjects.ElementID) ([]ports.LinkDescriptor, error) {
	key := fingerprint(ids)

	c.mu.Lock()
	if call, ok := c.linkCalls[key]; ok {
		c.mu.Unlock()
		c.metrics.IncCacheJoin()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-call.done:
		}
		return call.links, call.err
	}
	call := &linkCall{done: make(chan struct{})}
	c.linkCalls[key] = call
	c.mu.Unlock()

	links, err := c.provider.FetchLinks(ctx, ids)
	if err != nil {
		c.metrics.IncProviderError()
	}

	c.mu.Lock()
	call.links, call.err = links, err
	delete(c.linkCalls, key)
	c.mu.Unlock()
	close(call.done)

	return links, err
}

// fetch issues the single provider call for a batch and settles its entries.
// The call is detached from the initiating caller's cancellation: other
// callers may have attached to the pending entries, and cancellation is
// advisory for the provider side anyway.
func (c *Cache) fetch(ctx context.Context, ids []valueobjects.ElementID) {
	data, err := c.provider.FetchElementData(context.WithoutCancel(ctx), ids)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.metrics.IncProviderError()
		c.logger.Warn("provider fetch failed",
			zap.Int("ids", len(ids)),
			zap.Error(err),
		)
	}

	now := time.Now()
	for _, id := range ids {
		e, ok := c.entries[id]
		if !ok || !e.pending {
			continue
		}
		e.pending = false
		e.fetchedAt = now
		if err != nil {
			e.err = err
		} else if d, found := data[id]; found {
			e.data = d.Clone()
			e.found = true
		}
		close(e.done)

		// Failed or invalidated entries are not memoized; unknown ids are
		// dropped as well so a later Get may find them.
		if err != nil || e.invalidated || !e.found {
			delete(c.entries, id)
			continue
		}
		e.lruNode = c.lru.PushFront(id)
	}
	c.evictLocked()
}

func (c *Cache) fresh(e *entry) bool {
	if c.staleAfter <= 0 {
		return true
	}
	return time.Since(e.fetchedAt) < c.staleAfter
}

func (c *Cache) touchLocked(e *entry) {
	if e.lruNode != nil {
		c.lru.MoveToFront(e.lruNode)
	}
}

func (c *Cache) dropLocked(id valueobjects.ElementID, e *entry) {
	if e.lruNode != nil {
		c.lru.Remove(e.lruNode)
	}
	delete(c.entries, id)
}

func (c *Cache) evictLocked() {
	if c.maxEntries <= 0 {
		return
	}
	for c.lru.Len() > c.maxEntries {
		oldest := c.lru.Back()
		if oldest == nil {
			return
		}
		id := oldest.Value.(valueobjects.ElementID)
		c.lru.Remove(oldest)
		delete(c.entries, id)
	}
}

func fingerprint(ids []valueobjects.ElementID) string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	sort.Strings(keys)
	return strings.Join(keys, "\x1f")
}
