package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vietddude/matchfeed/internal/core/clock"
	"github.com/vietddude/matchfeed/internal/core/domain"
	"github.com/vietddude/matchfeed/internal/matching/metrics"
)

// ErrLoadInProgress is returned when an initial load is already running.
var ErrLoadInProgress = errors.New("initial load already in progress")

// FetchFunc performs one page fetch. The control layer wires this through
// the circuit breaker so the cache never talks to the gateway directly.
type FetchFunc func(ctx context.Context, filters domain.FetchFilters, excludeIDs []string) (*domain.Page, error)

// Stats is a snapshot of cache bookkeeping.
type Stats struct {
	CacheSize    int
	ViewedCount  int
	HasMore      bool
	LastLoadTime time.Time
}

// Cache holds fetched candidates keyed by id, the set of viewed ids, and
// the pagination cursor for the active filter set. All state is session
// scoped and in-memory.
type Cache struct {
	mu         sync.Mutex
	fetch      FetchFunc
	candidates map[string]domain.Candidate
	order      []string
	viewed     map[string]struct{}
	filters    *domain.FetchFilters
	nextCursor string
	lastLoad   time.Time
	loading    bool

	preload singleflight.Group
	clk     clock.Clock
	log     *slog.Logger
}

// New creates an empty cache.
func New(fetch FetchFunc, clk clock.Clock, log *slog.Logger) *Cache {
	return &Cache{
		fetch:      fetch,
		candidates: make(map[string]domain.Candidate),
		viewed:     make(map[string]struct{}),
		clk:        clk,
		log:        log,
	}
}

// LoadInitial discards any prior contents, resets the cursor and viewed set,
// and fetches the first page for the given filters. Returns
// ErrLoadInProgress if a load is already running.
func (c *Cache) LoadInitial(ctx context.Context, filters domain.FetchFilters) ([]domain.Candidate, error) {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return nil, ErrLoadInProgress
	}
	c.loading = true
	c.reset()
	c.filters = &filters
	c.mu.Unlock()

	page, err := c.fetch(ctx, filters, nil)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false

	if err != nil {
		return nil, err
	}

	for _, cand := range page.Candidates {
		c.store(cand)
	}
	c.nextCursor = nextCursorFor(page, filters.Limit)
	c.lastLoad = c.clk.Now()
	metrics.CacheSize.Set(float64(len(c.candidates)))

	c.log.Debug("Initial matches loaded",
		"count", len(page.Candidates), "has_more", c.nextCursor != "")
	return page.Candidates, nil
}

// GetNext fetches the next page of up to limit candidates. It returns an
// empty batch without any network call when no filter set is active or the
// cursor is exhausted. Already cached ids are not duplicated.
func (c *Cache) GetNext(ctx context.Context, limit int) ([]domain.Candidate, error) {
	c.mu.Lock()
	if c.filters == nil || c.nextCursor == "" {
		c.mu.Unlock()
		return nil, nil
	}

	filters := *c.filters
	filters.Limit = limit
	filters.PageSize = limit
	filters.Cursor = c.nextCursor
	exclude := c.viewedIDsLocked()
	c.mu.Unlock()

	page, err := c.fetch(ctx, filters, exclude)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, cand := range page.Candidates {
		if _, exists := c.candidates[cand.ID]; exists {
			continue
		}
		c.store(cand)
	}
	c.nextCursor = nextCursorFor(page, limit)
	metrics.CacheSize.Set(float64(len(c.candidates)))

	return page.Candidates, nil
}

// Preload warms the cache with the next small batch in the background.
// Concurrent calls coalesce into a single underlying fetch; the call is a
// no-op when no further pages exist.
func (c *Cache) Preload(ctx context.Context, batchSize int) error {
	c.mu.Lock()
	noMore := c.filters == nil || c.nextCursor == ""
	c.mu.Unlock()
	if noMore {
		return nil
	}

	_, err, shared := c.preload.Do("preload", func() (any, error) {
		// Result is discarded; the side effect is cache population.
		_, err := c.GetNext(ctx, batchSize)
		return nil, err
	})
	if shared {
		metrics.PreloadsCoalesced.Inc()
	}
	return err
}

// RecordViewed marks a candidate id as viewed. Viewed ids are excluded from
// subsequent page fetches within the session.
func (c *Cache) RecordViewed(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewed[id] = struct{}{}
}

// HasBeenViewed reports whether an id was ever recorded as viewed.
func (c *Cache) HasBeenViewed(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.viewed[id]
	return ok
}

// Get returns a cached candidate by id.
func (c *Cache) Get(id string) (domain.Candidate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cand, ok := c.candidates[id]
	return cand, ok
}

// Candidates returns cached candidates in insertion order.
func (c *Cache) Candidates() []domain.Candidate {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]domain.Candidate, 0, len(c.order))
	for _, id := range c.order {
		result = append(result, c.candidates[id])
	}
	return result
}

// HasMore reports whether further pages exist.
func (c *Cache) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextCursor != ""
}

// Stats returns a snapshot of cache bookkeeping.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		CacheSize:    len(c.candidates),
		ViewedCount:  len(c.viewed),
		HasMore:      c.nextCursor != "",
		LastLoadTime: c.lastLoad,
	}
}

// Clear discards all cached candidates, the viewed set, and cursor state.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
	metrics.CacheSize.Set(0)
}

// store inserts a candidate. Caller must hold c.mu.
func (c *Cache) store(cand domain.Candidate) {
	if _, exists := c.candidates[cand.ID]; !exists {
		c.order = append(c.order, cand.ID)
	}
	c.candidates[cand.ID] = cand
}

// reset clears all state. Caller must hold c.mu.
func (c *Cache) reset() {
	c.candidates = make(map[string]domain.Candidate)
	c.order = nil
	c.viewed = make(map[string]struct{})
	c.filters = nil
	c.nextCursor = ""
	c.lastLoad = time.Time{}
}

// viewedIDsLocked copies the viewed set. Caller must hold c.mu.
func (c *Cache) viewedIDsLocked() []string {
	ids := make([]string, 0, len(c.viewed))
	for id := range c.viewed {
		ids = append(ids, id)
	}
	return ids
}

// nextCursorFor applies the exhaustion rule: a batch that is empty or
// shorter than requested means no further pages exist.
func nextCursorFor(page *domain.Page, requested int) string {
	if len(page.Candidates) == 0 {
		return ""
	}
	if requested > 0 && len(page.Candidates) < requested {
		return ""
	}
	return page.NextCursor
}
