package standings

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
)

var (
	cacheHits = prometheus.NewCounter(prometheus.CounterOpts{Name: "standings_cache_hits_total"})
	cacheMiss = prometheus.NewCounter(prometheus.CounterOpts{Name: "standings_cache_miss_total"})
)

// snapshotCache keeps the latest computed snapshot per board, with
// singleflight so concurrent readers trigger at most one recompute.
type snapshotCache struct {
	mu    sync.RWMutex
	items map[string]*Snapshot
	ttl   time.Duration
	group singleflight.Group
}

func newSnapshotCache(ttl time.Duration) *snapshotCache {
	return &snapshotCache{
		items: make(map[string]*Snapshot),
		ttl:   ttl,
	}
}

func (c *snapshotCache) Get(boardID string) (*Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[boardID]
	if !ok || (c.ttl > 0 && time.Since(v.ComputedAt) > c.ttl) {
		cacheMiss.Inc()
		return nil, false
	}
	cacheHits.Inc()
	return v, true
}

func (c *snapshotCache) Set(boardID string, v *Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[boardID] = v
}

func (c *snapshotCache) Invalidate(boardID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, boardID)
}

// Do coalesces concurrent fills for the same board.
func (c *snapshotCache) Do(boardID string, fn func() (interface{}, error)) (interface{}, error) {
	v, err, _ := c.group.Do(boardID, fn)
	return v, err
}
