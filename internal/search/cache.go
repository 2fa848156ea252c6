package search

import (
	"fmt"
	"math"
	"sync"

	"apogeecore/pkg/domain"
)

// detailf is fmt.Sprintf under a name that keeps rejection call sites short.
func detailf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}

func sqrt2gh(h float64) float64 {
	if h <= 0 {
		return 0
	}
	return math.Sqrt(2 * domain.StandardGravity * h)
}

// cacheEntry holds one memoized grid-point evaluation. Failed evaluations are
// cached too so a rejected geometry is never re-simulated under another split
// ratio or propellant pass.
type cacheEntry struct {
	result domain.StageResult
	steps  []domain.TimeStep
	err    error
}

// resultCache memoizes simulations keyed by the rounded baseline fingerprint,
// rounded scale tuple and grain count. Writes are idempotent: the same key
// always carries the same value, so concurrent workers at worst duplicate a
// simulation, never corrupt a result.
type resultCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	hits    int
	misses  int
}

func newResultCache() *resultCache {
	return &resultCache{entries: make(map[string]cacheEntry)}
}

func cacheKey(baseline domain.MotorSpec, scales domain.StageScales) string {
	return fmt.Sprintf("%s|%s|%d", baseline.Fingerprint(), scales.Fingerprint(), len(baseline.Grains))
}

func (c *resultCache) get(key string) (cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return entry, ok
}

func (c *resultCache) put(key string, entry cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry
	c.misses++
}

func (c *resultCache) hitCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}

func (c *resultCache) missCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.misses
}
