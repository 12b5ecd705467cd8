// Package lru implements the dual-budget (count + bytes, with a min_count
// floor) cache of completed LoadFutures, built on top of
// hashicorp/golang-lru/v2/simplelru for ordered count tracking and move-to-
// front, with the byte-budget eviction loop layered on top.
package lru

import (
	"sync"
	"sync/atomic"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"hillshade/internal/dem"
	"hillshade/internal/logging"
	"hillshade/internal/metrics"
)

// Entry is anything the LRU can hold a strong/weak reference pair over: a
// byte footprint once computed, and retain/release hooks matching
// tileinfo.Entry's ref-counted weak-reference scheme.
type Entry interface {
	SizeBytes() int64
	Retain()
	Release()
}

// Key identifies one cached render: a tile at a given zoom level. Distinct
// quality factors at the same zoom share a slot, matching tileinfo's
// per-zoom (not per-cache-tag) future table.
type Key struct {
	Tile dem.TileKey
	Zoom int
}

// Cache is a dual-budget LRU: max_count, max_bytes, and a min_count floor
// that never evicts below it regardless of the byte budget, preventing
// starvation in high-quality mode where a few renders can exceed the byte
// budget alone. All mutating operations serialise on a single mutex;
// byte/count totals are additionally atomic so size_bytes() reads lock-free.
type Cache struct {
	mu       sync.Mutex
	inner    *simplelru.LRU[Key, Entry]
	maxCount int
	minCount int
	maxBytes int64

	bytes atomic.Int64
	count atomic.Int64

	log  *logging.Logger
	mets *metrics.Counters
}

// unboundedSize disables simplelru's own capacity-triggered eviction; this
// cache's count/byte eviction loop is driven explicitly by MarkUsed and
// EnsureEnoughSpace instead.
const unboundedSize = 1 << 30

func NewCache(maxCount, minCount int, maxBytes int64, log *logging.Logger, mets *metrics.Counters) *Cache {
	c := &Cache{maxCount: maxCount, minCount: minCount, maxBytes: maxBytes, log: log, mets: mets}
	inner, err := simplelru.NewLRU[Key, Entry](unboundedSize, nil)
	if err != nil {
		// unboundedSize is a positive compile-time constant; NewLRU only
		// fails for size <= 0.
		panic(err)
	}
	c.inner = inner
	return c
}

func (c *Cache) MaxBytes() int64 { return c.maxBytes }

// SizeBytes is the LRU's current aggregate byte footprint.
func (c *Cache) SizeBytes() int64 { return c.bytes.Load() }

// Count is the LRU's current entry count.
func (c *Cache) Count() int64 { return c.count.Load() }

// MarkUsed records a use of entry: remove the entry if present
// (subtracting its bytes), append at the MRU end (adding its bytes), then
// evict from the LRU end while count > max_count or (count > min_count and
// bytes > max_bytes). Must be called only after entry's future has
// completed, so SizeBytes is populated.
func (c *Cache) MarkUsed(key Key, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.inner.Peek(key); ok {
		c.bytes.Add(-old.SizeBytes())
		old.Release()
	} else {
		c.count.Add(1)
	}

	entry.Retain()
	c.inner.Add(key, entry)
	c.bytes.Add(entry.SizeBytes())

	for c.count.Load() > int64(c.maxCount) ||
		(c.count.Load() > int64(c.minCount) && c.bytes.Load() > c.maxBytes) {
		if !c.evictOldestLocked() {
			break
		}
	}
}

// EnsureEnoughSpace evicts from the LRU end while the set is non-empty and
// want+bytes > max_bytes. Called before awaiting a future so eviction
// happens before the new bytes materialise.
func (c *Cache) EnsureEnoughSpace(want int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.count.Load() > 0 && want+c.bytes.Load() > c.maxBytes {
		if !c.evictOldestLocked() {
			break
		}
	}
}

// evictOldestLocked must be called with mu held.
func (c *Cache) evictOldestLocked() bool {
	_, val, ok := c.inner.RemoveOldest()
	if !ok {
		return false
	}
	c.count.Add(-1)
	c.bytes.Add(-val.SizeBytes())
	val.Release()
	if c.mets != nil {
		c.mets.Evictions.Add(1)
	}
	if c.log != nil {
		c.log.Printf("evicted entry, count=%d bytes=%d", c.count.Load(), c.bytes.Load())
	}
	return true
}
