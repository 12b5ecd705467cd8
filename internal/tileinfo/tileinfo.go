// Package tileinfo implements the per-tile, per-zoom load-future table:
// get_or_create_future with cache-tag based invalidation, and weakly-held
// future semantics where the LRU is the future's owner and this table only
// holds a hint that may be reclaimed once the LRU drops its last strong
// reference.
package tileinfo

import (
	"sync"
	"sync/atomic"
	"time"

	"hillshade/internal/bitmap"
	"hillshade/internal/dem"
	"hillshade/internal/future"
	"hillshade/internal/logging"
)

// Entry wraps one LoadFuture with the cache tag it was built for and a ref
// count standing in for a weak reference: the LRU calls Retain on mark_used
// and Release on eviction, and once the count drops back to zero after the
// LRU has held the entry it is a reaping candidate -- the future may be
// reclaimed once no strong reference remains in the LRU. An entry the LRU
// has not held yet (its render still in flight) is never reclaimed.
type Entry struct {
	Tag  uint64
	Fut  *future.Lazy[*bitmap.ShadeBitmap]
	refs atomic.Int32
	held atomic.Bool
}

func (e *Entry) Retain()  { e.held.Store(true); e.refs.Add(1) }
func (e *Entry) Release() { e.refs.Add(-1) }

// reclaimed reports whether the LRU has dropped its last strong reference.
func (e *Entry) reclaimed() bool { return e.held.Load() && e.refs.Load() <= 0 }

// SizeBytes satisfies the lru package's Entry interface.
func (e *Entry) SizeBytes() int64 { return e.Fut.SizeBytes() }

// Info is one tile's per-zoom future table.
type Info struct {
	FileInfo *dem.FileInfo

	mu     sync.Mutex
	byZoom map[int]*Entry
}

func newInfo(fi *dem.FileInfo) *Info {
	return &Info{FileInfo: fi, byZoom: make(map[int]*Entry)}
}

// GetOrCreateFuture looks up the (possibly reclaimed) future for zoom; if
// it is missing, reclaimed, or its tag no longer matches, it allocates a
// fresh LoadFuture and stores it. Overlapping callers with a matching tag
// always receive the same Entry, so the computation itself is coalesced
// across concurrent callers.
func (ti *Info) GetOrCreateFuture(zoom int, tag uint64, compute func() (*bitmap.ShadeBitmap, int64, error), log *logging.Logger) *Entry {
	ti.mu.Lock()
	defer ti.mu.Unlock()

	if e, ok := ti.byZoom[zoom]; ok && !e.reclaimed() && e.Tag == tag {
		return e
	}

	e := &Entry{Tag: tag, Fut: future.NewLazy(compute, log)}
	ti.byZoom[zoom] = e
	return e
}

// sweep drops any zoom slot whose entry has been reclaimed by the LRU,
// called periodically by Table's reaper goroutine rather than on every
// request, since a slot that is momentarily unreferenced is routinely about
// to be replaced by the very request that just evicted it.
func (ti *Info) sweep() {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	for zoom, e := range ti.byZoom {
		if e.reclaimed() {
			delete(ti.byZoom, zoom)
		}
	}
}

// Table is the registry of per-tile Info records, one per indexed TileKey,
// plus the background reaper that frees reclaimed map slots.
type Table struct {
	mu      sync.RWMutex
	entries map[dem.TileKey]*Info

	stop chan struct{}
	once sync.Once
}

func NewTable() *Table {
	return &Table{entries: make(map[dem.TileKey]*Info), stop: make(chan struct{})}
}

// GetOrCreate returns the Info for key, creating it from fi on first use.
func (t *Table) GetOrCreate(key dem.TileKey, fi *dem.FileInfo) *Info {
	t.mu.RLock()
	info, ok := t.entries[key]
	t.mu.RUnlock()
	if ok {
		return info
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if info, ok := t.entries[key]; ok {
		return info
	}
	info = newInfo(fi)
	t.entries[key] = info
	return info
}

// StartReaper launches the background goroutine that periodically sweeps
// every tile's per-zoom map for reclaimed entries, standing in for a true
// weak reference with an explicit ref count plus a periodic sweep. Calling
// it more than once is a no-op; the goroutine stops when Stop is called.
func (t *Table) StartReaper(interval time.Duration) {
	t.once.Do(func() {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-t.stop:
					return
				case <-ticker.C:
					t.mu.RLock()
					infos := make([]*Info, 0, len(t.entries))
					for _, info := range t.entries {
						infos = append(infos, info)
					}
					t.mu.RUnlock()
					for _, info := range infos {
						info.sweep()
					}
				}
			}
		}()
	})
}

// Stop terminates the reaper goroutine, if running.
func (t *Table) Stop() {
	select {
	case <-t.stop:
	default:
		close(t.stop)
	}
}
