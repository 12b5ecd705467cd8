// Package hillshade turns a folder of DEM tiles into on-demand greyscale
// hillshading bitmaps under a fixed memory and concurrency budget. See
// RenderConfig for the stable entry point; HgtCache is the per-configuration
// cache it manages.
package hillshade

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"hillshade/internal/bitmap"
	"hillshade/internal/bufpool"
	"hillshade/internal/config"
	"hillshade/internal/dem"
	"hillshade/internal/geo"
	"hillshade/internal/kernel"
	"hillshade/internal/logging"
	"hillshade/internal/lru"
	"hillshade/internal/metrics"
	"hillshade/internal/raster"
	"hillshade/internal/sync2"
	"hillshade/internal/tileinfo"
)

// ErrAbsent is returned when the requested tile is not in the index.
var ErrAbsent = errors.New("hillshade: tile not found")

// reaperInterval governs how often the tile-info table sweeps reclaimed
// (evicted) per-zoom future slots.
const reaperInterval = 30 * time.Second

// HgtCache is one fully-built instance of the engine over a fixed
// (DemFolder, Kernel, Config) triple. It owns the index, the per-tile future
// table, the LRU, and the admission limiter; all are safe for concurrent use.
type HgtCache struct {
	Index   *dem.Index
	Table   *tileinfo.Table
	LRU     *lru.Cache
	Limiter *sync2.Limiter
	Kernel  kernel.Kernel
	Config  *config.Config
	Log     *logging.Logger
	Metrics *metrics.Counters

	samplePool *bufpool.Pool
	linePool   *bufpool.Pool
}

// NewHgtCache builds a fresh cache over folder. The index itself is built
// lazily on first lookup; the reaper starts immediately since it is harmless
// to run against an empty table.
func NewHgtCache(folder dem.Folder, cfg *config.Config, krn kernel.Kernel) *HgtCache {
	log := logging.New("HgtCache")
	mets := &metrics.Counters{}

	c := &HgtCache{
		Index:      dem.NewIndex(folder, log, mets),
		Table:      tileinfo.NewTable(),
		LRU:        lru.NewCache(cfg.MaxCount, cfg.MinCount, cfg.MaxBytes(), log, mets),
		Limiter:    sync2.NewLimiter(),
		Kernel:     krn,
		Config:     cfg,
		Log:        log,
		Metrics:    mets,
		samplePool: bufpool.New(),
		linePool:   bufpool.New(),
	}
	c.Table.StartReaper(reaperInterval)
	return c
}

// WarmIndexInBackground kicks off the (expensive) folder walk without
// blocking the caller, matching the background-indexing idiom used when a
// configuration change is applied without forcing an immediate rebuild.
func (c *HgtCache) WarmIndexInBackground() {
	go c.Index.Len()
}

// Close stops the cache's background reaper goroutine. A RenderConfig that
// rebuilds its cache should Close the old one.
func (c *HgtCache) Close() {
	c.Table.Stop()
}

// Request runs the per-request algorithm: admission via the byte limiter,
// index lookup, future coalescing via the tile-info table, eviction ordered
// strictly before awaiting the future, and mark_used ordered strictly after.
func (c *HgtCache) Request(ctx context.Context, tile dem.TileKey, zoom int, pxLat, pxLon float64) (*bitmap.ShadeBitmap, error) {
	reqID := uuid.New()
	padding := c.Config.Padding()

	info, ok := c.Index.Get(tile)
	if !ok {
		c.Metrics.CacheMisses.Add(1)
		return nil, ErrAbsent
	}

	kinfo := kernel.Info{InputAxisLen: info.InputAxisLen, TileHash: kernel.InfoHash(info)}
	est := c.Kernel.OutputSizeBytes(kinfo, padding, zoom, pxLat, pxLon)

	c.Metrics.BytesInFlight.Add(est)
	c.Limiter.Add(est, c.LRU.MaxBytes())
	defer func() {
		c.Limiter.Subtract(est)
		c.Metrics.BytesInFlight.Add(-est)
	}()
	c.Metrics.BytesAdmitted.Add(est)

	ti := c.Table.GetOrCreate(tile, info)
	tagBin := c.Kernel.CacheTagBin(kinfo, zoom, pxLat, pxLon)
	tag := kernel.CacheTag(kinfo.TileHash, padding, tagBin)

	entry := ti.GetOrCreateFuture(zoom, tag, func() (*bitmap.ShadeBitmap, int64, error) {
		return c.render(ctx, info, kinfo, padding, zoom, pxLat, pxLon)
	}, c.Log)

	if !entry.Fut.IsDone() {
		c.Log.Printf("req=%s tile=%s zoom=%d: ensuring %d bytes of space before render", reqID, tile, zoom, est)
		c.LRU.EnsureEnoughSpace(est)
	}

	bmp, err := entry.Fut.Await()

	c.LRU.MarkUsed(lruKey(tile, zoom), entry)

	if err != nil {
		c.Metrics.CacheMisses.Add(1)
		c.Log.Printf("req=%s tile=%s zoom=%d: render failed: %v", reqID, tile, zoom, err)
		return nil, err
	}
	c.Metrics.CacheHits.Add(1)
	return bmp, nil
}

// render runs the raster pipeline for one tile/zoom/display combination; it
// is the compute function handed to the tile-info table's LoadFuture.
func (c *HgtCache) render(ctx context.Context, info *dem.FileInfo, kinfo kernel.Info, padding, zoom int, pxLat, pxLon float64) (*bitmap.ShadeBitmap, int64, error) {
	outAxis := c.Kernel.OutputAxisLen(kinfo, zoom, pxLat, pxLon)

	north := geo.MetersPerElement(float64(info.Key.North), info.InputAxisLen)
	south := geo.MetersPerElement(float64(info.Key.North-1), info.InputAxisLen)

	p := raster.Params{
		File:                  info.File,
		InputAxisLen:          info.InputAxisLen,
		OutputAxisLen:         outAxis,
		Padding:               padding,
		ReaderThreads:         c.Config.ReaderThreads,
		ComputeThreads:        c.Config.ComputeThreads,
		Kernel:                c.Kernel,
		KernelInfo:            kinfo,
		NorthMetersPerElement: north,
		SouthMetersPerElement: south,
		SamplePool:            c.samplePool,
		LinePool:              c.linePool,
		Stop:                  &raster.StopFlag{},
		Log:                   c.Log,
	}

	bmp, err := raster.Run(ctx, p)
	if err != nil {
		return nil, 0, err
	}
	return bmp, bmp.SizeBytes(), nil
}

func lruKey(tile dem.TileKey, zoom int) lru.Key {
	return lru.Key{Tile: tile, Zoom: zoom}
}
