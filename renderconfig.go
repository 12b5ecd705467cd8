package hillshade

import (
	"context"
	"sync"
	"sync/atomic"

	"hillshade/internal/bitmap"
	"hillshade/internal/config"
	"hillshade/internal/dem"
	"hillshade/internal/kernel"
	"hillshade/internal/logging"
)

// antimeridianThreshold is the |longitude| beyond which a miss is retried
// with the tile's east coordinate wrapped by ±180.
const antimeridianThreshold = 178

// RenderConfig is the stable facade in front of HgtCache: it holds the
// mutable (DemFolder, Kernel, Config) triple and rebuilds the cache
// atomically whenever one of them changes, rather than mutating a cache in
// place.
type RenderConfig struct {
	mu     sync.Mutex
	folder dem.Folder
	krn    kernel.Kernel
	cfg    config.Config

	builtFolder dem.Folder
	builtKernel kernel.Kernel
	builtCfg    config.Config

	cache atomic.Pointer[HgtCache]
	log   *logging.Logger
}

// NewRenderConfig builds a RenderConfig and its first HgtCache immediately.
func NewRenderConfig(folder dem.Folder, krn kernel.Kernel, cfg *config.Config) *RenderConfig {
	rc := &RenderConfig{folder: folder, krn: krn, cfg: *cfg, log: logging.New("RenderConfig")}
	rc.ApplyConfiguration(false)
	return rc
}

// Configure updates the desired (folder, kernel, config) triple. The change
// only takes effect once ApplyConfiguration is called.
func (rc *RenderConfig) Configure(folder dem.Folder, krn kernel.Kernel, cfg *config.Config) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.folder = folder
	rc.krn = krn
	rc.cfg = *cfg
}

// ApplyConfiguration rebuilds the cache if the desired triple differs from
// the one currently built, swapping the pointer atomically so in-flight
// requests against the old cache are unaffected. When a new cache is built
// and allowBackground is true, background indexing is kicked off
// immediately instead of waiting for the first request to pay for it.
func (rc *RenderConfig) ApplyConfiguration(allowBackground bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	old := rc.cache.Load()
	if old != nil && rc.builtFolder == rc.folder && rc.builtKernel == rc.krn && rc.builtCfg == rc.cfg {
		return
	}

	cfg := rc.cfg
	next := NewHgtCache(rc.folder, &cfg, rc.krn)
	rc.cache.Store(next)
	rc.builtFolder, rc.builtKernel, rc.builtCfg = rc.folder, rc.krn, rc.cfg

	if allowBackground {
		next.WarmIndexInBackground()
	}
	if old != nil {
		old.Close()
	}
}

// Current returns the presently active HgtCache, building one on first use
// if ApplyConfiguration has never run.
func (rc *RenderConfig) Current() *HgtCache {
	if c := rc.cache.Load(); c != nil {
		return c
	}
	rc.ApplyConfiguration(false)
	return rc.cache.Load()
}

// Request is the engine's public entry point. On a miss for a tile whose
// |east| exceeds antimeridianThreshold (within two degrees of the date
// line), it retries once with east wrapped by ±180, papering over the
// boundary-tile absences that show up right at the antimeridian.
func (rc *RenderConfig) Request(ctx context.Context, tile dem.TileKey, zoom int, pxLat, pxLon float64) (*bitmap.ShadeBitmap, error) {
	cache := rc.Current()
	bmp, err := cache.Request(ctx, tile, zoom, pxLat, pxLon)
	if bmp != nil && err == nil {
		return bmp, nil
	}
	if tile.East <= antimeridianThreshold && tile.East >= -antimeridianThreshold {
		return bmp, err
	}

	wrapped := tile
	if tile.East > 0 {
		wrapped.East = tile.East - 180
	} else {
		wrapped.East = tile.East + 180
	}
	return cache.Request(ctx, wrapped, zoom, pxLat, pxLon)
}
