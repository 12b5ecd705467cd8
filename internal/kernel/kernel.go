// Package kernel defines the shading kernel contract: the pluggable
// "process one unit element" operation and its output-sizing counterparts.
// The pipeline in internal/raster is generic over Kernel; the actual
// bicubic/bilinear shading formula is an implementation detail of a
// concrete Kernel.
package kernel

import "hillshade/internal/dem"

// Info is the subset of dem.FileInfo a kernel needs to size and tag its
// output, kept separate from dem.FileInfo so kernel does not need to import
// tileinfo's cache-tag machinery.
type Info struct {
	InputAxisLen int
	TileHash     uint64
}

// Kernel computes one greyscale output byte grid from four-sample unit
// elements. Implementations must be safe for concurrent ProcessUnitElement
// calls against disjoint regions of the same output buffer (the pipeline
// guarantees disjoint row ranges per compute task).
type Kernel interface {
	// InputAxisLen must equal sqrt(size/2) - 1 for the given DEM tile.
	InputAxisLen(info Info) int
	// OutputAxisLen returns the output side length for the given display
	// parameters.
	OutputAxisLen(info Info, zoom int, pxLat, pxLon float64) int
	// OutputWidth is OutputAxisLen + 2*padding.
	OutputWidth(info Info, padding int, zoom int, pxLat, pxLon float64) int
	// OutputSizeBytes is an upper bound on the rendered bitmap's footprint,
	// used for admission before the bitmap is materialised.
	OutputSizeBytes(info Info, padding int, zoom int, pxLat, pxLon float64) int64
	// CacheTagBin is folded into the cache tag alongside tile identity and
	// padding: (H(info)*31+padding)*31+CacheTagBin.
	CacheTagBin(info Info, zoom int, pxLat, pxLon float64) int64
	// ProcessUnitElement consumes one 2x2 window of samples and writes the
	// resulting byte(s) into out starting at outIx, returning the next
	// out index to use for the following unit element in the same row.
	// meters is the interpolated ground distance for this row. outWidth
	// is the stride between output rows; factor is the super-sampling
	// replication factor for this render (>=1, identity at 1) -- a unit
	// element this is called for always produces exactly one factor x
	// factor block of output, since sub-sampling is handled by the
	// caller only invoking this for the retained unit elements.
	ProcessUnitElement(out []byte, nw, sw, se, ne int16, meters float64, outIx, outWidth, factor int) int
}

// CacheTag computes a 64-bit fingerprint:
// (H(info)*31 + padding)*31 + cacheTagBin.
func CacheTag(infoHash uint64, padding int, cacheTagBin int64) uint64 {
	h := infoHash*31 + uint64(padding)
	h = h*31 + uint64(cacheTagBin)
	return h
}

// InfoHash derives the H(info) term from a dem.FileInfo's tile key and
// size: a stable 64-bit FNV-1a style polynomial hash.
func InfoHash(fi *dem.FileInfo) uint64 {
	h := uint64(1469598103934665603) // FNV offset basis
	mix := func(x int64) {
		h ^= uint64(x)
		h *= 1099511628211 // FNV prime
	}
	mix(int64(fi.Key.North))
	mix(int64(fi.Key.East))
	mix(fi.SizeBytes)
	return h
}
