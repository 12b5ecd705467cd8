// Package metrics is a minimal atomic counter/gauge registry for the
// hillshading engine. It deliberately stays off prometheus/client_golang:
// the engine has no HTTP exposition surface of its own, and
// pulling in a full registry for half a dozen in-process counters would be
// dead weight for callers that only want the library.
package metrics

import "sync/atomic"

// Counters holds the running totals for one HgtCache instance.
type Counters struct {
	FilesIndexed   atomic.Int64
	FilesSkipped   atomic.Int64
	CacheHits      atomic.Int64
	CacheMisses    atomic.Int64
	Evictions      atomic.Int64
	BytesAdmitted  atomic.Int64
	BytesInFlight  atomic.Int64
}

// Snapshot is a point-in-time copy of Counters suitable for logging or tests.
type Snapshot struct {
	FilesIndexed  int64
	FilesSkipped  int64
	CacheHits     int64
	CacheMisses   int64
	Evictions     int64
	BytesAdmitted int64
	BytesInFlight int64
}

func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		FilesIndexed:  c.FilesIndexed.Load(),
		FilesSkipped:  c.FilesSkipped.Load(),
		CacheHits:     c.CacheHits.Load(),
		CacheMisses:   c.CacheMisses.Load(),
		Evictions:     c.Evictions.Load(),
		BytesAdmitted: c.BytesAdmitted.Load(),
		BytesInFlight: c.BytesInFlight.Load(),
	}
}
