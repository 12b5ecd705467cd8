package dem

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/samber/lo"

	"hillshade/internal/logging"
	"hillshade/internal/metrics"
)

// TileKey identifies a 1x1 degree DEM tile by the integer lat/lon of its
// south-west corner.
type TileKey struct {
	North int
	East  int
}

func (k TileKey) String() string {
	return fmt.Sprintf("(%d,%d)", k.North, k.East)
}

// FileInfo is the indexed record for one DEM tile, minus the per-zoom
// future table which lives in package tileinfo to avoid an import cycle
// between dem and tileinfo.
type FileInfo struct {
	File      File
	Key       TileKey
	SizeBytes int64
	// InputAxisLen is sqrt(SizeBytes/2) - 1: the number of elements along
	// one axis of the tile, exclusive of the one-sample overlap row/column.
	InputAxisLen int
}

// nameRE matches "...[NS]<1-2 digits>[EW]<1-3 digits>.(hgt|zip)" case
// insensitively.
var nameRE = regexp.MustCompile(`(?i)([ns])(\d{1,2})([ew])(\d{1,3})\.(hgt|zip)$`)

// ParseTileKey extracts a TileKey from a DEM file name, or reports ok=false
// if the name does not match the expected pattern.
func ParseTileKey(name string) (TileKey, bool) {
	m := nameRE.FindStringSubmatch(name)
	if m == nil {
		return TileKey{}, false
	}
	north, _ := strconv.Atoi(m[2])
	east, _ := strconv.Atoi(m[4])
	if strings.EqualFold(m[1], "s") {
		north = -north
	}
	if strings.EqualFold(m[3], "w") {
		east = -east
	}
	return TileKey{North: north, East: east}, true
}

// Problem records a single file that could not be indexed.
type Problem struct {
	Path   string
	Reason string
}

// Index maps TileKey to FileInfo, built lazily on first use by walking a
// Folder. Safe for concurrent Get calls once built; the build is idempotent
// and safe to call from multiple goroutines (only the first caller walks).
type Index struct {
	folder Folder
	log    *logging.Logger
	mets   *metrics.Counters

	once     sync.Once
	mu       sync.RWMutex
	entries  map[TileKey]*FileInfo
	problems []Problem
}

func NewIndex(folder Folder, log *logging.Logger, mets *metrics.Counters) *Index {
	return &Index{folder: folder, log: log, mets: mets, entries: make(map[TileKey]*FileInfo)}
}

// ensureBuilt walks the folder exactly once.
func (idx *Index) ensureBuilt() {
	idx.once.Do(idx.build)
}

func (idx *Index) build() {
	var found []*FileInfo

	err := idx.folder.Walk(func(f File) error {
		key, ok := ParseTileKey(f.Name())
		if !ok {
			idx.recordProblem(f.Name(), "name does not match [NS]dd[EW]ddd.(hgt|zip)")
			return nil
		}

		size := f.SizeBytes()
		samples := size / 2
		side := int(math.Round(math.Sqrt(float64(samples))))
		if int64(side)*int64(side) != samples {
			idx.recordProblem(f.Name(), fmt.Sprintf("size %d bytes is not a square number of samples", size))
			return nil
		}

		found = append(found, &FileInfo{
			File:         f,
			Key:          key,
			SizeBytes:    size,
			InputAxisLen: side - 1,
		})
		return nil
	})
	if err != nil {
		idx.log.Printf("folder walk aborted: %v", err)
	}

	// On duplicate keys the larger file wins; samber/lo.GroupBy groups the
	// candidates per key, then the max-by-size reduction picks the winner.
	byKey := lo.GroupBy(found, func(fi *FileInfo) TileKey { return fi.Key })

	idx.mu.Lock()
	defer idx.mu.Unlock()
	for key, group := range byKey {
		winner := group[0]
		for _, candidate := range group[1:] {
			if candidate.SizeBytes > winner.SizeBytes {
				winner = candidate
			}
		}
		idx.entries[key] = winner
		idx.mets.FilesIndexed.Add(1)
	}
}

func (idx *Index) recordProblem(path, reason string) {
	idx.mu.Lock()
	idx.problems = append(idx.problems, Problem{Path: path, Reason: reason})
	idx.mu.Unlock()
	idx.mets.FilesSkipped.Add(1)
	idx.log.Printf("skipping %s: %s", path, reason)
}

// Get returns the FileInfo for key, building the index on first call.
func (idx *Index) Get(key TileKey) (*FileInfo, bool) {
	idx.ensureBuilt()
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	fi, ok := idx.entries[key]
	return fi, ok
}

// Problems returns the accumulated indexing problems, building the index on
// first call if it hasn't run yet.
func (idx *Index) Problems() []Problem {
	idx.ensureBuilt()
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]Problem, len(idx.problems))
	copy(out, idx.problems)
	return out
}

// Len reports the number of indexed tiles.
func (idx *Index) Len() int {
	idx.ensureBuilt()
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}
