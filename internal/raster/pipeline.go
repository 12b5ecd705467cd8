// Package raster implements the parallel producer/consumer raster pipeline:
// multiple reader tasks stream DEM rows through a bounded pool of buffers
// into compute tasks, paced by an active-task admission cap, each compute
// task invoking a pluggable kernel.Kernel once per unit element.
package raster

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"hillshade/internal/bitmap"
	"hillshade/internal/bufpool"
	"hillshade/internal/dem"
	"hillshade/internal/kernel"
	"hillshade/internal/logging"
	"hillshade/internal/sync2"
)

// defaultElementsPerTask is the per-compute-task element density target
// used to pick how many compute tasks to spawn.
const defaultElementsPerTask = 16000

// StopFlag is the cooperative stop signal checked by every inner loop. The
// zero value is "not stopped".
type StopFlag struct {
	stopped atomic.Bool
}

func (s *StopFlag) Stop()       { s.stopped.Store(true) }
func (s *StopFlag) Continue()   { s.stopped.Store(false) }
func (s *StopFlag) Stopped() bool {
	return s != nil && s.stopped.Load()
}

// Params bundles everything one pipeline invocation needs. Built immutably
// by the caller and never mutated afterward.
type Params struct {
	File           dem.File
	InputAxisLen   int // Lin
	OutputAxisLen  int // Lout
	Padding        int
	ReaderThreads  int // extra readers beyond the caller
	ComputeThreads int
	// ElementsPerTask overrides defaultElementsPerTask; 0 uses the default.
	ElementsPerTask int

	Kernel     kernel.Kernel
	KernelInfo kernel.Info

	// NorthMetersPerElement / SouthMetersPerElement are the per-element
	// ground distance at the tile's north and south edge, linearly
	// interpolated per row.
	NorthMetersPerElement float64
	SouthMetersPerElement float64

	SamplePool *bufpool.Pool // input arrays, keyed by length
	LinePool   *bufpool.Pool // single-row line buffers, keyed by length

	Stop *StopFlag
	Log  *logging.Logger
}

// Run executes the pipeline and returns the assembled ShadeBitmap. A reader
// that fails to open its stream logs and contributes no output for its row
// range; the overall output buffer is still returned, partial or
// zero-initialised for the affected rows, rather than failing the whole
// render.
func Run(ctx context.Context, p Params) (*bitmap.ShadeBitmap, error) {
	lin := p.InputAxisLen
	rowLen := lin + 1
	elementsPerTask := p.ElementsPerTask
	if elementsPerTask <= 0 {
		elementsPerTask = defaultElementsPerTask
	}

	canSkip := p.File.CanSkip()
	r := 1 + p.ReaderThreads
	if !canSkip {
		r = 1
	}

	c := computeTaskCount(lin, r, p.ComputeThreads, elementsPerTask)
	linesPerTask := lin / c
	if linesPerTask < 1 {
		linesPerTask = 1
	}

	out := bitmap.New(p.OutputAxisLen, p.Padding)

	// superFactor > 1 replicates one unit element into a superFactor x
	// superFactor output block (super-sampling); subStride > 1 keeps only
	// every subStride-th unit element per axis (sub-sampling, by
	// decimation). At most one of the two is ever greater than 1, since
	// AdaptiveQualityFactor only admits divisors that evenly divide lin.
	superFactor, subStride := 1, 1
	if lin > 0 && p.OutputAxisLen >= lin {
		if p.OutputAxisLen%lin == 0 {
			superFactor = p.OutputAxisLen / lin
		}
	} else if lin > 0 && p.OutputAxisLen > 0 && lin%p.OutputAxisLen == 0 {
		subStride = lin / p.OutputAxisLen
	}

	maxActive := int64((1 + 2*p.ComputeThreads) * (1 + p.ReaderThreads))
	if maxActive < 1 {
		maxActive = 1
	}
	active := sync2.NewActiveCounter(maxActive, sync2.NewAwaiter())

	poolSize := int64(p.ReaderThreads + p.ComputeThreads)
	if poolSize < 1 {
		poolSize = 1
	}
	pool := semaphore.NewWeighted(poolSize)

	computeTasksPerReader := c / r
	if computeTasksPerReader < 1 {
		computeTasksPerReader = 1
	}

	var readerWG sync.WaitGroup
	for i := 0; i < r; i++ {
		from := i * computeTasksPerReader
		to := from + computeTasksPerReader
		if i == r-1 {
			to = c
		}
		if from >= to {
			continue
		}

		readerWG.Add(1)
		runReader := func(readerIdx, from, to int) {
			defer readerWG.Done()
			rt := &readerTask{
				p:            &p,
				rowLen:       rowLen,
				linesPerTask: linesPerTask,
				lin:          lin,
				c:            c,
				out:          out,
				outWidth:     out.Width,
				superFactor:  superFactor,
				subStride:    subStride,
				active:       active,
				pool:         pool,
			}
			rt.run(ctx, from, to)
		}
		if i == r-1 {
			runReader(i, from, to) // caller's own thread runs the last reader inline
		} else {
			go runReader(i, from, to)
		}
	}
	readerWG.Wait()

	return out, nil
}

// computeTaskCount picks the number of compute tasks C.
func computeTaskCount(lin, r, computeThreads, elementsPerTask int) int {
	if computeThreads == 0 {
		return 1
	}
	byHalf := lin / 2
	byDensity := (lin * lin) / elementsPerTask
	c := byHalf
	if byDensity < c {
		c = byDensity
	}
	if c < r {
		c = r
	}
	if c < 1 {
		c = 1
	}
	return c
}
