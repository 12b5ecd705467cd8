package raster

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"hillshade/internal/bitmap"
)

// readerTask owns compute tasks [from, to) within one Run invocation.
type readerTask struct {
	p            *Params
	rowLen       int
	linesPerTask int
	lin          int
	c            int
	out          *bitmap.ShadeBitmap
	outWidth     int
	superFactor  int // >=1; >1 replicates one unit element into a superFactor x superFactor output block
	subStride    int // >=1; >1 keeps only every subStride-th unit element along each axis
	active       interface {
		PaceReading(func(int64))
		Decrement()
	}
	pool *semaphore.Weighted
}

// rowSpan returns the [lineFrom, lineTo] span (1-indexed, inclusive) owned
// by compute task k.
func (rt *readerTask) rowSpan(k int) (int, int) {
	lineFrom := 1 + k*rt.linesPerTask
	lineTo := lineFrom + rt.linesPerTask - 1
	if k == rt.c-1 {
		lineTo = rt.lin
	}
	return lineFrom, lineTo
}

func (rt *readerTask) run(ctx context.Context, from, to int) {
	if rt.p.Stop.Stopped() {
		return
	}

	lineFrom0, _ := rt.rowSpan(from)
	stream, err := rt.p.File.Open()
	if err != nil {
		if rt.p.Log != nil {
			rt.p.Log.Printf("reader %d: open failed: %v", from, err)
		}
		return
	}
	defer stream.Close()

	// Seek to one row before this reader's first owned row, so the first
	// compute task has its "previous row" neighbours available.
	seekRows := lineFrom0 - 1
	if seekRows > 0 {
		if err := stream.Skip(int64(seekRows) * int64(rt.rowLen) * 2); err != nil {
			if rt.p.Log != nil {
				rt.p.Log.Printf("reader %d: seek failed: %v", from, err)
			}
			return
		}
	}

	prevRow := rt.p.LinePool.Get(rt.rowLen)
	readRow(stream, prevRow, nil)

	var wg sync.WaitGroup
	for k := from; k < to; k++ {
		if rt.p.Stop.Stopped() {
			break
		}

		rt.active.PaceReading(nil)

		lineFrom, lineTo := rt.rowSpan(k)
		numRows := lineTo - lineFrom + 1
		isLastInReader := k == to-1

		if !isLastInReader {
			input := rt.p.SamplePool.Get(rt.rowLen * numRows)
			readRowsInto(stream, input, rt.rowLen, numRows, prevRow)

			nextPrev := rt.p.LinePool.Get(rt.rowLen)
			copy(nextPrev, input[(numRows-1)*rt.rowLen:numRows*rt.rowLen])

			ct := &computeTask{rt: rt, prevRow: prevRow, input: input, numRows: numRows,
				lineFrom: lineFrom}

			wg.Add(1)
			if err := rt.pool.Acquire(ctx, 1); err != nil {
				ct.run()
				wg.Done()
			} else {
				go func() {
					defer wg.Done()
					defer rt.pool.Release(1)
					ct.run()
				}()
			}

			prevRow = nextPrev
		} else {
			// Memory-optimised trailing task: no input array, reads
			// directly from the shared stream row by row using prevRow plus
			// one extra line buffer, running inline on this reader thread.
			ct := &computeTask{rt: rt, prevRow: prevRow, input: nil, numRows: numRows,
				lineFrom: lineFrom, stream: stream}
			ct.run()
		}
	}
	wg.Wait()
}

// outputRowFor maps unitRow (0-indexed, one per input row gap) to the
// output row it contributes to: replicated across superFactor consecutive
// output rows when super-sampling, or collapsed onto unitRow/subStride
// when sub-sampling; identity otherwise.
func (rt *readerTask) outputRowFor(unitRow int) int {
	if rt.superFactor > 1 {
		return unitRow * rt.superFactor
	}
	if rt.subStride > 1 {
		return unitRow / rt.subStride
	}
	return unitRow
}

// contentRowStart returns the output byte index at which the content
// (past the padding border) for unitRow's output row begins.
func (rt *readerTask) contentRowStart(unitRow int) int {
	p := rt.out.Padding
	return p*rt.outWidth + p + rt.outputRowFor(unitRow)*rt.outWidth
}

// isRepresentativeRow reports whether unitRow produces any output at all:
// every row does at factor 1 or when super-sampling, only every
// subStride-th row does when sub-sampling.
func (rt *readerTask) isRepresentativeRow(unitRow int) bool {
	return rt.subStride <= 1 || unitRow%rt.subStride == 0
}

// isRepresentativeCol mirrors isRepresentativeRow for the column axis.
func (rt *readerTask) isRepresentativeCol(col int) bool {
	return rt.subStride <= 1 || col%rt.subStride == 0
}

func (rt *readerTask) metersForLine(line int) float64 {
	lin := rt.lin
	if lin <= 0 {
		return rt.p.SouthMetersPerElement
	}
	n := rt.p.NorthMetersPerElement
	s := rt.p.SouthMetersPerElement
	return (s*float64(line) + n*float64(lin-line)) / float64(lin)
}

