package raster

// computeTask walks its owned rows as a 2x2 sliding window (nw,sw,se,ne),
// invoking the kernel once per retained unit element in row-major order:
// every unit element when super-sampling or at factor 1, or only every
// subStride-th row/column when sub-sampling. When input is nil this is the
// trailing, memory-optimised task for its reader: it reads directly from
// the shared stream using only prevRow and one extra buffer as scratch,
// one row at a time.
type computeTask struct {
	rt       *readerTask
	prevRow  []int16
	input    []int16 // nil for the trailing task
	numRows  int
	lineFrom int
	stream   interface {
		Read(p []byte) (int, error)
	}
}

func (ct *computeTask) run() {
	defer ct.finish()

	rowLen := ct.rt.rowLen

	// The trailing task ping-pongs between two line buffers instead of
	// caching the whole row range, trading a little extra IO for a much
	// smaller working set on the last task of a reader. The two buffers
	// keep fixed identities (bufs[0] is ct.prevRow, recycled by finish;
	// bufs[1] is this extra buffer, recycled once here) and only the
	// above/below roles toggle between them, so which buffer is recycled
	// where never depends on numRows' parity.
	var bufs [2][]int16
	bufs[0] = ct.prevRow
	if ct.input == nil {
		bufs[1] = ct.rt.p.LinePool.Get(rowLen)
		defer func() { ct.rt.p.LinePool.Recycle(bufs[1]) }()
	}
	aboveIx, belowIx := 0, 1
	above := bufs[aboveIx]

	for r := 0; r < ct.numRows; r++ {
		if ct.rt.p.Stop.Stopped() {
			return
		}

		var below []int16
		if ct.input != nil {
			below = ct.input[r*rowLen : (r+1)*rowLen]
		} else {
			below = bufs[belowIx]
			readRow(ct.stream, below, above)
		}

		unitRow := ct.lineFrom - 1 + r
		if ct.rt.isRepresentativeRow(unitRow) {
			meters := ct.rt.metersForLine(ct.lineFrom + r)
			rowOutIx := ct.rt.contentRowStart(unitRow)

			nw, ne := above[0], above[1]
			sw, se := below[0], below[1]
			for col := 0; col < ct.rt.lin; col++ {
				if ct.rt.p.Stop.Stopped() {
					return
				}
				if ct.rt.isRepresentativeCol(col) {
					rowOutIx = ct.rt.p.Kernel.ProcessUnitElement(ct.rt.out.Bytes, nw, sw, se, ne, meters, rowOutIx, ct.rt.outWidth, ct.rt.superFactor)
				}
				if col+2 <= ct.rt.lin {
					nw, sw = ne, se
					ne, se = above[col+2], below[col+2]
				}
			}
		}

		if ct.input != nil {
			above = below
		} else {
			aboveIx, belowIx = belowIx, aboveIx
			above = bufs[aboveIx]
		}
	}
}

func (ct *computeTask) finish() {
	if ct.input != nil {
		ct.rt.p.SamplePool.Recycle(ct.input)
	}
	ct.rt.p.LinePool.Recycle(ct.prevRow)
	ct.rt.active.Decrement()
}
