package raster

import (
	"encoding/binary"
	"io"
)

// readRow fills buf (length rowLen = Lin+1) from r, substituting the
// no-data sentinel (-32768) or a short/EOF read with a fallback sample:
// the previous column in this row if available, otherwise the same column
// one row up via prevRow.
func readRow(r io.Reader, buf []int16, prevRow []int16) {
	var raw [2]byte
	for i := range buf {
		n, err := io.ReadFull(r, raw[:])
		missing := err != nil || n < 2
		var v int16
		if !missing {
			v = int16(binary.BigEndian.Uint16(raw[:]))
			if v == -32768 {
				missing = true
			}
		}
		if !missing {
			buf[i] = v
			continue
		}
		switch {
		case i > 0:
			buf[i] = buf[i-1]
		case prevRow != nil:
			buf[i] = prevRow[i]
		default:
			buf[i] = 0
		}
	}
}

// readRowsInto reads numRows rows of rowLen samples each from r into dst,
// chaining prevRow as the first row's "row above" for no-data substitution.
func readRowsInto(r io.Reader, dst []int16, rowLen, numRows int, prevRow []int16) {
	above := prevRow
	for row := 0; row < numRows; row++ {
		slice := dst[row*rowLen : (row+1)*rowLen]
		readRow(r, slice, above)
		above = slice
	}
}
