package kernel

import (
	"hillshade/internal/quality"
)

// Adaptive is the production kernel: it consults a quality.Selector to pick
// a super/sub-sampling factor from display parameters, and shades each unit
// element into one greyscale byte with a simple slope-based formula. The
// specific shading formula is intentionally minimal since the contract only
// requires the shade-value computation itself to be pluggable.
type Adaptive struct {
	Selector     *quality.Selector
	CustomScale  float64 // 0 or outside (0,1] means "no custom scale"
}

func NewAdaptive(hqEnabled bool) *Adaptive {
	return &Adaptive{Selector: quality.NewSelector(hqEnabled), CustomScale: 1}
}

func (k *Adaptive) factor(info Info, pxLat float64) quality.Factor {
	return k.Selector.Select(info.InputAxisLen, pxLat, k.CustomScale)
}

func (k *Adaptive) InputAxisLen(info Info) int { return info.InputAxisLen }

func (k *Adaptive) OutputAxisLen(info Info, zoom int, pxLat, pxLon float64) int {
	f := k.factor(info, pxLat)
	return quality.ScaleAxis(info.InputAxisLen, f)
}

func (k *Adaptive) OutputWidth(info Info, padding int, zoom int, pxLat, pxLon float64) int {
	return k.OutputAxisLen(info, zoom, pxLat, pxLon) + 2*padding
}

func (k *Adaptive) OutputSizeBytes(info Info, padding int, zoom int, pxLat, pxLon float64) int64 {
	w := int64(k.OutputWidth(info, padding, zoom, pxLat, pxLon))
	return w * w
}

func (k *Adaptive) CacheTagBin(info Info, zoom int, pxLat, pxLon float64) int64 {
	return int64(k.factor(info, pxLat))
}

// ProcessUnitElement shades one 2x2 window using the average absolute slope
// across the window's two diagonals, scaled into a byte. When factor is 1
// (identity or a sub-sampled, decimated call) it writes the single shaded
// byte at outIx, matching the historical one-byte-per-call behaviour. When
// factor > 1 (super-sampling) the same shaded byte is replicated into the
// factor x factor block of output cells starting at outIx, using outWidth
// as the row stride -- one unit element expands into factor output rows
// and factor output columns. The returned index always advances by factor
// columns, staying on the first of those replicated rows, ready for the
// next unit element's block immediately to its right.
func (k *Adaptive) ProcessUnitElement(out []byte, nw, sw, se, ne int16, meters float64, outIx, outWidth, factor int) int {
	diag1 := float64(nw) - float64(se)
	diag2 := float64(ne) - float64(sw)
	slope := (absF(diag1) + absF(diag2)) / 2.0
	if meters <= 0 {
		meters = 1
	}
	shade := clampByte(180.0 - slope/meters*255.0)

	if factor < 1 {
		factor = 1
	}
	for dy := 0; dy < factor; dy++ {
		rowBase := outIx + dy*outWidth
		for dx := 0; dx < factor; dx++ {
			idx := rowBase + dx
			if idx >= 0 && idx < len(out) {
				out[idx] = shade
			}
		}
	}
	return outIx + factor
}

func absF(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func clampByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
