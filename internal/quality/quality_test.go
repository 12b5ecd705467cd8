package quality

import "testing"

// TestSelectS3 checks four worked examples for L=3600.
func TestSelectS3(t *testing.T) {
	cases := []struct {
		name    string
		pxLat   float64
		hq      bool
		want    Factor
	}{
		{"divisor at scale=2.0", 1800, true, -2},
		{"multiplier", 7200, true, 2},
		{"identity", 3600, true, 1},
		{"deep sub-sample", 100, true, -36},
	}
	for _, c := range cases {
		s := NewSelector(c.hq)
		got := s.Select(3600, c.pxLat, 1)
		if got != c.want {
			t.Errorf("%s: Select(3600, %v) = %v, want %v", c.name, c.pxLat, got, c.want)
		}
	}
}

// TestSelectIdentityWithoutHQ covers "scale > 1/1.25 or not hq_enabled: return 1".
func TestSelectIdentityWithoutHQ(t *testing.T) {
	s := NewSelector(false)
	if got := s.Select(3600, 7200, 1); got != 1 {
		t.Fatalf("hq disabled at super-sample scale: got %v, want 1 (hq required for factor 2)", got)
	}
}

// TestSelectFactor2RequiresHQ checks that f = 2 iff hq is enabled and
// scale <= 1/1.25. pxLat is chosen so scale = L/effectivePx = 0.7, inside
// (0, 1/1.25] and below the scale >= 2.0 divisor branch.
func TestSelectFactor2RequiresHQ(t *testing.T) {
	pxLat := 3600.0 / 0.7
	withHQ := NewSelector(true).Select(3600, pxLat, 1)
	withoutHQ := NewSelector(false).Select(3600, pxLat, 1)
	if withHQ != 2 {
		t.Fatalf("hq enabled at scale<=1/1.25: got %v, want 2", withHQ)
	}
	if withoutHQ != 1 {
		t.Fatalf("hq disabled at scale<=1/1.25: got %v, want 1", withoutHQ)
	}
}

// TestSelectInvariants is a property check, across a spread of L and
// pxLat values, that every returned factor is a valid divisor/multiplier
// of L.
func TestSelectInvariants(t *testing.T) {
	for _, l := range []int{1200, 1201, 3600, 3601, 7200} {
		for _, pxLat := range []float64{10, 100, 256, 512, 1000, 3600, 7200, 14400} {
			f := NewSelector(true).Select(l, pxLat, 1)
			switch {
			case f > 0:
				if l*int(f) <= 0 {
					t.Errorf("L=%d pxLat=%v: f=%v>0 but L*f<=0", l, pxLat, f)
				}
			case f < 0:
				if l%(-int(f)) != 0 {
					t.Errorf("L=%d pxLat=%v: f=%v<0 but L mod (-f) != 0", l, pxLat, f)
				}
			default:
				t.Errorf("L=%d pxLat=%v: f=0 is not a valid factor", l, pxLat)
			}
		}
	}
}

// TestSelectMemoization checks that the selector memoises (L, effectivePx)
// -> stride: identical inputs must hit the memo and return the identical
// value without recomputation (observable here only via result stability,
// since the descent loop is otherwise side-effect free).
func TestSelectMemoization(t *testing.T) {
	s := NewSelector(true)
	first := s.Select(3600, 100, 1)
	second := s.Select(3600, 100, 1)
	if first != second {
		t.Fatalf("memoised call returned a different factor: %v vs %v", first, second)
	}
}

func TestScaleAxis(t *testing.T) {
	if got := ScaleAxis(1200, 3); got != 3600 {
		t.Fatalf("ScaleAxis(1200, 3) = %d, want 3600", got)
	}
	if got := ScaleAxis(3600, -36); got != 100 {
		t.Fatalf("ScaleAxis(3600, -36) = %d, want 100", got)
	}
}

func TestMaxZoom(t *testing.T) {
	if got := MaxZoom(3600, true); got != 17 {
		t.Fatalf("MaxZoom(3600, true) = %d, want 17", got)
	}
	if got := MaxZoom(3600, false); got != 16 {
		t.Fatalf("MaxZoom(3600, false) = %d, want 16", got)
	}
	if got := MaxZoom(7200, true); got != 18 {
		t.Fatalf("MaxZoom(7200, true) = %d, want 18", got)
	}
	if got := MaxZoom(1800, true); got != 16 {
		t.Fatalf("MaxZoom(1800, true) = %d, want 16", got)
	}
}
