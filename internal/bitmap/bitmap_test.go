package bitmap

import "testing"

// TestMergeBorderWestStaysInBounds exercises the WEST edge of the
// border-merge table: MergeBorder must only write inside the WEST clip
// rect (the sink's left padding column), leaving every other sink byte
// untouched.
func TestMergeBorderWestStaysInBounds(t *testing.T) {
	const axis, padding = 4, 1
	sink := New(axis, padding)
	neighbor := New(axis, padding)

	for i := range sink.Bytes {
		sink.Bytes[i] = 0xAA
	}
	for i := range neighbor.Bytes {
		neighbor.Bytes[i] = 0x42
	}

	if err := sink.MergeBorder(West, neighbor); err != nil {
		t.Fatalf("MergeBorder: %v", err)
	}

	// Bytes outside the WEST clip rect must be untouched.
	clip := sink.clipRect(West)
	for y := 0; y < sink.Height; y++ {
		for x := 0; x < sink.Width; x++ {
			inClip := x >= clip.x && x < clip.x+clip.w && y >= clip.y && y < clip.y+clip.h
			if inClip {
				continue
			}
			if sink.Bytes[y*sink.Width+x] != 0xAA {
				t.Fatalf("(%d,%d) outside the WEST clip rect was modified", x, y)
			}
		}
	}
}

// TestMergeBorderSizeMismatch covers the "neighbor must be the same size"
// precondition.
func TestMergeBorderSizeMismatch(t *testing.T) {
	sink := New(4, 1)
	neighbor := New(6, 1)
	if err := sink.MergeBorder(East, neighbor); err == nil {
		t.Fatal("expected an error merging mismatched bitmap sizes")
	}
}

func TestNewSizing(t *testing.T) {
	b := New(10, 2)
	if b.Width != 14 || b.Height != 14 {
		t.Fatalf("Width/Height = %d/%d, want 14/14 (outputAxisLen + 2*padding)", b.Width, b.Height)
	}
	if b.SizeBytes() != 14*14 {
		t.Fatalf("SizeBytes() = %d, want %d", b.SizeBytes(), 14*14)
	}
}

// TestAllFourBorders exercises every border in the clip-rect table so a
// transposition bug in one edge doesn't hide behind the others.
func TestAllFourBorders(t *testing.T) {
	const axis, padding = 6, 1
	for _, border := range []Border{West, East, North, South} {
		sink := New(axis, padding)
		neighbor := New(axis, padding)
		for i := range neighbor.Bytes {
			neighbor.Bytes[i] = 0x7F
		}
		if err := sink.MergeBorder(border, neighbor); err != nil {
			t.Fatalf("border %v: %v", border, err)
		}
		clip := sink.clipRect(border)
		if clip.w <= 0 || clip.h <= 0 {
			t.Fatalf("border %v: empty clip rect %+v", border, clip)
		}
	}
}
