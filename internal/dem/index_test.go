package dem

import (
	"testing"

	"hillshade/internal/logging"
	"hillshade/internal/metrics"
)

type fakeFile struct {
	name string
	size int64
}

func (f *fakeFile) Name() string     { return f.name }
func (f *fakeFile) SizeBytes() int64 { return f.size }
func (f *fakeFile) CanSkip() bool    { return true }
func (f *fakeFile) Open() (Stream, error) {
	return nil, nil
}

type fakeFolder struct {
	files []File
}

func (f *fakeFolder) Walk(fn func(File) error) error {
	for _, file := range f.files {
		if err := fn(file); err != nil {
			return err
		}
	}
	return nil
}

func newTestIndex(files ...File) *Index {
	return NewIndex(&fakeFolder{files: files}, logging.New("test"), &metrics.Counters{})
}

// TestParseTileKey covers the [NS]dd[EW]ddd naming rule, case insensitively
// and with both hemisphere signs.
func TestParseTileKey(t *testing.T) {
	cases := []struct {
		name string
		want TileKey
		ok   bool
	}{
		{"N10E020.hgt", TileKey{10, 20}, true},
		{"s05w123.hgt", TileKey{-5, -123}, true},
		{"N00E000.hgt", TileKey{0, 0}, true},
		{"n46e008.zip", TileKey{46, 8}, true},
		{"readme.txt", TileKey{}, false},
		{"N10E020.tif", TileKey{}, false},
	}
	for _, c := range cases {
		got, ok := ParseTileKey(c.name)
		if ok != c.ok {
			t.Fatalf("%s: ok=%v, want %v", c.name, ok, c.ok)
		}
		if ok && got != c.want {
			t.Fatalf("%s: got %v, want %v", c.name, got, c.want)
		}
	}
}

// TestIndexS1 checks that two well-formed files index to two entries keyed
// by their filename-derived TileKey.
func TestIndexS1(t *testing.T) {
	idx := newTestIndex(
		&fakeFile{name: "N10E020.hgt", size: 2 * 3601 * 3601},
		&fakeFile{name: "s05w123.hgt", size: 2 * 1201 * 1201},
	)

	fi, ok := idx.Get(TileKey{10, 20})
	if !ok {
		t.Fatal("expected (10,20) to be indexed")
	}
	if fi.InputAxisLen != 3600 {
		t.Fatalf("InputAxisLen = %d, want 3600", fi.InputAxisLen)
	}

	fi2, ok := idx.Get(TileKey{-5, -123})
	if !ok {
		t.Fatal("expected (-5,-123) to be indexed")
	}
	if fi2.InputAxisLen != 1200 {
		t.Fatalf("InputAxisLen = %d, want 1200", fi2.InputAxisLen)
	}

	if len(idx.Problems()) != 0 {
		t.Fatalf("expected no problems, got %v", idx.Problems())
	}
}

// TestIndexS2 checks that a file whose size is not twice a perfect square
// is skipped with a recorded problem, and the index stays empty.
func TestIndexS2(t *testing.T) {
	idx := newTestIndex(&fakeFile{name: "N00E000.hgt", size: 7})

	if idx.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", idx.Len())
	}
	problems := idx.Problems()
	if len(problems) != 1 {
		t.Fatalf("expected 1 problem, got %d", len(problems))
	}
	if problems[0].Reason == "" {
		t.Fatal("expected a non-empty problem reason")
	}
}

// TestIndexDuplicateKeyLargerWins checks that on duplicate keys the larger
// file wins.
func TestIndexDuplicateKeyLargerWins(t *testing.T) {
	small := &fakeFile{name: "N10E020.hgt", size: 2 * 1201 * 1201}
	big := &fakeFile{name: "n10e020.hgt", size: 2 * 3601 * 3601}
	idx := newTestIndex(small, big)

	fi, ok := idx.Get(TileKey{10, 20})
	if !ok {
		t.Fatal("expected (10,20) to be indexed")
	}
	if fi.SizeBytes != big.size {
		t.Fatalf("winner size = %d, want %d (the larger file)", fi.SizeBytes, big.size)
	}
}

// TestIndexOneBadFileDoesNotBlockOthers checks that failure to index a
// single file does not prevent indexing the rest.
func TestIndexOneBadFileDoesNotBlockOthers(t *testing.T) {
	idx := newTestIndex(
		&fakeFile{name: "garbage.hgt", size: 7},
		&fakeFile{name: "N10E020.hgt", size: 2 * 3601 * 3601},
	)
	if idx.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", idx.Len())
	}
	if len(idx.Problems()) != 1 {
		t.Fatalf("expected 1 problem, got %d", len(idx.Problems()))
	}
}
