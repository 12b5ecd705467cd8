package geotiff

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestEncodeRejectsMismatchedPixelLength(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, 4, 4, make([]byte, 10), nil)
	if err == nil {
		t.Fatal("Encode must reject a pixel slice that doesn't match width*height")
	}
}

func TestEncodeWritesValidLittleEndianHeader(t *testing.T) {
	var buf bytes.Buffer
	pixels := make([]byte, 3*2)
	if err := Encode(&buf, 3, 2, pixels, nil); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got := buf.Bytes()
	if len(got) < 8 {
		t.Fatalf("output too short: %d bytes", len(got))
	}
	if got[0] != 'I' || got[1] != 'I' {
		t.Fatalf("byte order marker = %q, want \"II\" (little-endian)", got[:2])
	}
	if binary.LittleEndian.Uint16(got[2:4]) != 42 {
		t.Fatalf("TIFF version = %d, want 42", binary.LittleEndian.Uint16(got[2:4]))
	}
	if binary.LittleEndian.Uint32(got[4:8]) != 8 {
		t.Fatalf("first IFD offset = %d, want 8", binary.LittleEndian.Uint32(got[4:8]))
	}
}

func TestEncodeWritesPixelsVerbatimAtEnd(t *testing.T) {
	var buf bytes.Buffer
	pixels := []byte{10, 20, 30, 40, 50, 60}
	if err := Encode(&buf, 3, 2, pixels, nil); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got := buf.Bytes()
	if !bytes.HasSuffix(got, pixels) {
		t.Fatal("pixel bytes must be written verbatim at the end of the stream")
	}
}

func TestEncodeGreyscaleTagsDescribeOneByteSamples(t *testing.T) {
	var buf bytes.Buffer
	pixels := make([]byte, 2*2)
	if err := Encode(&buf, 2, 2, pixels, nil); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got := buf.Bytes()
	ifd := got[8:]
	count := int(binary.LittleEndian.Uint16(ifd))

	found := map[uint16][2]byte{}
	for i := 0; i < count; i++ {
		entry := ifd[2+i*12 : 2+(i+1)*12]
		tag := binary.LittleEndian.Uint16(entry[0:2])
		found[tag] = [2]byte{entry[8], entry[9]}
	}

	if v, ok := found[TagType_SamplesPerPixel]; !ok || v[0] != 1 {
		t.Fatalf("SamplesPerPixel = %v, want 1 sample", v)
	}
	if v, ok := found[TagType_BitsPerSample]; !ok || v[0] != 8 {
		t.Fatalf("BitsPerSample = %v, want 8 bits", v)
	}
	if v, ok := found[TagType_PhotometricInterpretation]; !ok || v[0] != 1 {
		t.Fatalf("PhotometricInterpretation = %v, want 1 (BlackIsZero)", v)
	}
}

func TestEncodeRejectsUnsupportedExtraTagType(t *testing.T) {
	var buf bytes.Buffer
	pixels := make([]byte, 1)
	err := Encode(&buf, 1, 1, pixels, map[uint16]interface{}{40000: 3.14})
	if err == nil {
		t.Fatal("Encode must reject an extra tag value of an unsupported type")
	}
}
