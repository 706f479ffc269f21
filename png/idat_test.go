package png

import (
	"bytes"
	"compress/zlib"
	"testing"

	"github.com/Jpn666/jimage/imginfo"
)

// buildSplitIDATGray builds a flat (non-interlaced) 8-bit grayscale PNG
// whose compressed payload is split across two IDAT chunks, with a
// trailing tEXt chunk between the last IDAT and IEND -- exercising both
// idatSource's chunk-hopping Read and finishStream's handling of
// ancillary chunks that follow the compressed data.
func buildSplitIDATGray(t *testing.T, width, height int) []byte {
	t.Helper()
	var raw bytes.Buffer
	for y := 0; y < height; y++ {
		raw.WriteByte(0) // filter type None
		for x := 0; x < width; x++ {
			raw.WriteByte(byte(y*width + x))
		}
	}

	var zbuf bytes.Buffer
	zw := zlib.NewWriter(&zbuf)
	if _, err := zw.Write(raw.Bytes()); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}
	compressed := zbuf.Bytes()
	if len(compressed) < 2 {
		t.Fatalf("compressed payload too short to split: %d bytes", len(compressed))
	}
	mid := len(compressed) / 2

	var out bytes.Buffer
	out.Write([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a})
	ihdr := make([]byte, 13)
	copy(ihdr[0:4], be32(uint32(width)))
	copy(ihdr[4:8], be32(uint32(height)))
	ihdr[8] = 8 // depth
	ihdr[9] = 0 // grayscale
	writeChunk(&out, "IHDR", ihdr)
	writeChunk(&out, "IDAT", compressed[:mid])
	writeChunk(&out, "IDAT", compressed[mid:])
	writeChunk(&out, "tEXt", []byte("comment\x00hello"))
	writeChunk(&out, "IEND", nil)
	return out.Bytes()
}

// TestDecodeImage_SplitAcrossIDATChunks checks the decoder reassembles
// a zlib stream that straddles two IDAT chunks and still reaches a
// trailing tEXt chunk and IEND cleanly.
func TestDecodeImage_SplitAcrossIDATChunks(t *testing.T) {
	const width, height = 5, 4
	raw := buildSplitIDATGray(t, width, height)

	d := New(0)
	if err := d.SetInput(sliceInput(raw)); err != nil {
		t.Fatalf("SetInput: %v", err)
	}
	info, err := d.InitDecoder()
	if err != nil {
		t.Fatalf("InitDecoder: %v", err)
	}
	pixels := make([]byte, info.Height*info.RowSize())
	if err := d.SetBuffers(pixels, nil); err != nil {
		t.Fatalf("SetBuffers: %v", err)
	}
	if err := d.DecodeImage(); err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			want := byte(y*width + x)
			got := pixels[y*info.RowSize()+x]
			if got != want {
				t.Fatalf("pixel (%d,%d) = %d, want %d", x, y, got, want)
			}
		}
	}
	state, stateErr, warn := d.State()
	if state != imginfo.Decoded {
		t.Fatalf("State() = %v (err=%v, warn=%v), want Decoded", state, stateErr, warn)
	}
}
