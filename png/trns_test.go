package png

import (
	"bytes"
	"compress/zlib"
	"testing"

	"github.com/Jpn666/jimage/imginfo"
)

// buildFlatRGBTRNS builds a non-interlaced 8-bit truecolor (color type
// 2) PNG with a tRNS transparency key, filter type None throughout.
func buildFlatRGBTRNS(t *testing.T, width, height int, key [3]byte, rows [][]byte) []byte {
	t.Helper()
	var raw bytes.Buffer
	for _, row := range rows {
		raw.WriteByte(0)
		raw.Write(row)
	}

	var zbuf bytes.Buffer
	zw := zlib.NewWriter(&zbuf)
	if _, err := zw.Write(raw.Bytes()); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}

	var out bytes.Buffer
	out.Write([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a})
	ihdr := make([]byte, 13)
	copy(ihdr[0:4], be32(uint32(width)))
	copy(ihdr[4:8], be32(uint32(height)))
	ihdr[8] = 8 // depth
	ihdr[9] = 2 // truecolor
	writeChunk(&out, "IHDR", ihdr)
	writeChunk(&out, "tRNS", []byte{0, key[0], 0, key[1], 0, key[2]})
	writeChunk(&out, "IDAT", zbuf.Bytes())
	writeChunk(&out, "IEND", nil)
	return out.Bytes()
}

// TestDecodeImage_RGBTRNS covers the truecolor transparency-key case: a
// 2x2 color type 2 image with tRNS key (10,20,30) must synthesize a
// zero alpha exactly on fully matching pixels and 0xff everywhere else.
func TestDecodeImage_RGBTRNS(t *testing.T) {
	rows := [][]byte{
		{10, 20, 30, 40, 50, 60},
		{70, 80, 90, 10, 20, 30},
	}
	raw := buildFlatRGBTRNS(t, 2, 2, [3]byte{10, 20, 30}, rows)

	d := New(0)
	if err := d.SetInput(sliceInput(raw)); err != nil {
		t.Fatalf("SetInput: %v", err)
	}
	info, err := d.InitDecoder()
	if err != nil {
		t.Fatalf("InitDecoder: %v", err)
	}
	if info.Color != imginfo.RGBAlpha {
		t.Fatalf("Info.Color = %v, want RGBAlpha", info.Color)
	}
	pixels := make([]byte, info.Height*info.RowSize())
	if err := d.SetBuffers(pixels, nil); err != nil {
		t.Fatalf("SetBuffers: %v", err)
	}
	if err := d.DecodeImage(); err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}

	wantAlphas := []byte{0x00, 0xff, 0xff, 0x00}
	for i, want := range wantAlphas {
		if got := pixels[i*4+3]; got != want {
			t.Errorf("pixel %d alpha = %#02x, want %#02x", i, got, want)
		}
	}
	want := []byte{
		10, 20, 30, 0x00, 40, 50, 60, 0xff,
		70, 80, 90, 0xff, 10, 20, 30, 0x00,
	}
	if !bytes.Equal(pixels, want) {
		t.Fatalf("pixels = %v, want %v", pixels, want)
	}
}
