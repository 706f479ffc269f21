package png

import (
	"bytes"
	"compress/zlib"
	"testing"

	"github.com/Jpn666/jimage/imginfo"
)

// buildFlatGray builds a minimal non-interlaced grayscale PNG at the
// given bit depth, with an optional tRNS transparency key, filter type
// None throughout. rows holds one already-packed (or, for depth==8,
// one-byte-per-sample) scanline per row, without the leading filter
// byte.
func buildFlatGray(t *testing.T, width, height, depth int, trns []byte, rows [][]byte) []byte {
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
	ihdr[8] = byte(depth)
	ihdr[9] = 0 // grayscale
	writeChunk(&out, "IHDR", ihdr)
	if trns != nil {
		writeChunk(&out, "tRNS", trns)
	}
	writeChunk(&out, "IDAT", zbuf.Bytes())
	writeChunk(&out, "IEND", nil)
	return out.Bytes()
}

// TestDecodeImage_GrayTRNS covers E2-style tRNS-key matching for a
// grayscale (colortype 0) image: the decoder must report GrayAlpha
// metadata (not plain Gray) so PixelSize matches the two bytes per
// pixel materializePixel actually writes, and the key match must
// synthesize a zero alpha exactly on matching samples.
func TestDecodeImage_GrayTRNS(t *testing.T) {
	const width, height = 3, 1
	rows := [][]byte{{10, 20, 10}}
	raw := buildFlatGray(t, width, height, 8, []byte{0x00, 0x0a}, rows)

	d := New(0)
	if err := d.SetInput(sliceInput(raw)); err != nil {
		t.Fatalf("SetInput: %v", err)
	}
	info, err := d.InitDecoder()
	if err != nil {
		t.Fatalf("InitDecoder: %v", err)
	}
	if info.Color != imginfo.GrayAlpha {
		t.Fatalf("Info.Color = %v, want GrayAlpha", info.Color)
	}
	pixels := make([]byte, info.Height*info.RowSize())
	if err := d.SetBuffers(pixels, nil); err != nil {
		t.Fatalf("SetBuffers: %v", err)
	}
	if err := d.DecodeImage(); err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	want := []byte{10, 0, 20, 0xff, 10, 0}
	if !bytes.Equal(pixels, want) {
		t.Fatalf("pixels = %v, want %v", pixels, want)
	}
}

// TestDecodeImage_GraySubByteDepth checks that depth 1/2/4 grayscale
// samples are widened to fill the byte range, not passed through as
// their small raw integer value.
func TestDecodeImage_GraySubByteDepth(t *testing.T) {
	cases := []struct {
		depth int
		row   byte // one packed byte, MSB-first samples
		width int
		want  []byte
	}{
		{depth: 1, row: 0b10100000, width: 3, want: []byte{0xff, 0x00, 0xff}},
		{depth: 2, row: 0b01101100, width: 4, want: []byte{0x55, 0xaa, 0xff, 0x00}},
		{depth: 4, row: 0b00011000, width: 2, want: []byte{0x11, 0x88}},
	}
	for _, c := range cases {
		raw := buildFlatGray(t, c.width, 1, c.depth, nil, [][]byte{{c.row}})
		d := New(0)
		if err := d.SetInput(sliceInput(raw)); err != nil {
			t.Fatalf("depth %d: SetInput: %v", c.depth, err)
		}
		info, err := d.InitDecoder()
		if err != nil {
			t.Fatalf("depth %d: InitDecoder: %v", c.depth, err)
		}
		pixels := make([]byte, info.Height*info.RowSize())
		if err := d.SetBuffers(pixels, nil); err != nil {
			t.Fatalf("depth %d: SetBuffers: %v", c.depth, err)
		}
		if err := d.DecodeImage(); err != nil {
			t.Fatalf("depth %d: DecodeImage: %v", c.depth, err)
		}
		if !bytes.Equal(pixels, c.want) {
			t.Fatalf("depth %d: pixels = %v, want %v", c.depth, pixels, c.want)
		}
	}
}
