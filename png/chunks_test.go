package png

import (
	"bytes"
	"compress/zlib"
	"testing"
)

// buildGrayWithAncillary assembles a 2x2 8-bit grayscale PNG carrying
// gAMA, cHRM, sRGB, pHYs, sBIT and bKGD ancillary chunks ahead of a
// single flat (non-interlaced) IDAT.
func buildGrayWithAncillary(t *testing.T) []byte {
	t.Helper()
	var out bytes.Buffer
	out.Write([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a})

	ihdr := make([]byte, 13)
	copy(ihdr[0:4], be32(2))
	copy(ihdr[4:8], be32(2))
	ihdr[8] = 8 // depth
	ihdr[9] = 0 // grayscale
	writeChunk(&out, "IHDR", ihdr)

	writeChunk(&out, "gAMA", be32(45455)) // 1/2.2 scaled by 100000
	writeChunk(&out, "cHRM", func() []byte {
		var b bytes.Buffer
		for _, v := range []uint32{31270, 32900, 64000, 33000, 30000, 60000, 15000, 6000} {
			b.Write(be32(v))
		}
		return b.Bytes()
	}())
	writeChunk(&out, "sRGB", []byte{1}) // relative colorimetric
	writeChunk(&out, "pHYs", func() []byte {
		var b bytes.Buffer
		b.Write(be32(2835))
		b.Write(be32(2835))
		b.WriteByte(1) // meters
		return b.Bytes()
	}())
	writeChunk(&out, "sBIT", []byte{6}) // gray: 1 significant-bits byte
	writeChunk(&out, "bKGD", []byte{0x00, 0x80})

	var raw bytes.Buffer
	raw.Write([]byte{0, 0x10, 0x20})
	raw.Write([]byte{0, 0x30, 0x40})
	var zbuf bytes.Buffer
	zw := zlib.NewWriter(&zbuf)
	if _, err := zw.Write(raw.Bytes()); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}
	writeChunk(&out, "IDAT", zbuf.Bytes())
	writeChunk(&out, "IEND", nil)
	return out.Bytes()
}

// TestInitDecoder_ParsesAncillaryChunks checks every ancillary chunk is
// recognized (HasChunk) and its payload is unpacked into the expected
// fields, without disturbing the image decode itself.
func TestInitDecoder_ParsesAncillaryChunks(t *testing.T) {
	raw := buildGrayWithAncillary(t)
	d := New(0)
	if err := d.SetInput(sliceInput(raw)); err != nil {
		t.Fatalf("SetInput: %v", err)
	}
	info, err := d.InitDecoder()
	if err != nil {
		t.Fatalf("InitDecoder: %v", err)
	}
	if info.Width != 2 || info.Height != 2 {
		t.Fatalf("Info = %dx%d, want 2x2", info.Width, info.Height)
	}

	for _, c := range []Chunk{ChunkGAMA, ChunkCHRM, ChunkSRGB, ChunkPHYS, ChunkSBIT, ChunkBKGD} {
		if !d.HasChunk(c) {
			t.Errorf("HasChunk(%d) = false, want true", c)
		}
	}

	if got, want := d.gamma, float32(45455)/100000; got != want {
		t.Errorf("gamma = %v, want %v", got, want)
	}
	if got, want := d.srgbIntent, 1; got != want {
		t.Errorf("srgbIntent = %d, want %d", got, want)
	}
	if got, want := d.physX, uint32(2835); got != want {
		t.Errorf("physX = %d, want %d", got, want)
	}
	if got, want := d.physY, uint32(2835); got != want {
		t.Errorf("physY = %d, want %d", got, want)
	}
	if got, want := d.physUnit, byte(1); got != want {
		t.Errorf("physUnit = %d, want %d", got, want)
	}
	if got, want := d.sbits[0], byte(6); got != want {
		t.Errorf("sbits[0] = %d, want %d", got, want)
	}
	if got, want := d.background[0], uint16(0x0080); got != want {
		t.Errorf("background[0] = %d, want %d", got, want)
	}
	if got, want := d.wpointx, float32(31270)/100000; got != want {
		t.Errorf("wpointx = %v, want %v", got, want)
	}

	pixels := make([]byte, info.Height*info.RowSize())
	if err := d.SetBuffers(pixels, nil); err != nil {
		t.Fatalf("SetBuffers: %v", err)
	}
	if err := d.DecodeImage(); err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	want := []byte{0x10, 0x20, 0x30, 0x40}
	if !bytes.Equal(pixels, want) {
		t.Fatalf("pixels = %v, want %v", pixels, want)
	}
}

// TestParseGAMA_BadLengthWarnsAndSkips checks a malformed gAMA chunk
// sets the corresponding warning and is skipped rather than aborting
// the whole decode.
func TestParseGAMA_BadLengthWarnsAndSkips(t *testing.T) {
	var out bytes.Buffer
	out.Write([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a})
	ihdr := make([]byte, 13)
	copy(ihdr[0:4], be32(1))
	copy(ihdr[4:8], be32(1))
	ihdr[8] = 8
	ihdr[9] = 0
	writeChunk(&out, "IHDR", ihdr)
	writeChunk(&out, "gAMA", []byte{1, 2, 3}) // wrong length (3, not 4)

	var raw bytes.Buffer
	raw.Write([]byte{0, 0x7f})
	var zbuf bytes.Buffer
	zw := zlib.NewWriter(&zbuf)
	if _, err := zw.Write(raw.Bytes()); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}
	writeChunk(&out, "IDAT", zbuf.Bytes())
	writeChunk(&out, "IEND", nil)

	d := New(0)
	if err := d.SetInput(sliceInput(out.Bytes())); err != nil {
		t.Fatalf("SetInput: %v", err)
	}
	if _, err := d.InitDecoder(); err != nil {
		t.Fatalf("InitDecoder: %v", err)
	}
	if d.warn&WarnBadGAMA == 0 {
		t.Fatalf("warn = %#x, want WarnBadGAMA set", d.warn)
	}
	if d.HasChunk(ChunkGAMA) {
		t.Fatalf("HasChunk(ChunkGAMA) = true, want false after a malformed chunk")
	}
}
