package jpegdsp

import "testing"

// TestToRGB_KeepYUVPassesThrough checks the raw-component passthrough
// path used when a JPEG's color transform is disabled (the KeepYCbCr
// flag, or a frame whose component ids are 'R','G','B').
func TestToRGB_KeepYUVPassesThrough(t *testing.T) {
	got := ToRGB(10, 20, 30, true)
	want := RGB{R: 10, G: 20, B: 30}
	if got != want {
		t.Fatalf("ToRGB(keepYUV) = %+v, want %+v", got, want)
	}
}

// TestToRGB_Gray checks that a neutral chroma pair (128, 128 -- the
// level-shifted origin) reproduces the luma sample exactly in all three
// output channels.
func TestToRGB_Gray(t *testing.T) {
	for _, y := range []int16{0, 1, 128, 254, 255} {
		got := ToRGB(y, 128, 128, false)
		want := RGB{R: uint8(y), G: uint8(y), B: uint8(y)}
		if got != want {
			t.Fatalf("ToRGB(%d, 128, 128) = %+v, want %+v", y, got, want)
		}
	}
}

// TestToRGB_ClampsOutOfRange checks saturated chroma at the extremes
// drives at least one channel to the valid-range boundary rather than
// wrapping.
func TestToRGB_ClampsOutOfRange(t *testing.T) {
	got := ToRGB(255, 128, 255, false)
	if got.R != 255 {
		t.Errorf("R = %d, want clamped to 255", got.R)
	}
	got = ToRGB(0, 0, 128, false)
	if got.B != 0 {
		t.Errorf("B = %d, want clamped to 0", got.B)
	}
}

func TestToGray_Passthrough(t *testing.T) {
	for _, y := range []int16{0, 42, 255} {
		if got := ToGray(y); got != uint8(y) {
			t.Errorf("ToGray(%d) = %d, want %d", y, got, y)
		}
	}
}

// TestSetRow3_MatchesPerPixelToRGB checks the batched writer used by
// the full-resolution (no subsampling) render path against calling
// ToRGB directly for each of the eight pixels.
func TestSetRow3_MatchesPerPixelToRGB(t *testing.T) {
	y := []int16{16, 32, 48, 64, 80, 96, 112, 128}
	cb := []int16{120, 121, 122, 123, 124, 125, 126, 127}
	cr := []int16{130, 131, 132, 133, 134, 135, 136, 137}
	dst := make([]byte, 24)
	SetRow3(y, cb, cr, dst, false)
	for i := 0; i < 8; i++ {
		want := ToRGB(y[i], cb[i], cr[i], false)
		got := RGB{R: dst[i*3], G: dst[i*3+1], B: dst[i*3+2]}
		if got != want {
			t.Fatalf("pixel %d = %+v, want %+v", i, got, want)
		}
	}
}

func TestSetRow1_MatchesPerPixelToGray(t *testing.T) {
	y := []int16{0, 10, 20, 30, 40, 50, 60, 70}
	dst := make([]byte, 8)
	SetRow1(y, dst)
	for i := 0; i < 8; i++ {
		if dst[i] != ToGray(y[i]) {
			t.Fatalf("pixel %d = %d, want %d", i, dst[i], ToGray(y[i]))
		}
	}
}
