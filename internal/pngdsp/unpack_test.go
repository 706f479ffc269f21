package pngdsp

import (
	"reflect"
	"testing"
)

// TestUnpack_Depth1_BitOrder checks the corrected strict descending
// {7,6,5,4,3,2,1,0} MSB-first bit order: byte 0b10110010 must unpack
// to samples 1,0,1,1,0,0,1,0.
func TestUnpack_Depth1_BitOrder(t *testing.T) {
	src := []byte{0b10110010}
	dst := make([]byte, 8)
	Unpack(dst, src, 8, 1)
	want := []byte{1, 0, 1, 1, 0, 0, 1, 0}
	if !reflect.DeepEqual(dst, want) {
		t.Fatalf("Unpack depth1 = %v, want %v", dst, want)
	}
}

func TestUnpack_Depth2(t *testing.T) {
	// 0b11_10_01_00 -> samples 3,2,1,0
	src := []byte{0b11100100}
	dst := make([]byte, 4)
	Unpack(dst, src, 4, 2)
	want := []byte{3, 2, 1, 0}
	if !reflect.DeepEqual(dst, want) {
		t.Fatalf("Unpack depth2 = %v, want %v", dst, want)
	}
}

func TestUnpack_Depth4(t *testing.T) {
	// 0xAB -> high nibble 0xA, low nibble 0xB
	src := []byte{0xab}
	dst := make([]byte, 2)
	Unpack(dst, src, 2, 4)
	want := []byte{0x0a, 0x0b}
	if !reflect.DeepEqual(dst, want) {
		t.Fatalf("Unpack depth4 = %v, want %v", dst, want)
	}
}

// TestUnpack_Depth1_MultiByte checks samples spanning more than one
// packed byte unpack in the right sequence.
func TestUnpack_Depth1_MultiByte(t *testing.T) {
	src := []byte{0b00000001, 0b10000000}
	dst := make([]byte, 9)
	Unpack(dst, src, 9, 1)
	want := []byte{0, 0, 0, 0, 0, 0, 0, 1, 1}
	if !reflect.DeepEqual(dst, want) {
		t.Fatalf("Unpack depth1 multi-byte = %v, want %v", dst, want)
	}
}
