// Package jpegdsp implements JPEG reconstruction math: the scaled
// integer inverse DCT and the fixed-point YCbCr->RGB/gray color
// transform. Upsampling of subsampled chroma is not done here; the jpeg
// package's renderer handles it while writing final pixels.
//
// The IDCT is the AAN/Loeffler-Ligtenberg-Moschytz scaled algorithm used
// by both libjpeg and the jimage C sources; the fixed-point constants
// below are exact translations, not reimplementations.
package jpegdsp

// fixed-point scale: 13 fractional bits for the first pass, 17 for the
// combined first+second pass (matches the constants used throughout).
const (
	fix0298631336 = 2446
	fix0390180644 = 3196
	fix0541196100 = 4433
	fix0765366865 = 6270
	fix0899976223 = 7373
	fix1175875602 = 9633
	fix1501321110 = 12299
	fix1847759065 = 15137
	fix1961570560 = 16069
	fix2053119869 = 16819
	fix2562915447 = 20995
	fix3072711026 = 25172
)

// ZigZag maps a position in the zig-zag-ordered coefficient stream read
// from the entropy decoder to its natural (row-major) block index.
var ZigZag = [64]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

// InverseDCT performs the 8x8 scaled integer IDCT of a block of
// quantized coefficients (coeffs, indexed in natural/row-major order),
// dequantizing each by the matching entry of the quantization table
// (also permuted to natural order), writing natural-order samples into
// dst. coeffs and dst may alias.
func InverseDCT(coeffs []int16, dst []int16, qtab []int16) {
	var ws [64]int32

	// Fast path: DC-only block. Matches the general two-pass result,
	// which for an all-zero-AC block reduces to a single flat sample:
	// pass 1 yields 2*dc per row, pass 2 ((2*dc)<<13 + 65536) >> 17,
	// together clampSample((dc*qtab[0] + 4) >> 3).
	acZero := true
	for i := 1; i < 64; i++ {
		if coeffs[i] != 0 {
			acZero = false
			break
		}
	}
	if acZero {
		dc := int32(coeffs[0]) * int32(qtab[0])
		sample := clampSample((dc + 4) >> 3)
		for i := 0; i < 64; i++ {
			dst[i] = sample
		}
		return
	}

	// Pass 1: columns.
	for col := 0; col < 8; col++ {
		if isColumnZero(coeffs, col) {
			dc := int32(coeffs[col]) * int32(qtab[col])
			dc <<= 1
			for row := 0; row < 8; row++ {
				ws[row*8+col] = dc
			}
			continue
		}
		idct1D(coeffs, qtab, col, 8, ws[:], col, 8, 2048, 12)
	}

	// Pass 2: rows, producing final samples.
	for row := 0; row < 8; row++ {
		idct1DFinal(ws[row*8:row*8+8], dst[row*8:row*8+8])
	}
}

func isColumnZero(coeffs []int16, col int) bool {
	for row := 1; row < 8; row++ {
		if coeffs[row*8+col] != 0 {
			return false
		}
	}
	return true
}

// idct1D runs one 1-D IDCT pass reading strided inputs (step apart,
// starting at base) and writing strided outputs, with the given
// rounding bias and right-shift (PASS1_BITS style scaling).
func idct1D(coeffs []int16, qtab []int16, base, step int, out []int32, outBase, outStep int, bias int32, shift uint) {
	c := func(i int) int32 { return int32(coeffs[base+i*step]) * int32(qtab[base+i*step]) }

	z2 := c(2)
	z3 := c(6)
	z1 := (z2 + z3) * fix0541196100
	tmp2 := z1 + z3*-fix1847759065
	tmp3 := z1 + z2*fix0765366865

	z2 = c(0)
	z3 = c(4)
	tmp0 := (z2 + z3) << 13
	tmp1 := (z2 - z3) << 13

	t10 := tmp0 + tmp3
	t13 := tmp0 - tmp3
	t11 := tmp1 + tmp2
	t12 := tmp1 - tmp2

	t0 := c(7)
	t1 := c(5)
	t2 := c(3)
	t3 := c(1)

	z1x := t0 + t3
	z2x := t1 + t2
	z3x := t0 + t2
	z4x := t1 + t3
	z5 := (z3x + z4x) * fix1175875602

	t0 = t0 * fix0298631336
	t1 = t1 * fix2053119869
	t2 = t2 * fix3072711026
	t3 = t3 * fix1501321110
	z1x = z1x * -fix0899976223
	z2x = z2x * -fix2562915447
	z3x = z3x*-fix1961570560 + z5
	z4x = z4x*-fix0390180644 + z5

	t0 += z1x + z3x
	t1 += z2x + z4x
	t2 += z2x + z3x
	t3 += z1x + z4x

	out[outBase+0*outStep] = (t10 + t3 + bias) >> shift
	out[outBase+7*outStep] = (t10 - t3 + bias) >> shift
	out[outBase+1*outStep] = (t11 + t2 + bias) >> shift
	out[outBase+6*outStep] = (t11 - t2 + bias) >> shift
	out[outBase+2*outStep] = (t12 + t1 + bias) >> shift
	out[outBase+5*outStep] = (t12 - t1 + bias) >> shift
	out[outBase+3*outStep] = (t13 + t0 + bias) >> shift
	out[outBase+4*outStep] = (t13 - t0 + bias) >> shift
}

// idct1DFinal runs the second 1-D IDCT pass over already-scaled
// intermediate row values, with the combined-pass rounding/shift.
func idct1DFinal(row []int32, dst []int16) {
	z2 := row[2]
	z3 := row[6]
	z1 := (z2 + z3) * fix0541196100
	tmp2 := z1 + z3*-fix1847759065
	tmp3 := z1 + z2*fix0765366865

	z2 = row[0]
	z3 = row[4]
	tmp0 := (z2 + z3) << 13
	tmp1 := (z2 - z3) << 13

	t10 := tmp0 + tmp3
	t13 := tmp0 - tmp3
	t11 := tmp1 + tmp2
	t12 := tmp1 - tmp2

	t0 := row[7]
	t1 := row[5]
	t2 := row[3]
	t3 := row[1]

	z1x := t0 + t3
	z2x := t1 + t2
	z3x := t0 + t2
	z4x := t1 + t3
	z5 := (z3x + z4x) * fix1175875602

	t0 = t0 * fix0298631336
	t1 = t1 * fix2053119869
	t2 = t2 * fix3072711026
	t3 = t3 * fix1501321110
	z1x = z1x * -fix0899976223
	z2x = z2x * -fix2562915447
	z3x = z3x*-fix1961570560 + z5
	z4x = z4x*-fix0390180644 + z5

	t0 += z1x + z3x
	t1 += z2x + z4x
	t2 += z2x + z3x
	t3 += z1x + z4x

	const bias = 65536
	const shift = 17

	dst[0] = clampSample((t10 + t3 + bias) >> shift)
	dst[7] = clampSample((t10 - t3 + bias) >> shift)
	dst[1] = clampSample((t11 + t2 + bias) >> shift)
	dst[6] = clampSample((t11 - t2 + bias) >> shift)
	dst[2] = clampSample((t12 + t1 + bias) >> shift)
	dst[5] = clampSample((t12 - t1 + bias) >> shift)
	dst[3] = clampSample((t13 + t0 + bias) >> shift)
	dst[4] = clampSample((t13 - t0 + bias) >> shift)
}

// clampSample level-shifts a reconstructed sample by +128 and saturates
// it to [0, 255].
func clampSample(v int32) int16 {
	v += 128
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return int16(v)
}
