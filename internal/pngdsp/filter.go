// Package pngdsp implements PNG scanline reconstruction: filter
// reversal, sub-byte sample unpacking, and Adam7 interlace geometry.
package pngdsp

// paeth picks whichever of a, b, c is closest to p = a+b-c, favoring a
// on a tie with b, then b on a tie with c.
func paeth(a, b, c uint8) uint8 {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))

	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Unfilter reverses one of the five PNG filter types in place. curr is
// the current scanline (filter byte already stripped), prev is the
// previous reconstructed scanline (or all-zero for the first row),
// psize is the pixel stride in bytes used for the left/up-left
// neighbors.
func Unfilter(filter byte, curr, prev []byte, psize int) error {
	switch filter {
	case 0:
		return nil

	case 1: // Sub
		for i := psize; i < len(curr); i++ {
			curr[i] += curr[i-psize]
		}

	case 2: // Up
		for i := range curr {
			curr[i] += prev[i]
		}

	case 3: // Average
		for i := 0; i < psize; i++ {
			curr[i] += prev[i] >> 1
		}
		for i := psize; i < len(curr); i++ {
			curr[i] += uint8((int(curr[i-psize]) + int(prev[i])) >> 1)
		}

	case 4: // Paeth
		for i := 0; i < psize; i++ {
			curr[i] += paeth(0, prev[i], 0)
		}
		for i := psize; i < len(curr); i++ {
			curr[i] += paeth(curr[i-psize], prev[i], prev[i-psize])
		}

	default:
		return errBadFilter
	}
	return nil
}
