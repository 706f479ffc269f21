package png

import (
	"encoding/binary"

	"github.com/Jpn666/jimage/imginfo"
	"github.com/Jpn666/jimage/internal/pngdsp"
)

// DecodeImage decodes every scanline (or, for an interlaced image,
// every Adam7 pass) and materializes final samples into the bound
// pixel buffer at their exact coordinates.
func (d *Decoder) DecodeImage() error {
	if d.state != imginfo.Ready {
		return d.abort(ErrIncorrectUse)
	}
	d.state = imginfo.Decoding

	if d.interlace {
		for pass := 0; pass < 7; pass++ {
			if err := d.decodeAdam7Pass(pass, false); err != nil {
				return d.abort(err)
			}
		}
	} else {
		if err := d.decodeFlat(); err != nil {
			return d.abort(err)
		}
	}
	if err := d.finishStream(); err != nil {
		return d.abort(err)
	}
	d.finish()
	return nil
}

func (d *Decoder) finish() {
	if d.warn != 0 {
		d.state = imginfo.DecodedWithWarnings
	} else {
		d.state = imginfo.Decoded
	}
}

// DecodePass decodes one unit of progressive work: the whole image in
// a single call for a non-interlaced file, or one Adam7 pass (1..7)
// for an interlaced one, painting into the pixel buffer either way
// (PNG never withholds rendering the way JPEG's update flag can).
// It returns the pass number just completed, or 0 once the image is
// fully decoded.
func (d *Decoder) DecodePass(update bool) (int, error) {
	if d.state == imginfo.Decoded || d.state == imginfo.DecodedWithWarnings {
		return 0, nil // past the final pass
	}
	if d.state != imginfo.Ready && d.state != imginfo.Decoding {
		return 0, d.abort(ErrIncorrectUse)
	}
	d.state = imginfo.Decoding

	if !d.interlace {
		if d.npass != 0 {
			return 0, nil
		}
		if err := d.decodeFlat(); err != nil {
			return 0, d.abort(err)
		}
		d.npass = 1
		if err := d.finishStream(); err != nil {
			return 0, d.abort(err)
		}
		d.finish()
		return 0, nil
	}

	if d.npass >= 7 {
		return 0, nil
	}
	if err := d.decodeAdam7Pass(d.npass, true); err != nil {
		return 0, d.abort(err)
	}
	d.npass++
	if d.npass == 7 {
		if err := d.finishStream(); err != nil {
			return 0, d.abort(err)
		}
		d.finish()
		return 0, nil
	}
	return d.npass, nil
}

// rawRowSizeFor is a geometry helper parametrized by a pass's (possibly
// reduced) width, since Adam7 passes decode a sub-image at a fraction
// of the full resolution; for depths of 8 and up it scales the
// per-pixel byte count held in d.rawPelSize.
func (d *Decoder) rawRowSizeFor(width int) int {
	if d.depth < 8 {
		return (d.depth*width+7)/8 + 1
	}
	return width*d.rawPelSize + 1
}

// decodeFlat decodes a non-interlaced image: one raw scanline per
// output row, defiltered against the previous row and materialized
// directly in place.
func (d *Decoder) decodeFlat() error {
	curr := make([]byte, d.rawRowSize)
	prev := make([]byte, d.rawRowSize)
	unpacked := make([]byte, d.width+8) // padded for sub-byte expansion tail

	for y := 0; y < d.height; y++ {
		if err := d.inflator.readFull(curr); err != nil {
			return err
		}
		filter := curr[0]
		if filter > 4 {
			return ErrBadData
		}
		if err := pngdsp.Unfilter(filter, curr[1:], prev[1:], d.rawPelSize); err != nil {
			return ErrBadData
		}

		samples := curr[1:]
		if d.depth < 8 {
			pngdsp.Unpack(unpacked, curr[1:], d.width, d.depth)
			samples = unpacked
		}
		if d.idxs != nil && d.color == ctPalette {
			copy(d.idxs[y*d.width:(y+1)*d.width], samples[:d.width])
		}
		if d.pixels != nil {
			d.materializeRow(samples, d.pixels[y*d.rowSize:(y+1)*d.rowSize], d.width)
		}

		curr, prev = prev, curr
	}
	return nil
}

// adam7FillWidth and adam7FillHeight give the replication block each
// pass's decoded pixel is solely responsible for during progressive
// (preview) rendering: the region not already refined, pass over
// pass, by an earlier pass's coarser fill. This is distinct from the
// pass's sampling stride (Adam7Pass.StepX/StepY) once a later pass
// starts refining a sub-region an earlier pass already filled wider.
var adam7FillWidth = [7]int{8, 4, 4, 2, 2, 1, 1}
var adam7FillHeight = [7]int{8, 8, 4, 4, 2, 2, 1}

// decodeAdam7Pass decodes one Adam7 pass. When replicate is true (a
// DecodePass progressive-preview call) each decoded pixel is also
// duplicated across the fill block it represents, clipped at the
// image edge; DecodeImage calls with replicate=false since every
// pixel is eventually visited at its exact coordinate by some pass.
func (d *Decoder) decodeAdam7Pass(pass int, replicate bool) error {
	p := pngdsp.Adam7Passes[pass]
	passW, passH := p.Dimensions(d.width, d.height)
	if passW == 0 || passH == 0 {
		return nil
	}

	rawSize := d.rawRowSizeFor(passW)
	curr := make([]byte, rawSize)
	prev := make([]byte, rawSize)
	unpacked := make([]byte, passW+8)

	bytesPerSample := d.pelSize
	sampleBuf := make([]byte, bytesPerSample)

	for row := 0; row < passH; row++ {
		if err := d.inflator.readFull(curr); err != nil {
			return err
		}
		filter := curr[0]
		if filter > 4 {
			return ErrBadData
		}
		if err := pngdsp.Unfilter(filter, curr[1:], prev[1:], d.rawPelSize); err != nil {
			return ErrBadData
		}

		samples := curr[1:]
		if d.depth < 8 {
			pngdsp.Unpack(unpacked, curr[1:], passW, d.depth)
			samples = unpacked
		}

		y := p.OriginY + row*p.StepY
		blockH := adam7FillHeight[pass]
		if d.height-y < blockH {
			blockH = d.height - y
		}
		for col := 0; col < passW; col++ {
			d.materializeRow(sliceSample(samples, col, d.depth, d.channels), sampleBuf, 1)
			x := p.OriginX + col*p.StepX

			var rawIdx byte
			if d.idxs != nil && d.color == ctPalette {
				rawIdx = sliceSample(samples, col, d.depth, d.channels)[0]
			}

			if !replicate {
				if d.pixels != nil {
					copy(d.pixels[y*d.rowSize+x*d.pelSize:], sampleBuf)
				}
				if d.idxs != nil && d.color == ctPalette {
					d.idxs[y*d.width+x] = rawIdx
				}
				continue
			}
			blockW := adam7FillWidth[pass]
			if d.width-x < blockW {
				blockW = d.width - x
			}
			for by := 0; by < blockH; by++ {
				if d.pixels != nil {
					rowOff := (y+by)*d.rowSize + x*d.pelSize
					for bx := 0; bx < blockW; bx++ {
						copy(d.pixels[rowOff+bx*d.pelSize:], sampleBuf)
					}
				}
				if d.idxs != nil && d.color == ctPalette {
					idxRowOff := (y + by) * d.width
					for bx := 0; bx < blockW; bx++ {
						d.idxs[idxRowOff+x+bx] = rawIdx
					}
				}
			}
		}

		curr, prev = prev, curr
	}
	return nil
}

// sliceSample extracts the samples for one pixel at index i out of a
// row of unpacked (one-byte-per-sample, or raw 8/16-bit) data.
func sliceSample(row []byte, i, depth, channels int) []byte {
	if depth < 8 {
		return row[i : i+1]
	}
	bpc := depth / 8
	n := channels * bpc
	return row[i*n : i*n+n]
}

// materializeRow converts count pixels' worth of raw samples (indexed,
// gray, gray+alpha, RGB or RGBA; 8 or 16 bits per channel) into the
// decoded pixel layout, applying palette indirection and tRNS-key
// alpha synthesis, and writes them into dst.
func (d *Decoder) materializeRow(samples []byte, dst []byte, count int) {
	bpc := 1
	if d.depth == 16 {
		bpc = 2
	}
	stride := d.channels * bpc
	if d.depth < 8 {
		stride = 1
	}

	for i := 0; i < count; i++ {
		s := samples[i*stride : i*stride+stride]
		o := dst[i*d.pelSize : i*d.pelSize+d.pelSize]
		d.materializePixel(s, o)
	}
}

// scaleGraySample widens a sub-8-bit grayscale sample to fill the byte
// range (e.g. a depth-1 sample of 1 becomes 0xff, not 0x01), matching
// the width image.RegisterFormat consumers and Info.Depth==8 both
// expect once sub-byte depths have been unpacked. Palette indices are
// never scaled: materializePixel's ctPalette case never calls this.
func scaleGraySample(v byte, depth int) byte {
	switch depth {
	case 1:
		if v != 0 {
			return 0xff
		}
		return 0
	case 2:
		return v * 0x55
	case 4:
		return v * 0x11
	default:
		return v
	}
}

// materializePixel converts one pixel's raw sample group to its final
// layout. See §4.11: palette entries are trusted without bounds
// checks (IHDR already bounded indices to 1<<depth-1), tRNS keys are
// compared on the full-width sample (byte pair for 16-bit), and 16-bit
// samples pass through in the big-endian order they arrive in.
func (d *Decoder) materializePixel(s, o []byte) {
	switch d.color {
	case ctPalette:
		idx := int(s[0])
		p := d.palette[idx*4 : idx*4+4]
		o[0], o[1], o[2] = p[0], p[1], p[2]
		if d.pelSize == 4 {
			o[3] = p[3]
		}

	case ctGray:
		if d.depth == 16 {
			copy(o[0:2], s[0:2])
			if d.hasAlpha {
				if binary.BigEndian.Uint16(s) == d.alphaKey[0] {
					o[2], o[3] = 0, 0
				} else {
					o[2], o[3] = 0xff, 0xff
				}
			}
			return
		}
		if d.hasAlpha {
			if uint16(s[0]) == d.alphaKey[0] {
				o[1] = 0
			} else {
				o[1] = 0xff
			}
		}
		o[0] = scaleGraySample(s[0], d.depth)

	case ctGrayAlpha:
		copy(o, s)

	case ctRGB:
		if d.depth == 16 {
			copy(o[0:6], s[0:6])
			if d.hasAlpha {
				match := binary.BigEndian.Uint16(s[0:2]) == d.alphaKey[0] &&
					binary.BigEndian.Uint16(s[2:4]) == d.alphaKey[1] &&
					binary.BigEndian.Uint16(s[4:6]) == d.alphaKey[2]
				if match {
					o[6], o[7] = 0, 0
				} else {
					o[6], o[7] = 0xff, 0xff
				}
			}
			return
		}
		o[0], o[1], o[2] = s[0], s[1], s[2]
		if d.hasAlpha {
			match := uint16(s[0]) == d.alphaKey[0] && uint16(s[1]) == d.alphaKey[1] && uint16(s[2]) == d.alphaKey[2]
			if match {
				o[3] = 0
			} else {
				o[3] = 0xff
			}
		}

	case ctRGBAlpha:
		copy(o, s)
	}
}
