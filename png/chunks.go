package png

import "github.com/Jpn666/jimage/internal/pngchunk"

const maxChunkSize = 0x800000   // 8 MiB, for iCCP/tEXt/zTXt/iTXt and unknown chunks
const maxSafeSize = 0x100000000 // 4 GiB pixel-count*pelsize ceiling

func fcc(a, b, c, d byte) [4]byte { return [4]byte{a, b, c, d} }

var (
	typeIHDR = fcc('I', 'H', 'D', 'R')
	typeIDAT = fcc('I', 'D', 'A', 'T')
	typeIEND = fcc('I', 'E', 'N', 'D')
	typePLTE = fcc('P', 'L', 'T', 'E')
	typeTRNS = fcc('t', 'R', 'N', 'S')
	typeCHRM = fcc('c', 'H', 'R', 'M')
	typeGAMA = fcc('g', 'A', 'M', 'A')
	typeICCP = fcc('i', 'C', 'C', 'P')
	typeSBIT = fcc('s', 'B', 'I', 'T')
	typeSRGB = fcc('s', 'R', 'G', 'B')
	typeBKGD = fcc('b', 'K', 'G', 'D')
	typePHYS = fcc('p', 'H', 'Y', 's')
)

func isValidMode(depth int, ct colorType) bool {
	switch ct {
	case ctGray:
		switch depth {
		case 1, 2, 4, 8, 16:
			return true
		}
	case ctRGB, ctGrayAlpha, ctRGBAlpha:
		return depth == 8 || depth == 16
	case ctPalette:
		switch depth {
		case 1, 2, 4, 8:
			return true
		}
	}
	return false
}

func (d *Decoder) parseIHDR() error {
	h, err := d.r.ReadHeader()
	if err != nil {
		return wrapChunkErr(err)
	}
	if h.Type != typeIHDR || h.Length != 13 {
		return ErrBadFile
	}
	var s [13]byte
	if err := d.r.ReadData(s[:]); err != nil {
		return wrapChunkErr(err)
	}
	if err := d.r.CheckCRC(); err != nil {
		return wrapChunkErr(err)
	}

	w := int(uint32(s[0])<<24 | uint32(s[1])<<16 | uint32(s[2])<<8 | uint32(s[3]))
	ht := int(uint32(s[4])<<24 | uint32(s[5])<<16 | uint32(s[6])<<8 | uint32(s[7]))
	if w <= 0 || ht <= 0 {
		return ErrBadData
	}
	d.width, d.height = w, ht
	d.depth = int(s[8])
	d.color = colorType(s[9])
	d.compression = s[10]
	d.filterMethod = s[11]
	interlaceByte := s[12]

	if !isValidMode(d.depth, d.color) {
		return ErrBadData
	}
	if d.compression != 0 || d.filterMethod != 0 || interlaceByte > 1 {
		return ErrBadData
	}
	d.interlace = interlaceByte == 1

	if d.color == ctPalette {
		// debug sentinel: opaque red, overwritten once PLTE arrives
		for i := 0; i < 256; i++ {
			d.palette[i*4+0] = 0xff
			d.palette[i*4+1] = 0x00
			d.palette[i*4+2] = 0x00
			d.palette[i*4+3] = 0xff
		}
	}
	return nil
}

// parseUntilIDAT walks chunks after IHDR, applying ordering rules,
// until it reaches the first IDAT chunk (leaving its payload for the
// inflate bridge) or fails.
func (d *Decoder) parseUntilIDAT() error {
	for {
		h, err := d.r.ReadHeader()
		if err != nil {
			return wrapChunkErr(err)
		}

		switch h.Type {
		case typeIDAT:
			if d.color == ctPalette && d.paletteSize == 0 {
				return ErrMissingChunk
			}
			d.src = newIDATSource(d.r, h.Length)
			return d.openZlibStream()

		case typePLTE:
			if err := d.parsePLTE(h); err != nil {
				return err
			}

		case typeIEND:
			return ErrChunkOrder // IDAT must appear before IEND

		case typeIHDR:
			return ErrDuplicatedChunk

		default:
			if err := d.parseAncillary(h); err != nil {
				return err
			}
		}
	}
}

func (d *Decoder) parseAncillary(h pngchunk.Header) error {
	switch h.Type {
	case typeTRNS:
		return d.parseTRNS(h)
	case typeCHRM:
		return d.parseCHRM(h)
	case typeGAMA:
		return d.parseGAMA(h)
	case typeICCP:
		return d.parseICCP(h)
	case typeSBIT:
		return d.parseSBIT(h)
	case typeSRGB:
		return d.parseSRGB(h)
	case typeBKGD:
		return d.parseBKGD(h)
	case typePHYS:
		return d.parsePHYS(h)
	default:
		// hIST, sPLT, tIME, iTXt, tEXt, zTXt and anything unrecognized:
		// not needed to recompose the final image.
		if h.Length > maxChunkSize {
			return ErrLimit
		}
		if err := d.r.Skip(h.Length); err != nil {
			return wrapChunkErr(err)
		}
		return wrapChunkErr(d.r.CheckCRC())
	}
}

func (d *Decoder) parsePLTE(h pngchunk.Header) error {
	if d.seen.plte {
		return ErrDuplicatedChunk
	}
	d.seen.plte = true
	if d.color == ctGray || d.color == ctGrayAlpha {
		return ErrBadData
	}
	if h.Length > 0x300 || h.Length%3 != 0 {
		return ErrBadData
	}
	psize := int(h.Length / 3)
	limit := 0x100
	if d.color == ctPalette {
		limit = 1 << uint(d.depth)
	}
	if psize == 0 || psize > limit {
		return ErrBadData
	}

	var rgb [0x300]byte
	if err := d.r.ReadData(rgb[:h.Length]); err != nil {
		return wrapChunkErr(err)
	}
	d.paletteSize = psize
	for i := 0; i < psize; i++ {
		d.palette[i*4+0] = rgb[i*3+0]
		d.palette[i*4+1] = rgb[i*3+1]
		d.palette[i*4+2] = rgb[i*3+2]
		d.palette[i*4+3] = 0xff
	}
	return wrapChunkErr(d.r.CheckCRC())
}

func (d *Decoder) parseTRNS(h pngchunk.Header) error {
	if d.seen.trns {
		return ErrDuplicatedChunk
	}
	if d.color == ctPalette && !d.seen.plte {
		return ErrChunkOrder
	}
	d.seen.trns = true
	if d.color == ctGrayAlpha || d.color == ctRGBAlpha {
		return ErrBadData
	}

	switch d.color {
	case ctPalette:
		if d.paletteSize == 0 || int(h.Length) > d.paletteSize {
			return ErrBadData
		}
		var s [256]byte
		if err := d.r.ReadData(s[:h.Length]); err != nil {
			return wrapChunkErr(err)
		}
		for i := 0; i < int(h.Length); i++ {
			d.palette[i*4+3] = s[i]
		}
	case ctGray:
		if h.Length != 2 {
			return ErrBadData
		}
		var s [2]byte
		if err := d.r.ReadData(s[:]); err != nil {
			return wrapChunkErr(err)
		}
		d.alphaKey[0] = uint16(s[0])<<8 | uint16(s[1])
	case ctRGB:
		if h.Length != 6 {
			return ErrBadData
		}
		var s [6]byte
		if err := d.r.ReadData(s[:]); err != nil {
			return wrapChunkErr(err)
		}
		d.alphaKey[0] = uint16(s[0])<<8 | uint16(s[1])
		d.alphaKey[1] = uint16(s[2])<<8 | uint16(s[3])
		d.alphaKey[2] = uint16(s[4])<<8 | uint16(s[5])
	}
	d.hasAlpha = true
	d.props |= ChunkTRNS
	return wrapChunkErr(d.r.CheckCRC())
}

func (d *Decoder) parseCHRM(h pngchunk.Header) error {
	if d.seen.chrm {
		return ErrDuplicatedChunk
	}
	// indexed images must declare chromaticities before the palette.
	if d.color == ctPalette && d.seen.plte {
		return ErrChunkOrder
	}
	d.seen.chrm = true
	if h.Length != 32 {
		d.warn |= WarnBadCHRM
		return d.skipRest(h)
	}
	var s [32]byte
	if err := d.r.ReadData(s[:]); err != nil {
		return wrapChunkErr(err)
	}
	vals := [8]float32{}
	for i := 0; i < 8; i++ {
		v := uint32(s[i*4])<<24 | uint32(s[i*4+1])<<16 | uint32(s[i*4+2])<<8 | uint32(s[i*4+3])
		vals[i] = float32(v) / 100000
	}
	d.wpointx, d.wpointy = vals[0], vals[1]
	d.chromax[0], d.chromay[0] = vals[2], vals[3]
	d.chromax[1], d.chromay[1] = vals[4], vals[5]
	d.chromax[2], d.chromay[2] = vals[6], vals[7]
	d.props |= ChunkCHRM
	return wrapChunkErr(d.r.CheckCRC())
}

func (d *Decoder) parseGAMA(h pngchunk.Header) error {
	if d.seen.gama {
		return ErrDuplicatedChunk
	}
	d.seen.gama = true
	if h.Length != 4 {
		d.warn |= WarnBadGAMA
		return d.skipRest(h)
	}
	var s [4]byte
	if err := d.r.ReadData(s[:]); err != nil {
		return wrapChunkErr(err)
	}
	v := uint32(s[0])<<24 | uint32(s[1])<<16 | uint32(s[2])<<8 | uint32(s[3])
	d.gamma = float32(v) / 100000
	d.props |= ChunkGAMA
	return wrapChunkErr(d.r.CheckCRC())
}

func (d *Decoder) parseSBIT(h pngchunk.Header) error {
	if d.seen.sbit {
		return ErrDuplicatedChunk
	}
	d.seen.sbit = true
	n := map[colorType]int{ctGray: 1, ctRGB: 3, ctPalette: 3, ctGrayAlpha: 2, ctRGBAlpha: 4}[d.color]
	if int(h.Length) != n {
		d.warn |= WarnBadSBIT
		return d.skipRest(h)
	}
	var s [4]byte
	if err := d.r.ReadData(s[:n]); err != nil {
		return wrapChunkErr(err)
	}
	copy(d.sbits[:], s[:n])
	d.props |= ChunkSBIT
	return wrapChunkErr(d.r.CheckCRC())
}

func (d *Decoder) parseSRGB(h pngchunk.Header) error {
	if d.seen.srgb {
		return ErrDuplicatedChunk
	}
	d.seen.srgb = true
	if h.Length != 1 {
		d.warn |= WarnBadSRGB
		return d.skipRest(h)
	}
	var s [1]byte
	if err := d.r.ReadData(s[:]); err != nil {
		return wrapChunkErr(err)
	}
	d.srgbIntent = int(s[0])
	d.props |= ChunkSRGB
	return wrapChunkErr(d.r.CheckCRC())
}

func (d *Decoder) parseBKGD(h pngchunk.Header) error {
	if d.seen.bkgd {
		return ErrDuplicatedChunk
	}
	if d.color == ctPalette && !d.seen.plte {
		return ErrChunkOrder
	}
	d.seen.bkgd = true
	switch d.color {
	case ctGray, ctGrayAlpha:
		if h.Length != 2 {
			return d.skipRest(h)
		}
		var s [2]byte
		if err := d.r.ReadData(s[:]); err != nil {
			return wrapChunkErr(err)
		}
		d.background[0] = uint16(s[0])<<8 | uint16(s[1])
	case ctRGB, ctRGBAlpha:
		if h.Length != 6 {
			return d.skipRest(h)
		}
		var s [6]byte
		if err := d.r.ReadData(s[:]); err != nil {
			return wrapChunkErr(err)
		}
		d.background[0] = uint16(s[0])<<8 | uint16(s[1])
		d.background[1] = uint16(s[2])<<8 | uint16(s[3])
		d.background[2] = uint16(s[4])<<8 | uint16(s[5])
	case ctPalette:
		if h.Length != 1 {
			return d.skipRest(h)
		}
		var s [1]byte
		if err := d.r.ReadData(s[:]); err != nil {
			return wrapChunkErr(err)
		}
		d.background[0] = uint16(s[0])
	}
	d.props |= ChunkBKGD
	return wrapChunkErr(d.r.CheckCRC())
}

func (d *Decoder) parsePHYS(h pngchunk.Header) error {
	if d.seen.phys {
		return ErrDuplicatedChunk
	}
	d.seen.phys = true
	if h.Length != 9 {
		d.warn |= WarnBadPHYS
		return d.skipRest(h)
	}
	var s [9]byte
	if err := d.r.ReadData(s[:]); err != nil {
		return wrapChunkErr(err)
	}
	d.physX = uint32(s[0])<<24 | uint32(s[1])<<16 | uint32(s[2])<<8 | uint32(s[3])
	d.physY = uint32(s[4])<<24 | uint32(s[5])<<16 | uint32(s[6])<<8 | uint32(s[7])
	d.physUnit = s[8]
	d.props |= ChunkPHYS
	return wrapChunkErr(d.r.CheckCRC())
}

// parseICCP assembles the iCCP profile: a null-terminated name (up to
// 79 bytes), a one-byte compression method (must be 0), then a
// zlib-compressed profile.
func (d *Decoder) parseICCP(h pngchunk.Header) error {
	if d.seen.iccp {
		return ErrDuplicatedChunk
	}
	d.seen.iccp = true
	if d.flags&IgnoreICCP != 0 || h.Length > maxChunkSize {
		return d.skipRest(h)
	}

	buf := make([]byte, h.Length)
	if err := d.r.ReadData(buf); err != nil {
		return wrapChunkErr(err)
	}
	nul := -1
	for i, b := range buf {
		if b == 0 {
			nul = i
			break
		}
	}
	if nul < 0 || nul > 79 || nul+1 >= len(buf) || buf[nul+1] != 0 {
		d.warn |= WarnBadICCP
		return wrapChunkErr(d.r.CheckCRC())
	}
	profile, err := inflateZlibBlock(buf[nul+2:])
	if err != nil || len(profile) < 128 || string(profile[36:40]) != "acsp" {
		d.warn |= WarnBadICCP
		return wrapChunkErr(d.r.CheckCRC())
	}
	size := uint32(profile[0])<<24 | uint32(profile[1])<<16 | uint32(profile[2])<<8 | uint32(profile[3])
	if size < 128 || size > maxChunkSize {
		d.warn |= WarnBadICCP
		return wrapChunkErr(d.r.CheckCRC())
	}
	d.iccProfile = profile
	d.props |= ChunkICCP
	return wrapChunkErr(d.r.CheckCRC())
}

func (d *Decoder) skipRest(h pngchunk.Header) error {
	if err := d.r.Skip(h.Length); err != nil {
		return wrapChunkErr(err)
	}
	return wrapChunkErr(d.r.CheckCRC())
}

func (d *Decoder) checkLimits(pelSize int) bool {
	v := uint64(d.width) * uint64(pelSize)
	if v > maxSafeSize>>2 {
		return false
	}
	if v*2 > maxSafeSize>>2 {
		return false
	}
	v = uint64(d.width) * uint64(d.height)
	if v > maxSafeSize {
		return false
	}
	if v*uint64(pelSize) > maxSafeSize {
		return false
	}
	return true
}

// setValues computes the raw (bitstream) and decoded row geometry once
// the header and palette (if any) are known.
func (d *Decoder) setValues() error {
	channels := map[colorType]int{ctGray: 1, ctRGB: 3, ctPalette: 1, ctGrayAlpha: 2, ctRGBAlpha: 4}[d.color]

	// decodedChannels is the materialized sample count per pixel: a
	// palette index always expands to an RGB (or RGBA, once tRNS
	// supplies per-entry alpha) triple/quad, unlike every other color
	// type where the raw and decoded channel counts match.
	decodedChannels := channels
	if d.color == ctPalette {
		decodedChannels = 3
	}
	pelSize := decodedChannels
	if d.hasAlpha && d.color != ctGrayAlpha && d.color != ctRGBAlpha && d.color != ctPalette {
		pelSize++
	}
	if d.color == ctPalette && d.hasAlpha {
		pelSize = 4
	}
	if d.depth == 16 {
		pelSize *= 2
	}
	if !d.checkLimits(pelSize) {
		return ErrLimit
	}

	d.channels = channels
	rawPelSize := channels * ((d.depth + 7) / 8)
	if d.depth < 8 {
		rawPelSize = 1
	}
	d.rawPelSize = rawPelSize
	if d.depth < 8 {
		d.rawRowSize = (d.depth*d.width+7)/8 + 1
	} else {
		d.rawRowSize = d.width*rawPelSize + 1
	}
	d.rowSize = pelSize * d.width
	d.pelSize = pelSize
	return nil
}
