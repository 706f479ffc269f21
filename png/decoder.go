// Package png implements a pull-based, streaming decoder for PNG
// images (ISO/IEC 15948), including Adam7-interlaced files and
// incremental multi-pass decoding.
package png

import (
	"github.com/Jpn666/jimage/imginfo"
	"github.com/Jpn666/jimage/internal/pngchunk"
)

// colorType is the raw PNG IHDR colour type byte.
type colorType int

const (
	ctGray      colorType = 0
	ctRGB       colorType = 2
	ctPalette   colorType = 3
	ctGrayAlpha colorType = 4
	ctRGBAlpha  colorType = 6
)

// chunkSeen tracks which once-only chunks have already appeared, to
// enforce PNG's ordering and duplication rules.
type chunkSeen struct {
	plte, sbit, bkgd, gama, iccp, phys, chrm, trns, srgb bool
}

// Decoder is a single PNG decode session. Operations must be called in
// order: New, SetInput, InitDecoder, SetBuffers, then DecodeImage or a
// DecodePass loop. A Decoder is not safe for concurrent use.
type Decoder struct {
	flags Flags
	state imginfo.State
	err   error
	warn  Warning
	props Chunk

	r *pngchunk.Reader

	width, height int
	depth         int
	color         colorType
	compression   byte
	filterMethod  byte
	interlace     bool

	hasAlpha bool
	seen     chunkSeen

	paletteSize int
	palette     [1024]byte // RGBA entries, 4 bytes each

	alphaKey   [3]uint16
	background [3]uint16
	sbits      [4]byte

	gamma            float32
	wpointx, wpointy float32
	chromax, chromay [3]float32
	srgbIntent       int
	iccProfile       []byte

	physX, physY uint32
	physUnit     byte

	channels   int // samples per pixel in the raw bitstream (pre-alpha-synthesis)
	rawRowSize int // bytes per raw (possibly sub-byte-packed) scanline, incl. filter byte
	rawPelSize int // bytes per sample group in the raw stream
	rowSize    int // bytes per decoded, 8-or-16-bit-per-channel output row
	pelSize    int // bytes per decoded pixel

	pixels []byte
	idxs   []byte

	src      *idatSource
	inflator *inflateReader

	npass int
}

// New creates a PNG decoder session.
func New(flags Flags) *Decoder {
	return &Decoder{flags: flags, state: imginfo.NotSet}
}

// Reset returns the decoder to NotSet so it can be reused for another
// image on a fresh input.
func (d *Decoder) Reset() {
	*d = Decoder{flags: d.flags, state: imginfo.NotSet}
}

// State reports the current lifecycle state plus any fatal error and
// accumulated non-fatal warnings.
func (d *Decoder) State() (imginfo.State, error, Warning) {
	return d.state, d.err, d.warn
}

func (d *Decoder) abort(err error) error {
	if d.err == nil {
		d.err = err
	}
	d.state = imginfo.Aborted
	return d.err
}

// HasChunk reports whether the given optional chunk was present and
// parsed successfully.
func (d *Decoder) HasChunk(c Chunk) bool { return d.props&c != 0 }

// IsProgressive reports whether the image uses Adam7 interlacing.
func (d *Decoder) IsProgressive() bool { return d.interlace }

// IsIndexed reports whether the image is palette-based (colour type 3).
func (d *Decoder) IsIndexed() bool { return d.color == ctPalette }

// ICCProfile returns the assembled iCCP profile bytes, if any.
func (d *Decoder) ICCProfile() []byte { return d.iccProfile }

// SetInput binds the pull-based byte source. Must be called once,
// before InitDecoder, while the decoder is NotSet.
func (d *Decoder) SetInput(fn imginfo.InputFunc) error {
	if d.state != imginfo.NotSet {
		return d.abort(ErrIncorrectUse)
	}
	d.r = pngchunk.NewReader(fn, d.flags&NoCRCCheck == 0)
	return nil
}

func wrapChunkErr(err error) error {
	switch err {
	case pngchunk.ErrIO:
		return ErrIO
	case pngchunk.ErrBadFile:
		return ErrBadFile
	case pngchunk.ErrBadCRC:
		return ErrBadCRC
	case nil:
		return nil
	default:
		return err
	}
}

// InitDecoder reads the signature, the IHDR chunk, and every chunk up
// to (but not including) the first IDAT's compressed payload,
// populating and returning the image's size/color metadata. On success
// the decoder transitions to Ready.
func (d *Decoder) InitDecoder() (imginfo.Info, error) {
	if d.state != imginfo.NotSet || d.r == nil {
		return imginfo.Info{}, d.abort(ErrIncorrectUse)
	}
	if err := wrapChunkErr(d.r.CheckSignature()); err != nil {
		return imginfo.Info{}, d.abort(ErrInvalidImage)
	}
	if err := d.parseIHDR(); err != nil {
		return imginfo.Info{}, d.abort(err)
	}
	if err := d.parseUntilIDAT(); err != nil {
		return imginfo.Info{}, d.abort(err)
	}
	if err := d.setValues(); err != nil {
		return imginfo.Info{}, d.abort(err)
	}
	d.state = imginfo.Ready
	return d.info(), nil
}

func (d *Decoder) info() imginfo.Info {
	// tRNS can promote a gray/RGB/palette image to carry alpha; check
	// d.hasAlpha for every base color type, not just RGB, or a
	// gray+tRNS image reports Gray metadata while materializePixel
	// still writes the wider gray+alpha sample.
	ct := imginfo.Gray
	switch {
	case d.color == ctGrayAlpha:
		ct = imginfo.GrayAlpha
	case d.color == ctGray:
		if d.hasAlpha {
			ct = imginfo.GrayAlpha
		} else {
			ct = imginfo.Gray
		}
	case d.color == ctRGBAlpha:
		ct = imginfo.RGBAlpha
	default: // ctRGB or ctPalette
		if d.hasAlpha {
			ct = imginfo.RGBAlpha
		} else {
			ct = imginfo.RGB
		}
	}
	depth := d.depth
	if depth < 8 {
		depth = 8
	}
	return imginfo.Info{Width: d.width, Height: d.height, Color: ct, Depth: depth}
}

// SetBuffers binds the caller-owned output pixel buffer (sized to
// Info.Width*Info.Height*Info.PixelSize()) and, for palette images
// only, an optional index buffer receiving raw palette indices
// (Width*Height bytes). Either may be nil.
func (d *Decoder) SetBuffers(pixels, idxs []byte) error {
	if d.state != imginfo.Ready {
		return d.abort(ErrIncorrectUse)
	}
	d.pixels = pixels
	d.idxs = idxs
	return nil
}
