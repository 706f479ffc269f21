// Package jpeg implements a pull-based, streaming decoder for baseline
// and progressive JFIF/JPEG images (ITU-T T.81). It never writes
// images; arithmetic-coded (SOF9+), hierarchical/lossless (SOF3/5/6/7)
// and CMYK JPEGs are rejected as unsupported.
package jpeg

import (
	"github.com/Jpn666/jimage/imginfo"
	"github.com/Jpn666/jimage/internal/jpegbits"
	"github.com/Jpn666/jimage/internal/jpeghuff"
)

// Decoder is a single JPEG decode session. Operations must be called in
// order: New, SetInput, InitDecoder, SetBuffers, then DecodeImage or a
// DecodePass loop. Calling anything out of order aborts the session
// with ErrIncorrectUse. A Decoder is not safe for concurrent use.
type Decoder struct {
	flags Flags
	state imginfo.State
	err   error
	warn  Warning

	src *jpegbits.ByteSource
	br  *jpegbits.Reader

	width, height int
	progressive   bool
	numComponents int
	components    [3]component

	hmax, vmax              int
	mcusPerLine, mcusPerCol int

	quant    [4]quantTable
	dcTables [4]*jpeghuff.Table
	acTables [4]*jpeghuff.Table

	restartInterval int

	isRGB     bool
	keepYCbCr bool

	sawAPP0, sawSOF, sawSOS bool
	scanned                 int // bitmap of component indices covered by some scan

	iccProfile []byte
	iccSize    int
	iccSeq     int
	iccTotal   int
	iccOK      bool

	densityUnit byte
	densityX    uint16
	densityY    uint16

	// current scan parameters, set by the most recently parsed SOS.
	scanComponents []int // indices into components, in scan order
	ss, se, ah, al int

	pixels []byte

	npass  int
	eobrun int

	sawEOI bool
}

// New creates a JPEG decoder session (equivalent to the source's
// jpgr_create followed by an implicit reset).
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

// SetInput binds the pull-based byte source. Must be called once,
// before InitDecoder, while the decoder is NotSet.
func (d *Decoder) SetInput(fn imginfo.InputFunc) error {
	if d.state != imginfo.NotSet {
		return d.abort(ErrIncorrectUse)
	}
	d.src = jpegbits.NewByteSource(fn)
	d.br = jpegbits.NewReader(d.src)
	return nil
}

// InitDecoder parses the file header through the first SOS segment,
// populating and returning the image's size/color metadata. On success
// the decoder transitions to Ready.
func (d *Decoder) InitDecoder() (imginfo.Info, error) {
	if d.state != imginfo.NotSet || d.src == nil {
		return imginfo.Info{}, d.abort(ErrIncorrectUse)
	}
	if err := d.readSOI(); err != nil {
		return imginfo.Info{}, d.abort(err)
	}
	for {
		found, err := d.parseOneSegment()
		if err != nil {
			return imginfo.Info{}, d.abort(err)
		}
		if found == markerSOS {
			break
		}
		if found == markerEOI {
			return imginfo.Info{}, d.abort(ErrNoSegment)
		}
	}
	if !d.sawSOF {
		return imginfo.Info{}, d.abort(ErrNoSegment)
	}
	d.state = imginfo.Ready
	return d.info(), nil
}

func (d *Decoder) info() imginfo.Info {
	ct := imginfo.YCbCr
	switch {
	case d.numComponents == 1:
		ct = imginfo.Gray
	case d.isRGB:
		ct = imginfo.RGB
	case d.keepYCbCr:
		ct = imginfo.YCbCr
	default:
		ct = imginfo.RGB // rendered output is always materialized RGB unless KeepYCbCr
	}
	return imginfo.Info{Width: d.width, Height: d.height, Color: ct, Depth: 8}
}

// SetBuffers binds the caller-owned output pixel buffer, sized to
// Info.Width*Info.Height*Info.PixelSize(). For progressive images the
// buffer must be zeroed by the caller (or freshly allocated) since
// partial passes paint into it incrementally.
func (d *Decoder) SetBuffers(pixels []byte) error {
	if d.state != imginfo.Ready {
		return d.abort(ErrIncorrectUse)
	}
	d.pixels = pixels
	return nil
}

// IsProgressive reports whether the frame header declared SOF2.
func (d *Decoder) IsProgressive() bool { return d.progressive }

// ICCProfile returns the assembled APP2 ICC profile once every declared
// chunk has arrived; nil if the profile was absent, malformed, or
// incomplete.
func (d *Decoder) ICCProfile() []byte {
	if d.iccOK && d.iccSeq == d.iccTotal {
		return d.iccProfile
	}
	return nil
}

// Density reports the JFIF pixel density declaration: unit (0 = aspect
// ratio only, 1 = dots per inch, 2 = dots per cm) and the x/y values.
func (d *Decoder) Density() (unit byte, x, y uint16) {
	return d.densityUnit, d.densityX, d.densityY
}
