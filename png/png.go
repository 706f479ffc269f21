package png

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/Jpn666/jimage/imginfo"
)

func init() {
	image.RegisterFormat("png", "\x89PNG\r\n\x1a\n", Decode, DecodeConfig)
}

func sliceInput(data []byte) imginfo.InputFunc {
	pos := 0
	return func(buf []byte) (int, error) {
		if pos >= len(data) {
			return 0, nil
		}
		n := copy(buf, data[pos:])
		pos += n
		return n, nil
	}
}

func decoderFor(r io.Reader) (*Decoder, imginfo.Info, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, imginfo.Info{}, fmt.Errorf("png: reading data: %w", err)
	}
	d := New(0)
	if err := d.SetInput(sliceInput(data)); err != nil {
		return nil, imginfo.Info{}, fmt.Errorf("png: %w", err)
	}
	info, err := d.InitDecoder()
	if err != nil {
		return nil, imginfo.Info{}, fmt.Errorf("png: %w", err)
	}
	return d, info, nil
}

// Decode reads a PNG image (interlaced or not) from r and returns it
// as an image.Image: *image.Gray, *image.Gray16, *image.NRGBA, or
// *image.NRGBA64, matching the decoded color type and depth.
func Decode(r io.Reader) (image.Image, error) {
	d, info, err := decoderFor(r)
	if err != nil {
		return nil, err
	}

	var img image.Image
	var pix []byte
	switch {
	case info.Color == imginfo.Gray && info.Depth == 8:
		m := image.NewGray(image.Rect(0, 0, info.Width, info.Height))
		img, pix = m, m.Pix
	case info.Color == imginfo.Gray && info.Depth == 16:
		m := image.NewGray16(image.Rect(0, 0, info.Width, info.Height))
		img, pix = m, m.Pix
	case info.Depth == 16:
		m := image.NewNRGBA64(image.Rect(0, 0, info.Width, info.Height))
		img, pix = m, m.Pix
	default:
		m := image.NewNRGBA(image.Rect(0, 0, info.Width, info.Height))
		img, pix = m, m.Pix
	}

	needsExpand := info.Color == imginfo.RGB || info.Color == imginfo.GrayAlpha
	var target []byte
	if needsExpand {
		target = make([]byte, info.Height*info.RowSize())
	} else {
		target = pix
	}
	if err := d.SetBuffers(target, nil); err != nil {
		return nil, fmt.Errorf("png: %w", err)
	}
	if err := d.DecodeImage(); err != nil {
		return nil, fmt.Errorf("png: %w", err)
	}
	if needsExpand {
		expandToImage(info, target, pix)
	}
	return img, nil
}

// expandToImage widens RGB (no-alpha) or gray+alpha rows into the
// 4-channel NRGBA/NRGBA64 layout image.Image requires, at whichever
// bit depth the source decoded to.
func expandToImage(info imginfo.Info, src, dst []byte) {
	npix := info.Width * info.Height
	if info.Depth == 16 {
		switch info.Color {
		case imginfo.RGB:
			for i, px := 0, 0; px < npix; px++ {
				copy(dst[i:i+6], src[px*6:px*6+6])
				dst[i+6], dst[i+7] = 0xff, 0xff
				i += 8
			}
		case imginfo.GrayAlpha:
			for i, px := 0, 0; px < npix; px++ {
				g0, g1, a0, a1 := src[px*4+0], src[px*4+1], src[px*4+2], src[px*4+3]
				dst[i+0], dst[i+1] = g0, g1
				dst[i+2], dst[i+3] = g0, g1
				dst[i+4], dst[i+5] = g0, g1
				dst[i+6], dst[i+7] = a0, a1
				i += 8
			}
		}
		return
	}
	switch info.Color {
	case imginfo.RGB:
		for i, px := 0, 0; px < npix; px++ {
			dst[i+0], dst[i+1], dst[i+2], dst[i+3] = src[px*3+0], src[px*3+1], src[px*3+2], 0xff
			i += 4
		}
	case imginfo.GrayAlpha:
		for i, px := 0, 0; px < npix; px++ {
			g, a := src[px*2+0], src[px*2+1]
			dst[i+0], dst[i+1], dst[i+2], dst[i+3] = g, g, g, a
			i += 4
		}
	}
}

// DecodeConfig returns the color model and dimensions of a PNG image
// without decoding any IDAT data.
func DecodeConfig(r io.Reader) (image.Config, error) {
	_, info, err := decoderFor(r)
	if err != nil {
		return image.Config{}, err
	}
	var cm color.Model
	switch {
	case info.Color == imginfo.Gray && info.Depth == 8:
		cm = color.GrayModel
	case info.Color == imginfo.Gray && info.Depth == 16:
		cm = color.Gray16Model
	case info.Depth == 16:
		cm = color.NRGBA64Model
	default:
		cm = color.NRGBAModel
	}
	return image.Config{ColorModel: cm, Width: info.Width, Height: info.Height}, nil
}
