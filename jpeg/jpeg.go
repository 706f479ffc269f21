package jpeg

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/Jpn666/jimage/imginfo"
)

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", Decode, DecodeConfig)
}

// readAll reads all data from r. If r implements Len() int (e.g.
// *bytes.Reader), a single exact-sized allocation is used instead of
// the repeated doublings that io.ReadAll performs.
func readAll(r io.Reader) ([]byte, error) {
	if lr, ok := r.(interface{ Len() int }); ok {
		n := lr.Len()
		if n > 0 {
			data := make([]byte, n)
			_, err := io.ReadFull(r, data)
			return data, err
		}
	}
	return io.ReadAll(r)
}

// sliceInput wraps an in-memory byte slice as an imginfo.InputFunc.
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

// decoderFor parses r's header and returns a Decoder positioned at
// Ready, along with its Info.
func decoderFor(r io.Reader) (*Decoder, imginfo.Info, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, imginfo.Info{}, fmt.Errorf("jpeg: reading data: %w", err)
	}
	d := New(0)
	if err := d.SetInput(sliceInput(data)); err != nil {
		return nil, imginfo.Info{}, fmt.Errorf("jpeg: %w", err)
	}
	info, err := d.InitDecoder()
	if err != nil {
		return nil, imginfo.Info{}, fmt.Errorf("jpeg: %w", err)
	}
	return d, info, nil
}

// Decode reads a baseline or progressive JPEG image from r and returns
// it as an image.Image: *image.Gray for single-component frames,
// *image.RGBA otherwise.
func Decode(r io.Reader) (image.Image, error) {
	d, info, err := decoderFor(r)
	if err != nil {
		return nil, err
	}

	if info.Color == imginfo.Gray {
		img := image.NewGray(image.Rect(0, 0, info.Width, info.Height))
		if err := d.SetBuffers(img.Pix); err != nil {
			return nil, fmt.Errorf("jpeg: %w", err)
		}
		if err := d.DecodeImage(); err != nil {
			return nil, fmt.Errorf("jpeg: %w", err)
		}
		return img, nil
	}

	img := image.NewRGBA(image.Rect(0, 0, info.Width, info.Height))
	pix := make([]byte, info.Width*info.Height*3)
	if err := d.SetBuffers(pix); err != nil {
		return nil, fmt.Errorf("jpeg: %w", err)
	}
	if err := d.DecodeImage(); err != nil {
		return nil, fmt.Errorf("jpeg: %w", err)
	}
	for y := 0; y < info.Height; y++ {
		srcOff := y * info.Width * 3
		dstOff := img.PixOffset(0, y)
		for x := 0; x < info.Width; x++ {
			s := srcOff + x*3
			o := dstOff + x*4
			img.Pix[o+0] = pix[s+0]
			img.Pix[o+1] = pix[s+1]
			img.Pix[o+2] = pix[s+2]
			img.Pix[o+3] = 0xff
		}
	}
	return img, nil
}

// DecodeConfig returns the color model and dimensions of a JPEG image
// without decoding any entropy-coded scan data.
func DecodeConfig(r io.Reader) (image.Config, error) {
	_, info, err := decoderFor(r)
	if err != nil {
		return image.Config{}, err
	}
	cm := color.RGBAModel
	if info.Color == imginfo.Gray {
		cm = color.GrayModel
	}
	return image.Config{ColorModel: cm, Width: info.Width, Height: info.Height}, nil
}
