package png

import (
	"bytes"
	"compress/zlib"
	"io"
)

// openZlibStream opens the zlib/DEFLATE stream carried across the
// image's IDAT chunks. d.src must already be positioned right after
// the first IDAT's header, with its payload still unread. compress/
// zlib validates the two-byte zlib header (cm==8, cinfo<=7,
// fcheck%31==0, fdict==0) and the trailing Adler-32 itself.
func (d *Decoder) openZlibStream() error {
	zr, err := zlib.NewReader(d.src)
	if err != nil {
		return ErrDeflate
	}
	d.inflator = &inflateReader{zr: zr}
	return nil
}

// inflateReader adapts zlib's ReadCloser to the decoder's error
// taxonomy; a corrupt DEFLATE stream or checksum mismatch becomes
// ErrDeflate rather than a raw compress/zlib error value.
type inflateReader struct {
	zr io.ReadCloser
}

func (r *inflateReader) Read(p []byte) (int, error) {
	n, err := r.zr.Read(p)
	if err != nil && err != io.EOF {
		return n, ErrDeflate
	}
	return n, err
}

func (r *inflateReader) readFull(p []byte) error {
	_, err := io.ReadFull(r, p)
	if err == io.ErrUnexpectedEOF {
		return ErrDeflate
	}
	return err
}

// finishStream drains whatever the inflator has not yet consumed
// (trailing pad bytes some encoders leave, and the Adler-32 checksum
// if it crosses into a further IDAT chunk), then requires the stream
// to reach IEND, honoring any trailing ancillary chunks along the way.
func (d *Decoder) finishStream() error {
	var scratch [512]byte
	for {
		_, err := d.inflator.Read(scratch[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}

	h, err := d.src.finish()
	if err != nil {
		return wrapChunkErr(err)
	}
	for {
		switch h.Type {
		case typeIEND:
			if h.Length != 0 {
				return ErrBadData
			}
			return wrapChunkErr(d.r.CheckCRC())
		case typeIDAT:
			return ErrChunkOrder
		case typeIHDR:
			return ErrDuplicatedChunk
		case typePLTE, typeTRNS, typeCHRM, typeGAMA, typeICCP, typeSBIT, typeSRGB, typeBKGD, typePHYS:
			// all bound to appear before the first IDAT
			return ErrChunkOrder
		default:
			// tEXt, zTXt, iTXt, tIME and unknown ancillary chunks are
			// legal after the image data; skip with CRC honored.
			if h.Length > maxChunkSize {
				return ErrLimit
			}
			if err := d.r.Skip(h.Length); err != nil {
				return wrapChunkErr(err)
			}
			if err := wrapChunkErr(d.r.CheckCRC()); err != nil {
				return err
			}
		}
		h, err = d.r.ReadHeader()
		if err != nil {
			return wrapChunkErr(err)
		}
	}
}

// inflateZlibBlock fully decompresses one standalone zlib-framed block
// (the iCCP chunk's profile body, which is not chunk-framed the way
// IDAT is).
func inflateZlibBlock(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
