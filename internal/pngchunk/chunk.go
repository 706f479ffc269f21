// Package pngchunk implements the low-level PNG chunk framing: the
// eight-byte signature, length-prefixed chunk headers, and CRC-32
// verification over the type code plus payload.
package pngchunk

import (
	"errors"
	"hash/crc32"

	"github.com/Jpn666/jimage/imginfo"
)

// Signature is the eight magic bytes every PNG stream must begin with.
var Signature = [8]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

var (
	ErrIO      = errors.New("pngchunk: io error")
	ErrBadFile = errors.New("pngchunk: malformed file structure")
	ErrBadCRC  = errors.New("pngchunk: crc32 mismatch")
)

// Header is a decoded chunk length + type code.
type Header struct {
	Length uint32
	Type   [4]byte
}

func (h Header) String() string { return string(h.Type[:]) }

// Reader pulls PNG bytes through an imginfo.InputFunc, tracking the
// running CRC-32 of the chunk currently being read.
type Reader struct {
	fn      imginfo.InputFunc
	docrc   bool
	crc     uint32
	scratch [8]byte
}

func NewReader(fn imginfo.InputFunc, checkCRC bool) *Reader {
	return &Reader{fn: fn, docrc: checkCRC}
}

// read fills buf completely. The input callback may legally hand back
// fewer bytes than requested per call; only a 0 (end of input before
// the structure is complete) or negative return stops the loop.
func (r *Reader) read(buf []byte) error {
	for off := 0; off < len(buf); {
		n, err := r.fn(buf[off:])
		if n < 0 || err != nil {
			return ErrIO
		}
		if n == 0 {
			return ErrBadFile
		}
		off += n
	}
	return nil
}

// CheckSignature reads and validates the eight-byte PNG magic.
func (r *Reader) CheckSignature() error {
	var s [8]byte
	if err := r.read(s[:]); err != nil {
		return err
	}
	if s != Signature {
		return errors.New("pngchunk: bad signature")
	}
	return nil
}

// ReadHeader reads a chunk's length and type code and initializes the
// CRC accumulator with the type code's bytes.
func (r *Reader) ReadHeader() (Header, error) {
	var s [8]byte
	if err := r.read(s[:]); err != nil {
		return Header{}, err
	}
	length := uint32(s[0])<<24 | uint32(s[1])<<16 | uint32(s[2])<<8 | uint32(s[3])
	if length > 0x7fffffff {
		return Header{}, ErrBadFile
	}
	h := Header{Length: length, Type: [4]byte{s[4], s[5], s[6], s[7]}}
	r.crc = crc32.Update(0, crc32.IEEETable, h.Type[:])
	return h, nil
}

// ReadData reads len(buf) payload bytes, folding them into the CRC.
func (r *Reader) ReadData(buf []byte) error {
	if err := r.read(buf); err != nil {
		return err
	}
	r.crc = crc32.Update(r.crc, crc32.IEEETable, buf)
	return nil
}

// Skip discards n payload bytes while still feeding the CRC.
func (r *Reader) Skip(n uint32) error {
	var buf [4096]byte
	for n > 0 {
		k := uint32(len(buf))
		if k > n {
			k = n
		}
		if err := r.ReadData(buf[:k]); err != nil {
			return err
		}
		n -= k
	}
	return nil
}

// CheckCRC reads the trailing 4-byte CRC and compares it against the
// bytes fed since the last ReadHeader, unless CRC checking is disabled.
func (r *Reader) CheckCRC() error {
	var s [4]byte
	if err := r.read(s[:]); err != nil {
		return err
	}
	if !r.docrc {
		return nil
	}
	want := uint32(s[0])<<24 | uint32(s[1])<<16 | uint32(s[2])<<8 | uint32(s[3])
	if want != r.crc {
		return ErrBadCRC
	}
	return nil
}
