// Package jpegbits implements the JPEG entropy-coded bitstream reader:
// a pull-buffered byte source plus a bit-at-a-time accumulator that
// removes 0xFF 0x00 stuffing and stops cleanly at a marker.
//
// The accumulator shape (a wide register refilled on demand, bits
// counted rather than tracked byte-by-byte) follows the cached-register
// pattern used by bitio.BoolReader in the sibling WebP codec; the
// stuffing/marker rules themselves are JPEG-specific and have no WebP
// analogue.
package jpegbits

import "github.com/Jpn666/jimage/imginfo"

const bufSize = 4096

// ByteSource buffers raw bytes pulled from an imginfo.InputFunc.
type ByteSource struct {
	fn    imginfo.InputFunc
	buf   []byte
	pos   int
	n     int
	eof   bool
	ioErr error
}

// NewByteSource wraps fn in a buffered byte source.
func NewByteSource(fn imginfo.InputFunc) *ByteSource {
	return &ByteSource{fn: fn, buf: make([]byte, bufSize)}
}

// ReadByte returns the next raw byte, ok=false at EOF or on error (Err
// reports which).
func (s *ByteSource) ReadByte() (b byte, ok bool) {
	if s.pos >= s.n {
		if s.eof {
			return 0, false
		}
		n, err := s.fn(s.buf)
		if n < 0 || err != nil {
			s.eof = true
			s.ioErr = err
			return 0, false
		}
		if n == 0 {
			s.eof = true
			return 0, false
		}
		s.n = n
		s.pos = 0
	}
	b = s.buf[s.pos]
	s.pos++
	return b, true
}

// PeekByte returns the next raw byte without consuming it.
func (s *ByteSource) PeekByte() (b byte, ok bool) {
	if s.pos >= s.n {
		if s.eof {
			return 0, false
		}
		n, err := s.fn(s.buf)
		if n < 0 || err != nil {
			s.eof = true
			s.ioErr = err
			return 0, false
		}
		if n == 0 {
			s.eof = true
			return 0, false
		}
		s.n = n
		s.pos = 0
	}
	return s.buf[s.pos], true
}

// Err reports the fatal I/O error seen, if any.
func (s *ByteSource) Err() error { return s.ioErr }

// Reader is the entropy-coded-segment bit reader: it removes byte
// stuffing transparently and stops consuming once a marker (any 0xFF
// byte not followed by 0x00) is reached, padding further requests with
// zero bits (the "padded zero" mode used past the end of a scan).
type Reader struct {
	src      *ByteSource
	acc      uint32
	nbits    uint
	atMarker bool
	padBits  int // zero bits shifted in past the marker
	bad      bool

	// markerByte is the marker identifier byte (SOS/EOI/RSTn/...) that
	// stopped refill, already consumed from src: by the time refill can
	// tell a 0xFF starts a genuine marker rather than stuffing, it has
	// already read the 0xFF off src looking for the following byte, so
	// the caller can no longer re-read the marker the ordinary way.
	markerByte byte
}

// NewReader creates a bit reader over src.
func NewReader(src *ByteSource) *Reader {
	return &Reader{src: src}
}

// Reset clears accumulated bits and marker state, used when a restart
// marker (RST0-7) is consumed and decoding resumes byte-aligned.
func (r *Reader) Reset() {
	r.acc = 0
	r.nbits = 0
	r.atMarker = false
	r.padBits = 0
}

// AtMarker reports whether the reader has stopped at a marker boundary.
func (r *Reader) AtMarker() bool { return r.atMarker }

// TakeMarker returns the marker identifier byte that stopped the reader
// and clears the marker-pending state. The 0xFF lead byte and this
// identifier byte have both already been consumed from the underlying
// byte source by refill's lookahead; callers must use this instead of
// re-reading a marker from the byte source directly.
func (r *Reader) TakeMarker() byte {
	r.atMarker = false
	return r.markerByte
}

// Overread reports how many zero-padded bits have been consumed past a
// marker. Padding that was only prefetched (still sitting unconsumed in
// the accumulator, where it is the newest, bottom-most bits) does not
// count: a code that decodes entirely from real entropy bits is fine
// even when the lookahead that resolved it ran into the marker. A
// nonzero value after decoding a block signals truncated entropy data.
func (r *Reader) Overread() int {
	if int(r.nbits) >= r.padBits {
		return 0
	}
	return r.padBits - int(r.nbits)
}

// refill pulls entropy bytes into the accumulator until at least n bits
// are available or a marker is hit (after which zero bits are supplied).
func (r *Reader) refill(n uint) {
	for r.nbits < n {
		if r.atMarker {
			r.acc <<= 8
			r.nbits += 8
			r.padBits += 8
			continue
		}
		b, ok := r.src.PeekByte()
		if !ok {
			r.atMarker = true
			r.bad = true
			continue
		}
		if b != 0xff {
			r.src.ReadByte()
			r.acc = r.acc<<8 | uint32(b)
			r.nbits += 8
			continue
		}
		// b == 0xff: consume it, look at the following byte.
		r.src.ReadByte()
		nb, ok := r.src.PeekByte()
		if !ok {
			r.atMarker = true
			continue
		}
		if nb == 0x00 {
			r.src.ReadByte()
			r.acc = r.acc<<8 | 0xff
			r.nbits += 8
			continue
		}
		// A genuine marker: extra 0xFF fill bytes are skipped (legal
		// padding before a marker); anything else stops the stream. The
		// following 0xFF is left unread so the next iteration treats it
		// as the new lead byte.
		if nb == 0xff {
			continue
		}
		r.src.ReadByte()
		r.markerByte = nb
		r.atMarker = true
	}
}

// EnsureBits guarantees at least n bits (n <= 24) are available to Peek.
func (r *Reader) EnsureBits(n uint) {
	if r.nbits < n {
		r.refill(n)
	}
}

// PeekBits returns the top n bits of the accumulator without consuming
// them. EnsureBits(n) must have been called first.
func (r *Reader) PeekBits(n uint) uint32 {
	if n == 0 {
		return 0
	}
	return (r.acc >> (r.nbits - n)) & ((1 << n) - 1)
}

// DropBits consumes n bits previously returned by PeekBits.
func (r *Reader) DropBits(n uint) {
	r.nbits -= n
}

// GetBits ensures and consumes n bits in one call, returning their value.
func (r *Reader) GetBits(n uint) uint32 {
	if n == 0 {
		return 0
	}
	r.EnsureBits(n)
	v := r.PeekBits(n)
	r.DropBits(n)
	return v
}

// Failed reports whether the underlying byte source ran out of data
// before a marker was reached (a genuine I/O truncation, as opposed to
// legitimately hitting EOI/RSTn).
func (r *Reader) Failed() bool { return r.bad }

// Extend sign-extends a size-bit magnitude/sign-coded JPEG value: values
// with their top bit clear represent negatives, per ITU T.81 F.12.
func Extend(bits int32, size uint) int32 {
	if size == 0 {
		return 0
	}
	vt := int32(1) << (size - 1)
	if bits < vt {
		return bits - (int32(1)<<size - 1)
	}
	return bits
}
