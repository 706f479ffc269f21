package png

import (
	"io"

	"github.com/Jpn666/jimage/internal/pngchunk"
)

// idatSource presents the concatenation of every IDAT chunk's payload
// as one continuous io.Reader, transparently hopping chunk boundaries
// (and verifying each chunk's CRC as it closes) so compress/flate never
// has to know PNG framing exists.
type idatSource struct {
	r         *pngchunk.Reader
	remaining uint32
	done      bool
	pending   pngchunk.Header
}

// newIDATSource assumes the Reader has just consumed an IDAT header
// whose payload still has first bytes remaining unread.
func newIDATSource(r *pngchunk.Reader, firstChunkRemaining uint32) *idatSource {
	return &idatSource{r: r, remaining: firstChunkRemaining}
}

func (s *idatSource) Read(p []byte) (int, error) {
	for s.remaining == 0 {
		if s.done {
			return 0, io.EOF
		}
		if err := s.r.CheckCRC(); err != nil {
			return 0, err
		}
		h, err := s.r.ReadHeader()
		if err != nil {
			return 0, err
		}
		if h.Type != [4]byte{'I', 'D', 'A', 'T'} {
			s.done = true
			s.pending = h
			return 0, io.EOF
		}
		s.remaining = h.Length
	}

	n := len(p)
	if uint32(n) > s.remaining {
		n = int(s.remaining)
	}
	if err := s.r.ReadData(p[:n]); err != nil {
		return 0, err
	}
	s.remaining -= uint32(n)
	return n, nil
}

// finish discards any bytes left unread (the zlib Adler-32 trailer and
// any further IDAT chunks a pathological encoder split the stream
// across), leaving the chunk reader positioned right after the pending
// (non-IDAT) chunk header it already consumed.
func (s *idatSource) finish() (pngchunk.Header, error) {
	var scratch [4096]byte
	for {
		for s.remaining > 0 {
			k := uint32(len(scratch))
			if k > s.remaining {
				k = s.remaining
			}
			if err := s.r.ReadData(scratch[:k]); err != nil {
				return pngchunk.Header{}, err
			}
			s.remaining -= k
		}
		if s.done {
			return s.pending, nil
		}
		if err := s.r.CheckCRC(); err != nil {
			return pngchunk.Header{}, err
		}
		h, err := s.r.ReadHeader()
		if err != nil {
			return pngchunk.Header{}, err
		}
		if h.Type != [4]byte{'I', 'D', 'A', 'T'} {
			return h, nil
		}
		s.remaining = h.Length
	}
}
