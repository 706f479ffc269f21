package jpeg

import "errors"

// Flags toggle optional JPEG decoding behavior, mirroring the two
// input flags the wire format defines.
type Flags uint8

const (
	// IgnoreICCP skips APP2 ICC-profile assembly entirely.
	IgnoreICCP Flags = 1 << iota
	// KeepYCbCr suppresses the YCbCr->RGB color transform; decoded
	// samples are returned as-is (Y, Cb, Cr).
	KeepYCbCr
)

// Warning is a non-fatal, OR-accumulated condition recorded during a
// decode that otherwise completed; a nonzero Warnings value after
// DecodeImage means the final state is DecodedWithWarnings rather than
// Decoded.
type Warning uint32

const (
	WarnBadSignature Warning = 1 << iota
	WarnBadVersion
	WarnBadICCP
	WarnSegmentOrder
	// WarnTruncated marks an image recovered from a stream that ended
	// early but still yielded a complete renderable result (a baseline
	// file cut after a whole non-interleaved scan, or a progressive one
	// cut between passes).
	WarnTruncated
)

// Fatal errors, aborting the current decode session. Each corresponds
// 1:1 to an entry of the JPEG error taxonomy.
var (
	ErrIncorrectUse = errors.New("jpeg: incorrect use (operations out of order)")
	ErrIO           = errors.New("jpeg: i/o error")
	ErrBadState     = errors.New("jpeg: bad state")
	ErrInvalidImage = errors.New("jpeg: invalid image")
	ErrLimit        = errors.New("jpeg: limit exceeded")
	ErrBadData      = errors.New("jpeg: malformed entropy-coded data")
	ErrBadFile      = errors.New("jpeg: not a JPEG file")
	ErrNotSupported = errors.New("jpeg: unsupported feature")
	ErrBadHuffTable = errors.New("jpeg: invalid huffman table")
	ErrTableID      = errors.New("jpeg: invalid table id")
	ErrNoHuffTable  = errors.New("jpeg: missing huffman table")
	ErrNoQuantTable = errors.New("jpeg: missing quantization table")
	ErrBadCode      = errors.New("jpeg: invalid huffman code")
	ErrInvalidPass  = errors.New("jpeg: invalid progressive pass parameters")
	ErrSegmentOrder = errors.New("jpeg: segment out of order")
	ErrNoSegment    = errors.New("jpeg: missing required segment")
	ErrPassLimit    = errors.New("jpeg: too many progressive passes")
)

// MaxPasses bounds the number of progressive scans a single image may
// carry, guarding against pathological or adversarial bitstreams.
const MaxPasses = 100
