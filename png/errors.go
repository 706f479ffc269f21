package png

import "errors"

// Flags toggle optional decoder behavior.
type Flags uint32

const (
	// IgnoreICCP skips assembling the iCCP chunk's profile bytes.
	IgnoreICCP Flags = 1 << iota
	// NoCRCCheck disables CRC-32 verification of chunk data.
	NoCRCCheck
)

// Warning is a bitmask of non-fatal problems found in ancillary chunks.
// A decode that only accumulates warnings still reaches Decoded (or
// DecodedWithWarnings once any bit is set).
type Warning uint32

const (
	WarnBadGAMA Warning = 1 << iota
	WarnBadSBIT
	WarnBadICCP
	WarnBadPHYS
	WarnBadSRGB
	WarnBadCHRM
)

// Chunk identifies an optional chunk that was present and successfully
// parsed, for Decoder.HasChunk.
type Chunk uint32

const (
	ChunkTRNS Chunk = 1 << iota
	ChunkBKGD
	ChunkSBIT
	ChunkGAMA
	ChunkSRGB
	ChunkICCP
	ChunkCHRM
	ChunkPHYS
)

// Fatal errors.
var (
	ErrIncorrectUse    = errors.New("png: incorrect decoder use")
	ErrIO              = errors.New("png: io error")
	ErrBadState        = errors.New("png: decoder is in an unusable state")
	ErrInvalidImage    = errors.New("png: not a PNG image")
	ErrLimit           = errors.New("png: chunk or image exceeds size limit")
	ErrBadData         = errors.New("png: malformed chunk data")
	ErrBadFile         = errors.New("png: malformed file structure")
	ErrDeflate         = errors.New("png: compressed data stream is corrupt")
	ErrBadCRC          = errors.New("png: chunk crc32 mismatch")
	ErrMissingChunk    = errors.New("png: required chunk is missing")
	ErrDuplicatedChunk = errors.New("png: duplicated chunk")
	ErrChunkOrder      = errors.New("png: chunk appears out of order")
)
