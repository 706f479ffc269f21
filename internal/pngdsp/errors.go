package pngdsp

import "errors"

var errBadFilter = errors.New("pngdsp: unknown filter type")

// ErrBadFilter is returned by Unfilter for a filter byte outside 0-4.
var ErrBadFilter = errBadFilter
