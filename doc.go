// Package jimage is the module root for a pair of pull-based, streaming
// image decoders: jpeg (baseline + progressive JFIF) and png (Adam7
// interlaced or not). Neither decoder writes images; both only read.
//
// The two codecs share a small common model, [imginfo.Info] and the
// reader lifecycle it documents, but are otherwise independent: import
// "github.com/Jpn666/jimage/jpeg" or "github.com/Jpn666/jimage/png"
// directly, the same way the standard library's image/jpeg and
// image/png are imported independently.
//
// Both packages register themselves with the standard library's image
// package on import, so image.Decode transparently recognizes JPEG and
// PNG files decoded through this module.
package jimage
