package jpeg

import "github.com/Jpn666/jimage/imginfo"

func (d *Decoder) checkQuantTables() error {
	for i := 0; i < d.numComponents; i++ {
		if !d.quant[d.components[i].tq].defined {
			return ErrNoQuantTable
		}
	}
	return nil
}

// continueToNextScan parses segments following the entropy data just
// decoded, stopping at the next SOS (another pass follows) or EOI.
func (d *Decoder) continueToNextScan() (more bool, err error) {
	for {
		m, err := d.parseOneSegment()
		if err != nil {
			return false, err
		}
		if m == markerEOI {
			return false, nil
		}
		if m == markerSOS {
			return true, nil
		}
	}
}

// DecodeImage decodes the whole image (baseline: one scan, possibly
// per-component for non-interleaved multi-scan files; progressive:
// every pass) and renders final pixels into the bound buffer.
func (d *Decoder) DecodeImage() error {
	if d.state != imginfo.Ready {
		return d.abort(ErrIncorrectUse)
	}
	d.state = imginfo.Decoding

	if d.progressive {
		for {
			if d.npass == 0 {
				if err := d.checkQuantTables(); err != nil {
					return d.abort(err)
				}
			}
			if err := d.decodeScan(); err != nil {
				return d.abort(err)
			}
			more, err := d.continueToNextScan()
			if err != nil {
				// A stream cut between passes still renders from every
				// coefficient bit received so far.
				if err == ErrBadFile {
					d.warn |= WarnTruncated
					more = false
				} else {
					return d.abort(err)
				}
			}
			d.npass++
			if d.npass > MaxPasses {
				return d.abort(ErrPassLimit)
			}
			if !more {
				break
			}
		}
		if err := d.render(); err != nil {
			return d.abort(err)
		}
		d.finish()
		return nil
	}

	if err := d.checkQuantTables(); err != nil {
		return d.abort(err)
	}

	completed := 0
	allSingle := true
	for {
		if err := d.decodeScan(); err != nil {
			if err == ErrBadFile && completed >= 1 && allSingle {
				break // premature EOF after at least one whole component scan
			}
			return d.abort(err)
		}
		completed++
		if len(d.scanComponents) > 1 {
			allSingle = false
		}
		more, err := d.continueToNextScan()
		if err != nil {
			if err == ErrBadFile && allSingle {
				more = false
			} else {
				return d.abort(err)
			}
		}
		if !more {
			break
		}
	}
	if d.sawEOI {
		// A cleanly terminated multi-scan file must have sent every
		// component in some scan.
		for i := 0; i < d.numComponents; i++ {
			if d.scanned&(1<<uint(i)) == 0 {
				return d.abort(ErrNoSegment)
			}
		}
	} else {
		d.warn |= WarnTruncated
	}
	if err := d.render(); err != nil {
		return d.abort(err)
	}
	d.finish()
	return nil
}

func (d *Decoder) finish() {
	if d.warn != 0 {
		d.state = imginfo.DecodedWithWarnings
	} else {
		d.state = imginfo.Decoded
	}
}

// DecodePass decodes exactly one progressive scan and returns the pass
// number just completed, or 0 once the image is fully decoded (or on
// error, in which case err is non-nil). If update is true the partial
// image is rendered into the pixel buffer before returning.
func (d *Decoder) DecodePass(update bool) (int, error) {
	if d.state == imginfo.Decoded || d.state == imginfo.DecodedWithWarnings {
		return 0, nil // past the final pass
	}
	if d.state != imginfo.Ready && d.state != imginfo.Decoding {
		return 0, d.abort(ErrIncorrectUse)
	}
	d.state = imginfo.Decoding

	if d.npass == 0 {
		if err := d.checkQuantTables(); err != nil {
			return 0, d.abort(err)
		}
	}
	if err := d.decodeScan(); err != nil {
		return 0, d.abort(err)
	}
	if update {
		if err := d.render(); err != nil {
			return 0, d.abort(err)
		}
	}

	more, err := d.continueToNextScan()
	if err != nil {
		if err == ErrBadFile {
			d.warn |= WarnTruncated
			more = false
		} else {
			return 0, d.abort(err)
		}
	}
	if !more {
		if err := d.render(); err != nil {
			return 0, d.abort(err)
		}
		d.finish()
		return 0, nil
	}

	d.npass++
	if d.npass > MaxPasses {
		return 0, d.abort(ErrPassLimit)
	}
	return d.npass, nil
}

// UpdateImage re-renders the image from whatever coefficients have been
// decoded so far; meaningful only for progressive images mid-decode.
func (d *Decoder) UpdateImage() error {
	if !d.progressive {
		return nil
	}
	if d.state != imginfo.Decoding && d.state != imginfo.Decoded && d.state != imginfo.DecodedWithWarnings {
		return d.abort(ErrIncorrectUse)
	}
	return d.render()
}
