package jpeg

import "github.com/Jpn666/jimage/internal/jpeghuff"

// decodeHuffSymbol resolves one Huffman symbol from the bit reader,
// consuming exactly its code length.
func (d *Decoder) decodeHuffSymbol(t *jpeghuff.Table) (byte, error) {
	d.br.EnsureBits(16)
	res, ok := t.Decode(d.br.PeekBits(16))
	if !ok {
		return 0, ErrBadCode
	}
	d.br.DropBits(res.Length)
	return res.Symbol, nil
}

func (d *Decoder) receiveExtend(size uint) int32 {
	if size == 0 {
		return 0
	}
	d.br.EnsureBits(size)
	bits := int32(d.br.PeekBits(size))
	d.br.DropBits(size)
	return jpegbitsExtend(bits, size)
}

func jpegbitsExtend(bits int32, size uint) int32 {
	if size == 0 {
		return 0
	}
	vt := int32(1) << (size - 1)
	if bits < vt {
		return bits - (int32(1)<<size - 1)
	}
	return bits
}

// checkOverread fails a block (or scan) whose decode consumed zero-pad
// bits past the end of the entropy data: the stream was shorter than
// the code positions it claimed.
func (d *Decoder) checkOverread() error {
	if d.br.Overread() > 0 {
		if d.br.Failed() {
			if d.src.Err() != nil {
				return ErrIO
			}
			return ErrBadFile
		}
		return ErrBadData
	}
	return nil
}

// decodeBaselineBlock decodes one full (DC+AC) block for a baseline
// scan into zig-zag-ordered coefficients.
func (d *Decoder) decodeBaselineBlock(c *component, block *[64]int16) error {
	*block = [64]int16{}

	dcSym, err := d.decodeHuffSymbol(d.dcTables[c.td])
	if err != nil {
		return err
	}
	diff := d.receiveExtend(uint(dcSym))
	c.dcPred += diff
	block[0] = int16(c.dcPred)

	ac := d.acTables[c.ta]
	i := 1
	for i <= 63 {
		d.br.EnsureBits(16)
		peek := d.br.PeekBits(16)
		if v, run, total, ok := ac.SextentDecode(peek); ok {
			i += int(run)
			if i > 63 {
				return ErrBadData
			}
			block[i] = int16(v)
			d.br.DropBits(total)
			i++
			continue
		}
		res, ok := ac.Decode(peek)
		if !ok {
			return ErrBadCode
		}
		d.br.DropBits(res.Length)
		run := res.Symbol >> 4
		size := res.Symbol & 0x0f
		if size == 0 {
			if run == 15 {
				i += 16
				continue
			}
			break // EOB
		}
		i += int(run)
		if i > 63 {
			return ErrBadData
		}
		block[i] = int16(d.receiveExtend(uint(size)))
		i++
	}
	return d.checkOverread()
}

// decodeFirstDC implements the (Ss=0, Ah=0) progressive sub-decoder.
func (d *Decoder) decodeFirstDC(c *component, block *[64]int16) error {
	block[0] = 0
	dcSym, err := d.decodeHuffSymbol(d.dcTables[c.td])
	if err != nil {
		return err
	}
	c.dcPred += d.receiveExtend(uint(dcSym))
	block[0] = int16(c.dcPred << uint(d.al))
	return nil
}

// refineDC implements the (Ss=0, Ah!=0) progressive sub-decoder.
func (d *Decoder) refineDC(block *[64]int16) error {
	d.br.EnsureBits(1)
	bit := d.br.PeekBits(1)
	d.br.DropBits(1)
	block[0] |= int16(bit << uint(d.al))
	return nil
}

// decodeFirstAC implements the (Ss!=0, Ah=0) progressive sub-decoder.
func (d *Decoder) decodeFirstAC(c *component, block *[64]int16) error {
	if d.eobrun > 0 {
		d.eobrun--
		return nil
	}
	ac := d.acTables[c.ta]
	i := d.ss
	for i <= d.se {
		sym, err := d.decodeHuffSymbol(ac)
		if err != nil {
			return err
		}
		run := int(sym >> 4)
		size := sym & 0x0f
		if size == 0 {
			if run == 15 {
				i += 16
				continue
			}
			if run != 0 {
				d.br.EnsureBits(uint(run))
				d.eobrun = (1 << uint(run)) + int(d.br.PeekBits(uint(run))) - 1
				d.br.DropBits(uint(run))
				return nil
			}
			break
		}
		i += run
		if i >= 64 {
			return ErrBadData
		}
		block[i] = int16(d.receiveExtend(uint(size))) << uint(d.al)
		i++
	}
	d.eobrun = 0
	return nil
}

func refineCoefficient(al int, value int16, nextBit uint32) int16 {
	if value > 0 {
		if nextBit == 1 {
			return value + int16(1<<uint(al))
		}
		return value
	}
	if value < 0 {
		if nextBit == 1 {
			return value - int16(1<<uint(al))
		}
		return value
	}
	return value
}

// refineAC implements the (Ss!=0, Ah!=0) progressive sub-decoder.
func (d *Decoder) refineAC(c *component, block *[64]int16) error {
	ac := d.acTables[c.ta]
	i := d.ss

	if d.eobrun != 0 {
		for i <= d.se {
			if block[i] != 0 {
				d.br.EnsureBits(1)
				bit := d.br.PeekBits(1)
				d.br.DropBits(1)
				block[i] = refineCoefficient(d.al, block[i], bit)
			}
			i++
		}
		d.eobrun--
		return nil
	}

	for i <= d.se {
		sym, err := d.decodeHuffSymbol(ac)
		if err != nil {
			return err
		}
		run := int(sym >> 4)
		size := sym & 0x0f

		if size == 1 {
			d.br.EnsureBits(1)
			bit := d.br.PeekBits(1)
			d.br.DropBits(1)
			newVal := jpegbitsExtend(int32(bit), 1) << uint(d.al)
			for run > 0 || block[i] != 0 {
				if block[i] != 0 {
					d.br.EnsureBits(1)
					rb := d.br.PeekBits(1)
					d.br.DropBits(1)
					block[i] = refineCoefficient(d.al, block[i], rb)
				} else {
					run--
				}
				i++
				if i > 63 {
					return ErrBadData
				}
			}
			block[i] = int16(newVal)
			i++
			continue
		}

		if size != 0 {
			return ErrBadData
		}

		if run < 15 {
			d.br.EnsureBits(uint(run))
			eobrun := (1 << uint(run)) + int(d.br.PeekBits(uint(run)))
			d.br.DropBits(uint(run))
			for i <= d.se {
				if block[i] != 0 {
					d.br.EnsureBits(1)
					bit := d.br.PeekBits(1)
					d.br.DropBits(1)
					block[i] = refineCoefficient(d.al, block[i], bit)
				}
				i++
			}
			d.eobrun = eobrun - 1
			return nil
		}

		for run >= 0 {
			if block[i] != 0 {
				d.br.EnsureBits(1)
				bit := d.br.PeekBits(1)
				d.br.DropBits(1)
				block[i] = refineCoefficient(d.al, block[i], bit)
			} else {
				run--
			}
			i++
			if i > 63 {
				break
			}
		}
	}
	d.eobrun = 0
	return nil
}

// restart resets DC predictors and the EOB run, called when a restart
// marker (RST0-7) is consumed between MCU intervals.
func (d *Decoder) restart() {
	for i := 0; i < d.numComponents; i++ {
		d.components[i].dcPred = 0
	}
	d.eobrun = 0
	d.br.Reset()
}

// checkRestartMarker verifies the bit reader has stopped at a marker
// and consumes the pending RSTn marker through readMarker, which takes
// the marker the bit reader already cached before reading the source.
func (d *Decoder) checkRestartMarker() error {
	if d.br.Overread() > 0 && d.br.Failed() {
		return ErrBadData
	}
	m, err := d.readMarker()
	if err != nil {
		return err
	}
	if m < markerRST0 || m > markerRST7 {
		return ErrBadData
	}
	d.restart()
	return nil
}
