package jpeg

import "encoding/binary"

const (
	markerSOI  = 0xd8
	markerEOI  = 0xd9
	markerSOF0 = 0xc0
	markerSOF1 = 0xc1
	markerSOF2 = 0xc2
	markerDHT  = 0xc4
	markerDQT  = 0xdb
	markerDRI  = 0xdd
	markerSOS  = 0xda
	markerCOM  = 0xfe
	markerAPP0 = 0xe0
	markerAPP2 = 0xe2
	markerRST0 = 0xd0
	markerRST7 = 0xd7
)

func (d *Decoder) readByte() (byte, error) {
	b, ok := d.src.ReadByte()
	if !ok {
		if d.src.Err() != nil {
			return 0, ErrIO
		}
		return 0, ErrBadFile
	}
	return b, nil
}

func (d *Decoder) readUint16() (uint16, error) {
	hi, err := d.readByte()
	if err != nil {
		return 0, err
	}
	lo, err := d.readByte()
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

func (d *Decoder) readBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	for i := range buf {
		b, err := d.readByte()
		if err != nil {
			return nil, err
		}
		buf[i] = b
	}
	return buf, nil
}

func (d *Decoder) skip(n int) error {
	for n > 0 {
		step := n
		if step > 256 {
			step = 256
		}
		if _, err := d.readBytes(step); err != nil {
			return err
		}
		n -= step
	}
	return nil
}

// readMarker scans forward to the next marker, collapsing runs of 0xFF
// fill bytes, and returns the marker byte that follows (without the
// leading 0xFF). Right after entropy decoding, the bit reader's
// lookahead has typically already consumed the marker looking for more
// bits to peek; in that case the cached marker is used instead of
// trying to re-read bytes the bit reader already took from the source.
func (d *Decoder) readMarker() (byte, error) {
	if d.br != nil && d.br.AtMarker() {
		return d.br.TakeMarker(), nil
	}
	b, err := d.readByte()
	if err != nil {
		return 0, err
	}
	if b != 0xff {
		return 0, ErrBadData
	}
	for {
		m, err := d.readByte()
		if err != nil {
			return 0, err
		}
		if m == 0xff {
			continue
		}
		return m, nil
	}
}

func (d *Decoder) readSOI() error {
	m, err := d.readMarker()
	if err != nil {
		return err
	}
	if m != markerSOI {
		return ErrBadFile
	}
	return nil
}

// parseOneSegment reads and dispatches exactly one marker segment,
// returning the marker seen (so callers can detect SOS/EOI).
func (d *Decoder) parseOneSegment() (byte, error) {
	m, err := d.readMarker()
	if err != nil {
		return 0, err
	}
	switch {
	case m == markerEOI:
		d.sawEOI = true
		return m, nil
	case m == markerSOF0 || m == markerSOF1 || m == markerSOF2:
		return m, d.parseSOF(m)
	case m == markerDQT:
		return m, d.parseDQT()
	case m == markerDHT:
		return m, d.parseDHT()
	case m == markerDRI:
		return m, d.parseDRI()
	case m == markerSOS:
		return m, d.parseSOS()
	case m == markerAPP0:
		return m, d.parseAPP0()
	case m == markerAPP2:
		return m, d.parseAPP2()
	case m == markerCOM:
		return m, d.skipSegment()
	case m >= 0xe0 && m <= 0xef:
		return m, d.skipSegment()
	case m >= markerRST0 && m <= markerRST7:
		// a stray restart marker outside entropy decoding: resync by
		// treating it as a zero-length no-op segment.
		return m, nil
	case m == 0x01:
		return m, nil
	case m == 0xc3 || m == 0xc5 || m == 0xc6 || m == 0xc7 ||
		(m >= 0xc9 && m <= 0xcf && m != markerDHT):
		// SOF3/5/6/7 (lossless/hierarchical) and SOF9+ (arithmetic
		// coded) are explicitly out of scope.
		return m, ErrNotSupported
	default:
		return m, d.skipSegment()
	}
}

func (d *Decoder) skipSegment() error {
	length, err := d.readUint16()
	if err != nil {
		return err
	}
	if length < 2 {
		return ErrBadData
	}
	return d.skip(int(length) - 2)
}

func (d *Decoder) parseAPP0() error {
	length, err := d.readUint16()
	if err != nil {
		return err
	}
	if length < 2 {
		return ErrBadData
	}
	body, err := d.readBytes(int(length) - 2)
	if err != nil {
		return err
	}
	if d.sawSOF {
		d.warn |= WarnSegmentOrder
	}
	if d.sawAPP0 {
		d.warn |= WarnSegmentOrder
	}
	d.sawAPP0 = true
	if len(body) < 5 {
		d.warn |= WarnBadSignature
		return nil
	}
	sig := string(body[0:4])
	if sig != "JFIF" && sig != "JFXX" {
		d.warn |= WarnBadSignature
		return nil
	}
	if len(body) >= 6 && body[5] != 1 {
		d.warn |= WarnBadVersion
	}
	if len(body) >= 12 {
		d.densityUnit = body[7]
		d.densityX = uint16(body[8])<<8 | uint16(body[9])
		d.densityY = uint16(body[10])<<8 | uint16(body[11])
	}
	return nil
}

const (
	iccHeaderMinSize = 128
	iccHeaderMaxSize = 0xfeef11

	// maxCoeffBytes caps the full-image coefficient storage a frame
	// header may demand, guarding against adversarial dimensions.
	maxCoeffBytes = 1 << 30
)

func (d *Decoder) parseAPP2() error {
	if d.flags&IgnoreICCP != 0 {
		return d.skipSegment()
	}
	length, err := d.readUint16()
	if err != nil {
		return err
	}
	if length < 2 {
		return ErrBadData
	}
	body, err := d.readBytes(int(length) - 2)
	if err != nil {
		return err
	}
	// ICC chunk layout: "ICC_PROFILE\0" (12 bytes) + seq (1) + total (1) + data.
	if len(body) < 14 || string(body[0:12]) != "ICC_PROFILE\x00" {
		return nil // not an ICC APP2, ignore
	}
	seq := int(body[12])
	total := int(body[13])
	data := body[14:]

	if seq == 1 {
		if len(data) < 128 || string(data[36:40]) != "acsp" {
			d.warn |= WarnBadICCP
			d.iccOK = false
			return nil
		}
		size := int(binary.BigEndian.Uint32(data[0:4]))
		if size < iccHeaderMinSize || size > iccHeaderMaxSize {
			d.warn |= WarnBadICCP
			d.iccOK = false
			return nil
		}
		d.iccSize = size
		d.iccTotal = total
		d.iccSeq = 1
		d.iccProfile = append([]byte(nil), data...)
		d.iccOK = true
		return nil
	}
	if !d.iccOK {
		return nil
	}
	if seq != d.iccSeq+1 || total != d.iccTotal {
		d.warn |= WarnBadICCP
		d.iccOK = false
		d.iccProfile = nil
		return nil
	}
	d.iccSeq = seq
	d.iccProfile = append(d.iccProfile, data...)
	return nil
}

func (d *Decoder) parseDQT() error {
	length, err := d.readUint16()
	if err != nil {
		return err
	}
	remaining := int(length) - 2
	defined := 0
	for remaining > 0 {
		pq, err := d.readByte()
		if err != nil {
			return err
		}
		remaining--
		precision := pq >> 4
		id := pq & 0x0f
		if id > 3 || precision > 1 {
			return ErrTableID
		}
		if defined&(1<<id) != 0 {
			return ErrBadData
		}
		defined |= 1 << id

		var vals [64]int16
		n := 64
		if precision == 1 {
			n = 128
		}
		raw, err := d.readBytes(n)
		if err != nil {
			return err
		}
		remaining -= n
		if precision == 0 {
			for i := 0; i < 64; i++ {
				vals[i] = int16(raw[i])
			}
		} else {
			for i := 0; i < 64; i++ {
				vals[i] = int16(uint16(raw[2*i])<<8 | uint16(raw[2*i+1]))
			}
		}
		d.quant[id].setFromZigZag(vals)
	}
	return nil
}

func (d *Decoder) parseDHT() error {
	length, err := d.readUint16()
	if err != nil {
		return err
	}
	remaining := int(length) - 2
	var defined int
	for remaining > 0 {
		tc, err := d.readByte()
		if err != nil {
			return err
		}
		remaining--
		class := tc >> 4 // 0 = DC, 1 = AC
		id := tc & 0x0f
		if id > 3 || class > 1 {
			return ErrTableID
		}
		key := int(class)<<2 | int(id)
		if defined&(1<<uint(key)) != 0 {
			return ErrBadData
		}
		defined |= 1 << uint(key)

		countBytes, err := d.readBytes(16)
		if err != nil {
			return err
		}
		remaining -= 16
		var counts [16]int
		total := 0
		for i, c := range countBytes {
			counts[i] = int(c)
			total += int(c)
		}
		symbols, err := d.readBytes(total)
		if err != nil {
			return err
		}
		remaining -= total

		tbl, err := buildHuffTable(counts, symbols, class == 1)
		if err != nil {
			return ErrBadHuffTable
		}
		if class == 0 {
			d.dcTables[id] = tbl
		} else {
			d.acTables[id] = tbl
		}
	}
	return nil
}

func (d *Decoder) parseDRI() error {
	length, err := d.readUint16()
	if err != nil {
		return err
	}
	if length != 4 {
		return ErrBadData
	}
	v, err := d.readUint16()
	if err != nil {
		return err
	}
	d.restartInterval = int(v)
	return nil
}

func (d *Decoder) parseSOF(marker byte) error {
	if d.sawSOF {
		return ErrSegmentOrder
	}
	if marker == markerSOF2 {
		d.progressive = true
	}
	length, err := d.readUint16()
	if err != nil {
		return err
	}
	_ = length
	precision, err := d.readByte()
	if err != nil {
		return err
	}
	if precision != 8 {
		return ErrNotSupported
	}
	h, err := d.readUint16()
	if err != nil {
		return err
	}
	w, err := d.readUint16()
	if err != nil {
		return err
	}
	nc, err := d.readByte()
	if err != nil {
		return err
	}
	if nc != 1 && nc != 3 {
		return ErrNotSupported
	}
	d.width = int(w)
	d.height = int(h)
	d.numComponents = int(nc)

	sumHV := 0
	rCount, gCount, bCount := 0, 0, 0
	for i := 0; i < int(nc); i++ {
		id, err := d.readByte()
		if err != nil {
			return err
		}
		hv, err := d.readByte()
		if err != nil {
			return err
		}
		tq, err := d.readByte()
		if err != nil {
			return err
		}
		hs := int(hv >> 4)
		vs := int(hv & 0x0f)
		if hs != 1 && hs != 2 && hs != 4 {
			return ErrInvalidImage
		}
		if vs != 1 && vs != 2 && vs != 4 {
			return ErrInvalidImage
		}
		if tq > 3 {
			return ErrTableID
		}
		sumHV += hs * vs
		d.components[i] = component{id: id, h: hs, v: vs, tq: int(tq)}
		switch id | 0x20 { // case-insensitive
		case 'r':
			rCount++
		case 'g':
			gCount++
		case 'b':
			bCount++
		}
	}
	if sumHV > 10 {
		return ErrInvalidImage
	}
	if nc == 3 && rCount == 1 && gCount == 1 && bCount == 1 {
		d.isRGB = true
	}
	if d.flags&KeepYCbCr != 0 {
		d.keepYCbCr = true
	}

	d.hmax, d.vmax = 1, 1
	for i := 0; i < d.numComponents; i++ {
		if d.components[i].h > d.hmax {
			d.hmax = d.components[i].h
		}
		if d.components[i].v > d.vmax {
			d.vmax = d.components[i].v
		}
	}
	mcuW := 8 * d.hmax
	mcuH := 8 * d.vmax
	d.mcusPerLine = (d.width + mcuW - 1) / mcuW
	d.mcusPerCol = (d.height + mcuH - 1) / mcuH

	coeffBytes := 0
	for i := 0; i < d.numComponents; i++ {
		c := &d.components[i]
		c.blocksPerLine = d.mcusPerLine * c.h
		c.blocksPerCol = d.mcusPerCol * c.v

		sampWidth := (d.width*c.h + d.hmax - 1) / d.hmax
		sampHeight := (d.height*c.v + d.vmax - 1) / d.vmax
		c.actualBlocksPerLine = (sampWidth + 7) / 8
		c.actualBlocksPerCol = (sampHeight + 7) / 8

		coeffBytes += c.blocksPerLine * c.blocksPerCol * 128
	}
	if coeffBytes > maxCoeffBytes {
		return ErrLimit
	}
	for i := 0; i < d.numComponents; i++ {
		d.components[i].reserve()
	}

	d.sawSOF = true
	return nil
}

func (d *Decoder) parseSOS() error {
	if !d.sawSOF {
		return ErrSegmentOrder
	}
	length, err := d.readUint16()
	if err != nil {
		return err
	}
	_ = length
	ns, err := d.readByte()
	if err != nil {
		return err
	}
	if ns < 1 || int(ns) > d.numComponents {
		return ErrBadData
	}
	d.scanComponents = d.scanComponents[:0]
	for i := 0; i < int(ns); i++ {
		cs, err := d.readByte()
		if err != nil {
			return err
		}
		tdta, err := d.readByte()
		if err != nil {
			return err
		}
		idx := -1
		for j := 0; j < d.numComponents; j++ {
			if d.components[j].id == cs {
				idx = j
				break
			}
		}
		if idx < 0 {
			return ErrBadData
		}
		td := int(tdta >> 4)
		ta := int(tdta & 0x0f)
		if td > 3 || ta > 3 {
			return ErrTableID
		}
		d.components[idx].td = td
		d.components[idx].ta = ta
		d.scanComponents = append(d.scanComponents, idx)
		d.scanned |= 1 << uint(idx)
	}
	ss, err := d.readByte()
	if err != nil {
		return err
	}
	se, err := d.readByte()
	if err != nil {
		return err
	}
	ahal, err := d.readByte()
	if err != nil {
		return err
	}
	d.ss = int(ss)
	d.se = int(se)
	d.ah = int(ahal >> 4)
	d.al = int(ahal & 0x0f)
	if d.ss > d.se || d.se > 63 || d.ah > 13 || d.al > 13 {
		return ErrInvalidPass
	}
	if d.progressive && d.ss != 0 && len(d.scanComponents) != 1 {
		return ErrInvalidPass
	}

	// A scan may only reference tables that exist by the time its SOS
	// arrives: DC and AC for baseline, DC for a first-DC pass, AC for
	// the spectral AC passes; a DC-refine pass reads raw bits only.
	needDC := !d.progressive || (d.ss == 0 && d.ah == 0)
	needAC := !d.progressive || d.ss != 0
	for _, ci := range d.scanComponents {
		c := &d.components[ci]
		if needDC && d.dcTables[c.td] == nil {
			return ErrNoHuffTable
		}
		if needAC && d.acTables[c.ta] == nil {
			return ErrNoHuffTable
		}
	}

	d.sawSOS = true
	d.br.Reset()
	return nil
}
