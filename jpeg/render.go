package jpeg

import "github.com/Jpn666/jimage/internal/jpegdsp"

type renderPlane struct {
	pix    []byte
	stride int
}

// Component planes exist only during rendering; kept off the component
// struct so coefficient storage and reconstructed samples stay clearly
// separate (coefficients persist across progressive passes, planes are
// rebuilt every render).
func (d *Decoder) render() error {
	if d.pixels == nil {
		return nil
	}
	planes := make([]renderPlane, d.numComponents)
	for i := 0; i < d.numComponents; i++ {
		planes[i] = d.renderComponentPlane(&d.components[i])
	}
	d.composePixels(planes)
	return nil
}

func (d *Decoder) renderComponentPlane(c *component) renderPlane {
	planeW := c.blocksPerLine * 8
	planeH := c.blocksPerCol * 8
	pix := make([]byte, planeW*planeH)

	var natural, samples [64]int16
	for row := 0; row < c.blocksPerCol; row++ {
		for col := 0; col < c.blocksPerLine; col++ {
			block := c.block(row, col)
			for i := 0; i < 64; i++ {
				natural[jpegdsp.ZigZag[i]] = block[i]
			}
			jpegdsp.InverseDCT(natural[:], samples[:], d.quant[c.tq].values[:])
			base := (row*8)*planeW + col*8
			for ry := 0; ry < 8; ry++ {
				off := base + ry*planeW
				for rx := 0; rx < 8; rx++ {
					pix[off+rx] = byte(samples[ry*8+rx])
				}
			}
		}
	}
	return renderPlane{pix: pix, stride: planeW}
}

// composePixels assembles final samples from each component's plane,
// nearest-neighbor upsampling subsampled chroma, and writes RGB/gray
// output (or raw YCbCr, if the caller asked to keep it) into d.pixels.
func (d *Decoder) composePixels(planes []renderPlane) {
	pelSize := d.info().PixelSize()

	if d.numComponents == 1 {
		d.setPixels1(planes[0], pelSize)
		return
	}

	subsampled := d.hmax != 1 || d.vmax != 1
	for i := 0; i < d.numComponents; i++ {
		if d.components[i].h != d.hmax || d.components[i].v != d.vmax {
			subsampled = true
		}
	}
	if !subsampled {
		d.setPixels3NoSubsample(planes, pelSize)
		return
	}
	d.setPixels3Subsample(planes, pelSize)
}

// setPixels1 is the grayscale fast path: the luma plane is the final
// image, row by row, eight samples at a time through SetRow1.
func (d *Decoder) setPixels1(p renderPlane, pelSize int) {
	var row [8]int16
	for y := 0; y < d.height; y++ {
		srcOff := y * p.stride
		dstOff := y * d.width * pelSize
		x := 0
		for ; x+8 <= d.width; x += 8 {
			for i := 0; i < 8; i++ {
				row[i] = int16(p.pix[srcOff+x+i])
			}
			jpegdsp.SetRow1(row[:], d.pixels[dstOff+x:dstOff+x+8])
		}
		for ; x < d.width; x++ {
			d.pixels[dstOff+x] = jpegdsp.ToGray(int16(p.pix[srcOff+x]))
		}
	}
}

// setPixels3NoSubsample handles the case where every component shares
// the image's full resolution: no up-sample indirection is needed, so
// planes are consumed directly, eight pixels at a time via SetRow3.
func (d *Decoder) setPixels3NoSubsample(planes []renderPlane, pelSize int) {
	keep := d.isRGB || d.keepYCbCr
	var yr, cbr, crr [8]int16
	var out [24]byte
	for row := 0; row < d.height; row++ {
		ySrc := row * planes[0].stride
		cbSrc := row * planes[1].stride
		crSrc := row * planes[2].stride
		dstOff := row * d.width * pelSize
		col := 0
		for ; col+8 <= d.width; col += 8 {
			for i := 0; i < 8; i++ {
				yr[i] = int16(planes[0].pix[ySrc+col+i])
				cbr[i] = int16(planes[1].pix[cbSrc+col+i])
				crr[i] = int16(planes[2].pix[crSrc+col+i])
			}
			jpegdsp.SetRow3(yr[:], cbr[:], crr[:], out[:], keep)
			o := dstOff + col*pelSize
			for i := 0; i < 8; i++ {
				d.pixels[o+i*pelSize+0] = out[i*3+0]
				d.pixels[o+i*pelSize+1] = out[i*3+1]
				d.pixels[o+i*pelSize+2] = out[i*3+2]
			}
		}
		for ; col < d.width; col++ {
			p := jpegdsp.ToRGB(int16(planes[0].pix[ySrc+col]), int16(planes[1].pix[cbSrc+col]), int16(planes[2].pix[crSrc+col]), keep)
			o := dstOff + col*pelSize
			d.pixels[o+0], d.pixels[o+1], d.pixels[o+2] = p.R, p.G, p.B
		}
	}
}

// setPixels3Subsample handles any non-4:4:4 sampling ratio: chroma
// source offsets are derived per-pixel (an up-sample map in {1,2,4}
// ratios collapses to integer division here since H/V factors are
// always in {1,2,4}) before the same per-pixel color transform.
func (d *Decoder) setPixels3Subsample(planes []renderPlane, pelSize int) {
	cb, cr := &d.components[1], &d.components[2]
	keep := d.isRGB || d.keepYCbCr
	for row := 0; row < d.height; row++ {
		ySrc := row * planes[0].stride
		cbSrc := (row * cb.v / d.vmax) * planes[1].stride
		crSrc := (row * cr.v / d.vmax) * planes[2].stride
		dstOff := row * d.width * pelSize
		for col := 0; col < d.width; col++ {
			yv := int16(planes[0].pix[ySrc+col])
			cbx := col * cb.h / d.hmax
			crx := col * cr.h / d.hmax
			cbv := int16(planes[1].pix[cbSrc+cbx])
			crv := int16(planes[2].pix[crSrc+crx])
			p := jpegdsp.ToRGB(yv, cbv, crv, keep)
			o := dstOff + col*pelSize
			d.pixels[o+0] = p.R
			d.pixels[o+1] = p.G
			d.pixels[o+2] = p.B
		}
	}
}
