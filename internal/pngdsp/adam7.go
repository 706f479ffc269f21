package pngdsp

// Adam7Pass describes one of the seven interlacing passes: the pixel
// grid is sampled starting at (OriginX, OriginY) and then every StepX
// columns / StepY rows.
type Adam7Pass struct {
	OriginX, OriginY int
	StepX, StepY     int
}

var Adam7Passes = [7]Adam7Pass{
	{0, 0, 8, 8},
	{4, 0, 8, 8},
	{0, 4, 4, 8},
	{2, 0, 4, 4},
	{0, 2, 2, 4},
	{1, 0, 2, 2},
	{0, 1, 1, 2},
}

// Dimensions returns the reduced-image width/height visible in this
// pass given the full image size; either may be zero if the pass
// contributes no pixels (e.g. a one-pixel-wide image's odd passes).
func (p Adam7Pass) Dimensions(width, height int) (int, int) {
	w := 0
	if width > p.OriginX {
		w = (width - p.OriginX + p.StepX - 1) / p.StepX
	}
	h := 0
	if height > p.OriginY {
		h = (height - p.OriginY + p.StepY - 1) / p.StepY
	}
	return w, h
}
