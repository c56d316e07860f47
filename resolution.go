package fluid

import "github.com/chewxy/math32"

// Resolution returns the target size for a nominal resolution on a
// width×height canvas: the short side gets res texels and the long side
// is scaled by the aspect ratio.
func Resolution(res, width, height int) (w, h int) {
	aspect := float32(1)
	if width > 0 && height > 0 {
		aspect = float32(width) / float32(height)
	}
	if aspect < 1 {
		aspect = 1 / aspect
	}
	lo := int(math32.Round(float32(res)))
	hi := int(math32.Round(float32(res) * aspect))
	if width > height {
		return hi, lo
	}
	return lo, hi
}
