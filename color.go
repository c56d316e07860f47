package fluid

import (
	"math/rand/v2"

	"github.com/chewxy/math32"
)

// HSVToRGB converts hue, saturation and value in [0, 1] to RGB.
func HSVToRGB(h, s, v float32) RGB {
	i := math32.Floor(h * 6)
	f := h*6 - i
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	switch int(i) % 6 {
	case 0:
		return RGB{v, t, p}
	case 1:
		return RGB{q, v, p}
	case 2:
		return RGB{p, v, t}
	case 3:
		return RGB{p, q, v}
	case 4:
		return RGB{t, p, v}
	default:
		return RGB{v, p, q}
	}
}

// generateColor returns the color of a new splat: a dim random hue when
// colorful, plain white otherwise.
func generateColor(colorful bool, rnd *rand.Rand) RGB {
	if !colorful {
		return RGB{1, 1, 1}
	}
	c := HSVToRGB(rnd.Float32(), 1, 1)
	return c.Scale(0.15)
}

// Scale multiplies every component by s.
func (c RGB) Scale(s float32) RGB {
	return RGB{c.R * s, c.G * s, c.B * s}
}

// normalize maps 0-255 components to [0, 1].
func (c RGB) normalize() RGB {
	return c.Scale(1.0 / 255)
}

// wrap maps value into [lo, hi). Like the remainder operator it keeps
// the sign of value - lo, so callers pass values at or above lo.
func wrap(value, lo, hi float32) float32 {
	r := hi - lo
	if r == 0 {
		return lo
	}
	return math32.Mod(value-lo, r) + lo
}
