package software

import (
	"math"

	"github.com/gogpu/fluid/gpucore"
)

type point [2]float64

// orient is twice the signed area of (a, b, p); positive when p lies to
// the left of a→b.
func orient(a, b, p point) float64 {
	return (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
}

// edgeValue evaluates orient with a canonical vertex order, so the two
// triangles sharing an edge get exactly opposite values at every pixel.
func edgeValue(a, b, p point) float64 {
	if b[1] < a[1] || (b[1] == a[1] && b[0] < a[0]) {
		return -orient(b, a, p)
	}
	return orient(a, b, p)
}

// owns applies the fill rule to a pixel center lying exactly on a→b.
func owns(e float64, a, b point) bool {
	if e != 0 {
		return e > 0
	}
	dx, dy := b[0]-a[0], b[1]-a[1]
	return dy < 0 || (dy == 0 && dx > 0)
}

func blend(mode gpucore.BlendMode, src, dst vec4) vec4 {
	switch mode {
	case gpucore.BlendPremultiplied:
		return src.add(dst.scale(1 - src[3]))
	case gpucore.BlendAdditive:
		return src.add(dst)
	default:
		return src
	}
}

// rasterize shades every pixel whose center is covered by the triangle
// given in normalized device coordinates. Row 0 is the bottom row.
func (c *Context) rasterize(dst *texture, vp viewport, ndc [3]vec2,
	vertex func(pos vec2, v *varyings), shade func(v *varyings) vec4) {
	var w [3]point
	for k, p := range ndc {
		w[k] = point{
			float64(vp.x) + (float64(p[0])+1)*0.5*float64(vp.width),
			float64(vp.y) + (float64(p[1])+1)*0.5*float64(vp.height),
		}
	}
	area := orient(w[0], w[1], w[2])
	if area == 0 || math.IsNaN(area) {
		return
	}
	if area < 0 {
		w[1], w[2] = w[2], w[1]
		ndc[1], ndc[2] = ndc[2], ndc[1]
		area = -area
	}

	minX := max(int(math.Floor(min(w[0][0], w[1][0], w[2][0]))), vp.x, 0)
	maxX := min(int(math.Ceil(max(w[0][0], w[1][0], w[2][0]))), vp.x+vp.width, dst.width)
	minY := max(int(math.Floor(min(w[0][1], w[1][1], w[2][1]))), vp.y, 0)
	maxY := min(int(math.Ceil(max(w[0][1], w[1][1], w[2][1]))), vp.y+vp.height, dst.height)
	if minX >= maxX || minY >= maxY {
		return
	}

	mode := c.blend
	c.pool.Rows(maxY-minY, 8, func(r0, r1 int) {
		var v varyings
		for py := minY + r0; py < minY+r1; py++ {
			cy := float64(py) + 0.5
			for px := minX; px < maxX; px++ {
				p := point{float64(px) + 0.5, cy}
				e0 := edgeValue(w[1], w[2], p)
				e1 := edgeValue(w[2], w[0], p)
				e2 := edgeValue(w[0], w[1], p)
				if !owns(e0, w[1], w[2]) || !owns(e1, w[2], w[0]) || !owns(e2, w[0], w[1]) {
					continue
				}
				l0, l1, l2 := float32(e0/area), float32(e1/area), float32(e2/area)
				pos := vec2{
					l0*ndc[0][0] + l1*ndc[1][0] + l2*ndc[2][0],
					l0*ndc[0][1] + l1*ndc[1][1] + l2*ndc[2][1],
				}
				vertex(pos, &v)
				out := shade(&v)
				if mode != gpucore.BlendNone {
					out = blend(mode, out, dst.texel(px, py))
				}
				dst.store(px, py, out)
			}
		}
	})
}
