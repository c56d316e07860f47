package software

import "github.com/chewxy/math32"

type vec2 [2]float32

type vec4 [4]float32

func (a vec2) add(b vec2) vec2      { return vec2{a[0] + b[0], a[1] + b[1]} }
func (a vec2) sub(b vec2) vec2      { return vec2{a[0] - b[0], a[1] - b[1]} }
func (a vec2) mul(b vec2) vec2      { return vec2{a[0] * b[0], a[1] * b[1]} }
func (a vec2) scale(s float32) vec2 { return vec2{a[0] * s, a[1] * s} }
func (a vec2) dot(b vec2) float32   { return a[0]*b[0] + a[1]*b[1] }
func (a vec2) length() float32      { return math32.Sqrt(a.dot(a)) }

func (a vec4) add(b vec4) vec4 {
	return vec4{a[0] + b[0], a[1] + b[1], a[2] + b[2], a[3] + b[3]}
}

func (a vec4) scale(s float32) vec4 {
	return vec4{a[0] * s, a[1] * s, a[2] * s, a[3] * s}
}

func (a vec4) rgb() [3]float32 { return [3]float32{a[0], a[1], a[2]} }

func length3(c [3]float32) float32 {
	return math32.Sqrt(c[0]*c[0] + c[1]*c[1] + c[2]*c[2])
}

func mix4(a, b vec4, t float32) vec4 {
	return vec4{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
		a[3] + (b[3]-a[3])*t,
	}
}

func clamp(v, lo, hi float32) float32 {
	return math32.Min(math32.Max(v, lo), hi)
}

func fract(v float32) float32 { return v - math32.Floor(v) }

func max3(c [3]float32) float32 {
	return math32.Max(c[0], math32.Max(c[1], c[2]))
}
