package software

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/fluid/gpucore"
)

// texture stores texels as float32 channels, row 0 at the bottom.
type texture struct {
	label    string
	width    int
	height   int
	format   gpucore.TextureFormat
	filter   gpucore.FilterMode
	address  gpucore.AddressMode
	channels int
	data     []float32
}

func newTexture(desc gpucore.TextureDescriptor) *texture {
	ch := desc.Format.Channels()
	return &texture{
		label:    desc.Label,
		width:    desc.Width,
		height:   desc.Height,
		format:   desc.Format,
		filter:   desc.Filter,
		address:  desc.Address,
		channels: ch,
		data:     make([]float32, desc.Width*desc.Height*ch),
	}
}

// texel returns the value at (x, y) expanded to RGBA the way a GPU
// expands narrow formats: missing color channels read 0, alpha reads 1.
func (t *texture) texel(x, y int) vec4 {
	i := (y*t.width + x) * t.channels
	switch t.channels {
	case 1:
		return vec4{t.data[i], 0, 0, 1}
	case 2:
		return vec4{t.data[i], t.data[i+1], 0, 1}
	default:
		return vec4{t.data[i], t.data[i+1], t.data[i+2], t.data[i+3]}
	}
}

func (t *texture) store(x, y int, c vec4) {
	i := (y*t.width + x) * t.channels
	if t.format == gpucore.TextureFormatRGBA8Unorm {
		for k := range c {
			c[k] = math32.Round(clamp(c[k], 0, 1)*255) / 255
		}
	}
	copy(t.data[i:i+t.channels], c[:t.channels])
}

func (t *texture) fill(c vec4) {
	for y := range t.height {
		for x := range t.width {
			t.store(x, y, c)
		}
	}
}

// sampler reads a bound texture with the texture's address mode.
type sampler struct {
	tex    *texture
	linear bool
}

func (s sampler) sample(uv vec2) vec4 {
	t := s.tex
	if t == nil {
		return vec4{0, 0, 0, 1}
	}
	wrap := clampInt
	if t.address == gpucore.AddressRepeat {
		wrap = repeatInt
	}
	if !s.linear {
		x := wrap(int(math32.Floor(uv[0]*float32(t.width))), t.width)
		y := wrap(int(math32.Floor(uv[1]*float32(t.height))), t.height)
		return t.texel(x, y)
	}

	fx := uv[0]*float32(t.width) - 0.5
	fy := uv[1]*float32(t.height) - 0.5
	x0f, y0f := math32.Floor(fx), math32.Floor(fy)
	tx, ty := fx-x0f, fy-y0f
	x0, y0 := int(x0f), int(y0f)

	xa, xb := wrap(x0, t.width), wrap(x0+1, t.width)
	ya, yb := wrap(y0, t.height), wrap(y0+1, t.height)

	a := t.texel(xa, ya)
	b := t.texel(xb, ya)
	c := t.texel(xa, yb)
	d := t.texel(xb, yb)
	return mix4(mix4(a, b, tx), mix4(c, d, tx), ty)
}

func clampInt(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

func repeatInt(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
