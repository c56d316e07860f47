package software

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/gogpu/fluid/gpucore"
)

func ramp() *texture {
	t := newTexture(gpucore.TextureDescriptor{Width: 4, Height: 1, Format: gpucore.TextureFormatR16Float})
	copy(t.data, []float32{0, 1, 2, 3})
	return t
}

func TestSampleNearest(t *testing.T) {
	s := sampler{tex: ramp()}
	tests := []struct {
		u    float32
		want float32
	}{
		{0.1, 0},
		{0.3, 1},
		{0.99, 3},
		{-5, 0},
		{7, 3},
	}
	for _, tt := range tests {
		if got := s.sample(vec2{tt.u, 0.5})[0]; got != tt.want {
			t.Errorf("sample(%v) = %v, want %v", tt.u, got, tt.want)
		}
	}
}

func TestSampleLinear(t *testing.T) {
	s := sampler{tex: ramp(), linear: true}
	tests := []struct {
		u    float32
		want float32
	}{
		{0.125, 0},
		{0.25, 0.5},
		{0.5, 1.5},
		{0.875, 3},
		{1.5, 3},
		{-0.25, 0},
	}
	for _, tt := range tests {
		got := s.sample(vec2{tt.u, 0.5})[0]
		if math32.Abs(got-tt.want) > 1e-5 {
			t.Errorf("sample(%v) = %v, want %v", tt.u, got, tt.want)
		}
	}
}

func TestSampleRepeat(t *testing.T) {
	tex := ramp()
	tex.address = gpucore.AddressRepeat
	s := sampler{tex: tex}
	tests := []struct {
		u    float32
		want float32
	}{
		{0.1, 0},
		{1.3, 1},
		{2.99, 3},
		{-0.1, 3},
	}
	for _, tt := range tests {
		if got := s.sample(vec2{tt.u, 0.5})[0]; got != tt.want {
			t.Errorf("sample(%v) = %v, want %v", tt.u, got, tt.want)
		}
	}
}

func TestSampleExpandsChannels(t *testing.T) {
	rg := newTexture(gpucore.TextureDescriptor{Width: 1, Height: 1, Format: gpucore.TextureFormatRG16Float})
	rg.store(0, 0, vec4{3, 4, 5, 6})
	if got, want := (sampler{tex: rg}).sample(vec2{0.5, 0.5}), (vec4{3, 4, 0, 1}); got != want {
		t.Errorf("RG sample = %v, want %v", got, want)
	}
	if got, want := (sampler{}).sample(vec2{0.5, 0.5}), (vec4{0, 0, 0, 1}); got != want {
		t.Errorf("unbound sample = %v, want %v", got, want)
	}
}

func TestBlend(t *testing.T) {
	src := vec4{0.5, 0, 0, 0.5}
	dst := vec4{1, 1, 1, 1}
	tests := []struct {
		mode gpucore.BlendMode
		want vec4
	}{
		{gpucore.BlendNone, vec4{0.5, 0, 0, 0.5}},
		{gpucore.BlendPremultiplied, vec4{1, 0.5, 0.5, 1}},
		{gpucore.BlendAdditive, vec4{1.5, 1, 1, 1.5}},
	}
	for _, tt := range tests {
		if got := blend(tt.mode, src, dst); got != tt.want {
			t.Errorf("blend(%d) = %v, want %v", tt.mode, got, tt.want)
		}
	}
}
