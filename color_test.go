package fluid

import (
	"math/rand/v2"
	"testing"
)

func TestHSVToRGB(t *testing.T) {
	tests := []struct {
		h, s, v float32
		want    RGB
	}{
		{0, 1, 1, RGB{1, 0, 0}},
		{1.0 / 3, 1, 1, RGB{0, 1, 0}},
		{2.0 / 3, 1, 1, RGB{0, 0, 1}},
		{0.5, 1, 1, RGB{0, 1, 1}},
		{0, 0, 0.5, RGB{0.5, 0.5, 0.5}},
		{1, 1, 1, RGB{1, 0, 0}},
	}
	for _, tt := range tests {
		got := HSVToRGB(tt.h, tt.s, tt.v)
		if !approx(got.R, tt.want.R) || !approx(got.G, tt.want.G) || !approx(got.B, tt.want.B) {
			t.Errorf("HSVToRGB(%v, %v, %v) = %v, want %v", tt.h, tt.s, tt.v, got, tt.want)
		}
	}
}

func TestGenerateColor(t *testing.T) {
	rnd := rand.New(rand.NewPCG(1, 2))
	if got := generateColor(false, rnd); got != (RGB{1, 1, 1}) {
		t.Errorf("generateColor(false) = %v, want white", got)
	}
	for range 50 {
		c := generateColor(true, rnd)
		for _, v := range []float32{c.R, c.G, c.B} {
			if v < 0 || v > 0.15+1e-6 {
				t.Fatalf("generateColor(true) = %v, want components in [0, 0.15]", c)
			}
		}
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		value, lo, hi, want float32
	}{
		{0.5, 0, 1, 0.5},
		{1.25, 0, 1, 0.25},
		{3, 0, 1, 0},
		{7, 2, 4, 3},
		{5, 1, 1, 1},
	}
	for _, tt := range tests {
		if got := wrap(tt.value, tt.lo, tt.hi); !approx(got, tt.want) {
			t.Errorf("wrap(%v, %v, %v) = %v, want %v", tt.value, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestRGBNormalize(t *testing.T) {
	got := RGB{255, 0, 51}.normalize()
	if !approx(got.R, 1) || got.G != 0 || !approx(got.B, 0.2) {
		t.Errorf("normalize() = %v, want {1 0 0.2}", got)
	}
}
