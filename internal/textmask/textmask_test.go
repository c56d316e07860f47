package textmask

import (
	"errors"
	"image/color"
	"testing"

	"github.com/go-text/typesetting/di"
)

func TestRender(t *testing.T) {
	img, err := Render("fluid", 400, 200, 100)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := img.Bounds().Dx(); got != 400 {
		t.Errorf("width = %d, want 400", got)
	}

	white := color.RGBA{255, 255, 255, 255}
	var count, sumX int
	for y := range 200 {
		for x := range 400 {
			if img.RGBAAt(x, y) == white {
				count++
				sumX += x
			}
		}
	}
	if count == 0 {
		t.Fatal("Render() produced no fully white pixels")
	}
	if cx := sumX / count; cx < 150 || cx > 250 {
		t.Errorf("text centroid x = %d, want near 200", cx)
	}
	for _, p := range [][2]int{{0, 0}, {399, 0}, {0, 199}, {399, 199}} {
		if got := img.RGBAAt(p[0], p[1]); got != (color.RGBA{0, 0, 0, 255}) {
			t.Errorf("corner %v = %v, want opaque black", p, got)
		}
	}
}

func TestRenderEmpty(t *testing.T) {
	img, err := Render("", 8, 8, DefaultSize)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 || img.Pix[i+3] != 255 {
			t.Fatalf("pixel %d = %v, want opaque black", i/4, img.Pix[i:i+4])
		}
	}
}

func TestRenderInvalidSize(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		size          float64
	}{
		{"zero width", 0, 10, 10},
		{"negative height", 10, -1, 10},
		{"zero font", 10, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Render("x", tt.width, tt.height, tt.size); !errors.Is(err, ErrInvalidSize) {
				t.Errorf("Render() error = %v, want ErrInvalidSize", err)
			}
		})
	}
}

func TestRuns(t *testing.T) {
	tests := []struct {
		text string
		want []di.Direction
	}{
		{"fluid", []di.Direction{di.DirectionLTR}},
		{"abc אבג", []di.Direction{di.DirectionLTR, di.DirectionRTL}},
	}
	for _, tt := range tests {
		got := runs([]rune(tt.text))
		if len(got) != len(tt.want) {
			t.Fatalf("runs(%q) = %d runs, want %d", tt.text, len(got), len(tt.want))
		}
		for i, r := range got {
			if r.dir != tt.want[i] {
				t.Errorf("runs(%q)[%d].dir = %v, want %v", tt.text, i, r.dir, tt.want[i])
			}
		}
	}
}

func TestLayoutAdvances(t *testing.T) {
	f, err := loadFace()
	if err != nil {
		t.Fatal(err)
	}
	glyphs, advance := layout(f, []rune("ab"), 64*64)
	if len(glyphs) != 2 {
		t.Fatalf("layout() = %d glyphs, want 2", len(glyphs))
	}
	if glyphs[1].x <= glyphs[0].x {
		t.Errorf("second glyph x = %v, want > %v", glyphs[1].x, glyphs[0].x)
	}
	if advance <= glyphs[1].x {
		t.Errorf("advance = %v, want > %v", advance, glyphs[1].x)
	}
}

func TestCached(t *testing.T) {
	before := CacheStats()
	a, err := Cached("cache", 64, 32, 20)
	if err != nil {
		t.Fatalf("Cached() error = %v", err)
	}
	b, err := Cached("cache", 64, 32, 20)
	if err != nil {
		t.Fatalf("Cached() error = %v", err)
	}
	if a != b {
		t.Error("Cached() returned a new image for the same key")
	}
	c, err := Cached("cache", 32, 32, 20)
	if err != nil {
		t.Fatalf("Cached() error = %v", err)
	}
	if c == a {
		t.Error("Cached() shared an image across sizes")
	}
	after := CacheStats()
	if got := after.Hits - before.Hits; got != 1 {
		t.Errorf("CacheStats() hits delta = %d, want 1", got)
	}
	if _, err := Cached("cache", 0, 32, 20); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("Cached() error = %v, want ErrInvalidSize", err)
	}
}
