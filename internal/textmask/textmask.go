// Package textmask renders a line of text into a white-on-black RGBA mask.
//
// The mask seeds the dye field: its white pixels become dye and, on
// activation, the start points of splats. Text is shaped with HarfBuzz
// (go-text/typesetting), split into bidi runs (x/text), and the glyph
// outlines of the Go Bold font are rasterized with x/image/vector.
package textmask

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
	"golang.org/x/text/unicode/bidi"

	"github.com/gogpu/fluid/internal/cache"
)

// ErrInvalidSize is returned for non-positive image or font sizes.
var ErrInvalidSize = errors.New("textmask: invalid size")

// DefaultSize is the em size in pixels used for the dye text.
const DefaultSize = 200

// face bundles the two parsed views of the embedded font: go-text for
// shaping and sfnt for outlines. Both index glyphs identically.
type face struct {
	shaping *font.Font
	outline *sfnt.Font
}

var loadFace = sync.OnceValues(func() (*face, error) {
	f, err := font.ParseTTF(bytes.NewReader(gobold.TTF))
	if err != nil {
		return nil, fmt.Errorf("textmask: parse font: %w", err)
	}
	o, err := sfnt.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("textmask: parse outlines: %w", err)
	}
	return &face{shaping: f.Font, outline: o}, nil
})

// maskKey identifies one rendered mask.
type maskKey struct {
	text          string
	width, height int
	size          float64
}

// masks holds recently rendered masks. Reseeding the same text at the
// same dye resolution skips shaping and rasterization.
var masks = cache.New[maskKey, *image.RGBA](8)

// Cached is Render backed by a small LRU cache. The returned image is
// shared between callers and must not be modified.
func Cached(text string, width, height int, size float64) (*image.RGBA, error) {
	key := maskKey{text: text, width: width, height: height, size: size}
	if img, ok := masks.Get(key); ok {
		return img, nil
	}
	img, err := Render(text, width, height, size)
	if err != nil {
		return nil, err
	}
	masks.Set(key, img)
	return img, nil
}

// CacheStats reports the mask cache counters.
func CacheStats() cache.Stats {
	return masks.Stats()
}

// glyph is a shaped glyph positioned on the line, in pixels.
type glyph struct {
	gid  sfnt.GlyphIndex
	x, y float32
}

// Render draws text centered in a width×height image, white on opaque
// black, with an em size of size pixels. Rows are ordered top to bottom.
// Empty text yields a black image.
func Render(text string, width, height int, size float64) (*image.RGBA, error) {
	if width <= 0 || height <= 0 || size <= 0 {
		return nil, fmt.Errorf("%w: %dx%d at %v px", ErrInvalidSize, width, height, size)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	if text == "" {
		return img, nil
	}

	f, err := loadFace()
	if err != nil {
		return nil, err
	}
	ppem := fixed.Int26_6(size * 64)
	glyphs, advance := layout(f, []rune(text), ppem)

	var buf sfnt.Buffer
	metrics, err := f.outline.Metrics(&buf, ppem, 0)
	if err != nil {
		return nil, fmt.Errorf("textmask: metrics: %w", err)
	}
	originX := (float32(width) - advance) / 2
	baseline := float32(height)/2 + fixedToFloat(metrics.Ascent-metrics.Descent)/2

	r := vector.NewRasterizer(width, height)
	for _, g := range glyphs {
		segments, err := f.outline.LoadGlyph(&buf, g.gid, ppem, nil)
		if err != nil {
			return nil, fmt.Errorf("textmask: glyph %d: %w", g.gid, err)
		}
		addSegments(r, segments, originX+g.x, baseline-g.y)
	}
	r.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{})
	return img, nil
}

// layout shapes every bidi run and places the runs left to right in
// visual order. It returns the glyphs and the total advance.
func layout(f *face, runes []rune, ppem fixed.Int26_6) ([]glyph, float32) {
	var (
		shaper shaping.HarfbuzzShaper
		out    []glyph
		pen    float32
	)
	for _, run := range runs(runes) {
		output := shaper.Shape(shaping.Input{
			Text:      runes,
			RunStart:  run.start,
			RunEnd:    run.end,
			Direction: run.dir,
			Face:      font.NewFace(f.shaping),
			Size:      ppem,
			Script:    script(runes[run.start:run.end]),
			Language:  language.NewLanguage("en"),
		})
		for _, g := range output.Glyphs {
			out = append(out, glyph{
				gid: sfnt.GlyphIndex(g.GlyphID),
				x:   pen + fixedToFloat(g.XOffset),
				y:   fixedToFloat(g.YOffset),
			})
			pen += fixedToFloat(g.Advance)
		}
	}
	return out, pen
}

type run struct {
	start, end int
	dir        di.Direction
}

// runs splits runes into directional runs in visual order.
func runs(runes []rune) []run {
	var p bidi.Paragraph
	if _, err := p.SetString(string(runes), bidi.DefaultDirection(bidi.LeftToRight)); err != nil {
		return []run{{0, len(runes), di.DirectionLTR}}
	}
	ordering, err := p.Order()
	if err != nil {
		return []run{{0, len(runes), di.DirectionLTR}}
	}
	out := make([]run, 0, ordering.NumRuns())
	for i := range ordering.NumRuns() {
		r := ordering.Run(i)
		start, end := r.Pos()
		dir := di.DirectionLTR
		if r.Direction() == bidi.RightToLeft {
			dir = di.DirectionRTL
		}
		out = append(out, run{start: start, end: end + 1, dir: dir})
	}
	return out
}

// script returns the script of the first letter, Latin for none.
func script(runes []rune) language.Script {
	for _, r := range runes {
		s := language.LookupScript(r)
		if s != language.Common && s != language.Inherited && s != language.Unknown {
			return s
		}
	}
	return language.Latin
}

// addSegments adds a glyph outline with its origin at (x, y); sfnt
// outlines already use a y-down pixel space.
func addSegments(r *vector.Rasterizer, segments sfnt.Segments, x, y float32) {
	pt := func(p fixed.Point26_6) (float32, float32) {
		return x + fixedToFloat(p.X), y + fixedToFloat(p.Y)
	}
	for _, s := range segments {
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			r.ClosePath()
			r.MoveTo(pt(s.Args[0]))
		case sfnt.SegmentOpLineTo:
			r.LineTo(pt(s.Args[0]))
		case sfnt.SegmentOpQuadTo:
			bx, by := pt(s.Args[0])
			cx, cy := pt(s.Args[1])
			r.QuadTo(bx, by, cx, cy)
		case sfnt.SegmentOpCubeTo:
			bx, by := pt(s.Args[0])
			cx, cy := pt(s.Args[1])
			dx, dy := pt(s.Args[2])
			r.CubeTo(bx, by, cx, cy, dx, dy)
		}
	}
	r.ClosePath()
}

func fixedToFloat(v fixed.Int26_6) float32 {
	return float32(v) / 64
}
