package fluid

import (
	"fmt"
	"image"

	"github.com/gogpu/fluid/gpucore"
	"github.com/gogpu/fluid/internal/textmask"
)

// textSplatChance is the probability that a white mask pixel launches
// a splat on activation.
const textSplatChance = 0.01

// SeedText renders text white on black at the dye resolution, copies it
// into the dye field and returns the mask for TextSplats. The mask is
// shared with later seeds of the same text and must not be modified.
func (s *Simulation) SeedText(text string) (*image.RGBA, error) {
	if !s.ready {
		return nil, ErrTargetUnavailable
	}
	mask, err := textmask.Cached(text, s.dye.Width(), s.dye.Height(), textmask.DefaultSize)
	if err != nil {
		return nil, fmt.Errorf("fluid: seed text: %w", err)
	}
	if err := s.SeedImage(mask); err != nil {
		return nil, err
	}
	return mask, nil
}

// SeedImage replaces the dye field with img, stretched to the dye
// resolution.
func (s *Simulation) SeedImage(img *image.RGBA) error {
	if !s.ready {
		return ErrTargetUnavailable
	}
	ctx := s.ctx
	b := img.Bounds()
	tex, err := ctx.CreateTexture(gpucore.TextureDescriptor{
		Label:  "seed",
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: gpucore.TextureFormatRGBA8Unorm,
		Filter: gpucore.FilterLinear,
	})
	if err != nil {
		return fmt.Errorf("fluid: seed texture: %w", err)
	}
	defer ctx.DestroyTexture(tex)
	if err := ctx.WriteTexture(tex, flipRows(img)); err != nil {
		return fmt.Errorf("fluid: seed texture: %w", err)
	}

	ctx.SetBlend(gpucore.BlendNone)
	p := s.passes.copy
	p.Bind()
	ctx.BindTexture(0, tex)
	p.SetInt("uTexture", 0)
	s.blit.Blit(s.dye.Write(), false)
	s.dye.Swap()
	return nil
}

// flipRows returns the pixels of img bottom row first.
func flipRows(img *image.RGBA) []byte {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]byte, w*h*4)
	for y := range h {
		src := img.Pix[(h-1-y)*img.Stride:]
		copy(out[y*w*4:(y+1)*w*4], src[:w*4])
	}
	return out
}

// TextSplats launches an upward burst from a random sample of the fully
// white pixels of mask and returns the number of splats.
func (s *Simulation) TextSplats(mask *image.RGBA) int {
	if mask == nil {
		return 0
	}
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()
	n := 0
	for y := range h {
		row := mask.Pix[y*mask.Stride:]
		for x := range w {
			px := row[x*4 : x*4+4]
			if px[0] != 255 || px[1] != 255 || px[2] != 255 || px[3] != 255 {
				continue
			}
			if s.rand.Float64() >= textSplatChance {
				continue
			}
			u := float32(x) / float32(w)
			v := 1 - float32(y)/float32(h)
			dx := (s.rand.Float32() - 0.5) * 2000
			dy := 800 + s.rand.Float32()*800
			s.Splat(u, v, dx, dy, generateColor(s.cfg.Colorful, s.rand))
			n++
		}
	}
	return n
}
