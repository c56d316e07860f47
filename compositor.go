package fluid

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/gogpu/fluid/gpucore"
)

// ditherSize is the edge length of the dithering noise texture.
const ditherSize = 64

// Compositor draws the dye field to the drawing buffer or a target,
// with optional bloom and sunrays post-processing.
type Compositor struct {
	sim *Simulation
	cfg *Config

	bloom       *Target
	bloomLevels []*Target
	sunrays     *Target
	sunraysTemp *Target
	dithering   gpucore.TextureID
}

// NewCompositor creates the compositor for sim and allocates its
// post-processing targets.
func NewCompositor(sim *Simulation) (*Compositor, error) {
	dither, err := newDitheringTexture(sim.ctx)
	if err != nil {
		return nil, err
	}
	c := &Compositor{sim: sim, cfg: sim.cfg, dithering: dither}
	c.UpdateKeywords()
	c.InitFramebuffers()
	return c, nil
}

// newDitheringTexture uploads a tiling white noise texture. The noise is
// seeded with a constant so that captures are reproducible.
func newDitheringTexture(ctx gpucore.Context) (gpucore.TextureID, error) {
	tex, err := ctx.CreateTexture(gpucore.TextureDescriptor{
		Label:   "dithering",
		Width:   ditherSize,
		Height:  ditherSize,
		Format:  gpucore.TextureFormatRGBA8Unorm,
		Filter:  gpucore.FilterLinear,
		Address: gpucore.AddressRepeat,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("fluid: dithering texture: %w", err)
	}
	rnd := rand.New(rand.NewPCG(ditherSize, ditherSize))
	data := make([]byte, ditherSize*ditherSize*4)
	for i := 0; i < len(data); i += 4 {
		v := byte(rnd.IntN(256))
		data[i], data[i+1], data[i+2], data[i+3] = v, v, v, 255
	}
	if err := ctx.WriteTexture(tex, data); err != nil {
		ctx.DestroyTexture(tex)
		return gpucore.InvalidID, fmt.Errorf("fluid: dithering texture: %w", err)
	}
	return tex, nil
}

// UpdateKeywords selects the display variant for the current config.
func (c *Compositor) UpdateKeywords() {
	var keywords []string
	if c.cfg.Shading {
		keywords = append(keywords, "SHADING")
	}
	if c.cfg.Bloom {
		keywords = append(keywords, "BLOOM")
	}
	if c.cfg.Sunrays {
		keywords = append(keywords, "SUNRAYS")
	}
	c.sim.passes.display.SetKeywords(keywords)
}

// InitFramebuffers (re)allocates the bloom pyramid and the sunrays
// targets for the current drawing buffer size.
func (c *Compositor) InitFramebuffers() {
	c.destroyTargets()
	ctx := c.sim.ctx
	formats := c.sim.formats
	filter := formats.Filter()
	w, h := ctx.DrawingBufferSize()

	var errs []error
	bw, bh := Resolution(c.cfg.BloomResolution, w, h)
	bloom, err := CreateTarget(ctx, bw, bh, formats.RGBA, filter)
	if err != nil {
		errs = append(errs, fmt.Errorf("bloom: %w", err))
	} else {
		c.bloom = bloom
		for i := range c.cfg.BloomIterations {
			lw, lh := bw>>(i+1), bh>>(i+1)
			if lw < 2 || lh < 2 {
				break
			}
			level, err := CreateTarget(ctx, lw, lh, formats.RGBA, filter)
			if err != nil {
				errs = append(errs, fmt.Errorf("bloom level %d: %w", i, err))
				break
			}
			c.bloomLevels = append(c.bloomLevels, level)
		}
	}

	sw, sh := Resolution(c.cfg.SunraysResolution, w, h)
	if c.sunrays, err = CreateTarget(ctx, sw, sh, formats.R, filter); err != nil {
		errs = append(errs, fmt.Errorf("sunrays: %w", err))
	}
	if c.sunraysTemp, err = CreateTarget(ctx, sw, sh, formats.R, filter); err != nil {
		errs = append(errs, fmt.Errorf("sunrays: %w", err))
	}

	if len(errs) > 0 {
		Logger().Warn("fluid: post-processing framebuffers unavailable", "error", errors.Join(errs...))
	}
}

// Render draws the current frame into target, or into the drawing buffer
// when target is nil. The drawing buffer is cleared to transparent black
// first.
func (c *Compositor) Render(target *Target) {
	sim := c.sim
	if !sim.ready {
		return
	}
	ctx := sim.ctx
	cfg := c.cfg

	if cfg.Bloom {
		c.applyBloom(sim.dye.Read(), c.bloom)
	}
	if cfg.Sunrays && c.sunrays != nil && c.sunraysTemp != nil {
		c.applySunrays(sim.dye.Read(), sim.dye.Write(), c.sunrays)
		c.blur(c.sunrays, c.sunraysTemp, 1)
	}

	if target == nil {
		// The drawing buffer keeps the previous frame.
		ctx.BindFramebuffer(gpucore.InvalidID)
		ctx.Clear(gpucore.Color{})
	}
	if target == nil || !cfg.Transparent {
		ctx.SetBlend(gpucore.BlendPremultiplied)
	} else {
		ctx.SetBlend(gpucore.BlendNone)
	}
	if !cfg.Transparent {
		c.drawColor(target, cfg.BackColor.normalize())
	}
	if target == nil && cfg.Transparent {
		c.drawCheckerboard(target)
	}
	c.drawDisplay(target)
}

func (c *Compositor) drawColor(target *Target, color RGB) {
	p := c.sim.passes.color
	p.Bind()
	p.SetVec4("color", color.R, color.G, color.B, 0)
	c.sim.blit.Blit(target, false)
}

func (c *Compositor) drawCheckerboard(target *Target) {
	p := c.sim.passes.checkerboard
	p.Bind()
	p.SetFloat("aspectRatio", c.sim.aspect())
	c.sim.blit.Blit(target, false)
}

func (c *Compositor) drawDisplay(target *Target) {
	sim := c.sim
	w, h := sim.ctx.DrawingBufferSize()
	if target != nil {
		w, h = target.width, target.height
	}

	m := sim.passes.display
	m.Bind()
	p := m.Program()
	if c.cfg.Shading {
		p.SetVec2("texelSize", 1/float32(w), 1/float32(h))
	}
	p.SetInt("uTexture", sim.dye.Read().Attach(0))
	if c.cfg.Bloom && c.bloom != nil {
		p.SetInt("uBloom", c.bloom.Attach(1))
		sim.ctx.BindTexture(2, c.dithering)
		p.SetInt("uDithering", 2)
		p.SetVec2("ditherScale", float32(w)/ditherSize, float32(h)/ditherSize)
	}
	if c.cfg.Sunrays && c.sunrays != nil {
		p.SetInt("uSunrays", c.sunrays.Attach(3))
	}
	sim.blit.Blit(target, false)
}

// applyBloom extracts the bright parts of source, blurs them down and
// back up the pyramid and writes the result to dst.
func (c *Compositor) applyBloom(source, dst *Target) {
	if dst == nil || len(c.bloomLevels) < 2 {
		return
	}
	sim := c.sim
	ctx, p, blit := sim.ctx, sim.passes, sim.blit
	cfg := c.cfg
	last := dst

	ctx.SetBlend(gpucore.BlendNone)
	p.bloomPrefilter.Bind()
	knee := cfg.BloomThreshold*cfg.BloomSoftKnee + 0.0001
	p.bloomPrefilter.SetVec3("curve", cfg.BloomThreshold-knee, knee*2, 0.25/knee)
	p.bloomPrefilter.SetFloat("threshold", cfg.BloomThreshold)
	p.bloomPrefilter.SetInt("uTexture", source.Attach(0))
	blit.Blit(last, false)

	p.bloomBlur.Bind()
	for _, level := range c.bloomLevels {
		p.bloomBlur.SetTexelSize(last)
		p.bloomBlur.SetInt("uTexture", last.Attach(0))
		blit.Blit(level, false)
		last = level
	}

	ctx.SetBlend(gpucore.BlendAdditive)
	for i := len(c.bloomLevels) - 2; i >= 0; i-- {
		base := c.bloomLevels[i]
		p.bloomBlur.SetTexelSize(last)
		p.bloomBlur.SetInt("uTexture", last.Attach(0))
		blit.Blit(base, false)
		last = base
	}

	ctx.SetBlend(gpucore.BlendNone)
	p.bloomFinal.Bind()
	p.bloomFinal.SetTexelSize(last)
	p.bloomFinal.SetInt("uTexture", last.Attach(0))
	p.bloomFinal.SetFloat("intensity", cfg.BloomIntensity)
	blit.Blit(dst, false)
}

// applySunrays renders the occlusion mask of source into mask and the
// radial light scattering of that mask into dst.
func (c *Compositor) applySunrays(source, mask, dst *Target) {
	sim := c.sim
	p, blit := sim.passes, sim.blit

	sim.ctx.SetBlend(gpucore.BlendNone)
	p.sunraysMask.Bind()
	p.sunraysMask.SetInt("uTexture", source.Attach(0))
	blit.Blit(mask, false)

	p.sunrays.Bind()
	p.sunrays.SetFloat("weight", c.cfg.SunraysWeight)
	p.sunrays.SetInt("uTexture", mask.Attach(0))
	blit.Blit(dst, false)
}

// blur applies a separable blur to target, using temp for the
// horizontal pass.
func (c *Compositor) blur(target, temp *Target, iterations int) {
	p, blit := c.sim.passes.blur, c.sim.blit
	p.Bind()
	for range iterations {
		p.SetVec2("texelSize", target.TexelSizeX(), 0)
		p.SetInt("uTexture", target.Attach(0))
		blit.Blit(temp, false)

		p.SetVec2("texelSize", 0, target.TexelSizeY())
		p.SetInt("uTexture", temp.Attach(0))
		blit.Blit(target, false)
	}
}

func (c *Compositor) destroyTargets() {
	c.bloom.Destroy()
	for _, level := range c.bloomLevels {
		level.Destroy()
	}
	c.sunrays.Destroy()
	c.sunraysTemp.Destroy()
	c.bloom, c.bloomLevels, c.sunrays, c.sunraysTemp = nil, nil, nil, nil
}

// Destroy releases the post-processing targets and the dithering texture.
func (c *Compositor) Destroy() {
	c.destroyTargets()
	if c.dithering != gpucore.InvalidID {
		c.sim.ctx.DestroyTexture(c.dithering)
		c.dithering = gpucore.InvalidID
	}
}
