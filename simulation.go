package fluid

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/gogpu/fluid/gpucore"
)

// manualFiltering is the advection keyword for devices without linear
// filtering of float targets.
const manualFiltering = "MANUAL_FILTERING"

// Simulation owns the velocity, dye and pressure fields and advances them
// one frame at a time. It reads its Config on every call.
type Simulation struct {
	ctx     gpucore.Context
	cfg     *Config
	formats Formats
	blit    *Blitter
	passes  *passes
	rand    *rand.Rand

	velocity   *DoubleTarget
	dye        *DoubleTarget
	pressure   *DoubleTarget
	divergence *Target
	curl       *Target
	ready      bool
}

// NewSimulation negotiates formats, compiles every pass and allocates the
// fields at the resolutions of cfg for the current drawing buffer.
// Options other than WithRand and WithShaderLanguage are ignored.
func NewSimulation(ctx gpucore.Context, cfg *Config, opts ...Option) (*Simulation, error) {
	if ctx == nil {
		return nil, ErrNoContext
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	o := applyOptions(opts)

	formats, err := Negotiate(ctx)
	if err != nil {
		return nil, err
	}
	lang := ctx.ShaderLanguage()
	if o.language != nil {
		lang = *o.language
	}
	p, err := newPasses(ctx, lang)
	if err != nil {
		return nil, err
	}
	blit, err := NewBlitter(ctx)
	if err != nil {
		p.destroy()
		return nil, err
	}

	s := &Simulation{
		ctx:     ctx,
		cfg:     cfg,
		formats: formats,
		blit:    blit,
		passes:  p,
		rand:    o.rand,
	}
	if formats.LinearFiltering {
		p.advection.SetKeywords(nil)
	} else {
		p.advection.SetKeywords([]string{manualFiltering})
	}
	s.InitFramebuffers()
	return s, nil
}

// Formats returns the negotiated formats.
func (s *Simulation) Formats() Formats { return s.formats }

// Blitter returns the quad every pass is drawn with.
func (s *Simulation) Blitter() *Blitter { return s.blit }

// Velocity returns the velocity field.
func (s *Simulation) Velocity() *DoubleTarget { return s.velocity }

// Dye returns the dye field.
func (s *Simulation) Dye() *DoubleTarget { return s.dye }

// Pressure returns the pressure field.
func (s *Simulation) Pressure() *DoubleTarget { return s.pressure }

// Ready reports whether every field is allocated. Step and Splat do
// nothing until it is.
func (s *Simulation) Ready() bool { return s.ready }

func (s *Simulation) copier() Copier {
	return copyPass{program: s.passes.copy, blit: s.blit}
}

// InitFramebuffers (re)allocates the fields for the current drawing
// buffer size. Velocity and dye keep their contents across a resize;
// pressure, divergence and curl start blank.
func (s *Simulation) InitFramebuffers() {
	w, h := s.ctx.DrawingBufferSize()
	simW, simH := Resolution(s.cfg.SimResolution, w, h)
	dyeW, dyeH := Resolution(s.cfg.DyeResolution, w, h)
	filter := s.formats.Filter()

	var errs []error
	s.dye, errs = s.double(s.dye, dyeW, dyeH, s.formats.RGBA, filter, errs)
	s.velocity, errs = s.double(s.velocity, simW, simH, s.formats.RG, filter, errs)

	s.divergence.Destroy()
	s.curl.Destroy()
	s.pressure.Destroy()
	var err error
	if s.divergence, err = CreateTarget(s.ctx, simW, simH, s.formats.R, gpucore.FilterNearest); err != nil {
		errs = append(errs, fmt.Errorf("divergence: %w", err))
	}
	if s.curl, err = CreateTarget(s.ctx, simW, simH, s.formats.R, gpucore.FilterNearest); err != nil {
		errs = append(errs, fmt.Errorf("curl: %w", err))
	}
	if s.pressure, err = CreateDoubleTarget(s.ctx, simW, simH, s.formats.R, gpucore.FilterNearest); err != nil {
		errs = append(errs, fmt.Errorf("pressure: %w", err))
	}

	s.ready = len(errs) == 0
	if !s.ready {
		Logger().Warn("fluid: simulation framebuffers unavailable, skipping simulation", "error", errors.Join(errs...))
		return
	}
	Logger().Info("fluid: simulation framebuffers allocated",
		"sim", fmt.Sprintf("%dx%d", simW, simH), "dye", fmt.Sprintf("%dx%d", dyeW, dyeH))
}

// double creates d or resizes it to w×h, appending any error to errs.
// On failure the previous double target is kept.
func (s *Simulation) double(d *DoubleTarget, w, h int, format gpucore.TextureFormat, filter gpucore.FilterMode, errs []error) (*DoubleTarget, []error) {
	var next *DoubleTarget
	var err error
	if d == nil {
		next, err = CreateDoubleTarget(s.ctx, w, h, format, filter)
	} else {
		next, err = ResizeDoubleTarget(s.ctx, s.copier(), d, w, h)
	}
	if err != nil {
		return d, append(errs, err)
	}
	return next, errs
}

// Step advances the fields by dt seconds: vorticity confinement,
// pressure projection and advection of velocity and dye.
func (s *Simulation) Step(dt float32) {
	if !s.ready {
		return
	}
	ctx, p, blit := s.ctx, s.passes, s.blit
	vel := s.velocity
	ctx.SetBlend(gpucore.BlendNone)

	p.curl.Bind()
	p.curl.SetTexelSize(vel)
	p.curl.SetInt("uVelocity", vel.Read().Attach(0))
	blit.Blit(s.curl, false)

	p.vorticity.Bind()
	p.vorticity.SetTexelSize(vel)
	p.vorticity.SetInt("uVelocity", vel.Read().Attach(0))
	p.vorticity.SetInt("uCurl", s.curl.Attach(1))
	p.vorticity.SetFloat("curl", s.cfg.Curl)
	p.vorticity.SetFloat("dt", dt)
	blit.Blit(vel.Write(), false)
	vel.Swap()

	p.divergence.Bind()
	p.divergence.SetTexelSize(vel)
	p.divergence.SetInt("uVelocity", vel.Read().Attach(0))
	blit.Blit(s.divergence, false)

	p.clear.Bind()
	p.clear.SetInt("uTexture", s.pressure.Read().Attach(0))
	p.clear.SetFloat("value", s.cfg.Pressure)
	blit.Blit(s.pressure.Write(), false)
	s.pressure.Swap()

	p.pressure.Bind()
	p.pressure.SetTexelSize(vel)
	p.pressure.SetInt("uDivergence", s.divergence.Attach(0))
	for range s.cfg.PressureIterations {
		p.pressure.SetInt("uPressure", s.pressure.Read().Attach(1))
		blit.Blit(s.pressure.Write(), false)
		s.pressure.Swap()
	}

	p.gradientSubtract.Bind()
	p.gradientSubtract.SetTexelSize(vel)
	p.gradientSubtract.SetInt("uPressure", s.pressure.Read().Attach(0))
	p.gradientSubtract.SetInt("uVelocity", vel.Read().Attach(1))
	blit.Blit(vel.Write(), false)
	vel.Swap()

	adv := p.advection.Program()
	p.advection.Bind()
	adv.SetTexelSize(vel)
	manual := !s.formats.LinearFiltering
	if manual {
		adv.SetVec2("dyeTexelSize", vel.TexelSizeX(), vel.TexelSizeY())
	}
	unit := vel.Read().Attach(0)
	adv.SetInt("uVelocity", unit)
	adv.SetInt("uSource", unit)
	adv.SetFloat("dt", dt)
	adv.SetFloat("dissipation", s.cfg.VelocityDissipation)
	blit.Blit(vel.Write(), false)
	vel.Swap()

	if manual {
		adv.SetVec2("dyeTexelSize", s.dye.TexelSizeX(), s.dye.TexelSizeY())
	}
	adv.SetInt("uVelocity", vel.Read().Attach(0))
	adv.SetInt("uSource", s.dye.Read().Attach(1))
	adv.SetFloat("dissipation", s.cfg.DensityDissipation)
	blit.Blit(s.dye.Write(), false)
	s.dye.Swap()
}

// aspect returns the drawing buffer aspect ratio.
func (s *Simulation) aspect() float32 {
	w, h := s.ctx.DrawingBufferSize()
	if h == 0 {
		return 1
	}
	return float32(w) / float32(h)
}

// splatRadius returns the splat radius in texture space, widened on
// landscape canvases so splats stay round on screen.
func splatRadius(radius, aspect float32) float32 {
	r := radius / 100
	if aspect > 1 {
		r *= aspect
	}
	return r
}

// Splat injects an impulse (dx, dy) into velocity and color into dye
// around the texture-space point (x, y).
func (s *Simulation) Splat(x, y, dx, dy float32, color RGB) {
	if !s.ready {
		return
	}
	p := s.passes.splat
	aspect := s.aspect()
	s.ctx.SetBlend(gpucore.BlendNone)

	p.Bind()
	p.SetInt("uTarget", s.velocity.Read().Attach(0))
	p.SetFloat("aspectRatio", aspect)
	p.SetVec2("point", x, y)
	p.SetVec3("color", dx, dy, 0)
	p.SetFloat("radius", splatRadius(s.cfg.SplatRadius, aspect))
	s.blit.Blit(s.velocity.Write(), false)
	s.velocity.Swap()

	p.SetInt("uTarget", s.dye.Read().Attach(0))
	p.SetVec3("color", color.R, color.G, color.B)
	s.blit.Blit(s.dye.Write(), false)
	s.dye.Swap()
}

// SplatPointer splats the movement of p scaled by SplatForce.
func (s *Simulation) SplatPointer(p Pointer) {
	force := s.cfg.SplatForce
	s.Splat(p.TexX, p.TexY, p.DeltaX*force, p.DeltaY*force, p.Color)
}

// RandomSplats injects n splats at random points with random impulses
// and bright colors.
func (s *Simulation) RandomSplats(n int) {
	for range n {
		color := generateColor(s.cfg.Colorful, s.rand).Scale(10)
		x := s.rand.Float32()
		y := s.rand.Float32()
		dx := 1000 * (s.rand.Float32() - 0.5)
		dy := 1000 * (s.rand.Float32() - 0.5)
		s.Splat(x, y, dx, dy, color)
	}
}

// Destroy releases every field, program and buffer.
func (s *Simulation) Destroy() {
	s.velocity.Destroy()
	s.dye.Destroy()
	s.pressure.Destroy()
	s.divergence.Destroy()
	s.curl.Destroy()
	s.velocity, s.dye, s.pressure, s.divergence, s.curl = nil, nil, nil, nil, nil
	s.ready = false
	s.passes.destroy()
	s.blit.Destroy()
}
