package fluid

import (
	"fmt"

	"github.com/gogpu/fluid/gpucore"
	"github.com/gogpu/fluid/internal/shaders"
)

// passes holds every program the simulation and compositor draw with.
type passes struct {
	ctx     gpucore.Context
	base    gpucore.ShaderID
	blurVS  gpucore.ShaderID
	shaders []gpucore.ShaderID

	copy             *Program
	clear            *Program
	color            *Program
	checkerboard     *Program
	splat            *Program
	divergence       *Program
	curl             *Program
	vorticity        *Program
	pressure         *Program
	gradientSubtract *Program
	bloomPrefilter   *Program
	bloomBlur        *Program
	bloomFinal       *Program
	sunraysMask      *Program
	sunrays          *Program
	blur             *Program

	advection *Material
	display   *Material
}

// newPasses compiles the vertex stages and links every program from the
// sources for lang. Only a missing source is an error; compile and link
// failures are logged by CompileShader and LinkProgram.
func newPasses(ctx gpucore.Context, lang gpucore.ShaderLanguage) (*passes, error) {
	p := &passes{ctx: ctx}

	vertex := func(name string) (gpucore.ShaderID, error) {
		src, err := shaders.Vertex(lang, name)
		if err != nil {
			return gpucore.InvalidID, err
		}
		return CompileShader(ctx, gpucore.ShaderStageVertex, name, src, nil), nil
	}
	var err error
	if p.base, err = vertex(shaders.BaseVertex); err != nil {
		return nil, fmt.Errorf("fluid: %w", err)
	}
	if p.blurVS, err = vertex(shaders.BlurVertex); err != nil {
		ctx.DestroyShader(p.base)
		return nil, fmt.Errorf("fluid: %w", err)
	}

	programs := []struct {
		dst  **Program
		name string
		vs   gpucore.ShaderID
	}{
		{&p.copy, shaders.Copy, p.base},
		{&p.clear, shaders.Clear, p.base},
		{&p.color, shaders.Color, p.base},
		{&p.checkerboard, shaders.Checkerboard, p.base},
		{&p.splat, shaders.Splat, p.base},
		{&p.divergence, shaders.Divergence, p.base},
		{&p.curl, shaders.Curl, p.base},
		{&p.vorticity, shaders.Vorticity, p.base},
		{&p.pressure, shaders.Pressure, p.base},
		{&p.gradientSubtract, shaders.GradientSubtract, p.base},
		{&p.bloomPrefilter, shaders.BloomPrefilter, p.base},
		{&p.bloomBlur, shaders.BloomBlur, p.base},
		{&p.bloomFinal, shaders.BloomFinal, p.base},
		{&p.sunraysMask, shaders.SunraysMask, p.base},
		{&p.sunrays, shaders.Sunrays, p.base},
		{&p.blur, shaders.Blur, p.blurVS},
	}
	for _, def := range programs {
		src, err := shaders.Fragment(lang, def.name)
		if err != nil {
			p.destroy()
			return nil, fmt.Errorf("fluid: %w", err)
		}
		fs := CompileShader(ctx, gpucore.ShaderStageFragment, def.name, src, nil)
		p.shaders = append(p.shaders, fs)
		*def.dst = LinkProgram(ctx, def.name, def.vs, fs)
	}

	materials := []struct {
		dst  **Material
		name string
	}{
		{&p.advection, shaders.Advection},
		{&p.display, shaders.Display},
	}
	for _, def := range materials {
		src, err := shaders.Fragment(lang, def.name)
		if err != nil {
			p.destroy()
			return nil, fmt.Errorf("fluid: %w", err)
		}
		*def.dst = NewMaterial(ctx, def.name, p.base, src)
	}
	return p, nil
}

func (p *passes) destroy() {
	all := []*Program{
		p.copy, p.clear, p.color, p.checkerboard, p.splat, p.divergence,
		p.curl, p.vorticity, p.pressure, p.gradientSubtract, p.bloomPrefilter,
		p.bloomBlur, p.bloomFinal, p.sunraysMask, p.sunrays, p.blur,
	}
	for _, prog := range all {
		prog.Destroy()
	}
	for _, m := range []*Material{p.advection, p.display} {
		if m != nil {
			m.Destroy()
		}
	}
	for _, fs := range p.shaders {
		p.ctx.DestroyShader(fs)
	}
	p.shaders = nil
	p.ctx.DestroyShader(p.base)
	p.ctx.DestroyShader(p.blurVS)
}
