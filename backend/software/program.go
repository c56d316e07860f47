package software

import (
	"fmt"

	"github.com/gogpu/fluid/gpucore"
	"github.com/gogpu/fluid/shader"
)

// shaderObject is a preprocessed GLSL stage and the CPU code that runs it.
type shaderObject struct {
	stage    gpucore.ShaderStage
	label    string
	defines  map[string]bool
	uniforms []shader.Uniform
	vertex   vertexStage
	kernel   kernelFactory
	err      error
}

func compileShader(stage gpucore.ShaderStage, label, source string) *shaderObject {
	s := &shaderObject{stage: stage, label: label}

	res, err := shader.Preprocess(source, shader.Options{})
	if err != nil {
		s.err = fmt.Errorf("software: compile %s %q: %w", stage, label, err)
		return s
	}
	s.defines = res.Defines
	s.uniforms = shader.ReflectGLSL(res.Source)

	switch stage {
	case gpucore.ShaderStageVertex:
		v, ok := vertexStages[label]
		if !ok {
			s.err = fmt.Errorf("%w: vertex %q", ErrNoKernel, label)
			return s
		}
		s.vertex = v
	default:
		k, ok := fragmentKernels[label]
		if !ok {
			s.err = fmt.Errorf("%w: fragment %q", ErrNoKernel, label)
			return s
		}
		s.kernel = k
	}
	return s
}

// program is a linked vertex+fragment pair with per-location uniform storage.
type program struct {
	label    string
	vs, fs   *shaderObject
	uniforms []gpucore.UniformInfo
	index    map[string]gpucore.UniformLocation
	values   []vec4
	linked   bool
}

func linkProgram(label string, vs, fs *shaderObject) (*program, error) {
	p := &program{label: label, vs: vs, fs: fs, index: make(map[string]gpucore.UniformLocation)}
	switch {
	case vs == nil || fs == nil:
		return p, fmt.Errorf("software: link %q: %w", label, ErrUnknownResource)
	case vs.stage != gpucore.ShaderStageVertex || fs.stage != gpucore.ShaderStageFragment:
		return p, fmt.Errorf("software: link %q: stage mismatch", label)
	case vs.err != nil:
		return p, fmt.Errorf("software: link %q: %w", label, vs.err)
	case fs.err != nil:
		return p, fmt.Errorf("software: link %q: %w", label, fs.err)
	}

	for _, stage := range []*shaderObject{vs, fs} {
		for _, u := range stage.uniforms {
			if _, ok := p.index[u.Name]; ok {
				continue
			}
			loc := gpucore.UniformLocation(len(p.uniforms))
			p.index[u.Name] = loc
			p.uniforms = append(p.uniforms, gpucore.UniformInfo{Name: u.Name, Type: u.Type, Location: loc})
		}
	}
	p.values = make([]vec4, len(p.uniforms))
	p.linked = true
	return p, nil
}

func (p *program) set(loc gpucore.UniformLocation, v vec4) {
	if p == nil || loc < 0 || int(loc) >= len(p.values) {
		return
	}
	p.values[loc] = v
}

// drawCall gives kernels access to the uniforms and samplers of one draw.
type drawCall struct {
	prog     *program
	units    []*texture
	noLinear bool
}

func (d *drawCall) value(name string) vec4 {
	loc, ok := d.prog.index[name]
	if !ok {
		return vec4{}
	}
	return d.prog.values[loc]
}

func (d *drawCall) float(name string) float32 { return d.value(name)[0] }

func (d *drawCall) vec2(name string) vec2 {
	v := d.value(name)
	return vec2{v[0], v[1]}
}

func (d *drawCall) vec3(name string) [3]float32 {
	v := d.value(name)
	return [3]float32{v[0], v[1], v[2]}
}

func (d *drawCall) vec4(name string) vec4 { return d.value(name) }

func (d *drawCall) defined(name string) bool { return d.prog.fs.defines[name] }

// texture returns a sampler for the texture unit stored in a sampler uniform.
func (d *drawCall) texture(name string) sampler {
	unit := int(d.value(name)[0])
	if unit < 0 || unit >= len(d.units) {
		return sampler{}
	}
	t := d.units[unit]
	if t == nil {
		return sampler{}
	}
	linear := t.filter == gpucore.FilterLinear
	if d.noLinear && t.format.IsFloat() {
		linear = false
	}
	return sampler{tex: t, linear: linear}
}

// varyings are the interpolated vertex outputs at one fragment.
type varyings struct {
	uv, l, r, t, b vec2
}

type vertexStage func(d *drawCall) func(pos vec2, v *varyings)

var vertexStages = map[string]vertexStage{
	"base": baseVertex,
	"blur": blurVertex,
}

func baseVertex(d *drawCall) func(pos vec2, v *varyings) {
	ts := d.vec2("texelSize")
	return func(pos vec2, v *varyings) {
		uv := vec2{pos[0]*0.5 + 0.5, pos[1]*0.5 + 0.5}
		v.uv = uv
		v.l = uv.sub(vec2{ts[0], 0})
		v.r = uv.add(vec2{ts[0], 0})
		v.t = uv.add(vec2{0, ts[1]})
		v.b = uv.sub(vec2{0, ts[1]})
	}
}

func blurVertex(d *drawCall) func(pos vec2, v *varyings) {
	off := d.vec2("texelSize").scale(1.33333333)
	return func(pos vec2, v *varyings) {
		uv := vec2{pos[0]*0.5 + 0.5, pos[1]*0.5 + 0.5}
		v.uv = uv
		v.l = uv.sub(off)
		v.r = uv.add(off)
	}
}
