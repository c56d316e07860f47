package fluid

import (
	"github.com/gogpu/fluid/gpucore"
	"github.com/gogpu/fluid/shader"
)

// CompileShader compiles one stage of source with a "#define" line per
// keyword. Failures are logged with the compiler output; the returned
// shader is still usable as a link input and yields a program that
// draws nothing.
func CompileShader(ctx gpucore.Context, stage gpucore.ShaderStage, label, source string, keywords []string) gpucore.ShaderID {
	id, err := ctx.CompileShader(stage, label, shader.InjectKeywords(source, keywords))
	if err != nil {
		Logger().Warn("fluid: shader compile failed",
			"label", label, "stage", stage.String(), "keywords", keywords, "error", err)
	}
	return id
}

// Program is a linked GPU program and its uniform location table.
type Program struct {
	ctx      gpucore.Context
	label    string
	id       gpucore.ProgramID
	uniforms map[string]gpucore.UniformLocation
}

// LinkProgram links vs and fs and reflects the active uniforms. A link
// failure is logged and the returned program draws nothing.
func LinkProgram(ctx gpucore.Context, label string, vs, fs gpucore.ShaderID) *Program {
	id, err := ctx.LinkProgram(label, vs, fs)
	if err != nil {
		Logger().Warn("fluid: program link failed", "label", label, "error", err)
	}
	p := &Program{
		ctx:      ctx,
		label:    label,
		id:       id,
		uniforms: make(map[string]gpucore.UniformLocation),
	}
	if err == nil {
		for _, u := range ctx.ActiveUniforms(id) {
			p.uniforms[u.Name] = u.Location
		}
	}
	return p
}

// Label returns the debug label.
func (p *Program) Label() string { return p.label }

// Bind makes p the current program.
func (p *Program) Bind() { p.ctx.UseProgram(p.id) }

// Uniform returns the location of name, or NoLocation when the program
// does not use it.
func (p *Program) Uniform(name string) gpucore.UniformLocation {
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	return gpucore.NoLocation
}

// Uniforms returns a copy of the name to location table.
func (p *Program) Uniforms() map[string]gpucore.UniformLocation {
	out := make(map[string]gpucore.UniformLocation, len(p.uniforms))
	for k, v := range p.uniforms {
		out[k] = v
	}
	return out
}

// The setters below apply to the current program, so p must be bound.

// SetInt sets an int or sampler uniform.
func (p *Program) SetInt(name string, v int) {
	p.ctx.Uniform1i(p.Uniform(name), int32(v))
}

// SetFloat sets a float uniform.
func (p *Program) SetFloat(name string, x float32) {
	p.ctx.Uniform1f(p.Uniform(name), x)
}

// SetVec2 sets a vec2 uniform.
func (p *Program) SetVec2(name string, x, y float32) {
	p.ctx.Uniform2f(p.Uniform(name), x, y)
}

// SetVec3 sets a vec3 uniform.
func (p *Program) SetVec3(name string, x, y, z float32) {
	p.ctx.Uniform3f(p.Uniform(name), x, y, z)
}

// SetVec4 sets a vec4 uniform.
func (p *Program) SetVec4(name string, x, y, z, w float32) {
	p.ctx.Uniform4f(p.Uniform(name), x, y, z, w)
}

// texelSized is implemented by Target and DoubleTarget.
type texelSized interface {
	TexelSizeX() float32
	TexelSizeY() float32
}

// SetTexelSize sets the texelSize uniform from t.
func (p *Program) SetTexelSize(t texelSized) {
	p.SetVec2("texelSize", t.TexelSizeX(), t.TexelSizeY())
}

// Destroy releases the GPU program. The shaders it was linked from are
// owned by the caller.
func (p *Program) Destroy() {
	if p == nil || p.ctx == nil {
		return
	}
	p.ctx.DestroyProgram(p.id)
	p.ctx = nil
}
