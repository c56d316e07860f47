package opengl

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/gogpu/fluid/gpucore"
)

// positionAttrib is the vertex attribute every vertex stage reads.
const positionAttrib = "aPosition"

type shaderObject struct {
	name  uint32
	stage gpucore.ShaderStage
	label string
	err   error
}

func compileShader(stage gpucore.ShaderStage, label, source string) *shaderObject {
	s := &shaderObject{stage: stage, label: label, name: gl.CreateShader(shaderType(stage))}
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(s.name, 1, csources, nil)
	free()
	gl.CompileShader(s.name)

	var status int32
	gl.GetShaderiv(s.name, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		s.err = fmt.Errorf("opengl: compile %s %q: %s", stage, label, shaderLog(s.name))
	}
	return s
}

func shaderLog(name uint32) string {
	var n int32
	gl.GetShaderiv(name, gl.INFO_LOG_LENGTH, &n)
	if n == 0 {
		return "no info log"
	}
	buf := strings.Repeat("\x00", int(n+1))
	gl.GetShaderInfoLog(name, n, nil, gl.Str(buf))
	return strings.TrimRight(buf, "\x00\n")
}

func programLog(name uint32) string {
	var n int32
	gl.GetProgramiv(name, gl.INFO_LOG_LENGTH, &n)
	if n == 0 {
		return "no info log"
	}
	buf := strings.Repeat("\x00", int(n+1))
	gl.GetProgramInfoLog(name, n, nil, gl.Str(buf))
	return strings.TrimRight(buf, "\x00\n")
}

type program struct {
	name     uint32
	label    string
	linked   bool
	uniforms []gpucore.UniformInfo
}

func linkProgram(label string, vs, fs *shaderObject) (*program, error) {
	p := &program{label: label}
	switch {
	case vs == nil || fs == nil:
		return p, fmt.Errorf("opengl: link %q: %w", label, ErrUnknownResource)
	case vs.stage != gpucore.ShaderStageVertex || fs.stage != gpucore.ShaderStageFragment:
		return p, fmt.Errorf("opengl: link %q: stage mismatch", label)
	}

	p.name = gl.CreateProgram()
	gl.AttachShader(p.name, vs.name)
	gl.AttachShader(p.name, fs.name)
	gl.BindAttribLocation(p.name, 0, gl.Str(positionAttrib+"\x00"))
	gl.LinkProgram(p.name)
	gl.DetachShader(p.name, vs.name)
	gl.DetachShader(p.name, fs.name)

	var status int32
	gl.GetProgramiv(p.name, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		return p, fmt.Errorf("opengl: link %q: %s", label, programLog(p.name))
	}
	p.linked = true
	p.reflect()
	return p, nil
}

// reflect records the active uniforms and their GL locations.
func (p *program) reflect() {
	var count, maxLen int32
	gl.GetProgramiv(p.name, gl.ACTIVE_UNIFORMS, &count)
	gl.GetProgramiv(p.name, gl.ACTIVE_UNIFORM_MAX_LENGTH, &maxLen)
	buf := make([]uint8, maxLen+1)
	for i := range uint32(count) {
		var length, size int32
		var xtype uint32
		gl.GetActiveUniform(p.name, i, int32(len(buf)), &length, &size, &xtype, &buf[0])
		typ, ok := uniformType(xtype)
		if !ok {
			slogger().Debug("opengl: unsupported uniform type", "program", p.label, "type", xtype)
			continue
		}
		name := string(buf[:length])
		loc := gl.GetUniformLocation(p.name, gl.Str(name+"\x00"))
		p.uniforms = append(p.uniforms, gpucore.UniformInfo{
			Name:     uniformName(name),
			Type:     typ,
			Location: gpucore.UniformLocation(loc),
		})
	}
}
