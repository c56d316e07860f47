package shader

import (
	"strings"

	"github.com/gogpu/fluid/gpucore"
)

// Uniform is a reflected uniform declaration.
type Uniform struct {
	Name string
	Type gpucore.UniformType
}

var glslTypes = map[string]gpucore.UniformType{
	"float":     gpucore.UniformFloat,
	"vec2":      gpucore.UniformVec2,
	"vec3":      gpucore.UniformVec3,
	"vec4":      gpucore.UniformVec4,
	"int":       gpucore.UniformInt,
	"sampler2D": gpucore.UniformSampler2D,
}

var glslPrecisions = map[string]bool{"lowp": true, "mediump": true, "highp": true}

// ReflectGLSL returns the uniforms declared at file scope of a
// preprocessed GLSL source, in declaration order. Declarations of
// unsupported types and uniform blocks are skipped.
func ReflectGLSL(source string) []Uniform {
	var uniforms []Uniform
	seen := make(map[string]bool)
	for _, line := range strings.Split(source, "\n") {
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "uniform ") || !strings.HasSuffix(line, ";") {
			continue
		}
		fields := strings.Fields(strings.TrimSuffix(strings.TrimPrefix(line, "uniform "), ";"))
		if len(fields) > 0 && glslPrecisions[fields[0]] {
			fields = fields[1:]
		}
		if len(fields) < 2 {
			continue
		}
		typ, ok := glslTypes[fields[0]]
		if !ok {
			continue
		}
		for _, name := range strings.Split(strings.Join(fields[1:], ""), ",") {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			uniforms = append(uniforms, Uniform{Name: name, Type: typ})
		}
	}
	return uniforms
}
