package opengl

import (
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/gogpu/fluid/gpucore"
)

// glFormat is the internal format, pixel format and component type of a
// texture format.
type glFormat struct {
	internal int32
	format   uint32
	xtype    uint32
}

var glFormats = map[gpucore.TextureFormat]glFormat{
	gpucore.TextureFormatRGBA8Unorm:  {gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE},
	gpucore.TextureFormatR16Float:    {gl.R16F, gl.RED, gl.HALF_FLOAT},
	gpucore.TextureFormatRG16Float:   {gl.RG16F, gl.RG, gl.HALF_FLOAT},
	gpucore.TextureFormatRGBA16Float: {gl.RGBA16F, gl.RGBA, gl.HALF_FLOAT},
	gpucore.TextureFormatR32Float:    {gl.R32F, gl.RED, gl.FLOAT},
	gpucore.TextureFormatRG32Float:   {gl.RG32F, gl.RG, gl.FLOAT},
	gpucore.TextureFormatRGBA32Float: {gl.RGBA32F, gl.RGBA, gl.FLOAT},
}

func filterParam(m gpucore.FilterMode) int32 {
	if m == gpucore.FilterLinear {
		return gl.LINEAR
	}
	return gl.NEAREST
}

func wrapParam(m gpucore.AddressMode) int32 {
	if m == gpucore.AddressRepeat {
		return gl.REPEAT
	}
	return gl.CLAMP_TO_EDGE
}

// uniformType maps a reflected GL type. Types the solver never declares
// report false.
func uniformType(xtype uint32) (gpucore.UniformType, bool) {
	switch xtype {
	case gl.FLOAT:
		return gpucore.UniformFloat, true
	case gl.FLOAT_VEC2:
		return gpucore.UniformVec2, true
	case gl.FLOAT_VEC3:
		return gpucore.UniformVec3, true
	case gl.FLOAT_VEC4:
		return gpucore.UniformVec4, true
	case gl.INT:
		return gpucore.UniformInt, true
	case gl.SAMPLER_2D:
		return gpucore.UniformSampler2D, true
	default:
		return 0, false
	}
}

// uniformName strips the "[0]" suffix GL reports for arrays.
func uniformName(name string) string {
	name, _, _ = strings.Cut(name, "[")
	return name
}

func blendFactors(mode gpucore.BlendMode) (src, dst uint32, enabled bool) {
	switch mode {
	case gpucore.BlendPremultiplied:
		return gl.ONE, gl.ONE_MINUS_SRC_ALPHA, true
	case gpucore.BlendAdditive:
		return gl.ONE, gl.ONE, true
	default:
		return gl.ONE, gl.ZERO, false
	}
}

func shaderType(stage gpucore.ShaderStage) uint32 {
	if stage == gpucore.ShaderStageFragment {
		return gl.FRAGMENT_SHADER
	}
	return gl.VERTEX_SHADER
}
