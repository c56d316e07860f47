// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpucore

import "fmt"

// Resource IDs
//
// These opaque IDs represent GPU resources. Each backend context
// maintains a mapping between IDs and actual backend resources.
// IDs are uint64 to accommodate various backend handle sizes.

// TextureID is an opaque handle to a GPU texture.
type TextureID uint64

// FramebufferID is an opaque handle to a framebuffer with a single color
// attachment. The zero value addresses the drawing buffer.
type FramebufferID uint64

// ShaderID is an opaque handle to a compiled shader stage.
type ShaderID uint64

// ProgramID is an opaque handle to a linked vertex+fragment program.
type ProgramID uint64

// BufferID is an opaque handle to a vertex or index buffer.
type BufferID uint64

// InvalidID is the zero value, representing an invalid/null resource.
// For framebuffers it selects the drawing buffer.
const InvalidID = 0

// TextureFormat specifies the format of texture data.
type TextureFormat uint32

// Texture formats.
const (
	// TextureFormatUndefined marks an unsupported or unset format.
	TextureFormatUndefined TextureFormat = iota

	// TextureFormatRGBA8Unorm is 8-bit RGBA, normalized unsigned integer.
	// Used for uploaded images (text seed, dithering noise).
	TextureFormatRGBA8Unorm

	// TextureFormatR16Float is a single 16-bit float channel.
	TextureFormatR16Float

	// TextureFormatRG16Float is two 16-bit float channels.
	TextureFormatRG16Float

	// TextureFormatRGBA16Float is four 16-bit float channels.
	TextureFormatRGBA16Float

	// TextureFormatR32Float is a single 32-bit float channel.
	TextureFormatR32Float

	// TextureFormatRG32Float is two 32-bit float channels.
	TextureFormatRG32Float

	// TextureFormatRGBA32Float is four 32-bit float channels.
	TextureFormatRGBA32Float
)

// Channels returns the number of color channels stored by the format.
func (f TextureFormat) Channels() int {
	switch f {
	case TextureFormatR16Float, TextureFormatR32Float:
		return 1
	case TextureFormatRG16Float, TextureFormatRG32Float:
		return 2
	case TextureFormatRGBA8Unorm, TextureFormatRGBA16Float, TextureFormatRGBA32Float:
		return 4
	default:
		return 0
	}
}

// BytesPerPixel returns the storage size of one texel.
func (f TextureFormat) BytesPerPixel() int {
	switch f {
	case TextureFormatRGBA8Unorm:
		return 4
	case TextureFormatR16Float:
		return 2
	case TextureFormatRG16Float:
		return 4
	case TextureFormatRGBA16Float:
		return 8
	case TextureFormatR32Float:
		return 4
	case TextureFormatRG32Float:
		return 8
	case TextureFormatRGBA32Float:
		return 16
	default:
		return 0
	}
}

// IsFloat reports whether the format stores floating-point channels.
func (f TextureFormat) IsFloat() bool {
	return f >= TextureFormatR16Float && f <= TextureFormatRGBA32Float
}

// String returns the format name.
func (f TextureFormat) String() string {
	switch f {
	case TextureFormatUndefined:
		return "Undefined"
	case TextureFormatRGBA8Unorm:
		return "RGBA8Unorm"
	case TextureFormatR16Float:
		return "R16Float"
	case TextureFormatRG16Float:
		return "RG16Float"
	case TextureFormatRGBA16Float:
		return "RGBA16Float"
	case TextureFormatR32Float:
		return "R32Float"
	case TextureFormatRG32Float:
		return "RG32Float"
	case TextureFormatRGBA32Float:
		return "RGBA32Float"
	default:
		return fmt.Sprintf("TextureFormat(%d)", uint32(f))
	}
}

// FilterMode selects how a texture is sampled between texel centers.
type FilterMode uint8

// Filter modes.
const (
	// FilterNearest samples the closest texel.
	FilterNearest FilterMode = iota
	// FilterLinear interpolates the four closest texels.
	FilterLinear
)

// String returns the filter name.
func (m FilterMode) String() string {
	if m == FilterLinear {
		return "Linear"
	}
	return "Nearest"
}

// AddressMode selects how coordinates outside [0, 1] are resolved.
type AddressMode uint8

// Address modes.
const (
	// AddressClampToEdge repeats the edge texels.
	AddressClampToEdge AddressMode = iota
	// AddressRepeat tiles the texture.
	AddressRepeat
)

// ShaderStage identifies a programmable pipeline stage.
type ShaderStage uint8

// Shader stages.
const (
	ShaderStageVertex ShaderStage = iota
	ShaderStageFragment
)

// String returns the stage name.
func (s ShaderStage) String() string {
	if s == ShaderStageFragment {
		return "fragment"
	}
	return "vertex"
}

// ShaderLanguage identifies the source language a context compiles.
type ShaderLanguage uint8

// Shader languages.
const (
	// ShaderLanguageGLSL is GLSL 4.10 core.
	ShaderLanguageGLSL ShaderLanguage = iota
	// ShaderLanguageWGSL is WebGPU Shading Language.
	ShaderLanguageWGSL
)

// String returns the language name.
func (l ShaderLanguage) String() string {
	if l == ShaderLanguageWGSL {
		return "wgsl"
	}
	return "glsl"
}

// BlendMode selects the color blend equation for subsequent draws.
type BlendMode uint8

// Blend modes.
const (
	// BlendNone writes the fragment color unchanged.
	BlendNone BlendMode = iota
	// BlendPremultiplied is src*ONE + dst*(1-srcAlpha).
	BlendPremultiplied
	// BlendAdditive is src*ONE + dst*ONE.
	BlendAdditive
)

// UniformType is the reflected type of an active uniform.
type UniformType uint8

// Uniform types.
const (
	UniformFloat UniformType = iota + 1
	UniformVec2
	UniformVec3
	UniformVec4
	UniformInt
	UniformSampler2D
)

// Components returns the number of float components for vector types.
func (t UniformType) Components() int {
	switch t {
	case UniformFloat, UniformInt, UniformSampler2D:
		return 1
	case UniformVec2:
		return 2
	case UniformVec3:
		return 3
	case UniformVec4:
		return 4
	default:
		return 0
	}
}

// UniformLocation addresses a uniform of the active program.
type UniformLocation int32

// NoLocation is returned for uniforms the program does not use.
// Setting a value at NoLocation is a silent no-op, as in OpenGL.
const NoLocation UniformLocation = -1

// UniformInfo describes one active uniform of a linked program.
type UniformInfo struct {
	Name     string
	Type     UniformType
	Location UniformLocation
}

// TextureDescriptor describes a 2D texture allocation.
type TextureDescriptor struct {
	// Label is an optional debug label.
	Label string

	// Width and Height are the texture dimensions in texels.
	Width, Height int

	// Format is the texel format.
	Format TextureFormat

	// Filter is the sampling filter used when the texture is bound.
	Filter FilterMode

	// Address is the addressing mode used when the texture is bound.
	Address AddressMode
}

// Color is a linear RGBA color with float components.
type Color struct {
	R, G, B, A float32
}

// Capabilities describes optional features of a context.
type Capabilities struct {
	// FloatLinearFiltering reports whether float textures can be sampled
	// with FilterLinear.
	FloatLinearFiltering bool

	// MaxTextureSize is the largest supported texture dimension.
	MaxTextureSize int
}

// Resources counts the live objects owned by a context.
type Resources struct {
	Textures     int
	Framebuffers int
	Shaders      int
	Programs     int
	Buffers      int
}

// Total returns the number of live objects.
func (r Resources) Total() int {
	return r.Textures + r.Framebuffers + r.Shaders + r.Programs + r.Buffers
}
