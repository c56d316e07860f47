// Package shaders holds the GLSL and WGSL sources of every fluid pass.
package shaders

import (
	"embed"
	"fmt"

	"github.com/gogpu/fluid/gpucore"
)

//go:embed glsl/* wgsl/*
var sources embed.FS

// Vertex stage names.
const (
	BaseVertex = "base"
	BlurVertex = "blur"
)

// Fragment stage names.
const (
	Copy             = "copy"
	Clear            = "clear"
	Color            = "color"
	Checkerboard     = "checkerboard"
	Display          = "display"
	Splat            = "splat"
	Advection        = "advection"
	Divergence       = "divergence"
	Curl             = "curl"
	Vorticity        = "vorticity"
	Pressure         = "pressure"
	GradientSubtract = "gradient_subtract"
	BloomPrefilter   = "bloom_prefilter"
	BloomBlur        = "bloom_blur"
	BloomFinal       = "bloom_final"
	SunraysMask      = "sunrays_mask"
	Sunrays          = "sunrays"
	Blur             = "blur"
)

// Fragments lists every fragment stage name.
var Fragments = []string{
	Copy, Clear, Color, Checkerboard, Display, Splat, Advection,
	Divergence, Curl, Vorticity, Pressure, GradientSubtract,
	BloomPrefilter, BloomBlur, BloomFinal, SunraysMask, Sunrays, Blur,
}

// Vertex returns the vertex stage source for the given language.
func Vertex(lang gpucore.ShaderLanguage, name string) (string, error) {
	return load(lang, name, "vert")
}

// Fragment returns the fragment stage source for the given language.
func Fragment(lang gpucore.ShaderLanguage, name string) (string, error) {
	return load(lang, name, "frag")
}

func load(lang gpucore.ShaderLanguage, name, stage string) (string, error) {
	var path string
	switch lang {
	case gpucore.ShaderLanguageWGSL:
		path = fmt.Sprintf("wgsl/%s.%s.wgsl", name, stage)
	default:
		path = fmt.Sprintf("glsl/%s.%s", name, stage)
	}
	data, err := sources.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("shaders: %s %s %q: %w", lang, stage, name, err)
	}
	return string(data), nil
}
