package shader

import (
	"testing"

	"github.com/gogpu/fluid/gpucore"
	"github.com/gogpu/fluid/internal/shaders"
)

func reflectSource(t *testing.T, src string) (WGSLLayout, error) {
	t.Helper()
	module, err := ParseWGSL(src)
	if err != nil {
		t.Fatalf("ParseWGSL() error = %v", err)
	}
	return ReflectWGSL(module)
}

func checkFields(t *testing.T, got, want []WGSLField) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Fields = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Fields[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestReflectWGSL(t *testing.T) {
	src := `
struct Params {
    texelSize: vec2<f32>,
    dt: f32,
    color: vec3<f32>,
    point: vec2<f32>,
};
@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var uVelocity: texture_2d<f32>;
@group(0) @binding(2) var uVelocitySampler: sampler;
@group(0) @binding(3) var uSource: texture_2d<f32>;

@fragment
fn fs_main(@location(0) vUv: vec2<f32>) -> @location(0) vec4<f32> {
    let a = textureSample(uVelocity, uVelocitySampler, vUv);
    let b = textureSampleLevel(uSource, uVelocitySampler, vUv, 0.0);
    return a + b + vec4<f32>(params.color * params.dt, params.texelSize.x + params.point.y);
}
`
	layout, err := reflectSource(t, src)
	if err != nil {
		t.Fatalf("ReflectWGSL() error = %v", err)
	}
	checkFields(t, layout.Fields, []WGSLField{
		{"texelSize", gpucore.UniformVec2, 0},
		{"dt", gpucore.UniformFloat, 8},
		{"color", gpucore.UniformVec3, 16},
		{"point", gpucore.UniformVec2, 32},
	})
	if layout.Size != 48 {
		t.Errorf("Size = %d, want 48", layout.Size)
	}
	if layout.UniformBinding != 0 {
		t.Errorf("UniformBinding = %d, want 0", layout.UniformBinding)
	}
	if len(layout.Textures) != 2 {
		t.Fatalf("Textures = %v, want 2 entries", layout.Textures)
	}
	if tex := layout.Textures[0]; tex.Name != "uVelocity" || tex.Binding != 1 || !tex.HasSampler || tex.SamplerBinding != 2 {
		t.Errorf("Textures[0] = %+v", tex)
	}
	if tex := layout.Textures[1]; tex.Name != "uSource" || tex.Binding != 3 || tex.HasSampler {
		t.Errorf("Textures[1] = %+v, want unpaired uSource", tex)
	}
}

func TestReflectWGSLIgnoresComments(t *testing.T) {
	src := `
struct Params {
    // legacy: vec4<f32>,
    dt: f32,
    /* scale: f32, */
    texelSize: vec2<f32>,
};
@group(0) @binding(0) var<uniform> params: Params;

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(params.texelSize, params.dt, 1.0);
}
`
	layout, err := reflectSource(t, src)
	if err != nil {
		t.Fatalf("ReflectWGSL() error = %v", err)
	}
	checkFields(t, layout.Fields, []WGSLField{
		{"dt", gpucore.UniformFloat, 0},
		{"texelSize", gpucore.UniformVec2, 8},
	})
	if layout.Size != 16 {
		t.Errorf("Size = %d, want 16", layout.Size)
	}
}

func TestReflectWGSLNoUniforms(t *testing.T) {
	src := `
@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 0.0, 1.0);
}
`
	layout, err := reflectSource(t, src)
	if err != nil {
		t.Fatalf("ReflectWGSL() error = %v", err)
	}
	if layout.UniformBinding != -1 || len(layout.Fields) != 0 || len(layout.Textures) != 0 {
		t.Errorf("ReflectWGSL() = %+v, want an empty layout", layout)
	}
}

func TestReflectWGSLUnsupportedType(t *testing.T) {
	src := `
struct Params {
    m: mat4x4<f32>,
};
@group(0) @binding(0) var<uniform> params: Params;

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return params.m[0];
}
`
	if _, err := reflectSource(t, src); err == nil {
		t.Error("ReflectWGSL() error = nil, want unsupported type error")
	}
}

func TestParseWGSLError(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", "fn fs_main( -> {"},
		{"unknown identifier", "@fragment\nfn fs_main() -> @location(0) vec4<f32> {\n    return missing;\n}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseWGSL(tt.src); err == nil {
				t.Error("ParseWGSL() error = nil, want error")
			}
		})
	}
}

func TestReflectEmbeddedWGSL(t *testing.T) {
	for _, name := range shaders.Fragments {
		t.Run(name, func(t *testing.T) {
			src, err := shaders.Fragment(gpucore.ShaderLanguageWGSL, name)
			if err != nil {
				t.Fatalf("Fragment() error = %v", err)
			}
			res, err := Preprocess(src, Options{})
			if err != nil {
				t.Fatalf("Preprocess() error = %v", err)
			}
			if _, err := reflectSource(t, res.Source); err != nil {
				t.Errorf("ReflectWGSL() error = %v", err)
			}
		})
	}

	src, err := shaders.Fragment(gpucore.ShaderLanguageWGSL, shaders.Splat)
	if err != nil {
		t.Fatalf("Fragment(splat) error = %v", err)
	}
	layout, err := reflectSource(t, src)
	if err != nil {
		t.Fatalf("ReflectWGSL(splat) error = %v", err)
	}
	checkFields(t, layout.Fields, []WGSLField{
		{"texelSize", gpucore.UniformVec2, 0},
		{"point", gpucore.UniformVec2, 8},
		{"color", gpucore.UniformVec3, 16},
		{"aspectRatio", gpucore.UniformFloat, 28},
		{"radius", gpucore.UniformFloat, 32},
	})
	if layout.Size != 48 {
		t.Errorf("Size = %d, want 48", layout.Size)
	}
}
