package fluid

import (
	"slices"
	"testing"

	"github.com/gogpu/fluid/gpucore"
	"github.com/gogpu/fluid/internal/shaders"
)

func newTestMaterial(t *testing.T, ctx gpucore.Context, name string) *Material {
	t.Helper()
	vsrc, err := shaders.Vertex(gpucore.ShaderLanguageGLSL, shaders.BaseVertex)
	if err != nil {
		t.Fatal(err)
	}
	fsrc, err := shaders.Fragment(gpucore.ShaderLanguageGLSL, name)
	if err != nil {
		t.Fatal(err)
	}
	vs := CompileShader(ctx, gpucore.ShaderStageVertex, shaders.BaseVertex, vsrc, nil)
	m := NewMaterial(ctx, name, vs, fsrc)
	t.Cleanup(func() {
		m.Destroy()
		ctx.DestroyShader(vs)
	})
	return m
}

func TestMaterialReorderedKeywordsShareProgram(t *testing.T) {
	ctx := newTestContext(t, 8, 8)
	m := newTestMaterial(t, ctx, shaders.Display)

	if m.Program() != nil {
		t.Fatal("Program() before SetKeywords != nil")
	}
	m.SetKeywords([]string{"SHADING", "BLOOM"})
	first := m.Program()
	m.SetKeywords([]string{"BLOOM", "SHADING"})

	if m.Program() != first {
		t.Error("reordered keywords selected a different program")
	}
	if got := m.Compiles(); got != 1 {
		t.Errorf("Compiles() = %d, want 1", got)
	}
	if got, want := m.Keywords(), []string{"SHADING", "BLOOM"}; !slices.Equal(got, want) {
		t.Errorf("Keywords() = %v, want %v", got, want)
	}
}

func TestMaterialVariants(t *testing.T) {
	ctx := newTestContext(t, 8, 8)
	m := newTestMaterial(t, ctx, shaders.Display)

	steps := []struct {
		keywords []string
		compiles int
	}{
		{nil, 1},
		{[]string{"SHADING"}, 2},
		{[]string{"SHADING", "SUNRAYS"}, 3},
		{[]string{"SHADING"}, 3},
		{nil, 3},
		{[]string{"SUNRAYS", "SHADING"}, 3},
	}
	for i, s := range steps {
		m.SetKeywords(s.keywords)
		if got := m.Compiles(); got != s.compiles {
			t.Errorf("step %d: Compiles() = %d, want %d", i, got, s.compiles)
		}
	}
}

func TestMaterialVariantUniforms(t *testing.T) {
	ctx := newTestContext(t, 8, 8)
	m := newTestMaterial(t, ctx, shaders.Display)

	m.SetKeywords(nil)
	if loc := m.Program().Uniform("uBloom"); loc != gpucore.NoLocation {
		t.Errorf("Uniform(uBloom) without BLOOM = %d, want NoLocation", loc)
	}
	m.SetKeywords([]string{"BLOOM"})
	if loc := m.Program().Uniform("uBloom"); loc == gpucore.NoLocation {
		t.Error("Uniform(uBloom) with BLOOM = NoLocation, want a location")
	}
}

func TestMaterialDestroy(t *testing.T) {
	ctx := newTestContext(t, 8, 8)
	before := ctx.Live()

	m := newTestMaterial(t, ctx, shaders.Advection)
	m.SetKeywords(nil)
	m.SetKeywords([]string{manualFiltering})
	m.Destroy()

	after := ctx.Live()
	if after.Programs != before.Programs {
		t.Errorf("Live().Programs = %d after Destroy, want %d", after.Programs, before.Programs)
	}
	// The shared vertex shader is still owned by the test.
	if after.Shaders != before.Shaders+1 {
		t.Errorf("Live().Shaders = %d after Destroy, want %d", after.Shaders, before.Shaders+1)
	}
}

func TestLinkProgramUniforms(t *testing.T) {
	ctx := newTestContext(t, 8, 8)
	p, _ := newTestPasses(t, ctx)

	tests := []struct {
		prog *Program
		want []string
	}{
		{p.copy, []string{"uTexture", "texelSize"}},
		{p.splat, []string{"uTarget", "aspectRatio", "point", "color", "radius"}},
		{p.pressure, []string{"uPressure", "uDivergence", "texelSize"}},
	}
	for _, tt := range tests {
		for _, name := range tt.want {
			if loc := tt.prog.Uniform(name); loc == gpucore.NoLocation {
				t.Errorf("%s.Uniform(%q) = NoLocation, want a location", tt.prog.Label(), name)
			}
		}
		if loc := tt.prog.Uniform("doesNotExist"); loc != gpucore.NoLocation {
			t.Errorf("%s.Uniform(doesNotExist) = %d, want NoLocation", tt.prog.Label(), loc)
		}
	}
}

func TestLinkProgramFailureDrawsNothing(t *testing.T) {
	ctx := newTestContext(t, 4, 4)
	_, blit := newTestPasses(t, ctx)

	vs := CompileShader(ctx, gpucore.ShaderStageVertex, "nonexistent", "void main() {}", nil)
	fs := CompileShader(ctx, gpucore.ShaderStageFragment, "nonexistent", "void main() {}", nil)
	p := LinkProgram(ctx, "nonexistent", vs, fs)
	defer func() {
		p.Destroy()
		ctx.DestroyShader(vs)
		ctx.DestroyShader(fs)
	}()

	if n := len(p.Uniforms()); n != 0 {
		t.Errorf("len(Uniforms()) = %d, want 0", n)
	}
	draws := ctx.DrawCalls()
	p.Bind()
	blit.Blit(nil, false)
	if got := ctx.DrawCalls(); got != draws {
		t.Errorf("DrawCalls() = %d, want %d", got, draws)
	}
}
