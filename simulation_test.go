package fluid

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/fluid/backend/software"
	"github.com/gogpu/fluid/gpucore"
)

func newTestSimulation(t *testing.T, ctx gpucore.Context, cfg *Config) *Simulation {
	t.Helper()
	sim, err := NewSimulation(ctx, cfg)
	if err != nil {
		t.Fatalf("NewSimulation() error = %v", err)
	}
	t.Cleanup(sim.Destroy)
	return sim
}

func TestNewSimulationNilContext(t *testing.T) {
	if _, err := NewSimulation(nil, testConfig()); !errors.Is(err, ErrNoContext) {
		t.Errorf("NewSimulation(nil) error = %v, want %v", err, ErrNoContext)
	}
}

func TestSimulationFieldSizes(t *testing.T) {
	tests := []struct {
		name       string
		w, h       int
		simW, simH int
		dyeW, dyeH int
	}{
		{"square", 32, 32, 16, 16, 32, 32},
		{"landscape", 64, 32, 32, 16, 64, 32},
		{"portrait", 16, 32, 16, 32, 32, 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newTestContext(t, tt.w, tt.h)
			sim := newTestSimulation(t, ctx, testConfig())
			if !sim.Ready() {
				t.Fatal("Ready() = false, want true")
			}
			if w, h := sim.Velocity().Width(), sim.Velocity().Height(); w != tt.simW || h != tt.simH {
				t.Errorf("velocity = %dx%d, want %dx%d", w, h, tt.simW, tt.simH)
			}
			if w, h := sim.Pressure().Width(), sim.Pressure().Height(); w != tt.simW || h != tt.simH {
				t.Errorf("pressure = %dx%d, want %dx%d", w, h, tt.simW, tt.simH)
			}
			if w, h := sim.Dye().Width(), sim.Dye().Height(); w != tt.dyeW || h != tt.dyeH {
				t.Errorf("dye = %dx%d, want %dx%d", w, h, tt.dyeW, tt.dyeH)
			}
		})
	}
}

func TestSimulationManualFiltering(t *testing.T) {
	ctx := newTestContext(t, 16, 16, software.WithoutLinearFiltering())
	sim := newTestSimulation(t, ctx, testConfig())

	if got := sim.passes.advection.Keywords(); !slices.Equal(got, []string{manualFiltering}) {
		t.Errorf("advection keywords = %v, want [%s]", got, manualFiltering)
	}
	if got := sim.Dye().Read().Filter(); got != gpucore.FilterNearest {
		t.Errorf("dye filter = %v, want Nearest", got)
	}
	sim.Step(0.016)
}

func TestStepPressureIterations(t *testing.T) {
	for _, n := range []int{1, 5, 20} {
		ctx := newTestContext(t, 16, 16)
		cfg := testConfig()
		cfg.PressureIterations = n
		sim := newTestSimulation(t, ctx, cfg)

		before := sim.Blitter().Draws()
		sim.Step(0.016)
		if got, want := sim.Blitter().Draws()-before, n+7; got != want {
			t.Errorf("Step() with %d iterations drew %d passes, want %d", n, got, want)
		}
	}
}

func TestSplatRadius(t *testing.T) {
	tests := []struct {
		radius, aspect, want float32
	}{
		{0.25, 1, 0.0025},
		{0.25, 2, 0.005},
		{0.25, 0.5, 0.0025},
		{1, 1.5, 0.015},
	}
	for _, tt := range tests {
		if got := splatRadius(tt.radius, tt.aspect); !approx(got, tt.want) {
			t.Errorf("splatRadius(%v, %v) = %v, want %v", tt.radius, tt.aspect, got, tt.want)
		}
	}
}

func TestSplatVelocity(t *testing.T) {
	ctx := newTestContext(t, 32, 32)
	cfg := testConfig()
	cfg.SplatRadius = 0.25
	sim := newTestSimulation(t, ctx, cfg)

	sim.Splat(0.5, 0.5, 10, -5, RGB{1, 1, 1})

	vel := sim.Velocity().Read()
	px, err := ctx.ReadPixels(vel.Framebuffer(), vel.Width(), vel.Height())
	if err != nil {
		t.Fatal(err)
	}
	c := pixelAt(px, vel.Width(), 8, 8)
	if c[0] <= 0 || c[1] >= 0 {
		t.Errorf("velocity at center = %v, want positive x and negative y", c)
	}
	if corner := pixelAt(px, vel.Width(), 0, 0); corner[0] != 0 || corner[1] != 0 {
		t.Errorf("velocity at corner = %v, want zero", corner)
	}
}

func TestSplatEndToEnd(t *testing.T) {
	ctx := newTestContext(t, 32, 32)
	cfg := testConfig()
	cfg.Bloom = false
	cfg.Sunrays = false
	cfg.SplatRadius = 0.25
	sim := newTestSimulation(t, ctx, cfg)
	comp, err := NewCompositor(sim)
	if err != nil {
		t.Fatal(err)
	}
	defer comp.Destroy()

	sim.Splat(0.5, 0.5, 0, 0, RGB{1, 1, 1})
	comp.Render(nil)

	px, err := ctx.ReadPixels(gpucore.InvalidID, 32, 32)
	if err != nil {
		t.Fatal(err)
	}
	if c := pixelAt(px, 32, 16, 16); c[0] < 0.5 {
		t.Errorf("center = %v, want bright dye", c)
	}
	for _, p := range [][2]int{{0, 0}, {31, 0}, {0, 31}, {31, 31}} {
		if c := pixelAt(px, 32, p[0], p[1]); c != ([4]float32{}) {
			t.Errorf("corner %v = %v, want background", p, c)
		}
	}
}

func TestStepMovesDye(t *testing.T) {
	ctx := newTestContext(t, 32, 32)
	cfg := testConfig()
	cfg.SplatRadius = 1
	cfg.DensityDissipation = 0
	cfg.VelocityDissipation = 0
	sim := newTestSimulation(t, ctx, cfg)

	sim.Splat(0.5, 0.5, 0, 50, RGB{1, 0, 0})
	for range 5 {
		sim.Step(maxDeltaTime)
	}

	dye := sim.Dye().Read()
	px, err := ctx.ReadPixels(dye.Framebuffer(), 32, 32)
	if err != nil {
		t.Fatal(err)
	}
	var above, below float32
	for x := range 32 {
		for y := range 32 {
			if y > 16 {
				above += pixelAt(px, 32, x, y)[0]
			} else if y < 15 {
				below += pixelAt(px, 32, x, y)[0]
			}
		}
	}
	if above <= below {
		t.Errorf("dye above center = %v, below = %v, want dye carried upward", above, below)
	}
}

func TestSimulationResizeKeepsDye(t *testing.T) {
	ctx := newTestContext(t, 32, 32)
	sim := newTestSimulation(t, ctx, testConfig())

	ctx.BindFramebuffer(sim.Dye().Read().Framebuffer())
	ctx.Clear(gpucore.Color{R: 0.5, A: 1})

	ctx.ResizeDrawingBuffer(64, 32)
	sim.InitFramebuffers()

	dye := sim.Dye()
	if dye.Width() != 64 || dye.Height() != 32 {
		t.Fatalf("dye = %dx%d, want 64x32", dye.Width(), dye.Height())
	}
	px, err := ctx.ReadPixels(dye.Read().Framebuffer(), 64, 32)
	if err != nil {
		t.Fatal(err)
	}
	if c := pixelAt(px, 64, 40, 10); !approx(c[0], 0.5) {
		t.Errorf("dye after resize = %v, want R 0.5", c)
	}
}

func TestSimulationWithoutFloatTargets(t *testing.T) {
	ctx := newTestContext(t, 16, 16, software.WithUnsupportedFormats(
		gpucore.TextureFormatR16Float, gpucore.TextureFormatRG16Float, gpucore.TextureFormatRGBA16Float,
		gpucore.TextureFormatR32Float, gpucore.TextureFormatRG32Float, gpucore.TextureFormatRGBA32Float,
	))
	sim := newTestSimulation(t, ctx, testConfig())
	if sim.Ready() {
		t.Fatal("Ready() = true without float targets")
	}
	sim.Step(0.016)
	sim.Splat(0.5, 0.5, 1, 1, RGB{1, 1, 1})
	if got := sim.Blitter().Draws(); got != 0 {
		t.Errorf("Draws() = %d, want 0", got)
	}
	if _, err := sim.SeedText("x"); !errors.Is(err, ErrTargetUnavailable) {
		t.Errorf("SeedText() error = %v, want %v", err, ErrTargetUnavailable)
	}
}

func TestRandomSplats(t *testing.T) {
	ctx := newTestContext(t, 16, 16)
	sim := newTestSimulation(t, ctx, testConfig())

	before := sim.Blitter().Draws()
	sim.RandomSplats(4)
	if got := sim.Blitter().Draws() - before; got != 8 {
		t.Errorf("RandomSplats(4) drew %d passes, want 8", got)
	}
}

func TestSimulationDestroyReleasesEverything(t *testing.T) {
	ctx := newTestContext(t, 32, 32)
	sim, err := NewSimulation(ctx, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	comp, err := NewCompositor(sim)
	if err != nil {
		t.Fatal(err)
	}
	sim.Step(0.016)
	comp.Render(nil)

	comp.Destroy()
	sim.Destroy()
	if live := ctx.Live(); live.Total() != 0 {
		t.Errorf("Live() = %+v after Destroy, want nothing", live)
	}
}
