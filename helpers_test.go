package fluid

import (
	"testing"

	"github.com/gogpu/fluid/backend/software"
	"github.com/gogpu/fluid/gpucore"
)

// testConfig returns a config small enough for the software backend.
func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.SimResolution = 16
	cfg.DyeResolution = 32
	cfg.CaptureResolution = 32
	cfg.BloomResolution = 32
	cfg.BloomIterations = 3
	cfg.SunraysResolution = 16
	cfg.Text = ""
	return cfg
}

func newTestContext(t *testing.T, w, h int, opts ...software.Option) *software.Context {
	t.Helper()
	ctx := software.New(w, h, opts...)
	t.Cleanup(ctx.Destroy)
	return ctx
}

// newTestPasses compiles every program on ctx and returns a copier.
func newTestPasses(t *testing.T, ctx gpucore.Context) (*passes, *Blitter) {
	t.Helper()
	p, err := newPasses(ctx, ctx.ShaderLanguage())
	if err != nil {
		t.Fatalf("newPasses() error = %v", err)
	}
	b, err := NewBlitter(ctx)
	if err != nil {
		t.Fatalf("NewBlitter() error = %v", err)
	}
	t.Cleanup(func() {
		b.Destroy()
		p.destroy()
	})
	return p, b
}

// pixelAt returns the RGBA value at (x, y) of bottom-first pixels.
func pixelAt(pixels []float32, w, x, y int) [4]float32 {
	i := (y*w + x) * 4
	return [4]float32{pixels[i], pixels[i+1], pixels[i+2], pixels[i+3]}
}
