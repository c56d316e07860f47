package fluid

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/gogpu/fluid/backend/software"
	"github.com/gogpu/fluid/gpucore"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func newTestDriver(t *testing.T, ctx *software.Context, cfg *Config, opts ...Option) *Driver {
	t.Helper()
	frames := FrameCount(0)
	opts = append([]Option{
		WithFrameSource(&frames),
		WithRand(rand.New(rand.NewPCG(1, 2))),
	}, opts...)
	d, err := NewDriver(ctx, cfg, opts...)
	if err != nil {
		t.Fatalf("NewDriver() error = %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestNewDriverErrors(t *testing.T) {
	ctx := newTestContext(t, 16, 16)
	bad := testConfig()
	bad.PressureIterations = 0

	if _, err := NewDriver(nil, testConfig()); !errors.Is(err, ErrNoContext) {
		t.Errorf("NewDriver(nil) error = %v, want %v", err, ErrNoContext)
	}
	if _, err := NewDriver(ctx, bad); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewDriver(invalid) error = %v, want %v", err, ErrInvalidConfig)
	}
}

func TestDriverDeltaTime(t *testing.T) {
	ctx := newTestContext(t, 16, 16)
	clock := newFakeClock()
	d := newTestDriver(t, ctx, testConfig(), WithClock(clock.Now))

	tests := []struct {
		name    string
		advance time.Duration
		want    float32
	}{
		{"stall", 5 * time.Second, maxDeltaTime},
		{"short frame", 5 * time.Millisecond, 0.005},
		{"no time", 0, 0},
		{"clock went back", -time.Second, 0},
		{"exact frame", 16 * time.Millisecond, 0.016},
	}
	for _, tt := range tests {
		clock.Advance(tt.advance)
		if got := d.deltaTime(); !approx(got, tt.want) {
			t.Errorf("%s: deltaTime() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDriverTick(t *testing.T) {
	ctx := newTestContext(t, 32, 32)
	cfg := testConfig()
	cfg.Paused = false
	d := newTestDriver(t, ctx, cfg)

	flushes := ctx.Flushes()
	d.Tick()
	d.Tick()
	if got := d.Frames(); got != 2 {
		t.Errorf("Frames() = %d, want 2", got)
	}
	if got := ctx.Flushes() - flushes; got != 2 {
		t.Errorf("Flushes() delta = %d, want 2", got)
	}
}

func TestDriverTickRedrawsBackground(t *testing.T) {
	ctx := newTestContext(t, 16, 16)
	cfg := testConfig()
	cfg.Bloom, cfg.Sunrays = false, false
	cfg.BackColor = RGB{100, 0, 0}
	d := newTestDriver(t, ctx, cfg)

	want := float32(100.0 / 255)
	for tick := range 3 {
		d.Tick()
		px, err := ctx.ReadPixels(gpucore.InvalidID, 16, 16)
		if err != nil {
			t.Fatal(err)
		}
		if c := pixelAt(px, 16, 3, 3); !approx(c[0], want) || c[1] != 0 || c[2] != 0 {
			t.Errorf("tick %d: pixel = %v, want R = %v", tick, c, want)
		}
	}
}

func TestDriverPausedSkipsStep(t *testing.T) {
	ctx := newTestContext(t, 16, 16)
	cfg := testConfig()
	cfg.Bloom, cfg.Sunrays = false, false
	cfg.Paused = true
	d := newTestDriver(t, ctx, cfg)

	blit := d.Simulation().Blitter()
	before := blit.Draws()
	d.Tick()
	paused := blit.Draws() - before

	cfg.Paused = false
	before = blit.Draws()
	d.Tick()
	running := blit.Draws() - before

	if got, want := running-paused, cfg.PressureIterations+7; got != want {
		t.Errorf("running tick drew %d more passes than paused, want %d", got, want)
	}
}

func TestDriverResize(t *testing.T) {
	ctx := newTestContext(t, 32, 32)
	w, h := 32, 32
	d := newTestDriver(t, ctx, testConfig(), WithSizeFunc(func() (int, int) { return w, h }))

	w, h = 64, 32
	d.Tick()

	if gw, gh := ctx.DrawingBufferSize(); gw != 64 || gh != 32 {
		t.Errorf("DrawingBufferSize() = %dx%d, want 64x32", gw, gh)
	}
	if dye := d.Simulation().Dye(); dye.Width() != 64 || dye.Height() != 32 {
		t.Errorf("dye = %dx%d, want 64x32", dye.Width(), dye.Height())
	}
	if vel := d.Simulation().Velocity(); vel.Width() != 32 || vel.Height() != 16 {
		t.Errorf("velocity = %dx%d, want 32x16", vel.Width(), vel.Height())
	}

	w, h = 0, 0
	d.Tick()
	if gw, gh := ctx.DrawingBufferSize(); gw != 64 || gh != 32 {
		t.Errorf("DrawingBufferSize() after zero size = %dx%d, want 64x32", gw, gh)
	}
}

func TestDriverQueueSplats(t *testing.T) {
	ctx := newTestContext(t, 16, 16)
	d := newTestDriver(t, ctx, testConfig())
	blit := d.Simulation().Blitter()

	before := blit.Draws()
	d.Tick()
	idle := blit.Draws() - before

	d.QueueSplats(3)
	d.QueueSplats(0)
	before = blit.Draws()
	d.Tick()
	if got := blit.Draws() - before - idle; got != 6 {
		t.Errorf("tick with 3 queued splats drew %d extra passes, want 6", got)
	}

	before = blit.Draws()
	d.Tick()
	if got := blit.Draws() - before; got != idle {
		t.Errorf("tick after queue drained drew %d passes, want %d", got, idle)
	}
}

func TestDriverBurst(t *testing.T) {
	ctx := newTestContext(t, 16, 16)
	d := newTestDriver(t, ctx, testConfig())
	for range 50 {
		d.Burst()
	}
	if got := len(d.splatQueue); got != 50 {
		t.Fatalf("len(splatQueue) = %d, want 50", got)
	}
	for _, n := range d.splatQueue {
		if n < 5 || n > 24 {
			t.Errorf("Burst() queued %d splats, want 5..24", n)
		}
	}
}

func TestDriverSetPaused(t *testing.T) {
	ctx := newTestContext(t, 16, 16)
	d := newTestDriver(t, ctx, testConfig())
	d.SetPaused(true)
	if !d.Paused() || !d.Config().Paused {
		t.Errorf("Paused() = %v, want true", d.Paused())
	}
	d.SetPaused(false)
	if d.Paused() {
		t.Errorf("Paused() = %v, want false", d.Paused())
	}
}

func TestDriverPointerSplats(t *testing.T) {
	ctx := newTestContext(t, 32, 32)
	d := newTestDriver(t, ctx, testConfig())
	blit := d.Simulation().Blitter()

	before := blit.Draws()
	d.Tick()
	idle := blit.Draws() - before

	d.PointerDown(0, 10, 10)
	d.PointerMove(0, 20, 12)
	before = blit.Draws()
	d.Tick()
	if got := blit.Draws() - before - idle; got != 2 {
		t.Errorf("tick after pointer move drew %d extra passes, want 2", got)
	}
	d.PointerUp(0)
	if p := d.Pointers().Pointers()[0]; p.Down {
		t.Error("pointer still down after PointerUp")
	}
}

func TestDriverPost(t *testing.T) {
	ctx := newTestContext(t, 16, 16)
	d := newTestDriver(t, ctx, testConfig())

	calls := 0
	d.Post(func(got *Driver) {
		if got != d {
			t.Error("posted func received a different driver")
		}
		calls++
	})
	d.Tick()
	d.Tick()
	if calls != 1 {
		t.Errorf("posted func ran %d times, want 1", calls)
	}
}

func TestDriverConfigUpdates(t *testing.T) {
	ctx := newTestContext(t, 32, 32)
	cfg := testConfig()
	cfg.Paused = true
	updates := make(chan *Config, 2)
	d := newTestDriver(t, ctx, cfg, WithConfigUpdates(updates))

	invalid := testConfig()
	invalid.SimResolution = -1
	next := testConfig()
	next.Curl = 5
	next.SimResolution = 8
	next.Paused = false
	updates <- invalid
	updates <- next
	d.Tick()

	if got := d.Config().Curl; got != 5 {
		t.Errorf("Curl = %v, want 5", got)
	}
	if got := d.Simulation().Velocity().Width(); got != 8 {
		t.Errorf("velocity width = %d, want 8", got)
	}
	if !d.Config().Paused {
		t.Error("config update changed the pause state")
	}

	close(updates)
	d.Tick()
	d.Tick()
}

func TestDriverActivateSettles(t *testing.T) {
	ctx := newTestContext(t, 32, 32)
	clock := newFakeClock()
	cfg := testConfig()
	cfg.Text = "I"
	cfg.Paused = true
	cfg.DensityDissipation = 0.5
	cfg.SettleDissipation = 1
	cfg.SettleDelay = Duration(2500 * time.Millisecond)
	d := newTestDriver(t, ctx, cfg, WithClock(clock.Now))

	d.Activate()
	if d.Config().Paused {
		t.Fatal("Paused = true after Activate")
	}

	clock.Advance(time.Second)
	d.Tick()
	if got := d.Config().DensityDissipation; got != 0.5 {
		t.Errorf("DensityDissipation before delay = %v, want 0.5", got)
	}

	clock.Advance(2 * time.Second)
	d.Tick()
	if got := d.Config().DensityDissipation; got != 1 {
		t.Errorf("DensityDissipation after delay = %v, want 1", got)
	}
}

func TestDriverRestartKeepsPause(t *testing.T) {
	ctx := newTestContext(t, 32, 32)
	cfg := testConfig()
	cfg.Paused = true
	d := newTestDriver(t, ctx, cfg)

	d.Restart("I")
	if got := d.Config().Text; got != "I" {
		t.Errorf("Text = %q, want %q", got, "I")
	}
	if !d.Config().Paused {
		t.Error("Restart unpaused the simulation")
	}
}

func TestDriverRun(t *testing.T) {
	ctx := newTestContext(t, 16, 16)
	frames := FrameCount(3)
	d := newTestDriver(t, ctx, testConfig(), WithFrameSource(&frames))

	if err := d.Run(context.Background()); !errors.Is(err, ErrFramesDone) {
		t.Errorf("Run() error = %v, want %v", err, ErrFramesDone)
	}
	if got := d.Frames(); got != 3 {
		t.Errorf("Frames() = %d, want 3", got)
	}
}

func TestDriverRunRecoversPanic(t *testing.T) {
	ctx := newTestContext(t, 16, 16)
	frames := FrameCount(2)
	d := newTestDriver(t, ctx, testConfig(), WithFrameSource(&frames))

	d.Post(func(*Driver) { panic("boom") })
	if err := d.Run(context.Background()); !errors.Is(err, ErrFramesDone) {
		t.Errorf("Run() error = %v, want %v", err, ErrFramesDone)
	}
	if got := d.Frames(); got != 1 {
		t.Errorf("Frames() = %d, want 1", got)
	}
}

func TestDriverRunCanceled(t *testing.T) {
	ctx := newTestContext(t, 16, 16)
	frames := FrameCount(100)
	d := newTestDriver(t, ctx, testConfig(), WithFrameSource(&frames))

	runCtx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Run(runCtx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want %v", err, context.Canceled)
	}
}

func TestDriverCapture(t *testing.T) {
	ctx := newTestContext(t, 64, 32)
	cfg := testConfig()
	cfg.CaptureResolution = 16
	d := newTestDriver(t, ctx, cfg)
	d.Tick()

	img, err := d.Capture()
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 16 {
		t.Errorf("Capture() size = %v, want 32x16", b.Size())
	}
}

func TestDriverClose(t *testing.T) {
	ctx := newTestContext(t, 32, 32)
	cfg := testConfig()
	cfg.Text = "I"
	cfg.Paused = false

	for range 3 {
		frames := FrameCount(0)
		d, err := NewDriver(ctx, cfg, WithFrameSource(&frames))
		if err != nil {
			t.Fatal(err)
		}
		d.QueueSplats(2)
		d.Tick()
		if _, err := d.Capture(); err != nil {
			t.Fatal(err)
		}
		if err := d.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if err := d.Close(); err != nil {
			t.Fatalf("second Close() error = %v", err)
		}
		if live := ctx.Live(); live.Total() != 0 {
			t.Fatalf("Live() = %+v after Close, want nothing", live)
		}

		if _, err := d.Capture(); !errors.Is(err, ErrClosed) {
			t.Errorf("Capture() after Close error = %v, want %v", err, ErrClosed)
		}
		if err := d.Run(context.Background()); !errors.Is(err, ErrClosed) {
			t.Errorf("Run() after Close error = %v, want %v", err, ErrClosed)
		}
		d.Tick()
	}
}
