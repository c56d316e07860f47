package fluid

import (
	"context"
	"image"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gogpu/fluid/gpucore"
)

// maxDeltaTime caps the simulated time of one frame at 1/60 s so that a
// stall does not blow up the simulation.
const maxDeltaTime = 0.016666

// Driver owns the frame loop: it measures time, follows canvas resizes,
// applies input, steps the simulation and composites each frame.
//
// A Driver and its context belong to one goroutine. Other goroutines
// hand work over with Post or a config channel (WithConfigUpdates).
type Driver struct {
	ctx      gpucore.Context
	cfg      *Config
	opts     options
	ownTick  *Ticker
	sim      *Simulation
	comp     *Compositor
	pointers *PointerTracker

	last       time.Time
	colorTimer float32
	splatQueue []int
	mask       *image.RGBA
	settleAt   time.Time
	frames     int
	closed     bool

	mu     sync.Mutex
	posted []func(*Driver)
}

// NewDriver creates the simulation and compositor on ctx and seeds the
// dye with cfg.Text. A nil cfg uses DefaultConfig. The Driver keeps cfg
// and reads it every frame.
func NewDriver(ctx gpucore.Context, cfg *Config, opts ...Option) (*Driver, error) {
	if ctx == nil {
		return nil, ErrNoContext
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := applyOptions(opts)

	sim, err := NewSimulation(ctx, cfg, append(opts[:len(opts):len(opts)], WithRand(o.rand))...)
	if err != nil {
		return nil, err
	}
	comp, err := NewCompositor(sim)
	if err != nil {
		sim.Destroy()
		return nil, err
	}

	d := &Driver{
		ctx:  ctx,
		cfg:  cfg,
		opts: o,
		sim:  sim,
		comp: comp,
	}
	if d.opts.frames == nil {
		d.ownTick = NewTicker(60)
		d.opts.frames = d.ownTick
	}
	if d.opts.size == nil {
		d.opts.size = ctx.DrawingBufferSize
	}
	w, h := ctx.DrawingBufferSize()
	d.pointers = NewPointerTracker(w, h, d.generateColor)

	registerContext(ctx)
	if cfg.Text != "" {
		d.seedText(cfg.Text)
	}
	d.last = o.clock()

	Logger().Info("fluid: driver started", "backend", ctx.Name(), "width", w, "height", h)
	return d, nil
}

// Config returns the live config. Changes take effect on the next Tick.
func (d *Driver) Config() *Config { return d.cfg }

// Simulation returns the simulation the driver steps.
func (d *Driver) Simulation() *Simulation { return d.sim }

// Compositor returns the compositor the driver renders with.
func (d *Driver) Compositor() *Compositor { return d.comp }

// Pointers returns the pointer tracker.
func (d *Driver) Pointers() *PointerTracker { return d.pointers }

// Frames returns the number of completed ticks.
func (d *Driver) Frames() int { return d.frames }

func (d *Driver) generateColor() RGB {
	return generateColor(d.cfg.Colorful, d.opts.rand)
}

// Run ticks once per frame of the frame source until ctx is done, the
// source runs dry or the driver is closed. A panic inside a tick is
// logged and the loop continues.
func (d *Driver) Run(ctx context.Context) error {
	for {
		if d.closed {
			return ErrClosed
		}
		if err := d.opts.frames.Next(ctx); err != nil {
			return err
		}
		d.safeTick()
	}
}

func (d *Driver) safeTick() {
	defer func() {
		if r := recover(); r != nil {
			Logger().Warn("fluid: tick panic recovered", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	d.Tick()
}

// Tick runs one frame: posted work and config updates, time step,
// resize, color cycling, input, timers, simulation step unless paused,
// compositing and flush.
func (d *Driver) Tick() {
	if d.closed {
		return
	}
	d.drainPosted()
	d.drainConfigs()

	dt := d.deltaTime()
	d.resize()
	d.comp.UpdateKeywords()
	d.updateColors(dt)
	d.applyInputs()
	d.runTimers()
	if !d.cfg.Paused {
		d.sim.Step(dt)
	}
	d.comp.Render(nil)
	if err := d.ctx.Flush(); err != nil {
		Logger().Warn("fluid: flush failed", "error", err)
	}
	d.frames++
}

// deltaTime returns the seconds since the previous call, clamped to
// [0, maxDeltaTime].
func (d *Driver) deltaTime() float32 {
	now := d.opts.clock()
	dt := float32(now.Sub(d.last).Seconds())
	d.last = now
	return min(max(dt, 0), maxDeltaTime)
}

// resize follows the canvas size reported by the size function.
func (d *Driver) resize() {
	w, h := d.opts.size()
	if w <= 0 || h <= 0 {
		return
	}
	if cw, ch := d.ctx.DrawingBufferSize(); cw == w && ch == h {
		return
	}
	d.ctx.ResizeDrawingBuffer(w, h)
	d.pointers.Resize(w, h)
	d.initFramebuffers()
	Logger().Debug("fluid: canvas resized", "width", w, "height", h)
}

func (d *Driver) initFramebuffers() {
	d.sim.InitFramebuffers()
	d.comp.InitFramebuffers()
}

func (d *Driver) updateColors(dt float32) {
	if !d.cfg.Colorful {
		return
	}
	d.colorTimer += dt * d.cfg.ColorUpdateSpeed
	if d.colorTimer >= 1 {
		d.colorTimer = wrap(d.colorTimer, 0, 1)
		d.pointers.Recolor()
	}
}

func (d *Driver) applyInputs() {
	if n := len(d.splatQueue); n > 0 {
		count := d.splatQueue[n-1]
		d.splatQueue = d.splatQueue[:n-1]
		d.sim.RandomSplats(count)
	}
	d.pointers.Drain(d.sim.SplatPointer)
}

func (d *Driver) runTimers() {
	if d.settleAt.IsZero() || d.last.Before(d.settleAt) {
		return
	}
	d.settleAt = time.Time{}
	d.cfg.DensityDissipation = d.cfg.SettleDissipation
	Logger().Debug("fluid: dye settled", "dissipation", d.cfg.SettleDissipation)
}

// PointerDown starts tracking pointer id at canvas pixel (x, y).
func (d *Driver) PointerDown(id int, x, y float32) { d.pointers.Press(id, x, y) }

// PointerMove moves pointer id to canvas pixel (x, y).
func (d *Driver) PointerMove(id int, x, y float32) { d.pointers.Move(id, x, y) }

// PointerUp releases pointer id.
func (d *Driver) PointerUp(id int) { d.pointers.Release(id) }

// QueueSplats schedules a burst of n random splats. One queued burst is
// applied per frame.
func (d *Driver) QueueSplats(n int) {
	if n > 0 {
		d.splatQueue = append(d.splatQueue, n)
	}
}

// Burst queues a keyboard burst of 5 to 24 random splats.
func (d *Driver) Burst() {
	d.QueueSplats(5 + d.opts.rand.IntN(20))
}

// SetPaused stops or resumes simulation steps. Frames keep rendering.
func (d *Driver) SetPaused(paused bool) { d.cfg.Paused = paused }

// Paused reports whether simulation steps are stopped.
func (d *Driver) Paused() bool { return d.cfg.Paused }

// Activate unpauses the simulation and bursts the text into motion.
// After SettleDelay the density dissipation switches to
// SettleDissipation.
func (d *Driver) Activate() {
	d.cfg.Paused = false
	d.launchText()
	Logger().Info("fluid: activated")
}

// Restart seeds the dye with text and bursts it into motion. The pause
// state is left unchanged.
func (d *Driver) Restart(text string) {
	d.cfg.Text = text
	d.seedText(text)
	d.launchText()
}

func (d *Driver) seedText(text string) {
	if text == "" {
		d.mask = nil
		return
	}
	mask, err := d.sim.SeedText(text)
	if err != nil {
		Logger().Warn("fluid: text seed failed", "error", err)
		return
	}
	d.mask = mask
}

func (d *Driver) launchText() {
	n := d.sim.TextSplats(d.mask)
	d.settleAt = d.last.Add(time.Duration(d.cfg.SettleDelay))
	Logger().Debug("fluid: text splats", "count", n)
}

// Capture renders the current frame at CaptureResolution.
func (d *Driver) Capture() (*image.RGBA, error) {
	if d.closed {
		return nil, ErrClosed
	}
	return d.comp.Capture(d.cfg.CaptureResolution)
}

// ApplyConfig replaces the live config with next. Framebuffers are
// reallocated when a resolution changed and the text is re-seeded when
// it changed. The pause state is kept. Invalid configs are logged and
// ignored.
func (d *Driver) ApplyConfig(next *Config) {
	if err := next.Validate(); err != nil {
		Logger().Warn("fluid: config rejected", "error", err)
		return
	}
	realloc := d.cfg.needsRealloc(next)
	textChanged := next.Text != d.cfg.Text
	paused := d.cfg.Paused

	*d.cfg = *next
	d.cfg.Paused = paused
	if realloc {
		d.initFramebuffers()
	}
	if textChanged {
		d.seedText(next.Text)
	}
}

// Post queues fn to run on the driver's goroutine at the start of the
// next tick. It is safe for concurrent use.
func (d *Driver) Post(fn func(*Driver)) {
	d.mu.Lock()
	d.posted = append(d.posted, fn)
	d.mu.Unlock()
}

func (d *Driver) drainPosted() {
	d.mu.Lock()
	posted := d.posted
	d.posted = nil
	d.mu.Unlock()
	for _, fn := range posted {
		fn(d)
	}
}

func (d *Driver) drainConfigs() {
	if d.opts.configs == nil {
		return
	}
	for {
		select {
		case next, ok := <-d.opts.configs:
			if !ok {
				d.opts.configs = nil
				return
			}
			d.ApplyConfig(next)
		default:
			return
		}
	}
}

// Close releases every GPU resource the driver created. The context
// itself stays owned by the caller. Close is idempotent.
func (d *Driver) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.comp.Destroy()
	d.sim.Destroy()
	if d.ownTick != nil {
		d.ownTick.Stop()
	}
	unregisterContext(d.ctx)
	Logger().Info("fluid: driver closed")
	return nil
}
