package fluid

import (
	"math/rand/v2"
	"time"

	"github.com/gogpu/fluid/gpucore"
)

// Option configures a Driver or a Simulation.
//
// Example:
//
//	d, err := fluid.NewDriver(ctx, cfg,
//	    fluid.WithFrameSource(fluid.NewTicker(30)),
//	    fluid.WithRand(rand.New(rand.NewPCG(1, 2))))
type Option func(*options)

// options holds optional configuration for Driver and Simulation creation.
type options struct {
	clock    func() time.Time
	rand     *rand.Rand
	frames   FrameSource
	size     func() (width, height int)
	language *gpucore.ShaderLanguage
	configs  <-chan *Config
}

// defaultOptions returns the default options. The frame source and size
// function depend on the context and are filled in by NewDriver.
func defaultOptions() options {
	return options{
		clock: time.Now,
		rand:  rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock replaces time.Now as the source of frame timestamps.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithRand sets the random source used for splats and colors.
func WithRand(r *rand.Rand) Option {
	return func(o *options) {
		if r != nil {
			o.rand = r
		}
	}
}

// WithFrameSource sets what paces Driver.Run. The default is a 60 Hz
// ticker.
func WithFrameSource(fs FrameSource) Option {
	return func(o *options) {
		o.frames = fs
	}
}

// WithSizeFunc reports the current canvas size in pixels. The Driver
// resizes the drawing buffer and reallocates framebuffers when it
// changes. The default keeps the context's drawing buffer size.
func WithSizeFunc(size func() (width, height int)) Option {
	return func(o *options) {
		o.size = size
	}
}

// WithShaderLanguage overrides the language shader sources are loaded
// in. By default the context's ShaderLanguage is used.
func WithShaderLanguage(lang gpucore.ShaderLanguage) Option {
	return func(o *options) {
		o.language = &lang
	}
}

// WithConfigUpdates makes the Driver apply every config received on ch
// at the start of a tick, typically ConfigWatcher.Updates.
func WithConfigUpdates(ch <-chan *Config) Option {
	return func(o *options) {
		o.configs = ch
	}
}
