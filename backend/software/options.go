package software

import "github.com/gogpu/fluid/gpucore"

// MaxTextureSize is the largest texture dimension the context accepts.
const MaxTextureSize = 8192

// Option configures a Context.
type Option func(*options)

type options struct {
	unsupported map[gpucore.TextureFormat]bool
	noLinear    bool
	workers     int
}

// WithUnsupportedFormats makes CreateTexture reject the given formats,
// emulating devices without (for example) single-channel render targets.
func WithUnsupportedFormats(formats ...gpucore.TextureFormat) Option {
	return func(o *options) {
		if o.unsupported == nil {
			o.unsupported = make(map[gpucore.TextureFormat]bool)
		}
		for _, f := range formats {
			o.unsupported[f] = true
		}
	}
}

// WithoutLinearFiltering reports float linear filtering as unsupported
// and samples every float texture with nearest filtering.
func WithoutLinearFiltering() Option {
	return func(o *options) {
		o.noLinear = true
	}
}

// WithWorkers sets the number of rasterization workers.
// Zero or negative uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}
