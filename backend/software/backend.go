package software

import (
	"github.com/gogpu/fluid/backend"
	"github.com/gogpu/fluid/gpucore"
)

func init() {
	backend.Register(backend.BackendSoftware, func() backend.Backend {
		return &Backend{}
	})
}

// Backend creates software contexts. It is always available.
type Backend struct {
	initialized bool
	opts        []Option
}

// NewBackend returns a backend whose contexts use opts.
func NewBackend(opts ...Option) *Backend {
	return &Backend{opts: opts}
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return backend.BackendSoftware }

// Init marks the backend ready.
func (b *Backend) Init() error {
	b.initialized = true
	return nil
}

// Close marks the backend closed. Contexts stay valid until destroyed.
func (b *Backend) Close() { b.initialized = false }

// NewContext creates a context with a drawing buffer of the given size.
func (b *Backend) NewContext(width, height int) (gpucore.Context, error) {
	if !b.initialized {
		return nil, backend.ErrNotInitialized
	}
	return New(width, height, b.opts...), nil
}
