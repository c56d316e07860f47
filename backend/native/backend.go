package native

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/fluid/backend"
	"github.com/gogpu/fluid/gpucore"
)

func init() {
	backend.Register(backend.BackendNative, func() backend.Backend {
		return &Backend{}
	})
}

// Backend opens one HAL device and creates contexts sharing it.
type Backend struct {
	variants []gputypes.Backend
	dev      *Device
}

// NewBackend returns a backend that tries the given HAL backends in
// order. With none, [DefaultVariants] is used.
func NewBackend(variants ...gputypes.Backend) *Backend {
	return &Backend{variants: variants}
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return backend.BackendNative }

// Init opens the device. Calling Init again is a no-op.
func (b *Backend) Init() error {
	if b.dev != nil {
		return nil
	}
	dev, err := OpenDevice(b.variants...)
	if err != nil {
		return fmt.Errorf("%w: %w", backend.ErrBackendNotAvailable, err)
	}
	b.dev = dev
	return nil
}

// Close releases the device. Contexts must be destroyed first.
func (b *Backend) Close() {
	b.dev.Close()
	b.dev = nil
}

// Device returns the opened device, or nil before Init.
func (b *Backend) Device() *Device { return b.dev }

// NewContext creates a context with an offscreen drawing buffer.
func (b *Backend) NewContext(width, height int) (gpucore.Context, error) {
	if b.dev == nil {
		return nil, backend.ErrNotInitialized
	}
	return NewContext(b.dev, width, height)
}
