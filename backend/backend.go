package backend

import (
	"errors"

	"github.com/gogpu/fluid/gpucore"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")
)

// Backend name constants.
const (
	// BackendSoftware is the name of the CPU reference backend.
	BackendSoftware = "software"
	// BackendNative is the name of the Pure Go WebGPU backend (gogpu/wgpu).
	BackendNative = "native"
	// BackendOpenGL is the name of the OpenGL 4.1 core backend.
	BackendOpenGL = "opengl"
)

// Backend produces GPU contexts the fluid solver renders through.
//
// Backends must be registered via Register() and are selected via
// Get() or Default().
type Backend interface {
	// Name returns the backend identifier (e.g., "software", "native").
	Name() string

	// Init acquires the device. It must be called before NewContext.
	Init() error

	// Close releases the device.
	// The backend should not be used after Close is called.
	Close()

	// NewContext creates a context whose drawing buffer has the given size.
	NewContext(width, height int) (gpucore.Context, error)
}
