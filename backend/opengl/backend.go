package opengl

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gogpu/fluid/backend"
	"github.com/gogpu/fluid/gpucore"
)

func init() {
	backend.Register(backend.BackendOpenGL, func() backend.Backend {
		return &Backend{}
	})
}

// Backend creates offscreen contexts on a hidden GLFW window.
type Backend struct {
	window *glfw.Window
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return backend.BackendOpenGL }

// Init locks the calling goroutine to its OS thread and creates a hidden
// window with an OpenGL 4.1 core context. It fails without a display.
func (b *Backend) Init() error {
	if b.window != nil {
		return nil
	}
	runtime.LockOSThread()
	win, err := OpenWindow(WindowOptions{Width: 1, Height: 1, Title: "fluid"})
	if err != nil {
		runtime.UnlockOSThread()
		return fmt.Errorf("%w: %w", backend.ErrBackendNotAvailable, err)
	}
	b.window = win
	slogger().Info("opengl: backend initialized")
	return nil
}

// Close destroys the hidden window and terminates GLFW. Contexts must be
// destroyed first.
func (b *Backend) Close() {
	if b.window == nil {
		return
	}
	b.window.Destroy()
	b.window = nil
	glfw.Terminate()
	runtime.UnlockOSThread()
}

// NewContext creates an offscreen context with a drawing buffer of the
// given size.
func (b *Backend) NewContext(width, height int) (gpucore.Context, error) {
	if b.window == nil {
		return nil, backend.ErrNotInitialized
	}
	b.window.MakeContextCurrent()
	return NewContext(width, height)
}
