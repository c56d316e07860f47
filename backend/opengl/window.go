package opengl

import (
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// WindowOptions configures [OpenWindow].
type WindowOptions struct {
	Width, Height int
	Title         string
	// Visible shows the window. Hidden windows only provide a context.
	Visible bool
}

// OpenWindow initializes GLFW, creates a window with an OpenGL 4.1 core
// forward-compatible context and makes that context current. The caller
// must be on a locked OS thread and call glfw.Terminate after destroying
// the window.
func OpenWindow(opts WindowOptions) (*glfw.Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("opengl: glfw init: %w", err)
	}
	glfw.DefaultWindowHints()
	visible := glfw.False
	if opts.Visible {
		visible = glfw.True
	}
	glfw.WindowHint(glfw.Visible, visible)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	w, h := max(opts.Width, 1), max(opts.Height, 1)
	win, err := glfw.CreateWindow(w, h, opts.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("opengl: create window: %w", err)
	}
	win.MakeContextCurrent()
	return win, nil
}
