package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gogpu/fluid"
	"github.com/gogpu/fluid/backend/opengl"
)

var errWindowClosed = errors.New("window closed")

// windowFrames paces the driver by the window: every frame after the
// first swaps buffers, then input events are processed.
type windowFrames struct {
	win     *glfw.Window
	started bool
}

func (f *windowFrames) Next(ctx context.Context) error {
	if f.started {
		f.win.SwapBuffers()
	}
	f.started = true
	glfw.PollEvents()
	if f.win.ShouldClose() {
		return errWindowClosed
	}
	return ctx.Err()
}

// runInteractive opens a window and renders into its default
// framebuffer until it is closed.
func runInteractive(o runOptions, cfg *fluid.Config) error {
	win, err := opengl.OpenWindow(opengl.WindowOptions{
		Width:   o.width,
		Height:  o.height,
		Title:   "fluid",
		Visible: true,
	})
	if err != nil {
		return err
	}
	defer glfw.Terminate()
	defer win.Destroy()
	glfw.SwapInterval(1)

	fw, fh := win.GetFramebufferSize()
	ctx, err := opengl.NewWindowContext(fw, fh)
	if err != nil {
		return fmt.Errorf("opengl context: %w", err)
	}
	defer ctx.Destroy()

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := []fluid.Option{
		fluid.WithFrameSource(&windowFrames{win: win}),
		fluid.WithSizeFunc(win.GetFramebufferSize),
	}
	if o.config != "" {
		cw, err := fluid.WatchConfig(runCtx, o.config, fluid.DefaultDebounce)
		if err != nil {
			return err
		}
		defer cw.Close()
		opts = append(opts, fluid.WithConfigUpdates(cw.Updates()))
	}

	d, err := fluid.NewDriver(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	defer d.Close()
	bindInput(win, d)

	if err := d.Run(runCtx); !errors.Is(err, errWindowClosed) {
		return err
	}
	return nil
}

// bindInput maps window input to the driver. GLFW runs the callbacks
// inside PollEvents, on the driver's goroutine.
func bindInput(win *glfw.Window, d *fluid.Driver) {
	// Cursor positions are in screen coordinates; the canvas is in
	// framebuffer pixels.
	toCanvas := func(x, y float64) (float32, float32) {
		ww, wh := win.GetSize()
		fw, fh := win.GetFramebufferSize()
		if ww == 0 || wh == 0 {
			return float32(x), float32(y)
		}
		return float32(x * float64(fw) / float64(ww)), float32(y * float64(fh) / float64(wh))
	}

	win.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		switch action {
		case glfw.Press:
			x, y := toCanvas(w.GetCursorPos())
			d.PointerDown(0, x, y)
		case glfw.Release:
			d.PointerUp(0)
		}
	})
	win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		cx, cy := toCanvas(x, y)
		d.PointerMove(0, cx, cy)
	})
	win.SetScrollCallback(func(*glfw.Window, float64, float64) {
		d.Activate()
	})
	win.SetKeyCallback(func(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeySpace:
			d.Burst()
		case glfw.KeyP:
			d.SetPaused(!d.Paused())
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		}
	})
}
