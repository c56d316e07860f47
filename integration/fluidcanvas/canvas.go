// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package fluidcanvas

import (
	"errors"
	"fmt"
	"image"
	"sync/atomic"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/fluid"
	"github.com/gogpu/fluid/gpucore"
)

// Common errors returned by Canvas operations.
var (
	// ErrCanvasClosed is returned when operations are attempted on a closed canvas.
	ErrCanvasClosed = errors.New("fluidcanvas: canvas is closed")

	// ErrNilDrawer is returned when Draw is called without a texture drawer.
	ErrNilDrawer = errors.New("fluidcanvas: nil TextureDrawer")

	// ErrNoTextureCreator is returned when the drawer cannot create textures.
	ErrNoTextureCreator = errors.New("fluidcanvas: drawer has no TextureCreator")
)

// textureDestroyer matches the Destroy method of host textures.
type textureDestroyer interface {
	Destroy()
}

// Canvas drives a fluid simulation and presents its frames as a host
// texture.
//
// Draw, Present and Close must be called from the goroutine that owns
// the context.
type Canvas struct {
	driver *fluid.Driver

	// width and height are the host size reported by Resize. The driver
	// reads them through its size function at the start of every tick.
	width  atomic.Int64
	height atomic.Int64

	texture       gpucontext.Texture
	textureWidth  int
	textureHeight int
	closed        bool
}

// New creates a driver on ctx and wraps it. The canvas follows the size
// passed to Resize, starting from the context's drawing buffer size.
// The context stays owned by the caller.
func New(ctx gpucore.Context, cfg *fluid.Config, opts ...fluid.Option) (*Canvas, error) {
	if ctx == nil {
		return nil, fluid.ErrNoContext
	}
	c := &Canvas{}
	w, h := ctx.DrawingBufferSize()
	c.width.Store(int64(w))
	c.height.Store(int64(h))

	opts = append(opts[:len(opts):len(opts)], fluid.WithSizeFunc(c.Size))
	d, err := fluid.NewDriver(ctx, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("fluidcanvas: %w", err)
	}
	c.driver = d
	return c, nil
}

// Driver returns the wrapped driver.
func (c *Canvas) Driver() *fluid.Driver { return c.driver }

// Size returns the host size in pixels. It is safe for concurrent use.
func (c *Canvas) Size() (width, height int) {
	return int(c.width.Load()), int(c.height.Load())
}

// Resize records a new host size. The simulation reallocates its
// framebuffers on the next Draw. It is safe for concurrent use.
func (c *Canvas) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.width.Store(int64(width))
	c.height.Store(int64(height))
}

// Texture returns the host texture of the last presented frame, or nil.
func (c *Canvas) Texture() gpucontext.Texture { return c.texture }

// Draw ticks the simulation once and presents the frame at (0, 0).
func (c *Canvas) Draw(dc gpucontext.TextureDrawer) error {
	return c.DrawAt(dc, 0, 0)
}

// DrawAt ticks the simulation once and presents the frame at (x, y).
func (c *Canvas) DrawAt(dc gpucontext.TextureDrawer, x, y float32) error {
	if c.closed {
		return ErrCanvasClosed
	}
	c.driver.Tick()
	return c.Present(dc, x, y)
}

// Present captures the current frame without stepping and draws it at
// (x, y).
func (c *Canvas) Present(dc gpucontext.TextureDrawer, x, y float32) error {
	if c.closed {
		return ErrCanvasClosed
	}
	if dc == nil {
		return ErrNilDrawer
	}
	img, err := c.driver.Capture()
	if err != nil {
		return fmt.Errorf("fluidcanvas: %w", err)
	}
	if err := c.upload(dc, img); err != nil {
		return err
	}
	return dc.DrawTexture(c.texture, x, y)
}

// upload updates the host texture in place when its size is unchanged
// and it supports updates, and recreates it otherwise.
func (c *Canvas) upload(dc gpucontext.TextureDrawer, img *image.RGBA) error {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if c.texture != nil && w == c.textureWidth && h == c.textureHeight {
		if updater, ok := c.texture.(gpucontext.TextureUpdater); ok {
			if err := updater.UpdateData(img.Pix); err != nil {
				return fmt.Errorf("fluidcanvas: texture update failed: %w", err)
			}
			return nil
		}
	}

	creator := dc.TextureCreator()
	if creator == nil {
		return ErrNoTextureCreator
	}
	tex, err := creator.NewTextureFromRGBA(w, h, img.Pix)
	if err != nil {
		return fmt.Errorf("fluidcanvas: NewTextureFromRGBA failed: %w", err)
	}
	c.destroyTexture()
	c.texture = tex
	c.textureWidth, c.textureHeight = w, h
	return nil
}

func (c *Canvas) destroyTexture() {
	if d, ok := c.texture.(textureDestroyer); ok {
		d.Destroy()
	}
	c.texture = nil
}

// Close releases the host texture and the driver. Close is idempotent.
func (c *Canvas) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.destroyTexture()
	return c.driver.Close()
}
