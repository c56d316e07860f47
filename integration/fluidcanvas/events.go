// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package fluidcanvas

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/fluid"
)

// Attach routes host input into the simulation. src may implement any of
// gpucontext.PointerEventSource, gpucontext.ScrollEventSource and
// gpucontext.EventSource; it reports how many of them it does.
//
// Primary-button pointers drive splats, scrolling activates the text,
// the space bar queues a splat burst, P toggles pause and resize events
// resize the canvas.
func (c *Canvas) Attach(src any) int {
	n := 0
	if ps, ok := src.(gpucontext.PointerEventSource); ok {
		ps.OnPointer(c.HandlePointer)
		n++
	}
	if ss, ok := src.(gpucontext.ScrollEventSource); ok {
		ss.OnScrollEvent(c.HandleScroll)
		n++
	}
	if es, ok := src.(gpucontext.EventSource); ok {
		es.OnKeyPress(c.HandleKey)
		es.OnResize(c.Resize)
		n++
	}
	return n
}

// HandlePointer applies one pointer event on the next Draw.
func (c *Canvas) HandlePointer(ev gpucontext.PointerEvent) {
	id := ev.PointerID
	x, y := float32(ev.X), float32(ev.Y)
	switch ev.Type {
	case gpucontext.PointerDown:
		if ev.PointerType == gpucontext.PointerTypeMouse && ev.Button != gpucontext.ButtonLeft {
			return
		}
		c.driver.Post(func(d *fluid.Driver) { d.PointerDown(id, x, y) })
	case gpucontext.PointerMove:
		c.driver.Post(func(d *fluid.Driver) { d.PointerMove(id, x, y) })
	case gpucontext.PointerUp, gpucontext.PointerCancel:
		c.driver.Post(func(d *fluid.Driver) { d.PointerUp(id) })
	}
}

// HandleScroll activates the simulation on the next Draw.
func (c *Canvas) HandleScroll(gpucontext.ScrollEvent) {
	c.driver.Post((*fluid.Driver).Activate)
}

// HandleKey maps the space bar and P.
func (c *Canvas) HandleKey(key gpucontext.Key, _ gpucontext.Modifiers) {
	switch key {
	case gpucontext.KeySpace:
		c.driver.Post((*fluid.Driver).Burst)
	case gpucontext.KeyP:
		c.driver.Post(func(d *fluid.Driver) { d.SetPaused(!d.Paused()) })
	}
}
