// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package fluidcanvas presents a fluid simulation inside a gogpu host.
//
// The simulation renders on its own [gpucore.Context]. Each Draw ticks
// the driver, captures the frame at the configured capture resolution and
// hands it to the host through the gpucontext texture interfaces: the
// texture is created once with a [gpucontext.TextureCreator] and updated
// in place when it implements [gpucontext.TextureUpdater].
//
// Example:
//
//	canvas, err := fluidcanvas.New(ctx, fluid.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer canvas.Close()
//	canvas.Attach(window) // pointer, scroll, key and resize events
//
//	app.OnDraw(func(dc *gogpu.Context) {
//	    canvas.Draw(dc.AsTextureDrawer())
//	})
//
// Event callbacks may run on any goroutine: they are posted to the driver
// and applied at the start of the next Draw.
package fluidcanvas
