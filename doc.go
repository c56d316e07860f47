// Package fluid renders a real-time, interactive 2D fluid simulation on
// the GPU.
//
// # Overview
//
// Dye is carried by a velocity field that is advanced every frame by a
// fixed sequence of full-screen passes: curl, vorticity confinement,
// divergence, a Jacobi pressure solve, gradient subtraction and
// semi-Lagrangian advection. Pointer movement and random bursts inject
// splats into both fields. The dye is composited to the drawing buffer
// with optional shading, bloom and sunrays.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/fluid"
//	    "github.com/gogpu/fluid/backend/software"
//	)
//
//	ctx := software.New(640, 360)
//	d, err := fluid.NewDriver(ctx, fluid.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer d.Close()
//
//	d.Activate()
//	d.QueueSplats(10)
//	for range 60 {
//	    d.Tick()
//	}
//	img, err := d.Capture()
//
// # Architecture
//
// Everything renders through a gpucore.Context. Backends live under
// backend/: software (CPU reference rasterizer), native (Pure Go WebGPU
// via gogpu/wgpu) and opengl (OpenGL 4.1 core). The package is organized
// into:
//   - Negotiate: probes render target formats and linear filtering
//   - Target, DoubleTarget: render targets and ping-pong pairs
//   - Program, Material: linked programs and keyword variants
//   - Blitter: the full-screen quad
//   - PointerTracker: normalized pointer state
//   - Simulation: the per-frame passes and splats
//   - Compositor: the display passes, bloom, sunrays and capture
//   - Driver: the frame loop
//
// # Coordinate System
//
// Texture space has its origin at the bottom-left corner, x to the
// right and y up. Pointer events use canvas pixels with the origin at
// the top-left corner and are converted by the PointerTracker.
//
// # Concurrency
//
// A Driver, its Config and its context belong to one goroutine. Use
// Driver.Post and WithConfigUpdates to hand work over from others.
package fluid
