// Package backend provides a pluggable GPU backend registry.
//
// A backend turns a device (CPU, WebGPU HAL, OpenGL) into
// [gpucore.Context] values the fluid solver renders through.
//
// # Backend Registration
//
// Backends register themselves from init() functions. Import the ones
// you want linked in:
//
//	import (
//		_ "github.com/gogpu/fluid/backend/native"
//		_ "github.com/gogpu/fluid/backend/software"
//	)
//
// # Backend Selection
//
// Use InitDefault() to initialize the best backend that works on this
// machine, or Open() to request a specific backend by name:
//
//	b, err := backend.InitDefault()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer b.Close()
//
//	ctx, err := b.NewContext(800, 600)
//
// # Available Backends
//
//   - "native": Pure Go WebGPU via gogpu/wgpu HAL
//   - "opengl": OpenGL 4.1 core via go-gl
//   - "software": CPU reference implementation (always available)
package backend
