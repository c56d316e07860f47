// Package opengl implements the fluid GPU context on OpenGL 4.1 core
// through go-gl.
//
// The context model maps one to one onto OpenGL: texture, framebuffer,
// shader, program and buffer IDs wrap GL object names, and uniform
// locations are the locations GL reports. Shaders are GLSL 4.10 sources
// compiled by the driver, so keyword #defines are resolved by the GL
// preprocessor.
//
// OpenGL contexts are bound to an OS thread. [Backend.Init] locks the
// calling goroutine to its thread and every context it creates must be
// used from that goroutine. On macOS that goroutine must be the main one.
//
// Contexts created with [NewContext] draw into an offscreen RGBA8 drawing
// buffer. [NewWindowContext] draws into the default framebuffer of the
// current window instead, for interactive hosts that swap buffers
// themselves.
package opengl
