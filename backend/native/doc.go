// Package native runs the fluid solver on the GPU through the gogpu/wgpu
// hardware abstraction layer.
//
// A [Context] records clears and draws and encodes them into one command
// buffer on Flush, one render pass per command. Uniform values are copied
// per draw into a uniform buffer owned by the submission, so a program can
// be drawn many times between flushes with different values.
//
// Textures are stored top row first, as WebGPU lays them out. WriteTexture
// and ReadPixels flip rows so callers keep the bottom-up framebuffer
// convention of [gpucore.Context], and the WGSL passes flip the v
// coordinate when sampling.
//
// HAL backends register themselves when imported:
//
//	import _ "github.com/gogpu/wgpu/hal/allbackends"
//
// Single-channel and two-channel 32-bit float formats are rejected: they
// are not filterable without an optional device feature, and the solver
// falls back to RGBA16Float.
package native
