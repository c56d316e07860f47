// Package gpucore defines the GPU context abstraction used by the fluid
// solver.
//
// The solver is written once against [Context], while backends translate
// the calls to a concrete API:
//
//	               +-----------------+
//	               |      fluid      |
//	               | (passes, blits) |
//	               +--------+--------+
//	                        |
//	         +--------------+--------------+--------------+
//	         |                             |              |
//	+--------v--------+          +--------v--------+ +---v-------------+
//	| backend/native  |          | backend/opengl  | |backend/software |
//	|  (wgpu hal)     |          |  (go-gl 4.1)    | |  (CPU kernels)  |
//	+-----------------+          +-----------------+ +-----------------+
//
// # Resource Management
//
// GPU resources are managed via opaque IDs ([TextureID], [FramebufferID],
// [ProgramID], ...). Zero is never a valid resource; for framebuffers it
// addresses the drawing buffer. Backends are responsible for tracking the
// mapping between IDs and actual GPU resources and for releasing every
// resource still alive in [Context.Destroy].
//
// # Shaders
//
// Each backend compiles one [ShaderLanguage]. Sources are complete
// programs; keyword variants are produced by the caller with
// package shader before compilation. Uniforms are reflected after
// linking with [Context.ActiveUniforms] and addressed by
// [UniformLocation].
package gpucore
