// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpucore

// Context is the GPU surface the fluid solver renders through.
//
// The model is deliberately close to a core OpenGL context: textures are
// attached to framebuffers, programs are made current with UseProgram,
// uniforms are set on the current program, and every draw targets the
// currently bound framebuffer. Backends translate this model to their
// native API (software rasterizer, WebGPU HAL, OpenGL).
//
// A Context is owned by one goroutine. Draw submission is asynchronous:
// operations are recorded in submission order and Flush hands the
// accumulated work to the device without waiting for completion.
type Context interface {
	// Name returns the backend identifier (e.g., "software", "native").
	Name() string

	// ShaderLanguage returns the language CompileShader accepts.
	ShaderLanguage() ShaderLanguage

	// Capabilities reports optional features.
	Capabilities() Capabilities

	// CreateTexture allocates a texture. It returns an error when the
	// format or size is not supported, which is how callers probe formats.
	CreateTexture(desc TextureDescriptor) (TextureID, error)

	// WriteTexture uploads RGBA8 pixels into an RGBA8Unorm texture.
	// Rows are ordered bottom to top, matching the framebuffer origin.
	WriteTexture(tex TextureID, data []byte) error

	// DestroyTexture releases a texture. Unknown IDs are ignored.
	DestroyTexture(tex TextureID)

	// BindTexture binds tex to the numbered sampling unit.
	BindTexture(unit int, tex TextureID)

	// CreateFramebuffer creates a framebuffer rendering into tex.
	CreateFramebuffer(tex TextureID) (FramebufferID, error)

	// DestroyFramebuffer releases a framebuffer. The attached texture
	// is not destroyed.
	DestroyFramebuffer(fb FramebufferID)

	// BindFramebuffer selects the render destination for subsequent
	// Clear and Draw calls. InvalidID selects the drawing buffer.
	BindFramebuffer(fb FramebufferID)

	// Viewport sets the destination rectangle in pixels.
	Viewport(x, y, width, height int)

	// Clear fills the bound framebuffer with c.
	Clear(c Color)

	// CompileShader compiles one stage. On failure the returned ID may
	// still be valid (a best-effort object) and the error carries the
	// compiler diagnostics.
	CompileShader(stage ShaderStage, label, source string) (ShaderID, error)

	// DestroyShader releases a shader.
	DestroyShader(id ShaderID)

	// LinkProgram links a vertex and fragment shader. On failure the
	// returned ID may still be valid but the program draws nothing.
	LinkProgram(label string, vs, fs ShaderID) (ProgramID, error)

	// DestroyProgram releases a program.
	DestroyProgram(id ProgramID)

	// ActiveUniforms reflects the uniforms used by a linked program.
	ActiveUniforms(p ProgramID) []UniformInfo

	// UseProgram makes p the current program.
	UseProgram(p ProgramID)

	// Uniform setters apply to the current program.
	Uniform1i(loc UniformLocation, v int32)
	Uniform1f(loc UniformLocation, x float32)
	Uniform2f(loc UniformLocation, x, y float32)
	Uniform3f(loc UniformLocation, x, y, z float32)
	Uniform4f(loc UniformLocation, x, y, z, w float32)

	// SetBlend selects the blend equation for subsequent draws.
	SetBlend(mode BlendMode)

	// CreateVertexBuffer uploads 2D positions (x, y pairs).
	CreateVertexBuffer(data []float32) (BufferID, error)

	// CreateIndexBuffer uploads triangle-list indices.
	CreateIndexBuffer(data []uint16) (BufferID, error)

	// DestroyBuffer releases a vertex or index buffer.
	DestroyBuffer(id BufferID)

	// BindVertexBuffer and BindIndexBuffer select the geometry for DrawIndexed.
	BindVertexBuffer(id BufferID)
	BindIndexBuffer(id BufferID)

	// DrawIndexed draws count indices as a triangle list with the current
	// program, textures, blend mode and framebuffer.
	DrawIndexed(count int)

	// DrawingBufferSize returns the size of the drawing buffer in pixels.
	DrawingBufferSize() (width, height int)

	// ResizeDrawingBuffer changes the drawing buffer size. Windowed
	// backends record the size chosen by the window system.
	ResizeDrawingBuffer(width, height int)

	// ReadPixels reads the whole framebuffer as RGBA float32 values,
	// bottom row first. It waits for outstanding work to finish.
	ReadPixels(fb FramebufferID, width, height int) ([]float32, error)

	// Flush submits recorded work. It does not wait for completion.
	Flush() error

	// Destroy releases the context and everything it still owns.
	Destroy()
}
