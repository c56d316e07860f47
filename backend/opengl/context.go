package opengl

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/gogpu/fluid/gpucore"
)

// maxUnits is the number of texture sampling units.
const maxUnits = 16

type texture struct {
	desc gpucore.TextureDescriptor
	name uint32
}

type framebuffer struct {
	name uint32
	tex  *texture
}

type buffer struct {
	name   uint32
	target uint32
	count  int
}

// Context implements [gpucore.Context] on the current OpenGL context.
//
// Context is not safe for concurrent use.
type Context struct {
	nextID       uint64
	textures     map[gpucore.TextureID]*texture
	framebuffers map[gpucore.FramebufferID]*framebuffer
	shaders      map[gpucore.ShaderID]*shaderObject
	programs     map[gpucore.ProgramID]*program
	buffers      map[gpucore.BufferID]*buffer

	// window reports that InvalidID addresses GL framebuffer 0.
	window  bool
	drawing framebuffer
	width   int
	height  int

	vao      uint32
	maxSize  int
	bound    gpucore.FramebufferID
	current  gpucore.ProgramID
	blend    gpucore.BlendMode
	vbo, ibo gpucore.BufferID

	draws     int
	flushes   int
	destroyed bool
}

var _ gpucore.Context = (*Context)(nil)

// NewContext creates a context on the GL context current on this thread,
// with an offscreen drawing buffer of the given size.
func NewContext(width, height int) (*Context, error) {
	return newContext(width, height, false)
}

// NewWindowContext creates a context whose drawing buffer is the default
// framebuffer of the current window. width and height must follow the
// window's framebuffer size through ResizeDrawingBuffer.
func NewWindowContext(width, height int) (*Context, error) {
	return newContext(width, height, true)
}

func newContext(width, height int, window bool) (*Context, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("opengl: load functions: %w", err)
	}
	c := &Context{
		textures:     make(map[gpucore.TextureID]*texture),
		framebuffers: make(map[gpucore.FramebufferID]*framebuffer),
		shaders:      make(map[gpucore.ShaderID]*shaderObject),
		programs:     make(map[gpucore.ProgramID]*program),
		buffers:      make(map[gpucore.BufferID]*buffer),
		window:       window,
	}
	var maxSize int32
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &maxSize)
	c.maxSize = int(maxSize)
	gl.GenVertexArrays(1, &c.vao)
	gl.BindVertexArray(c.vao)
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.BLEND)

	if err := c.resizeDrawing(max(width, 1), max(height, 1)); err != nil {
		c.Destroy()
		return nil, err
	}
	c.Viewport(0, 0, c.width, c.height)
	slogger().Debug("opengl: context created",
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)),
		"version", gl.GoStr(gl.GetString(gl.VERSION)),
		"window", window)
	return c, nil
}

func (c *Context) id() uint64 {
	c.nextID++
	return c.nextID
}

// Name returns "opengl".
func (c *Context) Name() string { return "opengl" }

// ShaderLanguage returns GLSL.
func (c *Context) ShaderLanguage() gpucore.ShaderLanguage { return gpucore.ShaderLanguageGLSL }

// Capabilities reports linear filtering of float textures, which is core
// in OpenGL 4.1.
func (c *Context) Capabilities() gpucore.Capabilities {
	return gpucore.Capabilities{FloatLinearFiltering: true, MaxTextureSize: c.maxSize}
}

// SetLogger configures the package logger.
func (c *Context) SetLogger(l *slog.Logger) { SetLogger(l) }

// Live returns the number of live objects of each kind.
func (c *Context) Live() gpucore.Resources {
	return gpucore.Resources{
		Textures:     len(c.textures),
		Framebuffers: len(c.framebuffers),
		Shaders:      len(c.shaders),
		Programs:     len(c.programs),
		Buffers:      len(c.buffers),
	}
}

// DrawCalls returns the number of draws issued so far.
func (c *Context) DrawCalls() int { return c.draws }

// Flushes returns the number of Flush calls so far.
func (c *Context) Flushes() int { return c.flushes }

// glError drains the GL error queue and reports the first error.
func glError(op string) error {
	var first uint32
	for e := gl.GetError(); e != gl.NO_ERROR; e = gl.GetError() {
		if first == 0 {
			first = e
		}
	}
	if first != 0 {
		return fmt.Errorf("opengl: %s: error %#x", op, first)
	}
	return nil
}

func clearErrors() {
	for gl.GetError() != gl.NO_ERROR {
	}
}

func (c *Context) allocTexture(desc gpucore.TextureDescriptor) (*texture, error) {
	f, ok := glFormats[desc.Format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, desc.Format)
	}
	if desc.Width <= 0 || desc.Height <= 0 || desc.Width > c.maxSize || desc.Height > c.maxSize {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, desc.Width, desc.Height)
	}
	clearErrors()

	t := &texture{desc: desc}
	gl.GenTextures(1, &t.name)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, t.name)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filterParam(desc.Filter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filterParam(desc.Filter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrapParam(desc.Address))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrapParam(desc.Address))
	gl.TexImage2D(gl.TEXTURE_2D, 0, f.internal, int32(desc.Width), int32(desc.Height), 0, f.format, f.xtype, nil)
	if err := glError("create texture " + desc.Label); err != nil {
		gl.DeleteTextures(1, &t.name)
		return nil, fmt.Errorf("%w: %s: %w", ErrUnsupportedFormat, desc.Format, err)
	}
	return t, nil
}

// CreateTexture allocates an uninitialized texture.
func (c *Context) CreateTexture(desc gpucore.TextureDescriptor) (gpucore.TextureID, error) {
	t, err := c.allocTexture(desc)
	if err != nil {
		return gpucore.InvalidID, err
	}
	id := gpucore.TextureID(c.id())
	c.textures[id] = t
	return id, nil
}

// WriteTexture uploads RGBA8 pixels, bottom row first.
func (c *Context) WriteTexture(tex gpucore.TextureID, data []byte) error {
	t, ok := c.textures[tex]
	if !ok {
		return fmt.Errorf("opengl: write texture %d: %w", tex, ErrUnknownResource)
	}
	if t.desc.Format != gpucore.TextureFormatRGBA8Unorm {
		return fmt.Errorf("opengl: write texture %d: %w: %s", tex, ErrUnsupportedFormat, t.desc.Format)
	}
	if want := t.desc.Width * t.desc.Height * 4; len(data) != want {
		return fmt.Errorf("opengl: write texture %d: got %d bytes, want %d", tex, len(data), want)
	}
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, t.name)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(t.desc.Width), int32(t.desc.Height),
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(data))
	return glError(fmt.Sprintf("write texture %d", tex))
}

// DestroyTexture deletes a texture. Framebuffers rendering into it stay
// allocated but become incomplete.
func (c *Context) DestroyTexture(tex gpucore.TextureID) {
	t, ok := c.textures[tex]
	if !ok {
		return
	}
	gl.DeleteTextures(1, &t.name)
	delete(c.textures, tex)
}

// BindTexture binds tex to a sampling unit. Unknown IDs unbind the unit.
func (c *Context) BindTexture(unit int, tex gpucore.TextureID) {
	if unit < 0 || unit >= maxUnits {
		return
	}
	var name uint32
	if t, ok := c.textures[tex]; ok {
		name = t.name
	}
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, name)
}

func attach(fb *framebuffer) error {
	gl.GenFramebuffers(1, &fb.name)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.name)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, fb.tex.name, 0)
	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		gl.DeleteFramebuffers(1, &fb.name)
		fb.name = 0
		return fmt.Errorf("%w: %s: status %#x", ErrIncompleteFramebuffer, fb.tex.desc.Format, status)
	}
	return nil
}

// CreateFramebuffer creates a framebuffer rendering into tex. Formats
// that are not color-renderable report ErrIncompleteFramebuffer.
func (c *Context) CreateFramebuffer(tex gpucore.TextureID) (gpucore.FramebufferID, error) {
	t, ok := c.textures[tex]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("opengl: framebuffer: texture %d: %w", tex, ErrUnknownResource)
	}
	fb := &framebuffer{tex: t}
	err := attach(fb)
	c.rebind()
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("opengl: framebuffer: texture %d: %w", tex, err)
	}
	id := gpucore.FramebufferID(c.id())
	c.framebuffers[id] = fb
	return id, nil
}

// DestroyFramebuffer deletes a framebuffer. The texture stays alive.
func (c *Context) DestroyFramebuffer(id gpucore.FramebufferID) {
	fb, ok := c.framebuffers[id]
	if !ok {
		return
	}
	gl.DeleteFramebuffers(1, &fb.name)
	delete(c.framebuffers, id)
	if c.bound == id {
		c.bound = gpucore.InvalidID
		c.rebind()
	}
}

// glFramebuffer returns the GL name behind id.
func (c *Context) glFramebuffer(id gpucore.FramebufferID) (uint32, bool) {
	if id == gpucore.InvalidID {
		return c.drawing.name, true
	}
	fb, ok := c.framebuffers[id]
	if !ok {
		return 0, false
	}
	return fb.name, true
}

func (c *Context) rebind() {
	name, _ := c.glFramebuffer(c.bound)
	gl.BindFramebuffer(gl.FRAMEBUFFER, name)
}

// BindFramebuffer selects the render destination.
func (c *Context) BindFramebuffer(fb gpucore.FramebufferID) {
	c.bound = fb
	c.rebind()
}

// Viewport sets the destination rectangle.
func (c *Context) Viewport(x, y, width, height int) {
	gl.Viewport(int32(x), int32(y), int32(width), int32(height))
}

// Clear fills the whole bound framebuffer.
func (c *Context) Clear(col gpucore.Color) {
	gl.ClearColor(col.R, col.G, col.B, col.A)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

// CompileShader compiles a GLSL stage with the driver compiler.
func (c *Context) CompileShader(stage gpucore.ShaderStage, label, source string) (gpucore.ShaderID, error) {
	s := compileShader(stage, label, source)
	id := gpucore.ShaderID(c.id())
	c.shaders[id] = s
	return id, s.err
}

// DestroyShader deletes a shader.
func (c *Context) DestroyShader(id gpucore.ShaderID) {
	if s, ok := c.shaders[id]; ok {
		gl.DeleteShader(s.name)
		delete(c.shaders, id)
	}
}

// LinkProgram links two compiled stages.
func (c *Context) LinkProgram(label string, vs, fs gpucore.ShaderID) (gpucore.ProgramID, error) {
	p, err := linkProgram(label, c.shaders[vs], c.shaders[fs])
	id := gpucore.ProgramID(c.id())
	c.programs[id] = p
	return id, err
}

// DestroyProgram deletes a program.
func (c *Context) DestroyProgram(id gpucore.ProgramID) {
	p, ok := c.programs[id]
	if !ok {
		return
	}
	if p.name != 0 {
		gl.DeleteProgram(p.name)
	}
	delete(c.programs, id)
	if c.current == id {
		c.current = gpucore.InvalidID
	}
}

// ActiveUniforms returns the uniforms GL reports as active.
func (c *Context) ActiveUniforms(id gpucore.ProgramID) []gpucore.UniformInfo {
	p, ok := c.programs[id]
	if !ok {
		return nil
	}
	return append([]gpucore.UniformInfo(nil), p.uniforms...)
}

// UseProgram makes p current. Unlinked programs are recorded but not
// installed, so draws with them are skipped.
func (c *Context) UseProgram(id gpucore.ProgramID) {
	c.current = id
	if p, ok := c.programs[id]; ok && p.linked {
		gl.UseProgram(p.name)
		return
	}
	gl.UseProgram(0)
}

// usable reports whether a uniform can be set on the current program.
func (c *Context) usable(loc gpucore.UniformLocation) bool {
	if loc < 0 {
		return false
	}
	p, ok := c.programs[c.current]
	return ok && p.linked
}

// Uniform1i sets an int or sampler uniform.
func (c *Context) Uniform1i(loc gpucore.UniformLocation, v int32) {
	if c.usable(loc) {
		gl.Uniform1i(int32(loc), v)
	}
}

// Uniform1f sets a float uniform.
func (c *Context) Uniform1f(loc gpucore.UniformLocation, x float32) {
	if c.usable(loc) {
		gl.Uniform1f(int32(loc), x)
	}
}

// Uniform2f sets a vec2 uniform.
func (c *Context) Uniform2f(loc gpucore.UniformLocation, x, y float32) {
	if c.usable(loc) {
		gl.Uniform2f(int32(loc), x, y)
	}
}

// Uniform3f sets a vec3 uniform.
func (c *Context) Uniform3f(loc gpucore.UniformLocation, x, y, z float32) {
	if c.usable(loc) {
		gl.Uniform3f(int32(loc), x, y, z)
	}
}

// Uniform4f sets a vec4 uniform.
func (c *Context) Uniform4f(loc gpucore.UniformLocation, x, y, z, w float32) {
	if c.usable(loc) {
		gl.Uniform4f(int32(loc), x, y, z, w)
	}
}

// SetBlend selects the blend equation.
func (c *Context) SetBlend(mode gpucore.BlendMode) {
	if mode == c.blend {
		return
	}
	c.blend = mode
	src, dst, enabled := blendFactors(mode)
	if !enabled {
		gl.Disable(gl.BLEND)
		return
	}
	gl.Enable(gl.BLEND)
	gl.BlendFunc(src, dst)
}

func (c *Context) createBuffer(target uint32, count, size int, data any) gpucore.BufferID {
	b := &buffer{target: target, count: count}
	gl.GenBuffers(1, &b.name)
	gl.BindBuffer(target, b.name)
	if size > 0 {
		gl.BufferData(target, size, gl.Ptr(data), gl.STATIC_DRAW)
	}
	id := gpucore.BufferID(c.id())
	c.buffers[id] = b
	return id
}

// CreateVertexBuffer uploads 2D positions.
func (c *Context) CreateVertexBuffer(data []float32) (gpucore.BufferID, error) {
	if len(data)%2 != 0 {
		return gpucore.InvalidID, fmt.Errorf("opengl: vertex buffer: odd component count %d", len(data))
	}
	return c.createBuffer(gl.ARRAY_BUFFER, len(data)/2, len(data)*4, data), nil
}

// CreateIndexBuffer uploads triangle-list indices.
func (c *Context) CreateIndexBuffer(data []uint16) (gpucore.BufferID, error) {
	return c.createBuffer(gl.ELEMENT_ARRAY_BUFFER, len(data), len(data)*2, data), nil
}

// DestroyBuffer deletes a buffer.
func (c *Context) DestroyBuffer(id gpucore.BufferID) {
	if b, ok := c.buffers[id]; ok {
		gl.DeleteBuffers(1, &b.name)
		delete(c.buffers, id)
	}
}

// BindVertexBuffer selects the vertex buffer.
func (c *Context) BindVertexBuffer(id gpucore.BufferID) { c.vbo = id }

// BindIndexBuffer selects the index buffer.
func (c *Context) BindIndexBuffer(id gpucore.BufferID) { c.ibo = id }

// DrawIndexed draws count indices as a triangle list.
func (c *Context) DrawIndexed(count int) {
	p, ok := c.programs[c.current]
	if !ok || !p.linked {
		return
	}
	vb, ib := c.buffers[c.vbo], c.buffers[c.ibo]
	if vb == nil || ib == nil {
		return
	}
	if _, ok := c.glFramebuffer(c.bound); !ok {
		return
	}
	count = min(count, ib.count)

	gl.BindVertexArray(c.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, vb.name)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, 8, 0)
	gl.EnableVertexAttribArray(0)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ib.name)
	gl.DrawElementsWithOffset(gl.TRIANGLES, int32(count), gl.UNSIGNED_SHORT, 0)
	c.draws++
}

// DrawingBufferSize returns the drawing buffer size.
func (c *Context) DrawingBufferSize() (width, height int) {
	return c.width, c.height
}

// ResizeDrawingBuffer reallocates the offscreen drawing buffer, losing
// its contents. Window contexts only record the size.
func (c *Context) ResizeDrawingBuffer(width, height int) {
	width, height = max(width, 1), max(height, 1)
	if width == c.width && height == c.height {
		return
	}
	if err := c.resizeDrawing(width, height); err != nil {
		slogger().Warn("opengl: resize drawing buffer", "width", width, "height", height, "error", err)
	}
}

func (c *Context) resizeDrawing(width, height int) error {
	c.width, c.height = width, height
	if c.window {
		return nil
	}
	c.releaseDrawing()
	t, err := c.allocTexture(gpucore.TextureDescriptor{
		Label:  "drawing buffer",
		Width:  width,
		Height: height,
		Format: gpucore.TextureFormatRGBA8Unorm,
	})
	if err != nil {
		return err
	}
	c.drawing = framebuffer{tex: t}
	err = attach(&c.drawing)
	if err != nil {
		c.releaseDrawing()
	}
	c.rebind()
	return err
}

func (c *Context) releaseDrawing() {
	if c.drawing.name != 0 {
		gl.DeleteFramebuffers(1, &c.drawing.name)
	}
	if c.drawing.tex != nil {
		gl.DeleteTextures(1, &c.drawing.tex.name)
	}
	c.drawing = framebuffer{}
}

// ReadPixels returns the lower-left width×height region as RGBA floats.
// Channels the format lacks read as 0, alpha as 1.
func (c *Context) ReadPixels(fb gpucore.FramebufferID, width, height int) ([]float32, error) {
	name, ok := c.glFramebuffer(fb)
	if !ok {
		return nil, fmt.Errorf("opengl: read pixels %d: %w", fb, ErrUnknownResource)
	}
	w, h := c.width, c.height
	if fb != gpucore.InvalidID {
		d := c.framebuffers[fb].tex.desc
		w, h = d.Width, d.Height
	}
	if width <= 0 || height <= 0 || width > w || height > h {
		return nil, fmt.Errorf("opengl: read pixels %dx%d from %dx%d: %w", width, height, w, h, ErrInvalidSize)
	}

	out := make([]float32, width*height*4)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, name)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 4)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.FLOAT, gl.Ptr(out))
	c.rebind()
	if err := glError(fmt.Sprintf("read pixels %d", fb)); err != nil {
		return nil, err
	}
	return out, nil
}

// Flush hands queued commands to the driver without waiting.
func (c *Context) Flush() error {
	c.flushes++
	gl.Flush()
	return glError("flush")
}

// Destroy deletes everything the context still owns. The GL context
// itself belongs to the caller.
func (c *Context) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	if n := c.Live().Total(); n > 0 {
		slogger().Debug("opengl: destroying context with live objects", "count", n)
	}
	for id := range c.framebuffers {
		c.DestroyFramebuffer(id)
	}
	for id := range c.textures {
		c.DestroyTexture(id)
	}
	for id := range c.programs {
		c.DestroyProgram(id)
	}
	for id := range c.shaders {
		c.DestroyShader(id)
	}
	for id := range c.buffers {
		c.DestroyBuffer(id)
	}
	c.releaseDrawing()
	if c.vao != 0 {
		gl.DeleteVertexArrays(1, &c.vao)
		c.vao = 0
	}
	gl.UseProgram(0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}
