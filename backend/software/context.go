package software

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/fluid/gpucore"
	"github.com/gogpu/fluid/internal/parallel"
)

// maxUnits is the number of texture sampling units.
const maxUnits = 16

// Resources counts the live objects owned by a Context.
type Resources = gpucore.Resources

type buffer struct {
	vertices []float32
	indices  []uint16
}

type viewport struct {
	x, y, width, height int
}

// Context is a CPU implementation of [gpucore.Context].
//
// Programs are identified by their shader labels: the GLSL source is
// preprocessed and reflected for its uniforms, and the fragment stage runs
// the Go kernel registered for the label. Triangles are rasterized with
// pixel-center sampling and a top-left fill rule, so a full-screen quad
// covers every pixel exactly once.
//
// Context is not safe for concurrent use.
type Context struct {
	opts options
	pool *parallel.WorkerPool

	nextID       uint64
	textures     map[gpucore.TextureID]*texture
	framebuffers map[gpucore.FramebufferID]gpucore.TextureID
	shaders      map[gpucore.ShaderID]*shaderObject
	programs     map[gpucore.ProgramID]*program
	buffers      map[gpucore.BufferID]*buffer

	drawing  *texture
	units    [maxUnits]gpucore.TextureID
	bound    gpucore.FramebufferID
	viewport viewport
	current  gpucore.ProgramID
	blend    gpucore.BlendMode
	vbo, ibo gpucore.BufferID

	draws   int
	flushes int
}

var _ gpucore.Context = (*Context)(nil)

// New creates a software context with a drawing buffer of the given size.
func New(width, height int, opts ...Option) *Context {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	c := &Context{
		opts:         o,
		pool:         parallel.NewWorkerPool(o.workers),
		textures:     make(map[gpucore.TextureID]*texture),
		framebuffers: make(map[gpucore.FramebufferID]gpucore.TextureID),
		shaders:      make(map[gpucore.ShaderID]*shaderObject),
		programs:     make(map[gpucore.ProgramID]*program),
		buffers:      make(map[gpucore.BufferID]*buffer),
	}
	c.ResizeDrawingBuffer(width, height)
	c.viewport = viewport{0, 0, c.drawing.width, c.drawing.height}
	return c
}

func (c *Context) id() uint64 {
	c.nextID++
	return c.nextID
}

// Name returns "software".
func (c *Context) Name() string { return "software" }

// ShaderLanguage returns GLSL.
func (c *Context) ShaderLanguage() gpucore.ShaderLanguage { return gpucore.ShaderLanguageGLSL }

// Capabilities reports linear filtering unless disabled by an option.
func (c *Context) Capabilities() gpucore.Capabilities {
	return gpucore.Capabilities{
		FloatLinearFiltering: !c.opts.noLinear,
		MaxTextureSize:       MaxTextureSize,
	}
}

// SetLogger configures the package logger.
func (c *Context) SetLogger(l *slog.Logger) { SetLogger(l) }

// Live returns the number of live objects of each kind.
func (c *Context) Live() Resources {
	return Resources{
		Textures:     len(c.textures),
		Framebuffers: len(c.framebuffers),
		Shaders:      len(c.shaders),
		Programs:     len(c.programs),
		Buffers:      len(c.buffers),
	}
}

// DrawCalls returns the number of draws executed so far.
func (c *Context) DrawCalls() int { return c.draws }

// Flushes returns the number of Flush calls so far.
func (c *Context) Flushes() int { return c.flushes }

// CreateTexture allocates a zero-filled texture.
func (c *Context) CreateTexture(desc gpucore.TextureDescriptor) (gpucore.TextureID, error) {
	if desc.Format.Channels() == 0 || c.opts.unsupported[desc.Format] {
		return gpucore.InvalidID, fmt.Errorf("%w: %s", ErrUnsupportedFormat, desc.Format)
	}
	if desc.Width <= 0 || desc.Height <= 0 || desc.Width > MaxTextureSize || desc.Height > MaxTextureSize {
		return gpucore.InvalidID, fmt.Errorf("%w: %dx%d", ErrInvalidSize, desc.Width, desc.Height)
	}
	id := gpucore.TextureID(c.id())
	c.textures[id] = newTexture(desc)
	return id, nil
}

// WriteTexture uploads RGBA8 pixels, bottom row first.
func (c *Context) WriteTexture(tex gpucore.TextureID, data []byte) error {
	t, ok := c.textures[tex]
	if !ok {
		return fmt.Errorf("software: write texture %d: %w", tex, ErrUnknownResource)
	}
	if t.format != gpucore.TextureFormatRGBA8Unorm {
		return fmt.Errorf("software: write texture %d: %w: %s", tex, ErrUnsupportedFormat, t.format)
	}
	if want := t.width * t.height * 4; len(data) != want {
		return fmt.Errorf("software: write texture %d: got %d bytes, want %d", tex, len(data), want)
	}
	for i, b := range data {
		t.data[i] = float32(b) / 255
	}
	return nil
}

// DestroyTexture releases a texture and unbinds it from every unit.
func (c *Context) DestroyTexture(tex gpucore.TextureID) {
	delete(c.textures, tex)
	for i := range c.units {
		if c.units[i] == tex {
			c.units[i] = gpucore.InvalidID
		}
	}
}

// BindTexture binds tex to a sampling unit.
func (c *Context) BindTexture(unit int, tex gpucore.TextureID) {
	if unit < 0 || unit >= maxUnits {
		return
	}
	c.units[unit] = tex
}

// CreateFramebuffer creates a framebuffer rendering into tex.
func (c *Context) CreateFramebuffer(tex gpucore.TextureID) (gpucore.FramebufferID, error) {
	if _, ok := c.textures[tex]; !ok {
		return gpucore.InvalidID, fmt.Errorf("software: framebuffer: texture %d: %w", tex, ErrUnknownResource)
	}
	id := gpucore.FramebufferID(c.id())
	c.framebuffers[id] = tex
	return id, nil
}

// DestroyFramebuffer releases a framebuffer.
func (c *Context) DestroyFramebuffer(fb gpucore.FramebufferID) {
	delete(c.framebuffers, fb)
	if c.bound == fb {
		c.bound = gpucore.InvalidID
	}
}

// BindFramebuffer selects the render destination.
func (c *Context) BindFramebuffer(fb gpucore.FramebufferID) { c.bound = fb }

// Viewport sets the destination rectangle.
func (c *Context) Viewport(x, y, width, height int) {
	c.viewport = viewport{x, y, width, height}
}

// target returns the texture behind the bound framebuffer.
func (c *Context) target() *texture {
	if c.bound == gpucore.InvalidID {
		return c.drawing
	}
	tex, ok := c.framebuffers[c.bound]
	if !ok {
		return nil
	}
	return c.textures[tex]
}

// Clear fills the whole bound framebuffer.
func (c *Context) Clear(col gpucore.Color) {
	if t := c.target(); t != nil {
		t.fill(vec4{col.R, col.G, col.B, col.A})
	}
}

// CompileShader preprocesses and reflects a GLSL stage.
func (c *Context) CompileShader(stage gpucore.ShaderStage, label, source string) (gpucore.ShaderID, error) {
	s := compileShader(stage, label, source)
	id := gpucore.ShaderID(c.id())
	c.shaders[id] = s
	return id, s.err
}

// DestroyShader releases a shader.
func (c *Context) DestroyShader(id gpucore.ShaderID) { delete(c.shaders, id) }

// LinkProgram links two compiled stages.
func (c *Context) LinkProgram(label string, vs, fs gpucore.ShaderID) (gpucore.ProgramID, error) {
	p, err := linkProgram(label, c.shaders[vs], c.shaders[fs])
	id := gpucore.ProgramID(c.id())
	c.programs[id] = p
	return id, err
}

// DestroyProgram releases a program.
func (c *Context) DestroyProgram(id gpucore.ProgramID) {
	delete(c.programs, id)
	if c.current == id {
		c.current = gpucore.InvalidID
	}
}

// ActiveUniforms returns the uniforms declared by both stages.
func (c *Context) ActiveUniforms(id gpucore.ProgramID) []gpucore.UniformInfo {
	p, ok := c.programs[id]
	if !ok {
		return nil
	}
	return append([]gpucore.UniformInfo(nil), p.uniforms...)
}

// UseProgram makes p current.
func (c *Context) UseProgram(p gpucore.ProgramID) { c.current = p }

func (c *Context) uniform(loc gpucore.UniformLocation, v vec4) {
	c.programs[c.current].set(loc, v)
}

// Uniform1i sets an int or sampler uniform.
func (c *Context) Uniform1i(loc gpucore.UniformLocation, v int32) {
	c.uniform(loc, vec4{float32(v)})
}

// Uniform1f sets a float uniform.
func (c *Context) Uniform1f(loc gpucore.UniformLocation, x float32) {
	c.uniform(loc, vec4{x})
}

// Uniform2f sets a vec2 uniform.
func (c *Context) Uniform2f(loc gpucore.UniformLocation, x, y float32) {
	c.uniform(loc, vec4{x, y})
}

// Uniform3f sets a vec3 uniform.
func (c *Context) Uniform3f(loc gpucore.UniformLocation, x, y, z float32) {
	c.uniform(loc, vec4{x, y, z})
}

// Uniform4f sets a vec4 uniform.
func (c *Context) Uniform4f(loc gpucore.UniformLocation, x, y, z, w float32) {
	c.uniform(loc, vec4{x, y, z, w})
}

// SetBlend selects the blend equation.
func (c *Context) SetBlend(mode gpucore.BlendMode) { c.blend = mode }

// CreateVertexBuffer stores 2D positions.
func (c *Context) CreateVertexBuffer(data []float32) (gpucore.BufferID, error) {
	if len(data)%2 != 0 {
		return gpucore.InvalidID, fmt.Errorf("software: vertex buffer: odd component count %d", len(data))
	}
	id := gpucore.BufferID(c.id())
	c.buffers[id] = &buffer{vertices: append([]float32(nil), data...)}
	return id, nil
}

// CreateIndexBuffer stores triangle-list indices.
func (c *Context) CreateIndexBuffer(data []uint16) (gpucore.BufferID, error) {
	id := gpucore.BufferID(c.id())
	c.buffers[id] = &buffer{indices: append([]uint16(nil), data...)}
	return id, nil
}

// DestroyBuffer releases a buffer.
func (c *Context) DestroyBuffer(id gpucore.BufferID) { delete(c.buffers, id) }

// BindVertexBuffer selects the vertex buffer.
func (c *Context) BindVertexBuffer(id gpucore.BufferID) { c.vbo = id }

// BindIndexBuffer selects the index buffer.
func (c *Context) BindIndexBuffer(id gpucore.BufferID) { c.ibo = id }

// DrawingBufferSize returns the drawing buffer size.
func (c *Context) DrawingBufferSize() (width, height int) {
	return c.drawing.width, c.drawing.height
}

// ResizeDrawingBuffer reallocates the drawing buffer; contents are lost.
func (c *Context) ResizeDrawingBuffer(width, height int) {
	width, height = max(width, 1), max(height, 1)
	if c.drawing != nil && c.drawing.width == width && c.drawing.height == height {
		return
	}
	c.drawing = newTexture(gpucore.TextureDescriptor{
		Label:  "drawing buffer",
		Width:  width,
		Height: height,
		Format: gpucore.TextureFormatRGBA8Unorm,
	})
}

// ReadPixels returns the lower-left width×height region as RGBA floats.
func (c *Context) ReadPixels(fb gpucore.FramebufferID, width, height int) ([]float32, error) {
	var t *texture
	if fb == gpucore.InvalidID {
		t = c.drawing
	} else if tex, ok := c.framebuffers[fb]; ok {
		t = c.textures[tex]
	}
	if t == nil {
		return nil, fmt.Errorf("software: read pixels %d: %w", fb, ErrUnknownResource)
	}
	if width <= 0 || height <= 0 || width > t.width || height > t.height {
		return nil, fmt.Errorf("software: read pixels %dx%d from %dx%d: %w", width, height, t.width, t.height, ErrInvalidSize)
	}
	out := make([]float32, 0, width*height*4)
	for y := range height {
		for x := range width {
			v := t.texel(x, y)
			out = append(out, v[:]...)
		}
	}
	return out, nil
}

// Flush is a no-op: draws execute immediately.
func (c *Context) Flush() error {
	c.flushes++
	return nil
}

// Destroy releases everything the context still owns.
func (c *Context) Destroy() {
	if n := c.Live().Total(); n > 0 {
		slogger().Debug("software: destroying context with live objects", "count", n)
	}
	clear(c.textures)
	clear(c.framebuffers)
	clear(c.shaders)
	clear(c.programs)
	clear(c.buffers)
	c.pool.Close()
}

// DrawIndexed rasterizes count indices as a triangle list.
func (c *Context) DrawIndexed(count int) {
	p, ok := c.programs[c.current]
	if !ok || !p.linked {
		return
	}
	vb, ib := c.buffers[c.vbo], c.buffers[c.ibo]
	dst := c.target()
	if vb == nil || ib == nil || dst == nil {
		return
	}
	count = min(count, len(ib.indices))

	d := &drawCall{prog: p, noLinear: c.opts.noLinear}
	d.units = make([]*texture, maxUnits)
	for i, id := range c.units {
		d.units[i] = c.textures[id]
	}
	vertex := p.vs.vertex(d)
	shade := p.fs.kernel(d)

	vp := c.viewport
	toWindow := func(i uint16) (vec2, bool) {
		k := int(i) * 2
		if k+1 >= len(vb.vertices) {
			return vec2{}, false
		}
		return vec2{vb.vertices[k], vb.vertices[k+1]}, true
	}

	for i := 0; i+2 < count; i += 3 {
		var tri [3]vec2
		valid := true
		for k := range tri {
			var ok bool
			tri[k], ok = toWindow(ib.indices[i+k])
			valid = valid && ok
		}
		if !valid {
			continue
		}
		c.rasterize(dst, vp, tri, vertex, shade)
	}
	c.draws++
}
