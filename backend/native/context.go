package native

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/fluid/gpucore"
)

// maxUnits is the number of texture sampling units.
const maxUnits = 16

type viewport struct {
	x, y, width, height int
}

// Context implements [gpucore.Context] on a HAL device.
//
// Context is not safe for concurrent use.
type Context struct {
	dev  *Device
	owns bool

	nextID       uint64
	textures     map[gpucore.TextureID]*texture
	framebuffers map[gpucore.FramebufferID]*texture
	shaders      map[gpucore.ShaderID]*shaderModule
	programs     map[gpucore.ProgramID]*program
	buffers      map[gpucore.BufferID]*buffer
	samplers     map[samplerKey]hal.Sampler

	drawing  *texture
	blank    *texture
	units    [maxUnits]gpucore.TextureID
	bound    gpucore.FramebufferID
	viewport viewport
	current  gpucore.ProgramID
	blend    gpucore.BlendMode
	vbo, ibo gpucore.BufferID

	queue frameQueue

	draws     int
	flushes   int
	destroyed bool
}

var _ gpucore.Context = (*Context)(nil)

// NewContext creates a context on dev with an offscreen drawing buffer of
// the given size. The device stays owned by the caller.
func NewContext(dev *Device, width, height int) (*Context, error) {
	if dev == nil || dev.Device == nil || dev.Queue == nil {
		return nil, ErrNoHALDevice
	}
	c := &Context{
		dev:          dev,
		textures:     make(map[gpucore.TextureID]*texture),
		framebuffers: make(map[gpucore.FramebufferID]*texture),
		shaders:      make(map[gpucore.ShaderID]*shaderModule),
		programs:     make(map[gpucore.ProgramID]*program),
		buffers:      make(map[gpucore.BufferID]*buffer),
		samplers:     make(map[samplerKey]hal.Sampler),
	}
	c.queue.ctx = c
	var err error
	c.blank, err = newTexture(dev.Device, gpucore.TextureDescriptor{
		Label: "blank", Width: 1, Height: 1, Format: gpucore.TextureFormatRGBA8Unorm,
	}, gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		return nil, err
	}
	err = dev.Queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: c.blank.tex, Aspect: gputypes.TextureAspectAll},
		[]byte{0, 0, 0, 255},
		&hal.ImageDataLayout{BytesPerRow: 4, RowsPerImage: 1},
		&hal.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
	)
	if err != nil {
		c.blank.destroy(dev.Device)
		return nil, fmt.Errorf("native: write blank texture: %w", err)
	}
	c.blank.usage = gputypes.TextureUsageCopyDst
	if err := c.resizeDrawing(width, height); err != nil {
		c.blank.destroy(dev.Device)
		return nil, err
	}
	c.viewport = viewport{0, 0, c.drawing.desc.Width, c.drawing.desc.Height}
	return c, nil
}

// Open opens a device with [OpenDevice] and creates a context that
// closes the device when destroyed.
func Open(width, height int, variants ...gputypes.Backend) (*Context, error) {
	dev, err := OpenDevice(variants...)
	if err != nil {
		return nil, err
	}
	c, err := NewContext(dev, width, height)
	if err != nil {
		dev.Close()
		return nil, err
	}
	c.owns = true
	return c, nil
}

func (c *Context) id() uint64 {
	c.nextID++
	return c.nextID
}

// Name returns "native".
func (c *Context) Name() string { return "native" }

// ShaderLanguage returns WGSL.
func (c *Context) ShaderLanguage() gpucore.ShaderLanguage { return gpucore.ShaderLanguageWGSL }

// Capabilities reports linear filtering, which WebGPU guarantees for the
// half-float formats the context accepts.
func (c *Context) Capabilities() gpucore.Capabilities {
	return gpucore.Capabilities{
		FloatLinearFiltering: true,
		MaxTextureSize:       int(c.dev.Limits.MaxTextureDimension2D),
	}
}

// Device returns the device the context renders on.
func (c *Context) Device() *Device { return c.dev }

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

// DrawCalls returns the number of draws recorded so far.
func (c *Context) DrawCalls() int { return c.draws }

// Flushes returns the number of Flush calls so far.
func (c *Context) Flushes() int { return c.flushes }

// Submits returns the number of command buffers submitted for drawing.
func (c *Context) Submits() int { return c.queue.submits }

// CreateTexture allocates a texture.
func (c *Context) CreateTexture(desc gpucore.TextureDescriptor) (gpucore.TextureID, error) {
	if c.destroyed {
		return gpucore.InvalidID, ErrDestroyed
	}
	format, ok := halFormats[desc.Format]
	if !ok || !c.dev.supports(format) {
		return gpucore.InvalidID, fmt.Errorf("%w: %s", ErrUnsupportedFormat, desc.Format)
	}
	limit := int(c.dev.Limits.MaxTextureDimension2D)
	if desc.Width <= 0 || desc.Height <= 0 || desc.Width > limit || desc.Height > limit {
		return gpucore.InvalidID, fmt.Errorf("%w: %dx%d", ErrInvalidSize, desc.Width, desc.Height)
	}
	t, err := newTexture(c.dev.Device, desc, format)
	if err != nil {
		return gpucore.InvalidID, err
	}
	id := gpucore.TextureID(c.id())
	c.textures[id] = t
	return id, nil
}

// WriteTexture uploads RGBA8 pixels, bottom row first. Recorded work is
// flushed first so the upload lands after it.
func (c *Context) WriteTexture(tex gpucore.TextureID, data []byte) error {
	t, ok := c.textures[tex]
	if !ok {
		return fmt.Errorf("native: write texture %d: %w", tex, ErrUnknownResource)
	}
	if t.desc.Format != gpucore.TextureFormatRGBA8Unorm {
		return fmt.Errorf("native: write texture %d: %w: %s", tex, ErrUnsupportedFormat, t.desc.Format)
	}
	w, h := t.desc.Width, t.desc.Height
	if want := w * h * 4; len(data) != want {
		return fmt.Errorf("native: write texture %d: got %d bytes, want %d", tex, len(data), want)
	}
	if err := c.Flush(); err != nil {
		return err
	}
	err := c.dev.Queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.tex, Aspect: gputypes.TextureAspectAll},
		flipRows(data, w*4, h),
		&hal.ImageDataLayout{BytesPerRow: uint32(w * 4), RowsPerImage: uint32(h)},
		&hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("native: write texture %d: %w", tex, err)
	}
	t.usage = gputypes.TextureUsageCopyDst
	return nil
}

// DestroyTexture releases a texture once recorded work no longer uses it.
func (c *Context) DestroyTexture(tex gpucore.TextureID) {
	t, ok := c.textures[tex]
	if !ok {
		return
	}
	delete(c.textures, tex)
	for i := range c.units {
		if c.units[i] == tex {
			c.units[i] = gpucore.InvalidID
		}
	}
	c.queue.release(func() { t.destroy(c.dev.Device) })
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
	t, ok := c.textures[tex]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("native: framebuffer: texture %d: %w", tex, ErrUnknownResource)
	}
	id := gpucore.FramebufferID(c.id())
	c.framebuffers[id] = t
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

// Viewport sets the destination rectangle, origin at the bottom left.
func (c *Context) Viewport(x, y, width, height int) {
	c.viewport = viewport{x, y, width, height}
}

func (c *Context) target() *texture {
	if c.bound == gpucore.InvalidID {
		return c.drawing
	}
	return c.framebuffers[c.bound]
}

// Clear records a clear of the whole bound framebuffer.
func (c *Context) Clear(col gpucore.Color) {
	t := c.target()
	if t == nil || c.destroyed {
		return
	}
	c.queue.record(command{clear: true, color: col, target: t})
}

// CompileShader preprocesses, validates and compiles a WGSL stage.
func (c *Context) CompileShader(stage gpucore.ShaderStage, label, source string) (gpucore.ShaderID, error) {
	if c.destroyed {
		return gpucore.InvalidID, ErrDestroyed
	}
	s := compileShader(c.dev.Device, stage, label, source)
	id := gpucore.ShaderID(c.id())
	c.shaders[id] = s
	return id, s.err
}

// DestroyShader releases a shader. Programs linked from it keep working.
func (c *Context) DestroyShader(id gpucore.ShaderID) {
	s, ok := c.shaders[id]
	if !ok {
		return
	}
	delete(c.shaders, id)
	c.queue.release(func() { s.destroy(c.dev.Device) })
}

// LinkProgram links two compiled stages.
func (c *Context) LinkProgram(label string, vs, fs gpucore.ShaderID) (gpucore.ProgramID, error) {
	if c.destroyed {
		return gpucore.InvalidID, ErrDestroyed
	}
	p, err := linkProgram(c.dev.Device, label, c.shaders[vs], c.shaders[fs])
	id := gpucore.ProgramID(c.id())
	c.programs[id] = p
	return id, err
}

// DestroyProgram releases a program and its pipelines.
func (c *Context) DestroyProgram(id gpucore.ProgramID) {
	p, ok := c.programs[id]
	if !ok {
		return
	}
	delete(c.programs, id)
	if c.current == id {
		c.current = gpucore.InvalidID
	}
	c.queue.release(func() { p.destroy(c.dev.Device) })
}

// ActiveUniforms returns the uniform fields followed by the textures.
func (c *Context) ActiveUniforms(id gpucore.ProgramID) []gpucore.UniformInfo {
	p, ok := c.programs[id]
	if !ok {
		return nil
	}
	return append([]gpucore.UniformInfo(nil), p.uniforms...)
}

// UseProgram makes p current.
func (c *Context) UseProgram(p gpucore.ProgramID) { c.current = p }

func (c *Context) uniform(loc gpucore.UniformLocation, v [4]float32, n int) {
	c.programs[c.current].set(loc, v, n)
}

// Uniform1i sets an int uniform or the unit a texture samples.
func (c *Context) Uniform1i(loc gpucore.UniformLocation, v int32) {
	c.uniform(loc, [4]float32{float32(v)}, 1)
}

// Uniform1f sets a float uniform.
func (c *Context) Uniform1f(loc gpucore.UniformLocation, x float32) {
	c.uniform(loc, [4]float32{x}, 1)
}

// Uniform2f sets a vec2 uniform.
func (c *Context) Uniform2f(loc gpucore.UniformLocation, x, y float32) {
	c.uniform(loc, [4]float32{x, y}, 2)
}

// Uniform3f sets a vec3 uniform.
func (c *Context) Uniform3f(loc gpucore.UniformLocation, x, y, z float32) {
	c.uniform(loc, [4]float32{x, y, z}, 3)
}

// Uniform4f sets a vec4 uniform.
func (c *Context) Uniform4f(loc gpucore.UniformLocation, x, y, z, w float32) {
	c.uniform(loc, [4]float32{x, y, z, w}, 4)
}

// SetBlend selects the blend equation.
func (c *Context) SetBlend(mode gpucore.BlendMode) { c.blend = mode }

// CreateVertexBuffer uploads 2D positions.
func (c *Context) CreateVertexBuffer(data []float32) (gpucore.BufferID, error) {
	if len(data)%2 != 0 {
		return gpucore.InvalidID, fmt.Errorf("native: vertex buffer: odd component count %d", len(data))
	}
	raw := make([]byte, 4*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(v))
	}
	buf, err := newBuffer(c.dev.Device, c.dev.Queue, "vertices", gputypes.BufferUsageVertex, raw)
	if err != nil {
		return gpucore.InvalidID, err
	}
	id := gpucore.BufferID(c.id())
	c.buffers[id] = &buffer{buf: buf, count: len(data) / 2}
	return id, nil
}

// CreateIndexBuffer uploads triangle-list indices.
func (c *Context) CreateIndexBuffer(data []uint16) (gpucore.BufferID, error) {
	raw := make([]byte, 2*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint16(raw[2*i:], v)
	}
	buf, err := newBuffer(c.dev.Device, c.dev.Queue, "indices", gputypes.BufferUsageIndex, raw)
	if err != nil {
		return gpucore.InvalidID, err
	}
	id := gpucore.BufferID(c.id())
	c.buffers[id] = &buffer{buf: buf, count: len(data), index: true}
	return id, nil
}

// DestroyBuffer releases a buffer.
func (c *Context) DestroyBuffer(id gpucore.BufferID) {
	b, ok := c.buffers[id]
	if !ok {
		return
	}
	delete(c.buffers, id)
	c.queue.release(func() { c.dev.Device.DestroyBuffer(b.buf) })
}

// BindVertexBuffer selects the vertex buffer.
func (c *Context) BindVertexBuffer(id gpucore.BufferID) { c.vbo = id }

// BindIndexBuffer selects the index buffer.
func (c *Context) BindIndexBuffer(id gpucore.BufferID) { c.ibo = id }

// DrawIndexed records a draw with the current state. Uniform values are
// copied, so later Uniform calls do not affect it.
func (c *Context) DrawIndexed(count int) {
	if c.destroyed {
		return
	}
	p, ok := c.programs[c.current]
	if !ok || !p.linked {
		return
	}
	vb, ib := c.buffers[c.vbo], c.buffers[c.ibo]
	dst := c.target()
	if vb == nil || ib == nil || !ib.index || dst == nil {
		return
	}
	count = min(count, ib.count)
	if count < 3 {
		return
	}

	cmd := command{
		target:   dst,
		viewport: c.viewport,
		prog:     p,
		blend:    c.blend,
		vbo:      vb,
		ibo:      ib,
		count:    count,
		textures: make([]*texture, len(p.textures)),
	}
	for i, unit := range p.units {
		if unit >= 0 && unit < maxUnits {
			cmd.textures[i] = c.textures[c.units[unit]]
		}
		if cmd.textures[i] == nil {
			cmd.textures[i] = c.blank
		}
	}
	cmd.uniforms = c.queue.snapshot(p)
	c.queue.record(cmd)
	c.draws++
}

// DrawingBufferSize returns the drawing buffer size.
func (c *Context) DrawingBufferSize() (width, height int) {
	return c.drawing.desc.Width, c.drawing.desc.Height
}

// DrawingTexture returns the HAL texture behind the drawing buffer, for
// hosts that composite it themselves. It changes on resize.
func (c *Context) DrawingTexture() hal.Texture { return c.drawing.tex }

// ResizeDrawingBuffer reallocates the drawing buffer; contents are lost.
func (c *Context) ResizeDrawingBuffer(width, height int) {
	if err := c.resizeDrawing(width, height); err != nil {
		slogger().Error("native: resize drawing buffer", "width", width, "height", height, "error", err)
	}
}

func (c *Context) resizeDrawing(width, height int) error {
	width, height = max(width, 1), max(height, 1)
	if c.drawing != nil && c.drawing.desc.Width == width && c.drawing.desc.Height == height {
		return nil
	}
	t, err := newTexture(c.dev.Device, gpucore.TextureDescriptor{
		Label:  "drawing buffer",
		Width:  width,
		Height: height,
		Format: gpucore.TextureFormatRGBA8Unorm,
	}, gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		return err
	}
	if old := c.drawing; old != nil {
		c.queue.release(func() { old.destroy(c.dev.Device) })
	}
	c.drawing = t
	return nil
}

// ReadPixels flushes recorded work, waits for the device and returns the
// lower-left width×height region as RGBA floats, bottom row first.
func (c *Context) ReadPixels(fb gpucore.FramebufferID, width, height int) ([]float32, error) {
	if c.destroyed {
		return nil, ErrDestroyed
	}
	var t *texture
	if fb == gpucore.InvalidID {
		t = c.drawing
	} else {
		t = c.framebuffers[fb]
	}
	if t == nil {
		return nil, fmt.Errorf("native: read pixels %d: %w", fb, ErrUnknownResource)
	}
	if width <= 0 || height <= 0 || width > t.desc.Width || height > t.desc.Height {
		return nil, fmt.Errorf("native: read pixels %dx%d from %dx%d: %w",
			width, height, t.desc.Width, t.desc.Height, ErrInvalidSize)
	}
	if err := c.Flush(); err != nil {
		return nil, err
	}
	return c.readback(t, width, height)
}

// Flush encodes and submits recorded work without waiting for it.
func (c *Context) Flush() error {
	if c.destroyed {
		return ErrDestroyed
	}
	c.flushes++
	return c.queue.submit()
}

// Destroy waits for the device and releases everything the context owns.
func (c *Context) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	if n := c.Live().Total(); n > 0 {
		slogger().Debug("native: destroying context with live objects", "count", n)
	}
	dev := c.dev.Device
	c.queue.discard()
	if err := dev.WaitIdle(); err != nil {
		slogger().Warn("native: wait idle", "error", err)
	}
	c.queue.releaseAll()

	for id, t := range c.textures {
		t.destroy(dev)
		delete(c.textures, id)
	}
	clear(c.framebuffers)
	for id, p := range c.programs {
		p.destroy(dev)
		delete(c.programs, id)
	}
	for id, s := range c.shaders {
		s.destroy(dev)
		delete(c.shaders, id)
	}
	for id, b := range c.buffers {
		dev.DestroyBuffer(b.buf)
		delete(c.buffers, id)
	}
	for k, s := range c.samplers {
		dev.DestroySampler(s)
		delete(c.samplers, k)
	}
	c.drawing.destroy(dev)
	c.blank.destroy(dev)
	if c.owns {
		c.dev.Close()
	}
}

func (c *Context) sampler(t *texture) (hal.Sampler, error) {
	key := samplerKey{filter: t.desc.Filter, address: t.desc.Address}
	if s, ok := c.samplers[key]; ok {
		return s, nil
	}
	s, err := newSampler(c.dev.Device, key)
	if err != nil {
		return nil, fmt.Errorf("native: create sampler: %w", err)
	}
	c.samplers[key] = s
	return s, nil
}
