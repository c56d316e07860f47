package native

import (
	"fmt"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/fluid/gpucore"
)

// copyPitchAlignment is the WebGPU row alignment for texture copies.
const copyPitchAlignment = 256

// command is a recorded clear or draw.
type command struct {
	clear bool
	color gpucore.Color

	target   *texture
	viewport viewport
	prog     *program
	blend    gpucore.BlendMode
	vbo, ibo *buffer
	count    int
	textures []*texture

	// uniforms is the offset of the draw's snapshot in the frame's
	// uniform buffer.
	uniforms uint64
}

// retired holds releases that wait for a submission to complete.
type retired struct {
	index uint64
	fns   []func()
}

// frameQueue records commands between flushes and defers the release of
// objects the device may still be using.
type frameQueue struct {
	ctx *Context

	pending  []command
	uniforms []byte

	garbage    []func()
	retired    []retired
	lastSubmit uint64
	submits    int
}

func (q *frameQueue) record(cmd command) {
	q.pending = append(q.pending, cmd)
}

// snapshot appends the current uniform values of p and returns their
// offset. Every snapshot starts on a uniform offset alignment boundary.
func (q *frameQueue) snapshot(p *program) uint64 {
	off := uint64(len(q.uniforms))
	q.uniforms = append(q.uniforms, p.values...)
	q.uniforms = append(q.uniforms, make([]byte, p.slotSize()-uint64(len(p.values)))...)
	return off
}

// release runs fn now when nothing recorded or in flight can reference
// the object, and after the next completed submission otherwise.
func (q *frameQueue) release(fn func()) {
	if len(q.pending) == 0 && q.ctx.dev.Queue.PollCompleted() >= q.lastSubmit {
		fn()
		return
	}
	q.garbage = append(q.garbage, fn)
}

// collect runs the releases of completed submissions.
func (q *frameQueue) collect() {
	done := q.ctx.dev.Queue.PollCompleted()
	keep := q.retired[:0]
	for _, r := range q.retired {
		if r.index > done {
			keep = append(keep, r)
			continue
		}
		for _, fn := range r.fns {
			fn()
		}
	}
	clear(q.retired[len(keep):])
	q.retired = keep
}

// discard drops recorded commands.
func (q *frameQueue) discard() {
	q.pending = q.pending[:0]
	q.uniforms = q.uniforms[:0]
}

// releaseAll runs every deferred release. The device must be idle.
func (q *frameQueue) releaseAll() {
	for _, r := range q.retired {
		for _, fn := range r.fns {
			fn()
		}
	}
	q.retired = nil
	for _, fn := range q.garbage {
		fn()
	}
	q.garbage = nil
}

func runAll(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}

// submit encodes the recorded commands into one command buffer and
// submits it. Commands are dropped even when encoding fails.
func (q *frameQueue) submit() error {
	if len(q.pending) == 0 {
		if len(q.garbage) > 0 {
			q.retired = append(q.retired, retired{index: q.lastSubmit, fns: q.garbage})
			q.garbage = nil
		}
		q.collect()
		return nil
	}
	defer q.discard()

	dev := q.ctx.dev
	var fns []func()

	var ubuf hal.Buffer
	if len(q.uniforms) > 0 {
		var err error
		ubuf, err = newBuffer(dev.Device, dev.Queue, "uniforms", gputypes.BufferUsageUniform, q.uniforms)
		if err != nil {
			return err
		}
		fns = append(fns, func() { dev.Device.DestroyBuffer(ubuf) })
	}

	enc, err := dev.Device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "fluid"})
	if err != nil {
		runAll(fns)
		return fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := enc.BeginEncoding("fluid frame"); err != nil {
		runAll(fns)
		return fmt.Errorf("native: begin encoding: %w", err)
	}
	for i := range q.pending {
		bg, err := q.encode(enc, &q.pending[i], ubuf)
		if err != nil {
			slogger().Warn("native: draw skipped", "error", err)
			continue
		}
		if bg != nil {
			fns = append(fns, func() { dev.Device.DestroyBindGroup(bg) })
		}
	}
	cmdBuf, err := enc.EndEncoding()
	if err != nil {
		runAll(fns)
		return fmt.Errorf("native: end encoding: %w", err)
	}
	fns = append(fns, func() { dev.Device.FreeCommandBuffer(cmdBuf) })

	idx, err := dev.Queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		runAll(fns)
		return fmt.Errorf("native: submit: %w", err)
	}
	q.lastSubmit = idx
	q.submits++
	q.retired = append(q.retired, retired{index: idx, fns: append(q.garbage, fns...)})
	q.garbage = nil
	q.collect()
	return nil
}

// encode records one render pass for cmd. It returns the bind group the
// pass uses, which must outlive the submission.
func (q *frameQueue) encode(enc hal.CommandEncoder, cmd *command, ubuf hal.Buffer) (hal.BindGroup, error) {
	dev := q.ctx.dev.Device
	t := cmd.target

	if cmd.clear {
		t.transition(enc, gputypes.TextureUsageRenderAttachment)
		rp := enc.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: "clear",
			ColorAttachments: []hal.RenderPassColorAttachment{{
				View:    t.view,
				LoadOp:  gputypes.LoadOpClear,
				StoreOp: gputypes.StoreOpStore,
				ClearValue: gputypes.Color{
					R: float64(cmd.color.R),
					G: float64(cmd.color.G),
					B: float64(cmd.color.B),
					A: float64(cmd.color.A),
				},
			}},
		})
		rp.End()
		return nil, nil
	}

	x, y, w, h := flipViewport(cmd.viewport, t.desc.Width, t.desc.Height)
	if w == 0 {
		return nil, nil
	}
	p := cmd.prog
	pipeline, err := p.pipeline(dev, t.format, cmd.blend)
	if err != nil {
		return nil, err
	}

	var entries []gputypes.BindGroupEntry
	if p.binding >= 0 {
		entries = append(entries, gputypes.BindGroupEntry{
			Binding: uint32(p.binding),
			Resource: gputypes.BufferBinding{
				Buffer: ubuf.NativeHandle(),
				Offset: cmd.uniforms,
				Size:   uint64(len(p.values)),
			},
		})
	}
	for i, bt := range p.textures {
		tex := cmd.textures[i]
		if tex == t {
			// A pass cannot sample its own attachment.
			tex = q.ctx.blank
		}
		tex.transition(enc, gputypes.TextureUsageTextureBinding)
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  bt.Binding,
			Resource: gputypes.TextureViewBinding{TextureView: tex.view.NativeHandle()},
		})
		if bt.HasSampler {
			s, err := q.ctx.sampler(tex)
			if err != nil {
				return nil, err
			}
			entries = append(entries, gputypes.BindGroupEntry{
				Binding:  bt.SamplerBinding,
				Resource: gputypes.SamplerBinding{Sampler: s.NativeHandle()},
			})
		}
	}
	bg, err := dev.CreateBindGroup(&hal.BindGroupDescriptor{Label: p.label, Layout: p.bindLayout, Entries: entries})
	if err != nil {
		return nil, fmt.Errorf("native: bind group %q: %w", p.label, err)
	}

	t.transition(enc, gputypes.TextureUsageRenderAttachment)
	rp := enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: p.label,
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:    t.view,
			LoadOp:  gputypes.LoadOpLoad,
			StoreOp: gputypes.StoreOpStore,
		}},
	})
	rp.SetPipeline(pipeline)
	rp.SetBindGroup(0, bg, nil)
	rp.SetVertexBuffer(0, cmd.vbo.buf, 0)
	rp.SetIndexBuffer(cmd.ibo.buf, gputypes.IndexFormatUint16, 0)
	rp.SetViewport(float32(x), float32(y), float32(w), float32(h), 0, 1)
	rp.DrawIndexed(uint32(cmd.count), 1, 0, 0, 0)
	rp.End()
	return bg, nil
}

// flipViewport converts a bottom-left viewport into the top-left space of
// a width×height attachment, clipped to it.
func flipViewport(vp viewport, width, height int) (x, y, w, h int) {
	x0, x1 := max(vp.x, 0), min(vp.x+vp.width, width)
	y0, y1 := max(vp.y, 0), min(vp.y+vp.height, height)
	if x1 <= x0 || y1 <= y0 {
		return 0, 0, 0, 0
	}
	return x0, height - y1, x1 - x0, y1 - y0
}

// readback copies the lower-left width×height region of t into a staging
// buffer and decodes it. It waits for the device to go idle.
func (c *Context) readback(t *texture, width, height int) ([]float32, error) {
	dev := c.dev
	bpp := uint64(t.desc.Format.BytesPerPixel())
	stride := roundUp(uint64(width)*bpp, copyPitchAlignment)
	size := stride * uint64(height)

	staging, err := dev.Device.CreateBuffer(&hal.BufferDescriptor{
		Label: "readback",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create staging buffer: %w", err)
	}
	defer dev.Device.DestroyBuffer(staging)

	enc, err := dev.Device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "readback"})
	if err != nil {
		return nil, fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := enc.BeginEncoding("readback"); err != nil {
		return nil, fmt.Errorf("native: begin encoding: %w", err)
	}
	t.transition(enc, gputypes.TextureUsageCopySrc)
	enc.CopyTextureToBuffer(t.tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{BytesPerRow: uint32(stride), RowsPerImage: uint32(height)},
		TextureBase: hal.ImageCopyTexture{
			Texture: t.tex,
			Origin:  hal.Origin3D{Y: uint32(t.desc.Height - height)},
			Aspect:  gputypes.TextureAspectAll,
		},
		Size: hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
	}})
	cmdBuf, err := enc.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("native: end encoding: %w", err)
	}
	defer dev.Device.FreeCommandBuffer(cmdBuf)

	idx, err := dev.Queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return nil, fmt.Errorf("native: submit readback: %w", err)
	}
	c.queue.lastSubmit = idx
	if err := dev.Device.WaitIdle(); err != nil {
		return nil, fmt.Errorf("native: wait for readback: %w", err)
	}
	c.queue.collect()

	mapping, err := dev.Device.MapBuffer(staging, 0, size)
	if err != nil {
		return nil, fmt.Errorf("native: map staging buffer: %w", err)
	}
	defer func() {
		if err := dev.Device.UnmapBuffer(staging); err != nil {
			slogger().Warn("native: unmap staging buffer", "error", err)
		}
	}()
	data := unsafe.Slice((*byte)(mapping.Ptr), size)
	return decodeRows(data, t.desc.Format, width, height, stride), nil
}
