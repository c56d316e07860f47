package fluid

import (
	"fmt"

	"github.com/gogpu/fluid/gpucore"
)

var (
	quadVertices = []float32{-1, -1, -1, 1, 1, 1, 1, -1}
	quadIndices  = []uint16{0, 1, 2, 0, 2, 3}
)

// Blitter draws the full-screen quad every pass renders with.
type Blitter struct {
	ctx   gpucore.Context
	vbo   gpucore.BufferID
	ibo   gpucore.BufferID
	draws int
}

// NewBlitter uploads the quad geometry.
func NewBlitter(ctx gpucore.Context) (*Blitter, error) {
	if ctx == nil {
		return nil, ErrNoContext
	}
	vbo, err := ctx.CreateVertexBuffer(quadVertices)
	if err != nil {
		return nil, fmt.Errorf("fluid: blit vertex buffer: %w", err)
	}
	ibo, err := ctx.CreateIndexBuffer(quadIndices)
	if err != nil {
		ctx.DestroyBuffer(vbo)
		return nil, fmt.Errorf("fluid: blit index buffer: %w", err)
	}
	return &Blitter{ctx: ctx, vbo: vbo, ibo: ibo}, nil
}

// Blit draws the quad with the current program into target, or into the
// drawing buffer when target is nil. With clear set the destination is
// cleared to transparent black first.
func (b *Blitter) Blit(target *Target, clear bool) {
	ctx := b.ctx
	if target == nil {
		w, h := ctx.DrawingBufferSize()
		ctx.Viewport(0, 0, w, h)
		ctx.BindFramebuffer(gpucore.InvalidID)
	} else {
		ctx.Viewport(0, 0, target.width, target.height)
		ctx.BindFramebuffer(target.fb)
	}
	if clear {
		ctx.Clear(gpucore.Color{})
	}
	ctx.BindVertexBuffer(b.vbo)
	ctx.BindIndexBuffer(b.ibo)
	ctx.DrawIndexed(len(quadIndices))
	b.draws++
}

// Draws returns the number of Blit calls so far.
func (b *Blitter) Draws() int { return b.draws }

// Destroy releases the quad buffers.
func (b *Blitter) Destroy() {
	if b == nil || b.ctx == nil {
		return
	}
	b.ctx.DestroyBuffer(b.vbo)
	b.ctx.DestroyBuffer(b.ibo)
	b.ctx = nil
}

// copyPass implements Copier with the copy program.
type copyPass struct {
	program *Program
	blit    *Blitter
}

func (c copyPass) Copy(src, dst *Target) {
	c.ctx().SetBlend(gpucore.BlendNone)
	c.program.Bind()
	c.program.SetInt("uTexture", src.Attach(0))
	c.blit.Blit(dst, false)
}

func (c copyPass) ctx() gpucore.Context { return c.blit.ctx }
