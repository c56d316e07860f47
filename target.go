package fluid

import (
	"fmt"

	"github.com/gogpu/fluid/gpucore"
)

// Target is a texture with a framebuffer rendering into it. Its size,
// format and filter are fixed at creation.
type Target struct {
	ctx     gpucore.Context
	texture gpucore.TextureID
	fb      gpucore.FramebufferID
	width   int
	height  int
	format  gpucore.TextureFormat
	filter  gpucore.FilterMode
}

// CreateTarget allocates a w×h target and clears it to transparent black.
func CreateTarget(ctx gpucore.Context, w, h int, format gpucore.TextureFormat, filter gpucore.FilterMode) (*Target, error) {
	if ctx == nil {
		return nil, ErrNoContext
	}
	if format == gpucore.TextureFormatUndefined {
		return nil, ErrTargetUnavailable
	}
	tex, err := ctx.CreateTexture(gpucore.TextureDescriptor{
		Label:  "target",
		Width:  w,
		Height: h,
		Format: format,
		Filter: filter,
	})
	if err != nil {
		return nil, fmt.Errorf("fluid: create target %dx%d %s: %w", w, h, format, err)
	}
	fb, err := ctx.CreateFramebuffer(tex)
	if err != nil {
		ctx.DestroyTexture(tex)
		return nil, fmt.Errorf("fluid: create target framebuffer: %w", err)
	}

	ctx.Viewport(0, 0, w, h)
	ctx.BindFramebuffer(fb)
	ctx.Clear(gpucore.Color{})

	return &Target{
		ctx:     ctx,
		texture: tex,
		fb:      fb,
		width:   w,
		height:  h,
		format:  format,
		filter:  filter,
	}, nil
}

// Attach binds the target's texture to the sampling unit and returns the
// unit, ready to be passed to a sampler uniform.
func (t *Target) Attach(unit int) int {
	t.ctx.BindTexture(unit, t.texture)
	return unit
}

// Width returns the width in texels.
func (t *Target) Width() int { return t.width }

// Height returns the height in texels.
func (t *Target) Height() int { return t.height }

// TexelSizeX returns 1/Width.
func (t *Target) TexelSizeX() float32 { return 1 / float32(t.width) }

// TexelSizeY returns 1/Height.
func (t *Target) TexelSizeY() float32 { return 1 / float32(t.height) }

// Format returns the texture format.
func (t *Target) Format() gpucore.TextureFormat { return t.format }

// Filter returns the sampling filter.
func (t *Target) Filter() gpucore.FilterMode { return t.filter }

// Texture returns the underlying texture.
func (t *Target) Texture() gpucore.TextureID { return t.texture }

// Framebuffer returns the framebuffer rendering into the texture.
func (t *Target) Framebuffer() gpucore.FramebufferID { return t.fb }

// Destroy releases the framebuffer and the texture. Destroy on a nil
// target does nothing.
func (t *Target) Destroy() {
	if t == nil || t.ctx == nil {
		return
	}
	t.ctx.DestroyFramebuffer(t.fb)
	t.ctx.DestroyTexture(t.texture)
	t.ctx = nil
}

// DoubleTarget is a read/write pair of same-shaped targets. Passes read
// from Read, render into Write and then Swap.
type DoubleTarget struct {
	targets [2]*Target
	parity  int
}

// CreateDoubleTarget allocates both halves of a double target.
func CreateDoubleTarget(ctx gpucore.Context, w, h int, format gpucore.TextureFormat, filter gpucore.FilterMode) (*DoubleTarget, error) {
	read, err := CreateTarget(ctx, w, h, format, filter)
	if err != nil {
		return nil, err
	}
	write, err := CreateTarget(ctx, w, h, format, filter)
	if err != nil {
		read.Destroy()
		return nil, err
	}
	return &DoubleTarget{targets: [2]*Target{read, write}}, nil
}

// Read returns the target holding the current state.
func (d *DoubleTarget) Read() *Target { return d.targets[d.parity] }

// Write returns the target the next pass renders into.
func (d *DoubleTarget) Write() *Target { return d.targets[1-d.parity] }

// Swap exchanges Read and Write.
func (d *DoubleTarget) Swap() { d.parity = 1 - d.parity }

// Width returns the width shared by both halves.
func (d *DoubleTarget) Width() int { return d.targets[0].width }

// Height returns the height shared by both halves.
func (d *DoubleTarget) Height() int { return d.targets[0].height }

// TexelSizeX returns 1/Width.
func (d *DoubleTarget) TexelSizeX() float32 { return d.targets[0].TexelSizeX() }

// TexelSizeY returns 1/Height.
func (d *DoubleTarget) TexelSizeY() float32 { return d.targets[0].TexelSizeY() }

// Destroy releases both halves.
func (d *DoubleTarget) Destroy() {
	if d == nil {
		return
	}
	d.targets[0].Destroy()
	d.targets[1].Destroy()
}

// Copier draws the contents of src into dst with a single full-screen pass.
type Copier interface {
	Copy(src, dst *Target)
}

// ResizeTarget allocates a w×h target with the format and filter of old,
// copies old into it with one pass and destroys old.
func ResizeTarget(ctx gpucore.Context, copier Copier, old *Target, w, h int) (*Target, error) {
	next, err := CreateTarget(ctx, w, h, old.format, old.filter)
	if err != nil {
		return nil, err
	}
	copier.Copy(old, next)
	old.Destroy()
	return next, nil
}

// ResizeDoubleTarget returns d unchanged when the size already matches.
// Otherwise Read is resized with its contents preserved, Write is
// reallocated blank, and a new DoubleTarget owning both is returned.
func ResizeDoubleTarget(ctx gpucore.Context, copier Copier, d *DoubleTarget, w, h int) (*DoubleTarget, error) {
	if d.Width() == w && d.Height() == h {
		return d, nil
	}
	old := d.Read()
	write, err := CreateTarget(ctx, w, h, old.format, old.filter)
	if err != nil {
		return nil, err
	}
	read, err := ResizeTarget(ctx, copier, old, w, h)
	if err != nil {
		write.Destroy()
		return nil, err
	}
	d.Write().Destroy()
	return &DoubleTarget{targets: [2]*Target{read, write}}, nil
}
