package fluid

import (
	"fmt"
	"image"

	"github.com/gogpu/fluid/gpucore"
)

// Capture renders the current frame into an offscreen target at the
// capture resolution and reads it back, top row first.
func (c *Compositor) Capture(res int) (*image.RGBA, error) {
	sim := c.sim
	if !sim.ready {
		return nil, ErrTargetUnavailable
	}
	ctx := sim.ctx
	dw, dh := ctx.DrawingBufferSize()
	w, h := Resolution(res, dw, dh)

	target, err := CreateTarget(ctx, w, h, sim.formats.RGBA, gpucore.FilterNearest)
	if err != nil {
		return nil, fmt.Errorf("fluid: capture: %w", err)
	}
	defer target.Destroy()

	c.Render(target)
	pixels, err := ctx.ReadPixels(target.fb, w, h)
	if err != nil {
		return nil, fmt.Errorf("fluid: capture: %w", err)
	}
	return toImage(pixels, w, h), nil
}

// toImage converts bottom-first float RGBA to an image, clamping each
// channel to [0, 1].
func toImage(pixels []float32, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		src := pixels[(h-1-y)*w*4:]
		dst := img.Pix[y*img.Stride:]
		for i := range w * 4 {
			dst[i] = byte(min(max(src[i], 0), 1) * 255)
		}
	}
	return img
}
