package fluid

import (
	"github.com/gogpu/fluid/gpucore"
)

// Formats is the capability descriptor produced by Negotiate. A zero
// format means no candidate could be allocated for that role.
type Formats struct {
	RGBA gpucore.TextureFormat
	RG   gpucore.TextureFormat
	R    gpucore.TextureFormat

	// LinearFiltering reports whether float targets can be sampled with
	// linear filtering. When false every target is nearest filtered and
	// advection filters manually.
	LinearFiltering bool
}

// Filter returns the filter mode simulation targets are created with.
func (f Formats) Filter() gpucore.FilterMode {
	if f.LinearFiltering {
		return gpucore.FilterLinear
	}
	return gpucore.FilterNearest
}

// halfFloat and fullFloat list the candidates per channel count, narrow
// layouts first so that a role only ever widens.
var (
	halfFloat = []gpucore.TextureFormat{
		gpucore.TextureFormatR16Float,
		gpucore.TextureFormatRG16Float,
		gpucore.TextureFormatRGBA16Float,
	}
	fullFloat = []gpucore.TextureFormat{
		gpucore.TextureFormatR32Float,
		gpucore.TextureFormatRG32Float,
		gpucore.TextureFormatRGBA32Float,
	}
)

// Negotiate probes ctx for usable render target formats by trial
// allocation. Missing formats are not an error: the single and two
// channel roles fall back to the next wider layout, and when no
// half-float RGBA target exists the 32-bit float family is tried.
func Negotiate(ctx gpucore.Context) (Formats, error) {
	if ctx == nil {
		return Formats{}, ErrNoContext
	}

	family := halfFloat
	if !supported(ctx, family[2]) {
		Logger().Debug("fluid: half-float RGBA unsupported, trying 32-bit float")
		family = fullFloat
	}

	f := Formats{
		R:               pick(ctx, family[0:]),
		RG:              pick(ctx, family[1:]),
		RGBA:            pick(ctx, family[2:]),
		LinearFiltering: ctx.Capabilities().FloatLinearFiltering,
	}
	Logger().Debug("fluid: formats negotiated",
		"rgba", f.RGBA.String(), "rg", f.RG.String(), "r", f.R.String(),
		"linear", f.LinearFiltering)
	return f, nil
}

// pick returns the first supported candidate, or the zero format.
func pick(ctx gpucore.Context, candidates []gpucore.TextureFormat) gpucore.TextureFormat {
	for i, format := range candidates {
		if supported(ctx, format) {
			return format
		}
		if i+1 < len(candidates) {
			Logger().Debug("fluid: format unsupported, widening",
				"format", format.String(), "next", candidates[i+1].String())
		}
	}
	return gpucore.TextureFormatUndefined
}

// supported allocates a 1x1 texture and framebuffer of format and
// releases them again.
func supported(ctx gpucore.Context, format gpucore.TextureFormat) bool {
	tex, err := ctx.CreateTexture(gpucore.TextureDescriptor{
		Label:  "probe",
		Width:  1,
		Height: 1,
		Format: format,
		Filter: gpucore.FilterNearest,
	})
	if err != nil {
		return false
	}
	defer ctx.DestroyTexture(tex)

	fb, err := ctx.CreateFramebuffer(tex)
	if err != nil {
		return false
	}
	ctx.DestroyFramebuffer(fb)
	return true
}
