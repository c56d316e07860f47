package native

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/fluid/gpucore"
)

var halFormats = map[gpucore.TextureFormat]gputypes.TextureFormat{
	gpucore.TextureFormatRGBA8Unorm:  gputypes.TextureFormatRGBA8Unorm,
	gpucore.TextureFormatR16Float:    gputypes.TextureFormatR16Float,
	gpucore.TextureFormatRG16Float:   gputypes.TextureFormatRG16Float,
	gpucore.TextureFormatRGBA16Float: gputypes.TextureFormatRGBA16Float,
}

const textureUsage = gputypes.TextureUsageTextureBinding |
	gputypes.TextureUsageRenderAttachment |
	gputypes.TextureUsageCopySrc |
	gputypes.TextureUsageCopyDst

// texture is a HAL texture, its default view and the usage it was last
// transitioned to.
type texture struct {
	desc   gpucore.TextureDescriptor
	format gputypes.TextureFormat
	tex    hal.Texture
	view   hal.TextureView
	usage  gputypes.TextureUsage
}

func newTexture(dev hal.Device, desc gpucore.TextureDescriptor, format gputypes.TextureFormat) (*texture, error) {
	tex, err := dev.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Label,
		Size:          hal.Extent3D{Width: uint32(desc.Width), Height: uint32(desc.Height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         textureUsage,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create texture %q: %w", desc.Label, err)
	}
	view, err := dev.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           desc.Label,
		Format:          format,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		dev.DestroyTexture(tex)
		return nil, fmt.Errorf("native: create texture view %q: %w", desc.Label, err)
	}
	return &texture{desc: desc, format: format, tex: tex, view: view}, nil
}

func (t *texture) destroy(dev hal.Device) {
	dev.DestroyTextureView(t.view)
	dev.DestroyTexture(t.tex)
}

// transition records a barrier when t is not already in usage.
func (t *texture) transition(enc hal.CommandEncoder, usage gputypes.TextureUsage) {
	if t.usage == usage {
		return
	}
	enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex,
		Range:   hal.TextureRange{Aspect: gputypes.TextureAspectAll},
		Usage:   hal.TextureUsageTransition{OldUsage: t.usage, NewUsage: usage},
	}})
	t.usage = usage
}

// buffer is a vertex or index buffer.
type buffer struct {
	buf   hal.Buffer
	count int
	index bool
}

func newBuffer(dev hal.Device, queue hal.Queue, label string, usage gputypes.BufferUsage, data []byte) (hal.Buffer, error) {
	size := roundUp(uint64(len(data)), 4)
	if size == 0 {
		size = 4
	}
	buf, err := dev.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create buffer %q: %w", label, err)
	}
	if len(data) > 0 {
		padded := data
		if uint64(len(data)) != size {
			padded = make([]byte, size)
			copy(padded, data)
		}
		if err := queue.WriteBuffer(buf, 0, padded); err != nil {
			dev.DestroyBuffer(buf)
			return nil, fmt.Errorf("native: write buffer %q: %w", label, err)
		}
	}
	return buf, nil
}

type samplerKey struct {
	filter  gpucore.FilterMode
	address gpucore.AddressMode
}

func newSampler(dev hal.Device, key samplerKey) (hal.Sampler, error) {
	filter := gputypes.FilterModeNearest
	if key.filter == gpucore.FilterLinear {
		filter = gputypes.FilterModeLinear
	}
	address := gputypes.AddressModeClampToEdge
	if key.address == gpucore.AddressRepeat {
		address = gputypes.AddressModeRepeat
	}
	return dev.CreateSampler(&hal.SamplerDescriptor{
		Label:        fmt.Sprintf("sampler %s", key.filter),
		AddressModeU: address,
		AddressModeV: address,
		AddressModeW: address,
		MagFilter:    filter,
		MinFilter:    filter,
		MipmapFilter: gputypes.FilterModeNearest,
		LodMinClamp:  0,
		LodMaxClamp:  32,
	})
}

func roundUp(v, align uint64) uint64 {
	return (v + align - 1) / align * align
}

// flipRows returns a copy of data with the row order reversed.
func flipRows(data []byte, rowBytes, rows int) []byte {
	out := make([]byte, len(data))
	for y := range rows {
		src := data[y*rowBytes : (y+1)*rowBytes]
		copy(out[(rows-1-y)*rowBytes:], src)
	}
	return out
}

// decodeRows converts a top-first staging copy with padded rows into
// bottom-first RGBA floats. Narrow formats expand the way a sampler
// does: missing color channels read 0, alpha reads 1.
func decodeRows(data []byte, format gpucore.TextureFormat, width, height int, stride uint64) []float32 {
	ch := format.Channels()
	bpc := format.BytesPerPixel() / ch
	out := make([]float32, 0, width*height*4)
	for y := range height {
		row := data[uint64(height-1-y)*stride:]
		for x := range width {
			px := [4]float32{0, 0, 0, 1}
			for k := range ch {
				off := (x*ch + k) * bpc
				switch bpc {
				case 1:
					px[k] = float32(row[off]) / 255
				case 2:
					px[k] = halfToFloat(binary.LittleEndian.Uint16(row[off:]))
				default:
					px[k] = math.Float32frombits(binary.LittleEndian.Uint32(row[off:]))
				}
			}
			out = append(out, px[:]...)
		}
	}
	return out
}

// halfToFloat decodes an IEEE 754 binary16 value.
func halfToFloat(h uint16) float32 {
	sign := uint32(h>>15) << 31
	exp := uint32(h>>10) & 0x1f
	mant := uint32(h) & 0x3ff
	switch {
	case exp == 0 && mant == 0:
		return math.Float32frombits(sign)
	case exp == 0:
		// Subnormal: normalize the mantissa.
		e := uint32(127 - 15 + 1)
		for mant&0x400 == 0 {
			mant <<= 1
			e--
		}
		mant &= 0x3ff
		return math.Float32frombits(sign | e<<23 | mant<<13)
	case exp == 0x1f:
		return math.Float32frombits(sign | 0xff<<23 | mant<<13)
	default:
		return math.Float32frombits(sign | (exp+127-15)<<23 | mant<<13)
	}
}
