package native

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// DefaultVariants is the HAL backend preference of [OpenDevice].
var DefaultVariants = []gputypes.Backend{
	gputypes.BackendVulkan,
	gputypes.BackendMetal,
	gputypes.BackendDX12,
	gputypes.BackendGL,
}

// Device is an opened HAL device and its queue.
type Device struct {
	Device hal.Device
	Queue  hal.Queue

	// Adapter is nil for devices borrowed from a provider. Format
	// support is then assumed rather than probed.
	Adapter hal.Adapter

	Info   gputypes.AdapterInfo
	Limits gputypes.Limits

	instance hal.Instance
	borrowed bool
}

// OpenDevice opens an adapter of the first registered HAL backend in
// variants that exposes one. Discrete and integrated GPUs are preferred
// over other adapters of the same backend. With no variants,
// [DefaultVariants] is used.
func OpenDevice(variants ...gputypes.Backend) (*Device, error) {
	if len(variants) == 0 {
		variants = DefaultVariants
	}
	var errs []error
	for _, v := range variants {
		b, ok := hal.GetBackend(v)
		if !ok {
			continue
		}
		d, err := openBackend(b)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", v, err))
			continue
		}
		slogger().Info("native: device opened", "backend", v.String(), "adapter", d.Info.Name)
		return d, nil
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrNoAdapter, errors.Join(errs...))
	}
	return nil, ErrNoAdapter
}

func openBackend(b hal.Backend) (*Device, error) {
	instance, err := b.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	open, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}
	limits := selected.Capabilities.Limits
	if limits.MaxTextureDimension2D == 0 {
		limits = gputypes.DefaultLimits()
	}
	return &Device{
		Device:   open.Device,
		Queue:    open.Queue,
		Adapter:  selected.Adapter,
		Info:     selected.Info,
		Limits:   limits,
		instance: instance,
	}, nil
}

// halDevice is implemented by *wgpu.Device.
type halDevice interface {
	HalDevice() hal.Device
	HalQueue() hal.Queue
}

// FromProvider borrows the device of a host application, such as a gogpu
// window. Closing the returned Device does not destroy the borrowed one.
func FromProvider(p gpucontext.DeviceProvider) (*Device, error) {
	if p == nil {
		return nil, ErrNoHALDevice
	}
	hd, ok := p.Device().(halDevice)
	if !ok || hd.HalDevice() == nil || hd.HalQueue() == nil {
		return nil, ErrNoHALDevice
	}
	info := p.AdapterInfo()
	return &Device{
		Device:   hd.HalDevice(),
		Queue:    hd.HalQueue(),
		Info:     gputypes.AdapterInfo{Name: info.Name},
		Limits:   gputypes.DefaultLimits(),
		borrowed: true,
	}, nil
}

// supports reports whether textures of format can be sampled and rendered to.
func (d *Device) supports(format gputypes.TextureFormat) bool {
	if d.Adapter == nil {
		return true
	}
	const need = hal.TextureFormatCapabilitySampled | hal.TextureFormatCapabilityRenderAttachment
	return d.Adapter.TextureFormatCapabilities(format).Flags&need == need
}

// Close waits for the device to go idle and releases it. Borrowed
// devices are left alone.
func (d *Device) Close() {
	if d == nil || d.Device == nil {
		return
	}
	if d.borrowed {
		d.Device = nil
		return
	}
	if err := d.Device.WaitIdle(); err != nil {
		slogger().Warn("native: wait idle on close", "error", err)
	}
	d.Device.Destroy()
	d.Device = nil
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
}
