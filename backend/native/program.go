package native

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/fluid/gpucore"
	"github.com/gogpu/fluid/shader"
)

// Entry points of every WGSL stage.
const (
	vertexEntry   = "vs_main"
	fragmentEntry = "fs_main"
)

// minUniformAlignment is the WebGPU default for
// minUniformBufferOffsetAlignment.
const minUniformAlignment = 256

// shaderModule is a preprocessed, validated WGSL stage.
type shaderModule struct {
	stage  gpucore.ShaderStage
	label  string
	layout shader.WGSLLayout
	module hal.ShaderModule
	err    error
}

func compileShader(dev hal.Device, stage gpucore.ShaderStage, label, source string) *shaderModule {
	s := &shaderModule{stage: stage, label: label}
	wrap := func(err error) error {
		return fmt.Errorf("native: compile %s %q: %w", stage, label, err)
	}

	res, err := shader.Preprocess(source, shader.Options{})
	if err != nil {
		s.err = wrap(err)
		return s
	}
	module, err := shader.ParseWGSL(res.Source)
	if err != nil {
		s.err = wrap(err)
		return s
	}
	if s.layout, err = shader.ReflectWGSL(module); err != nil {
		s.err = wrap(err)
		return s
	}
	s.module, err = dev.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{WGSL: res.Source},
	})
	if err != nil {
		s.err = wrap(err)
	}
	return s
}

func (s *shaderModule) destroy(dev hal.Device) {
	if s.module != nil {
		dev.DestroyShaderModule(s.module)
	}
}

// slot is where the value of one uniform location lives.
type slot struct {
	typ     gpucore.UniformType
	offset  int
	texture int
}

type pipelineKey struct {
	format gputypes.TextureFormat
	blend  gpucore.BlendMode
}

// program is a linked vertex and fragment stage. Both stages share the
// uniform struct at binding 0: a field declared by both must have the
// same offset.
type program struct {
	label    string
	vs, fs   *shaderModule
	linked   bool
	uniforms []gpucore.UniformInfo
	slots    []slot

	// values is the CPU copy of the uniform struct.
	values   []byte
	binding  int
	textures []shader.WGSLTexture
	units    []int

	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipelines  map[pipelineKey]hal.RenderPipeline
}

func linkProgram(dev hal.Device, label string, vs, fs *shaderModule) (*program, error) {
	p := &program{label: label, vs: vs, fs: fs, binding: -1, pipelines: make(map[pipelineKey]hal.RenderPipeline)}
	switch {
	case vs == nil || fs == nil:
		return p, fmt.Errorf("native: link %q: %w", label, ErrUnknownResource)
	case vs.stage != gpucore.ShaderStageVertex || fs.stage != gpucore.ShaderStageFragment:
		return p, fmt.Errorf("native: link %q: stage mismatch", label)
	case vs.err != nil:
		return p, fmt.Errorf("native: link %q: %w", label, vs.err)
	case fs.err != nil:
		return p, fmt.Errorf("native: link %q: %w", label, fs.err)
	}
	if len(vs.layout.Textures) > 0 {
		return p, fmt.Errorf("native: link %q: vertex stage samples textures", label)
	}

	size := 16
	offsets := make(map[string]int)
	for _, stage := range []*shaderModule{vs, fs} {
		l := stage.layout
		if l.UniformBinding < 0 {
			continue
		}
		if p.binding >= 0 && p.binding != l.UniformBinding {
			return p, fmt.Errorf("native: link %q: uniform bindings %d and %d differ", label, p.binding, l.UniformBinding)
		}
		p.binding = l.UniformBinding
		size = max(size, l.Size)
		for _, f := range l.Fields {
			if off, ok := offsets[f.Name]; ok {
				if off != f.Offset {
					return p, fmt.Errorf("native: link %q: uniform %s at offsets %d and %d", label, f.Name, off, f.Offset)
				}
				continue
			}
			offsets[f.Name] = f.Offset
			p.addUniform(f.Name, slot{typ: f.Type, offset: f.Offset, texture: -1})
		}
	}
	p.values = make([]byte, size)
	p.textures = fs.layout.Textures
	p.units = make([]int, len(p.textures))
	for i, t := range p.textures {
		p.addUniform(t.Name, slot{typ: gpucore.UniformSampler2D, offset: -1, texture: i})
	}

	if err := p.createLayouts(dev); err != nil {
		return p, fmt.Errorf("native: link %q: %w", label, err)
	}
	p.linked = true
	return p, nil
}

func (p *program) addUniform(name string, s slot) {
	p.uniforms = append(p.uniforms, gpucore.UniformInfo{
		Name:     name,
		Type:     s.typ,
		Location: gpucore.UniformLocation(len(p.slots)),
	})
	p.slots = append(p.slots, s)
}

func (p *program) createLayouts(dev hal.Device) error {
	var entries []gputypes.BindGroupLayoutEntry
	if p.binding >= 0 {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    uint32(p.binding),
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		})
	}
	for _, t := range p.textures {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    t.Binding,
			Visibility: gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		})
		if t.HasSampler {
			entries = append(entries, gputypes.BindGroupLayoutEntry{
				Binding:    t.SamplerBinding,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			})
		}
	}

	var err error
	p.bindLayout, err = dev.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{Label: p.label, Entries: entries})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	p.pipeLayout, err = dev.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            p.label,
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		dev.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	return nil
}

// slotSize is the stride of one draw's uniform snapshot.
func (p *program) slotSize() uint64 {
	return roundUp(uint64(len(p.values)), minUniformAlignment)
}

func (p *program) set(loc gpucore.UniformLocation, v [4]float32, n int) {
	if p == nil || loc < 0 || int(loc) >= len(p.slots) {
		return
	}
	s := p.slots[loc]
	if s.texture >= 0 {
		p.units[s.texture] = int(v[0])
		return
	}
	if s.typ == gpucore.UniformInt {
		binary.LittleEndian.PutUint32(p.values[s.offset:], uint32(int32(v[0])))
		return
	}
	n = min(n, s.typ.Components())
	for i := range n {
		binary.LittleEndian.PutUint32(p.values[s.offset+4*i:], math.Float32bits(v[i]))
	}
}

var vertexLayout = []gputypes.VertexBufferLayout{{
	ArrayStride: 8,
	StepMode:    gputypes.VertexStepModeVertex,
	Attributes: []gputypes.VertexAttribute{
		{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
	},
}}

func blendState(mode gpucore.BlendMode) *gputypes.BlendState {
	switch mode {
	case gpucore.BlendPremultiplied:
		b := gputypes.BlendStatePremultiplied()
		return &b
	case gpucore.BlendAdditive:
		c := gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOne,
			Operation: gputypes.BlendOperationAdd,
		}
		return &gputypes.BlendState{Color: c, Alpha: c}
	default:
		return nil
	}
}

// pipeline returns the render pipeline for a target format and blend
// mode, creating it on first use.
func (p *program) pipeline(dev hal.Device, format gputypes.TextureFormat, mode gpucore.BlendMode) (hal.RenderPipeline, error) {
	key := pipelineKey{format: format, blend: mode}
	if rp, ok := p.pipelines[key]; ok {
		return rp, nil
	}
	rp, err := dev.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  p.label,
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.vs.module,
			EntryPoint: vertexEntry,
			Buffers:    vertexLayout,
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
		Fragment: &hal.FragmentState{
			Module:     p.fs.module,
			EntryPoint: fragmentEntry,
			Targets: []gputypes.ColorTargetState{{
				Format:    format,
				Blend:     blendState(mode),
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("native: pipeline %q %s: %w", p.label, format, err)
	}
	p.pipelines[key] = rp
	return rp, nil
}

func (p *program) destroy(dev hal.Device) {
	for k, rp := range p.pipelines {
		dev.DestroyRenderPipeline(rp)
		delete(p.pipelines, k)
	}
	if p.pipeLayout != nil {
		dev.DestroyPipelineLayout(p.pipeLayout)
	}
	if p.bindLayout != nil {
		dev.DestroyBindGroupLayout(p.bindLayout)
	}
}
