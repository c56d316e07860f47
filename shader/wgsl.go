package shader

import (
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"

	"github.com/gogpu/fluid/gpucore"
)

// WGSLField is one member of the uniform parameter struct.
type WGSLField struct {
	Name   string
	Type   gpucore.UniformType
	Offset int
}

// WGSLTexture is a sampled texture binding and its paired sampler.
type WGSLTexture struct {
	Name           string
	Binding        uint32
	SamplerBinding uint32
	HasSampler     bool
}

// WGSLLayout describes the bind group 0 interface of a WGSL module.
type WGSLLayout struct {
	// Fields of the uniform struct bound at UniformBinding.
	Fields []WGSLField

	// Size is the uniform buffer size, rounded up to 16 bytes.
	Size int

	// UniformBinding is the binding of the uniform struct, or -1.
	UniformBinding int

	// Textures are the sampled textures in declaration order.
	Textures []WGSLTexture
}

// ParseWGSL parses, lowers and validates a preprocessed WGSL source with
// naga. Errors carry line information.
func ParseWGSL(source string) (*ir.Module, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, err
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, err
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return nil, err
	}
	if len(verrs) > 0 {
		return nil, &verrs[0]
	}
	return module, nil
}

// ReflectWGSL extracts the uniform struct layout and the texture and
// sampler bindings of group 0 from a module returned by ParseWGSL.
// Member offsets are the ones naga computed for the uniform address
// space.
//
// Samplers pair with textures by name: the sampler for texture "uSource"
// is "uSourceSampler".
func ReflectWGSL(module *ir.Module) (WGSLLayout, error) {
	layout := WGSLLayout{UniformBinding: -1}
	samplers := make(map[string]uint32)

	for _, g := range module.GlobalVariables {
		if g.Binding == nil || g.Binding.Group != 0 || int(g.Type) >= len(module.Types) {
			continue
		}
		binding := g.Binding.Binding
		switch inner := module.Types[g.Type].Inner.(type) {
		case ir.StructType:
			if g.Space != ir.SpaceUniform {
				continue
			}
			if layout.UniformBinding >= 0 {
				return WGSLLayout{}, fmt.Errorf("shader: second uniform %s at binding %d", g.Name, binding)
			}
			fields, err := structFields(module, g.Name, inner)
			if err != nil {
				return WGSLLayout{}, err
			}
			layout.UniformBinding = int(binding)
			layout.Fields = fields
			layout.Size = roundUp(int(inner.Span), 16)
		case ir.ImageType:
			if inner.Dim == ir.Dim2D && inner.Class == ir.ImageClassSampled && !inner.Arrayed {
				layout.Textures = append(layout.Textures, WGSLTexture{Name: g.Name, Binding: binding})
			}
		case ir.SamplerType:
			samplers[g.Name] = binding
		}
	}

	for i := range layout.Textures {
		if b, ok := samplers[layout.Textures[i].Name+"Sampler"]; ok {
			layout.Textures[i].SamplerBinding = b
			layout.Textures[i].HasSampler = true
		}
	}
	return layout, nil
}

func structFields(module *ir.Module, name string, st ir.StructType) ([]WGSLField, error) {
	fields := make([]WGSLField, 0, len(st.Members))
	for _, m := range st.Members {
		typ, ok := uniformType(module.Types[m.Type].Inner)
		if !ok {
			return nil, fmt.Errorf("shader: %s.%s: unsupported uniform type", name, m.Name)
		}
		fields = append(fields, WGSLField{Name: m.Name, Type: typ, Offset: int(m.Offset)})
	}
	return fields, nil
}

// uniformType maps 32-bit float scalars and vectors and i32 to uniform
// types.
func uniformType(t ir.TypeInner) (gpucore.UniformType, bool) {
	switch t := t.(type) {
	case ir.ScalarType:
		switch {
		case t.Width != 4:
		case t.Kind == ir.ScalarFloat:
			return gpucore.UniformFloat, true
		case t.Kind == ir.ScalarSint:
			return gpucore.UniformInt, true
		}
	case ir.VectorType:
		if t.Scalar.Kind != ir.ScalarFloat || t.Scalar.Width != 4 {
			break
		}
		switch t.Size {
		case ir.Vec2:
			return gpucore.UniformVec2, true
		case ir.Vec3:
			return gpucore.UniformVec3, true
		case ir.Vec4:
			return gpucore.UniformVec4, true
		}
	}
	return 0, false
}

func roundUp(v, align int) int {
	return (v + align - 1) / align * align
}
