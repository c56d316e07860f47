package fluid

import (
	"slices"

	"github.com/gogpu/fluid/gpucore"
	"github.com/gogpu/fluid/shader"
)

// Material is one fragment source compiled on demand into keyword
// variants. Variants are cached by the additive keyword hash, so
// reordered keyword sets share a program. Two different sets with equal
// hashes would also share one; the keyword sets used here do not collide.
type Material struct {
	ctx      gpucore.Context
	label    string
	vs       gpucore.ShaderID
	source   string
	programs map[int64]*Program
	shaders  []gpucore.ShaderID
	active   *Program
	keywords []string
	compiles int
}

// NewMaterial creates a material for the fragment source. vs is shared
// by every variant and stays owned by the caller. No variant is compiled
// until SetKeywords is called.
func NewMaterial(ctx gpucore.Context, label string, vs gpucore.ShaderID, source string) *Material {
	return &Material{
		ctx:      ctx,
		label:    label,
		vs:       vs,
		source:   source,
		programs: make(map[int64]*Program),
	}
}

// SetKeywords selects the variant for keywords, compiling it on first
// use. The active program only changes when the resolved variant differs.
func (m *Material) SetKeywords(keywords []string) {
	hash := shader.HashKeywords(keywords)
	p, ok := m.programs[hash]
	if !ok {
		fs := CompileShader(m.ctx, gpucore.ShaderStageFragment, m.label, m.source, keywords)
		m.shaders = append(m.shaders, fs)
		m.compiles++
		p = LinkProgram(m.ctx, m.label, m.vs, fs)
		m.programs[hash] = p
	}
	if p == m.active {
		return
	}
	m.active = p
	m.keywords = slices.Clone(keywords)
	Logger().Debug("fluid: material variant", "label", m.label, "keywords", keywords)
}

// Program returns the active variant, nil before the first SetKeywords.
func (m *Material) Program() *Program { return m.active }

// Keywords returns the keyword set the active variant was selected with.
func (m *Material) Keywords() []string { return slices.Clone(m.keywords) }

// Bind makes the active variant current.
func (m *Material) Bind() {
	if m.active != nil {
		m.active.Bind()
	}
}

// Compiles returns the number of fragment compilations so far.
func (m *Material) Compiles() int { return m.compiles }

// Destroy releases every cached variant and its fragment shader.
func (m *Material) Destroy() {
	for _, p := range m.programs {
		p.Destroy()
	}
	for _, fs := range m.shaders {
		m.ctx.DestroyShader(fs)
	}
	clear(m.programs)
	m.shaders = nil
	m.active = nil
}
