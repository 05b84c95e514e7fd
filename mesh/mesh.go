// Package mesh is the in-memory host-geometry model the layer tools
// operate on: polygon meshes carrying named per-face-vertex color
// sets, named UV sets, export flags and layer-set bookkeeping.
//
// Color values are stored per face corner, not per unique vertex: a
// vertex shared by two faces holds one color per touching face.
package mesh

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/strata3d/layerpaint/utils"
)

// BlendMode selects how a layer combines with the stack below it.
type BlendMode int

const (
	BlendAlpha BlendMode = iota
	BlendAdditive
	BlendMultiply
)

func (m BlendMode) String() string {
	switch m {
	case BlendAlpha:
		return "alpha"
	case BlendAdditive:
		return "additive"
	case BlendMultiply:
		return "multiply"
	}
	return "invalid"
}

// LayerState is the per-mesh per-layer attribute bag the compositor
// reads: visibility and blend mode, kept outside the color data.
type LayerState struct {
	Visible   bool
	BlendMode BlendMode
}

// ExportFlags replaces the host's free-form dynamic attributes with an
// explicit struct owned alongside each mesh.
type ExportFlags struct {
	StaticVertexColors bool
	SubdivisionLevel   uint8
	SubMeshes          bool
	HardEdges          bool
	CreaseBevels       bool
	SmoothingAngle     uint8
	Transparency       bool
}

// FaceVertex identifies one face corner: the stable (face, vertex)
// pair used to reconcile partial-selection arrays against the full
// per-mesh array.
type FaceVertex struct {
	Face   int
	Corner int
	Vertex int
}

type uvSet struct {
	name string
	u, v []float32
}

// CreaseTierCount is the number of crease strength tiers edges can be
// assigned to. Tier 3 is the hardest crease.
const CreaseTierCount = 4

// Mesh is one polygon mesh. Faces index into Positions; Normals are
// per unique vertex.
type Mesh struct {
	Name string

	Faces     [][]int
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3

	Translate mgl32.Vec3

	Flags  ExportFlags
	States map[string]LayerState

	ActiveLayerSet int
	NumLayerSets   int

	// CreaseSets holds edge membership per crease strength tier.
	CreaseSets [CreaseTierCount][]Edge

	// FaceMaterials buckets faces into preview materials, one id per
	// face. Nil when sub-mesh assignment has not run.
	FaceMaterials []int

	Skin *Skin

	colorSetOrder []string
	colorSets     map[string][]utils.ColorFloat
	uvSets        []*uvSet

	fvCache []FaceVertex
}

// New creates an empty mesh with the given name.
func New(name string) *Mesh {
	return &Mesh{
		Name:      name,
		States:    make(map[string]LayerState),
		colorSets: make(map[string][]utils.ColorFloat),
	}
}

// FaceVertexCount is the sum over faces of their corner counts.
func (m *Mesh) FaceVertexCount() int {
	n := 0
	for _, f := range m.Faces {
		n += len(f)
	}
	return n
}

// FaceVertices enumerates corners in face order. The returned slice is
// cached; callers must not mutate it.
func (m *Mesh) FaceVertices() []FaceVertex {
	if m.fvCache != nil && len(m.fvCache) == m.FaceVertexCount() {
		return m.fvCache
	}
	fvs := make([]FaceVertex, 0, m.FaceVertexCount())
	for fi, f := range m.Faces {
		for ci, vi := range f {
			fvs = append(fvs, FaceVertex{Face: fi, Corner: ci, Vertex: vi})
		}
	}
	m.fvCache = fvs
	return fvs
}

func (m *Mesh) invalidateTopology() {
	m.fvCache = nil
}

// HasColorSet reports whether a named color set exists.
func (m *Mesh) HasColorSet(name string) bool {
	_, ok := m.colorSets[name]
	return ok
}

// ColorSetNames returns set names in creation order.
func (m *Mesh) ColorSetNames() []string {
	out := make([]string, len(m.colorSetOrder))
	copy(out, m.colorSetOrder)
	return out
}

// CreateColorSet adds a named set filled with the given color. Adding
// an existing name refills it.
func (m *Mesh) CreateColorSet(name string, fill utils.ColorFloat) {
	colors := make([]utils.ColorFloat, m.FaceVertexCount())
	for i := range colors {
		colors[i] = fill
	}
	if _, exists := m.colorSets[name]; !exists {
		m.colorSetOrder = append(m.colorSetOrder, name)
	}
	m.colorSets[name] = colors
}

// DeleteColorSet removes a named set; missing names are ignored.
func (m *Mesh) DeleteColorSet(name string) {
	if _, ok := m.colorSets[name]; !ok {
		return
	}
	delete(m.colorSets, name)
	delete(m.States, name)
	for i, n := range m.colorSetOrder {
		if n == name {
			m.colorSetOrder = append(m.colorSetOrder[:i], m.colorSetOrder[i+1:]...)
			break
		}
	}
}

// RenameColorSet moves a set (and its layer state) to a new name.
func (m *Mesh) RenameColorSet(oldName, newName string) error {
	colors, ok := m.colorSets[oldName]
	if !ok {
		return errors.Errorf("Mesh %q has no color set %q", m.Name, oldName)
	}
	if _, exists := m.colorSets[newName]; exists {
		return errors.Errorf("Mesh %q already has color set %q", m.Name, newName)
	}
	delete(m.colorSets, oldName)
	m.colorSets[newName] = colors
	if st, ok := m.States[oldName]; ok {
		delete(m.States, oldName)
		m.States[newName] = st
	}
	for i, n := range m.colorSetOrder {
		if n == oldName {
			m.colorSetOrder[i] = newName
			break
		}
	}
	return nil
}

// GetFaceVertexColors returns a copy of a named set.
func (m *Mesh) GetFaceVertexColors(name string) ([]utils.ColorFloat, error) {
	colors, ok := m.colorSets[name]
	if !ok {
		return nil, errors.Errorf("Mesh %q has no color set %q", m.Name, name)
	}
	out := make([]utils.ColorFloat, len(colors))
	copy(out, colors)
	return out, nil
}

// SetFaceVertexColors replaces a named set's contents.
func (m *Mesh) SetFaceVertexColors(name string, colors []utils.ColorFloat) error {
	if _, ok := m.colorSets[name]; !ok {
		return errors.Errorf("Mesh %q has no color set %q", m.Name, name)
	}
	if len(colors) != m.FaceVertexCount() {
		return errors.Errorf("Mesh %q color set %q length %d != face-vertex count %d",
			m.Name, name, len(colors), m.FaceVertexCount())
	}
	stored := make([]utils.ColorFloat, len(colors))
	copy(stored, colors)
	m.colorSets[name] = stored
	return nil
}

// LayerStateOf returns the state for a layer, defaulting to visible
// alpha blending when never set.
func (m *Mesh) LayerStateOf(name string) LayerState {
	if st, ok := m.States[name]; ok {
		return st
	}
	return LayerState{Visible: true, BlendMode: BlendAlpha}
}

// SetLayerState stores a layer's visibility and blend mode.
func (m *Mesh) SetLayerState(name string, st LayerState) {
	if m.States == nil {
		m.States = make(map[string]LayerState)
	}
	m.States[name] = st
}

// UVSetNames returns UV set names in slot order.
func (m *Mesh) UVSetNames() []string {
	out := make([]string, len(m.uvSets))
	for i, s := range m.uvSets {
		out[i] = s.name
	}
	return out
}

// CreateUVSet appends a zero-filled UV set, one (u,v) per face-vertex.
// Creating an existing name resets it to zero.
func (m *Mesh) CreateUVSet(name string) {
	n := m.FaceVertexCount()
	for _, s := range m.uvSets {
		if s.name == name {
			s.u = make([]float32, n)
			s.v = make([]float32, n)
			return
		}
	}
	m.uvSets = append(m.uvSets, &uvSet{
		name: name,
		u:    make([]float32, n),
		v:    make([]float32, n),
	})
}

// DeleteUVSet removes a named UV set; missing names are ignored.
func (m *Mesh) DeleteUVSet(name string) {
	for i, s := range m.uvSets {
		if s.name == name {
			m.uvSets = append(m.uvSets[:i], m.uvSets[i+1:]...)
			return
		}
	}
}

// RenameUVSet changes a UV set's name in place.
func (m *Mesh) RenameUVSet(oldName, newName string) error {
	for _, s := range m.uvSets {
		if s.name == oldName {
			s.name = newName
			return nil
		}
	}
	return errors.Errorf("Mesh %q has no UV set %q", m.Name, oldName)
}

// SetUVs replaces a UV set's coordinates.
func (m *Mesh) SetUVs(name string, u, v []float32) error {
	n := m.FaceVertexCount()
	if len(u) != n || len(v) != n {
		return errors.Errorf("Mesh %q UV set %q length %d/%d != face-vertex count %d",
			m.Name, name, len(u), len(v), n)
	}
	for _, s := range m.uvSets {
		if s.name == name {
			s.u = make([]float32, n)
			s.v = make([]float32, n)
			copy(s.u, u)
			copy(s.v, v)
			return nil
		}
	}
	return errors.Errorf("Mesh %q has no UV set %q", m.Name, name)
}

// GetUVs returns copies of a UV set's coordinates.
func (m *Mesh) GetUVs(name string) (u, v []float32, err error) {
	for _, s := range m.uvSets {
		if s.name == name {
			u = make([]float32, len(s.u))
			v = make([]float32, len(s.v))
			copy(u, s.u)
			copy(v, s.v)
			return u, v, nil
		}
	}
	return nil, nil, errors.Errorf("Mesh %q has no UV set %q", m.Name, name)
}

// Duplicate deep-copies the mesh under a new name. Skin bindings are
// shared by reference; the export pipeline rebinds them explicitly.
func (m *Mesh) Duplicate(name string) *Mesh {
	d := New(name)
	d.Faces = make([][]int, len(m.Faces))
	for i, f := range m.Faces {
		d.Faces[i] = append([]int(nil), f...)
	}
	d.Positions = append([]mgl32.Vec3(nil), m.Positions...)
	d.Normals = append([]mgl32.Vec3(nil), m.Normals...)
	d.Translate = m.Translate
	d.Flags = m.Flags
	d.ActiveLayerSet = m.ActiveLayerSet
	d.NumLayerSets = m.NumLayerSets
	d.Skin = m.Skin
	for i := range m.CreaseSets {
		d.CreaseSets[i] = append([]Edge(nil), m.CreaseSets[i]...)
	}
	if m.FaceMaterials != nil {
		d.FaceMaterials = append([]int(nil), m.FaceMaterials...)
	}
	for name, st := range m.States {
		d.States[name] = st
	}
	for _, name := range m.colorSetOrder {
		d.colorSetOrder = append(d.colorSetOrder, name)
		d.colorSets[name] = append([]utils.ColorFloat(nil), m.colorSets[name]...)
	}
	for _, s := range m.uvSets {
		d.uvSets = append(d.uvSets, &uvSet{
			name: s.name,
			u:    append([]float32(nil), s.u...),
			v:    append([]float32(nil), s.v...),
		})
	}
	return d
}

// WorldPosition returns a vertex position with the mesh translation
// applied.
func (m *Mesh) WorldPosition(vertex int) mgl32.Vec3 {
	return m.Positions[vertex].Add(m.Translate)
}

// BoundingBox returns the world-space axis-aligned bounds.
func (m *Mesh) BoundingBox() (bbmin, bbmax mgl32.Vec3) {
	if len(m.Positions) == 0 {
		return
	}
	bbmin = m.WorldPosition(0)
	bbmax = bbmin
	for i := 1; i < len(m.Positions); i++ {
		p := m.WorldPosition(i)
		for c := 0; c < 3; c++ {
			if p[c] < bbmin[c] {
				bbmin[c] = p[c]
			}
			if p[c] > bbmax[c] {
				bbmax[c] = p[c]
			}
		}
	}
	return
}

// FreezeTransform bakes the translation into vertex positions.
func (m *Mesh) FreezeTransform() {
	if m.Translate == (mgl32.Vec3{}) {
		return
	}
	for i := range m.Positions {
		m.Positions[i] = m.Positions[i].Add(m.Translate)
	}
	m.Translate = mgl32.Vec3{}
}

// resizeAttributes grows or rebuilds per-face-vertex attribute arrays
// after a topology change, remapping old values through oldIndex:
// entry i of the new array takes old entry oldIndex[i], or the zero
// value when oldIndex[i] < 0.
func (m *Mesh) resizeAttributes(oldIndex []int) {
	m.invalidateTopology()
	n := m.FaceVertexCount()
	for name, colors := range m.colorSets {
		next := make([]utils.ColorFloat, n)
		for i, oi := range oldIndex {
			if oi >= 0 && oi < len(colors) {
				next[i] = colors[oi]
			}
		}
		m.colorSets[name] = next
	}
	for _, s := range m.uvSets {
		nu := make([]float32, n)
		nv := make([]float32, n)
		for i, oi := range oldIndex {
			if oi >= 0 && oi < len(s.u) {
				nu[i] = s.u[oi]
				nv[i] = s.v[oi]
			}
		}
		s.u = nu
		s.v = nv
	}
}
