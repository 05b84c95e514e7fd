package layers

import (
	"fmt"
	"sort"

	"github.com/strata3d/layerpaint/config"
	"github.com/strata3d/layerpaint/mesh"
	"github.com/strata3d/layerpaint/utils"
)

// Store reads and writes schema layers against mesh color sets. It
// holds the project so callers never pass layer metadata around.
type Store struct {
	Project *config.Project
}

// NewStore binds a store to a project.
func NewStore(p *config.Project) *Store {
	return &Store{Project: p}
}

// Get returns a copy of a layer's full color array.
func (s *Store) Get(m *mesh.Mesh, layer string) ([]utils.ColorFloat, error) {
	if !m.HasColorSet(layer) {
		return nil, &MissingLayerError{Mesh: m.Name, Layer: layer}
	}
	colors, err := m.GetFaceVertexColors(layer)
	if err != nil {
		return nil, err
	}
	if len(colors) != m.FaceVertexCount() {
		return nil, &LengthMismatchError{
			Mesh: m.Name, Layer: layer,
			Got: len(colors), Want: m.FaceVertexCount(),
		}
	}
	return colors, nil
}

// Set writes a layer's full color array.
func (s *Store) Set(m *mesh.Mesh, layer string, colors []utils.ColorFloat) error {
	if !m.HasColorSet(layer) {
		return &MissingLayerError{Mesh: m.Name, Layer: layer}
	}
	if len(colors) != m.FaceVertexCount() {
		return &LengthMismatchError{
			Mesh: m.Name, Layer: layer,
			Got: len(colors), Want: m.FaceVertexCount(),
		}
	}
	return m.SetFaceVertexColors(layer, colors)
}

// SetSelected writes colors onto a face-vertex subset. colors and
// selection run in step; unlisted corners keep their values. Corners
// are matched by their (face, vertex) pair, so selections built from
// a different enumeration order still land correctly.
func (s *Store) SetSelected(m *mesh.Mesh, layer string, colors []utils.ColorFloat, selection []mesh.FaceVertex) error {
	if selection == nil {
		return s.Set(m, layer, colors)
	}
	if len(colors) != len(selection) {
		return &LengthMismatchError{
			Mesh: m.Name, Layer: layer,
			Got: len(colors), Want: len(selection),
		}
	}
	full, err := s.Get(m, layer)
	if err != nil {
		return err
	}
	index := faceVertexIndex(m)
	for i, fv := range selection {
		k, ok := index[[2]int{fv.Face, fv.Vertex}]
		if !ok {
			return &LengthMismatchError{
				Mesh: m.Name, Layer: layer,
				Got: len(selection), Want: m.FaceVertexCount(),
			}
		}
		full[k] = colors[i]
	}
	return m.SetFaceVertexColors(layer, full)
}

func faceVertexIndex(m *mesh.Mesh) map[[2]int]int {
	index := make(map[[2]int]int, m.FaceVertexCount())
	for k, fv := range m.FaceVertices() {
		index[[2]int{fv.Face, fv.Vertex}] = k
	}
	return index
}

// EnsureLayers creates every schema layer missing from the mesh,
// filled with its default color, visible, alpha blended. Existing
// sets are left alone.
func (s *Store) EnsureLayers(m *mesh.Mesh) {
	for _, d := range s.Project.SortedLayers() {
		if m.HasColorSet(d.Name) {
			continue
		}
		m.CreateColorSet(d.Name, d.DefaultColor)
		m.SetLayerState(d.Name, mesh.LayerState{Visible: true, BlendMode: mesh.BlendAlpha})
	}
	if m.NumLayerSets == 0 {
		m.NumLayerSets = 1
		m.ActiveLayerSet = 0
	}
}

// VerifyResult classifies a mesh against the schema.
type VerifyResult int

const (
	// VerifyOk means every schema layer is present.
	VerifyOk VerifyResult = iota
	// VerifyEmpty means no schema layer is present at all.
	VerifyEmpty
	// VerifyMismatched means some layers exist and some do not, or
	// stray variant sets disagree with the recorded set count.
	VerifyMismatched
)

func (r VerifyResult) String() string {
	switch r {
	case VerifyOk:
		return "ok"
	case VerifyEmpty:
		return "empty"
	}
	return "mismatched"
}

// VerifyLayers checks a mesh's color sets against the schema.
func (s *Store) VerifyLayers(m *mesh.Mesh) VerifyResult {
	present := 0
	total := 0
	for _, d := range s.Project.SortedLayers() {
		total++
		if m.HasColorSet(d.Name) {
			present++
		}
	}
	switch present {
	case 0:
		return VerifyEmpty
	case total:
		return VerifyOk
	}
	return VerifyMismatched
}

// LayerBadges is the per-layer authoring state summary shown next to
// each layer name.
type LayerBadges struct {
	Layer      string
	Hidden     bool
	Masked     bool
	Adjustment bool
}

// String renders the compact badge column.
func (b LayerBadges) String() string {
	badge := func(on bool, ch string) string {
		if on {
			return ch
		}
		return "-"
	}
	return badge(b.Hidden, "H") + badge(b.Masked, "M") + badge(b.Adjustment, "A")
}

// VerifyLayerState inspects every color layer and reports its badges:
// hidden, carrying a non-trivial alpha mask, or blending in an
// adjustment mode.
func (s *Store) VerifyLayerState(m *mesh.Mesh) ([]LayerBadges, error) {
	var out []LayerBadges
	for _, d := range s.Project.ColorLayers() {
		colors, err := s.Get(m, d.Name)
		if err != nil {
			return nil, err
		}
		st := m.LayerStateOf(d.Name)
		masked := false
		for _, c := range colors {
			if c.A() > 0 && c.A() < 1 {
				masked = true
				break
			}
		}
		out = append(out, LayerBadges{
			Layer:      d.Name,
			Hidden:     !st.Visible,
			Masked:     masked,
			Adjustment: st.BlendMode != mesh.BlendAlpha,
		})
	}
	return out, nil
}

// variantSetName is the color set name a layer's bank takes in
// variant slot k (k >= 1). Slot 0 is the plain layer name.
func variantSetName(layer string, k int) string {
	return fmt.Sprintf("%s_var%d", layer, k)
}

// CheckLayerSetCounts enforces the batch invariant: every mesh in a
// multi-selection operation must carry the same layer set count.
func CheckLayerSetCounts(meshes []*mesh.Mesh) error {
	if len(meshes) < 2 {
		return nil
	}
	want := meshes[0].NumLayerSets
	for _, m := range meshes[1:] {
		if m.NumLayerSets != want {
			names := make([]string, len(meshes))
			for i, mm := range meshes {
				names[i] = mm.Name
			}
			sort.Strings(names)
			return &MismatchedLayerSetsError{Meshes: names}
		}
	}
	return nil
}

// AddLayerSet duplicates the active bank into a new variant slot and
// switches to it. The cap keeps variant suffixes single digit.
func (s *Store) AddLayerSet(m *mesh.Mesh) error {
	if m.NumLayerSets >= config.MaxLayerSetCount+1 {
		return &InvalidSetIndexError{Mesh: m.Name, Index: m.NumLayerSets, Count: m.NumLayerSets}
	}
	newIndex := m.NumLayerSets
	for _, d := range s.Project.ColorLayers() {
		colors, err := s.Get(m, d.Name)
		if err != nil {
			return err
		}
		vname := variantSetName(d.Name, newIndex)
		m.CreateColorSet(vname, utils.ColorFloat{})
		if err := m.SetFaceVertexColors(vname, colors); err != nil {
			return err
		}
	}
	m.NumLayerSets++
	return s.RotateLayerSet(m, newIndex)
}

// RotateLayerSet makes layer set target the active one. The active
// bank always lives under the plain layer names; the outgoing bank is
// parked under the variant suffix of its own slot.
func (s *Store) RotateLayerSet(m *mesh.Mesh, target int) error {
	if target < 0 || target >= m.NumLayerSets {
		return &InvalidSetIndexError{Mesh: m.Name, Index: target, Count: m.NumLayerSets}
	}
	if target == m.ActiveLayerSet {
		return nil
	}
	for _, d := range s.Project.ColorLayers() {
		parked := variantSetName(d.Name, m.ActiveLayerSet)
		incoming := variantSetName(d.Name, target)
		if err := m.RenameColorSet(d.Name, parked); err != nil {
			return err
		}
		if err := m.RenameColorSet(incoming, d.Name); err != nil {
			return err
		}
	}
	m.ActiveLayerSet = target
	return nil
}

// RemoveLayerSet deletes one layer set. Removing the active set
// rotates to set 0 first; the last remaining set cannot be removed.
func (s *Store) RemoveLayerSet(m *mesh.Mesh, target int) error {
	if target < 0 || target >= m.NumLayerSets || m.NumLayerSets == 1 {
		return &InvalidSetIndexError{Mesh: m.Name, Index: target, Count: m.NumLayerSets}
	}
	if target == m.ActiveLayerSet {
		fallback := 0
		if target == 0 {
			fallback = 1
		}
		if err := s.RotateLayerSet(m, fallback); err != nil {
			return err
		}
	}
	for _, d := range s.Project.ColorLayers() {
		m.DeleteColorSet(variantSetName(d.Name, target))
	}
	// Close the numbering gap so slots stay contiguous. The active
	// bank lives under plain names, so its slot needs no renames.
	for k := target + 1; k < m.NumLayerSets; k++ {
		if k == m.ActiveLayerSet {
			m.ActiveLayerSet = k - 1
			continue
		}
		for _, d := range s.Project.ColorLayers() {
			if err := m.RenameColorSet(variantSetName(d.Name, k), variantSetName(d.Name, k-1)); err != nil {
				return err
			}
		}
	}
	m.NumLayerSets--
	return nil
}
