package layers

import (
	"github.com/strata3d/layerpaint/config"
	"github.com/strata3d/layerpaint/mesh"
	"github.com/strata3d/layerpaint/utils"
)

// MergeDirection selects which neighbor a layer merges with.
type MergeDirection int

const (
	// MergeDown folds the named layer into the layer below it.
	MergeDown MergeDirection = iota
	// MergeUp folds the layer above into the named layer.
	MergeUp
)

// Merge folds two adjacent color layers into one. The upper layer is
// always the source and the lower the target: the source is blended
// over the target per the source's blend mode, the result replaces the
// target, and the source is reset to its default color with both
// layers back on alpha blending.
//
// The base layer cannot merge down, the top layer cannot merge up,
// and material channels never merge.
func (s *Store) Merge(m *mesh.Mesh, layer string, dir MergeDirection) error {
	stack := s.Project.ColorLayers()
	at := -1
	for i, d := range stack {
		if d.Name == layer {
			at = i
			break
		}
	}
	if at < 0 {
		if d, ok := s.Project.Layer(layer); ok && d.IsMaterialChannel {
			return &CannotMergeBaseLayerError{Mesh: m.Name, Layer: layer, Reason: "material channels never merge"}
		}
		return &MissingLayerError{Mesh: m.Name, Layer: layer}
	}

	var srcDef, dstDef config.LayerDefinition
	switch dir {
	case MergeDown:
		if at == 0 {
			return &CannotMergeBaseLayerError{Mesh: m.Name, Layer: layer, Reason: "base layer has nothing below it"}
		}
		srcDef, dstDef = stack[at], stack[at-1]
	case MergeUp:
		if at == len(stack)-1 {
			return &CannotMergeBaseLayerError{Mesh: m.Name, Layer: layer, Reason: "top layer has nothing above it"}
		}
		srcDef, dstDef = stack[at+1], stack[at]
	default:
		return &CannotMergeBaseLayerError{Mesh: m.Name, Layer: layer, Reason: "unknown merge direction"}
	}

	return s.mergeInto(m, srcDef, dstDef)
}

func (s *Store) mergeInto(m *mesh.Mesh, srcDef, dstDef config.LayerDefinition) error {
	src, err := s.Get(m, srcDef.Name)
	if err != nil {
		return err
	}
	dst, err := s.Get(m, dstDef.Name)
	if err != nil {
		return err
	}

	mode := m.LayerStateOf(srcDef.Name).BlendMode
	if err := blendInto(dst, src, mode); err != nil {
		if be, ok := err.(*InvalidBlendModeError); ok {
			be.Mesh = m.Name
			be.Layer = srcDef.Name
		}
		return err
	}
	// Alpha and additive merges accumulate coverage; a multiply
	// adjustment only tints what is already there.
	if mode != mesh.BlendMultiply {
		for i := range dst {
			dst[i][3] = utils.Clamp01(dst[i].A() + src[i].A())
		}
	}

	if err := s.Set(m, dstDef.Name, dst); err != nil {
		return err
	}
	m.CreateColorSet(srcDef.Name, srcDef.DefaultColor)
	m.SetLayerState(srcDef.Name, mesh.LayerState{Visible: true, BlendMode: mesh.BlendAlpha})

	dstState := m.LayerStateOf(dstDef.Name)
	dstState.BlendMode = mesh.BlendAlpha
	m.SetLayerState(dstDef.Name, dstState)
	return nil
}

// FlattenColors merges every plain color layer above the base into
// the base layer, bottom up, then drops every other color set so the
// base set is the only one left on the mesh. Overlay and channel data
// must already be encoded into UV sets before flattening.
func (s *Store) FlattenColors(m *mesh.Mesh) error {
	maskable := s.Project.MaskLayers()
	if len(maskable) == 0 {
		return &MissingLayerError{Mesh: m.Name, Layer: config.BaseLayerName}
	}
	base := maskable[0]
	for _, d := range maskable[1:] {
		if err := s.mergeInto(m, d, base); err != nil {
			return err
		}
	}
	for _, name := range m.ColorSetNames() {
		if name != base.Name {
			m.DeleteColorSet(name)
		}
	}
	return nil
}

// BuildLayerMask encodes which layer owns each face-vertex as a 1
// based index. The base layer claims everything; each higher mask
// layer overwrites where its alpha clears the project tolerance, so
// the topmost qualifying layer wins.
func (s *Store) BuildLayerMask(m *mesh.Mesh) ([]float32, error) {
	mask := make([]float32, m.FaceVertexCount())
	for i := range mask {
		mask[i] = 1
	}
	for li, d := range s.Project.MaskLayers() {
		if li == 0 {
			continue
		}
		colors, err := s.Get(m, d.Name)
		if err != nil {
			return nil, err
		}
		for i, c := range colors {
			if c.A() >= s.Project.AlphaTolerance {
				mask[i] = float32(li + 1)
			}
		}
	}
	return mask, nil
}
