package layers

import (
	"github.com/strata3d/layerpaint/mesh"
	"github.com/strata3d/layerpaint/utils"
)

// blendInto applies one source layer onto the running target array in
// place, per the source layer's blend mode. Target alpha is never
// touched here; alpha bookkeeping belongs to the caller.
func blendInto(target, src []utils.ColorFloat, mode mesh.BlendMode) error {
	switch mode {
	case mesh.BlendAlpha:
		for i := range target {
			a := src[i].A()
			for c := 0; c < 3; c++ {
				target[i][c] = src[i][c]*a + target[i][c]*(1-a)
			}
		}
	case mesh.BlendAdditive:
		for i := range target {
			a := src[i].A()
			for c := 0; c < 3; c++ {
				target[i][c] += src[i][c] * a
			}
		}
	case mesh.BlendMultiply:
		for i := range target {
			a := src[i].A()
			for c := 0; c < 3; c++ {
				white := src[i][c]*a + (1 - a)
				target[i][c] *= white
			}
		}
	default:
		return &InvalidBlendModeError{Mode: int(mode)}
	}
	return nil
}

// Composite flattens every visible color layer, bottom to top, into a
// single preview array. The bottom layer is copied verbatim, so its
// own blend mode and alpha never attenuate it; the layers above blend
// onto that copy. The result alpha is forced opaque; hidden layers
// and material channels never contribute.
func (s *Store) Composite(m *mesh.Mesh) ([]utils.ColorFloat, error) {
	target := make([]utils.ColorFloat, m.FaceVertexCount())
	stack := s.Project.ColorLayers()
	if len(stack) > 0 {
		if m.LayerStateOf(stack[0].Name).Visible {
			src, err := s.Get(m, stack[0].Name)
			if err != nil {
				return nil, err
			}
			copy(target, src)
		}
		stack = stack[1:]
	}
	for _, d := range stack {
		st := m.LayerStateOf(d.Name)
		if !st.Visible {
			continue
		}
		src, err := s.Get(m, d.Name)
		if err != nil {
			return nil, err
		}
		if err := blendInto(target, src, st.BlendMode); err != nil {
			if be, ok := err.(*InvalidBlendModeError); ok {
				be.Mesh = m.Name
				be.Layer = d.Name
			}
			return nil, err
		}
	}
	for i := range target {
		target[i][3] = 1
	}
	return target, nil
}

// CompositeToSet writes the flattened preview into a named color set,
// creating it when missing.
func (s *Store) CompositeToSet(m *mesh.Mesh, setName string) error {
	colors, err := s.Composite(m)
	if err != nil {
		return err
	}
	if !m.HasColorSet(setName) {
		m.CreateColorSet(setName, utils.ColorFloat{})
	}
	return m.SetFaceVertexColors(setName, colors)
}
