// Package export turns authored layer stacks into engine-ready
// meshes: layer data encoded into UV channels, color layers flattened
// into one composite set, variants laid out on an export grid and the
// result written as glTF.
package export

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/strata3d/layerpaint/config"
	"github.com/strata3d/layerpaint/layers"
	"github.com/strata3d/layerpaint/mesh"
)

// UVSetCount is how many UV sets an export mesh carries, UV0..UV6.
const UVSetCount = 7

// uvSetName names export UV sets by slot.
func uvSetName(set int) string {
	return fmt.Sprintf("UV%d", set)
}

// channelValue picks the scalar a layer contributes to its UV slot.
type channelValue int

const (
	valueMask channelValue = iota
	valueMaterial
	valueAlphaOverlay
)

// encodeChannels recreates the seven UV sets from scratch and writes
// every layer's export targets into them. Stale coordinates never
// survive: set recreation zero-fills first.
func encodeChannels(s *layers.Store, m *mesh.Mesh) error {
	for set := 0; set < UVSetCount; set++ {
		m.DeleteUVSet(uvSetName(set))
		m.CreateUVSet(uvSetName(set))
	}

	for _, d := range s.Project.SortedLayers() {
		if len(d.ExportTargets) == 0 {
			continue
		}
		switch {
		case d.IsRGBAOverlay:
			if err := encodeRGBAOverlay(s, m, d); err != nil {
				return err
			}
		case d.IsMaterialChannel:
			if err := encodeScalar(s, m, d, valueMaterial); err != nil {
				return err
			}
		case d.AlphaOverlaySlot != 0:
			if err := encodeScalar(s, m, d, valueAlphaOverlay); err != nil {
				return err
			}
		default:
			if err := encodeScalar(s, m, d, valueMask); err != nil {
				return err
			}
		}
	}
	return nil
}

// encodeScalar writes one value per face-vertex into a single UV axis.
//
// Mask slots carry the 1-based owning layer index. Material channels
// carry the red component wherever painted. Alpha overlays carry the
// alpha itself, zero where unpainted.
func encodeScalar(s *layers.Store, m *mesh.Mesh, d config.LayerDefinition, kind channelValue) error {
	if len(d.ExportTargets) != 1 {
		return errors.Errorf("layer %q must export to exactly one UV slot", d.Name)
	}
	target := d.ExportTargets[0]

	var values []float32
	switch kind {
	case valueMask:
		mask, err := s.BuildLayerMask(m)
		if err != nil {
			return err
		}
		values = mask
	default:
		colors, err := s.Get(m, d.Name)
		if err != nil {
			return err
		}
		values = make([]float32, len(colors))
		for i, c := range colors {
			if c.A() <= 0 {
				continue
			}
			if kind == valueMaterial {
				values[i] = c.R()
			} else {
				values[i] = c.A()
			}
		}
	}

	return writeAxis(m, target, values)
}

// encodeRGBAOverlay spreads a layer's full color across two UV sets:
// (r,g) into the first, (b,a) into the second.
func encodeRGBAOverlay(s *layers.Store, m *mesh.Mesh, d config.LayerDefinition) error {
	if len(d.ExportTargets) != 2 {
		return errors.Errorf("layer %q must export to exactly two UV sets", d.Name)
	}
	colors, err := s.Get(m, d.Name)
	if err != nil {
		return err
	}
	r := make([]float32, len(colors))
	g := make([]float32, len(colors))
	b := make([]float32, len(colors))
	a := make([]float32, len(colors))
	for i, c := range colors {
		r[i], g[i], b[i], a[i] = c.R(), c.G(), c.B(), c.A()
	}
	first, second := d.ExportTargets[0].Set, d.ExportTargets[1].Set
	if err := m.SetUVs(uvSetName(first), r, g); err != nil {
		return err
	}
	return m.SetUVs(uvSetName(second), b, a)
}

// writeAxis stores values into one axis of a UV set, preserving the
// other axis.
func writeAxis(m *mesh.Mesh, target config.UVTarget, values []float32) error {
	name := uvSetName(target.Set)
	u, v, err := m.GetUVs(name)
	if err != nil {
		return err
	}
	if target.Axis == "U" {
		copy(u, values)
	} else {
		copy(v, values)
	}
	return m.SetUVs(name, u, v)
}
