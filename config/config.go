// Package config holds the project configuration: the layer schema,
// export channel assignments and palette files. A *Project is built
// once and passed explicitly into every component, never kept as
// package state.
package config

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/strata3d/layerpaint/utils"
)

// UVTarget is one UV channel slot: an axis (U or V) plus a UV set
// number 0..6. Serialized in the compact "U3" form.
type UVTarget struct {
	Axis string
	Set  int
}

func (t UVTarget) String() string {
	return t.Axis + string(rune('0'+t.Set))
}

func (t UVTarget) MarshalText() ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	return []byte(t.String()), nil
}

func (t *UVTarget) UnmarshalText(text []byte) error {
	if len(text) != 2 {
		return errors.Errorf("Invalid UV target %q", string(text))
	}
	t.Axis = string(text[0])
	t.Set = int(text[1] - '0')
	return t.validate()
}

func (t UVTarget) validate() error {
	if t.Axis != "U" && t.Axis != "V" {
		return errors.Errorf("Invalid UV axis %q", t.Axis)
	}
	if t.Set < 0 || t.Set > 6 {
		return errors.Errorf("UV set %d out of range", t.Set)
	}
	return nil
}

// LayerDefinition is one entry of the layer schema.
type LayerDefinition struct {
	Name              string           `json:"name" yaml:"name"`
	OrderIndex        int              `json:"orderIndex" yaml:"orderIndex"`
	DefaultColor      utils.ColorFloat `json:"defaultColor" yaml:"defaultColor"`
	ExportTargets     []UVTarget       `json:"exportTargets,omitempty" yaml:"exportTargets,omitempty"`
	AlphaOverlaySlot  int              `json:"alphaOverlaySlot,omitempty" yaml:"alphaOverlaySlot,omitempty"`
	IsRGBAOverlay     bool             `json:"rgbaOverlay,omitempty" yaml:"rgbaOverlay,omitempty"`
	IsMaterialChannel bool             `json:"materialChannel,omitempty" yaml:"materialChannel,omitempty"`
	DisplayName       string           `json:"displayName,omitempty" yaml:"displayName,omitempty"`
}

// IsPlainColorLayer reports whether the layer takes part in the
// mask/flatten scheme: a color layer with no overlay or material role.
func (d *LayerDefinition) IsPlainColorLayer() bool {
	return !d.IsMaterialChannel && !d.IsRGBAOverlay && d.AlphaOverlaySlot == 0
}

// Project is the complete project configuration consumed by every
// component. LayerData is keyed by layer name.
type Project struct {
	LayerCount     int                        `json:"layerCount" yaml:"layerCount"`
	MaskCount      int                        `json:"maskCount" yaml:"maskCount"`
	ChannelCount   int                        `json:"channelCount" yaml:"channelCount"`
	AlphaTolerance float32                    `json:"alphaTolerance" yaml:"alphaTolerance"`
	ExportOffset   float32                    `json:"exportOffset" yaml:"exportOffset"`
	ExportSuffix   bool                       `json:"exportSuffix" yaml:"exportSuffix"`
	LayerData      map[string]LayerDefinition `json:"layerData" yaml:"layerData"`
	PaletteTargets [5][]string                `json:"paletteTargets" yaml:"paletteTargets"`
}

// SortedLayers returns all layer definitions ordered by OrderIndex.
func (p *Project) SortedLayers() []LayerDefinition {
	defs := make([]LayerDefinition, 0, len(p.LayerData))
	for _, d := range p.LayerData {
		defs = append(defs, d)
	}
	sort.Slice(defs, func(i, j int) bool {
		return defs[i].OrderIndex < defs[j].OrderIndex
	})
	return defs
}

// ColorLayers returns the ordered non-material layers: the ones the
// compositor stacks.
func (p *Project) ColorLayers() []LayerDefinition {
	defs := p.SortedLayers()
	out := defs[:0]
	for _, d := range defs {
		if !d.IsMaterialChannel {
			out = append(out, d)
		}
	}
	return out
}

// MaskLayers returns the ordered layers participating in the
// layer-mask export scheme: plain color layers, limited to MaskCount.
func (p *Project) MaskLayers() []LayerDefinition {
	defs := p.ColorLayers()
	out := defs[:0]
	for _, d := range defs {
		if d.IsPlainColorLayer() {
			out = append(out, d)
		}
	}
	if len(out) > p.MaskCount {
		out = out[:p.MaskCount]
	}
	return out
}

// Layer looks up a definition by name.
func (p *Project) Layer(name string) (LayerDefinition, bool) {
	d, ok := p.LayerData[name]
	return d, ok
}

// BaseLayer returns the definition with OrderIndex 1.
func (p *Project) BaseLayer() (LayerDefinition, bool) {
	for _, d := range p.LayerData {
		if d.OrderIndex == 1 {
			return d, true
		}
	}
	return LayerDefinition{}, false
}

// Validate checks the structural invariants the export pipeline
// depends on. A failed validation aborts an export run before any
// scene mutation.
func (p *Project) Validate() error {
	if len(p.LayerData) == 0 {
		return errors.New("Project has no LayerData")
	}
	if p.AlphaTolerance < 0 || p.AlphaTolerance > 1 {
		return errors.Errorf("AlphaTolerance %v out of [0,1]", p.AlphaTolerance)
	}

	seenOrder := make(map[int]string, len(p.LayerData))
	alphaSlots := make(map[int]string)
	rgbaOverlay := ""
	for name, d := range p.LayerData {
		if d.Name != name {
			return errors.Errorf("Layer %q keyed under %q", d.Name, name)
		}
		if prev, dup := seenOrder[d.OrderIndex]; dup {
			return errors.Errorf("Layers %q and %q share order index %d", prev, name, d.OrderIndex)
		}
		seenOrder[d.OrderIndex] = name
		if d.AlphaOverlaySlot != 0 {
			if d.AlphaOverlaySlot != 1 && d.AlphaOverlaySlot != 2 {
				return errors.Errorf("Layer %q has invalid alpha overlay slot %d", name, d.AlphaOverlaySlot)
			}
			if prev, dup := alphaSlots[d.AlphaOverlaySlot]; dup {
				return errors.Errorf("Layers %q and %q share alpha overlay slot %d", prev, name, d.AlphaOverlaySlot)
			}
			alphaSlots[d.AlphaOverlaySlot] = name
		}
		if d.IsRGBAOverlay {
			if rgbaOverlay != "" {
				return errors.Errorf("Layers %q and %q both marked as RGBA overlay", rgbaOverlay, name)
			}
			rgbaOverlay = name
		}
	}
	for i := 1; i <= len(p.LayerData); i++ {
		if _, ok := seenOrder[i]; !ok {
			return errors.Errorf("Layer order indices not contiguous, missing %d", i)
		}
	}
	base := seenOrder[1]
	if d := p.LayerData[base]; d.IsMaterialChannel || d.AlphaOverlaySlot != 0 || d.IsRGBAOverlay {
		return errors.Errorf("Base layer %q must be a plain color layer", base)
	}

	return p.validateUVTargets()
}

// validateUVTargets rejects two layers claiming the identical UV
// axis+set. An RGBA overlay occupies both axes of both of its sets.
func (p *Project) validateUVTargets() error {
	claimed := make(map[UVTarget]string)
	claim := func(t UVTarget, name string) error {
		if err := t.validate(); err != nil {
			return errors.Wrapf(err, "Layer %q", name)
		}
		if prev, dup := claimed[t]; dup {
			return errors.Errorf("Layers %q and %q both export to %v", prev, name, t)
		}
		claimed[t] = name
		return nil
	}
	for _, d := range p.SortedLayers() {
		for _, t := range d.ExportTargets {
			if d.IsRGBAOverlay {
				if err := claim(UVTarget{"U", t.Set}, d.Name); err != nil {
					return err
				}
				if err := claim(UVTarget{"V", t.Set}, d.Name); err != nil {
					return err
				}
			} else if err := claim(t, d.Name); err != nil {
				return err
			}
		}
	}
	return nil
}
