package config

import (
	"fmt"

	"github.com/strata3d/layerpaint/utils"
)

// ChannelFlags enables the four fixed-purpose material channels.
type ChannelFlags struct {
	Occlusion    bool `json:"occlusion" yaml:"occlusion"`
	Specular     bool `json:"specular" yaml:"specular"`
	Transmission bool `json:"transmission" yaml:"transmission"`
	Emission     bool `json:"emission" yaml:"emission"`
}

// SchemaSpec describes a schema to generate: how many numbered color
// layers, which material channels exist, and which color layers take
// the overlay export roles. Overlay names are optional.
type SchemaSpec struct {
	LayerCount     int
	Channels       ChannelFlags
	AlphaOverlay1  string
	AlphaOverlay2  string
	RGBAOverlay    string
	AlphaTolerance float32
	ExportOffset   float32
	ExportSuffix   bool
}

const (
	MaxLayerCount    = 10
	MaxLayerSetCount = 9

	BaseLayerName = "layer1"
)

var defaultGray = utils.ColorFloat{0.5, 0.5, 0.5, 1}

// Material channel UV slots are fixed: the runtime shader reads them
// at known coordinates.
var materialTargets = map[string]UVTarget{
	"occlusion":    {"V", 1},
	"specular":     {"U", 2},
	"transmission": {"V", 2},
	"emission":     {"U", 3},
}

var materialDefaults = map[string]utils.ColorFloat{
	"occlusion":    {1, 1, 1, 1},
	"specular":     {0, 0, 0, 1},
	"transmission": {0, 0, 0, 1},
	"emission":     {0, 0, 0, 1},
}

// BuildProject generates a Project from a SchemaSpec. LayerCount is
// clamped to [1,MaxLayerCount]. The result always satisfies Validate.
func BuildProject(spec SchemaSpec) (*Project, error) {
	count := spec.LayerCount
	if count < 1 {
		count = 1
	}
	if count > MaxLayerCount {
		count = MaxLayerCount
	}

	p := &Project{
		LayerCount:     count,
		AlphaTolerance: spec.AlphaTolerance,
		ExportOffset:   spec.ExportOffset,
		ExportSuffix:   spec.ExportSuffix,
		LayerData:      make(map[string]LayerDefinition, count+4),
	}

	for i := 1; i <= count; i++ {
		name := fmt.Sprintf("layer%d", i)
		def := LayerDefinition{
			Name:         name,
			OrderIndex:   i,
			DefaultColor: utils.ColorFloat{0, 0, 0, 0},
			DisplayName:  name,
		}
		if i == 1 {
			def.DefaultColor = defaultGray
			def.ExportTargets = []UVTarget{{"U", 1}}
		}
		switch name {
		case spec.AlphaOverlay1:
			def.AlphaOverlaySlot = 1
			def.ExportTargets = []UVTarget{{"U", 4}}
		case spec.AlphaOverlay2:
			def.AlphaOverlaySlot = 2
			def.ExportTargets = []UVTarget{{"V", 4}}
		case spec.RGBAOverlay:
			def.IsRGBAOverlay = true
			def.ExportTargets = []UVTarget{{"U", 5}, {"U", 6}}
		}
		p.LayerData[name] = def
	}

	order := count
	addChannel := func(name string, enabled bool) {
		if !enabled {
			return
		}
		order++
		p.LayerData[name] = LayerDefinition{
			Name:              name,
			OrderIndex:        order,
			DefaultColor:      materialDefaults[name],
			ExportTargets:     []UVTarget{materialTargets[name]},
			IsMaterialChannel: true,
			DisplayName:       name,
		}
	}
	addChannel("occlusion", spec.Channels.Occlusion)
	addChannel("specular", spec.Channels.Specular)
	addChannel("transmission", spec.Channels.Transmission)
	addChannel("emission", spec.Channels.Emission)

	p.ChannelCount = order - count
	maskable := 0
	for _, d := range p.LayerData {
		if d.IsPlainColorLayer() {
			maskable++
		}
	}
	p.MaskCount = maskable

	p.PaletteTargets = [5][]string{
		{"layer1"}, {"layer2"}, {"layer3"}, {"layer4"}, {"layer5"},
	}
	for i, targets := range p.PaletteTargets {
		kept := targets[:0]
		for _, t := range targets {
			if _, ok := p.LayerData[t]; ok {
				kept = append(kept, t)
			}
		}
		p.PaletteTargets[i] = kept
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// DefaultProject mirrors the reference ten-layer setup: seven mask
// layers, two alpha overlays, one RGBA overlay, all four material
// channels.
func DefaultProject() *Project {
	p, err := BuildProject(SchemaSpec{
		LayerCount: 10,
		Channels: ChannelFlags{
			Occlusion:    true,
			Specular:     true,
			Transmission: true,
			Emission:     true,
		},
		AlphaOverlay1:  "layer8",
		AlphaOverlay2:  "layer9",
		RGBAOverlay:    "layer10",
		AlphaTolerance: 0.5,
		ExportOffset:   5,
		ExportSuffix:   true,
	})
	if err != nil {
		panic(err)
	}
	return p
}
