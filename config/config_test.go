package config_test

import (
	"path/filepath"
	"testing"

	"github.com/strata3d/layerpaint/config"
	"github.com/strata3d/layerpaint/utils"
)

func TestDefaultProjectShape(t *testing.T) {
	p := config.DefaultProject()
	if p.LayerCount != 10 {
		t.Errorf("LayerCount = %d, want 10", p.LayerCount)
	}
	if p.MaskCount != 7 {
		t.Errorf("MaskCount = %d, want 7", p.MaskCount)
	}
	if p.ChannelCount != 4 {
		t.Errorf("ChannelCount = %d, want 4", p.ChannelCount)
	}
	if got := len(p.SortedLayers()); got != 14 {
		t.Errorf("total layers = %d, want 14", got)
	}
	if got := len(p.ColorLayers()); got != 10 {
		t.Errorf("color layers = %d, want 10", got)
	}
	if got := len(p.MaskLayers()); got != 7 {
		t.Errorf("mask layers = %d, want 7", got)
	}
	base, ok := p.BaseLayer()
	if !ok || base.Name != config.BaseLayerName {
		t.Errorf("base layer = %q ok=%v, want %q", base.Name, ok, config.BaseLayerName)
	}
	if base.DefaultColor != (utils.ColorFloat{0.5, 0.5, 0.5, 1}) {
		t.Errorf("base default color = %v", base.DefaultColor)
	}
}

func TestDefaultProjectChannelTargets(t *testing.T) {
	p := config.DefaultProject()
	cases := map[string]config.UVTarget{
		"occlusion":    {Axis: "V", Set: 1},
		"specular":     {Axis: "U", Set: 2},
		"transmission": {Axis: "V", Set: 2},
		"emission":     {Axis: "U", Set: 3},
	}
	for name, want := range cases {
		d, ok := p.Layer(name)
		if !ok {
			t.Fatalf("missing channel %q", name)
		}
		if !d.IsMaterialChannel {
			t.Errorf("%q not flagged as material channel", name)
		}
		if len(d.ExportTargets) != 1 || d.ExportTargets[0] != want {
			t.Errorf("%q targets = %v, want [%v]", name, d.ExportTargets, want)
		}
	}
}

func TestUVTargetText(t *testing.T) {
	target := config.UVTarget{Axis: "V", Set: 3}
	data, err := target.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "V3" {
		t.Errorf("marshal = %q, want V3", string(data))
	}
	var back config.UVTarget
	if err := back.UnmarshalText(data); err != nil {
		t.Fatal(err)
	}
	if back != target {
		t.Errorf("roundtrip = %v, want %v", back, target)
	}
	for _, bad := range []string{"W1", "U7", "U", "U12"} {
		var tgt config.UVTarget
		if err := tgt.UnmarshalText([]byte(bad)); err == nil {
			t.Errorf("UnmarshalText(%q) accepted", bad)
		}
	}
}

func TestValidateRejectsDuplicateUVTargets(t *testing.T) {
	p := config.DefaultProject()
	d := p.LayerData["specular"]
	d.ExportTargets = []config.UVTarget{{Axis: "V", Set: 1}} // occlusion slot
	p.LayerData["specular"] = d
	if err := p.Validate(); err == nil {
		t.Error("expected duplicate UV target to fail validation")
	}
}

func TestValidateRejectsGappedOrder(t *testing.T) {
	p := config.DefaultProject()
	d := p.LayerData["layer5"]
	d.OrderIndex = 40
	p.LayerData["layer5"] = d
	if err := p.Validate(); err == nil {
		t.Error("expected gapped order indices to fail validation")
	}
}

func TestBuildProjectClampsLayerCount(t *testing.T) {
	p, err := config.BuildProject(config.SchemaSpec{LayerCount: 99, AlphaTolerance: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if p.LayerCount != config.MaxLayerCount {
		t.Errorf("LayerCount = %d, want %d", p.LayerCount, config.MaxLayerCount)
	}
}

func TestLoadSaveRoundtrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"project.json", "project.yaml"} {
		path := filepath.Join(dir, name)
		want := config.DefaultProject()
		if err := config.Save(path, want); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		got, err := config.Load(path)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got.LayerCount != want.LayerCount || got.MaskCount != want.MaskCount {
			t.Errorf("%s: counts %d/%d, want %d/%d",
				name, got.LayerCount, got.MaskCount, want.LayerCount, want.MaskCount)
		}
		if got.AlphaTolerance != want.AlphaTolerance {
			t.Errorf("%s: tolerance %v, want %v", name, got.AlphaTolerance, want.AlphaTolerance)
		}
		d, ok := got.Layer("layer10")
		if !ok || !d.IsRGBAOverlay {
			t.Errorf("%s: layer10 overlay flag lost", name)
		}
	}
}

func TestPaletteLibrary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "palettes.json")

	lib := config.PaletteLibrary{}
	red := config.Palette{{1, 0, 0, 1}, {0.8, 0, 0, 1}, {0.6, 0, 0, 1}, {0.4, 0, 0, 1}, {0.2, 0, 0, 1}}
	lib.Store("warm", "reds", red)
	if err := config.SavePalettes(path, lib); err != nil {
		t.Fatal(err)
	}

	back, err := config.LoadPalettes(path)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := back.Get("warm", "reds")
	if !ok || got != red {
		t.Errorf("Get = %v ok=%v", got, ok)
	}

	back.DeletePalette("warm", "reds")
	if _, ok := back["warm"]; ok {
		t.Error("empty category should be dropped")
	}
}
