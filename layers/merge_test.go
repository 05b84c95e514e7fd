package layers_test

import (
	"errors"
	"testing"

	"github.com/strata3d/layerpaint/layers"
	"github.com/strata3d/layerpaint/mesh"
	"github.com/strata3d/layerpaint/utils"
)

func TestMergeDownPreservesComposite(t *testing.T) {
	s := testStore(t)
	m := testMesh(t, s)
	fillLayer(t, s, m, "layer2", utils.ColorFloat{1, 0, 0, 0.5})

	before, err := s.Composite(m)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Merge(m, "layer2", layers.MergeDown); err != nil {
		t.Fatal(err)
	}
	after, err := s.Composite(m)
	if err != nil {
		t.Fatal(err)
	}
	if !colorsNear(before, after) {
		t.Errorf("composite changed by merge: %v -> %v", before[0], after[0])
	}
}

func TestMergeResetsSource(t *testing.T) {
	s := testStore(t)
	m := testMesh(t, s)
	fillLayer(t, s, m, "layer2", utils.ColorFloat{1, 0, 0, 0.5})
	m.SetLayerState("layer2", mesh.LayerState{Visible: true, BlendMode: mesh.BlendAdditive})

	if err := s.Merge(m, "layer2", layers.MergeDown); err != nil {
		t.Fatal(err)
	}
	src, err := s.Get(m, "layer2")
	if err != nil {
		t.Fatal(err)
	}
	def, _ := s.Project.Layer("layer2")
	for i, c := range src {
		if c != def.DefaultColor {
			t.Fatalf("corner %d = %v, want default %v", i, c, def.DefaultColor)
		}
	}
	if st := m.LayerStateOf("layer2"); st.BlendMode != mesh.BlendAlpha {
		t.Errorf("source blend mode = %v, want alpha", st.BlendMode)
	}
	if st := m.LayerStateOf("layer1"); st.BlendMode != mesh.BlendAlpha {
		t.Errorf("target blend mode = %v, want alpha", st.BlendMode)
	}
}

func TestMergeAccumulatesAlpha(t *testing.T) {
	s := testStore(t)
	m := testMesh(t, s)
	fillLayer(t, s, m, "layer2", utils.ColorFloat{0, 1, 0, 0.5})
	fillLayer(t, s, m, "layer3", utils.ColorFloat{0, 0, 1, 0.75})

	if err := s.Merge(m, "layer3", layers.MergeDown); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(m, "layer2")
	if err != nil {
		t.Fatal(err)
	}
	if got[0].A() != 1 {
		t.Errorf("merged alpha = %v, want clamped 1", got[0].A())
	}
}

func TestMergeUpUsesUpperAsSource(t *testing.T) {
	s := testStore(t)
	m := testMesh(t, s)
	fillLayer(t, s, m, "layer3", utils.ColorFloat{0, 0, 1, 1})

	if err := s.Merge(m, "layer2", layers.MergeUp); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(m, "layer2")
	if err != nil {
		t.Fatal(err)
	}
	if got[0].B() != 1 || got[0].A() != 1 {
		t.Errorf("layer2 after merge up = %v", got[0])
	}
}

func TestMergeValidation(t *testing.T) {
	s := testStore(t)
	m := testMesh(t, s)

	cases := []struct {
		layer string
		dir   layers.MergeDirection
	}{
		{"layer1", layers.MergeDown},
		{"layer3", layers.MergeUp},
		{"occlusion", layers.MergeDown},
	}
	for _, c := range cases {
		err := s.Merge(m, c.layer, c.dir)
		var cannot *layers.CannotMergeBaseLayerError
		if !errors.As(err, &cannot) {
			t.Errorf("Merge(%s, %v) err = %v, want CannotMergeBaseLayerError", c.layer, c.dir, err)
		}
	}
}

func TestFlattenColorsMatchesComposite(t *testing.T) {
	s := testStore(t)
	m := testMesh(t, s)
	fillLayer(t, s, m, "layer2", utils.ColorFloat{1, 0, 0, 0.5})
	fillLayer(t, s, m, "layer3", utils.ColorFloat{0, 1, 0, 0.25})

	want, err := s.Composite(m)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.FlattenColors(m); err != nil {
		t.Fatal(err)
	}
	flat, err := s.Get(m, "layer1")
	if err != nil {
		t.Fatal(err)
	}
	for i := range flat {
		for c := 0; c < 3; c++ {
			d := flat[i][c] - want[i][c]
			if d < -eps || d > eps {
				t.Fatalf("corner %d channel %d: flat %v, composite %v", i, c, flat[i], want[i])
			}
		}
	}
}

func TestFlattenColorsLeavesOnlyBaseSet(t *testing.T) {
	s := testStore(t)
	m := testMesh(t, s)
	fillLayer(t, s, m, "layer2", utils.ColorFloat{1, 0, 0, 0.5})
	m.CreateColorSet("preview", utils.ColorFloat{})

	if err := s.FlattenColors(m); err != nil {
		t.Fatal(err)
	}
	sets := m.ColorSetNames()
	if len(sets) != 1 || sets[0] != "layer1" {
		t.Errorf("color sets after flatten = %v, want only layer1", sets)
	}
}

func TestBuildLayerMaskLastWins(t *testing.T) {
	s := testStore(t)
	m := testMesh(t, s)

	// layer2 claims corners 0,1; layer3 claims corners 1,2.
	fvs := m.FaceVertices()
	sel2 := []mesh.FaceVertex{fvs[0], fvs[1]}
	sel3 := []mesh.FaceVertex{fvs[1], fvs[2]}
	paint := utils.ColorFloat{1, 1, 1, 0.5}
	if err := s.SetSelected(m, "layer2", []utils.ColorFloat{paint, paint}, sel2); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSelected(m, "layer3", []utils.ColorFloat{paint, paint}, sel3); err != nil {
		t.Fatal(err)
	}

	mask, err := s.BuildLayerMask(m)
	if err != nil {
		t.Fatal(err)
	}
	want := []float32{2, 3, 3, 1}
	for i := range want {
		if mask[i] != want[i] {
			t.Errorf("mask[%d] = %v, want %v", i, mask[i], want[i])
		}
	}
}

func TestBuildLayerMaskToleranceBoundary(t *testing.T) {
	s := testStore(t)
	m := testMesh(t, s)
	// Exactly at tolerance qualifies, just below does not.
	fillLayer(t, s, m, "layer2", utils.ColorFloat{1, 1, 1, 0.5})
	fillLayer(t, s, m, "layer3", utils.ColorFloat{1, 1, 1, 0.4999})

	mask, err := s.BuildLayerMask(m)
	if err != nil {
		t.Fatal(err)
	}
	for i := range mask {
		if mask[i] != 2 {
			t.Errorf("mask[%d] = %v, want 2", i, mask[i])
		}
	}
}
