package layers_test

import (
	"errors"
	"testing"

	"github.com/strata3d/layerpaint/layers"
	"github.com/strata3d/layerpaint/mesh"
	"github.com/strata3d/layerpaint/utils"
)

func TestEnsureAndVerifyLayers(t *testing.T) {
	s := testStore(t)
	m := mesh.NewPlane("quad", 1, 1)

	if got := s.VerifyLayers(m); got != layers.VerifyEmpty {
		t.Errorf("fresh mesh verify = %v, want empty", got)
	}
	m.CreateColorSet("layer1", utils.ColorFloat{})
	if got := s.VerifyLayers(m); got != layers.VerifyMismatched {
		t.Errorf("partial mesh verify = %v, want mismatched", got)
	}
	s.EnsureLayers(m)
	if got := s.VerifyLayers(m); got != layers.VerifyOk {
		t.Errorf("ensured mesh verify = %v, want ok", got)
	}
	if m.NumLayerSets != 1 {
		t.Errorf("NumLayerSets = %d, want 1", m.NumLayerSets)
	}

	// Defaults must land on created layers.
	base, err := s.Get(m, "layer1")
	if err != nil {
		t.Fatal(err)
	}
	if base[0] != (utils.ColorFloat{0.5, 0.5, 0.5, 1}) {
		t.Errorf("layer1 default = %v", base[0])
	}
	occ, err := s.Get(m, "occlusion")
	if err != nil {
		t.Fatal(err)
	}
	if occ[0] != (utils.ColorFloat{1, 1, 1, 1}) {
		t.Errorf("occlusion default = %v", occ[0])
	}
}

func TestSetLengthMismatch(t *testing.T) {
	s := testStore(t)
	m := testMesh(t, s)

	err := s.Set(m, "layer2", make([]utils.ColorFloat, 3))
	var mismatch *layers.LengthMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("err = %v, want LengthMismatchError", err)
	}
	if mismatch.Got != 3 || mismatch.Want != m.FaceVertexCount() {
		t.Errorf("detail = %+v", mismatch)
	}
}

func TestSetSelectedScoping(t *testing.T) {
	s := testStore(t)
	m := testMesh(t, s)
	fvs := m.FaceVertices()

	paint := utils.ColorFloat{0, 0, 1, 1}
	if err := s.SetSelected(m, "layer2", []utils.ColorFloat{paint}, fvs[2:3]); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(m, "layer2")
	if err != nil {
		t.Fatal(err)
	}
	for i, c := range got {
		if i == 2 && c != paint {
			t.Errorf("selected corner = %v, want %v", c, paint)
		}
		if i != 2 && c != (utils.ColorFloat{}) {
			t.Errorf("unselected corner %d touched: %v", i, c)
		}
	}
}

func TestVerifyLayerStateBadges(t *testing.T) {
	s := testStore(t)
	m := testMesh(t, s)
	fillLayer(t, s, m, "layer2", utils.ColorFloat{1, 0, 0, 0.5})
	m.SetLayerState("layer2", mesh.LayerState{Visible: false, BlendMode: mesh.BlendMultiply})

	badges, err := s.VerifyLayerState(m)
	if err != nil {
		t.Fatal(err)
	}
	var l2 layers.LayerBadges
	for _, b := range badges {
		if b.Layer == "layer2" {
			l2 = b
		}
	}
	if !l2.Hidden || !l2.Masked || !l2.Adjustment {
		t.Errorf("layer2 badges = %+v, want all set", l2)
	}
	if l2.String() != "HMA" {
		t.Errorf("badge string = %q, want HMA", l2.String())
	}
}

func TestLayerSetsRotate(t *testing.T) {
	s := testStore(t)
	m := testMesh(t, s)
	fillLayer(t, s, m, "layer2", utils.ColorFloat{1, 0, 0, 1})

	if err := s.AddLayerSet(m); err != nil {
		t.Fatal(err)
	}
	if m.NumLayerSets != 2 || m.ActiveLayerSet != 1 {
		t.Fatalf("sets = %d active = %d, want 2/1", m.NumLayerSets, m.ActiveLayerSet)
	}

	// The new active bank starts as a copy; repaint it and flip back.
	fillLayer(t, s, m, "layer2", utils.ColorFloat{0, 1, 0, 1})
	if err := s.RotateLayerSet(m, 0); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(m, "layer2")
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != (utils.ColorFloat{1, 0, 0, 1}) {
		t.Errorf("set 0 layer2 = %v, want original red", got[0])
	}

	if err := s.RotateLayerSet(m, 1); err != nil {
		t.Fatal(err)
	}
	got, err = s.Get(m, "layer2")
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != (utils.ColorFloat{0, 1, 0, 1}) {
		t.Errorf("set 1 layer2 = %v, want repainted green", got[0])
	}
}

func TestRotateLayerSetOutOfRange(t *testing.T) {
	s := testStore(t)
	m := testMesh(t, s)

	err := s.RotateLayerSet(m, 3)
	var bad *layers.InvalidSetIndexError
	if !errors.As(err, &bad) {
		t.Fatalf("err = %v, want InvalidSetIndexError", err)
	}
}

func TestRemoveLayerSet(t *testing.T) {
	s := testStore(t)
	m := testMesh(t, s)
	if err := s.AddLayerSet(m); err != nil {
		t.Fatal(err)
	}
	if err := s.AddLayerSet(m); err != nil {
		t.Fatal(err)
	}
	if m.NumLayerSets != 3 {
		t.Fatalf("sets = %d, want 3", m.NumLayerSets)
	}

	if err := s.RemoveLayerSet(m, 1); err != nil {
		t.Fatal(err)
	}
	if m.NumLayerSets != 2 {
		t.Errorf("sets after remove = %d, want 2", m.NumLayerSets)
	}
	// Last set can never go.
	if err := s.RemoveLayerSet(m, 0); err != nil {
		t.Fatal(err)
	}
	if err := s.RemoveLayerSet(m, 0); err == nil {
		t.Error("removing the last layer set should fail")
	}
}

func TestCheckLayerSetCounts(t *testing.T) {
	s := testStore(t)
	a := testMesh(t, s)
	b := mesh.NewPlane("other", 1, 1)
	s.EnsureLayers(b)

	if err := layers.CheckLayerSetCounts([]*mesh.Mesh{a, b}); err != nil {
		t.Fatalf("matching counts rejected: %v", err)
	}
	if err := s.AddLayerSet(b); err != nil {
		t.Fatal(err)
	}
	err := layers.CheckLayerSetCounts([]*mesh.Mesh{a, b})
	var mismatch *layers.MismatchedLayerSetsError
	if !errors.As(err, &mismatch) {
		t.Fatalf("err = %v, want MismatchedLayerSetsError", err)
	}
}
