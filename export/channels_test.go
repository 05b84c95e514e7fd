package export_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/strata3d/layerpaint/export"
	"github.com/strata3d/layerpaint/layers"
	"github.com/strata3d/layerpaint/mesh"
	"github.com/strata3d/layerpaint/utils"
)

func runSingle(t *testing.T, s *layers.Store, m *mesh.Mesh) *mesh.Mesh {
	t.Helper()
	scene := mesh.NewScene()
	scene.AddMesh(m)
	result, err := export.NewBaker(s, scene, nil).Run(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Exported) != 1 {
		t.Fatalf("exported = %d, want 1", len(result.Exported))
	}
	return result.Exported[0]
}

func TestAlphaOverlayEncoding(t *testing.T) {
	s := exportStore(t)
	m := paintedMesh(t, s, "hero")
	rawFill(t, s, m, "layer8", utils.ColorFloat{1, 1, 1, 0.6})
	out := runSingle(t, s, m)

	u, _, err := out.GetUVs("UV4")
	if err != nil {
		t.Fatal(err)
	}
	for i, val := range u {
		if val < 0.6-1e-5 || val > 0.6+1e-5 {
			t.Fatalf("UV4.u[%d] = %v, want overlay alpha 0.6", i, val)
		}
	}
	// Second overlay slot untouched: layer9 never painted.
	_, v, err := out.GetUVs("UV4")
	if err != nil {
		t.Fatal(err)
	}
	for i, val := range v {
		if val != 0 {
			t.Fatalf("UV4.v[%d] = %v, want 0", i, val)
		}
	}
}

func TestRGBAOverlayEncoding(t *testing.T) {
	s := exportStore(t)
	m := paintedMesh(t, s, "hero")
	paint := utils.ColorFloat{0.1, 0.2, 0.3, 0.4}
	rawFill(t, s, m, "layer10", paint)
	out := runSingle(t, s, m)

	u5, v5, err := out.GetUVs("UV5")
	if err != nil {
		t.Fatal(err)
	}
	u6, v6, err := out.GetUVs("UV6")
	if err != nil {
		t.Fatal(err)
	}
	if u5[0] != 0.1 || v5[0] != 0.2 || u6[0] != 0.3 || v6[0] != 0.4 {
		t.Errorf("rgba overlay = (%v,%v),(%v,%v), want (0.1,0.2),(0.3,0.4)",
			u5[0], v5[0], u6[0], v6[0])
	}
}

func TestOverlaysSurviveFlattenThroughUVs(t *testing.T) {
	s := exportStore(t)
	m := paintedMesh(t, s, "hero")
	paint := utils.ColorFloat{0, 0, 1, 0.9}
	rawFill(t, s, m, "layer8", paint)
	out := runSingle(t, s, m)

	// Flatten drops every color set but the base; overlay data lives
	// on in the encoded UV channels.
	sets := out.ColorSetNames()
	if len(sets) != 1 || sets[0] != "layer1" {
		t.Fatalf("color sets after export = %v, want only layer1", sets)
	}
	u, _, err := out.GetUVs("UV4")
	if err != nil {
		t.Fatal(err)
	}
	for i, val := range u {
		if val < 0.9-1e-5 || val > 0.9+1e-5 {
			t.Fatalf("UV4.u[%d] = %v, want overlay alpha 0.9", i, val)
		}
	}
}

func TestCreaseBakeBevelsLoops(t *testing.T) {
	s := exportStore(t)
	m := paintedMesh(t, s, "hero")
	m.Flags.CreaseBevels = true

	// The four edges of one cube face form a closed loop.
	f := m.Faces[0]
	loop := make([]mesh.Edge, len(f))
	for i := range f {
		loop[i] = mesh.NewEdge(f[i], f[(i+1)%len(f)])
	}
	m.AssignCrease(loop, 3)

	out := runSingle(t, s, m)
	if out.HasColorSet(export.CreaseScratchSet) {
		t.Error("crease scratch set survived the bake")
	}
	// Six cube faces plus one bridge quad per beveled loop edge.
	if got := len(out.Faces); got != 10 {
		t.Errorf("faces after bevel = %d, want 10", got)
	}
}

func TestCreaseBakeSkippedWithoutFlag(t *testing.T) {
	s := exportStore(t)
	m := paintedMesh(t, s, "hero")
	f := m.Faces[0]
	loop := make([]mesh.Edge, len(f))
	for i := range f {
		loop[i] = mesh.NewEdge(f[i], f[(i+1)%len(f)])
	}
	m.AssignCrease(loop, 3)

	out := runSingle(t, s, m)
	if got := len(out.Faces); got != 6 {
		t.Errorf("faces without crease bevels = %d, want 6", got)
	}
}

func TestWriteGLTF(t *testing.T) {
	s := exportStore(t)
	scene := mesh.NewScene()
	scene.AddMesh(paintedMesh(t, s, "hero"))

	result, err := export.NewBaker(s, scene, nil).Run(nil)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "out.glb")
	if err := export.WriteGLTF(path, result); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("written glTF file is empty")
	}
}
