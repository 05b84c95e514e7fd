package mesh_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/strata3d/layerpaint/mesh"
	"github.com/strata3d/layerpaint/utils"
)

func TestFaceVertexEnumeration(t *testing.T) {
	m := mesh.NewCube("box", 2)
	if got := m.FaceVertexCount(); got != 24 {
		t.Fatalf("cube face-vertex count = %d, want 24", got)
	}
	fvs := m.FaceVertices()
	if len(fvs) != 24 {
		t.Fatalf("enumeration length = %d", len(fvs))
	}
	if fvs[0].Face != 0 || fvs[0].Corner != 0 {
		t.Errorf("first corner = %+v", fvs[0])
	}
	if fvs[23].Face != 5 || fvs[23].Corner != 3 {
		t.Errorf("last corner = %+v", fvs[23])
	}
}

func TestColorSetLifecycle(t *testing.T) {
	m := mesh.NewPlane("quad", 1, 1)
	red := utils.ColorFloat{1, 0, 0, 1}
	m.CreateColorSet("paint", red)

	if !m.HasColorSet("paint") {
		t.Fatal("created set missing")
	}
	colors, err := m.GetFaceVertexColors("paint")
	if err != nil {
		t.Fatal(err)
	}
	if len(colors) != 4 || colors[0] != red {
		t.Errorf("fill = %v", colors)
	}

	// Returned slice is a copy.
	colors[0] = utils.ColorFloat{}
	again, _ := m.GetFaceVertexColors("paint")
	if again[0] != red {
		t.Error("GetFaceVertexColors leaked internal storage")
	}

	if err := m.RenameColorSet("paint", "base"); err != nil {
		t.Fatal(err)
	}
	if m.HasColorSet("paint") || !m.HasColorSet("base") {
		t.Error("rename did not move the set")
	}

	m.DeleteColorSet("base")
	if m.HasColorSet("base") {
		t.Error("delete left the set behind")
	}
	if _, err := m.GetFaceVertexColors("base"); err == nil {
		t.Error("expected error reading deleted set")
	}
}

func TestDuplicateIsDeep(t *testing.T) {
	m := mesh.NewCube("box", 2)
	m.CreateColorSet("paint", utils.ColorFloat{1, 1, 1, 1})
	m.CreateUVSet("UV0")
	m.SetLayerState("paint", mesh.LayerState{Visible: false, BlendMode: mesh.BlendMultiply})

	d := m.Duplicate("copy")
	if d.Name != "copy" {
		t.Errorf("duplicate name = %q", d.Name)
	}

	// Mutate the copy, original must not move.
	colors, _ := d.GetFaceVertexColors("paint")
	colors[0] = utils.ColorFloat{}
	d.SetFaceVertexColors("paint", colors)
	d.Positions[0] = mgl32.Vec3{99, 0, 0}

	orig, _ := m.GetFaceVertexColors("paint")
	if orig[0] != (utils.ColorFloat{1, 1, 1, 1}) {
		t.Error("duplicate shares color storage with original")
	}
	if m.Positions[0][0] == 99 {
		t.Error("duplicate shares position storage with original")
	}
	if st := d.LayerStateOf("paint"); st.Visible || st.BlendMode != mesh.BlendMultiply {
		t.Errorf("duplicate lost layer state: %+v", st)
	}
}

func TestUVSetLifecycle(t *testing.T) {
	m := mesh.NewPlane("quad", 1, 1)
	m.CreateUVSet("UV0")
	m.CreateUVSet("UV1")

	if got := m.UVSetNames(); len(got) != 2 || got[0] != "UV0" || got[1] != "UV1" {
		t.Fatalf("UV names = %v", got)
	}

	u := []float32{0, 1, 2, 3}
	v := []float32{4, 5, 6, 7}
	if err := m.SetUVs("UV1", u, v); err != nil {
		t.Fatal(err)
	}
	gu, gv, err := m.GetUVs("UV1")
	if err != nil {
		t.Fatal(err)
	}
	if gu[2] != 2 || gv[2] != 6 {
		t.Errorf("UVs = %v %v", gu, gv)
	}

	if err := m.SetUVs("UV0", u[:2], v[:2]); err == nil {
		t.Error("short UV arrays accepted")
	}

	m.DeleteUVSet("UV0")
	if got := m.UVSetNames(); len(got) != 1 || got[0] != "UV1" {
		t.Errorf("after delete: %v", got)
	}
}

func TestSubdivideQuadruplesQuads(t *testing.T) {
	m := mesh.NewCube("box", 2)
	m.CreateColorSet("paint", utils.ColorFloat{0.25, 0.5, 0.75, 1})
	m.CreateUVSet("UV0")

	m.Subdivide(1)
	if got := len(m.Faces); got != 24 {
		t.Errorf("faces after subdivide = %d, want 24", got)
	}
	colors, err := m.GetFaceVertexColors("paint")
	if err != nil {
		t.Fatal(err)
	}
	if len(colors) != m.FaceVertexCount() {
		t.Fatalf("color set not resized: %d vs %d", len(colors), m.FaceVertexCount())
	}
	// Uniform paint survives interpolation exactly.
	for i, c := range colors {
		if c != (utils.ColorFloat{0.25, 0.5, 0.75, 1}) {
			t.Fatalf("corner %d = %v", i, c)
		}
	}
	u, v, err := m.GetUVs("UV0")
	if err != nil {
		t.Fatal(err)
	}
	if len(u) != m.FaceVertexCount() || len(v) != m.FaceVertexCount() {
		t.Error("UV set not resized with topology")
	}
}

func TestSubdivideSplitsCreaseEdges(t *testing.T) {
	m := mesh.NewCube("box", 2)
	f := m.Faces[0]
	loop := make([]mesh.Edge, len(f))
	for i := range f {
		loop[i] = mesh.NewEdge(f[i], f[(i+1)%len(f)])
	}
	m.AssignCrease(loop, 3)

	m.Subdivide(1)
	if got := len(m.CreaseSets[3]); got != 8 {
		t.Fatalf("crease edges after subdivide = %d, want 8", got)
	}
	loops := mesh.FindEdgeLoops(m.CreaseSets[3])
	if len(loops) != 1 || !loops[0].Closed {
		t.Errorf("split crease loop no longer closed: %+v", loops)
	}
	// Every split edge must exist in the refined topology.
	present := make(map[mesh.Edge]bool)
	for _, e := range m.Edges() {
		present[e] = true
	}
	for _, e := range m.CreaseSets[3] {
		if !present[e] {
			t.Errorf("crease edge %v not in the subdivided mesh", e)
		}
	}
}

func TestEdgesSharperThanAngle(t *testing.T) {
	box := mesh.NewCube("box", 2)
	if got := len(box.EdgesSharperThan(45)); got != 12 {
		t.Errorf("sharp cube edges = %d, want 12", got)
	}
	flat := mesh.NewPlane("flat", 2, 2)
	if got := len(flat.EdgesSharperThan(45)); got != 0 {
		t.Errorf("sharp plane edges = %d, want 0", got)
	}
}

func TestHardenEdgesSnapsNormals(t *testing.T) {
	m := mesh.NewCube("box", 2)
	m.ComputeNormals()
	hard := m.EdgesSharperThan(45)

	m.HardenEdges(hard)
	for vi, n := range m.Normals {
		var axis int
		for c := 0; c < 3; c++ {
			if n[c] > 0.99 || n[c] < -0.99 {
				axis++
			}
		}
		if axis != 1 {
			t.Errorf("vertex %d normal %v not snapped to a face normal", vi, n)
		}
	}
}

func TestBevelAddsBridgeFaces(t *testing.T) {
	m := mesh.NewCube("box", 2)
	m.CreateColorSet("paint", utils.ColorFloat{1, 0, 0, 1})
	edges := m.Edges()
	before := len(m.Faces)
	beforeFV := m.FaceVertexCount()

	m.Bevel(edges[:2], 0.01)
	if got := len(m.Faces); got != before+2 {
		t.Errorf("faces = %d, want %d", got, before+2)
	}
	if m.FaceVertexCount() <= beforeFV {
		t.Error("bevel did not grow face-vertex count")
	}
	colors, err := m.GetFaceVertexColors("paint")
	if err != nil {
		t.Fatal(err)
	}
	if len(colors) != m.FaceVertexCount() {
		t.Fatalf("color set not resized: %d vs %d", len(colors), m.FaceVertexCount())
	}
}

func TestCombineAndSeparate(t *testing.T) {
	a := mesh.NewCube("a", 1)
	b := mesh.NewCube("b", 1)
	b.Translate = mgl32.Vec3{5, 0, 0}
	a.CreateColorSet("paint", utils.ColorFloat{1, 0, 0, 1})

	combo := mesh.Combine("combo", []*mesh.Mesh{a, b})
	if got := len(combo.Faces); got != 12 {
		t.Fatalf("combined faces = %d, want 12", got)
	}
	if got := combo.FaceVertexCount(); got != 48 {
		t.Fatalf("combined corners = %d, want 48", got)
	}
	colors, err := combo.GetFaceVertexColors("paint")
	if err != nil {
		t.Fatal(err)
	}
	if colors[0] != (utils.ColorFloat{1, 0, 0, 1}) {
		t.Error("first half lost paint")
	}
	if colors[24] != (utils.ColorFloat{}) {
		t.Error("second half should be zero filled")
	}

	parts := combo.Separate("combo")
	if len(parts) != 2 {
		t.Fatalf("separate = %d parts, want 2", len(parts))
	}
	for _, p := range parts {
		if len(p.Faces) != 6 {
			t.Errorf("part %q faces = %d, want 6", p.Name, len(p.Faces))
		}
	}
}

func TestFindEdgeLoops(t *testing.T) {
	closed := []mesh.Edge{{A: 0, B: 1}, {A: 1, B: 2}, {A: 2, B: 3}, {A: 0, B: 3}}
	open := []mesh.Edge{{A: 10, B: 11}, {A: 11, B: 12}}

	loops := mesh.FindEdgeLoops(append(closed, open...))
	if len(loops) != 2 {
		t.Fatalf("loops = %d, want 2", len(loops))
	}
	for _, l := range loops {
		switch len(l.Edges) {
		case 4:
			if !l.Closed {
				t.Error("quad loop not detected as closed")
			}
		case 2:
			if l.Closed {
				t.Error("open chain detected as closed")
			}
		default:
			t.Errorf("unexpected loop size %d", len(l.Edges))
		}
	}
}

func TestShrinkComponents(t *testing.T) {
	m := mesh.NewCube("box", 2)
	m.ShrinkComponents(0.5)
	bbmin, bbmax := m.BoundingBox()
	if bbmax[0]-bbmin[0] != 1 {
		t.Errorf("shrunk extent = %v, want 1", bbmax[0]-bbmin[0])
	}
}

func TestSceneGraph(t *testing.T) {
	scene := mesh.NewScene()
	scene.AddMesh(mesh.NewCube("box", 1))
	grp := scene.Group("staging")
	grp.AddChild(&mesh.Node{Name: "inner", Mesh: mesh.NewPlane("inner", 1, 1)})

	if scene.Find("inner") == nil {
		t.Error("nested node not found")
	}
	if got := len(scene.Meshes()); got != 2 {
		t.Errorf("scene meshes = %d, want 2", got)
	}

	dup := mesh.DuplicateSubtree(grp, func(s string) string { return s + "_copy" })
	if dup.Name != "staging_copy" || len(dup.Children) != 1 {
		t.Fatalf("duplicate subtree = %+v", dup)
	}
	if dup.Children[0].Mesh.Name != "inner_copy" {
		t.Errorf("child mesh name = %q", dup.Children[0].Mesh.Name)
	}

	if !scene.Remove("staging") {
		t.Error("remove failed")
	}
	if scene.Find("inner") != nil {
		t.Error("removed subtree still reachable")
	}
}
