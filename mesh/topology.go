package mesh

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/strata3d/layerpaint/utils"
)

// Edge is an undirected edge between two vertex ids, stored low-high.
type Edge struct {
	A, B int
}

// NewEdge normalizes vertex order.
func NewEdge(a, b int) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{A: a, B: b}
}

// Edges returns every unique edge of the mesh, sorted.
func (m *Mesh) Edges() []Edge {
	seen := make(map[Edge]struct{})
	for _, f := range m.Faces {
		for i, a := range f {
			b := f[(i+1)%len(f)]
			seen[NewEdge(a, b)] = struct{}{}
		}
	}
	edges := make([]Edge, 0, len(seen))
	for e := range seen {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].A != edges[j].A {
			return edges[i].A < edges[j].A
		}
		return edges[i].B < edges[j].B
	})
	return edges
}

// VertexEdges returns, per vertex id, the edges touching it.
func (m *Mesh) VertexEdges() map[int][]Edge {
	out := make(map[int][]Edge, len(m.Positions))
	for _, e := range m.Edges() {
		out[e.A] = append(out[e.A], e)
		out[e.B] = append(out[e.B], e)
	}
	return out
}

// ComputeNormals fills Normals with area-weighted face normal
// averages. Existing normals are replaced.
func (m *Mesh) ComputeNormals() {
	normals := make([]mgl32.Vec3, len(m.Positions))
	for fi := range m.Faces {
		n := m.faceNormalScaled(fi)
		for _, vi := range m.Faces[fi] {
			normals[vi] = normals[vi].Add(n)
		}
	}
	for i := range normals {
		if l := normals[i].Len(); l > 1e-12 {
			normals[i] = normals[i].Mul(1 / l)
		} else {
			normals[i] = mgl32.Vec3{0, 0, 1}
		}
	}
	m.Normals = normals
}

// faceNormalScaled is the face normal scaled by twice the face area,
// computed by fan cross products so n-gons work too.
func (m *Mesh) faceNormalScaled(face int) mgl32.Vec3 {
	f := m.Faces[face]
	var n mgl32.Vec3
	if len(f) < 3 {
		return n
	}
	p0 := m.Positions[f[0]]
	for i := 1; i < len(f)-1; i++ {
		e1 := m.Positions[f[i]].Sub(p0)
		e2 := m.Positions[f[i+1]].Sub(p0)
		n = n.Add(e1.Cross(e2))
	}
	return n
}

// FaceNormal returns the unit normal of one face.
func (m *Mesh) FaceNormal(face int) mgl32.Vec3 {
	n := m.faceNormalScaled(face)
	if l := n.Len(); l > 1e-12 {
		return n.Mul(1 / l)
	}
	return mgl32.Vec3{0, 0, 1}
}

// EdgeLoops partitions an edge set into connected chains and reports
// whether each chain is closed (every chain vertex has degree two).
type EdgeLoop struct {
	Edges  []Edge
	Closed bool
}

// FindEdgeLoops groups the given edges into connected loops. Edge
// connectivity is by shared vertex.
func FindEdgeLoops(edges []Edge) []EdgeLoop {
	if len(edges) == 0 {
		return nil
	}
	byVertex := make(map[int][]int)
	for i, e := range edges {
		byVertex[e.A] = append(byVertex[e.A], i)
		byVertex[e.B] = append(byVertex[e.B], i)
	}

	visited := make([]bool, len(edges))
	var loops []EdgeLoop
	for start := range edges {
		if visited[start] {
			continue
		}
		var stack []int
		stack = append(stack, start)
		visited[start] = true
		var member []Edge
		degree := make(map[int]int)
		for len(stack) > 0 {
			ei := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			e := edges[ei]
			member = append(member, e)
			degree[e.A]++
			degree[e.B]++
			for _, v := range [2]int{e.A, e.B} {
				for _, ni := range byVertex[v] {
					if !visited[ni] {
						visited[ni] = true
						stack = append(stack, ni)
					}
				}
			}
		}
		closed := true
		for _, d := range degree {
			if d != 2 {
				closed = false
				break
			}
		}
		loops = append(loops, EdgeLoop{Edges: member, Closed: closed})
	}
	return loops
}

// CreaseEdges returns the union of all crease tier edge sets.
func (m *Mesh) CreaseEdges() []Edge {
	var out []Edge
	for i := range m.CreaseSets {
		out = append(out, m.CreaseSets[i]...)
	}
	return out
}

// AssignCrease places edges into one crease tier, removing them from
// any other tier first. Tier -1 removes the edges from every tier.
func (m *Mesh) AssignCrease(edges []Edge, tier int) {
	drop := make(map[Edge]struct{}, len(edges))
	for _, e := range edges {
		drop[NewEdge(e.A, e.B)] = struct{}{}
	}
	for t := range m.CreaseSets {
		kept := m.CreaseSets[t][:0]
		for _, e := range m.CreaseSets[t] {
			if _, gone := drop[e]; !gone {
				kept = append(kept, e)
			}
		}
		m.CreaseSets[t] = kept
	}
	if tier < 0 || tier >= CreaseTierCount {
		return
	}
	for e := range drop {
		m.CreaseSets[tier] = append(m.CreaseSets[tier], e)
	}
	sort.Slice(m.CreaseSets[tier], func(i, j int) bool {
		a, b := m.CreaseSets[tier][i], m.CreaseSets[tier][j]
		if a.A != b.A {
			return a.A < b.A
		}
		return a.B < b.B
	})
}

// Bevel replaces each listed edge with a thin quad: the edge vertices
// are duplicated, pushed apart along the adjacent vertex normals by
// width, and a bridging face is added. Attribute arrays are remapped
// so existing corners keep their values and new corners inherit from
// the nearest original corner.
func (m *Mesh) Bevel(edges []Edge, width float32) {
	if len(edges) == 0 {
		return
	}
	if len(m.Normals) != len(m.Positions) {
		m.ComputeNormals()
	}

	oldIndex := make([]int, 0, m.FaceVertexCount())
	for i := 0; i < m.FaceVertexCount(); i++ {
		oldIndex = append(oldIndex, i)
	}
	cornerOf := make(map[[2]int]int)
	for k, fv := range m.FaceVertices() {
		cornerOf[[2]int{fv.Face, fv.Vertex}] = k
	}

	for _, e := range edges {
		e = NewEdge(e.A, e.B)
		a2 := len(m.Positions)
		b2 := a2 + 1
		offA := m.Normals[e.A].Mul(width)
		offB := m.Normals[e.B].Mul(width)
		m.Positions = append(m.Positions,
			m.Positions[e.A].Add(offA),
			m.Positions[e.B].Add(offB))
		m.Normals = append(m.Normals, m.Normals[e.A], m.Normals[e.B])

		// Rewire one face bordering the edge onto the duplicates.
		rewired := false
		bridgeMat := 0
		for fi, f := range m.Faces {
			if rewired {
				break
			}
			for i := range f {
				j := (i + 1) % len(f)
				if NewEdge(f[i], f[j]) == e {
					if f[i] == e.A {
						f[i], f[j] = a2, b2
					} else {
						f[i], f[j] = b2, a2
					}
					cornerOf[[2]int{fi, f[i]}] = cornerOf[[2]int{fi, e.A}]
					cornerOf[[2]int{fi, f[j]}] = cornerOf[[2]int{fi, e.B}]
					if m.FaceMaterials != nil {
						bridgeMat = m.FaceMaterials[fi]
					}
					rewired = true
					break
				}
			}
		}

		// Bridge quad between the original edge and its duplicate.
		newFace := []int{e.A, e.B, b2, a2}
		m.Faces = append(m.Faces, newFace)
		if m.FaceMaterials != nil {
			m.FaceMaterials = append(m.FaceMaterials, bridgeMat)
		}
		src := map[int]int{e.A: e.A, e.B: e.B, a2: e.A, b2: e.B}
		for _, vi := range newFace {
			from := -1
			for fi := range m.Faces[:len(m.Faces)-1] {
				if k, ok := cornerOf[[2]int{fi, src[vi]}]; ok {
					from = k
					break
				}
			}
			oldIndex = append(oldIndex, from)
		}
	}

	m.resizeAttributes(oldIndex)
}

// Subdivide splits every face into quads around its centroid,
// repeated level times. Corner attributes are interpolated.
func (m *Mesh) Subdivide(level int) {
	for ; level > 0; level-- {
		m.subdivideOnce()
	}
}

func (m *Mesh) subdivideOnce() {
	type cornerBlend struct {
		indices []int
	}

	oldCorner := make(map[[2]int]int)
	for k, fv := range m.FaceVertices() {
		oldCorner[[2]int{fv.Face, fv.Corner}] = k
	}

	edgeMid := make(map[Edge]int)
	midpoint := func(a, b int) int {
		e := NewEdge(a, b)
		if vi, ok := edgeMid[e]; ok {
			return vi
		}
		vi := len(m.Positions)
		m.Positions = append(m.Positions,
			m.Positions[a].Add(m.Positions[b]).Mul(0.5))
		edgeMid[e] = vi
		return vi
	}

	var newFaces [][]int
	var newMats []int
	var blends []cornerBlend
	for fi, f := range m.Faces {
		n := len(f)
		center := len(m.Positions)
		var c mgl32.Vec3
		for _, vi := range f {
			c = c.Add(m.Positions[vi])
		}
		m.Positions = append(m.Positions, c.Mul(1/float32(n)))

		allCorners := make([]int, n)
		for i := 0; i < n; i++ {
			allCorners[i] = oldCorner[[2]int{fi, i}]
		}
		for i := 0; i < n; i++ {
			prev := (i - 1 + n) % n
			next := (i + 1) % n
			mPrev := midpoint(f[prev], f[i])
			mNext := midpoint(f[i], f[next])
			newFaces = append(newFaces, []int{f[i], mNext, center, mPrev})
			if m.FaceMaterials != nil {
				newMats = append(newMats, m.FaceMaterials[fi])
			}
			blends = append(blends,
				cornerBlend{indices: []int{allCorners[i]}},
				cornerBlend{indices: []int{allCorners[i], allCorners[next]}},
				cornerBlend{indices: allCorners},
				cornerBlend{indices: []int{allCorners[prev], allCorners[i]}})
		}
	}
	m.Faces = newFaces
	if m.FaceMaterials != nil {
		m.FaceMaterials = newMats
	}

	// Creased edges split in two around the inserted midpoint; edges
	// that gained no midpoint no longer exist and drop out.
	for t := range m.CreaseSets {
		var split []Edge
		for _, e := range m.CreaseSets[t] {
			if mid, ok := edgeMid[e]; ok {
				split = append(split, NewEdge(e.A, mid), NewEdge(mid, e.B))
			}
		}
		m.CreaseSets[t] = split
	}

	m.invalidateTopology()
	fvCount := m.FaceVertexCount()
	for name, colors := range m.colorSets {
		out := make([]utils.ColorFloat, fvCount)
		for i, b := range blends {
			var acc utils.ColorFloat
			for _, oi := range b.indices {
				for c := 0; c < 4; c++ {
					acc[c] += colors[oi][c]
				}
			}
			inv := 1 / float32(len(b.indices))
			for c := 0; c < 4; c++ {
				acc[c] *= inv
			}
			out[i] = acc
		}
		m.colorSets[name] = out
	}
	for _, s := range m.uvSets {
		nu := make([]float32, fvCount)
		nv := make([]float32, fvCount)
		for i, b := range blends {
			var au, av float32
			for _, oi := range b.indices {
				au += s.u[oi]
				av += s.v[oi]
			}
			inv := 1 / float32(len(b.indices))
			nu[i] = au * inv
			nv[i] = av * inv
		}
		s.u = nu
		s.v = nv
	}

	m.ComputeNormals()
}

// EdgesSharperThan returns the edges whose two bordering faces meet
// at more than angleDeg degrees. Boundary edges never qualify.
func (m *Mesh) EdgesSharperThan(angleDeg float32) []Edge {
	adjacent := make(map[Edge][]int)
	for fi, f := range m.Faces {
		for i, a := range f {
			b := f[(i+1)%len(f)]
			e := NewEdge(a, b)
			adjacent[e] = append(adjacent[e], fi)
		}
	}
	cosLimit := float32(math.Cos(float64(mgl32.DegToRad(angleDeg))))
	var out []Edge
	for e, faces := range adjacent {
		if len(faces) != 2 {
			continue
		}
		n1 := m.FaceNormal(faces[0])
		n2 := m.FaceNormal(faces[1])
		if n1.Dot(n2) < cosLimit {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// HardenEdges snaps the normals of vertices on the listed edges to
// the normal of their largest adjacent face, so shading breaks along
// the edge instead of averaging across it.
func (m *Mesh) HardenEdges(edges []Edge) {
	if len(edges) == 0 {
		return
	}
	if len(m.Normals) != len(m.Positions) {
		m.ComputeNormals()
	}
	hard := make(map[int]struct{}, len(edges)*2)
	for _, e := range edges {
		hard[e.A] = struct{}{}
		hard[e.B] = struct{}{}
	}
	best := make(map[int]float32, len(hard))
	for fi, f := range m.Faces {
		n := m.faceNormalScaled(fi)
		area := n.Len()
		for _, vi := range f {
			if _, ok := hard[vi]; !ok {
				continue
			}
			if area > best[vi] {
				best[vi] = area
				if area > 1e-12 {
					m.Normals[vi] = n.Mul(1 / area)
				}
			}
		}
	}
}

// ConnectedComponents returns face index groups connected by shared
// vertices.
func (m *Mesh) ConnectedComponents() [][]int {
	parent := make([]int, len(m.Positions))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}
	for _, f := range m.Faces {
		for i := 1; i < len(f); i++ {
			union(f[0], f[i])
		}
	}
	groups := make(map[int][]int)
	var order []int
	for fi, f := range m.Faces {
		if len(f) == 0 {
			continue
		}
		root := find(f[0])
		if _, seen := groups[root]; !seen {
			order = append(order, root)
		}
		groups[root] = append(groups[root], fi)
	}
	out := make([][]int, 0, len(groups))
	for _, root := range order {
		out = append(out, groups[root])
	}
	return out
}

// ExtractFaces builds a new mesh from a face subset, compacting
// vertices and carrying color and UV sets along.
func (m *Mesh) ExtractFaces(name string, faces []int) *Mesh {
	d := New(name)
	d.Flags = m.Flags
	d.ActiveLayerSet = m.ActiveLayerSet
	d.NumLayerSets = m.NumLayerSets
	for ln, st := range m.States {
		d.States[ln] = st
	}

	remap := make(map[int]int)
	var oldIndex []int
	cornerBase := make([]int, len(m.Faces)+1)
	for fi, f := range m.Faces {
		cornerBase[fi+1] = cornerBase[fi] + len(f)
	}
	for _, fi := range faces {
		f := m.Faces[fi]
		nf := make([]int, len(f))
		for ci, vi := range f {
			ni, ok := remap[vi]
			if !ok {
				ni = len(d.Positions)
				remap[vi] = ni
				d.Positions = append(d.Positions, m.Positions[vi])
				if vi < len(m.Normals) {
					d.Normals = append(d.Normals, m.Normals[vi])
				}
			}
			nf[ci] = ni
			oldIndex = append(oldIndex, cornerBase[fi]+ci)
		}
		d.Faces = append(d.Faces, nf)
		if m.FaceMaterials != nil {
			d.FaceMaterials = append(d.FaceMaterials, m.FaceMaterials[fi])
		}
	}
	d.Translate = m.Translate

	for _, ln := range m.colorSetOrder {
		src := m.colorSets[ln]
		out := make([]utils.ColorFloat, len(oldIndex))
		for i, oi := range oldIndex {
			out[i] = src[oi]
		}
		d.colorSetOrder = append(d.colorSetOrder, ln)
		d.colorSets[ln] = out
	}
	for _, s := range m.uvSets {
		nu := make([]float32, len(oldIndex))
		nv := make([]float32, len(oldIndex))
		for i, oi := range oldIndex {
			nu[i] = s.u[oi]
			nv[i] = s.v[oi]
		}
		d.uvSets = append(d.uvSets, &uvSet{name: s.name, u: nu, v: nv})
	}
	return d
}

// Separate splits the mesh into its connected components.
func (m *Mesh) Separate(baseName string) []*Mesh {
	comps := m.ConnectedComponents()
	out := make([]*Mesh, len(comps))
	for i, faces := range comps {
		out[i] = m.ExtractFaces(componentName(baseName, i), faces)
	}
	return out
}

// Combine merges meshes into one, baking each translation in. Color
// and UV sets present on any input are present on the output; corners
// a set never covered stay zero.
func Combine(name string, meshes []*Mesh) *Mesh {
	d := New(name)
	var setOrder []string
	seenSet := make(map[string]struct{})
	var uvOrder []string
	seenUV := make(map[string]struct{})
	total := 0
	for _, src := range meshes {
		total += src.FaceVertexCount()
		for _, sn := range src.colorSetOrder {
			if _, ok := seenSet[sn]; !ok {
				seenSet[sn] = struct{}{}
				setOrder = append(setOrder, sn)
			}
		}
		for _, s := range src.uvSets {
			if _, ok := seenUV[s.name]; !ok {
				seenUV[s.name] = struct{}{}
				uvOrder = append(uvOrder, s.name)
			}
		}
	}

	colorOut := make(map[string][]utils.ColorFloat, len(setOrder))
	for _, sn := range setOrder {
		colorOut[sn] = make([]utils.ColorFloat, 0, total)
	}
	uvOutU := make(map[string][]float32, len(uvOrder))
	uvOutV := make(map[string][]float32, len(uvOrder))
	for _, un := range uvOrder {
		uvOutU[un] = make([]float32, 0, total)
		uvOutV[un] = make([]float32, 0, total)
	}

	for _, src := range meshes {
		base := len(d.Positions)
		for _, p := range src.Positions {
			d.Positions = append(d.Positions, p.Add(src.Translate))
		}
		d.Normals = append(d.Normals, src.Normals...)
		for _, f := range src.Faces {
			nf := make([]int, len(f))
			for i, vi := range f {
				nf[i] = base + vi
			}
			d.Faces = append(d.Faces, nf)
		}
		n := src.FaceVertexCount()
		for _, sn := range setOrder {
			if colors, ok := src.colorSets[sn]; ok {
				colorOut[sn] = append(colorOut[sn], colors...)
			} else {
				colorOut[sn] = append(colorOut[sn], make([]utils.ColorFloat, n)...)
			}
		}
		for _, un := range uvOrder {
			found := false
			for _, s := range src.uvSets {
				if s.name == un {
					uvOutU[un] = append(uvOutU[un], s.u...)
					uvOutV[un] = append(uvOutV[un], s.v...)
					found = true
					break
				}
			}
			if !found {
				uvOutU[un] = append(uvOutU[un], make([]float32, n)...)
				uvOutV[un] = append(uvOutV[un], make([]float32, n)...)
			}
		}
	}

	for _, sn := range setOrder {
		d.colorSetOrder = append(d.colorSetOrder, sn)
		d.colorSets[sn] = colorOut[sn]
	}
	for _, un := range uvOrder {
		d.uvSets = append(d.uvSets, &uvSet{name: un, u: uvOutU[un], v: uvOutV[un]})
	}
	if len(meshes) > 0 {
		for ln, st := range meshes[0].States {
			d.States[ln] = st
		}
	}
	return d
}

// ShrinkComponents scales each connected component toward its own
// centroid, pulling surfaces inward so coincident shells stop
// self-shadowing.
func (m *Mesh) ShrinkComponents(factor float32) {
	for _, faces := range m.ConnectedComponents() {
		verts := make(map[int]struct{})
		for _, fi := range faces {
			for _, vi := range m.Faces[fi] {
				verts[vi] = struct{}{}
			}
		}
		var c mgl32.Vec3
		for vi := range verts {
			c = c.Add(m.Positions[vi])
		}
		c = c.Mul(1 / float32(len(verts)))
		for vi := range verts {
			m.Positions[vi] = c.Add(m.Positions[vi].Sub(c).Mul(factor))
		}
	}
}

func componentName(base string, i int) string {
	return fmt.Sprintf("%s_part%d", base, i)
}
