package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const rayEpsilon = 1e-7

type gridTri struct {
	a, b, c mgl32.Vec3
}

// AccelGrid is a uniform voxel grid over a triangle soup, used to
// answer any-hit queries for occlusion rays. Faces are fan
// triangulated when the grid is built.
type AccelGrid struct {
	bbmin, bbmax mgl32.Vec3
	cellSize     mgl32.Vec3
	dims         [3]int
	cells        [][]int32
	tris         []gridTri
}

// BuildAccelGrid flattens the given meshes (translations applied)
// into a grid sized by triangle count.
func BuildAccelGrid(meshes ...*Mesh) *AccelGrid {
	g := &AccelGrid{}
	for _, m := range meshes {
		for _, f := range m.Faces {
			if len(f) < 3 {
				continue
			}
			p0 := m.WorldPosition(f[0])
			for i := 1; i < len(f)-1; i++ {
				g.tris = append(g.tris, gridTri{
					a: p0,
					b: m.WorldPosition(f[i]),
					c: m.WorldPosition(f[i+1]),
				})
			}
		}
	}
	if len(g.tris) == 0 {
		g.dims = [3]int{1, 1, 1}
		g.cells = make([][]int32, 1)
		g.cellSize = mgl32.Vec3{1, 1, 1}
		return g
	}

	g.bbmin = g.tris[0].a
	g.bbmax = g.tris[0].a
	for _, t := range g.tris {
		for _, p := range [3]mgl32.Vec3{t.a, t.b, t.c} {
			for c := 0; c < 3; c++ {
				if p[c] < g.bbmin[c] {
					g.bbmin[c] = p[c]
				}
				if p[c] > g.bbmax[c] {
					g.bbmax[c] = p[c]
				}
			}
		}
	}
	// Pad so rays starting on the surface still fall inside.
	pad := g.bbmax.Sub(g.bbmin).Len()*1e-4 + 1e-5
	for c := 0; c < 3; c++ {
		g.bbmin[c] -= pad
		g.bbmax[c] += pad
	}

	res := int(math.Cbrt(float64(len(g.tris))))
	if res < 1 {
		res = 1
	}
	if res > 64 {
		res = 64
	}
	extent := g.bbmax.Sub(g.bbmin)
	for c := 0; c < 3; c++ {
		g.dims[c] = res
		g.cellSize[c] = extent[c] / float32(res)
		if g.cellSize[c] <= 0 {
			g.dims[c] = 1
			g.cellSize[c] = extent[c]
			if g.cellSize[c] <= 0 {
				g.cellSize[c] = 1
			}
		}
	}
	g.cells = make([][]int32, g.dims[0]*g.dims[1]*g.dims[2])

	for ti, t := range g.tris {
		lo, hi := t.a, t.a
		for _, p := range [3]mgl32.Vec3{t.a, t.b, t.c} {
			for c := 0; c < 3; c++ {
				if p[c] < lo[c] {
					lo[c] = p[c]
				}
				if p[c] > hi[c] {
					hi[c] = p[c]
				}
			}
		}
		i0, j0, k0 := g.cellOf(lo)
		i1, j1, k1 := g.cellOf(hi)
		for i := i0; i <= i1; i++ {
			for j := j0; j <= j1; j++ {
				for k := k0; k <= k1; k++ {
					idx := g.cellIndex(i, j, k)
					g.cells[idx] = append(g.cells[idx], int32(ti))
				}
			}
		}
	}
	return g
}

func (g *AccelGrid) cellOf(p mgl32.Vec3) (i, j, k int) {
	clampCell := func(v float32, dim int) int {
		n := int(v)
		if n < 0 {
			n = 0
		}
		if n >= dim {
			n = dim - 1
		}
		return n
	}
	rel := p.Sub(g.bbmin)
	i = clampCell(rel[0]/g.cellSize[0], g.dims[0])
	j = clampCell(rel[1]/g.cellSize[1], g.dims[1])
	k = clampCell(rel[2]/g.cellSize[2], g.dims[2])
	return
}

func (g *AccelGrid) cellIndex(i, j, k int) int {
	return (k*g.dims[1]+j)*g.dims[0] + i
}

// AnyHit reports whether the ray from origin along dir hits any
// triangle within maxDist. dir must be normalized.
func (g *AccelGrid) AnyHit(origin, dir mgl32.Vec3, maxDist float32) bool {
	if len(g.tris) == 0 {
		return false
	}

	// Clip the ray to the grid bounds (slab method).
	tEnter := float32(0)
	tExit := maxDist
	for c := 0; c < 3; c++ {
		if absf(dir[c]) < rayEpsilon {
			if origin[c] < g.bbmin[c] || origin[c] > g.bbmax[c] {
				return false
			}
			continue
		}
		inv := 1 / dir[c]
		t0 := (g.bbmin[c] - origin[c]) * inv
		t1 := (g.bbmax[c] - origin[c]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tEnter {
			tEnter = t0
		}
		if t1 < tExit {
			tExit = t1
		}
	}
	if tEnter > tExit {
		return false
	}

	// 3D DDA walk from the entry cell.
	start := origin.Add(dir.Mul(tEnter))
	ci, cj, ck := g.cellOf(start)
	cell := [3]int{ci, cj, ck}

	var step [3]int
	var tMax, tDelta [3]float32
	for c := 0; c < 3; c++ {
		if dir[c] > rayEpsilon {
			step[c] = 1
			next := g.bbmin[c] + float32(cell[c]+1)*g.cellSize[c]
			tMax[c] = tEnter + (next-start[c])/dir[c]
			tDelta[c] = g.cellSize[c] / dir[c]
		} else if dir[c] < -rayEpsilon {
			step[c] = -1
			next := g.bbmin[c] + float32(cell[c])*g.cellSize[c]
			tMax[c] = tEnter + (next-start[c])/dir[c]
			tDelta[c] = -g.cellSize[c] / dir[c]
		} else {
			step[c] = 0
			tMax[c] = math.MaxFloat32
			tDelta[c] = math.MaxFloat32
		}
	}

	for {
		for _, ti := range g.cells[g.cellIndex(cell[0], cell[1], cell[2])] {
			if t, hit := intersectTriangle(g.tris[ti], origin, dir); hit && t <= maxDist {
				return true
			}
		}
		axis := 0
		if tMax[1] < tMax[axis] {
			axis = 1
		}
		if tMax[2] < tMax[axis] {
			axis = 2
		}
		if tMax[axis] > tExit {
			return false
		}
		cell[axis] += step[axis]
		if cell[axis] < 0 || cell[axis] >= g.dims[axis] {
			return false
		}
		tMax[axis] += tDelta[axis]
	}
}

// intersectTriangle is Moller-Trumbore, front and back faces alike.
func intersectTriangle(t gridTri, origin, dir mgl32.Vec3) (float32, bool) {
	e1 := t.b.Sub(t.a)
	e2 := t.c.Sub(t.a)
	p := dir.Cross(e2)
	det := e1.Dot(p)
	if absf(det) < rayEpsilon {
		return 0, false
	}
	inv := 1 / det
	tv := origin.Sub(t.a)
	u := tv.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := tv.Cross(e1)
	v := dir.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	dist := e2.Dot(q) * inv
	if dist <= rayEpsilon {
		return 0, false
	}
	return dist, true
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
