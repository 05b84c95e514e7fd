package mesh

import "github.com/go-gl/mathgl/mgl32"

// NewPlane builds a single-quad plane in the XZ plane, normal +Y,
// centered at the origin.
func NewPlane(name string, width, depth float32) *Mesh {
	m := New(name)
	hw, hd := width/2, depth/2
	m.Positions = []mgl32.Vec3{
		{-hw, 0, -hd}, {hw, 0, -hd}, {hw, 0, hd}, {-hw, 0, hd},
	}
	m.Faces = [][]int{{0, 3, 2, 1}}
	m.ComputeNormals()
	return m
}

// NewCube builds an axis-aligned cube of the given edge length
// centered at the origin, quads facing outward.
func NewCube(name string, size float32) *Mesh {
	m := New(name)
	h := size / 2
	m.Positions = []mgl32.Vec3{
		{-h, -h, -h}, {h, -h, -h}, {h, h, -h}, {-h, h, -h},
		{-h, -h, h}, {h, -h, h}, {h, h, h}, {-h, h, h},
	}
	m.Faces = [][]int{
		{0, 3, 2, 1}, // -Z
		{4, 5, 6, 7}, // +Z
		{0, 1, 5, 4}, // -Y
		{3, 7, 6, 2}, // +Y
		{0, 4, 7, 3}, // -X
		{1, 2, 6, 5}, // +X
	}
	m.ComputeNormals()
	return m
}

// NewGroundPlane builds the large catcher plane occlusion bakes
// optionally drop under the scene.
func NewGroundPlane(name string, span, height float32) *Mesh {
	m := NewPlane(name, span, span)
	m.Translate = mgl32.Vec3{0, height, 0}
	return m
}
