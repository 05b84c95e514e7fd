package mesh

import "github.com/pkg/errors"

// Node is one entry of the scene hierarchy: either a group (Mesh nil)
// or a mesh carrier.
type Node struct {
	Name     string
	Mesh     *Mesh
	Hidden   bool
	Children []*Node
}

// Scene is a flat forest of root nodes standing in for the host
// scene graph. Export runs duplicate subtrees into staging groups
// here before mutating them.
type Scene struct {
	Roots []*Node
}

// NewScene returns an empty scene.
func NewScene() *Scene {
	return &Scene{}
}

// AddRoot appends a root node.
func (s *Scene) AddRoot(n *Node) {
	s.Roots = append(s.Roots, n)
}

// AddMesh wraps a mesh in a node and adds it as a root.
func (s *Scene) AddMesh(m *Mesh) *Node {
	n := &Node{Name: m.Name, Mesh: m}
	s.AddRoot(n)
	return n
}

// Group returns the root group with the given name, creating it when
// missing.
func (s *Scene) Group(name string) *Node {
	for _, n := range s.Roots {
		if n.Name == name {
			return n
		}
	}
	g := &Node{Name: name}
	s.AddRoot(g)
	return g
}

// Find walks the whole scene for a node by name.
func (s *Scene) Find(name string) *Node {
	for _, root := range s.Roots {
		if found := root.find(name); found != nil {
			return found
		}
	}
	return nil
}

func (n *Node) find(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, c := range n.Children {
		if found := c.find(name); found != nil {
			return found
		}
	}
	return nil
}

// Remove detaches a node by name anywhere in the scene.
func (s *Scene) Remove(name string) bool {
	for i, root := range s.Roots {
		if root.Name == name {
			s.Roots = append(s.Roots[:i], s.Roots[i+1:]...)
			return true
		}
		if root.removeChild(name) {
			return true
		}
	}
	return false
}

func (n *Node) removeChild(name string) bool {
	for i, c := range n.Children {
		if c.Name == name {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			return true
		}
		if c.removeChild(name) {
			return true
		}
	}
	return false
}

// AddChild attaches a child node.
func (n *Node) AddChild(c *Node) {
	n.Children = append(n.Children, c)
}

// Meshes collects every mesh in the subtree, depth first. Hidden
// nodes are still included; visibility filtering is the caller's.
func (n *Node) Meshes() []*Mesh {
	var out []*Mesh
	n.walk(func(c *Node) {
		if c.Mesh != nil {
			out = append(out, c.Mesh)
		}
	})
	return out
}

func (n *Node) walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.walk(fn)
	}
}

// Meshes collects every mesh in the scene.
func (s *Scene) Meshes() []*Mesh {
	var out []*Mesh
	for _, root := range s.Roots {
		out = append(out, root.Meshes()...)
	}
	return out
}

// DuplicateSubtree deep-copies a node tree, renaming every node and
// mesh through rename.
func DuplicateSubtree(n *Node, rename func(string) string) *Node {
	d := &Node{Name: rename(n.Name), Hidden: n.Hidden}
	if n.Mesh != nil {
		d.Mesh = n.Mesh.Duplicate(d.Name)
	}
	for _, c := range n.Children {
		d.Children = append(d.Children, DuplicateSubtree(c, rename))
	}
	return d
}

// RenameNode keeps the node name and its mesh name in step.
func RenameNode(n *Node, name string) error {
	if n == nil {
		return errors.New("Cannot rename nil node")
	}
	n.Name = name
	if n.Mesh != nil {
		n.Mesh.Name = name
	}
	return nil
}
