package export

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/strata3d/layerpaint/config"
	"github.com/strata3d/layerpaint/mesh"
	"github.com/strata3d/layerpaint/utils"
)

// CreateSkinMesh builds the deformation companion for a source mesh:
// a duplicate named "<source>_skinned" carrying the skeleton but none
// of the authored layers. The base layer is reset to neutral grey,
// export flags are stripped and UV0 is remapped to a planar
// projection, so the companion stays a clean deformation target. A
// nil skin takes the source's own.
func CreateSkinMesh(scene *mesh.Scene, src *mesh.Mesh, skin *mesh.Skin) (*mesh.Mesh, error) {
	if skin == nil {
		skin = src.Skin
	}
	if skin == nil {
		return nil, errors.Errorf("mesh %q has no skeleton to bind", src.Name)
	}
	name := src.Name + skinnedSuffix
	if scene.Find(name) != nil {
		return nil, errors.Errorf("skinned companion %q already exists", name)
	}

	companion := src.Duplicate(name)
	for _, set := range companion.ColorSetNames() {
		companion.DeleteColorSet(set)
	}
	companion.CreateColorSet(config.BaseLayerName, utils.ColorFloat{0.5, 0.5, 0.5, 1})
	companion.NumLayerSets = 1
	companion.ActiveLayerSet = 0
	companion.Flags = mesh.ExportFlags{}
	companion.Skin = skin.Duplicate()
	remapPlanarUVs(companion, uvSetName(0))

	scene.AddMesh(companion)
	return companion, nil
}

// remapPlanarUVs projects face-vertices onto the XZ plane, normalized
// by the bounding box extents.
func remapPlanarUVs(m *mesh.Mesh, set string) {
	bbmin, bbmax := m.BoundingBox()
	span := bbmax.Sub(bbmin)
	fvs := m.FaceVertices()
	u := make([]float32, len(fvs))
	v := make([]float32, len(fvs))
	for k, fv := range fvs {
		p := m.WorldPosition(fv.Vertex)
		if span[0] > 0 {
			u[k] = (p[0] - bbmin[0]) / span[0]
		}
		if span[2] > 0 {
			v[k] = (p[2] - bbmin[2]) / span[2]
		}
	}
	m.CreateUVSet(set)
	m.SetUVs(set, u, v)
}

// skinTransfer handles sources that have a skinned companion in the
// scene: a mesh named "<source>_skinned" carrying the deformation
// skeleton but none of the authored layers. The baked working copy is
// sampled onto a duplicate of the companion, the skeleton is re-homed
// onto that duplicate, and the working copy is parked under the
// ignore group so it never reaches the artifact.
func (b *Baker) skinTransfer(group *mesh.Node, work []*mesh.Node) ([]*mesh.Node, error) {
	var ignored *mesh.Node
	out := make([]*mesh.Node, 0, len(work))
	for _, n := range work {
		companion := b.findCompanion(n.Name)
		if companion == nil {
			out = append(out, n)
			continue
		}
		if companion.Mesh == nil || companion.Mesh.Skin == nil {
			return nil, errors.Errorf("skinned companion %q carries no skeleton", companion.Name)
		}

		target := mesh.DuplicateSubtree(companion, func(string) string { return n.Name })
		mesh.TransferAttributes(n.Mesh, target.Mesh)
		target.Mesh.Flags = n.Mesh.Flags
		target.Mesh.Skin = companion.Mesh.Skin.Duplicate()
		if target.Mesh.Skin.Root != nil && companion.Mesh.Skin.Root != nil {
			target.Mesh.Skin.Root.Name = companion.Mesh.Skin.Root.Name
		}

		// Park the pre-transfer copy; the companion stays untouched.
		if ignored == nil {
			ignored = b.Scene.Group(IgnoreGroupName)
		}
		parked := n
		group.Children = removeNode(group.Children, n)
		mesh.RenameNode(parked, parked.Name+"_pretransfer")
		ignored.AddChild(parked)

		group.AddChild(target)
		out = append(out, target)
		b.Log.Info("skinned transfer complete",
			zap.String("source", parked.Name),
			zap.String("target", target.Name))
	}
	return out, nil
}

// findCompanion looks up the skinned sibling for an export copy,
// matching on the original source name with suffixes stripped.
func (b *Baker) findCompanion(exportName string) *mesh.Node {
	base := exportName
	base = strings.TrimSuffix(base, transparentSuffix)
	base = strings.TrimSuffix(base, palettedSuffix)
	if i := strings.LastIndex(base, "_var"); i > 0 {
		base = base[:i]
	}
	return b.Scene.Find(base + skinnedSuffix)
}

func removeNode(nodes []*mesh.Node, target *mesh.Node) []*mesh.Node {
	for i, n := range nodes {
		if n == target {
			return append(nodes[:i], nodes[i+1:]...)
		}
	}
	return nodes
}
