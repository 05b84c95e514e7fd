package export

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/strata3d/layerpaint/config"
	"github.com/strata3d/layerpaint/mesh"
)

// WriteGLTF serializes an export run into one binary glTF file. Each
// mesh becomes a node; faces are fan triangulated; corners stay
// unshared so per-face-vertex colors and UV channels survive intact.
// COLOR_0 carries the flattened base layer, TEXCOORD_0..6 the encoded
// channels.
func WriteGLTF(path string, result *Result) error {
	doc := gltf.NewDocument()
	doc.Asset.Generator = "layerpaint"
	doc.Asset.Extras = map[string]interface{}{"exportRun": result.RunID.String()}

	for _, m := range result.Exported {
		if err := appendMesh(doc, m); err != nil {
			return errors.Wrapf(err, "glTF append %q", m.Name)
		}
	}
	for i := range doc.Nodes {
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(i))
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create glTF file %q", path)
	}
	defer f.Close()

	encoder := gltf.NewEncoder(f)
	encoder.AsBinary = true
	if err := encoder.Encode(doc); err != nil {
		return errors.Wrapf(err, "encode glTF file %q", path)
	}
	return nil
}

func appendMesh(doc *gltf.Document, m *mesh.Mesh) error {
	fvs := m.FaceVertices()
	count := len(fvs)
	if count == 0 {
		return nil
	}
	if len(m.Normals) != len(m.Positions) {
		m.ComputeNormals()
	}

	positions := make([][3]float32, count)
	normals := make([][3]float32, count)
	for k, fv := range fvs {
		positions[k] = [3]float32(m.Positions[fv.Vertex])
		normals[k] = [3]float32(m.Normals[fv.Vertex])
	}

	flat, err := m.GetFaceVertexColors(config.BaseLayerName)
	if err != nil {
		return err
	}
	colors := make([][4]uint8, count)
	for k, c := range flat {
		colors[k] = [4]uint8{
			uint8(clampByte(c.R())),
			uint8(clampByte(c.G())),
			uint8(clampByte(c.B())),
			uint8(clampByte(c.A())),
		}
	}

	// Corner indices, fan per face.
	indices := make([]uint32, 0, count)
	base := 0
	for _, f := range m.Faces {
		for i := 1; i < len(f)-1; i++ {
			indices = append(indices,
				uint32(base), uint32(base+i), uint32(base+i+1))
		}
		base += len(f)
	}

	attributes := map[string]uint32{
		"POSITION": modeler.WritePosition(doc, positions),
		"NORMAL":   modeler.WriteNormal(doc, normals),
		"COLOR_0":  modeler.WriteColor(doc, colors),
	}
	for set := 0; set < UVSetCount; set++ {
		u, v, err := m.GetUVs(uvSetName(set))
		if err != nil {
			continue
		}
		uvs := make([][2]float32, count)
		for k := range uvs {
			uvs[k] = [2]float32{u[k], v[k]}
		}
		attributes[fmt.Sprintf("TEXCOORD_%d", set)] = modeler.WriteTextureCoord(doc, uvs)
	}
	indicesAccessor := modeler.WriteIndices(doc, indices)

	gltfMesh := &gltf.Mesh{
		Name: m.Name,
		Primitives: []*gltf.Primitive{{
			Indices:    &indicesAccessor,
			Attributes: attributes,
		}},
	}
	doc.Meshes = append(doc.Meshes, gltfMesh)
	doc.Nodes = append(doc.Nodes, &gltf.Node{
		Name:        m.Name,
		Mesh:        gltf.Index(uint32(len(doc.Meshes) - 1)),
		Translation: [3]float32{m.Translate[0], m.Translate[1], m.Translate[2]},
	})
	return nil
}

func clampByte(v float32) int {
	n := int(v*255 + 0.5)
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return n
}
