package layers_test

import (
	"testing"

	"github.com/strata3d/layerpaint/config"
	"github.com/strata3d/layerpaint/layers"
	"github.com/strata3d/layerpaint/mesh"
	"github.com/strata3d/layerpaint/utils"
)

const eps = 1e-5

// testStore builds a small four layer project: three color layers
// plus the occlusion channel.
func testStore(t *testing.T) *layers.Store {
	t.Helper()
	p, err := config.BuildProject(config.SchemaSpec{
		LayerCount:     3,
		Channels:       config.ChannelFlags{Occlusion: true},
		AlphaTolerance: 0.5,
		ExportOffset:   5,
	})
	if err != nil {
		t.Fatal(err)
	}
	return layers.NewStore(p)
}

// testMesh is a single quad with every schema layer present.
func testMesh(t *testing.T, s *layers.Store) *mesh.Mesh {
	t.Helper()
	m := mesh.NewPlane("quad", 2, 2)
	s.EnsureLayers(m)
	return m
}

// fillLayer writes one color verbatim to every face-vertex, bypassing
// ColorFill's alpha handling so tests control alpha exactly.
func fillLayer(t *testing.T, s *layers.Store, m *mesh.Mesh, layer string, c utils.ColorFloat) {
	t.Helper()
	colors := make([]utils.ColorFloat, m.FaceVertexCount())
	for i := range colors {
		colors[i] = c
	}
	if err := s.Set(m, layer, colors); err != nil {
		t.Fatal(err)
	}
}

func colorsNear(a, b []utils.ColorFloat) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		for c := 0; c < 4; c++ {
			d := a[i][c] - b[i][c]
			if d < -eps || d > eps {
				return false
			}
		}
	}
	return true
}
