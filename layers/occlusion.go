package layers

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/strata3d/layerpaint/mesh"
	"github.com/strata3d/layerpaint/utils"
)

// OcclusionLayerName is the material channel occlusion bakes write to.
const OcclusionLayerName = "occlusion"

// Cache sets keep both bake passes on the mesh so the blend slider
// can re-weight them without re-casting any rays.
const (
	occlusionLocalSet  = "occlusionLocal"
	occlusionGlobalSet = "occlusionGlobal"
)

// OcclusionOptions tunes an ambient occlusion bake.
type OcclusionOptions struct {
	// RayCount is the hemisphere samples per vertex.
	RayCount int
	// Bias lifts ray origins off the surface along the normal.
	Bias float32
	// MaxDistance caps how far a ray looks for an occluder.
	MaxDistance float32
	// ComboOffset shrinks each connected component toward its
	// centroid for the global pass, so coincident shells between
	// neighboring meshes do not shadow each other spuriously.
	ComboOffset float32
	// GroundPlane drops a catcher plane under the scene for the
	// global pass.
	GroundPlane  bool
	GroundHeight float32
	GroundSpan   float32
	// Blend weights local against global occlusion, 0 local only.
	Blend float32
	Seed  int64
}

// DefaultOcclusionOptions mirrors the authoring defaults.
func DefaultOcclusionOptions() OcclusionOptions {
	return OcclusionOptions{
		RayCount:    250,
		Bias:        1e-3,
		MaxDistance: 10,
		ComboOffset: 0.9,
		GroundSpan:  100,
		Blend:       0.5,
		Seed:        1,
	}
}

// BakeOcclusion casts cosine-weighted hemisphere rays per vertex and
// writes the result into the occlusion channel of every mesh. Two
// passes are cached: local, against the mesh alone, and global,
// against the whole selection plus the optional ground plane. The
// written channel is the Blend mix of the two.
func (s *Store) BakeOcclusion(meshes []*mesh.Mesh, opts OcclusionOptions) error {
	if _, ok := s.Project.Layer(OcclusionLayerName); !ok {
		return &MissingLayerError{Layer: OcclusionLayerName}
	}
	if err := CheckLayerSetCounts(meshes); err != nil {
		return err
	}
	if opts.RayCount < 1 {
		opts.RayCount = 1
	}

	// Shrunk stand-ins feed the global grid.
	global := make([]*mesh.Mesh, 0, len(meshes)+1)
	for _, m := range meshes {
		combo := m.Duplicate(m.Name + "_combo")
		combo.FreezeTransform()
		if opts.ComboOffset > 0 && opts.ComboOffset < 1 {
			combo.ShrinkComponents(opts.ComboOffset)
		}
		global = append(global, combo)
	}
	if opts.GroundPlane {
		global = append(global, mesh.NewGroundPlane("ground", opts.GroundSpan, opts.GroundHeight))
	}
	globalGrid := mesh.BuildAccelGrid(global...)

	rng := rand.New(rand.NewSource(opts.Seed))
	for _, m := range meshes {
		if len(m.Normals) != len(m.Positions) {
			m.ComputeNormals()
		}
		localGrid := mesh.BuildAccelGrid(m)

		local := make([]float32, len(m.Positions))
		globalOcc := make([]float32, len(m.Positions))
		for vi := range m.Positions {
			origin := m.WorldPosition(vi).Add(m.Normals[vi].Mul(opts.Bias))
			basis := mgl32.QuatBetweenVectors(mgl32.Vec3{0, 0, 1}, m.Normals[vi])
			localHits, globalHits := 0, 0
			for r := 0; r < opts.RayCount; r++ {
				dir := basis.Rotate(cosineHemisphere(rng))
				if localGrid.AnyHit(origin, dir, opts.MaxDistance) {
					localHits++
				}
				if globalGrid.AnyHit(origin, dir, opts.MaxDistance) {
					globalHits++
				}
			}
			local[vi] = 1 - float32(localHits)/float32(opts.RayCount)
			globalOcc[vi] = 1 - float32(globalHits)/float32(opts.RayCount)
		}

		writeCache(m, occlusionLocalSet, local)
		writeCache(m, occlusionGlobalSet, globalOcc)
		if err := s.BlendOcclusion(m, opts.Blend); err != nil {
			return err
		}
	}
	return nil
}

// BlendOcclusion rewrites the occlusion channel as a per-vertex mix
// of the cached local and global bakes. It fails when no bake has run
// on the mesh yet.
func (s *Store) BlendOcclusion(m *mesh.Mesh, blend float32) error {
	if !m.HasColorSet(occlusionLocalSet) || !m.HasColorSet(occlusionGlobalSet) {
		return &MissingBakeError{Mesh: m.Name}
	}
	local, err := m.GetFaceVertexColors(occlusionLocalSet)
	if err != nil {
		return err
	}
	global, err := m.GetFaceVertexColors(occlusionGlobalSet)
	if err != nil {
		return err
	}
	blend = utils.Clamp01(blend)
	out := make([]utils.ColorFloat, len(local))
	for i := range out {
		out[i] = utils.LerpColor(local[i], global[i], blend)
	}
	if !m.HasColorSet(OcclusionLayerName) {
		s.EnsureLayers(m)
	}
	return s.Set(m, OcclusionLayerName, out)
}

// HasOcclusionCaches reports whether a bake has run on the mesh.
func HasOcclusionCaches(m *mesh.Mesh) bool {
	return m.HasColorSet(occlusionLocalSet) && m.HasColorSet(occlusionGlobalSet)
}

// DropOcclusionCaches removes the bake caches, typically right before
// export so scratch sets never leave the authoring scene.
func DropOcclusionCaches(m *mesh.Mesh) {
	m.DeleteColorSet(occlusionLocalSet)
	m.DeleteColorSet(occlusionGlobalSet)
}

func writeCache(m *mesh.Mesh, set string, perVertex []float32) {
	if !m.HasColorSet(set) {
		m.CreateColorSet(set, utils.ColorFloat{})
	}
	colors := make([]utils.ColorFloat, m.FaceVertexCount())
	for k, fv := range m.FaceVertices() {
		v := perVertex[fv.Vertex]
		colors[k] = utils.ColorFloat{v, v, v, 1}
	}
	m.SetFaceVertexColors(set, colors)
}

// cosineHemisphere draws a cosine-weighted direction around +Z.
func cosineHemisphere(rng *rand.Rand) mgl32.Vec3 {
	u1 := rng.Float64()
	u2 := rng.Float64()
	r := math.Sqrt(u1)
	theta := 2 * math.Pi * u2
	return mgl32.Vec3{
		float32(r * math.Cos(theta)),
		float32(r * math.Sin(theta)),
		float32(math.Sqrt(1 - u1)),
	}
}
