package export

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/strata3d/layerpaint/layers"
	"github.com/strata3d/layerpaint/mesh"
	"github.com/strata3d/layerpaint/status"
)

// Stage is one step of the export pipeline. Stages always run in
// declaration order.
type Stage int

const (
	StageDuplicate Stage = iota
	StageExpandVariants
	StageAssignSuffix
	StageBakeCrease
	StageEncodeChannels
	StageFlattenColors
	StageSkinTransfer
	StagePlaceInWorld
	StageSmooth

	stageCount
)

func (s Stage) String() string {
	switch s {
	case StageDuplicate:
		return "duplicate"
	case StageExpandVariants:
		return "expandVariants"
	case StageAssignSuffix:
		return "assignSuffix"
	case StageBakeCrease:
		return "bakeCrease"
	case StageEncodeChannels:
		return "encodeChannels"
	case StageFlattenColors:
		return "flattenColors"
	case StageSkinTransfer:
		return "skinTransfer"
	case StagePlaceInWorld:
		return "placeInWorld"
	case StageSmooth:
		return "smooth"
	}
	return "unknown"
}

const (
	// ExportGroupName collects every baked export copy.
	ExportGroupName = "_staticExports"
	// IgnoreGroupName parks working copies that must not export,
	// such as the pre-transfer bake source of a skinned mesh.
	IgnoreGroupName = "_ignore"

	exportColumns = 5

	// subMeshMaterialCount is how many preview materials sub-mesh
	// bucketing cycles through.
	subMeshMaterialCount = 3

	transparentSuffix = "_transparent"
	palettedSuffix    = "_paletted"
	skinnedSuffix     = "_skinned"
)

// Baker runs the export pipeline over a scene. Sources are never
// mutated: every stage works on duplicates under the export group.
type Baker struct {
	Store *layers.Store
	Scene *mesh.Scene
	Log   *zap.Logger
}

// Result describes one completed export run.
type Result struct {
	RunID    uuid.UUID
	Exported []*mesh.Mesh
	Skipped  []string
}

// NewBaker wires a baker. A nil logger disables logging.
func NewBaker(store *layers.Store, scene *mesh.Scene, log *zap.Logger) *Baker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Baker{Store: store, Scene: scene, Log: log}
}

// Run executes every stage over the named source nodes; an empty
// selection takes every visible root mesh. An invalid project aborts
// before any scene mutation. Meshes whose layers fail verification
// are skipped with a warning, never silently dropped.
func (b *Baker) Run(selection []string) (*Result, error) {
	if err := b.Store.Project.Validate(); err != nil {
		return nil, errors.Wrap(err, "export aborted, invalid project")
	}

	result := &Result{RunID: uuid.New()}
	b.Log.Info("export run starting", zap.String("run", result.RunID.String()))

	sources, err := b.collectSources(selection, result)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, errors.New("export aborted, nothing to export")
	}

	srcMeshes := make([]*mesh.Mesh, len(sources))
	for i, n := range sources {
		srcMeshes[i] = n.Mesh
	}
	if err := layers.CheckLayerSetCounts(srcMeshes); err != nil {
		return nil, err
	}

	b.Scene.Remove(ExportGroupName)
	b.Scene.Remove(IgnoreGroupName)
	group := b.Scene.Group(ExportGroupName)

	// StageDuplicate
	b.report(StageDuplicate, 0, "duplicating %d meshes", len(sources))
	var work []*mesh.Node
	for _, src := range sources {
		dup := mesh.DuplicateSubtree(src, func(s string) string { return s + "_bake" })
		group.AddChild(dup)
		work = append(work, dup)
	}

	// StageExpandVariants
	b.report(StageExpandVariants, float32(1)/float32(stageCount), "expanding layer set variants")
	work, err = b.expandVariants(group, work)
	if err != nil {
		return nil, err
	}

	// StageAssignSuffix
	b.report(StageAssignSuffix, float32(2)/float32(stageCount), "assigning export names")
	for _, n := range work {
		n.Mesh.Flags.StaticVertexColors = true
		name := trimWorkingName(n.Name)
		if b.Store.Project.ExportSuffix {
			if n.Mesh.Flags.Transparency {
				name += transparentSuffix
			} else {
				name += palettedSuffix
			}
		}
		mesh.RenameNode(n, name)
		if n.Mesh.Flags.SubMeshes {
			if err := assignSubMeshMaterials(b.Store, n.Mesh); err != nil {
				return nil, errors.Wrapf(err, "sub-mesh materials on %q", n.Mesh.Name)
			}
		}
	}

	// Per-mesh bake stages.
	for i, n := range work {
		m := n.Mesh
		frac := func(stage Stage) float32 {
			return (float32(stage) + float32(i)/float32(len(work))) / float32(stageCount)
		}

		if m.Flags.CreaseBevels {
			b.report(StageBakeCrease, frac(StageBakeCrease), "baking creases on %s", m.Name)
			bakeCrease(m)
		}

		b.report(StageEncodeChannels, frac(StageEncodeChannels), "encoding channels on %s", m.Name)
		layers.DropOcclusionCaches(m)
		if err := encodeChannels(b.Store, m); err != nil {
			return nil, errors.Wrapf(err, "encode channels on %q", m.Name)
		}

		b.report(StageFlattenColors, frac(StageFlattenColors), "flattening colors on %s", m.Name)
		if err := b.Store.FlattenColors(m); err != nil {
			return nil, errors.Wrapf(err, "flatten colors on %q", m.Name)
		}
	}

	// StageSkinTransfer
	b.report(StageSkinTransfer, float32(StageSkinTransfer)/float32(stageCount), "transferring onto skinned targets")
	work, err = b.skinTransfer(group, work)
	if err != nil {
		return nil, err
	}

	// StagePlaceInWorld
	b.report(StagePlaceInWorld, float32(StagePlaceInWorld)/float32(stageCount), "placing exports on the grid")
	b.placeInWorld(work)

	// StageSmooth
	for _, n := range work {
		m := n.Mesh
		if lvl := int(m.Flags.SubdivisionLevel); lvl > 0 {
			b.report(StageSmooth, float32(StageSmooth)/float32(stageCount), "subdividing %s x%d", m.Name, lvl)
			m.Subdivide(lvl)
		}
		hard := append([]mesh.Edge(nil), m.CreaseSets[mesh.CreaseTierCount-1]...)
		if m.Flags.HardEdges {
			hard = append(hard, m.EdgesSharperThan(float32(m.Flags.SmoothingAngle))...)
		}
		m.HardenEdges(hard)
		result.Exported = append(result.Exported, m)
	}

	b.Log.Info("export run finished",
		zap.String("run", result.RunID.String()),
		zap.Int("exported", len(result.Exported)),
		zap.Int("skipped", len(result.Skipped)))
	status.Info("export finished: %d meshes, %d skipped", len(result.Exported), len(result.Skipped))
	return result, nil
}

func (b *Baker) report(stage Stage, progress float32, format string, a ...interface{}) {
	msg := fmt.Sprintf(format, a...)
	b.Log.Debug("export stage", zap.String("stage", stage.String()), zap.String("detail", msg))
	status.Progress(stage.String(), progress, "%s", msg)
}

// collectSources resolves the selection to exportable nodes. Hidden
// nodes, staging groups and skinned companions never export directly.
func (b *Baker) collectSources(selection []string, result *Result) ([]*mesh.Node, error) {
	var candidates []*mesh.Node
	if len(selection) == 0 {
		for _, root := range b.Scene.Roots {
			if root.Name == ExportGroupName || root.Name == IgnoreGroupName {
				continue
			}
			if root.Hidden || root.Mesh == nil || isSkinnedCompanion(root.Name) {
				continue
			}
			candidates = append(candidates, root)
		}
	} else {
		for _, name := range selection {
			n := b.Scene.Find(name)
			if n == nil || n.Mesh == nil {
				return nil, errors.Errorf("selection %q is not a mesh in the scene", name)
			}
			candidates = append(candidates, n)
		}
	}

	var sources []*mesh.Node
	for _, n := range candidates {
		switch b.Store.VerifyLayers(n.Mesh) {
		case layers.VerifyOk:
			sources = append(sources, n)
		default:
			b.Log.Warn("skipping mesh with unverified layers", zap.String("mesh", n.Name))
			status.Error("skipping %s: layers not verified", n.Name)
			result.Skipped = append(result.Skipped, n.Name)
		}
	}
	return sources, nil
}

// expandVariants splits meshes carrying multiple layer sets into one
// export copy per set, rotating each copy onto its own bank.
func (b *Baker) expandVariants(group *mesh.Node, work []*mesh.Node) ([]*mesh.Node, error) {
	var out []*mesh.Node
	for _, n := range work {
		sets := n.Mesh.NumLayerSets
		if sets <= 1 {
			out = append(out, n)
			continue
		}
		for k := 1; k < sets; k++ {
			varName := fmt.Sprintf("%s_var%d_bake", trimWorkingName(n.Name), k)
			dup := mesh.DuplicateSubtree(n, func(string) string { return varName })
			if err := b.Store.RotateLayerSet(dup.Mesh, k); err != nil {
				return nil, errors.Wrapf(err, "variant %d of %q", k, n.Name)
			}
			group.AddChild(dup)
			out = append(out, dup)
		}
		if err := b.Store.RotateLayerSet(n.Mesh, 0); err != nil {
			return nil, errors.Wrapf(err, "variant 0 of %q", n.Name)
		}
		out = append(out, n)
	}
	return out, nil
}

// placeInWorld arranges the non-skinned exports on a fixed-width grid
// in the XZ plane, spaced by the project export offset. Skinned
// targets keep the placement of their companion. Source translations
// are baked into the geometry first so every grid slot starts from
// the origin.
func (b *Baker) placeInWorld(work []*mesh.Node) {
	offset := b.Store.Project.ExportOffset
	placed := 0
	for _, n := range work {
		if n.Mesh.Skin != nil {
			continue
		}
		n.Mesh.FreezeTransform()
		col := placed % exportColumns
		row := placed / exportColumns
		n.Mesh.Translate = mgl32.Vec3{float32(col) * offset, 0, float32(row) * offset}
		placed++
	}
}

// assignSubMeshMaterials buckets each face into one of the preview
// materials, keyed by the layer mask index that dominates the face's
// corners. Ties go to the lowest mask index.
func assignSubMeshMaterials(s *layers.Store, m *mesh.Mesh) error {
	mask, err := s.BuildLayerMask(m)
	if err != nil {
		return err
	}
	mats := make([]int, len(m.Faces))
	k := 0
	for fi, f := range m.Faces {
		counts := make(map[int]int, len(f))
		for range f {
			counts[int(mask[k])]++
			k++
		}
		best, bestN := 0, -1
		for idx, n := range counts {
			if n > bestN || (n == bestN && idx < best) {
				best, bestN = idx, n
			}
		}
		mats[fi] = (best - 1) % subMeshMaterialCount
	}
	m.FaceMaterials = mats
	return nil
}

func trimWorkingName(name string) string {
	const suffix = "_bake"
	if len(name) > len(suffix) && name[len(name)-len(suffix):] == suffix {
		return name[:len(name)-len(suffix)]
	}
	return name
}

func isSkinnedCompanion(name string) bool {
	return len(name) > len(skinnedSuffix) && name[len(name)-len(skinnedSuffix):] == skinnedSuffix
}
