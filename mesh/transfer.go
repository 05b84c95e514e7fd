package mesh

// Joint is one node of a skeleton hierarchy.
type Joint struct {
	Name     string
	Children []*Joint
}

// Skin ties a mesh to a skeleton. Weights are out of scope for the
// authoring tools; the binding only needs to survive duplication and
// export so the root joint can be re-homed onto the export copy.
type Skin struct {
	Root *Joint
}

// Duplicate deep-copies the skeleton.
func (s *Skin) Duplicate() *Skin {
	if s == nil {
		return nil
	}
	var clone func(*Joint) *Joint
	clone = func(j *Joint) *Joint {
		if j == nil {
			return nil
		}
		c := &Joint{Name: j.Name}
		for _, ch := range j.Children {
			c.Children = append(c.Children, clone(ch))
		}
		return c
	}
	return &Skin{Root: clone(s.Root)}
}

// TransferAttributes copies color sets and UV sets from src onto dst
// by nearest face-vertex world position. Sets missing on dst are
// created. Topologies may differ.
func TransferAttributes(src, dst *Mesh) {
	srcFVs := src.FaceVertices()
	if len(srcFVs) == 0 {
		return
	}
	dstFVs := dst.FaceVertices()

	nearest := make([]int, len(dstFVs))
	for di, dfv := range dstFVs {
		dp := dst.WorldPosition(dfv.Vertex)
		best := 0
		bestDist := float32(0)
		for si, sfv := range srcFVs {
			d := src.WorldPosition(sfv.Vertex).Sub(dp).LenSqr()
			if si == 0 || d < bestDist {
				best = si
				bestDist = d
			}
		}
		nearest[di] = best
	}

	for _, name := range src.ColorSetNames() {
		srcColors, _ := src.GetFaceVertexColors(name)
		if !dst.HasColorSet(name) {
			dst.CreateColorSet(name, srcColors[0])
		}
		out, _ := dst.GetFaceVertexColors(name)
		for di, si := range nearest {
			out[di] = srcColors[si]
		}
		dst.SetFaceVertexColors(name, out)
		dst.SetLayerState(name, src.LayerStateOf(name))
	}

	for _, name := range src.UVSetNames() {
		su, sv, _ := src.GetUVs(name)
		du := make([]float32, len(dstFVs))
		dv := make([]float32, len(dstFVs))
		for di, si := range nearest {
			du[di] = su[si]
			dv[di] = sv[si]
		}
		dst.CreateUVSet(name)
		dst.SetUVs(name, du, dv)
	}

	dst.ActiveLayerSet = src.ActiveLayerSet
	dst.NumLayerSets = src.NumLayerSets
}
