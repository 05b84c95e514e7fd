package export

import (
	"github.com/strata3d/layerpaint/mesh"
	"github.com/strata3d/layerpaint/utils"
)

// CreaseScratchSet is the working color set the crease bake records
// loop membership into, one channel component per tier. The set never
// leaves the bake; it is dropped again once beveling is done.
const CreaseScratchSet = "creaseBake"

// creaseStrengths maps tier index to the strength written out. Tier 3
// is a full hard crease.
var creaseStrengths = [mesh.CreaseTierCount]float32{0.25, 0.5, 0.75, 1.0}

// bevelWidth is the base edge offset for crease bevels, scaled by the
// tier strength.
const bevelWidth = 0.002

// bakeCrease bevels the closed crease loops of every tier. Loop
// membership is recorded into the scratch set first, one component
// per tier holding the tier strength, so the bevels that follow
// resize it along with every other attribute array. The scratch set
// is deleted before the bake returns.
func bakeCrease(m *mesh.Mesh) {
	m.DeleteColorSet(CreaseScratchSet)
	m.CreateColorSet(CreaseScratchSet, utils.ColorFloat{})

	onLoop := make([][]bool, mesh.CreaseTierCount)
	loopEdges := make([][]mesh.Edge, mesh.CreaseTierCount)
	for tier := 0; tier < mesh.CreaseTierCount; tier++ {
		onLoop[tier] = make([]bool, len(m.Positions))
		for _, loop := range mesh.FindEdgeLoops(m.CreaseSets[tier]) {
			if !loop.Closed {
				continue
			}
			for _, e := range loop.Edges {
				onLoop[tier][e.A] = true
				onLoop[tier][e.B] = true
				loopEdges[tier] = append(loopEdges[tier], e)
			}
		}
	}

	colors := make([]utils.ColorFloat, m.FaceVertexCount())
	for k, fv := range m.FaceVertices() {
		for tier := 0; tier < mesh.CreaseTierCount; tier++ {
			if onLoop[tier][fv.Vertex] {
				colors[k][tier] = creaseStrengths[tier]
			}
		}
	}
	m.SetFaceVertexColors(CreaseScratchSet, colors)

	for tier := 0; tier < mesh.CreaseTierCount; tier++ {
		if len(loopEdges[tier]) > 0 {
			m.Bevel(loopEdges[tier], bevelWidth*creaseStrengths[tier])
		}
	}

	m.DeleteColorSet(CreaseScratchSet)
}
