package layers

import (
	"math"
	"math/rand"

	"github.com/strata3d/layerpaint/config"
	"github.com/strata3d/layerpaint/mesh"
	"github.com/strata3d/layerpaint/utils"
)

// ColorFill paints a layer with one color. When overwriteAlpha is set,
// or the layer is entirely unpainted, the fill lands fully opaque;
// otherwise only rgb is written and each face-vertex keeps its alpha,
// so an existing mask survives a recolor. A nil selection covers the
// whole mesh; otherwise only the listed face-vertices change.
func (s *Store) ColorFill(m *mesh.Mesh, layer string, color utils.ColorFloat, overwriteAlpha bool, selection []mesh.FaceVertex) error {
	existing, err := s.Get(m, layer)
	if err != nil {
		return err
	}
	var alphaMax float32
	for _, c := range existing {
		if c.A() > alphaMax {
			alphaMax = c.A()
		}
	}
	solid := overwriteAlpha || alphaMax == 0

	if selection == nil {
		for i := range existing {
			a := existing[i].A()
			if solid {
				a = 1
			}
			existing[i] = utils.ColorFloat{color.R(), color.G(), color.B(), a}
		}
		return s.Set(m, layer, existing)
	}

	index := make(map[[2]int]int, len(existing))
	for k, fv := range m.FaceVertices() {
		index[[2]int{fv.Face, fv.Vertex}] = k
	}
	colors := make([]utils.ColorFloat, len(selection))
	for i, fv := range selection {
		a := existing[index[[2]int{fv.Face, fv.Vertex}]].A()
		if solid {
			a = 1
		}
		colors[i] = utils.ColorFloat{color.R(), color.G(), color.B(), a}
	}
	return s.SetSelected(m, layer, colors, selection)
}

// ClearLayer refills a layer with its schema default color, selection
// scoped like ColorFill, and resets its state to visible alpha.
func (s *Store) ClearLayer(m *mesh.Mesh, layer string, selection []mesh.FaceVertex) error {
	d, ok := s.Project.Layer(layer)
	if !ok {
		return &MissingLayerError{Mesh: m.Name, Layer: layer}
	}
	if selection == nil {
		colors := make([]utils.ColorFloat, m.FaceVertexCount())
		for i := range colors {
			colors[i] = d.DefaultColor
		}
		if err := s.Set(m, layer, colors); err != nil {
			return err
		}
		m.SetLayerState(layer, mesh.LayerState{Visible: true, BlendMode: mesh.BlendAlpha})
		return nil
	}
	colors := make([]utils.ColorFloat, len(selection))
	for i := range colors {
		colors[i] = d.DefaultColor
	}
	return s.SetSelected(m, layer, colors, selection)
}

// RampStop is one knot of a 1D color ramp.
type RampStop struct {
	Position float32
	Color    utils.ColorFloat
}

// Ramp is a piecewise-linear 1D color gradient. Stops must be sorted
// by position; evaluation clamps outside the knot range.
type Ramp struct {
	Stops []RampStop
}

// Eval samples the ramp at t in [0,1].
func (r *Ramp) Eval(t float32) utils.ColorFloat {
	if len(r.Stops) == 0 {
		return utils.ColorFloat{}
	}
	if t <= r.Stops[0].Position {
		return r.Stops[0].Color
	}
	last := r.Stops[len(r.Stops)-1]
	if t >= last.Position {
		return last.Color
	}
	for i := 1; i < len(r.Stops); i++ {
		hi := r.Stops[i]
		if t > hi.Position {
			continue
		}
		lo := r.Stops[i-1]
		span := hi.Position - lo.Position
		if span <= 0 {
			return hi.Color
		}
		f := (t - lo.Position) / span
		var out utils.ColorFloat
		for c := 0; c < 4; c++ {
			out[c] = utils.Lerp(lo.Color[c], hi.Color[c], f)
		}
		return out
	}
	return last.Color
}

// GradientAxis selects the coordinate a gradient fill runs along.
type GradientAxis int

const (
	GradientX GradientAxis = iota
	GradientY
	GradientZ
	// GradientLuminance ramps on the layer's existing brightness
	// instead of position, recoloring what is already painted.
	GradientLuminance
)

// GradientFill paints a layer by sampling a ramp. Positional axes
// normalize each face-vertex within the mesh bounding box; world
// toggles between local and translated coordinates. Selection scoping
// matches ColorFill.
func (s *Store) GradientFill(m *mesh.Mesh, layer string, ramp *Ramp, axis GradientAxis, world bool, selection []mesh.FaceVertex) error {
	fvs := m.FaceVertices()
	existing, err := s.Get(m, layer)
	if err != nil {
		return err
	}

	var lo, hi float32
	if axis != GradientLuminance {
		bbmin, bbmax := m.BoundingBox()
		if !world {
			bbmin = bbmin.Sub(m.Translate)
			bbmax = bbmax.Sub(m.Translate)
		}
		lo, hi = bbmin[int(axis)], bbmax[int(axis)]
	}

	sample := func(k int) utils.ColorFloat {
		var t float32
		if axis == GradientLuminance {
			c := existing[k]
			t = 0.2126*c.R() + 0.7152*c.G() + 0.0722*c.B()
		} else {
			p := m.Positions[fvs[k].Vertex]
			if world {
				p = p.Add(m.Translate)
			}
			if hi > lo {
				t = (p[int(axis)] - lo) / (hi - lo)
			}
		}
		return ramp.Eval(utils.Clamp01(t))
	}

	if selection == nil {
		colors := make([]utils.ColorFloat, len(fvs))
		for k := range fvs {
			colors[k] = sample(k)
		}
		return s.Set(m, layer, colors)
	}

	index := make(map[[2]int]int, len(fvs))
	for k, fv := range fvs {
		index[[2]int{fv.Face, fv.Vertex}] = k
	}
	colors := make([]utils.ColorFloat, len(selection))
	for i, fv := range selection {
		colors[i] = sample(index[[2]int{fv.Face, fv.Vertex}])
	}
	return s.SetSelected(m, layer, colors, selection)
}

// ColorNoise perturbs a layer's painted colors. Monochromatic noise
// darkens r, g and b together by a random factor up to amount, so
// channels keep their ratio; color noise shifts each channel by a
// random fraction of its own value. Alpha is never touched, so
// coverage is preserved. Selection scoping matches ColorFill.
func (s *Store) ColorNoise(m *mesh.Mesh, layer string, amount float32, mono bool, rng *rand.Rand, selection []mesh.FaceVertex) error {
	colors, err := s.Get(m, layer)
	if err != nil {
		return err
	}
	perturb := func(i int) {
		if mono {
			f := 1 - rng.Float32()*amount
			for c := 0; c < 3; c++ {
				colors[i][c] = utils.Clamp01(colors[i][c] * f)
			}
			return
		}
		for c := 0; c < 3; c++ {
			n := (rng.Float32()*2 - 1) * colors[i][c] * amount
			colors[i][c] = utils.Clamp01(colors[i][c] + n)
		}
	}

	if selection == nil {
		for i := range colors {
			perturb(i)
		}
		return s.Set(m, layer, colors)
	}

	index := make(map[[2]int]int, len(colors))
	for k, fv := range m.FaceVertices() {
		index[[2]int{fv.Face, fv.Vertex}] = k
	}
	picked := make([]utils.ColorFloat, len(selection))
	for i, fv := range selection {
		k := index[[2]int{fv.Face, fv.Vertex}]
		perturb(k)
		picked[i] = colors[k]
	}
	return s.SetSelected(m, layer, picked, selection)
}

// SetLayerOpacity scales the layer's alpha so its most opaque painted
// face-vertex lands on the given value and everything fainter keeps
// its relative coverage. A layer with no alpha at all instead gets
// the value wherever rgb carries paint, reviving color-only data.
func (s *Store) SetLayerOpacity(m *mesh.Mesh, layer string, opacity float32) error {
	colors, err := s.Get(m, layer)
	if err != nil {
		return err
	}
	opacity = utils.Clamp01(opacity)
	var alphaMax float32
	for i := range colors {
		if a := colors[i].A(); a > alphaMax {
			alphaMax = a
		}
	}
	if alphaMax > 0 {
		for i := range colors {
			colors[i][3] = colors[i].A() / alphaMax * opacity
		}
	} else {
		for i := range colors {
			if colors[i].R() > 0 || colors[i].G() > 0 || colors[i].B() > 0 {
				colors[i][3] = opacity
			}
		}
	}
	return s.Set(m, layer, colors)
}

// CopyLayer duplicates one layer's colors and state onto another.
func (s *Store) CopyLayer(m *mesh.Mesh, from, to string) error {
	colors, err := s.Get(m, from)
	if err != nil {
		return err
	}
	if err := s.Set(m, to, colors); err != nil {
		return err
	}
	m.SetLayerState(to, m.LayerStateOf(from))
	return nil
}

// SwapLayer exchanges two layers' colors and states.
func (s *Store) SwapLayer(m *mesh.Mesh, a, b string) error {
	ca, err := s.Get(m, a)
	if err != nil {
		return err
	}
	cb, err := s.Get(m, b)
	if err != nil {
		return err
	}
	if err := s.Set(m, a, cb); err != nil {
		return err
	}
	if err := s.Set(m, b, ca); err != nil {
		return err
	}
	sa, sb := m.LayerStateOf(a), m.LayerStateOf(b)
	m.SetLayerState(a, sb)
	m.SetLayerState(b, sa)
	return nil
}

// ApplyMasterPalette recolors the palette target layers: slot i's
// color replaces the rgb of every painted face-vertex on each of the
// slot's target layers. Alpha is preserved so masks survive a palette
// swap. On layers above the base, unpainted face-vertices get their
// rgb cleared too, so stale color never leaks past a zeroed mask.
func (s *Store) ApplyMasterPalette(m *mesh.Mesh, palette [5]utils.ColorFloat) error {
	for slot, targets := range s.Project.PaletteTargets {
		for _, layer := range targets {
			colors, err := s.Get(m, layer)
			if err != nil {
				return err
			}
			isBase := layer == config.BaseLayerName
			for i := range colors {
				if colors[i].A() > 0 {
					for c := 0; c < 3; c++ {
						colors[i][c] = palette[slot][c]
					}
				} else if !isBase {
					for c := 0; c < 3; c++ {
						colors[i][c] = 0
					}
				}
			}
			if err := s.Set(m, layer, colors); err != nil {
				return err
			}
		}
	}
	return nil
}

// CurvatureFill paints mean curvature into a layer: 0.5 is flat,
// higher is convex, lower is concave. A ramp maps the curvature value
// to a color; a nil ramp paints it as grayscale. Normalization
// spreads the convex and concave ranges separately to full contrast
// around the midpoint.
func (s *Store) CurvatureFill(m *mesh.Mesh, layer string, ramp *Ramp, normalize bool) error {
	if len(m.Normals) != len(m.Positions) {
		m.ComputeNormals()
	}
	vertexEdges := m.VertexEdges()

	curv := make([]float32, len(m.Positions))
	for vi := range m.Positions {
		edges := vertexEdges[vi]
		if len(edges) == 0 {
			curv[vi] = 0.5
			continue
		}
		var sum float32
		for _, e := range edges {
			other := e.A
			if other == vi {
				other = e.B
			}
			dir := m.Positions[other].Sub(m.Positions[vi])
			l := dir.Len()
			if l > 1e-12 {
				dir = dir.Mul(1 / l)
			} else {
				l = 1
			}
			dot := m.Normals[vi].Dot(dir)
			if dot > 1 {
				dot = 1
			} else if dot < -1 {
				dot = -1
			}
			sum += (float32(math.Acos(float64(dot)))/math.Pi - 0.5) / l
		}
		v := sum/float32(len(edges)) + 0.5
		if v > 1 {
			v = 1
		}
		if v < 0 {
			v = 0
		}
		curv[vi] = v
	}

	if normalize {
		var maxConvex, maxConcave float32
		for _, v := range curv {
			if d := v - 0.5; d > maxConvex {
				maxConvex = d
			} else if d := 0.5 - v; d > maxConcave {
				maxConcave = d
			}
		}
		for i, v := range curv {
			if v > 0.5 && maxConvex > 0 {
				curv[i] = 0.5 + (v-0.5)/maxConvex*0.5
			} else if v < 0.5 && maxConcave > 0 {
				curv[i] = 0.5 - (0.5-v)/maxConcave*0.5
			}
		}
	}

	colors := make([]utils.ColorFloat, m.FaceVertexCount())
	for k, fv := range m.FaceVertices() {
		v := curv[fv.Vertex]
		if ramp != nil {
			colors[k] = ramp.Eval(v)
		} else {
			colors[k] = utils.ColorFloat{v, v, v, 1}
		}
	}
	return s.Set(m, layer, colors)
}
