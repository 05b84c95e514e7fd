package utils

// ColorFloat is one face-vertex RGBA sample in [0,1] range.
type ColorFloat [4]float32

func (c *ColorFloat) RGBA() (r, g, b, a uint32) {
	const mf = float32(256*256 - 1)
	r = uint32(c[0] * mf)
	g = uint32(c[1] * mf)
	b = uint32(c[2] * mf)
	a = uint32(c[3] * mf)
	return
}

func (c ColorFloat) R() float32 { return c[0] }
func (c ColorFloat) G() float32 { return c[1] }
func (c ColorFloat) B() float32 { return c[2] }
func (c ColorFloat) A() float32 { return c[3] }

// LerpColor blends rgb of a and b by t, alpha is taken from a.
func LerpColor(a, b ColorFloat, t float32) ColorFloat {
	return ColorFloat{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
		a[3],
	}
}
