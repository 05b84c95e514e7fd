package utils_test

import (
	"strings"
	"testing"

	"github.com/strata3d/layerpaint/utils"
)

func TestClamp01(t *testing.T) {
	cases := []struct{ in, want float32 }{
		{-0.5, 0}, {0, 0}, {0.25, 0.25}, {1, 1}, {1.5, 1},
	}
	for _, c := range cases {
		if got := utils.Clamp01(c.in); got != c.want {
			t.Errorf("Clamp01(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestLerpColorKeepsAlpha(t *testing.T) {
	a := utils.ColorFloat{0, 0, 0, 0.25}
	b := utils.ColorFloat{1, 1, 1, 1}
	got := utils.LerpColor(a, b, 0.5)
	want := utils.ColorFloat{0.5, 0.5, 0.5, 0.25}
	if got != want {
		t.Errorf("LerpColor = %v, want %v", got, want)
	}
}

func TestColorFloatRGBA(t *testing.T) {
	c := utils.ColorFloat{1, 0, 1, 1}
	r, g, b, a := c.RGBA()
	if r != 0xffff || g != 0 || b != 0xffff || a != 0xffff {
		t.Errorf("RGBA = %v,%v,%v,%v", r, g, b, a)
	}
}

func TestRandomNameGeneratorUnique(t *testing.T) {
	var gen utils.RandomNameGenerator
	gen.Reserve("layer1")
	seen := map[string]bool{"layer1": true}
	for i := 0; i < 64; i++ {
		name := gen.RandomName()
		if seen[name] {
			t.Fatalf("duplicate name %q", name)
		}
		seen[name] = true
	}
}

func TestSDump(t *testing.T) {
	type probe struct{ Name string }
	out := utils.SDump(probe{Name: "layer1"})
	if !strings.Contains(out, "layer1") {
		t.Errorf("dump missing field value: %q", out)
	}
}
