package dab

import (
	"math"
	"testing"
)

func TestErf(t *testing.T) {
	// Reference values from math.Erf.
	tests := []float64{-2, -1, -0.5, 0, 0.5, 1, 2}
	for _, x := range tests {
		got := erf(x)
		want := math.Erf(x)
		if math.Abs(got-want) > 1.5e-7 {
			t.Errorf("erf(%v) = %v, want %v", x, got, want)
		}
	}
}

func TestValueAtCenter(t *testing.T) {
	for _, hardness := range []float64{0, 0.5, 0.8, 1} {
		p := NewParams(hardness, 10, 1, 0)
		if got := p.valueAt(0, 0); got < 0.99 {
			t.Errorf("hardness %v: coverage at center = %v, want ~1", hardness, got)
		}
	}
}

func TestValueAtFalloff(t *testing.T) {
	p := NewParams(0.5, 10, 1, 0)

	// Coverage must decrease monotonically with distance.
	prev := math.Inf(1)
	for r := 0.0; r <= 25; r += 0.5 {
		v := p.valueAt(r, 0)
		if v > prev+1e-9 {
			t.Fatalf("coverage increased with distance at r=%v: %v > %v", r, v, prev)
		}
		prev = v
	}

	// Far outside the radius the mask must vanish.
	if v := p.valueAt(30, 0); v > 0.001 {
		t.Errorf("coverage at 3x radius = %v, want ~0", v)
	}
}

func TestValueAtRoundness(t *testing.T) {
	p := NewParams(0.8, 10, 0.5, 0)
	onMajor := p.valueAt(8, 0)
	onMinor := p.valueAt(0, 8)
	if onMinor >= onMajor {
		t.Errorf("squashed ellipse: minor-axis coverage %v should be below major-axis %v", onMinor, onMajor)
	}
}

func TestValueAtRotation(t *testing.T) {
	// Rotating a squashed ellipse by 90 degrees swaps the axes.
	flat := NewParams(0.8, 10, 0.5, 0)
	rotated := NewParams(0.8, 10, 0.5, math.Pi/2)
	got := rotated.valueAt(0, 8)
	want := flat.valueAt(8, 0)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("rotated minor coverage = %v, want %v", got, want)
	}
}

func TestRenderGeometry(t *testing.T) {
	p := NewParams(0.8, 10, 1, 0)
	m := Render(p, 10, 0, 0)

	if m.Side != 2*m.Anchor+2 {
		t.Errorf("Side = %d, want 2*Anchor+2 = %d", m.Side, 2*m.Anchor+2)
	}
	if len(m.Coverage) != m.Side*m.Side {
		t.Errorf("Coverage length = %d, want %d", len(m.Coverage), m.Side*m.Side)
	}

	// The anchor pixel holds the dab center.
	center := m.Coverage[m.Anchor*m.Side+m.Anchor]
	if center < 0.99 {
		t.Errorf("coverage at anchor = %v, want ~1", center)
	}

	// Corners are outside the fade band.
	if c := m.Coverage[0]; c > 0.001 {
		t.Errorf("corner coverage = %v, want ~0", c)
	}
}

func TestRenderSubpixelShift(t *testing.T) {
	p := NewParams(0.8, 4, 1, 0)
	base := Render(p, 4, 0, 0)
	shifted := Render(p, 4, 0.5, 0)

	// A +0.5 x shift moves weight toward higher columns: the column one
	// right of the anchor gains coverage.
	i := base.Anchor*base.Side + base.Anchor + 1
	if shifted.Coverage[i] <= base.Coverage[i] {
		t.Errorf("subpixel shift did not move coverage: %v <= %v",
			shifted.Coverage[i], base.Coverage[i])
	}
}

func TestCacheLookup(t *testing.T) {
	c := NewCache(16)

	m1, qx, qy := c.Lookup(5, 0.8, 1, 0, 0.1, 0.6)
	if qx != 0 || qy != 0.5 {
		t.Errorf("quantized offsets = (%v, %v), want (0, 0.5)", qx, qy)
	}

	// Same quantized parameters hit the cache and return the same mask.
	m2, _, _ := c.Lookup(5.01, 0.8, 1, 0, 0.15, 0.55)
	if m1 != m2 {
		t.Error("equivalent lookups returned different masks")
	}

	stats := c.Stats()
	if stats.Misses != 1 || stats.Hits != 1 {
		t.Errorf("stats = %+v, want 1 miss 1 hit", stats)
	}

	// A different radius renders a new mask.
	m3, _, _ := c.Lookup(8, 0.8, 1, 0, 0.1, 0.6)
	if m3 == m1 {
		t.Error("different radius returned the cached mask")
	}
}

func TestCacheKeyDistinguishesAngle(t *testing.T) {
	c := NewCache(16)
	m1, _, _ := c.Lookup(5, 0.8, 0.5, 0, 0, 0)
	m2, _, _ := c.Lookup(5, 0.8, 0.5, math.Pi/2, 0, 0)
	if m1 == m2 {
		t.Error("rotated lookup returned the unrotated mask")
	}
}
