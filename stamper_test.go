package easel

import (
	"math"
	"math/rand"
	"testing"
)

// plainBrush returns a config with every dynamic disabled so dab
// placement depends only on geometry.
func plainBrush() BrushRenderConfig {
	return BrushRenderConfig{
		Size:            20,
		Flow:            1,
		Opacity:         1,
		Hardness:        0.8,
		Roundness:       1,
		SpacingFraction: 0.25,
		Color:           Black,
	}
}

func TestStamperFirstSampleOneDab(t *testing.T) {
	s := NewDabStamper(plainBrush(), nil)
	dabs := s.Feed(InputSample{X: 50, Y: 60, Pressure: 0.5})
	if len(dabs) != 1 {
		t.Fatalf("first sample produced %d dabs, want 1", len(dabs))
	}
	if dabs[0].X != 50 || dabs[0].Y != 60 {
		t.Errorf("first dab at (%v, %v), want (50, 60)", dabs[0].X, dabs[0].Y)
	}
	if s.DabCount() != 1 {
		t.Errorf("DabCount = %d, want 1", s.DabCount())
	}
}

func TestStamperSpacing(t *testing.T) {
	// Size 20 at 25% spacing places a dab every 5 pixels. Ten samples
	// stepping 6px along x walk 54px of path: one contact dab plus ten
	// spaced dabs at x = 105, 110, ..., 150.
	s := NewDabStamper(plainBrush(), nil)

	var dabs []DabParams
	for i := 0; i < 10; i++ {
		dabs = append(dabs, s.Feed(InputSample{
			X: 100 + float64(i)*6, Y: 100, Pressure: 0.5,
		})...)
	}

	if len(dabs) != 11 {
		t.Fatalf("got %d dabs, want 11", len(dabs))
	}
	for i, d := range dabs {
		wantX := 100 + float64(i)*5
		if math.Abs(d.X-wantX) > 1e-9 || math.Abs(d.Y-100) > 1e-9 {
			t.Errorf("dab %d at (%v, %v), want (%v, 100)", i, d.X, d.Y, wantX)
		}
	}
}

func TestStamperStationarySample(t *testing.T) {
	s := NewDabStamper(plainBrush(), nil)
	s.Feed(InputSample{X: 10, Y: 10, Pressure: 0.5})
	dabs := s.Feed(InputSample{X: 10, Y: 10, Pressure: 0.9})
	if len(dabs) != 0 {
		t.Errorf("stationary sample produced %d dabs, want 0", len(dabs))
	}
	// Pressure still updates for later synthesis.
	_, _, p, ok := s.LastPosition()
	if !ok || p != 0.9 {
		t.Errorf("LastPosition pressure = %v, %v; want 0.9, true", p, ok)
	}
}

func TestStamperSynthesizeDab(t *testing.T) {
	s := NewDabStamper(plainBrush(), nil)
	if got := s.SynthesizeDab(); got != nil {
		t.Errorf("SynthesizeDab before first dab = %v, want nil", got)
	}
	s.Feed(InputSample{X: 30, Y: 40, Pressure: 0.5})
	dabs := s.SynthesizeDab()
	if len(dabs) != 1 || dabs[0].X != 30 || dabs[0].Y != 40 {
		t.Errorf("SynthesizeDab = %+v, want one dab at (30, 40)", dabs)
	}
}

func TestStamperFadeInCapsFirstDab(t *testing.T) {
	cfg := plainBrush()
	cfg.PressureSize = true
	cfg.SizeCurve = PressureCurveLinear
	cfg.FadeInCeiling = 0.3
	cfg.FadeInSamples = 4

	s := NewDabStamper(cfg, nil)
	dabs := s.Feed(InputSample{X: 0, Y: 0, Pressure: 1})
	if len(dabs) != 1 {
		t.Fatalf("got %d dabs, want 1", len(dabs))
	}
	// Spurious full contact pressure is capped at the ceiling, so the
	// first dab renders at 20 * 0.3 pixels.
	if math.Abs(dabs[0].Size-6.0) > 1e-9 {
		t.Errorf("first dab Size = %v, want 6.0", dabs[0].Size)
	}
}

func TestStamperPressureDynamics(t *testing.T) {
	cfg := plainBrush()
	cfg.PressureSize = true
	cfg.PressureFlow = true
	cfg.PressureOpacity = true
	cfg.Opacity = 0.8

	s := NewDabStamper(cfg, nil)
	dabs := s.Feed(InputSample{X: 0, Y: 0, Pressure: 0.5})
	d := dabs[0]
	if math.Abs(d.Size-10) > 1e-9 {
		t.Errorf("Size = %v, want 10", d.Size)
	}
	if math.Abs(d.Flow-0.5) > 1e-9 {
		t.Errorf("Flow = %v, want 0.5", d.Flow)
	}
	if math.Abs(d.Opacity-0.4) > 1e-9 {
		t.Errorf("Opacity = %v, want 0.4", d.Opacity)
	}
}

func TestStamperJitterDeterminism(t *testing.T) {
	cfg := plainBrush()
	cfg.ScatterJitter = JitterConfig{Enabled: true, Amount: 0.5}
	cfg.SizeJitter = JitterConfig{Enabled: true, Amount: 0.3}
	cfg.AngleJitter = JitterConfig{Enabled: true, Amount: 0.2}

	run := func(seed int64) []DabParams {
		s := NewDabStamper(cfg, rand.New(rand.NewSource(seed)))
		var out []DabParams
		for i := 0; i < 8; i++ {
			out = append(out, s.Feed(InputSample{X: float64(i) * 7, Y: 50, Pressure: 0.6})...)
		}
		return out
	}

	a, b := run(42), run(42)
	if len(a) != len(b) {
		t.Fatalf("replays produced %d and %d dabs", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("dab %d differs across replays: %+v vs %+v", i, a[i], b[i])
		}
	}

	c := run(7)
	same := len(a) == len(c)
	if same {
		for i := range a {
			if a[i] != c[i] {
				same = false
				break
			}
		}
	}
	if same {
		t.Error("different seeds produced identical jittered dabs")
	}
}

func TestStamperCatmullRomCollinear(t *testing.T) {
	cfg := plainBrush()
	cfg.Interpolation = InterpolateCatmullRom

	s := NewDabStamper(cfg, nil)
	var dabs []DabParams
	for i := 0; i < 6; i++ {
		dabs = append(dabs, s.Feed(InputSample{
			X: float64(i) * 10, Y: 25, Pressure: 0.5,
		})...)
	}
	if len(dabs) < 6 {
		t.Fatalf("spline produced only %d dabs", len(dabs))
	}
	// Collinear control points keep the spline on the line.
	for i, d := range dabs {
		if math.Abs(d.Y-25) > 1e-6 {
			t.Errorf("dab %d strayed to y=%v on a straight path", i, d.Y)
		}
	}
}

func TestStamperFeedBatch(t *testing.T) {
	samples := []InputSample{
		{X: 0, Y: 0, Pressure: 0.5},
		{X: 10, Y: 0, Pressure: 0.5},
		{X: 20, Y: 0, Pressure: 0.5},
	}
	batched := NewDabStamper(plainBrush(), nil).FeedBatch(samples)

	s := NewDabStamper(plainBrush(), nil)
	var oneByOne []DabParams
	for _, sm := range samples {
		oneByOne = append(oneByOne, s.Feed(sm)...)
	}

	if len(batched) != len(oneByOne) {
		t.Fatalf("FeedBatch produced %d dabs, sequential Feed %d", len(batched), len(oneByOne))
	}
	for i := range batched {
		if batched[i] != oneByOne[i] {
			t.Errorf("dab %d differs: %+v vs %+v", i, batched[i], oneByOne[i])
		}
	}
}

func TestStamperMinimumSize(t *testing.T) {
	cfg := plainBrush()
	cfg.Size = 2
	cfg.PressureSize = true

	s := NewDabStamper(cfg, nil)
	dabs := s.Feed(InputSample{X: 0, Y: 0, Pressure: 0.01})
	if dabs[0].Size != 0.5 {
		t.Errorf("Size = %v, want clamp to 0.5", dabs[0].Size)
	}
}
