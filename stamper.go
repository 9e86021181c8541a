package easel

import (
	"math"
	"math/rand"
)

// DabParams describes one discrete application of the brush tip.
// Values are fully resolved (pressure curves and jitter already
// applied) and never mutated after creation.
type DabParams struct {
	// X, Y is the dab center in canvas pixel coordinates.
	X, Y float64

	// Size is the dab diameter in pixels.
	Size float64

	// Flow is the per-dab paint transfer rate in [0, 1].
	Flow float64

	// Opacity is the stroke opacity ceiling this dab accumulates toward.
	Opacity float64

	// Hardness, Roundness and Angle shape the dab mask.
	Hardness  float64
	Roundness float64
	Angle     float64

	// Color is the paint color.
	Color RGBA
}

// DabStamper turns a sequence of input samples into dab placements.
// It owns the per-stroke interpolation state: last emitted position,
// residual spacing distance, the pressure smoother, and the dynamics
// entropy source.
//
// The stamper is pure with respect to pixels: it never touches a
// buffer, it only emits DabParams.
type DabStamper struct {
	cfg BrushRenderConfig
	rng *rand.Rand

	smoother *PressureSmoother

	started      bool
	lastX, lastY float64
	lastPressure float64
	residual     float64
	sampleIndex  int
	dabCount     uint64

	// Catmull-Rom control window, most recent last.
	ctrl []InputSample
}

// NewDabStamper creates a stamper for one stroke. The rng drives
// jitter dynamics; replaying the same samples with the same seed is
// deterministic. A nil rng disables jitter entirely.
func NewDabStamper(cfg BrushRenderConfig, rng *rand.Rand) *DabStamper {
	s := &DabStamper{cfg: cfg, rng: rng}
	if cfg.SmoothingWindow > 0 {
		s.smoother = NewPressureSmoother(cfg.SmoothingWindow)
	}
	return s
}

// DabCount returns the total number of dabs emitted so far.
func (s *DabStamper) DabCount() uint64 {
	return s.dabCount
}

// LastPosition returns the last emitted dab position. ok is false
// before the first dab of the stroke.
func (s *DabStamper) LastPosition() (x, y, pressure float64, ok bool) {
	return s.lastX, s.lastY, s.lastPressure, s.started
}

// Feed processes one input sample and returns the dabs it produces.
// The first sample of a stroke always produces exactly one dab.
func (s *DabStamper) Feed(sample InputSample) []DabParams {
	p := sample.Pressure
	if s.smoother != nil {
		p = s.smoother.Smooth(p)
	}
	p = fadeInPressure(p, s.sampleIndex, s.cfg.FadeInSamples, s.cfg.FadeInCeiling)
	s.sampleIndex++

	if s.cfg.Interpolation == InterpolateCatmullRom {
		return s.feedSpline(sample, p)
	}
	return s.walkTo(sample.X, sample.Y, p)
}

// FeedBatch processes samples in order and concatenates their dabs.
func (s *DabStamper) FeedBatch(samples []InputSample) []DabParams {
	var out []DabParams
	for _, sm := range samples {
		out = append(out, s.Feed(sm)...)
	}
	return out
}

// SynthesizeDab emits one dab at the last known position with the last
// effective pressure. Used by build-up (airbrush) emission while the
// pointer is stationary. Returns nil before the first dab of a stroke.
func (s *DabStamper) SynthesizeDab() []DabParams {
	if !s.started {
		return nil
	}
	return []DabParams{s.makeDab(s.lastX, s.lastY, s.lastPressure)}
}

// feedSpline runs Catmull-Rom subdivision through the spacing walker.
func (s *DabStamper) feedSpline(sample InputSample, pressure float64) []DabParams {
	sm := sample
	sm.Pressure = pressure
	s.ctrl = append(s.ctrl, sm)
	if len(s.ctrl) > 4 {
		s.ctrl = s.ctrl[1:]
	}

	n := len(s.ctrl)
	if n < 2 {
		return s.walkTo(sm.X, sm.Y, pressure)
	}

	// Segment between the two most recent samples; neighbors clamp to
	// the window edges (matches the usual open-spline endpoint rule).
	p1 := s.ctrl[n-2]
	p2 := s.ctrl[n-1]
	p0 := p1
	if n >= 3 {
		p0 = s.ctrl[n-3]
	}
	p3 := p2

	segLen := math.Hypot(p2.X-p1.X, p2.Y-p1.Y)
	step := s.cfg.spacing() / 2
	steps := int(math.Ceil(segLen/step)) + 1
	if steps < 1 {
		steps = 1
	}

	var out []DabParams
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x, y := catmullRom(p0.X, p1.X, p2.X, p3.X, t), catmullRom(p0.Y, p1.Y, p2.Y, p3.Y, t)
		pr := p1.Pressure + (p2.Pressure-p1.Pressure)*t
		out = append(out, s.walkTo(x, y, pr)...)
	}
	return out
}

// catmullRom evaluates the uniform Catmull-Rom basis at t for one axis.
func catmullRom(p0, p1, p2, p3, t float64) float64 {
	t2 := t * t
	t3 := t2 * t
	return 0.5 * ((2 * p1) +
		(-p0+p2)*t +
		(2*p0-5*p1+4*p2-p3)*t2 +
		(-p0+3*p1-3*p2+p3)*t3)
}

// walkTo advances the stroke path to (x, y) at the given effective
// pressure, emitting a dab every spacing() pixels along the way.
func (s *DabStamper) walkTo(x, y, pressure float64) []DabParams {
	if !s.started {
		s.started = true
		s.lastX, s.lastY = x, y
		s.lastPressure = pressure
		s.residual = 0
		return []DabParams{s.makeDab(x, y, pressure)}
	}

	dx := x - s.lastX
	dy := y - s.lastY
	dist := math.Hypot(dx, dy)
	spacing := s.cfg.spacing()

	if dist == 0 {
		s.lastPressure = pressure
		return nil
	}

	// residual is the along-path distance already walked since the
	// last dab; the next dab lands once the total reaches spacing.
	var out []DabParams
	startP := s.lastPressure
	d := spacing - s.residual
	for d <= dist {
		t := d / dist
		px := s.lastX + dx*t
		py := s.lastY + dy*t
		pp := startP + (pressure-startP)*t
		out = append(out, s.makeDab(px, py, pp))
		d += spacing
	}

	s.residual = dist - (d - spacing)
	s.lastX, s.lastY = x, y
	s.lastPressure = pressure
	return out
}

// makeDab resolves pressure curves and jitter dynamics into one dab.
// Every jitter-driven dynamic draws fresh entropy here, per dab; a
// random value must never be reused across dabs in a batch.
func (s *DabStamper) makeDab(x, y, pressure float64) DabParams {
	cfg := &s.cfg

	size := cfg.Size
	if cfg.PressureSize {
		size *= cfg.SizeCurve.Apply(pressure)
	}
	flow := cfg.Flow
	if cfg.PressureFlow {
		flow *= pressure
	}
	opacity := cfg.Opacity
	if cfg.PressureOpacity {
		opacity *= cfg.OpacityCurve.Apply(pressure)
	}

	angle := cfg.Angle
	roundness := cfg.Roundness

	if s.rng != nil {
		if cfg.SizeJitter.Enabled {
			size *= 1 - cfg.SizeJitter.Amount*s.rng.Float64()
		}
		if cfg.AngleJitter.Enabled {
			angle += cfg.AngleJitter.Amount * math.Pi * (2*s.rng.Float64() - 1)
		}
		if cfg.RoundnessJitter.Enabled {
			roundness *= 1 - cfg.RoundnessJitter.Amount*s.rng.Float64()
		}
		if cfg.ScatterJitter.Enabled {
			spread := cfg.ScatterJitter.Amount * cfg.Size
			x += spread * (2*s.rng.Float64() - 1)
			y += spread * (2*s.rng.Float64() - 1)
		}
	}

	if size < 0.5 {
		size = 0.5
	}
	if roundness < 0.01 {
		roundness = 0.01
	}

	s.dabCount++
	return DabParams{
		X:         x,
		Y:         y,
		Size:      size,
		Flow:      flow,
		Opacity:   opacity,
		Hardness:  cfg.Hardness,
		Roundness: roundness,
		Angle:     angle,
		Color:     cfg.Color,
	}
}
