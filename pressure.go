package easel

// PressureSmoother smooths pressure values with a sliding-window
// average. The first value fills the entire window, which prevents the
// first few samples of a stroke from averaging against zeros and
// producing a pressure spike.
type PressureSmoother struct {
	window      int
	values      []float64
	head        int
	sum         float64
	initialized bool
}

// NewPressureSmoother creates a smoother with the given window size.
// Sizes below 1 are clamped to 1.
func NewPressureSmoother(window int) *PressureSmoother {
	if window < 1 {
		window = 1
	}
	return &PressureSmoother{
		window: window,
		values: make([]float64, window),
	}
}

// Smooth feeds one pressure value and returns the windowed average.
func (s *PressureSmoother) Smooth(pressure float64) float64 {
	if !s.initialized {
		for i := range s.values {
			s.values[i] = pressure
		}
		s.sum = pressure * float64(s.window)
		s.initialized = true
		return pressure
	}

	s.sum -= s.values[s.head]
	s.values[s.head] = pressure
	s.sum += pressure
	s.head = (s.head + 1) % s.window

	return s.sum / float64(s.window)
}

// Reset clears the smoother state. Call when a stroke ends.
func (s *PressureSmoother) Reset() {
	s.head = 0
	s.sum = 0
	s.initialized = false
	clear(s.values)
}

// fadeInPressure caps the effective pressure of the first samples of a
// stroke. Sample 0 is capped at ceiling; the cap ramps linearly back to
// 1.0 over the next rampSamples samples. Many tablets report a spurious
// full-pressure sample on contact; without this the first dab lands
// anomalously heavy.
func fadeInPressure(pressure float64, sampleIndex, rampSamples int, ceiling float64) float64 {
	if ceiling <= 0 || ceiling >= 1 || rampSamples <= 0 {
		return pressure
	}
	if sampleIndex >= rampSamples {
		return pressure
	}
	t := float64(sampleIndex) / float64(rampSamples)
	limit := ceiling + (1-ceiling)*t
	if pressure > limit {
		return limit
	}
	return pressure
}

// PointPredictor extrapolates the next input position from recent
// samples. Predictions are used only for latency-hiding previews and
// are never committed to a stroke.
type PointPredictor struct {
	recent []InputSample
	keep   int
}

// NewPointPredictor creates a predictor that keeps the last n samples.
func NewPointPredictor(n int) *PointPredictor {
	if n < 2 {
		n = 2
	}
	return &PointPredictor{keep: n}
}

// Observe records a sample.
func (p *PointPredictor) Observe(s InputSample) {
	p.recent = append(p.recent, s)
	if len(p.recent) > p.keep {
		p.recent = p.recent[1:]
	}
}

// Predict returns a linear extrapolation of the next sample and true,
// or a zero sample and false if fewer than two samples were observed.
func (p *PointPredictor) Predict() (InputSample, bool) {
	n := len(p.recent)
	if n < 2 {
		return InputSample{}, false
	}
	a, b := p.recent[n-2], p.recent[n-1]
	out := b
	out.X = b.X + (b.X - a.X)
	out.Y = b.Y + (b.Y - a.Y)
	out.TimestampMs = b.TimestampMs + (b.TimestampMs - a.TimestampMs)
	return out, true
}

// Reset discards observed samples.
func (p *PointPredictor) Reset() {
	p.recent = p.recent[:0]
}
