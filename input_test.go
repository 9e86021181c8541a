package easel

import "testing"

func TestInputQueueDrainBatch(t *testing.T) {
	q := NewInputQueue()
	for i := 0; i < 100; i++ {
		q.Push(InputSample{SequenceIndex: uint64(i)})
	}

	batch := q.DrainBatch(DefaultBatchLimit)
	if len(batch) != 80 {
		t.Fatalf("drained %d samples, want 80", len(batch))
	}
	for i, s := range batch {
		if s.SequenceIndex != uint64(i) {
			t.Fatalf("sample %d has sequence %d, arrival order lost", i, s.SequenceIndex)
		}
	}
	if q.Len() != 20 {
		t.Errorf("queue holds %d samples after drain, want 20", q.Len())
	}

	rest := q.DrainBatch(DefaultBatchLimit)
	if len(rest) != 20 || rest[0].SequenceIndex != 80 {
		t.Errorf("carried-over batch = %d samples starting at %d, want 20 starting at 80",
			len(rest), rest[0].SequenceIndex)
	}
}

func TestInputQueueDrainAll(t *testing.T) {
	q := NewInputQueue()
	if got := q.DrainAll(); got != nil {
		t.Errorf("DrainAll on empty queue = %v, want nil", got)
	}
	for i := 0; i < 200; i++ {
		q.Push(InputSample{SequenceIndex: uint64(i)})
	}
	all := q.DrainAll()
	if len(all) != 200 {
		t.Errorf("DrainAll returned %d samples, want 200", len(all))
	}
	if q.Len() != 0 {
		t.Errorf("queue not empty after DrainAll")
	}
}

func TestInputQueueDiscard(t *testing.T) {
	q := NewInputQueue()
	for i := 0; i < 7; i++ {
		q.Push(InputSample{})
	}
	q.Discard()
	if q.Len() != 0 {
		t.Error("Discard left samples queued")
	}
	if got := q.Dropped(); got != 7 {
		t.Errorf("Dropped() = %d, want 7", got)
	}
	q.Push(InputSample{})
	q.Discard()
	if got := q.Dropped(); got != 8 {
		t.Errorf("Dropped() = %d after second discard, want 8", got)
	}
}

func TestPressureSmootherFirstValueFillsWindow(t *testing.T) {
	s := NewPressureSmoother(8)
	if got := s.Smooth(0.6); got != 0.6 {
		t.Errorf("first Smooth = %v, want 0.6 (no averaging against zeros)", got)
	}
	// A second identical value keeps the average stable.
	if got := s.Smooth(0.6); got < 0.599 || got > 0.601 {
		t.Errorf("second Smooth = %v, want 0.6", got)
	}
}

func TestPressureSmootherWindowAverage(t *testing.T) {
	s := NewPressureSmoother(3)
	s.Smooth(0.9) // window now [0.9, 0.9, 0.9]
	got := s.Smooth(0.3)
	want := (0.9 + 0.9 + 0.3) / 3
	if got < want-1e-9 || got > want+1e-9 {
		t.Errorf("Smooth(0.3) = %v, want %v", got, want)
	}
}

func TestPressureSmootherReset(t *testing.T) {
	s := NewPressureSmoother(4)
	s.Smooth(1)
	s.Reset()
	if got := s.Smooth(0.2); got != 0.2 {
		t.Errorf("Smooth after Reset = %v, want 0.2", got)
	}
}

func TestFadeInPressure(t *testing.T) {
	tests := []struct {
		name     string
		pressure float64
		index    int
		ramp     int
		ceiling  float64
		want     float64
	}{
		{"first sample capped", 1.0, 0, 4, 0.3, 0.3},
		{"mid ramp capped", 1.0, 2, 4, 0.3, 0.65},
		{"ramp complete", 1.0, 4, 4, 0.3, 1.0},
		{"beyond ramp", 1.0, 9, 4, 0.3, 1.0},
		{"below cap unchanged", 0.2, 0, 4, 0.3, 0.2},
		{"disabled ceiling", 1.0, 0, 4, 1.0, 1.0},
		{"disabled ramp", 1.0, 0, 0, 0.3, 1.0},
	}
	for _, tt := range tests {
		got := fadeInPressure(tt.pressure, tt.index, tt.ramp, tt.ceiling)
		if got < tt.want-1e-9 || got > tt.want+1e-9 {
			t.Errorf("%s: fadeInPressure = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestPointPredictor(t *testing.T) {
	p := NewPointPredictor(4)
	if _, ok := p.Predict(); ok {
		t.Error("Predict with no samples reported ok")
	}
	p.Observe(InputSample{X: 10, Y: 20, TimestampMs: 100})
	if _, ok := p.Predict(); ok {
		t.Error("Predict with one sample reported ok")
	}
	p.Observe(InputSample{X: 14, Y: 23, TimestampMs: 108})
	got, ok := p.Predict()
	if !ok {
		t.Fatal("Predict with two samples failed")
	}
	if got.X != 18 || got.Y != 26 || got.TimestampMs != 116 {
		t.Errorf("Predict = (%v, %v) at %v, want (18, 26) at 116", got.X, got.Y, got.TimestampMs)
	}
	p.Reset()
	if _, ok := p.Predict(); ok {
		t.Error("Predict after Reset reported ok")
	}
}
