package easel

import "testing"

func TestFrameLoopStepAppliesEventsInOrder(t *testing.T) {
	eng := newTestEngine(t, EngineConfig{})
	fl := NewFrameLoop(eng, 0)

	var order []int
	fl.Do(func(*Engine) { order = append(order, 1) })
	fl.Do(func(*Engine) { order = append(order, 2) })
	fl.Do(func(*Engine) { order = append(order, 3) })
	fl.Step(0)

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("events applied in order %v, want [1 2 3]", order)
	}
	if eng.Metrics().FramesRendered != 1 {
		t.Errorf("FramesRendered = %d, want 1", eng.Metrics().FramesRendered)
	}
}

func TestFrameLoopStroke(t *testing.T) {
	eng := newTestEngine(t, EngineConfig{})
	fl := NewFrameLoop(eng, 0)

	var frames []DirtyRect
	fl.OnFrame = func(d DirtyRect) { frames = append(frames, d) }

	fl.Begin()
	fl.Step(0) // begin lands, session starting
	fl.Step(16)
	for i := 0; i < 5; i++ {
		fl.Submit(InputSample{X: 50 + float64(i)*10, Y: 50, Pressure: 0.5})
	}
	fl.Step(32)
	fl.End()
	fl.Step(48)

	m := eng.Metrics()
	if m.StrokesCommitted != 1 {
		t.Fatalf("StrokesCommitted = %d, want 1", m.StrokesCommitted)
	}
	if eng.SessionState() != StateIdle {
		t.Errorf("state = %v, want idle", eng.SessionState())
	}

	var dirty bool
	for _, d := range frames {
		if !d.Empty() && d.Contains(70, 50) {
			dirty = true
		}
	}
	if !dirty {
		t.Error("no frame reported a dirty region covering the stroke")
	}
}

func TestFrameLoopCancel(t *testing.T) {
	eng := newTestEngine(t, EngineConfig{})
	fl := NewFrameLoop(eng, 0)

	fl.Begin()
	fl.Step(0)
	fl.Submit(InputSample{X: 10, Y: 10, Pressure: 0.5})
	fl.Step(16)
	fl.Cancel()
	fl.Step(32)

	m := eng.Metrics()
	if m.StrokesCanceled != 1 || m.StrokesCommitted != 0 {
		t.Errorf("metrics = %+v, want one canceled and none committed", m)
	}
}
