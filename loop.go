package easel

import (
	"context"
	"time"
)

// DefaultFrameInterval paces the frame loop at 60 ticks per second.
const DefaultFrameInterval = time.Second / 60

// FrameLoop drives an engine's cooperative scheduler: it serializes
// input delivery and ticks onto one goroutine so engine state is never
// touched concurrently. Event producers call Submit / Begin / End /
// Cancel from any goroutine; the loop applies them in order at the
// next tick.
type FrameLoop struct {
	engine   *Engine
	interval time.Duration

	// inbox carries closures to run on the loop goroutine, keeping
	// Engine itself lock-free.
	inbox chan func(*Engine)

	// OnFrame, when set, runs after every tick with the frame's dirty
	// region. Hosts repaint from it.
	OnFrame func(DirtyRect)
}

// NewFrameLoop creates a loop over the engine. interval <= 0 uses
// DefaultFrameInterval.
func NewFrameLoop(e *Engine, interval time.Duration) *FrameLoop {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &FrameLoop{
		engine:   e,
		interval: interval,
		inbox:    make(chan func(*Engine), 256),
	}
}

// Submit enqueues an input sample. Safe from any goroutine.
func (fl *FrameLoop) Submit(s InputSample) {
	fl.post(func(e *Engine) { e.ProcessPoint(s) })
}

// Begin requests a stroke start. Safe from any goroutine.
func (fl *FrameLoop) Begin() {
	fl.post(func(e *Engine) {
		if err := e.BeginStroke(); err != nil {
			Logger().Warn("easel: begin stroke rejected", "err", err)
		}
	})
}

// End requests a stroke finish. Safe from any goroutine.
func (fl *FrameLoop) End() {
	fl.post(func(e *Engine) {
		if err := e.EndStroke(); err != nil {
			Logger().Warn("easel: end stroke rejected", "err", err)
		}
	})
}

// Cancel requests a stroke cancellation. Safe from any goroutine.
func (fl *FrameLoop) Cancel() {
	fl.post(func(e *Engine) {
		if err := e.CancelStroke(); err != nil {
			Logger().Warn("easel: cancel stroke rejected", "err", err)
		}
	})
}

// Do runs fn on the loop goroutine at the next tick. Safe from any
// goroutine; fn must not block.
func (fl *FrameLoop) Do(fn func(*Engine)) {
	fl.post(fn)
}

func (fl *FrameLoop) post(fn func(*Engine)) {
	select {
	case fl.inbox <- fn:
	default:
		// A full inbox means the loop has stalled for seconds; dropping
		// the event is better than blocking an input thread.
		Logger().Warn("easel: frame loop inbox full, event dropped")
	}
}

// Run ticks the engine until ctx is done. It blocks; callers usually
// run it on a dedicated goroutine and cancel the context to stop.
func (fl *FrameLoop) Run(ctx context.Context) {
	ticker := time.NewTicker(fl.interval)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fl.drainInbox()
			fl.engine.Tick(float64(time.Since(start)) / float64(time.Millisecond))
			if fl.OnFrame != nil {
				fl.OnFrame(fl.engine.TakeDirtyRect())
			}
		}
	}
}

// Step applies pending events and ticks once at the given clock. Used
// by replay tooling and tests to drive frames deterministically.
func (fl *FrameLoop) Step(nowMs float64) {
	fl.drainInbox()
	fl.engine.Tick(nowMs)
	if fl.OnFrame != nil {
		fl.OnFrame(fl.engine.TakeDirtyRect())
	}
}

func (fl *FrameLoop) drainInbox() {
	for {
		select {
		case fn := <-fl.inbox:
			fn(fl.engine)
		default:
			return
		}
	}
}
