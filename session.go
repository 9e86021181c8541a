package easel

import (
	"context"
	"math"
	"math/rand"

	"github.com/google/uuid"
)

// SessionState is the stroke session lifecycle state.
type SessionState int

const (
	// StateIdle means no stroke is in progress.
	StateIdle SessionState = iota

	// StateStarting means accumulator setup is in flight; input is
	// buffered, not stamped.
	StateStarting

	// StateActive means the accumulator is ready and dabs flow
	// immediately.
	StateActive

	// StateFinishing means the terminal commit is in progress.
	StateFinishing
)

// String returns the state name.
func (s SessionState) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateActive:
		return "active"
	case StateFinishing:
		return "finishing"
	default:
		return "idle"
	}
}

// StrokeSession is the state for one pointer-down-to-pointer-up
// gesture. Exactly one session exists per engine at a time; it is
// created on pointer-down and destroyed on finalize or cancel.
type StrokeSession struct {
	ID      string
	LayerID string

	state    SessionState
	acc      StrokeAccumulator
	stamper  *DabStamper
	buffered []InputSample

	// pendingEnd records a pointer-up that arrived while the
	// accumulator was still starting; it is honored as soon as the
	// session reaches active.
	pendingEnd bool

	// prepared is set once the terminal commit has run, making the
	// end-of-stroke path idempotent.
	prepared bool
	commit   CommitResult

	// generation ties in-flight async work to this session; a stale
	// completion whose generation no longer matches is discarded.
	generation uint64

	ctx    context.Context
	cancel context.CancelFunc

	lastEmitMs float64
	cfg        BrushRenderConfig
}

// newStrokeSession creates a session in the starting state.
func newStrokeSession(layerID string, cfg BrushRenderConfig, acc StrokeAccumulator, rng *rand.Rand, generation uint64) *StrokeSession {
	ctx, cancel := context.WithCancel(context.Background())
	return &StrokeSession{
		ID:         uuid.NewString(),
		LayerID:    layerID,
		state:      StateStarting,
		acc:        acc,
		stamper:    NewDabStamper(cfg, rng),
		generation: generation,
		ctx:        ctx,
		cancel:     cancel,
		cfg:        cfg,
	}
}

// State returns the current lifecycle state.
func (s *StrokeSession) State() SessionState { return s.state }

// DabCount returns the number of dabs stamped so far.
func (s *StrokeSession) DabCount() uint64 { return s.stamper.DabCount() }

// buffer appends samples received while starting.
func (s *StrokeSession) buffer(samples []InputSample) {
	s.buffered = append(s.buffered, samples...)
}

// takeBuffered returns and clears the buffered input, collapsing
// near-duplicate points when the brush is in continuous-emission mode
// so the replay does not produce an overweight starting blob.
func (s *StrokeSession) takeBuffered() []InputSample {
	out := s.buffered
	s.buffered = nil
	if !s.cfg.BuildUp || len(out) < 2 {
		return out
	}

	collapsed := out[:1]
	for _, sm := range out[1:] {
		last := &collapsed[len(collapsed)-1]
		if math.Hypot(sm.X-last.X, sm.Y-last.Y) < 1 {
			// Keep the most recent dynamics for the held position.
			last.Pressure = sm.Pressure
			last.TimestampMs = sm.TimestampMs
			continue
		}
		collapsed = append(collapsed, sm)
	}
	return collapsed
}

// stamp feeds dabs into the accumulator and reports how many landed.
func (s *StrokeSession) stamp(dabs []DabParams, harness *Harness) int {
	n := 0
	for _, d := range dabs {
		if err := s.acc.StampDab(d); err != nil {
			Logger().Warn("easel: dab stamp failed", "err", err)
			continue
		}
		if harness != nil && harness.OnDab != nil {
			harness.OnDab(d)
		}
		n++
	}
	return n
}

// destroy cancels in-flight work and drops the session's resources.
func (s *StrokeSession) destroy() {
	s.cancel()
	s.acc.Discard()
	s.state = StateIdle
}
