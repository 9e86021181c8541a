package easel

// InputSample is one normalized pointer/stylus sample as produced by an
// input backend. Samples are immutable and consumed exactly once.
type InputSample struct {
	// X, Y are the sample position in canvas pixel coordinates.
	X, Y float64

	// Pressure is the normalized stylus pressure in [0, 1].
	// Mouse input reports a constant 0.5.
	Pressure float64

	// TiltX, TiltY are the stylus tilt angles in degrees.
	TiltX, TiltY float64

	// Rotation is the barrel rotation in degrees.
	Rotation float64

	// TimestampMs is the event timestamp in milliseconds.
	TimestampMs float64

	// SequenceIndex is a monotonically increasing per-device counter.
	SequenceIndex uint64
}

// DefaultBatchLimit caps how many queued samples one frame-loop tick
// may drain. Bursts beyond the cap carry over to the next tick, trading
// at most one frame of latency for bounded per-frame work.
const DefaultBatchLimit = 80

// InputQueue is a mailbox of pointer samples. Event handlers push,
// the frame loop drains once per tick. The queue is mutated only from
// the cooperative scheduler, so no locking is needed.
type InputQueue struct {
	samples []InputSample
	dropped uint64
}

// NewInputQueue creates an empty input queue.
func NewInputQueue() *InputQueue {
	return &InputQueue{samples: make([]InputSample, 0, DefaultBatchLimit)}
}

// Push appends a sample to the queue.
func (q *InputQueue) Push(s InputSample) {
	q.samples = append(q.samples, s)
}

// Len returns the number of queued samples.
func (q *InputQueue) Len() int {
	return len(q.samples)
}

// DrainBatch removes and returns up to limit samples in arrival order.
// A limit <= 0 drains everything.
func (q *InputQueue) DrainBatch(limit int) []InputSample {
	n := len(q.samples)
	if n == 0 {
		return nil
	}
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]InputSample, n)
	copy(out, q.samples[:n])
	q.samples = q.samples[:copy(q.samples, q.samples[n:])]
	return out
}

// DrainAll removes and returns every queued sample in arrival order.
func (q *InputQueue) DrainAll() []InputSample {
	return q.DrainBatch(0)
}

// Discard drops all queued samples without processing them and counts
// them in the dropped diagnostic.
func (q *InputQueue) Discard() {
	q.dropped += uint64(len(q.samples))
	q.samples = q.samples[:0]
}

// Dropped returns the total number of discarded samples.
func (q *InputQueue) Dropped() uint64 {
	return q.dropped
}
