package easel

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// CaptureVersion is the capture file format version this package
// reads and writes.
const CaptureVersion = 1

// CaptureStroke is one recorded stroke: the raw input samples between
// pointer-down and pointer-up, in arrival order.
type CaptureStroke struct {
	Samples []InputSample `json:"samples"`
}

// Capture is a recorded painting session that can be replayed
// deterministically: same canvas, same brush, same jitter seed, same
// samples produce identical pixels.
type Capture struct {
	Version int `json:"version"`

	Width  int `json:"width"`
	Height int `json:"height"`

	// Seed is the jitter entropy seed used during recording.
	Seed int64 `json:"seed"`

	Brush   BrushRenderConfig `json:"brush"`
	Strokes []CaptureStroke   `json:"strokes"`
}

// Validate checks the capture for structural problems. Malformed
// captures are rejected at the parse boundary; replay never guesses.
func (c *Capture) Validate() error {
	if c.Version != CaptureVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrMalformedCapture, c.Version)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: canvas %dx%d", ErrMalformedCapture, c.Width, c.Height)
	}
	if err := c.Brush.Validate(); err != nil {
		return fmt.Errorf("%w: brush: %v", ErrMalformedCapture, err)
	}
	for i, st := range c.Strokes {
		for j, s := range st.Samples {
			if math.IsNaN(s.X) || math.IsNaN(s.Y) || math.IsInf(s.X, 0) || math.IsInf(s.Y, 0) {
				return fmt.Errorf("%w: stroke %d sample %d has non-finite position", ErrMalformedCapture, i, j)
			}
			if s.Pressure < 0 || s.Pressure > 1 || math.IsNaN(s.Pressure) {
				return fmt.Errorf("%w: stroke %d sample %d pressure %v", ErrMalformedCapture, i, j, s.Pressure)
			}
		}
	}
	return nil
}

// WriteCapture serializes a capture as indented JSON.
func WriteCapture(w io.Writer, c *Capture) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

// ReadCapture parses and validates a capture. Unknown fields are an
// error: a capture that this version cannot fully interpret must not
// be half-replayed.
func ReadCapture(r io.Reader) (*Capture, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var c Capture
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCapture, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Recorder accumulates strokes into a capture while the host paints.
type Recorder struct {
	capture Capture
	current *CaptureStroke
}

// NewRecorder starts a recording for the given engine configuration.
func NewRecorder(width, height int, seed int64, brush BrushRenderConfig) *Recorder {
	return &Recorder{capture: Capture{
		Version: CaptureVersion,
		Width:   width,
		Height:  height,
		Seed:    seed,
		Brush:   brush,
	}}
}

// BeginStroke starts recording a new stroke.
func (r *Recorder) BeginStroke() {
	r.capture.Strokes = append(r.capture.Strokes, CaptureStroke{})
	r.current = &r.capture.Strokes[len(r.capture.Strokes)-1]
}

// Record appends a sample to the current stroke. Samples outside a
// stroke are dropped, mirroring the engine's hover behavior.
func (r *Recorder) Record(s InputSample) {
	if r.current != nil {
		r.current.Samples = append(r.current.Samples, s)
	}
}

// EndStroke closes the current stroke.
func (r *Recorder) EndStroke() { r.current = nil }

// Capture returns the recording so far.
func (r *Recorder) Capture() *Capture { return &r.capture }

// Replay builds an engine from the capture and replays every stroke.
// The harness may be nil. Frames are driven from the sample timestamps,
// draining in engine-sized batches, so the dab sequence matches the
// recording regardless of the recording frame rate.
func Replay(c *Capture, harness *Harness) (*Engine, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	seed := c.Seed
	if seed == 0 {
		seed = 1 // replay must never fall back to the clock
	}
	eng, err := NewEngine(EngineConfig{
		Width:   c.Width,
		Height:  c.Height,
		Brush:   c.Brush,
		Seed:    seed,
		Harness: harness,
	})
	if err != nil {
		return nil, err
	}

	now := 0.0
	for _, st := range c.Strokes {
		if err := eng.BeginStroke(); err != nil {
			eng.Close()
			return nil, err
		}
		for _, s := range st.Samples {
			eng.ProcessPoint(s)
			if s.TimestampMs > now {
				now = s.TimestampMs
			}
		}
		// One tick activates the session and replays the buffered
		// samples; further ticks drain any overflow past the batch cap.
		for {
			eng.Tick(now)
			now += float64(DefaultFrameInterval.Milliseconds())
			if eng.SessionState() != StateStarting && eng.queue.Len() == 0 {
				break
			}
		}
		if err := eng.EndStroke(); err != nil {
			eng.Close()
			return nil, err
		}
		eng.Tick(now)
	}
	return eng, nil
}
