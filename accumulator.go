package easel

import (
	"context"
)

// StrokeAccumulator owns the in-progress stroke's pixels. Dabs are
// stamped into a scratch buffer; Finalize commits the scratch onto the
// target layer exactly once.
//
// Implementations must report a DirtyRect that is a superset of every
// pixel actually modified (over-reporting is safe; under-reporting
// corrupts tile synchronization), and Finalize must be idempotent:
// a second call without an intervening Begin commits nothing.
type StrokeAccumulator interface {
	// Begin prepares the scratch buffer. For device-backed
	// implementations this may await asynchronous allocation.
	Begin(ctx context.Context) error

	// StampDab accumulates one dab into the scratch buffer.
	StampDab(d DabParams) error

	// DirtyRect returns the bounding region of all stamped dabs.
	DirtyRect() DirtyRect

	// Finalize commits the scratch buffer onto the target layer with
	// the stroke's opacity ceiling and clears the scratch. Idempotent.
	Finalize(ctx context.Context, target *Layer) (CommitResult, error)

	// Discard drops unsaved pixels without committing. Used by stroke
	// cancellation; no history must be written afterward.
	Discard()

	// Preview returns the host-visible scratch pixels for compositing
	// the in-progress stroke, or nil when the scratch lives on the
	// device and is composited there.
	Preview() *Pixmap
}

// cpuAccumulator accumulates a stroke into an offscreen host pixmap.
type cpuAccumulator struct {
	width, height int
	ceiling       float64

	buffer *Pixmap
	dirty  DirtyRect
	active bool
}

// NewCPUAccumulator creates the host-memory stroke accumulator.
// ceiling is the stroke opacity ceiling applied at commit time.
func NewCPUAccumulator(width, height int, ceiling float64) StrokeAccumulator {
	return &cpuAccumulator{width: width, height: height, ceiling: ceiling}
}

func (a *cpuAccumulator) Begin(context.Context) error {
	if a.buffer == nil {
		a.buffer = NewPixmap(a.width, a.height)
	} else {
		a.buffer.ClearRect(a.dirty)
	}
	a.dirty = DirtyRect{}
	a.active = true
	return nil
}

func (a *cpuAccumulator) StampDab(d DabParams) error {
	if !a.active {
		return ErrNoSession
	}
	rect := stampDab(a.buffer, relativeOpacity(d, a.ceiling))
	a.dirty = a.dirty.Union(rect)
	return nil
}

func (a *cpuAccumulator) DirtyRect() DirtyRect {
	return a.dirty
}

func (a *cpuAccumulator) Finalize(_ context.Context, target *Layer) (CommitResult, error) {
	if !a.active {
		return CommitResult{}, nil
	}
	a.active = false

	rect := a.dirty.Clamp(a.width, a.height)
	if !rect.Empty() && target != nil && target.Canvas != nil {
		compositeStroke(target.Canvas, a.buffer, rect, a.ceiling)
	}
	a.buffer.ClearRect(rect)
	a.dirty = DirtyRect{}
	return CommitResult{Rect: rect}, nil
}

func (a *cpuAccumulator) Preview() *Pixmap {
	if !a.active {
		return nil
	}
	return a.buffer
}

func (a *cpuAccumulator) Discard() {
	if a.buffer != nil {
		a.buffer.ClearRect(a.dirty)
	}
	a.dirty = DirtyRect{}
	a.active = false
}

// relativeOpacity rescales a dab's opacity target to be relative to
// the stroke ceiling, which is applied once at commit time. The
// scratch buffer therefore saturates at 1.0 for a constant-opacity
// stroke and the ceiling lands exactly once on the layer.
func relativeOpacity(d DabParams, ceiling float64) DabParams {
	if ceiling <= 0 {
		d.Opacity = 0
		return d
	}
	rel := d.Opacity / ceiling
	if rel > 1 {
		rel = 1
	}
	d.Opacity = rel
	return d
}
