package easel

import (
	"context"
	"errors"
)

// deviceAccumulator accumulates a stroke into a device scratch
// texture. Begin and Finalize are await points; between them dabs are
// issued as fire-and-forget draw calls.
//
// Any device failure degrades the rest of the stroke to a host-memory
// mirror: pixels already on the device are read back if possible,
// further dabs land in the mirror, and Finalize commits on the CPU.
// The degradation is invisible to the caller beyond a diagnostic
// counter.
type deviceAccumulator struct {
	dev           Device
	width, height int
	ceiling       float64

	scratch  TextureID
	mirror   *Pixmap
	dirty    DirtyRect
	active   bool
	degraded bool
	failures uint64
}

// NewDeviceAccumulator creates a stroke accumulator backed by the
// given device.
func NewDeviceAccumulator(dev Device, width, height int, ceiling float64) StrokeAccumulator {
	return &deviceAccumulator{dev: dev, width: width, height: height, ceiling: ceiling}
}

func (a *deviceAccumulator) Begin(ctx context.Context) error {
	a.dirty = DirtyRect{}
	a.degraded = false
	a.mirror = nil

	id, err := a.dev.CreateTexture(a.width, a.height, "stroke-scratch")
	if err != nil {
		a.degrade(nil)
		a.active = true
		return nil
	}
	a.scratch = id

	// Await the allocation so the session's `starting` state ends at a
	// well-defined point.
	if err := a.dev.Flush(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			a.dev.ReleaseTexture(id)
			a.scratch = 0
			return err
		}
		a.degrade(nil)
	}
	a.active = true
	return nil
}

func (a *deviceAccumulator) StampDab(d DabParams) error {
	if !a.active {
		return ErrNoSession
	}
	d = relativeOpacity(d, a.ceiling)

	if a.degraded {
		a.dirty = a.dirty.Union(stampDab(a.mirror, d))
		return nil
	}

	rect, err := a.dev.DrawDab(a.scratch, d)
	if err != nil {
		Logger().Warn("easel: device dab failed, degrading stroke to CPU",
			"device", a.dev.Name(), "err", err)
		a.degrade(&d)
		return nil
	}
	a.dirty = a.dirty.Union(rect)
	return nil
}

// degrade switches the remainder of the stroke to the host mirror.
// Pixels already stamped on the device are recovered by readback when
// the device still answers; a dead device loses them, which is the
// accepted failure mode for a lost adapter mid-stroke.
func (a *deviceAccumulator) degrade(pending *DabParams) {
	a.failures++
	a.mirror = NewPixmap(a.width, a.height)
	if a.scratch != 0 && !a.dirty.Empty() {
		if err := a.dev.Download(context.Background(), a.scratch, a.mirror, []DirtyRect{a.dirty}); err != nil {
			Logger().Warn("easel: scratch readback failed, partial stroke lost", "err", err)
		}
	}
	if a.scratch != 0 {
		a.dev.ReleaseTexture(a.scratch)
		a.scratch = 0
	}
	a.degraded = true
	if pending != nil {
		a.dirty = a.dirty.Union(stampDab(a.mirror, *pending))
	}
}

func (a *deviceAccumulator) DirtyRect() DirtyRect {
	return a.dirty
}

func (a *deviceAccumulator) Finalize(ctx context.Context, target *Layer) (CommitResult, error) {
	if !a.active {
		return CommitResult{}, nil
	}
	a.active = false

	rect := a.dirty.Clamp(a.width, a.height)
	defer func() {
		if a.scratch != 0 {
			a.dev.ReleaseTexture(a.scratch)
			a.scratch = 0
		}
		a.mirror = nil
		a.dirty = DirtyRect{}
	}()

	if rect.Empty() || target == nil {
		return CommitResult{}, nil
	}

	if a.degraded {
		if target.Canvas != nil {
			compositeStroke(target.Canvas, a.mirror, rect, a.ceiling)
		}
		return CommitResult{Rect: rect}, nil
	}

	if err := a.dev.Composite(ctx, target.Texture, a.scratch, rect, a.ceiling); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return CommitResult{}, err
		}
		// Commit on the CPU from whatever the device can still give us.
		a.failures++
		mirror := NewPixmap(a.width, a.height)
		if derr := a.dev.Download(context.Background(), a.scratch, mirror, []DirtyRect{rect}); derr != nil {
			Logger().Warn("easel: commit readback failed, stroke lost", "err", derr)
			return CommitResult{}, nil
		}
		if target.Canvas != nil {
			compositeStroke(target.Canvas, mirror, rect, a.ceiling)
		}
		return CommitResult{Rect: rect}, nil
	}

	return CommitResult{Rect: rect, NeedsReadback: true}, nil
}

func (a *deviceAccumulator) Preview() *Pixmap {
	if !a.active || !a.degraded {
		return nil
	}
	return a.mirror
}

func (a *deviceAccumulator) Discard() {
	if a.scratch != 0 {
		a.dev.ReleaseTexture(a.scratch)
		a.scratch = 0
	}
	a.mirror = nil
	a.dirty = DirtyRect{}
	a.active = false
	a.degraded = false
}
