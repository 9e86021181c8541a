package easel

import (
	"context"
	"math/rand"
	"time"
)

// Harness is an optional set of hooks for automation and testing. Every
// field may be nil. Hooks run synchronously on the engine's scheduler
// and must not call back into the engine.
type Harness struct {
	// OnDab fires for every dab stamped into the stroke accumulator.
	OnDab func(DabParams)

	// OnCommit fires after a stroke commit lands on its layer.
	OnCommit func(CommitResult)

	// OnHistory fires when an entry is pushed onto the undo stack.
	OnHistory func(HistoryEntry)

	// OnState fires on every session state transition.
	OnState func(SessionState)
}

// EngineConfig configures a painting engine.
type EngineConfig struct {
	// Width, Height are the canvas dimensions in pixels.
	Width, Height int

	// Brush is the initial brush. Zero value uses DefaultBrushConfig.
	Brush BrushRenderConfig

	// Device overrides the painting backend. Nil uses the registered
	// device, or the built-in software device when none is registered.
	Device Device

	// HistoryDepth bounds the undo stack; <= 0 uses DefaultHistoryDepth.
	HistoryDepth int

	// BatchLimit caps samples drained per tick; <= 0 uses
	// DefaultBatchLimit.
	BatchLimit int

	// Seed initializes the jitter entropy source. Zero seeds from the
	// clock; a fixed seed makes replays deterministic.
	Seed int64

	// Harness installs automation hooks.
	Harness *Harness
}

// Engine is the painting engine facade. It owns the layer stack, the
// input queue, the stroke session and the history stack, and advances
// them once per Tick.
//
// All methods must be called from a single goroutine, the cooperative
// scheduler that also calls Tick. The engine never locks; the device
// backends do their own synchronization.
type Engine struct {
	dev     Device
	ownsDev bool

	layers  *LayerStore
	sync    *TileSynchronizer
	history *HistoryStore
	queue   *InputQueue

	brush      BrushRenderConfig
	rng        *rand.Rand
	harness    *Harness
	batchLimit int

	selection *SelectionMask
	// selectionBase is the last committed selection, the baseline for the
	// next history entry while a pending preview is displayed.
	selectionBase *SelectionMask
	session       *StrokeSession

	// generation invalidates in-flight async stroke work on cancel.
	generation uint64

	frameDirty       DirtyRect
	framesRendered   uint64
	dabsStamped      uint64
	strokesCommitted uint64
	strokesCanceled  uint64
}

// NewEngine creates an engine with one background layer, which starts
// active.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, ErrInvalidCanvasSize
	}
	brush := cfg.Brush
	if brush == (BrushRenderConfig{}) {
		brush = DefaultBrushConfig()
	}
	if err := brush.Validate(); err != nil {
		return nil, err
	}

	dev := cfg.Device
	ownsDev := false
	if dev == nil {
		dev = RegisteredDevice()
	}
	if dev == nil {
		dev = NewSoftwareDevice(0)
		if err := dev.Init(); err != nil {
			return nil, err
		}
		ownsDev = true
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	batch := cfg.BatchLimit
	if batch <= 0 {
		batch = DefaultBatchLimit
	}

	e := &Engine{
		dev:        dev,
		ownsDev:    ownsDev,
		queue:      NewInputQueue(),
		brush:      brush,
		rng:        rand.New(rand.NewSource(seed)),
		harness:    cfg.Harness,
		batchLimit: batch,
	}
	e.layers = NewLayerStore(dev, cfg.Width, cfg.Height)
	e.sync = NewTileSynchronizer(e.layers)
	e.history = NewHistoryStore(e.layers, e.sync, &e.selection, cfg.HistoryDepth)

	bg := e.layers.Add("Background")
	e.layers.SetActive(bg.ID)
	return e, nil
}

// Close cancels any in-progress stroke and releases engine-owned
// device resources.
func (e *Engine) Close() {
	if e.session != nil {
		e.CancelStroke()
	}
	if e.ownsDev {
		e.dev.Close()
	}
}

// Layers returns the layer stack.
func (e *Engine) Layers() *LayerStore { return e.layers }

// History returns the undo/redo stack.
func (e *Engine) History() *HistoryStore { return e.history }

// Device returns the painting backend in use.
func (e *Engine) Device() Device { return e.dev }

// Brush returns the brush configuration in effect.
func (e *Engine) Brush() BrushRenderConfig { return e.brush }

// SetBrush replaces the brush. A change during an active stroke takes
// effect at the next BeginStroke; the in-flight stroke keeps the brush
// it started with.
func (e *Engine) SetBrush(cfg BrushRenderConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.brush = cfg
	return nil
}

// Selection returns the current selection mask; nil means everything.
func (e *Engine) Selection() *SelectionMask { return e.selection }

// SetSelection replaces the selection mask. A committed change (Pending
// false) is recorded in history against the last committed mask, so a
// pending preview shown in between never becomes an undo target. A
// commit that selects the same pixels records nothing.
func (e *Engine) SetSelection(mask *SelectionMask) {
	if mask == nil || !mask.Pending {
		if !mask.Equal(e.selectionBase) {
			e.history.PushSelection(e.selectionBase, mask)
			e.notifyHistory()
		}
		e.selectionBase = mask.Clone()
	}
	e.selection = mask.Clone()
	e.frameDirty = e.fullRect()
}

// SessionState returns the stroke session state; StateIdle when no
// stroke is in progress.
func (e *Engine) SessionState() SessionState {
	if e.session == nil {
		return StateIdle
	}
	return e.session.state
}

// AddLayer creates a transparent layer on top of the stack, makes it
// active and records the creation in history.
func (e *Engine) AddLayer(name string) (*Layer, error) {
	if e.session != nil {
		return nil, ErrSessionActive
	}
	l := e.layers.Add(name)
	e.layers.SetActive(l.ID)
	e.history.PushAddLayer(l.ID, e.layers.IndexOf(l.ID))
	e.notifyHistory()
	return l, nil
}

// RemoveLayer detaches a layer and records the removal in history so it
// can be restored with its exact pixels.
func (e *Engine) RemoveLayer(id string) error {
	if e.session != nil {
		return ErrSessionActive
	}
	l, idx, err := e.layers.Remove(id)
	if err != nil {
		return err
	}
	e.history.PushRemoveLayers([]RemovedLayer{{Layer: l, Index: idx}})
	e.notifyHistory()
	e.frameDirty = e.fullRect()
	return nil
}

// SetActiveLayer selects the layer that receives strokes.
func (e *Engine) SetActiveLayer(id string) error {
	if e.session != nil {
		return ErrSessionActive
	}
	return e.layers.SetActive(id)
}

// SetLayerProps commits a metadata change and records it in history.
// Use PreviewLayerProps for transient hover previews.
func (e *Engine) SetLayerProps(id string, p LayerProps) error {
	before, err := e.layers.Props(id)
	if err != nil {
		return err
	}
	if err := e.layers.SetProps(id, p); err != nil {
		return err
	}
	e.history.PushLayerProps([]string{id}, []LayerProps{before}, []LayerProps{p})
	e.notifyHistory()
	e.frameDirty = e.fullRect()
	return nil
}

// PreviewLayerProps applies a metadata change without recording it.
// The caller commits the final value with SetLayerProps (passing the
// pre-preview state as the baseline happens naturally because history
// captured nothing in between).
func (e *Engine) PreviewLayerProps(id string, p LayerProps) error {
	if err := e.layers.SetProps(id, p); err != nil {
		return err
	}
	e.frameDirty = e.fullRect()
	return nil
}

// ResizeCanvas changes the canvas dimensions, preserving overlapping
// pixels anchored at the top-left, and records full before/after layer
// snapshots so undo is pixel-exact.
func (e *Engine) ResizeCanvas(width, height int) error {
	if width <= 0 || height <= 0 {
		return ErrInvalidCanvasSize
	}
	if e.session != nil {
		return ErrSessionActive
	}

	entry := &ResizeCanvasEntry{
		BeforeW: e.layers.Width(), BeforeH: e.layers.Height(),
		AfterW: width, AfterH: height,
		BeforePixels: make(map[string]*Pixmap),
		AfterPixels:  make(map[string]*Pixmap),
	}
	for _, l := range e.layers.Layers() {
		entry.BeforePixels[l.ID] = l.Canvas.Clone()
	}

	e.layers.Resize(width, height)

	for _, l := range e.layers.Layers() {
		entry.AfterPixels[l.ID] = l.Canvas.Clone()
		e.sync.QueueFull(l.ID)
	}
	e.sync.Flush()
	e.history.PushResizeCanvas(entry)
	e.notifyHistory()
	e.frameDirty = e.fullRect()
	return nil
}

// BeginStroke starts a stroke session on the active layer. The session
// enters the starting state; dabs begin to land on the first Tick after
// the accumulator is ready.
func (e *Engine) BeginStroke() error {
	if e.session != nil {
		return ErrSessionActive
	}
	layer := e.layers.Active()
	if layer == nil {
		return ErrNoActiveLayer
	}
	if layer.Locked {
		return ErrLayerLocked
	}
	if err := e.brush.Validate(); err != nil {
		return err
	}

	var acc StrokeAccumulator
	if layer.Texture != 0 {
		acc = NewDeviceAccumulator(e.dev, e.layers.Width(), e.layers.Height(), e.brush.Opacity)
	} else {
		acc = NewCPUAccumulator(e.layers.Width(), e.layers.Height(), e.brush.Opacity)
	}

	e.generation++
	e.session = newStrokeSession(layer.ID, e.brush, acc, e.rng, e.generation)
	e.notifyState(StateStarting)
	return nil
}

// ProcessPoint enqueues one input sample for the next Tick. Samples
// arriving with no stroke in progress are hover events and are ignored.
func (e *Engine) ProcessPoint(s InputSample) {
	if e.session == nil {
		return
	}
	e.queue.Push(s)
}

// PrepareStrokeEnd replays any samples still queued, stamps their dabs
// and commits the stroke to its layer and to history. Idempotent: a
// second call (and the EndStroke that follows) changes nothing.
//
// A pointer-up that lands while the session is still starting is
// remembered and honored as soon as the session activates.
func (e *Engine) PrepareStrokeEnd() error {
	s := e.session
	if s == nil {
		return ErrNoSession
	}
	if s.state == StateStarting {
		s.pendingEnd = true
		return nil
	}
	if s.prepared {
		return nil
	}

	s.state = StateFinishing
	e.notifyState(StateFinishing)

	dabs := s.stamper.FeedBatch(e.queue.DrainAll())
	e.dabsStamped += uint64(s.stamp(dabs, e.harness))

	e.commitStroke(s)
	s.prepared = true
	return nil
}

// EndStroke finishes the stroke: remaining input is replayed, the
// accumulated pixels are committed once, and the session is destroyed.
func (e *Engine) EndStroke() error {
	s := e.session
	if s == nil {
		return ErrNoSession
	}
	if s.state == StateStarting {
		s.pendingEnd = true
		return nil
	}
	if err := e.PrepareStrokeEnd(); err != nil {
		return err
	}
	// Samples that arrived after the commit belong to no stroke; they
	// must not leak into the next session's buffer.
	e.queue.Discard()
	s.destroy()
	e.session = nil
	e.notifyState(StateIdle)
	return nil
}

// CancelStroke abandons the stroke from any state: accumulated pixels
// are discarded, queued input is dropped, and no history is written.
// The layer is left exactly as it was at BeginStroke.
func (e *Engine) CancelStroke() error {
	s := e.session
	if s == nil {
		return ErrNoSession
	}
	e.generation++
	e.queue.Discard()
	e.frameDirty = e.frameDirty.Union(s.acc.DirtyRect().Clamp(e.layers.Width(), e.layers.Height()))
	s.destroy()
	e.session = nil
	e.strokesCanceled++
	e.notifyState(StateIdle)
	return nil
}

// Undo reverts the most recent history entry. Rejected while a stroke
// is in progress.
func (e *Engine) Undo(ctx context.Context) (bool, error) {
	if e.session != nil {
		return false, ErrSessionActive
	}
	ok := e.history.Undo(ctx)
	if ok {
		e.sync.Flush()
		e.syncSelectionBase()
		e.frameDirty = e.fullRect()
	}
	return ok, nil
}

// Redo re-applies the most recently undone entry. Rejected while a
// stroke is in progress.
func (e *Engine) Redo(ctx context.Context) (bool, error) {
	if e.session != nil {
		return false, ErrSessionActive
	}
	ok := e.history.Redo(ctx)
	if ok {
		e.sync.Flush()
		e.syncSelectionBase()
		e.frameDirty = e.fullRect()
	}
	return ok, nil
}

// syncSelectionBase re-anchors the committed-selection baseline after a
// history replay rewrote the current mask. A live pending preview is
// left alone; its baseline is still the pre-preview mask.
func (e *Engine) syncSelectionBase() {
	if e.selection == nil || !e.selection.Pending {
		e.selectionBase = e.selection
	}
}

// Tick advances the engine by one frame: it completes a pending session
// start, drains at most one input batch into dabs, synthesizes build-up
// dabs on the wall clock, and flushes queued tile synchronization.
// nowMs is the caller's monotonic clock in milliseconds.
func (e *Engine) Tick(nowMs float64) {
	s := e.session
	if s != nil {
		switch s.state {
		case StateStarting:
			e.tickStarting(s, nowMs)
		case StateActive:
			e.tickActive(s, nowMs)
		}
	}
	if e.session != nil && e.session.state == StateActive {
		rect := e.session.acc.DirtyRect().Clamp(e.layers.Width(), e.layers.Height())
		e.frameDirty = e.frameDirty.Union(rect)
	}
	e.sync.Flush()
	e.framesRendered++
}

// tickStarting buffers this frame's input and completes the awaited
// accumulator start, then replays the buffer.
func (e *Engine) tickStarting(s *StrokeSession, nowMs float64) {
	s.buffer(e.queue.DrainAll())

	gen := s.generation
	err := s.acc.Begin(s.ctx)

	// The await may have raced a cancel; a stale completion must not
	// touch whatever session replaced this one.
	if e.session != s || s.generation != gen {
		return
	}
	if err != nil {
		Logger().Warn("easel: stroke start aborted", "err", err)
		s.destroy()
		e.session = nil
		e.notifyState(StateIdle)
		return
	}

	s.state = StateActive
	e.notifyState(StateActive)

	dabs := s.stamper.FeedBatch(s.takeBuffered())
	e.dabsStamped += uint64(s.stamp(dabs, e.harness))
	s.lastEmitMs = nowMs

	if s.pendingEnd {
		e.EndStroke()
	}
}

// tickActive drains one capped input batch, or synthesizes a build-up
// dab when the pointer has been stationary past the emission interval.
func (e *Engine) tickActive(s *StrokeSession, nowMs float64) {
	batch := e.queue.DrainBatch(e.batchLimit)
	if len(batch) > 0 {
		dabs := s.stamper.FeedBatch(batch)
		if n := s.stamp(dabs, e.harness); n > 0 {
			e.dabsStamped += uint64(n)
			s.lastEmitMs = nowMs
		}
		return
	}

	if s.cfg.BuildUp && s.cfg.BuildUpIntervalMs > 0 {
		// Emission is paced by the wall clock, not the frame rate: a
		// slow frame owes one dab per elapsed interval.
		for nowMs-s.lastEmitMs >= s.cfg.BuildUpIntervalMs {
			n := s.stamp(s.stamper.SynthesizeDab(), e.harness)
			if n == 0 {
				break
			}
			e.dabsStamped += uint64(n)
			s.lastEmitMs += s.cfg.BuildUpIntervalMs
		}
	}
}

// commitStroke finalizes the accumulator onto the session's layer and
// pushes exactly one history entry. Device-committed strokes record
// before/after snapshots in the device ring; CPU commits record pixel
// crops directly.
func (e *Engine) commitStroke(s *StrokeSession) {
	layer := e.layers.Get(s.LayerID)
	rect := s.acc.DirtyRect().Clamp(e.layers.Width(), e.layers.Height())

	var snapBefore SnapshotID
	var before *Pixmap
	if layer != nil && !rect.Empty() {
		if layer.Texture != 0 {
			if id, err := e.dev.RetainSnapshot(layer.Texture, rect); err == nil {
				snapBefore = id
			}
		}
		// Keep a CPU baseline too until we know the commit stayed on
		// the device; a degraded commit lands on the canvas and the
		// texture snapshot would not cover it.
		before = layer.Canvas.Crop(rect)
	}

	res, err := s.acc.Finalize(s.ctx, layer)
	if err != nil {
		if snapBefore != 0 {
			e.dev.ReleaseSnapshot(snapBefore)
		}
		Logger().Warn("easel: stroke commit aborted", "err", err)
		return
	}
	if res.Rect.Empty() || layer == nil {
		if snapBefore != 0 {
			e.dev.ReleaseSnapshot(snapBefore)
		}
		return
	}

	entry := &StrokeEntry{LayerID: layer.ID, Rect: res.Rect}
	coords := CollectTiles(&res.Rect, e.layers.Width(), e.layers.Height())

	if res.NeedsReadback && snapBefore != 0 {
		// Device commit: canvas catches up from the texture, then the
		// after-state joins the snapshot ring.
		if err := e.sync.Readback(s.ctx, layer, coords); err != nil {
			Logger().Warn("easel: commit readback failed", "err", err)
		}
		if snapAfter, err := e.dev.RetainSnapshot(layer.Texture, res.Rect); err == nil {
			entry.Mode = SnapshotGPU
			entry.SnapBefore = snapBefore
			entry.SnapAfter = snapAfter
		} else {
			entry.Mode = SnapshotCPU
			entry.Before = before
			e.dev.ReleaseSnapshot(snapBefore)
		}
	} else {
		// CPU commit: canvas is already truth, push it to the texture.
		entry.Mode = SnapshotCPU
		entry.Before = before
		if snapBefore != 0 {
			e.dev.ReleaseSnapshot(snapBefore)
		}
		if res.NeedsReadback {
			if err := e.sync.Readback(s.ctx, layer, coords); err != nil {
				Logger().Warn("easel: commit readback failed", "err", err)
			}
		} else if err := e.sync.SyncPartial(layer, coords); err != nil {
			Logger().Warn("easel: commit sync failed", "err", err)
		}
	}

	layer.bump()
	e.history.PushStroke(entry)
	e.strokesCommitted++
	e.frameDirty = e.frameDirty.Union(res.Rect)

	if e.harness != nil {
		if e.harness.OnCommit != nil {
			e.harness.OnCommit(res)
		}
		if e.harness.OnHistory != nil {
			e.harness.OnHistory(entry)
		}
	}
}

// TakeDirtyRect returns the canvas region that changed since the last
// call and resets it. The host repaints this region.
func (e *Engine) TakeDirtyRect() DirtyRect {
	d := e.frameDirty
	e.frameDirty = DirtyRect{}
	return d
}

// DirtyRect returns the pending repaint region without clearing it.
func (e *Engine) DirtyRect() DirtyRect { return e.frameDirty }

func (e *Engine) fullRect() DirtyRect {
	return Rect(0, 0, e.layers.Width(), e.layers.Height())
}

func (e *Engine) notifyState(st SessionState) {
	if e.harness != nil && e.harness.OnState != nil {
		e.harness.OnState(st)
	}
}

func (e *Engine) notifyHistory() {
	if e.harness != nil && e.harness.OnHistory != nil && len(e.history.undo) > 0 {
		e.harness.OnHistory(e.history.undo[len(e.history.undo)-1])
	}
}
