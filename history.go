package easel

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// SnapshotMode selects how a stroke entry's pixel state is stored.
type SnapshotMode int

const (
	// SnapshotCPU stores literal before/after pixel buffers.
	SnapshotCPU SnapshotMode = iota

	// SnapshotGPU references snapshots retained by the device's ring;
	// the entry also gains CPU buffers if the ring demotes them.
	SnapshotGPU
)

// DefaultHistoryDepth bounds the undo stack. The oldest entry is
// dropped (and its device snapshots released) past the limit.
const DefaultHistoryDepth = 64

// HistoryEntry is one undoable operation. It is a sealed sum type:
// every kind is a struct in this package and undo/redo switch over
// all of them exhaustively.
type HistoryEntry interface {
	historyEntry()
}

// StrokeEntry records one committed stroke on one layer.
//
// Invariant: a SnapshotCPU entry always carries Before; a SnapshotGPU
// entry instead carries SnapBefore/SnapAfter resolvable by the device,
// and acquires Before/After lazily if the device ring evicts them.
type StrokeEntry struct {
	EntryID string
	LayerID string
	Mode    SnapshotMode
	Rect    DirtyRect

	// Before and After are rect-sized crops of the layer canvas.
	// After is captured lazily on first undo so redo never re-derives
	// the stroke.
	Before *Pixmap
	After  *Pixmap

	SnapBefore SnapshotID
	SnapAfter  SnapshotID
}

// ResizeCanvasEntry records a canvas resize with full snapshots of
// every layer on both sides, so replay is pixel-identical even though
// the forward crop is not invertible.
type ResizeCanvasEntry struct {
	BeforeW, BeforeH int
	AfterW, AfterH   int
	BeforePixels     map[string]*Pixmap
	AfterPixels      map[string]*Pixmap
}

// AddLayerEntry records a layer creation.
type AddLayerEntry struct {
	LayerID string
	Index   int

	// removed holds the detached layer between undo and redo.
	removed *Layer
}

// RemovedLayer pairs a detached layer with its former stack index.
type RemovedLayer struct {
	Layer *Layer
	Index int
}

// RemoveLayersEntry records removal of one or more layers, keeping
// their full pixel data for restoration.
type RemoveLayersEntry struct {
	Removed []RemovedLayer
}

// LayerPropsEntry records a committed metadata change on one or more
// layers. Transient previews (e.g. blend-mode hover) are never pushed.
type LayerPropsEntry struct {
	IDs    []string
	Before []LayerProps
	After  []LayerProps
}

// SelectionEntry records a selection change. Selection entries are
// orthogonal to pixel entries and never touch layer pixels.
type SelectionEntry struct {
	Before *SelectionMask
	After  *SelectionMask
}

func (*StrokeEntry) historyEntry()       {}
func (*ResizeCanvasEntry) historyEntry() {}
func (*AddLayerEntry) historyEntry()     {}
func (*RemoveLayersEntry) historyEntry() {}
func (*LayerPropsEntry) historyEntry()   {}
func (*SelectionEntry) historyEntry()    {}

// HistoryStats carries history diagnostics for automation tooling.
type HistoryStats struct {
	Undos            uint64
	Redos            uint64
	SkippedEntries   uint64
	GPUFallbacks     uint64
	DemotedSnapshots uint64
}

// HistoryStore is the append-only undo/redo stack. Pushing any entry
// clears the redo stack. All mutation happens on the cooperative
// scheduler; only the device eviction callback takes the demotion
// path, which is also invoked from an await point on the same
// scheduler.
type HistoryStore struct {
	store *LayerStore
	sync  *TileSynchronizer

	undo  []HistoryEntry
	redo  []HistoryEntry
	depth int

	// bySnapshot lets the device eviction handler find the entry a
	// retained snapshot belongs to for demotion.
	bySnapshot map[SnapshotID]*StrokeEntry

	selection **SelectionMask // engine's selection slot
	stats     HistoryStats
}

// NewHistoryStore creates a history stack over the given layer store
// and synchronizer. selection points at the engine's current selection
// mask slot so selection entries can swap it. depth <= 0 uses
// DefaultHistoryDepth.
func NewHistoryStore(store *LayerStore, sync *TileSynchronizer, selection **SelectionMask, depth int) *HistoryStore {
	if depth <= 0 {
		depth = DefaultHistoryDepth
	}
	h := &HistoryStore{
		store:      store,
		sync:       sync,
		depth:      depth,
		bySnapshot: make(map[SnapshotID]*StrokeEntry),
		selection:  selection,
	}
	if dev := store.Device(); dev != nil {
		dev.SetEvictionHandler(h.onSnapshotEvicted)
	}
	return h
}

// UndoDepth returns the number of undoable entries.
func (h *HistoryStore) UndoDepth() int { return len(h.undo) }

// RedoDepth returns the number of redoable entries.
func (h *HistoryStore) RedoDepth() int { return len(h.redo) }

// Stats returns a snapshot of the history counters.
func (h *HistoryStore) Stats() HistoryStats { return h.stats }

// onSnapshotEvicted demotes a GPU-mode entry side to a CPU buffer when
// the device ring evicts its snapshot. This is the eviction contract:
// history never assumes infinite device retention.
func (h *HistoryStore) onSnapshotEvicted(id SnapshotID, pixels *Pixmap, _ DirtyRect) {
	e, ok := h.bySnapshot[id]
	if !ok {
		return
	}
	delete(h.bySnapshot, id)
	switch id {
	case e.SnapBefore:
		e.SnapBefore = 0
		if e.Before == nil {
			e.Before = pixels
		}
	case e.SnapAfter:
		e.SnapAfter = 0
		if e.After == nil {
			e.After = pixels
		}
	}
	if e.SnapBefore == 0 && e.SnapAfter == 0 {
		e.Mode = SnapshotCPU
	}
	h.stats.DemotedSnapshots++
	Logger().Debug("easel: history snapshot demoted to CPU", "entry", e.EntryID)
}

// push appends an entry, clears the redo stack, and enforces depth.
func (h *HistoryStore) push(e HistoryEntry) {
	for _, old := range h.redo {
		h.releaseEntry(old)
	}
	h.redo = h.redo[:0]

	h.undo = append(h.undo, e)
	for len(h.undo) > h.depth {
		h.releaseEntry(h.undo[0])
		h.undo = h.undo[1:]
	}
}

// releaseEntry drops device resources an entry holds.
func (h *HistoryStore) releaseEntry(e HistoryEntry) {
	s, ok := e.(*StrokeEntry)
	if !ok {
		return
	}
	dev := h.store.Device()
	if s.SnapBefore != 0 {
		delete(h.bySnapshot, s.SnapBefore)
		dev.ReleaseSnapshot(s.SnapBefore)
	}
	if s.SnapAfter != 0 {
		delete(h.bySnapshot, s.SnapAfter)
		dev.ReleaseSnapshot(s.SnapAfter)
	}
}

// PushStroke appends a stroke entry and returns its id.
func (h *HistoryStore) PushStroke(e *StrokeEntry) string {
	if e.EntryID == "" {
		e.EntryID = uuid.NewString()
	}
	if e.SnapBefore != 0 {
		h.bySnapshot[e.SnapBefore] = e
	}
	if e.SnapAfter != 0 {
		h.bySnapshot[e.SnapAfter] = e
	}
	h.push(e)
	return e.EntryID
}

// PushResizeCanvas appends a canvas-resize entry.
func (h *HistoryStore) PushResizeCanvas(e *ResizeCanvasEntry) { h.push(e) }

// PushAddLayer appends a layer-creation entry.
func (h *HistoryStore) PushAddLayer(layerID string, index int) {
	h.push(&AddLayerEntry{LayerID: layerID, Index: index})
}

// PushRemoveLayers appends a layer-removal entry.
func (h *HistoryStore) PushRemoveLayers(removed []RemovedLayer) {
	h.push(&RemoveLayersEntry{Removed: removed})
}

// PushLayerProps appends a committed metadata change.
func (h *HistoryStore) PushLayerProps(ids []string, before, after []LayerProps) {
	h.push(&LayerPropsEntry{IDs: ids, Before: before, After: after})
}

// PushSelection appends a selection change.
func (h *HistoryStore) PushSelection(before, after *SelectionMask) {
	h.push(&SelectionEntry{Before: before.Clone(), After: after.Clone()})
}

// Undo reverts the most recent entry. Stroke entries whose layer no
// longer exists are discarded permanently and Undo moves on to the
// next entry. Returns false when nothing was undone.
func (h *HistoryStore) Undo(ctx context.Context) bool {
	for len(h.undo) > 0 {
		e := h.undo[len(h.undo)-1]
		h.undo = h.undo[:len(h.undo)-1]

		if s, ok := e.(*StrokeEntry); ok {
			if h.store.Get(s.LayerID) == nil {
				h.releaseEntry(s)
				h.stats.SkippedEntries++
				Logger().Warn("easel: discarding stroke entry for deleted layer", "layer", s.LayerID)
				continue
			}
		}

		h.apply(ctx, e, true)
		h.redo = append(h.redo, e)
		h.stats.Undos++
		return true
	}
	return false
}

// Redo re-applies the most recently undone entry.
func (h *HistoryStore) Redo(ctx context.Context) bool {
	for len(h.redo) > 0 {
		e := h.redo[len(h.redo)-1]
		h.redo = h.redo[:len(h.redo)-1]

		if s, ok := e.(*StrokeEntry); ok {
			if h.store.Get(s.LayerID) == nil {
				h.releaseEntry(s)
				h.stats.SkippedEntries++
				continue
			}
		}

		h.apply(ctx, e, false)
		h.undo = append(h.undo, e)
		h.stats.Redos++
		return true
	}
	return false
}

// apply replays one entry in the given direction. The switch is
// exhaustive over every entry kind.
func (h *HistoryStore) apply(ctx context.Context, e HistoryEntry, undo bool) {
	switch entry := e.(type) {
	case *StrokeEntry:
		h.applyStroke(ctx, entry, undo)

	case *ResizeCanvasEntry:
		if undo {
			h.applyResize(entry.BeforeW, entry.BeforeH, entry.BeforePixels)
		} else {
			h.applyResize(entry.AfterW, entry.AfterH, entry.AfterPixels)
		}

	case *AddLayerEntry:
		if undo {
			l, idx, err := h.store.Remove(entry.LayerID)
			if err == nil {
				entry.removed = l
				entry.Index = idx
			}
		} else if entry.removed != nil {
			h.store.InsertAt(entry.removed, entry.Index)
			h.sync.QueueFull(entry.removed.ID)
			entry.removed = nil
		}

	case *RemoveLayersEntry:
		if undo {
			for _, r := range entry.Removed {
				h.store.InsertAt(r.Layer, r.Index)
				h.sync.QueueFull(r.Layer.ID)
			}
		} else {
			for i := len(entry.Removed) - 1; i >= 0; i-- {
				h.store.Remove(entry.Removed[i].Layer.ID)
			}
		}

	case *LayerPropsEntry:
		props := entry.After
		if undo {
			props = entry.Before
		}
		for i, id := range entry.IDs {
			if i < len(props) {
				if err := h.store.SetProps(id, props[i]); err != nil && !errors.Is(err, ErrLayerNotFound) {
					Logger().Warn("easel: props replay failed", "layer", id, "err", err)
				}
			}
		}

	case *SelectionEntry:
		if h.selection != nil {
			if undo {
				*h.selection = entry.Before.Clone()
			} else {
				*h.selection = entry.After.Clone()
			}
		}
	}
}

// applyStroke replays a stroke entry. GPU-mode entries delegate to the
// device snapshot ring first and fall back to CPU buffers only when
// resolution fails; an entry with neither is a logged no-op.
func (h *HistoryStore) applyStroke(ctx context.Context, e *StrokeEntry, undo bool) {
	layer := h.store.Get(e.LayerID)
	if layer == nil {
		return
	}

	// Capture the current pixels for the opposite direction before
	// overwriting, so the inverse replay never re-derives the stroke.
	if undo && e.After == nil && e.SnapAfter == 0 {
		e.After = layer.Canvas.Crop(e.Rect)
	}

	if e.Mode == SnapshotGPU && layer.Texture != 0 {
		snap := e.SnapAfter
		if undo {
			snap = e.SnapBefore
		}
		if snap != 0 {
			err := h.store.Device().ResolveSnapshot(snap, layer.Texture)
			if err == nil {
				coords := CollectTiles(&e.Rect, h.store.Width(), h.store.Height())
				if err := h.sync.Readback(ctx, layer, coords); err == nil {
					layer.bump()
					return
				}
			}
			h.stats.GPUFallbacks++
			Logger().Warn("easel: GPU snapshot resolution failed, using CPU fallback",
				"entry", e.EntryID, "err", err)
		}
	}

	src := e.After
	if undo {
		src = e.Before
	}
	if src == nil {
		Logger().Warn("easel: stroke entry has no resolvable snapshot", "entry", e.EntryID)
		return
	}
	layer.Canvas.Paste(src, e.Rect.Left, e.Rect.Top)
	layer.bump()
	coords := CollectTiles(&e.Rect, h.store.Width(), h.store.Height())
	if err := h.sync.SyncPartial(layer, coords); err != nil {
		Logger().Warn("easel: history sync failed", "entry", e.EntryID, "err", err)
	}
}

// applyResize restores canvas dimensions and every snapshotted layer's
// exact pixels.
func (h *HistoryStore) applyResize(w, hgt int, pixels map[string]*Pixmap) {
	h.store.Resize(w, hgt)
	for id, pm := range pixels {
		if l := h.store.Get(id); l != nil {
			l.Canvas = pm.Clone()
			l.bump()
			h.sync.QueueFull(id)
		}
	}
	h.sync.Flush()
}
