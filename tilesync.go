package easel

import (
	"context"

	"github.com/gogpu/easel/internal/tile"
)

// TileSize is the edge length of a synchronization tile in pixels.
const TileSize = tile.Size

// TileCoord identifies one synchronization tile by grid indices.
type TileCoord = tile.Coord

// CollectTiles returns the tiles a dirty rect overlaps after clamping
// to a w×h canvas. A nil rect means "everything" and returns every
// tile; an empty or fully out-of-bounds rect returns nil.
func CollectTiles(rect *DirtyRect, w, h int) []TileCoord {
	if rect == nil {
		return tile.CollectAll(w, h)
	}
	return tile.Collect(rect.Left, rect.Top, rect.Right, rect.Bottom, w, h)
}

// tileRects converts tile coordinates to their pixel rects clipped to
// the canvas.
func tileRects(coords []TileCoord, w, h int) []DirtyRect {
	rects := make([]DirtyRect, 0, len(coords))
	for _, c := range coords {
		l, t, r, b := c.Bounds(w, h)
		if r > l && b > t {
			rects = append(rects, Rect(l, t, r, b))
		}
	}
	return rects
}

// SyncStats carries tile synchronizer diagnostics.
type SyncStats struct {
	PartialSyncs   uint64
	FullSyncs      uint64
	Readbacks      uint64
	EmptyFallbacks uint64
}

// TileSynchronizer reconciles each layer's CPU canvas (the durable
// source of truth) with its device texture (a derived cache), moving
// only the tiles a dirty rect overlaps.
//
// Within one frame the synchronizer orders queued work as: restores of
// authoritative tiles first, then full-layer syncs, then partial
// preview syncs. This guarantees stale preview pixels are never
// visible, even for a single frame, when a preview ends in the same
// frame another layer needs a full sync.
type TileSynchronizer struct {
	store *LayerStore
	stats SyncStats

	pendingRestore []syncRequest
	pendingFull    []string
	pendingPartial []syncRequest
}

type syncRequest struct {
	layerID string
	coords  []TileCoord
}

// NewTileSynchronizer creates a synchronizer over the given store.
func NewTileSynchronizer(store *LayerStore) *TileSynchronizer {
	return &TileSynchronizer{store: store}
}

// Stats returns a snapshot of the synchronizer counters.
func (ts *TileSynchronizer) Stats() SyncStats { return ts.stats }

// SyncPartial immediately pushes the given tiles of the layer's canvas
// to its device texture. An empty tile set falls back to a full sync:
// skipping the push silently would leave the representations diverged
// with no later signal to repair them.
func (ts *TileSynchronizer) SyncPartial(layer *Layer, coords []TileCoord) error {
	if layer == nil || layer.Texture == 0 {
		return nil
	}
	if len(coords) == 0 {
		ts.stats.EmptyFallbacks++
		return ts.SyncFull(layer)
	}
	rects := tileRects(coords, ts.store.Width(), ts.store.Height())
	if err := ts.store.Device().Upload(layer.Texture, layer.Canvas, rects); err != nil {
		return err
	}
	ts.stats.PartialSyncs++
	return nil
}

// SyncFull pushes the layer's whole canvas to its device texture.
func (ts *TileSynchronizer) SyncFull(layer *Layer) error {
	if layer == nil || layer.Texture == 0 {
		return nil
	}
	full := Rect(0, 0, ts.store.Width(), ts.store.Height())
	if err := ts.store.Device().Upload(layer.Texture, layer.Canvas, []DirtyRect{full}); err != nil {
		return err
	}
	ts.stats.FullSyncs++
	return nil
}

// Readback pulls the given tiles from the layer's device texture into
// its CPU canvas. This is the await point after a device-side stroke
// commit, keeping the canvas the source of truth.
func (ts *TileSynchronizer) Readback(ctx context.Context, layer *Layer, coords []TileCoord) error {
	if layer == nil || layer.Texture == 0 {
		return nil
	}
	if len(coords) == 0 {
		coords = tile.CollectAll(ts.store.Width(), ts.store.Height())
		ts.stats.EmptyFallbacks++
	}
	rects := tileRects(coords, ts.store.Width(), ts.store.Height())
	if err := ts.store.Device().Download(ctx, layer.Texture, layer.Canvas, rects); err != nil {
		return err
	}
	ts.stats.Readbacks++
	return nil
}

// QueueRestore schedules an authoritative push of the given tiles for
// the next Flush, ahead of any full sync. Used when an interactive
// preview (move tool, gradient drag) ends and its layer must show
// canvas truth again.
func (ts *TileSynchronizer) QueueRestore(layerID string, coords []TileCoord) {
	ts.pendingRestore = append(ts.pendingRestore, syncRequest{layerID: layerID, coords: coords})
}

// QueueFull schedules a full-layer sync for the next Flush.
func (ts *TileSynchronizer) QueueFull(layerID string) {
	ts.pendingFull = append(ts.pendingFull, layerID)
}

// QueuePartial schedules a partial preview sync for the next Flush.
func (ts *TileSynchronizer) QueuePartial(layerID string, coords []TileCoord) {
	ts.pendingPartial = append(ts.pendingPartial, syncRequest{layerID: layerID, coords: coords})
}

// Flush performs all queued synchronization in the frame order:
// restores, full syncs, partial previews. Errors are logged and do not
// stop the remaining work; a failed sync leaves its tiles pending
// nothing worse than a stale cache that the next full sync repairs.
func (ts *TileSynchronizer) Flush() {
	for _, req := range ts.pendingRestore {
		if l := ts.store.Get(req.layerID); l != nil {
			if err := ts.SyncPartial(l, req.coords); err != nil {
				Logger().Warn("easel: restore sync failed", "layer", req.layerID, "err", err)
			}
		}
	}
	ts.pendingRestore = ts.pendingRestore[:0]

	for _, id := range ts.pendingFull {
		if l := ts.store.Get(id); l != nil {
			if err := ts.SyncFull(l); err != nil {
				Logger().Warn("easel: full sync failed", "layer", id, "err", err)
			}
		}
	}
	ts.pendingFull = ts.pendingFull[:0]

	for _, req := range ts.pendingPartial {
		if l := ts.store.Get(req.layerID); l != nil {
			if err := ts.SyncPartial(l, req.coords); err != nil {
				Logger().Warn("easel: partial sync failed", "layer", req.layerID, "err", err)
			}
		}
	}
	ts.pendingPartial = ts.pendingPartial[:0]
}
