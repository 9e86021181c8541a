package tile

import (
	"math/bits"
	"sync/atomic"
)

// DirtyRegion tracks which tiles have pending pixel changes using an
// atomic bitmap, one bit per tile packed into uint64 words. Marking is
// lock-free, so GPU completion callbacks may mark tiles while the frame
// loop drains the bitmap.
type DirtyRegion struct {
	words  []atomic.Uint64
	tilesX int
	tilesY int
}

// NewDirtyRegion creates a tracker for the given tile grid. All tiles
// start clean. Returns nil for non-positive dimensions.
func NewDirtyRegion(tilesX, tilesY int) *DirtyRegion {
	if tilesX <= 0 || tilesY <= 0 {
		return nil
	}
	total := tilesX * tilesY
	return &DirtyRegion{
		words:  make([]atomic.Uint64, (total+63)/64),
		tilesX: tilesX,
		tilesY: tilesY,
	}
}

// Mark marks one tile dirty. Out-of-bounds coordinates are ignored.
func (d *DirtyRegion) Mark(tx, ty int) {
	if tx < 0 || tx >= d.tilesX || ty < 0 || ty >= d.tilesY {
		return
	}
	idx := ty*d.tilesX + tx
	d.words[idx/64].Or(1 << (idx & 63))
}

// MarkCoords marks every tile in coords dirty.
func (d *DirtyRegion) MarkCoords(coords []Coord) {
	for _, c := range coords {
		d.Mark(c.X, c.Y)
	}
}

// MarkAll marks every tile dirty.
func (d *DirtyRegion) MarkAll() {
	total := d.tilesX * d.tilesY
	full := total / 64
	for i := 0; i < full; i++ {
		d.words[i].Store(^uint64(0))
	}
	if rem := total % 64; rem > 0 {
		d.words[full].Store((uint64(1) << rem) - 1)
	}
}

// IsDirty reports whether the tile at (tx, ty) is marked.
// Out-of-bounds coordinates report false.
func (d *DirtyRegion) IsDirty(tx, ty int) bool {
	if tx < 0 || tx >= d.tilesX || ty < 0 || ty >= d.tilesY {
		return false
	}
	idx := ty*d.tilesX + tx
	return d.words[idx/64].Load()&(1<<(idx&63)) != 0
}

// IsEmpty reports whether no tile is marked.
func (d *DirtyRegion) IsEmpty() bool {
	for i := range d.words {
		if d.words[i].Load() != 0 {
			return false
		}
	}
	return true
}

// Count returns the number of dirty tiles.
func (d *DirtyRegion) Count() int {
	n := 0
	for i := range d.words {
		n += bits.OnesCount64(d.words[i].Load())
	}
	return n
}

// Drain atomically clears the bitmap and returns the coordinates that
// were dirty, in row-major order.
func (d *DirtyRegion) Drain() []Coord {
	var out []Coord
	for w := range d.words {
		word := d.words[w].Swap(0)
		for word != 0 {
			bit := bits.TrailingZeros64(word)
			word &^= 1 << bit
			idx := w*64 + bit
			out = append(out, Coord{X: idx % d.tilesX, Y: idx / d.tilesX})
		}
	}
	return out
}

// Clear marks every tile clean.
func (d *DirtyRegion) Clear() {
	for i := range d.words {
		d.words[i].Store(0)
	}
}
