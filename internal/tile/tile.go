// Package tile partitions a canvas into fixed-size tiles used as the
// unit of CPU/GPU pixel synchronization.
//
// The canvas is divided into 64x64 pixel tiles. A dirty rectangle maps
// to the minimal set of tiles it overlaps; only those tiles are pushed
// between the CPU canvas and the GPU texture cache. Edge tiles may be
// smaller when the canvas is not evenly divisible by the tile size.
package tile

// Size constants. 64 pixels keeps a full RGBA tile at 16KB, within L1
// cache, and matches the work-distribution granularity used across the
// gogpu renderers.
const (
	// Size is the tile edge length in pixels.
	Size = 64

	// Pixels is the pixel count of a full tile.
	Pixels = Size * Size

	// Bytes is the byte size of a full RGBA tile.
	Bytes = Pixels * 4
)

// Coord identifies one tile by its integer grid indices.
type Coord struct {
	X, Y int
}

// Bounds returns the tile's pixel rectangle clipped to a canvas of the
// given dimensions: left, top (inclusive) and right, bottom (exclusive).
func (c Coord) Bounds(canvasW, canvasH int) (left, top, right, bottom int) {
	left = c.X * Size
	top = c.Y * Size
	right = left + Size
	bottom = top + Size
	if right > canvasW {
		right = canvasW
	}
	if bottom > canvasH {
		bottom = canvasH
	}
	return left, top, right, bottom
}

// GridDims returns the number of tile columns and rows covering a
// canvas of the given pixel dimensions.
func GridDims(canvasW, canvasH int) (tilesX, tilesY int) {
	return (canvasW + Size - 1) / Size, (canvasH + Size - 1) / Size
}

// Collect returns every tile overlapped by the pixel rect
// [left,right)×[top,bottom) after clamping it to the canvas. An empty
// clamped rect yields nil. Tiles are returned in row-major order.
func Collect(left, top, right, bottom, canvasW, canvasH int) []Coord {
	if left < 0 {
		left = 0
	}
	if top < 0 {
		top = 0
	}
	if right > canvasW {
		right = canvasW
	}
	if bottom > canvasH {
		bottom = canvasH
	}
	if right <= left || bottom <= top {
		return nil
	}

	tx1 := left / Size
	ty1 := top / Size
	tx2 := (right - 1) / Size
	ty2 := (bottom - 1) / Size

	out := make([]Coord, 0, (tx2-tx1+1)*(ty2-ty1+1))
	for ty := ty1; ty <= ty2; ty++ {
		for tx := tx1; tx <= tx2; tx++ {
			out = append(out, Coord{X: tx, Y: ty})
		}
	}
	return out
}

// CollectAll returns every tile of the canvas in row-major order.
func CollectAll(canvasW, canvasH int) []Coord {
	return Collect(0, 0, canvasW, canvasH, canvasW, canvasH)
}
