package easel

import "math"

// DirtyRect is a pixel-space bounding region in layer coordinates.
// Left and Top are inclusive, Right and Bottom exclusive. A valid
// non-empty rect satisfies Right > Left and Bottom > Top.
type DirtyRect struct {
	Left, Top, Right, Bottom int
}

// EmptyRect returns the canonical empty rect.
func EmptyRect() DirtyRect {
	return DirtyRect{}
}

// Rect constructs a DirtyRect from its four edges.
func Rect(left, top, right, bottom int) DirtyRect {
	return DirtyRect{Left: left, Top: top, Right: right, Bottom: bottom}
}

// RectAround returns the rect covering a circle of the given radius
// centered at (x, y), padded by one pixel for antialiased edges.
func RectAround(x, y, radius float64) DirtyRect {
	return DirtyRect{
		Left:   int(math.Floor(x-radius)) - 1,
		Top:    int(math.Floor(y-radius)) - 1,
		Right:  int(math.Ceil(x+radius)) + 1,
		Bottom: int(math.Ceil(y+radius)) + 1,
	}
}

// Empty reports whether the rect covers no pixels.
func (r DirtyRect) Empty() bool {
	return r.Right <= r.Left || r.Bottom <= r.Top
}

// Width returns the rect width in pixels (0 for empty rects).
func (r DirtyRect) Width() int {
	if r.Empty() {
		return 0
	}
	return r.Right - r.Left
}

// Height returns the rect height in pixels (0 for empty rects).
func (r DirtyRect) Height() int {
	if r.Empty() {
		return 0
	}
	return r.Bottom - r.Top
}

// Union returns the smallest rect containing both r and other.
// An empty operand yields the other operand unchanged.
func (r DirtyRect) Union(other DirtyRect) DirtyRect {
	if r.Empty() {
		return other
	}
	if other.Empty() {
		return r
	}
	return DirtyRect{
		Left:   min(r.Left, other.Left),
		Top:    min(r.Top, other.Top),
		Right:  max(r.Right, other.Right),
		Bottom: max(r.Bottom, other.Bottom),
	}
}

// Intersect returns the overlap of r and other, or an empty rect.
func (r DirtyRect) Intersect(other DirtyRect) DirtyRect {
	out := DirtyRect{
		Left:   max(r.Left, other.Left),
		Top:    max(r.Top, other.Top),
		Right:  min(r.Right, other.Right),
		Bottom: min(r.Bottom, other.Bottom),
	}
	if out.Empty() {
		return DirtyRect{}
	}
	return out
}

// Clamp normalizes the rect against canvas bounds. The result is
// either empty or fully contained in [0,w)×[0,h).
func (r DirtyRect) Clamp(w, h int) DirtyRect {
	return r.Intersect(DirtyRect{Right: w, Bottom: h})
}

// Contains reports whether the pixel (x, y) lies inside the rect.
func (r DirtyRect) Contains(x, y int) bool {
	return x >= r.Left && x < r.Right && y >= r.Top && y < r.Bottom
}
