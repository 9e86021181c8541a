package easel

import (
	"math"

	"github.com/gogpu/easel/internal/dab"
)

// maskCache is the process-wide brush-tip mask cache. Masks depend
// only on quantized dab parameters, so sharing across engines is safe.
var maskCache = dab.NewCache(0)

// MaskCacheStats exposes the brush-tip mask cache counters for
// diagnostics.
func MaskCacheStats() (hits, misses, evictions uint64) {
	s := maskCache.Stats()
	return s.Hits, s.Misses, s.Evictions
}

// stampDab accumulates one dab into pm using alpha-darken compositing:
// the pixel alpha approaches the dab's opacity ceiling at the dab's
// flow rate but never exceeds it, so overlapping dabs inside one
// stroke do not build past the ceiling. Returns the touched region
// clamped to pm's bounds.
func stampDab(pm *Pixmap, d DabParams) DirtyRect {
	radius := d.Size / 2
	ix := int(math.Floor(d.X))
	iy := int(math.Floor(d.Y))
	m, _, _ := maskCache.Lookup(radius, d.Hardness, d.Roundness, d.Angle, d.X-float64(ix), d.Y-float64(iy))

	left := ix - m.Anchor
	top := iy - m.Anchor
	rect := Rect(left, top, left+m.Side, top+m.Side).Clamp(pm.Width(), pm.Height())
	if rect.Empty() {
		return DirtyRect{}
	}

	r := clamp255(d.Color.R * 255)
	g := clamp255(d.Color.G * 255)
	b := clamp255(d.Color.B * 255)
	target := d.Opacity
	data := pm.Data()
	w := pm.Width()

	for y := rect.Top; y < rect.Bottom; y++ {
		mrow := (y - top) * m.Side
		for x := rect.Left; x < rect.Right; x++ {
			coverage := float64(m.Coverage[mrow+(x-left)])
			if coverage < 0.001 {
				continue
			}
			srcAlpha := coverage * d.Flow

			idx := (y*w + x) * 4
			dstA := float64(data[idx+3]) / 255

			outA := dstA
			if dstA < target-0.001 {
				outA = dstA + (target-dstA)*srcAlpha
			}
			if outA <= 0.001 {
				continue
			}

			if dstA > 0.001 {
				dr := float64(data[idx+0])
				dg := float64(data[idx+1])
				db := float64(data[idx+2])
				data[idx+0] = uint8(clamp255(dr + (r-dr)*srcAlpha))
				data[idx+1] = uint8(clamp255(dg + (g-dg)*srcAlpha))
				data[idx+2] = uint8(clamp255(db + (b-db)*srcAlpha))
			} else {
				data[idx+0] = uint8(r)
				data[idx+1] = uint8(g)
				data[idx+2] = uint8(b)
			}
			data[idx+3] = uint8(clamp255(outA * 255))
		}
	}
	return rect
}
