package easel

import "image/color"

// RGBA represents a color with float64 components in the range [0, 1].
// Components are straight (non-premultiplied) alpha.
type RGBA struct {
	R, G, B, A float64
}

// RGB creates an opaque RGBA color from components in [0, 1].
func RGB(r, g, b float64) RGBA {
	return RGBA{R: r, G: g, B: b, A: 1}
}

// Color converts to the standard library color.Color interface.
func (c RGBA) Color() color.Color {
	return color.NRGBA{
		R: uint8(clamp255(c.R * 255)),
		G: uint8(clamp255(c.G * 255)),
		B: uint8(clamp255(c.B * 255)),
		A: uint8(clamp255(c.A * 255)),
	}
}

// FromColor creates an RGBA from a color.Color.
func FromColor(c color.Color) RGBA {
	r, g, b, a := c.RGBA()
	if a == 0 {
		return RGBA{}
	}
	// RGBA() returns premultiplied 16-bit values.
	fa := float64(a) / 65535
	return RGBA{
		R: float64(r) / float64(a),
		G: float64(g) / float64(a),
		B: float64(b) / float64(a),
		A: fa,
	}
}

// Lerp linearly interpolates between two colors.
func (c RGBA) Lerp(other RGBA, t float64) RGBA {
	return RGBA{
		R: c.R + (other.R-c.R)*t,
		G: c.G + (other.G-c.G)*t,
		B: c.B + (other.B-c.B)*t,
		A: c.A + (other.A-c.A)*t,
	}
}

// clamp255 clamps x to the range [0, 255].
func clamp255(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return x
}

// Common colors.
var (
	Transparent = RGBA{}
	Black       = RGBA{A: 1}
	White       = RGBA{R: 1, G: 1, B: 1, A: 1}
)
