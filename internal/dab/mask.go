// Package dab renders soft elliptical brush-tip masks.
//
// The mask generator follows the Gaussian (error-function) falloff
// model used by professional raster painters: hardness controls the
// width of the fade band, roundness squashes the ellipse, and the
// whole mask is precomputed per brush configuration so the stamping
// hot path reduces to a blit.
package dab

import "math"

// Params holds precalculated Gaussian mask coefficients. They are
// derived once per brush configuration and shared by every dab stamped
// with it.
type Params struct {
	center      float64
	alphaFactor float64
	distFactor  float64
	yCoef       float64
	fade        float64
	cos, sin    float64
	rotated     bool
}

// NewParams derives mask coefficients from brush settings.
//
//   - hardness: 0 = soft, 1 = hard edge
//   - radius: brush radius in pixels (clamped to >= 0.5)
//   - roundness: 1 = circle, <1 = ellipse squashed on the minor axis
//   - angle: ellipse rotation in radians
func NewParams(hardness, radius, roundness, angle float64) Params {
	fade := (1 - hardness) * 2
	if fade < 1e-6 {
		fade = 1e-6
	} else if fade > 2 {
		fade = 2
	}
	if radius < 0.5 {
		radius = 0.5
	}
	if roundness < 0.01 {
		roundness = 0.01
	}

	center := (2.5 * (6761*fade - 10000)) / (math.Sqrt2 * 6761 * fade)
	p := Params{
		center:      center,
		alphaFactor: 1 / (2 * erf(center)),
		distFactor:  math.Sqrt2 * 12500 / (6761 * fade * radius),
		yCoef:       1 / roundness,
		fade:        fade,
	}
	if angle != 0 {
		p.cos = math.Cos(angle)
		p.sin = math.Sin(angle)
		p.rotated = true
	}
	return p
}

// Fade returns the normalized fade band width derived from hardness.
func (p Params) Fade() float64 { return p.fade }

// erf approximates the error function using Abramowitz and Stegun
// formula 7.1.26 (|error| < 1.5e-7).
func erf(x float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -1
		x = -x
	}

	const (
		a1 = 0.254829592
		a2 = -0.284496736
		a3 = 1.421413741
		a4 = -1.453152027
		a5 = 1.061405429
		pc = 0.3275911
	)

	t := 1 / (1 + pc*x)
	y := 1 - (((((a5*t+a4)*t)+a3)*t+a2)*t+a1)*t*math.Exp(-x*x)
	return sign * y
}

// valueAt returns the mask coverage in [0, 1] for a point offset
// (x, y) from the dab center: 1 at the center, falling to 0 across the
// fade band.
func (p Params) valueAt(x, y float64) float64 {
	if p.rotated {
		x, y = x*p.cos+y*p.sin, -x*p.sin+y*p.cos
	}
	ys := y * p.yCoef
	dist := math.Sqrt(x*x + ys*ys)

	valDist := dist * p.distFactor
	v := p.alphaFactor * (erf(valDist+p.center) - erf(valDist-p.center))
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Mask is a precomputed brush-tip coverage buffer. Coverage values are
// in [0, 1]; the buffer is Side×Side with the dab center at
// (Anchor+SubX+0.5, Anchor+SubY+0.5) in mask pixel space.
type Mask struct {
	Side     int
	Anchor   int
	Coverage []float32
}

// Render computes the full coverage mask for a dab of the given radius
// with subpixel center offsets subX, subY in [0, 1).
func Render(params Params, radius, subX, subY float64) *Mask {
	extent := int(math.Ceil(radius*(1+params.fade))) + 1
	side := 2*extent + 2
	cx := float64(extent) + subX
	cy := float64(extent) + subY

	m := &Mask{
		Side:     side,
		Anchor:   extent,
		Coverage: make([]float32, side*side),
	}
	for row := 0; row < side; row++ {
		y := float64(row) + 0.5 - cy
		base := row * side
		for col := 0; col < side; col++ {
			x := float64(col) + 0.5 - cx
			m.Coverage[base+col] = float32(params.valueAt(x, y))
		}
	}
	return m
}
