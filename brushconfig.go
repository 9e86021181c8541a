package easel

import "math"

// PressureCurve remaps raw stylus pressure before it drives brush
// dynamics.
type PressureCurve int

const (
	// PressureCurveLinear maps pressure 1:1.
	PressureCurveLinear PressureCurve = iota

	// PressureCurveSoft is an ease-out curve, more sensitive at low pressure.
	PressureCurveSoft

	// PressureCurveHard is an ease-in curve, less sensitive at low pressure.
	PressureCurveHard
)

// Apply remaps a raw pressure value through the curve.
// The input is clamped to [0, 1].
func (c PressureCurve) Apply(p float64) float64 {
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}
	switch c {
	case PressureCurveSoft:
		return 1 - (1-p)*(1-p)
	case PressureCurveHard:
		return p * p
	default:
		return p
	}
}

// InterpolationMode selects how the stamper interpolates between
// input samples.
type InterpolationMode int

const (
	// InterpolateLinear places dabs on straight segments between samples.
	InterpolateLinear InterpolationMode = iota

	// InterpolateCatmullRom fits a Catmull-Rom spline through the
	// samples for smoother curves at low input rates.
	InterpolateCatmullRom
)

// JitterConfig describes one jitter-driven dab dynamic. When enabled,
// the stamper draws fresh entropy for it on every dab.
type JitterConfig struct {
	// Enabled turns the dynamic on.
	Enabled bool

	// Amount is the jitter magnitude in [0, 1].
	Amount float64
}

// BrushRenderConfig is the read-only brush description handed to the
// engine by the settings collaborator. The engine reads it each frame
// and never mutates it.
type BrushRenderConfig struct {
	// Size is the base brush diameter in pixels. Must be > 0.
	Size float64

	// Flow is the per-dab paint transfer rate in [0, 1].
	Flow float64

	// Opacity is the stroke opacity ceiling in [0, 1]. The in-progress
	// stroke buffer never composites above this value.
	Opacity float64

	// Hardness controls edge falloff in [0, 1]; 1 is a hard edge.
	Hardness float64

	// Roundness squashes the dab ellipse in (0, 1]; 1 is a circle.
	Roundness float64

	// Angle is the dab rotation in radians.
	Angle float64

	// SpacingFraction is along-path dab spacing as a fraction of Size.
	SpacingFraction float64

	// Color is the paint color.
	Color RGBA

	// PressureSize, PressureFlow, PressureOpacity select which dynamics
	// the pressure curve drives.
	PressureSize    bool
	PressureFlow    bool
	PressureOpacity bool

	// SizeCurve and OpacityCurve remap pressure for the respective dynamics.
	SizeCurve    PressureCurve
	OpacityCurve PressureCurve

	// Interpolation selects the path interpolation mode.
	Interpolation InterpolationMode

	// AngleJitter, RoundnessJitter, ScatterJitter, SizeJitter are
	// per-dab jitter dynamics. Each draws independent entropy per dab.
	AngleJitter     JitterConfig
	RoundnessJitter JitterConfig
	ScatterJitter   JitterConfig
	SizeJitter      JitterConfig

	// BuildUp enables continuous emission (airbrush): while the pointer
	// is down and stationary, dabs are synthesized on a timer.
	BuildUp bool

	// BuildUpIntervalMs is the wall-clock emission interval for BuildUp
	// mode, independent of frame rate.
	BuildUpIntervalMs float64

	// FadeInCeiling caps effective pressure on the first sample of a
	// stroke; FadeInSamples is the ramp length back to unity. Guards
	// against devices that report spurious high pressure on contact.
	FadeInCeiling float64
	FadeInSamples int

	// SmoothingWindow is the pressure smoother window size; 0 disables
	// smoothing.
	SmoothingWindow int
}

// DefaultBrushConfig returns a round soft brush suitable for tests and
// as a starting point for callers.
func DefaultBrushConfig() BrushRenderConfig {
	return BrushRenderConfig{
		Size:              20,
		Flow:              1,
		Opacity:           1,
		Hardness:          0.8,
		Roundness:         1,
		SpacingFraction:   0.25,
		Color:             Black,
		PressureSize:      true,
		PressureOpacity:   true,
		SizeCurve:         PressureCurveLinear,
		OpacityCurve:      PressureCurveLinear,
		Interpolation:     InterpolateLinear,
		BuildUpIntervalMs: 50,
		FadeInCeiling:     0.3,
		FadeInSamples:     4,
		SmoothingWindow:   3,
	}
}

// Validate reports whether the config is usable for painting.
func (c *BrushRenderConfig) Validate() error {
	if c.Size <= 0 {
		return ErrInvalidBrushConfig
	}
	if c.Flow < 0 || c.Flow > 1 || c.Opacity < 0 || c.Opacity > 1 {
		return ErrInvalidBrushConfig
	}
	if c.Hardness < 0 || c.Hardness > 1 {
		return ErrInvalidBrushConfig
	}
	if c.Roundness <= 0 || c.Roundness > 1 {
		return ErrInvalidBrushConfig
	}
	if math.IsNaN(c.Size) || math.IsNaN(c.SpacingFraction) {
		return ErrInvalidBrushConfig
	}
	return nil
}

// spacing returns the along-path dab spacing in pixels, never below 1.
func (c *BrushRenderConfig) spacing() float64 {
	s := c.Size * c.SpacingFraction
	if s < 1 {
		return 1
	}
	return s
}
