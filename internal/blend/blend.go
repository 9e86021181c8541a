// Package blend implements layer compositing for straight-alpha RGBA
// buffers: Porter-Duff source-over combined with the separable W3C
// blend modes used by layer stacks.
package blend

// Mode is a layer blend mode.
type Mode uint8

const (
	// ModeNormal is plain source-over compositing.
	ModeNormal Mode = iota
	// ModeMultiply darkens by multiplying components.
	ModeMultiply
	// ModeScreen lightens by inverse multiplication.
	ModeScreen
	// ModeOverlay multiplies or screens depending on the backdrop.
	ModeOverlay
	// ModeDarken keeps the darker component.
	ModeDarken
	// ModeLighten keeps the lighter component.
	ModeLighten
	// ModeAddition adds components, clamped.
	ModeAddition
	// ModeDifference takes the absolute component difference.
	ModeDifference
)

// String returns the canonical lowercase mode name.
func (m Mode) String() string {
	switch m {
	case ModeMultiply:
		return "multiply"
	case ModeScreen:
		return "screen"
	case ModeOverlay:
		return "overlay"
	case ModeDarken:
		return "darken"
	case ModeLighten:
		return "lighten"
	case ModeAddition:
		return "addition"
	case ModeDifference:
		return "difference"
	default:
		return "normal"
	}
}

// ParseMode maps a mode name to its Mode. Unknown names report false
// and ModeNormal.
func ParseMode(name string) (Mode, bool) {
	switch name {
	case "normal", "":
		return ModeNormal, true
	case "multiply":
		return ModeMultiply, true
	case "screen":
		return ModeScreen, true
	case "overlay":
		return ModeOverlay, true
	case "darken":
		return ModeDarken, true
	case "lighten":
		return ModeLighten, true
	case "addition":
		return ModeAddition, true
	case "difference":
		return ModeDifference, true
	default:
		return ModeNormal, false
	}
}

// apply computes the separable blend function f(cs, cb) for one
// component pair in [0, 1].
func (m Mode) apply(cs, cb float64) float64 {
	switch m {
	case ModeMultiply:
		return cs * cb
	case ModeScreen:
		return cs + cb - cs*cb
	case ModeOverlay:
		if cb <= 0.5 {
			return 2 * cs * cb
		}
		return 1 - 2*(1-cs)*(1-cb)
	case ModeDarken:
		if cs < cb {
			return cs
		}
		return cb
	case ModeLighten:
		if cs > cb {
			return cs
		}
		return cb
	case ModeAddition:
		v := cs + cb
		if v > 1 {
			return 1
		}
		return v
	case ModeDifference:
		if cs > cb {
			return cs - cb
		}
		return cb - cs
	default:
		return cs
	}
}

// CompositeRow composites one straight-alpha RGBA source row over a
// destination row in place. opacity scales the source alpha; mode
// selects the blend function. Row lengths must be multiples of 4; the
// shorter row bounds the work.
func CompositeRow(dst, src []uint8, opacity float64, mode Mode) {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i+3 < n; i += 4 {
		sa := float64(src[i+3]) / 255 * opacity
		if sa <= 0 {
			continue
		}
		da := float64(dst[i+3]) / 255

		sr := float64(src[i+0]) / 255
		sg := float64(src[i+1]) / 255
		sb := float64(src[i+2]) / 255
		dr := float64(dst[i+0]) / 255
		dg := float64(dst[i+1]) / 255
		db := float64(dst[i+2]) / 255

		// Blend the source color against the backdrop where the
		// backdrop has coverage (W3C compositing model).
		if mode != ModeNormal && da > 0 {
			sr = (1-da)*sr + da*mode.apply(sr, dr)
			sg = (1-da)*sg + da*mode.apply(sg, dg)
			sb = (1-da)*sb + da*mode.apply(sb, db)
		}

		oa := sa + da*(1-sa)
		if oa <= 0 {
			dst[i+0], dst[i+1], dst[i+2], dst[i+3] = 0, 0, 0, 0
			continue
		}
		or := (sr*sa + dr*da*(1-sa)) / oa
		og := (sg*sa + dg*da*(1-sa)) / oa
		ob := (sb*sa + db*da*(1-sa)) / oa

		dst[i+0] = clampByte(or * 255)
		dst[i+1] = clampByte(og * 255)
		dst[i+2] = clampByte(ob * 255)
		dst[i+3] = clampByte(oa * 255)
	}
}

func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
