package blend

import "testing"

func TestParseMode(t *testing.T) {
	tests := []struct {
		name string
		want Mode
		ok   bool
	}{
		{"normal", ModeNormal, true},
		{"", ModeNormal, true},
		{"multiply", ModeMultiply, true},
		{"screen", ModeScreen, true},
		{"overlay", ModeOverlay, true},
		{"darken", ModeDarken, true},
		{"lighten", ModeLighten, true},
		{"addition", ModeAddition, true},
		{"difference", ModeDifference, true},
		{"bogus", ModeNormal, false},
	}
	for _, tt := range tests {
		got, ok := ParseMode(tt.name)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseMode(%q) = %v, %v; want %v, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestModeStringRoundTrip(t *testing.T) {
	modes := []Mode{ModeNormal, ModeMultiply, ModeScreen, ModeOverlay,
		ModeDarken, ModeLighten, ModeAddition, ModeDifference}
	for _, m := range modes {
		got, ok := ParseMode(m.String())
		if !ok || got != m {
			t.Errorf("ParseMode(%q) = %v, %v; want %v, true", m.String(), got, ok, m)
		}
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		mode   Mode
		cs, cb float64
		want   float64
	}{
		{ModeNormal, 0.3, 0.9, 0.3},
		{ModeMultiply, 0.5, 0.5, 0.25},
		{ModeScreen, 0.5, 0.5, 0.75},
		{ModeOverlay, 0.5, 0.25, 0.25},
		{ModeOverlay, 0.5, 0.75, 0.75},
		{ModeDarken, 0.3, 0.7, 0.3},
		{ModeLighten, 0.3, 0.7, 0.7},
		{ModeAddition, 0.6, 0.6, 1},
		{ModeDifference, 0.2, 0.7, 0.5},
	}
	for _, tt := range tests {
		got := tt.mode.apply(tt.cs, tt.cb)
		if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("%v.apply(%v, %v) = %v, want %v", tt.mode, tt.cs, tt.cb, got, tt.want)
		}
	}
}

func TestCompositeRowSourceOver(t *testing.T) {
	// Opaque red over opaque blue at full opacity replaces the pixel.
	dst := []uint8{0, 0, 255, 255}
	src := []uint8{255, 0, 0, 255}
	CompositeRow(dst, src, 1, ModeNormal)
	want := []uint8{255, 0, 0, 255}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("dst = %v, want %v", dst, want)
		}
	}
}

func TestCompositeRowOpacity(t *testing.T) {
	// 50% white over opaque black gives mid gray.
	dst := []uint8{0, 0, 0, 255}
	src := []uint8{255, 255, 255, 255}
	CompositeRow(dst, src, 0.5, ModeNormal)
	for i := 0; i < 3; i++ {
		if dst[i] < 126 || dst[i] > 129 {
			t.Fatalf("component %d = %d, want ~128", i, dst[i])
		}
	}
	if dst[3] != 255 {
		t.Errorf("alpha = %d, want 255", dst[3])
	}
}

func TestCompositeRowTransparentSource(t *testing.T) {
	dst := []uint8{10, 20, 30, 200}
	src := []uint8{255, 255, 255, 0}
	CompositeRow(dst, src, 1, ModeNormal)
	want := []uint8{10, 20, 30, 200}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("transparent source changed dst: %v, want %v", dst, want)
		}
	}
}

func TestCompositeRowOntoTransparent(t *testing.T) {
	// Painting onto a fully transparent backdrop keeps the source color
	// even for non-normal modes (undefined backdrop must not bleed in).
	dst := []uint8{0, 0, 0, 0}
	src := []uint8{200, 100, 50, 255}
	CompositeRow(dst, src, 1, ModeMultiply)
	want := []uint8{200, 100, 50, 255}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("dst = %v, want %v", dst, want)
		}
	}
}

func TestCompositeRowMultiply(t *testing.T) {
	// Opaque 50% gray multiplied over opaque 50% gray darkens to 25%.
	dst := []uint8{128, 128, 128, 255}
	src := []uint8{128, 128, 128, 255}
	CompositeRow(dst, src, 1, ModeMultiply)
	for i := 0; i < 3; i++ {
		if dst[i] < 63 || dst[i] > 66 {
			t.Fatalf("component %d = %d, want ~64", i, dst[i])
		}
	}
}

func TestCompositeRowShortRow(t *testing.T) {
	// The shorter slice bounds the work; trailing bytes stay untouched.
	dst := []uint8{0, 0, 0, 255, 9, 9, 9, 9}
	src := []uint8{255, 255, 255, 255}
	CompositeRow(dst, src, 1, ModeNormal)
	if dst[4] != 9 || dst[7] != 9 {
		t.Errorf("bytes beyond the source row were modified: %v", dst)
	}
}
