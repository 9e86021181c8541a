package easel

import "bytes"

// SelectionMask is the read-only selection supplied by the selection
// collaborator: one coverage byte per canvas pixel (255 = fully
// selected). A nil mask means "everything selected".
//
// While Pending is true the selection geometry is still being edited
// and the compositor must show a guide-only preview instead of a
// partial fill.
type SelectionMask struct {
	Width, Height int
	Coverage      []uint8
	Pending       bool
}

// NewSelectionMask creates an empty (nothing selected) mask.
func NewSelectionMask(w, h int) *SelectionMask {
	return &SelectionMask{Width: w, Height: h, Coverage: make([]uint8, w*h)}
}

// At returns the selection coverage at (x, y); out of bounds is 0.
func (m *SelectionMask) At(x, y int) uint8 {
	if m == nil {
		return 255
	}
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return 0
	}
	return m.Coverage[y*m.Width+x]
}

// Clone returns a deep copy, or nil for a nil mask.
func (m *SelectionMask) Clone() *SelectionMask {
	if m == nil {
		return nil
	}
	c := &SelectionMask{Width: m.Width, Height: m.Height, Pending: m.Pending}
	c.Coverage = make([]uint8, len(m.Coverage))
	copy(c.Coverage, m.Coverage)
	return c
}

// Equal reports whether two masks select the same pixels.
func (m *SelectionMask) Equal(other *SelectionMask) bool {
	if m == nil || other == nil {
		return m == other
	}
	return m.Width == other.Width && m.Height == other.Height &&
		bytes.Equal(m.Coverage, other.Coverage)
}
