package easel

import (
	"bytes"
	"image"
)

// Pixmap represents a rectangular pixel buffer.
// Pixel data is straight-alpha RGBA, 4 bytes per pixel, row-major.
type Pixmap struct {
	width  int
	height int
	data   []uint8
}

// NewPixmap creates a new pixmap with the given dimensions.
func NewPixmap(width, height int) *Pixmap {
	return &Pixmap{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}
}

// Width returns the width of the pixmap.
func (p *Pixmap) Width() int {
	return p.width
}

// Height returns the height of the pixmap.
func (p *Pixmap) Height() int {
	return p.height
}

// Data returns the raw pixel data (RGBA format).
func (p *Pixmap) Data() []uint8 {
	return p.data
}

// SetPixel sets the color of a single pixel.
// Out-of-bounds coordinates are silently ignored.
func (p *Pixmap) SetPixel(x, y int, c RGBA) {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return
	}
	i := (y*p.width + x) * 4
	p.data[i+0] = uint8(clamp255(c.R * 255))
	p.data[i+1] = uint8(clamp255(c.G * 255))
	p.data[i+2] = uint8(clamp255(c.B * 255))
	p.data[i+3] = uint8(clamp255(c.A * 255))
}

// GetPixel returns the color of a single pixel.
// Out-of-bounds coordinates return Transparent.
func (p *Pixmap) GetPixel(x, y int) RGBA {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return Transparent
	}
	i := (y*p.width + x) * 4
	return RGBA{
		R: float64(p.data[i+0]) / 255,
		G: float64(p.data[i+1]) / 255,
		B: float64(p.data[i+2]) / 255,
		A: float64(p.data[i+3]) / 255,
	}
}

// Clear fills the entire pixmap with a color.
func (p *Pixmap) Clear(c RGBA) {
	r := uint8(clamp255(c.R * 255))
	g := uint8(clamp255(c.G * 255))
	b := uint8(clamp255(c.B * 255))
	a := uint8(clamp255(c.A * 255))

	if r == 0 && g == 0 && b == 0 && a == 0 {
		clear(p.data)
		return
	}
	for i := 0; i < len(p.data); i += 4 {
		p.data[i+0] = r
		p.data[i+1] = g
		p.data[i+2] = b
		p.data[i+3] = a
	}
}

// ClearRect zeroes the pixels inside rect (clamped to bounds).
func (p *Pixmap) ClearRect(rect DirtyRect) {
	rect = rect.Clamp(p.width, p.height)
	if rect.Empty() {
		return
	}
	for y := rect.Top; y < rect.Bottom; y++ {
		row := p.data[(y*p.width+rect.Left)*4 : (y*p.width+rect.Right)*4]
		clear(row)
	}
}

// Clone returns a deep copy of the pixmap.
func (p *Pixmap) Clone() *Pixmap {
	c := NewPixmap(p.width, p.height)
	copy(c.data, p.data)
	return c
}

// Equal reports whether two pixmaps have identical dimensions and pixels.
func (p *Pixmap) Equal(other *Pixmap) bool {
	if other == nil || p.width != other.width || p.height != other.height {
		return false
	}
	return bytes.Equal(p.data, other.data)
}

// CopyFrom copies all pixels from src. Dimensions must match; if they
// do not, CopyFrom is a no-op and returns false.
func (p *Pixmap) CopyFrom(src *Pixmap) bool {
	if src == nil || src.width != p.width || src.height != p.height {
		return false
	}
	copy(p.data, src.data)
	return true
}

// CopyRegion copies the pixels inside rect from src into p at the same
// position. Both pixmaps must be canvas-sized; the rect is clamped to
// the common bounds.
func (p *Pixmap) CopyRegion(src *Pixmap, rect DirtyRect) {
	if src == nil {
		return
	}
	w, h := p.width, p.height
	if src.width < w {
		w = src.width
	}
	if src.height < h {
		h = src.height
	}
	rect = rect.Clamp(w, h)
	if rect.Empty() {
		return
	}
	rowBytes := (rect.Right - rect.Left) * 4
	for y := rect.Top; y < rect.Bottom; y++ {
		di := (y*p.width + rect.Left) * 4
		si := (y*src.width + rect.Left) * 4
		copy(p.data[di:di+rowBytes], src.data[si:si+rowBytes])
	}
}

// Crop returns a new pixmap containing the pixels inside rect
// (clamped to bounds). The result has the rect's dimensions.
func (p *Pixmap) Crop(rect DirtyRect) *Pixmap {
	rect = rect.Clamp(p.width, p.height)
	if rect.Empty() {
		return NewPixmap(0, 0)
	}
	out := NewPixmap(rect.Right-rect.Left, rect.Bottom-rect.Top)
	rowBytes := out.width * 4
	for y := 0; y < out.height; y++ {
		si := ((rect.Top+y)*p.width + rect.Left) * 4
		copy(out.data[y*rowBytes:(y+1)*rowBytes], p.data[si:si+rowBytes])
	}
	return out
}

// Paste copies src into p with its top-left corner at (x, y),
// clipping to p's bounds.
func (p *Pixmap) Paste(src *Pixmap, x, y int) {
	if src == nil {
		return
	}
	for sy := 0; sy < src.height; sy++ {
		dy := y + sy
		if dy < 0 || dy >= p.height {
			continue
		}
		for sx := 0; sx < src.width; sx++ {
			dx := x + sx
			if dx < 0 || dx >= p.width {
				continue
			}
			di := (dy*p.width + dx) * 4
			si := (sy*src.width + sx) * 4
			copy(p.data[di:di+4], src.data[si:si+4])
		}
	}
}

// ToImage converts the pixmap to an image.NRGBA sharing no storage.
func (p *Pixmap) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, p.width, p.height))
	copy(img.Pix, p.data)
	return img
}

// FromImage creates a pixmap from an image.
func FromImage(img image.Image) *Pixmap {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	pm := NewPixmap(width, height)

	if n, ok := img.(*image.NRGBA); ok && n.Stride == width*4 {
		copy(pm.data, n.Pix)
		return pm
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pm.SetPixel(x, y, FromColor(img.At(bounds.Min.X+x, bounds.Min.Y+y)))
		}
	}
	return pm
}
