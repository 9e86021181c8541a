package easel

import (
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/easel/internal/blend"
)

// Compositor flattens the layer stack, the in-progress stroke and the
// selection overlay into a host frame. It reuses its output buffer
// across frames; Composite renders at most once per Tick.
type Compositor struct {
	engine *Engine

	// Background is painted under the bottom layer. Default is
	// transparent, which hosts typically draw over a checkerboard.
	Background RGBA

	// DimUnselected darkens the area outside a committed selection so
	// the selected region reads at a glance. A pending selection is
	// never dimmed; while the geometry is still being dragged out only
	// the host's guide outline is shown, not a partial fill.
	DimUnselected bool

	frame *Pixmap
}

// NewCompositor creates a compositor bound to an engine.
func NewCompositor(e *Engine) *Compositor {
	return &Compositor{engine: e, Background: Transparent}
}

// Composite flattens the document into the reused frame pixmap and
// returns it. The result is valid until the next Composite call.
func (c *Compositor) Composite() *Pixmap {
	w := c.engine.Layers().Width()
	h := c.engine.Layers().Height()
	if c.frame == nil || c.frame.Width() != w || c.frame.Height() != h {
		c.frame = NewPixmap(w, h)
	}
	c.fillBackground()

	var preview *Pixmap
	var previewCeiling float64
	var previewLayer string
	if s := c.engine.session; s != nil && s.state == StateActive {
		preview = s.acc.Preview()
		previewCeiling = s.cfg.Opacity
		previewLayer = s.LayerID
	}

	dst := c.frame.Data()
	stride := w * 4
	for _, l := range c.engine.Layers().Layers() {
		if !l.Visible || l.Opacity <= 0 {
			continue
		}
		src := l.Canvas.Data()
		for y := 0; y < h; y++ {
			row := y * stride
			blend.CompositeRow(dst[row:row+stride], src[row:row+stride], l.Opacity, l.Blend)
		}
		if preview != nil && l.ID == previewLayer {
			p := preview.Data()
			for y := 0; y < h; y++ {
				row := y * stride
				blend.CompositeRow(dst[row:row+stride], p[row:row+stride], previewCeiling*l.Opacity, blend.ModeNormal)
			}
		}
	}

	if c.DimUnselected {
		c.dimUnselected(dst, w, h)
	}
	return c.frame
}

// RenderViewport scales the composited frame into dst with bilinear
// filtering. Used by hosts whose view is zoomed or letterboxed.
func (c *Compositor) RenderViewport(dst *image.NRGBA) {
	frame := c.Composite().ToImage()
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), frame, frame.Bounds(), xdraw.Over, nil)
}

func (c *Compositor) fillBackground() {
	if c.Background == Transparent {
		c.frame.Clear(Transparent)
		return
	}
	r := uint8(clamp255(c.Background.R * 255))
	g := uint8(clamp255(c.Background.G * 255))
	b := uint8(clamp255(c.Background.B * 255))
	a := uint8(clamp255(c.Background.A * 255))
	data := c.frame.Data()
	for i := 0; i < len(data); i += 4 {
		data[i], data[i+1], data[i+2], data[i+3] = r, g, b, a
	}
}

// dimUnselected halves the brightness outside the committed selection.
func (c *Compositor) dimUnselected(dst []uint8, w, h int) {
	sel := c.engine.Selection()
	if sel == nil || sel.Pending {
		return
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cov := int(sel.At(x, y))
			if cov == 255 {
				continue
			}
			i := (y*w + x) * 4
			// keep = 0.5 + 0.5*coverage
			keep := 128 + cov/2
			dst[i+0] = uint8(int(dst[i+0]) * keep / 255)
			dst[i+1] = uint8(int(dst[i+1]) * keep / 255)
			dst[i+2] = uint8(int(dst[i+2]) * keep / 255)
		}
	}
}
