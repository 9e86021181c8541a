package easel

import (
	"errors"
	"image"
	"testing"
)

func TestCompositorFlattensStack(t *testing.T) {
	eng := newTestEngine(t, EngineConfig{Width: 32, Height: 32})
	c := NewCompositor(eng)

	bottom := eng.Layers().Active()
	bottom.Canvas.Clear(RGBA{R: 1, A: 1})
	top, _ := eng.AddLayer("top")
	top.Canvas.SetPixel(5, 5, RGBA{G: 1, A: 1})

	frame := c.Composite()
	if got := frame.GetPixel(5, 5); got.G < 0.99 || got.R > 0.01 {
		t.Errorf("pixel (5,5) = %+v, want top layer green", got)
	}
	if got := frame.GetPixel(10, 10); got.R < 0.99 {
		t.Errorf("pixel (10,10) = %+v, want bottom layer red", got)
	}
}

func TestCompositorSkipsHiddenLayer(t *testing.T) {
	eng := newTestEngine(t, EngineConfig{Width: 32, Height: 32})
	c := NewCompositor(eng)

	layer := eng.Layers().Active()
	layer.Canvas.Clear(White)
	props := layer.LayerProps
	props.Visible = false
	eng.PreviewLayerProps(layer.ID, props)

	frame := c.Composite()
	if frame.GetPixel(10, 10).A != 0 {
		t.Error("hidden layer was composited")
	}
}

func TestCompositorLayerOpacity(t *testing.T) {
	eng := newTestEngine(t, EngineConfig{Width: 32, Height: 32})
	c := NewCompositor(eng)
	c.Background = Black

	layer := eng.Layers().Active()
	layer.Canvas.Clear(White)
	props := layer.LayerProps
	props.Opacity = 0.5
	eng.PreviewLayerProps(layer.ID, props)

	frame := c.Composite()
	got := frame.GetPixel(10, 10)
	if got.R < 0.47 || got.R > 0.53 {
		t.Errorf("pixel = %+v, want ~50%% gray", got)
	}
}

func TestCompositorMultiplyLayer(t *testing.T) {
	eng := newTestEngine(t, EngineConfig{Width: 32, Height: 32})
	c := NewCompositor(eng)

	bottom := eng.Layers().Active()
	bottom.Canvas.Clear(RGBA{R: 0.5, G: 0.5, B: 0.5, A: 1})
	top, _ := eng.AddLayer("multiply")
	top.Canvas.Clear(RGBA{R: 0.5, G: 0.5, B: 0.5, A: 1})
	props := top.LayerProps
	props.Blend = BlendMultiply
	eng.PreviewLayerProps(top.ID, props)

	frame := c.Composite()
	got := frame.GetPixel(10, 10)
	if got.R < 0.22 || got.R > 0.28 {
		t.Errorf("pixel = %+v, want ~25%% gray from multiply", got)
	}
}

func TestCompositorBackgroundFill(t *testing.T) {
	eng := newTestEngine(t, EngineConfig{Width: 16, Height: 16})
	c := NewCompositor(eng)
	c.Background = White

	frame := c.Composite()
	if frame.GetPixel(3, 3) != White {
		t.Errorf("background pixel = %+v, want white", frame.GetPixel(3, 3))
	}
	// The frame is reused; switching back to transparent must clear it.
	c.Background = Transparent
	frame = c.Composite()
	if frame.GetPixel(3, 3).A != 0 {
		t.Error("stale background survived a transparent refill")
	}
}

func TestCompositorDimUnselected(t *testing.T) {
	eng := newTestEngine(t, EngineConfig{Width: 16, Height: 16})
	c := NewCompositor(eng)
	c.DimUnselected = true

	eng.Layers().Active().Canvas.Clear(White)

	// Pending selections are never dimmed.
	pending := NewSelectionMask(16, 16)
	pending.Pending = true
	eng.SetSelection(pending)
	frame := c.Composite()
	if got := frame.GetPixel(3, 3); got.R < 0.99 {
		t.Errorf("pending selection dimmed the frame: %+v", got)
	}

	// Committed selection: inside stays full, outside is darkened.
	mask := NewSelectionMask(16, 16)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			mask.Coverage[y*16+x] = 255
		}
	}
	eng.SetSelection(mask)
	frame = c.Composite()
	if got := frame.GetPixel(3, 3); got.R < 0.99 {
		t.Errorf("selected pixel dimmed: %+v", got)
	}
	if got := frame.GetPixel(12, 12); got.R > 0.6 {
		t.Errorf("unselected pixel not dimmed: %+v", got)
	}
}

// textureless wraps a device and refuses texture allocation, forcing
// layers to stay CPU-only.
type textureless struct {
	Device
}

func (d *textureless) CreateTexture(int, int, string) (TextureID, error) {
	return 0, errors.New("no textures")
}

func TestCompositorStrokePreview(t *testing.T) {
	eng := newTestEngine(t, EngineConfig{
		Width: 64, Height: 64,
		Device: &textureless{Device: NewSoftwareDevice(0)},
	})
	c := NewCompositor(eng)

	eng.BeginStroke()
	eng.Tick(0)
	eng.ProcessPoint(InputSample{X: 32, Y: 32, Pressure: 0.5})
	eng.Tick(16)

	// The stroke is still uncommitted: the layer is blank but the
	// composited frame already shows the scratch pixels.
	if activeCanvas(eng).GetPixel(32, 32).A != 0 {
		t.Fatal("uncommitted stroke reached the layer canvas")
	}
	frame := c.Composite()
	if frame.GetPixel(32, 32).A == 0 {
		t.Error("in-progress stroke missing from the composite")
	}

	eng.EndStroke()
	frame = c.Composite()
	if frame.GetPixel(32, 32).A == 0 {
		t.Error("committed stroke missing from the composite")
	}
}

func TestCompositorRenderViewport(t *testing.T) {
	eng := newTestEngine(t, EngineConfig{Width: 64, Height: 64})
	c := NewCompositor(eng)
	eng.Layers().Active().Canvas.Clear(RGBA{R: 1, A: 1})

	dst := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	c.RenderViewport(dst)
	if dst.NRGBAAt(16, 16).R < 250 {
		t.Errorf("viewport pixel = %+v, want scaled red", dst.NRGBAAt(16, 16))
	}
}
