package easel

import (
	"github.com/google/uuid"

	"github.com/gogpu/easel/internal/blend"
)

// BlendMode re-exports the layer blend modes.
type BlendMode = blend.Mode

// Layer blend modes.
const (
	BlendNormal     = blend.ModeNormal
	BlendMultiply   = blend.ModeMultiply
	BlendScreen     = blend.ModeScreen
	BlendOverlay    = blend.ModeOverlay
	BlendDarken     = blend.ModeDarken
	BlendLighten    = blend.ModeLighten
	BlendAddition   = blend.ModeAddition
	BlendDifference = blend.ModeDifference
)

// LayerProps is the mutable metadata of a layer, snapshotted whole for
// history entries.
type LayerProps struct {
	Name    string
	Visible bool
	Locked  bool
	Opacity float64
	Blend   BlendMode
}

// Layer is one paint layer. The CPU canvas is the durable source of
// truth; the device texture is a derived cache that can always be
// rebuilt from it. Revision increments on every committed mutation and
// lets the tile synchronizer detect when a full resync is required.
type Layer struct {
	ID string
	LayerProps

	Canvas   *Pixmap
	Texture  TextureID
	Revision uint64
}

// bump records one committed mutation.
func (l *Layer) bump() {
	l.Revision++
}

// LayerStore owns the document's layer stack for one canvas. Index 0
// is the bottom of the stack. The store is mutated only from the
// cooperative scheduler.
type LayerStore struct {
	width, height int
	dev           Device

	layers []*Layer
	byID   map[string]*Layer
	active string
}

// NewLayerStore creates an empty layer stack for a w×h canvas backed
// by the given device.
func NewLayerStore(dev Device, width, height int) *LayerStore {
	return &LayerStore{
		width:  width,
		height: height,
		dev:    dev,
		byID:   make(map[string]*Layer),
	}
}

// Width returns the canvas width in pixels.
func (s *LayerStore) Width() int { return s.width }

// Height returns the canvas height in pixels.
func (s *LayerStore) Height() int { return s.height }

// Device returns the device backing the layer textures.
func (s *LayerStore) Device() Device { return s.dev }

// Len returns the number of layers.
func (s *LayerStore) Len() int { return len(s.layers) }

// Layers returns the stack bottom-up. The slice is shared; callers
// must not mutate it.
func (s *LayerStore) Layers() []*Layer { return s.layers }

// Get returns a layer by id, or nil.
func (s *LayerStore) Get(id string) *Layer { return s.byID[id] }

// IndexOf returns the stack index of a layer id, or -1.
func (s *LayerStore) IndexOf(id string) int {
	for i, l := range s.layers {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// Active returns the active layer, or nil.
func (s *LayerStore) Active() *Layer { return s.byID[s.active] }

// SetActive selects the active layer.
func (s *LayerStore) SetActive(id string) error {
	if _, ok := s.byID[id]; !ok {
		return ErrLayerNotFound
	}
	s.active = id
	return nil
}

// Add appends a new transparent layer on top of the stack and returns it.
func (s *LayerStore) Add(name string) *Layer {
	l := s.newLayer(name)
	s.layers = append(s.layers, l)
	s.byID[l.ID] = l
	return l
}

// InsertAt inserts an existing layer at the given stack index. Used by
// history replay to restore a removed layer in place.
func (s *LayerStore) InsertAt(l *Layer, index int) {
	if index < 0 {
		index = 0
	}
	if index > len(s.layers) {
		index = len(s.layers)
	}
	s.layers = append(s.layers, nil)
	copy(s.layers[index+1:], s.layers[index:])
	s.layers[index] = l
	s.byID[l.ID] = l
	if l.Texture == 0 && s.dev != nil {
		s.attachTexture(l)
	}
}

// Remove detaches a layer from the stack and returns it with its
// former index. The layer's pixels are kept so history can restore it.
func (s *LayerStore) Remove(id string) (*Layer, int, error) {
	idx := s.IndexOf(id)
	if idx < 0 {
		return nil, -1, ErrLayerNotFound
	}
	l := s.layers[idx]
	s.layers = append(s.layers[:idx], s.layers[idx+1:]...)
	delete(s.byID, id)
	if s.active == id {
		s.active = ""
		if len(s.layers) > 0 {
			s.active = s.layers[min(idx, len(s.layers)-1)].ID
		}
	}
	if l.Texture != 0 && s.dev != nil {
		s.dev.ReleaseTexture(l.Texture)
		l.Texture = 0
	}
	return l, idx, nil
}

// Props returns a copy of the layer's mutable metadata.
func (s *LayerStore) Props(id string) (LayerProps, error) {
	l := s.byID[id]
	if l == nil {
		return LayerProps{}, ErrLayerNotFound
	}
	return l.LayerProps, nil
}

// SetProps replaces the layer's mutable metadata.
func (s *LayerStore) SetProps(id string, p LayerProps) error {
	l := s.byID[id]
	if l == nil {
		return ErrLayerNotFound
	}
	l.LayerProps = p
	l.bump()
	return nil
}

// Resize recreates every layer's canvas at the new dimensions,
// preserving overlapping pixels anchored at the top-left.
func (s *LayerStore) Resize(width, height int) {
	s.width = width
	s.height = height
	for _, l := range s.layers {
		next := NewPixmap(width, height)
		next.Paste(l.Canvas, 0, 0)
		l.Canvas = next
		if s.dev != nil {
			if l.Texture != 0 {
				s.dev.ReleaseTexture(l.Texture)
				l.Texture = 0
			}
			s.attachTexture(l)
		}
		l.bump()
	}
}

func (s *LayerStore) newLayer(name string) *Layer {
	l := &Layer{
		ID: uuid.NewString(),
		LayerProps: LayerProps{
			Name:    name,
			Visible: true,
			Opacity: 1,
			Blend:   BlendNormal,
		},
		Canvas: NewPixmap(s.width, s.height),
	}
	if s.dev != nil {
		s.attachTexture(l)
	}
	return l
}

// attachTexture creates the layer's device texture and seeds it from
// the canvas. A device failure leaves the layer CPU-only; the tile
// synchronizer treats a zero texture as "nothing to sync".
func (s *LayerStore) attachTexture(l *Layer) {
	id, err := s.dev.CreateTexture(s.width, s.height, "layer:"+l.Name)
	if err != nil {
		Logger().Warn("easel: layer texture allocation failed", "layer", l.Name, "err", err)
		return
	}
	l.Texture = id
	full := Rect(0, 0, s.width, s.height)
	if err := s.dev.Upload(id, l.Canvas, []DirtyRect{full}); err != nil {
		Logger().Warn("easel: layer texture seed failed", "layer", l.Name, "err", err)
	}
}
