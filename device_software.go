package easel

import (
	"context"
	"fmt"
	"sync"
)

// DefaultSnapshotRing is the number of stroke snapshots the software
// device retains before evicting the oldest.
const DefaultSnapshotRing = 32

// softwareDevice is the built-in CPU implementation of Device. Layer
// "textures" are host pixmaps, so uploads and downloads are plain
// copies. It exists so the engine exercises one code path whether or
// not a GPU device is registered, and serves as the permanent fallback
// when GPU operations fail.
type softwareDevice struct {
	mu sync.Mutex

	nextTexture  TextureID
	nextSnapshot SnapshotID
	textures     map[TextureID]*Pixmap

	// Bounded FIFO snapshot ring. Oldest entries are demoted through
	// the eviction handler rather than silently dropped.
	ring     []SnapshotID
	ringCap  int
	snaps    map[SnapshotID]*softwareSnapshot
	onEvict  SnapshotEvictionHandler
	statsVal DeviceStats
}

type softwareSnapshot struct {
	pixels *Pixmap
	rect   DirtyRect
}

// NewSoftwareDevice creates the built-in CPU device. ringCap bounds the
// snapshot ring; values <= 0 use DefaultSnapshotRing.
func NewSoftwareDevice(ringCap int) Device {
	if ringCap <= 0 {
		ringCap = DefaultSnapshotRing
	}
	return &softwareDevice{
		textures: make(map[TextureID]*Pixmap),
		snaps:    make(map[SnapshotID]*softwareSnapshot),
		ringCap:  ringCap,
	}
}

func (d *softwareDevice) Name() string { return "software" }

func (d *softwareDevice) Init() error { return nil }

func (d *softwareDevice) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.textures = make(map[TextureID]*Pixmap)
	d.snaps = make(map[SnapshotID]*softwareSnapshot)
	d.ring = nil
}

func (d *softwareDevice) CreateTexture(w, h int, label string) (TextureID, error) {
	if w <= 0 || h <= 0 {
		return 0, fmt.Errorf("easel: invalid texture dimensions %dx%d (%s)", w, h, label)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextTexture++
	id := d.nextTexture
	d.textures[id] = NewPixmap(w, h)
	return id, nil
}

func (d *softwareDevice) ReleaseTexture(id TextureID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.textures, id)
}

func (d *softwareDevice) texture(id TextureID) (*Pixmap, error) {
	pm, ok := d.textures[id]
	if !ok {
		return nil, fmt.Errorf("easel: unknown texture %d: %w", id, ErrDeviceFallback)
	}
	return pm, nil
}

func (d *softwareDevice) ClearTexture(id TextureID, rect DirtyRect) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	pm, err := d.texture(id)
	if err != nil {
		return err
	}
	pm.ClearRect(rect)
	return nil
}

func (d *softwareDevice) Upload(id TextureID, src *Pixmap, rects []DirtyRect) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	pm, err := d.texture(id)
	if err != nil {
		return err
	}
	for _, r := range rects {
		pm.CopyRegion(src, r)
		d.statsVal.TileUploads++
	}
	return nil
}

func (d *softwareDevice) Download(_ context.Context, id TextureID, dst *Pixmap, rects []DirtyRect) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	pm, err := d.texture(id)
	if err != nil {
		return err
	}
	for _, r := range rects {
		dst.CopyRegion(pm, r)
		d.statsVal.TileDownloads++
	}
	return nil
}

func (d *softwareDevice) DrawDab(id TextureID, dab DabParams) (DirtyRect, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	pm, err := d.texture(id)
	if err != nil {
		return DirtyRect{}, err
	}
	rect := stampDab(pm, dab)
	d.statsVal.DabsDrawn++
	return rect, nil
}

func (d *softwareDevice) Composite(_ context.Context, dst, src TextureID, rect DirtyRect, opacity float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	dstPm, err := d.texture(dst)
	if err != nil {
		return err
	}
	srcPm, err := d.texture(src)
	if err != nil {
		return err
	}
	compositeStroke(dstPm, srcPm, rect, opacity)
	d.statsVal.Commits++
	return nil
}

func (d *softwareDevice) RetainSnapshot(id TextureID, rect DirtyRect) (SnapshotID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	pm, err := d.texture(id)
	if err != nil {
		return 0, err
	}
	rect = rect.Clamp(pm.Width(), pm.Height())
	if rect.Empty() {
		return 0, fmt.Errorf("easel: empty snapshot rect: %w", ErrDeviceFallback)
	}

	d.nextSnapshot++
	sid := d.nextSnapshot
	d.snaps[sid] = &softwareSnapshot{pixels: pm.Crop(rect), rect: rect}
	d.ring = append(d.ring, sid)
	d.statsVal.SnapshotsRetained++

	for len(d.ring) > d.ringCap {
		d.evictOldestLocked()
	}
	return sid, nil
}

// evictOldestLocked demotes the oldest ring entry through the eviction
// handler. Caller holds d.mu.
func (d *softwareDevice) evictOldestLocked() {
	oldest := d.ring[0]
	d.ring = d.ring[1:]
	snap, ok := d.snaps[oldest]
	if !ok {
		return
	}
	delete(d.snaps, oldest)
	d.statsVal.SnapshotsEvicted++
	if d.onEvict != nil {
		// Hand ownership of the pixels to the handler.
		d.onEvict(oldest, snap.pixels, snap.rect)
	}
}

func (d *softwareDevice) ResolveSnapshot(snap SnapshotID, onto TextureID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.snaps[snap]
	if !ok {
		return ErrSnapshotEvicted
	}
	pm, err := d.texture(onto)
	if err != nil {
		return err
	}
	pm.Paste(s.pixels, s.rect.Left, s.rect.Top)
	return nil
}

func (d *softwareDevice) ReleaseSnapshot(snap SnapshotID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.snaps[snap]; !ok {
		return
	}
	delete(d.snaps, snap)
	for i, id := range d.ring {
		if id == snap {
			d.ring = append(d.ring[:i], d.ring[i+1:]...)
			break
		}
	}
}

func (d *softwareDevice) SetEvictionHandler(h SnapshotEvictionHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onEvict = h
}

func (d *softwareDevice) Flush(context.Context) error { return nil }

func (d *softwareDevice) Stats() DeviceStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.statsVal
}

// compositeStroke blends the rect of a stroke scratch buffer onto a
// layer canvas with the stroke's opacity ceiling. The scratch buffer
// holds alpha-darken accumulated pixels whose alpha already tops out
// at the ceiling, so the commit is a plain source-over.
func compositeStroke(dst, src *Pixmap, rect DirtyRect, opacity float64) {
	rect = rect.Clamp(dst.Width(), dst.Height()).Clamp(src.Width(), src.Height())
	if rect.Empty() {
		return
	}
	if opacity > 1 {
		opacity = 1
	}
	dd := dst.Data()
	sd := src.Data()
	for y := rect.Top; y < rect.Bottom; y++ {
		for x := rect.Left; x < rect.Right; x++ {
			i := (y*dst.Width() + x) * 4
			j := (y*src.Width() + x) * 4
			sa := float64(sd[j+3]) / 255 * opacity
			if sa <= 0 {
				continue
			}
			da := float64(dd[i+3]) / 255
			oa := sa + da*(1-sa)
			if oa <= 0 {
				continue
			}
			for c := 0; c < 3; c++ {
				sc := float64(sd[j+c]) / 255
				dc := float64(dd[i+c]) / 255
				dd[i+c] = uint8(clamp255((sc*sa + dc*da*(1-sa)) / oa * 255))
			}
			dd[i+3] = uint8(clamp255(oa * 255))
		}
	}
}
