package easel

import (
	"context"
	"sync"
)

// TextureID is an opaque handle to a device-resident texture.
// The zero value is never a valid texture.
type TextureID uint64

// SnapshotID is an opaque handle to a device-retained pixel snapshot
// used for GPU-mode undo/redo. The zero value is never valid.
type SnapshotID uint64

// CommitResult reports the outcome of finalizing a stroke on a device.
type CommitResult struct {
	// Rect is the layer region the commit touched.
	Rect DirtyRect

	// NeedsReadback is true when the CPU canvas must be refreshed from
	// the device texture to stay the source of truth.
	NeedsReadback bool
}

// DeviceStats carries diagnostic counters exposed to automation
// tooling. Painting never surfaces device failures to the user; these
// counters are the only place they are visible.
type DeviceStats struct {
	DabsDrawn         uint64
	Commits           uint64
	TileUploads       uint64
	TileDownloads     uint64
	SnapshotsRetained uint64
	SnapshotsEvicted  uint64
	Failures          uint64
}

// SnapshotEvictionHandler is invoked when the device's snapshot ring
// evicts a retained snapshot. The handler receives the snapshot's
// pixels and region so the owner can demote the snapshot to a CPU
// copy. The pixmap is owned by the callee after the call.
type SnapshotEvictionHandler func(id SnapshotID, pixels *Pixmap, rect DirtyRect)

// Device is a painting backend that owns textures, stamps dabs into a
// scratch texture, and retains bounded undo snapshots.
//
// All engine state is mutated from one cooperative scheduler; Device
// implementations may complete work asynchronously, but results become
// visible only at explicit await points (the ctx-taking methods).
// Any method may return an error wrapping ErrDeviceFallback, in which
// case the engine transparently degrades to the CPU path.
type Device interface {
	// Name returns the device identifier (e.g. "software", "wgpu").
	Name() string

	// Init initializes device resources. Called once on registration.
	Init() error

	// Close releases all device resources.
	Close()

	// CreateTexture allocates a w×h RGBA texture.
	CreateTexture(w, h int, label string) (TextureID, error)

	// ReleaseTexture frees a texture. Unknown ids are ignored.
	ReleaseTexture(id TextureID)

	// ClearTexture zeroes the given region of a texture.
	ClearTexture(id TextureID, rect DirtyRect) error

	// Upload pushes the given regions of src into the texture.
	Upload(id TextureID, src *Pixmap, rects []DirtyRect) error

	// Download pulls the given regions of the texture into dst.
	// This is an await point: it blocks until pending device work that
	// affects the regions has completed, or ctx is done.
	Download(ctx context.Context, id TextureID, dst *Pixmap, rects []DirtyRect) error

	// DrawDab accumulates one dab into a (scratch) texture and returns
	// the pixel region it touched.
	DrawDab(id TextureID, dab DabParams) (DirtyRect, error)

	// Composite blends the rect of src onto dst with the given opacity
	// ceiling. Used for the end-of-stroke commit. Await point.
	Composite(ctx context.Context, dst, src TextureID, rect DirtyRect, opacity float64) error

	// RetainSnapshot stores the current pixels of the texture region in
	// the device's bounded snapshot ring.
	RetainSnapshot(id TextureID, rect DirtyRect) (SnapshotID, error)

	// ResolveSnapshot writes a retained snapshot's pixels back onto the
	// texture. Returns ErrSnapshotEvicted if the ring no longer holds it.
	ResolveSnapshot(snap SnapshotID, onto TextureID) error

	// ReleaseSnapshot drops a retained snapshot. Unknown ids are ignored.
	ReleaseSnapshot(snap SnapshotID)

	// SetEvictionHandler installs the demotion callback for snapshot
	// ring evictions. At most one handler is active.
	SetEvictionHandler(h SnapshotEvictionHandler)

	// Flush waits for all pending device work. Await point.
	Flush(ctx context.Context) error

	// Stats returns a snapshot of the diagnostic counters.
	Stats() DeviceStats
}

var (
	deviceMu sync.RWMutex
	device   Device
)

// RegisterDevice registers a painting device for GPU-accelerated
// strokes. Only one device can be registered; subsequent calls replace
// the previous one. Init is called during registration; if it fails,
// the device is not registered and the error is returned.
//
// Typical usage via blank import in device backend packages:
//
//	import _ "github.com/gogpu/easel/gpu" // registers the wgpu device
func RegisterDevice(d Device) error {
	if err := d.Init(); err != nil {
		return err
	}
	propagateLogger(d, Logger())

	deviceMu.Lock()
	prev := device
	device = d
	deviceMu.Unlock()

	if prev != nil {
		prev.Close()
	}
	Logger().Info("easel: device registered", "device", d.Name())
	return nil
}

// UnregisterDevice removes the registered device. Engines fall back to
// their built-in software device. Useful for tests.
func UnregisterDevice() {
	deviceMu.Lock()
	prev := device
	device = nil
	deviceMu.Unlock()
	if prev != nil {
		prev.Close()
	}
}

// RegisteredDevice returns the registered device, or nil.
func RegisteredDevice() Device {
	deviceMu.RLock()
	defer deviceMu.RUnlock()
	return device
}
