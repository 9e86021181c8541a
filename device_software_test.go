package easel

import (
	"context"
	"errors"
	"testing"
)

func TestSoftwareDeviceUploadDownload(t *testing.T) {
	dev := NewSoftwareDevice(0)
	tex, err := dev.CreateTexture(32, 32, "test")
	if err != nil {
		t.Fatal(err)
	}

	src := NewPixmap(32, 32)
	src.Clear(RGBA{R: 1, A: 1})
	region := Rect(4, 4, 12, 12)
	if err := dev.Upload(tex, src, []DirtyRect{region}); err != nil {
		t.Fatal(err)
	}

	dst := NewPixmap(32, 32)
	if err := dev.Download(context.Background(), tex, dst, []DirtyRect{Rect(0, 0, 32, 32)}); err != nil {
		t.Fatal(err)
	}
	if dst.GetPixel(5, 5).R != 1 {
		t.Error("uploaded region missing from texture")
	}
	if dst.GetPixel(20, 20).A != 0 {
		t.Error("pixels outside uploaded region are not transparent")
	}

	stats := dev.Stats()
	if stats.TileUploads != 1 || stats.TileDownloads != 1 {
		t.Errorf("stats = %+v, want 1 upload and 1 download", stats)
	}
}

func TestSoftwareDeviceInvalidTexture(t *testing.T) {
	dev := NewSoftwareDevice(0)
	if _, err := dev.CreateTexture(0, 10, "bad"); err == nil {
		t.Error("CreateTexture accepted zero width")
	}
	err := dev.Upload(TextureID(99), NewPixmap(4, 4), []DirtyRect{Rect(0, 0, 4, 4)})
	if !errors.Is(err, ErrDeviceFallback) {
		t.Errorf("Upload to unknown texture = %v, want ErrDeviceFallback", err)
	}
	// Unknown releases are ignored.
	dev.ReleaseTexture(TextureID(99))
}

func TestSoftwareDeviceDrawDab(t *testing.T) {
	dev := NewSoftwareDevice(0)
	tex, _ := dev.CreateTexture(64, 64, "scratch")

	rect, err := dev.DrawDab(tex, hardDab(32, 32, 10, 1))
	if err != nil {
		t.Fatal(err)
	}
	if rect.Empty() || !rect.Contains(32, 32) {
		t.Errorf("dab rect = %+v, want region around (32, 32)", rect)
	}

	dst := NewPixmap(64, 64)
	dev.Download(context.Background(), tex, dst, []DirtyRect{rect})
	if dst.GetPixel(32, 32).A < 0.99 {
		t.Error("dab pixels missing from texture")
	}
	if dev.Stats().DabsDrawn != 1 {
		t.Errorf("DabsDrawn = %d, want 1", dev.Stats().DabsDrawn)
	}
}

func TestSoftwareDeviceSnapshotRoundTrip(t *testing.T) {
	dev := NewSoftwareDevice(0)
	tex, _ := dev.CreateTexture(32, 32, "layer")

	blank := NewPixmap(32, 32)
	rect := Rect(8, 8, 16, 16)

	// Snapshot the blank region, paint over it, resolve back.
	snap, err := dev.RetainSnapshot(tex, rect)
	if err != nil {
		t.Fatal(err)
	}
	painted := NewPixmap(32, 32)
	painted.Clear(White)
	dev.Upload(tex, painted, []DirtyRect{rect})

	if err := dev.ResolveSnapshot(snap, tex); err != nil {
		t.Fatal(err)
	}
	dst := NewPixmap(32, 32)
	dev.Download(context.Background(), tex, dst, []DirtyRect{Rect(0, 0, 32, 32)})
	if !dst.Equal(blank) {
		t.Error("ResolveSnapshot did not restore the region")
	}
}

func TestSoftwareDeviceSnapshotEviction(t *testing.T) {
	dev := NewSoftwareDevice(2)
	tex, _ := dev.CreateTexture(16, 16, "layer")

	var evicted []SnapshotID
	var evictedPixels []*Pixmap
	dev.SetEvictionHandler(func(id SnapshotID, pixels *Pixmap, rect DirtyRect) {
		evicted = append(evicted, id)
		evictedPixels = append(evictedPixels, pixels)
	})

	var ids []SnapshotID
	for i := 0; i < 3; i++ {
		id, err := dev.RetainSnapshot(tex, Rect(0, 0, 8, 8))
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}

	if len(evicted) != 1 || evicted[0] != ids[0] {
		t.Fatalf("evicted = %v, want oldest snapshot %v", evicted, ids[0])
	}
	if evictedPixels[0] == nil || evictedPixels[0].Width() != 8 {
		t.Error("eviction handler did not receive the snapshot pixels")
	}
	if err := dev.ResolveSnapshot(ids[0], tex); !errors.Is(err, ErrSnapshotEvicted) {
		t.Errorf("ResolveSnapshot after eviction = %v, want ErrSnapshotEvicted", err)
	}
	if err := dev.ResolveSnapshot(ids[2], tex); err != nil {
		t.Errorf("ResolveSnapshot of retained snapshot = %v", err)
	}

	stats := dev.Stats()
	if stats.SnapshotsRetained != 3 || stats.SnapshotsEvicted != 1 {
		t.Errorf("stats = %+v, want 3 retained 1 evicted", stats)
	}
}

func TestSoftwareDeviceReleaseSnapshotFreesRingSlot(t *testing.T) {
	dev := NewSoftwareDevice(2)
	tex, _ := dev.CreateTexture(16, 16, "layer")

	a, _ := dev.RetainSnapshot(tex, Rect(0, 0, 8, 8))
	dev.ReleaseSnapshot(a)

	var evictions int
	dev.SetEvictionHandler(func(SnapshotID, *Pixmap, DirtyRect) { evictions++ })
	dev.RetainSnapshot(tex, Rect(0, 0, 8, 8))
	dev.RetainSnapshot(tex, Rect(0, 0, 8, 8))
	if evictions != 0 {
		t.Errorf("released snapshot still occupied a ring slot (%d evictions)", evictions)
	}
}

func TestCompositeStroke(t *testing.T) {
	dst := NewPixmap(8, 8)
	src := NewPixmap(8, 8)
	src.SetPixel(2, 2, Black)

	compositeStroke(dst, src, Rect(0, 0, 8, 8), 0.5)
	a := dst.GetPixel(2, 2).A * 255
	if a < 126 || a > 129 {
		t.Errorf("alpha = %v, want ~127 (half ceiling)", a)
	}

	// Committing onto existing paint composites source-over.
	dst2 := NewPixmap(8, 8)
	dst2.Clear(White)
	compositeStroke(dst2, src, Rect(0, 0, 8, 8), 1)
	c := dst2.GetPixel(2, 2)
	if c.R > 0.01 || c.A < 0.99 {
		t.Errorf("pixel = %+v, want opaque black over white", c)
	}
}
