// Package easel provides an interactive raster painting engine for Go.
//
// # Overview
//
// easel turns a stream of normalized pointer/stylus samples into brush
// dabs composited onto layered pixel buffers, with tile-granular
// CPU/GPU synchronization and a snapshot-based undo/redo history.
// It is designed to integrate with the GoGPU ecosystem: the CPU path
// is pure Go, and a wgpu-backed device can be enabled via blank import.
//
// # Quick Start
//
//	import "github.com/gogpu/easel"
//
//	eng, err := easel.NewEngine(easel.EngineConfig{Width: 512, Height: 512})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	eng.BeginStroke()
//	eng.Tick(0) // activates the stroke session
//	eng.ProcessPoint(easel.InputSample{X: 100, Y: 100, Pressure: 0.5})
//	eng.ProcessPoint(easel.InputSample{X: 200, Y: 140, Pressure: 0.7})
//	eng.Tick(16)
//	eng.EndStroke()
//
//	eng.Undo(ctx) // pixel-identical rollback
//
// # Architecture
//
// The engine is organized around a single cooperative frame loop:
//
//   - Input: InputQueue mailbox drained once per tick (loop.go)
//   - Dabs: DabStamper path interpolation and dynamics (stamper.go)
//   - Stroke: CPU and GPU accumulators behind one contract
//   - Layers: CPU canvases as source of truth, GPU textures as cache
//   - Sync: tile-granular reconciliation (tilesync.go, internal/tile)
//   - History: tagged snapshot entries with CPU and GPU modes
//
// # Devices
//
// Painting works without any GPU: the built-in software device keeps
// layer textures as host pixmaps. To enable wgpu acceleration:
//
//	import _ "github.com/gogpu/easel/gpu" // registers the wgpu device
//
// All GPU failures degrade to the CPU path; painting never raises a
// blocking error to the caller.
//
// # Coordinate System
//
// Origin (0,0) at top-left, X increases right, Y increases down.
// Dirty rectangles are left/top inclusive, right/bottom exclusive.
package easel

// Version information
const (
	// Version is the current version of the library
	Version = "0.2.0"
)
