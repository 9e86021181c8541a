package easel

import "errors"

// Sentinel errors reported by the engine. Painting paths never surface
// these to an interactive caller; they degrade to a safe fallback and
// record a diagnostic counter instead. The sentinels exist for
// automation harnesses and tests.
var (
	// ErrInvalidBrushConfig indicates a brush config that cannot paint.
	ErrInvalidBrushConfig = errors.New("easel: invalid brush config")

	// ErrInvalidCanvasSize indicates non-positive canvas dimensions.
	ErrInvalidCanvasSize = errors.New("easel: invalid canvas size")

	// ErrNoActiveLayer indicates painting was attempted with no active layer.
	ErrNoActiveLayer = errors.New("easel: no active layer")

	// ErrLayerLocked indicates the target layer is locked.
	ErrLayerLocked = errors.New("easel: layer is locked")

	// ErrLayerNotFound indicates an unknown layer id.
	ErrLayerNotFound = errors.New("easel: layer not found")

	// ErrSessionActive indicates BeginStroke while a stroke is in progress.
	ErrSessionActive = errors.New("easel: stroke session already active")

	// ErrNoSession indicates a stroke operation with no session.
	ErrNoSession = errors.New("easel: no stroke session")

	// ErrDeviceFallback indicates the device cannot handle an operation
	// and the caller should use the CPU path.
	ErrDeviceFallback = errors.New("easel: falling back to CPU path")

	// ErrSnapshotEvicted indicates a GPU history snapshot is no longer
	// retained by the device.
	ErrSnapshotEvicted = errors.New("easel: device snapshot evicted")

	// ErrMalformedCapture indicates a stroke capture document that
	// failed validation at the parse boundary.
	ErrMalformedCapture = errors.New("easel: malformed stroke capture")
)
