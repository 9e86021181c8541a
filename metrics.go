package easel

// Metrics aggregates the engine's diagnostic counters. Painting never
// surfaces internal failures to the user; this snapshot is how
// automation and benchmarks observe them.
type Metrics struct {
	FramesRendered   uint64
	DabsStamped      uint64
	StrokesCommitted uint64
	StrokesCanceled  uint64
	InputDropped     uint64

	UndoDepth int
	RedoDepth int

	MaskCacheHits      uint64
	MaskCacheMisses    uint64
	MaskCacheEvictions uint64

	Device  DeviceStats
	Sync    SyncStats
	History HistoryStats
}

// Metrics returns a snapshot of all diagnostic counters.
func (e *Engine) Metrics() Metrics {
	hits, misses, evictions := MaskCacheStats()
	return Metrics{
		FramesRendered:     e.framesRendered,
		DabsStamped:        e.dabsStamped,
		StrokesCommitted:   e.strokesCommitted,
		StrokesCanceled:    e.strokesCanceled,
		InputDropped:       e.queue.Dropped(),
		UndoDepth:          e.history.UndoDepth(),
		RedoDepth:          e.history.RedoDepth(),
		MaskCacheHits:      hits,
		MaskCacheMisses:    misses,
		MaskCacheEvictions: evictions,
		Device:             e.dev.Stats(),
		Sync:               e.sync.Stats(),
		History:            e.history.Stats(),
	}
}
