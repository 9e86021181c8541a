package dab

import (
	"math"

	"github.com/gogpu/easel/internal/cache"
)

// Subpixel quantization steps for cached masks. Four steps per axis
// keeps placement error under a quarter pixel, which is below the
// visual threshold for brush work while keeping the cache small.
const subpixelSteps = 4

// maskKey packs the quantized dab parameters into a single uint64:
// radius (quarter pixels, 16 bits), hardness and roundness (percent,
// 8 bits each), angle (1/256 turn, 8 bits), subpixel x/y (2 bits each).
type maskKey uint64

func makeKey(radius, hardness, roundness, angle float64, qx, qy int) maskKey {
	r := uint64(math.Round(radius*4)) & 0xFFFF
	h := uint64(math.Round(hardness*100)) & 0xFF
	o := uint64(math.Round(roundness*100)) & 0xFF
	turns := angle / (2 * math.Pi)
	turns -= math.Floor(turns)
	a := uint64(math.Round(turns*256)) & 0xFF
	return maskKey(r |
		h<<16 |
		o<<24 |
		a<<32 |
		uint64(qx&0x3)<<40 |
		uint64(qy&0x3)<<42)
}

// Cache memoizes rendered brush-tip masks. Stamping a stroke requests
// the same mask for every dab (modulo subpixel phase and pressure-
// scaled radius), so the hit rate in practice is high.
type Cache struct {
	lru *cache.Sharded[maskKey, *Mask]
}

// NewCache creates a mask cache with the given per-shard capacity.
func NewCache(capacity int) *Cache {
	return &Cache{
		lru: cache.NewSharded[maskKey, *Mask](capacity, func(k maskKey) uint64 {
			return uint64(k)
		}),
	}
}

// Lookup returns the mask for the given dab parameters, rendering and
// caching it on a miss. The subpixel offsets subX, subY in [0, 1) are
// quantized to quarter-pixel phases; Lookup returns the quantized
// offsets actually baked into the mask so the caller blits at the
// matching integer position.
func (c *Cache) Lookup(radius, hardness, roundness, angle, subX, subY float64) (*Mask, float64, float64) {
	qx := int(subX*subpixelSteps) % subpixelSteps
	qy := int(subY*subpixelSteps) % subpixelSteps
	if qx < 0 {
		qx += subpixelSteps
	}
	if qy < 0 {
		qy += subpixelSteps
	}
	// Quantize radius the same way the key does, so the rendered mask
	// matches the key exactly.
	qRadius := math.Round(radius*4) / 4
	if qRadius < 0.5 {
		qRadius = 0.5
	}

	key := makeKey(qRadius, hardness, roundness, angle, qx, qy)
	m := c.lru.GetOrCreate(key, func() *Mask {
		params := NewParams(hardness, qRadius, roundness, angle)
		return Render(params, qRadius, float64(qx)/subpixelSteps, float64(qy)/subpixelSteps)
	})
	return m, float64(qx) / subpixelSteps, float64(qy) / subpixelSteps
}

// Stats returns cache hit/miss/eviction counters.
func (c *Cache) Stats() cache.Stats {
	return c.lru.Stats()
}

// Clear drops all cached masks.
func (c *Cache) Clear() {
	c.lru.Clear()
}
