//go:build !nogpu

// Package gpu registers the wgpu painting device for hardware-
// accelerated strokes.
//
// Import this package to route dab stamping, stroke commits and undo
// snapshots through a WebGPU device. If GPU initialization fails (no
// Vulkan/Metal/DX12 available), the registration is silently skipped
// and painting falls back to the built-in software device.
//
// Usage:
//
//	import _ "github.com/gogpu/easel/gpu" // enable GPU acceleration
package gpu

import (
	"github.com/gogpu/easel"
)

func init() {
	if err := easel.RegisterDevice(New()); err != nil {
		easel.Logger().Warn("GPU device not available", "err", err)
	}
}

// SetDeviceProvider configures the wgpu backend to use a shared GPU
// device from an external provider (e.g., gogpu) instead of creating
// its own instance. Call this before the first stroke; typically from
// host integration code right after the blank import runs.
func SetDeviceProvider(provider DeviceHandle) error {
	d, ok := easel.RegisteredDevice().(*Device)
	if !ok || d == nil {
		return ErrNotInitialized
	}
	return d.backend.SetDeviceProvider(provider)
}
