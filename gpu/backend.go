//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	wgputypes "github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/core"

	"github.com/gogpu/easel"
)

// Backend errors.
var (
	// ErrNoGPU means no compatible adapter was found.
	ErrNoGPU = errors.New("gpu: no compatible adapter found")

	// ErrNotInitialized means the backend has not been initialized.
	ErrNotInitialized = errors.New("gpu: backend not initialized")
)

// GPUInfo contains information about the selected GPU.
type GPUInfo struct {
	// Name is the GPU name (e.g., "NVIDIA GeForce RTX 3080").
	Name string
	// Vendor is the GPU vendor.
	Vendor string
	// DeviceType is the type of GPU (discrete, integrated, etc.).
	DeviceType wgputypes.DeviceType
	// Backend is the graphics API in use (Vulkan, Metal, DX12).
	Backend wgputypes.Backend
	// Driver is the driver version string.
	Driver string
}

// String returns a human-readable description of the GPU.
func (g *GPUInfo) String() string {
	return fmt.Sprintf("%s (%s, %s)", g.Name, g.DeviceType, g.Backend)
}

// DeviceHandle provides GPU device access from a host application.
// The host (e.g., a gogpu.App) implements it and passes it in via
// SetDeviceProvider, so easel shares the host's device instead of
// creating its own.
type DeviceHandle = gpucontext.DeviceProvider

// Backend owns the wgpu instance, adapter, device and queue used by
// the painting device.
type Backend struct {
	mu sync.RWMutex

	instance *core.Instance
	adapter  core.AdapterID
	device   core.DeviceID
	queue    core.QueueID

	// shared is set when the host provides its device; the backend
	// then skips instance and adapter creation entirely.
	shared      DeviceHandle
	sharedDev   gpucontext.Device
	sharedQueue gpucontext.Queue

	gpuInfo     *GPUInfo
	initialized bool
}

// NewBackend creates an uninitialized backend.
func NewBackend() *Backend {
	return &Backend{}
}

// SetDeviceProvider adopts a shared device from the host. Must be
// called before Init has created the backend's own device; afterwards
// the backend keeps what it has.
func (b *Backend) SetDeviceProvider(provider DeviceHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.initialized && !b.device.IsZero() {
		return errors.New("gpu: backend already owns a device")
	}
	b.shared = provider
	b.sharedDev = provider.Device()
	b.sharedQueue = provider.Queue()
	b.initialized = true
	easel.Logger().Info("gpu: using shared device from host provider")
	return nil
}

// Init creates the instance, requests an adapter, creates a device and
// retrieves its queue. No-op when a shared device was adopted.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return nil
	}

	desc := &gputypes.InstanceDescriptor{
		Backends: gputypes.BackendsPrimary,
		Flags:    0,
	}
	b.instance = core.NewInstance(desc)

	adapterID, err := b.instance.RequestAdapter(&gputypes.RequestAdapterOptions{
		PowerPreference: gputypes.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoGPU, err)
	}
	b.adapter = adapterID

	if info, err := getGPUInfo(adapterID); err == nil {
		b.gpuInfo = info
		easel.Logger().Info("gpu: adapter selected", "gpu", info.String(), "driver", info.Driver)
	}

	deviceID, err := createDevice(adapterID, "easel-wgpu-device")
	if err != nil {
		return fmt.Errorf("device creation failed: %w", err)
	}
	b.device = deviceID

	queueID, err := getDeviceQueue(deviceID)
	if err != nil {
		_ = releaseDevice(deviceID)
		return fmt.Errorf("queue retrieval failed: %w", err)
	}
	b.queue = queueID

	b.initialized = true
	return nil
}

// Close releases all backend resources in reverse order of creation.
// Shared devices belong to the host and are left alone.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return
	}

	if b.shared == nil {
		if !b.device.IsZero() {
			if err := releaseDevice(b.device); err != nil {
				easel.Logger().Warn("gpu: error releasing device", "err", err)
			}
		}
		if !b.adapter.IsZero() {
			if err := releaseAdapter(b.adapter); err != nil {
				easel.Logger().Warn("gpu: error releasing adapter", "err", err)
			}
		}
	}

	b.instance = nil
	b.adapter = core.AdapterID{}
	b.device = core.DeviceID{}
	b.queue = core.QueueID{}
	b.shared = nil
	b.sharedDev = nil
	b.sharedQueue = nil
	b.gpuInfo = nil
	b.initialized = false
}

// IsInitialized reports whether the backend is ready for use.
func (b *Backend) IsInitialized() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.initialized
}

// GPUInfo returns information about the selected GPU, or nil when
// uninitialized or running on a shared device.
func (b *Backend) GPUInfo() *GPUInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.gpuInfo
}

// Device returns the wgpu device ID; zero for shared devices.
func (b *Backend) Device() core.DeviceID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.device
}

// Queue returns the wgpu queue ID; zero for shared devices.
func (b *Backend) Queue() core.QueueID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.queue
}

// getGPUInfo retrieves information about the GPU adapter.
func getGPUInfo(adapterID core.AdapterID) (*GPUInfo, error) {
	info, err := core.GetAdapterInfo(adapterID)
	if err != nil {
		return nil, fmt.Errorf("failed to get adapter info: %w", err)
	}
	return &GPUInfo{
		Name:       info.Name,
		Vendor:     info.Vendor,
		DeviceType: info.DeviceType,
		Backend:    info.Backend,
		Driver:     info.Driver,
	}, nil
}

// createDevice creates a logical device from an adapter.
func createDevice(adapterID core.AdapterID, label string) (core.DeviceID, error) {
	desc := &wgputypes.DeviceDescriptor{
		Label:            label,
		RequiredFeatures: nil,
		RequiredLimits:   wgputypes.DefaultLimits(),
	}
	deviceID, err := core.RequestDevice(adapterID, desc)
	if err != nil {
		return core.DeviceID{}, fmt.Errorf("failed to create device: %w", err)
	}
	return deviceID, nil
}

// getDeviceQueue retrieves the queue associated with a device.
func getDeviceQueue(deviceID core.DeviceID) (core.QueueID, error) {
	queueID, err := core.GetDeviceQueue(deviceID)
	if err != nil {
		return core.QueueID{}, fmt.Errorf("failed to get device queue: %w", err)
	}
	return queueID, nil
}

// releaseDevice releases a device and its associated resources.
func releaseDevice(deviceID core.DeviceID) error {
	if deviceID.IsZero() {
		return nil
	}
	if err := core.DeviceDrop(deviceID); err != nil {
		return fmt.Errorf("failed to release device: %w", err)
	}
	return nil
}

// releaseAdapter releases an adapter.
func releaseAdapter(adapterID core.AdapterID) error {
	if adapterID.IsZero() {
		return nil
	}
	if err := core.AdapterDrop(adapterID); err != nil {
		return fmt.Errorf("failed to release adapter: %w", err)
	}
	return nil
}
