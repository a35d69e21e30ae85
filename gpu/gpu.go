//go:build !nogpu

// Package gpu registers the GPU tile accelerator.
//
// Import this package to run linear, PPG and passthrough tiles on the GPU
// through wgpu/hal compute shaders. Other methods, and every tile when no
// Vulkan device is available, run on the CPU.
//
// Usage:
//
//	import _ "github.com/gogpu/demosaic/gpu" // enable GPU acceleration
//
// Build with -tags nogpu to leave the package empty.
package gpu

import (
	"github.com/gogpu/demosaic"
	gpuimpl "github.com/gogpu/demosaic/internal/gpu"
	"github.com/gogpu/gpucontext"
)

func init() {
	accel := &gpuimpl.ComputeAccelerator{}
	if err := demosaic.RegisterAccelerator(accel); err != nil {
		demosaic.Logger().Warn("GPU accelerator not available", "err", err)
	}
}

// SetDeviceProvider configures the GPU accelerator to use a shared GPU
// device from an external provider. This avoids creating a separate GPU
// instance.
//
// The provider must also expose HalDevice() any and HalQueue() any for
// direct HAL access; other providers are rejected.
func SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	return demosaic.SetAcceleratorDeviceProvider(provider)
}
