//go:build !nogpu

// Package gpu runs demosaic tiles on the GPU.
//
// ComputeAccelerator implements demosaic.TileAccelerator with WGSL compute
// shaders driven through gogpu/wgpu/hal (Pure Go, zero CGO). It covers the
// cheap per-pixel kernels:
//
//   - Linear: bilinear interpolation, any CFA
//   - PPG: patterned pixel grouping without the median pre-filter, Bayer only
//   - Passthrough: monochrome copy, any CFA
//
// Every other method, and every tile the device cannot take, returns
// demosaic.ErrFallbackToCPU so the engine computes it on the CPU.
//
// # Tiles
//
// Each tile is one submission: the host fills the border the kernel's
// stencil cannot reach, uploads the raw window and the pre-filled image,
// dispatches one compute pass per kernel stage, and reads the image back.
// The engine pipelines tile preparation so the next window is packed
// while the current one runs.
//
// # Memory
//
// Device buffers cost DeviceBytesPerPixel per window pixel. MemoryBudget
// converts the configured budget into the host arena units the engine uses
// to size tiles, so every tile the engine plans fits on the device.
package gpu
