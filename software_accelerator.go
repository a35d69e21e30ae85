package demosaic

import (
	"sync/atomic"

	"github.com/gogpu/demosaic/internal/interp"
	"github.com/gogpu/demosaic/internal/plane"
)

// SoftwareAccelerator is a CPU implementation of TileAccelerator. It runs
// the same kernels as the engine's CPU path one tile at a time, which
// makes it a reference backend for accelerator golden tests and a way to
// bound peak memory through the tiled path.
//
// Usage:
//
//	demosaic.RegisterAccelerator(&demosaic.SoftwareAccelerator{Budget: 64 << 20})
type SoftwareAccelerator struct {
	// Ops restricts the accepted operations. Zero accepts all.
	Ops AcceleratedOp

	// Budget is the per-tile memory budget in bytes, 0 for none.
	Budget int64

	tiles atomic.Int64
}

// Compile-time interface checks.
var (
	_ TileAccelerator = (*SoftwareAccelerator)(nil)
	_ MemoryBudgeter  = (*SoftwareAccelerator)(nil)
)

// Name returns the accelerator name.
func (a *SoftwareAccelerator) Name() string { return "cpu-tiled" }

// Init initializes the accelerator. No resources are needed.
func (a *SoftwareAccelerator) Init() error { return nil }

// Close releases resources. No-op for the CPU accelerator.
func (a *SoftwareAccelerator) Close() {}

// CanAccelerate reports whether op is within Ops.
func (a *SoftwareAccelerator) CanAccelerate(op AcceleratedOp) bool {
	if a.Ops == 0 {
		return op != 0
	}
	return a.Ops&op != 0
}

// MemoryBudget returns Budget.
func (a *SoftwareAccelerator) MemoryBudget() int64 { return a.Budget }

// Tiles returns the number of tiles run so far.
func (a *SoftwareAccelerator) Tiles() int64 { return a.tiles.Load() }

// RunTile reconstructs one tile on the calling goroutine.
func (a *SoftwareAccelerator) RunTile(req TileRequest) error {
	if !a.CanAccelerate(req.Op) {
		return ErrFallbackToCPU
	}
	k, err := kernelForRequest(req)
	if err != nil {
		return ErrFallbackToCPU
	}
	src := plane.Mosaic{
		Pix:    req.Source.Pix,
		Stride: req.Source.Stride,
		X0:     req.Source.X0,
		Y0:     req.Source.Y0,
		Width:  req.Source.Width,
		Height: req.Source.Height,
	}
	w, h := src.Width, src.Height
	arena := plane.NewArena(k.Scratch(w, h))
	k.Run(plane.WrapImage(req.Target.Pix, w, h), src, arena)
	a.tiles.Add(1)
	return nil
}

// kernelForRequest builds the CPU kernel matching a tile request.
func kernelForRequest(req TileRequest) (interp.Kernel, error) {
	var alg interp.Algorithm
	switch req.Op {
	case AccelLinear:
		alg = interp.Linear
	case AccelVNG:
		alg = interp.VNG
	case AccelPPG, AccelPPGMedian:
		alg = interp.PPG
	case AccelMarkesteijn:
		alg = interp.Markesteijn
	case AccelFDC:
		alg = interp.FDC
	case AccelPassthrough:
		alg = interp.Passthrough
	default:
		return nil, ErrFallbackToCPU
	}
	return interp.New(alg, req.Source.CFA, interp.Params{
		OnlyLinear:      req.OnlyLinear,
		MedianThreshold: req.MedianThreshold,
		Passes:          max(req.Passes, 1),
		Sensitivity:     req.Sensitivity,
	})
}
