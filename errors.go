package demosaic

import (
	"errors"
	"fmt"
)

var (
	// ErrAllocationFailure means the scratch memory for even the smallest
	// tile exceeds the configured budget. No output is produced.
	ErrAllocationFailure = errors.New("demosaic: scratch allocation failed")

	// ErrUnsupportedCombination means the requested method cannot run on
	// the CFA kind and the CPU backend was requested explicitly.
	ErrUnsupportedCombination = errors.New("demosaic: method not supported for this CFA")

	// ErrInvalidRegion means the region is empty, lies outside the raw
	// buffer, or is not aligned to the CFA period.
	ErrInvalidRegion = errors.New("demosaic: invalid region")

	// ErrInvalidConfig is returned for out-of-range configuration values.
	ErrInvalidConfig = errors.New("demosaic: invalid config")

	// ErrFallbackToCPU indicates the accelerator cannot run this tile.
	// The engine computes the tile on the CPU instead.
	ErrFallbackToCPU = errors.New("demosaic: falling back to CPU")
)

// Reason classifies the outcome of a Process call.
type Reason uint8

const (
	// ReasonNone is a normal, complete reconstruction.
	ReasonNone Reason = iota

	// ReasonAllocationFailure accompanies ErrAllocationFailure.
	ReasonAllocationFailure

	// ReasonUnsupportedCombination accompanies ErrUnsupportedCombination.
	ReasonUnsupportedCombination

	// ReasonDegenerateInput marks a successful call whose region was
	// smaller than twice the kernel halo. The kernel still ran over the
	// region's padded context, unless the raw buffer was too small to pad
	// and a nearest-neighbor fill covered the region.
	ReasonDegenerateInput
)

var reasonNames = [...]string{"none", "allocation-failure", "unsupported-combination", "degenerate-input"}

// String returns a short name for the reason.
func (r Reason) String() string {
	if int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

// Fatal reports whether the reason means no output was produced.
func (r Reason) Fatal() bool {
	return r == ReasonAllocationFailure || r == ReasonUnsupportedCombination
}
