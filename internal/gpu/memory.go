//go:build !nogpu

package gpu

import (
	"errors"

	"github.com/gogpu/demosaic/internal/plane"
)

// Memory errors.
var (
	// ErrMemoryBudgetExceeded is returned when a tile's buffers would
	// exceed the device budget.
	ErrMemoryBudgetExceeded = errors.New("gpu: memory budget exceeded")
)

// Memory limits.
const (
	// DefaultMaxMemoryMB is the default device budget for one tile (256 MB).
	DefaultMaxMemoryMB = 256

	// MinMemoryMB is the minimum allowed budget (16 MB).
	MinMemoryMB = 16

	// DeviceBytesPerPixel is the device memory one window pixel costs:
	// the raw sample, the image and its staging copy.
	DeviceBytesPerPixel = 4 + 2*plane.Channels*4

	// hostBytesPerPixel is the engine's arena cost of one pixel for the
	// kernels this package runs.
	hostBytesPerPixel = plane.Channels * 4
)

// budgetBytes clamps a budget in megabytes and converts it to bytes.
func budgetBytes(mb int) uint64 {
	if mb <= 0 {
		mb = DefaultMaxMemoryMB
	}
	mb = max(mb, MinMemoryMB)
	return uint64(mb) << 20 //nolint:gosec // mb > 0
}

// deviceBytes returns the device memory for a w x h tile.
func deviceBytes(w, h int) uint64 {
	return uint64(w*h)*DeviceBytesPerPixel + paramsSize + tableSize //nolint:gosec // tile sizes are positive
}

// hostBudget converts a device budget into the host arena units the
// engine sizes tiles with.
func hostBudget(device uint64) int64 {
	return int64((device - paramsSize - tableSize) / DeviceBytesPerPixel * hostBytesPerPixel) //nolint:gosec // budgets fit int64
}
