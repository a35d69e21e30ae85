package demosaic

import (
	"errors"
	"sync"
)

// AcceleratedOp describes algorithm types for accelerator capability checks.
type AcceleratedOp uint32

const (
	// AccelLinear represents bilinear interpolation.
	AccelLinear AcceleratedOp = 1 << iota

	// AccelVNG represents VNG, including its linear-only variant.
	AccelVNG

	// AccelPPG represents PPG without the median pre-filter.
	AccelPPG

	// AccelPPGMedian represents PPG with the median pre-filter.
	AccelPPGMedian

	// AccelMarkesteijn represents one- and three-pass Markesteijn.
	AccelMarkesteijn

	// AccelFDC represents frequency domain chroma.
	AccelFDC

	// AccelPassthrough represents monochrome passthrough.
	AccelPassthrough
)

// TileSource is the read-only mosaic window of one tile.
//
// Sample (y, x) of the window is Pix[y*Stride+x]. X0 and Y0 are the sensor
// coordinates of sample (0, 0), which fix the CFA phase.
type TileSource struct {
	Pix           []float32
	Stride        int
	X0, Y0        int
	Width, Height int
	CFA           *CFA
}

// TileTarget receives the reconstructed window: Width*Height pixels of
// four interleaved channels, R, G, B and the fourth filter color.
type TileTarget struct {
	Pix           []float32
	Width, Height int
}

// TileRequest is one tile handed to an accelerator. The accelerator must
// write every pixel of Target.
type TileRequest struct {
	Op     AcceleratedOp
	Source TileSource
	Target TileTarget

	// MedianThreshold is set for AccelPPGMedian.
	MedianThreshold float32

	// Passes is the Markesteijn pass count.
	Passes int

	// OnlyLinear stops VNG after the linear pass.
	OnlyLinear bool

	// Sensitivity drives the FDC chroma blend.
	Sensitivity float64
}

// TileAccelerator is an optional demosaic acceleration provider.
//
// When registered via RegisterAccelerator, the engine dispatches tiles to
// it for supported operations. If RunTile returns ErrFallbackToCPU or any
// other error, that tile transparently falls back to the CPU kernel.
//
// Implementations should be provided by backend packages (e.g., demosaic/gpu/).
// Users opt in via blank import:
//
//	import _ "github.com/gogpu/demosaic/gpu" // enables GPU acceleration
type TileAccelerator interface {
	// Name returns the accelerator name (e.g., "wgpu", "cpu-tiled").
	Name() string

	// Init initializes resources. Called once during registration.
	Init() error

	// Close releases resources.
	Close()

	// CanAccelerate reports whether the accelerator supports the operation.
	// This is a fast check used to skip the accelerator entirely.
	CanAccelerate(op AcceleratedOp) bool

	// RunTile reconstructs one tile. Tiles of one call arrive in order.
	RunTile(req TileRequest) error
}

// MemoryBudgeter is an optional interface for accelerators with a fixed
// per-tile memory budget. The engine sizes tiles so that
// RequiredTileMemory stays within MemoryBudget.
type MemoryBudgeter interface {
	MemoryBudget() int64
}

// DeviceProviderAware is an optional interface for accelerators that can share
// GPU resources with an external provider (e.g., a gogpu window).
// When SetDeviceProvider is called, the accelerator reuses the provided GPU
// device instead of creating its own.
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

var (
	accelMu sync.RWMutex
	accel   TileAccelerator
)

// RegisterAccelerator registers the process-wide tile accelerator.
//
// Only one accelerator can be registered. Subsequent calls replace the previous one,
// which is closed. The accelerator's Init() method is called during registration.
// If Init() fails, the accelerator is not registered and the error is returned.
//
// Typical usage via blank import in backend packages:
//
//	func init() {
//	    demosaic.RegisterAccelerator(NewAccelerator())
//	}
func RegisterAccelerator(a TileAccelerator) error {
	if a == nil {
		return errors.New("demosaic: accelerator must not be nil")
	}
	if err := a.Init(); err != nil {
		return err
	}
	accelMu.Lock()
	old := accel
	accel = a
	accelMu.Unlock()
	if old != nil && old != a {
		old.Close()
	}
	propagateLogger(a, Logger())
	return nil
}

// Accelerator returns the currently registered accelerator, or nil if none.
func Accelerator() TileAccelerator {
	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	return a
}

// SetAcceleratorDeviceProvider passes a device provider to the registered
// accelerator, enabling GPU device sharing. If no accelerator is registered
// or it doesn't support device sharing, this is a no-op.
func SetAcceleratorDeviceProvider(provider any) error {
	a := Accelerator()
	if a == nil {
		return nil
	}
	if dpa, ok := a.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}

// opFor maps a resolved method to its accelerator operation.
func opFor(m Method, medianThreshold float32) AcceleratedOp {
	switch m {
	case Linear:
		return AccelLinear
	case VNG:
		return AccelVNG
	case PPG:
		if medianThreshold > 0 {
			return AccelPPGMedian
		}
		return AccelPPG
	case Markesteijn1, Markesteijn3:
		return AccelMarkesteijn
	case FDC:
		return AccelFDC
	case PassthroughMono:
		return AccelPassthrough
	}
	return 0
}
