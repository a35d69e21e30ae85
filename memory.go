package demosaic

import (
	"fmt"

	"github.com/gogpu/demosaic/internal/cfa"
	"github.com/gogpu/demosaic/internal/interp"
	"github.com/gogpu/demosaic/internal/parallel"
	"github.com/gogpu/demosaic/internal/plane"
)

// minTileInterior is the smallest interior side a tile may have.
const minTileInterior = 16

// bytesPerSample is the size of one float32 scratch value.
const bytesPerSample = 4

// Kernel scratch does not depend on the phase layout, only on the kind,
// so one pattern per kind sizes every estimate.
var (
	estimateBayer  = cfa.NewBayer(cfa.RGGB)
	estimateXTrans = cfa.DefaultXTrans()
)

// RequiredTileMemory returns the bytes the CPU kernels allocate to
// reconstruct a w x h input tile with method: the four-channel tile
// image plus the kernel's scratch arena. The PPG figure includes the
// median pre-filter. Methods that do not run per tile need only the
// tile image.
func RequiredTileMemory(method Method, w, h int) int64 {
	cfg := DefaultConfig()
	cfg.MedianThreshold = 1
	alg, params, ok := kernelSpec(method, cfg, QualityPolicy{FullScale: true})
	if !ok {
		return tileBytes(w, h, 0)
	}
	return tileMemory(alg, params, w, h)
}

// tileMemory is the exact arena size, in bytes, for one w x h tile.
func tileMemory(alg interp.Algorithm, params interp.Params, w, h int) int64 {
	pat := estimateBayer
	if alg == interp.Markesteijn || alg == interp.FDC {
		pat = estimateXTrans
	}
	k, err := interp.New(alg, pat, params)
	if err != nil {
		return tileBytes(w, h, 0)
	}
	return tileBytes(w, h, k.Scratch(w, h))
}

func tileBytes(w, h, scratch int) int64 {
	return int64(w*h*plane.Channels+scratch) * bytesPerSample
}

// arenaSize is tileMemory in float32 values.
func arenaSize(k interp.Kernel, w, h int) int {
	return w*h*plane.Channels + k.Scratch(w, h)
}

// chooseTileSize returns the largest square window side whose arena fits
// limit, capped at maxSize. A limit <= 0 means unbounded. The smallest
// acceptable side leaves an interior of minTileInterior, or covers the
// whole region when that is smaller.
func chooseTileSize(alg interp.Algorithm, params interp.Params, halo, maxSize, w, h int, limit int64) (int, error) {
	if maxSize <= 0 {
		maxSize = parallel.DefaultTileSize
	}
	lo := min(2*halo+minTileInterior, max(w, h))
	if limit <= 0 {
		return max(lo, maxSize), nil
	}

	fits := func(s int) bool {
		return tileMemory(alg, params, min(s, w), min(s, h)) <= limit
	}
	if !fits(lo) {
		return 0, fmt.Errorf("%w: %s tile of %dx%d needs %d bytes, limit %d",
			ErrAllocationFailure, alg, min(lo, w), min(lo, h),
			tileMemory(alg, params, min(lo, w), min(lo, h)), limit)
	}
	hi := max(lo, maxSize)
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		if fits(mid) {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, nil
}
