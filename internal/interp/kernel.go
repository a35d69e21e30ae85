// Package interp implements the CFA interpolators.
//
// Every interpolator is a Kernel that reconstructs a four-channel image
// for one mosaic window. A kernel's output at a pixel depends only on
// samples within Halo pixels of it and on where the window edges lie
// within that distance, so tiles that overlap by Halo stitch into the
// same result as a single untiled run.
package interp

import (
	"errors"
	"fmt"

	"github.com/gogpu/demosaic/internal/cfa"
	"github.com/gogpu/demosaic/internal/plane"
)

// Algorithm identifies an interpolator.
type Algorithm int

const (
	Linear Algorithm = iota
	VNG
	PPG
	Markesteijn
	FDC
	Passthrough
)

var algorithmNames = [...]string{"linear", "vng", "ppg", "markesteijn", "fdc", "passthrough"}

// String returns the algorithm name.
func (a Algorithm) String() string {
	if a >= 0 && int(a) < len(algorithmNames) {
		return algorithmNames[a]
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// ErrUnsupported is returned by New for an algorithm that cannot run on
// the given pattern.
var ErrUnsupported = errors.New("interp: algorithm does not support this pattern")

// Params tunes a kernel.
type Params struct {
	// OnlyLinear stops VNG after its linear base pass.
	OnlyLinear bool

	// MedianThreshold enables the PPG green median pre-filter when > 0.
	MedianThreshold float32

	// Passes is the Markesteijn pass count, 1 to 3.
	Passes int

	// Sensitivity drives the FDC chroma blend.
	Sensitivity float64
}

// Kernel reconstructs RGB for one mosaic window.
type Kernel interface {
	// Algorithm identifies the kernel.
	Algorithm() Algorithm

	// Halo is the overlap tiles need for their interiors to match an
	// untiled run.
	Halo() int

	// Scratch returns the arena size, in float32 values, Run needs for a
	// w x h window.
	Scratch(w, h int) int

	// Run writes every pixel of dst, which must have src's dimensions.
	Run(dst *plane.Image, src plane.Mosaic, arena *plane.Arena)
}

// Supports reports whether alg can run on patterns of the given kind.
func Supports(alg Algorithm, kind cfa.Kind) bool {
	switch alg {
	case Linear, VNG, Passthrough:
		return true
	case PPG:
		return kind == cfa.Bayer
	case Markesteijn, FDC:
		return kind == cfa.XTrans
	default:
		return false
	}
}

// New returns the kernel for alg on pat.
func New(alg Algorithm, pat *cfa.Pattern, p Params) (Kernel, error) {
	if !Supports(alg, pat.Kind()) {
		return nil, fmt.Errorf("%w: %s on %s", ErrUnsupported, alg, pat.Kind())
	}
	switch alg {
	case Linear:
		return &linear{pat: pat}, nil
	case VNG:
		return &vng{pat: pat, onlyLinear: p.OnlyLinear}, nil
	case PPG:
		return &ppg{pat: pat, threshold: p.MedianThreshold}, nil
	case Markesteijn:
		return newMarkesteijn(pat, p.Passes)
	case FDC:
		return newFDC(pat, p.Sensitivity)
	case Passthrough:
		return &passthrough{pat: pat}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, alg)
}

// mergeGreens folds the second bayer green into the green channel.
func mergeGreens(dst *plane.Image, pat *cfa.Pattern) {
	if pat.Kind() != cfa.Bayer {
		return
	}
	for i := 0; i < len(dst.Pix); i += plane.Channels {
		dst.Pix[i+1] = (dst.Pix[i+1] + dst.Pix[i+3]) * 0.5
		dst.Pix[i+3] = 0
	}
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func clampf(v, lo, hi float32) float32 {
	return max(min(v, hi), lo)
}
