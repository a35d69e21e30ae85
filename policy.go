package demosaic

import (
	"fmt"

	"github.com/gogpu/demosaic/internal/interp"
)

// Scale thresholds of the quality policy.
const (
	// Below these scales a decimated sample is indistinguishable from a
	// full reconstruction. Interactive and export calls on X-Trans fall
	// back from the directional algorithms to VNG there.
	xtransDecimateScale = 1.0 / 3
	bayerDecimateScale  = 0.5

	// Below these scales VNG stops after its linear pass.
	xtransLinearScale = 0.5
	bayerLinearScale  = 0.667

	// Above this scale X-Trans previews run the directional algorithms.
	xtransFullScale = 0.667
)

// QualityPolicy is the per-call quality decision.
type QualityPolicy struct {
	// FullScale runs an interpolator instead of decimated sampling.
	FullScale bool

	// XTransFull allows Markesteijn and FDC on X-Trans; otherwise VNG
	// runs instead.
	XTransFull bool

	// OnlyLinearStage stops VNG after its linear base pass.
	OnlyLinearStage bool

	// MediumQuality caps Markesteijn3 and FDC at Markesteijn1.
	MediumQuality bool
}

// DecidePolicy evaluates the quality policy for a call producing an
// outW x outH image at the given scale.
func DecidePolicy(kind CFAKind, cfg Config, scale float64, outW, outH int) QualityPolicy {
	var p QualityPolicy
	decimate, linear := bayerDecimateScale, bayerLinearScale
	if kind == XTrans {
		decimate, linear = xtransDecimateScale, xtransLinearScale
	}

	switch cfg.Context {
	case ContextInteractive, ContextExport:
		p.FullScale = true
		p.XTransFull = scale > xtransDecimateScale
	case ContextPreview:
		p.MediumQuality = true
		p.FullScale = scale > decimate
	case ContextThumbnail:
		p.FullScale = max(outW, outH) >= cfg.ThumbnailQualityFloor
	}
	if kind == FourColor {
		p.FullScale = true
	}
	if p.FullScale && scale > xtransFullScale {
		p.XTransFull = true
	}
	p.OnlyLinearStage = p.FullScale && scale < linear
	return p
}

// Supports reports whether m can run on CFAs of the given kind.
func Supports(m Method, kind CFAKind) bool {
	switch m {
	case VNG, PassthroughMono, DecimatedSample, Linear:
		return true
	case PPG:
		return kind == Bayer
	case Markesteijn1, Markesteijn3, FDC:
		return kind == XTrans
	default:
		return false
	}
}

// substitute maps a method the CFA cannot run to its nearest equivalent.
func substitute(kind CFAKind) Method {
	switch kind {
	case XTrans:
		return Markesteijn1
	case Bayer:
		return PPG
	default:
		return VNG
	}
}

// resolveMethod applies CFA validity and the quality policy to the
// configured method.
func resolveMethod(cfg Config, kind CFAKind, p QualityPolicy) (Method, error) {
	m := cfg.Method
	if !Supports(m, kind) {
		if cfg.Backend == BackendCPU {
			return m, fmt.Errorf("%w: %s on %s", ErrUnsupportedCombination, m, kind)
		}
		m = substitute(kind)
	}
	if kind == FourColor && m != PassthroughMono && m != Linear {
		m = VNG
	}
	if m == PassthroughMono {
		return m, nil
	}
	if !p.FullScale {
		return DecimatedSample, nil
	}
	if kind == XTrans && !p.XTransFull && (m == Markesteijn1 || m == Markesteijn3 || m == FDC) {
		return VNG, nil
	}
	if p.MediumQuality && (m == Markesteijn3 || m == FDC) {
		return Markesteijn1, nil
	}
	return m, nil
}

// kernelSpec maps a resolved method onto an interpolator and its params.
// It reports false for methods that do not run per tile.
func kernelSpec(m Method, cfg Config, p QualityPolicy) (interp.Algorithm, interp.Params, bool) {
	params := interp.Params{
		MedianThreshold: cfg.MedianThreshold,
		Passes:          1,
		Sensitivity:     cfg.Sensitivity,
	}
	switch m {
	case PPG:
		return interp.PPG, params, true
	case VNG:
		params.OnlyLinear = p.OnlyLinearStage
		return interp.VNG, params, true
	case Markesteijn1:
		return interp.Markesteijn, params, true
	case Markesteijn3:
		params.Passes = 3
		return interp.Markesteijn, params, true
	case FDC:
		return interp.FDC, params, true
	case PassthroughMono:
		return interp.Passthrough, params, true
	case Linear:
		return interp.Linear, params, true
	}
	return 0, params, false
}
