package demosaic

import (
	"fmt"
	"sync"

	"github.com/gogpu/demosaic/internal/filter"
	"github.com/gogpu/demosaic/internal/interp"
	"github.com/gogpu/demosaic/internal/parallel"
	"github.com/gogpu/demosaic/internal/plane"
)

// Engine runs demosaic requests. It owns a CPU worker pool and pooled
// tile arenas; requests may be processed concurrently.
type Engine struct {
	opts     engineOptions
	workers  *parallel.WorkerPool
	arenas   parallel.ArenaPool
	ambient  *AmbientStore
	previews *PreviewCache
}

// NewEngine creates an engine with the given options.
func NewEngine(opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	e := &Engine{
		opts:     o,
		workers:  parallel.NewWorkerPool(o.workers),
		ambient:  o.ambient,
		previews: o.previews,
	}
	if e.ambient == nil {
		e.ambient = NewAmbientStore()
	}
	return e
}

// Close stops the worker pool. Calls after Close still complete, on the
// calling goroutine.
func (e *Engine) Close() {
	e.workers.Close()
}

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
)

// Process runs req on a shared engine with default options.
func Process(req Request) (*Result, error) {
	defaultOnce.Do(func() { defaultEngine = NewEngine() })
	return defaultEngine.Process(req)
}

// accelerator returns the engine's accelerator for cfg, or nil.
func (e *Engine) accelerator(cfg Config) TileAccelerator {
	if cfg.Backend == BackendCPU {
		return nil
	}
	if e.opts.accelSet {
		return e.opts.accel
	}
	return Accelerator()
}

// Process reconstructs req.Region of req.Raw.
//
// On ErrAllocationFailure and ErrUnsupportedCombination the returned
// Result carries the matching Reason and no Output. Contract violations
// (bad region, scale or config) return a nil Result.
func (e *Engine) Process(req Request) (*Result, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}
	cfg := req.Config
	pat := req.CFA
	kind := pat.Kind()
	outW, outH := req.OutputSize()

	pol := DecidePolicy(kind, cfg, req.Scale, outW, outH)
	method, err := resolveMethod(cfg, kind, pol)
	if err != nil {
		return &Result{Reason: ReasonUnsupportedCombination, Method: method, Policy: pol}, err
	}
	Logger().Debug("demosaic: policy",
		"cfa", pat, "context", cfg.Context, "scale", req.Scale,
		"requested", cfg.Method, "method", method,
		"full", pol.FullScale, "xtransFull", pol.XTransFull,
		"onlyLinear", pol.OnlyLinearStage, "medium", pol.MediumQuality)

	var hash uint64
	hashed := false
	rawHashOnce := func() uint64 {
		if !hashed {
			hash, hashed = rawHash(req.Raw), true
		}
		return hash
	}

	var key PreviewKey
	useCache := e.previews != nil && (cfg.Context == ContextPreview || cfg.Context == ContextThumbnail)
	if useCache {
		key = previewKey(rawHashOnce(), &req)
		if buf, ok := e.previews.Checkout(key); ok {
			out := buf.Clone()
			e.previews.Checkin(key, buf)
			Logger().Debug("demosaic: preview cache hit", "key", uint64(key))
			return &Result{Output: out, Method: method, Policy: pol, Backend: "cache", FromCache: true}, nil
		}
	}

	res := &Result{Method: method, Policy: pol, Backend: "cpu"}
	var img *plane.Image
	if method == DecimatedSample {
		src := e.equalizeGreens(req.Raw.mosaic(req.Region), &req, rawHashOnce)
		img = interp.Decimate(src, pat, outW, outH)
		res.Tiles = 1
	} else {
		img, err = e.reconstruct(&req, method, pol, res, rawHashOnce)
		if err != nil {
			return res, err
		}
		filter.Smooth(img, cfg.ColorSmoothingPasses)
		if img.Width != outW || img.Height != outH {
			img = plane.Resize(img, outW, outH)
		}
	}

	channels := 3
	if kind == FourColor {
		channels = 4
	}
	res.Output = newOutput(img, channels)
	if useCache {
		e.previews.Checkin(key, res.Output.Clone())
	}
	return res, nil
}

func validateRequest(req *Request) error {
	if err := req.Raw.validate(); err != nil {
		return err
	}
	if req.CFA == nil {
		return fmt.Errorf("%w: nil CFA", ErrInvalidConfig)
	}
	if !(req.Scale > 0 && req.Scale <= 1) {
		return fmt.Errorf("%w: scale %v outside (0, 1]", ErrInvalidConfig, req.Scale)
	}
	if err := req.Config.Validate(); err != nil {
		return err
	}
	return req.Region.validate(req.Raw, req.CFA.Period())
}

// equalizeGreens applies the configured green equalization to a copy of
// src. The global ratio is measured over the whole raw buffer and shared
// through the ambient store.
func (e *Engine) equalizeGreens(src plane.Mosaic, req *Request, hash func() uint64) plane.Mosaic {
	mode := req.Config.GreenEq
	if mode == GreenEqNone || req.CFA.Kind() != Bayer {
		return src
	}
	out := src.Clone()
	if mode == GreenEqGlobal || mode == GreenEqBoth {
		p := e.ambient.LoadOrCompute(hash(), func() AmbientParams {
			ratio, ok := filter.GreenRatio(req.Raw.mosaic(req.Raw.Bounds()), req.CFA)
			return AmbientParams{GreenRatio: ratio, GreenRatioValid: ok}
		})
		if p.GreenRatioValid {
			filter.ScaleGreen(out, req.CFA, p.GreenRatio)
		}
		Logger().Debug("demosaic: global green ratio", "ratio", p.GreenRatio, "valid", p.GreenRatioValid)
	}
	if mode == GreenEqLocal || mode == GreenEqBoth {
		local := out.Clone()
		filter.EqualizeLocal(local, out, req.CFA, req.Config.GreenEqThreshold)
		out = local
	}
	return out
}
