package demosaic

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/demosaic/internal/interp"
	"github.com/gogpu/demosaic/internal/parallel"
	"github.com/gogpu/demosaic/internal/plane"
)

// reconstruct runs method over req.Region at full resolution and records
// the tiling in res. The kernel reads halo samples of context on every
// side of the region: real samples where the raw buffer has them, padding
// of the matching color past the sensor edge.
func (e *Engine) reconstruct(req *Request, method Method, pol QualityPolicy, res *Result, hash func() uint64) (*plane.Image, error) {
	cfg := req.Config
	alg, params, ok := kernelSpec(method, cfg, pol)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not run per tile", ErrUnsupportedCombination, method)
	}
	k, err := interp.New(alg, req.CFA, params)
	if err != nil {
		res.Reason = ReasonUnsupportedCombination
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedCombination, err)
	}
	halo := k.Halo()
	res.Halo = halo

	w, h := req.Region.Width, req.Region.Height
	out := plane.NewImage(w, h)
	equalize := func(m plane.Mosaic) plane.Mosaic {
		if method == PassthroughMono {
			return m
		}
		return e.equalizeGreens(m, req, hash)
	}
	src, padded := req.Raw.context(req.Region, halo, req.CFA)
	if !padded {
		// The buffer is smaller than the pattern, so some color has no
		// sample to pad with. Every pixel takes its nearest neighbors.
		interp.FillBorder(out, equalize(req.Raw.mosaic(req.Region)), req.CFA, max(w, h), false)
		res.Reason = ReasonDegenerateInput
		res.Tiles = 1
		Logger().Debug("demosaic: raw buffer too small to pad", "method", method, "width", w, "height", h)
		return out, nil
	}
	if w < 2*halo+1 || h < 2*halo+1 {
		res.Reason = ReasonDegenerateInput
		Logger().Debug("demosaic: degenerate region", "method", method, "width", w, "height", h, "halo", halo)
	}
	src = equalize(src)
	interior := image.Rect(halo, halo, halo+w, halo+h)

	op := opFor(method, cfg.MedianThreshold)
	acc := e.accelerator(cfg)
	if acc != nil && !acc.CanAccelerate(op) {
		Logger().Debug("demosaic: accelerator lacks method", "accelerator", acc.Name(), "method", method)
		acc = nil
	}

	limit := e.opts.memLimit
	if acc != nil {
		if mb, ok := acc.(MemoryBudgeter); ok && mb.MemoryBudget() > 0 {
			if limit <= 0 || mb.MemoryBudget() < limit {
				limit = mb.MemoryBudget()
			}
		}
	}
	size, err := chooseTileSize(alg, params, halo, e.opts.tileSize, src.Width, src.Height, limit)
	if err != nil {
		res.Reason = ReasonAllocationFailure
		return nil, err
	}
	plan, err := parallel.NewPlan(src.Width, src.Height, size, halo)
	if err != nil {
		res.Reason = ReasonAllocationFailure
		return nil, fmt.Errorf("%w: %w", ErrAllocationFailure, err)
	}
	plan.Restrict(interior)
	res.TileSize = size
	res.Tiles = len(plan.Tiles)

	mw, mh := plan.MaxWindow()
	n := arenaSize(k, mw, mh)
	Logger().Debug("demosaic: tile plan",
		"method", method, "halo", halo, "size", size,
		"cols", plan.Cols, "rows", plan.Rows, "arena", n*bytesPerSample)

	if acc == nil {
		e.runCPU(plan, k, src, out, interior.Min, n)
		return out, nil
	}
	if e.runAccelerated(acc, plan, k, src, out, interior.Min, n, tileRequest(op, cfg, params, req.CFA)) {
		res.Backend = acc.Name()
	}
	return out, nil
}

// runCPU computes every tile on the worker pool. Tile interiors land in
// out relative to origin.
func (e *Engine) runCPU(plan *parallel.Plan, k interp.Kernel, src plane.Mosaic, out *plane.Image, origin image.Point, n int) {
	jobs := make([]func(), len(plan.Tiles))
	for i, t := range plan.Tiles {
		jobs[i] = func() {
			arena := e.arenas.Get(n)
			defer e.arenas.Put(arena)
			win := src.Sub(t.Window)
			dst := arena.Image(win.Width, win.Height)
			k.Run(dst, win, arena)
			out.CopyRect(t.Interior.Min.Sub(origin), dst, t.Local())
		}
	}
	e.workers.ExecuteAll(jobs)
}

// preparedTile is an accelerator tile with its CPU fallback state.
type preparedTile struct {
	tile  parallel.Tile
	win   plane.Mosaic
	arena *plane.Arena
	dst   *plane.Image
	req   TileRequest
}

// runAccelerated launches tiles on acc in order while the next tile is
// prepared. A tile the accelerator declines is computed by k. It reports
// whether any tile ran on the accelerator.
func (e *Engine) runAccelerated(acc TileAccelerator, plan *parallel.Plan, k interp.Kernel, src plane.Mosaic, out *plane.Image, origin image.Point, n int, base TileRequest) bool {
	accelerated, fallbacks := 0, 0
	prepare := func(i int) preparedTile {
		t := plan.Tiles[i]
		win := src.Sub(t.Window)
		arena := e.arenas.Get(n)
		dst := arena.Image(win.Width, win.Height)
		req := base
		req.Source.Pix = win.Pix
		req.Source.Stride = win.Stride
		req.Source.X0, req.Source.Y0 = win.X0, win.Y0
		req.Source.Width, req.Source.Height = win.Width, win.Height
		req.Target = TileTarget{Pix: dst.Pix, Width: win.Width, Height: win.Height}
		return preparedTile{tile: t, win: win, arena: arena, dst: dst, req: req}
	}
	run := func(_ int, p preparedTile) {
		if err := acc.RunTile(p.req); err != nil {
			if !errors.Is(err, ErrFallbackToCPU) {
				Logger().Warn("demosaic: accelerator tile failed, falling back to CPU",
					"accelerator", acc.Name(), "tile", p.tile.Index, "err", err)
			}
			k.Run(p.dst, p.win, p.arena)
			fallbacks++
		} else {
			accelerated++
		}
		out.CopyRect(p.tile.Interior.Min.Sub(origin), p.dst, p.tile.Local())
		e.arenas.Put(p.arena)
	}
	parallel.Pipeline(len(plan.Tiles), prepare, run)

	if fallbacks > 0 {
		Logger().Warn("demosaic: tiles computed on CPU",
			"accelerator", acc.Name(), "fallbacks", fallbacks, "tiles", len(plan.Tiles))
	}
	return accelerated > 0
}

// tileRequest fills the per-call fields of a TileRequest.
func tileRequest(op AcceleratedOp, cfg Config, params interp.Params, pat *CFA) TileRequest {
	return TileRequest{
		Op:              op,
		Source:          TileSource{CFA: pat},
		MedianThreshold: cfg.MedianThreshold,
		Passes:          params.Passes,
		OnlyLinear:      params.OnlyLinear,
		Sensitivity:     params.Sensitivity,
	}
}
