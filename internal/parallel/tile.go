// Package parallel splits a region into overlapping tiles and runs them
// concurrently.
//
// A tile owns an interior rectangle of the output. Its window is the
// interior grown by the kernel halo and clipped to the region, so each
// interior can be computed independently from read-only source samples.
// Interiors partition the region exactly.
package parallel

import (
	"errors"
	"image"
)

// DefaultTileSize is the window side used when no memory limit applies.
const DefaultTileSize = 512

// ErrTileTooSmall is returned when the tile size leaves no interior once
// the halo is removed.
var ErrTileTooSmall = errors.New("parallel: tile size leaves no interior")

// Tile is one unit of interpolation work.
type Tile struct {
	// Index is the tile's position in Plan.Tiles.
	Index int

	// Interior is the part of the region this tile writes.
	Interior image.Rectangle

	// Window is the part of the region this tile reads.
	Window image.Rectangle
}

// Local returns the interior in window coordinates.
func (t Tile) Local() image.Rectangle {
	return t.Interior.Sub(t.Window.Min)
}

// Plan is a tiling of a region.
type Plan struct {
	Tiles      []Tile
	Cols, Rows int
	Halo       int
	Size       int
}

// NewPlan tiles a w x h region with windows of at most size x size. Along
// an axis that fits in one window the whole extent is a single tile with
// no halo.
func NewPlan(w, h, size, halo int) (*Plan, error) {
	if w <= 0 || h <= 0 {
		return &Plan{Halo: halo, Size: size}, nil
	}
	xs, err := spans(w, size, halo)
	if err != nil {
		return nil, err
	}
	ys, err := spans(h, size, halo)
	if err != nil {
		return nil, err
	}

	p := &Plan{
		Tiles: make([]Tile, 0, len(xs)*len(ys)),
		Cols:  len(xs),
		Rows:  len(ys),
		Halo:  halo,
		Size:  size,
	}
	region := image.Rect(0, 0, w, h)
	for _, y := range ys {
		for _, x := range xs {
			interior := image.Rect(x[0], y[0], x[1], y[1])
			window := interior.Inset(-halo).Intersect(region)
			p.Tiles = append(p.Tiles, Tile{Index: len(p.Tiles), Interior: interior, Window: window})
		}
	}
	return p, nil
}

// Restrict keeps the part of the plan that writes r. Interiors are clipped
// to r, tiles left empty are dropped and the rest are renumbered. Windows
// are unchanged, so a tile still reads the context it was planned with.
func (p *Plan) Restrict(r image.Rectangle) {
	kept := p.Tiles[:0]
	cols, rows := map[int]bool{}, map[int]bool{}
	for _, t := range p.Tiles {
		t.Interior = t.Interior.Intersect(r)
		if t.Interior.Empty() {
			continue
		}
		t.Index = len(kept)
		kept = append(kept, t)
		cols[t.Interior.Min.X] = true
		rows[t.Interior.Min.Y] = true
	}
	p.Tiles = kept
	p.Cols, p.Rows = len(cols), len(rows)
}

// spans splits [0, n) into interiors whose haloed extent fits size.
func spans(n, size, halo int) ([][2]int, error) {
	if n <= size {
		return [][2]int{{0, n}}, nil
	}
	step := size - 2*halo
	if step < 1 {
		return nil, ErrTileTooSmall
	}
	out := make([][2]int, 0, (n+step-1)/step)
	for lo := 0; lo < n; lo += step {
		out = append(out, [2]int{lo, min(lo+step, n)})
	}
	return out, nil
}

// MaxWindow returns the largest window width and height in the plan.
func (p *Plan) MaxWindow() (w, h int) {
	for _, t := range p.Tiles {
		w = max(w, t.Window.Dx())
		h = max(h, t.Window.Dy())
	}
	return w, h
}
