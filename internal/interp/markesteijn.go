package interp

import (
	"fmt"
	"image"
	"math"

	"github.com/gogpu/demosaic/internal/cfa"
	"github.com/gogpu/demosaic/internal/plane"
)

// Direction indexes the candidate reconstructions of the Markesteijn
// interpolator. With more than one pass, candidates Direction+4 hold the
// refined copy of each axis.
type Direction int

const (
	Horizontal Direction = iota
	Vertical
	Diagonal
	AntiDiagonal
	numAxes
)

// directionOf classifies an offset by the axis it runs along.
func directionOf(o cfa.Offset) Direction {
	switch {
	case o.DY == 0:
		return Horizontal
	case o.DX == 0:
		return Vertical
	case o.DY*o.DX > 0:
		return Diagonal
	default:
		return AntiDiagonal
	}
}

// axisStep is the unit step used to measure activity along each axis.
var axisStep = [numAxes]cfa.Offset{{DY: 0, DX: 1}, {DY: 1, DX: 0}, {DY: 1, DX: 1}, {DY: 1, DX: -1}}

// Distance from the window edge at which each stage starts writing. A
// stage only reads within its own inset of the window, so every pass runs
// at the same insets and the samples it leaves stale near the edge stay
// outside the halo.
const (
	mkBoundsInset   = 3
	mkRefineInset   = 2
	mkSolitaryInset = 2
	mkCrossInset    = 3
	mkBlockInset    = 2
	mkSelectInset   = 2
	mkMaxPasses     = 3
)

// Distance beyond which the output no longer depends on samples outside
// the window, for one pass and for the refined passes. Pixels closer to
// the edge are left to the border filler.
const (
	mkHaloSingle = 12
	mkHaloRefine = 17
)

// BT.2020 luma and chroma scale factors.
const (
	lumaR  = 0.2627
	lumaG  = 0.6780
	lumaB  = 0.0593
	pbGain = 0.56433
	prGain = 0.67815
)

func markesteijnHalo(passes int) int {
	if passes > 1 {
		return mkHaloRefine
	}
	return mkHaloSingle
}

// markesteijn is the multi-directional X-Trans interpolator.
type markesteijn struct {
	pat    *cfa.Pattern
	hex    *cfa.HexTable
	passes int
}

func newMarkesteijn(pat *cfa.Pattern, passes int) (*markesteijn, error) {
	if passes < 1 || passes > mkMaxPasses {
		return nil, fmt.Errorf("%w: markesteijn with %d passes", ErrUnsupported, passes)
	}
	hex, err := pat.Hex()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return &markesteijn{pat: pat, hex: hex, passes: passes}, nil
}

func (k *markesteijn) Algorithm() Algorithm { return Markesteijn }

func (k *markesteijn) Halo() int { return markesteijnHalo(k.passes) }

func (k *markesteijn) directions() int {
	if k.passes > 1 {
		return 2 * int(numAxes)
	}
	return int(numAxes)
}

func (k *markesteijn) Scratch(w, h int) int {
	n := k.directions()
	planes := n*3 + 2 + 3 + 2*n
	if k.passes > 1 {
		planes += int(numAxes)
	}
	return planes * w * h
}

func (k *markesteijn) Run(dst *plane.Image, src plane.Mosaic, arena *plane.Arena) {
	FillBorder(dst, src, k.pat, k.Halo(), false)
	if plane.Inset(src.Width, src.Height, k.Halo()).Empty() {
		return
	}
	t := k.newTile(src, arena)
	t.interpolate()
	t.selectInto(dst, arena)
}

// candidate is one directional RGB reconstruction.
type candidate [3]plane.Plane

// mkTile is the per-window working state.
type mkTile struct {
	*markesteijn
	src    plane.Mosaic
	w, h   int
	cands  []candidate
	lo, hi plane.Plane
	next   [numAxes]plane.Plane
}

func (k *markesteijn) newTile(src plane.Mosaic, arena *plane.Arena) *mkTile {
	t := &mkTile{
		markesteijn: k,
		src:         src,
		w:           src.Width,
		h:           src.Height,
		cands:       make([]candidate, k.directions()),
	}
	for d := range t.cands {
		for c := range t.cands[d] {
			t.cands[d][c] = arena.Plane(t.w, t.h)
		}
	}
	t.lo = arena.Plane(t.w, t.h)
	t.hi = arena.Plane(t.w, t.h)
	if k.passes > 1 {
		for d := range t.next {
			t.next[d] = arena.Plane(t.w, t.h)
		}
	}

	for y := 0; y < t.h; y++ {
		for x := 0; x < t.w; x++ {
			own := t.color(y, x)
			v := src.At(y, x)
			for d := 0; d < int(numAxes); d++ {
				t.cands[d][own].Set(y, x, v)
			}
		}
	}
	return t
}

func (t *mkTile) color(y, x int) int { return t.pat.ColorAt(t.src.Y0+y, t.src.X0+x) }

func (t *mkTile) hexAt(y, x int) *[8]cfa.Offset { return t.hex.At(t.src.Y0+y, t.src.X0+x) }

func (t *mkTile) solitary(y, x int) bool { return t.hex.Solitary(t.src.Y0+y, t.src.X0+x) }

func (t *mkTile) raw(y, x int, o cfa.Offset) float32 { return t.src.At(y+o.DY, x+o.DX) }

func (t *mkTile) inset(n int) image.Rectangle { return plane.Inset(t.w, t.h, n) }

// at reads channel c of candidate d at (y, x) displaced by o.
func (t *mkTile) at(d int, c int, y, x int, o cfa.Offset) float32 {
	return t.cands[d][c].Pix[(y+o.DY)*t.w+x+o.DX]
}

func (t *mkTile) interpolate() {
	t.greenBounds()
	t.greenCandidates()
	for pass := 0; pass < t.passes; pass++ {
		base := 0
		if pass > 0 {
			base = int(numAxes)
			if pass == 1 {
				for d := 0; d < int(numAxes); d++ {
					for c := range t.cands[d] {
						copy(t.cands[base+d][c].Pix, t.cands[d][c].Pix)
					}
				}
			}
			t.refineGreen(base, mkRefineInset)
		}
		t.solitaryGreens(base, mkSolitaryInset)
		t.crossColors(base, mkCrossInset)
		t.blockGreens(base, mkBlockInset)
	}
}

// greenBounds records the green range around each red and blue pair.
func (t *mkTile) greenBounds() {
	r := t.inset(mkBoundsInset)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if t.color(y, x) == cfa.Green {
				continue
			}
			lo, hi := float32(math.MaxFloat32), float32(-math.MaxFloat32)
			hex := t.hexAt(y, x)
			for i := 0; i < 6; i++ {
				v := t.raw(y, x, hex[i])
				lo, hi = min(lo, v), max(hi, v)
			}
			p := t.hex.PartnerAt(t.src.Y0+y, t.src.X0+x)
			py, px := y+p.DY, x+p.DX
			phex := t.hexAt(py, px)
			for i := 0; i < 6; i++ {
				v := t.raw(py, px, phex[i])
				lo, hi = min(lo, v), max(hi, v)
			}
			t.lo.Set(y, x, lo)
			t.hi.Set(y, x, hi)
		}
	}
}

// greenCandidates interpolates green at red and blue sites in the four
// axis directions.
func (t *mkTile) greenCandidates() {
	r := t.inset(mkBoundsInset)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if t.color(y, x) == cfa.Green {
				continue
			}
			hex := t.hexAt(y, x)
			lo, hi := t.lo.At(y, x), t.hi.At(y, x)
			f0 := t.src.At(y, x)
			g := func(o cfa.Offset) float32 { return t.raw(y, x, o) }

			across := (174*(g(hex[1])+g(hex[0])) - 46*(g(hex[1].Scale(2))+g(hex[0].Scale(2)))) / 256
			along := (223*g(hex[3]) + 33*g(hex[2]) + 92*(f0-g(hex[2].Scale(-1)))) / 256
			acrossDir := directionOf(hex[0])
			alongDir := directionOf(hex[3])
			t.cands[acrossDir][cfa.Green].Set(y, x, clampf(across, lo, hi))
			t.cands[alongDir][cfa.Green].Set(y, x, clampf(along, lo, hi))

			for c := 0; c < 2; c++ {
				o := hex[4+c]
				v := (164*g(o) + 92*g(o.Scale(-2)) + 33*(2*f0-g(o.Scale(3))-g(o.Scale(-3)))) / 256
				t.cands[directionOf(o)][cfa.Green].Set(y, x, clampf(v, lo, hi))
			}
		}
	}
}

// refineGreen recomputes green at red and blue sites from the candidates
// of the previous pass.
func (t *mkTile) refineGreen(base, inset int) {
	next := t.next
	for d := range next {
		copy(next[d].Pix, t.cands[base+d][cfa.Green].Pix)
	}

	r := t.inset(inset)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			f := t.color(y, x)
			if f == cfa.Green {
				continue
			}
			hex := t.hexAt(y, x)
			lo, hi := t.lo.At(y, x), t.hi.At(y, x)
			for i := 3; i < 6; i++ {
				o := hex[i]
				dir := directionOf(o)
				d := base + int(dir)
				back := o.Scale(-2)
				v := t.at(d, cfa.Green, y, x, back) + 2*t.at(d, cfa.Green, y, x, o) -
					t.at(d, f, y, x, back) - 2*t.at(d, f, y, x, o) + 3*t.src.At(y, x)
				next[dir].Set(y, x, clampf(v/3, lo, hi))
			}
		}
	}

	for d := range next {
		copy(t.cands[base+d][cfa.Green].Pix, next[d].Pix)
	}
}

// solitaryGreens interpolates red and blue at the greens whose orthogonal
// neighbors are all red or blue.
func (t *mkTile) solitaryGreens(base, inset int) {
	r := t.inset(inset)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if !t.solitary(y, x) {
				continue
			}
			hnear := t.color(y, x+1)
			vnear := 2 - hnear
			hstep := cfa.Offset{DY: 0, DX: 1}
			vstep := cfa.Offset{DY: 1, DX: 0}
			for dir := Direction(0); dir < numAxes; dir++ {
				d := base + int(dir)
				var rgb [3]float32
				switch dir {
				case Horizontal:
					rgb, _ = t.solitaryEstimate(d, y, x, hstep, hnear)
				case Vertical:
					rgb, _ = t.solitaryEstimate(d, y, x, vstep, vnear)
				default:
					h, dh := t.solitaryEstimate(d, y, x, hstep, hnear)
					v, dv := t.solitaryEstimate(d, y, x, vstep, vnear)
					rgb = v
					if dh < dv {
						rgb = h
					}
				}
				t.cands[d][cfa.Red].Set(y, x, rgb[cfa.Red])
				t.cands[d][cfa.Blue].Set(y, x, rgb[cfa.Blue])
			}
		}
	}
}

// solitaryEstimate interpolates both colors along one axis from candidate
// d. near is the color one step away; the other color sits two steps away.
// The second result measures how poorly the axis fits.
func (t *mkTile) solitaryEstimate(d, y, x int, step cfa.Offset, near int) ([3]float32, float32) {
	var rgb [3]float32
	var diff float32
	g0 := t.at(d, cfa.Green, y, x, cfa.Offset{})
	for s := 1; s <= 2; s++ {
		col := near
		if s == 2 {
			col = 2 - near
		}
		o := step.Scale(s)
		gp := t.at(d, cfa.Green, y, x, o)
		gm := t.at(d, cfa.Green, y, x, o.Scale(-1))
		cp := t.at(d, col, y, x, o)
		cm := t.at(d, col, y, x, o.Scale(-1))
		g := 2*g0 - gp - gm
		rgb[col] = (g + cp + cm) * 0.5
		e := gp - gm - cp + cm
		diff += e*e + g*g
	}
	return rgb, diff
}

// crossColors interpolates blue at red sites and red at blue sites.
func (t *mkTile) crossColors(base, inset int) {
	r := t.inset(inset)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			own := t.color(y, x)
			if own == cfa.Green {
				continue
			}
			f := 2 - own
			p := t.hex.PartnerAt(t.src.Y0+y, t.src.X0+x)
			axis := cfa.Offset{DY: 0, DX: 1}
			if p.DY != 0 {
				axis = cfa.Offset{DY: 1, DX: 0}
			}
			across := cfa.Offset{DY: axis.DX, DX: axis.DY}.Scale(3)
			acrossDir := directionOf(across)

			for dir := Direction(0); dir < numAxes; dir++ {
				d := base + int(dir)
				g0 := t.at(d, cfa.Green, y, x, cfa.Offset{})
				i := axis
				if dir == acrossDir {
					along := absf(g0-t.at(d, cfa.Green, y, x, axis)) + absf(g0-t.at(d, cfa.Green, y, x, axis.Scale(-1)))
					perp := absf(g0-t.at(d, cfa.Green, y, x, across)) + absf(g0-t.at(d, cfa.Green, y, x, across.Scale(-1)))
					if !(along < 2*perp) {
						i = across
					}
				}
				n := i.Scale(-1)
				v := (t.at(d, f, y, x, i) + t.at(d, f, y, x, n) + 2*g0 -
					t.at(d, cfa.Green, y, x, i) - t.at(d, cfa.Green, y, x, n)) * 0.5
				t.cands[d][f].Set(y, x, v)
			}
		}
	}
}

// blockGreens interpolates red and blue at the greens that form 2x2
// blocks, one hexagon pair per axis.
func (t *mkTile) blockGreens(base, inset int) {
	r := t.inset(inset)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if t.color(y, x) != cfa.Green || t.solitary(y, x) {
				continue
			}
			hex := t.hexAt(y, x)
			for j := 0; j < 4; j++ {
				a, b := hex[2*j], hex[2*j+1]
				d := base + int(directionOf(a))
				g0 := t.at(d, cfa.Green, y, x, cfa.Offset{})
				ga, gb := t.at(d, cfa.Green, y, x, a), t.at(d, cfa.Green, y, x, b)
				for _, c := range [2]int{cfa.Red, cfa.Blue} {
					ca, cb := t.at(d, c, y, x, a), t.at(d, c, y, x, b)
					var v float32
					if a.Add(b).IsZero() {
						v = (2*g0 - ga - gb + ca + cb) * 0.5
					} else {
						v = (3*g0 - 2*ga - gb + 2*ca + cb) / 3
					}
					t.cands[d][c].Set(y, x, v)
				}
			}
		}
	}
}

// selectInto averages, per pixel, the candidates whose neighborhoods are
// most homogeneous in luma and chroma.
func (t *mkTile) selectInto(dst *plane.Image, arena *plane.Arena) {
	ndir := len(t.cands)
	w := t.w

	var yuv [3]plane.Plane
	for c := range yuv {
		yuv[c] = arena.Plane(t.w, t.h)
	}
	drv := make([]plane.Plane, ndir)
	homo := make([]plane.Plane, ndir)
	for d := 0; d < ndir; d++ {
		drv[d] = arena.Plane(t.w, t.h)
		homo[d] = arena.Plane(t.w, t.h)
	}

	rc := t.inset(mkSelectInset)
	rd := t.inset(mkSelectInset + 1)
	for d := 0; d < ndir; d++ {
		c := t.cands[d]
		for y := rc.Min.Y; y < rc.Max.Y; y++ {
			for x := rc.Min.X; x < rc.Max.X; x++ {
				i := y*w + x
				lum, pb, pr := toYPbPr(c[0].Pix[i], c[1].Pix[i], c[2].Pix[i])
				yuv[0].Pix[i], yuv[1].Pix[i], yuv[2].Pix[i] = lum, pb, pr
			}
		}
		step := axisStep[d%int(numAxes)]
		o := step.DY*w + step.DX
		for y := rd.Min.Y; y < rd.Max.Y; y++ {
			for x := rd.Min.X; x < rd.Max.X; x++ {
				i := y*w + x
				var s float32
				for c := range yuv {
					p := yuv[c].Pix
					v := 2*p[i] - p[i+o] - p[i-o]
					s += v * v
				}
				drv[d].Pix[i] = s
			}
		}
	}

	rh := t.inset(mkSelectInset + 2)
	for y := rh.Min.Y; y < rh.Max.Y; y++ {
		for x := rh.Min.X; x < rh.Max.X; x++ {
			i := y*w + x
			tr := drv[0].Pix[i]
			for d := 1; d < ndir; d++ {
				tr = min(tr, drv[d].Pix[i])
			}
			tr *= 8
			for d := 0; d < ndir; d++ {
				n := 0
				for v := -1; v <= 1; v++ {
					for h := -1; h <= 1; h++ {
						if drv[d].Pix[i+v*w+h] <= tr {
							n++
						}
					}
				}
				homo[d].Pix[i] = float32(n)
			}
		}
	}

	rs := t.inset(t.Halo())
	var hm [2 * numAxes]int
	for y := rs.Min.Y; y < rs.Max.Y; y++ {
		for x := rs.Min.X; x < rs.Max.X; x++ {
			i := y*w + x
			for d := 0; d < ndir; d++ {
				s := 0
				for v := -2; v <= 2; v++ {
					row := homo[d].Pix[i+v*w-2 : i+v*w+3]
					for _, n := range row {
						s += int(n)
					}
				}
				hm[d] = s
			}
			if ndir > int(numAxes) {
				for d := 0; d < int(numAxes); d++ {
					e := d + int(numAxes)
					if hm[d] < hm[e] {
						hm[d] = 0
					} else if hm[d] > hm[e] {
						hm[e] = 0
					}
				}
			}
			best := 0
			for d := 0; d < ndir; d++ {
				best = max(best, hm[d])
			}
			best -= best >> 3

			var sum [3]float32
			n := 0
			for d := 0; d < ndir; d++ {
				if hm[d] < best {
					continue
				}
				for c := range sum {
					sum[c] += t.cands[d][c].Pix[i]
				}
				n++
			}
			px := dst.Pixel(y, x)
			inv := 1 / float32(n)
			px[0], px[1], px[2], px[3] = sum[0]*inv, sum[1]*inv, sum[2]*inv, 0
		}
	}
}

func toYPbPr(r, g, b float32) (y, pb, pr float32) {
	y = lumaR*r + lumaG*g + lumaB*b
	return y, (b - y) * pbGain, (r - y) * prGain
}

func fromYPbPr(y, pb, pr float32) (r, g, b float32) {
	r = y + pr/prGain
	b = y + pb/pbGain
	g = (y - lumaR*r - lumaB*b) / lumaG
	return r, g, b
}
