package interp

import (
	"cmp"
	"math"
	"math/cmplx"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/gogpu/demosaic/internal/cfa"
	"github.com/gogpu/demosaic/internal/plane"
)

// Frequency domain chroma: the mosaic is a luma baseband plus chroma
// modulated onto the carriers of the pattern's 6x6 spectrum. Each carrier
// is demodulated with a complex band-pass filter and the chroma planes are
// recovered through the pseudo-inverse of the pattern's modulation matrix.

const (
	fdcCarriers = 4
	fdcTaps     = 13
	fdcRadius   = fdcTaps / 2
	fdcPeriod   = 6

	// Sensitivity range over which the frequency domain chroma fades out
	// in favor of the directional chroma.
	fdcSensitivityLow  = 800
	fdcSensitivityHigh = 3200
)

// fdcKey memoizes the per-pattern tables.
type fdcKey struct{}

// fdcTables holds the demodulation setup derived from one pattern.
type fdcTables struct {
	carriers [fdcCarriers]cfa.Offset
	// rows[k] and cols[k] are the separable band-pass taps for carrier k.
	rows, cols [fdcCarriers][fdcTaps]complex64
	// minv[phase] maps the eight demodulated components to RGB.
	minv [fdcPeriod * fdcPeriod][3][2 * fdcCarriers]float32
}

// fdcWindow is a 13-tap window whose spectrum vanishes at every nonzero
// multiple of 1/6 cycle per pixel.
func fdcWindow() [fdcTaps]float64 {
	var w [fdcTaps]float64
	for i := range w {
		w[i] = 1.0 / 12
	}
	w[0], w[fdcTaps-1] = 0.5/12, 0.5/12
	return w
}

func buildFDCTables(pat *cfa.Pattern) *fdcTables {
	// Spectrum of each color indicator over one period.
	var spectrum [3][fdcPeriod][fdcPeriod]complex128
	for ky := 0; ky < fdcPeriod; ky++ {
		for kx := 0; kx < fdcPeriod; kx++ {
			for y := 0; y < fdcPeriod; y++ {
				for x := 0; x < fdcPeriod; x++ {
					c := pat.ColorAt(y, x)
					phase := -2 * math.Pi * float64(ky*y+kx*x) / fdcPeriod
					spectrum[c][ky][kx] += cmplx.Rect(1.0/(fdcPeriod*fdcPeriod), phase)
				}
			}
		}
	}

	type carrier struct {
		k     cfa.Offset
		power float64
	}
	var cands []carrier
	for ky := 0; ky < fdcPeriod; ky++ {
		for kx := 0; kx < fdcPeriod; kx++ {
			if ky == 0 && kx == 0 {
				continue
			}
			cy, cx := (fdcPeriod-ky)%fdcPeriod, (fdcPeriod-kx)%fdcPeriod
			if cy < ky || (cy == ky && cx < kx) {
				continue
			}
			var p float64
			for c := 0; c < 3; c++ {
				a := cmplx.Abs(spectrum[c][ky][kx])
				p += a * a
			}
			cands = append(cands, carrier{k: cfa.Offset{DY: ky, DX: kx}, power: p})
		}
	}
	slices.SortStableFunc(cands, func(a, b carrier) int { return cmp.Compare(b.power, a.power) })

	t := &fdcTables{}
	win := fdcWindow()
	a := mat.NewDense(2*fdcCarriers, 3, nil)
	for j := 0; j < fdcCarriers; j++ {
		k := cands[j].k
		t.carriers[j] = k
		for q := -fdcRadius; q <= fdcRadius; q++ {
			t.rows[j][q+fdcRadius] = complex64(cmplx.Rect(win[q+fdcRadius], 2*math.Pi*float64(k.DY*q)/fdcPeriod))
			t.cols[j][q+fdcRadius] = complex64(cmplx.Rect(win[q+fdcRadius], 2*math.Pi*float64(k.DX*q)/fdcPeriod))
		}
		for c := 0; c < 3; c++ {
			m := spectrum[c][k.DY][k.DX]
			a.Set(2*j, c, real(m))
			a.Set(2*j+1, c, imag(m))
		}
	}
	pinv := pseudoInverse(a)

	// Per phase, undo the carrier rotation before applying the inverse.
	for py := 0; py < fdcPeriod; py++ {
		for px := 0; px < fdcPeriod; px++ {
			m := &t.minv[py*fdcPeriod+px]
			for j := 0; j < fdcCarriers; j++ {
				k := t.carriers[j]
				theta := 2 * math.Pi * float64(k.DY*py+k.DX*px) / fdcPeriod
				cos, sin := math.Cos(theta), math.Sin(theta)
				for c := 0; c < 3; c++ {
					pr, pi := pinv.At(c, 2*j), pinv.At(c, 2*j+1)
					// Re and Im of e^{-i theta} z, expressed on (Re z, Im z).
					m[c][2*j] = float32(pr*cos - pi*sin)
					m[c][2*j+1] = float32(pr*sin + pi*cos)
				}
			}
		}
	}
	return t
}

// pseudoInverse returns the Moore-Penrose inverse of a via its SVD.
func pseudoInverse(a *mat.Dense) *mat.Dense {
	r, c := a.Dims()
	out := mat.NewDense(c, r, nil)
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return out
	}
	vals := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	tol := 1e-9 * vals[0]
	for i := 0; i < c; i++ {
		for j := 0; j < r; j++ {
			var s float64
			for k, sv := range vals {
				if sv > tol {
					s += v.At(i, k) * u.At(j, k) / sv
				}
			}
			out.Set(i, j, s)
		}
	}
	return out
}

// fdcWeight maps sensor sensitivity to the share of frequency domain
// chroma in the output.
func fdcWeight(sensitivity float64) float32 {
	switch {
	case sensitivity <= fdcSensitivityLow:
		return 1
	case sensitivity >= fdcSensitivityHigh:
		return 0
	default:
		return float32((fdcSensitivityHigh - sensitivity) / (fdcSensitivityHigh - fdcSensitivityLow))
	}
}

// fdc combines single-pass Markesteijn luma with frequency domain chroma.
type fdc struct {
	mk     *markesteijn
	tables *fdcTables
	weight float32
}

func newFDC(pat *cfa.Pattern, sensitivity float64) (*fdc, error) {
	mk, err := newMarkesteijn(pat, 1)
	if err != nil {
		return nil, err
	}
	tables := pat.Memo(fdcKey{}, func() any { return buildFDCTables(pat) }).(*fdcTables)
	return &fdc{mk: mk, tables: tables, weight: fdcWeight(sensitivity)}, nil
}

func (k *fdc) Algorithm() Algorithm { return FDC }

func (k *fdc) Halo() int { return k.mk.Halo() }

func (k *fdc) Scratch(w, h int) int {
	return k.mk.Scratch(w, h) + (4*fdcCarriers+4)*w*h
}

func (k *fdc) Run(dst *plane.Image, src plane.Mosaic, arena *plane.Arena) {
	k.mk.Run(dst, src, arena)
	w, h := src.Width, src.Height
	if plane.Inset(w, h, k.Halo()).Empty() {
		return
	}

	// Horizontal filtering of every row, then vertical, per carrier.
	var zre, zim [fdcCarriers]plane.Plane
	rh := plane.Inset(w, h, 0)
	rh.Min.X, rh.Max.X = fdcRadius, w-fdcRadius
	rv := plane.Inset(w, h, fdcRadius)
	for j := 0; j < fdcCarriers; j++ {
		tre, tim := arena.Plane(w, h), arena.Plane(w, h)
		for y := rh.Min.Y; y < rh.Max.Y; y++ {
			for x := rh.Min.X; x < rh.Max.X; x++ {
				var acc complex64
				for q, tap := range k.tables.cols[j] {
					acc += tap * complex(src.At(y, x+fdcRadius-q), 0)
				}
				tre.Set(y, x, real(acc))
				tim.Set(y, x, imag(acc))
			}
		}
		zre[j], zim[j] = arena.Plane(w, h), arena.Plane(w, h)
		for y := rv.Min.Y; y < rv.Max.Y; y++ {
			for x := rv.Min.X; x < rv.Max.X; x++ {
				var acc complex64
				for q, tap := range k.tables.rows[j] {
					yy := y + fdcRadius - q
					acc += tap * complex(tre.At(yy, x), tim.At(yy, x))
				}
				zre[j].Set(y, x, real(acc))
				zim[j].Set(y, x, imag(acc))
			}
		}
	}

	pb, pr := arena.Plane(w, h), arena.Plane(w, h)
	for y := rv.Min.Y; y < rv.Max.Y; y++ {
		for x := rv.Min.X; x < rv.Max.X; x++ {
			py := wrapPeriod(src.Y0 + y)
			px := wrapPeriod(src.X0 + x)
			m := &k.tables.minv[py*fdcPeriod+px]
			var vec [2 * fdcCarriers]float32
			for j := 0; j < fdcCarriers; j++ {
				vec[2*j] = zre[j].At(y, x)
				vec[2*j+1] = zim[j].At(y, x)
			}
			var rgb [3]float32
			for c := range rgb {
				for i, v := range vec {
					rgb[c] += m[c][i] * v
				}
			}
			_, b, r := toYPbPr(rgb[0], rgb[1], rgb[2])
			pb.Set(y, x, b)
			pr.Set(y, x, r)
		}
	}

	mpb, mpr := arena.Plane(w, h), arena.Plane(w, h)
	rm := plane.Inset(w, h, fdcRadius+1)
	for y := rm.Min.Y; y < rm.Max.Y; y++ {
		for x := rm.Min.X; x < rm.Max.X; x++ {
			mpb.Set(y, x, crossMedian(pb, y, x))
			mpr.Set(y, x, crossMedian(pr, y, x))
		}
	}

	wf := k.weight
	ri := plane.Inset(w, h, k.Halo())
	for y := ri.Min.Y; y < ri.Max.Y; y++ {
		for x := ri.Min.X; x < ri.Max.X; x++ {
			px := dst.Pixel(y, x)
			lum, b, r := toYPbPr(px[0], px[1], px[2])
			b = wf*mpb.At(y, x) + (1-wf)*b
			r = wf*mpr.At(y, x) + (1-wf)*r
			px[0], px[1], px[2] = fromYPbPr(lum, b, r)
		}
	}
}

func wrapPeriod(v int) int {
	v %= fdcPeriod
	if v < 0 {
		v += fdcPeriod
	}
	return v
}

// crossMedian is the median of a pixel and its four orthogonal neighbors.
func crossMedian(p plane.Plane, y, x int) float32 {
	v := [5]float32{p.At(y, x), p.At(y-1, x), p.At(y+1, x), p.At(y, x-1), p.At(y, x+1)}
	sortSmall(v[:])
	return v[2]
}
