package interp

import (
	"github.com/gogpu/demosaic/internal/cfa"
	"github.com/gogpu/demosaic/internal/plane"
)

// ppg is patterned pixel grouping for bayer sensors.
type ppg struct {
	pat       *cfa.Pattern
	threshold float32
}

// PPGBorder is the width PPG leaves to the border filler.
const PPGBorder = 3

func (k *ppg) Algorithm() Algorithm { return PPG }

// Halo is the pass-two stencil on top of the pass-one stencil, plus the
// pre-filter radius when it runs.
func (k *ppg) Halo() int {
	if k.threshold > 0 {
		return 7
	}
	return 4
}

func (k *ppg) Scratch(w, h int) int {
	if k.threshold > 0 {
		return w * h
	}
	return 0
}

func (k *ppg) Run(dst *plane.Image, src plane.Mosaic, arena *plane.Arena) {
	in := src
	if k.threshold > 0 {
		in = medianGreen(src, k.pat, k.threshold, arena)
	}
	FillBorder(dst, in, k.pat, PPGBorder, false)

	r := plane.Inset(src.Width, src.Height, PPGBorder)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := k.pat.ColorAt(in.Y0+y, in.X0+x)
			px := dst.Pixel(y, x)
			clear(px)
			px[c] = in.At(y, x)
			if c != cfa.Green {
				px[cfa.Green] = ppgGreen(in, y, x)
			}
		}
	}

	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := k.pat.ColorAt(in.Y0+y, in.X0+x)
			px := dst.Pixel(y, x)
			g := px[cfa.Green]
			if c != cfa.Green {
				f := 2 - c
				ntl, nbr := dst.Pixel(y-1, x-1), dst.Pixel(y+1, x+1)
				ntr, nbl := dst.Pixel(y-1, x+1), dst.Pixel(y+1, x-1)
				diff1 := absf(ntl[f]-nbr[f]) + absf(ntl[cfa.Green]-g) + absf(nbr[cfa.Green]-g)
				guess1 := ntl[f] + nbr[f] + 2*g - ntl[cfa.Green] - nbr[cfa.Green]
				diff2 := absf(ntr[f]-nbl[f]) + absf(ntr[cfa.Green]-g) + absf(nbl[cfa.Green]-g)
				guess2 := ntr[f] + nbl[f] + 2*g - ntr[cfa.Green] - nbl[cfa.Green]
				switch {
				case diff1 > diff2:
					px[f] = guess2 * 0.5
				case diff1 < diff2:
					px[f] = guess1 * 0.5
				default:
					px[f] = (guess1 + guess2) * 0.25
				}
				continue
			}

			ch := k.pat.ColorAt(in.Y0+y, in.X0+x+1)
			nl, nr := dst.Pixel(y, x-1), dst.Pixel(y, x+1)
			px[ch] = (nl[ch] + nr[ch] + 2*g - nl[cfa.Green] - nr[cfa.Green]) * 0.5
			cv := 2 - ch
			nt, nb := dst.Pixel(y-1, x), dst.Pixel(y+1, x)
			px[cv] = (nt[cv] + nb[cv] + 2*g - nt[cfa.Green] - nb[cfa.Green]) * 0.5
		}
	}
}

// ppgGreen estimates green at a red or blue site along the direction with
// the smaller gradient. Equal gradients resolve to horizontal.
func ppgGreen(in plane.Mosaic, y, x int) float32 {
	pc := in.At(y, x)

	pym, pym2, pym3 := in.At(y-1, x), in.At(y-2, x), in.At(y-3, x)
	pyM, pyM2, pyM3 := in.At(y+1, x), in.At(y+2, x), in.At(y+3, x)
	pxm, pxm2, pxm3 := in.At(y, x-1), in.At(y, x-2), in.At(y, x-3)
	pxM, pxM2, pxM3 := in.At(y, x+1), in.At(y, x+2), in.At(y, x+3)

	guessx := (pxm+pc+pxM)*2 - pxM2 - pxm2
	diffx := (absf(pxm2-pc)+absf(pxM2-pc)+absf(pxm-pxM))*3 +
		(absf(pxM3-pxM)+absf(pxm3-pxm))*2
	guessy := (pym+pc+pyM)*2 - pyM2 - pym2
	diffy := (absf(pym2-pc)+absf(pyM2-pc)+absf(pym-pyM))*3 +
		(absf(pyM3-pyM)+absf(pym3-pym))*2

	if diffx > diffy {
		return clampf(guessy*0.25, min(pym, pyM), max(pym, pyM))
	}
	return clampf(guessx*0.25, min(pxm, pxM), max(pxm, pxM))
}

// medianDiamond is the support of the green pre-filter.
var medianDiamond = [9]cfa.Offset{
	{DY: -2, DX: 0}, {DY: -1, DX: -1}, {DY: -1, DX: 1}, {DY: 0, DX: -2}, {DY: 0, DX: 0},
	{DY: 0, DX: 2}, {DY: 1, DX: -1}, {DY: 1, DX: 1}, {DY: 2, DX: 0},
}

// medianGreen replaces each green sample with the median of the diamond
// samples within threshold of it. A sample with no such neighbor takes the
// lower median of its neighbors.
func medianGreen(src plane.Mosaic, pat *cfa.Pattern, threshold float32, arena *plane.Arena) plane.Mosaic {
	p := arena.Plane(src.Width, src.Height)
	out := plane.Mosaic{Pix: p.Pix, Stride: src.Width, X0: src.X0, Y0: src.Y0, Width: src.Width, Height: src.Height}
	for y := 0; y < src.Height; y++ {
		copy(p.Pix[y*src.Width:(y+1)*src.Width], src.Pix[y*src.Stride:y*src.Stride+src.Width])
	}

	r := plane.Inset(src.Width, src.Height, PPGBorder)
	var near, far [9]float32
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if pat.ColorAt(src.Y0+y, src.X0+x) != cfa.Green {
				continue
			}
			center := src.At(y, x)
			nn, nf := 0, 0
			for _, o := range medianDiamond {
				v := src.At(y+o.DY, x+o.DX)
				if absf(v-center) < threshold {
					near[nn] = v
					nn++
				} else {
					far[nf] = v
					nf++
				}
			}
			var m float32
			if nn == 1 {
				sortSmall(far[:nf])
				m = far[(nf-1)/2]
			} else {
				sortSmall(near[:nn])
				m = near[(nn-1)/2]
			}
			p.Set(y, x, max(m, 0))
		}
	}
	return out
}

// sortSmall is an insertion sort for the tiny fixed windows used here.
func sortSmall(v []float32) {
	for i := 1; i < len(v); i++ {
		x := v[i]
		j := i
		for ; j > 0 && v[j-1] > x; j-- {
			v[j] = v[j-1]
		}
		v[j] = x
	}
}
