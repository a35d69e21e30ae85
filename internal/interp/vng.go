package interp

import (
	"github.com/gogpu/demosaic/internal/cfa"
	"github.com/gogpu/demosaic/internal/plane"
)

// vng is variable number of gradients interpolation over a linear base.
type vng struct {
	pat        *cfa.Pattern
	onlyLinear bool
}

func (k *vng) Algorithm() Algorithm { return VNG }

// Halo covers the radius-2 gradient stencil on top of the linear base.
func (k *vng) Halo() int { return 3 }

func (k *vng) Scratch(w, h int) int {
	if k.onlyLinear {
		return 0
	}
	return w * h * plane.Channels
}

func (k *vng) Run(dst *plane.Image, src plane.Mosaic, arena *plane.Arena) {
	if k.onlyLinear {
		linearInto(dst, src, k.pat)
		mergeGreens(dst, k.pat)
		return
	}

	lin := arena.Image(src.Width, src.Height)
	linearInto(lin, src, k.pat)
	copy(dst.Pix, lin.Pix)

	vt := k.pat.VNG()
	colors := k.pat.QuadColors()
	for y := 2; y < src.Height-2; y++ {
		for x := 2; x < src.Width-2; x++ {
			ph := vt.At(src.Y0+y, src.X0+x)
			pix := lin.Pixel(y, x)

			var gval [8]float32
			for i := range ph.Terms {
				term := &ph.Terms[i]
				a := lin.Pixel(y+term.DY1, x+term.DX1)[term.Color]
				b := lin.Pixel(y+term.DY2, x+term.DX2)[term.Color]
				diff := absf(a-b) * term.Weight
				for _, g := range term.Grads {
					gval[g] += diff
				}
			}

			gmin, gmax := gval[0], gval[0]
			for _, g := range gval[1:] {
				gmin = min(gmin, g)
				gmax = max(gmax, g)
			}
			if gmax == 0 {
				continue
			}
			thold := gmin + 0.5*(gmax-gmin)

			own := ph.Own
			var sum [4]float32
			num := 0
			for g, n := range ph.Neighbors {
				if gval[g] > thold {
					continue
				}
				nb := lin.Pixel(y+n.DY, x+n.DX)
				for c := 0; c < colors; c++ {
					if c == own && n.Far {
						sum[c] += (pix[c] + lin.Pixel(y+2*n.DY, x+2*n.DX)[c]) * 0.5
					} else {
						sum[c] += nb[c]
					}
				}
				num++
			}

			out := dst.Pixel(y, x)
			inv := 1 / float32(num)
			for c := 0; c < colors; c++ {
				v := pix[own]
				if c != own {
					v += (sum[c] - sum[own]) * inv
				}
				out[c] = max(v, 0)
			}
		}
	}
	mergeGreens(dst, k.pat)
}
