package interp

import (
	"github.com/gogpu/demosaic/internal/cfa"
	"github.com/gogpu/demosaic/internal/plane"
)

// linear averages same-color neighbors in the 3x3 window.
type linear struct {
	pat *cfa.Pattern
}

func (k *linear) Algorithm() Algorithm { return Linear }

func (k *linear) Halo() int { return 1 }

func (k *linear) Scratch(w, h int) int { return 0 }

func (k *linear) Run(dst *plane.Image, src plane.Mosaic, _ *plane.Arena) {
	linearInto(dst, src, k.pat)
	mergeGreens(dst, k.pat)
}

// linearInto interpolates src into dst keeping bayer greens split across
// channels 1 and 3.
func linearInto(dst *plane.Image, src plane.Mosaic, pat *cfa.Pattern) {
	FillBorder(dst, src, pat, 1, true)
	lt := pat.Linear()
	for y := 1; y < src.Height-1; y++ {
		for x := 1; x < src.Width-1; x++ {
			ph := lt.At(src.Y0+y, src.X0+x)
			px := dst.Pixel(y, x)
			v := src.At(y, x)
			clear(px)
			px[ph.Own] = v
			for _, tap := range ph.Taps {
				px[tap.Color] += tap.Weight * src.At(y+tap.DY, x+tap.DX)
			}
			for _, c := range ph.Missing {
				px[c] = v
			}
		}
	}
}
