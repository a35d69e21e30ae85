package interp

import (
	"github.com/gogpu/demosaic/internal/cfa"
	"github.com/gogpu/demosaic/internal/plane"
)

// passthrough copies each raw sample into every color channel.
type passthrough struct {
	pat *cfa.Pattern
}

func (k *passthrough) Algorithm() Algorithm { return Passthrough }

func (k *passthrough) Halo() int { return 0 }

func (k *passthrough) Scratch(w, h int) int { return 0 }

func (k *passthrough) Run(dst *plane.Image, src plane.Mosaic, _ *plane.Arena) {
	colors := k.pat.Colors()
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			px := dst.Pixel(y, x)
			v := src.At(y, x)
			clear(px)
			for c := 0; c < colors; c++ {
				px[c] = v
			}
		}
	}
}
