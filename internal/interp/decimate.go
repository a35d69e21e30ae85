package interp

import (
	"github.com/gogpu/demosaic/internal/cfa"
	"github.com/gogpu/demosaic/internal/plane"
)

// BlockSize is the side of the pixel block Decimate collapses into one
// RGB sample.
func BlockSize(pat *cfa.Pattern) int {
	if pat.Kind() == cfa.XTrans {
		return 3
	}
	return 2
}

// Decimate builds a w x h image directly from the mosaic. Every block of
// BlockSize pixels becomes one sample holding the mean of each color in
// the block, and the block image is area-resampled to the output size.
// A color absent from a clipped block takes the block mean.
func Decimate(src plane.Mosaic, pat *cfa.Pattern, w, h int) *plane.Image {
	bs := BlockSize(pat)
	bw := (src.Width + bs - 1) / bs
	bh := (src.Height + bs - 1) / bs
	colors := pat.Colors()
	blocks := plane.NewImage(bw, bh)

	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			var sum [4]float32
			var cnt [4]int
			var all float32
			n := 0
			for y := by * bs; y < min((by+1)*bs, src.Height); y++ {
				for x := bx * bs; x < min((bx+1)*bs, src.Width); x++ {
					v := src.At(y, x)
					c := pat.ColorAt(src.Y0+y, src.X0+x)
					sum[c] += v
					cnt[c]++
					all += v
					n++
				}
			}
			px := blocks.Pixel(by, bx)
			for c := 0; c < colors; c++ {
				if cnt[c] > 0 {
					px[c] = sum[c] / float32(cnt[c])
				} else {
					px[c] = all / float32(n)
				}
			}
		}
	}
	return plane.Resize(blocks, w, h)
}
