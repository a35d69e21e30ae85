package interp

import (
	"github.com/gogpu/demosaic/internal/cfa"
	"github.com/gogpu/demosaic/internal/plane"
)

// FillBorder reconstructs the pixels of dst lying within width of the
// window edge. Each missing channel is the mean of the same-color samples
// in the 3x3 neighborhood that fall inside the window; with none present
// the pixel's own sample is used. quad selects the four-way colors, which
// keep the two bayer greens apart.
func FillBorder(dst *plane.Image, src plane.Mosaic, pat *cfa.Pattern, width int, quad bool) {
	w, h := src.Width, src.Height
	colors := pat.Colors()
	colorAt := pat.ColorAt
	if quad {
		colors = pat.QuadColors()
		colorAt = pat.Color4
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x == width && y >= width && y < h-width {
				x = max(w-width, width)
				if x >= w {
					break
				}
			}
			fillPixel(dst.Pixel(y, x), src, colorAt, colors, y, x)
		}
	}
}

func fillPixel(px []float32, src plane.Mosaic, colorAt func(int, int) int, colors, y, x int) {
	var sum [4]float32
	var cnt [4]int
	for dy := -1; dy <= 1; dy++ {
		yy := y + dy
		if yy < 0 || yy >= src.Height {
			continue
		}
		for dx := -1; dx <= 1; dx++ {
			xx := x + dx
			if xx < 0 || xx >= src.Width {
				continue
			}
			c := colorAt(src.Y0+yy, src.X0+xx)
			sum[c] += src.At(yy, xx)
			cnt[c]++
		}
	}

	own := colorAt(src.Y0+y, src.X0+x)
	v := src.At(y, x)
	clear(px)
	for c := 0; c < colors; c++ {
		switch {
		case c == own:
			px[c] = v
		case cnt[c] > 0:
			px[c] = sum[c] / float32(cnt[c])
		default:
			px[c] = v
		}
	}
}
