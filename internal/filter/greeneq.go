package filter

import (
	"github.com/gogpu/demosaic/internal/cfa"
	"github.com/gogpu/demosaic/internal/plane"
)

// Local equalization defaults, for samples normalized to [0, 1].
const (
	DefaultGreenThreshold = 0.01
	greenMaximum          = 1.0
)

// GreenRatio returns the ratio of the summed blue-row greens to the summed
// red-row greens of a 2x2 mosaic. Sums are taken over vertically adjacent
// pairs so that matching sub-channels give exactly 1. ok is false when
// either sum is not positive.
func GreenRatio(src plane.Mosaic, pat *cfa.Pattern) (ratio float32, ok bool) {
	if pat.Kind() != cfa.Bayer {
		return 1, false
	}
	var sum1, sum2 float64
	for y := 0; y+1 < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			if pat.Color4(src.Y0+y, src.X0+x) != cfa.Green {
				continue
			}
			px := x - 1
			if px < 0 {
				px = x + 1
			}
			if px >= src.Width {
				continue
			}
			sum1 += float64(src.At(y, x))
			sum2 += float64(src.At(y+1, px))
		}
	}
	if sum1 <= 0 || sum2 <= 0 {
		return 1, false
	}
	return float32(sum2 / sum1), true
}

// ScaleGreen multiplies every red-row green of m by ratio in place.
func ScaleGreen(m plane.Mosaic, pat *cfa.Pattern, ratio float32) {
	if pat.Kind() != cfa.Bayer || ratio == 1 {
		return
	}
	for y := 0; y < m.Height; y++ {
		row := m.Pix[y*m.Stride : y*m.Stride+m.Width]
		for x := range row {
			if pat.Color4(m.Y0+y, m.X0+x) == cfa.Green {
				row[x] *= ratio
			}
		}
	}
}

// EqualizeLocal corrects each red-row green of src toward the other green
// sub-channel and writes the result to dst, which must be a copy of src.
// A sample is rescaled by the ratio of its diagonal mean to its two-step
// orthogonal mean only when both neighborhoods are flat within threshold,
// the ratio is plausible, and the sample is not near clipping.
func EqualizeLocal(dst, src plane.Mosaic, pat *cfa.Pattern, threshold float32) {
	if pat.Kind() != cfa.Bayer {
		return
	}
	for y := 2; y < src.Height-2; y++ {
		for x := 2; x < src.Width-2; x++ {
			if pat.Color4(src.Y0+y, src.X0+x) != cfa.Green {
				continue
			}
			o11, o12 := src.At(y-1, x-1), src.At(y-1, x+1)
			o13, o14 := src.At(y+1, x-1), src.At(y+1, x+1)
			o21, o22 := src.At(y-2, x), src.At(y+2, x)
			o23, o24 := src.At(y, x-2), src.At(y, x+2)

			m1 := (o11 + o12 + o13 + o14) / 4
			m2 := (o21 + o22 + o23 + o24) / 4
			if m2 <= 0 || m1 <= 0 || m1/m2 >= greenMaximum*2 {
				continue
			}
			c1 := spread(o11, o12, o13, o14)
			c2 := spread(o21, o22, o23, o24)
			v := src.At(y, x)
			if v < greenMaximum*0.95 && c1 < greenMaximum*threshold && c2 < greenMaximum*threshold {
				dst.Pix[y*dst.Stride+x] = max(0, v*(m1/m2))
			}
		}
	}
}

// spread is the mean pairwise absolute difference of four samples.
func spread(a, b, c, d float32) float32 {
	return (absf(a-b) + absf(a-c) + absf(a-d) + absf(b-c) + absf(c-d) + absf(b-d)) / 6
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
