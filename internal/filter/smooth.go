package filter

import (
	"sync"

	"github.com/gogpu/demosaic/internal/plane"
)

// diffPool recycles the color difference planes used by Smooth.
var diffPool = sync.Pool{
	New: func() any {
		buf := make([]float32, 0, 1024)
		return &buf
	},
}

func getDiff(n int) *[]float32 {
	p := diffPool.Get().(*[]float32)
	if cap(*p) < n {
		*p = make([]float32, n)
	}
	*p = (*p)[:n]
	return p
}

// Smooth runs passes rounds of color smoothing on img. Each round replaces
// the red and blue differences to green with their 3x3 median, keeping
// green as is. Pixels on the outer edge are left untouched and zero
// passes leave img unchanged.
func Smooth(img *plane.Image, passes int) {
	w, h := img.Width, img.Height
	if passes <= 0 || w < 3 || h < 3 {
		return
	}
	diff := getDiff(w * h)
	defer diffPool.Put(diff)
	d := *diff

	for pass := 0; pass < passes; pass++ {
		for _, c := range [2]int{0, 2} {
			for i := range d {
				px := img.Pix[i*plane.Channels:]
				d[i] = px[c] - px[1]
			}
			var win [9]float32
			for y := 1; y < h-1; y++ {
				for x := 1; x < w-1; x++ {
					i := y*w + x
					copy(win[0:3], d[i-w-1:i-w+2])
					copy(win[3:6], d[i-1:i+2])
					copy(win[6:9], d[i+w-1:i+w+2])
					px := img.Pixel(y, x)
					px[c] = max(Median9(&win)+px[1], 0)
				}
			}
		}
	}
}
