package plane

import "image"

// Pad returns a contiguous copy of r grown by n on every side, read from
// m. Positions inside m copy their sample. Positions past the edge of m
// take the sample of the same color closest to them, searched in rings
// around the nearest point of m out to maxRadius; the first ring holding
// a match wins and ties go to the first match in scan order. color maps
// sensor coordinates to a filter color.
//
// The result's origin is the grown rectangle's corner, which may lie
// outside the sensor. ok is false when some color has no sample within
// maxRadius, which happens only when m is smaller than the pattern.
func Pad(m Mosaic, r image.Rectangle, n int, color func(row, col int) int, maxRadius int) (Mosaic, bool) {
	g := r.Inset(-n)
	out := Mosaic{
		Pix:    make([]float32, g.Dx()*g.Dy()),
		Stride: g.Dx(),
		X0:     m.X0 + g.Min.X,
		Y0:     m.Y0 + g.Min.Y,
		Width:  g.Dx(),
		Height: g.Dy(),
	}
	bounds := image.Rect(0, 0, m.Width, m.Height)
	for y := g.Min.Y; y < g.Max.Y; y++ {
		row := out.Pix[(y-g.Min.Y)*out.Stride:]
		for x := g.Min.X; x < g.Max.X; x++ {
			p := image.Pt(x, y)
			if p.In(bounds) {
				row[x-g.Min.X] = m.At(y, x)
				continue
			}
			v, found := nearestSameColor(m, y, x, color, maxRadius)
			if !found {
				return Mosaic{}, false
			}
			row[x-g.Min.X] = v
		}
	}
	return out, true
}

func nearestSameColor(m Mosaic, y, x int, color func(row, col int) int, maxRadius int) (float32, bool) {
	want := color(m.Y0+y, m.X0+x)
	cy, cx := min(max(y, 0), m.Height-1), min(max(x, 0), m.Width-1)
	for rad := 0; rad <= maxRadius; rad++ {
		best, by, bx := -1, 0, 0
		for yy := cy - rad; yy <= cy+rad; yy++ {
			if yy < 0 || yy >= m.Height {
				continue
			}
			for xx := cx - rad; xx <= cx+rad; xx++ {
				if xx < 0 || xx >= m.Width || max(abs(yy-cy), abs(xx-cx)) != rad {
					continue
				}
				if color(m.Y0+yy, m.X0+xx) != want {
					continue
				}
				if d := (yy-y)*(yy-y) + (xx-x)*(xx-x); best < 0 || d < best {
					best, by, bx = d, yy, xx
				}
			}
		}
		if best >= 0 {
			return m.At(by, bx), true
		}
	}
	return 0, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
