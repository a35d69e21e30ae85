package plane

// contrib is one source sample's share of a destination sample.
type contrib struct {
	src    int
	weight float32
}

// areaWeights maps each of n destination cells onto the source cells of
// length m they cover, weighted by overlap. Weights of a cell sum to 1.
func areaWeights(m, n int) [][]contrib {
	out := make([][]contrib, n)
	scale := float64(m) / float64(n)
	for i := 0; i < n; i++ {
		lo := float64(i) * scale
		hi := float64(i+1) * scale
		var list []contrib
		for s := int(lo); s < m && float64(s) < hi; s++ {
			overlap := min(hi, float64(s+1)) - max(lo, float64(s))
			if overlap <= 0 {
				continue
			}
			list = append(list, contrib{src: s, weight: float32(overlap / scale)})
		}
		out[i] = list
	}
	return out
}

// Resize area-averages src into a new w x h image. Each destination pixel
// is the overlap-weighted mean of the source pixels under its footprint,
// so a uniform image stays uniform.
func Resize(src *Image, w, h int) *Image {
	if src.Width == w && src.Height == h {
		out := NewImage(w, h)
		copy(out.Pix, src.Pix)
		return out
	}
	cols := areaWeights(src.Width, w)
	rows := areaWeights(src.Height, h)

	// Horizontal pass into a w x src.Height buffer.
	tmp := NewImage(w, src.Height)
	for y := 0; y < src.Height; y++ {
		for x, list := range cols {
			d := tmp.Pixel(y, x)
			for _, c := range list {
				s := src.Pixel(y, c.src)
				for ch := 0; ch < Channels; ch++ {
					d[ch] += s[ch] * c.weight
				}
			}
		}
	}

	out := NewImage(w, h)
	for y, list := range rows {
		for _, c := range list {
			for x := 0; x < w; x++ {
				d := out.Pixel(y, x)
				s := tmp.Pixel(c.src, x)
				for ch := 0; ch < Channels; ch++ {
					d[ch] += s[ch] * c.weight
				}
			}
		}
	}
	return out
}
