package plane

// Arena hands out planes from one contiguous allocation. Planes carved
// from an arena are valid until Reset.
type Arena struct {
	buf []float32
	off int
}

// NewArena allocates an arena of n float32 values.
func NewArena(n int) *Arena {
	return &Arena{buf: make([]float32, n)}
}

// Cap returns the arena size in float32 values.
func (a *Arena) Cap() int { return len(a.buf) }

// Plane carves a zeroed w x h plane. It panics if the arena is exhausted,
// which means the caller's size estimate is wrong.
func (a *Arena) Plane(w, h int) Plane {
	n := w * h
	if a.off+n > len(a.buf) {
		panic("plane: arena exhausted")
	}
	pix := a.buf[a.off : a.off+n : a.off+n]
	a.off += n
	clear(pix)
	return Plane{Pix: pix, Width: w, Height: h}
}

// Image carves a zeroed w x h four-channel image.
func (a *Arena) Image(w, h int) *Image {
	p := a.Plane(w*Channels, h)
	return &Image{Pix: p.Pix, Width: w, Height: h}
}

// Reset makes the whole arena available again.
func (a *Arena) Reset() { a.off = 0 }
