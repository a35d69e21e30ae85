// Package plane provides the float buffers shared by the interpolators:
// read-only mosaic windows, four-channel working images, single-channel
// planes carved from a per-tile arena, and area resampling.
package plane

import "image"

// Channels is the number of interleaved channels in an Image.
const Channels = 4

// Mosaic is a read-only window onto single-channel CFA samples.
//
// X0 and Y0 are the sensor coordinates of the first sample, so pattern
// phase is computed from (Y0+y, X0+x) for a local position (y, x).
type Mosaic struct {
	Pix    []float32
	Stride int
	X0, Y0 int
	Width  int
	Height int
}

// At returns the sample at local position (y, x).
func (m Mosaic) At(y, x int) float32 {
	return m.Pix[y*m.Stride+x]
}

// Sub returns the window restricted to r, given in local coordinates.
// The result shares storage with m.
func (m Mosaic) Sub(r image.Rectangle) Mosaic {
	r = r.Intersect(image.Rect(0, 0, m.Width, m.Height))
	if r.Empty() {
		return Mosaic{X0: m.X0 + r.Min.X, Y0: m.Y0 + r.Min.Y}
	}
	return Mosaic{
		Pix:    m.Pix[r.Min.Y*m.Stride+r.Min.X:],
		Stride: m.Stride,
		X0:     m.X0 + r.Min.X,
		Y0:     m.Y0 + r.Min.Y,
		Width:  r.Dx(),
		Height: r.Dy(),
	}
}

// Clone returns a contiguous copy of m with Stride equal to Width.
func (m Mosaic) Clone() Mosaic {
	out := Mosaic{
		Pix:    make([]float32, m.Width*m.Height),
		Stride: m.Width,
		X0:     m.X0,
		Y0:     m.Y0,
		Width:  m.Width,
		Height: m.Height,
	}
	for y := 0; y < m.Height; y++ {
		copy(out.Pix[y*m.Width:(y+1)*m.Width], m.Pix[y*m.Stride:y*m.Stride+m.Width])
	}
	return out
}

// Image is an interleaved four-channel float image.
type Image struct {
	Pix    []float32
	Width  int
	Height int
}

// NewImage allocates a zeroed w x h image.
func NewImage(w, h int) *Image {
	return &Image{Pix: make([]float32, w*h*Channels), Width: w, Height: h}
}

// WrapImage builds an Image over pix, which must hold w*h*4 values.
func WrapImage(pix []float32, w, h int) *Image {
	return &Image{Pix: pix[:w*h*Channels], Width: w, Height: h}
}

// Offset returns the index of channel 0 of pixel (y, x).
func (im *Image) Offset(y, x int) int {
	return (y*im.Width + x) * Channels
}

// Pixel returns the four channels of pixel (y, x).
func (im *Image) Pixel(y, x int) []float32 {
	i := (y*im.Width + x) * Channels
	return im.Pix[i : i+Channels : i+Channels]
}

// CopyRect copies src's rect r into im at dst, both in local coordinates.
func (im *Image) CopyRect(dst image.Point, src *Image, r image.Rectangle) {
	n := r.Dx() * Channels
	for y := r.Min.Y; y < r.Max.Y; y++ {
		so := src.Offset(y, r.Min.X)
		do := im.Offset(dst.Y+y-r.Min.Y, dst.X)
		copy(im.Pix[do:do+n], src.Pix[so:so+n])
	}
}

// Plane is a single-channel float buffer.
type Plane struct {
	Pix    []float32
	Width  int
	Height int
}

// At returns the value at (y, x).
func (p Plane) At(y, x int) float32 { return p.Pix[y*p.Width+x] }

// Set stores v at (y, x).
func (p Plane) Set(y, x int, v float32) { p.Pix[y*p.Width+x] = v }

// Inset returns the rectangle of points at least n pixels from every edge
// of a w x h buffer. It is empty when the buffer is too small.
func Inset(w, h, n int) image.Rectangle {
	if w-n <= n || h-n <= n {
		return image.Rectangle{}
	}
	return image.Rectangle{Min: image.Pt(n, n), Max: image.Pt(w-n, h-n)}
}

// EdgeDistance returns the distance from (y, x) to the nearest edge of a
// w x h buffer.
func EdgeDistance(w, h, y, x int) int {
	return min(x, y, w-1-x, h-1-y)
}
