package demosaic

import (
	"fmt"
	"image"
	"math"

	"github.com/gogpu/demosaic/internal/plane"
)

// RawBuffer holds single-channel sensor samples.
//
// Samples are normalized so that 1 is the sensor white level. The engine
// never writes to Pix, so one buffer can serve concurrent calls.
type RawBuffer struct {
	Pix    []float32
	Width  int
	Height int
	Stride int

	// WhiteLevel is the integer clipping level the samples were scaled
	// from, 0 if unknown.
	WhiteLevel int
}

// NewRawBuffer wraps w*h normalized samples.
func NewRawBuffer(pix []float32, w, h int) *RawBuffer {
	return &RawBuffer{Pix: pix, Width: w, Height: h, Stride: w}
}

// NewRawBufferUint16 converts integer samples of the given bit depth to a
// normalized RawBuffer.
func NewRawBufferUint16(samples []uint16, w, h, bits int) *RawBuffer {
	white := 1<<bits - 1
	scale := 1 / float32(white)
	pix := make([]float32, w*h)
	for i := range pix {
		pix[i] = float32(samples[i]) * scale
	}
	return &RawBuffer{Pix: pix, Width: w, Height: h, Stride: w, WhiteLevel: white}
}

// Bounds returns the region covering the whole buffer.
func (b *RawBuffer) Bounds() Region {
	return Region{Width: b.Width, Height: b.Height}
}

func (b *RawBuffer) validate() error {
	if b == nil || b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: empty raw buffer", ErrInvalidRegion)
	}
	if b.Stride < b.Width || len(b.Pix) < (b.Height-1)*b.Stride+b.Width {
		return fmt.Errorf("%w: raw buffer of %d samples is too short for %dx%d stride %d",
			ErrInvalidRegion, len(b.Pix), b.Width, b.Height, b.Stride)
	}
	return nil
}

// mosaic returns the read-only window for r.
func (b *RawBuffer) mosaic(r Region) plane.Mosaic {
	whole := plane.Mosaic{Pix: b.Pix, Stride: b.Stride, Width: b.Width, Height: b.Height}
	return whole.Sub(r.Rect())
}

// context returns r grown by n samples on every side. Samples past the
// sensor edge repeat the nearest sample of the same four-way color, so
// the padded mosaic keeps the pattern's phase and the bayer greens stay
// apart. ok is false when the buffer is too small to hold every color.
func (b *RawBuffer) context(r Region, n int, pat *CFA) (plane.Mosaic, bool) {
	whole := plane.Mosaic{Pix: b.Pix, Stride: b.Stride, Width: b.Width, Height: b.Height}
	return plane.Pad(whole, r.Rect(), n, pat.Color4, pat.Period())
}

// Region is a rectangle in raw sensor coordinates.
type Region struct {
	X, Y          int
	Width, Height int
}

// Rect returns the region as an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// validate checks that r is non-empty, inside b and aligned to period.
func (r Region) validate(b *RawBuffer, period int) error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidRegion, r.Width, r.Height)
	}
	if !r.Rect().In(image.Rect(0, 0, b.Width, b.Height)) {
		return fmt.Errorf("%w: %v outside %dx%d buffer", ErrInvalidRegion, r.Rect(), b.Width, b.Height)
	}
	if r.X%period != 0 || r.Y%period != 0 {
		return fmt.Errorf("%w: origin (%d,%d) not aligned to period %d", ErrInvalidRegion, r.X, r.Y, period)
	}
	return nil
}

// Request is one demosaic call.
type Request struct {
	Raw    *RawBuffer
	CFA    *CFA
	Region Region

	// Scale maps the region to the output size, 0 < Scale <= 1.
	Scale float64

	Config Config
}

// OutputSize returns the output dimensions, round(Region*Scale) with a
// minimum of 1.
func (r *Request) OutputSize() (w, h int) {
	w = max(1, int(math.Round(float64(r.Region.Width)*r.Scale)))
	h = max(1, int(math.Round(float64(r.Region.Height)*r.Scale)))
	return w, h
}

// OutputBuffer is an interleaved float image.
//
// Channels is 3 (R, G, B) for Bayer and X-Trans sensors and 4 for
// four-color sensors, where the fourth channel holds the fourth filter.
type OutputBuffer struct {
	Pix      []float32
	Channels int
	Width    int
	Height   int
}

// Pixel returns the channels of the pixel at (x, y).
func (o *OutputBuffer) Pixel(x, y int) []float32 {
	i := (y*o.Width + x) * o.Channels
	return o.Pix[i : i+o.Channels : i+o.Channels]
}

// Clone returns a deep copy of o.
func (o *OutputBuffer) Clone() *OutputBuffer {
	c := *o
	c.Pix = append([]float32(nil), o.Pix...)
	return &c
}

// newOutput packs the first channels of img.
func newOutput(img *plane.Image, channels int) *OutputBuffer {
	out := &OutputBuffer{
		Pix:      make([]float32, img.Width*img.Height*channels),
		Channels: channels,
		Width:    img.Width,
		Height:   img.Height,
	}
	for i, j := 0, 0; i < len(img.Pix); i, j = i+plane.Channels, j+channels {
		copy(out.Pix[j:j+channels], img.Pix[i:i+channels])
	}
	return out
}

// Result describes a completed call.
type Result struct {
	// Output is nil when Reason is fatal.
	Output *OutputBuffer

	Reason Reason

	// Method is the algorithm that actually ran after policy and
	// substitution.
	Method Method
	Policy QualityPolicy

	Halo     int
	TileSize int
	Tiles    int

	// Backend names the accelerator that ran tiles, or "cpu".
	Backend string

	// FromCache is set when Output came from the preview cache.
	FromCache bool
}

// OK reports whether Output holds a complete image.
func (r *Result) OK() bool {
	return r != nil && r.Output != nil && !r.Reason.Fatal()
}
