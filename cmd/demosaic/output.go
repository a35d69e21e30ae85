package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/hdrcolor"
	"golang.org/x/image/tiff"

	"github.com/gogpu/demosaic"
)

// floatImage adapts an OutputBuffer to hdr.Image. Channels past the third
// are dropped.
type floatImage struct {
	buf *demosaic.OutputBuffer
}

func (f floatImage) ColorModel() color.Model { return hdrcolor.RGBModel }
func (f floatImage) Bounds() image.Rectangle { return image.Rect(0, 0, f.buf.Width, f.buf.Height) }
func (f floatImage) At(x, y int) color.Color { return f.HDRAt(x, y) }
func (f floatImage) Size() int               { return f.buf.Width * f.buf.Height }

func (f floatImage) HDRAt(x, y int) hdrcolor.Color {
	p := f.buf.Pixel(x, y)
	return hdrcolor.RGB{R: float64(p[0]), G: float64(p[1]), B: float64(p[2])}
}

// toRGBA64 clips the output to [0, 1] and quantizes it.
func toRGBA64(buf *demosaic.OutputBuffer) *image.RGBA64 {
	img := image.NewRGBA64(image.Rect(0, 0, buf.Width, buf.Height))
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			p := buf.Pixel(x, y)
			img.SetRGBA64(x, y, color.RGBA64{R: quantize(p[0]), G: quantize(p[1]), B: quantize(p[2]), A: 0xffff})
		}
	}
	return img
}

func quantize(v float32) uint16 {
	return uint16(min(max(v, 0), 1)*0xffff + 0.5)
}

// writeOutput encodes buf by the extension of path: .hdr as Radiance RGBE,
// .tif/.tiff as 16-bit TIFF and anything else as PNG.
func writeOutput(path string, buf *demosaic.OutputBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := encode(f, strings.ToLower(filepath.Ext(path)), buf); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func encode(w io.Writer, ext string, buf *demosaic.OutputBuffer) error {
	switch ext {
	case ".hdr":
		return rgbe.Encode(w, floatImage{buf})
	case ".tif", ".tiff":
		return tiff.Encode(w, toRGBA64(buf), &tiff.Options{Compression: tiff.Deflate})
	default:
		return png.Encode(w, toRGBA64(buf))
	}
}
