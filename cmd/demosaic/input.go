package main

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"strconv"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/tiff"

	"github.com/gogpu/demosaic"
)

// loadRaw decodes a single-channel TIFF holding the undemosaiced mosaic.
// Samples are scaled from the given bit depth.
func loadRaw(path string, bits int) (*demosaic.RawBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, err := tiff.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	w, h, samples := grayPixels(img)
	if bits <= 0 || bits > 16 {
		return nil, fmt.Errorf("bit depth %d out of range", bits)
	}
	if bits < 16 {
		// Gray16 conversion left-aligns narrower samples.
		if _, native := img.(*image.Gray16); !native {
			for i, v := range samples {
				samples[i] = v >> (16 - bits)
			}
		}
	}
	return demosaic.NewRawBufferUint16(samples, w, h, bits), nil
}

func grayPixels(img image.Image) (w, h int, samples []uint16) {
	b := img.Bounds()
	w, h = b.Dx(), b.Dy()
	samples = make([]uint16, w*h)
	if g, ok := img.(*image.Gray16); ok {
		for y := 0; y < h; y++ {
			row := g.Pix[y*g.Stride:]
			for x := 0; x < w; x++ {
				samples[y*w+x] = uint16(row[2*x])<<8 | uint16(row[2*x+1])
			}
		}
		return w, h, samples
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			samples[y*w+x] = color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16).Y
		}
	}
	return w, h, samples
}

// readISO returns the ISO speed from the EXIF block of path, or 0.
func readISO(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	ex, err := exif.Decode(f)
	if err != nil {
		return 0, fmt.Errorf("exif %s: %w", path, err)
	}
	tag, err := ex.Get(exif.ISOSpeedRatings)
	if err != nil {
		return 0, fmt.Errorf("exif ISO %s: %w", path, err)
	}
	v, err := tag.Int64(0)
	if err != nil {
		return 0, fmt.Errorf("exif ISO %s: %w", path, err)
	}
	return float64(v), nil
}

// parseCFA accepts a Bayer layout name or "xtrans".
func parseCFA(s string) (*demosaic.CFA, error) {
	if strings.EqualFold(s, "xtrans") {
		return demosaic.DefaultXTrans(), nil
	}
	layout, err := demosaic.ParseLayout(s)
	if err != nil {
		return nil, err
	}
	return demosaic.NewBayer(layout), nil
}

// parseRegion parses "x,y,w,h". An empty string selects the whole buffer.
func parseRegion(s string, raw *demosaic.RawBuffer) (demosaic.Region, error) {
	if s == "" {
		return raw.Bounds(), nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return demosaic.Region{}, fmt.Errorf("region %q: want x,y,w,h", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return demosaic.Region{}, fmt.Errorf("region %q: %w", s, err)
		}
		v[i] = n
	}
	return demosaic.Region{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}
