//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/demosaic/internal/cfa"
)

// paramsSize is the byte size of the WGSL Params struct.
const paramsSize = 32

// tableSize is the byte size of the CFA color table, 6x6 u32.
const tableSize = 6 * 6 * 4

// tileParams mirrors the Params uniform of the shaders.
type tileParams struct {
	Width, Height    uint32
	OriginX, OriginY uint32
	Period           uint32
	Colors           uint32
	MergeGreens      uint32
	_                uint32
}

func (p tileParams) bytes() []byte {
	b := make([]byte, paramsSize)
	for i, v := range []uint32{p.Width, p.Height, p.OriginX, p.OriginY, p.Period, p.Colors, p.MergeGreens} {
		binary.LittleEndian.PutUint32(b[i*4:], v)
	}
	return b
}

// colorTable packs the four-way colors of one pattern period, row-major.
func colorTable(pat *cfa.Pattern) []byte {
	b := make([]byte, tableSize)
	n := pat.Period()
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			binary.LittleEndian.PutUint32(b[(r*n+c)*4:], uint32(pat.Color4(r, c))) //nolint:gosec // color index < 4
		}
	}
	return b
}

// wrap maps a sensor coordinate to its phase in [0, period).
func wrap(v, period int) uint32 {
	m := v % period
	if m < 0 {
		m += period
	}
	return uint32(m) //nolint:gosec // m < period
}

// packWindow copies a strided window into contiguous little-endian floats.
func packWindow(pix []float32, stride, w, h int) []byte {
	out := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		row := pix[y*stride : y*stride+w]
		for x, v := range row {
			binary.LittleEndian.PutUint32(out[(y*w+x)*4:], math.Float32bits(v))
		}
	}
	return out
}

// packFloats encodes values as little-endian floats.
func packFloats(v []float32) []byte {
	out := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

// unpackFloats decodes little-endian floats into dst.
func unpackFloats(b []byte, dst []float32) {
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
}
