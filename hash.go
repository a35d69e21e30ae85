package demosaic

import (
	"encoding/binary"
	"hash/maphash"
	"math"
)

// hashSeed is fixed for the life of the process; content hashes are only
// compared within one process.
var hashSeed = maphash.MakeSeed()

// rawHash returns the content hash of the samples of b.
func rawHash(b *RawBuffer) uint64 {
	var h maphash.Hash
	h.SetSeed(hashSeed)
	writeInts(&h, b.Width, b.Height)
	var buf [4096]byte
	n := 0
	for y := 0; y < b.Height; y++ {
		for _, v := range b.Pix[y*b.Stride : y*b.Stride+b.Width] {
			binary.LittleEndian.PutUint32(buf[n:], math.Float32bits(v))
			n += 4
			if n == len(buf) {
				h.Write(buf[:])
				n = 0
			}
		}
	}
	h.Write(buf[:n])
	return h.Sum64()
}

// previewKey combines the raw hash with everything else that shapes the
// output of a call.
func previewKey(raw uint64, req *Request) PreviewKey {
	var h maphash.Hash
	h.SetSeed(hashSeed)
	writeInts(&h, int(raw), int(raw>>32))
	h.Write(req.CFA.Signature())
	writeInts(&h, req.Region.X, req.Region.Y, req.Region.Width, req.Region.Height)
	writeInts(&h, int(math.Float64bits(req.Scale)))

	c := req.Config
	writeInts(&h,
		int(c.Method),
		int(math.Float32bits(c.MedianThreshold)),
		int(c.GreenEq),
		int(math.Float32bits(c.GreenEqThreshold)),
		c.ColorSmoothingPasses,
		int(c.Context),
		int(math.Float64bits(c.Sensitivity)),
		c.ThumbnailQualityFloor,
	)
	return PreviewKey(h.Sum64())
}

func writeInts(h *maphash.Hash, vs ...int) {
	var buf [8]byte
	for _, v := range vs {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
}
