// Package demosaic reconstructs full-color images from single-channel
// color filter array (CFA) captures.
//
// # Overview
//
// A raw sensor records one color per photosite, arranged in a repeating
// mosaic: the 2x2 Bayer layouts, the 6x6 X-Trans layout, or a 2x2 pattern
// of four distinct filters. The engine interpolates the two or three
// missing colors at every site with one of several algorithms (PPG, VNG,
// Markesteijn, FDC), optionally preceded by green equalization and
// followed by color smoothing.
//
// # Quick Start
//
//	raw := demosaic.NewRawBufferUint16(samples, 6000, 4000, 14)
//	eng := demosaic.NewEngine()
//	defer eng.Close()
//
//	res, err := eng.Process(demosaic.Request{
//	    Raw:    raw,
//	    CFA:    demosaic.NewBayer(demosaic.RGGB),
//	    Region: raw.Bounds(),
//	    Scale:  1,
//	    Config: demosaic.DefaultConfig(),
//	})
//	if err != nil {
//	    return err
//	}
//	rgb := res.Output // interleaved R, G, B floats
//
// # Quality Policy
//
// Each call evaluates a QualityPolicy from the context (interactive,
// export, preview, thumbnail), the requested scale and the CFA kind.
// Small previews take a decimated sample instead of a full
// reconstruction, and X-Trans previews fall back to cheaper algorithms.
//
// # Tiling and Acceleration
//
// Every algorithm runs through a tile plan whose windows overlap by the
// algorithm's halo, so the stitched result equals an untiled run. The
// plan covers the region grown by the halo: neighboring raw samples where
// the sensor has them, nearest same-color samples past its edge, so a
// small region matches the same pixels of a full-frame run. CPU
// tiles run in parallel on a worker pool. When a TileAccelerator is
// registered (see the gpu subpackage), tiles are dispatched to it in
// order and any tile it declines is computed on the CPU.
//
//	import _ "github.com/gogpu/demosaic/gpu" // enables GPU acceleration
//
// # Logging
//
// The package is silent by default. Call SetLogger to receive policy,
// tiling and fallback diagnostics through log/slog.
package demosaic
