package demosaic

// Option configures an Engine during creation.
//
// Example:
//
//	// Default: all CPUs, registered accelerator if any, no memory limit
//	eng := demosaic.NewEngine()
//
//	// Bounded memory with a preview cache
//	eng := demosaic.NewEngine(
//	    demosaic.WithMemoryLimit(256<<20),
//	    demosaic.WithPreviewCache(demosaic.NewPreviewCache(4, 0)),
//	)
type Option func(*engineOptions)

// engineOptions holds optional configuration for Engine creation.
type engineOptions struct {
	workers  int
	accel    TileAccelerator
	accelSet bool
	memLimit int64
	tileSize int
	previews *PreviewCache
	ambient  *AmbientStore
}

// defaultOptions returns the default engine options.
func defaultOptions() engineOptions {
	return engineOptions{
		workers:  0,   // GOMAXPROCS
		tileSize: 0,   // parallel.DefaultTileSize
		ambient:  nil, // Will be created if nil
	}
}

// WithWorkers sets the number of CPU lanes. Zero or negative uses
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *engineOptions) {
		o.workers = n
	}
}

// WithAccelerator sets the accelerator used by this engine instead of the
// registered one. Passing nil disables acceleration for the engine.
func WithAccelerator(a TileAccelerator) Option {
	return func(o *engineOptions) {
		o.accel = a
		o.accelSet = true
	}
}

// WithMemoryLimit bounds the per-tile scratch memory, in bytes. Tiles are
// shrunk until RequiredTileMemory fits; when even the smallest tile does
// not fit, Process fails with ErrAllocationFailure.
func WithMemoryLimit(bytes int64) Option {
	return func(o *engineOptions) {
		o.memLimit = bytes
	}
}

// WithTileSize sets the largest tile window side in pixels.
func WithTileSize(n int) Option {
	return func(o *engineOptions) {
		o.tileSize = n
	}
}

// WithPreviewCache enables reuse of preview and thumbnail outputs.
func WithPreviewCache(c *PreviewCache) Option {
	return func(o *engineOptions) {
		o.previews = c
	}
}

// WithAmbientStore shares an ambient parameter store between engines.
func WithAmbientStore(s *AmbientStore) Option {
	return func(o *engineOptions) {
		o.ambient = s
	}
}
