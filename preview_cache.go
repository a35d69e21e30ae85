package demosaic

import "github.com/gogpu/demosaic/internal/cache"

// DefaultPreviewEntries is the entry limit of NewPreviewCache(0, 0).
const DefaultPreviewEntries = 8

// PreviewKey identifies a reconstructed preview by the content hash of
// its raw samples, CFA, region, scale and configuration.
type PreviewKey uint64

// PreviewCache retains reconstructed buffers across calls, for instance
// across zoom levels of the same image.
//
// Ownership moves with the buffer: Checkout removes the entry and the
// caller owns the returned buffer; Checkin hands a buffer to the cache,
// after which the caller must not modify it. The cache is a bounded LRU.
type PreviewCache struct {
	c *cache.Cache[PreviewKey, *OutputBuffer]
}

// NewPreviewCache returns a cache holding at most entries buffers and
// maxBytes bytes of samples. Zero entries selects DefaultPreviewEntries;
// zero maxBytes means no byte limit.
func NewPreviewCache(entries int, maxBytes int64) *PreviewCache {
	if entries <= 0 {
		entries = DefaultPreviewEntries
	}
	return &PreviewCache{
		c: cache.NewWeighted[PreviewKey, *OutputBuffer](entries, maxBytes, func(o *OutputBuffer) int64 {
			return int64(len(o.Pix)) * bytesPerSample
		}),
	}
}

// Checkout removes the buffer stored under key and transfers it to the
// caller.
func (p *PreviewCache) Checkout(key PreviewKey) (*OutputBuffer, bool) {
	return p.c.Take(key)
}

// Checkin transfers buf to the cache under key, replacing any previous
// entry. It reports whether the buffer was retained; a buffer larger than
// the byte limit is dropped.
func (p *PreviewCache) Checkin(key PreviewKey, buf *OutputBuffer) bool {
	if buf == nil {
		return false
	}
	return p.c.Set(key, buf)
}

// Len returns the number of retained buffers.
func (p *PreviewCache) Len() int {
	return p.c.Len()
}

// Clear drops every retained buffer.
func (p *PreviewCache) Clear() {
	p.c.Clear()
}

// CacheStats reports cache occupancy, hits, misses and evictions.
type CacheStats = cache.Stats

// Stats returns the cache statistics.
func (p *PreviewCache) Stats() CacheStats {
	return p.c.Stats()
}
