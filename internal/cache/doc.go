// Package cache provides a generic, bounded LRU cache.
//
// Entries are bounded by count and, optionally, by a total cost computed
// per value. Besides the usual Get and Set, Take removes an entry and
// hands it to the caller, which lets owners of mutable values check them
// out and later return them with Set.
//
//	c := cache.New[uint64, []float32](8)
//	c.Set(key, buf)
//	buf, ok := c.Take(key) // c no longer holds buf
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
