package demosaic

import "sync"

// AmbientParams are reconstruction parameters derived from a whole raw
// buffer and shared across calls on it.
type AmbientParams struct {
	// Hash is the content hash of the raw buffer the values came from.
	Hash uint64

	// GreenRatio is the global green equalization factor. It is only
	// meaningful when GreenRatioValid is set.
	GreenRatio      float32
	GreenRatioValid bool
}

// AmbientStore holds the most recent AmbientParams.
//
// Writers replace the stored value; the last writer wins. Readers pass
// the hash of their own raw buffer and get a miss when it differs, so a
// stale entry is recomputed rather than applied to other data.
type AmbientStore struct {
	mu  sync.Mutex
	cur AmbientParams
	set bool
}

// NewAmbientStore returns an empty store.
func NewAmbientStore() *AmbientStore {
	return &AmbientStore{}
}

// Load returns the stored parameters if they were computed from a raw
// buffer with the given hash.
func (s *AmbientStore) Load(hash uint64) (AmbientParams, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.set || s.cur.Hash != hash {
		return AmbientParams{}, false
	}
	return s.cur, true
}

// Store replaces the stored parameters.
func (s *AmbientStore) Store(p AmbientParams) {
	s.mu.Lock()
	s.cur = p
	s.set = true
	s.mu.Unlock()
}

// LoadOrCompute returns the parameters for hash, computing and storing
// them on a miss. compute runs without the lock held, so concurrent
// misses may compute twice; the last store wins.
func (s *AmbientStore) LoadOrCompute(hash uint64, compute func() AmbientParams) AmbientParams {
	if p, ok := s.Load(hash); ok {
		return p
	}
	p := compute()
	p.Hash = hash
	s.Store(p)
	return p
}
