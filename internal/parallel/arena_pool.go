package parallel

import (
	"sync"

	"github.com/gogpu/demosaic/internal/plane"
)

// ArenaPool recycles tile scratch arenas between calls.
//
// Arenas are pooled per exact size; most tiles of a plan share one size,
// so edge tiles are the only ones that allocate fresh.
//
// Thread safety: ArenaPool is safe for concurrent use.
type ArenaPool struct {
	pools sync.Map // int -> *sync.Pool
}

// Get returns an arena of at least n values.
func (p *ArenaPool) Get(n int) *plane.Arena {
	if n <= 0 {
		return plane.NewArena(0)
	}
	a := p.pool(n).Get().(*plane.Arena)
	a.Reset()
	return a
}

// Put returns an arena to the pool. A nil arena is ignored.
func (p *ArenaPool) Put(a *plane.Arena) {
	if a == nil || a.Cap() == 0 {
		return
	}
	if sp, ok := p.pools.Load(a.Cap()); ok {
		sp.(*sync.Pool).Put(a)
	}
}

func (p *ArenaPool) pool(n int) *sync.Pool {
	if sp, ok := p.pools.Load(n); ok {
		return sp.(*sync.Pool)
	}
	sp := &sync.Pool{New: func() any { return plane.NewArena(n) }}
	actual, _ := p.pools.LoadOrStore(n, sp)
	return actual.(*sync.Pool)
}
