package parallel

import (
	"image"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

// =============================================================================
// WorkerPool Tests
// =============================================================================

func TestWorkerPool_Create(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if !pool.IsRunning() {
		t.Error("pool should be running after creation")
	}
}

func TestWorkerPool_CreateDefaultWorkers(t *testing.T) {
	for _, n := range []int{0, -3} {
		pool := NewWorkerPool(n)
		if got, want := pool.Workers(), runtime.GOMAXPROCS(0); got != want {
			t.Errorf("NewWorkerPool(%d).Workers() = %d, want %d", n, got, want)
		}
		pool.Close()
	}
}

func TestWorkerPool_ExecuteAll(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var counter atomic.Int64
	jobs := make([]func(), 100)
	for i := range jobs {
		jobs[i] = func() { counter.Add(1) }
	}
	pool.ExecuteAll(jobs)

	if counter.Load() != 100 {
		t.Errorf("counter = %d, want 100", counter.Load())
	}
}

func TestWorkerPool_ExecuteAll_EveryJobOnce(t *testing.T) {
	pool := NewWorkerPool(3)
	defer pool.Close()

	var mu sync.Mutex
	seen := make(map[int]int)
	jobs := make([]func(), 50)
	for i := range jobs {
		jobs[i] = func() {
			mu.Lock()
			seen[i]++
			mu.Unlock()
		}
	}
	pool.ExecuteAll(jobs)

	for i := range jobs {
		if seen[i] != 1 {
			t.Errorf("job %d ran %d times, want 1", i, seen[i])
		}
	}
}

func TestWorkerPool_ExecuteAll_Empty(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	pool.ExecuteAll(nil)
	pool.ExecuteAll([]func(){})
}

func TestWorkerPool_CloseIdempotent(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()
	pool.Close()
	if pool.IsRunning() {
		t.Error("pool still running after Close")
	}
}

func TestWorkerPool_ExecuteAfterCloseRunsInline(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()

	ran := 0
	pool.ExecuteAll([]func(){func() { ran++ }, func() { ran++ }})
	if ran != 2 {
		t.Errorf("ran = %d, want 2", ran)
	}
}

func TestWorkerPool_ConcurrentCallers(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var total atomic.Int64
	var wg sync.WaitGroup
	for c := 0; c < 8; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			jobs := make([]func(), 20)
			for i := range jobs {
				jobs[i] = func() { total.Add(1) }
			}
			pool.ExecuteAll(jobs)
		}()
	}
	wg.Wait()
	if total.Load() != 160 {
		t.Errorf("total = %d, want 160", total.Load())
	}
}

// =============================================================================
// Plan Tests
// =============================================================================

func TestNewPlan_InteriorsPartitionRegion(t *testing.T) {
	const w, h = 301, 157
	p, err := NewPlan(w, h, 64, 12)
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}
	owner := make([]int, w*h)
	region := image.Rect(0, 0, w, h)
	for _, tile := range p.Tiles {
		if !tile.Interior.In(tile.Window) || !tile.Window.In(region) {
			t.Fatalf("tile %d: interior %v window %v", tile.Index, tile.Interior, tile.Window)
		}
		if tile.Window.Dx() > 64 || tile.Window.Dy() > 64 {
			t.Fatalf("tile %d window %v exceeds 64", tile.Index, tile.Window)
		}
		for y := tile.Interior.Min.Y; y < tile.Interior.Max.Y; y++ {
			for x := tile.Interior.Min.X; x < tile.Interior.Max.X; x++ {
				owner[y*w+x]++
			}
		}
	}
	for i, n := range owner {
		if n != 1 {
			t.Fatalf("pixel %d covered %d times", i, n)
		}
	}
	if len(p.Tiles) != p.Cols*p.Rows {
		t.Errorf("len(Tiles) = %d, want %d", len(p.Tiles), p.Cols*p.Rows)
	}
}

func TestNewPlan_HaloAroundInterior(t *testing.T) {
	p, err := NewPlan(200, 200, 64, 8)
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}
	region := image.Rect(0, 0, 200, 200)
	for _, tile := range p.Tiles {
		want := tile.Interior.Inset(-8).Intersect(region)
		if tile.Window != want {
			t.Errorf("tile %d window = %v, want %v", tile.Index, tile.Window, want)
		}
		if l := tile.Local(); l.Size() != tile.Interior.Size() {
			t.Errorf("tile %d local size = %v", tile.Index, l.Size())
		}
	}
}

func TestNewPlan_SingleTile(t *testing.T) {
	p, err := NewPlan(40, 30, 64, 17)
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}
	if len(p.Tiles) != 1 || p.Tiles[0].Window != image.Rect(0, 0, 40, 30) {
		t.Errorf("tiles = %+v, want one tile over the region", p.Tiles)
	}
}

func TestPlan_Restrict(t *testing.T) {
	const w, h, halo = 150, 120, 12
	p, err := NewPlan(w, h, 48, halo)
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}
	windows := map[image.Rectangle]bool{}
	for _, tile := range p.Tiles {
		windows[tile.Window] = true
	}
	r := image.Rect(halo, halo, w-halo, h-halo)
	p.Restrict(r)

	owner := make([]int, w*h)
	for i, tile := range p.Tiles {
		if tile.Index != i {
			t.Errorf("tile %d has index %d", i, tile.Index)
		}
		if !tile.Interior.In(r) || !tile.Interior.In(tile.Window) {
			t.Fatalf("tile %d: interior %v outside %v or window %v", i, tile.Interior, r, tile.Window)
		}
		if !windows[tile.Window] {
			t.Errorf("tile %d window %v was changed", i, tile.Window)
		}
		for y := tile.Interior.Min.Y; y < tile.Interior.Max.Y; y++ {
			for x := tile.Interior.Min.X; x < tile.Interior.Max.X; x++ {
				owner[y*w+x]++
			}
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			want := 0
			if image.Pt(x, y).In(r) {
				want = 1
			}
			if got := owner[y*w+x]; got != want {
				t.Fatalf("(%d,%d) covered %d times, want %d", x, y, got, want)
			}
		}
	}
	if len(p.Tiles) != p.Cols*p.Rows {
		t.Errorf("len(Tiles) = %d, want %d", len(p.Tiles), p.Cols*p.Rows)
	}
}

func TestNewPlan_TooSmall(t *testing.T) {
	if _, err := NewPlan(500, 500, 40, 20); err != ErrTileTooSmall {
		t.Errorf("err = %v, want ErrTileTooSmall", err)
	}
}

// =============================================================================
// ArenaPool and Pipeline Tests
// =============================================================================

func TestArenaPool_Reuse(t *testing.T) {
	var p ArenaPool
	a := p.Get(100)
	if a.Cap() != 100 {
		t.Fatalf("Cap = %d, want 100", a.Cap())
	}
	a.Plane(10, 10)
	p.Put(a)

	b := p.Get(100)
	b.Plane(10, 10) // must not panic: Get resets the arena
	p.Put(b)
}

func TestPipeline_OrderAndOverlap(t *testing.T) {
	var order []int
	Pipeline(5,
		func(i int) int { return i * 10 },
		func(i int, v int) {
			if v != i*10 {
				t.Errorf("item %d got %d", i, v)
			}
			order = append(order, i)
		})
	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v", order)
		}
	}
	if len(order) != 5 {
		t.Errorf("ran %d items, want 5", len(order))
	}
}
