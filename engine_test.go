package demosaic

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"
)

// flatRaw samples a uniform scene: every site of color c holds vals[c].
func flatRaw(pat *CFA, w, h int, vals [4]float32) *RawBuffer {
	pix := make([]float32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pix[y*w+x] = vals[pat.ColorAt(y, x)]
		}
	}
	return NewRawBuffer(pix, w, h)
}

func randomRaw(w, h int, seed int64) *RawBuffer {
	rng := rand.New(rand.NewSource(seed))
	pix := make([]float32, w*h)
	for i := range pix {
		pix[i] = rng.Float32()
	}
	return NewRawBuffer(pix, w, h)
}

func exportConfig(m Method) Config {
	cfg := DefaultConfig()
	cfg.Method = m
	cfg.Context = ContextExport
	return cfg
}

// grayRequest is a uniform mid-gray Bayer capture.
func grayRequest(t *testing.T, w, h int, m Method) Request {
	t.Helper()
	pat := NewBayer(RGGB)
	raw := flatRaw(pat, w, h, [4]float32{0.5, 0.5, 0.5, 0.5})
	return Request{Raw: raw, CFA: pat, Region: raw.Bounds(), Scale: 1, Config: exportConfig(m)}
}

func randomRequest(t *testing.T, w, h int, pat *CFA, m Method) Request {
	t.Helper()
	raw := randomRaw(w, h, int64(w*7919+h))
	return Request{Raw: raw, CFA: pat, Region: raw.Bounds(), Scale: 1, Config: exportConfig(m)}
}

func cpuEngine(opts ...Option) *Engine {
	return NewEngine(append([]Option{WithAccelerator(nil)}, opts...)...)
}

func assertSameOutput(t *testing.T, got, want *OutputBuffer) {
	t.Helper()
	if got.Width != want.Width || got.Height != want.Height || got.Channels != want.Channels {
		t.Fatalf("output %dx%dx%d, want %dx%dx%d",
			got.Width, got.Height, got.Channels, want.Width, want.Height, want.Channels)
	}
	for i := range got.Pix {
		if got.Pix[i] != want.Pix[i] {
			px := i / got.Channels
			t.Fatalf("pixel (%d,%d) channel %d = %v, want %v",
				px%got.Width, px/got.Width, i%got.Channels, got.Pix[i], want.Pix[i])
		}
	}
}

// =============================================================================
// Scenarios
// =============================================================================

func TestProcess_VNGMidGray(t *testing.T) {
	eng := cpuEngine()
	defer eng.Close()

	res, err := eng.Process(grayRequest(t, 64, 64, VNG))
	if err != nil {
		t.Fatalf("Process() = %v", err)
	}
	if !res.OK() || res.Method != VNG {
		t.Fatalf("OK() = %v, Method = %s", res.OK(), res.Method)
	}
	out := res.Output
	if out.Width != 64 || out.Height != 64 || out.Channels != 3 {
		t.Fatalf("output %dx%dx%d, want 64x64x3", out.Width, out.Height, out.Channels)
	}
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			p := out.Pixel(x, y)
			if math.Abs(float64(p[0]-p[1])) > 1e-4 || math.Abs(float64(p[2]-p[1])) > 1e-4 {
				t.Fatalf("pixel (%d,%d) = %v, want equal channels", x, y, p)
			}
		}
	}
}

func TestProcess_MarkesteijnImpulseStaysLocal(t *testing.T) {
	const size, base = 12, 0.25
	pat := DefaultXTrans()
	raw := flatRaw(pat, size, size, [4]float32{base, base, base, base})

	// Red site closest to the center.
	iy, ix, best := 0, 0, math.MaxInt
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			d := (y-size/2)*(y-size/2) + (x-size/2)*(x-size/2)
			if pat.ColorAt(y, x) == Red && d < best {
				iy, ix, best = y, x, d
			}
		}
	}
	raw.Pix[iy*size+ix] = 1

	eng := cpuEngine()
	defer eng.Close()
	res, err := eng.Process(Request{Raw: raw, CFA: pat, Region: raw.Bounds(), Scale: 1, Config: exportConfig(Markesteijn1)})
	if err != nil {
		t.Fatalf("Process() = %v", err)
	}
	if res.Method != Markesteijn1 {
		t.Errorf("Method = %s, want markesteijn", res.Method)
	}

	const bound = 0.05 * (1 - base)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if max(abs(y-iy), abs(x-ix)) < 4 {
				continue
			}
			for c, v := range res.Output.Pixel(x, y) {
				if math.Abs(float64(v-base)) > bound {
					t.Errorf("(%d,%d)[%d] = %v, impulse leaked %v pixels away",
						x, y, c, v, max(abs(y-iy), abs(x-ix)))
				}
			}
		}
	}
}

func TestProcess_PPGOnXTransCPUIsUnsupported(t *testing.T) {
	eng := cpuEngine()
	defer eng.Close()

	req := randomRequest(t, 36, 36, DefaultXTrans(), PPG)
	req.Config.Backend = BackendCPU
	res, err := eng.Process(req)
	if !errors.Is(err, ErrUnsupportedCombination) {
		t.Fatalf("Process() error = %v, want ErrUnsupportedCombination", err)
	}
	if res == nil || res.Reason != ReasonUnsupportedCombination {
		t.Fatalf("Result = %+v, want ReasonUnsupportedCombination", res)
	}
	if res.OK() || res.Output != nil {
		t.Error("unsupported combination produced output")
	}
}

func TestProcess_PPGOnXTransAutoSubstitutes(t *testing.T) {
	eng := cpuEngine()
	defer eng.Close()

	res, err := eng.Process(randomRequest(t, 36, 36, DefaultXTrans(), PPG))
	if err != nil {
		t.Fatalf("Process() = %v", err)
	}
	if res.Method != Markesteijn1 {
		t.Errorf("Method = %s, want markesteijn", res.Method)
	}
}

// =============================================================================
// Properties
// =============================================================================

func TestProcess_FlatField(t *testing.T) {
	four, err := NewFourColor([2][2]uint8{{Red, Green}, {Green2, Blue}})
	if err != nil {
		t.Fatal(err)
	}
	vals := [4]float32{0.2, 0.5, 0.7, 0.35}
	cases := []struct {
		name   string
		cfa    *CFA
		method Method
	}{
		{"ppg", NewBayer(RGGB), PPG},
		{"vng-bayer", NewBayer(GBRG), VNG},
		{"linear-bayer", NewBayer(BGGR), Linear},
		{"vng-xtrans", DefaultXTrans(), VNG},
		{"markesteijn1", DefaultXTrans(), Markesteijn1},
		{"markesteijn3", DefaultXTrans(), Markesteijn3},
		{"fdc", DefaultXTrans(), FDC},
		{"vng-four", four, VNG},
	}
	eng := cpuEngine(WithTileSize(64))
	defer eng.Close()

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := flatRaw(tc.cfa, 96, 84, vals)
			cfg := exportConfig(tc.method)
			cfg.ColorSmoothingPasses = 2
			res, err := eng.Process(Request{Raw: raw, CFA: tc.cfa, Region: raw.Bounds(), Scale: 1, Config: cfg})
			if err != nil {
				t.Fatalf("Process() = %v", err)
			}
			want := vals[:res.Output.Channels]
			if tc.cfa.Kind() == Bayer {
				want = []float32{vals[Red], vals[Green], vals[Blue]}
			}
			for i, v := range res.Output.Pix {
				c := i % res.Output.Channels
				if math.Abs(float64(v-want[c])) > 1e-4 {
					px := i / res.Output.Channels
					t.Fatalf("pixel (%d,%d)[%d] = %v, want %v", px%96, px/96, c, v, want[c])
				}
			}
		})
	}
}

func TestProcess_Deterministic(t *testing.T) {
	eng := cpuEngine(WithTileSize(80), WithWorkers(4))
	defer eng.Close()

	for _, m := range []Method{Markesteijn3, FDC, VNG} {
		req := randomRequest(t, 150, 138, DefaultXTrans(), m)
		req.Config.ColorSmoothingPasses = 1
		a, err := eng.Process(req)
		if err != nil {
			t.Fatal(err)
		}
		b, err := eng.Process(req)
		if err != nil {
			t.Fatal(err)
		}
		assertSameOutput(t, a.Output, b.Output)
	}
}

func TestProcess_TiledMatchesUntiled(t *testing.T) {
	cases := []struct {
		name string
		cfa  *CFA
		cfg  func(*Config)
	}{
		{"ppg-median-greeneq", NewBayer(GRBG), func(c *Config) {
			c.Method = PPG
			c.MedianThreshold = 0.05
			c.GreenEq = GreenEqBoth
		}},
		{"vng-smoothed", NewBayer(RGGB), func(c *Config) {
			c.Method = VNG
			c.ColorSmoothingPasses = 3
		}},
		{"markesteijn3", DefaultXTrans(), func(c *Config) { c.Method = Markesteijn3 }},
		{"fdc-high-iso", DefaultXTrans(), func(c *Config) {
			c.Method = FDC
			c.Sensitivity = 1600
		}},
	}
	tiled := cpuEngine(WithTileSize(72))
	defer tiled.Close()
	whole := cpuEngine(WithTileSize(4096))
	defer whole.Close()

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := randomRequest(t, 180, 156, tc.cfa, PPG)
			tc.cfg(&req.Config)
			got, err := tiled.Process(req)
			if err != nil {
				t.Fatal(err)
			}
			want, err := whole.Process(req)
			if err != nil {
				t.Fatal(err)
			}
			if got.Tiles < 4 || want.Tiles != 1 {
				t.Fatalf("tiles = %d and %d", got.Tiles, want.Tiles)
			}
			assertSameOutput(t, got.Output, want.Output)
		})
	}
}

func TestProcess_ConcurrentCallsShareRaw(t *testing.T) {
	eng := cpuEngine(WithTileSize(64))
	defer eng.Close()

	full := randomRequest(t, 128, 96, NewBayer(RGGB), PPG)
	preview := full
	preview.Scale = 0.25
	preview.Config.Context = ContextPreview

	want, err := eng.Process(full)
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := full
			if i%2 == 1 {
				req = preview
			}
			res, err := eng.Process(req)
			if err != nil {
				t.Error(err)
				return
			}
			if i%2 == 0 {
				for j := range res.Output.Pix {
					if res.Output.Pix[j] != want.Output.Pix[j] {
						t.Errorf("concurrent call %d differs at %d", i, j)
						return
					}
				}
			}
		}(i)
	}
	wg.Wait()
}

// =============================================================================
// Outcomes
// =============================================================================

func TestProcess_AllocationFailure(t *testing.T) {
	eng := cpuEngine(WithMemoryLimit(4096))
	defer eng.Close()

	res, err := eng.Process(randomRequest(t, 120, 120, DefaultXTrans(), Markesteijn3))
	if !errors.Is(err, ErrAllocationFailure) {
		t.Fatalf("Process() error = %v, want ErrAllocationFailure", err)
	}
	if res == nil || res.Reason != ReasonAllocationFailure || res.Output != nil {
		t.Fatalf("Result = %+v, want allocation failure without output", res)
	}
}

func TestProcess_MemoryLimitTiles(t *testing.T) {
	limit := RequiredTileMemory(Markesteijn1, 80, 80)
	eng := cpuEngine(WithMemoryLimit(limit))
	defer eng.Close()

	res, err := eng.Process(randomRequest(t, 200, 160, DefaultXTrans(), Markesteijn1))
	if err != nil {
		t.Fatalf("Process() = %v", err)
	}
	if res.TileSize != 80 || res.Tiles < 4 {
		t.Errorf("TileSize = %d, Tiles = %d, want 80 and several tiles", res.TileSize, res.Tiles)
	}
}

type degenerateCase struct {
	name   string
	cfa    *CFA
	method Method
	median float32
	halo   int
}

// degenerateCases covers every reconstruction method on a region smaller
// than twice its halo.
func degenerateCases(t *testing.T) []degenerateCase {
	t.Helper()
	four, err := NewFourColor([2][2]uint8{{Red, Green}, {Green2, Blue}})
	if err != nil {
		t.Fatal(err)
	}
	return []degenerateCase{
		{"ppg", NewBayer(RGGB), PPG, 0, 4},
		{"ppg-median", NewBayer(GRBG), PPG, 0.05, 7},
		{"vng-bayer", NewBayer(BGGR), VNG, 0, 3},
		{"linear-bayer", NewBayer(GBRG), Linear, 0, 1},
		{"vng-xtrans", DefaultXTrans(), VNG, 0, 3},
		{"markesteijn1", DefaultXTrans(), Markesteijn1, 0, 12},
		{"markesteijn3", DefaultXTrans(), Markesteijn3, 0, 17},
		{"fdc", DefaultXTrans(), FDC, 0, 12},
		{"vng-four", four, VNG, 0, 3},
	}
}

func TestProcess_DegenerateRegion(t *testing.T) {
	eng := cpuEngine()
	defer eng.Close()

	vals := [4]float32{0.2, 0.5, 0.7, 0.35}
	for _, tc := range degenerateCases(t) {
		t.Run(tc.name, func(t *testing.T) {
			p := tc.cfa.Period()
			// One region touching the sensor corner, one with real samples
			// on every side.
			regions := []struct {
				w, h   int
				region Region
			}{
				{p, 2 * p, Region{Width: p, Height: 2 * p}},
				{6 * p, 6 * p, Region{X: 2 * p, Y: 3 * p, Width: p, Height: p}},
			}
			for _, rc := range regions {
				raw := flatRaw(tc.cfa, rc.w, rc.h, vals)
				cfg := exportConfig(tc.method)
				cfg.MedianThreshold = tc.median
				res, err := eng.Process(Request{Raw: raw, CFA: tc.cfa, Region: rc.region, Scale: 1, Config: cfg})
				if err != nil {
					t.Fatalf("Process(%v) = %v", rc.region, err)
				}
				if res.Reason != ReasonDegenerateInput || !res.OK() || res.Method != tc.method {
					t.Fatalf("Reason = %s, OK = %v, Method = %s, want degenerate %s",
						res.Reason, res.OK(), res.Method, tc.method)
				}
				if res.Halo != tc.halo {
					t.Errorf("Halo = %d, want %d", res.Halo, tc.halo)
				}
				out := res.Output
				if out.Width != rc.region.Width || out.Height != rc.region.Height {
					t.Fatalf("output %dx%d, want %dx%d", out.Width, out.Height, rc.region.Width, rc.region.Height)
				}
				want := vals[:out.Channels]
				if tc.cfa.Kind() == Bayer {
					want = []float32{vals[Red], vals[Green], vals[Blue]}
				}
				for i, v := range out.Pix {
					c := i % out.Channels
					if math.Abs(float64(v-want[c])) > 1e-4 {
						px := i / out.Channels
						t.Fatalf("%v: pixel (%d,%d)[%d] = %v, want %v",
							rc.region, px%out.Width, px/out.Width, c, v, want[c])
					}
				}
			}
		})
	}
}

func TestProcess_DegenerateRegionMatchesFullFrame(t *testing.T) {
	eng := cpuEngine()
	defer eng.Close()

	for _, tc := range degenerateCases(t) {
		t.Run(tc.name, func(t *testing.T) {
			p := tc.cfa.Period()
			req := randomRequest(t, 48, 48, tc.cfa, tc.method)
			req.Config.MedianThreshold = tc.median
			full, err := eng.Process(req)
			if err != nil {
				t.Fatal(err)
			}

			// The region lies at least one halo away from every sensor edge,
			// so its context is all real samples.
			off := (18 + p - 1) / p * p
			small := req
			small.Region = Region{X: off, Y: off, Width: p, Height: 2 * p}
			res, err := eng.Process(small)
			if err != nil {
				t.Fatal(err)
			}
			if res.Reason != ReasonDegenerateInput {
				t.Errorf("Reason = %s, want %s", res.Reason, ReasonDegenerateInput)
			}
			for y := 0; y < small.Region.Height; y++ {
				for x := 0; x < small.Region.Width; x++ {
					got := res.Output.Pixel(x, y)
					want := full.Output.Pixel(x+off, y+off)
					for c := range want {
						if got[c] != want[c] {
							t.Fatalf("(%d,%d)[%d] = %v, full frame %v", x, y, c, got[c], want[c])
						}
					}
				}
			}
		})
	}
}

func TestProcess_RawSmallerThanPattern(t *testing.T) {
	eng := cpuEngine()
	defer eng.Close()

	pat := NewBayer(RGGB)
	raw := NewRawBuffer([]float32{0.4}, 1, 1)
	res, err := eng.Process(Request{Raw: raw, CFA: pat, Region: raw.Bounds(), Scale: 1, Config: exportConfig(VNG)})
	if err != nil {
		t.Fatalf("Process() = %v", err)
	}
	if res.Reason != ReasonDegenerateInput || !res.OK() {
		t.Fatalf("Reason = %s, OK = %v, want degenerate success", res.Reason, res.OK())
	}
	// With no other sample, the pixel keeps its own value in every channel.
	for c, v := range res.Output.Pixel(0, 0) {
		if v != 0.4 {
			t.Errorf("channel %d = %v, want 0.4", c, v)
		}
	}
}

func TestProcess_InvalidRequests(t *testing.T) {
	eng := cpuEngine()
	defer eng.Close()

	tests := []struct {
		name   string
		mutate func(*Request)
		want   error
	}{
		{"misaligned region", func(r *Request) { r.Region = Region{X: 1, Y: 0, Width: 8, Height: 8} }, ErrInvalidRegion},
		{"region outside raw", func(r *Request) { r.Region = Region{X: 0, Y: 0, Width: 40, Height: 8} }, ErrInvalidRegion},
		{"empty region", func(r *Request) { r.Region = Region{} }, ErrInvalidRegion},
		{"zero scale", func(r *Request) { r.Scale = 0 }, ErrInvalidConfig},
		{"upscale", func(r *Request) { r.Scale = 1.5 }, ErrInvalidConfig},
		{"negative passes", func(r *Request) { r.Config.ColorSmoothingPasses = -1 }, ErrInvalidConfig},
		{"nil cfa", func(r *Request) { r.CFA = nil }, ErrInvalidConfig},
		{"nil raw", func(r *Request) { r.Raw = nil }, ErrInvalidRegion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := grayRequest(t, 32, 32, VNG)
			tt.mutate(&req)
			res, err := eng.Process(req)
			if !errors.Is(err, tt.want) {
				t.Errorf("Process() error = %v, want %v", err, tt.want)
			}
			if res != nil {
				t.Errorf("Result = %+v, want nil for a contract violation", res)
			}
		})
	}
}

func TestProcess_PreviewDecimates(t *testing.T) {
	eng := cpuEngine()
	defer eng.Close()

	req := grayRequest(t, 64, 48, PPG)
	req.Scale = 0.25
	req.Config.Context = ContextPreview
	res, err := eng.Process(req)
	if err != nil {
		t.Fatal(err)
	}
	if res.Method != DecimatedSample || res.Policy.FullScale {
		t.Errorf("Method = %s, FullScale = %v, want decimated", res.Method, res.Policy.FullScale)
	}
	if res.Output.Width != 16 || res.Output.Height != 12 {
		t.Errorf("output %dx%d, want 16x12", res.Output.Width, res.Output.Height)
	}
	for i, v := range res.Output.Pix {
		if math.Abs(float64(v-0.5)) > 1e-6 {
			t.Fatalf("sample %d = %v, want 0.5", i, v)
		}
	}
}

func TestProcess_DownscaledExport(t *testing.T) {
	eng := cpuEngine()
	defer eng.Close()

	req := grayRequest(t, 64, 48, VNG)
	req.Scale = 0.5
	res, err := eng.Process(req)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Policy.FullScale || !res.Policy.OnlyLinearStage {
		t.Errorf("Policy = %+v, want full scale with only the linear stage", res.Policy)
	}
	if res.Output.Width != 32 || res.Output.Height != 24 {
		t.Errorf("output %dx%d, want 32x24", res.Output.Width, res.Output.Height)
	}
}

func TestProcess_FourColorHasFourChannels(t *testing.T) {
	four, err := NewFourColor([2][2]uint8{{Red, Green}, {Green2, Blue}})
	if err != nil {
		t.Fatal(err)
	}
	eng := cpuEngine()
	defer eng.Close()

	res, err := eng.Process(randomRequest(t, 40, 40, four, PPG))
	if err != nil {
		t.Fatal(err)
	}
	if res.Method != VNG || res.Output.Channels != 4 {
		t.Errorf("Method = %s, Channels = %d, want vng with 4 channels", res.Method, res.Output.Channels)
	}
}

func TestProcess_PassthroughIsMono(t *testing.T) {
	eng := cpuEngine()
	defer eng.Close()

	req := randomRequest(t, 24, 24, NewBayer(RGGB), PassthroughMono)
	res, err := eng.Process(req)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 24; y++ {
		for x := 0; x < 24; x++ {
			want := req.Raw.Pix[y*24+x]
			for c, v := range res.Output.Pixel(x, y) {
				if v != want {
					t.Fatalf("(%d,%d)[%d] = %v, want %v", x, y, c, v, want)
				}
			}
		}
	}
}

// =============================================================================
// Caches
// =============================================================================

func TestProcess_PreviewCache(t *testing.T) {
	previews := NewPreviewCache(4, 0)
	eng := cpuEngine(WithPreviewCache(previews))
	defer eng.Close()

	req := randomRequest(t, 64, 64, NewBayer(RGGB), PPG)
	req.Config.Context = ContextPreview

	first, err := eng.Process(req)
	if err != nil {
		t.Fatal(err)
	}
	if first.FromCache {
		t.Fatal("first call came from the cache")
	}
	first.Output.Pix[0] = -1 // caller owns its buffer

	second, err := eng.Process(req)
	if err != nil {
		t.Fatal(err)
	}
	if !second.FromCache {
		t.Fatal("second call missed the cache")
	}
	if second.Output.Pix[0] == -1 {
		t.Error("cached buffer aliases a returned buffer")
	}
	if previews.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after checkout and checkin", previews.Len())
	}

	req.Config.ColorSmoothingPasses = 1
	third, err := eng.Process(req)
	if err != nil {
		t.Fatal(err)
	}
	if third.FromCache {
		t.Error("changed config hit the cache")
	}

	req.Config.Context = ContextExport
	if res, _ := eng.Process(req); res.FromCache {
		t.Error("export context used the preview cache")
	}
}

func TestProcess_GlobalGreenEqUsesAmbientStore(t *testing.T) {
	store := NewAmbientStore()
	eng := cpuEngine(WithAmbientStore(store))
	defer eng.Close()

	// Blue-row greens read 25% hotter than red-row greens.
	pat := NewBayer(RGGB)
	w, h := 48, 48
	pix := make([]float32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			switch pat.Color4(y, x) {
			case Red:
				pix[y*w+x] = 0.3
			case Green:
				pix[y*w+x] = 0.4
			case Green2:
				pix[y*w+x] = 0.5
			case Blue:
				pix[y*w+x] = 0.6
			}
		}
	}
	raw := NewRawBuffer(pix, w, h)
	cfg := exportConfig(VNG)
	cfg.GreenEq = GreenEqGlobal
	res, err := eng.Process(Request{Raw: raw, CFA: pat, Region: raw.Bounds(), Scale: 1, Config: cfg})
	if err != nil {
		t.Fatal(err)
	}

	p, ok := store.Load(rawHash(raw))
	if !ok || !p.GreenRatioValid || math.Abs(float64(p.GreenRatio-1.25)) > 1e-6 {
		t.Fatalf("ambient params = %+v, %v, want ratio 1.25", p, ok)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if g := res.Output.Pixel(x, y)[1]; math.Abs(float64(g-0.5)) > 1e-4 {
				t.Fatalf("green at (%d,%d) = %v, want 0.5 after equalization", x, y, g)
			}
		}
	}

	if raw.Pix[1] != 0.4 {
		t.Error("green equalization modified the caller's raw buffer")
	}
}

func TestAmbientStore_StaleHashMisses(t *testing.T) {
	s := NewAmbientStore()
	if _, ok := s.Load(1); ok {
		t.Fatal("empty store returned a value")
	}
	s.Store(AmbientParams{Hash: 1, GreenRatio: 1.1, GreenRatioValid: true})
	if p, ok := s.Load(1); !ok || p.GreenRatio != 1.1 {
		t.Errorf("Load(1) = %+v, %v", p, ok)
	}
	if _, ok := s.Load(2); ok {
		t.Error("Load with a different hash returned stale params")
	}

	s.Store(AmbientParams{Hash: 2, GreenRatio: 0.9})
	if _, ok := s.Load(1); ok {
		t.Error("last writer did not replace the entry")
	}

	calls := 0
	p := s.LoadOrCompute(3, func() AmbientParams {
		calls++
		return AmbientParams{GreenRatio: 1.3, GreenRatioValid: true}
	})
	if p.Hash != 3 || calls != 1 {
		t.Errorf("LoadOrCompute = %+v after %d calls", p, calls)
	}
	s.LoadOrCompute(3, func() AmbientParams { calls++; return AmbientParams{} })
	if calls != 1 {
		t.Error("LoadOrCompute recomputed a fresh entry")
	}
}

func TestPreviewCache_CheckoutTransfersOwnership(t *testing.T) {
	c := NewPreviewCache(2, 0)
	buf := &OutputBuffer{Pix: make([]float32, 12), Channels: 3, Width: 2, Height: 2}
	if !c.Checkin(7, buf) {
		t.Fatal("Checkin rejected a buffer")
	}
	got, ok := c.Checkout(7)
	if !ok || got != buf {
		t.Fatal("Checkout did not return the checked-in buffer")
	}
	if _, ok := c.Checkout(7); ok {
		t.Error("buffer checked out twice")
	}

	c.Checkin(1, buf)
	c.Checkin(2, buf.Clone())
	c.Checkin(3, buf.Clone())
	if _, ok := c.Checkout(1); ok {
		t.Error("oldest entry not evicted")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestPreviewCache_ByteLimit(t *testing.T) {
	c := NewPreviewCache(0, 100)
	big := &OutputBuffer{Pix: make([]float32, 30), Channels: 3, Width: 5, Height: 2}
	if c.Checkin(1, big) {
		t.Error("buffer over the byte limit was retained")
	}
	if c.Checkin(1, nil) {
		t.Error("nil buffer was retained")
	}
}

func TestRawHash_ContentSensitive(t *testing.T) {
	a := randomRaw(16, 16, 1)
	b := randomRaw(16, 16, 1)
	if rawHash(a) != rawHash(b) {
		t.Error("equal contents hash differently")
	}
	b.Pix[100] += 0.001
	if rawHash(a) == rawHash(b) {
		t.Error("changed sample did not change the hash")
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
