package demosaic

import (
	"errors"
	"log/slog"
	"sync"
	"testing"
)

var errTileBroken = errors.New("tile broken")

// mockAccelerator implements TileAccelerator for testing. It never
// computes a tile itself.
type mockAccelerator struct {
	name     string
	initErr  error
	runErr   error
	canAccel AcceleratedOp
	budget   int64

	mu       sync.Mutex
	closed   bool
	logger   *slog.Logger
	requests []TileRequest
	provider any
}

func (m *mockAccelerator) Name() string { return m.name }

func (m *mockAccelerator) Init() error { return m.initErr }

func (m *mockAccelerator) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

func (m *mockAccelerator) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockAccelerator) CanAccelerate(op AcceleratedOp) bool {
	return m.canAccel&op != 0
}

func (m *mockAccelerator) RunTile(req TileRequest) error {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.runErr != nil {
		return m.runErr
	}
	return ErrFallbackToCPU
}

func (m *mockAccelerator) MemoryBudget() int64 { return m.budget }

func (m *mockAccelerator) SetLogger(l *slog.Logger) {
	m.mu.Lock()
	m.logger = l
	m.mu.Unlock()
}

func (m *mockAccelerator) currentLogger() *slog.Logger {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logger
}

func (m *mockAccelerator) SetDeviceProvider(p any) error {
	m.mu.Lock()
	m.provider = p
	m.mu.Unlock()
	return nil
}

// resetAccelerator clears the global accelerator state between tests.
func resetAccelerator() {
	accelMu.Lock()
	accel = nil
	accelMu.Unlock()
}

// =============================================================================
// Registry
// =============================================================================

func TestRegisterAcceleratorNil(t *testing.T) {
	resetAccelerator()

	err := RegisterAccelerator(nil)
	if err == nil {
		t.Fatal("expected error when registering nil accelerator")
	}
	if err.Error() != "demosaic: accelerator must not be nil" {
		t.Errorf("unexpected error message: %s", err.Error())
	}
	if Accelerator() != nil {
		t.Error("accelerator should remain nil after failed registration")
	}
}

func TestRegisterAcceleratorInitError(t *testing.T) {
	resetAccelerator()

	initErr := errors.New("GPU init failed")
	err := RegisterAccelerator(&mockAccelerator{name: "failing", initErr: initErr})
	if !errors.Is(err, initErr) {
		t.Errorf("RegisterAccelerator() = %v, want %v", err, initErr)
	}
	if Accelerator() != nil {
		t.Error("accelerator should remain nil after Init failure")
	}
}

func TestRegisterAcceleratorReplacesOld(t *testing.T) {
	resetAccelerator()
	t.Cleanup(resetAccelerator)

	first := &mockAccelerator{name: "first"}
	second := &mockAccelerator{name: "second"}
	if err := RegisterAccelerator(first); err != nil {
		t.Fatalf("registering first: %v", err)
	}
	if err := RegisterAccelerator(second); err != nil {
		t.Fatalf("registering second: %v", err)
	}

	if !first.isClosed() {
		t.Error("first accelerator should be closed after replacement")
	}
	if second.isClosed() {
		t.Error("second accelerator should not be closed")
	}
	if a := Accelerator(); a == nil || a.Name() != "second" {
		t.Errorf("Accelerator() = %v, want second", a)
	}
}

func TestSetAcceleratorDeviceProvider(t *testing.T) {
	resetAccelerator()
	t.Cleanup(resetAccelerator)

	if err := SetAcceleratorDeviceProvider("device"); err != nil {
		t.Errorf("with no accelerator: %v", err)
	}

	mock := &mockAccelerator{name: "shared"}
	if err := RegisterAccelerator(mock); err != nil {
		t.Fatal(err)
	}
	if err := SetAcceleratorDeviceProvider("device"); err != nil {
		t.Fatal(err)
	}
	if mock.provider != "device" {
		t.Errorf("provider = %v, want device", mock.provider)
	}
}

func TestOpFor(t *testing.T) {
	tests := []struct {
		method    Method
		threshold float32
		want      AcceleratedOp
	}{
		{PPG, 0, AccelPPG},
		{PPG, 0.1, AccelPPGMedian},
		{VNG, 0, AccelVNG},
		{Markesteijn1, 0, AccelMarkesteijn},
		{Markesteijn3, 0, AccelMarkesteijn},
		{FDC, 0, AccelFDC},
		{PassthroughMono, 0, AccelPassthrough},
		{Linear, 0, AccelLinear},
		{DecimatedSample, 0, 0},
	}
	for _, tt := range tests {
		if got := opFor(tt.method, tt.threshold); got != tt.want {
			t.Errorf("opFor(%s, %v) = %b, want %b", tt.method, tt.threshold, got, tt.want)
		}
	}
}

// =============================================================================
// Dispatch through accelerators
// =============================================================================

func TestAccelerator_FallbackMatchesCPU(t *testing.T) {
	for _, runErr := range []error{nil, errTileBroken} {
		mock := &mockAccelerator{name: "declines", canAccel: AccelPPG, runErr: runErr}
		eng := NewEngine(WithAccelerator(mock), WithTileSize(40))
		cpu := NewEngine(WithAccelerator(nil))

		req := randomRequest(t, 96, 80, NewBayer(RGGB), PPG)
		got, err := eng.Process(req)
		if err != nil {
			t.Fatal(err)
		}
		want, err := cpu.Process(req)
		if err != nil {
			t.Fatal(err)
		}
		if got.Backend != "cpu" {
			t.Errorf("Backend = %q, want cpu when every tile falls back", got.Backend)
		}
		if len(mock.requests) != got.Tiles {
			t.Errorf("accelerator saw %d tiles, plan has %d", len(mock.requests), got.Tiles)
		}
		assertSameOutput(t, got.Output, want.Output)
		eng.Close()
		cpu.Close()
	}
}

func TestAccelerator_TilesArriveInOrderWithPhase(t *testing.T) {
	mock := &mockAccelerator{name: "recorder", canAccel: AccelVNG}
	eng := NewEngine(WithAccelerator(mock), WithTileSize(32))
	defer eng.Close()

	req := randomRequest(t, 80, 70, NewBayer(GRBG), VNG)
	req.Region = Region{X: 2, Y: 4, Width: 70, Height: 60}
	res, err := eng.Process(req)
	if err != nil {
		t.Fatal(err)
	}
	if len(mock.requests) != res.Tiles || res.Tiles < 4 {
		t.Fatalf("requests = %d, tiles = %d", len(mock.requests), res.Tiles)
	}
	prevY, prevX := -1, -1
	for i, r := range mock.requests {
		if r.Op != AccelVNG || r.Source.CFA == nil {
			t.Errorf("request %d: op %b, cfa %v", i, r.Op, r.Source.CFA)
		}
		if r.Source.X0 < req.Region.X-res.Halo || r.Source.Y0 < req.Region.Y-res.Halo {
			t.Errorf("request %d: origin (%d,%d) beyond the region's halo", i, r.Source.X0, r.Source.Y0)
		}
		if len(r.Target.Pix) != r.Target.Width*r.Target.Height*4 {
			t.Errorf("request %d: target holds %d values for %dx%d", i, len(r.Target.Pix), r.Target.Width, r.Target.Height)
		}
		if r.Source.Y0 < prevY || (r.Source.Y0 == prevY && r.Source.X0 <= prevX) {
			t.Errorf("request %d out of row-major order", i)
		}
		prevY, prevX = r.Source.Y0, r.Source.X0
	}
}

func TestAccelerator_UnsupportedOpSkipsAccelerator(t *testing.T) {
	mock := &mockAccelerator{name: "ppg-only", canAccel: AccelPPG}
	eng := NewEngine(WithAccelerator(mock))
	defer eng.Close()

	req := randomRequest(t, 48, 48, DefaultXTrans(), Markesteijn1)
	if _, err := eng.Process(req); err != nil {
		t.Fatal(err)
	}
	if len(mock.requests) != 0 {
		t.Errorf("accelerator received %d tiles for an unsupported method", len(mock.requests))
	}
}

func TestAccelerator_BackendCPUBypassesAccelerator(t *testing.T) {
	mock := &mockAccelerator{name: "unused", canAccel: AccelVNG}
	eng := NewEngine(WithAccelerator(mock))
	defer eng.Close()

	req := grayRequest(t, 32, 32, VNG)
	req.Config.Backend = BackendCPU
	if _, err := eng.Process(req); err != nil {
		t.Fatal(err)
	}
	if len(mock.requests) != 0 {
		t.Errorf("BackendCPU sent %d tiles to the accelerator", len(mock.requests))
	}
}

func TestSoftwareAccelerator_MatchesUntiled(t *testing.T) {
	cases := []struct {
		name   string
		cfa    *CFA
		method Method
	}{
		{"ppg", NewBayer(RGGB), PPG},
		{"vng-bayer", NewBayer(BGGR), VNG},
		{"vng-xtrans", DefaultXTrans(), VNG},
		{"markesteijn1", DefaultXTrans(), Markesteijn1},
		{"markesteijn3", DefaultXTrans(), Markesteijn3},
		{"fdc", DefaultXTrans(), FDC},
		{"passthrough", NewBayer(RGGB), PassthroughMono},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sw := &SoftwareAccelerator{}
			tiled := NewEngine(WithAccelerator(sw), WithTileSize(64))
			defer tiled.Close()
			whole := NewEngine(WithAccelerator(nil), WithTileSize(1024))
			defer whole.Close()

			req := randomRequest(t, 132, 120, tc.cfa, tc.method)
			got, err := tiled.Process(req)
			if err != nil {
				t.Fatal(err)
			}
			want, err := whole.Process(req)
			if err != nil {
				t.Fatal(err)
			}
			if got.Tiles < 4 || want.Tiles != 1 {
				t.Fatalf("tiles = %d and %d, want a tiled and an untiled run", got.Tiles, want.Tiles)
			}
			if got.Backend != "cpu-tiled" {
				t.Errorf("Backend = %q, want cpu-tiled", got.Backend)
			}
			if sw.Tiles() != int64(got.Tiles) {
				t.Errorf("accelerator ran %d tiles, plan has %d", sw.Tiles(), got.Tiles)
			}
			assertSameOutput(t, got.Output, want.Output)
		})
	}
}

func TestSoftwareAccelerator_RespectsOps(t *testing.T) {
	sw := &SoftwareAccelerator{Ops: AccelPPG}
	if sw.CanAccelerate(AccelVNG) {
		t.Error("CanAccelerate(AccelVNG) = true with Ops = AccelPPG")
	}
	err := sw.RunTile(TileRequest{Op: AccelVNG})
	if !errors.Is(err, ErrFallbackToCPU) {
		t.Errorf("RunTile(unsupported) = %v, want ErrFallbackToCPU", err)
	}
}

func TestSoftwareAccelerator_BudgetShrinksTiles(t *testing.T) {
	budget := RequiredTileMemory(VNG, 48, 48)
	sw := &SoftwareAccelerator{Budget: budget}
	eng := NewEngine(WithAccelerator(sw))
	defer eng.Close()

	res, err := eng.Process(grayRequest(t, 128, 128, VNG))
	if err != nil {
		t.Fatal(err)
	}
	if res.TileSize != 48 {
		t.Errorf("TileSize = %d, want 48 under a 48x48 budget", res.TileSize)
	}
}
