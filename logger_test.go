package demosaic

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// captureLogs routes debug logging into a buffer for the test's duration.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return &buf
}

func TestLoggerDefaultSilent(t *testing.T) {
	l := newNopLogger()
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelWarn, slog.LevelError} {
		if l.Enabled(context.Background(), level) {
			t.Errorf("silent logger enabled for %v", level)
		}
	}
}

func TestSetLoggerNilRestoresSilent(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	SetLogger(slog.Default())
	SetLogger(nil)
	if l := Logger(); l == nil || l.Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) did not restore a silent logger")
	}
}

func TestSetLoggerPropagatesToAccelerator(t *testing.T) {
	t.Cleanup(resetAccelerator)
	resetAccelerator()
	buf := captureLogs(t)

	mock := &mockAccelerator{name: "logger-test"}
	if err := RegisterAccelerator(mock); err != nil {
		t.Fatalf("RegisterAccelerator() = %v", err)
	}
	if mock.currentLogger() != Logger() {
		t.Error("RegisterAccelerator did not hand over the current logger")
	}

	custom := slog.New(slog.NewTextHandler(buf, nil))
	SetLogger(custom)
	if mock.currentLogger() != custom {
		t.Error("SetLogger did not reach the registered accelerator")
	}
}

// =============================================================================
// Engine messages
// =============================================================================

func TestProcessLogsPolicyAndPlan(t *testing.T) {
	buf := captureLogs(t)

	eng := cpuEngine(WithTileSize(32))
	defer eng.Close()
	if _, err := eng.Process(grayRequest(t, 64, 64, PPG)); err != nil {
		t.Fatalf("Process() = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"demosaic: policy", "demosaic: tile plan", "method=ppg"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output lacks %q:\n%s", want, out)
		}
	}
}

func TestProcessLogsFallback(t *testing.T) {
	buf := captureLogs(t)

	mock := &mockAccelerator{name: "declines", canAccel: AccelVNG, runErr: errTileBroken}
	eng := NewEngine(WithAccelerator(mock), WithTileSize(32))
	defer eng.Close()

	if _, err := eng.Process(grayRequest(t, 64, 64, VNG)); err != nil {
		t.Fatalf("Process() = %v", err)
	}
	if out := buf.String(); !strings.Contains(out, "falling back to CPU") || !strings.Contains(out, "tile broken") {
		t.Errorf("log output lacks the fallback warning:\n%s", out)
	}
}

func TestSetLoggerDuringProcess(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	eng := cpuEngine(WithTileSize(24))
	defer eng.Close()
	req := grayRequest(t, 48, 48, VNG)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := eng.Process(req); err != nil {
				t.Errorf("Process() = %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			SetLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelDebug})))
			SetLogger(nil)
		}()
	}
	wg.Wait()
}
