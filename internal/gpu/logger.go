//go:build !nogpu

package gpu

import (
	"log/slog"
	"sync/atomic"
)

// logger is set by demosaic.SetLogger through ComputeAccelerator.SetLogger.
// Until then the package logs nowhere.
var logger atomic.Pointer[slog.Logger]

func slogger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return discard
}

var discard = slog.New(slog.DiscardHandler)

func setLogger(l *slog.Logger) { logger.Store(l) }
