package demosaic

import (
	"fmt"
	"strings"
)

// Method selects the demosaic algorithm.
type Method uint8

const (
	// PPG is patterned pixel grouping, Bayer only.
	PPG Method = iota

	// VNG is variable number of gradients, valid for every CFA kind.
	VNG

	// Markesteijn1 is the single-pass X-Trans directional algorithm.
	Markesteijn1

	// Markesteijn3 is the three-pass X-Trans directional algorithm.
	Markesteijn3

	// FDC is frequency domain chroma over Markesteijn1 luma, X-Trans only.
	FDC

	// PassthroughMono copies each raw sample into every channel.
	PassthroughMono

	// DecimatedSample averages each period block into one pixel. The
	// policy selects it for small outputs.
	DecimatedSample

	// Linear is bilinear interpolation, valid for every CFA kind.
	Linear
)

var methodNames = [...]string{"ppg", "vng", "markesteijn", "markesteijn3", "fdc", "passthrough", "decimate", "linear"}

// String returns the method name as accepted by ParseMethod.
func (m Method) String() string {
	if int(m) < len(methodNames) {
		return methodNames[m]
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod parses a method name. "markesteijn1" is accepted as an
// alias of "markesteijn".
func ParseMethod(s string) (Method, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "markesteijn1" {
		return Markesteijn1, nil
	}
	for i, n := range methodNames {
		if n == s {
			return Method(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown method %q", ErrInvalidConfig, s)
}

// GreenEqMode selects green equalization.
type GreenEqMode uint8

const (
	GreenEqNone GreenEqMode = iota
	GreenEqLocal
	GreenEqGlobal
	GreenEqBoth
)

var greenEqNames = [...]string{"none", "local", "global", "both"}

func (g GreenEqMode) String() string {
	if int(g) < len(greenEqNames) {
		return greenEqNames[g]
	}
	return fmt.Sprintf("GreenEqMode(%d)", int(g))
}

// ParseGreenEq parses "none", "local", "global" or "both".
func ParseGreenEq(s string) (GreenEqMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range greenEqNames {
		if n == s {
			return GreenEqMode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown green equalization %q", ErrInvalidConfig, s)
}

// ContextKind is the purpose of a call, which drives the quality policy.
type ContextKind uint8

const (
	ContextInteractive ContextKind = iota
	ContextExport
	ContextPreview
	ContextThumbnail
)

var contextNames = [...]string{"interactive", "export", "preview", "thumbnail"}

func (c ContextKind) String() string {
	if int(c) < len(contextNames) {
		return contextNames[c]
	}
	return fmt.Sprintf("ContextKind(%d)", int(c))
}

// ParseContext parses a context kind name.
func ParseContext(s string) (ContextKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range contextNames {
		if n == s {
			return ContextKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown context %q", ErrInvalidConfig, s)
}

// Backend restricts where tiles may run.
type Backend uint8

const (
	// BackendAuto uses the accelerator when one is available and
	// substitutes methods the CFA cannot run.
	BackendAuto Backend = iota

	// BackendCPU runs on the CPU only. An invalid method and CFA pairing
	// fails with ErrUnsupportedCombination.
	BackendCPU

	// BackendAccelerator prefers the accelerator like BackendAuto.
	BackendAccelerator
)

var backendNames = [...]string{"auto", "cpu", "accelerator"}

func (b Backend) String() string {
	if int(b) < len(backendNames) {
		return backendNames[b]
	}
	return fmt.Sprintf("Backend(%d)", int(b))
}

// ParseBackend parses "auto", "cpu" or "accelerator".
func ParseBackend(s string) (Backend, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range backendNames {
		if n == s {
			return Backend(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, s)
}

// Config tunes one call.
type Config struct {
	Method Method

	// MedianThreshold enables the PPG green median pre-filter when > 0.
	MedianThreshold float32

	GreenEq GreenEqMode

	// GreenEqThreshold is the flatness limit of local green equalization.
	GreenEqThreshold float32

	// ColorSmoothingPasses is the number of chroma median passes.
	ColorSmoothingPasses int

	Context ContextKind
	Backend Backend

	// Sensitivity is the ISO-like value that weighs FDC chroma against
	// Markesteijn chroma.
	Sensitivity float64

	// ThumbnailQualityFloor is the output long edge, in pixels, at or
	// above which thumbnails get a full reconstruction.
	ThumbnailQualityFloor int
}

// DefaultConfig returns the configuration used for exports.
func DefaultConfig() Config {
	return Config{
		Method:                PPG,
		GreenEq:               GreenEqNone,
		GreenEqThreshold:      0.01,
		Context:               ContextExport,
		Backend:               BackendAuto,
		Sensitivity:           100,
		ThumbnailQualityFloor: 720,
	}
}

// Validate reports out-of-range fields.
func (c Config) Validate() error {
	switch {
	case int(c.Method) >= len(methodNames):
		return fmt.Errorf("%w: method %d", ErrInvalidConfig, c.Method)
	case c.MedianThreshold < 0:
		return fmt.Errorf("%w: negative median threshold %v", ErrInvalidConfig, c.MedianThreshold)
	case int(c.GreenEq) >= len(greenEqNames):
		return fmt.Errorf("%w: green equalization %d", ErrInvalidConfig, c.GreenEq)
	case c.GreenEqThreshold < 0:
		return fmt.Errorf("%w: negative green threshold %v", ErrInvalidConfig, c.GreenEqThreshold)
	case c.ColorSmoothingPasses < 0:
		return fmt.Errorf("%w: negative smoothing passes %d", ErrInvalidConfig, c.ColorSmoothingPasses)
	case int(c.Context) >= len(contextNames):
		return fmt.Errorf("%w: context %d", ErrInvalidConfig, c.Context)
	case int(c.Backend) >= len(backendNames):
		return fmt.Errorf("%w: backend %d", ErrInvalidConfig, c.Backend)
	case c.Sensitivity < 0:
		return fmt.Errorf("%w: negative sensitivity %v", ErrInvalidConfig, c.Sensitivity)
	case c.ThumbnailQualityFloor < 0:
		return fmt.Errorf("%w: negative thumbnail floor %d", ErrInvalidConfig, c.ThumbnailQualityFloor)
	}
	return nil
}
