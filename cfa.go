package demosaic

import "github.com/gogpu/demosaic/internal/cfa"

// CFA describes a color filter array. It is immutable and safe for
// concurrent use; derived neighbor tables are built once per value.
type CFA = cfa.Pattern

// CFAKind identifies the CFA geometry.
type CFAKind = cfa.Kind

// CFA kinds.
const (
	Bayer     = cfa.Bayer
	XTrans    = cfa.XTrans
	FourColor = cfa.FourColor
)

// Layout names a Bayer phase arrangement.
type Layout = cfa.Layout

// Bayer layouts, named by their top-left 2x2 block.
const (
	RGGB = cfa.RGGB
	BGGR = cfa.BGGR
	GRBG = cfa.GRBG
	GBRG = cfa.GBRG
)

// Color indices as returned by CFA.ColorAt and CFA.Color4.
const (
	Red    = cfa.Red
	Green  = cfa.Green
	Blue   = cfa.Blue
	Green2 = cfa.Green2
)

// NewBayer returns a 2x2 Bayer CFA.
func NewBayer(layout Layout) *CFA { return cfa.NewBayer(layout) }

// NewXTrans returns a 6x6 CFA from a table of Red, Green and Blue indices.
func NewXTrans(table [6][6]uint8) (*CFA, error) { return cfa.NewXTrans(table) }

// DefaultXTrans returns the common X-Trans layout.
func DefaultXTrans() *CFA { return cfa.DefaultXTrans() }

// NewFourColor returns a 2x2 CFA with four distinct filter colors.
func NewFourColor(table [2][2]uint8) (*CFA, error) { return cfa.NewFourColor(table) }

// ParseLayout parses a Bayer layout name such as "rggb".
func ParseLayout(s string) (Layout, error) { return cfa.ParseLayout(s) }
