// Package cfa describes color filter array geometry.
//
// A Pattern maps a sensor position to the color of the filter above it.
// Patterns are periodic: 2 for Bayer and four-color sensors, 6 for
// X-Trans. All lookups accept any integer coordinate, including negative
// ones, and wrap modulo the period.
//
// Per-phase neighbor tables used by the interpolators are derived from the
// pattern on first use and cached on the Pattern itself. A Pattern is
// immutable after construction and safe for concurrent use.
package cfa

import (
	"errors"
	"fmt"
	"sync"
)

// Color indices. Bayer and X-Trans patterns use Red, Green and Blue.
// Four-color sensors use all four indices, with Green2 as the fourth
// filter color.
const (
	Red    = 0
	Green  = 1
	Blue   = 2
	Green2 = 3
)

// Kind identifies the pattern geometry.
type Kind uint8

const (
	// Bayer is the 2x2 pattern with two greens, one red and one blue.
	Bayer Kind = iota

	// XTrans is the 6x6 pattern with roughly half green sites.
	XTrans

	// FourColor is a 2x2 pattern with four distinct filter colors.
	FourColor
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Bayer:
		return "bayer"
	case XTrans:
		return "xtrans"
	case FourColor:
		return "fourcolor"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Layout names the four Bayer phase arrangements by their top-left 2x2 block.
type Layout uint8

const (
	RGGB Layout = iota
	BGGR
	GRBG
	GBRG
)

// String returns the layout name.
func (l Layout) String() string {
	switch l {
	case RGGB:
		return "rggb"
	case BGGR:
		return "bggr"
	case GRBG:
		return "grbg"
	case GBRG:
		return "gbrg"
	default:
		return fmt.Sprintf("Layout(%d)", l)
	}
}

// ParseLayout parses a layout name such as "rggb".
func ParseLayout(s string) (Layout, error) {
	for l := RGGB; l <= GBRG; l++ {
		if l.String() == s {
			return l, nil
		}
	}
	return 0, fmt.Errorf("cfa: unknown bayer layout %q", s)
}

// Errors returned by the pattern constructors.
var (
	ErrInvalidColor   = errors.New("cfa: color index out of range")
	ErrMissingColor   = errors.New("cfa: pattern lacks a color")
	ErrNotXTransShape = errors.New("cfa: pattern does not have x-trans geometry")
)

// Pattern is an immutable color filter array description.
type Pattern struct {
	kind   Kind
	period int
	colors [6][6]uint8
	quad   [6][6]uint8 // four-way table, second bayer green is Green2
	name   string

	linOnce sync.Once
	lin     *LinearTable

	vngOnce sync.Once
	vng     *VNGTable

	hexOnce sync.Once
	hex     *HexTable
	hexErr  error

	memo sync.Map
}

// NewBayer returns a 2x2 pattern with the given phase layout.
func NewBayer(layout Layout) *Pattern {
	var block [2][2]uint8
	switch layout {
	case BGGR:
		block = [2][2]uint8{{Blue, Green}, {Green, Red}}
	case GRBG:
		block = [2][2]uint8{{Green, Red}, {Blue, Green}}
	case GBRG:
		block = [2][2]uint8{{Green, Blue}, {Red, Green}}
	default:
		block = [2][2]uint8{{Red, Green}, {Green, Blue}}
	}

	p := &Pattern{kind: Bayer, period: 2, name: "bayer-" + layout.String()}
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			p.colors[r][c] = block[r][c]
		}
	}
	// Greens sharing a row with blue form the second green sub-channel.
	for r := 0; r < 2; r++ {
		blueRow := block[r][0] == Blue || block[r][1] == Blue
		for c := 0; c < 2; c++ {
			p.quad[r][c] = block[r][c]
			if block[r][c] == Green && blueRow {
				p.quad[r][c] = Green2
			}
		}
	}
	return p
}

// NewXTrans returns a 6x6 pattern from a table of Red/Green/Blue indices.
// The table must show x-trans geometry: greens repeat every 3 pixels and
// every 3x3 block has a green surrounded by four non-green neighbors.
func NewXTrans(table [6][6]uint8) (*Pattern, error) {
	p := &Pattern{kind: XTrans, period: 6, name: "xtrans"}
	var seen [3]bool
	for r := 0; r < 6; r++ {
		for c := 0; c < 6; c++ {
			v := table[r][c]
			if v > Blue {
				return nil, fmt.Errorf("%w: %d at (%d,%d)", ErrInvalidColor, v, r, c)
			}
			seen[v] = true
			p.colors[r][c] = v
			p.quad[r][c] = v
		}
	}
	for c, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrMissingColor, c)
		}
	}
	for r := 0; r < 6; r++ {
		for c := 0; c < 6; c++ {
			if (table[r][c] == Green) != (table[r%3][c%3] == Green) {
				return nil, ErrNotXTransShape
			}
		}
	}
	if _, err := p.Hex(); err != nil {
		return nil, err
	}
	return p, nil
}

// xtransReference is the layout used by most X-Trans sensors.
var xtransReference = [6][6]uint8{
	{Green, Blue, Green, Green, Red, Green},
	{Red, Green, Red, Blue, Green, Blue},
	{Green, Blue, Green, Green, Red, Green},
	{Green, Red, Green, Green, Blue, Green},
	{Blue, Green, Blue, Red, Green, Red},
	{Green, Red, Green, Green, Blue, Green},
}

// DefaultXTrans returns the common X-Trans layout.
func DefaultXTrans() *Pattern {
	p, err := NewXTrans(xtransReference)
	if err != nil {
		panic(err)
	}
	return p
}

// NewFourColor returns a 2x2 pattern holding each of the four color
// indices exactly once.
func NewFourColor(table [2][2]uint8) (*Pattern, error) {
	p := &Pattern{kind: FourColor, period: 2, name: "fourcolor"}
	var seen [4]bool
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			v := table[r][c]
			if v > Green2 {
				return nil, fmt.Errorf("%w: %d at (%d,%d)", ErrInvalidColor, v, r, c)
			}
			if seen[v] {
				return nil, fmt.Errorf("cfa: color %d repeated in four-color pattern", v)
			}
			seen[v] = true
			p.colors[r][c] = v
			p.quad[r][c] = v
		}
	}
	return p, nil
}

// Kind returns the pattern geometry.
func (p *Pattern) Kind() Kind { return p.kind }

// Period returns the repeat distance in both axes.
func (p *Pattern) Period() int { return p.period }

// Colors returns the number of distinct filter colors: 3 or 4.
func (p *Pattern) Colors() int {
	if p.kind == FourColor {
		return 4
	}
	return 3
}

// QuadColors returns the number of colors seen through Color4: 4 for
// Bayer and four-color patterns, 3 for X-Trans.
func (p *Pattern) QuadColors() int {
	if p.kind == XTrans {
		return 3
	}
	return 4
}

// String returns a short pattern name.
func (p *Pattern) String() string { return p.name }

// ColorAt returns the filter color at (row, col).
func (p *Pattern) ColorAt(row, col int) int {
	return int(p.colors[wrap(row, p.period)][wrap(col, p.period)])
}

// Color4 returns the four-way color at (row, col). It equals ColorAt except
// on Bayer patterns, where the green sharing a row with blue is Green2.
func (p *Pattern) Color4(row, col int) int {
	return int(p.quad[wrap(row, p.period)][wrap(col, p.period)])
}

// Signature returns a byte string that identifies the pattern contents.
func (p *Pattern) Signature() []byte {
	b := make([]byte, 0, 2+p.period*p.period)
	b = append(b, byte(p.kind), byte(p.period))
	for r := 0; r < p.period; r++ {
		for c := 0; c < p.period; c++ {
			b = append(b, p.colors[r][c])
		}
	}
	return b
}

// Memo returns the value cached under key, building it on first use.
// Callers use it to attach derived tables whose types live outside this
// package. build may run more than once under contention; only one result
// is kept.
func (p *Pattern) Memo(key any, build func() any) any {
	if v, ok := p.memo.Load(key); ok {
		return v
	}
	v, _ := p.memo.LoadOrStore(key, build())
	return v
}

func wrap(v, period int) int {
	v %= period
	if v < 0 {
		v += period
	}
	return v
}
