package cfa

// Offset is a (row, column) displacement.
type Offset struct {
	DY, DX int
}

// Add returns o + p.
func (o Offset) Add(p Offset) Offset { return Offset{o.DY + p.DY, o.DX + p.DX} }

// Scale returns o scaled by k.
func (o Offset) Scale(k int) Offset { return Offset{o.DY * k, o.DX * k} }

// IsZero reports whether o is the null offset.
func (o Offset) IsZero() bool { return o.DY == 0 && o.DX == 0 }

// HexTable lists, for each of the nine 3x3 phases of an X-Trans pattern,
// the eight hexagon offsets that reach the opposite kind of pixel: greens
// around a red or blue site, and red or blue sites around a green.
type HexTable struct {
	// Hex[row%3][col%3] holds the eight offsets for that phase.
	Hex [3][3][8]Offset

	// Partner[row%3][col%3] points from a red or blue site to its one
	// orthogonally adjacent red or blue neighbor.
	Partner [3][3]Offset

	// SolitaryRow and SolitaryCol locate, modulo 3, the green whose four
	// orthogonal neighbors are all red or blue.
	SolitaryRow, SolitaryCol int
}

// At returns the hexagon for (row, col).
func (t *HexTable) At(row, col int) *[8]Offset {
	return &t.Hex[wrap(row, 3)][wrap(col, 3)]
}

// PartnerAt returns the partner offset for the red or blue site (row, col).
func (t *HexTable) PartnerAt(row, col int) Offset {
	return t.Partner[wrap(row, 3)][wrap(col, 3)]
}

// Solitary reports whether (row, col) is a solitary green.
func (t *HexTable) Solitary(row, col int) bool {
	return wrap(row-t.SolitaryRow, 3) == 0 && wrap(col-t.SolitaryCol, 3) == 0
}

// hexOrth walks the four orthogonal directions and wraps once.
var hexOrth = [12]int{1, 0, 0, 1, -1, 0, 0, -1, 1, 0, 0, 1}

// hexShape gives the hexagon in a canonical orientation, for non-green
// sites (row 0) and green sites (row 1).
var hexShape = [2][16]int{
	{0, 1, 0, -1, 2, 0, -1, 0, 1, 1, 1, -1, 0, 0, 0, 0},
	{0, 1, 0, -2, 1, 0, -2, 0, 1, 1, -2, -2, 1, -1, -1, 1},
}

// Hex returns the hexagon table. It fails for patterns without x-trans
// geometry.
func (p *Pattern) Hex() (*HexTable, error) {
	p.hexOnce.Do(func() {
		p.hex, p.hexErr = buildHex(p)
	})
	return p.hex, p.hexErr
}

func buildHex(p *Pattern) (*HexTable, error) {
	if p.period != 6 {
		return nil, ErrNotXTransShape
	}
	t := &HexTable{SolitaryRow: -1, SolitaryCol: -1}
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			g := 0
			if p.ColorAt(row, col) == Green {
				g = 1
			}
			filled := false
			ng := 0
			for d := 0; d < 10; d += 2 {
				if p.ColorAt(row+hexOrth[d], col+hexOrth[d+2]) == Green {
					ng = 0
				} else {
					ng++
				}
				if ng == 4 {
					t.SolitaryRow, t.SolitaryCol = row, col
				}
				if ng != g+1 {
					continue
				}
				filled = true
				if g == 0 {
					t.Partner[row][col] = Offset{DY: hexOrth[d], DX: hexOrth[d+2]}
				}
				for c := 0; c < 8; c++ {
					a, b := hexShape[g][c*2], hexShape[g][c*2+1]
					v := hexOrth[d]*a + hexOrth[d+1]*b
					h := hexOrth[d+2]*a + hexOrth[d+3]*b
					t.Hex[row][col][c^(g*2&d)] = Offset{DY: v, DX: h}
				}
			}
			if !filled {
				return nil, ErrNotXTransShape
			}
		}
	}
	if t.SolitaryRow < 0 {
		return nil, ErrNotXTransShape
	}
	return t, nil
}
