package cfa

// vngTerms is the gradient stencil: y1, x1, y2, x2, weight shift, and the
// bitmask of the eight gradients each term contributes to.
var vngTerms = [64][6]int{
	{-2, -2, +0, -1, 0, 0x01}, {-2, -2, +0, +0, 1, 0x01}, {-2, -1, -1, +0, 0, 0x01},
	{-2, -1, +0, -1, 0, 0x02}, {-2, -1, +0, +0, 0, 0x03}, {-2, -1, +0, +1, 1, 0x01},
	{-2, +0, +0, -1, 0, 0x06}, {-2, +0, +0, +0, 1, 0x02}, {-2, +0, +0, +1, 0, 0x03},
	{-2, +1, -1, +0, 0, 0x04}, {-2, +1, +0, -1, 1, 0x04}, {-2, +1, +0, +0, 0, 0x06},
	{-2, +1, +0, +1, 0, 0x02}, {-2, +2, +0, +0, 1, 0x04}, {-2, +2, +0, +1, 0, 0x04},
	{-1, -2, -1, +0, 0, 0x80}, {-1, -2, +0, -1, 0, 0x01}, {-1, -2, +1, -1, 0, 0x01},
	{-1, -2, +1, +0, 1, 0x01}, {-1, -1, -1, +1, 0, 0x88}, {-1, -1, +1, -2, 0, 0x40},
	{-1, -1, +1, -1, 0, 0x22}, {-1, -1, +1, +0, 0, 0x33}, {-1, -1, +1, +1, 1, 0x11},
	{-1, +0, -1, +2, 0, 0x08}, {-1, +0, +0, -1, 0, 0x44}, {-1, +0, +0, +1, 0, 0x11},
	{-1, +0, +1, -2, 1, 0x40}, {-1, +0, +1, -1, 0, 0x66}, {-1, +0, +1, +0, 1, 0x22},
	{-1, +0, +1, +1, 0, 0x33}, {-1, +0, +1, +2, 1, 0x10}, {-1, +1, +1, -1, 1, 0x44},
	{-1, +1, +1, +0, 0, 0x66}, {-1, +1, +1, +1, 0, 0x22}, {-1, +1, +1, +2, 0, 0x10},
	{-1, +2, +0, +1, 0, 0x04}, {-1, +2, +1, +0, 1, 0x04}, {-1, +2, +1, +1, 0, 0x04},
	{+0, -2, +0, +0, 1, 0x80}, {+0, -1, +0, +1, 1, 0x88}, {+0, -1, +1, -2, 0, 0x40},
	{+0, -1, +1, +0, 0, 0x11}, {+0, -1, +2, -2, 0, 0x40}, {+0, -1, +2, -1, 0, 0x20},
	{+0, -1, +2, +0, 0, 0x30}, {+0, -1, +2, +1, 1, 0x10}, {+0, +0, +0, +2, 1, 0x08},
	{+0, +0, +2, -2, 1, 0x40}, {+0, +0, +2, -1, 0, 0x60}, {+0, +0, +2, +0, 1, 0x20},
	{+0, +0, +2, +1, 0, 0x30}, {+0, +0, +2, +2, 1, 0x10}, {+0, +1, +1, +0, 0, 0x44},
	{+0, +1, +1, +2, 0, 0x10}, {+0, +1, +2, -1, 1, 0x40}, {+0, +1, +2, +0, 0, 0x60},
	{+0, +1, +2, +1, 0, 0x20}, {+0, +1, +2, +2, 0, 0x10}, {+1, -2, +1, +0, 0, 0x80},
	{+1, -1, +1, +1, 0, 0x88}, {+1, +0, +1, +2, 0, 0x08}, {+1, +0, +2, -1, 0, 0x40},
	{+1, +0, +2, +1, 0, 0x10},
}

// vngNeighbors are the eight gradient directions, clockwise from top-left.
var vngNeighbors = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, +1}, {0, +1}, {+1, +1}, {+1, 0}, {+1, -1}, {0, -1},
}

// VNGTerm compares two same-color samples at (DY1,DX1) and (DY2,DX2).
type VNGTerm struct {
	DY1, DX1 int
	DY2, DX2 int
	Color    int
	Weight   float32
	Grads    []int
}

// VNGNeighbor describes how one of the eight neighbors contributes to the
// average. When Far is set the own color comes from the mean of the center
// and the same-color sample two steps away instead of the neighbor.
type VNGNeighbor struct {
	DY, DX int
	Far    bool
}

// VNGPhase holds the gradient terms and neighbor rules of one phase.
type VNGPhase struct {
	Own       int
	Terms     []VNGTerm
	Neighbors [8]VNGNeighbor
}

// VNGTable holds one VNGPhase per (row mod P, col mod P).
type VNGTable struct {
	period int
	phases []VNGPhase
}

// At returns the phase entry for (row, col).
func (t *VNGTable) At(row, col int) *VNGPhase {
	return &t.phases[wrap(row, t.period)*t.period+wrap(col, t.period)]
}

// VNG returns the VNG gradient tables over the four-way colors.
func (p *Pattern) VNG() *VNGTable {
	p.vngOnce.Do(func() {
		p.vng = buildVNG(p)
	})
	return p.vng
}

func buildVNG(p *Pattern) *VNGTable {
	t := &VNGTable{period: p.period, phases: make([]VNGPhase, p.period*p.period)}
	for row := 0; row < p.period; row++ {
		for col := 0; col < p.period; col++ {
			ph := VNGPhase{Own: p.Color4(row, col)}
			for _, term := range vngTerms {
				y1, x1 := term[0], term[1]
				y2, x2 := term[2], term[3]
				color := p.Color4(row+y1, col+x1)
				if p.Color4(row+y2, col+x2) != color {
					continue
				}
				diag := 1
				if p.Color4(row, col+1) == color && p.Color4(row+1, col) == color {
					diag = 2
				}
				if abs(y1-y2) == diag && abs(x1-x2) == diag {
					continue
				}
				mask := term[5]
				var grads []int
				for g := 0; g < 8; g++ {
					if mask&(1<<g) != 0 {
						grads = append(grads, g)
					}
				}
				ph.Terms = append(ph.Terms, VNGTerm{
					DY1: y1, DX1: x1, DY2: y2, DX2: x2,
					Color:  color,
					Weight: float32(int(1) << term[4]),
					Grads:  grads,
				})
			}
			for g, n := range vngNeighbors {
				y, x := n[0], n[1]
				far := p.Color4(row+y, col+x) != ph.Own && p.Color4(row+2*y, col+2*x) == ph.Own
				ph.Neighbors[g] = VNGNeighbor{DY: y, DX: x, Far: far}
			}
			t.phases[row*p.period+col] = ph
		}
	}
	return t
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
