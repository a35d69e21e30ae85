package cfa

// Tap is one neighbor contribution to a missing channel.
type Tap struct {
	DY, DX int
	Color  int
	Weight float32
}

// LinearPhase lists the 3x3 neighbors of one pattern phase that carry a
// color other than the phase's own, with weights normalized per color.
type LinearPhase struct {
	Own     int
	Taps    []Tap
	Missing []int // colors with no neighbor in the 3x3 window
}

// LinearTable holds one LinearPhase per (row mod P, col mod P).
type LinearTable struct {
	period int
	phases []LinearPhase
}

// At returns the phase entry for (row, col).
func (t *LinearTable) At(row, col int) *LinearPhase {
	return &t.phases[wrap(row, t.period)*t.period+wrap(col, t.period)]
}

// Linear returns the linear interpolation table over the four-way colors.
// Orthogonal neighbors weigh twice as much as diagonal ones.
func (p *Pattern) Linear() *LinearTable {
	p.linOnce.Do(func() {
		p.lin = buildLinear(p)
	})
	return p.lin
}

func buildLinear(p *Pattern) *LinearTable {
	t := &LinearTable{period: p.period, phases: make([]LinearPhase, p.period*p.period)}
	for row := 0; row < p.period; row++ {
		for col := 0; col < p.period; col++ {
			own := p.Color4(row, col)
			var sum [4]float32
			var taps []Tap
			for y := -1; y <= 1; y++ {
				for x := -1; x <= 1; x++ {
					c := p.Color4(row+y, col+x)
					if c == own {
						continue
					}
					w := float32(1)
					if y == 0 || x == 0 {
						w = 2
					}
					taps = append(taps, Tap{DY: y, DX: x, Color: c, Weight: w})
					sum[c] += w
				}
			}
			for i := range taps {
				taps[i].Weight /= sum[taps[i].Color]
			}
			ph := LinearPhase{Own: own, Taps: taps}
			for c := 0; c < p.QuadColors(); c++ {
				if c != own && sum[c] == 0 {
					ph.Missing = append(ph.Missing, c)
				}
			}
			t.phases[row*p.period+col] = ph
		}
	}
	return t
}
