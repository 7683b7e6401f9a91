package particle

import (
	"fmt"
	"math"
)

// Periodic wraps a set along one axis with period Max-Min. Real
// particles within Band of either end are mirrored past the other end
// as ghosts, so that they see full kernel support.
type Periodic struct {
	Axis     int
	Min, Max float64
	Band     float64
}

func (p Periodic) Validate() error {
	if p.Axis < 0 || p.Axis > 2 {
		return fmt.Errorf("particle: periodic axis %d out of range", p.Axis)
	}
	if !(p.Max > p.Min) {
		return fmt.Errorf("particle: periodic range [%g, %g) is empty", p.Min, p.Max)
	}
	if p.Band <= 0 || 2*p.Band > p.Max-p.Min {
		return fmt.Errorf("particle: periodic band %g must be in (0, %g]", p.Band, (p.Max-p.Min)/2)
	}
	return nil
}

// Apply drops the ghosts of s, wraps its real particles into [Min, Max)
// and mirrors the ones near either end. It returns the number of ghosts
// created.
func (p Periodic) Apply(s *Set) int {
	s.RemoveGhosts()
	pos := s.axis(p.Axis)
	l := p.Max - p.Min
	n := s.Len()
	for i := 0; i < n; i++ {
		if pos[i] < p.Min || pos[i] >= p.Max {
			pos[i] = p.Min + math.Mod(math.Mod(pos[i]-p.Min, l)+l, l)
			if pos[i] >= p.Max {
				pos[i] = p.Min
			}
		}
	}

	var off [3]float64
	ghosts := 0
	for i := 0; i < n; i++ {
		switch x := pos[i]; {
		case x < p.Min+p.Band:
			off[p.Axis] = l
		case x >= p.Max-p.Band:
			off[p.Axis] = -l
		default:
			continue
		}
		// i is real and in range, so AddGhost cannot fail
		_, _ = s.AddGhost(i, off[0], off[1], off[2])
		// AddGhost may reallocate the position slices
		pos = s.axis(p.Axis)
		ghosts++
	}
	return ghosts
}

func (s *Set) axis(a int) []float64 {
	switch a {
	case 1:
		return s.Y
	case 2:
		return s.Z
	}
	return s.X
}
