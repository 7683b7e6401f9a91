package viz

import (
	"math"

	"github.com/san-kum/isph/internal/particle"
)

// Point is one particle as drawn: its position, the pressure used for
// colouring and whether it belongs to a solid.
type Point struct {
	X, Y  float64
	P     float64
	Solid bool
}

// PointsFromSets collects the real particles of sets. Particles of sets
// with a boundary role are flagged as solid.
func PointsFromSets(sets []*particle.Set) []Point {
	pts := make([]Point, 0)
	for _, s := range sets {
		solid := s.Role.IsBoundary()
		for i := 0; i < s.Len(); i++ {
			if !s.IsReal(i) {
				continue
			}
			pts = append(pts, Point{X: s.X[i], Y: s.Y[i], P: s.P[i], Solid: solid})
		}
	}
	return pts
}

type Bounds struct {
	MinX, MaxX, MinY, MaxY float64
}

// FitBounds encloses pts with a margin of pad times the larger extent.
func FitBounds(pts []Point, pad float64) Bounds {
	if len(pts) == 0 {
		return Bounds{0, 1, 0, 1}
	}
	b := Bounds{pts[0].X, pts[0].X, pts[0].Y, pts[0].Y}
	for _, p := range pts[1:] {
		b.MinX = math.Min(b.MinX, p.X)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	ext := math.Max(b.MaxX-b.MinX, b.MaxY-b.MinY)
	if ext == 0 {
		ext = 1
	}
	b.MinX -= pad * ext
	b.MaxX += pad * ext
	b.MinY -= pad * ext
	b.MaxY += pad * ext
	return b
}

// Project maps (x, y) onto a w x h pixel raster with y pointing down.
// Both axes share one scale so the domain keeps its aspect ratio.
func (b Bounds) Project(x, y float64, w, h int) (int, int) {
	sx := float64(w-1) / (b.MaxX - b.MinX)
	sy := float64(h-1) / (b.MaxY - b.MinY)
	s := math.Min(sx, sy)
	px := (x - b.MinX) * s
	py := float64(h-1) - (y-b.MinY)*s
	return int(math.Round(px)), int(math.Round(py))
}

// DrawParticles plots pts onto c. Solid particles are skipped unless
// solids is set.
func DrawParticles(c *Canvas, pts []Point, b Bounds, solids bool) {
	w, h := c.Width*2, c.Height*4
	for _, p := range pts {
		if p.Solid && !solids {
			continue
		}
		x, y := b.Project(p.X, p.Y, w, h)
		c.Set(x, y)
	}
}

// DrawBounds outlines the raster edge.
func DrawBounds(c *Canvas) {
	w, h := c.Width*2-1, c.Height*4-1
	c.DrawLine(0, 0, w, 0)
	c.DrawLine(w, 0, w, h)
	c.DrawLine(w, h, 0, h)
	c.DrawLine(0, h, 0, 0)
}
