package sph

import (
	"math"

	"github.com/san-kum/isph/internal/kernel"
	"github.com/san-kum/isph/internal/particle"
)

// Pair holds the precomputed geometry of one destination/source pair.
type Pair struct {
	I, J int

	XIJ [3]float64
	VIJ [3]float64

	R, R2 float64
	// HIJ is the mean smoothing length and EPS = 0.01*HIJ^2.
	HIJ, EPS float64

	W    float64
	DWIJ [3]float64
}

// Env is the per-evaluation context shared by all equations.
type Env struct {
	T, Dt  float64
	Dim    int
	Kernel kernel.Kernel
}

func (p *Pair) set(d *particle.Set, i int, s *particle.Set, j int, k kernel.Kernel) {
	p.I, p.J = i, j
	p.XIJ = [3]float64{d.X[i] - s.X[j], d.Y[i] - s.Y[j], d.Z[i] - s.Z[j]}
	p.VIJ = [3]float64{d.U[i] - s.U[j], d.V[i] - s.V[j], d.W[i] - s.W[j]}
	p.R2 = p.XIJ[0]*p.XIJ[0] + p.XIJ[1]*p.XIJ[1] + p.XIJ[2]*p.XIJ[2]
	p.R = math.Sqrt(p.R2)
	p.HIJ = 0.5 * (d.H[i] + s.H[j])
	p.EPS = 0.01 * p.HIJ * p.HIJ
	p.W = k.Value(p.R, p.HIJ)
	p.DWIJ = k.Gradient(p.XIJ, p.R, p.HIJ)
}

// NewPair computes the pair geometry for (d[i], s[j]) outside an
// evaluator, e.g. when testing a single equation.
func NewPair(d *particle.Set, i int, s *particle.Set, j int, k kernel.Kernel) Pair {
	var p Pair
	p.set(d, i, s, j, k)
	return p
}

// Dot is the 3-vector dot product.
func Dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}
