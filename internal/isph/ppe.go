package isph

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/isph/internal/particle"
	"github.com/san-kum/isph/internal/sph"
)

const diagFloor = 1e-30

// PPESolve performs one damped Jacobi update of the pressure from the
// coefficients assembled by PressureCoeff and the source in rhs. It is
// meant to share a group with PressureCoeff so that its PostLoop sees the
// freshly assembled diag/odiag.
//
// Particles whose relative density V m / rho0 is below RhoCutoff are
// free-surface particles and get p = 0.
type PPESolve struct {
	sph.Binding
	Rho0      float64
	RhoCutoff float64
	Omega     float64
	Tolerance float64

	conv      float64
	converged bool

	pdiff, pabs []float64
}

func NewPPESolve(dest string, rho0, rhoCutoff, omega, tolerance float64) *PPESolve {
	return &PPESolve{
		Binding:   sph.Bind(dest),
		Rho0:      rho0,
		RhoCutoff: rhoCutoff,
		Omega:     omega,
		Tolerance: tolerance,
	}
}

func (e *PPESolve) PostLoop(d *particle.Set, i int, env *sph.Env) {
	pk := d.Pk[i]
	p := 0.0
	if d.Vol[i]*d.M[i]/e.Rho0 >= e.RhoCutoff {
		pnew := 0.0
		if math.Abs(d.Diag[i]) >= diagFloor {
			pnew = (d.Rhs[i] - d.Odiag[i]) / d.Diag[i]
		}
		p = e.Omega*pnew + (1-e.Omega)*pk
	}
	d.Pdiff[i] = math.Abs(p - pk)
	d.P[i] = p
	d.Pk[i] = p
}

// Reduce computes conv = mean(pdiff)/mean(|p|) over the real particles.
// A zero pressure field counts as converged only if nothing changed.
func (e *PPESolve) Reduce(d *particle.Set, env *sph.Env) {
	e.pdiff, e.pabs = e.pdiff[:0], e.pabs[:0]
	for i := 0; i < d.Len(); i++ {
		if d.IsReal(i) {
			e.pdiff = append(e.pdiff, d.Pdiff[i])
			e.pabs = append(e.pabs, d.P[i])
		}
	}
	n := float64(len(e.pdiff))
	if n == 0 {
		e.conv, e.converged = 0, true
		return
	}
	mdiff := floats.Sum(e.pdiff) / n
	mabs := floats.Norm(e.pabs, 1) / n

	switch {
	case mabs > 0:
		e.conv = mdiff / mabs
	case mdiff == 0:
		e.conv = 0
	default:
		e.conv = math.Inf(1)
	}
	e.converged = e.conv < e.Tolerance
}

func (e *PPESolve) Converged() bool   { return e.converged }
func (e *PPESolve) Residual() float64 { return e.conv }
