package isph

import (
	"github.com/san-kum/isph/internal/particle"
	"github.com/san-kum/isph/internal/sph"
)

// LaminarViscosity is the Morris laminar viscous term. It owns the
// acceleration accumulator of the viscous group.
type LaminarViscosity struct {
	sph.Binding
	Nu float64
}

func NewLaminarViscosity(dest string, nu float64, sources ...string) *LaminarViscosity {
	return &LaminarViscosity{Binding: sph.Bind(dest, sources...), Nu: nu}
}

func (e *LaminarViscosity) Accumulates() []string { return accelFields }

func (e *LaminarViscosity) Initialize(d *particle.Set, i int, env *sph.Env) { zeroAccel(d, i) }

func (e *LaminarViscosity) Loop(d, s *particle.Set, p *sph.Pair, env *sph.Env) {
	rhoij := d.Rho[p.I] + s.Rho[p.J]
	fac := s.M[p.J] * 4 * e.Nu * sph.Dot(p.XIJ, p.DWIJ) / (rhoij * (p.R2 + p.EPS))
	addAccel(d, p.I, fac, p.VIJ)
}

// ViscosityTVF is the inter-particle averaged shear term of the transport
// velocity formulation, with particle volumes m/rho.
type ViscosityTVF struct {
	sph.Binding
	Nu float64
}

func NewViscosityTVF(dest string, nu float64, sources ...string) *ViscosityTVF {
	return &ViscosityTVF{Binding: sph.Bind(dest, sources...), Nu: nu}
}

func (e *ViscosityTVF) Accumulates() []string { return accelFields }

func (e *ViscosityTVF) Initialize(d *particle.Set, i int, env *sph.Env) { zeroAccel(d, i) }

func (e *ViscosityTVF) Loop(d, s *particle.Set, p *sph.Pair, env *sph.Env) {
	i, j := p.I, p.J
	rhoi, rhoj := d.Rho[i], s.Rho[j]
	etaij := 2 * e.Nu * rhoi * rhoj / (rhoi + rhoj)
	fac := shearFactor(d.M[i], rhoi, s.M[j], rhoj, etaij, p)
	addAccel(d, i, fac, p.VIJ)
}

// SolidWallNoSlip adds the viscous wall stress using the wall ghost
// velocity (ug,vg,wg) of no-slip solids.
type SolidWallNoSlip struct {
	sph.Binding
	Nu float64
}

func NewSolidWallNoSlip(dest string, nu float64, sources ...string) *SolidWallNoSlip {
	return &SolidWallNoSlip{Binding: sph.Bind(dest, sources...), Nu: nu}
}

func (e *SolidWallNoSlip) Loop(d, s *particle.Set, p *sph.Pair, env *sph.Env) {
	i, j := p.I, p.J
	etai, etaj := e.Nu*d.Rho[i], e.Nu*s.Rho[j]
	if etai+etaj == 0 {
		return
	}
	etaij := 2 * etai * etaj / (etai + etaj)
	fac := shearFactor(d.M[i], d.Rho[i], s.M[j], s.Rho[j], etaij, p)
	uij := [3]float64{d.U[i] - s.Ug[j], d.V[i] - s.Vg[j], d.W[i] - s.Wg[j]}
	addAccel(d, i, fac, uij)
}

func shearFactor(mi, rhoi, mj, rhoj, etaij float64, p *sph.Pair) float64 {
	vi, vj := mi/rhoi, mj/rhoj
	return (vi*vi + vj*vj) * etaij * sph.Dot(p.XIJ, p.DWIJ) / (mi * (p.R2 + p.EPS))
}

// ArtificialViscosity is the Monaghan term, active only for approaching
// pairs.
type ArtificialViscosity struct {
	sph.Binding
	Alpha float64
	C0    float64
}

func NewArtificialViscosity(dest string, alpha, c0 float64, sources ...string) *ArtificialViscosity {
	return &ArtificialViscosity{Binding: sph.Bind(dest, sources...), Alpha: alpha, C0: c0}
}

func (e *ArtificialViscosity) Loop(d, s *particle.Set, p *sph.Pair, env *sph.Env) {
	vx := sph.Dot(p.VIJ, p.XIJ)
	if vx >= 0 {
		return
	}
	i, j := p.I, p.J
	mu := p.HIJ * vx / (p.R2 + p.EPS)
	rhoij := 0.5 * (d.Rho[i] + s.Rho[j])
	piij := -e.Alpha * e.C0 * mu / rhoij
	addAccel(d, i, -s.M[j]*piij, p.DWIJ)
}
