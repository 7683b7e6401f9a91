package isph

import (
	"github.com/san-kum/isph/internal/particle"
	"github.com/san-kum/isph/internal/sph"
)

// VelocityDivergence sets rhs = -sum_j V_j (v_i - v_j).grad W_ij / dt.
// No-slip solid sources contribute with their wall velocity (ug,vg,wg);
// inviscid solids do not contribute.
type VelocityDivergence struct {
	sph.Binding
}

func NewVelocityDivergence(dest string, sources ...string) *VelocityDivergence {
	return &VelocityDivergence{Binding: sph.Bind(dest, sources...)}
}

func (e *VelocityDivergence) Accumulates() []string { return []string{"rhs"} }

func (e *VelocityDivergence) Initialize(d *particle.Set, i int, env *sph.Env) {
	d.Rhs[i] = 0
	d.Pk[i] = d.P[i]
}

func (e *VelocityDivergence) Loop(d, s *particle.Set, p *sph.Pair, env *sph.Env) {
	i, j := p.I, p.J
	vij := p.VIJ
	switch s.Role {
	case particle.InviscidSolid:
		return
	case particle.Solid:
		vij = [3]float64{d.U[i] - s.Ug[j], d.V[i] - s.Vg[j], d.W[i] - s.Wg[j]}
	}
	vj := s.M[j] / s.Rho[j]
	d.Rhs[i] += -vj * sph.Dot(vij, p.DWIJ) / env.Dt
}

// PressureCoeff assembles the Jacobi diagonal and the off-diagonal
// product against the previous iterate pk.
type PressureCoeff struct {
	sph.Binding
}

func NewPressureCoeff(dest string, sources ...string) *PressureCoeff {
	return &PressureCoeff{Binding: sph.Bind(dest, sources...)}
}

func (e *PressureCoeff) Accumulates() []string { return []string{"diag", "odiag"} }

func (e *PressureCoeff) Initialize(d *particle.Set, i int, env *sph.Env) {
	d.Diag[i] = 0
	d.Odiag[i] = 0
}

func (e *PressureCoeff) Loop(d, s *particle.Set, p *sph.Pair, env *sph.Env) {
	rhoij := d.Rho[p.I] + s.Rho[p.J]
	fac := 8 * s.M[p.J] * sph.Dot(p.XIJ, p.DWIJ) / (rhoij * rhoij * (p.R2 + p.EPS))
	d.Diag[p.I] += fac
	d.Odiag[p.I] += -fac * s.Pk[p.J]
}

// PressureGradient is the non-symmetric form
// a_i = -sum_j V_j (p_j - p_i)/rho_i grad W_ij. It does not conserve
// linear momentum.
type PressureGradient struct {
	sph.Binding
}

func NewPressureGradient(dest string, sources ...string) *PressureGradient {
	return &PressureGradient{Binding: sph.Bind(dest, sources...)}
}

func (e *PressureGradient) Accumulates() []string { return accelFields }

func (e *PressureGradient) Initialize(d *particle.Set, i int, env *sph.Env) {
	zeroAccel(d, i)
}

func (e *PressureGradient) Loop(d, s *particle.Set, p *sph.Pair, env *sph.Env) {
	i, j := p.I, p.J
	fac := -(s.M[j] / s.Rho[j]) * (s.P[j] - d.P[i]) / d.Rho[i]
	addAccel(d, i, fac, p.DWIJ)
}

// PressureGradientSymmetric is a_i = -sum_j m_j (p_i/rho_i^2 + p_j/rho_j^2) grad W_ij.
type PressureGradientSymmetric struct {
	sph.Binding
}

func NewPressureGradientSymmetric(dest string, sources ...string) *PressureGradientSymmetric {
	return &PressureGradientSymmetric{Binding: sph.Bind(dest, sources...)}
}

func (e *PressureGradientSymmetric) Accumulates() []string { return accelFields }

func (e *PressureGradientSymmetric) Initialize(d *particle.Set, i int, env *sph.Env) {
	zeroAccel(d, i)
}

func (e *PressureGradientSymmetric) Loop(d, s *particle.Set, p *sph.Pair, env *sph.Env) {
	i, j := p.I, p.J
	pij := d.P[i]/(d.Rho[i]*d.Rho[i]) + s.P[j]/(s.Rho[j]*s.Rho[j])
	addAccel(d, i, -s.M[j]*pij, p.DWIJ)
}

// VolumeSummation computes the number density V_i = sum_j W_ij.
type VolumeSummation struct {
	sph.Binding
}

func NewVolumeSummation(dest string, sources ...string) *VolumeSummation {
	return &VolumeSummation{Binding: sph.Bind(dest, sources...)}
}

func (e *VolumeSummation) Accumulates() []string { return []string{"V"} }

func (e *VolumeSummation) Initialize(d *particle.Set, i int, env *sph.Env) { d.Vol[i] = 0 }

func (e *VolumeSummation) Loop(d, s *particle.Set, p *sph.Pair, env *sph.Env) {
	d.Vol[p.I] += p.W
}

// SummationDensity computes the number density V_i = sum_j W_ij and
// rho_i = m_i V_i.
type SummationDensity struct {
	sph.Binding
}

func NewSummationDensity(dest string, sources ...string) *SummationDensity {
	return &SummationDensity{Binding: sph.Bind(dest, sources...)}
}

func (e *SummationDensity) Accumulates() []string { return []string{"V", "rho"} }

func (e *SummationDensity) Initialize(d *particle.Set, i int, env *sph.Env) {
	d.Vol[i] = 0
	d.Rho[i] = 0
}

func (e *SummationDensity) Loop(d, s *particle.Set, p *sph.Pair, env *sph.Env) {
	d.Vol[p.I] += p.W
	d.Rho[p.I] += d.M[p.I] * p.W
}

// DensityInvariance sets the PPE source from the density error,
// rhs = (rho0 - rho)/(dt^2 rho0).
type DensityInvariance struct {
	sph.Binding
	Rho0 float64
}

func NewDensityInvariance(dest string, rho0 float64) *DensityInvariance {
	return &DensityInvariance{Binding: sph.Bind(dest), Rho0: rho0}
}

func (e *DensityInvariance) Accumulates() []string { return []string{"rhs"} }

func (e *DensityInvariance) Initialize(d *particle.Set, i int, env *sph.Env) {
	d.Pk[i] = d.P[i]
}

func (e *DensityInvariance) PostLoop(d *particle.Set, i int, env *sph.Env) {
	d.Rhs[i] = (e.Rho0 - d.Rho[i]) / (env.Dt * env.Dt * e.Rho0)
}

// BodyForce adds a constant acceleration.
type BodyForce struct {
	sph.Binding
	G [3]float64
}

func NewBodyForce(dest string, g [3]float64) *BodyForce {
	return &BodyForce{Binding: sph.Bind(dest), G: g}
}

func (e *BodyForce) PostLoop(d *particle.Set, i int, env *sph.Env) {
	d.Au[i] += e.G[0]
	d.Av[i] += e.G[1]
	d.Aw[i] += e.G[2]
}

var accelFields = []string{"au", "av", "aw"}

func zeroAccel(d *particle.Set, i int) {
	d.Au[i], d.Av[i], d.Aw[i] = 0, 0, 0
}

func addAccel(d *particle.Set, i int, fac float64, v [3]float64) {
	d.Au[i] += fac * v[0]
	d.Av[i] += fac * v[1]
	d.Aw[i] += fac * v[2]
}
