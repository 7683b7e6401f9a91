package isph

import (
	"math"

	"github.com/san-kum/isph/internal/particle"
	"github.com/san-kum/isph/internal/sph"
)

// ArtificialStress adds the divergence of A = rho u (uhat - u)^T that
// arises from advecting with the transport velocity.
type ArtificialStress struct {
	sph.Binding
}

func NewArtificialStress(dest string, sources ...string) *ArtificialStress {
	return &ArtificialStress{Binding: sph.Bind(dest, sources...)}
}

func (e *ArtificialStress) Loop(d, s *particle.Set, p *sph.Pair, env *sph.Env) {
	i, j := p.I, p.J
	ui := [3]float64{d.U[i], d.V[i], d.W[i]}
	dui := [3]float64{d.Uhat[i] - d.U[i], d.Vhat[i] - d.V[i], d.What[i] - d.W[i]}
	uj := [3]float64{s.U[j], s.V[j], s.W[j]}
	duj := [3]float64{s.Uhat[j] - s.U[j], s.Vhat[j] - s.V[j], s.What[j] - s.W[j]}

	// A/rho^2 = u (uhat-u)^T / rho
	ri, rj := 1/d.Rho[i], 1/s.Rho[j]
	dwi, dwj := sph.Dot(dui, p.DWIJ), sph.Dot(duj, p.DWIJ)
	mj := s.M[j]
	d.Au[i] += mj * (ui[0]*dwi*ri + uj[0]*dwj*rj)
	d.Av[i] += mj * (ui[1]*dwi*ri + uj[1]*dwj*rj)
	d.Aw[i] += mj * (ui[2]*dwi*ri + uj[2]*dwj*rj)
}

// GTVFAcceleration computes the background pressure acceleration that
// drives the transport velocity. p0 = min(10|p|, Pref) and the kernel
// gradient is taken with the reduced smoothing length HijFac*h_ij.
type GTVFAcceleration struct {
	sph.Binding
	Pref   float64
	HijFac float64
}

func NewGTVFAcceleration(dest string, pref, hijFac float64, sources ...string) *GTVFAcceleration {
	return &GTVFAcceleration{Binding: sph.Bind(dest, sources...), Pref: pref, HijFac: hijFac}
}

func (e *GTVFAcceleration) Accumulates() []string { return []string{"auhat", "avhat", "awhat"} }

func (e *GTVFAcceleration) Initialize(d *particle.Set, i int, env *sph.Env) {
	d.Auhat[i], d.Avhat[i], d.Awhat[i] = 0, 0, 0
	d.P0[i] = math.Min(10*math.Abs(d.P[i]), e.Pref)
}

func (e *GTVFAcceleration) Loop(d, s *particle.Set, p *sph.Pair, env *sph.Env) {
	i := p.I
	tmp := -d.P0[i] * s.M[p.J] / (d.Rho[i] * d.Rho[i])
	dw := env.Kernel.Gradient(p.XIJ, p.R, e.HijFac*p.HIJ)
	d.Auhat[i] += tmp * dw[0]
	d.Avhat[i] += tmp * dw[1]
	d.Awhat[i] += tmp * dw[2]
}
