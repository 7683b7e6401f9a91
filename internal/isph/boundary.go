package isph

import (
	"math"

	"github.com/san-kum/isph/internal/particle"
	"github.com/san-kum/isph/internal/sph"
)

const (
	pressureWeightFloor = 1e-14
	velocityWeightFloor = 1e-12
)

// SolidPressure extrapolates fluid pressure onto wall particles:
//
//	p_i = sum_j (p_j + rho_j (g - a_wall).x_ij) W_ij / sum_j W_ij
//
// where a_wall is the wall particle's prescribed acceleration (au,av,aw).
// Walls without fluid support keep p = 0.
type SolidPressure struct {
	sph.Binding
	G            [3]float64
	HGCorrection bool
}

func NewSolidPressure(dest string, g [3]float64, hgCorrection bool, sources ...string) *SolidPressure {
	return &SolidPressure{Binding: sph.Bind(dest, sources...), G: g, HGCorrection: hgCorrection}
}

func (e *SolidPressure) Accumulates() []string { return []string{"p", "wij"} }

func (e *SolidPressure) Initialize(d *particle.Set, i int, env *sph.Env) {
	d.P[i] = 0
	d.Wij[i] = 0
}

func (e *SolidPressure) Loop(d, s *particle.Set, p *sph.Pair, env *sph.Env) {
	i, j := p.I, p.J
	gx := [3]float64{e.G[0] - d.Au[i], e.G[1] - d.Av[i], e.G[2] - d.Aw[i]}
	d.P[i] += (s.P[j] + s.Rho[j]*sph.Dot(gx, p.XIJ)) * p.W
	d.Wij[i] += p.W
}

func (e *SolidPressure) PostLoop(d *particle.Set, i int, env *sph.Env) {
	if d.Wij[i] > pressureWeightFloor {
		d.P[i] /= d.Wij[i]
	}
	if e.HGCorrection {
		d.P[i] = math.Max(0, d.P[i])
	}
	d.Pk[i] = d.P[i]
}

// WallVelocity sets the ghost velocity of no-slip walls,
// ug = 2 u_wall - uf, with uf the Shepard-averaged fluid velocity.
type WallVelocity struct {
	sph.Binding
}

func NewWallVelocity(dest string, sources ...string) *WallVelocity {
	return &WallVelocity{Binding: sph.Bind(dest, sources...)}
}

func (e *WallVelocity) Accumulates() []string { return shepardFields }

func (e *WallVelocity) Initialize(d *particle.Set, i int, env *sph.Env) { zeroShepard(d, i) }

func (e *WallVelocity) Loop(d, s *particle.Set, p *sph.Pair, env *sph.Env) { addShepard(d, s, p) }

func (e *WallVelocity) PostLoop(d *particle.Set, i int, env *sph.Env) {
	normShepard(d, i)
	d.Ug[i] = 2*d.U[i] - d.Uf[i]
	d.Vg[i] = 2*d.V[i] - d.Vf[i]
	d.Wg[i] = 2*d.W[i] - d.Wf[i]
}

// FreeSlipVelocity mirrors the fluid velocity onto inviscid walls without
// reversing it, ug = uf.
type FreeSlipVelocity struct {
	sph.Binding
}

func NewFreeSlipVelocity(dest string, sources ...string) *FreeSlipVelocity {
	return &FreeSlipVelocity{Binding: sph.Bind(dest, sources...)}
}

func (e *FreeSlipVelocity) Accumulates() []string { return shepardFields }

func (e *FreeSlipVelocity) Initialize(d *particle.Set, i int, env *sph.Env) { zeroShepard(d, i) }

func (e *FreeSlipVelocity) Loop(d, s *particle.Set, p *sph.Pair, env *sph.Env) {
	addShepard(d, s, p)
}

func (e *FreeSlipVelocity) PostLoop(d *particle.Set, i int, env *sph.Env) {
	normShepard(d, i)
	d.Ug[i], d.Vg[i], d.Wg[i] = d.Uf[i], d.Vf[i], d.Wf[i]
}

var shepardFields = []string{"uf", "vf", "wf", "wij"}

func zeroShepard(d *particle.Set, i int) {
	d.Uf[i], d.Vf[i], d.Wf[i] = 0, 0, 0
	d.Wij[i] = 0
}

func addShepard(d, s *particle.Set, p *sph.Pair) {
	i, j := p.I, p.J
	d.Uf[i] += s.U[j] * p.W
	d.Vf[i] += s.V[j] * p.W
	d.Wf[i] += s.W[j] * p.W
	d.Wij[i] += p.W
}

func normShepard(d *particle.Set, i int) {
	if d.Wij[i] > velocityWeightFloor {
		d.Uf[i] /= d.Wij[i]
		d.Vf[i] /= d.Wij[i]
		d.Wf[i] /= d.Wij[i]
	}
}

// GhostPressure copies p and pk from each ghost's source particle. It
// must run in a non-real group so that ghosts are visited.
type GhostPressure struct {
	sph.Binding
}

func NewGhostPressure(dest string) *GhostPressure {
	return &GhostPressure{Binding: sph.Bind(dest)}
}

func (e *GhostPressure) Initialize(d *particle.Set, i int, env *sph.Env) {
	if d.Tag[i] != particle.Ghost {
		return
	}
	g := d.Gid[i]
	d.P[i] = d.P[g]
	d.Pk[i] = d.Pk[g]
}
