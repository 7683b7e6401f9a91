package isph

import (
	"math"

	"github.com/san-kum/isph/internal/particle"
)

// Stepper advances one particle through the two integrator stages. The
// set of steppers is closed: StepCR, StepDI and StepGTVF.
type Stepper interface {
	Initialize(s *particle.Set, i int)
	Stage1(s *particle.Set, i int, dt float64)
	Stage2(s *particle.Set, i int, dt float64)
	Name() string
	sealed()
}

// StepCR moves particles with the old velocity, then updates velocity.
type StepCR struct{}

// StepDI updates velocity first and moves particles with the new one.
type StepDI struct{}

// StepGTVF advects particles with the transport velocity uhat.
type StepGTVF struct{}

func (StepCR) Name() string   { return "cr" }
func (StepDI) Name() string   { return "di" }
func (StepGTVF) Name() string { return "gtvf" }

func (StepCR) sealed()   {}
func (StepDI) sealed()   {}
func (StepGTVF) sealed() {}

func (StepCR) Initialize(s *particle.Set, i int) { snapshot(s, i) }
func (StepDI) Initialize(s *particle.Set, i int) { snapshot(s, i) }

func (StepGTVF) Initialize(s *particle.Set, i int) {
	snapshot(s, i)
	s.Uhat0[i], s.Vhat0[i], s.What0[i] = s.Uhat[i], s.Vhat[i], s.What[i]
}

func (StepCR) Stage1(s *particle.Set, i int, dt float64) {
	move(s, i, dt, s.U[i], s.V[i], s.W[i])
	kick(s, i, dt)
}

func (StepDI) Stage1(s *particle.Set, i int, dt float64) {
	kick(s, i, dt)
	move(s, i, dt, s.U[i], s.V[i], s.W[i])
}

func (StepGTVF) Stage1(s *particle.Set, i int, dt float64) {
	move(s, i, dt, s.Uhat[i], s.Vhat[i], s.What[i])
	kick(s, i, dt)
}

func (StepCR) Stage2(s *particle.Set, i int, dt float64) { correct(s, i, dt) }
func (StepDI) Stage2(s *particle.Set, i int, dt float64) { correct(s, i, dt) }

func (StepGTVF) Stage2(s *particle.Set, i int, dt float64) {
	kick(s, i, dt)
	estimate(s, i, dt)

	s.Uhat[i] = s.U[i] + dt*s.Auhat[i]
	s.Vhat[i] = s.V[i] + dt*s.Avhat[i]
	s.What[i] = s.W[i] + dt*s.Awhat[i]

	s.X[i] = s.X0[i] + 0.5*dt*(s.Uhat[i]+s.Uhat0[i])
	s.Y[i] = s.Y0[i] + 0.5*dt*(s.Vhat[i]+s.Vhat0[i])
	s.Z[i] = s.Z0[i] + 0.5*dt*(s.What[i]+s.What0[i])
}

// StepperFor returns the stepper of a variant.
func StepperFor(v Variant, gtvf bool) Stepper {
	switch {
	case gtvf:
		return StepGTVF{}
	case v == DI:
		return StepDI{}
	}
	return StepCR{}
}

func snapshot(s *particle.Set, i int) {
	s.X0[i], s.Y0[i], s.Z0[i] = s.X[i], s.Y[i], s.Z[i]
	s.U0[i], s.V0[i], s.W0[i] = s.U[i], s.V[i], s.W[i]
}

func move(s *particle.Set, i int, dt, u, v, w float64) {
	s.X[i] += dt * u
	s.Y[i] += dt * v
	s.Z[i] += dt * w
}

func kick(s *particle.Set, i int, dt float64) {
	s.U[i] += dt * s.Au[i]
	s.V[i] += dt * s.Av[i]
	s.W[i] += dt * s.Aw[i]
}

func correct(s *particle.Set, i int, dt float64) {
	kick(s, i, dt)

	s.X[i] = s.X0[i] + 0.5*dt*(s.U[i]+s.U0[i])
	s.Y[i] = s.Y0[i] + 0.5*dt*(s.V[i]+s.V0[i])
	s.Z[i] = s.Z0[i] + 0.5*dt*(s.W[i]+s.W0[i])

	estimate(s, i, dt)
}

// estimate fills the timestep estimators from the corrected velocity.
func estimate(s *particle.Set, i int, dt float64) {
	s.Vmag[i] = math.Sqrt(s.U[i]*s.U[i] + s.V[i]*s.V[i] + s.W[i]*s.W[i])
	s.DtCFL[i] = 2 * s.Vmag[i]

	au := (s.U[i] - s.U0[i]) / dt
	av := (s.V[i] - s.V0[i]) / dt
	aw := (s.W[i] - s.W0[i]) / dt
	s.DtForce[i] = 2 * (au*au + av*av + aw*aw)
}
