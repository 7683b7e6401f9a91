package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/isph/internal/particle"
	"github.com/san-kum/isph/internal/sim"
)

// KineticEnergy reports 0.5 sum m|u|^2 over the real particles at the
// last observed step.
type KineticEnergy struct {
	name    string
	current float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(rec sim.StepRecord, sets []*particle.Set) {
	e.current = Kinetic(sets)
}

func (e *KineticEnergy) Value() float64 { return e.current }

func (e *KineticEnergy) Reset() { e.current = 0 }

// Kinetic is 0.5 sum m|u|^2 over the real particles of sets.
func Kinetic(sets []*particle.Set) float64 {
	ke := 0.0
	for _, s := range sets {
		for i := 0; i < s.Len(); i++ {
			if s.IsReal(i) {
				ke += 0.5 * s.M[i] * (s.U[i]*s.U[i] + s.V[i]*s.V[i] + s.W[i]*s.W[i])
			}
		}
	}
	return ke
}

// MomentumDrift is the largest |P - P0| over the observed steps, where P
// is the total momentum of the real particles and P0 its value at the
// first observed step.
type MomentumDrift struct {
	name     string
	initial  []float64
	maxDrift float64
}

func NewMomentumDrift() *MomentumDrift {
	return &MomentumDrift{name: "momentum_drift"}
}

func (m *MomentumDrift) Name() string { return m.name }

func (m *MomentumDrift) Observe(rec sim.StepRecord, sets []*particle.Set) {
	p := Momentum(sets)
	if m.initial == nil {
		m.initial = p
		return
	}
	m.maxDrift = math.Max(m.maxDrift, floats.Distance(p, m.initial, 2))
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() {
	m.initial = nil
	m.maxDrift = 0
}

// Momentum is sum m u over the real particles of sets.
func Momentum(sets []*particle.Set) []float64 {
	p := make([]float64, 3)
	for _, s := range sets {
		for i := 0; i < s.Len(); i++ {
			if s.IsReal(i) {
				p[0] += s.M[i] * s.U[i]
				p[1] += s.M[i] * s.V[i]
				p[2] += s.M[i] * s.W[i]
			}
		}
	}
	return p
}
