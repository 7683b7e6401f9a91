package isph

import (
	"github.com/san-kum/isph/internal/particle"
	"github.com/san-kum/isph/internal/sph"
)

// InjectionPoint is a place in the stage sequence where an inlet/outlet
// manager may insert groups.
type InjectionPoint int

const (
	// PreViscosity runs in stage 1 after the velocity boundary condition.
	PreViscosity InjectionPoint = iota
	// PrePPE runs inside every pressure sweep before the wall pressure.
	PrePPE
	// PostPPE runs once after the pressure solve.
	PostPPE
	// PostPressureBC runs after the final wall pressure update.
	PostPressureBC
)

func (p InjectionPoint) String() string {
	switch p {
	case PreViscosity:
		return "pre_viscosity"
	case PrePPE:
		return "pre_ppe"
	case PostPPE:
		return "post_ppe"
	case PostPressureBC:
		return "post_pressure_bc"
	}
	return "unknown"
}

// InletOutletManager supplies the inlet and outlet sets of a run. IO sets
// act as fluid sources everywhere and as PPE destinations through the
// rhs group.
type InletOutletManager interface {
	IONames() []string
	Equations(point InjectionPoint) []*sph.Group
	Steppers() map[string]Stepper
	AddProperties(s *particle.Set) error
}
