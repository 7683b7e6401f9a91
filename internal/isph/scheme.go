package isph

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/isph/internal/kernel"
	"github.com/san-kum/isph/internal/nnps"
	"github.com/san-kum/isph/internal/particle"
	"github.com/san-kum/isph/internal/sph"
)

// Variant selects the PPE source term.
type Variant int

const (
	CR Variant = iota
	DF
	DI
	DFDI
)

func (v Variant) String() string {
	switch v {
	case CR:
		return "CR"
	case DF:
		return "DF"
	case DI:
		return "DI"
	case DFDI:
		return "DFDI"
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// ParseVariant accepts CR, DF, DI and DFDI in any case. An empty string
// is CR.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "CR":
		return CR, nil
	case "DF":
		return DF, nil
	case "DI":
		return DI, nil
	case "DFDI":
		return DFDI, nil
	}
	return CR, fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

// summationDensity reports whether the variant recomputes density by
// summation.
func (v Variant) summationDensity() bool { return v == DI || v == DFDI }

// Options configures a Scheme. Start from DefaultOptions.
type Options struct {
	Fluids         []string
	Solids         []string
	InviscidSolids []string

	Dim     int
	Kernel  string
	Nu      float64
	Rho0    float64
	C0      float64
	Alpha   float64
	Beta    float64
	Gravity [3]float64

	Variant      Variant
	Tolerance    float64
	Omega        float64
	HGCorrection bool
	HasGhosts    bool
	// Periodic, if set, wraps the fluids and rebuilds their ghosts at the
	// start of every step. It needs HasGhosts.
	Periodic *particle.Periodic

	// Pref caps the GTVF background pressure; 0 means unset.
	Pref      float64
	GTVF      bool
	Symmetric bool

	RhoCutoff     float64
	HijFac        float64
	MinIterations int
	MaxIterations int

	IOManager InletOutletManager
}

func DefaultOptions() Options {
	return Options{
		Dim:           2,
		Kernel:        "quintic",
		Rho0:          1000,
		C0:            10,
		Variant:       CR,
		Tolerance:     0.05,
		Omega:         0.5,
		HGCorrection:  true,
		RhoCutoff:     0.8,
		HijFac:        0.5,
		MinIterations: sph.DefaultMinIterations,
		MaxIterations: sph.DefaultMaxIterations,
	}
}

// Scheme builds the equation groups and steppers of an ISPH run.
type Scheme struct {
	opts        Options
	fluidWithIO []string
}

// NewScheme validates opts. Every failure is a *SetupError.
func NewScheme(opts Options) (*Scheme, error) {
	if err := validate(opts); err != nil {
		return nil, err
	}
	s := &Scheme{opts: opts}
	s.fluidWithIO = append(s.fluidWithIO, opts.Fluids...)
	if opts.IOManager != nil {
		s.fluidWithIO = append(s.fluidWithIO, opts.IOManager.IONames()...)
	}
	return s, nil
}

func validate(o Options) error {
	bad := func(name string, v any, err error) error {
		return &SetupError{Option: name, Value: v, Wrapped: err}
	}
	if len(o.Fluids) == 0 {
		return bad("fluids", o.Fluids, ErrNoFluids)
	}
	switch o.Variant {
	case CR, DF, DI, DFDI:
	default:
		return bad("variant", int(o.Variant), ErrUnknownVariant)
	}
	if o.GTVF && !(o.Pref > 0) {
		return bad("pref", o.Pref, ErrMissingPref)
	}
	if !(o.Omega > 0 && o.Omega <= 1) {
		return bad("omega", o.Omega, fmt.Errorf("%w: must be in (0, 1]", ErrInvalidOption))
	}
	if !(o.Tolerance > 0) {
		return bad("tolerance", o.Tolerance, fmt.Errorf("%w: must be positive", ErrInvalidOption))
	}
	if o.Dim < 1 || o.Dim > 3 {
		return bad("dim", o.Dim, fmt.Errorf("%w: must be 1, 2 or 3", ErrInvalidOption))
	}
	if _, err := kernel.New(o.Kernel, o.Dim); err != nil {
		return bad("kernel", o.Kernel, fmt.Errorf("%w: %v", ErrInvalidOption, err))
	}
	if !(o.Rho0 > 0) {
		return bad("rho0", o.Rho0, fmt.Errorf("%w: must be positive", ErrInvalidOption))
	}
	if o.Nu < 0 || o.Alpha < 0 || o.C0 < 0 {
		return bad("nu/alpha/c0", []float64{o.Nu, o.Alpha, o.C0}, fmt.Errorf("%w: must not be negative", ErrInvalidOption))
	}
	if o.MaxIterations < 1 || o.MinIterations < 0 || o.MinIterations > o.MaxIterations {
		return bad("iterations", [2]int{o.MinIterations, o.MaxIterations}, fmt.Errorf("%w: need 0 <= min <= max, max >= 1", ErrInvalidOption))
	}
	if o.HijFac <= 0 {
		return bad("hij_fac", o.HijFac, fmt.Errorf("%w: must be positive", ErrInvalidOption))
	}
	if o.Periodic != nil {
		if !o.HasGhosts {
			return bad("has_ghosts", false, fmt.Errorf("%w: periodic domains mirror particles as ghosts", ErrInvalidOption))
		}
		if err := o.Periodic.Validate(); err != nil {
			return bad("periodic", *o.Periodic, fmt.Errorf("%w: %v", ErrInvalidOption, err))
		}
	}

	seen := make(map[string]bool)
	names := append(append(append([]string{}, o.Fluids...), o.Solids...), o.InviscidSolids...)
	if o.IOManager != nil {
		names = append(names, o.IOManager.IONames()...)
	}
	for _, n := range names {
		if seen[n] {
			return bad("sets", n, fmt.Errorf("%w: duplicate set name", ErrInvalidOption))
		}
		seen[n] = true
	}
	return nil
}

func (s *Scheme) Options() Options { return s.opts }

func (s *Scheme) allSolids() []string {
	return append(append([]string{}, s.opts.Solids...), s.opts.InviscidSolids...)
}

func (s *Scheme) all() []string {
	return append(append([]string{}, s.fluidWithIO...), s.allSolids()...)
}

func (s *Scheme) hasGravity() bool {
	g := s.opts.Gravity
	return g[0] != 0 || g[1] != 0 || g[2] != 0
}

func (s *Scheme) io(point InjectionPoint) []*sph.Group {
	if s.opts.IOManager == nil {
		return nil
	}
	return s.opts.IOManager.Equations(point)
}

func (s *Scheme) velocityBC() *sph.Group {
	var eqs []sph.Equation
	for _, name := range s.opts.Solids {
		eqs = append(eqs, NewWallVelocity(name, s.fluidWithIO...))
	}
	for _, name := range s.opts.InviscidSolids {
		eqs = append(eqs, NewFreeSlipVelocity(name, s.fluidWithIO...))
	}
	if len(eqs) == 0 {
		return nil
	}
	return sph.NewGroup(eqs...).Named("velocity_bc")
}

func (s *Scheme) pressureBC() *sph.Group {
	var eqs []sph.Equation
	for _, name := range s.allSolids() {
		eqs = append(eqs, NewSolidPressure(name, s.opts.Gravity, s.opts.HGCorrection, s.fluidWithIO...))
	}
	if len(eqs) == 0 {
		return nil
	}
	return sph.NewGroup(eqs...).Named("pressure_bc")
}

func (s *Scheme) ghostPressure() *sph.Group {
	if !s.opts.HasGhosts {
		return nil
	}
	var eqs []sph.Equation
	for _, name := range s.fluidWithIO {
		eqs = append(eqs, NewGhostPressure(name))
	}
	return sph.NewNonRealGroup(eqs...).Named("ghost_pressure")
}

func (s *Scheme) summationDensity(dests []string) *sph.Group {
	if !s.opts.Variant.summationDensity() {
		return nil
	}
	var eqs []sph.Equation
	for _, name := range dests {
		eqs = append(eqs, NewSummationDensity(name, s.all()...))
	}
	return sph.NewNonRealGroup(eqs...).Named("summation_density")
}

func (s *Scheme) viscous() *sph.Group {
	o := s.opts
	var eqs []sph.Equation
	for _, f := range o.Fluids {
		if o.Variant.summationDensity() {
			eqs = append(eqs, NewViscosityTVF(f, o.Nu, s.all()...))
		} else {
			eqs = append(eqs, NewLaminarViscosity(f, o.Nu, o.Fluids...))
		}
		if o.Alpha > 0 {
			eqs = append(eqs, NewArtificialViscosity(f, o.Alpha, o.C0, o.Fluids...))
		}
		if s.hasGravity() {
			eqs = append(eqs, NewBodyForce(f, o.Gravity))
		}
		if o.GTVF {
			eqs = append(eqs, NewArtificialStress(f, o.Fluids...))
		}
		if len(o.Solids) > 0 && o.Nu > 0 {
			eqs = append(eqs, NewSolidWallNoSlip(f, o.Nu, o.Solids...))
		}
	}
	return sph.NewGroup(eqs...).Named("viscous")
}

func (s *Scheme) source() *sph.Group {
	o := s.opts
	var eqs []sph.Equation
	for _, f := range s.fluidWithIO {
		if o.Variant == DI {
			eqs = append(eqs, NewDensityInvariance(f, o.Rho0))
			continue
		}
		eqs = append(eqs, NewVolumeSummation(f, s.all()...))
		srcs := append(append([]string{}, s.fluidWithIO...), o.Solids...)
		eqs = append(eqs, NewVelocityDivergence(f, srcs...))
	}
	return sph.NewGroup(eqs...).Named("ppe_source")
}

func (s *Scheme) ppe() *sph.Group {
	o := s.opts
	groups := []*sph.Group{s.ghostPressure()}
	groups = append(groups, s.io(PrePPE)...)
	groups = append(groups, s.pressureBC())

	var eqs []sph.Equation
	for _, f := range o.Fluids {
		eqs = append(eqs,
			NewPressureCoeff(f, s.all()...),
			NewPPESolve(f, o.Rho0, o.RhoCutoff, o.Omega, o.Tolerance),
		)
	}
	groups = append(groups, sph.NewGroup(eqs...).Named("ppe_sweep"))

	g := sph.NewIteratedGroup(groups...).Named(PPEGroupName)
	g.MinIterations, g.MaxIterations = o.MinIterations, o.MaxIterations
	return g
}

func (s *Scheme) pressureGradient() *sph.Group {
	o := s.opts
	var eqs []sph.Equation
	for _, f := range o.Fluids {
		if o.Symmetric {
			eqs = append(eqs, NewPressureGradientSymmetric(f, s.all()...))
		} else {
			eqs = append(eqs, NewPressureGradient(f, s.all()...))
		}
		if o.GTVF {
			eqs = append(eqs, NewGTVFAcceleration(f, o.Pref, o.HijFac, s.all()...))
		}
	}
	return sph.NewGroup(eqs...).Named("pressure_gradient")
}

// Stages returns fresh groups for stage 1 (viscous predictor) and stage 2
// (pressure projection). Absent optional groups are omitted, so the
// result contains no nil entries.
func (s *Scheme) Stages() []sph.Stage {
	var st1 sph.Stage
	st1 = appendGroups(st1, s.velocityBC())
	st1 = appendGroups(st1, s.io(PreViscosity)...)
	st1 = appendGroups(st1, s.summationDensity(s.opts.Fluids))
	st1 = appendGroups(st1, s.viscous())

	var st2 sph.Stage
	st2 = appendGroups(st2, s.velocityBC())
	st2 = appendGroups(st2, s.summationDensity(s.fluidWithIO))
	st2 = appendGroups(st2, s.source())
	st2 = appendGroups(st2, s.ppe())
	st2 = appendGroups(st2, s.ghostPressure())
	st2 = appendGroups(st2, s.io(PostPPE)...)
	st2 = appendGroups(st2, s.pressureBC())
	st2 = appendGroups(st2, s.io(PostPressureBC)...)
	st2 = appendGroups(st2, s.velocityBC())
	st2 = appendGroups(st2, s.pressureGradient())

	return []sph.Stage{st1, st2}
}

func appendGroups(st sph.Stage, gs ...*sph.Group) sph.Stage {
	for _, g := range gs {
		if g != nil {
			st = append(st, g)
		}
	}
	return st
}

// Steppers maps every fluid to the variant stepper and adds the steppers
// of the inlet/outlet manager.
func (s *Scheme) Steppers() map[string]Stepper {
	out := make(map[string]Stepper)
	if s.opts.IOManager != nil {
		for name, st := range s.opts.IOManager.Steppers() {
			out[name] = st
		}
	}
	for _, f := range s.opts.Fluids {
		if _, ok := out[f]; !ok {
			out[f] = StepperFor(s.opts.Variant, s.opts.GTVF)
		}
	}
	return out
}

// SetupProperties assigns roles from the scheme, seeds pk from p and,
// for GTVF, the transport velocity from u.
func (s *Scheme) SetupProperties(coll *particle.Collection) error {
	assign := func(option string, names []string, role particle.Role) error {
		for _, n := range names {
			set := coll.Get(n)
			if set == nil {
				return &SetupError{Option: option, Value: n, Wrapped: ErrUnknownSet}
			}
			set.Role = role
			copy(set.Pk, set.P)
		}
		return nil
	}
	if err := assign("fluids", s.fluidWithIO, particle.Fluid); err != nil {
		return err
	}
	if err := assign("solids", s.opts.Solids, particle.Solid); err != nil {
		return err
	}
	if err := assign("inviscid_solids", s.opts.InviscidSolids, particle.InviscidSolid); err != nil {
		return err
	}
	if !s.opts.HasGhosts {
		for _, n := range s.fluidWithIO {
			if coll.Get(n).HasGhosts() {
				return &SetupError{Option: "has_ghosts", Value: false, Wrapped: fmt.Errorf("%w: set %q has ghost particles", ErrInvalidOption, n)}
			}
		}
	}

	for _, n := range s.fluidWithIO {
		set := coll.Get(n)
		if s.opts.GTVF {
			copy(set.Uhat, set.U)
			copy(set.Vhat, set.V)
			copy(set.What, set.W)
		}
		if s.opts.IOManager != nil {
			if err := s.opts.IOManager.AddProperties(set); err != nil {
				return fmt.Errorf("isph: io properties for %q: %w", n, err)
			}
		}
	}
	return nil
}

// Build prepares coll and wires kernel, neighbour search, evaluator and
// integrator.
func (s *Scheme) Build(coll *particle.Collection, log logrus.FieldLogger) (*Integrator, error) {
	if err := s.SetupProperties(coll); err != nil {
		return nil, err
	}
	kern, err := kernel.New(s.opts.Kernel, s.opts.Dim)
	if err != nil {
		return nil, err
	}
	loc := nnps.NewLinkedList(coll, s.opts.Dim, kern.RadiusScale())
	ev, err := sph.NewEvaluator(coll, loc, kern, s.opts.Dim, s.Stages()...)
	if err != nil {
		return nil, err
	}
	in, err := NewIntegrator(ev, s.Steppers())
	if err != nil {
		return nil, err
	}
	if p := s.opts.Periodic; p != nil {
		for _, n := range s.fluidWithIO {
			in.periodic = append(in.periodic, periodicSet{set: coll.Get(n), domain: *p})
		}
		in.applyPeriodic()
	}
	in.SetLogger(log)
	if log != nil {
		log.WithFields(logrus.Fields{
			"variant":   s.opts.Variant,
			"fluids":    s.opts.Fluids,
			"solids":    s.allSolids(),
			"symmetric": s.opts.Symmetric,
			"gtvf":      s.opts.GTVF,
		}).Debug("scheme built")
	}
	return in, nil
}
