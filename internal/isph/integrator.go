package isph

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/isph/internal/particle"
	"github.com/san-kum/isph/internal/sph"
)

// PPEGroupName names the iterated pressure solve in the stage-2 groups.
const PPEGroupName = "ppe"

// StepReport summarises one timestep.
type StepReport struct {
	Time, Dt float64
	// PPE is the pressure solve; zero if the scheme has none.
	PPE sph.IterationStats
	// Iterations lists every iterated group of both stages.
	Iterations []sph.IterationStats
}

func (r StepReport) Converged() bool { return r.PPE.Converged }
func (r StepReport) Sweeps() int     { return r.PPE.Sweeps }

type stepped struct {
	set     *particle.Set
	stepper Stepper
}

type periodicSet struct {
	set    *particle.Set
	domain particle.Periodic
}

// Integrator is the two-stage predict/evaluate/correct timestep.
type Integrator struct {
	ev       *sph.Evaluator
	steps    []stepped
	periodic []periodicSet
	log      logrus.FieldLogger
}

// NewIntegrator pairs a two-stage evaluator with the steppers of the
// sets it moves. Sets without a stepper are held fixed.
func NewIntegrator(ev *sph.Evaluator, steppers map[string]Stepper) (*Integrator, error) {
	if ev.NumStages() != 2 {
		return nil, fmt.Errorf("isph: integrator needs 2 stages, got %d", ev.NumStages())
	}
	in := &Integrator{ev: ev, log: logrus.StandardLogger()}
	for _, s := range ev.Collection().Sets() {
		st, ok := steppers[s.Name]
		if !ok {
			continue
		}
		in.steps = append(in.steps, stepped{set: s, stepper: st})
	}
	for name := range steppers {
		if ev.Collection().Get(name) == nil {
			return nil, fmt.Errorf("%w: stepper for %q", ErrUnknownSet, name)
		}
	}
	return in, nil
}

// SetLogger replaces the logger; nil restores the standard logger.
func (in *Integrator) SetLogger(l logrus.FieldLogger) {
	if l == nil {
		l = logrus.StandardLogger()
	}
	in.log = l
}

func (in *Integrator) Evaluator() *sph.Evaluator { return in.ev }

// Step advances all stepped sets from t to t+dt.
func (in *Integrator) Step(t, dt float64) (StepReport, error) {
	rep := StepReport{Time: t, Dt: dt}

	in.each(func(st Stepper, s *particle.Set, i int) { st.Initialize(s, i) })

	stats, err := in.ev.Evaluate(0, t, dt)
	if err != nil {
		return rep, err
	}
	rep.Iterations = append(rep.Iterations, stats...)

	in.each(func(st Stepper, s *particle.Set, i int) { st.Stage1(s, i, dt) })
	in.ev.UpdateDomain()

	stats, err = in.ev.Evaluate(1, t+0.5*dt, dt)
	if err != nil {
		return rep, err
	}
	rep.Iterations = append(rep.Iterations, stats...)

	in.each(func(st Stepper, s *particle.Set, i int) { st.Stage2(s, i, dt) })
	// Stage2 corrects from the positions saved by Initialize, so wrapping
	// waits until the step is complete
	if len(in.periodic) > 0 {
		in.applyPeriodic()
	} else {
		in.ev.UpdateDomain()
	}

	for _, it := range rep.Iterations {
		if it.Group == PPEGroupName {
			rep.PPE = it
		}
	}
	if rep.PPE.Sweeps > 0 && !rep.PPE.Converged {
		in.log.WithFields(logrus.Fields{
			"t":      t,
			"sweeps": rep.PPE.Sweeps,
			"conv":   rep.PPE.Residual(),
		}).Warn("pressure solve did not converge")
	}
	return rep, nil
}

func (in *Integrator) applyPeriodic() {
	for _, p := range in.periodic {
		p.domain.Apply(p.set)
	}
	in.ev.UpdateDomain()
}

func (in *Integrator) each(fn func(st Stepper, s *particle.Set, i int)) {
	for _, x := range in.steps {
		s, st := x.set, x.stepper
		sph.ParallelFor(s.Len(), 256, func(start, end int) {
			for i := start; i < end; i++ {
				if s.IsReal(i) {
					fn(st, s, i)
				}
			}
		})
	}
}

// Estimates reduces the stage-2 timestep estimators over the stepped
// sets: the largest dt_cfl, the largest |a| recovered from dt_force and
// the smallest smoothing length.
func (in *Integrator) Estimates() (maxCFL, maxAccel, minH float64) {
	minH = math.Inf(1)
	for _, x := range in.steps {
		s := x.set
		for i := 0; i < s.Len(); i++ {
			if !s.IsReal(i) {
				continue
			}
			maxCFL = math.Max(maxCFL, s.DtCFL[i])
			maxAccel = math.Max(maxAccel, math.Sqrt(s.DtForce[i]/2))
			minH = math.Min(minH, s.H[i])
		}
	}
	if math.IsInf(minH, 1) {
		minH = 0
	}
	return maxCFL, maxAccel, minH
}

// Sets returns the stepped sets in collection order.
func (in *Integrator) Sets() []*particle.Set {
	out := make([]*particle.Set, len(in.steps))
	for k, x := range in.steps {
		out[k] = x.set
	}
	return out
}
