package sim

import (
	"fmt"

	"github.com/san-kum/isph/internal/isph"
	"github.com/san-kum/isph/internal/particle"
)

// Stepper advances particle sets by one timestep. *isph.Integrator
// satisfies it.
type Stepper interface {
	Step(t, dt float64) (isph.StepReport, error)
	Estimates() (maxCFL, maxAccel, minH float64)
	Sets() []*particle.Set
}

type Metric interface {
	Name() string
	Observe(rec StepRecord, sets []*particle.Set)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(rec StepRecord, sets []*particle.Set)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(rec StepRecord, sets []*particle.Set)

func (f ObserverFunc) OnStep(rec StepRecord, sets []*particle.Set) { f(rec, sets) }

type Config struct {
	Dt       float64
	Duration float64

	// Adaptive picks dt from the CFL and force estimators after the
	// first step, bounded by MinDt and MaxDt.
	Adaptive bool
	CFL      float64
	MinDt    float64
	MaxDt    float64

	ValidateState bool
	// MaxSteps stops the run early; 0 means no limit.
	MaxSteps int
}

func DefaultConfig() Config {
	return Config{
		Dt:            1e-4,
		Duration:      0.05,
		CFL:           0.25,
		MinDt:         1e-7,
		MaxDt:         1e-3,
		ValidateState: true,
	}
}

// StepRecord is one row of the run log.
type StepRecord struct {
	Step      int     `csv:"step" json:"step"`
	Time      float64 `csv:"time" json:"time"`
	Dt        float64 `csv:"dt" json:"dt"`
	Sweeps    int     `csv:"sweeps" json:"sweeps"`
	Converged bool    `csv:"converged" json:"converged"`
	Conv      float64 `csv:"conv" json:"conv"`
	MaxP      float64 `csv:"max_p" json:"max_p"`
	MaxVmag   float64 `csv:"max_vmag" json:"max_vmag"`
	Momentum  float64 `csv:"momentum" json:"momentum"`
}

type Result struct {
	Records     []StepRecord
	Metrics     map[string]float64
	Errors      []error
	StepsTaken  int
	FinalTime   float64
	Unconverged int
}

type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}
