package metrics

import (
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/isph/internal/particle"
	"github.com/san-kum/isph/internal/sim"
)

// Sweeps is the mean number of pressure sweeps per step.
type Sweeps struct {
	name   string
	counts []float64
}

func NewSweeps() *Sweeps {
	return &Sweeps{name: "ppe_sweeps"}
}

func (s *Sweeps) Name() string { return s.name }

func (s *Sweeps) Observe(rec sim.StepRecord, sets []*particle.Set) {
	s.counts = append(s.counts, float64(rec.Sweeps))
}

func (s *Sweeps) Value() float64 {
	if len(s.counts) == 0 {
		return 0
	}
	return stat.Mean(s.counts, nil)
}

// StdDev is the sample standard deviation of the sweep counts.
func (s *Sweeps) StdDev() float64 {
	if len(s.counts) < 2 {
		return 0
	}
	return stat.StdDev(s.counts, nil)
}

func (s *Sweeps) Reset() { s.counts = s.counts[:0] }

// Default returns the metrics recorded for every run.
func Default() []sim.Metric {
	return []sim.Metric{
		NewKineticEnergy(),
		NewMomentumDrift(),
		NewConvergence(),
		NewSweeps(),
	}
}
