package metrics

import (
	"github.com/san-kum/isph/internal/particle"
	"github.com/san-kum/isph/internal/sim"
)

// Convergence is the fraction of steps whose pressure solve converged.
type Convergence struct {
	name       string
	violations int
	samples    int
}

func NewConvergence() *Convergence {
	return &Convergence{name: "ppe_converged"}
}

func (c *Convergence) Name() string {
	return c.name
}

func (c *Convergence) Observe(rec sim.StepRecord, sets []*particle.Set) {
	c.samples++
	if !rec.Converged {
		c.violations++
	}
}

func (c *Convergence) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *Convergence) Reset() {
	c.violations = 0
	c.samples = 0
}
