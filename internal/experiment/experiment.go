package experiment

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/isph/internal/config"
	"github.com/san-kum/isph/internal/isph"
	"github.com/san-kum/isph/internal/metrics"
	"github.com/san-kum/isph/internal/particle"
	"github.com/san-kum/isph/internal/sim"
)

type Experiment struct {
	cfg        *config.Config
	opts       isph.Options
	coll       *particle.Collection
	integrator *isph.Integrator
	simulator  *sim.Simulator
	log        logrus.FieldLogger
}

func New(cfg *config.Config, log logrus.FieldLogger) *Experiment {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Experiment{cfg: cfg, log: log}
}

// Setup builds the scenario particles, the scheme and a simulator with
// the default metrics.
func (e *Experiment) Setup(reg *Registry) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	sc, err := reg.Get(e.cfg.Scenario)
	if err != nil {
		return err
	}
	opts, err := e.cfg.Options()
	if err != nil {
		return err
	}
	coll, err := sc.Build(e.cfg, &opts)
	if err != nil {
		return fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	scheme, err := isph.NewScheme(opts)
	if err != nil {
		return err
	}
	log := e.log.WithField("scenario", sc.Name)
	integ, err := scheme.Build(coll, log)
	if err != nil {
		return err
	}
	if e.cfg.Workers > 0 {
		integ.Evaluator().SetWorkers(e.cfg.Workers)
	}

	e.opts, e.coll, e.integrator = opts, coll, integ
	e.simulator = sim.New(integ)
	e.simulator.SetLogger(log)
	for _, m := range metrics.Default() {
		e.simulator.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.cfg.SimConfig())
}

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

func (e *Experiment) Collection() *particle.Collection { return e.coll }
func (e *Experiment) Integrator() *isph.Integrator     { return e.integrator }
func (e *Experiment) Options() isph.Options            { return e.opts }
func (e *Experiment) Config() *config.Config           { return e.cfg }
