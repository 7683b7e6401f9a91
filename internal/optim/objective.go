package optim

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/isph/internal/config"
	"github.com/san-kum/isph/internal/experiment"
)

// ExperimentObjective runs a copy of base with the trial parameters
// applied through config.Set and scores it by the named metric. A run
// that stops on invalid state fails the trial.
func ExperimentObjective(base *config.Config, reg *experiment.Registry, metric string, log logrus.FieldLogger) Objective {
	return func(ctx context.Context, params map[string]float64) (float64, error) {
		cfg := base.Clone()
		for name, v := range params {
			if err := cfg.Set(name, v); err != nil {
				return 0, err
			}
		}

		exp := experiment.New(cfg, log)
		if err := exp.Setup(reg); err != nil {
			return 0, err
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return 0, err
		}
		if len(result.Errors) > 0 {
			return 0, fmt.Errorf("optim: run stopped: %w", result.Errors[0])
		}
		val, ok := result.Metrics[metric]
		if !ok {
			return 0, fmt.Errorf("optim: unknown metric %q", metric)
		}
		return val, nil
	}
}
