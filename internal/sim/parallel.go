package sim

import (
	"context"
	"sync"
)

// Ensemble runs independent simulators concurrently. Members must not
// share particle sets.
type Ensemble struct {
	members []*Simulator
}

func NewEnsemble(members ...*Simulator) *Ensemble {
	return &Ensemble{members: members}
}

func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, len(e.members))
	errs := make([]error, len(e.members))

	var wg sync.WaitGroup
	for i, m := range e.members {
		wg.Add(1)
		go func(idx int, sim *Simulator) {
			defer wg.Done()
			results[idx], errs[idx] = sim.Run(ctx, cfg)
		}(i, m)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
