package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

var ErrNoTrial = errors.New("optim: no trial succeeded")

// Objective scores one parameter combination; lower is better.
type Objective func(ctx context.Context, params map[string]float64) (float64, error)

type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	log        logrus.FieldLogger
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: need one range per parameter, got %d names and %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("optim: empty range for %s", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges, log: logrus.StandardLogger()}, nil
}

func (g *GridSearch) SetLogger(l logrus.FieldLogger) { g.log = l }

// Size is the number of combinations Search evaluates.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search evaluates every combination in order. Failed or non-finite
// trials are recorded but never chosen.
func (g *GridSearch) Search(ctx context.Context, obj Objective) (map[string]float64, float64, []Trial, error) {
	best := math.Inf(1)
	var bestParams map[string]float64
	trials := make([]Trial, 0, g.Size())

	err := g.searchRecursive(ctx, 0, make(map[string]float64), obj, func(tr Trial) {
		trials = append(trials, tr)
		entry := g.log.WithFields(toFields(tr.Params))
		if tr.Err != nil {
			entry.WithError(tr.Err).Warn("trial failed")
			return
		}
		entry.WithField("value", tr.Value).Info("trial")
		if tr.Value < best {
			best = tr.Value
			bestParams = tr.Params
		}
	})
	if err != nil {
		return bestParams, best, trials, err
	}
	if bestParams == nil {
		return nil, best, trials, ErrNoTrial
	}
	return bestParams, best, trials, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	obj Objective,
	record func(Trial),
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		val, err := obj(ctx, current)
		if err == nil && (math.IsNaN(val) || math.IsInf(val, 0)) {
			err = fmt.Errorf("optim: non-finite objective %g", val)
		}
		record(Trial{Params: current, Value: val, Err: err})
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, obj, record); err != nil {
			return err
		}
	}
	return nil
}

func toFields(params map[string]float64) logrus.Fields {
	f := make(logrus.Fields, len(params))
	for k, v := range params {
		f[k] = v
	}
	return f
}
