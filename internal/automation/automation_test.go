package automation

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/isph/internal/config"
	"github.com/san-kum/isph/internal/experiment"
	"github.com/san-kum/isph/internal/storage"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func restConfig(t *testing.T, steps int) *config.Config {
	t.Helper()
	cfg := config.GetPreset("lattice", "rest")
	require.NotNil(t, cfg)
	cfg.Duration = float64(steps) * cfg.Dt
	return cfg
}

const batchYAML = `
name: smoke
description: two short lattice runs
runs:
  - label: cr
    scenario: lattice
    preset: rest
    params:
      duration: 0.002
  - scenario: lattice
    preset: rest
    variant: DI
    params:
      duration: 0.003
      omega: 0.4
`

func TestLoadBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(batchYAML), 0644))

	b, err := LoadBatch(path)
	require.NoError(t, err)
	assert.Equal(t, "smoke", b.Name)
	require.Len(t, b.Runs, 2)
	assert.Equal(t, 0.4, b.Runs[1].Params["omega"])

	cfg, err := b.Runs[1].Resolve()
	require.NoError(t, err)
	assert.Equal(t, "DI", cfg.Scheme.Variant)
	assert.Equal(t, 0.4, cfg.Scheme.Omega)
	assert.Equal(t, 2, cfg.Domain.Ny, "preset kept")

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("name: none\n"), 0644))
	_, err = LoadBatch(empty)
	assert.Error(t, err)
}

func TestResolveErrors(t *testing.T) {
	_, err := BatchRun{Scenario: "tank", Preset: "nope"}.Resolve()
	assert.Error(t, err)
	_, err = BatchRun{Params: map[string]float64{"theta": 1}}.Resolve()
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
	_, err = BatchRun{Params: map[string]float64{"dt": -1}}.Resolve()
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestRunBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(batchYAML), 0644))
	b, err := LoadBatch(path)
	require.NoError(t, err)

	st := storage.New(t.TempDir())
	results, err := RunBatch(context.Background(), b, experiment.NewRegistry(), st, quietLogger())
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "cr", results[0].Label)
	assert.Equal(t, "run2", results[1].Label)
	assert.Equal(t, 2, results[0].Result.StepsTaken)
	assert.Equal(t, 3, results[1].Result.StepsTaken)

	runs, err := st.List()
	require.NoError(t, err)
	assert.Len(t, runs, 2)
	assert.NotEqual(t, results[0].RunID, results[1].RunID)
}

func TestRunSweep(t *testing.T) {
	sweep := &ParameterSweep{
		Base:      restConfig(t, 2),
		ParamName: "omega",
		ParamMin:  0.25,
		ParamMax:  0.75,
		NumSteps:  3,
	}
	results, err := RunSweep(context.Background(), sweep, experiment.NewRegistry(), quietLogger())
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, 0.25, results[0].ParamValue)
	assert.Equal(t, 0.5, results[1].ParamValue)
	assert.Equal(t, 0.75, results[2].ParamValue)
	for _, r := range results {
		assert.Equal(t, 2, r.Steps)
		assert.True(t, r.Stable)
	}

	sweep.NumSteps = 1
	_, err = RunSweep(context.Background(), sweep, experiment.NewRegistry(), quietLogger())
	assert.Error(t, err)

	sweep.NumSteps, sweep.ParamName = 2, "theta"
	_, err = RunSweep(context.Background(), sweep, experiment.NewRegistry(), quietLogger())
	assert.Error(t, err)
}

func TestRunMonteCarlo(t *testing.T) {
	mc := &MonteCarloConfig{
		Base:         restConfig(t, 2),
		Perturbation: 0.01,
		NumTrials:    3,
		Seed:         7,
	}
	reg := experiment.NewRegistry()

	a, err := RunMonteCarlo(context.Background(), mc, reg, quietLogger())
	require.NoError(t, err)
	require.Len(t, a, 3)
	stable, unstable := MonteCarloStats(a)
	assert.Equal(t, 3, stable+unstable)

	b, err := RunMonteCarlo(context.Background(), mc, reg, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, a, b, "same seed, same trials")
}

func TestMonteCarloStats(t *testing.T) {
	s, u := MonteCarloStats([]MonteCarloResult{{Stable: true}, {Stable: false}, {Stable: true}})
	assert.Equal(t, 2, s)
	assert.Equal(t, 1, u)
}
