package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/isph/internal/config"
	"github.com/san-kum/isph/internal/experiment"
	"github.com/san-kum/isph/internal/sim"
	"github.com/san-kum/isph/internal/storage"
)

// Batch is a scripted sequence of runs.
type Batch struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Runs        []BatchRun `yaml:"runs"`
}

// BatchRun starts from a config file, a preset or the defaults, in that
// order of preference, and then applies Params through config.Set.
type BatchRun struct {
	Label    string             `yaml:"label"`
	Scenario string             `yaml:"scenario"`
	Preset   string             `yaml:"preset"`
	Config   string             `yaml:"config"`
	Variant  string             `yaml:"variant"`
	Params   map[string]float64 `yaml:"params"`
}

type BatchResult struct {
	Label  string
	RunID  string
	Result *sim.Result
}

// LoadBatch loads a batch from a YAML file
func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var batch Batch
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return nil, err
	}
	if len(batch.Runs) == 0 {
		return nil, fmt.Errorf("batch %s: no runs", path)
	}
	return &batch, nil
}

// Resolve builds the config of one run.
func (r BatchRun) Resolve() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case r.Config != "":
		loaded, err := config.Load(r.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case r.Preset != "":
		cfg = config.GetPreset(r.Scenario, r.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %s/%s", r.Scenario, r.Preset)
		}
	default:
		cfg = config.DefaultConfig()
	}
	if r.Scenario != "" {
		cfg.Scenario = r.Scenario
	}
	if r.Variant != "" {
		cfg.Scheme.Variant = r.Variant
	}
	for k, v := range r.Params {
		if err := cfg.Set(k, v); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}

// RunBatch executes the runs in order and saves each one to st when st
// is non-nil.
func RunBatch(ctx context.Context, batch *Batch, reg *experiment.Registry, st *storage.Store, log logrus.FieldLogger) ([]BatchResult, error) {
	results := make([]BatchResult, 0, len(batch.Runs))

	for i, run := range batch.Runs {
		label := run.Label
		if label == "" {
			label = fmt.Sprintf("run%d", i+1)
		}
		rlog := log.WithFields(logrus.Fields{"batch": batch.Name, "run": label})
		rlog.Infof("running %d/%d", i+1, len(batch.Runs))

		cfg, err := run.Resolve()
		if err != nil {
			return results, fmt.Errorf("%s: %w", label, err)
		}

		exp := experiment.New(cfg, rlog)
		if err := exp.Setup(reg); err != nil {
			return results, fmt.Errorf("%s setup: %w", label, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("%s run: %w", label, err)
		}

		br := BatchResult{Label: label, Result: result}
		if st != nil {
			if br.RunID, err = st.Save(cfg, result, exp.Collection()); err != nil {
				return results, fmt.Errorf("%s save: %w", label, err)
			}
		}
		results = append(results, br)
	}

	return results, nil
}

// ParameterSweep runs Base across NumSteps evenly spaced values of one
// config parameter.
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

type SweepResult struct {
	ParamValue  float64
	Steps       int
	Unconverged int
	MeanSweeps  float64
	MaxP        float64
	Kinetic     float64
	Stable      bool
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, reg *experiment.Registry, log logrus.FieldLogger) ([]SweepResult, error) {
	if sweep.NumSteps < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 steps, got %d", sweep.NumSteps)
	}
	results := make([]SweepResult, 0, sweep.NumSteps)
	paramStep := (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)

	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep

		cfg := sweep.Base.Clone()
		if err := cfg.Set(sweep.ParamName, paramVal); err != nil {
			return nil, err
		}

		slog := log.WithField(sweep.ParamName, paramVal)
		exp := experiment.New(cfg, slog)
		if err := exp.Setup(reg); err != nil {
			return nil, err
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return nil, err
		}

		maxP := 0.0
		for _, r := range result.Records {
			maxP = math.Max(maxP, r.MaxP)
		}
		results = append(results, SweepResult{
			ParamValue:  paramVal,
			Steps:       result.StepsTaken,
			Unconverged: result.Unconverged,
			MeanSweeps:  result.Metrics["ppe_sweeps"],
			MaxP:        maxP,
			Kinetic:     result.Metrics["kinetic_energy"],
			Stable:      len(result.Errors) == 0,
		})

		slog.Infof("sweep %d/%d", i+1, sweep.NumSteps)
	}

	return results, nil
}

// MonteCarloConfig jitters the initial fluid positions of Base by up to
// Perturbation particle spacings in each direction.
type MonteCarloConfig struct {
	Base         *config.Config
	Perturbation float64
	NumTrials    int
	Seed         int64
}

type MonteCarloResult struct {
	TrialID     int
	Steps       int
	Unconverged int
	MaxP        float64
	Stable      bool // ran to the end with finite state
}

// RunMonteCarlo executes multiple trials with random perturbations
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, reg *experiment.Registry, log logrus.FieldLogger) ([]MonteCarloResult, error) {
	results := make([]MonteCarloResult, 0, cfg.NumTrials)

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	amp := cfg.Perturbation * cfg.Base.Domain.Dx

	for trial := 0; trial < cfg.NumTrials; trial++ {
		exp := experiment.New(cfg.Base.Clone(), log.WithField("trial", trial))
		if err := exp.Setup(reg); err != nil {
			return nil, err
		}

		coll := exp.Collection()
		for _, name := range exp.Options().Fluids {
			s := coll.Get(name)
			for i := 0; i < s.Len(); i++ {
				if !s.IsReal(i) {
					continue
				}
				s.X[i] += (rng.Float64() - 0.5) * 2 * amp
				s.Y[i] += (rng.Float64() - 0.5) * 2 * amp
			}
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return nil, err
		}

		maxP := 0.0
		for _, r := range result.Records {
			maxP = math.Max(maxP, r.MaxP)
		}
		results = append(results, MonteCarloResult{
			TrialID:     trial,
			Steps:       result.StepsTaken,
			Unconverged: result.Unconverged,
			MaxP:        maxP,
			Stable:      len(result.Errors) == 0,
		})

		if (trial+1)%10 == 0 {
			log.Infof("monte carlo: %d/%d trials complete", trial+1, cfg.NumTrials)
		}
	}

	return results, nil
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
