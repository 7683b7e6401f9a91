package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/isph/internal/isph"
	"github.com/san-kum/isph/internal/particle"
)

type Simulator struct {
	stepper   Stepper
	metrics   []Metric
	observers []Observer
	log       logrus.FieldLogger
}

func New(stepper Stepper) *Simulator {
	return &Simulator{
		stepper:   stepper,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		log:       logrus.StandardLogger(),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) SetLogger(l logrus.FieldLogger) {
	if l == nil {
		l = logrus.StandardLogger()
	}
	s.log = l
}

// Run steps until cfg.Duration. Cancellation is checked between
// timesteps; the partial result is returned with ctx.Err().
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	result := &Result{
		Records: make([]StepRecord, 0, int(cfg.Duration/cfg.Dt)+1),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	sets := s.stepper.Sets()
	s.log.WithFields(logrus.Fields{
		"dt":       cfg.Dt,
		"duration": cfg.Duration,
		"adaptive": cfg.Adaptive,
		"sets":     len(sets),
	}).Info("run started")

	t := 0.0
	dt := cfg.Dt
	eps := 1e-9 * cfg.Duration

	for step := 0; cfg.Duration-t > eps; step++ {
		select {
		case <-ctx.Done():
			result.FinalTime = t
			s.finish(result)
			s.log.WithField("t", t).Warn("run canceled")
			return result, ctx.Err()
		default:
		}
		if cfg.MaxSteps > 0 && step >= cfg.MaxSteps {
			break
		}

		if cfg.Adaptive && step > 0 {
			dt = s.nextDt(cfg)
		}
		dt = math.Min(dt, cfg.Duration-t)

		rep, err := s.stepper.Step(t, dt)
		if err != nil {
			return result, fmt.Errorf("sim: step %d: %w", step, err)
		}
		t += dt

		rec := NewRecord(step, t, dt, rep, sets)
		if rep.Sweeps() > 0 && !rep.Converged() {
			result.Unconverged++
		}

		if cfg.ValidateState && !Valid(sets) {
			err := SimError{Time: t, Step: step, Message: "invalid state (NaN/Inf)"}
			result.Errors = append(result.Errors, err)
			s.log.WithError(err).Error("run stopped")
			break
		}

		for _, m := range s.metrics {
			m.Observe(rec, sets)
		}
		for _, obs := range s.observers {
			obs.OnStep(rec, sets)
		}

		result.Records = append(result.Records, rec)
		result.StepsTaken++
		result.FinalTime = t

		s.log.WithFields(logrus.Fields{
			"step":   step,
			"t":      t,
			"dt":     dt,
			"sweeps": rec.Sweeps,
		}).Debug("step")
	}

	s.finish(result)
	s.log.WithFields(logrus.Fields{
		"steps":       result.StepsTaken,
		"t":           result.FinalTime,
		"unconverged": result.Unconverged,
	}).Info("run finished")
	return result, nil
}

func (s *Simulator) finish(result *Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if cfg.Adaptive {
		if cfg.CFL <= 0 {
			return fmt.Errorf("cfl must be positive for adaptive stepping")
		}
		if cfg.MinDt <= 0 || cfg.MaxDt < cfg.MinDt {
			return fmt.Errorf("need 0 < min_dt <= max_dt for adaptive stepping")
		}
	}
	return nil
}

func (s *Simulator) nextDt(cfg Config) float64 {
	dt, clamped := NextDt(s.stepper, cfg)
	if clamped {
		s.log.WithFields(logrus.Fields{"dt": dt, "min_dt": cfg.MinDt}).Warn("timestep clamped")
	}
	return dt
}

// NextDt is min(MaxDt, CFL h/max dt_cfl, 0.25 sqrt(h/|a|max)) from the
// estimators of the last step, floored at MinDt.
func NextDt(st Stepper, cfg Config) (dt float64, clamped bool) {
	maxCFL, maxAccel, h := st.Estimates()
	dt = cfg.MaxDt
	if maxCFL > 0 {
		dt = math.Min(dt, cfg.CFL*h/maxCFL)
	}
	if maxAccel > 0 {
		dt = math.Min(dt, 0.25*math.Sqrt(h/maxAccel))
	}
	if dt < cfg.MinDt {
		return cfg.MinDt, true
	}
	return dt, false
}

// NewRecord describes a finished step ending at time t.
func NewRecord(step int, t, dt float64, rep isph.StepReport, sets []*particle.Set) StepRecord {
	maxP, maxVmag, momentum := Diagnose(sets)
	return StepRecord{
		Step:      step,
		Time:      t,
		Dt:        dt,
		Sweeps:    rep.Sweeps(),
		Converged: rep.Converged(),
		Conv:      rep.PPE.Residual(),
		MaxP:      maxP,
		MaxVmag:   maxVmag,
		Momentum:  momentum,
	}
}

// Diagnose reduces the real particles of sets to the largest pressure,
// the largest speed and the magnitude of the total momentum.
func Diagnose(sets []*particle.Set) (maxP, maxVmag, momentum float64) {
	var mom [3]float64
	maxP = math.Inf(-1)
	for _, s := range sets {
		for i := 0; i < s.Len(); i++ {
			if !s.IsReal(i) {
				continue
			}
			maxP = math.Max(maxP, s.P[i])
			maxVmag = math.Max(maxVmag, math.Sqrt(s.U[i]*s.U[i]+s.V[i]*s.V[i]+s.W[i]*s.W[i]))
			mom[0] += s.M[i] * s.U[i]
			mom[1] += s.M[i] * s.V[i]
			mom[2] += s.M[i] * s.W[i]
		}
	}
	if math.IsInf(maxP, -1) {
		maxP = 0
	}
	return maxP, maxVmag, floats.Norm(mom[:], 2)
}

// Valid reports whether every set holds finite state.
func Valid(sets []*particle.Set) bool {
	for _, s := range sets {
		if !s.IsValid() {
			return false
		}
	}
	return true
}
