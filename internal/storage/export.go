package storage

import (
	"encoding/json"
	"errors"
	"io"
	"math"

	"github.com/san-kum/isph/internal/sim"
)

type ExportData struct {
	Run       RunMetadata   `json:"run"`
	Steps     []exportStep  `json:"steps"`
	Particles []ParticleRow `json:"particles"`
}

// exportStep is a StepRecord whose residual may be null, since JSON has
// no infinity.
type exportStep struct {
	sim.StepRecord
	Conv *float64 `json:"conv"`
}

func finite(x float64) *float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}
	return &x
}

func finiteMetrics(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}

// ExportJSON writes the metadata, step log and final particles of a run
// as one indented JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	steps, err := s.LoadSteps(runID)
	if err != nil {
		return err
	}
	particles, err := s.LoadParticles(runID)
	if err != nil && !errors.Is(err, ErrRunNotFound) {
		return err
	}

	data := ExportData{
		Run:       *meta,
		Steps:     make([]exportStep, len(steps)),
		Particles: particles,
	}
	for i, rec := range steps {
		data.Steps[i] = exportStep{StepRecord: rec, Conv: finite(rec.Conv)}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
