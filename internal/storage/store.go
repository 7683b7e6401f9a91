package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/isph/internal/config"
	"github.com/san-kum/isph/internal/particle"
	"github.com/san-kum/isph/internal/sim"
)

const (
	metadataFile  = "metadata.json"
	stepsFile     = "steps.csv"
	particlesFile = "particles.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Scenario    string             `json:"scenario"`
	Timestamp   time.Time          `json:"timestamp"`
	Config      *config.Config     `json:"config"`
	Steps       int                `json:"steps"`
	FinalTime   float64            `json:"final_time"`
	Unconverged int                `json:"unconverged"`
	Metrics     map[string]float64 `json:"metrics"`
	Errors      []string           `json:"errors,omitempty"`
}

// ParticleRow is one real particle of the final snapshot.
type ParticleRow struct {
	Set  string  `csv:"set" json:"set"`
	Role string  `csv:"role" json:"role"`
	X    float64 `csv:"x" json:"x"`
	Y    float64 `csv:"y" json:"y"`
	Z    float64 `csv:"z" json:"z"`
	U    float64 `csv:"u" json:"u"`
	V    float64 `csv:"v" json:"v"`
	W    float64 `csv:"w" json:"w"`
	P    float64 `csv:"p" json:"p"`
	Rho  float64 `csv:"rho" json:"rho"`
}

// Snapshot flattens the real particles of coll.
func Snapshot(coll *particle.Collection) []ParticleRow {
	var rows []ParticleRow
	for _, s := range coll.Sets() {
		for i := 0; i < s.Len(); i++ {
			if !s.IsReal(i) {
				continue
			}
			rows = append(rows, ParticleRow{
				Set:  s.Name,
				Role: s.Role.String(),
				X:    s.X[i],
				Y:    s.Y[i],
				Z:    s.Z[i],
				U:    s.U[i],
				V:    s.V[i],
				W:    s.W[i],
				P:    s.P[i],
				Rho:  s.Rho[i],
			})
		}
	}
	return rows
}

// Save writes metadata.json, steps.csv and particles.csv into a new run
// directory named <scenario>_<unix seconds>.
func (s *Store) Save(cfg *config.Config, result *sim.Result, coll *particle.Collection) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}
	ts := s.now()
	runID, runDir, err := s.newRunDir(cfg.Scenario, ts)
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Scenario:    cfg.Scenario,
		Timestamp:   ts,
		Config:      cfg,
		Steps:       result.StepsTaken,
		FinalTime:   result.FinalTime,
		Unconverged: result.Unconverged,
		Metrics:     finiteMetrics(result.Metrics),
	}
	for _, e := range result.Errors {
		meta.Errors = append(meta.Errors, e.Error())
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	records := result.Records
	if err := writeCSV(filepath.Join(runDir, stepsFile), &records); err != nil {
		return "", err
	}
	if coll != nil {
		rows := Snapshot(coll)
		if err := writeCSV(filepath.Join(runDir, particlesFile), &rows); err != nil {
			return "", err
		}
	}
	return runID, nil
}

func (s *Store) newRunDir(scenario string, ts time.Time) (string, string, error) {
	base := fmt.Sprintf("%s_%d", scenario, ts.Unix())
	id := base
	for k := 1; ; k++ {
		dir := filepath.Join(s.baseDir, id)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return id, dir, nil
		}
		if !os.IsExist(err) {
			return "", "", err
		}
		id = fmt.Sprintf("%s_%d", base, k)
	}
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, rows any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.MarshalFile(rows, f)
}

// List returns the stored runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadSteps(runID string) ([]sim.StepRecord, error) {
	var records []sim.StepRecord
	if err := s.readCSV(runID, stepsFile, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) LoadParticles(runID string) ([]ParticleRow, error) {
	var rows []ParticleRow
	if err := s.readCSV(runID, particlesFile, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) readCSV(runID, name string, out any) error {
	f, err := os.Open(filepath.Join(s.baseDir, runID, name))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s/%s", ErrRunNotFound, runID, name)
		}
		return err
	}
	defer f.Close()

	if err := gocsv.UnmarshalFile(f, out); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil
		}
		return fmt.Errorf("storage: %s/%s: %w", runID, name, err)
	}
	return nil
}
