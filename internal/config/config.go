package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/isph/internal/isph"
	"github.com/san-kum/isph/internal/sim"
)

const (
	DefaultDt       = 1e-4
	DefaultDuration = 0.05
	DefaultNx       = 20
	DefaultNy       = 10
	DefaultDx       = 0.05
	DefaultHdx      = 1.0
	DefaultRho0     = 1000.0
	DefaultC0       = 10.0
	DefaultGravity  = -9.81
	DefaultCFL      = 0.25
)

var ErrInvalidConfig = errors.New("config: invalid")

type Config struct {
	Scenario string  `yaml:"scenario" toml:"scenario"`
	Dt       float64 `yaml:"dt" toml:"dt"`
	Duration float64 `yaml:"duration" toml:"duration"`
	Adaptive bool    `yaml:"adaptive" toml:"adaptive"`
	CFL      float64 `yaml:"cfl" toml:"cfl"`
	MinDt    float64 `yaml:"min_dt" toml:"min_dt"`
	MaxDt    float64 `yaml:"max_dt" toml:"max_dt"`
	Workers  int     `yaml:"workers" toml:"workers"`

	Domain  DomainConfig  `yaml:"domain" toml:"domain"`
	Physics PhysicsConfig `yaml:"physics" toml:"physics"`
	Scheme  SchemeConfig  `yaml:"scheme" toml:"scheme"`
}

type DomainConfig struct {
	Nx  int     `yaml:"nx" toml:"nx"`
	Ny  int     `yaml:"ny" toml:"ny"`
	Dx  float64 `yaml:"dx" toml:"dx"`
	Hdx float64 `yaml:"hdx" toml:"hdx"`
}

type PhysicsConfig struct {
	Rho0        float64 `yaml:"rho0" toml:"rho0"`
	C0          float64 `yaml:"c0" toml:"c0"`
	Nu          float64 `yaml:"nu" toml:"nu"`
	Alpha       float64 `yaml:"alpha" toml:"alpha"`
	Gravity     float64 `yaml:"gravity" toml:"gravity"`
	LidVelocity float64 `yaml:"lid_velocity" toml:"lid_velocity"`
	// BodyForce drives periodic flows along +x.
	BodyForce float64 `yaml:"body_force" toml:"body_force"`
}

type SchemeConfig struct {
	Variant       string  `yaml:"variant" toml:"variant"`
	Kernel        string  `yaml:"kernel" toml:"kernel"`
	Tolerance     float64 `yaml:"tolerance" toml:"tolerance"`
	Omega         float64 `yaml:"omega" toml:"omega"`
	GTVF          bool    `yaml:"gtvf" toml:"gtvf"`
	Symmetric     bool    `yaml:"symmetric" toml:"symmetric"`
	Pref          float64 `yaml:"pref" toml:"pref"`
	RhoCutoff     float64 `yaml:"rho_cutoff" toml:"rho_cutoff"`
	HijFac        float64 `yaml:"hij_fac" toml:"hij_fac"`
	HGCorrection  bool    `yaml:"hg_correction" toml:"hg_correction"`
	HasGhosts     bool    `yaml:"has_ghosts" toml:"has_ghosts"`
	MinIterations int     `yaml:"min_iterations" toml:"min_iterations"`
	MaxIterations int     `yaml:"max_iterations" toml:"max_iterations"`
}

func DefaultConfig() *Config {
	opts := isph.DefaultOptions()
	return &Config{
		Scenario: "tank",
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		CFL:      DefaultCFL,
		MinDt:    1e-7,
		MaxDt:    1e-3,
		Domain: DomainConfig{
			Nx:  DefaultNx,
			Ny:  DefaultNy,
			Dx:  DefaultDx,
			Hdx: DefaultHdx,
		},
		Physics: PhysicsConfig{
			Rho0:    DefaultRho0,
			C0:      DefaultC0,
			Gravity: DefaultGravity,
		},
		Scheme: SchemeConfig{
			Variant:       opts.Variant.String(),
			Kernel:        opts.Kernel,
			Tolerance:     opts.Tolerance,
			Omega:         opts.Omega,
			RhoCutoff:     opts.RhoCutoff,
			HijFac:        opts.HijFac,
			HGCorrection:  opts.HGCorrection,
			MinIterations: opts.MinIterations,
			MaxIterations: opts.MaxIterations,
		},
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load reads a YAML or, for a .toml extension, TOML file over the
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if isTOML(path) {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return err
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = yaml.Marshal(cfg); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}
	switch {
	case c.Dt <= 0:
		return bad("dt must be positive, got %g", c.Dt)
	case c.Duration <= 0:
		return bad("duration must be positive, got %g", c.Duration)
	case c.Domain.Nx < 1 || c.Domain.Ny < 1:
		return bad("domain needs at least one particle per axis, got %dx%d", c.Domain.Nx, c.Domain.Ny)
	case c.Domain.Dx <= 0 || c.Domain.Hdx <= 0:
		return bad("dx and hdx must be positive")
	case c.Physics.Rho0 <= 0:
		return bad("rho0 must be positive, got %g", c.Physics.Rho0)
	case c.Workers < 0:
		return bad("workers must not be negative")
	}
	if c.Adaptive && (c.CFL <= 0 || c.MinDt <= 0 || c.MaxDt < c.MinDt) {
		return bad("adaptive stepping needs cfl > 0 and 0 < min_dt <= max_dt")
	}
	if _, err := isph.ParseVariant(c.Scheme.Variant); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Options maps the physics and scheme sections onto solver options.
// Set names are left for the scenario to fill in.
func (c *Config) Options() (isph.Options, error) {
	v, err := isph.ParseVariant(c.Scheme.Variant)
	if err != nil {
		return isph.Options{}, err
	}
	opts := isph.DefaultOptions()
	opts.Variant = v
	opts.Kernel = c.Scheme.Kernel
	opts.Tolerance = c.Scheme.Tolerance
	opts.Omega = c.Scheme.Omega
	opts.GTVF = c.Scheme.GTVF
	opts.Symmetric = c.Scheme.Symmetric
	opts.Pref = c.Scheme.Pref
	opts.RhoCutoff = c.Scheme.RhoCutoff
	opts.HijFac = c.Scheme.HijFac
	opts.HGCorrection = c.Scheme.HGCorrection
	opts.HasGhosts = c.Scheme.HasGhosts
	opts.MinIterations = c.Scheme.MinIterations
	opts.MaxIterations = c.Scheme.MaxIterations

	opts.Rho0 = c.Physics.Rho0
	opts.C0 = c.Physics.C0
	opts.Nu = c.Physics.Nu
	opts.Alpha = c.Physics.Alpha
	opts.Gravity = [3]float64{0, c.Physics.Gravity, 0}
	return opts, nil
}

func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		Dt:            c.Dt,
		Duration:      c.Duration,
		Adaptive:      c.Adaptive,
		CFL:           c.CFL,
		MinDt:         c.MinDt,
		MaxDt:         c.MaxDt,
		ValidateState: true,
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
