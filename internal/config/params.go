package config

import (
	"fmt"
	"sort"
)

type setter func(c *Config, v float64)

var params = map[string]setter{
	"dt":             func(c *Config, v float64) { c.Dt = v },
	"duration":       func(c *Config, v float64) { c.Duration = v },
	"cfl":            func(c *Config, v float64) { c.CFL = v },
	"min_dt":         func(c *Config, v float64) { c.MinDt = v },
	"max_dt":         func(c *Config, v float64) { c.MaxDt = v },
	"workers":        func(c *Config, v float64) { c.Workers = int(v) },
	"nx":             func(c *Config, v float64) { c.Domain.Nx = int(v) },
	"ny":             func(c *Config, v float64) { c.Domain.Ny = int(v) },
	"dx":             func(c *Config, v float64) { c.Domain.Dx = v },
	"hdx":            func(c *Config, v float64) { c.Domain.Hdx = v },
	"rho0":           func(c *Config, v float64) { c.Physics.Rho0 = v },
	"c0":             func(c *Config, v float64) { c.Physics.C0 = v },
	"nu":             func(c *Config, v float64) { c.Physics.Nu = v },
	"alpha":          func(c *Config, v float64) { c.Physics.Alpha = v },
	"gravity":        func(c *Config, v float64) { c.Physics.Gravity = v },
	"lid_velocity":   func(c *Config, v float64) { c.Physics.LidVelocity = v },
	"body_force":     func(c *Config, v float64) { c.Physics.BodyForce = v },
	"tolerance":      func(c *Config, v float64) { c.Scheme.Tolerance = v },
	"omega":          func(c *Config, v float64) { c.Scheme.Omega = v },
	"pref":           func(c *Config, v float64) { c.Scheme.Pref = v },
	"rho_cutoff":     func(c *Config, v float64) { c.Scheme.RhoCutoff = v },
	"hij_fac":        func(c *Config, v float64) { c.Scheme.HijFac = v },
	"min_iterations": func(c *Config, v float64) { c.Scheme.MinIterations = int(v) },
	"max_iterations": func(c *Config, v float64) { c.Scheme.MaxIterations = int(v) },
}

// Set assigns a numeric parameter by its config key. Integer parameters
// are truncated.
func (c *Config) Set(name string, v float64) error {
	set, ok := params[name]
	if !ok {
		return fmt.Errorf("%w: unknown parameter %q", ErrInvalidConfig, name)
	}
	set(c, v)
	return nil
}

// ParamNames lists the keys accepted by Set.
func ParamNames() []string {
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
