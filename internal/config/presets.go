package config

import "sort"

func preset(scenario string, mutate func(*Config)) *Config {
	c := DefaultConfig()
	c.Scenario = scenario
	mutate(c)
	return c
}

var Presets = map[string]map[string]*Config{
	"lattice": {
		"rest": preset("lattice", func(c *Config) {
			c.Domain.Nx, c.Domain.Ny, c.Domain.Dx = 20, 2, 0.1
			c.Physics.Gravity = 0
			c.Dt, c.Duration = 1e-3, 0.01
		}),
	},
	"tank": {
		"hydrostatic": preset("tank", func(c *Config) {
			c.Domain.Nx, c.Domain.Ny = 20, 10
			c.Physics.Nu = 1e-3
		}),
		"hydrostatic_di": preset("tank", func(c *Config) {
			c.Domain.Nx, c.Domain.Ny = 20, 10
			c.Physics.Nu = 1e-3
			c.Scheme.Variant = "DI"
		}),
		"symmetric": preset("tank", func(c *Config) {
			c.Domain.Nx, c.Domain.Ny = 20, 10
			c.Scheme.Symmetric = true
		}),
	},
	"dam_break": {
		"small": preset("dam_break", func(c *Config) {
			c.Domain.Nx, c.Domain.Ny, c.Domain.Dx = 10, 20, 0.02
			c.Physics.Nu = 1e-4
			c.Duration = 0.2
			c.Adaptive = true
		}),
		"gtvf": preset("dam_break", func(c *Config) {
			c.Domain.Nx, c.Domain.Ny, c.Domain.Dx = 10, 20, 0.02
			c.Physics.Nu = 1e-4
			c.Duration = 0.2
			c.Adaptive = true
			c.Scheme.Variant = "DI"
			c.Scheme.GTVF = true
			c.Scheme.Pref = 1000
		}),
	},
	"channel": {
		"poiseuille": preset("channel", func(c *Config) {
			c.Domain.Nx, c.Domain.Ny, c.Domain.Dx = 20, 10, 0.05
			c.Physics.Gravity = 0
			c.Physics.BodyForce = 0.5
			c.Physics.Nu = 0.01
			c.Scheme.HasGhosts = true
			c.Duration = 1
			c.Adaptive = true
		}),
	},
	"cavity": {
		"re100": preset("cavity", func(c *Config) {
			c.Domain.Nx, c.Domain.Ny, c.Domain.Dx = 25, 25, 0.04
			c.Physics.Gravity = 0
			c.Physics.Nu = 0.01
			c.Physics.LidVelocity = 1
			c.Duration = 0.5
			c.Adaptive = true
		}),
		"re100_tvf": preset("cavity", func(c *Config) {
			c.Domain.Nx, c.Domain.Ny, c.Domain.Dx = 25, 25, 0.04
			c.Physics.Gravity = 0
			c.Physics.Nu = 0.01
			c.Physics.LidVelocity = 1
			c.Duration = 0.5
			c.Adaptive = true
			c.Scheme.Variant = "DI"
			c.Scheme.GTVF = true
			c.Scheme.Pref = 100
		}),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(scenario, preset string) *Config {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	cfg, ok := scenarioPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(scenario string) []string {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenarioPresets))
	for name := range scenarioPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
