package experiment

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/isph/internal/config"
	"github.com/san-kum/isph/internal/isph"
	"github.com/san-kum/isph/internal/kernel"
	"github.com/san-kum/isph/internal/particle"
)

// Scenario builds the particles of a named case and names its sets in
// the solver options.
type Scenario struct {
	Name        string
	Description string
	Build       func(cfg *config.Config, opts *isph.Options) (*particle.Collection, error)
}

type Registry struct {
	scenarios map[string]Scenario
}

func NewRegistry() *Registry {
	r := &Registry{scenarios: make(map[string]Scenario)}

	r.Register(Scenario{
		Name:        "lattice",
		Description: "fluid lattice at rest without walls or gravity",
		Build:       buildLattice,
	})
	r.Register(Scenario{
		Name:        "tank",
		Description: "fluid block at rest in a walled tank under gravity",
		Build:       buildTank,
	})
	r.Register(Scenario{
		Name:        "dam_break",
		Description: "fluid column collapsing into a container four columns wide",
		Build:       buildDamBreak,
	})
	r.Register(Scenario{
		Name:        "channel",
		Description: "body-force driven flow between plates, periodic in x",
		Build:       buildChannel,
	})
	r.Register(Scenario{
		Name:        "cavity",
		Description: "lid-driven cavity with a moving top wall",
		Build:       buildCavity,
	})

	return r
}

func (r *Registry) Register(s Scenario) { r.scenarios[s.Name] = s }

func (r *Registry) Get(name string) (Scenario, error) {
	s, ok := r.scenarios[name]
	if !ok {
		return Scenario{}, fmt.Errorf("unknown scenario: %s", name)
	}
	return s, nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.scenarios))
	for name := range r.scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// layers is the wall thickness, in particles, that gives a fluid
// particle touching the wall full kernel support.
func layers(cfg *config.Config, opts *isph.Options) (int, error) {
	k, err := kernel.New(opts.Kernel, opts.Dim)
	if err != nil {
		return 0, err
	}
	return int(math.Ceil(k.RadiusScale()*cfg.Domain.Hdx - 1e-9)), nil
}

// box appends n layers of wall particles below and beside the region
// [0,nx) x [0,ny), on the lattice of spacing dx.
func box(s *particle.Set, nx, ny, n int, cfg *config.Config) {
	dx, rho := cfg.Domain.Dx, cfg.Physics.Rho0
	for j := -n; j < ny; j++ {
		for i := -n; i < nx+n; i++ {
			if i >= 0 && i < nx && j >= 0 && j < ny {
				continue
			}
			s.Append(float64(i)*dx, float64(j)*dx, 0, rho*dx*dx, cfg.Domain.Hdx*dx, rho)
		}
	}
}

func fluid(cfg *config.Config, nx, ny int) *particle.Set {
	d := cfg.Domain
	return particle.Lattice("fluid", particle.Fluid, nx, ny, 0, 0, d.Dx, cfg.Physics.Rho0, d.Hdx)
}

func buildLattice(cfg *config.Config, opts *isph.Options) (*particle.Collection, error) {
	opts.Fluids = []string{"fluid"}
	opts.Gravity = [3]float64{}
	return particle.NewCollection(fluid(cfg, cfg.Domain.Nx, cfg.Domain.Ny))
}

func buildTank(cfg *config.Config, opts *isph.Options) (*particle.Collection, error) {
	n, err := layers(cfg, opts)
	if err != nil {
		return nil, err
	}
	wall := particle.New("wall", particle.Solid, 0)
	box(wall, cfg.Domain.Nx, cfg.Domain.Ny, n, cfg)

	opts.Fluids = []string{"fluid"}
	opts.Solids = []string{"wall"}
	return particle.NewCollection(fluid(cfg, cfg.Domain.Nx, cfg.Domain.Ny), wall)
}

func buildDamBreak(cfg *config.Config, opts *isph.Options) (*particle.Collection, error) {
	n, err := layers(cfg, opts)
	if err != nil {
		return nil, err
	}
	nx, ny := cfg.Domain.Nx, cfg.Domain.Ny
	wall := particle.New("wall", particle.Solid, 0)
	box(wall, 4*nx, 2*ny, n, cfg)

	opts.Fluids = []string{"fluid"}
	opts.Solids = []string{"wall"}
	return particle.NewCollection(fluid(cfg, nx, ny), wall)
}

// buildCavity closes the fluid square with a fixed wall and a lid of n
// layers sliding in +x at the lid velocity.
func buildCavity(cfg *config.Config, opts *isph.Options) (*particle.Collection, error) {
	n, err := layers(cfg, opts)
	if err != nil {
		return nil, err
	}
	nx, ny := cfg.Domain.Nx, cfg.Domain.Ny
	wall := particle.New("wall", particle.Solid, 0)
	box(wall, nx, ny, n, cfg)

	d := cfg.Domain
	lid := particle.Lattice("lid", particle.Solid, nx+2*n, n, -float64(n)*d.Dx, float64(ny)*d.Dx, d.Dx, cfg.Physics.Rho0, d.Hdx)
	for i := range lid.U {
		lid.U[i] = cfg.Physics.LidVelocity
	}

	opts.Fluids = []string{"fluid"}
	opts.Solids = []string{"wall", "lid"}
	return particle.NewCollection(fluid(cfg, nx, ny), wall, lid)
}

// buildChannel puts the fluid between n-layer plates below and above it.
// The plates run n spacings past both ends so that fluid mirrored across
// the periodic ends still sees them.
func buildChannel(cfg *config.Config, opts *isph.Options) (*particle.Collection, error) {
	if !opts.HasGhosts {
		return nil, fmt.Errorf("channel is periodic and needs has_ghosts")
	}
	k, err := kernel.New(opts.Kernel, opts.Dim)
	if err != nil {
		return nil, err
	}
	n, err := layers(cfg, opts)
	if err != nil {
		return nil, err
	}
	d := cfg.Domain
	x0 := -float64(n) * d.Dx
	lower := particle.Lattice("lower", particle.Solid, d.Nx+2*n, n, x0, x0, d.Dx, cfg.Physics.Rho0, d.Hdx)
	upper := particle.Lattice("upper", particle.Solid, d.Nx+2*n, n, x0, float64(d.Ny)*d.Dx, d.Dx, cfg.Physics.Rho0, d.Hdx)

	opts.Fluids = []string{"fluid"}
	opts.Solids = []string{"lower", "upper"}
	opts.Gravity = [3]float64{cfg.Physics.BodyForce, 0, 0}
	opts.Periodic = &particle.Periodic{
		Axis: 0,
		Min:  0,
		Max:  float64(d.Nx) * d.Dx,
		Band: k.RadiusScale() * d.Hdx * d.Dx,
	}
	return particle.NewCollection(fluid(cfg, d.Nx, d.Ny), lower, upper)
}
