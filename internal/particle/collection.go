package particle

import "fmt"

// Collection is an ordered set of particle sets addressed by name.
type Collection struct {
	sets  []*Set
	index map[string]int
}

func NewCollection(sets ...*Set) (*Collection, error) {
	c := &Collection{index: make(map[string]int)}
	for _, s := range sets {
		if err := c.Add(s); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collection) Add(s *Set) error {
	if s == nil {
		return fmt.Errorf("particle: nil set")
	}
	if _, ok := c.index[s.Name]; ok {
		return fmt.Errorf("particle: duplicate set %q", s.Name)
	}
	c.index[s.Name] = len(c.sets)
	c.sets = append(c.sets, s)
	return nil
}

// Get returns the named set or nil.
func (c *Collection) Get(name string) *Set {
	i, ok := c.index[name]
	if !ok {
		return nil
	}
	return c.sets[i]
}

func (c *Collection) Sets() []*Set { return c.sets }

// Names lists set names in insertion order.
func (c *Collection) Names() []string {
	out := make([]string, len(c.sets))
	for i, s := range c.sets {
		out[i] = s.Name
	}
	return out
}

// ByRole returns the names of sets carrying the role.
func (c *Collection) ByRole(r Role) []string {
	var out []string
	for _, s := range c.sets {
		if s.Role == r {
			out = append(out, s.Name)
		}
	}
	return out
}

// MaxH is the largest smoothing length over all particles.
func (c *Collection) MaxH() float64 {
	hmax := 0.0
	for _, s := range c.sets {
		for _, h := range s.H {
			if h > hmax {
				hmax = h
			}
		}
	}
	return hmax
}

// Lattice fills a set with an nx*ny grid of particles spaced dx apart,
// starting at (x0,y0). Mass is rho*dx^2 and h is hdx*dx.
func Lattice(name string, role Role, nx, ny int, x0, y0, dx, rho, hdx float64) *Set {
	s := New(name, role, 0)
	m := rho * dx * dx
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			s.Append(x0+float64(i)*dx, y0+float64(j)*dx, 0, m, hdx*dx, rho)
		}
	}
	return s
}
