package sph

const (
	DefaultMinIterations = 2
	DefaultMaxIterations = 100
)

// Group is an ordered list of equations evaluated together. An iterated
// group instead holds sub-groups that run in order once per sweep until
// every Converger agrees and MinIterations sweeps have run, or until
// MaxIterations.
type Group struct {
	Name      string
	Equations []Equation
	Groups    []*Group

	// Real restricts destinations to non-ghost particles.
	Real bool

	Iterate       bool
	MinIterations int
	MaxIterations int
}

// Stage is the ordered group sequence of one integrator stage.
type Stage []*Group

// NewGroup returns a real group of equations.
func NewGroup(eqs ...Equation) *Group {
	return &Group{Equations: eqs, Real: true}
}

// NewNonRealGroup returns a group that also visits ghost particles.
func NewNonRealGroup(eqs ...Equation) *Group {
	return &Group{Equations: eqs}
}

// NewIteratedGroup returns a group that repeats groups until convergence.
// Nil entries are skipped.
func NewIteratedGroup(groups ...*Group) *Group {
	g := &Group{
		Real:          true,
		Iterate:       true,
		MinIterations: DefaultMinIterations,
		MaxIterations: DefaultMaxIterations,
	}
	for _, sub := range groups {
		if sub != nil {
			g.Groups = append(g.Groups, sub)
		}
	}
	return g
}

// Named sets the group name and returns g.
func (g *Group) Named(name string) *Group {
	g.Name = name
	return g
}

// IterationStats reports how an iterated group terminated.
type IterationStats struct {
	Group     string
	Sweeps    int
	Converged bool
	// History holds the largest residual reported per sweep.
	History []float64
}

// Residual is the last recorded residual, or 0 without history.
func (s IterationStats) Residual() float64 {
	if len(s.History) == 0 {
		return 0
	}
	return s.History[len(s.History)-1]
}
