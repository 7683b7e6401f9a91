package sph

import "github.com/san-kum/isph/internal/particle"

// Equation is bound to one destination set and reads from source sets.
type Equation interface {
	Dest() string
	Sources() []string
}

type Initializer interface {
	Initialize(d *particle.Set, i int, env *Env)
}

// Looper is called for every neighbour j of destination i in source set s.
type Looper interface {
	Loop(d, s *particle.Set, p *Pair, env *Env)
}

type PostLooper interface {
	PostLoop(d *particle.Set, i int, env *Env)
}

// Reducer runs once per destination set after the whole group, on the
// calling goroutine.
type Reducer interface {
	Reduce(d *particle.Set, env *Env)
}

// Converger votes on the termination of an enclosing iterated group.
type Converger interface {
	Converged() bool
}

// Residualer exposes the convergence measure of the last Reduce so that
// iterated groups can record a history.
type Residualer interface {
	Residual() float64
}

// Accumulator lists the destination fields an equation zeroes in
// Initialize and sums into. No two equations in a group may share one.
type Accumulator interface {
	Accumulates() []string
}

// Binding implements the Dest/Sources half of Equation and is meant to
// be embedded.
type Binding struct {
	Dst  string
	Srcs []string
}

// Bind binds an equation to dest reading from sources.
func Bind(dest string, sources ...string) Binding {
	s := make([]string, len(sources))
	copy(s, sources)
	return Binding{Dst: dest, Srcs: s}
}

func (b Binding) Dest() string      { return b.Dst }
func (b Binding) Sources() []string { return b.Srcs }
