package sph

import (
	"fmt"
	"math"

	"github.com/san-kum/isph/internal/kernel"
	"github.com/san-kum/isph/internal/nnps"
	"github.com/san-kum/isph/internal/particle"
)

const minChunk = 64

type boundEq struct {
	eq   Equation
	init Initializer
	post PostLooper
	red  Reducer
	conv Converger
	res  Residualer
}

// block is the work of one group on one destination set.
type block struct {
	dst     *particle.Set
	eqs     []*boundEq
	srcs    []*particle.Set
	loopers [][]Looper
}

type compiledGroup struct {
	name     string
	real     bool
	iterate  bool
	min, max int
	blocks   []*block
	subs     []*compiledGroup
}

// Evaluator runs compiled stages over a particle collection.
type Evaluator struct {
	coll    *particle.Collection
	loc     nnps.Locator
	kern    kernel.Kernel
	dim     int
	workers int
	stages  [][]*compiledGroup
}

// NewEvaluator compiles stages against coll. Equations are checked for
// unknown sets and accumulator conflicts here, not at run time.
func NewEvaluator(coll *particle.Collection, loc nnps.Locator, kern kernel.Kernel, dim int, stages ...Stage) (*Evaluator, error) {
	e := &Evaluator{
		coll:    coll,
		loc:     loc,
		kern:    kern,
		dim:     dim,
		workers: DefaultWorkers,
	}
	for si, st := range stages {
		var groups []*compiledGroup
		for gi, g := range st {
			if g == nil {
				continue
			}
			if g.Name == "" {
				g.Name = fmt.Sprintf("stage%d/group%d", si, gi)
			}
			cg, err := e.compile(g)
			if err != nil {
				return nil, err
			}
			groups = append(groups, cg)
		}
		e.stages = append(e.stages, groups)
	}
	return e, nil
}

// SetWorkers sets the number of goroutines used per phase; n < 1 means 1.
func (e *Evaluator) SetWorkers(n int) { e.workers = n }

func (e *Evaluator) NumStages() int { return len(e.stages) }

func (e *Evaluator) Collection() *particle.Collection { return e.coll }

func (e *Evaluator) Kernel() kernel.Kernel { return e.kern }

func (e *Evaluator) compile(g *Group) (*compiledGroup, error) {
	if len(g.Equations) > 0 && len(g.Groups) > 0 {
		return nil, &CompileError{Group: g.Name, Wrapped: ErrMixedGroup}
	}
	cg := &compiledGroup{name: g.Name, real: g.Real, iterate: g.Iterate}
	if g.Iterate {
		cg.min, cg.max = g.MinIterations, g.MaxIterations
		if cg.max < 1 || cg.min < 0 || cg.min > cg.max {
			return nil, &CompileError{
				Group:   g.Name,
				Wrapped: fmt.Errorf("%w: min=%d max=%d", ErrIterationBounds, cg.min, cg.max),
			}
		}
	}
	for k, sub := range g.Groups {
		if sub.Name == "" {
			sub.Name = fmt.Sprintf("%s/%d", g.Name, k)
		}
		csub, err := e.compile(sub)
		if err != nil {
			return nil, err
		}
		cg.subs = append(cg.subs, csub)
	}

	byDest := make(map[*particle.Set]*block)
	claimed := make(map[*particle.Set]map[string]string)
	for _, eq := range g.Equations {
		name := fmt.Sprintf("%T", eq)
		dst := e.coll.Get(eq.Dest())
		if dst == nil {
			return nil, &CompileError{
				Group: g.Name, Equation: name,
				Wrapped: fmt.Errorf("%w: %q", ErrUnknownSet, eq.Dest()),
			}
		}
		var srcs []*particle.Set
		for _, sn := range eq.Sources() {
			s := e.coll.Get(sn)
			if s == nil {
				return nil, &CompileError{
					Group: g.Name, Equation: name,
					Wrapped: fmt.Errorf("%w: %q", ErrUnknownSet, sn),
				}
			}
			srcs = append(srcs, s)
		}

		if acc, ok := eq.(Accumulator); ok {
			if claimed[dst] == nil {
				claimed[dst] = make(map[string]string)
			}
			for _, f := range acc.Accumulates() {
				if owner, dup := claimed[dst][f]; dup {
					return nil, &CompileError{
						Group: g.Name, Equation: name,
						Wrapped: fmt.Errorf("%w: %s.%s already owned by %s", ErrAccumulatorConflict, dst.Name, f, owner),
					}
				}
				claimed[dst][f] = name
			}
		}

		b := byDest[dst]
		if b == nil {
			b = &block{dst: dst}
			byDest[dst] = b
			cg.blocks = append(cg.blocks, b)
		}
		be := &boundEq{eq: eq}
		be.init, _ = eq.(Initializer)
		be.post, _ = eq.(PostLooper)
		be.red, _ = eq.(Reducer)
		be.conv, _ = eq.(Converger)
		be.res, _ = eq.(Residualer)
		b.eqs = append(b.eqs, be)

		if l, ok := eq.(Looper); ok {
			for _, s := range srcs {
				k := indexOf(b.srcs, s)
				if k < 0 {
					b.srcs = append(b.srcs, s)
					b.loopers = append(b.loopers, nil)
					k = len(b.srcs) - 1
				}
				b.loopers[k] = append(b.loopers[k], l)
			}
		}
	}
	return cg, nil
}

func indexOf(sets []*particle.Set, s *particle.Set) int {
	for k, x := range sets {
		if x == s {
			return k
		}
	}
	return -1
}

// Evaluate runs every group of the given stage at time t. It returns the
// statistics of each iterated group in execution order.
func (e *Evaluator) Evaluate(stage int, t, dt float64) ([]IterationStats, error) {
	if stage < 0 || stage >= len(e.stages) {
		return nil, fmt.Errorf("%w: %d", ErrNoStage, stage)
	}
	env := &Env{T: t, Dt: dt, Dim: e.dim, Kernel: e.kern}
	var stats []IterationStats
	for _, cg := range e.stages[stage] {
		e.run(cg, env, &stats)
	}
	return stats, nil
}

// UpdateDomain moves ghosts onto their sources and rebuilds the
// neighbour lists. Call it after positions change.
func (e *Evaluator) UpdateDomain() {
	for _, s := range e.coll.Sets() {
		if s.HasGhosts() {
			s.SyncGhosts()
		}
	}
	e.loc.Update()
}

func (e *Evaluator) run(cg *compiledGroup, env *Env, stats *[]IterationStats) {
	if cg.iterate {
		e.iterate(cg, env, stats)
		return
	}
	for _, sub := range cg.subs {
		e.run(sub, env, stats)
	}
	for _, b := range cg.blocks {
		e.runBlock(b, cg.real, env)
	}
	for _, b := range cg.blocks {
		for _, be := range b.eqs {
			if be.red != nil {
				be.red.Reduce(b.dst, env)
			}
		}
	}
}

func (e *Evaluator) iterate(cg *compiledGroup, env *Env, stats *[]IterationStats) {
	st := IterationStats{Group: cg.name}
	for {
		for _, sub := range cg.subs {
			e.run(sub, env, stats)
		}
		st.Sweeps++
		ok, res := cg.converged()
		st.History = append(st.History, res)
		if ok && st.Sweeps >= cg.min {
			st.Converged = true
			break
		}
		if st.Sweeps >= cg.max {
			break
		}
	}
	*stats = append(*stats, st)
}

// converged is true when every Converger below cg agrees; the residual
// is the largest one reported.
func (cg *compiledGroup) converged() (bool, float64) {
	ok, res := true, 0.0
	for _, b := range cg.blocks {
		for _, be := range b.eqs {
			if be.conv != nil && !be.conv.Converged() {
				ok = false
			}
			if be.res != nil {
				res = math.Max(res, be.res.Residual())
			}
		}
	}
	for _, sub := range cg.subs {
		sok, sres := sub.converged()
		ok = ok && sok
		res = math.Max(res, sres)
	}
	return ok, res
}

func (e *Evaluator) runBlock(b *block, real bool, env *Env) {
	d := b.dst
	n := d.Len()

	parallelFor(e.workers, n, minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			if real && !d.IsReal(i) {
				continue
			}
			for _, be := range b.eqs {
				if be.init != nil {
					be.init.Initialize(d, i, env)
				}
			}
		}
	})

	if len(b.srcs) > 0 {
		parallelFor(e.workers, n, minChunk, func(start, end int) {
			var nbrs []int
			var p Pair
			for i := start; i < end; i++ {
				if real && !d.IsReal(i) {
					continue
				}
				for k, s := range b.srcs {
					nbrs = e.loc.Neighbors(d, i, s, nbrs[:0])
					for _, j := range nbrs {
						p.set(d, i, s, j, e.kern)
						for _, l := range b.loopers[k] {
							l.Loop(d, s, &p, env)
						}
					}
				}
			}
		})
	}

	parallelFor(e.workers, n, minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			if real && !d.IsReal(i) {
				continue
			}
			for _, be := range b.eqs {
				if be.post != nil {
					be.post.PostLoop(d, i, env)
				}
			}
		}
	})
}
