// Package sph evaluates neighbourhood sums over particle sets.
//
// An [Equation] is bound to one destination set and a list of source sets
// and implements any subset of the capability interfaces:
//
//   - [Initializer]: runs once per destination particle before the loop
//   - [Looper]: runs once per (destination, neighbour) [Pair]
//   - [PostLooper]: runs once per destination particle after the loop
//   - [Reducer]: runs once per destination set after the group
//   - [Converger]: votes on whether an iterated group may stop
//
// Capabilities are resolved once when the [Evaluator] compiles its stages;
// nothing is looked up by name while a group runs.
//
// # Example
//
//	g := sph.NewGroup(isph.NewSummationDensity("fluid", "fluid", "wall"))
//	ev, _ := sph.NewEvaluator(coll, loc, kern, 2, sph.Stage{g})
//	stats, _ := ev.Evaluate(0, t, dt)
//
// # Thread Safety
//
// Destination particles are processed in parallel. An equation may write
// only to fields of its own destination particle and must read neighbour
// state that no equation in the same group writes. Results do not depend
// on the worker count.
package sph
