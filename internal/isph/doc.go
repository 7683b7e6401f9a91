// Package isph implements an incompressible SPH solver based on pressure
// projection.
//
// Every timestep the pressure is found by a damped Jacobi relaxation of
// the pressure Poisson equation, assembled from neighbourhood sums, and
// the resulting pressure gradient corrects the predicted velocity:
//
//   - [Scheme]: builds the ordered equation groups of both stages
//   - [PPESolve]: one relaxation sweep plus the convergence reduce
//   - [SolidPressure]: extrapolates fluid pressure onto walls
//   - [Integrator]: the two-stage predict/evaluate/correct timestep
//
// # Variants
//
// CR (Cummins and Rudman) takes the PPE source from the velocity
// divergence. DI takes it from the density error of a summation density.
// DFDI computes the summation density but keeps the divergence source. DF
// behaves like CR. GTVF can be combined with any variant and advects
// particles with a transport velocity.
//
// # Example
//
//	opts := isph.DefaultOptions()
//	opts.Fluids, opts.Solids = []string{"fluid"}, []string{"wall"}
//	opts.Rho0, opts.C0, opts.Nu = 1000, 10, 0.01
//	scheme, err := isph.NewScheme(opts)
//	integ, err := scheme.Build(coll, logrus.StandardLogger())
//	report, err := integ.Step(t, dt)
//
// # Convergence
//
// A PPE solve that does not converge within MaxIterations is not an
// error. The last iterate is accepted and [StepReport] says so.
package isph
