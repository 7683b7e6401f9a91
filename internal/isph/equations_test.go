package isph_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/isph/internal/isph"
	"github.com/san-kum/isph/internal/kernel"
	"github.com/san-kum/isph/internal/particle"
	"github.com/san-kum/isph/internal/sph"
)

// netForce returns |sum m a| and sum |m a| over the set.
func netForce(s *particle.Set) (net, total float64) {
	var fx, fy float64
	for i := 0; i < s.Len(); i++ {
		fx += s.M[i] * s.Au[i]
		fy += s.M[i] * s.Av[i]
		total += s.M[i] * math.Hypot(s.Au[i], s.Av[i])
	}
	return math.Hypot(fx, fy), total
}

var _ = Describe("Pressure gradient of one pair", func() {
	var (
		s   *particle.Set
		env *sph.Env
	)

	BeforeEach(func() {
		s = particle.New("fluid", particle.Fluid, 0)
		s.Append(0, 0, 0, 10, dx, 1000)
		s.Append(0.6*dx, 0.3*dx, 0, 12, dx, 1020)
		s.P[0], s.P[1] = 50, 200
		env = &sph.Env{Dt: 1e-3, Dim: 2, Kernel: kernel.NewQuinticSpline(2)}
	})

	// apply runs eq for i against j only.
	apply := func(eq interface {
		Initialize(*particle.Set, int, *sph.Env)
		Loop(d, s *particle.Set, p *sph.Pair, env *sph.Env)
	}, i, j int) {
		p := sph.NewPair(s, i, s, j, env.Kernel)
		Expect(p.R).To(BeNumerically(">", 0))
		eq.Initialize(s, i, env)
		eq.Loop(s, s, &p, env)
	}

	It("gives equal and opposite forces in the symmetric form", func() {
		eq := isph.NewPressureGradientSymmetric("fluid", "fluid")
		apply(eq, 0, 1)
		apply(eq, 1, 0)

		Expect(math.Hypot(s.Au[0], s.Av[0])).To(BeNumerically(">", 0))
		Expect(s.M[0]*s.Au[0] + s.M[1]*s.Au[1]).To(BeNumerically("~", 0, 1e-12))
		Expect(s.M[0]*s.Av[0] + s.M[1]*s.Av[1]).To(BeNumerically("~", 0, 1e-12))
		// positive pressure pushes i away from j
		Expect(s.Au[0]).To(BeNumerically("<", 0))
	})

	It("gives unbalanced forces in the non-symmetric form", func() {
		eq := isph.NewPressureGradient("fluid", "fluid")
		apply(eq, 0, 1)
		apply(eq, 1, 0)

		Expect(math.Abs(s.M[0]*s.Au[0] + s.M[1]*s.Au[1])).To(BeNumerically(">", 1e-6))
	})
})

var _ = Describe("Pressure gradient", func() {
	var (
		coll  *particle.Collection
		fluid *particle.Set
	)

	BeforeEach(func() {
		fluid = particle.Lattice("fluid", particle.Fluid, 10, 10, 0, 0, dx, rho0, 1.0)
		for i := range fluid.P {
			fluid.P[i] = 1000 * (1 + fluid.Y[i])
			fluid.Au[i] = 123
		}
		var err error
		coll, err = particle.NewCollection(fluid)
		Expect(err).NotTo(HaveOccurred())
	})

	It("conserves momentum in the symmetric form", func() {
		evaluate(coll, 1e-3, sph.NewGroup(isph.NewPressureGradientSymmetric("fluid", "fluid")))

		net, total := netForce(fluid)
		Expect(total).To(BeNumerically(">", 0))
		Expect(net / total).To(BeNumerically("<", 1e-10))
	})

	It("does not conserve momentum in the non-symmetric form", func() {
		evaluate(coll, 1e-3, sph.NewGroup(isph.NewPressureGradient("fluid", "fluid")))

		net, total := netForce(fluid)
		Expect(net / total).To(BeNumerically(">", 0.1))
		for i := range fluid.Av {
			Expect(fluid.Av[i]).To(BeNumerically("<", 0))
		}
	})
})

var _ = Describe("Source terms", func() {
	var (
		coll  *particle.Collection
		fluid *particle.Set
		wall  *particle.Set
	)

	BeforeEach(func() {
		coll = walledTank(6, 4)
		fluid, wall = coll.Get("fluid"), coll.Get("wall")
	})

	It("gives no divergence for rigid translation", func() {
		for i := range fluid.U {
			fluid.U[i], fluid.V[i] = 0.3, -0.2
		}
		coll, err := particle.NewCollection(fluid)
		Expect(err).NotTo(HaveOccurred())
		evaluate(coll, 1e-3, sph.NewGroup(isph.NewVelocityDivergence("fluid", "fluid")))

		for i := range fluid.Rhs {
			Expect(fluid.Rhs[i]).To(BeNumerically("~", 0, 1e-9))
		}
	})

	It("seeds pk from p when computing the divergence", func() {
		fluid.P[2] = 17
		evaluate(coll, 1e-3, sph.NewGroup(isph.NewVelocityDivergence("fluid", "fluid", "wall")))
		Expect(fluid.Pk[2]).To(Equal(17.0))
	})

	It("uses the wall velocity of no-slip sources only", func() {
		for i := range wall.Ug {
			wall.Ug[i] = 5
		}
		evaluate(coll, 1e-3, sph.NewGroup(isph.NewVelocityDivergence("fluid", "wall")))
		withWall := append([]float64(nil), fluid.Rhs...)

		wall.Role = particle.InviscidSolid
		evaluate(coll, 1e-3, sph.NewGroup(isph.NewVelocityDivergence("fluid", "wall")))

		Expect(withWall[0]).NotTo(Equal(0.0))
		for i := range fluid.Rhs {
			Expect(fluid.Rhs[i]).To(Equal(0.0))
		}
	})

	It("computes the density error source", func() {
		fluid.Rho[0] = 990
		evaluate(coll, 0.01, sph.NewGroup(isph.NewDensityInvariance("fluid", rho0)))
		Expect(fluid.Rhs[0]).To(BeNumerically("~", 10/(1e-4*rho0), 1e-9))
	})

	It("sums number density and density together", func() {
		evaluate(coll, 1e-3,
			sph.NewGroup(isph.NewVolumeSummation("fluid", "fluid", "wall")),
		)
		vol := append([]float64(nil), fluid.Vol...)

		evaluate(coll, 1e-3, sph.NewNonRealGroup(isph.NewSummationDensity("fluid", "fluid", "wall")))
		for i := range fluid.Vol {
			Expect(fluid.Vol[i]).To(Equal(vol[i]))
			Expect(fluid.Rho[i]).To(BeNumerically("~", fluid.M[i]*vol[i], 1e-9))
		}
		// An interior particle sees a full kernel.
		Expect(fluid.Vol[1]*fluid.M[1] / rho0).To(BeNumerically("~", 1, 1e-3))
	})

	It("adds the body force after the loop", func() {
		evaluate(coll, 1e-3, sph.NewGroup(
			isph.NewLaminarViscosity("fluid", 0, "fluid"),
			isph.NewBodyForce("fluid", [3]float64{0, -9.81, 0}),
		))
		for i := range fluid.Av {
			Expect(fluid.Av[i]).To(Equal(-9.81))
			Expect(fluid.Au[i]).To(Equal(0.0))
		}
	})
})

var _ = Describe("Viscous terms", func() {
	It("damps a shear flow towards its neighbours", func() {
		fluid := particle.Lattice("fluid", particle.Fluid, 12, 12, 0, 0, dx, rho0, 1.0)
		for i := range fluid.U {
			if fluid.Y[i] > 0.55 {
				fluid.U[i] = 1
			}
		}
		coll, err := particle.NewCollection(fluid)
		Expect(err).NotTo(HaveOccurred())

		for _, eq := range []sph.Equation{
			isph.NewLaminarViscosity("fluid", 0.01, "fluid"),
			isph.NewViscosityTVF("fluid", 0.01, "fluid"),
		} {
			evaluate(coll, 1e-3, sph.NewGroup(eq))
			// row 6 moves and is slowed; row 5 rests and is dragged
			Expect(fluid.Au[6*12+5]).To(BeNumerically("<", 0))
			Expect(fluid.Au[5*12+5]).To(BeNumerically(">", 0))
		}
	})

	It("only acts on approaching pairs with artificial viscosity", func() {
		fluid := particle.Lattice("fluid", particle.Fluid, 2, 1, 0, 0, dx, rho0, 1.0)
		coll, err := particle.NewCollection(fluid)
		Expect(err).NotTo(HaveOccurred())
		group := func() *sph.Group {
			return sph.NewGroup(
				isph.NewLaminarViscosity("fluid", 0, "fluid"),
				isph.NewArtificialViscosity("fluid", 0.1, 10, "fluid"),
			)
		}

		fluid.U[0], fluid.U[1] = 1, -1
		evaluate(coll, 1e-3, group())
		Expect(fluid.Au[0]).To(BeNumerically("<", 0))
		Expect(fluid.Au[1]).To(BeNumerically(">", 0))

		fluid.U[0], fluid.U[1] = -1, 1
		evaluate(coll, 1e-3, group())
		Expect(fluid.Au[0]).To(Equal(0.0))
		Expect(fluid.Au[1]).To(Equal(0.0))
	})
})

var _ = Describe("GTVF", func() {
	It("caps the background pressure and pushes particles apart", func() {
		fluid := particle.Lattice("fluid", particle.Fluid, 2, 1, 0, 0, dx, rho0, 1.0)
		fluid.P[0], fluid.P[1] = 1e6, 1
		coll, err := particle.NewCollection(fluid)
		Expect(err).NotTo(HaveOccurred())

		evaluate(coll, 1e-3, sph.NewGroup(isph.NewGTVFAcceleration("fluid", 100, 0.5, "fluid")))

		Expect(fluid.P0[0]).To(Equal(100.0))
		Expect(fluid.P0[1]).To(Equal(10.0))
		Expect(fluid.Auhat[0]).To(BeNumerically("<", 0))
		Expect(fluid.Auhat[1]).To(BeNumerically(">", 0))
	})

	It("has no artificial stress when uhat equals u", func() {
		fluid := particle.Lattice("fluid", particle.Fluid, 4, 4, 0, 0, dx, rho0, 1.0)
		for i := range fluid.U {
			fluid.U[i], fluid.Uhat[i] = fluid.Y[i], fluid.Y[i]
		}
		coll, err := particle.NewCollection(fluid)
		Expect(err).NotTo(HaveOccurred())

		evaluate(coll, 1e-3, sph.NewGroup(
			isph.NewLaminarViscosity("fluid", 0, "fluid"),
			isph.NewArtificialStress("fluid", "fluid"),
		))
		for i := range fluid.Au {
			Expect(fluid.Au[i]).To(Equal(0.0))
		}
	})
})
