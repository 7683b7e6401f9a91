package isph_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/isph/internal/isph"
	"github.com/san-kum/isph/internal/particle"
	"github.com/san-kum/isph/internal/sph"
)

var _ = Describe("Boundary conditions", func() {
	var (
		coll  *particle.Collection
		fluid *particle.Set
		wall  *particle.Set
		near  int
		far   int
	)

	BeforeEach(func() {
		fluid = particle.Lattice("fluid", particle.Fluid, 10, 4, 0, 0, dx, rho0, 1.0)
		wall = particle.New("wall", particle.Solid, 0)
		near = wall.Append(0.45, -dx, 0, rho0*dx*dx, dx, rho0)
		far = wall.Append(100, 100, 0, rho0*dx*dx, dx, rho0)
		var err error
		coll, err = particle.NewCollection(fluid, wall)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("SolidPressure", func() {
		It("reproduces a uniform fluid pressure", func() {
			for i := range fluid.P {
				fluid.P[i] = 5
			}
			evaluate(coll, 1e-3, sph.NewGroup(isph.NewSolidPressure("wall", [3]float64{}, true, "fluid")))

			Expect(wall.P[near]).To(BeNumerically("~", 5, 1e-12))
			Expect(wall.Pk[near]).To(Equal(wall.P[near]))
		})

		It("leaves unsupported walls at zero", func() {
			wall.P[far], wall.Pk[far] = 7, 7
			for i := range fluid.P {
				fluid.P[i] = 5
			}
			evaluate(coll, 1e-3, sph.NewGroup(isph.NewSolidPressure("wall", [3]float64{0, -9.81, 0}, false, "fluid")))

			Expect(wall.P[far]).To(Equal(0.0))
			Expect(wall.Pk[far]).To(Equal(0.0))
			Expect(wall.Wij[far]).To(Equal(0.0))
		})

		It("adds the hydrostatic head below the fluid", func() {
			evaluate(coll, 1e-3, sph.NewGroup(isph.NewSolidPressure("wall", [3]float64{0, -9.81, 0}, true, "fluid")))

			Expect(wall.P[near]).To(BeNumerically(">", 0))
		})

		It("subtracts the prescribed wall acceleration", func() {
			wall.Av[near] = -9.81
			evaluate(coll, 1e-3, sph.NewGroup(isph.NewSolidPressure("wall", [3]float64{0, -9.81, 0}, true, "fluid")))

			Expect(math.Abs(wall.P[near])).To(BeNumerically("<", 1e-9))
		})

		DescribeTable("hg correction",
			func(hg bool, want float64) {
				for i := range fluid.P {
					fluid.P[i] = -5
				}
				evaluate(coll, 1e-3, sph.NewGroup(isph.NewSolidPressure("wall", [3]float64{}, hg, "fluid")))
				Expect(wall.P[near]).To(BeNumerically("~", want, 1e-12))
			},
			Entry("clamps tension", true, 0.0),
			Entry("keeps tension when disabled", false, -5.0),
		)
	})

	Describe("wall velocity", func() {
		BeforeEach(func() {
			for i := range fluid.U {
				fluid.U[i] = 1
			}
		})

		It("reverses the fluid velocity on no-slip walls", func() {
			evaluate(coll, 1e-3, sph.NewGroup(isph.NewWallVelocity("wall", "fluid")))

			Expect(wall.Uf[near]).To(BeNumerically("~", 1, 1e-12))
			Expect(wall.Ug[near]).To(BeNumerically("~", -1, 1e-12))
			Expect(wall.Ug[far]).To(Equal(0.0))
		})

		It("follows a moving wall", func() {
			wall.U[near] = 2
			evaluate(coll, 1e-3, sph.NewGroup(isph.NewWallVelocity("wall", "fluid")))

			Expect(wall.Ug[near]).To(BeNumerically("~", 3, 1e-12))
		})

		It("copies the fluid velocity on free-slip walls", func() {
			wall.Role = particle.InviscidSolid
			evaluate(coll, 1e-3, sph.NewGroup(isph.NewFreeSlipVelocity("wall", "fluid")))

			Expect(wall.Ug[near]).To(BeNumerically("~", 1, 1e-12))
		})
	})

	Describe("GhostPressure", func() {
		It("mirrors p and pk bit for bit", func() {
			g, err := fluid.AddGhost(3, 0, 10*dx, 0)
			Expect(err).NotTo(HaveOccurred())
			fluid.P[3] = math.Pi * 1e3
			fluid.Pk[3] = math.Nextafter(math.E, 0)

			evaluate(coll, 1e-3, sph.NewNonRealGroup(isph.NewGhostPressure("fluid")))

			Expect(math.Float64bits(fluid.P[g])).To(Equal(math.Float64bits(fluid.P[3])))
			Expect(math.Float64bits(fluid.Pk[g])).To(Equal(math.Float64bits(fluid.Pk[3])))
		})

		It("does not reach ghosts from a real group", func() {
			g, err := fluid.AddGhost(3, 0, 10*dx, 0)
			Expect(err).NotTo(HaveOccurred())
			fluid.P[3] = 9

			evaluate(coll, 1e-3, sph.NewGroup(isph.NewGhostPressure("fluid")))

			Expect(fluid.P[g]).To(Equal(0.0))
		})
	})
})
