package isph_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/isph/internal/isph"
	"github.com/san-kum/isph/internal/particle"
	"github.com/san-kum/isph/internal/sph"
)

var _ = Describe("PPESolve", func() {
	var (
		set *particle.Set
		ppe *isph.PPESolve
		env = &sph.Env{Dt: 1e-3, Dim: 2}
	)

	BeforeEach(func() {
		set = particle.New("fluid", particle.Fluid, 2)
		set.M[0], set.M[1] = 1, 1
		ppe = isph.NewPPESolve("fluid", rho0, 0.8, 0.5, 0.05)
	})

	It("zeroes pressure below the density cutoff whatever the system says", func() {
		set.Vol[0] = 500
		set.Rhs[0], set.Diag[0], set.Odiag[0] = 1e6, -1, 3
		set.P[0], set.Pk[0] = 42, 42

		ppe.PostLoop(set, 0, env)

		Expect(set.P[0]).To(Equal(0.0))
		Expect(set.Pk[0]).To(Equal(0.0))
		Expect(set.Pdiff[0]).To(Equal(42.0))
	})

	It("blends the Jacobi update with the previous iterate", func() {
		set.Vol[0] = 1000
		set.Rhs[0], set.Odiag[0], set.Diag[0] = 10, 2, -4
		set.P[0], set.Pk[0] = 6, 6

		ppe.PostLoop(set, 0, env)

		// pnew = (10-2)/-4 = -2, p = 0.5*-2 + 0.5*6
		Expect(set.P[0]).To(Equal(2.0))
		Expect(set.Pk[0]).To(Equal(set.P[0]))
		Expect(set.Pdiff[0]).To(Equal(4.0))
	})

	It("treats a vanishing diagonal as a zero update", func() {
		set.Vol[0] = 1000
		set.Rhs[0], set.Diag[0] = 5, 1e-40
		set.P[0], set.Pk[0] = 8, 8

		ppe.PostLoop(set, 0, env)

		Expect(set.P[0]).To(Equal(4.0))
		Expect(math.IsNaN(set.P[0])).To(BeFalse())
	})

	DescribeTable("convergence reduce",
		func(p, pdiff []float64, converged bool, residual float64) {
			copy(set.P, p)
			copy(set.Pdiff, pdiff)
			ppe.Reduce(set, env)
			Expect(ppe.Converged()).To(Equal(converged))
			Expect(ppe.Residual()).To(Equal(residual))
		},
		Entry("uses the mean magnitude, not the magnitude of the mean",
			[]float64{2, -2}, []float64{0.05, 0.05}, true, 0.025),
		Entry("above tolerance", []float64{1, 1}, []float64{0.5, 0.5}, false, 0.5),
		Entry("quiescent field is converged", []float64{0, 0}, []float64{0, 0}, true, 0.0),
		Entry("change over a zero field is not", []float64{0, 0}, []float64{1, 0}, false, math.Inf(1)),
	)

	It("ignores ghosts in the reduce", func() {
		g, err := set.AddGhost(0, 1, 0, 0)
		Expect(err).NotTo(HaveOccurred())
		set.P[0], set.P[1] = 1, 1
		set.Pdiff[g] = 100

		ppe.Reduce(set, env)

		Expect(ppe.Converged()).To(BeTrue())
	})
})

var _ = Describe("Pressure solve on a walled tank", func() {
	It("converges with a decreasing residual history", func() {
		coll := walledTank(8, 6)
		fluid := coll.Get("fluid")
		xc := 3.5 * dx
		for i := range fluid.X {
			fluid.U[i] = fluid.X[i] - xc
			fluid.V[i] = fluid.Y[i]
		}
		integ := build(coll, tankOptions())

		rep, err := integ.Step(0, 1e-4)
		Expect(err).NotTo(HaveOccurred())

		Expect(rep.Converged()).To(BeTrue())
		Expect(rep.Sweeps()).To(BeNumerically(">=", 2))
		Expect(rep.Sweeps()).To(BeNumerically("<", 100))
		h := rep.PPE.History
		Expect(h).To(HaveLen(rep.Sweeps()))
		Expect(h[len(h)-1]).To(BeNumerically("<", h[1]))
		for k := 2; k < len(h); k++ {
			Expect(h[k]).To(BeNumerically("<=", h[k-1]), "sweep %d", k)
		}
		Expect(fluid.IsValid()).To(BeTrue())
	})

	It("accepts the last iterate when the sweep limit is hit", func() {
		coll := walledTank(8, 6)
		fluid := coll.Get("fluid")
		for i := range fluid.X {
			fluid.V[i] = fluid.Y[i]
		}
		opts := tankOptions()
		opts.Tolerance = 1e-12
		opts.MaxIterations = 3
		integ := build(coll, opts)

		rep, err := integ.Step(0, 1e-4)
		Expect(err).NotTo(HaveOccurred())
		Expect(rep.Converged()).To(BeFalse())
		Expect(rep.Sweeps()).To(Equal(3))
		Expect(fluid.IsValid()).To(BeTrue())
	})
})
