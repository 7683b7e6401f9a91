package isph_test

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/isph/internal/isph"
	"github.com/san-kum/isph/internal/particle"
)

var _ = Describe("Steppers", func() {
	var s *particle.Set

	BeforeEach(func() {
		s = particle.New("fluid", particle.Fluid, 1)
		s.X[0], s.U[0], s.Au[0] = 1, 2, 4
		s.Uhat[0], s.Auhat[0] = 3, 10
	})

	It("moves before accelerating in CR", func() {
		st := isph.StepCR{}
		st.Initialize(s, 0)
		st.Stage1(s, 0, 0.5)
		Expect(s.X[0]).To(Equal(2.0))
		Expect(s.U[0]).To(Equal(4.0))
	})

	It("accelerates before moving in DI", func() {
		st := isph.StepDI{}
		st.Initialize(s, 0)
		st.Stage1(s, 0, 0.5)
		Expect(s.U[0]).To(Equal(4.0))
		Expect(s.X[0]).To(Equal(3.0))
	})

	It("advects with the transport velocity in GTVF", func() {
		st := isph.StepGTVF{}
		st.Initialize(s, 0)
		Expect(s.Uhat0[0]).To(Equal(3.0))
		st.Stage1(s, 0, 0.5)
		Expect(s.X[0]).To(Equal(2.5))

		s.Au[0] = 0
		st.Stage2(s, 0, 0.5)
		// uhat = u + dt auhat = 4 + 5
		Expect(s.Uhat[0]).To(Equal(9.0))
		Expect(s.X[0]).To(Equal(1 + 0.25*(9+3)))
		Expect(s.DtCFL[0]).To(Equal(8.0))
	})

	It("corrects with the trapezoidal rule", func() {
		st := isph.StepCR{}
		st.Initialize(s, 0)
		st.Stage1(s, 0, 0.5)
		s.Au[0] = -2
		st.Stage2(s, 0, 0.5)

		Expect(s.U[0]).To(Equal(3.0))
		Expect(s.X[0]).To(Equal(1 + 0.25*(3+2)))
		Expect(s.Vmag[0]).To(Equal(3.0))
		Expect(s.DtCFL[0]).To(Equal(6.0))
		// (u - u0)/dt = 2
		Expect(s.DtForce[0]).To(Equal(8.0))
	})

	It("picks the stepper from the variant", func() {
		Expect(isph.StepperFor(isph.CR, false)).To(Equal(isph.StepCR{}))
		Expect(isph.StepperFor(isph.DF, false)).To(Equal(isph.StepCR{}))
		Expect(isph.StepperFor(isph.DFDI, false)).To(Equal(isph.StepCR{}))
		Expect(isph.StepperFor(isph.DI, false)).To(Equal(isph.StepDI{}))
		Expect(isph.StepperFor(isph.DI, true)).To(Equal(isph.StepGTVF{}))
	})
})

var _ = Describe("Integrator", func() {
	DescribeTable("round trip at rest",
		func(mutate func(*isph.Options)) {
			coll := walledTank(8, 6)
			fluid := coll.Get("fluid")
			opts := tankOptions()
			mutate(&opts)
			integ := build(coll, opts)
			before := snapshotState(fluid)

			rep, err := integ.Step(0, 1e-3)
			Expect(err).NotTo(HaveOccurred())

			Expect(snapshotState(fluid)).To(Equal(before))
			Expect(rep.Converged()).To(BeTrue())
			Expect(rep.Sweeps()).To(Equal(2))
		},
		Entry("CR", func(o *isph.Options) {}),
		Entry("DF", func(o *isph.Options) { o.Variant = isph.DF }),
		Entry("symmetric", func(o *isph.Options) { o.Symmetric = true }),
		Entry("viscous", func(o *isph.Options) { o.Nu = 0.01; o.Alpha = 0.1 }),
		Entry("GTVF", func(o *isph.Options) { o.GTVF = true; o.Pref = 100 }),
		Entry("ghosts", func(o *isph.Options) { o.HasGhosts = true }),
	)

	It("leaves a 2xN lattice at rest", func() {
		fluid := particle.Lattice("fluid", particle.Fluid, 20, 2, 0, 0, dx, rho0, 1.0)
		coll, err := particle.NewCollection(fluid)
		Expect(err).NotTo(HaveOccurred())
		opts := isph.DefaultOptions()
		opts.Fluids = []string{"fluid"}
		opts.Rho0, opts.C0, opts.Nu = rho0, 10, 0
		integ := build(coll, opts)
		before := snapshotState(fluid)

		rep, err := integ.Step(0, 1e-3)
		Expect(err).NotTo(HaveOccurred())

		after := snapshotState(fluid)
		for f := range before {
			for i := range before[f] {
				Expect(after[f][i]).To(BeNumerically("~", before[f][i], 1e-10))
			}
		}
		Expect(rep.Converged()).To(BeTrue())
		Expect(rep.Sweeps()).To(BeNumerically("<", 10))
	})

	DescribeTable("stays finite under gravity",
		func(mutate func(*isph.Options)) {
			coll := walledTank(8, 6)
			fluid := coll.Get("fluid")
			opts := tankOptions()
			opts.Gravity = [3]float64{0, -9.81, 0}
			opts.Nu = 1e-3
			mutate(&opts)
			integ := build(coll, opts)

			for k := 0; k < 3; k++ {
				_, err := integ.Step(float64(k)*1e-4, 1e-4)
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(fluid.IsValid()).To(BeTrue())
			cfl, accel, h := integ.Estimates()
			Expect(cfl).To(BeNumerically(">", 0))
			Expect(accel).To(BeNumerically(">", 0))
			Expect(h).To(Equal(dx))
		},
		Entry("CR", func(o *isph.Options) {}),
		Entry("DI", func(o *isph.Options) { o.Variant = isph.DI }),
		Entry("DFDI", func(o *isph.Options) { o.Variant = isph.DFDI }),
		Entry("GTVF", func(o *isph.Options) { o.GTVF = true; o.Pref = 1000 }),
		Entry("free-slip walls", func(o *isph.Options) {
			o.Solids, o.InviscidSolids = nil, []string{"wall"}
		}),
	)

	It("holds sets without a stepper fixed", func() {
		coll := walledTank(4, 3)
		wall := coll.Get("wall")
		wall.U[0] = 1
		integ := build(coll, tankOptions())
		x := wall.X[0]

		_, err := integ.Step(0, 1e-3)
		Expect(err).NotTo(HaveOccurred())
		Expect(wall.X[0]).To(Equal(x))
		Expect(integ.Sets()).To(HaveLen(1))
	})
})

// momentum returns the total linear momentum of s and the sum of m|u|.
func momentum(s *particle.Set) (p [2]float64, scale float64) {
	for i := 0; i < s.Len(); i++ {
		p[0] += s.M[i] * s.U[i]
		p[1] += s.M[i] * s.V[i]
		scale += s.M[i] * math.Hypot(s.U[i], s.V[i])
	}
	return p, scale
}

var _ = Describe("Momentum over a timestep", func() {
	var coll *particle.Collection

	BeforeEach(func() {
		rng := rand.New(rand.NewSource(7))
		fluid := particle.Lattice("fluid", particle.Fluid, 12, 12, 0, 0, dx, rho0, 1.0)
		for i := 0; i < fluid.Len(); i++ {
			fluid.X[i] += 0.1 * dx * (2*rng.Float64() - 1)
			fluid.Y[i] += 0.1 * dx * (2*rng.Float64() - 1)
			fluid.U[i] = 2*rng.Float64() - 1
			fluid.V[i] = 2*rng.Float64() - 1
		}
		var err error
		coll, err = particle.NewCollection(fluid)
		Expect(err).NotTo(HaveOccurred())
	})

	step := func(symmetric bool) (drift, scale float64) {
		opts := isph.DefaultOptions()
		opts.Fluids = []string{"fluid"}
		opts.Rho0, opts.C0, opts.Nu = rho0, 10, 0
		opts.Symmetric = symmetric
		integ := build(coll, opts)

		fluid := coll.Get("fluid")
		p0, scale := momentum(fluid)
		rep, err := integ.Step(0, 1e-3)
		Expect(err).NotTo(HaveOccurred())
		Expect(rep.Converged()).To(BeTrue())
		Expect(fluid.IsValid()).To(BeTrue())

		p1, _ := momentum(fluid)
		return math.Hypot(p1[0]-p0[0], p1[1]-p0[1]), scale
	}

	It("is conserved by the symmetric pressure gradient", func() {
		drift, scale := step(true)
		Expect(scale).To(BeNumerically(">", 0))
		Expect(drift / scale).To(BeNumerically("<", 1e-10))
	})

	It("drifts under the non-symmetric pressure gradient", func() {
		drift, scale := step(false)
		Expect(drift / scale).To(BeNumerically(">", 1e-6))
	})
})

var _ = Describe("Periodic domain", func() {
	It("wraps fluid that leaves one end back in at the other", func() {
		fluid := particle.Lattice("fluid", particle.Fluid, 10, 4, 0, 0, dx, rho0, 1.0)
		for i := range fluid.U {
			fluid.U[i] = 1
		}
		coll, err := particle.NewCollection(fluid)
		Expect(err).NotTo(HaveOccurred())

		length := 10 * dx
		opts := isph.DefaultOptions()
		opts.Fluids = []string{"fluid"}
		opts.Rho0, opts.C0 = rho0, 10
		opts.HasGhosts = true
		opts.Periodic = &particle.Periodic{Axis: 0, Min: 0, Max: length, Band: 3 * dx}
		integ := build(coll, opts)
		Expect(fluid.HasGhosts()).To(BeTrue())

		_, err = integ.Step(0, 1.5*dx)
		Expect(err).NotTo(HaveOccurred())

		Expect(fluid.NumReal()).To(Equal(40))
		minX := math.Inf(1)
		for i := 0; i < fluid.Len(); i++ {
			if !fluid.IsReal(i) {
				g := fluid.Gid[i]
				Expect(math.Abs(fluid.X[i] - fluid.X[g])).To(BeNumerically("~", length, 1e-12))
				continue
			}
			Expect(fluid.X[i]).To(BeNumerically(">=", 0))
			Expect(fluid.X[i]).To(BeNumerically("<", length))
			Expect(fluid.U[i]).To(BeNumerically("~", 1, 1e-9))
			minX = math.Min(minX, fluid.X[i])
		}
		// the last column moved from 0.9 to 1.05 and came back in at 0.05
		Expect(minX).To(BeNumerically("~", 0.5*dx, 1e-9))
	})
})
