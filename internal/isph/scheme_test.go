package isph_test

import (
	"errors"
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/isph/internal/isph"
	"github.com/san-kum/isph/internal/particle"
	"github.com/san-kum/isph/internal/sph"
)

type fakeIO struct{}

func (fakeIO) IONames() []string { return []string{"inlet"} }

func (fakeIO) Equations(p isph.InjectionPoint) []*sph.Group {
	return []*sph.Group{sph.NewGroup().Named("io_" + p.String())}
}

func (fakeIO) Steppers() map[string]isph.Stepper {
	return map[string]isph.Stepper{"inlet": isph.StepDI{}}
}

func (fakeIO) AddProperties(s *particle.Set) error {
	_, err := s.AddProperty("xn", 1, 0)
	return err
}

func names(st sph.Stage) []string {
	out := make([]string, len(st))
	for k, g := range st {
		out[k] = g.Name
		if g.Iterate {
			sub := make([]string, len(g.Groups))
			for j, s := range g.Groups {
				sub[j] = s.Name
			}
			out[k] += "{" + strings.Join(sub, ",") + "}"
		}
	}
	return out
}

func eqTypes(g *sph.Group) []string {
	out := make([]string, len(g.Equations))
	for k, eq := range g.Equations {
		out[k] = strings.TrimPrefix(fmt.Sprintf("%T", eq), "*isph.")
	}
	return out
}

func find(st sph.Stage, name string) *sph.Group {
	for _, g := range st {
		if g.Name == name {
			return g
		}
		for _, s := range g.Groups {
			if s.Name == name {
				return s
			}
		}
	}
	return nil
}

func newScheme(mutate func(*isph.Options)) *isph.Scheme {
	opts := tankOptions()
	mutate(&opts)
	s, err := isph.NewScheme(opts)
	Expect(err).NotTo(HaveOccurred())
	return s
}

var _ = Describe("Scheme", func() {
	Describe("stage ordering", func() {
		It("wraps the pressure solve in boundary conditions for CR", func() {
			st := newScheme(func(o *isph.Options) {}).Stages()

			Expect(names(st[0])).To(Equal([]string{"velocity_bc", "viscous"}))
			Expect(names(st[1])).To(Equal([]string{
				"velocity_bc",
				"ppe_source",
				"ppe{pressure_bc,ppe_sweep}",
				"pressure_bc",
				"velocity_bc",
				"pressure_gradient",
			}))
			Expect(eqTypes(find(st[1], "ppe_source"))).To(Equal([]string{"VolumeSummation", "VelocityDivergence"}))
			Expect(eqTypes(find(st[1], "ppe_sweep"))).To(Equal([]string{"PressureCoeff", "PPESolve"}))
			Expect(eqTypes(find(st[1], "pressure_gradient"))).To(Equal([]string{"PressureGradient"}))

			ppe := find(st[1], "ppe")
			Expect(ppe.Iterate).To(BeTrue())
			Expect(ppe.MinIterations).To(Equal(2))
			Expect(ppe.MaxIterations).To(Equal(100))
		})

		It("injects ghosts and inlet/outlet groups at their points", func() {
			st := newScheme(func(o *isph.Options) {
				o.Variant = isph.DI
				o.HasGhosts = true
				o.IOManager = fakeIO{}
			}).Stages()

			Expect(names(st[0])).To(Equal([]string{
				"velocity_bc", "io_pre_viscosity", "summation_density", "viscous",
			}))
			Expect(names(st[1])).To(Equal([]string{
				"velocity_bc",
				"summation_density",
				"ppe_source",
				"ppe{ghost_pressure,io_pre_ppe,pressure_bc,ppe_sweep}",
				"ghost_pressure",
				"io_post_ppe",
				"pressure_bc",
				"io_post_pressure_bc",
				"velocity_bc",
				"pressure_gradient",
			}))
			Expect(find(st[1], "ghost_pressure").Real).To(BeFalse())
			Expect(find(st[1], "summation_density").Real).To(BeFalse())
			Expect(eqTypes(find(st[1], "ppe_source"))).To(Equal([]string{"DensityInvariance", "DensityInvariance"}))
			Expect(eqTypes(find(st[1], "ppe_sweep"))).To(Equal([]string{"PressureCoeff", "PPESolve"}))
		})

		It("omits boundary groups without walls", func() {
			st := newScheme(func(o *isph.Options) { o.Solids = nil }).Stages()
			Expect(names(st[0])).To(Equal([]string{"viscous"}))
			Expect(names(st[1])).To(Equal([]string{"ppe_source", "ppe{ppe_sweep}", "pressure_gradient"}))
		})

		It("keeps the divergence source for DFDI", func() {
			st := newScheme(func(o *isph.Options) { o.Variant = isph.DFDI }).Stages()
			Expect(names(st[1])[1]).To(Equal("summation_density"))
			Expect(eqTypes(find(st[1], "ppe_source"))).To(Equal([]string{"VolumeSummation", "VelocityDivergence"}))
		})

		DescribeTable("viscous group",
			func(mutate func(*isph.Options), want []string) {
				st := newScheme(mutate).Stages()
				Expect(eqTypes(find(st[0], "viscous"))).To(Equal(want))
			},
			Entry("CR inviscid", func(o *isph.Options) {}, []string{"LaminarViscosity"}),
			Entry("CR with everything", func(o *isph.Options) {
				o.Nu, o.Alpha = 0.01, 0.1
				o.Gravity = [3]float64{0, -9.81, 0}
				o.GTVF, o.Pref = true, 100
			}, []string{"LaminarViscosity", "ArtificialViscosity", "BodyForce", "ArtificialStress", "SolidWallNoSlip"}),
			Entry("DI", func(o *isph.Options) { o.Variant = isph.DI; o.Nu = 0.01 },
				[]string{"ViscosityTVF", "SolidWallNoSlip"}),
			Entry("no-slip needs viscosity", func(o *isph.Options) { o.Nu = 0 }, []string{"LaminarViscosity"}),
		)

		It("selects the pressure gradient form", func() {
			st := newScheme(func(o *isph.Options) {
				o.Symmetric = true
				o.GTVF, o.Pref = true, 100
			}).Stages()
			Expect(eqTypes(find(st[1], "pressure_gradient"))).To(Equal([]string{"PressureGradientSymmetric", "GTVFAcceleration"}))
		})

		It("compiles without accumulator conflicts for every variant", func() {
			for _, v := range []isph.Variant{isph.CR, isph.DF, isph.DI, isph.DFDI} {
				coll := walledTank(4, 3)
				opts := tankOptions()
				opts.Variant = v
				opts.Nu, opts.Alpha = 0.01, 0.1
				opts.Gravity = [3]float64{0, -9.81, 0}
				opts.GTVF, opts.Pref = true, 100
				opts.HasGhosts = true
				build(coll, opts)
			}
		})
	})

	Describe("steppers", func() {
		It("steps fluids by variant and adds inlet steppers", func() {
			s := newScheme(func(o *isph.Options) {
				o.Variant = isph.DI
				o.IOManager = fakeIO{}
			})
			st := s.Steppers()
			Expect(st).To(HaveLen(2))
			Expect(st["fluid"]).To(Equal(isph.StepDI{}))
			Expect(st["inlet"]).To(Equal(isph.StepDI{}))
		})
	})

	Describe("setup", func() {
		It("assigns roles and seeds the transport velocity", func() {
			coll := walledTank(4, 3)
			fluid, wall := coll.Get("fluid"), coll.Get("wall")
			wall.Role = particle.Fluid
			fluid.U[0], fluid.P[0] = 2, 3

			s := newScheme(func(o *isph.Options) { o.GTVF, o.Pref = true, 10 })
			Expect(s.SetupProperties(coll)).To(Succeed())

			Expect(wall.Role).To(Equal(particle.Solid))
			Expect(fluid.Uhat[0]).To(Equal(2.0))
			Expect(fluid.Pk[0]).To(Equal(3.0))
		})

		It("adds inlet/outlet properties", func() {
			coll := walledTank(4, 3)
			Expect(coll.Add(particle.New("inlet", particle.Fluid, 2))).To(Succeed())
			s := newScheme(func(o *isph.Options) { o.IOManager = fakeIO{} })
			Expect(s.SetupProperties(coll)).To(Succeed())

			_, ok := coll.Get("inlet").Property("xn")
			Expect(ok).To(BeTrue())
		})

		It("reports missing sets", func() {
			coll := walledTank(4, 3)
			s := newScheme(func(o *isph.Options) { o.Solids = []string{"floor"} })
			err := s.SetupProperties(coll)
			Expect(errors.Is(err, isph.ErrUnknownSet)).To(BeTrue())
		})
	})

	DescribeTable("option validation",
		func(mutate func(*isph.Options), want error, option string) {
			opts := tankOptions()
			mutate(&opts)
			_, err := isph.NewScheme(opts)
			Expect(err).To(MatchError(want))
			var se *isph.SetupError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Option).To(Equal(option))
		},
		Entry("no fluids", func(o *isph.Options) { o.Fluids = nil }, isph.ErrNoFluids, "fluids"),
		Entry("gtvf without pref", func(o *isph.Options) { o.GTVF = true }, isph.ErrMissingPref, "pref"),
		Entry("unknown variant", func(o *isph.Options) { o.Variant = isph.Variant(9) }, isph.ErrUnknownVariant, "variant"),
		Entry("omega zero", func(o *isph.Options) { o.Omega = 0 }, isph.ErrInvalidOption, "omega"),
		Entry("omega above one", func(o *isph.Options) { o.Omega = 1.5 }, isph.ErrInvalidOption, "omega"),
		Entry("tolerance", func(o *isph.Options) { o.Tolerance = -1 }, isph.ErrInvalidOption, "tolerance"),
		Entry("dimension", func(o *isph.Options) { o.Dim = 4 }, isph.ErrInvalidOption, "dim"),
		Entry("kernel", func(o *isph.Options) { o.Kernel = "gaussian" }, isph.ErrInvalidOption, "kernel"),
		Entry("iterations", func(o *isph.Options) { o.MinIterations = 200 }, isph.ErrInvalidOption, "iterations"),
		Entry("duplicate sets", func(o *isph.Options) { o.InviscidSolids = []string{"fluid"} }, isph.ErrInvalidOption, "sets"),
		Entry("periodic without ghosts", func(o *isph.Options) {
			o.Periodic = &particle.Periodic{Max: 1, Band: 0.3}
		}, isph.ErrInvalidOption, "has_ghosts"),
		Entry("periodic band", func(o *isph.Options) {
			o.HasGhosts = true
			o.Periodic = &particle.Periodic{Max: 1, Band: 0.6}
		}, isph.ErrInvalidOption, "periodic"),
	)

	It("rejects ghost particles unless has_ghosts is set", func() {
		coll := walledTank(4, 3)
		_, err := coll.Get("fluid").AddGhost(0, 1, 0, 0)
		Expect(err).NotTo(HaveOccurred())

		scheme, err := isph.NewScheme(tankOptions())
		Expect(err).NotTo(HaveOccurred())
		_, err = scheme.Build(coll, nil)
		Expect(err).To(MatchError(isph.ErrInvalidOption))
		var se *isph.SetupError
		Expect(errors.As(err, &se)).To(BeTrue())
		Expect(se.Option).To(Equal("has_ghosts"))
	})

	DescribeTable("variant parsing",
		func(in string, want isph.Variant, ok bool) {
			v, err := isph.ParseVariant(in)
			if !ok {
				Expect(err).To(MatchError(isph.ErrUnknownVariant))
				return
			}
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(want))
			Expect(v.String()).To(Or(Equal(strings.ToUpper(strings.TrimSpace(in))), Equal("CR")))
		},
		Entry("default", "", isph.CR, true),
		Entry("cr", "cr", isph.CR, true),
		Entry("DF", "DF", isph.DF, true),
		Entry("DI", "DI", isph.DI, true),
		Entry("dfdi", " dfdi ", isph.DFDI, true),
		Entry("bogus", "WCSPH", isph.CR, false),
	)
})
