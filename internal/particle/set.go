package particle

import (
	"fmt"
	"math"
)

// Role says which boundary treatment a set receives.
type Role int

const (
	Fluid Role = iota
	Solid
	InviscidSolid
)

func (r Role) String() string {
	switch r {
	case Fluid:
		return "fluid"
	case Solid:
		return "solid"
	case InviscidSolid:
		return "inviscid_solid"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// IsBoundary reports whether the role is a wall of either kind.
func (r Role) IsBoundary() bool { return r == Solid || r == InviscidSolid }

// Particle tags.
const (
	Local  = 0
	Remote = 1
	Ghost  = 2
)

// Set is a struct-of-arrays particle container. Every slice has Len()
// entries; the fields are fixed so that operators can be bound to them
// statically instead of looking them up by name per call.
type Set struct {
	Name string
	Role Role

	X, Y, Z    []float64
	U, V, W    []float64
	X0, Y0, Z0 []float64
	U0, V0, W0 []float64

	M, H, Rho []float64

	P, Pk, Diag, Odiag, Rhs, Pdiff []float64

	// Vol is the number density sum_j W_ij; the particle volume is 1/Vol.
	Vol []float64

	Au, Av, Aw []float64

	Uhat, Vhat, What    []float64
	Uhat0, Vhat0, What0 []float64
	Auhat, Avhat, Awhat []float64
	P0                  []float64

	Ug, Vg, Wg []float64
	Uf, Vf, Wf []float64
	Wij        []float64

	DtCFL, DtForce, Vmag []float64

	Tag []int
	Gid []int

	// ghost offsets from their source particle
	gdx, gdy, gdz []float64

	props     map[string]*Property
	constants map[string][]float64
}

// Property is a user-added per-particle array with a fixed stride.
type Property struct {
	Name    string
	Stride  int
	Default float64
	Data    []float64
}

// New allocates a set of n local particles with zeroed fields.
func New(name string, role Role, n int) *Set {
	s := &Set{
		Name:      name,
		Role:      role,
		props:     make(map[string]*Property),
		constants: make(map[string][]float64),
	}
	for _, f := range s.floatFields() {
		*f = make([]float64, n)
	}
	s.Tag = make([]int, n)
	s.Gid = make([]int, n)
	for i := range s.Gid {
		s.Gid[i] = -1
	}
	return s
}

func (s *Set) Len() int { return len(s.X) }

// IsReal reports whether particle i is owned by this set rather than mirrored.
func (s *Set) IsReal(i int) bool { return s.Tag[i] != Ghost }

// NumReal counts non-ghost particles.
func (s *Set) NumReal() int {
	n := 0
	for _, t := range s.Tag {
		if t != Ghost {
			n++
		}
	}
	return n
}

// Append adds a local particle at (x,y,z) with mass m, smoothing length h
// and density rho. It returns the new index.
func (s *Set) Append(x, y, z, m, h, rho float64) int {
	for _, f := range s.floatFields() {
		*f = append(*f, 0)
	}
	s.Tag = append(s.Tag, Local)
	s.Gid = append(s.Gid, -1)
	for _, p := range s.props {
		for k := 0; k < p.Stride; k++ {
			p.Data = append(p.Data, p.Default)
		}
	}
	i := s.Len() - 1
	s.X[i], s.Y[i], s.Z[i] = x, y, z
	s.M[i], s.H[i], s.Rho[i] = m, h, rho
	return i
}

// AddGhost appends a ghost mirror of particle src displaced by the given
// offset. The ghost reads its pressure, velocity and scalar state from src.
func (s *Set) AddGhost(src int, dx, dy, dz float64) (int, error) {
	if src < 0 || src >= s.Len() || !s.IsReal(src) {
		return -1, fmt.Errorf("particle: ghost source %d is not a real particle of %q", src, s.Name)
	}
	i := s.Append(s.X[src]+dx, s.Y[src]+dy, s.Z[src]+dz, s.M[src], s.H[src], s.Rho[src])
	s.Tag[i] = Ghost
	s.Gid[i] = src
	s.gdx[i], s.gdy[i], s.gdz[i] = dx, dy, dz
	s.copyFromSource(i)
	return i, nil
}

// SyncGhosts moves every ghost to its source position plus offset and copies
// the source velocity and density.
func (s *Set) SyncGhosts() {
	for i, t := range s.Tag {
		if t != Ghost {
			continue
		}
		g := s.Gid[i]
		s.X[i], s.Y[i], s.Z[i] = s.X[g]+s.gdx[i], s.Y[g]+s.gdy[i], s.Z[g]+s.gdz[i]
		s.copyFromSource(i)
	}
}

func (s *Set) copyFromSource(i int) {
	g := s.Gid[i]
	s.U[i], s.V[i], s.W[i] = s.U[g], s.V[g], s.W[g]
	s.Uhat[i], s.Vhat[i], s.What[i] = s.Uhat[g], s.Vhat[g], s.What[g]
	s.Rho[i], s.M[i], s.H[i] = s.Rho[g], s.M[g], s.H[g]
	s.P[i], s.Pk[i] = s.P[g], s.Pk[g]
}

// RemoveGhosts drops every ghost and keeps the real particles in order.
func (s *Set) RemoveGhosts() {
	keep := 0
	fields := s.floatFields()
	for i := 0; i < s.Len(); i++ {
		if s.Tag[i] == Ghost {
			continue
		}
		if keep != i {
			for _, f := range fields {
				(*f)[keep] = (*f)[i]
			}
			s.Tag[keep], s.Gid[keep] = s.Tag[i], s.Gid[i]
			for _, p := range s.props {
				copy(p.Data[keep*p.Stride:(keep+1)*p.Stride], p.Data[i*p.Stride:(i+1)*p.Stride])
			}
		}
		keep++
	}
	for _, f := range fields {
		*f = (*f)[:keep]
	}
	s.Tag, s.Gid = s.Tag[:keep], s.Gid[:keep]
	for _, p := range s.props {
		p.Data = p.Data[:keep*p.Stride]
	}
}

// HasGhosts reports whether any particle is tagged as a ghost.
func (s *Set) HasGhosts() bool {
	for _, t := range s.Tag {
		if t == Ghost {
			return true
		}
	}
	return false
}

// AddProperty registers an extra per-particle array. Adding an existing
// property with the same stride is a no-op.
func (s *Set) AddProperty(name string, stride int, def float64) (*Property, error) {
	if stride < 1 {
		return nil, fmt.Errorf("particle: property %q: stride must be positive, got %d", name, stride)
	}
	if _, ok := s.Field(name); ok {
		return nil, fmt.Errorf("particle: property %q shadows a built-in field", name)
	}
	if p, ok := s.props[name]; ok {
		if p.Stride != stride {
			return nil, fmt.Errorf("particle: property %q already has stride %d", name, p.Stride)
		}
		return p, nil
	}
	p := &Property{Name: name, Stride: stride, Default: def, Data: make([]float64, stride*s.Len())}
	for k := range p.Data {
		p.Data[k] = def
	}
	s.props[name] = p
	return p, nil
}

// Property returns a user-added property.
func (s *Set) Property(name string) (*Property, bool) {
	p, ok := s.props[name]
	return p, ok
}

// AddConstant stores a set-wide constant array.
func (s *Set) AddConstant(name string, values ...float64) {
	v := make([]float64, len(values))
	copy(v, values)
	s.constants[name] = v
}

// Constant returns a set-wide constant.
func (s *Set) Constant(name string) ([]float64, bool) {
	v, ok := s.constants[name]
	return v, ok
}

// Field resolves a built-in scalar field by its conventional name.
func (s *Set) Field(name string) ([]float64, bool) {
	if f, ok := s.fieldMap()[name]; ok {
		return *f, true
	}
	return nil, false
}

// FieldNames lists the built-in scalar fields in a stable order.
func FieldNames() []string {
	out := make([]string, len(fieldOrder))
	copy(out, fieldOrder)
	return out
}

var fieldOrder = []string{
	"x", "y", "z", "u", "v", "w", "x0", "y0", "z0", "u0", "v0", "w0",
	"m", "h", "rho", "p", "pk", "diag", "odiag", "rhs", "pdiff", "V",
	"au", "av", "aw", "uhat", "vhat", "what", "uhat0", "vhat0", "what0",
	"auhat", "avhat", "awhat", "p0", "ug", "vg", "wg", "uf", "vf", "wf",
	"wij", "dt_cfl", "dt_force", "vmag",
}

func (s *Set) fieldMap() map[string]*[]float64 {
	return map[string]*[]float64{
		"x": &s.X, "y": &s.Y, "z": &s.Z, "u": &s.U, "v": &s.V, "w": &s.W,
		"x0": &s.X0, "y0": &s.Y0, "z0": &s.Z0, "u0": &s.U0, "v0": &s.V0, "w0": &s.W0,
		"m": &s.M, "h": &s.H, "rho": &s.Rho, "p": &s.P, "pk": &s.Pk,
		"diag": &s.Diag, "odiag": &s.Odiag, "rhs": &s.Rhs, "pdiff": &s.Pdiff, "V": &s.Vol,
		"au": &s.Au, "av": &s.Av, "aw": &s.Aw,
		"uhat": &s.Uhat, "vhat": &s.Vhat, "what": &s.What,
		"uhat0": &s.Uhat0, "vhat0": &s.Vhat0, "what0": &s.What0,
		"auhat": &s.Auhat, "avhat": &s.Avhat, "awhat": &s.Awhat, "p0": &s.P0,
		"ug": &s.Ug, "vg": &s.Vg, "wg": &s.Wg, "uf": &s.Uf, "vf": &s.Vf, "wf": &s.Wf,
		"wij": &s.Wij, "dt_cfl": &s.DtCFL, "dt_force": &s.DtForce, "vmag": &s.Vmag,
	}
}

func (s *Set) floatFields() []*[]float64 {
	m := s.fieldMap()
	out := make([]*[]float64, 0, len(m)+3)
	for _, name := range fieldOrder {
		out = append(out, m[name])
	}
	return append(out, &s.gdx, &s.gdy, &s.gdz)
}

// IsValid reports whether positions, velocities and pressures are finite.
func (s *Set) IsValid() bool {
	for _, f := range [][]float64{s.X, s.Y, s.Z, s.U, s.V, s.W, s.P} {
		for _, v := range f {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
