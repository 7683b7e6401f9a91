// Package kernel provides the smoothing kernels used to weight particle
// interactions.
//
// A kernel is evaluated from the displacement x_ij = x_i - x_j, its length
// r and a smoothing length h. Gradients are taken with respect to x_i, so
// for a monotonically decaying kernel x_ij . grad W_ij is never positive.
package kernel

import (
	"fmt"
	"math"
)

// Kernel evaluates W and grad W for one particle pair.
type Kernel interface {
	Value(r, h float64) float64
	// Gradient returns grad_i W(x_ij, h). The h argument may differ from
	// the pair's smoothing length (e.g. the scaled gradient used by GTVF).
	Gradient(xij [3]float64, r, h float64) [3]float64
	// RadiusScale is the support radius in units of h.
	RadiusScale() float64
	Dim() int
}

// New returns a kernel by name.
func New(name string, dim int) (Kernel, error) {
	if dim < 1 || dim > 3 {
		return nil, fmt.Errorf("kernel: dimension must be 1, 2 or 3, got %d", dim)
	}
	switch name {
	case "", "quintic":
		return NewQuinticSpline(dim), nil
	case "cubic":
		return NewCubicSpline(dim), nil
	}
	return nil, fmt.Errorf("kernel: unknown kernel %q", name)
}

// QuinticSpline is the Morris quintic spline with compact support 3h.
type QuinticSpline struct {
	dim   int
	sigma float64
}

func NewQuinticSpline(dim int) *QuinticSpline {
	k := &QuinticSpline{dim: dim}
	switch dim {
	case 1:
		k.sigma = 1.0 / 120.0
	case 2:
		k.sigma = 7.0 / (478.0 * math.Pi)
	default:
		k.sigma = 1.0 / (120.0 * math.Pi)
	}
	return k
}

func (k *QuinticSpline) Dim() int             { return k.dim }
func (k *QuinticSpline) RadiusScale() float64 { return 3.0 }

func (k *QuinticSpline) fac(h float64) float64 {
	return k.sigma / math.Pow(h, float64(k.dim))
}

func (k *QuinticSpline) Value(r, h float64) float64 {
	q := r / h
	t3, t2, t1 := 3.0-q, 2.0-q, 1.0-q
	var val float64
	switch {
	case q > 3.0:
		return 0
	case q > 2.0:
		val = pow5(t3)
	case q > 1.0:
		val = pow5(t3) - 6.0*pow5(t2)
	default:
		val = pow5(t3) - 6.0*pow5(t2) + 15.0*pow5(t1)
	}
	return k.fac(h) * val
}

func (k *QuinticSpline) dwdq(q float64) float64 {
	t3, t2, t1 := 3.0-q, 2.0-q, 1.0-q
	switch {
	case q > 3.0:
		return 0
	case q > 2.0:
		return -5.0 * pow4(t3)
	case q > 1.0:
		return -5.0*pow4(t3) + 30.0*pow4(t2)
	}
	return -5.0*pow4(t3) + 30.0*pow4(t2) - 75.0*pow4(t1)
}

func (k *QuinticSpline) Gradient(xij [3]float64, r, h float64) [3]float64 {
	if r < 1e-12 {
		return [3]float64{}
	}
	wdash := k.fac(h) * k.dwdq(r/h) / (h * r)
	return [3]float64{wdash * xij[0], wdash * xij[1], wdash * xij[2]}
}

// CubicSpline is the M4 B-spline with compact support 2h.
type CubicSpline struct {
	dim   int
	sigma float64
}

func NewCubicSpline(dim int) *CubicSpline {
	k := &CubicSpline{dim: dim}
	switch dim {
	case 1:
		k.sigma = 2.0 / 3.0
	case 2:
		k.sigma = 10.0 / (7.0 * math.Pi)
	default:
		k.sigma = 1.0 / math.Pi
	}
	return k
}

func (k *CubicSpline) Dim() int             { return k.dim }
func (k *CubicSpline) RadiusScale() float64 { return 2.0 }

func (k *CubicSpline) fac(h float64) float64 {
	return k.sigma / math.Pow(h, float64(k.dim))
}

func (k *CubicSpline) Value(r, h float64) float64 {
	q := r / h
	switch {
	case q >= 2.0:
		return 0
	case q >= 1.0:
		t := 2.0 - q
		return k.fac(h) * 0.25 * t * t * t
	}
	return k.fac(h) * (1.0 - 1.5*q*q + 0.75*q*q*q)
}

func (k *CubicSpline) Gradient(xij [3]float64, r, h float64) [3]float64 {
	if r < 1e-12 {
		return [3]float64{}
	}
	q := r / h
	var dwdq float64
	switch {
	case q >= 2.0:
		return [3]float64{}
	case q >= 1.0:
		t := 2.0 - q
		dwdq = -0.75 * t * t
	default:
		dwdq = -3.0*q + 2.25*q*q
	}
	wdash := k.fac(h) * dwdq / (h * r)
	return [3]float64{wdash * xij[0], wdash * xij[1], wdash * xij[2]}
}

func pow4(x float64) float64 {
	x2 := x * x
	return x2 * x2
}

func pow5(x float64) float64 { return pow4(x) * x }
