package kernel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// radialIntegral integrates W over all space with the midpoint rule.
func radialIntegral(k Kernel, h float64) float64 {
	const n = 200000
	rmax := k.RadiusScale() * h
	dr := rmax / n
	sum := 0.0
	for i := 0; i < n; i++ {
		r := (float64(i) + 0.5) * dr
		w := k.Value(r, h)
		switch k.Dim() {
		case 1:
			sum += 2 * w * dr
		case 2:
			sum += 2 * math.Pi * r * w * dr
		default:
			sum += 4 * math.Pi * r * r * w * dr
		}
	}
	return sum
}

func TestNormalisation(t *testing.T) {
	for _, name := range []string{"quintic", "cubic"} {
		for dim := 1; dim <= 3; dim++ {
			k, err := New(name, dim)
			require.NoError(t, err)
			assert.InDelta(t, 1.0, radialIntegral(k, 0.7), 1e-6, "%s dim=%d", name, dim)
		}
	}
}

func TestCompactSupport(t *testing.T) {
	q := NewQuinticSpline(2)
	c := NewCubicSpline(2)

	assert.Equal(t, 0.0, q.Value(3.01, 1))
	assert.Greater(t, q.Value(2.99, 1), 0.0)
	assert.Equal(t, 0.0, c.Value(2.0, 1))
	assert.Greater(t, c.Value(1.99, 1), 0.0)
	assert.Equal(t, [3]float64{}, q.Gradient([3]float64{3.5, 0, 0}, 3.5, 1))
}

func TestGradientMatchesFiniteDifference(t *testing.T) {
	for _, k := range []Kernel{NewQuinticSpline(2), NewCubicSpline(2)} {
		h := 0.8
		for _, r := range []float64{0.3, 0.9, 1.3, 1.7, 2.2} {
			if r >= k.RadiusScale()*h {
				continue
			}
			const eps = 1e-6
			fd := (k.Value(r+eps, h) - k.Value(r-eps, h)) / (2 * eps)
			g := k.Gradient([3]float64{r, 0, 0}, r, h)
			assert.InDelta(t, fd, g[0], 1e-6*math.Max(1, math.Abs(fd)), "r=%v", r)
		}
	}
}

func TestGradientAntisymmetric(t *testing.T) {
	k := NewQuinticSpline(3)
	xij := [3]float64{0.3, -0.2, 0.1}
	r := math.Sqrt(0.14)

	gij := k.Gradient(xij, r, 0.5)
	gji := k.Gradient([3]float64{-0.3, 0.2, -0.1}, r, 0.5)

	for d := 0; d < 3; d++ {
		assert.Equal(t, gij[d], -gji[d])
	}
	dot := gij[0]*xij[0] + gij[1]*xij[1] + gij[2]*xij[2]
	assert.Less(t, dot, 0.0)
}

func TestGradientAtCoincidentPoints(t *testing.T) {
	k := NewCubicSpline(2)
	assert.Equal(t, [3]float64{}, k.Gradient([3]float64{}, 0, 1))
}

func TestNewErrors(t *testing.T) {
	_, err := New("gaussian", 2)
	assert.Error(t, err)
	_, err = New("quintic", 4)
	assert.Error(t, err)

	k, err := New("", 2)
	require.NoError(t, err)
	assert.Equal(t, 3.0, k.RadiusScale())
}
