// Package nnps finds the particles within kernel support of a destination
// particle using a cell-linked list.
package nnps

import (
	"math"

	"github.com/san-kum/isph/internal/particle"
)

// Locator answers neighbour queries. Implementations must be safe for
// concurrent Neighbors calls between Updates.
type Locator interface {
	// Neighbors appends to buf the indices j of src with
	// |x_i - x_j| <= scale*max(h_i, h_j) and returns the result.
	Neighbors(dst *particle.Set, i int, src *particle.Set, buf []int) []int
	Update()
}

type cellKey [3]int

// LinkedList bins every set into cubic cells no smaller than the largest
// support radius so that a query only visits adjacent cells.
type LinkedList struct {
	coll     *particle.Collection
	dim      int
	scale    float64
	cellSize float64
	cells    map[*particle.Set]map[cellKey][]int
}

// NewLinkedList builds the cell lists for every set in coll. scale is the
// kernel support in units of h.
func NewLinkedList(coll *particle.Collection, dim int, scale float64) *LinkedList {
	ll := &LinkedList{
		coll:  coll,
		dim:   dim,
		scale: scale,
		cells: make(map[*particle.Set]map[cellKey][]int),
	}
	ll.Update()
	return ll
}

// Update rebins all particles; call after positions change.
func (ll *LinkedList) Update() {
	ll.cellSize = ll.scale * ll.coll.MaxH()
	if ll.cellSize <= 0 {
		ll.cellSize = 1
	}
	for _, s := range ll.coll.Sets() {
		bins := ll.cells[s]
		if bins == nil {
			bins = make(map[cellKey][]int)
			ll.cells[s] = bins
		} else {
			for k, v := range bins {
				bins[k] = v[:0]
			}
		}
		for j := 0; j < s.Len(); j++ {
			k := ll.key(s.X[j], s.Y[j], s.Z[j])
			bins[k] = append(bins[k], j)
		}
		for k, v := range bins {
			if len(v) == 0 {
				delete(bins, k)
			}
		}
	}
}

func (ll *LinkedList) key(x, y, z float64) cellKey {
	k := cellKey{int(math.Floor(x / ll.cellSize))}
	if ll.dim > 1 {
		k[1] = int(math.Floor(y / ll.cellSize))
	}
	if ll.dim > 2 {
		k[2] = int(math.Floor(z / ll.cellSize))
	}
	return k
}

func (ll *LinkedList) Neighbors(dst *particle.Set, i int, src *particle.Set, buf []int) []int {
	bins := ll.cells[src]
	if bins == nil {
		return buf
	}
	xi, yi, zi, hi := dst.X[i], dst.Y[i], dst.Z[i], dst.H[i]
	c := ll.key(xi, yi, zi)

	ry, rz := 0, 0
	if ll.dim > 1 {
		ry = 1
	}
	if ll.dim > 2 {
		rz = 1
	}
	for dz := -rz; dz <= rz; dz++ {
		for dy := -ry; dy <= ry; dy++ {
			for dx := -1; dx <= 1; dx++ {
				for _, j := range bins[cellKey{c[0] + dx, c[1] + dy, c[2] + dz}] {
					ddx, ddy, ddz := xi-src.X[j], yi-src.Y[j], zi-src.Z[j]
					r2 := ddx*ddx + ddy*ddy + ddz*ddz
					rc := ll.scale * math.Max(hi, src.H[j])
					if r2 <= rc*rc {
						buf = append(buf, j)
					}
				}
			}
		}
	}
	return buf
}

// BruteForce checks every pair. It is exact and slow; tests use it as the
// reference for LinkedList.
type BruteForce struct {
	Scale float64
}

func (b BruteForce) Update() {}

func (b BruteForce) Neighbors(dst *particle.Set, i int, src *particle.Set, buf []int) []int {
	for j := 0; j < src.Len(); j++ {
		dx, dy, dz := dst.X[i]-src.X[j], dst.Y[i]-src.Y[j], dst.Z[i]-src.Z[j]
		rc := b.Scale * math.Max(dst.H[i], src.H[j])
		if dx*dx+dy*dy+dz*dz <= rc*rc {
			buf = append(buf, j)
		}
	}
	return buf
}
