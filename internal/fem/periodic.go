package fem

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoMaster is returned when a slave's image under the periodic relation is not a dof.
var ErrNoMaster = errors.New("no master dof at mapped location")

// PeriodicConstraint ties slave dofs to the master dofs their coordinates map
// to, u[slave] = u[master]. The remaining dofs are renumbered contiguously so
// that the constrained problem can be assembled directly in reduced form.
type PeriodicConstraint struct {
	space   *FunctionSpace
	masters map[int]int
	reduced []int
	size    int
}

// NewPeriodicConstraint makes every dof with indicator(x) true a slave of the
// dof located at relation(x). Dofs carrying one of bcs on the same space are
// left unconstrained.
func NewPeriodicConstraint(
	V *FunctionSpace,
	indicator func(Point) bool,
	relation func(Point) Point,
	bcs []*DirichletBC,
) (*PeriodicConstraint, error) {
	excluded := dofsFor(V, bcs)

	c := &PeriodicConstraint{
		space:   V,
		masters: make(map[int]int),
		reduced: make([]int, V.NumDofs()),
	}

	for _, d := range V.LocateDofsGeometrical(indicator) {
		if _, skip := excluded[d]; skip {
			continue
		}
		target := relation(V.DofCoordinate(d))
		master, ok := nearestDof(V, target)
		if !ok {
			return nil, fmt.Errorf("%w: slave %d at %v maps to %v", ErrNoMaster, d, V.DofCoordinate(d), target)
		}
		if master == d {
			continue
		}
		c.masters[d] = master
	}

	for s, m := range c.masters {
		if _, chained := c.masters[m]; chained {
			return nil, fmt.Errorf("periodic constraint: master %d of slave %d is itself a slave", m, s)
		}
	}

	for d := range c.reduced {
		if _, slave := c.masters[d]; slave {
			continue
		}
		c.reduced[d] = c.size
		c.size++
	}
	for s, m := range c.masters {
		c.reduced[s] = c.reduced[m]
	}

	return c, nil
}

// nearestDof finds the dof coinciding with p up to IsClose in each coordinate.
func nearestDof(V *FunctionSpace, p Point) (int, bool) {
	best, bestDist := -1, math.Inf(1)
	for d := 0; d < V.NumDofs(); d++ {
		q := V.DofCoordinate(d)
		if !IsClose(q.X, p.X) || !IsClose(q.Y, p.Y) {
			continue
		}
		if dist := math.Hypot(q.X-p.X, q.Y-p.Y); dist < bestDist {
			best, bestDist = d, dist
		}
	}
	return best, best >= 0
}

// Space returns the constrained function space.
func (c *PeriodicConstraint) Space() *FunctionSpace { return c.space }

// Size is the number of unknowns after eliminating slaves.
func (c *PeriodicConstraint) Size() int { return c.size }

// NumSlaves returns the number of slave dofs.
func (c *PeriodicConstraint) NumSlaves() int { return len(c.masters) }

// Master returns the master of a slave dof.
func (c *PeriodicConstraint) Master(dof int) (int, bool) {
	m, ok := c.masters[dof]
	return m, ok
}

// IsSlave reports whether dof is eliminated.
func (c *PeriodicConstraint) IsSlave(dof int) bool {
	_, ok := c.masters[dof]
	return ok
}

// Reduced maps a dof to its unknown in the reduced system; slaves share their master's.
func (c *PeriodicConstraint) Reduced(dof int) int { return c.reduced[dof] }

// Restrict folds a full vector into reduced numbering, adding slave rows to
// their masters (the transpose of the prolongation).
func (c *PeriodicConstraint) Restrict(full []float64) []float64 {
	out := make([]float64, c.size)
	for d, v := range full {
		out[c.reduced[d]] += v
	}
	return out
}

// Prolong expands a reduced vector to all dofs; slaves receive their master's value.
func (c *PeriodicConstraint) Prolong(reduced []float64) []float64 {
	out := make([]float64, len(c.reduced))
	for d := range out {
		out[d] = reduced[c.reduced[d]]
	}
	return out
}

// Backsubstitution copies master values into the slave entries of f.
func (c *PeriodicConstraint) Backsubstitution(f *Function) {
	for s, m := range c.masters {
		f.Values[s] = f.Values[m]
	}
}
