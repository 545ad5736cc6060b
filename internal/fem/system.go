package fem

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrSingular is returned when the block operator cannot be factorised reliably.
var ErrSingular = errors.New("singular block system")

// BlockForm is a 2×2 array of bilinear-form matrices; row r tests with space r,
// column c is the trial space c. A nil block is zero.
type BlockForm [2][2]*Matrix

// BlockSystem is the reduced, constrained and LU-factorised block operator.
type BlockSystem struct {
	mpcs    [2]*PeriodicConstraint
	offsets [2]int
	size    int

	bcValues map[int]float64
	lift     []float64
	lu       mat.LU
}

// NewBlockSystem assembles a into reduced numbering, zeroes the rows and
// columns of Dirichlet dofs with a unit diagonal and factorises the result.
func NewBlockSystem(a BlockForm, mpcs [2]*PeriodicConstraint, bcs []*DirichletBC) (*BlockSystem, error) {
	s := &BlockSystem{
		mpcs:     mpcs,
		offsets:  [2]int{0, mpcs[0].Size()},
		size:     mpcs[0].Size() + mpcs[1].Size(),
		bcValues: make(map[int]float64),
	}

	dense := mat.NewDense(s.size, s.size, nil)
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			block := a[r][c]
			if block == nil {
				continue
			}
			rows, cols := block.Dims()
			if rows != mpcs[r].Space().NumDofs() || cols != mpcs[c].Space().NumDofs() {
				return nil, fmt.Errorf("block (%d,%d) is %dx%d, spaces have %d and %d dofs",
					r, c, rows, cols, mpcs[r].Space().NumDofs(), mpcs[c].Space().NumDofs())
			}
			block.Each(func(i, j int, v float64) {
				I := s.offsets[r] + mpcs[r].Reduced(i)
				J := s.offsets[c] + mpcs[c].Reduced(j)
				dense.Set(I, J, dense.At(I, J)+v)
			})
		}
	}

	if err := s.collectBCs(bcs); err != nil {
		return nil, err
	}
	s.applyBCs(dense)

	s.lu.Factorize(dense)
	if cond := s.lu.Cond(); cond > mat.ConditionTolerance {
		return nil, fmt.Errorf("%w: condition number %g", ErrSingular, cond)
	}
	return s, nil
}

func (s *BlockSystem) collectBCs(bcs []*DirichletBC) error {
	for _, bc := range bcs {
		if bc == nil {
			continue
		}
		block := -1
		for k, mpc := range s.mpcs {
			if mpc.Space() == bc.Space {
				block = k
			}
		}
		if block < 0 {
			return fmt.Errorf("dirichlet condition on space %q is not part of the block system", bc.Space.Name())
		}
		for _, d := range bc.Dofs {
			if s.mpcs[block].IsSlave(d) {
				continue
			}
			s.bcValues[s.offsets[block]+s.mpcs[block].Reduced(d)] = bc.Value
		}
	}
	return nil
}

// applyBCs records the lifting A[:,bc]·g and then replaces bc rows and columns
// by the identity.
func (s *BlockSystem) applyBCs(dense *mat.Dense) {
	s.lift = make([]float64, s.size)
	for j, g := range s.bcValues {
		if g == 0 {
			continue
		}
		for i := 0; i < s.size; i++ {
			if _, fixed := s.bcValues[i]; fixed {
				continue
			}
			s.lift[i] += dense.At(i, j) * g
		}
	}

	for k := range s.bcValues {
		for i := 0; i < s.size; i++ {
			dense.Set(k, i, 0)
			dense.Set(i, k, 0)
		}
		dense.Set(k, k, 1)
	}
}

// Size returns the number of reduced unknowns.
func (s *BlockSystem) Size() int { return s.size }

// AssembleRHS restricts the full block vectors l to reduced numbering, subtracts
// the Dirichlet lifting and overwrites the constrained rows with their values.
func (s *BlockSystem) AssembleRHS(l [2][]float64) ([]float64, error) {
	b := make([]float64, s.size)
	for k := 0; k < 2; k++ {
		if len(l[k]) != s.mpcs[k].Space().NumDofs() {
			return nil, fmt.Errorf("rhs block %d has %d entries, space has %d dofs", k, len(l[k]), s.mpcs[k].Space().NumDofs())
		}
		copy(b[s.offsets[k]:], s.mpcs[k].Restrict(l[k]))
	}

	for i := range b {
		b[i] -= s.lift[i]
	}
	for k, g := range s.bcValues {
		b[k] = g
	}
	return b, nil
}

// Solve returns the reduced solution of the factorised system.
func (s *BlockSystem) Solve(b []float64) ([]float64, error) {
	if len(b) != s.size {
		return nil, fmt.Errorf("solve: rhs of %d entries, system of %d", len(b), s.size)
	}

	var x mat.VecDense
	if err := s.lu.SolveVecTo(&x, false, mat.NewVecDense(s.size, append([]float64(nil), b...))); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return x.RawVector().Data, nil
}

// Split writes the reduced solution into the two block functions. Slave entries
// are zeroed; PeriodicConstraint.Backsubstitution fills them in.
func (s *BlockSystem) Split(x []float64, fields [2]*Function) error {
	if len(x) != s.size {
		return fmt.Errorf("split: solution of %d entries, system of %d", len(x), s.size)
	}
	for k, f := range fields {
		mpc := s.mpcs[k]
		if f.Space != mpc.Space() {
			return fmt.Errorf("split: function %d is not on space %q", k, mpc.Space().Name())
		}
		for d := range f.Values {
			if mpc.IsSlave(d) {
				f.Values[d] = 0
				continue
			}
			f.Values[d] = x[s.offsets[k]+mpc.Reduced(d)]
		}
	}
	return nil
}
