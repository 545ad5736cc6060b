package fem

import (
	"fmt"

	"github.com/james-bowman/sparse"
)

// Matrix is a sparse matrix assembled by accumulation into a DOK and read
// through its CSR form.
type Matrix struct {
	dok *sparse.DOK
	csr *sparse.CSR // rebuilt after every Add
}

// NewMatrix returns an empty rows×cols matrix.
func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{dok: sparse.NewDOK(rows, cols)}
}

// Dims returns the matrix shape.
func (m *Matrix) Dims() (int, int) { return m.dok.Dims() }

// Add accumulates v into entry (i, j).
func (m *Matrix) Add(i, j int, v float64) {
	m.dok.Set(i, j, m.dok.At(i, j)+v)
	m.csr = nil
}

// At returns entry (i, j).
func (m *Matrix) At(i, j int) float64 { return m.dok.At(i, j) }

// Each visits the stored entries row by row.
func (m *Matrix) Each(fn func(i, j int, v float64)) {
	m.compressed().DoNonZero(fn)
}

// MulVec returns m·x.
func (m *Matrix) MulVec(x []float64) ([]float64, error) {
	rows, cols := m.Dims()
	if len(x) != cols {
		return nil, fmt.Errorf("matrix-vector product: %d columns, vector of %d", cols, len(x))
	}
	y := make([]float64, rows)
	m.compressed().MulVecTo(y, false, x)
	return y, nil
}

// Scale returns alpha·m as a new matrix.
func (m *Matrix) Scale(alpha float64) *Matrix {
	out := NewMatrix(m.Dims())
	m.Each(func(i, j int, v float64) {
		out.Add(i, j, alpha*v)
	})
	return out
}

// QuadraticForm returns fᵀ·m·g.
func (m *Matrix) QuadraticForm(f, g []float64) (float64, error) {
	mg, err := m.MulVec(g)
	if err != nil {
		return 0, err
	}
	if len(f) != len(mg) {
		return 0, fmt.Errorf("quadratic form: %d rows, vector of %d", len(mg), len(f))
	}
	var sum float64
	for i := range f {
		sum += f[i] * mg[i]
	}
	return sum, nil
}

func (m *Matrix) compressed() *sparse.CSR {
	if m.csr == nil {
		m.csr = m.dok.ToCSR()
	}
	return m.csr
}
