// Package fem provides the small piecewise-linear finite element toolkit used by
// the transport simulation: a structured triangle mesh of the unit square, P1
// function spaces, mass and convection forms, Dirichlet rows, periodic
// multi-point constraints and a directly factorised 2×2 block system.
package fem

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidMesh is returned for non-positive mesh resolutions.
var ErrInvalidMesh = errors.New("mesh resolution must be positive")

// Point is a coordinate in the plane.
type Point struct {
	X, Y float64
}

// Mesh is a conforming triangulation. Cells list vertex indices counter-clockwise.
type Mesh struct {
	Vertices []Point
	Cells    [][3]int
}

// UnitSquare triangulates [0,1]² with nx×ny squares, each split along the
// diagonal from its lower-left to its upper-right corner.
func UnitSquare(nx, ny int) (*Mesh, error) {
	if nx < 1 || ny < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidMesh, nx, ny)
	}

	m := &Mesh{
		Vertices: make([]Point, 0, (nx+1)*(ny+1)),
		Cells:    make([][3]int, 0, 2*nx*ny),
	}
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			m.Vertices = append(m.Vertices, Point{X: float64(i) / float64(nx), Y: float64(j) / float64(ny)})
		}
	}

	vertex := func(i, j int) int { return j*(nx+1) + i }
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			v0, v1 := vertex(i, j), vertex(i+1, j)
			v2, v3 := vertex(i, j+1), vertex(i+1, j+1)
			m.Cells = append(m.Cells, [3]int{v0, v1, v3}, [3]int{v0, v3, v2})
		}
	}
	return m, nil
}

// NumVertices returns the vertex count.
func (m *Mesh) NumVertices() int { return len(m.Vertices) }

// NumCells returns the triangle count.
func (m *Mesh) NumCells() int { return len(m.Cells) }

// BoundaryFacets returns the edges that belong to exactly one cell, each as a
// sorted vertex pair, in ascending order.
func (m *Mesh) BoundaryFacets() [][2]int {
	count := make(map[[2]int]int, 3*len(m.Cells))
	for _, c := range m.Cells {
		for k := 0; k < 3; k++ {
			count[edgeKey(c[k], c[(k+1)%3])]++
		}
	}

	facets := make([][2]int, 0)
	for e, n := range count {
		if n == 1 {
			facets = append(facets, e)
		}
	}
	sort.Slice(facets, func(a, b int) bool {
		if facets[a][0] != facets[b][0] {
			return facets[a][0] < facets[b][0]
		}
		return facets[a][1] < facets[b][1]
	})
	return facets
}

// LocateBoundaryFacets keeps the boundary facets whose vertices all satisfy marker.
func (m *Mesh) LocateBoundaryFacets(marker func(Point) bool) [][2]int {
	var out [][2]int
	for _, f := range m.BoundaryFacets() {
		if marker(m.Vertices[f[0]]) && marker(m.Vertices[f[1]]) {
			out = append(out, f)
		}
	}
	return out
}

// Bounds returns the lower-left and upper-right corners of the vertex cloud.
func (m *Mesh) Bounds() (Point, Point) {
	lo := Point{X: math.Inf(1), Y: math.Inf(1)}
	hi := Point{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, p := range m.Vertices {
		lo.X, lo.Y = math.Min(lo.X, p.X), math.Min(lo.Y, p.Y)
		hi.X, hi.Y = math.Max(hi.X, p.X), math.Max(hi.Y, p.Y)
	}
	return lo, hi
}

// cellGeometry returns the area of cell c and the constant gradients of its
// three barycentric basis functions.
func (m *Mesh) cellGeometry(c int) (float64, [3][2]float64) {
	cell := m.Cells[c]
	p0, p1, p2 := m.Vertices[cell[0]], m.Vertices[cell[1]], m.Vertices[cell[2]]

	det := (p1.X-p0.X)*(p2.Y-p0.Y) - (p2.X-p0.X)*(p1.Y-p0.Y)
	grads := [3][2]float64{
		{(p1.Y - p2.Y) / det, (p2.X - p1.X) / det},
		{(p2.Y - p0.Y) / det, (p0.X - p2.X) / det},
		{(p0.Y - p1.Y) / det, (p1.X - p0.X) / det},
	}
	return math.Abs(det) / 2, grads
}

func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// IsClose compares like numpy.isclose with its default tolerances.
func IsClose(a, b float64) bool {
	return math.Abs(a-b) <= 1e-8+1e-5*math.Abs(b)
}
