package fem

import "fmt"

// FunctionSpace is the continuous piecewise-linear Lagrange space on a mesh.
// Degrees of freedom coincide with mesh vertices.
type FunctionSpace struct {
	mesh *Mesh
	name string
}

// NewFunctionSpace creates a P1 space. Two spaces on the same mesh are distinct
// objects: boundary conditions only apply to the space they were built for.
func NewFunctionSpace(mesh *Mesh, name string) *FunctionSpace {
	return &FunctionSpace{mesh: mesh, name: name}
}

// Mesh returns the underlying mesh.
func (V *FunctionSpace) Mesh() *Mesh { return V.mesh }

// Name identifies the space in logs.
func (V *FunctionSpace) Name() string { return V.name }

// NumDofs returns the number of degrees of freedom.
func (V *FunctionSpace) NumDofs() int { return V.mesh.NumVertices() }

// DofCoordinate returns the location of a degree of freedom.
func (V *FunctionSpace) DofCoordinate(dof int) Point { return V.mesh.Vertices[dof] }

// LocateDofsGeometrical returns the dofs whose coordinates satisfy marker.
func (V *FunctionSpace) LocateDofsGeometrical(marker func(Point) bool) []int {
	var dofs []int
	for d, p := range V.mesh.Vertices {
		if marker(p) {
			dofs = append(dofs, d)
		}
	}
	return dofs
}

// LocateDofsTopological returns the sorted dofs attached to the given facets.
func (V *FunctionSpace) LocateDofsTopological(facets [][2]int) []int {
	seen := make([]bool, V.NumDofs())
	for _, f := range facets {
		seen[f[0]] = true
		seen[f[1]] = true
	}
	var dofs []int
	for d, ok := range seen {
		if ok {
			dofs = append(dofs, d)
		}
	}
	return dofs
}

// Function is a finite element field: one nodal value per dof.
type Function struct {
	Space  *FunctionSpace
	Values []float64
}

// NewFunction returns the zero function on V.
func NewFunction(V *FunctionSpace) *Function {
	return &Function{Space: V, Values: make([]float64, V.NumDofs())}
}

// Interpolate sets every nodal value to expr at the dof coordinate.
func (f *Function) Interpolate(expr func(Point) float64) {
	for d := range f.Values {
		f.Values[d] = expr(f.Space.DofCoordinate(d))
	}
}

// CopyFrom overwrites f with the values of g.
func (f *Function) CopyFrom(g *Function) error {
	if len(f.Values) != len(g.Values) {
		return fmt.Errorf("copy function: size mismatch %d != %d", len(f.Values), len(g.Values))
	}
	copy(f.Values, g.Values)
	return nil
}
