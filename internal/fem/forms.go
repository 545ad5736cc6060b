package fem

import "fmt"

// AssembleMass builds M_ij = ∫ φ_i ψ_j with test functions φ of test and trial
// functions ψ of trial. Both spaces must share a mesh.
func AssembleMass(trial, test *FunctionSpace) (*Matrix, error) {
	mesh, err := sharedMesh(trial, test)
	if err != nil {
		return nil, err
	}

	M := NewMatrix(test.NumDofs(), trial.NumDofs())
	for c, cell := range mesh.Cells {
		area, _ := mesh.cellGeometry(c)
		for a := 0; a < 3; a++ {
			for b := 0; b < 3; b++ {
				v := area / 12
				if a == b {
					v = area / 6
				}
				M.Add(cell[a], cell[b], v)
			}
		}
	}
	return M, nil
}

// AssembleConvection builds C_ij = ∫ φ_i (b·∇ψ_j), i.e. the form inner(grad(u), b*v)
// for trial u and test v, with a constant vector field b.
func AssembleConvection(trial, test *FunctionSpace, b Point) (*Matrix, error) {
	mesh, err := sharedMesh(trial, test)
	if err != nil {
		return nil, err
	}

	C := NewMatrix(test.NumDofs(), trial.NumDofs())
	for c, cell := range mesh.Cells {
		area, grads := mesh.cellGeometry(c)
		for bIdx := 0; bIdx < 3; bIdx++ {
			// ∫ φ_a over a triangle is area/3 for every a.
			v := area / 3 * (b.X*grads[bIdx][0] + b.Y*grads[bIdx][1])
			for a := 0; a < 3; a++ {
				C.Add(cell[a], cell[bIdx], v)
			}
		}
	}
	return C, nil
}

func sharedMesh(trial, test *FunctionSpace) (*Mesh, error) {
	if trial.Mesh() != test.Mesh() {
		return nil, fmt.Errorf("spaces %q and %q live on different meshes", trial.Name(), test.Name())
	}
	return trial.Mesh(), nil
}
