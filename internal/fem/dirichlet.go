package fem

// DirichletBC prescribes Value at Dofs of Space.
type DirichletBC struct {
	Space *FunctionSpace
	Dofs  []int
	Value float64
}

// NewDirichletBC builds a constant-valued Dirichlet condition.
func NewDirichletBC(value float64, dofs []int, V *FunctionSpace) *DirichletBC {
	return &DirichletBC{Space: V, Dofs: append([]int(nil), dofs...), Value: value}
}

// Apply overwrites the constrained entries of f.
func (bc *DirichletBC) Apply(f *Function) {
	if f.Space != bc.Space {
		return
	}
	for _, d := range bc.Dofs {
		f.Values[d] = bc.Value
	}
}

// dofsFor collects the dofs of V constrained by any of bcs.
func dofsFor(V *FunctionSpace, bcs []*DirichletBC) map[int]struct{} {
	out := make(map[int]struct{})
	for _, bc := range bcs {
		if bc == nil || bc.Space != V {
			continue
		}
		for _, d := range bc.Dofs {
			out[d] = struct{}{}
		}
	}
	return out
}
