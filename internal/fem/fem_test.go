package fem

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitSquare(t *testing.T, n int) *Mesh {
	t.Helper()
	m, err := UnitSquare(n, n)
	require.NoError(t, err)
	return m
}

func onRight(p Point) bool { return IsClose(p.X, 1) }

func toLeft(p Point) Point { return Point{X: 0, Y: p.Y} }

func onTopOrBottom(p Point) bool { return IsClose(p.Y, 0) || IsClose(p.Y, 1) }

func TestMatrixAccumulatesAndMultiplies(t *testing.T) {
	m := NewMatrix(2, 3)
	m.Add(0, 0, 1)
	m.Add(0, 2, 2)
	m.Add(0, 2, 0.5)
	m.Add(1, 1, -3)

	rows, cols := m.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 3, cols)
	assert.Equal(t, 2.5, m.At(0, 2))
	assert.Zero(t, m.At(1, 0))

	y, err := m.MulVec([]float64{1, 2, 4})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{11, -6}, y, 1e-15)

	m.Add(1, 0, 1)
	y, err = m.MulVec([]float64{1, 2, 4})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{11, -5}, y, 1e-15, "product sees entries added after a previous product")

	seen := map[[2]int]float64{}
	m.Scale(2).Each(func(i, j int, v float64) { seen[[2]int{i, j}] += v })
	assert.Equal(t, map[[2]int]float64{{0, 0}: 2, {0, 2}: 5, {1, 0}: 2, {1, 1}: -6}, seen)

	q, err := m.QuadraticForm([]float64{1, 1}, []float64{1, 2, 4})
	require.NoError(t, err)
	assert.InDelta(t, 6, q, 1e-15)

	_, err = m.MulVec([]float64{1, 2})
	assert.Error(t, err)
}

func TestUnitSquareTopology(t *testing.T) {
	m := unitSquare(t, 4)

	assert.Equal(t, 25, m.NumVertices())
	assert.Equal(t, 32, m.NumCells())
	assert.Len(t, m.BoundaryFacets(), 16)

	lo, hi := m.Bounds()
	assert.Equal(t, Point{0, 0}, lo)
	assert.Equal(t, Point{1, 1}, hi)

	var total float64
	for c := range m.Cells {
		area, _ := m.cellGeometry(c)
		total += area
	}
	assert.InDelta(t, 1.0, total, 1e-14)
}

func TestUnitSquareRejectsZeroResolution(t *testing.T) {
	_, err := UnitSquare(0, 3)
	assert.ErrorIs(t, err, ErrInvalidMesh)
}

func TestLocateBoundaryFacets(t *testing.T) {
	m := unitSquare(t, 3)
	V := NewFunctionSpace(m, "p")

	facets := m.LocateBoundaryFacets(onTopOrBottom)
	assert.Len(t, facets, 6)

	dofs := V.LocateDofsTopological(facets)
	require.Len(t, dofs, 8)
	for _, d := range dofs {
		assert.True(t, onTopOrBottom(V.DofCoordinate(d)))
	}
}

func TestMassAndConvectionForms(t *testing.T) {
	m := unitSquare(t, 5)
	V := NewFunctionSpace(m, "V")
	b := Point{X: 0.6, Y: 0.8}

	M, err := AssembleMass(V, V)
	require.NoError(t, err)
	C, err := AssembleConvection(V, V, b)
	require.NoError(t, err)

	ones := make([]float64, V.NumDofs())
	for i := range ones {
		ones[i] = 1
	}
	area, err := M.QuadraticForm(ones, ones)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, area, 1e-13)

	// Convection of a constant vanishes.
	c1, err := C.MulVec(ones)
	require.NoError(t, err)
	for _, v := range c1 {
		assert.InDelta(t, 0, v, 1e-13)
	}

	// ∫ b·∇x = b.X and ∫ b·∇y = b.Y on the unit square.
	x := NewFunction(V)
	x.Interpolate(func(p Point) float64 { return p.X })
	y := NewFunction(V)
	y.Interpolate(func(p Point) float64 { return p.Y })

	gx, err := C.QuadraticForm(ones, x.Values)
	require.NoError(t, err)
	gy, err := C.QuadraticForm(ones, y.Values)
	require.NoError(t, err)
	assert.InDelta(t, b.X, gx, 1e-13)
	assert.InDelta(t, b.Y, gy, 1e-13)
}

func TestFormsRequireSharedMesh(t *testing.T) {
	a := NewFunctionSpace(unitSquare(t, 2), "a")
	b := NewFunctionSpace(unitSquare(t, 2), "b")

	_, err := AssembleMass(a, b)
	assert.Error(t, err)
}

func TestPeriodicRelationIsIdempotent(t *testing.T) {
	for _, y := range []float64{0, 0.25, 0.5, 1} {
		p := Point{X: 1, Y: y}
		image := toLeft(p)
		assert.Equal(t, Point{X: 0, Y: y}, image)
		assert.Equal(t, image, toLeft(image))
		assert.False(t, onRight(image))
	}
}

func TestPeriodicConstraintMapsRightToLeft(t *testing.T) {
	m := unitSquare(t, 4)
	V := NewFunctionSpace(m, "V")

	mpc, err := NewPeriodicConstraint(V, onRight, toLeft, nil)
	require.NoError(t, err)

	assert.Equal(t, 5, mpc.NumSlaves())
	assert.Equal(t, V.NumDofs()-5, mpc.Size())

	for _, s := range V.LocateDofsGeometrical(onRight) {
		master, ok := mpc.Master(s)
		require.True(t, ok)
		ps, pm := V.DofCoordinate(s), V.DofCoordinate(master)
		assert.Equal(t, 0.0, pm.X)
		assert.Equal(t, ps.Y, pm.Y)
		assert.Equal(t, mpc.Reduced(master), mpc.Reduced(s))
		assert.False(t, mpc.IsSlave(master))
	}
}

func TestPeriodicConstraintSkipsDirichletDofsOfSameSpace(t *testing.T) {
	m := unitSquare(t, 4)
	Xp := NewFunctionSpace(m, "p")
	XV := NewFunctionSpace(m, "V")

	bc := NewDirichletBC(0, Xp.LocateDofsTopological(m.LocateBoundaryFacets(onTopOrBottom)), Xp)
	bcs := []*DirichletBC{bc}

	mpcP, err := NewPeriodicConstraint(Xp, onRight, toLeft, bcs)
	require.NoError(t, err)
	mpcV, err := NewPeriodicConstraint(XV, onRight, toLeft, bcs)
	require.NoError(t, err)

	assert.Equal(t, 3, mpcP.NumSlaves())
	assert.Equal(t, 5, mpcV.NumSlaves())
}

func TestPeriodicConstraintMissingMaster(t *testing.T) {
	V := NewFunctionSpace(unitSquare(t, 4), "V")
	_, err := NewPeriodicConstraint(V, onRight, func(p Point) Point { return Point{X: -3, Y: p.Y} }, nil)
	assert.ErrorIs(t, err, ErrNoMaster)
}

func TestBacksubstitutionRoundTrip(t *testing.T) {
	V := NewFunctionSpace(unitSquare(t, 4), "V")
	mpc, err := NewPeriodicConstraint(V, onRight, toLeft, nil)
	require.NoError(t, err)

	f := NewFunction(V)
	f.Interpolate(func(p Point) float64 { return p.X + 10*p.Y })
	mpc.Backsubstitution(f)

	for _, s := range V.LocateDofsGeometrical(onRight) {
		master, _ := mpc.Master(s)
		assert.Equal(t, f.Values[master], f.Values[s])
	}

	once := append([]float64(nil), f.Values...)
	mpc.Backsubstitution(f)
	assert.Equal(t, once, f.Values)

	// A periodic field survives compress-then-prolong unchanged.
	reduced := make([]float64, mpc.Size())
	for d, v := range f.Values {
		reduced[mpc.Reduced(d)] = v
	}
	assert.Equal(t, f.Values, mpc.Prolong(reduced))
}

func TestRestrictIsTransposeOfProlong(t *testing.T) {
	V := NewFunctionSpace(unitSquare(t, 3), "V")
	mpc, err := NewPeriodicConstraint(V, onRight, toLeft, nil)
	require.NoError(t, err)

	full := make([]float64, V.NumDofs())
	for i := range full {
		full[i] = math.Sin(float64(i) + 1)
	}
	reduced := make([]float64, mpc.Size())
	for i := range reduced {
		reduced[i] = math.Cos(float64(i))
	}

	lhs := dot(mpc.Restrict(full), reduced)
	rhs := dot(full, mpc.Prolong(reduced))
	assert.InDelta(t, lhs, rhs, 1e-12)
}

func TestBlockSystemSolvesMassProblem(t *testing.T) {
	m := unitSquare(t, 4)
	XV := NewFunctionSpace(m, "V")
	Xp := NewFunctionSpace(m, "p")

	bc := NewDirichletBC(0, Xp.LocateDofsTopological(m.LocateBoundaryFacets(onTopOrBottom)), Xp)
	bcs := []*DirichletBC{bc}
	mpcV, err := NewPeriodicConstraint(XV, onRight, toLeft, bcs)
	require.NoError(t, err)
	mpcP, err := NewPeriodicConstraint(Xp, onRight, toLeft, bcs)
	require.NoError(t, err)

	MV, err := AssembleMass(XV, XV)
	require.NoError(t, err)
	MP, err := AssembleMass(Xp, Xp)
	require.NoError(t, err)

	sys, err := NewBlockSystem(BlockForm{{MV, nil}, {nil, MP}}, [2]*PeriodicConstraint{mpcV, mpcP}, bcs)
	require.NoError(t, err)
	assert.Equal(t, mpcV.Size()+mpcP.Size(), sys.Size())

	exact := func(p Point) float64 { return math.Sin(2*math.Pi*p.X) * math.Sin(math.Pi*p.Y) }
	uV := NewFunction(XV)
	uV.Interpolate(exact)
	uP := NewFunction(Xp)
	uP.Interpolate(exact)
	bc.Apply(uP)

	lV, err := MV.MulVec(uV.Values)
	require.NoError(t, err)
	lP, err := MP.MulVec(uP.Values)
	require.NoError(t, err)

	rhs, err := sys.AssembleRHS([2][]float64{lV, lP})
	require.NoError(t, err)
	x, err := sys.Solve(rhs)
	require.NoError(t, err)

	gotV, gotP := NewFunction(XV), NewFunction(Xp)
	require.NoError(t, sys.Split(x, [2]*Function{gotV, gotP}))
	mpcV.Backsubstitution(gotV)
	mpcP.Backsubstitution(gotP)

	for d := range uV.Values {
		assert.InDelta(t, uV.Values[d], gotV.Values[d], 1e-10, "V dof %d", d)
		assert.InDelta(t, uP.Values[d], gotP.Values[d], 1e-10, "p dof %d", d)
	}
}

func TestBlockSystemLiftsNonZeroDirichletValues(t *testing.T) {
	m := unitSquare(t, 3)
	XV := NewFunctionSpace(m, "V")
	Xp := NewFunctionSpace(m, "p")

	bc := NewDirichletBC(2.5, Xp.LocateDofsTopological(m.LocateBoundaryFacets(onTopOrBottom)), Xp)
	bcs := []*DirichletBC{bc}
	mpcV, err := NewPeriodicConstraint(XV, onRight, toLeft, bcs)
	require.NoError(t, err)
	mpcP, err := NewPeriodicConstraint(Xp, onRight, toLeft, bcs)
	require.NoError(t, err)

	M, err := AssembleMass(XV, XV)
	require.NoError(t, err)

	sys, err := NewBlockSystem(BlockForm{{M, nil}, {nil, M}}, [2]*PeriodicConstraint{mpcV, mpcP}, bcs)
	require.NoError(t, err)

	// The constant 2.5 solves M p = M·2.5 with p = 2.5 on the boundary.
	constant := make([]float64, Xp.NumDofs())
	for i := range constant {
		constant[i] = 2.5
	}
	l, err := M.MulVec(constant)
	require.NoError(t, err)

	rhs, err := sys.AssembleRHS([2][]float64{make([]float64, XV.NumDofs()), l})
	require.NoError(t, err)
	x, err := sys.Solve(rhs)
	require.NoError(t, err)

	p := NewFunction(Xp)
	V := NewFunction(XV)
	require.NoError(t, sys.Split(x, [2]*Function{V, p}))
	mpcP.Backsubstitution(p)
	for d, v := range p.Values {
		assert.InDelta(t, 2.5, v, 1e-10, "p dof %d", d)
	}
}

func TestBlockSystemSingular(t *testing.T) {
	V := NewFunctionSpace(unitSquare(t, 2), "V")
	mpc, err := NewPeriodicConstraint(V, onRight, toLeft, nil)
	require.NoError(t, err)
	other, err := NewPeriodicConstraint(NewFunctionSpace(V.Mesh(), "p"), onRight, toLeft, nil)
	require.NoError(t, err)

	_, err = NewBlockSystem(BlockForm{}, [2]*PeriodicConstraint{mpc, other}, nil)
	assert.ErrorIs(t, err, ErrSingular)
}

func TestBlockSystemRejectsForeignBC(t *testing.T) {
	m := unitSquare(t, 2)
	V := NewFunctionSpace(m, "V")
	p := NewFunctionSpace(m, "p")
	stray := NewFunctionSpace(m, "stray")

	mpcV, err := NewPeriodicConstraint(V, onRight, toLeft, nil)
	require.NoError(t, err)
	mpcP, err := NewPeriodicConstraint(p, onRight, toLeft, nil)
	require.NoError(t, err)
	M, err := AssembleMass(V, V)
	require.NoError(t, err)

	_, err = NewBlockSystem(BlockForm{{M, nil}, {nil, M}}, [2]*PeriodicConstraint{mpcV, mpcP},
		[]*DirichletBC{NewDirichletBC(0, []int{0}, stray)})
	assert.Error(t, err)
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
