// Package transport runs the periodic advection system
//
//	V_t + b·∇p = 0,  p_t + b·∇V = 0
//
// on the unit square with p = 0 on y = 0 and y = 1 and periodic coupling of
// x = 1 onto x = 0, using P1 elements and the implicit midpoint rule.
package transport

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"nabot/internal/domain/ports"
	"nabot/internal/fem"
)

// Params are the physical and temporal constants of a run.
type Params struct {
	Steps   int
	EndTime float64
	Eps     float64
}

// TimeStep returns EndTime/Steps, or EndTime when no step is taken.
func (p Params) TimeStep() float64 {
	if p.Steps == 0 {
		return p.EndTime
	}
	return p.EndTime / float64(p.Steps)
}

// Field returns the constant transport direction (sqrt(1-eps²), eps).
func (p Params) Field() fem.Point {
	return fem.Point{X: math.Sqrt(1 - p.Eps*p.Eps), Y: p.Eps}
}

// Frames receives one snapshot per step for each field. Either sink may be nil.
type Frames struct {
	V ports.FrameSink
	P ports.FrameSink
}

// Simulation owns the discretisation and the two-level state of V and p.
type Simulation struct {
	params Params
	dt     float64
	t      float64

	spaceV, spaceP *fem.FunctionSpace
	mpcV, mpcP     *fem.PeriodicConstraint
	bcs            []*fem.DirichletBC

	massV, massP *fem.Matrix
	convVp       *fem.Matrix // rows test V, columns trial p
	convPV       *fem.Matrix // rows test p, columns trial V
	system       *fem.BlockSystem

	VOld, POld *fem.Function
	VNew, PNew *fem.Function

	frames   Frames
	logger   ports.Logger
	progress io.Writer
}

// InitialV is the Gaussian bump centred in the square.
func InitialV(x fem.Point) float64 {
	return math.Exp(-(math.Pow((x.X-0.5)/0.15, 2) + math.Pow((x.Y-0.5)/0.15, 2)))
}

// OnPeriodicBoundary selects the slave side x = 1.
func OnPeriodicBoundary(x fem.Point) bool { return fem.IsClose(x.X, 1) }

// PeriodicRelation maps (1, y) to (0, y).
func PeriodicRelation(x fem.Point) fem.Point { return fem.Point{X: 0, Y: x.Y} }

// OnDirichletBoundary selects y = 0 and y = 1.
func OnDirichletBoundary(x fem.Point) bool { return fem.IsClose(x.Y, 1) || fem.IsClose(x.Y, 0) }

// New sets up spaces, constraints and the factorised block operator on mesh.
// Progress lines are written to progress.
func New(params Params, mesh *fem.Mesh, frames Frames, logger ports.Logger, progress io.Writer) (*Simulation, error) {
	s := &Simulation{
		params:   params,
		dt:       params.TimeStep(),
		spaceV:   fem.NewFunctionSpace(mesh, "V"),
		spaceP:   fem.NewFunctionSpace(mesh, "p"),
		frames:   frames,
		logger:   logger,
		progress: progress,
	}

	dofs := s.spaceP.LocateDofsTopological(mesh.LocateBoundaryFacets(OnDirichletBoundary))
	s.bcs = []*fem.DirichletBC{fem.NewDirichletBC(0, dofs, s.spaceP)}

	var err error
	if s.mpcP, err = fem.NewPeriodicConstraint(s.spaceP, OnPeriodicBoundary, PeriodicRelation, s.bcs); err != nil {
		return nil, fmt.Errorf("periodic constraint on p: %w", err)
	}
	if s.mpcV, err = fem.NewPeriodicConstraint(s.spaceV, OnPeriodicBoundary, PeriodicRelation, s.bcs); err != nil {
		return nil, fmt.Errorf("periodic constraint on V: %w", err)
	}

	if err := s.assembleForms(); err != nil {
		return nil, err
	}

	s.VOld, s.POld = fem.NewFunction(s.spaceV), fem.NewFunction(s.spaceP)
	s.VNew, s.PNew = fem.NewFunction(s.spaceV), fem.NewFunction(s.spaceP)
	s.POld.Interpolate(func(fem.Point) float64 { return 0 })
	s.VOld.Interpolate(InitialV)

	s.logger.Info(context.Background(), "transport system assembled",
		"dofs_v", s.spaceV.NumDofs(), "dofs_p", s.spaceP.NumDofs(),
		"slaves_v", s.mpcV.NumSlaves(), "slaves_p", s.mpcP.NumSlaves(),
		"dirichlet_p", len(dofs), "unknowns", s.system.Size(), "dt", s.dt)
	return s, nil
}

func (s *Simulation) assembleForms() error {
	b := s.params.Field()

	var err error
	if s.massV, err = fem.AssembleMass(s.spaceV, s.spaceV); err != nil {
		return fmt.Errorf("assemble mass V: %w", err)
	}
	if s.massP, err = fem.AssembleMass(s.spaceP, s.spaceP); err != nil {
		return fmt.Errorf("assemble mass p: %w", err)
	}
	if s.convVp, err = fem.AssembleConvection(s.spaceP, s.spaceV, b); err != nil {
		return fmt.Errorf("assemble convection p->V: %w", err)
	}
	if s.convPV, err = fem.AssembleConvection(s.spaceV, s.spaceP, b); err != nil {
		return fmt.Errorf("assemble convection V->p: %w", err)
	}

	half := s.dt / 2
	a := fem.BlockForm{
		{s.massV, s.convVp.Scale(half)},
		{s.convPV.Scale(half), s.massP},
	}
	if s.system, err = fem.NewBlockSystem(a, [2]*fem.PeriodicConstraint{s.mpcV, s.mpcP}, s.bcs); err != nil {
		return fmt.Errorf("assemble block system: %w", err)
	}
	return nil
}

// Run advances Steps time steps, writing frames and progress, and closes the frame sinks.
func (s *Simulation) Run(ctx context.Context) (err error) {
	defer func() {
		if cerr := s.closeFrames(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	start := time.Now()
	lastReported := 0
	for i := 0; i < s.params.Steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.t += s.dt
		if err := s.Step(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}

		if err := s.writeFrames(ctx); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}

		progress := int(float64(i+1) / float64(s.params.Steps) * 100)
		if progress >= lastReported+20 {
			lastReported = progress
			energy, err := s.energy(s.VNew, s.PNew)
			if err != nil {
				return err
			}
			fmt.Fprintf(s.progress, "|--progress: %d %% \t time: %s \t E: %g\n", progress, formatTime(s.t), energy)
		}

		if err := s.advance(); err != nil {
			return err
		}
	}

	s.logger.Info(ctx, "transport run completed", "steps", s.params.Steps, "time", s.t, "duration", time.Since(start))
	return nil
}

// formatTime rounds t to five decimals and always keeps a fractional part.
func formatTime(t float64) string {
	out := strconv.FormatFloat(math.Round(t*1e5)/1e5, 'f', -1, 64)
	if !strings.Contains(out, ".") {
		out += ".0"
	}
	return out
}

// Step computes the new fields from the old ones: right-hand side, Dirichlet
// rows, direct solve, split and periodic back-substitution.
func (s *Simulation) Step() error {
	half := s.dt / 2

	mV, err := s.massV.MulVec(s.VOld.Values)
	if err != nil {
		return err
	}
	cP, err := s.convVp.MulVec(s.POld.Values)
	if err != nil {
		return err
	}
	mP, err := s.massP.MulVec(s.POld.Values)
	if err != nil {
		return err
	}
	cV, err := s.convPV.MulVec(s.VOld.Values)
	if err != nil {
		return err
	}
	for i := range mV {
		mV[i] -= half * cP[i]
	}
	for i := range mP {
		mP[i] -= half * cV[i]
	}

	rhs, err := s.system.AssembleRHS([2][]float64{mV, mP})
	if err != nil {
		return fmt.Errorf("assemble rhs: %w", err)
	}

	x, err := s.system.Solve(rhs)
	if err != nil {
		return err
	}

	if err := s.system.Split(x, [2]*fem.Function{s.VNew, s.PNew}); err != nil {
		return err
	}
	s.mpcV.Backsubstitution(s.VNew)
	s.mpcP.Backsubstitution(s.PNew)
	return nil
}

func (s *Simulation) advance() error {
	if err := s.VOld.CopyFrom(s.VNew); err != nil {
		return err
	}
	return s.POld.CopyFrom(s.PNew)
}

func (s *Simulation) writeFrames(ctx context.Context) error {
	if s.frames.V != nil {
		if err := s.frames.V.WriteFrame(ctx, s.VNew.Values); err != nil {
			return fmt.Errorf("write V frame: %w", err)
		}
	}
	if s.frames.P != nil {
		if err := s.frames.P.WriteFrame(ctx, s.PNew.Values); err != nil {
			return fmt.Errorf("write p frame: %w", err)
		}
	}
	return nil
}

func (s *Simulation) closeFrames() error {
	var firstErr error
	for _, sink := range []ports.FrameSink{s.frames.V, s.frames.P} {
		if sink == nil {
			continue
		}
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// energy returns ∫V² + ∫p².
func (s *Simulation) energy(V, p *fem.Function) (float64, error) {
	ev, err := s.massV.QuadraticForm(V.Values, V.Values)
	if err != nil {
		return 0, err
	}
	ep, err := s.massP.QuadraticForm(p.Values, p.Values)
	if err != nil {
		return 0, err
	}
	return ev + ep, nil
}

// Energy returns ∫V² + ∫p² of the current state.
func (s *Simulation) Energy() (float64, error) { return s.energy(s.VOld, s.POld) }

// Fields returns the current state.
func (s *Simulation) Fields() (V, p *fem.Function) { return s.VOld, s.POld }

// Time returns the simulated time reached.
func (s *Simulation) Time() float64 { return s.t }

// Constraints exposes the periodic constraints of V and p.
func (s *Simulation) Constraints() (V, p *fem.PeriodicConstraint) { return s.mpcV, s.mpcP }

// DirichletDofs returns the p dofs held at zero.
func (s *Simulation) DirichletDofs() []int { return s.bcs[0].Dofs }
