package dynamo

import (
	"context"
	"math"
)

// Solver integrates a System over an output time grid, returning the state
// at every grid point. Integrators carry scratch buffers, so the solver keeps
// a constructor and builds a fresh integrator per Solve call; a Solver is
// therefore safe for concurrent use.
type Solver struct {
	newIntegrator func() Integrator
	opts          SolverOptions
}

func NewSolver(newIntegrator func() Integrator, opts SolverOptions) *Solver {
	def := DefaultSolverOptions()
	if opts.Tolerance.Rel <= 0 {
		opts.Tolerance.Rel = def.Tolerance.Rel
	}
	if opts.Tolerance.Abs <= 0 {
		opts.Tolerance.Abs = def.Tolerance.Abs
	}
	if opts.MinStep <= 0 {
		opts.MinStep = def.MinStep
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = def.MaxSteps
	}
	if opts.Substeps <= 0 {
		opts.Substeps = def.Substeps
	}
	return &Solver{newIntegrator: newIntegrator, opts: opts}
}

func (s *Solver) Options() SolverOptions { return s.opts }

func (s *Solver) Solve(ctx context.Context, sys System, x0 State, times []float64) ([]State, error) {
	if err := validateGrid(times); err != nil {
		return nil, err
	}
	if len(x0) != sys.StateDim() {
		return nil, ErrDimensionMismatch
	}

	integ := s.newIntegrator()
	adaptive, isAdaptive := integ.(AdaptiveIntegrator)

	states := make([]State, 0, len(times))
	x := x0.Clone()
	states = append(states, x.Clone())

	h := 0.0
	for i := 1; i < len(times); i++ {
		select {
		case <-ctx.Done():
			return states, &SimulationError{Step: i, Time: times[i-1], State: x.Clone(), Wrapped: ctx.Err()}
		default:
		}

		t0, t1 := times[i-1], times[i]
		if h <= 0 {
			h = t1 - t0
		}

		var err error
		if isAdaptive {
			x, h, err = s.advanceAdaptive(adaptive, sys, x, t0, t1, h)
		} else {
			x, err = s.advanceFixed(integ, sys, x, t0, t1)
		}
		if err != nil {
			return states, &SimulationError{Step: i, Time: t1, State: x.Clone(), Wrapped: err}
		}

		states = append(states, x.Clone())
	}

	return states, nil
}

func (s *Solver) advanceAdaptive(integ AdaptiveIntegrator, sys System, x State, t0, t1, h float64) (State, float64, error) {
	t := t0
	for steps := 0; t < t1; steps++ {
		if steps >= s.opts.MaxSteps {
			return x, h, ErrStepLimit
		}

		dt := h
		last := false
		if t+dt >= t1 {
			dt = t1 - t
			last = true
		}

		xNew, hNext, ok := integ.StepAdaptive(sys, x, t, dt, s.opts.Tolerance)
		if !ok && dt > s.opts.MinStep {
			h = math.Max(hNext, s.opts.MinStep)
			continue
		}
		if !xNew.IsValid() {
			return x, h, ErrInvalidState
		}

		x = xNew
		h = math.Max(hNext, s.opts.MinStep)
		if last {
			t = t1
		} else {
			t += dt
		}
	}
	return x, h, nil
}

func (s *Solver) advanceFixed(integ Integrator, sys System, x State, t0, t1 float64) (State, error) {
	n := s.opts.Substeps
	dt := (t1 - t0) / float64(n)
	for j := 0; j < n; j++ {
		x = integ.Step(sys, x, t0+float64(j)*dt, dt)
		if !x.IsValid() {
			return x, ErrInvalidState
		}
	}
	return x, nil
}

func validateGrid(times []float64) error {
	if len(times) == 0 {
		return ErrInvalidGrid
	}
	for i := 1; i < len(times); i++ {
		if !(times[i] > times[i-1]) {
			return ErrInvalidGrid
		}
	}
	return nil
}
