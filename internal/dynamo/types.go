package dynamo

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// System is an autonomous or time-dependent ODE dX/dt = f(X, t).
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

type Hamiltonian interface {
	Energy(x State) float64
}

type Integrator interface {
	Step(sys System, x State, t float64, dt float64) State
}

// Tolerance is the mixed error bound atol + rtol*|x| used by adaptive steppers.
type Tolerance struct {
	Rel float64
	Abs float64
}

type AdaptiveIntegrator interface {
	Integrator
	// StepAdaptive attempts one step of size dt. It returns the new state,
	// the suggested next step size and whether the step met the tolerance.
	StepAdaptive(sys System, x State, t, dt float64, tol Tolerance) (State, float64, bool)
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

type SolverOptions struct {
	Tolerance Tolerance
	MinStep   float64
	MaxSteps  int
	Substeps  int
}

func DefaultSolverOptions() SolverOptions {
	return SolverOptions{
		Tolerance: Tolerance{Rel: 1e-6, Abs: 1e-8},
		MinStep:   1e-10,
		MaxSteps:  100000,
		Substeps:  10,
	}
}

// Linspace returns n evenly spaced points over [start, stop].
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out
}
