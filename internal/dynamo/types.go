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

type Input []float64

type Params []float64

// DynamicsFunc evaluates the state derivative f(x, u, z, p). For plain ODE
// systems z is empty; for unparameterized systems p is empty.
type DynamicsFunc func(x State, u Input, z, p []float64) State

// AlgebraicFunc evaluates the residuals g(x, z, u) of the algebraic
// constraints of a semi-explicit DAE. A consistent point satisfies g = 0.
type AlgebraicFunc func(x State, z []float64, u Input) []float64

// GuessFunc produces an initial guess for the algebraic variables given the
// current state and input.
type GuessFunc func(x State, u Input) []float64

// System describes continuous-time dynamics, either a plain ODE or a
// semi-explicit index-1 DAE. The kind is fixed when the descriptor is built
// and selects the integration path once at model construction.
type System struct {
	f   DynamicsFunc
	g   AlgebraicFunc
	z0  GuessFunc
	dae bool
}

// ODE builds a descriptor for x' = f(x, u, p).
func ODE(f DynamicsFunc) System {
	return System{f: f}
}

// DAE builds a descriptor for x' = f(x, u, z, p), 0 = g(x, z, u), with z0
// supplying the initialization guess for the algebraic variables.
func DAE(f DynamicsFunc, g AlgebraicFunc, z0 GuessFunc) System {
	return System{f: f, g: g, z0: z0, dae: true}
}

func (s System) Algebraic() bool { return s.dae }

func (s System) Derivative(x State, u Input, z, p []float64) State {
	return s.f(x, u, z, p)
}

func (s System) Residual(x State, z []float64, u Input) []float64 {
	return s.g(x, z, u)
}

func (s System) GuessAlgebraic(x State, u Input) []float64 {
	return s.z0(x, u)
}
