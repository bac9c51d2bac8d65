package model

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/dynland/sysid/internal/dynamo"
)

// x' = a*x + b*u, solvable in closed form.
func linearSys(a, b float64) dynamo.System {
	return dynamo.ODE(func(x dynamo.State, u dynamo.Input, z, p []float64) dynamo.State {
		return dynamo.State{a*x[0] + b*u[0]}
	})
}

// x' = p0*x, parameters enter the derivative directly.
func paramSys() dynamo.System {
	return dynamo.ODE(func(x dynamo.State, u dynamo.Input, z, p []float64) dynamo.State {
		return dynamo.State{p[0] * x[0]}
	})
}

// x' = -z + p0, 0 = z - x: equivalent to x' = -x + p0.
func daeSys() dynamo.System {
	f := func(x dynamo.State, u dynamo.Input, z, p []float64) dynamo.State {
		return dynamo.State{-z[0] + p[0]}
	}
	g := func(x dynamo.State, z []float64, u dynamo.Input) []float64 {
		return []float64{z[0] - x[0]}
	}
	z0 := func(x dynamo.State, u dynamo.Input) []float64 {
		return []float64{x[0]}
	}
	return dynamo.DAE(f, g, z0)
}

func TestNewValidation(t *testing.T) {
	sys := linearSys(-1, 1)

	tests := []struct {
		name string
		sys  dynamo.System
		cfg  Config
	}{
		{"zero Nx", sys, Config{Nx: 0, Nu: 1, Dt: 0.1}},
		{"zero dt", sys, Config{Nx: 1, Nu: 1, Dt: 0}},
		{"negative dt", sys, Config{Nx: 1, Nu: 1, Dt: -0.1}},
		{"negative Nu", sys, Config{Nx: 1, Nu: -1, Dt: 0.1}},
		{"ODE with Nz", sys, Config{Nx: 1, Nu: 1, Nz: 1, Dt: 0.1}},
		{"DAE without Nz", daeSys(), Config{Nx: 1, Nu: 0, Dt: 0.1}},
		{"R wrong size", sys, Config{Nx: 1, Nu: 1, Dt: 0.1, R: mat.NewSymDense(3, nil)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.sys, tt.cfg); err == nil {
				t.Error("expected a construction error, got nil")
			}
		})
	}
}

func TestNewRejectsIndefiniteCovariance(t *testing.T) {
	r := mat.NewSymDense(2, []float64{-1, 0, 0, -1})
	_, err := New(linearSys(-1, 1), Config{Nx: 2, Nu: 1, Dt: 0.1, R: r})
	if !errors.Is(err, dynamo.ErrInvalidCovariance) {
		t.Errorf("expected covariance error, got %v", err)
	}
}

func TestAccessors(t *testing.T) {
	m, err := New(linearSys(-1, 1), Config{Nx: 1, Nu: 1, Np: 0, Dt: 0.25, Seed: 1})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if m.SamplingTime() != 0.25 {
		t.Errorf("expected dt 0.25, got %g", m.SamplingTime())
	}
	nx, nu, np := m.Size()
	if nx != 1 || nu != 1 || np != 0 {
		t.Errorf("unexpected size (%d, %d, %d)", nx, nu, np)
	}
	if m.Covariance().SymmetricDim() != 1 {
		t.Errorf("unexpected covariance dimension %d", m.Covariance().SymmetricDim())
	}
}

func TestIntegrateMatchesAnalyticSolution(t *testing.T) {
	a, b, dt := -1.2, 0.8, 0.1
	m, err := New(linearSys(a, b), Config{Nx: 1, Nu: 1, Dt: dt, Seed: 1})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	x0, u := 1.0, 2.0
	got, err := m.Integrate(dynamo.State{x0}, dynamo.Input{u}, nil)
	if err != nil {
		t.Fatalf("integrate failed: %v", err)
	}

	xss := -b * u / a
	expected := math.Exp(a*dt)*(x0-xss) + xss
	if math.Abs(got[0]-expected) > 1e-6 {
		t.Errorf("expected %.10f, got %.10f", expected, got[0])
	}
}

func TestIntegratePassesParameters(t *testing.T) {
	dt := 0.2
	m, err := New(paramSys(), Config{Nx: 1, Nu: 0, Np: 1, Dt: dt, Seed: 1})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	got, err := m.Integrate(dynamo.State{2}, nil, dynamo.Params{-0.7})
	if err != nil {
		t.Fatalf("integrate failed: %v", err)
	}

	expected := 2 * math.Exp(-0.7*dt)
	if math.Abs(got[0]-expected) > 1e-6 {
		t.Errorf("expected %.10f, got %.10f", expected, got[0])
	}
}

func TestIntegrateNilParamsReadAsZero(t *testing.T) {
	m, err := New(paramSys(), Config{Nx: 1, Nu: 0, Np: 1, Dt: 0.2, Seed: 1})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	got, err := m.Integrate(dynamo.State{2}, nil, nil)
	if err != nil {
		t.Fatalf("integrate failed: %v", err)
	}
	// p = 0 freezes the state.
	if math.Abs(got[0]-2) > 1e-8 {
		t.Errorf("expected 2, got %.10f", got[0])
	}
}

func TestIntegrateIdempotent(t *testing.T) {
	m, err := New(linearSys(-1.2, 0.8), Config{Nx: 1, Nu: 1, Dt: 0.1, Seed: 1})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	first, err := m.Integrate(dynamo.State{1}, dynamo.Input{2}, nil)
	if err != nil {
		t.Fatalf("integrate failed: %v", err)
	}
	second, err := m.Integrate(dynamo.State{1}, dynamo.Input{2}, nil)
	if err != nil {
		t.Fatalf("integrate failed: %v", err)
	}
	if first[0] != second[0] {
		t.Errorf("identical calls disagree: %v vs %v", first[0], second[0])
	}
}

func TestIntegrateDAE(t *testing.T) {
	dt := 0.1
	m, err := New(daeSys(), Config{Nx: 1, Nu: 0, Nz: 1, Np: 1, Dt: dt, Seed: 1})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	got, err := m.Integrate(dynamo.State{1}, nil, nil)
	if err != nil {
		t.Fatalf("integrate failed: %v", err)
	}

	// With the parameter block zero this is x' = -x.
	expected := math.Exp(-dt)
	if math.Abs(got[0]-expected) > 1e-6 {
		t.Errorf("expected %.10f, got %.10f", expected, got[0])
	}
}

func TestIntegrateDAEParametersIgnored(t *testing.T) {
	m, err := New(daeSys(), Config{Nx: 1, Nu: 0, Nz: 1, Np: 1, Dt: 0.1, Seed: 1})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	// The DAE path populates only the input block of the integrator's
	// parameter vector, so the supplied parameters must not change the
	// result.
	with, err := m.Integrate(dynamo.State{1}, nil, dynamo.Params{5})
	if err != nil {
		t.Fatalf("integrate failed: %v", err)
	}
	without, err := m.Integrate(dynamo.State{1}, nil, dynamo.Params{0})
	if err != nil {
		t.Fatalf("integrate failed: %v", err)
	}
	if with[0] != without[0] {
		t.Errorf("DAE result depends on parameters: %v vs %v", with[0], without[0])
	}
}

func TestIntegrateDimensionChecks(t *testing.T) {
	m, err := New(linearSys(-1, 1), Config{Nx: 1, Nu: 1, Dt: 0.1, Seed: 1})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	if _, err := m.Integrate(dynamo.State{1, 2}, dynamo.Input{0}, nil); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected dimension mismatch for state, got %v", err)
	}
	if _, err := m.Integrate(dynamo.State{1}, nil, nil); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected dimension mismatch for input, got %v", err)
	}
	if _, err := m.Integrate(dynamo.State{1}, dynamo.Input{0}, dynamo.Params{1}); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected dimension mismatch for parameters, got %v", err)
	}
}

func TestDiscreteStepTracksIntegrate(t *testing.T) {
	m, err := New(linearSys(-1.2, 0.8), Config{Nx: 1, Nu: 1, Dt: 0.05, Seed: 1})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	adaptive, err := m.Integrate(dynamo.State{1}, dynamo.Input{2}, nil)
	if err != nil {
		t.Fatalf("integrate failed: %v", err)
	}
	fixed, err := m.DiscreteStep(dynamo.State{1}, dynamo.Input{2}, nil)
	if err != nil {
		t.Fatalf("discrete step failed: %v", err)
	}

	if math.Abs(adaptive[0]-fixed[0]) > 1e-6 {
		t.Errorf("fast path diverges from adaptive path: %.10f vs %.10f", fixed[0], adaptive[0])
	}
}

func TestDiscreteStepUnavailableForDAE(t *testing.T) {
	m, err := New(daeSys(), Config{Nx: 1, Nu: 0, Nz: 1, Np: 1, Dt: 0.1, Seed: 1})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if _, err := m.DiscreteStep(dynamo.State{1}, nil, nil); !errors.Is(err, dynamo.ErrAlgebraic) {
		t.Errorf("expected ErrAlgebraic, got %v", err)
	}
}
