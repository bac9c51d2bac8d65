package model

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/dynland/sysid/internal/design"
	"github.com/dynland/sysid/internal/dynamo"
	"github.com/dynland/sysid/internal/integrate"
)

const (
	defaultTol      = 1e-8
	defaultNoiseVar = 1e-3
	clipFloor       = 1e-6
	maximinRestarts = design.DefaultRestarts
)

// Config holds the immutable construction parameters of a Model.
type Config struct {
	Nx int // state dimension
	Nu int // input dimension
	Nz int // algebraic-variable dimension, 0 for plain ODE systems
	Np int // parameter dimension

	Dt float64 // sampling interval

	// R is the measurement-noise covariance (Nx by Nx). Nil selects the
	// default 1e-3 * I.
	R *mat.SymDense

	// ClipNegative floors simulated outputs at a small positive value when
	// any entry turns negative.
	ClipNegative bool

	// AbsTol and RelTol override the integrator tolerances; zero selects
	// the 1e-8 default.
	AbsTol float64
	RelTol float64

	// Seed for the noise and design generators. Zero picks a time-based
	// seed.
	Seed uint64

	// Logger receives diagnostics such as the clipping notice. Nil
	// discards them.
	Logger *zerolog.Logger
}

// Model is a discrete-time view of continuous dynamics: one integrator
// handle built at construction maps a state one sampling interval forward.
// The handle is never reconfigured; all dimensions are fixed for the
// lifetime of the instance.
type Model struct {
	sys dynamo.System

	nx, nu, nz, np int
	dt             float64
	clipNegative   bool

	r     *mat.SymDense
	noise *distmv.Normal

	stepper *integrate.RK45
	rk4     *integrate.RK4 // fast path, ODE systems only
	newton  *integrate.NewtonSolver

	sampler *design.Sampler
	log     zerolog.Logger
}

// New validates the configuration and builds the model together with its
// integrator handle. For ODE systems (Nz == 0) a fixed-step RK4
// discretization of the same dynamics is built as an alternative fast path;
// the adaptive integrator remains the default Integrate path.
func New(sys dynamo.System, cfg Config) (*Model, error) {
	if cfg.Nx < 1 {
		return nil, fmt.Errorf("model: %w: Nx must be at least 1, got %d", dynamo.ErrDimensionMismatch, cfg.Nx)
	}
	if cfg.Nu < 0 || cfg.Nz < 0 || cfg.Np < 0 {
		return nil, fmt.Errorf("model: %w: negative dimension", dynamo.ErrDimensionMismatch)
	}
	if cfg.Dt <= 0 {
		return nil, fmt.Errorf("model: sampling interval must be positive, got %g", cfg.Dt)
	}
	if sys.Algebraic() != (cfg.Nz > 0) {
		return nil, fmt.Errorf("model: %w: Nz=%d does not match system kind", dynamo.ErrDimensionMismatch, cfg.Nz)
	}

	r := cfg.R
	if r == nil {
		r = mat.NewSymDense(cfg.Nx, nil)
		for i := 0; i < cfg.Nx; i++ {
			r.SetSym(i, i, defaultNoiseVar)
		}
	} else if r.SymmetricDim() != cfg.Nx {
		return nil, fmt.Errorf("model: %w: R is %dx%d, want %dx%d", dynamo.ErrInvalidCovariance, r.SymmetricDim(), r.SymmetricDim(), cfg.Nx, cfg.Nx)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)

	noise, ok := distmv.NewNormal(make([]float64, cfg.Nx), r, src)
	if !ok {
		return nil, fmt.Errorf("model: %w: R is not positive definite", dynamo.ErrInvalidCovariance)
	}

	absTol, relTol := cfg.AbsTol, cfg.RelTol
	if absTol <= 0 {
		absTol = defaultTol
	}
	if relTol <= 0 {
		relTol = defaultTol
	}

	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	m := &Model{
		sys:          sys,
		nx:           cfg.Nx,
		nu:           cfg.Nu,
		nz:           cfg.Nz,
		np:           cfg.Np,
		dt:           cfg.Dt,
		clipNegative: cfg.ClipNegative,
		r:            r,
		noise:        noise,
		stepper:      integrate.NewRK45(absTol, relTol),
		sampler:      design.NewSampler(src),
		log:          log,
	}

	if sys.Algebraic() {
		m.newton = integrate.NewNewtonSolver()
	} else {
		m.rk4 = integrate.NewRK4()
	}

	return m, nil
}

// SamplingTime returns the sampling interval dt.
func (m *Model) SamplingTime() float64 { return m.dt }

// Size returns the state, input and parameter dimensions.
func (m *Model) Size() (nx, nu, np int) { return m.nx, m.nu, m.np }

// Covariance returns the configured noise covariance.
func (m *Model) Covariance() *mat.SymDense { return m.r }

// Integrate advances x0 one sampling interval under input u and parameters
// p and returns the resulting state. Deterministic and side-effect free for
// fixed tolerances; p may be nil, which reads as all-zero parameters.
func (m *Model) Integrate(x0 dynamo.State, u dynamo.Input, p dynamo.Params) (dynamo.State, error) {
	if err := m.checkVectors(x0, u, p); err != nil {
		return nil, err
	}

	// The integrator sees one parameter vector holding the input block
	// followed by the parameter block.
	par := make([]float64, m.nu+m.np)
	copy(par, u)

	if m.sys.Algebraic() {
		return m.integrateDAE(x0, par)
	}

	if p != nil {
		copy(par[m.nu:], p)
	}
	x1, err := m.stepper.Integrate(m.odeDeriv(par), x0, 0, m.dt)
	if err != nil {
		return nil, err
	}
	return x1, nil
}

// integrateDAE handles systems with algebraic variables: the constraint
// residuals are resolved for z at every derivative evaluation, warm-started
// from the previous solution. Only the input block of the parameter vector
// is populated on this path; the parameter block stays zero.
func (m *Model) integrateDAE(x0 dynamo.State, par []float64) (dynamo.State, error) {
	u := dynamo.Input(par[:m.nu])
	z := m.sys.GuessAlgebraic(x0, u)
	if len(z) != m.nz {
		return nil, fmt.Errorf("model: %w: algebraic guess has length %d, want %d", dynamo.ErrDimensionMismatch, len(z), m.nz)
	}

	var solveErr error
	deriv := func(t float64, x []float64) []float64 {
		zs, err := m.newton.Solve(func(zc []float64) []float64 {
			return m.sys.Residual(x, zc, u)
		}, z)
		if err != nil {
			if solveErr == nil {
				solveErr = err
			}
			return make([]float64, m.nx)
		}
		z = zs
		return m.sys.Derivative(x, u, zs, par[m.nu:])
	}

	x1, err := m.stepper.Integrate(deriv, x0, 0, m.dt)
	if solveErr != nil {
		return nil, solveErr
	}
	if err != nil {
		return nil, err
	}
	return x1, nil
}

// DiscreteStep advances x0 one sampling interval with the fixed-step RK4
// discretization built at construction. Only available for ODE systems.
func (m *Model) DiscreteStep(x0 dynamo.State, u dynamo.Input, p dynamo.Params) (dynamo.State, error) {
	if m.rk4 == nil {
		return nil, dynamo.ErrAlgebraic
	}
	if err := m.checkVectors(x0, u, p); err != nil {
		return nil, err
	}

	par := make([]float64, m.nu+m.np)
	copy(par, u)
	if p != nil {
		copy(par[m.nu:], p)
	}
	return m.rk4.Step(m.odeDeriv(par), x0, 0, m.dt), nil
}

func (m *Model) odeDeriv(par []float64) integrate.Func {
	return func(t float64, x []float64) []float64 {
		return m.sys.Derivative(x, par[:m.nu], nil, par[m.nu:])
	}
}

func (m *Model) checkVectors(x0 dynamo.State, u dynamo.Input, p dynamo.Params) error {
	if len(x0) != m.nx {
		return fmt.Errorf("model: %w: state has length %d, want %d", dynamo.ErrDimensionMismatch, len(x0), m.nx)
	}
	if len(u) != m.nu {
		return fmt.Errorf("model: %w: input has length %d, want %d", dynamo.ErrDimensionMismatch, len(u), m.nu)
	}
	if p != nil && len(p) != m.np {
		return fmt.Errorf("model: %w: parameters have length %d, want %d", dynamo.ErrDimensionMismatch, len(p), m.np)
	}
	return nil
}
