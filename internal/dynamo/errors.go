package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for model construction and integration.
var (
	// ErrDimensionMismatch indicates inconsistent state/input/parameter sizes.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch")

	// ErrInvalidCovariance indicates a noise covariance that is not square of
	// the state dimension or not positive semi-definite.
	ErrInvalidCovariance = errors.New("dynamo: invalid noise covariance")

	// ErrInvalidState indicates a state vector containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrNotConverged indicates the integrator or algebraic solver failed to
	// reach the requested tolerance.
	ErrNotConverged = errors.New("dynamo: iteration did not converge")

	// ErrStepTooSmall indicates the adaptive timestep fell below the minimum.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrAlgebraic indicates an operation that requires a plain ODE model was
	// called on a model with algebraic variables.
	ErrAlgebraic = errors.New("dynamo: operation not available for DAE models")
)

// StepError wraps an integration failure with horizon context.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
