package integrate

import (
	"fmt"
	"math"

	"github.com/dynland/sysid/internal/dynamo"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

const (
	defaultMaxSteps = 10000
	minStepFraction = 1e-12
)

// RK45 is a Dormand-Prince adaptive integrator over a fixed interval. It is
// configured once with absolute and relative tolerances and never
// reconfigured afterwards.
type RK45 struct {
	absTol   float64
	relTol   float64
	safety   float64
	minScale float64
	maxScale float64
	maxSteps int
}

func NewRK45(absTol, relTol float64) *RK45 {
	return &RK45{
		absTol:   absTol,
		relTol:   relTol,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
		maxSteps: defaultMaxSteps,
	}
}

// Integrate advances x0 from t=from to t=to under the derivative f, adapting
// the internal step so the local error estimate stays within tolerance.
func (r *RK45) Integrate(f Func, x0 []float64, from, to float64) ([]float64, error) {
	x := make([]float64, len(x0))
	copy(x, x0)

	t := from
	h := to - from
	minStep := (to - from) * minStepFraction

	// A remainder below minStep is rounding noise, not unfinished work.
	for step := 0; to-t >= minStep; step++ {
		if step >= r.maxSteps {
			return nil, fmt.Errorf("integrate: %w after %d steps at t=%g", dynamo.ErrNotConverged, r.maxSteps, t)
		}
		if h < minStep {
			return nil, fmt.Errorf("integrate: %w (h=%g at t=%g)", dynamo.ErrStepTooSmall, h, t)
		}
		if t+h > to {
			h = to - t
		}

		xNew, errRatio := r.attempt(f, x, t, h)

		if errRatio > 1 {
			scale := math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
			h *= scale
			continue
		}

		x = xNew
		t += h

		if errRatio > 0 {
			h *= math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
		} else {
			h *= r.maxScale
		}
	}

	if !dynamo.State(x).IsValid() {
		return nil, fmt.Errorf("integrate: %w at t=%g", dynamo.ErrInvalidState, t)
	}
	return x, nil
}

// attempt performs one trial step of size h and returns the candidate state
// together with the error estimate scaled by tolerance (accept iff <= 1).
func (r *RK45) attempt(f Func, x []float64, t, h float64) ([]float64, float64) {
	n := len(x)

	k1 := f(t, x)

	x2 := make([]float64, n)
	for i := 0; i < n; i++ {
		x2[i] = x[i] + h*b21*k1[i]
	}
	k2 := f(t+a2*h, x2)

	x3 := make([]float64, n)
	for i := 0; i < n; i++ {
		x3[i] = x[i] + h*(b31*k1[i]+b32*k2[i])
	}
	k3 := f(t+a3*h, x3)

	x4 := make([]float64, n)
	for i := 0; i < n; i++ {
		x4[i] = x[i] + h*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4 := f(t+a4*h, x4)

	x5 := make([]float64, n)
	for i := 0; i < n; i++ {
		x5[i] = x[i] + h*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5 := f(t+a5*h, x5)

	x6 := make([]float64, n)
	for i := 0; i < n; i++ {
		x6[i] = x[i] + h*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6 := f(t+h, x6)

	xNew := make([]float64, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + h*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}

	k7 := f(t+h, xNew)

	errMax := 0.0
	for i := 0; i < n; i++ {
		errEst := h * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		scale := r.absTol + r.relTol*math.Max(math.Abs(x[i]), math.Abs(xNew[i]))
		errMax = math.Max(errMax, math.Abs(errEst)/scale)
	}

	return xNew, errMax
}
