package integrate

// Func evaluates the state derivative at time t. Inputs and parameters are
// bound into the closure by the caller.
type Func func(t float64, x []float64) []float64

// RK4 is a classical fixed-step 4th-order Runge-Kutta stepper. Scratch
// buffers are reused between steps, so a single instance is not safe for
// concurrent use.
type RK4 struct {
	k1, k2, k3, k4 []float64
	scratch        []float64
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make([]float64, n)
		r.k2 = make([]float64, n)
		r.k3 = make([]float64, n)
		r.k4 = make([]float64, n)
		r.scratch = make([]float64, n)
	}
}

// Step advances x over [t, t+h] and returns the new state.
func (r *RK4) Step(f Func, x []float64, t, h float64) []float64 {
	n := len(x)
	r.ensureScratch(n)

	copy(r.k1, f(t, x))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + h*0.5*r.k1[i]
	}
	copy(r.k2, f(t+h*0.5, r.scratch))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + h*0.5*r.k2[i]
	}
	copy(r.k3, f(t+h*0.5, r.scratch))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + h*r.k3[i]
	}
	copy(r.k4, f(t+h, r.scratch))

	result := make([]float64, n)
	h6 := h / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + h6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}

	return result
}
