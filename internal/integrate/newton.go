package integrate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/dynland/sysid/internal/dynamo"
)

const (
	newtonMaxIter = 25
	newtonTol     = 1e-10
	jacobianEps   = 1e-7
)

// NewtonSolver resolves the algebraic variables of a semi-explicit index-1
// DAE: given residuals g(z), it finds z with g(z) = 0 by damped Newton
// iteration with a finite-difference Jacobian.
type NewtonSolver struct {
	jac *mat.Dense
	rhs *mat.VecDense
	dz  *mat.VecDense
}

func NewNewtonSolver() *NewtonSolver {
	return &NewtonSolver{}
}

func (s *NewtonSolver) ensureScratch(n int) {
	if s.jac == nil || s.rhs.Len() != n {
		s.jac = mat.NewDense(n, n, nil)
		s.rhs = mat.NewVecDense(n, nil)
		s.dz = mat.NewVecDense(n, nil)
	}
}

// Solve iterates from the initial guess z0 until the residual infinity-norm
// drops below tolerance. z0 is not modified.
func (s *NewtonSolver) Solve(g func(z []float64) []float64, z0 []float64) ([]float64, error) {
	n := len(z0)
	if n == 0 {
		return nil, nil
	}
	s.ensureScratch(n)

	z := make([]float64, n)
	copy(z, z0)

	for iter := 0; iter < newtonMaxIter; iter++ {
		res := g(z)
		if len(res) != n {
			return nil, fmt.Errorf("newton: %w: %d residuals for %d algebraic variables", dynamo.ErrDimensionMismatch, len(res), n)
		}
		if normInf(res) < newtonTol {
			return z, nil
		}

		s.fillJacobian(g, z, res)
		for i := 0; i < n; i++ {
			s.rhs.SetVec(i, -res[i])
		}

		if err := s.dz.SolveVec(s.jac, s.rhs); err != nil {
			return nil, fmt.Errorf("newton: singular constraint jacobian: %w", dynamo.ErrNotConverged)
		}

		// Damped update: halve the step until the residual decreases.
		base := normInf(res)
		improved := false
		trial := make([]float64, n)
		for alpha := 1.0; alpha >= 1.0/16; alpha /= 2 {
			for i := 0; i < n; i++ {
				trial[i] = z[i] + alpha*s.dz.AtVec(i)
			}
			if normInf(g(trial)) < base {
				copy(z, trial)
				improved = true
				break
			}
		}
		if !improved {
			return nil, fmt.Errorf("newton: %w: residual stalled at %g", dynamo.ErrNotConverged, base)
		}
	}

	return nil, fmt.Errorf("newton: %w after %d iterations", dynamo.ErrNotConverged, newtonMaxIter)
}

// fillJacobian approximates dg/dz by forward differences around z.
func (s *NewtonSolver) fillJacobian(g func(z []float64) []float64, z, res []float64) {
	n := len(z)
	zp := make([]float64, n)
	copy(zp, z)

	for j := 0; j < n; j++ {
		h := jacobianEps * math.Max(1, math.Abs(z[j]))
		zp[j] = z[j] + h
		rp := g(zp)
		for i := 0; i < n; i++ {
			s.jac.Set(i, j, (rp[i]-res[i])/h)
		}
		zp[j] = z[j]
	}
}

func normInf(v []float64) float64 {
	m := 0.0
	for _, x := range v {
		m = math.Max(m, math.Abs(x))
	}
	return m
}
