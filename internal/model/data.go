package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/dynland/sysid/internal/design"
	"github.com/dynland/sysid/internal/dynamo"
)

// Bounds is an elementwise [Lower, Upper] box.
type Bounds struct {
	Lower []float64
	Upper []float64
}

// GenerateTrainingData synthesizes a regression dataset of one-step
// transitions. Inputs and states are drawn from independent latin-hypercube
// designs under the maximin criterion and rescaled into their bounds;
// parameters are drawn from a plain latin hypercube and stay in [0,1] when
// par is nil. Each of the n rows is an isolated one-step integration from
// its own sampled point, never a trajectory.
//
// Z is n by (Nx+Nu), the sampled states and inputs side by side; Y is n by
// Nx with the one-step-ahead state (noised when noise is set) for the same
// row. n of zero yields nil matrices and no error.
func (m *Model) GenerateTrainingData(n int, in, state Bounds, par *Bounds, noise bool) (z, y *mat.Dense, err error) {
	if err := checkBounds("input", in, m.nu); err != nil {
		return nil, nil, err
	}
	if err := checkBounds("state", state, m.nx); err != nil {
		return nil, nil, err
	}
	if par != nil {
		if err := checkBounds("parameter", *par, m.np); err != nil {
			return nil, nil, err
		}
	}
	if n < 0 {
		return nil, nil, fmt.Errorf("model: sample count must not be negative, got %d", n)
	}
	if n == 0 {
		return nil, nil, nil
	}

	u := m.sampler.UnitMaximin(n, m.nu, maximinRestarts)
	if err := design.Scale(u, in.Lower, in.Upper); err != nil {
		return nil, nil, err
	}

	x := m.sampler.UnitMaximin(n, m.nx, maximinRestarts)
	if err := design.Scale(x, state.Lower, state.Upper); err != nil {
		return nil, nil, err
	}

	p := m.sampler.Unit(n, m.np)
	if par != nil {
		if err := design.Scale(p, par.Lower, par.Upper); err != nil {
			return nil, nil, err
		}
	}

	y = mat.NewDense(n, m.nx, nil)
	for i := 0; i < n; i++ {
		var ut dynamo.Input
		if u != nil {
			ut = u.RawRowView(i)
		}
		var pt dynamo.Params
		if p != nil {
			pt = p.RawRowView(i)
		}

		yi, err := m.Integrate(x.RawRowView(i), ut, pt)
		if err != nil {
			return nil, nil, &dynamo.StepError{Step: i, Wrapped: err}
		}
		y.SetRow(i, yi)

		if noise {
			w := m.noise.Rand(nil)
			row := y.RawRowView(i)
			for j := range row {
				row[j] += w[j]
			}
		}
	}

	if u == nil {
		return mat.DenseCopyOf(x), y, nil
	}
	z = mat.NewDense(n, m.nx+m.nu, nil)
	z.Augment(x, u)
	return z, y, nil
}

func checkBounds(name string, b Bounds, dim int) error {
	if len(b.Lower) != dim || len(b.Upper) != dim {
		return fmt.Errorf("model: %w: %s bounds have length %d/%d, want %d", dynamo.ErrDimensionMismatch, name, len(b.Lower), len(b.Upper), dim)
	}
	for i := range b.Lower {
		if b.Lower[i] > b.Upper[i] {
			return fmt.Errorf("model: %s bound %d has lower %g above upper %g", name, i, b.Lower[i], b.Upper[i])
		}
	}
	return nil
}
