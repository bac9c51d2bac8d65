package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/dynland/sysid/internal/dynamo"
)

// Sim simulates the system over a finite horizon. u holds one input row per
// discrete time step (Nt rows); p optionally holds one parameter row per
// step. The returned matrix Y is Nt by Nx with the state after step t in
// row t.
//
// With noise enabled, each recorded row is corrupted by an independent draw
// from N(0, R); the noise never feeds back into the next integration step.
// With negative-output clipping enabled, any negative entry anywhere in Y
// floors the entire matrix at 1e-6 (a diagnostic is logged, not an error).
func (m *Model) Sim(x0 dynamo.State, u, p *mat.Dense, noise bool) (*mat.Dense, error) {
	if u == nil {
		return nil, fmt.Errorf("model: %w: input matrix is nil", dynamo.ErrDimensionMismatch)
	}
	nt, nuCols := u.Dims()
	if nuCols != m.nu {
		return nil, fmt.Errorf("model: %w: input matrix has %d columns, want %d", dynamo.ErrDimensionMismatch, nuCols, m.nu)
	}
	if p != nil {
		pr, pc := p.Dims()
		if pr != nt || pc != m.np {
			return nil, fmt.Errorf("model: %w: parameter matrix is %dx%d, want %dx%d", dynamo.ErrDimensionMismatch, pr, pc, nt, m.np)
		}
	}
	if len(x0) != m.nx {
		return nil, fmt.Errorf("model: %w: state has length %d, want %d", dynamo.ErrDimensionMismatch, len(x0), m.nx)
	}

	y := mat.NewDense(nt, m.nx, nil)
	x := x0.Clone()

	for t := 0; t < nt; t++ {
		var pt dynamo.Params
		if p != nil {
			pt = p.RawRowView(t)
		}

		next, err := m.Integrate(x, u.RawRowView(t), pt)
		if err != nil {
			return nil, &dynamo.StepError{Step: t, Time: float64(t) * m.dt, Wrapped: err}
		}
		x = next
		y.SetRow(t, x)

		if noise {
			w := m.noise.Rand(nil)
			row := y.RawRowView(t)
			for i := range row {
				row[i] += w[i]
			}
		}

		// The check deliberately spans the whole matrix: a single negative
		// entry floors every entry written so far.
		if m.clipNegative && mat.Min(y) < 0 {
			m.log.Warn().Int("step", t).Msg("clipping negative values in simulation")
			floorMatrix(y, clipFloor)
		}
	}

	return y, nil
}

func floorMatrix(a *mat.Dense, floor float64) {
	rows, cols := a.Dims()
	for i := 0; i < rows; i++ {
		row := a.RawRowView(i)
		for j := 0; j < cols; j++ {
			if row[j] < floor {
				row[j] = floor
			}
		}
	}
}
