package design

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/samplemv"

	"github.com/dynland/sysid/internal/dynamo"
)

// DefaultRestarts is the number of candidate designs drawn when selecting
// under the maximin criterion.
const DefaultRestarts = 20

// Sampler draws latin-hypercube designs from a seeded source. Not safe for
// concurrent use; the owning model serializes access.
type Sampler struct {
	src rand.Source
}

func NewSampler(src rand.Source) *Sampler {
	return &Sampler{src: src}
}

// Unit draws an n-point latin-hypercube design over [0,1]^dim: every
// dimension is stratified into n equal bins with exactly one point per bin.
// Returns nil when n or dim is zero.
func (s *Sampler) Unit(n, dim int) *mat.Dense {
	if n == 0 || dim == 0 {
		return nil
	}

	bounds := make([]r1.Interval, dim)
	for i := range bounds {
		bounds[i] = r1.Interval{Min: 0, Max: 1}
	}

	lhs := samplemv.LatinHypercube{
		Q:   distmv.NewUniform(bounds, s.src),
		Src: s.src,
	}
	batch := mat.NewDense(n, dim, nil)
	lhs.Sample(batch)
	return batch
}

// UnitMaximin draws restarts candidate designs and keeps the one maximizing
// the minimum pairwise distance between points.
func (s *Sampler) UnitMaximin(n, dim, restarts int) *mat.Dense {
	if restarts < 1 {
		restarts = 1
	}

	best := s.Unit(n, dim)
	if best == nil || n < 2 {
		return best
	}

	bestScore := minPairwiseDistance(best)
	for i := 1; i < restarts; i++ {
		cand := s.Unit(n, dim)
		if score := minPairwiseDistance(cand); score > bestScore {
			best, bestScore = cand, score
		}
	}
	return best
}

// Scale linearly rescales every column of d from [0,1] into [lb_j, ub_j],
// in place. A nil design (empty draw) is a no-op.
func Scale(d *mat.Dense, lb, ub []float64) error {
	if d == nil {
		return nil
	}
	rows, cols := d.Dims()
	if len(lb) != cols || len(ub) != cols {
		return fmt.Errorf("design: %w: bounds of length %d/%d for %d columns", dynamo.ErrDimensionMismatch, len(lb), len(ub), cols)
	}

	for k := 0; k < rows; k++ {
		row := d.RawRowView(k)
		for j := range row {
			row[j] = row[j]*(ub[j]-lb[j]) + lb[j]
		}
	}
	return nil
}

func minPairwiseDistance(d *mat.Dense) float64 {
	rows, _ := d.Dims()
	min := math.Inf(1)
	for i := 0; i < rows; i++ {
		for j := i + 1; j < rows; j++ {
			dist := floats.Distance(d.RawRowView(i), d.RawRowView(j), 2)
			if dist < min {
				min = dist
			}
		}
	}
	return min
}
