package design

import (
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func newSampler(seed uint64) *Sampler {
	return NewSampler(rand.NewPCG(seed, seed+1))
}

func TestUnitDimensions(t *testing.T) {
	s := newSampler(1)

	d := s.Unit(10, 3)
	require.NotNil(t, d)
	rows, cols := d.Dims()
	assert.Equal(t, 10, rows)
	assert.Equal(t, 3, cols)
}

func TestUnitEmptyDraws(t *testing.T) {
	s := newSampler(1)

	assert.Nil(t, s.Unit(0, 3))
	assert.Nil(t, s.Unit(5, 0))
	assert.Nil(t, s.UnitMaximin(0, 3, 5))
}

func TestUnitStratification(t *testing.T) {
	s := newSampler(2)

	n, dim := 16, 4
	d := s.Unit(n, dim)

	// Latin hypercube: every dimension has exactly one point per 1/n bin.
	col := make([]float64, n)
	for j := 0; j < dim; j++ {
		mat.Col(col, j, d)
		sort.Float64s(col)
		for k, v := range col {
			lo, hi := float64(k)/float64(n), float64(k+1)/float64(n)
			require.GreaterOrEqual(t, v, lo, "column %d bin %d", j, k)
			require.LessOrEqual(t, v, hi, "column %d bin %d", j, k)
		}
	}
}

func TestUnitMaximinKeepsStratification(t *testing.T) {
	s := newSampler(3)

	n := 12
	d := s.UnitMaximin(n, 2, DefaultRestarts)
	require.NotNil(t, d)

	col := make([]float64, n)
	for j := 0; j < 2; j++ {
		mat.Col(col, j, d)
		sort.Float64s(col)
		for k, v := range col {
			require.GreaterOrEqual(t, v, float64(k)/float64(n))
			require.LessOrEqual(t, v, float64(k+1)/float64(n))
		}
	}
}

func TestUnitMaximinSpreadsPoints(t *testing.T) {
	s := newSampler(4)

	// The selected design can never be worse than the worst candidate, and
	// in particular must keep a strictly positive separation.
	d := s.UnitMaximin(20, 2, DefaultRestarts)
	assert.Greater(t, minPairwiseDistance(d), 0.0)
}

func TestSamplerDeterministicPerSeed(t *testing.T) {
	a := newSampler(7).Unit(25, 3)
	b := newSampler(7).Unit(25, 3)
	assert.True(t, mat.Equal(a, b), "identical seeds must give identical designs")
}

func TestScale(t *testing.T) {
	s := newSampler(5)

	n := 40
	d := s.Unit(n, 2)
	lb := []float64{-5, 10}
	ub := []float64{5, 30}
	require.NoError(t, Scale(d, lb, ub))

	for i := 0; i < n; i++ {
		for j := 0; j < 2; j++ {
			v := d.At(i, j)
			assert.GreaterOrEqual(t, v, lb[j])
			assert.LessOrEqual(t, v, ub[j])
		}
	}
}

func TestScaleNilDesign(t *testing.T) {
	assert.NoError(t, Scale(nil, []float64{0}, []float64{1}))
}

func TestScaleBoundsMismatch(t *testing.T) {
	s := newSampler(6)
	d := s.Unit(5, 2)
	assert.Error(t, Scale(d, []float64{0}, []float64{1, 2}))
}
