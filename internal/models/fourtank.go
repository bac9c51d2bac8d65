package models

import (
	"math"

	"github.com/dynland/sysid/internal/dynamo"
)

// FourTank is the quadruple-tank process: four coupled water tanks fed by
// two pumps through split valves. States are the four levels in cm, inputs
// the two pump voltages.
type FourTank struct {
	A1, A2, A3, A4 float64 // tank cross sections [cm2]
	O1, O2, O3, O4 float64 // outlet cross sections [cm2]
	K1, K2         float64 // pump gains [cm3/Vs]
	G1, G2         float64 // valve splits
	Gravity        float64 // [cm/s2]
}

func NewFourTank() *FourTank {
	return &FourTank{
		A1: 28, A2: 32, A3: 28, A4: 32,
		O1: 0.071, O2: 0.057, O3: 0.071, O4: 0.057,
		K1: 3.33, K2: 3.35,
		G1: 0.7, G2: 0.6,
		Gravity: 981,
	}
}

func (f *FourTank) StateDim() int { return 4 }
func (f *FourTank) InputDim() int { return 2 }

func (f *FourTank) Derivative(x dynamo.State, u dynamo.Input, z, p []float64) dynamo.State {
	// Torricelli outflow; levels below zero drain nothing.
	q1 := f.O1 * outflow(f.Gravity, x[0])
	q2 := f.O2 * outflow(f.Gravity, x[1])
	q3 := f.O3 * outflow(f.Gravity, x[2])
	q4 := f.O4 * outflow(f.Gravity, x[3])

	return dynamo.State{
		(-q1 + q3 + f.G1*f.K1*u[0]) / f.A1,
		(-q2 + q4 + f.G2*f.K2*u[1]) / f.A2,
		(-q3 + (1-f.G2)*f.K2*u[1]) / f.A3,
		(-q4 + (1-f.G1)*f.K1*u[0]) / f.A4,
	}
}

func outflow(g, level float64) float64 {
	if level <= 0 {
		return 0
	}
	return math.Sqrt(2 * g * level)
}
