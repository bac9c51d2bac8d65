package models

import (
	"math"

	"github.com/dynland/sysid/internal/dynamo"
)

// Pendulum is a damped pendulum with a torque input. State is [theta,
// omega]; the optional first parameter overrides the damping coefficient.
type Pendulum struct {
	Mass    float64
	Length  float64
	Damping float64
	Gravity float64
}

func NewPendulum() *Pendulum {
	return &Pendulum{
		Mass:    1.0,
		Length:  1.0,
		Damping: 0.1,
		Gravity: 9.81,
	}
}

func (p *Pendulum) StateDim() int { return 2 }
func (p *Pendulum) InputDim() int { return 1 }

func (p *Pendulum) Derivative(x dynamo.State, u dynamo.Input, z, par []float64) dynamo.State {
	theta := x[0]
	omega := x[1]

	damping := p.Damping
	if len(par) > 0 {
		damping = par[0]
	}

	torque := 0.0
	if len(u) > 0 {
		torque = u[0]
	}

	alpha := (-damping*omega - p.Mass*p.Gravity*p.Length*math.Sin(theta) + torque) / (p.Mass * p.Length * p.Length)
	return dynamo.State{omega, alpha}
}
