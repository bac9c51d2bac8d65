package models

import (
	"fmt"
	"sort"

	"github.com/dynland/sysid/internal/dynamo"
)

// Entry describes a registered example system together with sensible
// defaults for simulation and dataset generation.
type Entry struct {
	Name string
	Desc string

	Nx, Nu int
	Sys    dynamo.System

	X0 []float64

	StateLower, StateUpper []float64
	InputLower, InputUpper []float64

	// ClipNegative marks systems whose states are physically non-negative.
	ClipNegative bool
}

var registry = map[string]Entry{}

func init() {
	tank := NewFourTank()
	register(Entry{
		Name:       "fourtank",
		Desc:       "quadruple-tank process (levels in cm, pump voltages in V)",
		Nx:         tank.StateDim(),
		Nu:         tank.InputDim(),
		Sys:        dynamo.ODE(tank.Derivative),
		X0:         []float64{12, 12, 5, 5},
		StateLower: []float64{1, 1, 1, 1},
		StateUpper: []float64{20, 20, 20, 20},
		InputLower: []float64{0, 0},
		InputUpper: []float64{10, 10},

		ClipNegative: true,
	})

	pend := NewPendulum()
	register(Entry{
		Name:       "pendulum",
		Desc:       "damped pendulum with torque input",
		Nx:         pend.StateDim(),
		Nu:         pend.InputDim(),
		Sys:        dynamo.ODE(pend.Derivative),
		X0:         []float64{0.5, 0},
		StateLower: []float64{-3.14, -8},
		StateUpper: []float64{3.14, 8},
		InputLower: []float64{-2},
		InputUpper: []float64{2},
	})
}

func register(e Entry) {
	registry[e.Name] = e
}

// Get looks up a registered system by name.
func Get(name string) (Entry, error) {
	e, ok := registry[name]
	if !ok {
		return Entry{}, fmt.Errorf("models: unknown model %q", name)
	}
	return e, nil
}

// List returns all registered entries sorted by name.
func List() []Entry {
	out := make([]Entry, 0, len(registry))
	for _, e := range registry {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
