// Package integrate provides the numerical stepping primitives: a fixed-step
// classical RK4 map, a Dormand-Prince adaptive integrator over a fixed
// interval, and a Newton solver for the algebraic variables of semi-explicit
// DAE systems. Callers bind inputs and parameters into derivative closures.
package integrate
