// Package dynamo defines the shared vocabulary for continuous-time dynamics:
// state, input and parameter vectors, the ODE/DAE system descriptor, and the
// domain errors used across the module.
package dynamo
