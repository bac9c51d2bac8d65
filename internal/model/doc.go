// Package model wraps continuous-time dynamics into a discrete-time model:
// one-step integration over a fixed sampling interval, horizon simulation
// with optional measurement noise, and latin-hypercube training-data
// synthesis for downstream regression models.
package model
