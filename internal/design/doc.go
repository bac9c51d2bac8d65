// Package design produces space-filling samples for training-data
// generation: latin-hypercube designs over the unit cube, optional maximin
// restart selection, and linear rescaling into per-dimension bounds.
package design
