// Package viz renders simulated traces in the terminal: static ascii plots
// and a live stepping view. Visualization only; nothing here affects the
// numerical results.
package viz
