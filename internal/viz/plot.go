package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/mat"
)

const (
	plotHeight = 8
	plotWidth  = 64
)

// TracePlot renders one ascii graph per state dimension of a simulated
// horizon.
func TracePlot(y *mat.Dense) string {
	rows, cols := y.Dims()

	var b strings.Builder
	series := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(series, j, y)
		b.WriteString(asciigraph.Plot(series,
			asciigraph.Height(plotHeight),
			asciigraph.Width(plotWidth),
			asciigraph.Caption(fmt.Sprintf("x%d", j)),
		))
		b.WriteString("\n\n")
	}
	return b.String()
}
