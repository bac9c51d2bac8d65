package store

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestWriteTraceCSV(t *testing.T) {
	y := mat.NewDense(2, 2, []float64{1, 2, 3, 4})

	var buf bytes.Buffer
	require.NoError(t, WriteTraceCSV(&buf, 0.5, y))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "t,x0,x1", lines[0])
	assert.Equal(t, "0.5,1,2", lines[1])
	assert.Equal(t, "1,3,4", lines[2])
}

func TestWriteDatasetCSV(t *testing.T) {
	z := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewDense(2, 2, []float64{7, 8, 9, 10})

	var buf bytes.Buffer
	require.NoError(t, WriteDatasetCSV(&buf, z, y))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "z0,z1,z2,y0,y1", lines[0])
	assert.Equal(t, "1,2,3,7,8", lines[1])
	assert.Equal(t, "4,5,6,9,10", lines[2])
}

func TestWriteDatasetCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDatasetCSV(&buf, nil, nil))
	assert.Zero(t, buf.Len())
}

func TestWriteDatasetCSVRowMismatch(t *testing.T) {
	z := mat.NewDense(2, 1, []float64{1, 2})
	y := mat.NewDense(3, 1, []float64{1, 2, 3})

	var buf bytes.Buffer
	assert.Error(t, WriteDatasetCSV(&buf, z, y))
}

func TestExportTraceJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.json")
	y := mat.NewDense(2, 1, []float64{0.5, 0.25})

	require.NoError(t, ExportTraceJSON(path, "pendulum", 0.1, y))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var trace TraceData
	require.NoError(t, json.Unmarshal(data, &trace))
	assert.Equal(t, "pendulum", trace.Model)
	assert.Equal(t, 2, trace.Steps)
	assert.InDelta(t, 0.1, trace.Times[0], 1e-12)
	assert.Equal(t, []float64{0.25}, trace.States[1])
}

func TestExportFileCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.csv")
	y := mat.NewDense(1, 1, []float64{2})

	require.NoError(t, ExportFileCSV(path, func(w io.Writer) error {
		return WriteTraceCSV(w, 1, y)
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "t,x0")
}
