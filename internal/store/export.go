package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// TraceData is the JSON export shape for a simulated horizon.
type TraceData struct {
	Model  string      `json:"model"`
	Dt     float64     `json:"dt"`
	Steps  int         `json:"steps"`
	Times  []float64   `json:"times"`
	States [][]float64 `json:"states"`
}

// WriteTraceCSV writes a simulated horizon as rows of t, x_0..x_{nx-1}.
func WriteTraceCSV(w io.Writer, dt float64, y *mat.Dense) error {
	rows, cols := y.Dims()

	cw := csv.NewWriter(w)
	header := make([]string, cols+1)
	header[0] = "t"
	for j := 0; j < cols; j++ {
		header[j+1] = "x" + strconv.Itoa(j)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, cols+1)
	for i := 0; i < rows; i++ {
		record[0] = formatFloat(float64(i+1) * dt)
		row := y.RawRowView(i)
		for j, v := range row {
			record[j+1] = formatFloat(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDatasetCSV writes a training dataset with the regressors z and the
// one-step targets y side by side.
func WriteDatasetCSV(w io.Writer, z, y *mat.Dense) error {
	if z == nil || y == nil {
		// Empty dataset: nothing but an empty document to write.
		return nil
	}
	rows, zc := z.Dims()
	yr, yc := y.Dims()
	if yr != rows {
		return fmt.Errorf("store: dataset row mismatch: %d regressor rows, %d target rows", rows, yr)
	}

	cw := csv.NewWriter(w)
	header := make([]string, zc+yc)
	for j := 0; j < zc; j++ {
		header[j] = "z" + strconv.Itoa(j)
	}
	for j := 0; j < yc; j++ {
		header[zc+j] = "y" + strconv.Itoa(j)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, zc+yc)
	for i := 0; i < rows; i++ {
		for j, v := range z.RawRowView(i) {
			record[j] = formatFloat(v)
		}
		for j, v := range y.RawRowView(i) {
			record[zc+j] = formatFloat(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportTraceJSON writes a trace with run metadata to path.
func ExportTraceJSON(path, model string, dt float64, y *mat.Dense) error {
	rows, _ := y.Dims()
	data := TraceData{
		Model:  model,
		Dt:     dt,
		Steps:  rows,
		Times:  make([]float64, rows),
		States: make([][]float64, rows),
	}
	for i := 0; i < rows; i++ {
		data.Times[i] = float64(i+1) * dt
		data.States[i] = append([]float64(nil), y.RawRowView(i)...)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportFileCSV writes with one of the CSV writers to path.
func ExportFileCSV(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return write(file)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
