package ml

import (
	"errors"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrEmpty is returned when a fit is given no rows or no columns.
var ErrEmpty = errors.New("ml: empty input")

// Scaler standardizes columns to zero mean and unit (population) variance.
// Constant columns get scale 1 so they map to zero instead of NaN.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func FitScaler(X [][]float64) (*Scaler, error) {
	_, p, err := dims(X)
	if err != nil {
		return nil, err
	}
	s := &Scaler{Mean: make([]float64, p), Scale: make([]float64, p)}
	for j := 0; j < p; j++ {
		mean, sd := stat.PopMeanStdDev(Column(X, j), nil)
		if sd < 1e-12 {
			sd = 1
		}
		s.Mean[j] = mean
		s.Scale[j] = sd
	}
	return s, nil
}

func (s *Scaler) TransformRow(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out
}

func (s *Scaler) Transform(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		out[i] = s.TransformRow(row)
	}
	return out
}

// Standardize fits a scaler on X and returns the transformed copy.
func Standardize(X [][]float64) ([][]float64, *Scaler, error) {
	s, err := FitScaler(X)
	if err != nil {
		return nil, nil, err
	}
	return s.Transform(X), s, nil
}

// dims validates X as a non-empty rectangular matrix.
func dims(X [][]float64) (n, p int, err error) {
	n = len(X)
	if n == 0 || len(X[0]) == 0 {
		return 0, 0, ErrEmpty
	}
	p = len(X[0])
	for _, row := range X {
		if len(row) != p {
			return 0, 0, errors.New("ml: ragged matrix")
		}
	}
	return n, p, nil
}

// denseOf copies a validated matrix into a gonum Dense.
func denseOf(X [][]float64) *mat.Dense {
	n, p := len(X), len(X[0])
	d := mat.NewDense(n, p, nil)
	for i, row := range X {
		d.SetRow(i, row)
	}
	return d
}

// Column extracts column j of X.
func Column(X [][]float64, j int) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = row[j]
	}
	return out
}

// SelectColumns returns X restricted to the given column indices.
func SelectColumns(X [][]float64, cols []int) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		r := make([]float64, len(cols))
		for k, j := range cols {
			r[k] = row[j]
		}
		out[i] = r
	}
	return out
}
