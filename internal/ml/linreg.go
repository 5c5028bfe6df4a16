package ml

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// LinearFit is an ordinary least squares model with intercept.
type LinearFit struct {
	Coef      []float64
	Intercept float64
}

// LinearRegression fits y ~ X by least squares on centred data. When X is
// rank deficient (more features than samples, collinear stats) it returns the
// minimum-norm solution from the SVD pseudo-inverse.
func LinearRegression(X [][]float64, y []float64) (*LinearFit, error) {
	n, p, err := dims(X)
	if err != nil {
		return nil, err
	}
	if len(y) != n {
		return nil, errors.New("ml: X and y length mismatch")
	}

	xMean := make([]float64, p)
	for j := range xMean {
		xMean[j] = stat.Mean(Column(X, j), nil)
	}
	yMean := stat.Mean(y, nil)

	A := mat.NewDense(n, p, nil)
	b := mat.NewVecDense(n, nil)
	for i, row := range X {
		for j, v := range row {
			A.Set(i, j, v-xMean[j])
		}
		b.SetVec(i, y[i]-yMean)
	}

	coef, err := pinvSolve(A, b)
	if err != nil {
		return nil, err
	}
	fit := &LinearFit{Coef: coef, Intercept: yMean}
	for j, c := range coef {
		fit.Intercept -= c * xMean[j]
	}
	return fit, nil
}

// pinvSolve returns the minimum-norm x minimising |Ax - b|.
func pinvSolve(A *mat.Dense, b *mat.VecDense) ([]float64, error) {
	n, p := A.Dims()
	var svd mat.SVD
	if ok := svd.Factorize(A, mat.SVDThin); !ok {
		return nil, errors.New("ml: svd failed")
	}
	s := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	tol := 0.0
	if len(s) > 0 {
		tol = s[0] * float64(max(n, p)) * 2.220446049250313e-16
	}
	// x = V * diag(1/s) * U^T * b, dropping singular values under tol.
	var utb mat.VecDense
	utb.MulVec(u.T(), b)
	for i := range s {
		if s[i] > tol {
			utb.SetVec(i, utb.AtVec(i)/s[i])
		} else {
			utb.SetVec(i, 0)
		}
	}
	var x mat.VecDense
	x.MulVec(&v, &utb)

	out := make([]float64, p)
	for j := range out {
		out[j] = x.AtVec(j)
		if math.IsNaN(out[j]) {
			return nil, errors.New("ml: least squares produced NaN")
		}
	}
	return out, nil
}

func (f *LinearFit) Predict(row []float64) float64 {
	y := f.Intercept
	for j, c := range f.Coef {
		y += c * row[j]
	}
	return y
}

func (f *LinearFit) PredictAll(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = f.Predict(row)
	}
	return out
}
