package ml

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrSingleClass is returned by classifiers given labels of only one class.
var ErrSingleClass = errors.New("ml: labels contain a single class")

// LogisticFit is an L2-regularised binary logistic regression.
type LogisticFit struct {
	Coef      []float64
	Intercept float64
}

// LogisticRegression minimises 0.5/C*|w|^2 + sum(log-loss) with Newton's
// method and a backtracking line search. The intercept is not penalised.
// y holds 0/1 labels.
func LogisticRegression(X [][]float64, y []int, C float64) (*LogisticFit, error) {
	n, p, err := dims(X)
	if err != nil {
		return nil, err
	}
	if len(y) != n {
		return nil, errors.New("ml: X and y length mismatch")
	}
	if !twoClasses(y) {
		return nil, ErrSingleClass
	}
	if C <= 0 {
		C = 1
	}
	lambda := 1 / C
	d := p + 1 // weights then intercept

	theta := make([]float64, d)
	objective := func(th []float64) float64 {
		var f float64
		for i, row := range X {
			z := linear(th, row)
			// log(1+exp(z)) - y*z, stable for large |z|
			f += softplus(z) - float64(y[i])*z
		}
		for j := 0; j < p; j++ {
			f += 0.5 * lambda * th[j] * th[j]
		}
		return f
	}

	for iter := 0; iter < 100; iter++ {
		g := mat.NewVecDense(d, nil)
		H := mat.NewSymDense(d, nil)
		for i, row := range X {
			pr := sigmoid(linear(theta, row))
			r := pr - float64(y[i])
			w := pr * (1 - pr)
			for a := 0; a < d; a++ {
				xa := feature(row, a)
				g.SetVec(a, g.AtVec(a)+r*xa)
				for b := a; b < d; b++ {
					H.SetSym(a, b, H.At(a, b)+w*xa*feature(row, b))
				}
			}
		}
		for j := 0; j < p; j++ {
			g.SetVec(j, g.AtVec(j)+lambda*theta[j])
			H.SetSym(j, j, H.At(j, j)+lambda)
		}
		H.SetSym(p, p, H.At(p, p)+1e-10)

		var step mat.VecDense
		var chol mat.Cholesky
		if ok := chol.Factorize(H); ok {
			if err := chol.SolveVecTo(&step, g); err != nil {
				return nil, err
			}
		} else if err := step.SolveVec(H, g); err != nil {
			return nil, err
		}

		f0 := objective(theta)
		t := 1.0
		next := make([]float64, d)
		for k := 0; k < 30; k++ {
			for j := range next {
				next[j] = theta[j] - t*step.AtVec(j)
			}
			if objective(next) <= f0 {
				break
			}
			t /= 2
		}
		var moved float64
		for j := range theta {
			moved = math.Max(moved, math.Abs(next[j]-theta[j]))
		}
		copy(theta, next)
		if moved < 1e-9 {
			break
		}
	}
	return &LogisticFit{Coef: theta[:p:p], Intercept: theta[p]}, nil
}

// Proba returns P(y=1 | row).
func (f *LogisticFit) Proba(row []float64) float64 {
	z := f.Intercept
	for j, c := range f.Coef {
		z += c * row[j]
	}
	return sigmoid(z)
}

// Predict thresholds Proba at 0.5.
func (f *LogisticFit) Predict(row []float64) int {
	if f.Proba(row) > 0.5 {
		return 1
	}
	return 0
}

func linear(theta, row []float64) float64 {
	p := len(row)
	z := theta[p]
	for j, v := range row {
		z += theta[j] * v
	}
	return z
}

// feature returns the augmented design value: row[a], or 1 for the intercept.
func feature(row []float64, a int) float64 {
	if a == len(row) {
		return 1
	}
	return row[a]
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func softplus(z float64) float64 {
	if z > 30 {
		return z
	}
	return math.Log1p(math.Exp(z))
}

func twoClasses(y []int) bool {
	for _, v := range y[1:] {
		if v != y[0] {
			return true
		}
	}
	return false
}
