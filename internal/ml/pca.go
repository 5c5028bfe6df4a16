package ml

import (
	"errors"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PCAFit holds the principal axes of a (standardized) data matrix.
// Components[k] is the loading vector of component k, sorted by decreasing
// explained variance.
type PCAFit struct {
	Components             [][]float64
	ExplainedVariance      []float64
	ExplainedVarianceRatio []float64
}

// PCA fits nComponents principal components to X via an eigen-decomposition
// of the sample covariance. nComponents is clamped to min(n, p).
func PCA(X [][]float64, nComponents int) (*PCAFit, error) {
	n, p, err := dims(X)
	if err != nil {
		return nil, err
	}
	if n < 2 {
		return nil, errors.New("ml: pca needs at least two samples")
	}
	if nComponents > n {
		nComponents = n
	}
	if nComponents > p {
		nComponents = p
	}
	if nComponents < 1 {
		return nil, errors.New("ml: pca needs at least one component")
	}

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, denseOf(X), nil)

	var eig mat.EigenSym
	if ok := eig.Factorize(&cov, true); !ok {
		return nil, errors.New("ml: covariance eigen-decomposition failed")
	}
	vals := eig.Values(nil) // ascending
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	var total float64
	for _, v := range vals {
		if v > 0 {
			total += v
		}
	}

	fit := &PCAFit{}
	for k := 0; k < nComponents; k++ {
		idx := p - 1 - k
		v := vals[idx]
		if v < 0 {
			v = 0
		}
		comp := make([]float64, p)
		for j := 0; j < p; j++ {
			comp[j] = vecs.At(j, idx)
		}
		ratio := 0.0
		if total > 0 {
			ratio = v / total
		}
		fit.Components = append(fit.Components, comp)
		fit.ExplainedVariance = append(fit.ExplainedVariance, v)
		fit.ExplainedVarianceRatio = append(fit.ExplainedVarianceRatio, ratio)
	}
	return fit, nil
}
