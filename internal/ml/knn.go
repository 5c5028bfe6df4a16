package ml

import (
	"errors"
	"sort"
)

// KNN is a Euclidean k-nearest-neighbour classifier over 0/1 labels.
type KNN struct {
	K int
	X [][]float64
	Y []int
}

func NewKNN(k int, X [][]float64, y []int) (*KNN, error) {
	if _, _, err := dims(X); err != nil {
		return nil, err
	}
	if len(y) != len(X) {
		return nil, errors.New("ml: X and y length mismatch")
	}
	if k < 1 || k > len(X) {
		return nil, errors.New("ml: k must be in [1, n]")
	}
	return &KNN{K: k, X: X, Y: y}, nil
}

// Predict returns the majority label of the K nearest rows. Equidistant rows
// are taken in training order and a tied vote resolves to 0.
func (m *KNN) Predict(row []float64) int {
	type cand struct {
		i int
		d float64
	}
	cands := make([]cand, len(m.X))
	for i, x := range m.X {
		cands[i] = cand{i, sqDist(row, x)}
	}
	sort.SliceStable(cands, func(a, b int) bool { return cands[a].d < cands[b].d })
	var ones int
	for _, c := range cands[:m.K] {
		ones += m.Y[c.i]
	}
	if 2*ones > m.K {
		return 1
	}
	return 0
}
