package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
)

// BoostParams configures gradient boosting.
type BoostParams struct {
	Trees           int     `json:"n_estimators"`
	MaxDepth        int     `json:"max_depth"`
	LearningRate    float64 `json:"learning_rate"`
	Subsample       float64 `json:"subsample"`
	ColsampleByTree float64 `json:"colsample_bytree"`
	Seed            int64   `json:"random_state"`
}

// DefaultBoostParams are the role-model training defaults.
func DefaultBoostParams() BoostParams {
	return BoostParams{
		Trees:           200,
		MaxDepth:        6,
		LearningRate:    0.05,
		Subsample:       0.8,
		ColsampleByTree: 0.8,
		Seed:            42,
	}
}

func (p BoostParams) validate() error {
	switch {
	case p.Trees < 1:
		return errors.New("ml: n_estimators must be positive")
	case p.MaxDepth < 1:
		return errors.New("ml: max_depth must be positive")
	case p.LearningRate <= 0 || p.LearningRate > 1:
		return errors.New("ml: learning_rate must be in (0, 1]")
	case p.Subsample <= 0 || p.Subsample > 1:
		return errors.New("ml: subsample must be in (0, 1]")
	case p.ColsampleByTree <= 0 || p.ColsampleByTree > 1:
		return errors.New("ml: colsample_bytree must be in (0, 1]")
	}
	return nil
}

// Ensemble is a squared-error gradient-boosted regression tree model bound
// to an ordered feature list. Prediction is positional: rows must follow
// Features.
type Ensemble struct {
	Features     []string    `json:"features"`
	BaseScore    float64     `json:"base_score"`
	LearningRate float64     `json:"learning_rate"`
	Params       BoostParams `json:"params"`
	Trees        []*Tree     `json:"trees"`
}

// FitEnsemble boosts trees on X (columns named by features) against y.
func FitEnsemble(X [][]float64, y []float64, features []string, params BoostParams) (*Ensemble, error) {
	n, p, err := dims(X)
	if err != nil {
		return nil, err
	}
	if len(y) != n {
		return nil, errors.New("ml: X and y length mismatch")
	}
	if len(features) != p {
		return nil, fmt.Errorf("ml: %d feature names for %d columns", len(features), p)
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	var base float64
	for _, v := range y {
		base += v
	}
	base /= float64(n)

	e := &Ensemble{
		Features:     append([]string(nil), features...),
		BaseScore:    base,
		LearningRate: params.LearningRate,
		Params:       params,
	}

	rng := rand.New(rand.NewSource(params.Seed))
	pred := make([]float64, n)
	for i := range pred {
		pred[i] = base
	}
	resid := make([]float64, n)
	nRows := max(1, int(params.Subsample*float64(n)))
	nCols := max(1, int(params.ColsampleByTree*float64(p)))

	for t := 0; t < params.Trees; t++ {
		for i := range resid {
			resid[i] = y[i] - pred[i]
		}
		rows := rng.Perm(n)[:nRows]
		cols := rng.Perm(p)[:nCols]
		tree, err := FitTree(X, resid, rows, TreeParams{MaxDepth: params.MaxDepth, Features: cols})
		if err != nil {
			return nil, fmt.Errorf("fit tree %d: %w", t, err)
		}
		e.Trees = append(e.Trees, tree)
		for i, row := range X {
			pred[i] += params.LearningRate * tree.Predict(row)
		}
	}
	return e, nil
}

// Predict scores one row laid out in Features order.
func (e *Ensemble) Predict(row []float64) float64 {
	out := e.BaseScore
	for _, t := range e.Trees {
		out += e.LearningRate * t.Predict(row)
	}
	return out
}

// FeatureImportance is the total split gain per feature across all trees,
// normalised to sum to 1.
func (e *Ensemble) FeatureImportance() []float64 {
	gain := make([]float64, len(e.Features))
	for _, t := range e.Trees {
		for j, g := range t.Gain {
			if j < len(gain) {
				gain[j] += g
			}
		}
	}
	return normalize(gain)
}

// Validate checks that a decoded ensemble is internally consistent.
func (e *Ensemble) Validate() error {
	if len(e.Features) == 0 {
		return errors.New("ml: ensemble has no features")
	}
	if len(e.Trees) == 0 {
		return errors.New("ml: ensemble has no trees")
	}
	for ti, t := range e.Trees {
		if t == nil || len(t.Nodes) == 0 {
			return fmt.Errorf("ml: tree %d is empty", ti)
		}
		for ni, nd := range t.Nodes {
			if nd.Leaf {
				continue
			}
			if nd.Feature < 0 || nd.Feature >= len(e.Features) ||
				nd.Left <= ni || nd.Left >= len(t.Nodes) ||
				nd.Right <= ni || nd.Right >= len(t.Nodes) {
				return fmt.Errorf("ml: tree %d node %d is malformed", ti, ni)
			}
		}
	}
	return nil
}

// MarshalBinary encodes the ensemble as JSON.
func (e *Ensemble) MarshalBinary() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalBinary decodes and validates a JSON ensemble.
func (e *Ensemble) UnmarshalBinary(b []byte) error {
	var dec Ensemble
	if err := json.Unmarshal(b, &dec); err != nil {
		return fmt.Errorf("decode ensemble: %w", err)
	}
	if err := dec.Validate(); err != nil {
		return err
	}
	*e = dec
	return nil
}
