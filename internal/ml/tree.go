package ml

import (
	"errors"
	"sort"
)

// TreeParams controls CART growth.
type TreeParams struct {
	MaxDepth        int
	MinSamplesSplit int   // default 2
	MinSamplesLeaf  int   // default 1
	Features        []int // candidate split columns; nil means all
}

// Node is one node of a flattened tree. Leaves have Leaf set and carry the
// mean target of their rows in Value.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Value     float64 `json:"v"`
	Leaf      bool    `json:"leaf,omitempty"`
}

// Tree is a binary regression tree grown by minimising squared error. For
// 0/1 targets the squared-error criterion picks the same splits as Gini, so
// the classifier below reuses it.
type Tree struct {
	Nodes     []Node `json:"nodes"`
	NFeatures int    `json:"n_features"`
	// Gain[j] is the total weighted impurity decrease of splits on column j.
	Gain []float64 `json:"gain"`
}

// FitTree grows a tree on the given rows of X (all rows when rows is nil).
func FitTree(X [][]float64, y []float64, rows []int, params TreeParams) (*Tree, error) {
	n, p, err := dims(X)
	if err != nil {
		return nil, err
	}
	if len(y) != n {
		return nil, errors.New("ml: X and y length mismatch")
	}
	if rows == nil {
		rows = make([]int, n)
		for i := range rows {
			rows[i] = i
		}
	}
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	if params.MinSamplesSplit < 2 {
		params.MinSamplesSplit = 2
	}
	if params.MinSamplesLeaf < 1 {
		params.MinSamplesLeaf = 1
	}
	if params.Features == nil {
		params.Features = make([]int, p)
		for j := range params.Features {
			params.Features[j] = j
		}
	}

	b := &treeBuilder{X: X, y: y, params: params, total: float64(len(rows))}
	b.tree = &Tree{NFeatures: p, Gain: make([]float64, p)}
	b.grow(append([]int(nil), rows...), 0)
	return b.tree, nil
}

type treeBuilder struct {
	X      [][]float64
	y      []float64
	params TreeParams
	total  float64
	tree   *Tree
}

func (b *treeBuilder) grow(rows []int, depth int) int {
	idx := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, Node{Leaf: true, Value: b.mean(rows)})

	if depth >= b.params.MaxDepth || len(rows) < b.params.MinSamplesSplit {
		return idx
	}
	split, ok := b.bestSplit(rows)
	if !ok {
		return idx
	}

	var left, right []int
	for _, r := range rows {
		if b.X[r][split.feature] <= split.threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	b.tree.Gain[split.feature] += split.gain / b.total

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.tree.Nodes[idx] = Node{Feature: split.feature, Threshold: split.threshold, Left: l, Right: r, Value: b.tree.Nodes[idx].Value}
	return idx
}

type splitCandidate struct {
	feature   int
	threshold float64
	gain      float64
}

func (b *treeBuilder) bestSplit(rows []int) (splitCandidate, bool) {
	n := len(rows)
	var sum, sumSq float64
	for _, r := range rows {
		sum += b.y[r]
		sumSq += b.y[r] * b.y[r]
	}
	parent := sumSq - sum*sum/float64(n)

	best := splitCandidate{gain: 1e-12}
	found := false
	order := make([]int, n)
	minLeaf := b.params.MinSamplesLeaf
	for _, f := range b.params.Features {
		copy(order, rows)
		sort.SliceStable(order, func(i, j int) bool { return b.X[order[i]][f] < b.X[order[j]][f] })

		var ls, lss float64
		for i := 0; i < n-1; i++ {
			yv := b.y[order[i]]
			ls += yv
			lss += yv * yv
			nl := i + 1
			nr := n - nl
			if nl < minLeaf || nr < minLeaf {
				continue
			}
			lo, hi := b.X[order[i]][f], b.X[order[i+1]][f]
			if lo == hi {
				continue
			}
			rs, rss := sum-ls, sumSq-lss
			sse := (lss - ls*ls/float64(nl)) + (rss - rs*rs/float64(nr))
			if g := parent - sse; g > best.gain {
				th := lo + (hi-lo)/2
				if th >= hi {
					th = lo
				}
				best = splitCandidate{feature: f, threshold: th, gain: g}
				found = true
			}
		}
	}
	return best, found
}

func (b *treeBuilder) mean(rows []int) float64 {
	var s float64
	for _, r := range rows {
		s += b.y[r]
	}
	return s / float64(len(rows))
}

// Predict walks the tree for one row.
func (t *Tree) Predict(row []float64) float64 {
	i := 0
	for {
		nd := &t.Nodes[i]
		if nd.Leaf {
			return nd.Value
		}
		if row[nd.Feature] <= nd.Threshold {
			i = nd.Left
		} else {
			i = nd.Right
		}
	}
}

// FeatureImportance returns Gain normalised to sum to 1 (all zeros when the
// tree never split).
func (t *Tree) FeatureImportance() []float64 {
	return normalize(t.Gain)
}

func normalize(v []float64) []float64 {
	out := make([]float64, len(v))
	var total float64
	for _, x := range v {
		total += x
	}
	if total <= 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / total
	}
	return out
}

// TreeClassifier is a CART classifier over 0/1 labels.
type TreeClassifier struct {
	Tree *Tree
}

func FitTreeClassifier(X [][]float64, y []int, maxDepth int) (*TreeClassifier, error) {
	if len(y) == 0 {
		return nil, ErrEmpty
	}
	if !twoClasses(y) {
		return nil, ErrSingleClass
	}
	fy := make([]float64, len(y))
	for i, v := range y {
		fy[i] = float64(v)
	}
	t, err := FitTree(X, fy, nil, TreeParams{MaxDepth: maxDepth})
	if err != nil {
		return nil, err
	}
	return &TreeClassifier{Tree: t}, nil
}

// Predict returns the majority class of the leaf; an even leaf returns 0.
func (c *TreeClassifier) Predict(row []float64) int {
	if c.Tree.Predict(row) > 0.5 {
		return 1
	}
	return 0
}
