package ml

import (
	"math"
	"sort"
)

// TopK returns the indices of the k largest |values|, largest first. Ties
// keep the lower index first.
func TopK(values []float64, k int) []int {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return math.Abs(values[idx[a]]) > math.Abs(values[idx[b]])
	})
	if k < len(idx) {
		idx = idx[:k]
	}
	return idx
}
