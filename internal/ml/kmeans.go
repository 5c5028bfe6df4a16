package ml

import (
	"errors"
	"math"
	"math/rand"
)

// KMeansParams configures KMeans. Zero values take the defaults below.
type KMeansParams struct {
	K        int
	Restarts int   // default 10
	MaxIter  int   // default 300
	Seed     int64 // default 42
}

// KMeansFit is the best clustering over all restarts.
type KMeansFit struct {
	Labels    []int
	Centroids [][]float64
	Inertia   float64
}

// KMeans partitions X into K clusters with k-means++ seeding, keeping the
// restart with the lowest inertia.
func KMeans(X [][]float64, params KMeansParams) (*KMeansFit, error) {
	n, _, err := dims(X)
	if err != nil {
		return nil, err
	}
	if params.K < 1 || params.K > n {
		return nil, errors.New("ml: k must be in [1, n]")
	}
	if params.Restarts <= 0 {
		params.Restarts = 10
	}
	if params.MaxIter <= 0 {
		params.MaxIter = 300
	}
	if params.Seed == 0 {
		params.Seed = 42
	}

	rng := rand.New(rand.NewSource(params.Seed))
	var best *KMeansFit
	for r := 0; r < params.Restarts; r++ {
		fit := lloyd(X, seedPlusPlus(X, params.K, rng), params.MaxIter)
		if best == nil || fit.Inertia < best.Inertia {
			best = fit
		}
	}
	return best, nil
}

func seedPlusPlus(X [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(X)
	centroids := [][]float64{clone(X[rng.Intn(n)])}
	d2 := make([]float64, n)
	for len(centroids) < k {
		var sum float64
		for i, row := range X {
			d2[i] = math.Inf(1)
			for _, c := range centroids {
				if d := sqDist(row, c); d < d2[i] {
					d2[i] = d
				}
			}
			sum += d2[i]
		}
		next := rng.Intn(n)
		if sum > 0 {
			target := rng.Float64() * sum
			for i, d := range d2 {
				target -= d
				if target <= 0 {
					next = i
					break
				}
			}
		}
		centroids = append(centroids, clone(X[next]))
	}
	return centroids
}

func lloyd(X [][]float64, centroids [][]float64, maxIter int) *KMeansFit {
	n, p, k := len(X), len(X[0]), len(centroids)
	labels := make([]int, n)
	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, row := range X {
			if c := nearest(row, centroids); c != labels[i] {
				labels[i] = c
				changed = true
			}
		}
		counts := make([]int, k)
		sums := make([][]float64, k)
		for c := range sums {
			sums[c] = make([]float64, p)
		}
		for i, row := range X {
			counts[labels[i]]++
			for j, v := range row {
				sums[labels[i]][j] += v
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				// Re-seed an empty cluster on the point farthest from its centroid.
				far, farD := 0, -1.0
				for i, row := range X {
					if d := sqDist(row, centroids[labels[i]]); d > farD {
						far, farD = i, d
					}
				}
				centroids[c] = clone(X[far])
				labels[far] = c
				changed = true
				continue
			}
			for j := range sums[c] {
				centroids[c][j] = sums[c][j] / float64(counts[c])
			}
		}
		if !changed && iter > 0 {
			break
		}
	}
	var inertia float64
	for i, row := range X {
		labels[i] = nearest(row, centroids)
		inertia += sqDist(row, centroids[labels[i]])
	}
	return &KMeansFit{Labels: labels, Centroids: centroids, Inertia: inertia}
}

func nearest(row []float64, centroids [][]float64) int {
	best, bestD := 0, math.Inf(1)
	for c, cen := range centroids {
		if d := sqDist(row, cen); d < bestD {
			best, bestD = c, d
		}
	}
	return best
}

func sqDist(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}
