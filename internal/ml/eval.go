package ml

import "math"

// MSE is the mean squared error between truth and pred.
func MSE(truth, pred []float64) float64 {
	if len(truth) == 0 {
		return 0
	}
	var s float64
	for i := range truth {
		d := truth[i] - pred[i]
		s += d * d
	}
	return s / float64(len(truth))
}

func RMSE(truth, pred []float64) float64 {
	return math.Sqrt(MSE(truth, pred))
}

func MAE(truth, pred []float64) float64 {
	if len(truth) == 0 {
		return 0
	}
	var s float64
	for i := range truth {
		s += math.Abs(truth[i] - pred[i])
	}
	return s / float64(len(truth))
}

// R2 is the coefficient of determination. A constant target scores 1 for a
// perfect fit and 0 otherwise.
func R2(truth, pred []float64) float64 {
	if len(truth) == 0 {
		return 0
	}
	var mean float64
	for _, v := range truth {
		mean += v
	}
	mean /= float64(len(truth))
	var ssRes, ssTot float64
	for i := range truth {
		d := truth[i] - pred[i]
		ssRes += d * d
		t := truth[i] - mean
		ssTot += t * t
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

// Accuracy is the fraction of equal labels.
func Accuracy(truth, pred []int) float64 {
	if len(truth) == 0 {
		return 0
	}
	var hit int
	for i := range truth {
		if truth[i] == pred[i] {
			hit++
		}
	}
	return float64(hit) / float64(len(truth))
}
