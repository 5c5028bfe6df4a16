// Package ml holds the small numeric kernels the engine needs: feature
// scaling, PCA, k-means, least squares, logistic regression, k-NN, CART
// trees and a gradient-boosted regression ensemble. Inputs are row-major
// [][]float64 matrices; every fit is deterministic for a given seed.
package ml
