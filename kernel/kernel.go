package kernel

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// RhoCorr computes the separable anisotropic correlation between input
// points a and b. rho holds one correlation length per input dimension,
// each in (0, 1]: 1 means no decay along that dimension, values near 0
// decorrelate quickly. The form is equivalent to a squared-exponential
// kernel exp(-theta*(a-b)^2) per dimension, with theta = -4*ln(rho).
func RhoCorr(a, b, rho []float64) float64 {
	corr := 1.
	for d := range rho {
		h := a[d] - b[d]
		corr *= math.Pow(rho[d], 4*h*h)
	}
	return corr
}

// RhoCorrMatrix computes pairwise correlations between two sequences of
// input points. Entry (i, j) is RhoCorr(a[i], b[j], rho).
func RhoCorrMatrix(a, b [][]float64, rho []float64) *mat.Dense {
	m := mat.NewDense(len(a), len(b), nil)
	for i := range a {
		for j := range b {
			m.Set(i, j, RhoCorr(a[i], b[j], rho))
		}
	}
	return m
}
