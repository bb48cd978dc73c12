package kernel

import (
	"math"
	"testing"
)

const eps = 1e-12

func TestRhoCorr(t *testing.T) {
	for i, c := range []struct {
		a, b, rho []float64
		corr      float64
	}{
		// Identical points are perfectly correlated.
		{[]float64{0.3}, []float64{0.3}, []float64{0.5}, 1},
		{[]float64{1, -2, 0.5}, []float64{1, -2, 0.5}, []float64{0.1, 0.9, 0.5}, 1},
		// rho = 1 means no decay along the dimension.
		{[]float64{0}, []float64{10}, []float64{1}, 1},
		// Unit distance: rho^4.
		{[]float64{0}, []float64{1}, []float64{0.5}, 0.0625},
		// Separable: per-dimension factors multiply.
		{[]float64{0, 0}, []float64{1, 1}, []float64{0.5, 0.8}, 0.0625 * math.Pow(0.8, 4)},
		// Quadratic distance dependence.
		{[]float64{0}, []float64{2}, []float64{0.5}, math.Pow(0.5, 16)},
	} {
		if corr := RhoCorr(c.a, c.b, c.rho); math.Abs(corr-c.corr) > eps {
			t.Errorf("%d: RhoCorr(%v, %v, %v): got %.8g, want %.8g",
				i, c.a, c.b, c.rho, corr, c.corr)
		}
	}
}

func TestRhoCorrSymmetric(t *testing.T) {
	a := []float64{0.2, -1.5, 3}
	b := []float64{1.1, 0.4, 2.5}
	rho := []float64{0.3, 0.7, 0.95}
	ab, ba := RhoCorr(a, b, rho), RhoCorr(b, a, rho)
	if ab != ba {
		t.Errorf("RhoCorr is not symmetric: %.17g != %.17g", ab, ba)
	}
}

func TestRhoCorrMatrix(t *testing.T) {
	a := [][]float64{{0, 0}, {1, 0.5}, {-2, 1}}
	b := [][]float64{{0.5, 0.5}, {2, -1}}
	rho := []float64{0.4, 0.8}
	m := RhoCorrMatrix(a, b, rho)
	if r, c := m.Dims(); r != len(a) || c != len(b) {
		t.Fatalf("wrong shape: got %dx%d, want %dx%d", r, c, len(a), len(b))
	}
	for i := range a {
		for j := range b {
			if m.At(i, j) != RhoCorr(a[i], b[j], rho) {
				t.Errorf("entry (%d,%d) disagrees with RhoCorr: %.8g != %.8g",
					i, j, m.At(i, j), RhoCorr(a[i], b[j], rho))
			}
		}
	}
}
