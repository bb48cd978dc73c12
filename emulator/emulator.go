// Package emulator fits a multi-output Gaussian process to a set of
// design points and predicts the response surface at new inputs. The
// correlation lengths, channel precisions and observation covariance
// are supplied by the caller; no hyperparameter estimation is done here.
package emulator

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/cosmosim/emugp/kernel"
)

// ErrNotPositiveDefinite is returned by New when the design covariance
// plus observation covariance admits no Cholesky factorization.
var ErrNotPositiveDefinite = errors.New("emulator: design covariance is not positive definite")

// GP is a fitted multi-output Gaussian process emulator. All state is
// set by New; a fitted model is immutable and safe for concurrent
// Predict calls.
type GP struct {
	NData     int // number of design points
	NDimInput int // input dimension
	NOutput   int // output channels

	x     [][]float64
	rho   [][]float64
	precF []float64

	chol  mat.Cholesky
	krig  *mat.VecDense // kriging weights, output-major
	yFlat *mat.VecDense
}

// New fits an emulator to a design set. x holds the design points and y
// the matching observed outputs, one vector per point. precF is the
// prior marginal precision of each output channel, rho the per-channel,
// per-dimension correlation lengths in (0, 1], and covN the square
// observation covariance of side NOutput*NData, laid out output-major:
// flat index i*NData+j is channel i at design point j.
func New(x, y [][]float64, precF []float64, covN *mat.SymDense, rho [][]float64) (*GP, error) {
	nData := len(x)
	if nData == 0 {
		return nil, errors.New("emulator: empty design set")
	}
	if len(y) != nData {
		return nil, fmt.Errorf("emulator: %d design points but %d design values", nData, len(y))
	}
	nDim := len(x[0])
	nOut := len(y[0])
	for i := range x {
		if len(x[i]) != nDim {
			return nil, fmt.Errorf("emulator: design point %d has dimension %d, want %d", i, len(x[i]), nDim)
		}
		if len(y[i]) != nOut {
			return nil, fmt.Errorf("emulator: design value %d has %d outputs, want %d", i, len(y[i]), nOut)
		}
	}
	if len(precF) != nOut {
		return nil, fmt.Errorf("emulator: %d precisions for %d outputs", len(precF), nOut)
	}
	if len(rho) != nOut {
		return nil, fmt.Errorf("emulator: %d correlation rows for %d outputs", len(rho), nOut)
	}
	for i := range rho {
		if len(rho[i]) != nDim {
			return nil, fmt.Errorf("emulator: correlation row %d has %d entries, want %d", i, len(rho[i]), nDim)
		}
		for d, r := range rho[i] {
			if !(r > 0 && r <= 1) {
				return nil, fmt.Errorf("emulator: rho[%d][%d] = %v outside (0, 1]", i, d, r)
			}
		}
	}
	n := nOut * nData
	if covN.SymmetricDim() != n {
		return nil, fmt.Errorf("emulator: observation covariance has side %d, want %d", covN.SymmetricDim(), n)
	}

	// Design values flattened output-major.
	yFlat := mat.NewVecDense(n, nil)
	for j := 0; j < nData; j++ {
		for i := 0; i < nOut; i++ {
			yFlat.SetVec(i*nData+j, y[j][i])
		}
	}

	m := designCovariance(x, precF, rho)
	m.AddSym(m, covN)

	g := &GP{
		NData:     nData,
		NDimInput: nDim,
		NOutput:   nOut,
		x:         x,
		rho:       rho,
		precF:     precF,
		yFlat:     yFlat,
	}
	if ok := g.chol.Factorize(m); !ok {
		return nil, ErrNotPositiveDefinite
	}
	g.krig = mat.NewVecDense(n, nil)
	if err := g.chol.SolveVecTo(g.krig, yFlat); err != nil {
		return nil, fmt.Errorf("emulator: solving kriging weights: %w", err)
	}
	return g, nil
}

// designCovariance assembles the prior covariance of the flattened
// design values: block-diagonal across output channels, with block i
// the design correlation matrix under rho[i] divided by precF[i].
// Cross-channel covariance enters only through the observation
// covariance added by the caller.
func designCovariance(x [][]float64, precF []float64, rho [][]float64) *mat.SymDense {
	nData := len(x)
	m := mat.NewSymDense(len(precF)*nData, nil)
	for i := range precF {
		block := kernel.RhoCorrMatrix(x, x, rho[i])
		off := i * nData
		for r := 0; r < nData; r++ {
			for c := r; c < nData; c++ {
				m.SetSym(off+r, off+c, block.At(r, c)/precF[i])
			}
		}
	}
	return m
}

// Predict returns the posterior mean and covariance at a single input
// point. mean has one entry per output channel; cov is the full
// NOutput by NOutput cross-channel predictive covariance, with the
// per-channel predictive variances on the diagonal.
func (g *GP) Predict(xNew []float64) (mean []float64, cov *mat.Dense, err error) {
	if len(xNew) != g.NDimInput {
		return nil, nil, fmt.Errorf("emulator: evaluation point has dimension %d, want %d", len(xNew), g.NDimInput)
	}

	// Cross-correlation with the design, mirroring the block layout
	// of the design covariance.
	n := g.NOutput * g.NData
	c := mat.NewDense(g.NOutput, n, nil)
	for i := 0; i < g.NOutput; i++ {
		off := i * g.NData
		for j := 0; j < g.NData; j++ {
			c.Set(i, off+j, kernel.RhoCorr(xNew, g.x[j], g.rho[i])/g.precF[i])
		}
	}

	mean = make([]float64, g.NOutput)
	for i := range mean {
		mean[i] = floats.Dot(c.RawRowView(i), g.krig.RawVector().Data)
	}

	v := mat.NewDense(n, g.NOutput, nil)
	if err := g.chol.SolveTo(v, c.T()); err != nil {
		return nil, nil, fmt.Errorf("emulator: predictive covariance solve: %w", err)
	}
	cov = mat.NewDense(g.NOutput, g.NOutput, nil)
	cov.Mul(c, v)
	cov.Scale(-1, cov)
	for i := 0; i < g.NOutput; i++ {
		cov.Set(i, i, cov.At(i, i)+1/g.precF[i])
	}
	return mean, cov, nil
}

// Produce predicts the posterior mean and covariance at each
// evaluation point in z.
func (g *GP) Produce(z [][]float64) (means [][]float64, covs []*mat.Dense, err error) {
	means = make([][]float64, len(z))
	covs = make([]*mat.Dense, len(z))
	for k := range z {
		means[k], covs[k], err = g.Predict(z[k])
		if err != nil {
			return nil, nil, err
		}
	}
	return means, covs, nil
}

// LogLikelihood returns the log marginal likelihood of the design
// values under the fitted model.
func (g *GP) LogLikelihood() float64 {
	n := float64(g.yFlat.Len())
	return -0.5*mat.Dot(g.yFlat, g.krig) -
		0.5*g.chol.LogDet() -
		0.5*n*math.Log(2*math.Pi)
}
