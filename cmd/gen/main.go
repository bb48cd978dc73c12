package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/cosmosim/emugp/kernel"
)

var (
	N       = 50
	DIM     = 1
	OUTPUTS = 1
	RHO     = 0.5
	PREC    = 1.
	NOISE   = 1e-4
	SEED    = int64(0)
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			`Generate a synthetic design set by sampling from the
Gaussian-process prior. Invocation:
	%s [OPTIONS] > DESIGN.csv
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.IntVar(&N, "n", N, "number of design points")
	flag.IntVar(&DIM, "dim", DIM, "input dimension")
	flag.IntVar(&OUTPUTS, "outputs", OUTPUTS, "output channels")
	flag.Float64Var(&RHO, "rho", RHO, "correlation length in (0,1], shared by all dimensions")
	flag.Float64Var(&PREC, "prec", PREC, "channel precision")
	flag.Float64Var(&NOISE, "noise", NOISE, "observation noise variance")
	flag.Int64Var(&SEED, "seed", SEED, "random seed; 0 seeds from the clock")
}

func main() {
	flag.Parse()
	if flag.NArg() != 0 {
		flag.Usage()
		os.Exit(2)
	}
	if SEED == 0 {
		SEED = time.Now().UTC().UnixNano()
	}
	rng := rand.New(rand.NewSource(SEED))

	rho := make([]float64, DIM)
	for d := range rho {
		rho[d] = RHO
	}

	x := make([][]float64, N)
	for i := range x {
		x[i] = make([]float64, DIM)
		for d := range x[i] {
			x[i][d] = rng.Float64()
		}
	}

	// Prior covariance of the design values in one channel.
	cov := mat.NewSymDense(N, nil)
	corr := kernel.RhoCorrMatrix(x, x, rho)
	for i := 0; i < N; i++ {
		for j := i; j < N; j++ {
			v := corr.At(i, j) / PREC
			if i == j {
				v += NOISE
			}
			cov.SetSym(i, j, v)
		}
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(cov); !ok {
		fmt.Fprintln(os.Stderr, "prior covariance is not positive definite")
		os.Exit(1)
	}
	var l mat.TriDense
	chol.LTo(&l)

	// One independent draw per channel: y = L z, z standard normal.
	y := make([][]float64, OUTPUTS)
	z := mat.NewVecDense(N, nil)
	for i := range y {
		for j := 0; j < N; j++ {
			z.SetVec(j, rng.NormFloat64())
		}
		draw := mat.NewVecDense(N, nil)
		draw.MulVec(&l, z)
		y[i] = make([]float64, N)
		for j := 0; j < N; j++ {
			y[i][j] = draw.AtVec(j)
		}
	}

	for j := 0; j < N; j++ {
		for d := 0; d < DIM; d++ {
			fmt.Printf("%f,", x[j][d])
		}
		for i := 0; i < OUTPUTS; i++ {
			if i > 0 {
				fmt.Print(",")
			}
			fmt.Printf("%f", y[i][j])
		}
		fmt.Println()
	}
}
