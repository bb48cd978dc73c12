package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/cosmosim/emugp/emulator"
)

var (
	OUTPUTS   = 1
	RHO       = "0.5"
	PREC      = "1"
	NOISE     = 1e-6
	NORMALIZE = false
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			`Fit a Gaussian-process emulator to a design set and predict at
new points. Invocation:
  %s [OPTIONS] DESIGN.csv < POINTS.csv > PREDICTIONS.csv
or
  %s [OPTIONS] selfcheck
Design rows hold the input coordinates followed by the output values.
Each prediction row holds the input coordinates followed by the
posterior mean and standard deviation of every output channel.
In 'selfcheck' mode, the data hard-coded into the program is used,
to demonstrate basic functionality.
`, os.Args[0], os.Args[0])
		flag.PrintDefaults()
	}
	flag.IntVar(&OUTPUTS, "outputs", OUTPUTS,
		"number of output columns in the design file")
	flag.StringVar(&RHO, "rho", RHO,
		"correlation lengths in (0,1], comma-separated; "+
			"one per input dimension, or a full per-channel list")
	flag.StringVar(&PREC, "prec", PREC,
		"channel precisions, comma-separated; "+
			"a single value applies to all channels")
	flag.Float64Var(&NOISE, "noise", NOISE,
		"observation noise variance, added to the covariance diagonal")
	flag.BoolVar(&NORMALIZE, "normalize", NORMALIZE,
		"standardize outputs before fitting")
}

func main() {
	var (
		design io.Reader
		points io.Reader = os.Stdin
		output io.Writer = os.Stdout
	)

	flag.Parse()
	switch {
	case flag.NArg() == 1 && flag.Arg(0) == "selfcheck":
		design = strings.NewReader(selfCheckDesign)
		points = strings.NewReader(selfCheckPoints)
	case flag.NArg() == 1:
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			panic(err)
		}
		defer f.Close()
		design = f
	default:
		flag.Usage()
		os.Exit(2)
	}

	fmt.Fprint(os.Stderr, "loading...")
	x, y, err := load(design, OUTPUTS)
	if err != nil {
		panic(err)
	}
	fmt.Fprintln(os.Stderr, "done")
	if len(x) == 0 {
		panic("empty design set")
	}
	nDim := len(x[0])

	rho, err := parseRho(RHO, OUTPUTS, nDim)
	if err != nil {
		panic(err)
	}
	prec, err := parseList(PREC, OUTPUTS)
	if err != nil {
		panic(err)
	}

	// Normalize Y per channel
	meany := make([]float64, OUTPUTS)
	stdy := make([]float64, OUTPUTS)
	for i := range stdy {
		stdy[i] = 1
	}
	if NORMALIZE {
		col := make([]float64, len(y))
		for i := 0; i < OUTPUTS; i++ {
			for j := range y {
				col[j] = y[j][i]
			}
			meany[i], stdy[i] = stat.MeanStdDev(col, nil)
			for j := range y {
				y[j][i] = (y[j][i] - meany[i]) / stdy[i]
			}
		}
	}

	n := OUTPUTS * len(x)
	covN := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		covN.SetSym(i, i, NOISE)
	}

	fmt.Fprint(os.Stderr, "fitting...")
	g, err := emulator.New(x, y, prec, covN, rho)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to fit: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, "done")
	fmt.Fprintf(os.Stderr, "log marginal likelihood: %f\n", g.LogLikelihood())

	z, _, err := load(points, 0)
	if err != nil {
		panic(err)
	}
	for _, zk := range z {
		mu, cov, err := g.Predict(zk)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to predict at %v: %v\n", zk, err)
			os.Exit(1)
		}
		for j := range zk {
			fmt.Fprintf(output, "%f,", zk[j])
		}
		for i := range mu {
			if i > 0 {
				fmt.Fprint(output, ",")
			}
			fmt.Fprintf(output, "%f,%f",
				mu[i]*stdy[i]+meany[i],
				math.Sqrt(math.Max(cov.At(i, i), 0))*stdy[i])
		}
		fmt.Fprintln(output)
	}
}

// load parses csv records into input points and, when nOutputs > 0,
// matching output vectors taken from the trailing columns.
func load(rdr io.Reader, nOutputs int) (
	x [][]float64,
	y [][]float64,
	err error,
) {
	csv := csv.NewReader(rdr)
RECORDS:
	for {
		record, err := csv.Read()
		switch err {
		case nil:
			// record contains the data
			if len(record) <= nOutputs {
				return x, y, fmt.Errorf(
					"record has %d fields, need more than %d outputs",
					len(record), nOutputs)
			}
			fields := make([]float64, len(record))
			for i := range record {
				fields[i], err = strconv.ParseFloat(record[i], 64)
				if err != nil {
					// data error
					return x, y, err
				}
			}
			split := len(fields) - nOutputs
			x = append(x, fields[:split])
			if nOutputs > 0 {
				y = append(y, fields[split:])
			}
		case io.EOF:
			// end of file
			break RECORDS
		default:
			// i/o error
			return x, y, err
		}
	}

	return x, y, err
}

// parseList parses a comma-separated list of n floats; a single value
// is replicated n times.
func parseList(s string, n int) ([]float64, error) {
	fields := strings.Split(s, ",")
	vals := make([]float64, len(fields))
	for i := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	switch len(vals) {
	case n:
		return vals, nil
	case 1:
		out := make([]float64, n)
		for i := range out {
			out[i] = vals[0]
		}
		return out, nil
	default:
		return nil, fmt.Errorf("got %d values in %q, want 1 or %d", len(vals), s, n)
	}
}

// parseRho parses the correlation lengths into one row per output
// channel. A list of nDim values is shared by all channels; a list of
// nOut*nDim values is split into per-channel rows.
func parseRho(s string, nOut, nDim int) ([][]float64, error) {
	vals, err := parseList(s, nDim)
	if err == nil {
		rho := make([][]float64, nOut)
		for i := range rho {
			rho[i] = vals
		}
		return rho, nil
	}
	vals, err = parseList(s, nOut*nDim)
	if err != nil {
		return nil, fmt.Errorf("cannot parse %q as %d or %d correlation lengths",
			s, nDim, nOut*nDim)
	}
	rho := make([][]float64, nOut)
	for i := range rho {
		rho[i] = vals[i*nDim : (i+1)*nDim]
	}
	return rho, nil
}

var selfCheckDesign = `0.0,0.000000
0.5,0.479426
1.0,0.841471
1.5,0.997495
2.0,0.909297
2.5,0.598472
3.0,0.141120
3.5,-0.350783
4.0,-0.756802
`

var selfCheckPoints = `0.25
0.75
1.25
1.75
2.25
2.75
3.25
3.75
4.25
6.00
`
