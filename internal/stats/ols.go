package stats

import (
	"math"

	"github.com/alphabench-lab/alphabench/pkg/errors"
)

// OLSResult holds a simple linear regression of y on x with an intercept.
type OLSResult struct {
	Slope     float64
	Intercept float64
	Residuals []float64
}

// OLS fits y = intercept + slope*x by ordinary least squares. It returns an
// error when fewer than two points are given or when x has zero variance
// (singular regression).
func OLS(y, x []float64) (OLSResult, error) {
	if len(y) != len(x) {
		return OLSResult{}, errors.Newf(errors.ErrCodeMisalignedSeries,
			"regression series lengths differ: %d vs %d", len(y), len(x))
	}

	if len(y) < 2 {
		return OLSResult{}, errors.Newf(errors.ErrCodeInvalidSeriesLength,
			"regression requires at least 2 points, got %d", len(y))
	}

	meanX := Mean(x)
	meanY := Mean(y)

	var sxx, sxy float64

	for i := range x {
		dx := x[i] - meanX
		sxx += dx * dx
		sxy += dx * (y[i] - meanY)
	}

	if sxx == 0 {
		return OLSResult{}, errors.New(errors.ErrCodeSingularRegression,
			"regressor has zero variance")
	}

	slope := sxy / sxx
	intercept := meanY - slope*meanX

	residuals := make([]float64, len(y))
	for i := range y {
		residuals[i] = y[i] - intercept - slope*x[i]
	}

	return OLSResult{
		Slope:     slope,
		Intercept: intercept,
		Residuals: residuals,
	}, nil
}

// fitResult holds a multi-regressor least squares fit.
type fitResult struct {
	coefs   []float64
	stderrs []float64
	ssr     float64
	nobs    int
}

// fitOLS fits y against the given regressor columns by solving the normal
// equations with Gaussian elimination. All columns must have the same length
// as y. It returns an error when the design matrix is singular or the system
// is underdetermined.
func fitOLS(y []float64, cols [][]float64) (*fitResult, error) {
	n := len(y)
	k := len(cols)

	if k == 0 {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "no regressors given")
	}

	for _, col := range cols {
		if len(col) != n {
			return nil, errors.Newf(errors.ErrCodeMisalignedSeries,
				"regressor length %d does not match %d observations", len(col), n)
		}
	}

	if n <= k {
		return nil, errors.Newf(errors.ErrCodeInvalidSeriesLength,
			"underdetermined regression: %d observations for %d regressors", n, k)
	}

	// Normal equations: (X'X) b = X'y.
	xtx := make([][]float64, k)
	xty := make([]float64, k)

	for i := 0; i < k; i++ {
		xtx[i] = make([]float64, k)

		for j := 0; j < k; j++ {
			var sum float64
			for t := 0; t < n; t++ {
				sum += cols[i][t] * cols[j][t]
			}

			xtx[i][j] = sum
		}

		var sum float64
		for t := 0; t < n; t++ {
			sum += cols[i][t] * y[t]
		}

		xty[i] = sum
	}

	inv, err := invertMatrix(xtx)
	if err != nil {
		return nil, err
	}

	coefs := make([]float64, k)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			coefs[i] += inv[i][j] * xty[j]
		}
	}

	var ssr float64

	for t := 0; t < n; t++ {
		fitted := 0.0
		for i := 0; i < k; i++ {
			fitted += coefs[i] * cols[i][t]
		}

		resid := y[t] - fitted
		ssr += resid * resid
	}

	sigma2 := ssr / float64(n-k)

	stderrs := make([]float64, k)
	for i := 0; i < k; i++ {
		stderrs[i] = math.Sqrt(sigma2 * inv[i][i])
	}

	return &fitResult{
		coefs:   coefs,
		stderrs: stderrs,
		ssr:     ssr,
		nobs:    n,
	}, nil
}

// invertMatrix inverts a small symmetric positive matrix by Gauss-Jordan
// elimination with partial pivoting.
func invertMatrix(m [][]float64) ([][]float64, error) {
	k := len(m)

	aug := make([][]float64, k)
	for i := 0; i < k; i++ {
		aug[i] = make([]float64, 2*k)
		copy(aug[i], m[i])
		aug[i][k+i] = 1
	}

	for col := 0; col < k; col++ {
		pivot := col
		for row := col + 1; row < k; row++ {
			if math.Abs(aug[row][col]) > math.Abs(aug[pivot][col]) {
				pivot = row
			}
		}

		if math.Abs(aug[pivot][col]) < 1e-12 {
			return nil, errors.New(errors.ErrCodeSingularRegression,
				"design matrix is singular")
		}

		aug[col], aug[pivot] = aug[pivot], aug[col]

		pivotVal := aug[col][col]
		for j := 0; j < 2*k; j++ {
			aug[col][j] /= pivotVal
		}

		for row := 0; row < k; row++ {
			if row == col {
				continue
			}

			factor := aug[row][col]
			for j := 0; j < 2*k; j++ {
				aug[row][j] -= factor * aug[col][j]
			}
		}
	}

	inv := make([][]float64, k)
	for i := 0; i < k; i++ {
		inv[i] = aug[i][k:]
	}

	return inv, nil
}
