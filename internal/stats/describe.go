// Package stats provides the statistical kernels behind the strategies, the
// pair scan and the risk metrics: rolling window statistics, descriptive
// statistics, ordinary least squares, the augmented Dickey-Fuller test with
// MacKinnon p-values, the Engle-Granger cointegration test and normal
// distribution helpers. Undefined values (unfilled windows, degenerate
// denominators) are represented as NaN unless a function documents otherwise.
package stats

import (
	"math"
	"sort"

	"github.com/alphabench-lab/alphabench/pkg/errors"
)

// Mean returns the arithmetic mean of xs, or NaN for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}

	var sum float64
	for _, x := range xs {
		sum += x
	}

	return sum / float64(len(xs))
}

// Variance returns the sample variance of xs (normalized by n-1), or NaN
// when fewer than two values are given.
func Variance(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}

	mean := Mean(xs)

	var squaredDiffSum float64
	for _, x := range xs {
		diff := x - mean
		squaredDiffSum += diff * diff
	}

	return squaredDiffSum / float64(len(xs)-1)
}

// StdDev returns the sample standard deviation of xs (normalized by n-1),
// or NaN when fewer than two values are given.
func StdDev(xs []float64) float64 {
	return math.Sqrt(Variance(xs))
}

// Covariance returns the sample covariance of xs and ys (normalized by n-1).
// Both slices must have the same length; NaN is returned for fewer than two
// points.
func Covariance(xs, ys []float64) float64 {
	if len(xs) != len(ys) || len(xs) < 2 {
		return math.NaN()
	}

	meanX := Mean(xs)
	meanY := Mean(ys)

	var sum float64
	for i := range xs {
		sum += (xs[i] - meanX) * (ys[i] - meanY)
	}

	return sum / float64(len(xs)-1)
}

// Percentile returns the q-th percentile (0 <= q <= 100) of xs using linear
// interpolation between closest ranks. It returns an error for an empty
// slice or a percentile outside [0, 100].
func Percentile(xs []float64, q float64) (float64, error) {
	if len(xs) == 0 {
		return 0, errors.New(errors.ErrCodeInvalidSeriesLength, "cannot take percentile of empty series")
	}

	if q < 0 || q > 100 {
		return 0, errors.Newf(errors.ErrCodeInvalidPercentile, "percentile must be in [0, 100], got %f", q)
	}

	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0], nil
	}

	rank := q / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))

	if lower == upper {
		return sorted[lower], nil
	}

	weight := rank - float64(lower)

	return sorted[lower]*(1-weight) + sorted[upper]*weight, nil
}

// Sum returns the sum of xs.
func Sum(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}

	return sum
}
