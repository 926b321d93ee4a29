package stats

import (
	"math"
	"sort"
)

// RollingMean returns the rolling mean of xs over the given window. Entries
// before the window fills, and windows containing NaN input, are NaN.
func RollingMean(xs []float64, window int) []float64 {
	out := nanSlice(len(xs))
	if window <= 0 || window > len(xs) {
		return out
	}

	for i := window - 1; i < len(xs); i++ {
		var sum float64

		valid := true

		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(xs[j]) {
				valid = false
				break
			}

			sum += xs[j]
		}

		if valid {
			out[i] = sum / float64(window)
		}
	}

	return out
}

// RollingStd returns the rolling sample standard deviation (normalized by
// n-1) of xs over the given window. Entries before the window fills, and
// windows containing NaN input, are NaN.
func RollingStd(xs []float64, window int) []float64 {
	out := nanSlice(len(xs))
	if window <= 1 || window > len(xs) {
		return out
	}

	means := RollingMean(xs, window)

	for i := window - 1; i < len(xs); i++ {
		if math.IsNaN(means[i]) {
			continue
		}

		var squaredDiffSum float64

		for j := i - window + 1; j <= i; j++ {
			diff := xs[j] - means[i]
			squaredDiffSum += diff * diff
		}

		out[i] = math.Sqrt(squaredDiffSum / float64(window-1))
	}

	return out
}

// RollingQuantile returns the rolling q-th quantile (0 <= q <= 1) of xs over
// the given window, using linear interpolation. A window is NaN until it is
// full of non-NaN values.
func RollingQuantile(xs []float64, window int, q float64) []float64 {
	out := nanSlice(len(xs))
	if window <= 0 || window > len(xs) || q < 0 || q > 1 {
		return out
	}

	buf := make([]float64, 0, window)

	for i := window - 1; i < len(xs); i++ {
		buf = buf[:0]

		valid := true

		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(xs[j]) {
				valid = false
				break
			}

			buf = append(buf, xs[j])
		}

		if !valid {
			continue
		}

		sort.Float64s(buf)

		rank := q * float64(window-1)
		lower := int(math.Floor(rank))
		upper := int(math.Ceil(rank))

		if lower == upper {
			out[i] = buf[lower]
			continue
		}

		weight := rank - float64(lower)
		out[i] = buf[lower]*(1-weight) + buf[upper]*weight
	}

	return out
}

// PctChange returns the percentage change of xs over the given number of
// periods. The first periods entries are NaN, as is any entry whose base
// value is zero or NaN.
func PctChange(xs []float64, periods int) []float64 {
	out := nanSlice(len(xs))
	if periods <= 0 {
		return out
	}

	for i := periods; i < len(xs); i++ {
		base := xs[i-periods]
		if base == 0 || math.IsNaN(base) || math.IsNaN(xs[i]) {
			continue
		}

		out[i] = xs[i]/base - 1
	}

	return out
}

// Diff returns the first differences of xs with the first entry NaN.
func Diff(xs []float64) []float64 {
	out := nanSlice(len(xs))

	for i := 1; i < len(xs); i++ {
		if math.IsNaN(xs[i]) || math.IsNaN(xs[i-1]) {
			continue
		}

		out[i] = xs[i] - xs[i-1]
	}

	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	return out
}
