package risk

import (
	"math"

	"github.com/alphabench-lab/alphabench/internal/stats"
	"github.com/alphabench-lab/alphabench/pkg/errors"
)

// The relative ratios below return 0 when their denominator is zero: a
// portfolio with no tracking error, no downside or no drawdown has no
// meaningful ratio, and 0 keeps aggregations well defined.

// Beta returns the portfolio's sensitivity to the market: the covariance of
// the two return series divided by the market variance.
func Beta(portfolioReturns, marketReturns []float64) (float64, error) {
	if len(portfolioReturns) != len(marketReturns) {
		return 0, errors.Newf(errors.ErrCodeMisalignedSeries,
			"beta needs aligned series, got %d and %d returns",
			len(portfolioReturns), len(marketReturns))
	}

	if len(portfolioReturns) < 2 {
		return 0, errors.NewInsufficientDataErrorf(2, len(portfolioReturns), "",
			"beta needs at least 2 returns, got %d", len(portfolioReturns))
	}

	marketVariance := stats.Variance(marketReturns)
	if math.IsNaN(marketVariance) || marketVariance == 0 {
		return 0, nil
	}

	return stats.Covariance(portfolioReturns, marketReturns) / marketVariance, nil
}

// InformationRatio returns the mean active return over the benchmark
// divided by the tracking error.
func InformationRatio(portfolioReturns, benchmarkReturns []float64) (float64, error) {
	if len(portfolioReturns) != len(benchmarkReturns) {
		return 0, errors.Newf(errors.ErrCodeMisalignedSeries,
			"information ratio needs aligned series, got %d and %d returns",
			len(portfolioReturns), len(benchmarkReturns))
	}

	if len(portfolioReturns) < 2 {
		return 0, errors.NewInsufficientDataErrorf(2, len(portfolioReturns), "",
			"information ratio needs at least 2 returns, got %d", len(portfolioReturns))
	}

	active := make([]float64, len(portfolioReturns))
	for i := range active {
		active[i] = portfolioReturns[i] - benchmarkReturns[i]
	}

	trackingError := stats.StdDev(active)
	if math.IsNaN(trackingError) || trackingError == 0 {
		return 0, nil
	}

	return stats.Mean(active) / trackingError, nil
}

// SortinoRatio returns the mean excess return over the target divided by
// the downside deviation (root mean square of the negative excess returns).
func SortinoRatio(returns []float64, targetReturn float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	var (
		excessSum   float64
		downsideSum float64
	)

	downsideCount := 0

	for _, r := range returns {
		excess := r - targetReturn
		excessSum += excess

		if excess < 0 {
			downsideSum += excess * excess
			downsideCount++
		}
	}

	if downsideCount == 0 {
		return 0
	}

	downsideDeviation := math.Sqrt(downsideSum / float64(downsideCount))
	if downsideDeviation == 0 {
		return 0
	}

	return excessSum / float64(len(returns)) / downsideDeviation
}

// CalmarRatio returns the annualized mean return divided by the magnitude
// of the maximum drawdown. Both inputs share the units of the return
// series; maxDrawdown is expected to be negative or zero.
func CalmarRatio(returns []float64, maxDrawdown float64) float64 {
	if len(returns) == 0 || maxDrawdown == 0 {
		return 0
	}

	return stats.Mean(returns) * tradingDaysPerYear / math.Abs(maxDrawdown)
}

// tradingDaysPerYear is the annualization factor for daily returns.
const tradingDaysPerYear = 252
