// Package risk provides portfolio risk metrics over daily return series:
// value-at-risk in its historical, parametric and Monte Carlo forms,
// expected shortfall, relative performance ratios and Monte Carlo scenario
// simulation of equity paths.
package risk

import (
	"math"

	"github.com/alphabench-lab/alphabench/internal/stats"
	"github.com/alphabench-lab/alphabench/pkg/errors"
)

// DefaultConfidence is the standard VaR confidence level.
const DefaultConfidence = 0.95

// monteCarloDraws is the sample size of the Monte Carlo VaR estimator.
const monteCarloDraws = 10000

func validateVarInput(returns []float64, confidence float64) error {
	if len(returns) < 2 {
		return errors.NewInsufficientDataErrorf(2, len(returns), "",
			"value at risk needs at least 2 returns, got %d", len(returns))
	}

	if confidence <= 0 || confidence >= 1 {
		return errors.Newf(errors.ErrCodeInvalidConfidence,
			"confidence must be in (0, 1), got %f", confidence)
	}

	return nil
}

// HistoricalVaR returns the empirical (1-confidence) percentile of the
// return series. At 95% confidence this is the 5th percentile: the daily
// loss exceeded in only 5% of observed periods.
func HistoricalVaR(returns []float64, confidence float64) (float64, error) {
	if err := validateVarInput(returns, confidence); err != nil {
		return 0, err
	}

	return stats.Percentile(returns, (1-confidence)*100)
}

// ParametricVaR fits a normal distribution to the returns and evaluates its
// (1-confidence) quantile: mean + std * Phi^-1(1-confidence).
func ParametricVaR(returns []float64, confidence float64) (float64, error) {
	if err := validateVarInput(returns, confidence); err != nil {
		return 0, err
	}

	std := stats.StdDev(returns)
	if math.IsNaN(std) {
		return 0, errors.New(errors.ErrCodeDegenerateSeries,
			"cannot fit return distribution for parametric VaR")
	}

	quantile, err := stats.NormalQuantile(1 - confidence)
	if err != nil {
		return 0, err
	}

	return stats.Mean(returns) + std*quantile, nil
}

// MonteCarloVaR estimates VaR by drawing from a normal distribution fitted
// to the returns and taking the empirical quantile of the draws. The caller
// supplies the seeded source, so identical seeds give identical estimates.
func MonteCarloVaR(returns []float64, confidence float64, source *stats.NormalSource) (float64, error) {
	if err := validateVarInput(returns, confidence); err != nil {
		return 0, err
	}

	if source == nil {
		return 0, errors.New(errors.ErrCodeSimulationFailed,
			"Monte Carlo VaR needs a seeded normal source")
	}

	mean := stats.Mean(returns)

	std := stats.StdDev(returns)
	if math.IsNaN(std) {
		return 0, errors.New(errors.ErrCodeDegenerateSeries,
			"cannot fit return distribution for Monte Carlo VaR")
	}

	draws := make([]float64, monteCarloDraws)
	source.Fill(draws, mean, std)

	return stats.Percentile(draws, (1-confidence)*100)
}

// CVaR returns the conditional value at risk (expected shortfall): the mean
// of the returns at or below the historical VaR threshold.
func CVaR(returns []float64, confidence float64) (float64, error) {
	threshold, err := HistoricalVaR(returns, confidence)
	if err != nil {
		return 0, err
	}

	var tailSum float64

	tailCount := 0

	for _, r := range returns {
		if r <= threshold {
			tailSum += r
			tailCount++
		}
	}

	if tailCount == 0 {
		return threshold, nil
	}

	return tailSum / float64(tailCount), nil
}
