package backtest

import (
	"math"

	"github.com/moznion/go-optional"

	"github.com/alphabench-lab/alphabench/internal/stats"
	"github.com/alphabench-lab/alphabench/internal/types"
	"github.com/alphabench-lab/alphabench/pkg/errors"
)

// tradingDaysPerYear is the annualization factor for daily returns.
const tradingDaysPerYear = 252

// CalculateMetrics derives the scalar performance summary of one ledger.
// Undefined leading returns are dropped before any mean/std statistic.
// Sharpe ratio and profit factor stay None when their denominators vanish
// (zero volatility, no losing periods); they are never coerced to 0 or
// infinity.
func CalculateMetrics(ledger types.PortfolioLedger) (types.MetricsRecord, error) {
	returns := ledger.DefinedNetReturns()
	if len(returns) == 0 {
		return types.MetricsRecord{}, errors.NewInsufficientDataErrorf(2, ledger.Len(), ledger.Symbol,
			"ledger for %s has no defined returns to summarize", ledger.Symbol)
	}

	mean := stats.Mean(returns)
	std := stats.StdDev(returns)

	record := types.MetricsRecord{
		Strategy:         ledger.Strategy,
		Symbol:           ledger.Symbol,
		TotalReturn:      (ledger.Rows[len(ledger.Rows)-1].NetTotal/ledger.InitialCapital - 1) * 100,
		AnnualizedReturn: mean * tradingDaysPerYear * 100,
		SharpeRatio:      optional.None[float64](),
		ProfitFactor:     optional.None[float64](),
		MaxDrawdown:      maxDrawdown(returns),
		TradeCount:       ledger.RoundTrips(),
	}

	if !math.IsNaN(std) {
		record.Volatility = std * math.Sqrt(tradingDaysPerYear) * 100

		if std != 0 {
			record.SharpeRatio = optional.Some(
				mean * tradingDaysPerYear / (std * math.Sqrt(tradingDaysPerYear)))
		}
	}

	var wins, sumPos, sumNeg float64

	for _, r := range returns {
		switch {
		case r > 0:
			wins++
			sumPos += r
		case r < 0:
			sumNeg += r
		}
	}

	record.WinRate = wins / float64(len(returns)) * 100

	if sumNeg != 0 {
		record.ProfitFactor = optional.Some(sumPos / math.Abs(sumNeg))
	}

	varThreshold, err := stats.Percentile(returns, 5)
	if err != nil {
		return types.MetricsRecord{}, err
	}

	record.VaR95 = varThreshold * 100

	var tailSum float64

	tailCount := 0

	for _, r := range returns {
		if r <= varThreshold {
			tailSum += r
			tailCount++
		}
	}

	if tailCount > 0 {
		record.CVaR95 = tailSum / float64(tailCount) * 100
	}

	return record, nil
}

// maxDrawdown returns the deepest peak-to-trough decline, in percent, of
// the equity curve implied by compounding the return series from 1.
func maxDrawdown(returns []float64) float64 {
	equity := 1.0
	runningMax := 1.0
	deepest := 0.0

	for _, r := range returns {
		equity *= 1 + r

		if equity > runningMax {
			runningMax = equity
		}

		drawdown := (equity - runningMax) / runningMax
		if drawdown < deepest {
			deepest = drawdown
		}
	}

	return deepest * 100
}
