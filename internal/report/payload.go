// Package report turns the metrics records of an evaluation run into an
// analysis payload and submits it to an Ollama-compatible advisor service
// for narrative interpretation.
package report

import (
	"sort"
	"time"

	"github.com/alphabench-lab/alphabench/internal/types"
	"github.com/alphabench-lab/alphabench/pkg/errors"
)

// maxTopPerformers caps the per-strategy leaderboard.
const maxTopPerformers = 3

// StrategyAggregates are the cross-symbol averages of one strategy's
// metrics records. Undefined Sharpe ratios and profit factors are excluded
// from their averages rather than counted as zero.
type StrategyAggregates struct {
	AvgSharpeRatio  float64 `json:"avg_sharpe_ratio"`
	AvgAnnualReturn float64 `json:"avg_annual_return"`
	AvgMaxDrawdown  float64 `json:"avg_max_drawdown"`
	AvgWinRate      float64 `json:"avg_win_rate"`
	AvgVolatility   float64 `json:"avg_volatility"`
	BestSymbol      string  `json:"best_symbol"`
	WorstSymbol     string  `json:"worst_symbol"`
}

// Performer is one leaderboard entry, ranked by Sharpe ratio.
type Performer struct {
	Symbol           string  `json:"symbol"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	AnnualizedReturn float64 `json:"annualized_return"`
}

// RiskAggregates are the cross-symbol tail risk averages of one strategy.
type RiskAggregates struct {
	VaR95        float64 `json:"var_95"`
	CVaR95       float64 `json:"cvar_95"`
	ProfitFactor float64 `json:"profit_factor"`
}

// StrategyAnalysis is the per-strategy block of the analysis payload.
type StrategyAnalysis struct {
	Name          string             `json:"name"`
	NumSymbols    int                `json:"num_symbols"`
	Metrics       StrategyAggregates `json:"metrics"`
	TopPerformers []Performer        `json:"top_performers"`
	RiskMetrics   RiskAggregates     `json:"risk_metrics"`
}

// RunAnalysisSummary compares the strategies of one run.
type RunAnalysisSummary struct {
	BestStrategy       string  `json:"best_strategy"`
	HighestReturn      float64 `json:"highest_return"`
	HighestSharpe      float64 `json:"highest_sharpe"`
	TotalSymbolsTested int     `json:"total_symbols_tested"`
}

// AnalysisPayload is the complete structure handed to the advisor. It
// carries only plain numbers and strings so it serializes cleanly into a
// prompt.
type AnalysisPayload struct {
	Timestamp  string                      `json:"timestamp"`
	Strategies map[string]StrategyAnalysis `json:"strategies"`
	Summary    RunAnalysisSummary          `json:"summary"`
}

// BuildAnalysisPayload aggregates metrics records into the advisor payload.
// Records are grouped by strategy; the summary ranks strategies by their
// average Sharpe ratio.
func BuildAnalysisPayload(records []types.MetricsRecord) (AnalysisPayload, error) {
	if len(records) == 0 {
		return AnalysisPayload{}, errors.New(errors.ErrCodeEmptyPayload,
			"cannot build analysis payload without metrics records")
	}

	grouped := make(map[string][]types.MetricsRecord)
	for _, record := range records {
		grouped[record.Strategy] = append(grouped[record.Strategy], record)
	}

	payload := AnalysisPayload{
		Timestamp:  time.Now().UTC().Format("2006-01-02 15:04:05"),
		Strategies: make(map[string]StrategyAnalysis, len(grouped)),
	}

	for name, group := range grouped {
		payload.Strategies[name] = analyzeStrategy(name, group)
	}

	first := true
	for name, analysis := range payload.Strategies {
		if first || analysis.Metrics.AvgSharpeRatio > payload.Summary.HighestSharpe {
			payload.Summary.HighestSharpe = analysis.Metrics.AvgSharpeRatio
			payload.Summary.BestStrategy = name
		}

		if first || analysis.Metrics.AvgAnnualReturn > payload.Summary.HighestReturn {
			payload.Summary.HighestReturn = analysis.Metrics.AvgAnnualReturn
		}

		payload.Summary.TotalSymbolsTested += analysis.NumSymbols
		first = false
	}

	return payload, nil
}

func analyzeStrategy(name string, group []types.MetricsRecord) StrategyAnalysis {
	analysis := StrategyAnalysis{
		Name:       name,
		NumSymbols: len(group),
	}

	var (
		sharpeSum    float64
		sharpeCount  int
		pfSum        float64
		pfCount      int
		ranked       []Performer
		bestSharpe   float64
		worstSharpe  float64
		rankedSeeded bool
	)

	for _, record := range group {
		analysis.Metrics.AvgAnnualReturn += record.AnnualizedReturn
		analysis.Metrics.AvgMaxDrawdown += record.MaxDrawdown
		analysis.Metrics.AvgWinRate += record.WinRate
		analysis.Metrics.AvgVolatility += record.Volatility
		analysis.RiskMetrics.VaR95 += record.VaR95
		analysis.RiskMetrics.CVaR95 += record.CVaR95

		if record.ProfitFactor.IsSome() {
			pfSum += record.ProfitFactor.Unwrap()
			pfCount++
		}

		if record.SharpeRatio.IsNone() {
			continue
		}

		sharpe := record.SharpeRatio.Unwrap()
		sharpeSum += sharpe
		sharpeCount++

		ranked = append(ranked, Performer{
			Symbol:           record.Symbol,
			SharpeRatio:      sharpe,
			AnnualizedReturn: record.AnnualizedReturn,
		})

		if !rankedSeeded || sharpe > bestSharpe {
			bestSharpe = sharpe
			analysis.Metrics.BestSymbol = record.Symbol
		}

		if !rankedSeeded || sharpe < worstSharpe {
			worstSharpe = sharpe
			analysis.Metrics.WorstSymbol = record.Symbol
		}

		rankedSeeded = true
	}

	n := float64(len(group))
	analysis.Metrics.AvgAnnualReturn /= n
	analysis.Metrics.AvgMaxDrawdown /= n
	analysis.Metrics.AvgWinRate /= n
	analysis.Metrics.AvgVolatility /= n
	analysis.RiskMetrics.VaR95 /= n
	analysis.RiskMetrics.CVaR95 /= n

	if sharpeCount > 0 {
		analysis.Metrics.AvgSharpeRatio = sharpeSum / float64(sharpeCount)
	}

	if pfCount > 0 {
		analysis.RiskMetrics.ProfitFactor = pfSum / float64(pfCount)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].SharpeRatio > ranked[j].SharpeRatio
	})

	if len(ranked) > maxTopPerformers {
		ranked = ranked[:maxTopPerformers]
	}

	analysis.TopPerformers = ranked

	return analysis
}
