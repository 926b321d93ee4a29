// Package pairs implements the pairwise cointegration search feeding the
// pairs trading strategy. Candidate pairs are evaluated independently across
// a bounded worker pool; statistical failures are recorded per pair and
// never abort the scan.
package pairs

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/alphabench-lab/alphabench/internal/logger"
	"github.com/alphabench-lab/alphabench/internal/stats"
	"github.com/alphabench-lab/alphabench/internal/types"
	"github.com/alphabench-lab/alphabench/pkg/errors"
)

// ScannerConfig holds the parameters of a cointegration scan.
type ScannerConfig struct {
	// PValueThreshold rejects pairs whose cointegration or spread
	// stationarity p-value is at or above it.
	PValueThreshold float64 `yaml:"p_value_threshold" json:"p_value_threshold" validate:"gt=0,lt=1"`
	// Lookback is the minimum aligned history a pair needs; shorter pairs
	// are skipped with an insufficient-data reason.
	Lookback int `yaml:"lookback" json:"lookback" validate:"gt=1"`
	// Workers bounds the number of concurrent pair evaluations.
	Workers int `yaml:"workers" json:"workers" validate:"gt=0"`
	// ShowProgress renders a progress bar while scanning.
	ShowProgress bool `yaml:"show_progress" json:"show_progress"`
}

// DefaultScannerConfig returns the standard parameterization.
func DefaultScannerConfig() ScannerConfig {
	return ScannerConfig{
		PValueThreshold: 0.05,
		Lookback:        60,
		Workers:         4,
		ShowProgress:    false,
	}
}

// Scanner searches all unordered symbol pairs for cointegration.
type Scanner struct {
	config ScannerConfig
	logger *logger.Logger
}

// NewScanner creates a Scanner with the given configuration.
func NewScanner(config ScannerConfig, log *logger.Logger) (*Scanner, error) {
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration,
			"invalid scanner configuration", err)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Scanner{
		config: config,
		logger: log,
	}, nil
}

// candidate is one unordered symbol pair queued for evaluation.
type candidate struct {
	symbolA string
	symbolB string
}

// outcome is the result of evaluating one candidate: exactly one of pair or
// skip is set.
type outcome struct {
	pair *types.Pair
	skip *types.PairSkip
}

// FindCointegratedPairs evaluates every unordered pair of symbols for
// cointegration and returns the accepted pairs sorted ascending by p-value,
// together with every skipped pair and its reason. The per-pair work fans
// out across the configured worker pool; merge order does not affect the
// result. Cancelling the context stops the scan early with the context's
// error.
func (s *Scanner) FindCointegratedPairs(ctx context.Context, seriesBySymbol map[string]types.PriceSeries) (types.PairScanReport, error) {
	symbols := make([]string, 0, len(seriesBySymbol))
	for symbol := range seriesBySymbol {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	candidates := make([]candidate, 0, len(symbols)*(len(symbols)-1)/2)
	for i := 0; i < len(symbols); i++ {
		for j := i + 1; j < len(symbols); j++ {
			candidates = append(candidates, candidate{symbolA: symbols[i], symbolB: symbols[j]})
		}
	}

	report := types.PairScanReport{
		Timestamp: time.Now().UTC(),
		Symbols:   len(symbols),
		Evaluated: len(candidates),
	}

	if len(candidates) == 0 {
		return report, nil
	}

	var bar *progressbar.ProgressBar
	if s.config.ShowProgress {
		bar = progressbar.NewOptions(len(candidates),
			progressbar.OptionSetDescription("Scanning pairs"),
			progressbar.OptionShowCount(),
		)
	}

	jobs := make(chan candidate)
	outcomes := make(chan outcome)

	workers := s.config.Workers
	if workers > len(candidates) {
		workers = len(candidates)
	}

	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for cand := range jobs {
				result := s.evaluate(cand, seriesBySymbol[cand.symbolA], seriesBySymbol[cand.symbolB])

				select {
				case outcomes <- result:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)

		for _, cand := range candidates {
			select {
			case jobs <- cand:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	collected := 0

	for result := range outcomes {
		if result.pair != nil {
			report.Pairs = append(report.Pairs, *result.pair)
		}

		if result.skip != nil {
			report.Skipped = append(report.Skipped, *result.skip)
		}

		collected++
		if bar != nil {
			_ = bar.Set(collected)
		}
	}

	if err := ctx.Err(); err != nil {
		return types.PairScanReport{}, errors.Wrap(errors.ErrCodePairScanFailed,
			"pair scan cancelled", err)
	}

	// Strongest cointegration evidence first; break p-value ties by symbol
	// so the ordering is deterministic across scans.
	sort.SliceStable(report.Pairs, func(i, j int) bool {
		if report.Pairs[i].PValue != report.Pairs[j].PValue {
			return report.Pairs[i].PValue < report.Pairs[j].PValue
		}

		return report.Pairs[i].SymbolA < report.Pairs[j].SymbolA
	})

	sort.SliceStable(report.Skipped, func(i, j int) bool {
		if report.Skipped[i].SymbolA != report.Skipped[j].SymbolA {
			return report.Skipped[i].SymbolA < report.Skipped[j].SymbolA
		}

		return report.Skipped[i].SymbolB < report.Skipped[j].SymbolB
	})

	s.logger.Info("pair scan complete",
		zap.Int("symbols", report.Symbols),
		zap.Int("evaluated", report.Evaluated),
		zap.Int("accepted", len(report.Pairs)),
		zap.Int("skipped", len(report.Skipped)),
	)

	return report, nil
}

// evaluate runs the two-step Engle-Granger test on one candidate pair. Every
// failure mode maps to a typed skip so the scan loses no information.
func (s *Scanner) evaluate(cand candidate, seriesA, seriesB types.PriceSeries) outcome {
	skip := func(reason types.PairSkipReason, detail string) outcome {
		return outcome{skip: &types.PairSkip{
			SymbolA: cand.symbolA,
			SymbolB: cand.symbolB,
			Reason:  reason,
			Detail:  detail,
		}}
	}

	if seriesA.Len() == 0 || seriesB.Len() == 0 {
		return skip(types.PairSkipInsufficientData, "empty price series")
	}

	aligned := types.Align(seriesA, seriesB)
	if aligned.Len() == 0 {
		return skip(types.PairSkipAlignmentEmpty, "no common timestamps")
	}

	if aligned.Len() < s.config.Lookback {
		return skip(types.PairSkipInsufficientData,
			errors.NewInsufficientDataErrorf(s.config.Lookback, aligned.Len(), cand.symbolA+"/"+cand.symbolB,
				"aligned history has %d bars, lookback needs %d", aligned.Len(), s.config.Lookback).Error())
	}

	coint, err := stats.CointTest(aligned.ClosesA, aligned.ClosesB)
	if err != nil {
		s.logger.Debug("cointegration test failed",
			zap.String("symbol_a", cand.symbolA),
			zap.String("symbol_b", cand.symbolB),
			zap.Error(err),
		)

		return skip(types.PairSkipTestFailure,
			errors.NewStatisticalTestFailureError("engle-granger", cand.symbolA, cand.symbolB, err.Error()).Error())
	}

	if coint.PValue >= s.config.PValueThreshold {
		return skip(types.PairSkipAboveThreshold, "cointegration test")
	}

	spread := make([]float64, aligned.Len())
	for i := range spread {
		spread[i] = aligned.ClosesA[i] - coint.HedgeRatio*aligned.ClosesB[i]
	}

	adf, err := stats.ADFTest(spread, stats.RegressionConstant)
	if err != nil {
		s.logger.Debug("spread stationarity test failed",
			zap.String("symbol_a", cand.symbolA),
			zap.String("symbol_b", cand.symbolB),
			zap.Error(err),
		)

		return skip(types.PairSkipTestFailure,
			errors.NewStatisticalTestFailureError("adf", cand.symbolA, cand.symbolB, err.Error()).Error())
	}

	if adf.PValue >= s.config.PValueThreshold {
		return skip(types.PairSkipAboveThreshold, "spread stationarity test")
	}

	return outcome{pair: &types.Pair{
		SymbolA:    cand.symbolA,
		SymbolB:    cand.symbolB,
		PValue:     coint.PValue,
		HedgeRatio: coint.HedgeRatio,
		HalfLife:   EstimateHalfLife(spread),
	}}
}
