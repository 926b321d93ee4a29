package backtest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/alphabench-lab/alphabench/internal/backtest/datasource"
	"github.com/alphabench-lab/alphabench/internal/logger"
	"github.com/alphabench-lab/alphabench/internal/pairs"
	"github.com/alphabench-lab/alphabench/internal/strategy"
	"github.com/alphabench-lab/alphabench/internal/types"
	"github.com/alphabench-lab/alphabench/internal/version"
	"github.com/alphabench-lab/alphabench/pkg/errors"
)

// Engine orchestrates one full evaluation run: it loads every symbol from
// the injected data source, runs each configured strategy over it, scans
// for cointegrated pairs, backtests all resulting signal series and
// persists ledgers, metrics and the run summary through the results store.
//
// A failing (strategy, symbol) combination is logged and skipped; it never
// aborts the run.
type Engine struct {
	config EvaluationConfig
	source datasource.DataSource
	store  *ResultsStore
	logger *logger.Logger
}

// NewEngine creates an evaluation engine. The data source is wrapped in an
// LRU cache bounded by the configured symbol count, so the pair scan and
// the single-asset strategies share loads.
func NewEngine(config EvaluationConfig, source datasource.DataSource, store *ResultsStore, log *logger.Logger) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if source == nil {
		return nil, errors.New(errors.ErrCodeBacktestNoDatasource, "engine needs a data source")
	}

	if store == nil {
		return nil, errors.New(errors.ErrCodeBacktestStateNil, "engine needs a results store")
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Engine{
		config: config,
		source: datasource.NewCachedDataSource(source, config.CacheSymbols),
		store:  store,
		logger: log,
	}, nil
}

// Run executes the full evaluation and returns the run summary. The summary
// and the pair scan report are also written as YAML artifacts into the
// configured results folder.
func (e *Engine) Run(ctx context.Context) (types.RunSummary, error) {
	if err := e.source.Initialize(e.config.DataPath); err != nil {
		return types.RunSummary{}, err
	}

	symbols, err := e.resolveSymbols()
	if err != nil {
		return types.RunSummary{}, err
	}

	if err := e.store.Initialize(); err != nil {
		return types.RunSummary{}, err
	}

	configYAML, err := yaml.Marshal(e.config)
	if err != nil {
		return types.RunSummary{}, errors.Wrap(errors.ErrCodeBacktestConfigError,
			"failed to marshal config for run record", err)
	}

	runID, err := e.store.CreateRun(e.config.DataPath, string(configYAML))
	if err != nil {
		return types.RunSummary{}, err
	}

	summary := types.RunSummary{
		ID:            runID,
		Timestamp:     time.Now().UTC(),
		EngineVersion: version.GetVersion(),
		DataPath:      e.config.DataPath,
		Strategies: []string{
			strategy.NameMeanReversion,
			strategy.NameMomentum,
			strategy.NamePairsTrading,
		},
		Symbols: symbols,
	}

	params := PortfolioParams{
		InitialCapital: e.config.InitialCapital,
		CommissionRate: e.config.CommissionRate,
		UnitSize:       e.config.UnitSize,
	}

	singleRecords, err := e.runSingleAssetStrategies(ctx, symbols, params, runID)
	if err != nil {
		return types.RunSummary{}, err
	}

	summary.Records = append(summary.Records, singleRecords...)

	report, pairRecords, err := e.runPairsStrategy(ctx, symbols, params, runID)
	if err != nil {
		return types.RunSummary{}, err
	}

	summary.Records = append(summary.Records, pairRecords...)
	summary.Pairs = report.Pairs
	summary.SkippedPairs = len(report.Skipped)

	if err := e.store.SaveMetrics(runID, summary.Records); err != nil {
		return types.RunSummary{}, err
	}

	if err := os.MkdirAll(e.config.ResultsFolder, 0755); err != nil {
		return types.RunSummary{}, errors.Wrap(errors.ErrCodeBacktestNoResultsDir,
			"failed to create results folder", err)
	}

	ledgersPath, err := e.store.ExportLedgers(runID, e.config.ResultsFolder)
	if err != nil {
		return types.RunSummary{}, err
	}

	summary.LedgersFilePath = ledgersPath
	summary.StorePath = e.store.Path()

	reportPath := filepath.Join(e.config.ResultsFolder, fmt.Sprintf("pairs_%s.yaml", runID))
	if err := types.WritePairScanReport(reportPath, report); err != nil {
		return types.RunSummary{}, errors.Wrap(errors.ErrCodePairScanFailed,
			"failed to write pair scan report", err)
	}

	summaryPath := filepath.Join(e.config.ResultsFolder, fmt.Sprintf("summary_%s.yaml", runID))
	if err := types.WriteRunSummary(summaryPath, summary); err != nil {
		return types.RunSummary{}, errors.Wrap(errors.ErrCodeUnknown,
			"failed to write run summary", err)
	}

	e.logger.Info("evaluation run complete",
		zap.String("run_id", runID),
		zap.Int("symbols", len(symbols)),
		zap.Int("records", len(summary.Records)),
		zap.Int("pairs", len(summary.Pairs)),
	)

	return summary, nil
}

// resolveSymbols returns the configured symbols, or every symbol in the
// data when none are configured.
func (e *Engine) resolveSymbols() ([]string, error) {
	if len(e.config.Symbols) > 0 {
		return e.config.Symbols, nil
	}

	symbols, err := e.source.ListSymbols()
	if err != nil {
		return nil, err
	}

	if len(symbols) == 0 {
		return nil, errors.New(errors.ErrCodeBacktestNoSymbols, "data source has no symbols")
	}

	return symbols, nil
}

// runSingleAssetStrategies evaluates mean reversion and momentum over every
// symbol. Failures are isolated per (strategy, symbol) combination.
func (e *Engine) runSingleAssetStrategies(ctx context.Context, symbols []string, params PortfolioParams, runID string) ([]types.MetricsRecord, error) {
	meanReversion, err := strategy.NewMeanReversion(e.config.MeanReversion, e.logger)
	if err != nil {
		return nil, err
	}

	momentum, err := strategy.NewMomentum(e.config.Momentum, e.logger)
	if err != nil {
		return nil, err
	}

	strategies := []strategy.Strategy{meanReversion, momentum}

	bar := progressbar.NewOptions(len(symbols)*len(strategies),
		progressbar.OptionSetDescription("Evaluating strategies"),
		progressbar.OptionShowCount(),
	)

	var records []types.MetricsRecord

	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeUnknown, "evaluation cancelled", err)
		}

		series, err := e.source.LoadSeries(symbol, e.config.StartTime, e.config.EndTime)
		if err != nil {
			e.logger.Warn("skipping symbol, failed to load series",
				zap.String("symbol", symbol),
				zap.Error(err),
			)

			_ = bar.Add(len(strategies))

			continue
		}

		for _, strat := range strategies {
			record, err := e.evaluateOne(strat, series, params, runID)
			if err != nil {
				e.logger.Warn("skipping combination",
					zap.String("strategy", strat.Name()),
					zap.String("symbol", symbol),
					zap.Error(err),
				)
			} else {
				records = append(records, record)
			}

			_ = bar.Add(1)
		}
	}

	return records, nil
}

// evaluateOne runs a single strategy over a single series and persists the
// resulting ledger.
func (e *Engine) evaluateOne(strat strategy.Strategy, series types.PriceSeries, params PortfolioParams, runID string) (types.MetricsRecord, error) {
	signals, err := strat.GenerateSignals(series)
	if err != nil {
		return types.MetricsRecord{}, err
	}

	ledger, err := RunBacktest(signals, params)
	if err != nil {
		return types.MetricsRecord{}, err
	}

	if err := ledger.Validate(); err != nil {
		return types.MetricsRecord{}, err
	}

	record, err := CalculateMetrics(ledger)
	if err != nil {
		return types.MetricsRecord{}, err
	}

	if err := e.store.SaveLedger(runID, ledger); err != nil {
		return types.MetricsRecord{}, err
	}

	return record, nil
}

// runPairsStrategy scans every unordered pair for cointegration and
// backtests both legs of the strongest accepted pair. When the scan
// accepts nothing, the pairs strategy contributes no records.
func (e *Engine) runPairsStrategy(ctx context.Context, symbols []string, params PortfolioParams, runID string) (types.PairScanReport, []types.MetricsRecord, error) {
	seriesBySymbol := make(map[string]types.PriceSeries, len(symbols))

	for _, symbol := range symbols {
		series, err := e.source.LoadSeries(symbol, e.config.StartTime, e.config.EndTime)
		if err != nil {
			e.logger.Warn("excluding symbol from pair scan",
				zap.String("symbol", symbol),
				zap.Error(err),
			)

			continue
		}

		seriesBySymbol[symbol] = series
	}

	scanner, err := pairs.NewScanner(e.config.PairScan, e.logger)
	if err != nil {
		return types.PairScanReport{}, nil, err
	}

	report, err := scanner.FindCointegratedPairs(ctx, seriesBySymbol)
	if err != nil {
		return types.PairScanReport{}, nil, err
	}

	if len(report.Pairs) == 0 {
		e.logger.Info("no cointegrated pairs found, skipping pairs strategy")

		return report, nil, nil
	}

	pairsTrading, err := strategy.NewPairsTrading(e.config.PairsTrading, e.logger)
	if err != nil {
		return types.PairScanReport{}, nil, err
	}

	// The scan sorts ascending by p-value, so the first pair carries the
	// strongest cointegration evidence.
	best := report.Pairs[0]

	pairSignals, err := pairsTrading.GeneratePairSignals(
		seriesBySymbol[best.SymbolA], seriesBySymbol[best.SymbolB], best.HedgeRatio)
	if err != nil {
		e.logger.Warn("pairs strategy failed on best pair",
			zap.String("symbol_a", best.SymbolA),
			zap.String("symbol_b", best.SymbolB),
			zap.Error(err),
		)

		return report, nil, nil
	}

	legA, legB := pairSignals.Legs()

	var records []types.MetricsRecord

	for _, leg := range []types.SignalSeries{legA, legB} {
		ledger, err := RunBacktest(leg, params)
		if err != nil {
			return types.PairScanReport{}, nil, err
		}

		if err := ledger.Validate(); err != nil {
			return types.PairScanReport{}, nil, err
		}

		record, err := CalculateMetrics(ledger)
		if err != nil {
			return types.PairScanReport{}, nil, err
		}

		if err := e.store.SaveLedger(runID, ledger); err != nil {
			return types.PairScanReport{}, nil, err
		}

		records = append(records, record)
	}

	return report, records, nil
}
