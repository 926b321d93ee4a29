package strategy

import (
	"math"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alphabench-lab/alphabench/internal/logger"
	"github.com/alphabench-lab/alphabench/internal/stats"
	"github.com/alphabench-lab/alphabench/internal/types"
	"github.com/alphabench-lab/alphabench/pkg/errors"
)

// PairsTradingConfig holds the parameters of the pairs trading strategy.
type PairsTradingConfig struct {
	// Lookback is the rolling window length for the spread z-score.
	Lookback int `yaml:"lookback" json:"lookback" validate:"gt=1"`
	// EntryZScore is the spread z-score magnitude that opens a position.
	EntryZScore float64 `yaml:"entry_zscore" json:"entry_zscore" validate:"gt=0,gtfield=ExitZScore"`
	// ExitZScore is the spread z-score magnitude that closes a position.
	ExitZScore float64 `yaml:"exit_zscore" json:"exit_zscore" validate:"gte=0"`
}

// DefaultPairsTradingConfig returns the standard parameterization.
func DefaultPairsTradingConfig() PairsTradingConfig {
	return PairsTradingConfig{
		Lookback:    60,
		EntryZScore: 2.0,
		ExitZScore:  0.5,
	}
}

// PairsTrading trades the spread between two cointegrated symbols: long the
// spread (long A, short hedge-ratio units of B) when the z-score stretches
// low, short it when the z-score stretches high, flat once it reverts.
type PairsTrading struct {
	config PairsTradingConfig
	logger *logger.Logger
}

// NewPairsTrading creates a pairs trading strategy with the given
// configuration.
func NewPairsTrading(config PairsTradingConfig, log *logger.Logger) (*PairsTrading, error) {
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStrategyConfigError,
			"invalid pairs trading configuration", err)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &PairsTrading{
		config: config,
		logger: log,
	}, nil
}

// Name implements PairStrategy.
func (s *PairsTrading) Name() string {
	return NamePairsTrading
}

// pairState tracks which side of the spread is held: +1 long spread,
// -1 short spread, 0 flat.
type pairState int

const (
	pairFlat  pairState = 0
	pairLong  pairState = 1
	pairShort pairState = -1
)

// GeneratePairSignals implements PairStrategy. The two series are first
// aligned on common timestamps; the spread is priceA - hedgeRatio*priceB and
// its z-score comes from a rolling mean/std over the lookback. The state
// machine mirrors mean reversion but is symmetric in the two legs: long
// spread holds (+1, -hedgeRatio), short spread (-1, +hedgeRatio), and
// |z| < exit flattens both. Positions carry forward between transitions.
func (s *PairsTrading) GeneratePairSignals(a, b types.PriceSeries, hedgeRatio float64) (types.PairSignalSeries, error) {
	aligned := types.Align(a, b)
	if aligned.Len() == 0 {
		return types.PairSignalSeries{}, errors.Newf(errors.ErrCodePairAlignmentEmpty,
			"no common timestamps between %s and %s", a.Symbol, b.Symbol)
	}

	if aligned.Len() < s.config.Lookback {
		return types.PairSignalSeries{}, errors.NewInsufficientDataErrorf(
			s.config.Lookback, aligned.Len(), a.Symbol+"/"+b.Symbol,
			"aligned history of %s/%s has %d bars, lookback needs %d",
			a.Symbol, b.Symbol, aligned.Len(), s.config.Lookback)
	}

	spread := make([]float64, aligned.Len())
	for i := range spread {
		spread[i] = aligned.ClosesA[i] - hedgeRatio*aligned.ClosesB[i]
	}

	rollingMean := stats.RollingMean(spread, s.config.Lookback)
	rollingStd := stats.RollingStd(spread, s.config.Lookback)

	series := types.PairSignalSeries{
		SymbolA:    a.Symbol,
		SymbolB:    b.Symbol,
		Strategy:   s.Name(),
		HedgeRatio: hedgeRatio,
		Points:     make([]types.PairSignalPoint, aligned.Len()),
	}

	state := pairFlat
	transitions := 0

	for i := range series.Points {
		point := types.PairSignalPoint{
			Time:   aligned.Times[i],
			PriceA: aligned.ClosesA[i],
			PriceB: aligned.ClosesB[i],
			Spread: spread[i],
		}

		zscore := math.NaN()
		if !math.IsNaN(rollingStd[i]) && rollingStd[i] != 0 {
			zscore = (spread[i] - rollingMean[i]) / rollingStd[i]

			point.Indicators = map[string]float64{
				types.IndicatorZScore:      zscore,
				types.IndicatorSpread:      spread[i],
				types.IndicatorRollingMean: rollingMean[i],
				types.IndicatorRollingStd:  rollingStd[i],
			}
		}

		if !math.IsNaN(zscore) {
			prev := state

			switch {
			case zscore < -s.config.EntryZScore:
				state = pairLong
			case zscore > s.config.EntryZScore:
				state = pairShort
			}

			if math.Abs(zscore) < s.config.ExitZScore {
				state = pairFlat
			}

			if state != prev {
				transitions++
			}
		}

		switch state {
		case pairLong:
			point.Position1 = 1
			point.Position2 = -hedgeRatio
		case pairShort:
			point.Position1 = -1
			point.Position2 = hedgeRatio
		case pairFlat:
			point.Position1 = 0
			point.Position2 = 0
		}

		series.Points[i] = point
	}

	s.logger.Debug("generated pairs trading signals",
		zap.String("symbol_a", a.Symbol),
		zap.String("symbol_b", b.Symbol),
		zap.Float64("hedge_ratio", hedgeRatio),
		zap.Int("bars", aligned.Len()),
		zap.Int("transitions", transitions),
	)

	return series, nil
}
