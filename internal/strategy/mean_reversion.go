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

// MeanReversionConfig holds the parameters of the mean reversion strategy.
type MeanReversionConfig struct {
	// Lookback is the rolling window length for the z-score.
	Lookback int `yaml:"lookback" json:"lookback" validate:"gt=1"`
	// EntryZScore is the z-score magnitude that opens a position.
	EntryZScore float64 `yaml:"entry_zscore" json:"entry_zscore" validate:"gt=0,gtfield=ExitZScore"`
	// ExitZScore is the z-score magnitude that closes a position.
	ExitZScore float64 `yaml:"exit_zscore" json:"exit_zscore" validate:"gte=0"`
}

// DefaultMeanReversionConfig returns the standard parameterization.
func DefaultMeanReversionConfig() MeanReversionConfig {
	return MeanReversionConfig{
		Lookback:    20,
		EntryZScore: 2.0,
		ExitZScore:  0.5,
	}
}

// MeanReversion trades deviations of price from its rolling mean: short when
// the z-score stretches above the entry threshold, long when it stretches
// below, flat once it reverts inside the exit threshold.
type MeanReversion struct {
	config MeanReversionConfig
	logger *logger.Logger
}

// NewMeanReversion creates a mean reversion strategy with the given
// configuration.
func NewMeanReversion(config MeanReversionConfig, log *logger.Logger) (*MeanReversion, error) {
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStrategyConfigError,
			"invalid mean reversion configuration", err)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &MeanReversion{
		config: config,
		logger: log,
	}, nil
}

// Name implements Strategy.
func (s *MeanReversion) Name() string {
	return NameMeanReversion
}

// GenerateSignals implements Strategy. The position follows a three-state
// machine {flat, long, short}: entries fire when the z-score crosses the
// entry threshold, exits override the state once the prior position has
// reverted inside the exit threshold, and the state carries forward between
// transitions. Timestamps with an undefined z-score (unfilled window, zero
// rolling std) leave the state untouched.
func (s *MeanReversion) GenerateSignals(prices types.PriceSeries) (types.SignalSeries, error) {
	closes := prices.Closes()

	rollingMean := stats.RollingMean(closes, s.config.Lookback)
	rollingStd := stats.RollingStd(closes, s.config.Lookback)

	series := types.SignalSeries{
		Symbol:   prices.Symbol,
		Strategy: s.Name(),
		Points:   make([]types.SignalPoint, len(closes)),
	}

	state := 0.0
	transitions := 0

	for i, bar := range prices.Bars {
		point := types.SignalPoint{
			Time:  bar.Time,
			Price: bar.Close,
		}

		zscore := math.NaN()
		if !math.IsNaN(rollingStd[i]) && rollingStd[i] != 0 {
			zscore = (closes[i] - rollingMean[i]) / rollingStd[i]

			point.Indicators = map[string]float64{
				types.IndicatorZScore:      zscore,
				types.IndicatorRollingMean: rollingMean[i],
				types.IndicatorRollingStd:  rollingStd[i],
			}
		}

		if !math.IsNaN(zscore) {
			prev := state

			switch {
			case zscore < -s.config.EntryZScore:
				state = 1
			case zscore > s.config.EntryZScore:
				state = -1
			}

			// Exits override entries based on the prior state, so a
			// long never flips straight to a short in one step.
			if prev > 0 && zscore > -s.config.ExitZScore {
				state = 0
			}

			if prev < 0 && zscore < s.config.ExitZScore {
				state = 0
			}

			if state != prev {
				transitions++
			}
		}

		point.Position = state
		series.Points[i] = point
	}

	s.logger.Debug("generated mean reversion signals",
		zap.String("symbol", prices.Symbol),
		zap.Int("bars", len(closes)),
		zap.Int("transitions", transitions),
	)

	return series, nil
}
