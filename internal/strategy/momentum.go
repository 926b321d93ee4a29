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

// thresholdWindow is the rolling window over which the momentum entry
// threshold percentile is computed, one trading year.
const thresholdWindow = 252

// thresholdQuantile is the percentile of absolute vol-adjusted momentum used
// as the entry threshold.
const thresholdQuantile = 0.8

// MomentumConfig holds the parameters of the momentum strategy.
type MomentumConfig struct {
	// Lookback is the window for both the momentum percent change and the
	// return volatility.
	Lookback int `yaml:"lookback" json:"lookback" validate:"gt=1"`
	// HoldingPeriod is advisory only: signals may flip sooner.
	HoldingPeriod int `yaml:"holding_period" json:"holding_period" validate:"gt=0"`
	// SignalScaling divides the absolute vol-adjusted momentum when sizing
	// the position; larger values dampen conviction.
	SignalScaling float64 `yaml:"signal_scaling" json:"signal_scaling" validate:"gt=0"`
}

// DefaultMomentumConfig returns the standard parameterization.
func DefaultMomentumConfig() MomentumConfig {
	return MomentumConfig{
		Lookback:      20,
		HoldingPeriod: 5,
		SignalScaling: 2.0,
	}
}

// Momentum trades persistence of returns: it scales into positions whose
// volatility-adjusted momentum exceeds a rolling percentile threshold, with
// size proportional to conviction and capped at full size.
type Momentum struct {
	config MomentumConfig
	logger *logger.Logger
}

// NewMomentum creates a momentum strategy with the given configuration.
func NewMomentum(config MomentumConfig, log *logger.Logger) (*Momentum, error) {
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStrategyConfigError,
			"invalid momentum configuration", err)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Momentum{
		config: config,
		logger: log,
	}, nil
}

// Name implements Strategy.
func (s *Momentum) Name() string {
	return NameMomentum
}

// GenerateSignals implements Strategy. Momentum is the percent change of the
// close over the lookback, volatility the rolling std of daily returns over
// the same window. The ratio of the two is compared to its own rolling 80th
// percentile (absolute value, one year window); beyond the threshold the
// position is signed conviction, min(|vam|/scaling, 1). Timestamps with an
// undefined ratio or threshold stay flat.
func (s *Momentum) GenerateSignals(prices types.PriceSeries) (types.SignalSeries, error) {
	closes := prices.Closes()

	momentum := stats.PctChange(closes, s.config.Lookback)
	dailyReturns := stats.PctChange(closes, 1)
	volatility := stats.RollingStd(dailyReturns, s.config.Lookback)

	volAdjusted := make([]float64, len(closes))
	absVolAdjusted := make([]float64, len(closes))

	for i := range closes {
		volAdjusted[i] = math.NaN()
		absVolAdjusted[i] = math.NaN()

		if math.IsNaN(momentum[i]) || math.IsNaN(volatility[i]) || volatility[i] == 0 {
			continue
		}

		volAdjusted[i] = momentum[i] / volatility[i]
		absVolAdjusted[i] = math.Abs(volAdjusted[i])
	}

	threshold := stats.RollingQuantile(absVolAdjusted, thresholdWindow, thresholdQuantile)

	series := types.SignalSeries{
		Symbol:   prices.Symbol,
		Strategy: s.Name(),
		Points:   make([]types.SignalPoint, len(closes)),
	}

	active := 0

	for i, bar := range prices.Bars {
		point := types.SignalPoint{
			Time:  bar.Time,
			Price: bar.Close,
		}

		if !math.IsNaN(volAdjusted[i]) {
			point.Indicators = map[string]float64{
				types.IndicatorMomentum:       momentum[i],
				types.IndicatorVolatility:     volatility[i],
				types.IndicatorVolAdjMomentum: volAdjusted[i],
			}

			if !math.IsNaN(threshold[i]) {
				point.Indicators[types.IndicatorThreshold] = threshold[i]

				signal := 0.0

				switch {
				case volAdjusted[i] > threshold[i]:
					signal = 1
				case volAdjusted[i] < -threshold[i]:
					signal = -1
				}

				point.Indicators[types.IndicatorRawSignal] = signal

				if signal != 0 {
					size := math.Min(absVolAdjusted[i]/s.config.SignalScaling, 1)
					point.Position = signal * size
					active++
				}
			}
		}

		series.Points[i] = point
	}

	s.logger.Debug("generated momentum signals",
		zap.String("symbol", prices.Symbol),
		zap.Int("bars", len(closes)),
		zap.Int("active", active),
	)

	return series, nil
}
