// Package strategy contains the signal generators. Every strategy consumes
// an immutable price series and produces a position series with the same
// length; the backtest engine consumes any of them uniformly.
package strategy

import (
	"github.com/alphabench-lab/alphabench/internal/types"
)

// Strategy names as they appear in configs, results and reports.
const (
	NameMeanReversion = "mean_reversion"
	NameMomentum      = "momentum"
	NamePairsTrading  = "pairs_trading"
)

// Strategy generates a position series from a single price series.
type Strategy interface {
	// Name returns the strategy name used in results and reports.
	Name() string
	// GenerateSignals produces one signal point per bar of the input
	// series. Every point has a defined position: 0 during warm-up,
	// otherwise the last decided position carried forward.
	GenerateSignals(prices types.PriceSeries) (types.SignalSeries, error)
}

// PairStrategy generates two aligned position series from a pair of price
// series and a hedge ratio discovered by the pair scan.
type PairStrategy interface {
	Name() string
	// GeneratePairSignals produces signals over the common timestamps of
	// both series.
	GeneratePairSignals(a, b types.PriceSeries, hedgeRatio float64) (types.PairSignalSeries, error)
}
