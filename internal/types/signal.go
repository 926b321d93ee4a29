package types

import "time"

// Indicator field keys shared by the strategies. Every strategy writes the
// intermediate values that produced its position decision under these keys
// so downstream consumers can inspect them uniformly.
const (
	IndicatorZScore         = "zscore"
	IndicatorRollingMean    = "rolling_mean"
	IndicatorRollingStd     = "rolling_std"
	IndicatorMomentum       = "momentum"
	IndicatorVolatility     = "volatility"
	IndicatorVolAdjMomentum = "vol_adjusted_momentum"
	IndicatorThreshold      = "threshold"
	IndicatorSpread         = "spread"
	IndicatorRawSignal      = "signal"
)

// SignalPoint is one timestamp of a strategy's output, aligned 1:1 with the
// price series it was generated from. Position is always defined: warm-up
// timestamps carry 0 and later timestamps carry the last decided position
// forward. Indicators omits keys whose rolling windows have not filled yet.
type SignalPoint struct {
	Time       time.Time
	Price      float64
	Position   float64
	Indicators map[string]float64
}

// Indicator returns the named indicator value and whether it is defined at
// this timestamp.
func (p SignalPoint) Indicator(key string) (float64, bool) {
	value, ok := p.Indicators[key]

	return value, ok
}

// SignalSeries is the uniform output of every single-asset strategy.
type SignalSeries struct {
	Symbol   string
	Strategy string
	Points   []SignalPoint
}

// Len returns the number of points in the series.
func (s SignalSeries) Len() int {
	return len(s.Points)
}

// Positions returns the position values in time order.
func (s SignalSeries) Positions() []float64 {
	positions := make([]float64, len(s.Points))
	for i, point := range s.Points {
		positions[i] = point.Position
	}

	return positions
}

// PairSignalPoint is one timestamp of a pairs strategy's output: two aligned
// positions, one per leg, with the spread diagnostics that produced them.
type PairSignalPoint struct {
	Time       time.Time
	PriceA     float64
	PriceB     float64
	Spread     float64
	Position1  float64
	Position2  float64
	Indicators map[string]float64
}

// PairSignalSeries is the output of a two-legged strategy over the common
// timestamps of both series.
type PairSignalSeries struct {
	SymbolA    string
	SymbolB    string
	Strategy   string
	HedgeRatio float64
	Points     []PairSignalPoint
}

// Len returns the number of points in the series.
func (s PairSignalSeries) Len() int {
	return len(s.Points)
}

// Legs splits the pair series into two single-asset SignalSeries so both
// legs run through the same backtest path as any other strategy.
func (s PairSignalSeries) Legs() (SignalSeries, SignalSeries) {
	legA := SignalSeries{
		Symbol:   s.SymbolA,
		Strategy: s.Strategy,
		Points:   make([]SignalPoint, len(s.Points)),
	}
	legB := SignalSeries{
		Symbol:   s.SymbolB,
		Strategy: s.Strategy,
		Points:   make([]SignalPoint, len(s.Points)),
	}

	for i, point := range s.Points {
		legA.Points[i] = SignalPoint{
			Time:       point.Time,
			Price:      point.PriceA,
			Position:   point.Position1,
			Indicators: point.Indicators,
		}
		legB.Points[i] = SignalPoint{
			Time:       point.Time,
			Price:      point.PriceB,
			Position:   point.Position2,
			Indicators: point.Indicators,
		}
	}

	return legA, legB
}
