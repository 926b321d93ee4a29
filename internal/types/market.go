package types

import (
	"math"
	"time"
)

// Bar is a single daily price record for one symbol.
type Bar struct {
	Time   time.Time `csv:"time"`
	Symbol string    `csv:"symbol"`
	Open   float64   `csv:"open"`
	High   float64   `csv:"high"`
	Low    float64   `csv:"low"`
	Close  float64   `csv:"close"`
	Volume float64   `csv:"volume"`
}

// PriceSeries is an ordered, time-indexed sequence of daily bars for one
// symbol. It is created once by the data provider and read-only afterwards;
// consumers must not mutate Bars.
type PriceSeries struct {
	Symbol string
	Bars   []Bar
}

// Len returns the number of bars in the series.
func (p PriceSeries) Len() int {
	return len(p.Bars)
}

// Closes returns the close prices in time order.
func (p PriceSeries) Closes() []float64 {
	closes := make([]float64, len(p.Bars))
	for i, bar := range p.Bars {
		closes[i] = bar.Close
	}

	return closes
}

// Times returns the bar timestamps in time order.
func (p PriceSeries) Times() []time.Time {
	times := make([]time.Time, len(p.Bars))
	for i, bar := range p.Bars {
		times[i] = bar.Time
	}

	return times
}

// SimpleReturns returns period-over-period percentage changes of the close
// price. The result has len(bars)-1 entries; an empty or single-bar series
// yields an empty slice.
func (p PriceSeries) SimpleReturns() []float64 {
	if len(p.Bars) < 2 {
		return []float64{}
	}

	returns := make([]float64, 0, len(p.Bars)-1)
	for i := 1; i < len(p.Bars); i++ {
		prev := p.Bars[i-1].Close
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}

		returns = append(returns, p.Bars[i].Close/prev-1)
	}

	return returns
}

// LogReturns returns the natural-log period-over-period returns of the close
// price, aligned with SimpleReturns.
func (p PriceSeries) LogReturns() []float64 {
	if len(p.Bars) < 2 {
		return []float64{}
	}

	returns := make([]float64, 0, len(p.Bars)-1)
	for i := 1; i < len(p.Bars); i++ {
		prev := p.Bars[i-1].Close
		if prev <= 0 || p.Bars[i].Close <= 0 {
			returns = append(returns, 0)
			continue
		}

		returns = append(returns, math.Log(p.Bars[i].Close/prev))
	}

	return returns
}

// AlignedPair holds two close-price slices restricted to the timestamps both
// series share, in time order.
type AlignedPair struct {
	Times   []time.Time
	ClosesA []float64
	ClosesB []float64
}

// Len returns the number of common timestamps.
func (a AlignedPair) Len() int {
	return len(a.Times)
}

// Align intersects two price series on their common timestamps, dropping
// unmatched dates from both sides. Both inputs must be in time order.
func Align(a, b PriceSeries) AlignedPair {
	aligned := AlignedPair{
		Times:   make([]time.Time, 0, min(len(a.Bars), len(b.Bars))),
		ClosesA: make([]float64, 0, min(len(a.Bars), len(b.Bars))),
		ClosesB: make([]float64, 0, min(len(a.Bars), len(b.Bars))),
	}

	i, j := 0, 0
	for i < len(a.Bars) && j < len(b.Bars) {
		ta, tb := a.Bars[i].Time, b.Bars[j].Time

		switch {
		case ta.Equal(tb):
			aligned.Times = append(aligned.Times, ta)
			aligned.ClosesA = append(aligned.ClosesA, a.Bars[i].Close)
			aligned.ClosesB = append(aligned.ClosesB, b.Bars[j].Close)
			i++
			j++
		case ta.Before(tb):
			i++
		default:
			j++
		}
	}

	return aligned
}
