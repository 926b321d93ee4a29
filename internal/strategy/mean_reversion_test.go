package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/alphabench-lab/alphabench/internal/types"
)

func day(i int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

func seriesFromCloses(symbol string, closes []float64) types.PriceSeries {
	bars := make([]types.Bar, len(closes))
	for i, close := range closes {
		bars[i] = types.Bar{
			Time:   day(i),
			Symbol: symbol,
			Open:   close,
			High:   close,
			Low:    close,
			Close:  close,
			Volume: 1000,
		}
	}

	return types.PriceSeries{Symbol: symbol, Bars: bars}
}

type MeanReversionTestSuite struct {
	suite.Suite

	strategy *MeanReversion
}

func TestMeanReversionSuite(t *testing.T) {
	suite.Run(t, new(MeanReversionTestSuite))
}

func (suite *MeanReversionTestSuite) SetupTest() {
	strategy, err := NewMeanReversion(DefaultMeanReversionConfig(), nil)
	suite.Require().NoError(err)
	suite.strategy = strategy
}

func (suite *MeanReversionTestSuite) TestConfigValidation() {
	_, err := NewMeanReversion(MeanReversionConfig{
		Lookback:    1,
		EntryZScore: 2,
		ExitZScore:  0.5,
	}, nil)
	suite.Require().Error(err)

	// Entry must exceed exit.
	_, err = NewMeanReversion(MeanReversionConfig{
		Lookback:    20,
		EntryZScore: 0.5,
		ExitZScore:  2,
	}, nil)
	suite.Require().Error(err)
}

func (suite *MeanReversionTestSuite) TestConstantSeriesStaysFlat() {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}

	signals, err := suite.strategy.GenerateSignals(seriesFromCloses("FLAT", closes))
	suite.Require().NoError(err)
	suite.Equal(60, signals.Len())

	for i, point := range signals.Points {
		suite.Zero(point.Position, "position at bar %d", i)

		// Zero rolling std leaves the z-score undefined everywhere.
		_, ok := point.Indicator(types.IndicatorZScore)
		suite.False(ok, "z-score defined at bar %d", i)
	}
}

func (suite *MeanReversionTestSuite) TestSpikeScenario() {
	// Flat at 100 through bar 24, spiking to 110 for bars 25-27, reverting
	// to 100 afterwards. The spike pushes the z-score above 2, the
	// reversion pulls it inside 0.5.
	closes := make([]float64, 35)
	for i := range closes {
		closes[i] = 100
	}

	for i := 25; i <= 27; i++ {
		closes[i] = 110
	}

	signals, err := suite.strategy.GenerateSignals(seriesFromCloses("SPIKE", closes))
	suite.Require().NoError(err)

	for i := 0; i < 25; i++ {
		suite.Zero(signals.Points[i].Position, "warm-up bar %d", i)
	}

	for i := 25; i <= 27; i++ {
		suite.Equal(-1.0, signals.Points[i].Position, "spike bar %d", i)
	}

	for i := 28; i < 35; i++ {
		suite.Zero(signals.Points[i].Position, "reverted bar %d", i)
	}
}

func (suite *MeanReversionTestSuite) TestLongEntryOnDownwardSpike() {
	closes := make([]float64, 35)
	for i := range closes {
		closes[i] = 100
	}

	for i := 25; i <= 27; i++ {
		closes[i] = 90
	}

	signals, err := suite.strategy.GenerateSignals(seriesFromCloses("DIP", closes))
	suite.Require().NoError(err)

	for i := 25; i <= 27; i++ {
		suite.Equal(1.0, signals.Points[i].Position, "dip bar %d", i)
	}

	suite.Zero(signals.Points[28].Position)
}

func (suite *MeanReversionTestSuite) TestPositionCarriesForwardWhileZScoreUndefined() {
	// After a spike opens a short, return exactly to constant prices so the
	// rolling std collapses back to zero once the window is flat again: the
	// short must persist while z is in the dead zone between exit and entry,
	// then exit when z falls below the exit threshold.
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}

	closes[25] = 112

	signals, err := suite.strategy.GenerateSignals(seriesFromCloses("CARRY", closes))
	suite.Require().NoError(err)
	suite.Equal(-1.0, signals.Points[25].Position)

	// Bar 26: window still contains the spike, z of 100 against it is
	// slightly negative, inside the exit threshold: position closes.
	suite.Zero(signals.Points[26].Position)
}

func (suite *MeanReversionTestSuite) TestEveryPositionDefined() {
	closes := []float64{100, 101, 99, 102, 98}

	signals, err := suite.strategy.GenerateSignals(seriesFromCloses("SHORT", closes))
	suite.Require().NoError(err)
	suite.Equal(len(closes), signals.Len())

	for _, point := range signals.Points {
		suite.Zero(point.Position)
	}
}
