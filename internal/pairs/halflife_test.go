package pairs

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/alphabench-lab/alphabench/internal/stats"
)

type HalfLifeTestSuite struct {
	suite.Suite
}

func TestHalfLifeSuite(t *testing.T) {
	suite.Run(t, new(HalfLifeTestSuite))
}

// ouSpread generates an Ornstein-Uhlenbeck spread
// s_t = (1-theta)*s_{t-1} + sigma*eps_t with a seeded noise source.
func ouSpread(theta, sigma float64, n int, seed int64) []float64 {
	source := stats.NewNormalSource(seed)

	spread := make([]float64, n)
	for i := 1; i < n; i++ {
		spread[i] = (1-theta)*spread[i-1] + source.Draw(0, sigma)
	}

	return spread
}

func (suite *HalfLifeTestSuite) TestRecoversKnownRate() {
	theta := 0.1
	spread := ouSpread(theta, 1, 2000, 42)

	estimated := EstimateHalfLife(spread)
	expected := math.Ln2 / theta

	suite.InDelta(expected, float64(estimated), expected*0.2)
}

func (suite *HalfLifeTestSuite) TestFastReversion() {
	spread := ouSpread(0.5, 1, 2000, 7)

	estimated := EstimateHalfLife(spread)

	// ln(2)/0.5 is about 1.39, truncated to 1.
	suite.GreaterOrEqual(estimated, 1)
	suite.LessOrEqual(estimated, 2)
}

func (suite *HalfLifeTestSuite) TestDivergingSpreadGetsDefault() {
	// s_t = 1.02*s_{t-1} makes every difference exactly 0.02*s_{t-1}, so
	// the fitted slope is exactly 0.02. No mean reversion, default applies.
	spread := make([]float64, 200)
	spread[0] = 1
	for i := 1; i < len(spread); i++ {
		spread[i] = 1.02 * spread[i-1]
	}

	suite.Equal(defaultHalfLife, EstimateHalfLife(spread))
}

func (suite *HalfLifeTestSuite) TestTooFewPointsGetsDefault() {
	suite.Equal(defaultHalfLife, EstimateHalfLife([]float64{1, 2}))
	suite.Equal(defaultHalfLife, EstimateHalfLife(nil))
}

func (suite *HalfLifeTestSuite) TestFlooredAtOne() {
	// Immediate reversion: s alternates around zero, slope near -2,
	// raw half-life well under one period.
	spread := make([]float64, 200)
	for i := range spread {
		if i%2 == 0 {
			spread[i] = 1
		} else {
			spread[i] = -1
		}
	}

	suite.Equal(1, EstimateHalfLife(spread))
}
