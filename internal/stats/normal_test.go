package stats

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type NormalTestSuite struct {
	suite.Suite
}

func TestNormalSuite(t *testing.T) {
	suite.Run(t, new(NormalTestSuite))
}

func (suite *NormalTestSuite) TestCDFKnownValues() {
	suite.InDelta(0.5, NormalCDF(0), 1e-12)
	suite.InDelta(0.8413447461, NormalCDF(1), 1e-9)
	suite.InDelta(0.0227501319, NormalCDF(-2), 1e-9)
}

func (suite *NormalTestSuite) TestQuantileKnownValues() {
	q, err := NormalQuantile(0.5)
	suite.Require().NoError(err)
	suite.InDelta(0, q, 1e-9)

	q, err = NormalQuantile(0.975)
	suite.Require().NoError(err)
	suite.InDelta(1.959964, q, 1e-5)

	q, err = NormalQuantile(0.05)
	suite.Require().NoError(err)
	suite.InDelta(-1.644854, q, 1e-5)
}

func (suite *NormalTestSuite) TestQuantileInvertsCDF() {
	for _, p := range []float64{0.001, 0.01, 0.1, 0.3, 0.5, 0.7, 0.9, 0.99, 0.999} {
		q, err := NormalQuantile(p)
		suite.Require().NoError(err)
		suite.InDelta(p, NormalCDF(q), 1e-7)
	}
}

func (suite *NormalTestSuite) TestQuantileRejectsOutOfRange() {
	_, err := NormalQuantile(0)
	suite.Require().Error(err)

	_, err = NormalQuantile(1)
	suite.Require().Error(err)
}

func (suite *NormalTestSuite) TestSourceIsDeterministic() {
	first := NewNormalSource(42)
	second := NewNormalSource(42)

	a := make([]float64, 100)
	b := make([]float64, 100)
	first.Fill(a, 0.001, 0.02)
	second.Fill(b, 0.001, 0.02)

	suite.Equal(a, b)
}

func (suite *NormalTestSuite) TestSourceMomentsMatch() {
	source := NewNormalSource(1)

	draws := make([]float64, 50000)
	source.Fill(draws, 0.5, 2)

	suite.InDelta(0.5, Mean(draws), 0.05)
	suite.InDelta(2, StdDev(draws), 0.05)
}
