package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/alphabench-lab/alphabench/pkg/errors"
)

type DescribeTestSuite struct {
	suite.Suite
}

func TestDescribeSuite(t *testing.T) {
	suite.Run(t, new(DescribeTestSuite))
}

func (suite *DescribeTestSuite) TestMean() {
	suite.InDelta(2.5, Mean([]float64{1, 2, 3, 4}), 1e-12)
	suite.True(math.IsNaN(Mean(nil)))
}

func (suite *DescribeTestSuite) TestVarianceAndStdDev() {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	// Sample variance of this classic set is 32/7.
	suite.InDelta(32.0/7.0, Variance(xs), 1e-12)
	suite.InDelta(math.Sqrt(32.0/7.0), StdDev(xs), 1e-12)
	suite.True(math.IsNaN(Variance([]float64{1})))
}

func (suite *DescribeTestSuite) TestCovariance() {
	xs := []float64{1, 2, 3, 4}
	ys := []float64{2, 4, 6, 8}

	// Perfectly linear: cov = 2 * var(x).
	suite.InDelta(2*Variance(xs), Covariance(xs, ys), 1e-12)
	suite.True(math.IsNaN(Covariance(xs, []float64{1, 2})))
}

func (suite *DescribeTestSuite) TestPercentile() {
	xs := []float64{15, 20, 35, 40, 50}

	p, err := Percentile(xs, 40)
	suite.Require().NoError(err)
	suite.InDelta(29, p, 1e-12)

	p, err = Percentile(xs, 0)
	suite.Require().NoError(err)
	suite.InDelta(15, p, 1e-12)

	p, err = Percentile(xs, 100)
	suite.Require().NoError(err)
	suite.InDelta(50, p, 1e-12)
}

func (suite *DescribeTestSuite) TestPercentileErrors() {
	_, err := Percentile(nil, 50)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidSeriesLength))

	_, err = Percentile([]float64{1}, 120)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPercentile))
}

func (suite *DescribeTestSuite) TestSum() {
	suite.InDelta(10, Sum([]float64{1, 2, 3, 4}), 1e-12)
	suite.InDelta(0, Sum(nil), 1e-12)
}
