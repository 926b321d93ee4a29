package pairs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/alphabench-lab/alphabench/internal/stats"
	"github.com/alphabench-lab/alphabench/internal/types"
)

type ScannerTestSuite struct {
	suite.Suite

	scanner *Scanner
}

func TestScannerSuite(t *testing.T) {
	suite.Run(t, new(ScannerTestSuite))
}

func (suite *ScannerTestSuite) SetupTest() {
	scanner, err := NewScanner(DefaultScannerConfig(), nil)
	suite.Require().NoError(err)
	suite.scanner = scanner
}

func day(i int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

func seriesFromCloses(symbol string, closes []float64) types.PriceSeries {
	bars := make([]types.Bar, len(closes))
	for i, close := range closes {
		bars[i] = types.Bar{
			Time:   day(i),
			Symbol: symbol,
			Close:  close,
			Volume: 1000,
		}
	}

	return types.PriceSeries{Symbol: symbol, Bars: bars}
}

// randomWalk generates a seeded walk starting at 100.
func randomWalk(n int, seed int64) []float64 {
	source := stats.NewNormalSource(seed)

	closes := make([]float64, n)
	closes[0] = 100

	for i := 1; i < n; i++ {
		closes[i] = closes[i-1] + source.Draw(0, 1)
	}

	return closes
}

// cointegratedWith derives a series tracking hedge*base plus stationary
// noise.
func cointegratedWith(base []float64, hedge float64, seed int64) []float64 {
	source := stats.NewNormalSource(seed)

	derived := make([]float64, len(base))

	noise := 0.0
	for i := range base {
		noise = 0.3*noise + source.Draw(0, 1)
		derived[i] = hedge*base[i] + noise
	}

	return derived
}

func (suite *ScannerTestSuite) TestConfigValidation() {
	config := DefaultScannerConfig()
	config.PValueThreshold = 0

	_, err := NewScanner(config, nil)
	suite.Require().Error(err)

	config = DefaultScannerConfig()
	config.Workers = 0

	_, err = NewScanner(config, nil)
	suite.Require().Error(err)
}

func (suite *ScannerTestSuite) TestFindsCointegratedPairWithTypedSkips() {
	base := randomWalk(400, 3)

	constant := make([]float64, 400)
	for i := range constant {
		constant[i] = 50
	}

	series := map[string]types.PriceSeries{
		"AAA":   seriesFromCloses("AAA", cointegratedWith(base, 2, 5)),
		"BBB":   seriesFromCloses("BBB", base),
		"CONST": seriesFromCloses("CONST", constant),
		"SHORT": seriesFromCloses("SHORT", []float64{100, 101, 102, 103, 104}),
	}

	report, err := suite.scanner.FindCointegratedPairs(context.Background(), series)
	suite.Require().NoError(err)

	suite.Equal(4, report.Symbols)
	suite.Equal(6, report.Evaluated)
	suite.Len(report.Pairs, 1)
	suite.Len(report.Skipped, 5)

	accepted := report.Pairs[0]
	suite.Equal("AAA", accepted.SymbolA)
	suite.Equal("BBB", accepted.SymbolB)
	suite.Less(accepted.PValue, 0.05)
	suite.InDelta(2, accepted.HedgeRatio, 0.05)
	suite.GreaterOrEqual(accepted.HalfLife, 1)

	reasons := map[string]types.PairSkipReason{}
	for _, skip := range report.Skipped {
		reasons[skip.SymbolA+"/"+skip.SymbolB] = skip.Reason
	}

	// The degenerate constant series breaks the regression; the short
	// series fails the lookback requirement.
	suite.Equal(types.PairSkipTestFailure, reasons["AAA/CONST"])
	suite.Equal(types.PairSkipTestFailure, reasons["BBB/CONST"])
	suite.Equal(types.PairSkipInsufficientData, reasons["AAA/SHORT"])
	suite.Equal(types.PairSkipInsufficientData, reasons["BBB/SHORT"])
	suite.Equal(types.PairSkipInsufficientData, reasons["CONST/SHORT"])
}

func (suite *ScannerTestSuite) TestPValuesNeverDecrease() {
	base1 := randomWalk(400, 11)
	base2 := randomWalk(400, 13)

	series := map[string]types.PriceSeries{
		"A1": seriesFromCloses("A1", cointegratedWith(base1, 2, 17)),
		"B1": seriesFromCloses("B1", base1),
		"A2": seriesFromCloses("A2", cointegratedWith(base2, 1.5, 19)),
		"B2": seriesFromCloses("B2", base2),
	}

	report, err := suite.scanner.FindCointegratedPairs(context.Background(), series)
	suite.Require().NoError(err)
	suite.NotEmpty(report.Pairs)

	for i := 1; i < len(report.Pairs); i++ {
		suite.GreaterOrEqual(report.Pairs[i].PValue, report.Pairs[i-1].PValue)
	}
}

func (suite *ScannerTestSuite) TestEmptyUniverse() {
	report, err := suite.scanner.FindCointegratedPairs(context.Background(), nil)
	suite.Require().NoError(err)
	suite.Zero(report.Evaluated)
	suite.Empty(report.Pairs)
	suite.Empty(report.Skipped)
}

func (suite *ScannerTestSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	base := randomWalk(400, 3)
	series := map[string]types.PriceSeries{
		"AAA": seriesFromCloses("AAA", cointegratedWith(base, 2, 5)),
		"BBB": seriesFromCloses("BBB", base),
	}

	_, err := suite.scanner.FindCointegratedPairs(ctx, series)
	suite.Require().Error(err)
}

func (suite *ScannerTestSuite) TestSingleWorkerMatchesParallelScan() {
	base := randomWalk(400, 3)

	series := map[string]types.PriceSeries{
		"AAA": seriesFromCloses("AAA", cointegratedWith(base, 2, 5)),
		"BBB": seriesFromCloses("BBB", base),
		"CCC": seriesFromCloses("CCC", randomWalk(400, 23)),
	}

	config := DefaultScannerConfig()
	config.Workers = 1

	serial, err := NewScanner(config, nil)
	suite.Require().NoError(err)

	serialReport, err := serial.FindCointegratedPairs(context.Background(), series)
	suite.Require().NoError(err)

	parallelReport, err := suite.scanner.FindCointegratedPairs(context.Background(), series)
	suite.Require().NoError(err)

	suite.Equal(serialReport.Pairs, parallelReport.Pairs)
	suite.Equal(serialReport.Skipped, parallelReport.Skipped)
}
