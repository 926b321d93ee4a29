package backtest

import (
	"os"
	"testing"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/alphabench-lab/alphabench/internal/types"
	"github.com/alphabench-lab/alphabench/internal/version"
)

type ResultsStoreTestSuite struct {
	suite.Suite

	store *ResultsStore
}

func TestResultsStoreSuite(t *testing.T) {
	suite.Run(t, new(ResultsStoreTestSuite))
}

func (suite *ResultsStoreTestSuite) SetupTest() {
	store, err := NewResultsStore("", nil)
	suite.Require().NoError(err)
	suite.Require().NoError(store.Initialize())
	suite.store = store
}

func (suite *ResultsStoreTestSuite) TearDownTest() {
	suite.Require().NoError(suite.store.Close())
}

func (suite *ResultsStoreTestSuite) TestCreateAndListRuns() {
	runID, err := suite.store.CreateRun("data/*.parquet", "data_path: data/*.parquet")
	suite.Require().NoError(err)
	suite.NotEmpty(runID)

	runs, err := suite.store.ListRuns()
	suite.Require().NoError(err)
	suite.Require().Len(runs, 1)

	suite.Equal(runID, runs[0].ID)
	suite.Equal("data/*.parquet", runs[0].DataPath)
	suite.Equal(version.GetVersion(), runs[0].EngineVersion)
}

func (suite *ResultsStoreTestSuite) TestMetricsRoundTrip() {
	runID, err := suite.store.CreateRun("data", "")
	suite.Require().NoError(err)

	records := []types.MetricsRecord{
		{
			Strategy:         "mean_reversion",
			Symbol:           "AAA",
			TotalReturn:      5.5,
			AnnualizedReturn: 12.1,
			Volatility:       8.3,
			SharpeRatio:      optional.Some(1.46),
			MaxDrawdown:      -4.2,
			WinRate:          55,
			ProfitFactor:     optional.Some(1.8),
			VaR95:            -1.1,
			CVaR95:           -1.9,
			TradeCount:       12,
		},
		{
			Strategy:     "momentum",
			Symbol:       "AAA",
			SharpeRatio:  optional.None[float64](),
			ProfitFactor: optional.None[float64](),
		},
	}

	suite.Require().NoError(suite.store.SaveMetrics(runID, records))

	loaded, err := suite.store.GetMetrics(runID)
	suite.Require().NoError(err)
	suite.Require().Len(loaded, 2)

	// Records come back ordered by strategy then symbol.
	suite.Equal("mean_reversion", loaded[0].Strategy)
	suite.Equal(records[0], loaded[0])

	// Undefined ratios survive the NULL round trip.
	suite.True(loaded[1].SharpeRatio.IsNone())
	suite.True(loaded[1].ProfitFactor.IsNone())
}

func (suite *ResultsStoreTestSuite) TestLedgerRoundTrip() {
	runID, err := suite.store.CreateRun("data", "")
	suite.Require().NoError(err)

	signals := signalsWith("AAA", "mean_reversion",
		[]float64{0, 1, 1, 0}, []float64{100, 102, 99, 101})

	ledger, err := RunBacktest(signals, DefaultPortfolioParams())
	suite.Require().NoError(err)
	suite.Require().NoError(suite.store.SaveLedger(runID, ledger))

	loaded, err := suite.store.GetLedger(runID, "mean_reversion", "AAA")
	suite.Require().NoError(err)
	suite.Require().Equal(ledger.Len(), loaded.Len())

	suite.True(loaded.Rows[0].Returns.IsNone())
	suite.True(loaded.Rows[1].Returns.IsSome())

	for i := range ledger.Rows {
		suite.InDelta(ledger.Rows[i].NetTotal, loaded.Rows[i].NetTotal, 1e-9)
		suite.InDelta(ledger.Rows[i].Position, loaded.Rows[i].Position, 1e-9)
	}
}

func (suite *ResultsStoreTestSuite) TestSaveEmptyLedgerRejected() {
	runID, err := suite.store.CreateRun("data", "")
	suite.Require().NoError(err)

	err = suite.store.SaveLedger(runID, types.PortfolioLedger{Symbol: "AAA", Strategy: "test"})
	suite.Require().Error(err)
}

func (suite *ResultsStoreTestSuite) TestUnknownRun() {
	_, err := suite.store.GetMetrics("no-such-run")
	suite.Require().Error(err)

	_, err = suite.store.GetLedger("no-such-run", "momentum", "AAA")
	suite.Require().Error(err)
}

func (suite *ResultsStoreTestSuite) TestIncompatibleEngineVersionRefused() {
	original := version.Version
	defer func() { version.Version = original }()

	version.Version = "2.0.0"

	runID, err := suite.store.CreateRun("data", "")
	suite.Require().NoError(err)
	suite.Require().NoError(suite.store.SaveMetrics(runID, []types.MetricsRecord{{
		Strategy: "momentum",
		Symbol:   "AAA",
	}}))

	// A 1.x engine must refuse results written by a 2.x engine.
	version.Version = "1.0.0"

	_, err = suite.store.GetMetrics(runID)
	suite.Require().Error(err)
	suite.Contains(err.Error(), "major version mismatch")
}

func (suite *ResultsStoreTestSuite) TestExportLedgers() {
	runID, err := suite.store.CreateRun("data", "")
	suite.Require().NoError(err)

	signals := signalsWith("AAA", "momentum",
		[]float64{0, 1, 0}, []float64{100, 101, 102})

	ledger, err := RunBacktest(signals, DefaultPortfolioParams())
	suite.Require().NoError(err)
	suite.Require().NoError(suite.store.SaveLedger(runID, ledger))

	dir := suite.T().TempDir()

	path, err := suite.store.ExportLedgers(runID, dir)
	suite.Require().NoError(err)

	info, err := os.Stat(path)
	suite.Require().NoError(err)
	suite.Positive(info.Size())
}
