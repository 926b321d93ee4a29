package backtest

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestDefaultConfigIsValid() {
	config := DefaultConfig()
	suite.Require().NoError(config.Validate())
}

func (suite *ConfigTestSuite) TestParseOverridesDefaults() {
	content := `
data_path: "market/*.parquet"
results_folder: out
symbols: [AAPL, MSFT]
initial_capital: 50000
commission_rate: 0.002
unit_size: 100
cache_symbols: 8
mean_reversion:
  lookback: 30
  entry_zscore: 2.5
  exit_zscore: 1.0
momentum:
  lookback: 10
  holding_period: 3
  signal_scaling: 1.5
pairs_trading:
  lookback: 90
  entry_zscore: 2.0
  exit_zscore: 0.5
pair_scan:
  p_value_threshold: 0.01
  lookback: 90
  workers: 8
`

	config, err := ParseConfig([]byte(content))
	suite.Require().NoError(err)

	suite.Equal("market/*.parquet", config.DataPath)
	suite.Equal([]string{"AAPL", "MSFT"}, config.Symbols)
	suite.Equal(50000.0, config.InitialCapital)
	suite.Equal(8, config.CacheSymbols)
	suite.Equal(30, config.MeanReversion.Lookback)
	suite.Equal(1.5, config.Momentum.SignalScaling)
	suite.Equal(90, config.PairsTrading.Lookback)
	suite.Equal(0.01, config.PairScan.PValueThreshold)
	suite.True(config.StartTime.IsNone())
	suite.True(config.EndTime.IsNone())
}

func (suite *ConfigTestSuite) TestPartialConfigKeepsDefaults() {
	content := `
data_path: "market/*.parquet"
results_folder: out
initial_capital: 250000
mean_reversion:
  lookback: 40
`

	config, err := ParseConfig([]byte(content))
	suite.Require().NoError(err)

	defaults := DefaultConfig()
	suite.Equal(250000.0, config.InitialCapital)
	suite.Equal(defaults.CommissionRate, config.CommissionRate)
	suite.Equal(defaults.UnitSize, config.UnitSize)
	suite.Equal(defaults.CacheSymbols, config.CacheSymbols)
	suite.Equal(defaults.Momentum, config.Momentum)
	suite.Equal(defaults.PairScan, config.PairScan)

	// Nested blocks overlay field by field as well.
	suite.Equal(40, config.MeanReversion.Lookback)
	suite.Equal(defaults.MeanReversion.EntryZScore, config.MeanReversion.EntryZScore)
	suite.Equal(defaults.MeanReversion.ExitZScore, config.MeanReversion.ExitZScore)
}

func (suite *ConfigTestSuite) TestParseTimeWindow() {
	content := `
data_path: "data/*.parquet"
results_folder: results
start_time: 2023-01-01T00:00:00Z
end_time: 2024-01-01T00:00:00Z
`

	config, err := ParseConfig([]byte(content))
	suite.Require().NoError(err)

	suite.Require().True(config.StartTime.IsSome())
	suite.Require().True(config.EndTime.IsSome())
	suite.Equal(2023, config.StartTime.Unwrap().Year())
	suite.Equal(2024, config.EndTime.Unwrap().Year())
}

func (suite *ConfigTestSuite) TestEndBeforeStartRejected() {
	content := `
data_path: "data/*.parquet"
results_folder: results
start_time: 2024-01-01T00:00:00Z
end_time: 2023-01-01T00:00:00Z
`

	_, err := ParseConfig([]byte(content))
	suite.Require().Error(err)
}

func (suite *ConfigTestSuite) TestInvalidValuesRejected() {
	config := DefaultConfig()
	config.InitialCapital = 0
	suite.Require().Error(config.Validate())

	config = DefaultConfig()
	config.CommissionRate = -0.1
	suite.Require().Error(config.Validate())

	config = DefaultConfig()
	config.MeanReversion.EntryZScore = 0.1
	config.MeanReversion.ExitZScore = 0.5
	suite.Require().Error(config.Validate())
}

func (suite *ConfigTestSuite) TestYAMLRoundTrip() {
	config := DefaultConfig()
	config.Symbols = []string{"AAA", "BBB"}
	config.StartTime = optional.Some(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))

	data, err := yaml.Marshal(config)
	suite.Require().NoError(err)

	parsed, err := ParseConfig(data)
	suite.Require().NoError(err)
	suite.Equal(config, parsed)
}

func (suite *ConfigTestSuite) TestGenerateSchema() {
	config := DefaultConfig()

	schemaJSON, err := config.GenerateSchemaJSON()
	suite.Require().NoError(err)

	suite.Contains(schemaJSON, "data_path")
	suite.Contains(schemaJSON, "date-time")
	suite.Contains(schemaJSON, "pair_scan")
}
