package types

import (
	"fmt"
	"os"

	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"
)

// MetricsRecord is the scalar performance summary of one (strategy, symbol)
// backtest. Percentages are expressed in percent (5.0 means 5%).
// SharpeRatio and ProfitFactor are None when their denominators vanish
// (zero volatility, no losing periods); they are never coerced to 0 or Inf.
type MetricsRecord struct {
	Strategy         string
	Symbol           string
	TotalReturn      float64
	AnnualizedReturn float64
	Volatility       float64
	SharpeRatio      optional.Option[float64]
	MaxDrawdown      float64
	WinRate          float64
	ProfitFactor     optional.Option[float64]
	VaR95            float64
	CVaR95           float64
	TradeCount       float64
}

// metricsRecordYAML mirrors MetricsRecord with pointer fields so undefined
// ratios round-trip as YAML nulls.
type metricsRecordYAML struct {
	Strategy         string   `yaml:"strategy"`
	Symbol           string   `yaml:"symbol"`
	TotalReturn      float64  `yaml:"total_return"`
	AnnualizedReturn float64  `yaml:"annualized_return"`
	Volatility       float64  `yaml:"volatility"`
	SharpeRatio      *float64 `yaml:"sharpe_ratio"`
	MaxDrawdown      float64  `yaml:"max_drawdown"`
	WinRate          float64  `yaml:"win_rate"`
	ProfitFactor     *float64 `yaml:"profit_factor"`
	VaR95            float64  `yaml:"var_95"`
	CVaR95           float64  `yaml:"cvar_95"`
	TradeCount       float64  `yaml:"trade_count"`
}

// MarshalYAML implements custom marshaling for MetricsRecord.
func (m MetricsRecord) MarshalYAML() (interface{}, error) {
	out := metricsRecordYAML{
		Strategy:         m.Strategy,
		Symbol:           m.Symbol,
		TotalReturn:      m.TotalReturn,
		AnnualizedReturn: m.AnnualizedReturn,
		Volatility:       m.Volatility,
		MaxDrawdown:      m.MaxDrawdown,
		WinRate:          m.WinRate,
		VaR95:            m.VaR95,
		CVaR95:           m.CVaR95,
		TradeCount:       m.TradeCount,
	}

	if m.SharpeRatio.IsSome() {
		sharpe := m.SharpeRatio.Unwrap()
		out.SharpeRatio = &sharpe
	}

	if m.ProfitFactor.IsSome() {
		profitFactor := m.ProfitFactor.Unwrap()
		out.ProfitFactor = &profitFactor
	}

	return out, nil
}

// UnmarshalYAML implements custom unmarshaling for MetricsRecord.
func (m *MetricsRecord) UnmarshalYAML(value *yaml.Node) error {
	var record metricsRecordYAML
	if err := value.Decode(&record); err != nil {
		return err
	}

	m.Strategy = record.Strategy
	m.Symbol = record.Symbol
	m.TotalReturn = record.TotalReturn
	m.AnnualizedReturn = record.AnnualizedReturn
	m.Volatility = record.Volatility
	m.MaxDrawdown = record.MaxDrawdown
	m.WinRate = record.WinRate
	m.VaR95 = record.VaR95
	m.CVaR95 = record.CVaR95
	m.TradeCount = record.TradeCount

	m.SharpeRatio = optional.None[float64]()
	if record.SharpeRatio != nil {
		m.SharpeRatio = optional.Some(*record.SharpeRatio)
	}

	m.ProfitFactor = optional.None[float64]()
	if record.ProfitFactor != nil {
		m.ProfitFactor = optional.Some(*record.ProfitFactor)
	}

	return nil
}

// WriteMetricsRecords writes metrics records as YAML to the given path.
func WriteMetricsRecords(path string, records []MetricsRecord) error {
	data, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics records to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write metrics records to file: %w", err)
	}

	return nil
}
