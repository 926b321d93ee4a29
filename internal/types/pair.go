package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Pair is one cointegrated symbol pair surviving the scan. It is consumed
// once to construct a pairs-trading signal series.
type Pair struct {
	SymbolA string `yaml:"symbol_a"`
	SymbolB string `yaml:"symbol_b"`
	// PValue is the Engle-Granger cointegration p-value.
	PValue float64 `yaml:"p_value"`
	// HedgeRatio is the OLS slope of symbol A's price on symbol B's price.
	HedgeRatio float64 `yaml:"hedge_ratio"`
	// HalfLife is the estimated mean-reversion half-life of the spread,
	// in periods.
	HalfLife int `yaml:"half_life"`
}

// PairSkipReason classifies why a candidate pair was excluded from the scan
// results.
type PairSkipReason string

const (
	// PairSkipInsufficientData marks pairs whose aligned history is shorter
	// than the strategy lookback.
	PairSkipInsufficientData PairSkipReason = "insufficient_data"
	// PairSkipAlignmentEmpty marks pairs with no common timestamps.
	PairSkipAlignmentEmpty PairSkipReason = "alignment_empty"
	// PairSkipTestFailure marks pairs whose statistical tests failed
	// numerically on degenerate input.
	PairSkipTestFailure PairSkipReason = "test_failure"
	// PairSkipAboveThreshold marks pairs rejected by the p-value threshold.
	PairSkipAboveThreshold PairSkipReason = "above_threshold"
)

// PairSkip records one excluded pair with its reason, so a scan never loses
// information silently.
type PairSkip struct {
	SymbolA string         `yaml:"symbol_a"`
	SymbolB string         `yaml:"symbol_b"`
	Reason  PairSkipReason `yaml:"reason"`
	Detail  string         `yaml:"detail,omitempty"`
}

// PairScanReport is the complete result of a cointegration scan: accepted
// pairs in ascending p-value order plus every skipped pair with its reason.
type PairScanReport struct {
	Timestamp time.Time  `yaml:"timestamp"`
	Symbols   int        `yaml:"symbols"`
	Evaluated int        `yaml:"evaluated"`
	Pairs     []Pair     `yaml:"pairs"`
	Skipped   []PairSkip `yaml:"skipped"`
}

// WritePairScanReport writes a scan report as YAML to the given path.
func WritePairScanReport(path string, report PairScanReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal pair scan report to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write pair scan report to file: %w", err)
	}

	return nil
}
