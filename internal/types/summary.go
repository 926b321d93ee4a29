package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RunSummary is the per-run YAML artifact describing one full evaluation:
// which strategies ran over which symbols, where the detailed artifacts
// live, and the metrics records themselves.
type RunSummary struct {
	// ID is the unique identifier for this evaluation run.
	ID string `yaml:"id"`
	// Timestamp is when this run was executed.
	Timestamp time.Time `yaml:"timestamp"`
	// EngineVersion is the engine version that produced this run.
	EngineVersion string `yaml:"engine_version"`
	// DataPath is the market data location the run read from.
	DataPath string `yaml:"data_path"`
	// Strategies lists the strategy names evaluated.
	Strategies []string `yaml:"strategies"`
	// Symbols lists the symbols evaluated.
	Symbols []string `yaml:"symbols"`
	// Records holds one metrics record per (strategy, symbol) combination.
	Records []MetricsRecord `yaml:"records"`
	// Pairs holds the cointegrated pairs found for the pairs strategy.
	Pairs []Pair `yaml:"pairs,omitempty"`
	// SkippedPairs counts pairs excluded by the scan.
	SkippedPairs int `yaml:"skipped_pairs"`
	// LedgersFilePath is the path to the exported ledgers parquet file.
	LedgersFilePath string `yaml:"ledgers_file_path,omitempty"`
	// StorePath is the path of the results database for this run.
	StorePath string `yaml:"store_path,omitempty"`
}

// WriteRunSummary writes the run summary as YAML to the given path.
func WriteRunSummary(path string, summary RunSummary) error {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run summary to file: %w", err)
	}

	return nil
}
