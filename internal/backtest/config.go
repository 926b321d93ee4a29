package backtest

import (
	"encoding/json"
	"os"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"

	"github.com/alphabench-lab/alphabench/internal/pairs"
	"github.com/alphabench-lab/alphabench/internal/strategy"
	"github.com/alphabench-lab/alphabench/pkg/errors"
)

// EvaluationConfig drives one full evaluation run: which data to read, which
// symbols and strategies to evaluate, and the portfolio parameters applied
// to every backtest.
type EvaluationConfig struct {
	// DataPath is the market data location (parquet file or glob).
	DataPath string `yaml:"data_path" json:"data_path" jsonschema:"title=Data Path,description=Market data parquet file or glob pattern" validate:"required"`
	// ResultsFolder receives the run summary and exported artifacts.
	ResultsFolder string `yaml:"results_folder" json:"results_folder" jsonschema:"title=Results Folder,description=Directory for run artifacts" validate:"required"`
	// Symbols restricts the evaluation to the listed symbols; empty means
	// every symbol in the data.
	Symbols []string `yaml:"symbols" json:"symbols" jsonschema:"title=Symbols,description=Symbols to evaluate; empty means all"`
	// InitialCapital is the starting cash of every simulated portfolio.
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting capital in account currency,minimum=0" validate:"gt=0"`
	// CommissionRate is the flat per-fill commission fraction.
	CommissionRate float64 `yaml:"commission_rate" json:"commission_rate" jsonschema:"title=Commission Rate,description=Flat commission as a fraction of traded value,minimum=0" validate:"gte=0"`
	// UnitSize converts one unit of signal into shares.
	UnitSize float64 `yaml:"unit_size" json:"unit_size" jsonschema:"title=Unit Size,description=Shares per unit of signal,minimum=1" validate:"gt=0"`
	// StartTime optionally clips the evaluation window.
	StartTime optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start of the evaluation window"`
	// EndTime optionally clips the evaluation window.
	EndTime optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end of the evaluation window"`
	// CacheSymbols bounds the injected price series cache.
	CacheSymbols int `yaml:"cache_symbols" json:"cache_symbols" jsonschema:"title=Cache Symbols,description=Maximum symbols held in the price cache,minimum=1" validate:"gt=0"`

	MeanReversion strategy.MeanReversionConfig `yaml:"mean_reversion" json:"mean_reversion" jsonschema:"title=Mean Reversion,description=Mean reversion strategy parameters"`
	Momentum      strategy.MomentumConfig      `yaml:"momentum" json:"momentum" jsonschema:"title=Momentum,description=Momentum strategy parameters"`
	PairsTrading  strategy.PairsTradingConfig  `yaml:"pairs_trading" json:"pairs_trading" jsonschema:"title=Pairs Trading,description=Pairs trading strategy parameters"`
	PairScan      pairs.ScannerConfig          `yaml:"pair_scan" json:"pair_scan" jsonschema:"title=Pair Scan,description=Cointegration scan parameters"`
}

// DefaultConfig returns an EvaluationConfig with the reference parameters.
func DefaultConfig() EvaluationConfig {
	return EvaluationConfig{
		DataPath:       "data/*.parquet",
		ResultsFolder:  "results",
		Symbols:        nil,
		InitialCapital: 100000,
		CommissionRate: 0.001,
		UnitSize:       1000,
		StartTime:      optional.None[time.Time](),
		EndTime:        optional.None[time.Time](),
		CacheSymbols:   64,
		MeanReversion:  strategy.DefaultMeanReversionConfig(),
		Momentum:       strategy.DefaultMomentumConfig(),
		PairsTrading:   strategy.DefaultPairsTradingConfig(),
		PairScan:       pairs.DefaultScannerConfig(),
	}
}

// rawConfig mirrors EvaluationConfig with pointer time fields so the
// optional window bounds round-trip as plain YAML timestamps.
type rawConfig struct {
	DataPath       string                       `yaml:"data_path"`
	ResultsFolder  string                       `yaml:"results_folder"`
	Symbols        []string                     `yaml:"symbols"`
	InitialCapital float64                      `yaml:"initial_capital"`
	CommissionRate float64                      `yaml:"commission_rate"`
	UnitSize       float64                      `yaml:"unit_size"`
	StartTime      *time.Time                   `yaml:"start_time"`
	EndTime        *time.Time                   `yaml:"end_time"`
	CacheSymbols   int                          `yaml:"cache_symbols"`
	MeanReversion  strategy.MeanReversionConfig `yaml:"mean_reversion"`
	Momentum       strategy.MomentumConfig      `yaml:"momentum"`
	PairsTrading   strategy.PairsTradingConfig  `yaml:"pairs_trading"`
	PairScan       pairs.ScannerConfig          `yaml:"pair_scan"`
}

// asRaw converts the config to its pointer-field mirror.
func (c EvaluationConfig) asRaw() rawConfig {
	raw := rawConfig{
		DataPath:       c.DataPath,
		ResultsFolder:  c.ResultsFolder,
		Symbols:        c.Symbols,
		InitialCapital: c.InitialCapital,
		CommissionRate: c.CommissionRate,
		UnitSize:       c.UnitSize,
		CacheSymbols:   c.CacheSymbols,
		MeanReversion:  c.MeanReversion,
		Momentum:       c.Momentum,
		PairsTrading:   c.PairsTrading,
		PairScan:       c.PairScan,
	}

	if c.StartTime.IsSome() {
		start := c.StartTime.Unwrap()
		raw.StartTime = &start
	}

	if c.EndTime.IsSome() {
		end := c.EndTime.Unwrap()
		raw.EndTime = &end
	}

	return raw
}

// UnmarshalYAML implements custom unmarshaling for EvaluationConfig. The
// document is decoded over the receiver's current values, so fields absent
// from the YAML keep whatever the caller seeded (the defaults, for
// ParseConfig).
func (c *EvaluationConfig) UnmarshalYAML(value *yaml.Node) error {
	raw := c.asRaw()
	if err := value.Decode(&raw); err != nil {
		return err
	}

	c.DataPath = raw.DataPath
	c.ResultsFolder = raw.ResultsFolder
	c.Symbols = raw.Symbols
	c.InitialCapital = raw.InitialCapital
	c.CommissionRate = raw.CommissionRate
	c.UnitSize = raw.UnitSize
	c.CacheSymbols = raw.CacheSymbols
	c.MeanReversion = raw.MeanReversion
	c.Momentum = raw.Momentum
	c.PairsTrading = raw.PairsTrading
	c.PairScan = raw.PairScan

	c.StartTime = optional.None[time.Time]()
	if raw.StartTime != nil {
		c.StartTime = optional.Some(*raw.StartTime)
	}

	c.EndTime = optional.None[time.Time]()
	if raw.EndTime != nil {
		c.EndTime = optional.Some(*raw.EndTime)
	}

	return nil
}

// MarshalYAML implements custom marshaling for EvaluationConfig.
func (c EvaluationConfig) MarshalYAML() (interface{}, error) {
	return c.asRaw(), nil
}

// Validate checks the configuration, including every nested strategy block.
func (c *EvaluationConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "invalid evaluation configuration", err)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && !c.EndTime.Unwrap().After(c.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeBacktestConfigError, "end_time must be after start_time")
	}

	return nil
}

// LoadConfig reads and validates an EvaluationConfig from a YAML file.
func LoadConfig(path string) (EvaluationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EvaluationConfig{}, errors.Wrapf(errors.ErrCodeBacktestConfigError, err,
			"failed to read config file %s", path)
	}

	return ParseConfig(data)
}

// ParseConfig parses and validates an EvaluationConfig from YAML content.
func ParseConfig(data []byte) (EvaluationConfig, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return EvaluationConfig{}, errors.Wrap(errors.ErrCodeBacktestConfigError,
			"failed to parse config YAML", err)
	}

	if err := config.Validate(); err != nil {
		return EvaluationConfig{}, err
	}

	return config, nil
}

// GenerateSchema generates a JSON schema for the EvaluationConfig.
func (c *EvaluationConfig) GenerateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)
	schema.Title = "evaluation-config"
	schema.Description = "Configuration schema for the strategy evaluation engine"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema
}

// GenerateSchemaJSON generates the JSON schema as an indented string.
func (c *EvaluationConfig) GenerateSchemaJSON() (string, error) {
	schemaBytes, err := json.MarshalIndent(c.GenerateSchema(), "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeBacktestConfigError,
			"failed to marshal config schema", err)
	}

	return string(schemaBytes), nil
}
