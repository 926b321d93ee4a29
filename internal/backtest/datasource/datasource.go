// Package datasource provides read access to historical market data for the
// backtest engine. The engine never fetches or caches data on its own: it is
// handed a DataSource, optionally wrapped in an explicit cache with a
// defined lifetime.
package datasource

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/alphabench-lab/alphabench/internal/types"
)

// DataSource supplies immutable per-symbol price series.
type DataSource interface {
	// Initialize points the data source at the given market data path.
	// Parquet files and glob patterns are supported.
	Initialize(path string) error
	// ListSymbols returns the distinct symbols available, sorted.
	ListSymbols() ([]string, error)
	// LoadSeries reads the full daily price series for a symbol in time
	// order, optionally restricted to a closed time range.
	LoadSeries(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) (types.PriceSeries, error)
	// Count returns the number of bars available for a symbol.
	Count(symbol string) (int, error)
	// Close releases any resources held by the data source.
	Close() error
}
