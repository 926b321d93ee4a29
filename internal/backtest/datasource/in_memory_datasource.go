package datasource

import (
	"sort"
	"time"

	"github.com/moznion/go-optional"

	"github.com/alphabench-lab/alphabench/internal/types"
)

// InMemoryDataSource serves price series held in memory. It backs engine
// tests and programmatic use where data never touches disk.
type InMemoryDataSource struct {
	series map[string]types.PriceSeries
	loads  map[string]int
}

// NewInMemoryDataSource creates a data source over the given series, keyed
// by symbol.
func NewInMemoryDataSource(series map[string]types.PriceSeries) *InMemoryDataSource {
	copied := make(map[string]types.PriceSeries, len(series))
	for symbol, s := range series {
		copied[symbol] = s
	}

	return &InMemoryDataSource{
		series: copied,
		loads:  make(map[string]int),
	}
}

// Initialize implements DataSource. The in-memory source has no path to
// attach; Initialize is a no-op kept for interface symmetry.
func (d *InMemoryDataSource) Initialize(string) error {
	return nil
}

// ListSymbols implements DataSource.
func (d *InMemoryDataSource) ListSymbols() ([]string, error) {
	symbols := make([]string, 0, len(d.series))
	for symbol := range d.series {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	return symbols, nil
}

// LoadSeries implements DataSource.
func (d *InMemoryDataSource) LoadSeries(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) (types.PriceSeries, error) {
	series, ok := d.series[symbol]
	if !ok {
		return types.PriceSeries{}, newNoDataError(symbol)
	}

	d.loads[symbol]++

	if start.IsNone() && end.IsNone() {
		return series, nil
	}

	filtered := types.PriceSeries{Symbol: symbol}

	for _, bar := range series.Bars {
		if start.IsSome() && bar.Time.Before(start.Unwrap()) {
			continue
		}

		if end.IsSome() && bar.Time.After(end.Unwrap()) {
			continue
		}

		filtered.Bars = append(filtered.Bars, bar)
	}

	if filtered.Len() == 0 {
		return types.PriceSeries{}, newNoDataError(symbol)
	}

	return filtered, nil
}

// Count implements DataSource.
func (d *InMemoryDataSource) Count(symbol string) (int, error) {
	series, ok := d.series[symbol]
	if !ok {
		return 0, newNoDataError(symbol)
	}

	return series.Len(), nil
}

// Loads returns how many times a symbol's series was read, for cache tests.
func (d *InMemoryDataSource) Loads(symbol string) int {
	return d.loads[symbol]
}

// Close implements DataSource.
func (d *InMemoryDataSource) Close() error {
	return nil
}
