package datasource

import (
	"container/list"
	"sync"
	"time"

	"github.com/moznion/go-optional"

	"github.com/alphabench-lab/alphabench/internal/types"
)

// CachedDataSource wraps a DataSource with an explicit per-symbol series
// cache. The cache lives exactly as long as the wrapper: it is injected into
// whoever needs it and released with Close, never held as process-wide
// state. At most maxSymbols series are kept; the least recently used symbol
// is evicted first.
//
// Cached entries ignore the requested time range, so the wrapper only
// serves full-series loads and delegates ranged loads to the underlying
// source.
type CachedDataSource struct {
	source     DataSource
	maxSymbols int

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List
}

type cacheEntry struct {
	symbol string
	series types.PriceSeries
}

// NewCachedDataSource wraps source with a cache holding up to maxSymbols
// full price series.
func NewCachedDataSource(source DataSource, maxSymbols int) *CachedDataSource {
	return &CachedDataSource{
		source:     source,
		maxSymbols: maxSymbols,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
	}
}

// Initialize implements DataSource. Attaching a new data path invalidates
// everything cached.
func (c *CachedDataSource) Initialize(path string) error {
	c.mu.Lock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
	c.mu.Unlock()

	return c.source.Initialize(path)
}

// ListSymbols implements DataSource.
func (c *CachedDataSource) ListSymbols() ([]string, error) {
	return c.source.ListSymbols()
}

// LoadSeries implements DataSource. Full-series loads are cached; ranged
// loads pass through.
func (c *CachedDataSource) LoadSeries(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) (types.PriceSeries, error) {
	if start.IsSome() || end.IsSome() {
		return c.source.LoadSeries(symbol, start, end)
	}

	c.mu.Lock()
	if element, ok := c.entries[symbol]; ok {
		c.order.MoveToFront(element)
		series := element.Value.(*cacheEntry).series
		c.mu.Unlock()

		return series, nil
	}
	c.mu.Unlock()

	series, err := c.source.LoadSeries(symbol, start, end)
	if err != nil {
		return types.PriceSeries{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if element, ok := c.entries[symbol]; ok {
		c.order.MoveToFront(element)

		return element.Value.(*cacheEntry).series, nil
	}

	c.entries[symbol] = c.order.PushFront(&cacheEntry{symbol: symbol, series: series})

	if c.maxSymbols > 0 && c.order.Len() > c.maxSymbols {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).symbol)
	}

	return series, nil
}

// Count implements DataSource.
func (c *CachedDataSource) Count(symbol string) (int, error) {
	c.mu.Lock()
	if element, ok := c.entries[symbol]; ok {
		count := element.Value.(*cacheEntry).series.Len()
		c.mu.Unlock()

		return count, nil
	}
	c.mu.Unlock()

	return c.source.Count(symbol)
}

// CachedSymbols returns how many series are currently cached.
func (c *CachedDataSource) CachedSymbols() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Len()
}

// Close implements DataSource. It drops the cache and closes the underlying
// source.
func (c *CachedDataSource) Close() error {
	c.mu.Lock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
	c.mu.Unlock()

	return c.source.Close()
}
