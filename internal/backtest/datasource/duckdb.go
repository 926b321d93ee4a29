package datasource

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/alphabench-lab/alphabench/internal/logger"
	"github.com/alphabench-lab/alphabench/internal/types"
	"github.com/alphabench-lab/alphabench/pkg/errors"
)

// DuckDBDataSource reads daily bars out of parquet files through a DuckDB
// view.
type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDuckDBDataSource creates a DuckDB-backed data source with an in-memory
// database. Call Initialize to attach market data.
func NewDuckDBDataSource(log *logger.Logger) (*DuckDBDataSource, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable,
			"failed to open DuckDB connection", err)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &DuckDBDataSource{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize implements DataSource. The path may be a single parquet file or
// a glob pattern covering one file per symbol.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("initializing DuckDB data source", zap.String("path", path))

	if _, err := d.db.Exec(`DROP VIEW IF EXISTS market_data;`); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop existing view", err)
	}

	// CREATE VIEW has no placeholder support; the path comes from trusted
	// configuration.
	query := fmt.Sprintf(`
		CREATE VIEW market_data AS
		SELECT * FROM read_parquet('%s');
	`, path)

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeDataNotFound, err,
			"failed to read market data from %s", path)
	}

	return nil
}

// ListSymbols implements DataSource.
func (d *DuckDBDataSource) ListSymbols() ([]string, error) {
	rows, err := d.sq.
		Select("DISTINCT symbol").
		From("market_data").
		OrderBy("symbol").
		RunWith(d.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to list symbols", err)
	}
	defer rows.Close()

	var symbols []string

	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan symbol", err)
		}

		symbols = append(symbols, symbol)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate symbols", err)
	}

	return symbols, nil
}

// LoadSeries implements DataSource.
func (d *DuckDBDataSource) LoadSeries(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) (types.PriceSeries, error) {
	builder := d.sq.
		Select("time", "open", "high", "low", "close", "volume").
		From("market_data").
		Where(squirrel.Eq{"symbol": symbol}).
		OrderBy("time")

	if start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"time": start.Unwrap()})
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"time": end.Unwrap()})
	}

	rows, err := builder.RunWith(d.db).Query()
	if err != nil {
		return types.PriceSeries{}, errors.Wrapf(errors.ErrCodeQueryFailed, err,
			"failed to load series for %s", symbol)
	}
	defer rows.Close()

	series := types.PriceSeries{Symbol: symbol}

	for rows.Next() {
		bar := types.Bar{Symbol: symbol}
		if err := rows.Scan(&bar.Time, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return types.PriceSeries{}, errors.Wrapf(errors.ErrCodeQueryFailed, err,
				"failed to scan bar for %s", symbol)
		}

		series.Bars = append(series.Bars, bar)
	}

	if err := rows.Err(); err != nil {
		return types.PriceSeries{}, errors.Wrapf(errors.ErrCodeQueryFailed, err,
			"failed to iterate bars for %s", symbol)
	}

	if series.Len() == 0 {
		return types.PriceSeries{}, errors.Newf(errors.ErrCodeNoDataFound,
			"no data found for symbol %s", symbol)
	}

	return series, nil
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(symbol string) (int, error) {
	var count int

	err := d.sq.
		Select("COUNT(*)").
		From("market_data").
		Where(squirrel.Eq{"symbol": symbol}).
		RunWith(d.db).
		QueryRow().
		Scan(&count)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeQueryFailed, err,
			"failed to count bars for %s", symbol)
	}

	return count, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	if d.db == nil {
		return nil
	}

	return d.db.Close()
}
