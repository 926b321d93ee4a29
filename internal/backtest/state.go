package backtest

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/alphabench-lab/alphabench/internal/logger"
	"github.com/alphabench-lab/alphabench/internal/types"
	"github.com/alphabench-lab/alphabench/internal/version"
	"github.com/alphabench-lab/alphabench/pkg/errors"
)

// ResultsStore persists evaluation runs, their metrics records and their
// full ledgers in a DuckDB database. One store may hold many runs; every
// run records the engine version that wrote it so readers can refuse
// results produced by an incompatible engine.
type ResultsStore struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
	path   string
}

// RunInfo describes one stored evaluation run.
type RunInfo struct {
	ID            string
	CreatedAt     time.Time
	EngineVersion string
	DataPath      string
}

// NewResultsStore opens (or creates) a results database at the given path.
// An empty path or ":memory:" keeps the store in memory.
func NewResultsStore(path string, log *logger.Logger) (*ResultsStore, error) {
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err,
			"failed to open results database at %s", path)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &ResultsStore{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		path:   path,
	}, nil
}

// Initialize creates the runs, metrics and ledgers tables.
func (s *ResultsStore) Initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMP,
			engine_version TEXT,
			data_path TEXT,
			config_yaml TEXT
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create runs table", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS metrics (
			run_id TEXT,
			strategy TEXT,
			symbol TEXT,
			total_return DOUBLE,
			annualized_return DOUBLE,
			volatility DOUBLE,
			sharpe_ratio DOUBLE,
			max_drawdown DOUBLE,
			win_rate DOUBLE,
			profit_factor DOUBLE,
			var_95 DOUBLE,
			cvar_95 DOUBLE,
			trade_count DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create metrics table", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS ledgers (
			run_id TEXT,
			strategy TEXT,
			symbol TEXT,
			time TIMESTAMP,
			position DOUBLE,
			price DOUBLE,
			holdings DOUBLE,
			cash DOUBLE,
			total DOUBLE,
			returns DOUBLE,
			trades DOUBLE,
			commission DOUBLE,
			net_total DOUBLE,
			net_returns DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create ledgers table", err)
	}

	return nil
}

// CreateRun registers a new evaluation run and returns its ID. The raw
// config YAML is stored alongside so a run is reproducible from the store
// alone.
func (s *ResultsStore) CreateRun(dataPath string, configYAML string) (string, error) {
	runID := uuid.New().String()

	_, err := s.sq.
		Insert("runs").
		Columns("id", "created_at", "engine_version", "data_path", "config_yaml").
		Values(runID, time.Now().UTC(), version.GetVersion(), dataPath, configYAML).
		RunWith(s.db).
		Exec()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeQueryFailed, "failed to create run", err)
	}

	s.logger.Info("created evaluation run",
		zap.String("run_id", runID),
		zap.String("data_path", dataPath),
	)

	return runID, nil
}

// SaveMetrics persists metrics records for a run. Undefined Sharpe ratios
// and profit factors are stored as SQL NULL.
func (s *ResultsStore) SaveMetrics(runID string, records []types.MetricsRecord) error {
	if len(records) == 0 {
		return nil
	}

	builder := s.sq.
		Insert("metrics").
		Columns(
			"run_id", "strategy", "symbol",
			"total_return", "annualized_return", "volatility", "sharpe_ratio",
			"max_drawdown", "win_rate", "profit_factor", "var_95", "cvar_95", "trade_count",
		)

	for _, record := range records {
		builder = builder.Values(
			runID, record.Strategy, record.Symbol,
			record.TotalReturn, record.AnnualizedReturn, record.Volatility,
			nullableFloat(record.SharpeRatio),
			record.MaxDrawdown, record.WinRate,
			nullableFloat(record.ProfitFactor),
			record.VaR95, record.CVaR95, record.TradeCount,
		)
	}

	if _, err := builder.RunWith(s.db).Exec(); err != nil {
		return errors.Wrapf(errors.ErrCodeQueryFailed, err,
			"failed to save metrics for run %s", runID)
	}

	return nil
}

// SaveLedger persists every row of one backtest ledger.
func (s *ResultsStore) SaveLedger(runID string, ledger types.PortfolioLedger) error {
	if ledger.Len() == 0 {
		return errors.Newf(errors.ErrCodeEmptyLedger,
			"cannot save empty ledger for %s/%s", ledger.Strategy, ledger.Symbol)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to begin transaction", err)
	}

	builder := s.sq.
		Insert("ledgers").
		Columns(
			"run_id", "strategy", "symbol", "time",
			"position", "price", "holdings", "cash", "total",
			"returns", "trades", "commission", "net_total", "net_returns",
		)

	for _, row := range ledger.Rows {
		builder = builder.Values(
			runID, ledger.Strategy, ledger.Symbol, row.Time,
			row.Position, row.Price, row.Holdings, row.Cash, row.Total,
			nullableFloat(row.Returns), row.Trades, row.Commission,
			row.NetTotal, nullableFloat(row.NetReturns),
		)
	}

	if _, err := builder.RunWith(tx).Exec(); err != nil {
		tx.Rollback()

		return errors.Wrapf(errors.ErrCodeQueryFailed, err,
			"failed to save ledger for %s/%s", ledger.Strategy, ledger.Symbol)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to commit ledger", err)
	}

	return nil
}

// ListRuns returns every stored run, newest first.
func (s *ResultsStore) ListRuns() ([]RunInfo, error) {
	rows, err := s.sq.
		Select("id", "created_at", "engine_version", "data_path").
		From("runs").
		OrderBy("created_at DESC").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to list runs", err)
	}
	defer rows.Close()

	var runs []RunInfo

	for rows.Next() {
		var run RunInfo
		if err := rows.Scan(&run.ID, &run.CreatedAt, &run.EngineVersion, &run.DataPath); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan run", err)
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate runs", err)
	}

	return runs, nil
}

// GetRun returns one stored run by ID.
func (s *ResultsStore) GetRun(runID string) (RunInfo, error) {
	var run RunInfo

	err := s.sq.
		Select("id", "created_at", "engine_version", "data_path").
		From("runs").
		Where(squirrel.Eq{"id": runID}).
		RunWith(s.db).
		QueryRow().
		Scan(&run.ID, &run.CreatedAt, &run.EngineVersion, &run.DataPath)
	if err != nil {
		return RunInfo{}, errors.Wrapf(errors.ErrCodeDataNotFound, err,
			"run %s not found", runID)
	}

	return run, nil
}

// GetMetrics returns the metrics records of one run. It refuses to read
// runs written by an engine version incompatible with the current one.
func (s *ResultsStore) GetMetrics(runID string) ([]types.MetricsRecord, error) {
	run, err := s.GetRun(runID)
	if err != nil {
		return nil, err
	}

	if err := version.CheckVersionCompatibility(version.GetVersion(), run.EngineVersion); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidVersion, err,
			"run %s is not readable by this engine", runID)
	}

	rows, err := s.sq.
		Select(
			"strategy", "symbol",
			"total_return", "annualized_return", "volatility", "sharpe_ratio",
			"max_drawdown", "win_rate", "profit_factor", "var_95", "cvar_95", "trade_count",
		).
		From("metrics").
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("strategy", "symbol").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err,
			"failed to load metrics for run %s", runID)
	}
	defer rows.Close()

	var records []types.MetricsRecord

	for rows.Next() {
		var (
			record       types.MetricsRecord
			sharpe       sql.NullFloat64
			profitFactor sql.NullFloat64
		)

		err := rows.Scan(
			&record.Strategy, &record.Symbol,
			&record.TotalReturn, &record.AnnualizedReturn, &record.Volatility, &sharpe,
			&record.MaxDrawdown, &record.WinRate, &profitFactor,
			&record.VaR95, &record.CVaR95, &record.TradeCount,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan metrics record", err)
		}

		record.SharpeRatio = optional.None[float64]()
		if sharpe.Valid {
			record.SharpeRatio = optional.Some(sharpe.Float64)
		}

		record.ProfitFactor = optional.None[float64]()
		if profitFactor.Valid {
			record.ProfitFactor = optional.Some(profitFactor.Float64)
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate metrics records", err)
	}

	return records, nil
}

// GetLedger reconstructs one stored ledger for a run.
func (s *ResultsStore) GetLedger(runID, strategyName, symbol string) (types.PortfolioLedger, error) {
	rows, err := s.sq.
		Select(
			"time", "position", "price", "holdings", "cash", "total",
			"returns", "trades", "commission", "net_total", "net_returns",
		).
		From("ledgers").
		Where(squirrel.Eq{"run_id": runID, "strategy": strategyName, "symbol": symbol}).
		OrderBy("time").
		RunWith(s.db).
		Query()
	if err != nil {
		return types.PortfolioLedger{}, errors.Wrapf(errors.ErrCodeQueryFailed, err,
			"failed to load ledger for %s/%s", strategyName, symbol)
	}
	defer rows.Close()

	ledger := types.PortfolioLedger{
		Symbol:   symbol,
		Strategy: strategyName,
	}

	for rows.Next() {
		var (
			row        types.LedgerRow
			returns    sql.NullFloat64
			netReturns sql.NullFloat64
		)

		err := rows.Scan(
			&row.Time, &row.Position, &row.Price, &row.Holdings, &row.Cash, &row.Total,
			&returns, &row.Trades, &row.Commission, &row.NetTotal, &netReturns,
		)
		if err != nil {
			return types.PortfolioLedger{}, errors.Wrap(errors.ErrCodeQueryFailed,
				"failed to scan ledger row", err)
		}

		row.Returns = optional.None[float64]()
		if returns.Valid {
			row.Returns = optional.Some(returns.Float64)
		}

		row.NetReturns = optional.None[float64]()
		if netReturns.Valid {
			row.NetReturns = optional.Some(netReturns.Float64)
		}

		ledger.Rows = append(ledger.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return types.PortfolioLedger{}, errors.Wrap(errors.ErrCodeQueryFailed,
			"failed to iterate ledger rows", err)
	}

	if ledger.Len() == 0 {
		return types.PortfolioLedger{}, errors.Newf(errors.ErrCodeDataNotFound,
			"no ledger stored for %s/%s in run %s", strategyName, symbol, runID)
	}

	return ledger, nil
}

// ExportLedgers writes every ledger row of a run to a Parquet file in the
// given directory and returns the file path.
func (s *ResultsStore) ExportLedgers(runID string, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(errors.ErrCodeBacktestNoResultsDir,
			"failed to create results directory", err)
	}

	ledgersPath := filepath.Join(dir, fmt.Sprintf("ledgers_%s.parquet", runID))

	// COPY has no placeholder support; runID is a UUID generated by this
	// store and the path comes from trusted configuration.
	query := fmt.Sprintf(
		`COPY (SELECT * FROM ledgers WHERE run_id = '%s' ORDER BY strategy, symbol, time) TO '%s' (FORMAT PARQUET)`,
		runID, ledgersPath)

	if _, err := s.db.Exec(query); err != nil {
		return "", errors.Wrapf(errors.ErrCodeQueryFailed, err,
			"failed to export ledgers for run %s", runID)
	}

	s.logger.Info("exported ledgers to parquet",
		zap.String("run_id", runID),
		zap.String("path", ledgersPath),
	)

	return ledgersPath, nil
}

// Path returns the database location of this store.
func (s *ResultsStore) Path() string {
	return s.path
}

// Close releases the underlying database.
func (s *ResultsStore) Close() error {
	if s.db == nil {
		return nil
	}

	return s.db.Close()
}

// nullableFloat converts an optional float into a driver-level nullable.
func nullableFloat(v optional.Option[float64]) sql.NullFloat64 {
	if v.IsNone() {
		return sql.NullFloat64{}
	}

	return sql.NullFloat64{Float64: v.Unwrap(), Valid: true}
}
