package writer

import (
	"database/sql"
	"fmt"
	"log"
	"math"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/alphabench-lab/alphabench/internal/types"
)

// DuckDBWriter implements the MarketDataWriter interface for DuckDB.
// Alongside the raw bars it materializes the derived simple and log period
// returns per symbol, so downstream readers never recompute them.
type DuckDBWriter struct {
	db         *sql.DB
	tx         *sql.Tx
	stmt       *sql.Stmt
	outputPath string
	// prevClose tracks the last close per symbol for return derivation.
	prevClose map[string]float64
}

// NewDuckDBWriter creates a new DuckDBWriter.
// outputPath specifies where the final Parquet file will be saved.
func NewDuckDBWriter(outputPath string) MarketDataWriter {
	return &DuckDBWriter{
		outputPath: outputPath,
		prevClose:  make(map[string]float64),
	}
}

// Initialize sets up the DuckDB writer: it opens an in-memory database,
// creates the bars table, begins a transaction and prepares the insert
// statement.
func (w *DuckDBWriter) Initialize() (err error) {
	w.db, err = sql.Open("duckdb", ":memory:")
	if err != nil {
		return fmt.Errorf("failed to open DuckDB connection: %w", err)
	}

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS market_data (
			time TIMESTAMP,
			symbol TEXT,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE,
			simple_return DOUBLE,
			log_return DOUBLE
		)
	`)
	if err != nil {
		w.db.Close()

		return fmt.Errorf("failed to create table: %w", err)
	}

	w.tx, err = w.db.Begin()
	if err != nil {
		w.db.Close()

		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	w.stmt, err = w.tx.Prepare(`
		INSERT INTO market_data (time, symbol, open, high, low, close, volume, simple_return, log_return)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		w.tx.Rollback()
		w.db.Close()

		return fmt.Errorf("failed to prepare statement: %w", err)
	}

	return nil
}

// Write persists a single daily bar within the open transaction. Bars must
// arrive in time order per symbol; the first bar of a symbol has NULL
// returns.
func (w *DuckDBWriter) Write(bar types.Bar) error {
	if w.stmt == nil {
		return fmt.Errorf("writer not initialized or statement is nil")
	}

	var simpleReturn, logReturn sql.NullFloat64

	if prev, ok := w.prevClose[bar.Symbol]; ok && prev != 0 {
		simpleReturn = sql.NullFloat64{Float64: bar.Close/prev - 1, Valid: true}

		if prev > 0 && bar.Close > 0 {
			logReturn = sql.NullFloat64{Float64: math.Log(bar.Close / prev), Valid: true}
		}
	}

	w.prevClose[bar.Symbol] = bar.Close

	_, err := w.stmt.Exec(
		bar.Time,
		bar.Symbol,
		bar.Open,
		bar.High,
		bar.Low,
		bar.Close,
		bar.Volume,
		simpleReturn,
		logReturn,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bar: %w", err)
	}

	return nil
}

// Finalize commits the transaction and exports the data to a Parquet file.
func (w *DuckDBWriter) Finalize() (outputPath string, err error) {
	if w.tx == nil {
		return "", fmt.Errorf("writer not initialized or transaction is nil")
	}

	if err = w.tx.Commit(); err != nil {
		w.tx.Rollback()

		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	w.tx = nil

	_, err = w.db.Exec(fmt.Sprintf(`COPY market_data TO '%s' (FORMAT PARQUET)`, w.outputPath))
	if err != nil {
		return "", fmt.Errorf("failed to export to Parquet: %w", err)
	}

	log.Printf("Successfully exported data to %s", w.outputPath)

	return w.outputPath, nil
}

// GetOutputPath returns the configured output file path.
func (w *DuckDBWriter) GetOutputPath() string {
	return w.outputPath
}

// Close cleans up resources used by the writer.
func (w *DuckDBWriter) Close() error {
	var closeErrors []error

	if w.stmt != nil {
		if err := w.stmt.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Errorf("failed to close statement: %w", err))
		}

		w.stmt = nil
	}

	// If the transaction is still active, Finalize was never reached.
	if w.tx != nil {
		if err := w.tx.Rollback(); err != nil {
			log.Printf("Warning: failed to rollback transaction during close: %v", err)
		}

		w.tx = nil
	}

	if w.db != nil {
		if err := w.db.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Errorf("failed to close db connection: %w", err))
		}

		w.db = nil
	}

	if len(closeErrors) > 0 {
		errMsg := "errors occurred during close:"
		for _, e := range closeErrors {
			errMsg += fmt.Sprintf("\n- %v", e)
		}

		return fmt.Errorf("%s", errMsg)
	}

	return nil
}
