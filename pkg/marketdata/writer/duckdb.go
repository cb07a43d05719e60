package writer

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-fx/internal/types"
)

// DuckDBWriter buffers candles in an in-memory DuckDB table and exports
// them in one shot on Finalize. Buffering through a transaction keeps the
// per-row insert cost low enough for multi-year minute downloads.
type DuckDBWriter struct {
	db         *sql.DB
	tx         *sql.Tx
	stmt       *sql.Stmt
	outputPath string
	format     Format
}

// NewDuckDBWriter creates a writer that exports to outputPath in the given format.
func NewDuckDBWriter(outputPath string, format Format) MarketDataWriter {
	return &DuckDBWriter{
		db:         nil,
		tx:         nil,
		stmt:       nil,
		outputPath: outputPath,
		format:     format,
	}
}

// Initialize opens the in-memory database, creates the candle table,
// and prepares the insert statement inside a transaction.
func (w *DuckDBWriter) Initialize() (err error) {
	w.db, err = sql.Open("duckdb", ":memory:")
	if err != nil {
		return fmt.Errorf("failed to open DuckDB connection: %w", err)
	}

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS market_data (
			id TEXT,
			time TIMESTAMP,
			symbol TEXT,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE
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
		INSERT INTO market_data (id, time, symbol, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		w.tx.Rollback()
		w.db.Close()

		return fmt.Errorf("failed to prepare statement: %w", err)
	}

	return nil
}

// Write inserts a single candle through the prepared statement.
func (w *DuckDBWriter) Write(data types.MarketData) error {
	if w.stmt == nil {
		return fmt.Errorf("writer not initialized or statement is nil")
	}

	_, err := w.stmt.Exec(
		uuid.New().String(),
		data.Time,
		data.Symbol,
		data.Open,
		data.High,
		data.Low,
		data.Close,
		data.Volume,
	)
	if err != nil {
		return fmt.Errorf("failed to insert data: %w", err)
	}

	return nil
}

// Finalize commits the transaction and exports the table to the output path.
// Rows are exported in time order so downstream readers see an ordered stream.
func (w *DuckDBWriter) Finalize() (outputPath string, err error) {
	if w.tx == nil {
		return "", fmt.Errorf("writer not initialized or transaction is nil")
	}

	if err = w.tx.Commit(); err != nil {
		w.tx.Rollback()

		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	w.tx = nil

	switch w.format {
	case FormatCSV:
		_, err = w.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM market_data ORDER BY time) TO '%s' (FORMAT CSV, HEADER)`, w.outputPath))
		if err != nil {
			return "", fmt.Errorf("failed to export to CSV: %w", err)
		}
	default:
		_, err = w.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM market_data ORDER BY time) TO '%s' (FORMAT PARQUET)`, w.outputPath))
		if err != nil {
			return "", fmt.Errorf("failed to export to Parquet: %w", err)
		}
	}

	return w.outputPath, nil
}

// Close releases the statement, rolls back any transaction Finalize did not
// commit, and closes the database. Safe to call more than once.
func (w *DuckDBWriter) Close() error {
	var closeErrors []error

	if w.stmt != nil {
		if err := w.stmt.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Errorf("failed to close statement: %w", err))
		}

		w.stmt = nil
	}

	if w.tx != nil {
		if err := w.tx.Rollback(); err != nil {
			closeErrors = append(closeErrors, fmt.Errorf("failed to rollback transaction: %w", err))
		}

		w.tx = nil
	}

	if w.db != nil {
		if err := w.db.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Errorf("failed to close db connection: %w", err))
		}

		w.db = nil
	}

	return errors.Join(closeErrors...)
}

// GetOutputPath returns the path the writer exports to.
func (w *DuckDBWriter) GetOutputPath() string {
	return w.outputPath
}
