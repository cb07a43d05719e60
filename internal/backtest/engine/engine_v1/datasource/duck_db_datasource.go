package datasource

import (
	"database/sql"
	"fmt"
	"iter"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-fx/internal/logger"
	"github.com/rxtech-lab/argo-fx/internal/types"
	"github.com/rxtech-lab/argo-fx/pkg/errors"
	"go.uber.org/zap"
)

type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewDataSource creates a new DuckDB data source instance with the specified database path.
// The path parameter specifies the DuckDB database file location, use ":memory:" for an
// in-process database. This is distinct from Initialize() which mounts a market data file.
func NewDataSource(path string, logger *logger.Logger) (DataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	// Set DuckDB-specific optimizations
	_, err = db.Exec(`
		SET memory_limit='8GB';
		SET threads=4;
		SET temp_directory='./temp';
	`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to set duckdb optimizations", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: logger,
	}, nil
}

// Initialize implements DataSource. The file format is selected by extension,
// parquet and csv are supported.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB data source", zap.String("path", path))

	var reader string

	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		reader = fmt.Sprintf("read_parquet('%s')", path)
	case ".csv":
		reader = fmt.Sprintf("read_csv_auto('%s', header=true)", path)
	default:
		return errors.Newf(errors.ErrCodeUnsupportedDataFormat, "unsupported market data format: %s", filepath.Ext(path))
	}

	// First drop the view if it exists
	_, err := d.db.Exec(`DROP VIEW IF EXISTS market_data;`)
	if err != nil {
		return fmt.Errorf("failed to drop existing view: %w", err)
	}

	// Create a view over the data file - raw SQL as Squirrel doesn't support CREATE VIEW
	query := fmt.Sprintf(`
		CREATE VIEW market_data AS
		SELECT * FROM %s;
	`, reader)

	_, err = d.db.Exec(query)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to mount market data file %s", path)
	}

	return nil
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	var count int

	query := "SELECT COUNT(*) FROM market_data"

	var params []interface{}

	paramCount := 0

	if start.IsSome() {
		paramCount++
		query += fmt.Sprintf(" WHERE time >= $%d", paramCount)
		params = append(params, start.Unwrap())
	}

	if end.IsSome() {
		paramCount++
		if paramCount == 1 {
			query += " WHERE"
		} else {
			query += " AND"
		}

		query += fmt.Sprintf(" time <= $%d", paramCount)

		params = append(params, end.Unwrap())
	}

	err := d.db.QueryRow(query, params...).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count market data", err)
	}

	return count, nil
}

// ReadAll implements DataSource with batch processing.
func (d *DuckDBDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) iter.Seq2[types.MarketData, error] {
	const batchSize = 1000

	return func(yield func(types.MarketData, error) bool) {
		d.logger.Debug("Reading all data from DuckDB with batch processing")

		query := `
			SELECT time, symbol, open, high, low, close, volume
			FROM market_data
		`

		var conditions []string

		var params []interface{}

		paramCount := 0

		if start.IsSome() {
			paramCount++
			conditions = append(conditions, fmt.Sprintf("time >= $%d", paramCount))
			params = append(params, start.Unwrap())
		}

		if end.IsSome() {
			paramCount++
			conditions = append(conditions, fmt.Sprintf("time <= $%d", paramCount))
			params = append(params, end.Unwrap())
		}

		if len(conditions) > 0 {
			query += " WHERE " + strings.Join(conditions, " AND ")
		}

		query += " ORDER BY time ASC"

		stmt, err := d.db.Prepare(query)
		if err != nil {
			yield(types.MarketData{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to prepare read query", err))

			return
		}
		defer stmt.Close()

		rows, err := stmt.Query(params...)
		if err != nil {
			yield(types.MarketData{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query market data", err))

			return
		}

		defer rows.Close()

		// Process rows in batches to keep scan overhead away from the consumer loop
		batch := make([]types.MarketData, 0, batchSize)

		for rows.Next() {
			data, err := scanMarketData(rows)
			if err != nil {
				yield(types.MarketData{}, err)

				return
			}

			batch = append(batch, data)

			if len(batch) >= batchSize {
				for _, data := range batch {
					if !yield(data, nil) {
						return
					}
				}

				batch = batch[:0] // Reset slice while keeping capacity
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.MarketData{}, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating market data", err))

			return
		}

		// Process remaining rows
		for _, data := range batch {
			if !yield(data, nil) {
				return
			}
		}
	}
}

// ReadFirstData implements DataSource.
// Returns the earliest market data for the specified symbol.
func (d *DuckDBDataSource) ReadFirstData(symbol string) (types.MarketData, error) {
	d.logger.Debug("Reading first data for symbol", zap.String("symbol", symbol))

	return d.readEdgeData(symbol, "ASC")
}

// ReadLastData implements DataSource.
// Returns the most recent market data for the specified symbol.
func (d *DuckDBDataSource) ReadLastData(symbol string) (types.MarketData, error) {
	d.logger.Debug("Reading last data for symbol", zap.String("symbol", symbol))

	return d.readEdgeData(symbol, "DESC")
}

func (d *DuckDBDataSource) readEdgeData(symbol string, direction string) (types.MarketData, error) {
	query := fmt.Sprintf(`
		SELECT time, symbol, open, high, low, close, volume
		FROM market_data
		WHERE symbol = $1
		ORDER BY time %s
		LIMIT 1
	`, direction)

	stmt, err := d.db.Prepare(query)
	if err != nil {
		return types.MarketData{}, fmt.Errorf("failed to prepare query: %w", err)
	}
	defer stmt.Close()

	var (
		timestamp                      time.Time
		open, high, low, close, volume float64
		symbolResult                   string
	)

	err = stmt.QueryRow(symbol).Scan(&timestamp, &symbolResult, &open, &high, &low, &close, &volume)
	if err != nil {
		if err == sql.ErrNoRows {
			return types.MarketData{}, errors.Newf(errors.ErrCodeNoDataFound, "no data found for symbol: %s", symbol)
		}

		return types.MarketData{}, fmt.Errorf("failed to scan row: %w", err)
	}

	return types.MarketData{
		Id:     "",
		Symbol: symbolResult,
		Time:   timestamp,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: volume,
	}, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	if d.db != nil {
		return d.db.Close()
	}

	return nil
}

func scanMarketData(rows *sql.Rows) (types.MarketData, error) {
	var (
		timestamp                      time.Time
		open, high, low, close, volume float64
		symbol                         string
	)

	err := rows.Scan(&timestamp, &symbol, &open, &high, &low, &close, &volume)
	if err != nil {
		return types.MarketData{}, fmt.Errorf("failed to scan row: %w", err)
	}

	return types.MarketData{
		Id:     "",
		Symbol: symbol,
		Time:   timestamp,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: volume,
	}, nil
}
