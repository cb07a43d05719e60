package datasource

import (
	"iter"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-fx/internal/types"
)

// DataSource provides ordered market data bars to the backtest engine.
type DataSource interface {
	// Initialize points the datasource at a market data file.
	// Parquet and CSV files are supported, selected by file extension.
	Initialize(path string) error
	// ReadAll returns an iterator over bars ordered by time ascending,
	// optionally bounded by start and end (inclusive). Bars sharing a
	// timestamp keep their stored order.
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) iter.Seq2[types.MarketData, error]
	// ReadFirstData returns the earliest bar for the given symbol.
	ReadFirstData(symbol string) (types.MarketData, error)
	// ReadLastData returns the latest bar for the given symbol.
	ReadLastData(symbol string) (types.MarketData, error)
	// Count returns the number of bars, optionally bounded by start and end.
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close releases the underlying resources.
	Close() error
}
