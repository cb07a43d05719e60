package writer

import (
	"github.com/rxtech-lab/argo-fx/internal/types"
)

// Format selects the on-disk encoding a writer produces.
type Format string

const (
	FormatParquet Format = "parquet"
	FormatCSV     Format = "csv"
)

// Extension returns the file extension for the format, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatParquet:
		return "parquet"
	default:
		return "parquet"
	}
}

// MarketDataWriter defines the interface for writing market data to a destination.
type MarketDataWriter interface {
	// Initialize sets up the writer, potentially creating tables or files.
	Initialize() error
	// Write writes a single candle to the destination.
	Write(data types.MarketData) error
	// Finalize flushes any buffered data and returns the output path.
	Finalize() (string, error)
	// Close releases all resources held by the writer.
	Close() error
	// GetOutputPath returns the path the writer exports to.
	GetOutputPath() string
}
