package datasource

import (
	"iter"
	"sort"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-fx/internal/types"
	"github.com/rxtech-lab/argo-fx/pkg/errors"
)

// InMemoryDataSource serves bars straight from a slice. It backs unit tests
// and synthetic feeds where round-tripping through a data file adds nothing.
type InMemoryDataSource struct {
	bars []types.MarketData
}

// NewInMemoryDataSource creates a datasource over the given bars. The bars are
// copied and sorted by time; bars sharing a timestamp keep their input order.
func NewInMemoryDataSource(bars []types.MarketData) *InMemoryDataSource {
	sorted := make([]types.MarketData, len(bars))
	copy(sorted, bars)

	// Stable sort so equal timestamps replay in arrival order
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	return &InMemoryDataSource{bars: sorted}
}

// Initialize implements DataSource. The data is already in memory, so the
// path is ignored.
func (d *InMemoryDataSource) Initialize(path string) error {
	return nil
}

// ReadAll implements DataSource.
func (d *InMemoryDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) iter.Seq2[types.MarketData, error] {
	return func(yield func(types.MarketData, error) bool) {
		for _, bar := range d.bars {
			if !inWindow(bar.Time, start, end) {
				continue
			}

			if !yield(bar, nil) {
				return
			}
		}
	}
}

// ReadFirstData implements DataSource.
func (d *InMemoryDataSource) ReadFirstData(symbol string) (types.MarketData, error) {
	for _, bar := range d.bars {
		if bar.Symbol == symbol {
			return bar, nil
		}
	}

	return types.MarketData{}, errors.Newf(errors.ErrCodeNoDataFound, "no data found for symbol: %s", symbol)
}

// ReadLastData implements DataSource.
func (d *InMemoryDataSource) ReadLastData(symbol string) (types.MarketData, error) {
	for i := len(d.bars) - 1; i >= 0; i-- {
		if d.bars[i].Symbol == symbol {
			return d.bars[i], nil
		}
	}

	return types.MarketData{}, errors.Newf(errors.ErrCodeNoDataFound, "no data found for symbol: %s", symbol)
}

// Count implements DataSource.
func (d *InMemoryDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	count := 0

	for _, bar := range d.bars {
		if inWindow(bar.Time, start, end) {
			count++
		}
	}

	return count, nil
}

// Close implements DataSource.
func (d *InMemoryDataSource) Close() error {
	return nil
}

func inWindow(t time.Time, start optional.Option[time.Time], end optional.Option[time.Time]) bool {
	if start.IsSome() && t.Before(start.Unwrap()) {
		return false
	}

	if end.IsSome() && t.After(end.Unwrap()) {
		return false
	}

	return true
}
