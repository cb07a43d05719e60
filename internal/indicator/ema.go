package indicator

import (
	"github.com/rxtech-lab/argo-fx/internal/types"
	"github.com/rxtech-lab/argo-fx/pkg/errors"
)

// EMA is an exponential moving average of closes, seeded with the simple
// average of the first period closes and smoothed with alpha = 2/(period+1)
// afterwards.
type EMA struct {
	period     int
	multiplier float64

	count   int
	seedSum float64
	value   float64
}

// NewEMA creates a new EMA indicator.
func NewEMA(period int) (*EMA, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "ema period must be a positive integer, got %d", period)
	}

	return &EMA{
		period:     period,
		multiplier: 2.0 / (float64(period) + 1.0),
	}, nil
}

// Name returns the name of the indicator.
func (e *EMA) Name() types.IndicatorType {
	return types.IndicatorTypeEMA
}

// Update folds the bar's close into the average.
func (e *EMA) Update(bar types.MarketData) {
	e.count++

	if e.count < e.period {
		e.seedSum += bar.Close

		return
	}

	// Seed with the simple average of the first period closes
	if e.count == e.period {
		e.seedSum += bar.Close
		e.value = e.seedSum / float64(e.period)

		return
	}

	e.value = bar.Close*e.multiplier + e.value*(1-e.multiplier)
}

// Ready reports whether a full period of closes has been seen.
func (e *EMA) Ready() bool {
	return e.count >= e.period
}

// Value returns the current average, or zero before the seed completes.
func (e *EMA) Value() float64 {
	if !e.Ready() {
		return 0
	}

	return e.value
}
