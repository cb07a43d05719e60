package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-fx/internal/types"
	"github.com/rxtech-lab/argo-fx/pkg/errors"
)

// ATR is the Average True Range smoothed the Wilder way. The first bar's true
// range is its high-low span since no previous close exists yet; the first
// average is a simple mean of the initial period of true ranges.
type ATR struct {
	period int

	prevClose float64
	barCount  int
	trSum     float64
	value     float64
}

// NewATR creates a new ATR indicator.
func NewATR(period int) (*ATR, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "atr period must be a positive integer, got %d", period)
	}

	return &ATR{
		period: period,
	}, nil
}

// Name returns the name of the indicator.
func (a *ATR) Name() types.IndicatorType {
	return types.IndicatorTypeATR
}

// Update folds the bar's true range into the average.
func (a *ATR) Update(bar types.MarketData) {
	a.barCount++

	var tr float64
	if a.barCount == 1 {
		tr = bar.High - bar.Low
	} else {
		tr = math.Max(
			bar.High-bar.Low,
			math.Max(
				math.Abs(bar.High-a.prevClose),
				math.Abs(bar.Low-a.prevClose),
			),
		)
	}

	a.prevClose = bar.Close

	if a.barCount <= a.period {
		a.trSum += tr

		// First average is a simple mean of the initial true ranges
		if a.barCount == a.period {
			a.value = a.trSum / float64(a.period)
		}

		return
	}

	// Wilder's smoothing
	a.value = (a.value*float64(a.period-1) + tr) / float64(a.period)
}

// Ready reports whether a full period of bars has been seen.
func (a *ATR) Ready() bool {
	return a.barCount >= a.period
}

// Value returns the current average true range, or zero before warm-up.
func (a *ATR) Value() float64 {
	if !a.Ready() {
		return 0
	}

	return a.value
}
