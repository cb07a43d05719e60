package indicator

import (
	"github.com/rxtech-lab/argo-fx/internal/types"
	"github.com/rxtech-lab/argo-fx/pkg/errors"
)

// RSI is the Relative Strength Index computed with Wilder's smoothing. The
// first average gain and loss are simple means over the first period of
// close-to-close changes; later changes are folded in recursively.
type RSI struct {
	period int

	prevClose    float64
	prevCloseSet bool

	changes int
	gainSum float64
	lossSum float64
	avgGain float64
	avgLoss float64
}

// NewRSI creates a new RSI indicator.
func NewRSI(period int) (*RSI, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "rsi period must be a positive integer, got %d", period)
	}

	return &RSI{
		period: period,
	}, nil
}

// Name returns the name of the indicator.
func (r *RSI) Name() types.IndicatorType {
	return types.IndicatorTypeRSI
}

// Update folds the bar's close-to-close change into the smoothed averages.
// The very first bar only records the close; it produces no change.
func (r *RSI) Update(bar types.MarketData) {
	if !r.prevCloseSet {
		r.prevClose = bar.Close
		r.prevCloseSet = true

		return
	}

	change := bar.Close - r.prevClose
	r.prevClose = bar.Close

	var gain, loss float64
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}

	r.changes++

	if r.changes <= r.period {
		r.gainSum += gain
		r.lossSum += loss

		// First averages are simple means over the initial period
		if r.changes == r.period {
			r.avgGain = r.gainSum / float64(r.period)
			r.avgLoss = r.lossSum / float64(r.period)
		}

		return
	}

	// Wilder's smoothing
	r.avgGain = (r.avgGain*float64(r.period-1) + gain) / float64(r.period)
	r.avgLoss = (r.avgLoss*float64(r.period-1) + loss) / float64(r.period)
}

// Ready reports whether a full period of changes has been observed, which
// takes period+1 bars.
func (r *RSI) Ready() bool {
	return r.changes >= r.period
}

// Value returns the current RSI in [0, 100]. A zero average loss maps to 100.
func (r *RSI) Value() float64 {
	if !r.Ready() {
		return 0
	}

	if r.avgLoss == 0 {
		return 100
	}

	rs := r.avgGain / r.avgLoss

	return 100 - (100 / (1 + rs))
}
