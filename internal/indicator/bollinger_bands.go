package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-fx/internal/types"
	"github.com/rxtech-lab/argo-fx/pkg/errors"
)

// BollingerBands maintains a rolling window of closes and derives the middle
// band (SMA) with upper and lower bands a configurable number of sample
// standard deviations away.
type BollingerBands struct {
	period int     // Number of periods for moving average
	stdDev float64 // Number of standard deviations

	window []float64
	head   int
	count  int
}

// NewBollingerBands creates a new Bollinger Bands indicator. The period must
// be at least 2 because the bands use a sample standard deviation.
func NewBollingerBands(period int, stdDev float64) (*BollingerBands, error) {
	if period < 2 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "bollinger period must be at least 2, got %d", period)
	}

	if stdDev <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidMultiplier, "stdDev must be a positive number, got %f", stdDev)
	}

	return &BollingerBands{
		period: period,
		stdDev: stdDev,
		window: make([]float64, period),
	}, nil
}

// Name returns the name of the indicator.
func (bb *BollingerBands) Name() types.IndicatorType {
	return types.IndicatorTypeBollingerBands
}

// Update pushes the bar's close into the rolling window, evicting the oldest
// close once the window is full.
func (bb *BollingerBands) Update(bar types.MarketData) {
	bb.window[bb.head] = bar.Close
	bb.head = (bb.head + 1) % bb.period

	if bb.count < bb.period {
		bb.count++
	}
}

// Ready reports whether the window holds a full period of closes.
func (bb *BollingerBands) Ready() bool {
	return bb.count == bb.period
}

// Value returns the middle band.
func (bb *BollingerBands) Value() float64 {
	middle, _, _ := bb.Bands()

	return middle
}

// Bands returns the middle, upper and lower band values. All three are zero
// until the indicator is ready.
func (bb *BollingerBands) Bands() (middle, upper, lower float64) {
	if !bb.Ready() {
		return 0, 0, 0
	}

	// Calculate SMA (middle band)
	var sum float64
	for _, close := range bb.window {
		sum += close
	}

	middle = sum / float64(bb.period)

	// Calculate sample standard deviation
	var squaredDiffSum float64

	for _, close := range bb.window {
		diff := close - middle
		squaredDiffSum += diff * diff
	}

	stdDev := math.Sqrt(squaredDiffSum / float64(bb.period-1))

	// Calculate upper and lower bands
	upper = middle + (bb.stdDev * stdDev)
	lower = middle - (bb.stdDev * stdDev)

	return middle, upper, lower
}
