package indicator

import (
	"github.com/rxtech-lab/argo-fx/internal/types"
)

// Indicator is an incrementally updated technical indicator. Update consumes
// bars in stream order and never looks ahead; Value is only meaningful once
// Ready reports true.
type Indicator interface {
	// Update feeds the next bar into the indicator state.
	Update(bar types.MarketData)
	// Value returns the current value of the indicator.
	Value() float64
	// Ready reports whether the indicator has seen enough bars to produce a value.
	Ready() bool
	// Name returns the name of the indicator.
	Name() types.IndicatorType
}
