package spread

import (
	"github.com/rxtech-lab/argo-fx/internal/utils"
)

type FixedPipsSpread struct {
	pips float64
}

// NewFixedPipsSpread creates a spread model with a constant quoted width in pips.
// The pip size is resolved per symbol, so the same width costs 0.0001 units per
// pip on EURUSD and 0.01 units per pip on USDJPY.
func NewFixedPipsSpread(pips float64) SpreadModel {
	return &FixedPipsSpread{pips: pips}
}

func (s *FixedPipsSpread) HalfSpread(symbol string) float64 {
	return s.pips / 2 * utils.PipSize(symbol)
}
