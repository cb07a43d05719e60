package strategy

import (
	"fmt"

	"github.com/rxtech-lab/argo-fx/internal/indicator"
	"github.com/rxtech-lab/argo-fx/internal/types"
)

// EvaluateEntry decides whether the bar warrants a new position. It is a pure
// function of the indicator snapshot and the bar; it never consults position
// or account state.
//
// A buy requires the close below the lower band, the RSI under the oversold
// threshold and the close above the trend average. A sell is the mirror
// image. While the snapshot is not warm the answer is always no action,
// whatever the raw values say.
func EvaluateEntry(snapshot indicator.Snapshot, bar types.MarketData, oversold, overbought float64) types.Signal {
	signal := types.Signal{
		Time:   bar.Time,
		Type:   types.SignalTypeNoAction,
		Symbol: bar.Symbol,
	}

	if !snapshot.Warm {
		return signal
	}

	switch {
	case bar.Close < snapshot.LowerBand && snapshot.RSI < oversold && bar.Close > snapshot.TrendEMA:
		signal.Type = types.SignalTypeBuy
		signal.Reason = fmt.Sprintf("close %.5f below lower band %.5f, rsi %.2f under %.2f, above trend ema %.5f",
			bar.Close, snapshot.LowerBand, snapshot.RSI, oversold, snapshot.TrendEMA)
	case bar.Close > snapshot.UpperBand && snapshot.RSI > overbought && bar.Close < snapshot.TrendEMA:
		signal.Type = types.SignalTypeSell
		signal.Reason = fmt.Sprintf("close %.5f above upper band %.5f, rsi %.2f over %.2f, below trend ema %.5f",
			bar.Close, snapshot.UpperBand, snapshot.RSI, overbought, snapshot.TrendEMA)
	}

	return signal
}
