package indicator

import (
	"time"

	"github.com/rxtech-lab/argo-fx/internal/types"
)

var (
	_ Indicator = (*BollingerBands)(nil)
	_ Indicator = (*RSI)(nil)
	_ Indicator = (*EMA)(nil)
	_ Indicator = (*ATR)(nil)
)

var testStart = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// closeBar builds a bar where only the close matters.
func closeBar(i int, close float64) types.MarketData {
	return types.MarketData{
		Id:     "bar",
		Symbol: "EURUSD",
		Time:   testStart.Add(time.Duration(i) * time.Minute),
		Open:   close,
		High:   close,
		Low:    close,
		Close:  close,
		Volume: 1,
	}
}

// rangeBar builds a bar with an explicit high, low and close.
func rangeBar(i int, high, low, close float64) types.MarketData {
	return types.MarketData{
		Id:     "bar",
		Symbol: "EURUSD",
		Time:   testStart.Add(time.Duration(i) * time.Minute),
		Open:   close,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: 1,
	}
}
