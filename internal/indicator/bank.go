package indicator

import (
	"github.com/rxtech-lab/argo-fx/internal/types"
)

// Config holds the periods for every indicator in the bank.
type Config struct {
	BollingerPeriod     int
	BollingerMultiplier float64
	RSIPeriod           int
	EMAPeriod           int
	ATRPeriod           int
}

// Snapshot is the full indicator state after a bar has been applied. Fields
// of indicators that are not ready yet are zero; Warm is only true once every
// indicator is ready.
type Snapshot struct {
	MiddleBand float64
	UpperBand  float64
	LowerBand  float64
	RSI        float64
	TrendEMA   float64
	ATR        float64
	Warm       bool
}

// Bank updates one of each indicator the strategy needs from a single bar
// stream and exposes their values as one snapshot.
type Bank struct {
	bollinger *BollingerBands
	rsi       *RSI
	trendEMA  *EMA
	atr       *ATR
}

// NewBank creates a bank of indicators from the given periods.
func NewBank(config Config) (*Bank, error) {
	bollinger, err := NewBollingerBands(config.BollingerPeriod, config.BollingerMultiplier)
	if err != nil {
		return nil, err
	}

	rsi, err := NewRSI(config.RSIPeriod)
	if err != nil {
		return nil, err
	}

	trendEMA, err := NewEMA(config.EMAPeriod)
	if err != nil {
		return nil, err
	}

	atr, err := NewATR(config.ATRPeriod)
	if err != nil {
		return nil, err
	}

	return &Bank{
		bollinger: bollinger,
		rsi:       rsi,
		trendEMA:  trendEMA,
		atr:       atr,
	}, nil
}

// Update applies the bar to every indicator and returns the resulting
// snapshot. Indicators update on every bar regardless of what the strategy
// does with the snapshot.
func (b *Bank) Update(bar types.MarketData) Snapshot {
	b.bollinger.Update(bar)
	b.rsi.Update(bar)
	b.trendEMA.Update(bar)
	b.atr.Update(bar)

	return b.Snapshot()
}

// Snapshot returns the current indicator state without consuming a bar.
func (b *Bank) Snapshot() Snapshot {
	snapshot := Snapshot{
		Warm: b.Warm(),
	}

	if b.bollinger.Ready() {
		snapshot.MiddleBand, snapshot.UpperBand, snapshot.LowerBand = b.bollinger.Bands()
	}

	if b.rsi.Ready() {
		snapshot.RSI = b.rsi.Value()
	}

	if b.trendEMA.Ready() {
		snapshot.TrendEMA = b.trendEMA.Value()
	}

	if b.atr.Ready() {
		snapshot.ATR = b.atr.Value()
	}

	return snapshot
}

// Warm reports whether every indicator in the bank is ready.
func (b *Bank) Warm() bool {
	return b.bollinger.Ready() && b.rsi.Ready() && b.trendEMA.Ready() && b.atr.Ready()
}

// WarmupBars returns the number of bars the bank must see before Warm can
// become true. The RSI needs one extra bar because its first bar produces no
// close-to-close change.
func (b *Bank) WarmupBars() int {
	warmup := b.bollinger.period

	if rsiBars := b.rsi.period + 1; rsiBars > warmup {
		warmup = rsiBars
	}

	if b.trendEMA.period > warmup {
		warmup = b.trendEMA.period
	}

	if b.atr.period > warmup {
		warmup = b.atr.period
	}

	return warmup
}
