package strategy

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-fx/internal/indicator"
	"github.com/rxtech-lab/argo-fx/internal/types"
	"github.com/stretchr/testify/assert"
)

func evaluatorBar(close float64) types.MarketData {
	return types.MarketData{
		Symbol: "EURUSD",
		Time:   time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
		Open:   close,
		High:   close + 0.0005,
		Low:    close - 0.0005,
		Close:  close,
		Volume: 1000,
	}
}

func TestEvaluateEntry(t *testing.T) {
	// Bands around 1.1000, trend average below the price zone so longs are
	// allowed and shorts are not unless TrendEMA is moved.
	warm := indicator.Snapshot{
		MiddleBand: 1.1000,
		UpperBand:  1.1040,
		LowerBand:  1.0960,
		RSI:        50,
		TrendEMA:   1.0900,
		ATR:        0.0020,
		Warm:       true,
	}

	tests := []struct {
		name     string
		snapshot func() indicator.Snapshot
		close    float64
		want     types.SignalType
	}{
		{
			name: "buy when close under band with oversold rsi in uptrend",
			snapshot: func() indicator.Snapshot {
				s := warm
				s.RSI = 20
				return s
			},
			close: 1.0950,
			want:  types.SignalTypeBuy,
		},
		{
			name: "sell when close over band with overbought rsi in downtrend",
			snapshot: func() indicator.Snapshot {
				s := warm
				s.RSI = 80
				s.TrendEMA = 1.1100
				return s
			},
			close: 1.1050,
			want:  types.SignalTypeSell,
		},
		{
			name: "no action when rsi not oversold",
			snapshot: func() indicator.Snapshot {
				s := warm
				s.RSI = 30
				return s
			},
			close: 1.0950,
			want:  types.SignalTypeNoAction,
		},
		{
			name: "no action when close under band but below trend",
			snapshot: func() indicator.Snapshot {
				s := warm
				s.RSI = 20
				s.TrendEMA = 1.0980
				return s
			},
			close: 1.0950,
			want:  types.SignalTypeNoAction,
		},
		{
			name: "no action when close inside bands",
			snapshot: func() indicator.Snapshot {
				s := warm
				s.RSI = 20
				return s
			},
			close: 1.0990,
			want:  types.SignalTypeNoAction,
		},
		{
			name: "no action when rsi not overbought",
			snapshot: func() indicator.Snapshot {
				s := warm
				s.RSI = 60
				s.TrendEMA = 1.1100
				return s
			},
			close: 1.1050,
			want:  types.SignalTypeNoAction,
		},
		{
			name: "no action when close over band but above trend",
			snapshot: func() indicator.Snapshot {
				s := warm
				s.RSI = 80
				return s
			},
			close: 1.1050,
			want:  types.SignalTypeNoAction,
		},
		{
			name: "close exactly on lower band is not a breach",
			snapshot: func() indicator.Snapshot {
				s := warm
				s.RSI = 20
				return s
			},
			close: 1.0960,
			want:  types.SignalTypeNoAction,
		},
		{
			name: "rsi exactly on threshold is not oversold",
			snapshot: func() indicator.Snapshot {
				s := warm
				s.RSI = 25
				return s
			},
			close: 1.0950,
			want:  types.SignalTypeNoAction,
		},
		{
			name: "no action while not warm even with extreme values",
			snapshot: func() indicator.Snapshot {
				s := warm
				s.RSI = 5
				s.Warm = false
				return s
			},
			close: 1.0950,
			want:  types.SignalTypeNoAction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := evaluatorBar(tt.close)
			signal := EvaluateEntry(tt.snapshot(), bar, 25, 75)

			assert.Equal(t, tt.want, signal.Type)
			assert.Equal(t, bar.Time, signal.Time)
			assert.Equal(t, bar.Symbol, signal.Symbol)

			if signal.IsActionable() {
				assert.NotEmpty(t, signal.Reason)
			}
		})
	}
}

func TestEvaluateEntryRespectsConfiguredThresholds(t *testing.T) {
	snapshot := indicator.Snapshot{
		MiddleBand: 1.1000,
		UpperBand:  1.1040,
		LowerBand:  1.0960,
		RSI:        32,
		TrendEMA:   1.0900,
		ATR:        0.0020,
		Warm:       true,
	}
	bar := evaluatorBar(1.0950)

	// RSI of 32 is not oversold under the default 25 but is under 35.
	assert.Equal(t, types.SignalTypeNoAction, EvaluateEntry(snapshot, bar, 25, 75).Type)
	assert.Equal(t, types.SignalTypeBuy, EvaluateEntry(snapshot, bar, 35, 75).Type)
}
