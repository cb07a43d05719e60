// Package risk derives protective levels and position sizes from volatility,
// and decides when an open position must be closed.
package risk

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-fx/internal/types"
	"github.com/rxtech-lab/argo-fx/pkg/errors"
)

// Config controls how entries are planned.
type Config struct {
	// StopLossATRMultiplier is how many ATRs away from entry the stop sits.
	StopLossATRMultiplier float64
	// TakeProfitATRMultiplier is how many ATRs away from entry the target sits.
	TakeProfitATRMultiplier float64
	// RiskPerTrade is the fraction of equity risked between entry and stop.
	// Zero switches sizing to the fixed PositionSize.
	RiskPerTrade float64
	// PositionSize is the fixed quantity used when RiskPerTrade is zero.
	PositionSize float64
}

// EntryPlan is a fully sized entry with its protective levels. Levels are
// fixed for the life of the position.
type EntryPlan struct {
	Side        types.PositionType
	EntryPrice  float64
	StopPrice   float64
	TargetPrice float64
	Quantity    float64
}

// ExitTrigger names the level an open position breached and the exact price
// the exit must fill at.
type ExitTrigger struct {
	Reason string
	Price  float64
}

// Manager plans entries and checks exits.
type Manager struct {
	config Config
}

// NewManager creates a risk manager, rejecting configurations that could
// produce inverted levels or unsized positions.
func NewManager(config Config) (*Manager, error) {
	if config.StopLossATRMultiplier <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidMultiplier, "stop loss multiplier must be positive, got %f", config.StopLossATRMultiplier)
	}

	if config.TakeProfitATRMultiplier <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidMultiplier, "take profit multiplier must be positive, got %f", config.TakeProfitATRMultiplier)
	}

	if config.RiskPerTrade < 0 || config.RiskPerTrade >= 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "risk per trade must be in [0, 1), got %f", config.RiskPerTrade)
	}

	if config.RiskPerTrade == 0 && config.PositionSize <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "position size must be positive when risk per trade is zero")
	}

	if config.PositionSize < 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "position size must not be negative, got %f", config.PositionSize)
	}

	return &Manager{
		config: config,
	}, nil
}

// PlanEntry sizes a position and places its stop and target around the entry
// price using the current ATR. A non-positive ATR is a refusal, not a fault:
// the caller skips the entry and keeps running.
func (m *Manager) PlanEntry(side types.PositionType, entryPrice, atr, equity float64) (EntryPlan, error) {
	if entryPrice <= 0 {
		return EntryPlan{}, errors.Newf(errors.ErrCodeInvalidParameter, "entry price must be positive, got %f", entryPrice)
	}

	if atr <= 0 {
		return EntryPlan{}, errors.NewZeroVolatilityErrorf(atr, "", "cannot plan entry with non-positive atr %f", atr)
	}

	direction := 1.0
	if side == types.PositionTypeShort {
		direction = -1.0
	}

	stopPrice := entryPrice - direction*m.config.StopLossATRMultiplier*atr
	targetPrice := entryPrice + direction*m.config.TakeProfitATRMultiplier*atr

	if stopPrice <= 0 || targetPrice <= 0 {
		return EntryPlan{}, errors.Newf(errors.ErrCodeInvalidStopLoss, "protective levels %f/%f escape the price axis", stopPrice, targetPrice)
	}

	quantity := m.config.PositionSize
	if m.config.RiskPerTrade > 0 {
		stopDistance := math.Abs(entryPrice - stopPrice)
		quantity = (m.config.RiskPerTrade * equity) / stopDistance
	}

	if quantity <= 0 {
		return EntryPlan{}, errors.Newf(errors.ErrCodeInvalidQuantity, "sized quantity %f is not positive", quantity)
	}

	return EntryPlan{
		Side:        side,
		EntryPrice:  entryPrice,
		StopPrice:   stopPrice,
		TargetPrice: targetPrice,
		Quantity:    quantity,
	}, nil
}

// CheckExit reports whether the bar touched the position's stop or target.
// The stop wins when a single bar spans both levels. The trigger price is the
// level itself, never a price inside the bar.
func (m *Manager) CheckExit(position types.Position, bar types.MarketData) optional.Option[ExitTrigger] {
	switch position.Side {
	case types.PositionTypeLong:
		if bar.Low <= position.StopPrice {
			return optional.Some(ExitTrigger{Reason: types.OrderReasonStopLoss, Price: position.StopPrice})
		}

		if bar.High >= position.TargetPrice {
			return optional.Some(ExitTrigger{Reason: types.OrderReasonTakeProfit, Price: position.TargetPrice})
		}
	case types.PositionTypeShort:
		if bar.High >= position.StopPrice {
			return optional.Some(ExitTrigger{Reason: types.OrderReasonStopLoss, Price: position.StopPrice})
		}

		if bar.Low <= position.TargetPrice {
			return optional.Some(ExitTrigger{Reason: types.OrderReasonTakeProfit, Price: position.TargetPrice})
		}
	}

	return optional.None[ExitTrigger]()
}
