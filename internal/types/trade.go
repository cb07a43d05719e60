package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-fx/pkg/errors"
	"github.com/shopspring/decimal"
)

type Trade struct {
	Order         Order     `csv:"order"`
	ExecutedAt    time.Time `csv:"executed_at"`
	ExecutedQty   float64   `csv:"executed_qty"`
	ExecutedPrice float64   `csv:"executed_price"`
	// SpreadCost is the cost of crossing the spread on this fill
	SpreadCost float64 `csv:"spread_cost"`
	// PnL is the profit and loss realized by this trade. Entry fills carry
	// zero; the exit fill carries the full realized result of the position.
	PnL float64 `csv:"pnl"`
}

// Position is a single open holding with fixed protective levels. The engine
// holds at most one at a time; levels never move after entry.
type Position struct {
	Symbol       string       `csv:"symbol" validate:"required"`
	Side         PositionType `csv:"side" validate:"required,oneof=LONG SHORT"`
	EntryPrice   float64      `csv:"entry_price" validate:"required,gt=0"`
	StopPrice    float64      `csv:"stop_price" validate:"required,gt=0"`
	TargetPrice  float64      `csv:"target_price" validate:"required,gt=0"`
	Quantity     float64      `csv:"quantity" validate:"required,gt=0"`
	OpenedAt     time.Time    `csv:"opened_at" validate:"required"`
	StrategyName string       `csv:"strategy_name" validate:"required"`
	// EntryOrderID links the position back to the order that opened it.
	EntryOrderID string `csv:"entry_order_id"`
}

// Direction returns +1 for a long position and -1 for a short position.
func (p *Position) Direction() float64 {
	if p.Side == PositionTypeShort {
		return -1
	}

	return 1
}

// CloseSide returns the order side that closes this position.
func (p *Position) CloseSide() PurchaseType {
	if p.Side == PositionTypeShort {
		return PurchaseTypeBuy
	}

	return PurchaseTypeSell
}

// UnrealizedPnL returns the mark-to-market profit of the position at the
// given price.
func (p *Position) UnrealizedPnL(price float64) float64 {
	priceDec := decimal.NewFromFloat(price)
	entryDec := decimal.NewFromFloat(p.EntryPrice)
	qtyDec := decimal.NewFromFloat(p.Quantity)
	dirDec := decimal.NewFromFloat(p.Direction())

	result, _ := priceDec.Sub(entryDec).Mul(qtyDec).Mul(dirDec).Float64()

	return result
}

// RealizedPnL returns the profit realized by closing the full position at the
// given exit price.
func (p *Position) RealizedPnL(exitPrice float64) float64 {
	return p.UnrealizedPnL(exitPrice)
}

// Validate checks the position's fields and the ordering of its protective
// levels: a long must satisfy stop < entry < target, a short the reverse.
func (p *Position) Validate() error {
	validate := validator.New()
	if err := validate.Struct(p); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPosition, "invalid position", err)
	}

	switch p.Side {
	case PositionTypeLong:
		if p.StopPrice >= p.EntryPrice {
			return errors.Newf(errors.ErrCodeInvalidStopLoss, "long stop %f must be below entry %f", p.StopPrice, p.EntryPrice)
		}

		if p.TargetPrice <= p.EntryPrice {
			return errors.Newf(errors.ErrCodeInvalidTakeProfit, "long target %f must be above entry %f", p.TargetPrice, p.EntryPrice)
		}
	case PositionTypeShort:
		if p.StopPrice <= p.EntryPrice {
			return errors.Newf(errors.ErrCodeInvalidStopLoss, "short stop %f must be above entry %f", p.StopPrice, p.EntryPrice)
		}

		if p.TargetPrice >= p.EntryPrice {
			return errors.Newf(errors.ErrCodeInvalidTakeProfit, "short target %f must be below entry %f", p.TargetPrice, p.EntryPrice)
		}
	}

	return nil
}
