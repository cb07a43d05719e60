package engine

import (
	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-fx/internal/backtest/engine/engine_v1/spread"
	"github.com/rxtech-lab/argo-fx/internal/metrics"
	"github.com/rxtech-lab/argo-fx/internal/types"
	"github.com/rxtech-lab/argo-fx/internal/utils"
	"github.com/rxtech-lab/argo-fx/pkg/errors"
	"github.com/shopspring/decimal"
)

// BacktestBroker fills orders against the bar currently being processed.
// Entries are market fills at the order price shifted by half the spread in
// the direction that hurts; exits fill exactly at the protective level that
// was breached. Fills are timestamped with bar time, never wall clock time.
type BacktestBroker struct {
	state            *BacktestState
	initialCapital   float64
	balance          float64
	realizedPnL      float64
	spreadCost       float64
	marketData       types.MarketData
	spreadModel      spread.SpreadModel
	decimalPrecision int
}

func NewBacktestBroker(state *BacktestState, initialCapital float64, spreadModel spread.SpreadModel, decimalPrecision int) *BacktestBroker {
	return &BacktestBroker{
		state:            state,
		initialCapital:   initialCapital,
		balance:          initialCapital,
		realizedPnL:      0,
		spreadCost:       0,
		marketData:       types.MarketData{},
		spreadModel:      spreadModel,
		decimalPrecision: decimalPrecision,
	}
}

// UpdateCurrentMarketData points the broker at the bar currently being processed.
func (b *BacktestBroker) UpdateCurrentMarketData(marketData types.MarketData) {
	b.marketData = marketData

	metrics.BarsProcessed.WithLabelValues(marketData.Symbol).Inc()
}

// Reset returns the broker to a fresh account for the next run.
func (b *BacktestBroker) Reset(initialCapital float64) {
	b.initialCapital = initialCapital
	b.balance = initialCapital
	b.realizedPnL = 0
	b.spreadCost = 0
	b.marketData = types.MarketData{}

	metrics.AccountEquity.Set(initialCapital)
	metrics.OpenPositions.Set(0)
}

// EnterPosition implements trading.Executor.
// Only market orders are supported, and every entry must carry both
// protective levels.
func (b *BacktestBroker) EnterPosition(order types.ExecuteOrder) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}

	if err := order.Validate(); err != nil {
		return err
	}

	if err := b.requireMarketData(order.Symbol); err != nil {
		return err
	}

	if order.OrderType != types.OrderTypeMarket {
		return errors.Newf(errors.ErrCodeInvalidType, "unsupported order type for backtest entry: %s", order.OrderType)
	}

	if order.StopLoss.IsNone() {
		return errors.New(errors.ErrCodeInvalidStopLoss, "entry order requires a stop loss level")
	}

	if order.TakeProfit.IsNone() {
		return errors.New(errors.ErrCodeInvalidTakeProfit, "entry order requires a take profit level")
	}

	open, err := b.state.GetOpenPosition()
	if err != nil {
		return err
	}

	if open.IsSome() {
		return errors.Newf(errors.ErrCodePositionAlreadyOpen, "position already open for %s", open.Unwrap().Symbol)
	}

	// Round the quantity to respect configured decimal precision
	order.Quantity = utils.RoundToDecimalPrecision(order.Quantity, b.decimalPrecision)
	if order.Quantity <= 0 {
		return errors.New(errors.ErrCodeInvalidQuantity, "order quantity is zero after rounding to configured precision")
	}

	// Crossing the spread moves the fill against the position: longs pay the
	// ask, shorts receive the bid.
	direction := 1.0
	if order.PositionType == types.PositionTypeShort {
		direction = -1.0
	}

	halfSpread := b.spreadModel.HalfSpread(order.Symbol)

	fillPrice, _ := decimal.NewFromFloat(order.Price).
		Add(decimal.NewFromFloat(direction).Mul(decimal.NewFromFloat(halfSpread))).
		Float64()

	fillSpreadCost, _ := decimal.NewFromFloat(halfSpread).
		Mul(decimal.NewFromFloat(order.Quantity)).
		Float64()

	position := types.Position{
		Symbol:       order.Symbol,
		Side:         order.PositionType,
		EntryPrice:   fillPrice,
		StopPrice:    order.StopLoss.Unwrap().Price,
		TargetPrice:  order.TakeProfit.Unwrap().Price,
		Quantity:     order.Quantity,
		OpenedAt:     b.marketData.Time,
		StrategyName: order.StrategyName,
		EntryOrderID: order.ID,
	}

	if err := position.Validate(); err != nil {
		return err
	}

	executedOrder := types.Order{
		OrderID:      order.ID,
		Symbol:       order.Symbol,
		Side:         order.Side,
		Quantity:     order.Quantity,
		Price:        fillPrice,
		Timestamp:    b.marketData.Time,
		IsCompleted:  true,
		Status:       types.OrderStatusFilled,
		Reason:       order.Reason,
		StrategyName: order.StrategyName,
		SpreadCost:   fillSpreadCost,
		PositionType: order.PositionType,
	}

	if _, err := b.state.RecordEntry(executedOrder, position); err != nil {
		return err
	}

	b.spreadCost, _ = decimal.NewFromFloat(b.spreadCost).
		Add(decimal.NewFromFloat(fillSpreadCost)).
		Float64()

	metrics.OrdersFilled.WithLabelValues(string(order.Side), order.Reason.Reason).Inc()
	metrics.OpenPositions.Set(1)

	return nil
}

// ExitPosition implements trading.Executor.
// The order price is the protective level that was breached; the fill happens
// exactly there regardless of how far the bar traded through it.
func (b *BacktestBroker) ExitPosition(order types.ExitOrder) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}

	if err := order.Validate(); err != nil {
		return err
	}

	if err := b.requireMarketData(order.Symbol); err != nil {
		return err
	}

	open, err := b.state.GetOpenPosition()
	if err != nil {
		return err
	}

	if open.IsNone() {
		return errors.New(errors.ErrCodePositionNotFound, "no open position to exit")
	}

	position := open.Unwrap()
	if position.Symbol != order.Symbol {
		return errors.Newf(errors.ErrCodeInvalidExitOrder, "exit order symbol %s does not match open position %s", order.Symbol, position.Symbol)
	}

	if order.Side != position.CloseSide() {
		return errors.Newf(errors.ErrCodeInvalidExitOrder, "exit order side %s cannot close a %s position", order.Side, position.Side)
	}

	// Positions are always closed in full
	order.Quantity = position.Quantity

	executedOrder := types.Order{
		OrderID:      order.ID,
		Symbol:       order.Symbol,
		Side:         order.Side,
		Quantity:     order.Quantity,
		Price:        order.Price,
		Timestamp:    b.marketData.Time,
		IsCompleted:  true,
		Status:       types.OrderStatusFilled,
		Reason:       order.Reason,
		StrategyName: order.StrategyName,
		SpreadCost:   0,
		PositionType: order.PositionType,
	}

	trade, err := b.state.RecordExit(executedOrder, position)
	if err != nil {
		return err
	}

	b.balance, _ = decimal.NewFromFloat(b.balance).
		Add(decimal.NewFromFloat(trade.PnL)).
		Float64()
	b.realizedPnL, _ = decimal.NewFromFloat(b.realizedPnL).
		Add(decimal.NewFromFloat(trade.PnL)).
		Float64()

	metrics.OrdersFilled.WithLabelValues(string(order.Side), order.Reason.Reason).Inc()
	metrics.OpenPositions.Set(0)
	metrics.AccountEquity.Set(b.balance)

	return nil
}

// GetPosition implements trading.Executor.
func (b *BacktestBroker) GetPosition() (optional.Option[types.Position], error) {
	return b.state.GetOpenPosition()
}

// GetAccountInfo implements trading.Executor.
// Equity marks any open position at the close of the bar being processed.
func (b *BacktestBroker) GetAccountInfo() (types.AccountInfo, error) {
	open, err := b.state.GetOpenPosition()
	if err != nil {
		return types.AccountInfo{}, err
	}

	unrealized := 0.0

	if open.IsSome() {
		position := open.Unwrap()
		if position.Symbol == b.marketData.Symbol && b.marketData.Close > 0 {
			unrealized = position.UnrealizedPnL(b.marketData.Close)
		}
	}

	equity, _ := decimal.NewFromFloat(b.balance).
		Add(decimal.NewFromFloat(unrealized)).
		Float64()

	return types.AccountInfo{
		InitialCapital: b.initialCapital,
		Balance:        b.balance,
		Equity:         equity,
		RealizedPnL:    b.realizedPnL,
		UnrealizedPnL:  unrealized,
		SpreadCost:     b.spreadCost,
	}, nil
}

func (b *BacktestBroker) requireMarketData(symbol string) error {
	if b.marketData.Time.IsZero() {
		return errors.New(errors.ErrCodeMarketDataRequired, "no market data available to price the fill")
	}

	if b.marketData.Symbol != symbol {
		return errors.Newf(errors.ErrCodeMarketDataMissing, "order symbol %s does not match current bar %s", symbol, b.marketData.Symbol)
	}

	return nil
}
