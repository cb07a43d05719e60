package strategy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-fx/internal/indicator"
	"github.com/rxtech-lab/argo-fx/internal/risk"
	"github.com/rxtech-lab/argo-fx/internal/types"
	"github.com/rxtech-lab/argo-fx/pkg/errors"
	"go.uber.org/zap"
)

// MeanReversion fades band breaches that happen inside the prevailing trend:
// buy a close under the lower band while above the long trend average, sell a
// close over the upper band while below it. Entries carry a fixed ATR stop
// and target; the position is held until one of them is breached. At most one
// position is open at any time.
type MeanReversion struct {
	config      MeanReversionConfig
	bank        *indicator.Bank
	riskManager *risk.Manager
	lastBarTime time.Time
	barsSeen    int
	initialized bool
}

// NewMeanReversion returns an unconfigured strategy. Initialize must be
// called before any lifecycle method.
func NewMeanReversion() *MeanReversion {
	return &MeanReversion{}
}

// Name implements Strategy.
func (s *MeanReversion) Name() string {
	return "MeanReversion"
}

// Initialize implements Strategy.
func (s *MeanReversion) Initialize(config string) error {
	cfg, err := ParseMeanReversionConfig(config)
	if err != nil {
		return err
	}

	s.config = cfg
	s.initialized = true

	return nil
}

// OnStart implements Strategy. It rebuilds the indicator bank and the risk
// manager so repeated runs of the same strategy instance start cold.
func (s *MeanReversion) OnStart(ctx context.Context, sctx Context) error {
	if !s.initialized {
		return errors.New(errors.ErrCodeStrategyNotLoaded, "strategy used before Initialize")
	}

	bank, err := indicator.NewBank(s.config.IndicatorConfig())
	if err != nil {
		return err
	}

	riskManager, err := risk.NewManager(s.config.RiskConfig())
	if err != nil {
		return err
	}

	s.bank = bank
	s.riskManager = riskManager
	s.lastBarTime = time.Time{}
	s.barsSeen = 0

	sctx.Logger.Info("strategy started",
		zap.String("strategy", s.Name()),
		zap.String("symbol", s.config.Symbol),
		zap.Int("warmup_bars", bank.WarmupBars()),
	)

	return nil
}

// OnBar implements Strategy. The order of operations is fixed: reject
// out-of-order bars, feed the indicators, then either check the open
// position for an exit or look for a new entry. A bar that closes a
// position never opens another one.
func (s *MeanReversion) OnBar(ctx context.Context, sctx Context, bar types.MarketData) error {
	if s.bank == nil {
		return errors.New(errors.ErrCodeStrategyNotLoaded, "strategy used before OnStart")
	}

	// Equal timestamps are tolerated, going backwards is not: a regression
	// means the feed is corrupt and every later bar is suspect.
	if !s.lastBarTime.IsZero() && bar.Time.Before(s.lastBarTime) {
		return errors.Newf(errors.ErrCodeTimestampRegression,
			"bar at %s arrived after bar at %s", bar.Time.Format(time.RFC3339), s.lastBarTime.Format(time.RFC3339))
	}

	s.lastBarTime = bar.Time
	s.barsSeen++

	snapshot := s.bank.Update(bar)

	position, err := sctx.Executor.GetPosition()
	if err != nil {
		return err
	}

	if position.IsSome() {
		return s.checkExit(sctx, position.Unwrap(), bar)
	}

	return s.tryEnter(sctx, snapshot, bar)
}

// OnStop implements Strategy.
func (s *MeanReversion) OnStop(ctx context.Context, sctx Context) error {
	position, err := sctx.Executor.GetPosition()
	if err != nil {
		return err
	}

	sctx.Logger.Info("strategy stopped",
		zap.String("strategy", s.Name()),
		zap.Int("bars_seen", s.barsSeen),
		zap.Bool("position_open", position.IsSome()),
	)

	return nil
}

// checkExit closes the position if the bar touched its stop or target. The
// exit order is priced at the breached level itself, never at a price inside
// the bar.
func (s *MeanReversion) checkExit(sctx Context, position types.Position, bar types.MarketData) error {
	trigger := s.riskManager.CheckExit(position, bar)
	if trigger.IsNone() {
		return nil
	}

	exit := trigger.Unwrap()

	order := types.ExitOrder{
		ID:           uuid.New().String(),
		Symbol:       position.Symbol,
		Side:         position.CloseSide(),
		Price:        exit.Price,
		Quantity:     position.Quantity,
		Reason:       exitReason(exit),
		StrategyName: s.Name(),
		PositionType: position.Side,
	}
	if err := order.Validate(); err != nil {
		return err
	}

	if err := sctx.Executor.ExitPosition(order); err != nil {
		return err
	}

	sctx.Logger.Info("position closed",
		zap.String("symbol", order.Symbol),
		zap.String("reason", exit.Reason),
		zap.Float64("price", exit.Price),
		zap.Float64("quantity", order.Quantity),
	)

	return nil
}

// tryEnter opens a position when the bar produces an actionable signal and
// the risk manager can size it. A zero-volatility refusal is logged and
// skipped; the run continues.
func (s *MeanReversion) tryEnter(sctx Context, snapshot indicator.Snapshot, bar types.MarketData) error {
	signal := EvaluateEntry(snapshot, bar, s.config.RSIOversold, s.config.RSIOverbought)
	signal.Name = s.Name()

	side, ok := signal.PositionType()
	if !ok {
		return nil
	}

	account, err := sctx.Executor.GetAccountInfo()
	if err != nil {
		return err
	}

	plan, err := s.riskManager.PlanEntry(side, bar.Close, snapshot.ATR, account.Equity)
	if err != nil {
		if errors.IsZeroVolatilityError(err) {
			sctx.Logger.Warn("entry refused",
				zap.String("symbol", bar.Symbol),
				zap.Time("bar_time", bar.Time),
				zap.Error(err),
			)

			return nil
		}

		return err
	}

	order := types.ExecuteOrder{
		ID:           uuid.New().String(),
		Symbol:       bar.Symbol,
		Side:         entrySide(side),
		OrderType:    types.OrderTypeMarket,
		Reason:       types.Reason{Reason: types.OrderReasonStrategy, Message: signal.Reason},
		Price:        plan.EntryPrice,
		StrategyName: s.Name(),
		Quantity:     plan.Quantity,
		PositionType: side,
		TakeProfit:   optional.Some(types.ProtectiveLevel{Price: plan.TargetPrice}),
		StopLoss:     optional.Some(types.ProtectiveLevel{Price: plan.StopPrice}),
	}
	if err := order.Validate(); err != nil {
		return err
	}

	if err := sctx.Executor.EnterPosition(order); err != nil {
		return err
	}

	sctx.Logger.Info("position opened",
		zap.String("symbol", order.Symbol),
		zap.String("side", string(order.Side)),
		zap.Float64("price", order.Price),
		zap.Float64("quantity", order.Quantity),
		zap.Float64("stop", plan.StopPrice),
		zap.Float64("target", plan.TargetPrice),
	)

	return nil
}

func entrySide(side types.PositionType) types.PurchaseType {
	if side == types.PositionTypeShort {
		return types.PurchaseTypeSell
	}

	return types.PurchaseTypeBuy
}

func exitReason(trigger risk.ExitTrigger) types.Reason {
	message := "protective stop breached"
	if trigger.Reason == types.OrderReasonTakeProfit {
		message = "profit target reached"
	}

	return types.Reason{Reason: trigger.Reason, Message: message}
}
