package engine

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-fx/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-fx/internal/logger"
	"github.com/rxtech-lab/argo-fx/internal/types"
	"github.com/rxtech-lab/argo-fx/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PositionStatus string

const (
	PositionStatusOpen   PositionStatus = "OPEN"
	PositionStatusClosed PositionStatus = "CLOSED"
)

const (
	tradesParquetFile    = "trades.parquet"
	ordersParquetFile    = "orders.parquet"
	positionsParquetFile = "positions.parquet"
	tradesCSVFile        = "trades.csv"
	ordersCSVFile        = "orders.csv"
	positionsCSVFile     = "positions.csv"
)

// PositionRecord is a position row including its lifecycle columns. A record
// stays OPEN until an exit fill closes it; the exit columns are only set on
// CLOSED records, except for exit_reason which is also stamped on positions
// still open when the data stream ends.
type PositionRecord struct {
	Position    types.Position
	Status      PositionStatus
	ClosedAt    optional.Option[time.Time]
	ExitPrice   optional.Option[float64]
	ExitReason  string
	RealizedPnL float64
}

// StatsContext carries the run metadata GetStats needs to assemble a report.
type StatsContext struct {
	RunID          string
	StrategyName   string
	DataPath       string
	ResultFolder   string
	InitialCapital float64
	DataSource     datasource.DataSource
}

type BacktestState struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

func NewBacktestState(logger *logger.Logger) (*BacktestState, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		logger.Error("Failed to open database", zap.Error(err))

		return nil, errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to open state database", err)
	}

	return &BacktestState{
		logger: logger,
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the tables for tracking orders, trades and positions.
func (b *BacktestState) Initialize() error {
	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS orders (
			order_id TEXT PRIMARY KEY,
			symbol TEXT,
			side TEXT,
			position_type TEXT,
			quantity DOUBLE,
			price DOUBLE,
			timestamp TIMESTAMP,
			is_completed BOOLEAN,
			status TEXT,
			reason TEXT,
			message TEXT,
			strategy_name TEXT,
			spread_cost DOUBLE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create orders table: %w", err)
	}

	_, err = b.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			order_id TEXT,
			symbol TEXT,
			side TEXT,
			position_type TEXT,
			quantity DOUBLE,
			price DOUBLE,
			timestamp TIMESTAMP,
			is_completed BOOLEAN,
			status TEXT,
			reason TEXT,
			message TEXT,
			strategy_name TEXT,
			executed_at TIMESTAMP,
			executed_qty DOUBLE,
			executed_price DOUBLE,
			spread_cost DOUBLE,
			pnl DOUBLE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create trades table: %w", err)
	}

	_, err = b.db.Exec(`
		CREATE TABLE IF NOT EXISTS positions (
			entry_order_id TEXT PRIMARY KEY,
			symbol TEXT,
			side TEXT,
			entry_price DOUBLE,
			stop_price DOUBLE,
			target_price DOUBLE,
			quantity DOUBLE,
			opened_at TIMESTAMP,
			strategy_name TEXT,
			status TEXT,
			closed_at TIMESTAMP,
			exit_price DOUBLE,
			exit_reason TEXT,
			realized_pnl DOUBLE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create positions table: %w", err)
	}

	return nil
}

// RecordEntry writes an entry fill and opens its position in one transaction.
// Only one position may be open at a time.
func (b *BacktestState) RecordEntry(order types.Order, position types.Position) (types.Trade, error) {
	open, err := b.GetOpenPosition()
	if err != nil {
		return types.Trade{}, err
	}

	if open.IsSome() {
		return types.Trade{}, errors.Newf(errors.ErrCodePositionAlreadyOpen, "position already open for %s", open.Unwrap().Symbol)
	}

	trade := types.Trade{
		Order:         order,
		ExecutedAt:    order.Timestamp,
		ExecutedQty:   order.Quantity,
		ExecutedPrice: order.Price,
		SpreadCost:    order.SpreadCost,
		PnL:           0,
	}

	tx, err := b.db.Begin()
	if err != nil {
		return types.Trade{}, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := b.insertOrder(tx, order); err != nil {
		tx.Rollback()

		return types.Trade{}, err
	}

	if err := b.insertTrade(tx, trade); err != nil {
		tx.Rollback()

		return types.Trade{}, err
	}

	insertPosition := b.sq.
		Insert("positions").
		Columns(
			"entry_order_id", "symbol", "side", "entry_price", "stop_price", "target_price",
			"quantity", "opened_at", "strategy_name", "status", "closed_at", "exit_price",
			"exit_reason", "realized_pnl",
		).
		Values(
			position.EntryOrderID, position.Symbol, position.Side, position.EntryPrice,
			position.StopPrice, position.TargetPrice, position.Quantity, position.OpenedAt,
			position.StrategyName, PositionStatusOpen, nil, nil, "", 0.0,
		).
		RunWith(tx)

	if _, err := insertPosition.Exec(); err != nil {
		tx.Rollback()

		return types.Trade{}, fmt.Errorf("failed to insert position: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return types.Trade{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return trade, nil
}

// RecordExit writes an exit fill and closes the matching position in one
// transaction. The realized P&L is computed from the position's entry fill
// and the exit order price.
func (b *BacktestState) RecordExit(order types.Order, position types.Position) (types.Trade, error) {
	pnl := position.RealizedPnL(order.Price)

	trade := types.Trade{
		Order:         order,
		ExecutedAt:    order.Timestamp,
		ExecutedQty:   order.Quantity,
		ExecutedPrice: order.Price,
		SpreadCost:    order.SpreadCost,
		PnL:           pnl,
	}

	tx, err := b.db.Begin()
	if err != nil {
		return types.Trade{}, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := b.insertOrder(tx, order); err != nil {
		tx.Rollback()

		return types.Trade{}, err
	}

	if err := b.insertTrade(tx, trade); err != nil {
		tx.Rollback()

		return types.Trade{}, err
	}

	updatePosition := b.sq.
		Update("positions").
		Set("status", PositionStatusClosed).
		Set("closed_at", order.Timestamp).
		Set("exit_price", order.Price).
		Set("exit_reason", order.Reason.Reason).
		Set("realized_pnl", pnl).
		Where(squirrel.Eq{"entry_order_id": position.EntryOrderID, "status": PositionStatusOpen}).
		RunWith(tx)

	result, err := updatePosition.Exec()
	if err != nil {
		tx.Rollback()

		return types.Trade{}, fmt.Errorf("failed to close position: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()

		return types.Trade{}, fmt.Errorf("failed to check closed position: %w", err)
	}

	if affected != 1 {
		tx.Rollback()

		return types.Trade{}, errors.Newf(errors.ErrCodePositionNotFound, "no open position for entry order %s", position.EntryOrderID)
	}

	if err := tx.Commit(); err != nil {
		return types.Trade{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return trade, nil
}

func (b *BacktestState) insertOrder(tx *sql.Tx, order types.Order) error {
	insertQuery := b.sq.
		Insert("orders").
		Columns(
			"order_id", "symbol", "side", "position_type", "quantity", "price", "timestamp",
			"is_completed", "status", "reason", "message", "strategy_name", "spread_cost",
		).
		Values(
			order.OrderID, order.Symbol, order.Side, order.PositionType, order.Quantity,
			order.Price, order.Timestamp, order.IsCompleted, order.Status,
			order.Reason.Reason, order.Reason.Message, order.StrategyName, order.SpreadCost,
		).
		RunWith(tx)

	if _, err := insertQuery.Exec(); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	return nil
}

func (b *BacktestState) insertTrade(tx *sql.Tx, trade types.Trade) error {
	insertQuery := b.sq.
		Insert("trades").
		Columns(
			"order_id", "symbol", "side", "position_type", "quantity", "price", "timestamp",
			"is_completed", "status", "reason", "message", "strategy_name",
			"executed_at", "executed_qty", "executed_price", "spread_cost", "pnl",
		).
		Values(
			trade.Order.OrderID, trade.Order.Symbol, trade.Order.Side, trade.Order.PositionType,
			trade.Order.Quantity, trade.Order.Price, trade.Order.Timestamp, trade.Order.IsCompleted,
			trade.Order.Status, trade.Order.Reason.Reason, trade.Order.Reason.Message,
			trade.Order.StrategyName, trade.ExecutedAt, trade.ExecutedQty, trade.ExecutedPrice,
			trade.SpreadCost, trade.PnL,
		).
		RunWith(tx)

	if _, err := insertQuery.Exec(); err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}

	return nil
}

// GetOpenPosition returns the currently open position, if any.
func (b *BacktestState) GetOpenPosition() (optional.Option[types.Position], error) {
	return b.getOpenPosition(squirrel.Eq{"status": PositionStatusOpen})
}

func (b *BacktestState) getOpenPositionForSymbol(symbol string) (optional.Option[types.Position], error) {
	return b.getOpenPosition(squirrel.Eq{"status": PositionStatusOpen, "symbol": symbol})
}

func (b *BacktestState) getOpenPosition(where squirrel.Eq) (optional.Option[types.Position], error) {
	query := b.sq.
		Select(
			"entry_order_id", "symbol", "side", "entry_price", "stop_price", "target_price",
			"quantity", "opened_at", "strategy_name",
		).
		From("positions").
		Where(where).
		Limit(1).
		RunWith(b.db)

	var position types.Position

	err := query.QueryRow().Scan(
		&position.EntryOrderID,
		&position.Symbol,
		&position.Side,
		&position.EntryPrice,
		&position.StopPrice,
		&position.TargetPrice,
		&position.Quantity,
		&position.OpenedAt,
		&position.StrategyName,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return optional.None[types.Position](), nil
		}

		return optional.None[types.Position](), fmt.Errorf("failed to query open position: %w", err)
	}

	return optional.Some(position), nil
}

// MarkOpenPositionsEndOfStream stamps positions still open when the data
// stream ends. They keep their OPEN status; only the exit reason is recorded.
// Returns the number of positions stamped.
func (b *BacktestState) MarkOpenPositionsEndOfStream() (int, error) {
	updateQuery := b.sq.
		Update("positions").
		Set("exit_reason", types.OrderReasonEndOfStream).
		Where(squirrel.Eq{"status": PositionStatusOpen}).
		RunWith(b.db)

	result, err := updateQuery.Exec()
	if err != nil {
		return 0, fmt.Errorf("failed to mark open positions: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count marked positions: %w", err)
	}

	return int(affected), nil
}

// GetAllTrades returns all trades ordered by execution time.
func (b *BacktestState) GetAllTrades() ([]types.Trade, error) {
	selectQuery := b.sq.
		Select(
			"order_id", "symbol", "side", "position_type", "quantity", "price", "timestamp",
			"is_completed", "status", "reason", "message", "strategy_name",
			"executed_at", "executed_qty", "executed_price", "spread_cost", "pnl",
		).
		From("trades").
		OrderBy("executed_at ASC").
		RunWith(b.db)

	rows, err := selectQuery.Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []types.Trade

	for rows.Next() {
		var trade types.Trade

		err := rows.Scan(
			&trade.Order.OrderID,
			&trade.Order.Symbol,
			&trade.Order.Side,
			&trade.Order.PositionType,
			&trade.Order.Quantity,
			&trade.Order.Price,
			&trade.Order.Timestamp,
			&trade.Order.IsCompleted,
			&trade.Order.Status,
			&trade.Order.Reason.Reason,
			&trade.Order.Reason.Message,
			&trade.Order.StrategyName,
			&trade.ExecutedAt,
			&trade.ExecutedQty,
			&trade.ExecutedPrice,
			&trade.SpreadCost,
			&trade.PnL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}

		trade.Order.SpreadCost = trade.SpreadCost

		trades = append(trades, trade)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	return trades, nil
}

// GetOrderById returns an order by its id.
func (b *BacktestState) GetOrderById(orderID string) (optional.Option[types.Order], error) {
	query := b.sq.
		Select(
			"order_id", "symbol", "side", "position_type", "quantity", "price", "timestamp",
			"is_completed", "status", "reason", "message", "strategy_name", "spread_cost",
		).
		From("orders").
		Where(squirrel.Eq{"order_id": orderID}).
		RunWith(b.db)

	var order types.Order

	err := query.QueryRow().Scan(
		&order.OrderID,
		&order.Symbol,
		&order.Side,
		&order.PositionType,
		&order.Quantity,
		&order.Price,
		&order.Timestamp,
		&order.IsCompleted,
		&order.Status,
		&order.Reason.Reason,
		&order.Reason.Message,
		&order.StrategyName,
		&order.SpreadCost,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return optional.None[types.Order](), nil
		}

		return optional.None[types.Order](), fmt.Errorf("failed to get order by id: %w", err)
	}

	return optional.Some(order), nil
}

// GetAllPositionRecords returns every position row ordered by open time.
func (b *BacktestState) GetAllPositionRecords() ([]PositionRecord, error) {
	selectQuery := b.sq.
		Select(
			"entry_order_id", "symbol", "side", "entry_price", "stop_price", "target_price",
			"quantity", "opened_at", "strategy_name", "status", "closed_at", "exit_price",
			"exit_reason", "realized_pnl",
		).
		From("positions").
		OrderBy("opened_at ASC").
		RunWith(b.db)

	rows, err := selectQuery.Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var records []PositionRecord

	for rows.Next() {
		var (
			record    PositionRecord
			closedAt  sql.NullTime
			exitPrice sql.NullFloat64
		)

		err := rows.Scan(
			&record.Position.EntryOrderID,
			&record.Position.Symbol,
			&record.Position.Side,
			&record.Position.EntryPrice,
			&record.Position.StopPrice,
			&record.Position.TargetPrice,
			&record.Position.Quantity,
			&record.Position.OpenedAt,
			&record.Position.StrategyName,
			&record.Status,
			&closedAt,
			&exitPrice,
			&record.ExitReason,
			&record.RealizedPnL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}

		if closedAt.Valid {
			record.ClosedAt = optional.Some(closedAt.Time)
		}

		if exitPrice.Valid {
			record.ExitPrice = optional.Some(exitPrice.Float64)
		}

		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}

	return records, nil
}

// Cleanup resets the database state.
func (b *BacktestState) Cleanup() error {
	_, err := b.db.Exec(`
		DROP TABLE IF EXISTS trades;
		DROP TABLE IF EXISTS orders;
		DROP TABLE IF EXISTS positions;
	`)
	if err != nil {
		return fmt.Errorf("failed to cleanup tables: %w", err)
	}

	// Reinitialize
	return b.Initialize()
}

// Close releases the underlying database.
func (b *BacktestState) Close() error {
	if b.db != nil {
		return b.db.Close()
	}

	return nil
}

// Write saves the backtest results as Parquet and CSV files in the given directory.
func (b *BacktestState) Write(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	exports := []struct {
		table  string
		file   string
		format string
	}{
		{"trades", tradesParquetFile, "FORMAT PARQUET"},
		{"orders", ordersParquetFile, "FORMAT PARQUET"},
		{"positions", positionsParquetFile, "FORMAT PARQUET"},
		{"trades", tradesCSVFile, "FORMAT CSV, HEADER"},
		{"orders", ordersCSVFile, "FORMAT CSV, HEADER"},
		{"positions", positionsCSVFile, "FORMAT CSV, HEADER"},
	}

	// Using raw SQL as Squirrel doesn't support COPY
	for _, export := range exports {
		target := filepath.Join(path, export.file)

		_, err := b.db.Exec(fmt.Sprintf(`COPY %s TO '%s' (%s)`, export.table, target, export.format))
		if err != nil {
			return fmt.Errorf("failed to export %s to %s: %w", export.table, export.file, err)
		}
	}

	b.logger.Info("Exported backtest results",
		zap.String("folder", path),
	)

	return nil
}

// calculateTradeResult calculates closed-position statistics for a symbol.
// Max drawdown is the largest peak-to-trough drop of the running realized P&L.
func (b *BacktestState) calculateTradeResult(symbol string) (types.TradeResult, error) {
	// Using raw SQL for CTE query - Squirrel doesn't natively support CTEs well
	query := `
		WITH closed AS (
			SELECT realized_pnl, closed_at
			FROM positions
			WHERE symbol = ? AND status = ?
		),
		counts AS (
			SELECT
				COUNT(*) as total,
				COALESCE(SUM(CASE WHEN realized_pnl > 0 THEN 1 ELSE 0 END), 0) as winning,
				COALESCE(SUM(CASE WHEN realized_pnl < 0 THEN 1 ELSE 0 END), 0) as losing
			FROM closed
		),
		equity_curve AS (
			SELECT
				closed_at,
				SUM(realized_pnl) OVER (ORDER BY closed_at) as equity
			FROM closed
		),
		drawdowns AS (
			SELECT
				GREATEST(MAX(equity) OVER (ORDER BY closed_at ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW), 0) - equity as drawdown
			FROM equity_curve
		)
		SELECT
			counts.total,
			counts.winning,
			counts.losing,
			CASE WHEN counts.total > 0 THEN CAST(counts.winning AS DOUBLE) / counts.total ELSE 0 END as win_rate,
			COALESCE((SELECT MAX(drawdown) FROM drawdowns), 0) as max_drawdown
		FROM counts
	`

	var result types.TradeResult

	err := b.db.QueryRow(query, symbol, PositionStatusClosed).Scan(
		&result.NumberOfTrades,
		&result.NumberOfWinningTrades,
		&result.NumberOfLosingTrades,
		&result.WinRate,
		&result.MaxDrawdown,
	)
	if err != nil {
		return types.TradeResult{}, fmt.Errorf("failed to calculate trade result: %w", err)
	}

	openQuery := b.sq.
		Select("COUNT(*)").
		From("positions").
		Where(squirrel.Eq{"symbol": symbol, "status": PositionStatusOpen}).
		RunWith(b.db)

	if err := openQuery.QueryRow().Scan(&result.NumberOfOpenPositions); err != nil {
		return types.TradeResult{}, fmt.Errorf("failed to count open positions: %w", err)
	}

	return result, nil
}

// calculateTradeHoldingTime calculates holding time statistics in seconds for
// the closed positions of a symbol.
func (b *BacktestState) calculateTradeHoldingTime(symbol string) (types.TradeHoldingTime, error) {
	query := `
		WITH durations AS (
			SELECT EXTRACT(EPOCH FROM (closed_at - opened_at)) as duration
			FROM positions
			WHERE symbol = ? AND status = ?
		)
		SELECT
			COALESCE(MIN(duration), 0) as min_duration,
			COALESCE(MAX(duration), 0) as max_duration,
			COALESCE(AVG(duration), 0) as avg_duration
		FROM durations
	`

	var minDuration, maxDuration, avgDuration float64

	err := b.db.QueryRow(query, symbol, PositionStatusClosed).Scan(
		&minDuration,
		&maxDuration,
		&avgDuration,
	)
	if err != nil {
		return types.TradeHoldingTime{}, fmt.Errorf("failed to calculate holding time: %w", err)
	}

	return types.TradeHoldingTime{
		Min: int(math.Round(minDuration)),
		Max: int(math.Round(maxDuration)),
		Avg: int(math.Round(avgDuration)),
	}, nil
}

// calculateTotalSpreadCost sums the spread cost paid on all fills for a symbol.
func (b *BacktestState) calculateTotalSpreadCost(symbol string) (float64, error) {
	query := b.sq.
		Select("COALESCE(SUM(spread_cost), 0)").
		From("trades").
		Where(squirrel.Eq{"symbol": symbol}).
		RunWith(b.db)

	var totalSpreadCost float64

	err := query.QueryRow().Scan(&totalSpreadCost)
	if err != nil {
		return 0, fmt.Errorf("failed to calculate total spread cost: %w", err)
	}

	return totalSpreadCost, nil
}

// GetStats returns the statistics of the backtest, one entry per traded symbol.
func (b *BacktestState) GetStats(ctx StatsContext) ([]types.TradeStats, error) {
	selectQuery := b.sq.
		Select("DISTINCT symbol").
		From("trades").
		OrderBy("symbol").
		RunWith(b.db)

	rows, err := selectQuery.Query()
	if err != nil {
		return nil, fmt.Errorf("failed to get unique symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string

	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}

		symbols = append(symbols, symbol)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbols: %w", err)
	}

	var stats []types.TradeStats

	for _, symbol := range symbols {
		symbolStats, err := b.calculateSymbolStats(ctx, symbol)
		if err != nil {
			return nil, err
		}

		stats = append(stats, symbolStats)
	}

	return stats, nil
}

func (b *BacktestState) calculateSymbolStats(ctx StatsContext, symbol string) (types.TradeStats, error) {
	tradeResult, err := b.calculateTradeResult(symbol)
	if err != nil {
		return types.TradeStats{}, err
	}

	holdingTime, err := b.calculateTradeHoldingTime(symbol)
	if err != nil {
		return types.TradeStats{}, err
	}

	totalSpreadCost, err := b.calculateTotalSpreadCost(symbol)
	if err != nil {
		return types.TradeStats{}, err
	}

	pnlQuery := b.sq.
		Select(
			"COALESCE(SUM(realized_pnl), 0) as realized_pnl",
			"COALESCE(MIN(realized_pnl), 0) as max_loss",
			"COALESCE(MAX(realized_pnl), 0) as max_profit",
		).
		From("positions").
		Where(squirrel.Eq{"symbol": symbol, "status": PositionStatusClosed}).
		RunWith(b.db)

	var tradePnl types.TradePnl

	err = pnlQuery.QueryRow().Scan(&tradePnl.RealizedPnL, &tradePnl.MaximumLoss, &tradePnl.MaximumProfit)
	if err != nil {
		return types.TradeStats{}, fmt.Errorf("failed to calculate pnl: %w", err)
	}

	// Mark any open position at the last available close
	lastData, err := ctx.DataSource.ReadLastData(symbol)
	if err != nil {
		return types.TradeStats{}, fmt.Errorf("failed to get last market data for %s: %w", symbol, err)
	}

	openPosition, err := b.getOpenPositionForSymbol(symbol)
	if err != nil {
		return types.TradeStats{}, err
	}

	if openPosition.IsSome() {
		position := openPosition.Unwrap()
		tradePnl.UnrealizedPnL = position.UnrealizedPnL(lastData.Close)
	}

	tradePnl.TotalPnL = tradePnl.RealizedPnL + tradePnl.UnrealizedPnL

	buyAndHold, err := b.calculateBuyAndHold(ctx, symbol, lastData.Close)
	if err != nil {
		return types.TradeStats{}, err
	}

	finalBalance := ctx.InitialCapital + tradePnl.RealizedPnL

	return types.TradeStats{
		ID:             ctx.RunID,
		Timestamp:      time.Now(),
		Symbol:         symbol,
		StrategyName:   ctx.StrategyName,
		InitialCapital: ctx.InitialCapital,
		FinalBalance:   finalBalance,
		FinalEquity:    finalBalance + tradePnl.UnrealizedPnL,
		TradeResult:    tradeResult,

		TotalSpreadCost:  totalSpreadCost,
		TradeHoldingTime: holdingTime,
		TradePnl:         tradePnl,
		BuyAndHoldPnl:    buyAndHold,

		TradesFilePath:    filepath.Join(ctx.ResultFolder, tradesParquetFile),
		OrdersFilePath:    filepath.Join(ctx.ResultFolder, ordersParquetFile),
		PositionsFilePath: filepath.Join(ctx.ResultFolder, positionsParquetFile),
		DataPath:          ctx.DataPath,
	}, nil
}

// calculateBuyAndHold computes the P&L of investing the initial capital at the
// first close of the stream and holding it to the last close.
func (b *BacktestState) calculateBuyAndHold(ctx StatsContext, symbol string, lastClose float64) (float64, error) {
	firstData, err := ctx.DataSource.ReadFirstData(symbol)
	if err != nil {
		return 0, fmt.Errorf("failed to get first market data for %s: %w", symbol, err)
	}

	if firstData.Close <= 0 {
		return 0, nil
	}

	quantityDec := decimal.NewFromFloat(ctx.InitialCapital).Div(decimal.NewFromFloat(firstData.Close))
	pnlDec := quantityDec.Mul(decimal.NewFromFloat(lastClose).Sub(decimal.NewFromFloat(firstData.Close)))

	pnl, _ := pnlDec.Float64()

	return pnl, nil
}
