package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type TradeHoldingTime struct {
	// Minimum holding time of a trade in seconds
	Min int `yaml:"min"`
	// Maximum holding time of a trade in seconds
	Max int `yaml:"max"`
	// Average holding time of a trade in seconds
	Avg int `yaml:"avg"`
}

type TradePnl struct {
	// Realized PnL. By adding all the closed positions' pnl.
	RealizedPnL float64 `yaml:"realized_pnl"`
	// Unrealized PnL of the position still open at the end of the stream,
	// marked at the last close.
	UnrealizedPnL float64 `yaml:"unrealized_pnl"`
	// Total PnL. By adding RealizedPnL and UnrealizedPnL.
	TotalPnL float64 `yaml:"total_pnl"`
	// Maximum loss. Find all realized pnl's minimum value.
	MaximumLoss float64 `yaml:"maximum_loss"`
	// Maximum profit. Find all realized pnl's maximum value.
	MaximumProfit float64 `yaml:"maximum_profit"`
}

type TradeResult struct {
	// Count of all closed positions.
	NumberOfTrades int `yaml:"number_of_trades"`
	// Count of winning trades that has positive pnl.
	NumberOfWinningTrades int `yaml:"number_of_winning_trades"`
	// Count of losing trades that has negative pnl.
	NumberOfLosingTrades int `yaml:"number_of_losing_trades"`
	// Win rate.
	WinRate float64 `yaml:"win_rate"`
	// Maximum drawdown.
	MaxDrawdown float64 `yaml:"max_drawdown"`
	// Count of positions still open when the stream ended.
	NumberOfOpenPositions int `yaml:"number_of_open_positions"`
}

type TradeStats struct {
	// ID is the unique identifier for this backtest run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when this backtest run was executed.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// Symbol of the trading pair.
	Symbol string `yaml:"symbol"`
	// StrategyName is the name of the strategy that produced these stats.
	StrategyName string `yaml:"strategy_name" json:"strategy_name"`
	// InitialCapital the account started with.
	InitialCapital float64 `yaml:"initial_capital"`
	// FinalBalance after all closed trades.
	FinalBalance float64 `yaml:"final_balance"`
	// FinalEquity including any unrealized P&L at the last bar.
	FinalEquity float64 `yaml:"final_equity"`
	// Result of all trades.
	TradeResult TradeResult `yaml:"trade_result"`
	// Total spread cost paid on fills.
	TotalSpreadCost float64 `yaml:"total_spread_cost"`
	// Holding time of all trades.
	TradeHoldingTime TradeHoldingTime `yaml:"trade_holding_time"`
	// PnL of all trades.
	TradePnl TradePnl `yaml:"trade_pnl"`
	// Buy and hold PnL.
	BuyAndHoldPnl float64 `yaml:"buy_and_hold_pnl"`
	// TradesFilePath is the path to the trades output file.
	TradesFilePath string `yaml:"trades_file_path" json:"trades_file_path"`
	// OrdersFilePath is the path to the orders output file.
	OrdersFilePath string `yaml:"orders_file_path" json:"orders_file_path"`
	// PositionsFilePath is the path to the positions output file.
	PositionsFilePath string `yaml:"positions_file_path" json:"positions_file_path"`
	// DataPath is the path to the market data file used for this backtest.
	DataPath string `yaml:"data_path" json:"data_path"`
}

func WriteTradeStats(path string, stats []TradeStats) error {
	// Marshal the struct to YAML
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal trade stats to YAML: %w", err)
	}

	// Write the YAML data to the file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write trade stats to file: %w", err)
	}

	return nil
}
