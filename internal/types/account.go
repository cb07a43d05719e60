package types

// AccountInfo represents the current account state of a margin-style FX
// account. The balance only moves when a position is closed; open positions
// are carried as unrealized P&L inside equity.
type AccountInfo struct {
	// InitialCapital is the balance the account started with
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital"`
	// Balance is the current cash balance (excluding unrealized P&L)
	Balance float64 `json:"balance" yaml:"balance"`
	// Equity is the total account value (balance + unrealized P&L)
	Equity float64 `json:"equity" yaml:"equity"`
	// RealizedPnL is the total realized profit/loss from closed positions
	RealizedPnL float64 `json:"realized_pnl" yaml:"realized_pnl"`
	// UnrealizedPnL is the total unrealized profit/loss from open positions
	UnrealizedPnL float64 `json:"unrealized_pnl" yaml:"unrealized_pnl"`
	// SpreadCost is the total cost paid crossing the spread on fills
	SpreadCost float64 `json:"spread_cost" yaml:"spread_cost"`
}
