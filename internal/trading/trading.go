package trading

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-fx/internal/types"
)

// Executor is the boundary between a strategy and whatever books its orders.
// The strategy decides; the executor fills, keeps the account and enforces
// the single-position rule.
type Executor interface {
	// EnterPosition opens a position from a validated entry order
	EnterPosition(order types.ExecuteOrder) error
	// ExitPosition closes the open position at the order's exact price
	ExitPosition(order types.ExitOrder) error
	// GetPosition returns the currently open position, if any
	GetPosition() (optional.Option[types.Position], error)
	// GetAccountInfo returns the current account state including balance, equity, and P&L
	GetAccountInfo() (types.AccountInfo, error)
}
