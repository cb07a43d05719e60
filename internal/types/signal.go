package types

import "time"

type SignalType string

const (
	// SignalTypeBuy is a signal that tells the strategy to open a long position
	SignalTypeBuy SignalType = "buy"
	// SignalTypeSell is a signal that tells the strategy to open a short position
	SignalTypeSell SignalType = "sell"
	// SignalTypeNoAction is a signal that tells the strategy to take no action
	SignalTypeNoAction SignalType = "no_action"
)

type Signal struct {
	// Time is the time of the signal
	Time time.Time
	// Type is the type of the signal
	Type SignalType
	// Name is the name of the signal
	Name string
	// Reason is the reason for the signal
	Reason string
	// Symbol is the symbol of the signal
	Symbol string
}

// IsActionable reports whether the signal asks for an entry.
func (s Signal) IsActionable() bool {
	return s.Type == SignalTypeBuy || s.Type == SignalTypeSell
}

// PositionType maps an entry signal to the position side it opens.
// Returns false for signals that open nothing.
func (s Signal) PositionType() (PositionType, bool) {
	switch s.Type {
	case SignalTypeBuy:
		return PositionTypeLong, true
	case SignalTypeSell:
		return PositionTypeShort, true
	default:
		return "", false
	}
}
