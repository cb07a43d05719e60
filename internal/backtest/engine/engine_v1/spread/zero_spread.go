package spread

// ZeroSpread implements SpreadModel with no spread at all.
type ZeroSpread struct{}

// NewZeroSpread creates a spread model where fills happen exactly at mid price.
func NewZeroSpread() SpreadModel {
	return &ZeroSpread{}
}

// HalfSpread returns 0 for any symbol.
func (s *ZeroSpread) HalfSpread(symbol string) float64 {
	return 0.0
}
